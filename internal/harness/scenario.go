package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario is one scripted run
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario demonstrates.
	Description string `yaml:"description"`

	// Contexts are plain entities, created in order.
	Contexts []string `yaml:"contexts"`

	// Connections are merge graphs, created after the contexts.
	Connections []string `yaml:"connections,omitempty"`

	Steps []Step `yaml:"steps"`
}

// Step is a single operation
type Step struct {
	Op     string `yaml:"op"`
	Target string `yaml:"target,omitempty"`
	Member string `yaml:"member,omitempty"`
	Type   string `yaml:"type,omitempty"`
	Value  any    `yaml:"value,omitempty"`
	Label  string `yaml:"label,omitempty"`

	// Expect is compared with the step's recorded result, if set.
	Expect *string `yaml:"expect,omitempty"`
}

// Step operations
const (
	OpPublish      = "publish"
	OpPublishForce = "publish_force"
	OpGet          = "get"
	OpContains     = "contains"
	OpRemove       = "remove"
	OpSubscribe    = "subscribe"
	OpUnsubscribe  = "unsubscribe"
	OpConnect      = "connect"
	OpDisconnect   = "disconnect"
	OpBroadcast    = "broadcast"
	OpBreak        = "break"
	OpRelease      = "release"
	OpDispose      = "dispose"
	OpTerminate    = "terminate"

	// OpNotify marks trace events produced by subscriptions
	OpNotify = "notify"
)

// LoadScenario reads and parses a scenario YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a scenario, rejecting unknown fields
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks names and the fields each op needs
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	names := make(map[string]bool)
	connections := make(map[string]bool)
	for _, n := range s.Contexts {
		if names[n] {
			return fmt.Errorf("duplicate context %q", n)
		}
		names[n] = true
	}
	for _, n := range s.Connections {
		if names[n] {
			return fmt.Errorf("duplicate context %q", n)
		}
		names[n] = true
		connections[n] = true
	}

	for i, step := range s.Steps {
		if err := validateStep(step, names, connections); err != nil {
			return fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}
	}
	return nil
}

func validateStep(step Step, names, connections map[string]bool) error {
	needTarget := func() error {
		if !names[step.Target] {
			return fmt.Errorf("unknown target %q", step.Target)
		}
		return nil
	}
	needType := func() error {
		if _, ok := types[step.Type]; !ok {
			return fmt.Errorf("unknown type %q", step.Type)
		}
		return nil
	}

	switch step.Op {
	case OpPublish, OpPublishForce:
		if err := needTarget(); err != nil {
			return err
		}
		if err := needType(); err != nil {
			return err
		}
		if step.Value == nil {
			return fmt.Errorf("value is required")
		}
	case OpGet, OpContains, OpRemove:
		if err := needTarget(); err != nil {
			return err
		}
		return needType()
	case OpSubscribe:
		if err := needTarget(); err != nil {
			return err
		}
		if step.Label == "" {
			return fmt.Errorf("label is required")
		}
		return needType()
	case OpUnsubscribe:
		if step.Label == "" {
			return fmt.Errorf("label is required")
		}
	case OpConnect, OpDisconnect:
		if !connections[step.Target] {
			return fmt.Errorf("target %q is not a connection", step.Target)
		}
		if !names[step.Member] {
			return fmt.Errorf("unknown member %q", step.Member)
		}
	case OpBroadcast, OpBreak:
		if err := needTarget(); err != nil {
			return err
		}
		if !names[step.Member] {
			return fmt.Errorf("unknown member %q", step.Member)
		}
	case OpRelease, OpDispose:
		return needTarget()
	case OpTerminate:
		if _, ok := step.Value.(string); !ok {
			return fmt.Errorf("value must name a scoped value")
		}
	default:
		return fmt.Errorf("unknown op")
	}
	return nil
}
