package harness

import (
	"fmt"
	"reflect"

	"github.com/pumped-fn/dataflow"
)

// TraceEvent is one line of the trace
type TraceEvent struct {
	Seq    int    `json:"seq"`
	Op     string `json:"op"`
	Target string `json:"target,omitempty"`
	Member string `json:"member,omitempty"`
	Label  string `json:"label,omitempty"`
	Type   string `json:"type,omitempty"`
	Value  string `json:"value,omitempty"`
	Result string `json:"result,omitempty"`
}

// Result is the outcome of a scenario run
type Result struct {
	// RunID is unique per run and kept out of golden snapshots.
	RunID    string       `json:"run_id"`
	Scenario string       `json:"scenario"`
	Pass     bool         `json:"pass"`
	Errors   []string     `json:"errors,omitempty"`
	Trace    []TraceEvent `json:"trace"`

	// Graphs holds the rendered membership tree of each connection after
	// the last step.
	Graphs map[string]string `json:"graphs,omitempty"`
}

// ScopedValue is a value bound to its own scope
type ScopedValue struct {
	Label string
	scope *dataflow.Scope
}

func newScopedValue(label string) *ScopedValue {
	return &ScopedValue{Label: label, scope: dataflow.NewScope()}
}

func (v *ScopedValue) Scope() *dataflow.Scope {
	return v.scope
}

func (v *ScopedValue) String() string {
	return v.Label
}

// valueType is one entry of the closed type registry
type valueType struct {
	name string
	typ  reflect.Type
	wrap func(raw any) (dataflow.Value, error)
}

func register[T any](name string, convert func(raw any) (T, error)) valueType {
	return valueType{
		name: name,
		typ:  dataflow.TypeOf[T](),
		wrap: func(raw any) (dataflow.Value, error) {
			v, err := convert(raw)
			if err != nil {
				return dataflow.Value{}, err
			}
			return dataflow.ValueOf(v), nil
		},
	}
}

const scopedType = "scoped"

var types = map[string]valueType{
	"string": register("string", func(raw any) (string, error) {
		s, ok := raw.(string)
		if !ok {
			return "", fmt.Errorf("want string, got %T", raw)
		}
		return s, nil
	}),
	"int": register("int", func(raw any) (int, error) {
		n, ok := raw.(int)
		if !ok {
			return 0, fmt.Errorf("want int, got %T", raw)
		}
		return n, nil
	}),
	"float": register("float", func(raw any) (float64, error) {
		switch n := raw.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		}
		return 0, fmt.Errorf("want float, got %T", raw)
	}),
	"bool": register("bool", func(raw any) (bool, error) {
		b, ok := raw.(bool)
		if !ok {
			return false, fmt.Errorf("want bool, got %T", raw)
		}
		return b, nil
	}),
	// scoped values are resolved by label in the runner
	scopedType: {name: scopedType, typ: dataflow.TypeOf[*ScopedValue]()},
}
