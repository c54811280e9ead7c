package harness

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/google/uuid"

	"github.com/pumped-fn/dataflow"
	"github.com/pumped-fn/dataflow/extensions"
	"github.com/pumped-fn/dataflow/logging"
)

type runOptions struct {
	logger logging.Logger
	pool   *dataflow.PoolManager
}

// RunOption configures Run
type RunOption func(*runOptions)

// WithLogger attaches a logging extension to every context of the run
func WithLogger(logger logging.Logger) RunOption {
	return func(o *runOptions) {
		o.logger = logger
	}
}

// WithPool runs the scenario on its own pool manager
func WithPool(pm *dataflow.PoolManager) RunOption {
	return func(o *runOptions) {
		o.pool = pm
	}
}

type runner struct {
	scenario    *Scenario
	result      *Result
	contexts    map[string]dataflow.Context
	connections map[string]*dataflow.Connection
	subs        map[string]*dataflow.Subscription
	scoped      map[string]*ScopedValue
}

// Run executes the scenario. Expectation mismatches are reported in the
// result; malformed steps abort the run with an error.
func Run(s *Scenario, opts ...RunOption) (*Result, error) {
	o := &runOptions{}
	for _, opt := range opts {
		opt(o)
	}

	var ctxOpts []dataflow.Option
	if o.logger != nil {
		ctxOpts = append(ctxOpts, dataflow.WithExtension(extensions.NewLoggingExtension(o.logger)))
	}
	if o.pool != nil {
		ctxOpts = append(ctxOpts, dataflow.WithPool(o.pool))
	}

	r := &runner{
		scenario: s,
		result: &Result{
			RunID:    uuid.NewString(),
			Scenario: s.Name,
			Pass:     true,
			Trace:    []TraceEvent{},
		},
		contexts:    make(map[string]dataflow.Context),
		connections: make(map[string]*dataflow.Connection),
		subs:        make(map[string]*dataflow.Subscription),
		scoped:      make(map[string]*ScopedValue),
	}

	for _, name := range s.Contexts {
		r.contexts[name] = dataflow.NewEntity(append(ctxOpts, dataflow.WithName(name))...)
	}
	for _, name := range s.Connections {
		g := dataflow.NewConnection(append(ctxOpts, dataflow.WithName(name))...)
		r.contexts[name] = g
		r.connections[name] = g
	}

	defer r.close()

	for i, step := range s.Steps {
		if err := r.step(step); err != nil {
			return r.result, fmt.Errorf("steps[%d] (%s): %w", i, step.Op, err)
		}
	}

	r.result.Graphs = make(map[string]string, len(r.connections))
	for name, g := range r.connections {
		r.result.Graphs[name] = extensions.RenderGraph(g)
	}
	return r.result, nil
}

func (r *runner) close() {
	for _, sub := range r.subs {
		sub.Dispose()
	}
	for _, name := range r.scenario.Connections {
		r.contexts[name].Dispose()
	}
	for _, name := range r.scenario.Contexts {
		r.contexts[name].Dispose()
	}
}

// record appends an event and returns its index so the result can be
// filled in after the operation ran. Notifications raised by the operation
// land after it.
func (r *runner) record(ev TraceEvent) int {
	ev.Seq = len(r.result.Trace) + 1
	r.result.Trace = append(r.result.Trace, ev)
	return len(r.result.Trace) - 1
}

func (r *runner) step(step Step) error {
	idx := r.record(TraceEvent{
		Op:     step.Op,
		Target: step.Target,
		Member: step.Member,
		Label:  step.Label,
		Type:   step.Type,
	})

	result, value, err := r.apply(step)
	if err != nil {
		return err
	}

	r.result.Trace[idx].Value = value
	r.result.Trace[idx].Result = result

	if step.Expect != nil && *step.Expect != result {
		r.result.Pass = false
		r.result.Errors = append(r.result.Errors, fmt.Sprintf(
			"step %d (%s %s): expected %q, got %q",
			r.result.Trace[idx].Seq, step.Op, step.Target, *step.Expect, result,
		))
	}
	return nil
}

// apply runs one step and returns its result and rendered input value
func (r *runner) apply(step Step) (string, string, error) {
	target := r.contexts[step.Target]

	switch step.Op {
	case OpPublish, OpPublishForce:
		v, err := r.value(step)
		if err != nil {
			return "", "", err
		}
		if step.Op == OpPublishForce {
			target.PublishValueForce(v)
		} else {
			target.PublishValue(v)
		}
		return "", render(v.Interface()), nil

	case OpGet:
		v, ok := target.Lookup(types[step.Type].typ)
		if !ok {
			return "miss", "", nil
		}
		return render(v), "", nil

	case OpContains:
		return strconv.FormatBool(target.Has(types[step.Type].typ)), "", nil

	case OpRemove:
		return strconv.FormatBool(target.Delete(types[step.Type].typ)), "", nil

	case OpSubscribe:
		if _, ok := r.subs[step.Label]; ok {
			return "", "", fmt.Errorf("subscription %q already exists", step.Label)
		}
		ev := TraceEvent{Op: OpNotify, Target: step.Target, Label: step.Label, Type: step.Type}
		r.subs[step.Label] = target.Observe(types[step.Type].typ).Subscribe(func(v any) {
			n := ev
			n.Value = render(v)
			r.record(n)
		})
		return "", "", nil

	case OpUnsubscribe:
		sub, ok := r.subs[step.Label]
		if !ok {
			return "", "", fmt.Errorf("unknown subscription %q", step.Label)
		}
		sub.Dispose()
		delete(r.subs, step.Label)
		return "", "", nil

	case OpConnect:
		h := r.connections[step.Target].Connect(r.contexts[step.Member])
		return linkResult(h), "", nil

	case OpDisconnect:
		g := r.connections[step.Target]
		member := r.contexts[step.Member]
		was := g.IsConnected(member)
		g.Disconnect(member)
		return strconv.FormatBool(was), "", nil

	case OpBroadcast:
		return linkResult(target.Broadcast(r.contexts[step.Member])), "", nil

	case OpBreak:
		target.Break(r.contexts[step.Member])
		return "", "", nil

	case OpRelease:
		target.Release()
		return "", "", nil

	case OpDispose:
		target.Dispose()
		return "", "", nil

	case OpTerminate:
		label := step.Value.(string)
		sv, ok := r.scoped[label]
		if !ok {
			return "", "", fmt.Errorf("unknown scoped value %q", label)
		}
		sv.Scope().Terminate()
		return "", label, nil
	}

	return "", "", fmt.Errorf("unknown op")
}

func (r *runner) value(step Step) (dataflow.Value, error) {
	if step.Type != scopedType {
		return types[step.Type].wrap(step.Value)
	}

	label, ok := step.Value.(string)
	if !ok {
		return dataflow.Value{}, fmt.Errorf("scoped value must be a label, got %T", step.Value)
	}
	sv, ok := r.scoped[label]
	if !ok {
		sv = newScopedValue(label)
		r.scoped[label] = sv
	}
	return dataflow.ValueOf(sv), nil
}

func linkResult(h dataflow.Handle) string {
	if h.Active() {
		return "linked"
	}
	return "rejected"
}

func render(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// GraphNames returns the connection names with a rendered graph, sorted
func (res *Result) GraphNames() []string {
	names := make([]string, 0, len(res.Graphs))
	for name := range res.Graphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
