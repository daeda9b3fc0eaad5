package graphdb

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// StepKind identifies the stage a step name maps to
type StepKind int

const (
	StepUnknown StepKind = iota
	StepVertex
	StepEdge
	StepOut
	StepIn
	StepBoth
	StepOutE
	StepInE
	StepBothE
	StepOutV
	StepInV
	StepBothV
	StepOtherV
	StepHas
	StepHasLabel
	StepHasID
	StepFilter
	StepWhere
	StepIs
	StepAnd
	StepOr
	StepNot
	StepSimplePath
	StepDedup
	StepValues
	StepProperty
	StepID
	StepLabel
	StepPath
	StepOrder
	StepBy
	StepTake
	StepSkip
	StepRange
	StepTail
	StepCount
	StepSum
	StepMin
	StepMax
	StepMean
	StepGroup
	StepGroupCount
	StepAs
	StepBack
	StepLog
	StepRun
)

// stepKinds is the closed table of accepted step names, aliases included
var stepKinds = map[string]StepKind{
	"v": StepVertex, "V": StepVertex,
	"e": StepEdge, "E": StepEdge,
	"out": StepOut, "in": StepIn, "both": StepBoth,
	"outE": StepOutE, "inE": StepInE, "bothE": StepBothE,
	"outV": StepOutV, "inV": StepInV, "bothV": StepBothV, "otherV": StepOtherV,
	"has": StepHas, "hasLabel": StepHasLabel, "hasId": StepHasID,
	"filter": StepFilter, "where": StepWhere, "is": StepIs,
	"and": StepAnd, "or": StepOr, "not": StepNot,
	"simplePath": StepSimplePath,
	"dedup":      StepDedup, "deduplicate": StepDedup,
	"values": StepValues, "property": StepProperty,
	"id": StepID, "label": StepLabel, "path": StepPath,
	"order": StepOrder, "by": StepBy,
	"take": StepTake, "limit": StepTake,
	"skip": StepSkip, "range": StepRange, "tail": StepTail,
	"count": StepCount, "sum": StepSum, "min": StepMin, "max": StepMax,
	"mean": StepMean, "avg": StepMean,
	"group": StepGroup, "groupCount": StepGroupCount,
	"as": StepAs, "back": StepBack, "log": StepLog, "run": StepRun,
}

// LookupStep maps a step name to its kind
func LookupStep(name string) (StepKind, bool) {
	k, ok := stepKinds[name]
	return k, ok
}

// byFolder is implemented by stages that accept a following by() modulator
type byFolder interface {
	by(args []Value) bool
}

// BuildOption configures Build
type BuildOption func(*buildConfig)

type buildConfig struct {
	sink LogSink
}

// WithLogSink sets the collaborator that receives log() snapshots
func WithLogSink(sink LogSink) BuildOption {
	return func(c *buildConfig) {
		c.sink = sink
	}
}

// Pipeline is an ordered list of stages bound to a seed. It runs once.
type Pipeline struct {
	stages []stage
	names  []string
	used   bool
	calls  int
}

// Names returns the step name of each stage
func (p *Pipeline) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Calls returns how many stage invocations the last run made
func (p *Pipeline) Calls() int { return p.calls }

// Build maps parsed steps onto a pipeline over g. It fails before touching
// the graph when the query does not start with v/e or names an unknown step.
func Build(g GraphStore, steps []Step, opts ...BuildOption) (*Pipeline, error) {
	log := logrus.WithField("component", "Builder")
	cfg := buildConfig{sink: NewLogrusSink(logrus.StandardLogger())}
	for _, opt := range opts {
		opt(&cfg)
	}

	if len(steps) == 0 {
		return nil, fmt.Errorf("%w: no steps", ErrQueryStart)
	}
	first, _ := LookupStep(steps[0].Name)
	if first != StepVertex && first != StepEdge {
		log.WithField("step", steps[0].Name).Error("Query does not start with a seed")
		return nil, fmt.Errorf("%w: got %s", ErrQueryStart, steps[0].Name)
	}

	// resolve every name first so an unknown step fails fast
	kinds := make([]StepKind, len(steps))
	kinds[0] = first
	for i, s := range steps[1:] {
		k, ok := LookupStep(s.Name)
		if !ok {
			log.WithField("step", s.Name).Error("Unknown step")
			return nil, fmt.Errorf("%w: %s", ErrUnknownStep, s.Name)
		}
		kinds[i+1] = k
	}

	p := &Pipeline{}
	for i, s := range steps {
		switch kinds[i] {
		case StepRun:
			continue
		case StepBy:
			if n := len(p.stages); n > 0 {
				if f, ok := p.stages[n-1].(byFolder); ok && f.by(s.Args) {
					continue
				}
			}
			log.WithField("after", lastName(p.names)).Warn("by() ignored: it must follow order, group or groupCount")
			continue
		}
		st, err := newStage(g, kinds[i], s, &cfg)
		if err != nil {
			return nil, err
		}
		p.stages = append(p.stages, st)
		p.names = append(p.names, s.Name)
	}
	log.WithField("stages", p.names).Debug("Pipeline built")
	return p, nil
}

// newStage creates the stage for one step with its initial state
func newStage(g GraphStore, kind StepKind, step Step, cfg *buildConfig) (stage, error) {
	args := step.Args
	var first *Value
	if len(args) > 0 {
		first = &args[0]
	}

	switch kind {
	case StepVertex:
		return &seedStage{load: vertexSeed(g, args)}, nil
	case StepEdge:
		return &seedStage{load: edgeSeed(g, args)}, nil

	case StepOut:
		return &navStage{expand: adjacent(g, dirOut, false, stringArgs(args))}, nil
	case StepIn:
		return &navStage{expand: adjacent(g, dirIn, false, stringArgs(args))}, nil
	case StepBoth:
		return &navStage{expand: adjacent(g, dirBoth, false, stringArgs(args))}, nil
	case StepOutE:
		return &navStage{expand: adjacent(g, dirOut, true, stringArgs(args))}, nil
	case StepInE:
		return &navStage{expand: adjacent(g, dirIn, true, stringArgs(args))}, nil
	case StepBothE:
		return &navStage{expand: adjacent(g, dirBoth, true, stringArgs(args))}, nil
	case StepOutV, StepInV, StepBothV, StepOtherV:
		return &navStage{expand: endpoints(g, kind)}, nil

	case StepHas:
		return &filterStage{test: hasTest(args)}, nil
	case StepHasLabel:
		return &filterStage{test: func(t *Traverser) bool {
			label, ok := labelOf(subject(t))
			return ok && containsValue(args, label)
		}}, nil
	case StepHasID:
		ids := stringArgs(args)
		return &filterStage{test: func(t *Traverser) bool {
			id, ok := field(subject(t), fieldID)
			return ok && containsString(ids, idString(id))
		}}, nil
	case StepFilter, StepWhere:
		if first == nil {
			return &filterStage{test: func(*Traverser) bool { return true }}, nil
		}
		cond := *first
		return &filterStage{test: func(t *Traverser) bool { return matches(cond, t) }}, nil
	case StepIs:
		if first == nil {
			return &filterStage{test: func(*Traverser) bool { return true }}, nil
		}
		cond := *first
		return &filterStage{test: func(t *Traverser) bool { return matchesValue(cond, t) }}, nil
	case StepAnd:
		return &filterStage{test: func(t *Traverser) bool {
			for _, c := range args {
				if !matches(c, t) {
					return false
				}
			}
			return true
		}}, nil
	case StepOr:
		return &filterStage{test: func(t *Traverser) bool {
			for _, c := range args {
				if matches(c, t) {
					return true
				}
			}
			return false
		}}, nil
	case StepNot:
		return &filterStage{test: func(t *Traverser) bool {
			return first == nil || !matches(*first, t)
		}}, nil
	case StepSimplePath:
		return &filterStage{test: isSimplePath}, nil
	case StepDedup:
		s := &dedupStage{seen: make(map[string]struct{})}
		if first != nil {
			s.key = newSelector(first)
		}
		return s, nil

	case StepValues:
		keys := stringArgs(args)
		return &mapStage{apply: func(t *Traverser) (*Traverser, bool) {
			return projectValues(t, keys)
		}}, nil
	case StepProperty:
		if first == nil {
			return &mapStage{apply: func(t *Traverser) (*Traverser, bool) { return projectValues(t, nil) }}, nil
		}
		key := stringArgs(args[:1])
		return &mapStage{apply: func(t *Traverser) (*Traverser, bool) {
			return projectValues(t, key)
		}}, nil
	case StepID:
		return &mapStage{apply: func(t *Traverser) (*Traverser, bool) {
			id, ok := field(subject(t), fieldID)
			if !ok {
				return nil, false
			}
			t.setResult(id)
			return t, true
		}}, nil
	case StepLabel:
		return &mapStage{apply: func(t *Traverser) (*Traverser, bool) {
			label, ok := labelOf(subject(t))
			if !ok {
				return nil, false
			}
			t.setResult(label)
			return t, true
		}}, nil
	case StepPath:
		return &mapStage{apply: func(t *Traverser) (*Traverser, bool) {
			t.setResult(t.Path())
			return t, true
		}}, nil

	case StepOrder:
		s := &orderStage{}
		s.by(args)
		return s, nil
	case StepTake:
		return &rangeStage{start: 0, end: max(intArg(args, 0, 1), 0)}, nil
	case StepSkip:
		return &rangeStage{start: intArg(args, 0, 0), end: -1}, nil
	case StepRange:
		return &rangeStage{start: intArg(args, 0, 0), end: intArg(args, 1, -1)}, nil
	case StepTail:
		return &tailStage{n: intArg(args, 0, 1)}, nil

	case StepCount:
		return &terminalStage{name: step.Name, acc: &countAgg{}}, nil
	case StepSum:
		return &terminalStage{name: step.Name, acc: &sumAgg{sel: newSelector(first)}}, nil
	case StepMin:
		return &terminalStage{name: step.Name, acc: &extremumAgg{sel: newSelector(first)}}, nil
	case StepMax:
		return &terminalStage{name: step.Name, acc: &extremumAgg{sel: newSelector(first), max: true}}, nil
	case StepMean:
		return &terminalStage{name: step.Name, acc: &meanAgg{sel: newSelector(first)}}, nil
	case StepGroup:
		return &terminalStage{name: step.Name, acc: newGroupAgg(first, false)}, nil
	case StepGroupCount:
		return &terminalStage{name: step.Name, acc: newGroupAgg(first, true)}, nil

	case StepAs:
		labels := stringArgs(args)
		return &mapStage{apply: func(t *Traverser) (*Traverser, bool) {
			for _, l := range labels {
				t.setMark(l)
			}
			return t, true
		}}, nil
	case StepBack:
		labels := stringArgs(args)
		return &mapStage{apply: func(t *Traverser) (*Traverser, bool) {
			if len(labels) == 0 {
				return nil, false
			}
			m, ok := t.markOf(labels[0])
			if !ok {
				return nil, false
			}
			return t.jump(m.vertex, m.edge), true
		}}, nil
	case StepLog:
		sink := cfg.sink
		return &mapStage{apply: func(t *Traverser) (*Traverser, bool) {
			if sink != nil {
				sink.Log(Snapshot(t.Value()))
			}
			return t, true
		}}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownStep, step.Name)
}

// hasTest builds the has() filter. A missing or null property always fails.
func hasTest(args []Value) func(t *Traverser) bool {
	if len(args) == 0 {
		return func(*Traverser) bool { return true }
	}
	if len(args) == 1 {
		switch args[0].Kind {
		case KindObject:
			filter := args[0].Object
			return func(t *Traverser) bool { return objectFilter(subject(t), filter) }
		case KindString:
			key := args[0].Str
			return func(t *Traverser) bool {
				v, ok := field(subject(t), key)
				return ok && v != nil
			}
		default:
			id := idString(args[0].Interface())
			return func(t *Traverser) bool {
				v, ok := field(subject(t), fieldID)
				return ok && idString(v) == id
			}
		}
	}
	key := stringArgs(args[:1])[0]
	cond := args[1]
	return func(t *Traverser) bool {
		v, ok := field(subject(t), key)
		if !ok || v == nil {
			return false
		}
		switch cond.Kind {
		case KindPredicate:
			return Evaluate(cond.Predicate, v)
		case KindFunction:
			return cond.Func.Test(view(v))
		default:
			return strictEqual(v, cond.Interface())
		}
	}
}

// projectValues implements values(): no keys gives every non-internal
// property value ordered by key, one key a scalar, several keys an array
// of the present ones in argument order
func projectValues(t *Traverser, keys []string) (*Traverser, bool) {
	item := subject(t)
	switch len(keys) {
	case 0:
		props := properties(item)
		if props == nil {
			return nil, false
		}
		names := propertyKeys(props)
		out := make([]interface{}, len(names))
		for i, k := range names {
			out[i] = props[k]
		}
		t.setResult(out)
	case 1:
		v, ok := field(item, keys[0])
		if !ok {
			return nil, false
		}
		t.setResult(v)
	default:
		out := make([]interface{}, 0, len(keys))
		for _, k := range keys {
			if v, ok := field(item, k); ok {
				out = append(out, v)
			}
		}
		if len(out) == 0 {
			return nil, false
		}
		t.setResult(out)
	}
	return t, true
}

// isSimplePath reports whether no item appears twice in the path
func isSimplePath(t *Traverser) bool {
	seen := make(map[string]struct{}, len(t.path))
	for _, item := range t.path {
		k := itemKey(item)
		if _, dup := seen[k]; dup {
			return false
		}
		seen[k] = struct{}{}
	}
	return true
}

// containsValue reports strict membership of v among the argument values
func containsValue(args []Value, v interface{}) bool {
	for _, a := range args {
		if strictEqual(a.Interface(), v) {
			return true
		}
	}
	return false
}

// lastName returns the last stage name, for log context
func lastName(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return names[len(names)-1]
}
