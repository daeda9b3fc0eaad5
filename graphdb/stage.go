package graphdb

import (
	"strconv"
	"strings"
)

// signal is what a stage answers when it has no traverser to hand over
type signal int

const (
	// sigEmit hands a traverser to the next stage
	sigEmit signal = iota
	// sigPull asks the upstream stage for another traverser
	sigPull
	// sigDone reports that the stage and everything upstream is exhausted
	sigDone
)

// stage is one step's runtime behaviour. in is nil when the stage is asked
// for output rather than handed input; upstreamDone reports that no stage
// before this one will produce anything more.
type stage interface {
	process(in *Traverser, upstreamDone bool) (*Traverser, signal)
}

// filterStage passes traversers for which test holds
type filterStage struct {
	test func(t *Traverser) bool
}

func (s *filterStage) process(in *Traverser, _ bool) (*Traverser, signal) {
	if in == nil || !s.test(in) {
		return nil, sigPull
	}
	return in, sigEmit
}

// mapStage transforms each traverser; ok=false drops it
type mapStage struct {
	apply func(t *Traverser) (*Traverser, bool)
}

func (s *mapStage) process(in *Traverser, _ bool) (*Traverser, signal) {
	if in == nil {
		return nil, sigPull
	}
	out, ok := s.apply(in)
	if !ok {
		return nil, sigPull
	}
	return out, sigEmit
}

// selector extracts the value a stage works on from a traverser
type selector func(t *Traverser) (interface{}, bool)

// newSelector builds a selector from a key or function argument. A nil
// argument selects the traverser's result, or its item when it has none.
func newSelector(arg *Value) selector {
	if arg == nil {
		return func(t *Traverser) (interface{}, bool) {
			v := t.Value()
			return v, v != nil
		}
	}
	switch arg.Kind {
	case KindFunction:
		fn := arg.Func
		return func(t *Traverser) (interface{}, bool) {
			out, err := fn.Call(view(subject(t)), traverserView(t))
			return out, err == nil
		}
	case KindString:
		key := arg.Str
		return func(t *Traverser) (interface{}, bool) {
			return field(subject(t), key)
		}
	default:
		key := idString(arg.Interface())
		return func(t *Traverser) (interface{}, bool) {
			return field(subject(t), key)
		}
	}
}

// subject is what filters inspect: the item, or the result when the
// traverser carries only a scalar
func subject(t *Traverser) interface{} {
	if item := t.Item(); item != nil {
		return item
	}
	r, _ := t.Result()
	return r
}

// matches evaluates a where/and/or/not/filter condition
func matches(cond Value, t *Traverser) bool {
	switch cond.Kind {
	case KindObject:
		return objectFilter(subject(t), cond.Object)
	case KindPredicate:
		return Evaluate(cond.Predicate, t.Value())
	case KindFunction:
		return cond.Func.Test(view(subject(t)), traverserView(t))
	default:
		return strictEqual(t.Value(), cond.Interface())
	}
}

// matchesValue evaluates an is() condition against the current value
func matchesValue(cond Value, t *Traverser) bool {
	value := t.Value()
	switch cond.Kind {
	case KindObject:
		return objectFilter(value, cond.Object)
	case KindPredicate:
		return Evaluate(cond.Predicate, value)
	case KindFunction:
		return cond.Func.Test(view(value))
	default:
		return strictEqual(value, cond.Interface())
	}
}

// properties returns the property map of an item or a map result
func properties(item interface{}) map[string]interface{} {
	switch it := item.(type) {
	case *Vertex:
		return it.Properties
	case *Edge:
		return it.Properties
	case map[string]interface{}:
		return it
	}
	return nil
}

// labelOf returns the edge label, or the _label property of other items
func labelOf(item interface{}) (interface{}, bool) {
	if e, ok := item.(*Edge); ok {
		return e.Label, true
	}
	return field(item, fieldLabel)
}

// intArg reads args[i] as an integer, falling back to def
func intArg(args []Value, i int, def int) int {
	if i >= len(args) {
		return def
	}
	switch a := args[i]; a.Kind {
	case KindInt:
		return int(a.Int)
	case KindFloat:
		return int(a.Float)
	case KindString:
		if n, err := strconv.Atoi(strings.TrimSpace(a.Str)); err == nil {
			return n
		}
	}
	return def
}

// stringArgs converts every argument to its string form
func stringArgs(args []Value) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a.Kind == KindString {
			out = append(out, a.Str)
			continue
		}
		out = append(out, idString(a.Interface()))
	}
	return out
}

// isDescending reports whether a direction argument asks for reverse order
func isDescending(v Value) bool {
	if v.Kind != KindString {
		return false
	}
	switch strings.ToLower(v.Str) {
	case "desc", "decr", "descending":
		return true
	}
	return false
}
