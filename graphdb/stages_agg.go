package graphdb

import (
	"sort"

	"github.com/sirupsen/logrus"
)

// aggregator accumulates traversers for a terminal stage
type aggregator interface {
	add(t *Traverser)
	result() interface{}
}

// terminalStage consumes its whole upstream and emits one result. started
// records whether any traverser arrived; hasReturned makes the result emit
// exactly once, after which the stage is exhausted.
type terminalStage struct {
	name        string
	acc         aggregator
	started     bool
	hasReturned bool
}

func (s *terminalStage) process(in *Traverser, upstreamDone bool) (*Traverser, signal) {
	if s.hasReturned {
		return nil, sigDone
	}
	if in != nil {
		s.started = true
		s.acc.add(in)
		return nil, sigPull
	}
	if !upstreamDone {
		return nil, sigPull
	}
	s.hasReturned = true
	if !s.started {
		logrus.WithField("component", "Traversal").WithField("stage", s.name).Debug("Aggregating an empty input")
	}
	return scalarTraverser(s.acc.result()), sigEmit
}

// by sets the grouping key of group() and groupCount()
func (s *terminalStage) by(args []Value) bool {
	g, ok := s.acc.(*groupAgg)
	if !ok || len(args) == 0 {
		return false
	}
	g.key = newSelector(&args[0])
	return true
}

// countAgg counts traversers
type countAgg struct {
	n int
}

func (a *countAgg) add(*Traverser)      { a.n++ }
func (a *countAgg) result() interface{} { return a.n }

// sumAgg adds up numeric values; non-numeric values are skipped
type sumAgg struct {
	sel   selector
	total float64
}

func (a *sumAgg) add(t *Traverser) {
	if v, ok := a.sel(t); ok {
		if f, ok := parseNumber(v); ok {
			a.total += f
		}
	}
}

func (a *sumAgg) result() interface{} { return a.total }

// extremumAgg tracks the smallest or largest numeric value; nil when none
type extremumAgg struct {
	sel   selector
	max   bool
	value float64
	seen  bool
}

func (a *extremumAgg) add(t *Traverser) {
	v, ok := a.sel(t)
	if !ok {
		return
	}
	f, ok := parseNumber(v)
	if !ok {
		return
	}
	if !a.seen || (a.max && f > a.value) || (!a.max && f < a.value) {
		a.value = f
		a.seen = true
	}
}

func (a *extremumAgg) result() interface{} {
	if !a.seen {
		return nil
	}
	return a.value
}

// meanAgg averages numeric values; the mean of nothing is 0
type meanAgg struct {
	sel   selector
	total float64
	n     int
}

func (a *meanAgg) add(t *Traverser) {
	if v, ok := a.sel(t); ok {
		if f, ok := parseNumber(v); ok {
			a.total += f
			a.n++
		}
	}
}

func (a *meanAgg) result() interface{} {
	if a.n == 0 {
		return 0.0
	}
	return a.total / float64(a.n)
}

// groupAgg groups values, or counts them, by a key. Without a key every
// traverser lands in the "default" group.
type groupAgg struct {
	key      selector
	counting bool
	groups   map[string][]interface{}
	counts   map[string]int
}

func newGroupAgg(arg *Value, counting bool) *groupAgg {
	g := &groupAgg{
		counting: counting,
		groups:   make(map[string][]interface{}),
		counts:   make(map[string]int),
	}
	if arg != nil {
		g.key = newSelector(arg)
	}
	return g
}

func (a *groupAgg) add(t *Traverser) {
	key := "default"
	if a.key != nil {
		v, _ := a.key(t)
		key = canonical(v)
	}
	if a.counting {
		a.counts[key]++
		return
	}
	a.groups[key] = append(a.groups[key], t.Value())
}

func (a *groupAgg) result() interface{} {
	if a.counting {
		return a.counts
	}
	return a.groups
}

// orderStage buffers everything upstream and re-emits it stably sorted
type orderStage struct {
	key    selector
	desc   bool
	buffer []*Traverser
	sorted bool
	cursor int
}

func (s *orderStage) process(in *Traverser, upstreamDone bool) (*Traverser, signal) {
	if in != nil {
		s.buffer = append(s.buffer, in)
		return nil, sigPull
	}
	if !upstreamDone {
		return nil, sigPull
	}
	if !s.sorted {
		s.sortBuffer()
		s.sorted = true
	}
	if s.cursor >= len(s.buffer) {
		return nil, sigDone
	}
	t := s.buffer[s.cursor]
	s.buffer[s.cursor] = nil
	s.cursor++
	return t, sigEmit
}

// by sets the sort key and direction
func (s *orderStage) by(args []Value) bool {
	if len(args) == 0 {
		return true
	}
	s.key = newSelector(&args[0])
	if len(args) > 1 {
		s.desc = isDescending(args[1])
	}
	return true
}

func (s *orderStage) sortBuffer() {
	keys := make([]interface{}, len(s.buffer))
	for i, t := range s.buffer {
		keys[i] = s.sortKey(t)
	}
	idx := make([]int, len(s.buffer))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		if s.desc {
			return compareValues(keys[idx[b]], keys[idx[a]]) < 0
		}
		return compareValues(keys[idx[a]], keys[idx[b]]) < 0
	})
	sorted := make([]*Traverser, len(s.buffer))
	for i, j := range idx {
		sorted[i] = s.buffer[j]
	}
	s.buffer = sorted
}

// sortKey is the keyed value, or the result, or the item identity
func (s *orderStage) sortKey(t *Traverser) interface{} {
	if s.key != nil {
		v, _ := s.key(t)
		return v
	}
	if r, ok := t.Result(); ok {
		return r
	}
	return itemKey(t.Item())
}

// rangeStage emits traversers whose 0-based index is in [start, end). An
// end below zero is unbounded. Once end is reached it stops pulling.
type rangeStage struct {
	start int
	end   int
	index int
}

func (s *rangeStage) process(in *Traverser, _ bool) (*Traverser, signal) {
	if s.end >= 0 && s.index >= s.end {
		return nil, sigDone
	}
	if in == nil {
		return nil, sigPull
	}
	i := s.index
	s.index++
	if i < s.start {
		return nil, sigPull
	}
	return in, sigEmit
}

// tailStage keeps the last n traversers and emits them in arrival order
type tailStage struct {
	n      int
	buffer []*Traverser
	cursor int
}

func (s *tailStage) process(in *Traverser, upstreamDone bool) (*Traverser, signal) {
	if in != nil {
		if s.n <= 0 {
			return nil, sigPull
		}
		s.buffer = append(s.buffer, in)
		if len(s.buffer) > s.n {
			s.buffer = s.buffer[1:]
		}
		return nil, sigPull
	}
	if !upstreamDone {
		return nil, sigPull
	}
	if s.cursor >= len(s.buffer) {
		return nil, sigDone
	}
	t := s.buffer[s.cursor]
	s.cursor++
	return t, sigEmit
}

// dedupStage drops traversers whose key has already been emitted
type dedupStage struct {
	key  selector
	seen map[string]struct{}
}

func (s *dedupStage) process(in *Traverser, _ bool) (*Traverser, signal) {
	if in == nil {
		return nil, sigPull
	}
	k := identityKey(in)
	if s.key != nil {
		v, _ := s.key(in)
		k = canonical(v)
	}
	if _, dup := s.seen[k]; dup {
		return nil, sigPull
	}
	s.seen[k] = struct{}{}
	return in, sigEmit
}
