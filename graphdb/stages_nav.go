package graphdb

import (
	"github.com/sirupsen/logrus"
)

// hop is one destination produced by a seed or navigation step
type hop struct {
	vertex *Vertex
	edge   *Edge
}

// seedStage emits the initial vertices or edges. The source is resolved on
// the first pull, not at build time.
type seedStage struct {
	load   func() []hop
	loaded bool
	queue  []hop
}

func (s *seedStage) process(_ *Traverser, _ bool) (*Traverser, signal) {
	if !s.loaded {
		s.queue = s.load()
		s.loaded = true
	}
	if len(s.queue) == 0 {
		return nil, sigDone
	}
	h := s.queue[0]
	s.queue = s.queue[1:]
	return newTraverser(h.vertex, h.edge), sigEmit
}

// navStage fans one traverser out into a child per destination, in order.
// Each child gets its own copy of the parent's path.
type navStage struct {
	expand func(t *Traverser) []hop
	parent *Traverser
	queue  []hop
}

func (s *navStage) process(in *Traverser, _ bool) (*Traverser, signal) {
	if in != nil {
		s.parent = in
		s.queue = s.expand(in)
	}
	if len(s.queue) == 0 {
		return nil, sigPull
	}
	h := s.queue[0]
	s.queue = s.queue[1:]
	return s.parent.fork(h.vertex, h.edge), sigEmit
}

// direction selects which adjacency lists a navigation step walks
type direction int

const (
	dirOut direction = iota
	dirIn
	dirBoth
)

// vertexSeed resolves v(), v(id, ...) and v({filter})
func vertexSeed(g GraphStore, args []Value) func() []hop {
	return func() []hop {
		var hops []hop
		switch {
		case len(args) == 0:
			for _, v := range g.Vertices() {
				hops = append(hops, hop{vertex: v})
			}
		case args[0].Kind == KindObject:
			for _, v := range g.Vertices() {
				if objectFilter(v, args[0].Object) {
					hops = append(hops, hop{vertex: v})
				}
			}
		default:
			for _, id := range stringArgs(args) {
				if v, ok := g.VertexByID(id); ok {
					hops = append(hops, hop{vertex: v})
				}
			}
		}
		return hops
	}
}

// edgeSeed resolves e(), e(label, ...) and e({filter}). Each edge is anchored
// at its source vertex.
func edgeSeed(g GraphStore, args []Value) func() []hop {
	return func() []hop {
		var labels []string
		var filter map[string]interface{}
		if len(args) > 0 && args[0].Kind == KindObject {
			filter = args[0].Object
		} else {
			labels = stringArgs(args)
		}
		var hops []hop
		for _, e := range g.Edges() {
			if len(labels) > 0 && !containsString(labels, e.Label) {
				continue
			}
			if filter != nil && !objectFilter(e, filter) {
				continue
			}
			anchor, ok := g.VertexByID(e.OutID)
			if !ok {
				danglingEdge(e, e.OutID)
				continue
			}
			hops = append(hops, hop{vertex: anchor, edge: e})
		}
		return hops
	}
}

// adjacent builds the expansion for out/in/both and their edge variants.
// Edge variants keep the current vertex as the anchor.
func adjacent(g GraphStore, dir direction, emitEdges bool, labels []string) func(t *Traverser) []hop {
	walk := func(v *Vertex, edges []*Edge, outward bool, hops []hop) []hop {
		for _, e := range edges {
			if emitEdges {
				hops = append(hops, hop{vertex: v, edge: e})
				continue
			}
			id := e.InID
			if !outward {
				id = e.OutID
			}
			target, ok := g.VertexByID(id)
			if !ok {
				danglingEdge(e, id)
				continue
			}
			hops = append(hops, hop{vertex: target})
		}
		return hops
	}
	return func(t *Traverser) []hop {
		if t.Vertex == nil {
			return nil
		}
		var hops []hop
		if dir == dirOut || dir == dirBoth {
			hops = walk(t.Vertex, g.OutEdges(t.Vertex, labels...), true, hops)
		}
		if dir == dirIn || dir == dirBoth {
			hops = walk(t.Vertex, g.InEdges(t.Vertex, labels...), false, hops)
		}
		return hops
	}
}

// endpoints builds the expansion for outV/inV/bothV/otherV. Traversers that
// carry no edge expand to nothing and are thereby filtered out.
func endpoints(g GraphStore, kind StepKind) func(t *Traverser) []hop {
	return func(t *Traverser) []hop {
		e := t.Edge
		if e == nil {
			return nil
		}
		var ids []string
		switch kind {
		case StepOutV:
			ids = []string{e.OutID}
		case StepInV:
			ids = []string{e.InID}
		case StepBothV:
			ids = []string{e.OutID, e.InID}
		case StepOtherV:
			if t.Vertex != nil && t.Vertex.ID == e.OutID {
				ids = []string{e.InID}
			} else {
				ids = []string{e.OutID}
			}
		}
		hops := make([]hop, 0, len(ids))
		for _, id := range ids {
			v, ok := g.VertexByID(id)
			if !ok {
				danglingEdge(e, id)
				continue
			}
			hops = append(hops, hop{vertex: v})
		}
		return hops
	}
}

// danglingEdge reports an edge whose endpoint no longer exists
func danglingEdge(e *Edge, missing string) {
	logrus.WithFields(logrus.Fields{
		"component": "Traversal",
		"edge":      e.Key(),
		"vertex_id": missing,
	}).Warn("Skipping edge with missing endpoint")
}
