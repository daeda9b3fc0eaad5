package graphdb

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// GraphStore is the read interface the traversal machine consumes
type GraphStore interface {
	VertexByID(id string) (*Vertex, bool)
	Vertices() []*Vertex
	Edges() []*Edge
	OutEdges(v *Vertex, labels ...string) []*Edge
	InEdges(v *Vertex, labels ...string) []*Edge
}

// Graph is an in-memory vertex/edge store. It is not safe for concurrent
// mutation, and must not be mutated while a traversal is running.
type Graph struct {
	index    *IndexManager
	vertices []*Vertex // insertion order
	edges    []*Edge   // insertion order
}

// NewGraph initializes an empty Graph
func NewGraph() *Graph {
	return &Graph{index: NewIndexManager()}
}

// AddVertex adds a vertex, assigning a UUID when it has no id
func (g *Graph) AddVertex(v *Vertex) (string, error) {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.Properties == nil {
		v.Properties = make(map[string]interface{})
	}
	log := logrus.WithFields(logrus.Fields{
		"component": "Graph",
		"vertex_id": v.ID,
	})
	if err := g.index.InsertVertex(v); err != nil {
		log.WithError(err).Error("Failed to add vertex")
		return "", err
	}
	g.vertices = append(g.vertices, v)
	log.Debug("Vertex added")
	return v.ID, nil
}

// AddEdge adds an edge between two existing vertices
func (g *Graph) AddEdge(e *Edge) error {
	log := logrus.WithFields(logrus.Fields{
		"component": "Graph",
		"out":       e.OutID,
		"in":        e.InID,
		"label":     e.Label,
	})
	if _, ok := g.index.SearchVertex(e.OutID); !ok {
		log.Error("Edge source vertex does not exist")
		return fmt.Errorf("%w: out vertex %q", ErrMissingEndpoint, e.OutID)
	}
	if _, ok := g.index.SearchVertex(e.InID); !ok {
		log.Error("Edge target vertex does not exist")
		return fmt.Errorf("%w: in vertex %q", ErrMissingEndpoint, e.InID)
	}
	if e.Properties == nil {
		e.Properties = make(map[string]interface{})
	}
	g.index.InsertEdge(e)
	g.edges = append(g.edges, e)
	log.Debug("Edge added")
	return nil
}

// RemoveEdge deletes an edge; its endpoints are left in place
func (g *Graph) RemoveEdge(e *Edge) error {
	if err := g.index.DeleteEdge(e); err != nil {
		return err
	}
	for i, candidate := range g.edges {
		if candidate == e {
			g.edges = append(g.edges[:i:i], g.edges[i+1:]...)
			break
		}
	}
	return nil
}

// RemoveVertex deletes a vertex together with its incident edges
func (g *Graph) RemoveVertex(id string) error {
	log := logrus.WithFields(logrus.Fields{
		"component": "Graph",
		"vertex_id": id,
	})
	v, ok := g.index.SearchVertex(id)
	if !ok {
		return fmt.Errorf("%w: %q", ErrVertexNotFound, id)
	}
	incident := append(g.index.OutEdges(id, nil), g.index.InEdges(id, nil)...)
	for _, e := range incident {
		// self-loops appear in both lists
		if err := g.RemoveEdge(e); err != nil && e.OutID != e.InID {
			log.WithError(err).Warn("Failed to remove incident edge")
		}
	}
	if err := g.index.DeleteVertex(id); err != nil {
		return err
	}
	for i, candidate := range g.vertices {
		if candidate == v {
			g.vertices = append(g.vertices[:i:i], g.vertices[i+1:]...)
			break
		}
	}
	log.WithField("removed_edges", len(incident)).Debug("Vertex removed")
	return nil
}

// VertexByID looks a vertex up by id
func (g *Graph) VertexByID(id string) (*Vertex, bool) {
	return g.index.SearchVertex(id)
}

// Vertices returns all vertices in insertion order
func (g *Graph) Vertices() []*Vertex {
	out := make([]*Vertex, len(g.vertices))
	copy(out, g.vertices)
	return out
}

// Edges returns all edges in insertion order
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edges))
	copy(out, g.edges)
	return out
}

// OutEdges returns edges leaving v, optionally restricted to labels
func (g *Graph) OutEdges(v *Vertex, labels ...string) []*Edge {
	return g.index.OutEdges(v.ID, labels)
}

// InEdges returns edges entering v, optionally restricted to labels
func (g *Graph) InEdges(v *Vertex, labels ...string) []*Edge {
	return g.index.InEdges(v.ID, labels)
}

// VertexCount returns the number of vertices
func (g *Graph) VertexCount() int { return len(g.vertices) }

// EdgeCount returns the number of edges
func (g *Graph) EdgeCount() int { return len(g.edges) }
