package graphdb

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// IndexManager handles id and adjacency indexing for vertices and edges
type IndexManager struct {
	vertexIndex map[string]*Vertex // vertexID -> vertex
	outIndex    map[string][]*Edge // vertexID -> outgoing edges, insertion order
	inIndex     map[string][]*Edge // vertexID -> incoming edges, insertion order
}

// NewIndexManager initializes a new IndexManager
func NewIndexManager() *IndexManager {
	log := logrus.WithField("component", "IndexManager")
	log.Debug("Initializing IndexManager")
	return &IndexManager{
		vertexIndex: make(map[string]*Vertex),
		outIndex:    make(map[string][]*Edge),
		inIndex:     make(map[string][]*Edge),
	}
}

// InsertVertex adds a vertex to the index, rejecting duplicate ids
func (im *IndexManager) InsertVertex(v *Vertex) error {
	log := logrus.WithField("vertex_id", v.ID)
	if _, exists := im.vertexIndex[v.ID]; exists {
		log.Debug("Vertex ID already exists in index")
		return fmt.Errorf("%w: %q", ErrDuplicateVertex, v.ID)
	}
	im.vertexIndex[v.ID] = v
	log.Debug("Vertex inserted into index")
	return nil
}

// InsertEdge adds an edge to both adjacency lists
func (im *IndexManager) InsertEdge(e *Edge) {
	im.outIndex[e.OutID] = append(im.outIndex[e.OutID], e)
	im.inIndex[e.InID] = append(im.inIndex[e.InID], e)
	logrus.WithFields(logrus.Fields{
		"out":   e.OutID,
		"in":    e.InID,
		"label": e.Label,
	}).Debug("Edge inserted into index")
}

// SearchVertex looks a vertex up by id
func (im *IndexManager) SearchVertex(id string) (*Vertex, bool) {
	v, ok := im.vertexIndex[id]
	return v, ok
}

// DeleteVertex removes a vertex from the index
func (im *IndexManager) DeleteVertex(id string) error {
	if _, exists := im.vertexIndex[id]; !exists {
		return fmt.Errorf("%w: %q", ErrVertexNotFound, id)
	}
	delete(im.vertexIndex, id)
	return nil
}

// DeleteEdge removes an edge from both adjacency lists
func (im *IndexManager) DeleteEdge(e *Edge) error {
	out, ok := removeEdge(im.outIndex[e.OutID], e)
	if !ok {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, e.Key())
	}
	in, _ := removeEdge(im.inIndex[e.InID], e)
	setOrDelete(im.outIndex, e.OutID, out)
	setOrDelete(im.inIndex, e.InID, in)
	return nil
}

// OutEdges returns the outgoing edges of a vertex, optionally label-filtered
func (im *IndexManager) OutEdges(id string, labels []string) []*Edge {
	return filterLabels(im.outIndex[id], labels)
}

// InEdges returns the incoming edges of a vertex, optionally label-filtered
func (im *IndexManager) InEdges(id string, labels []string) []*Edge {
	return filterLabels(im.inIndex[id], labels)
}

// removeEdge drops e from list by pointer identity
func removeEdge(list []*Edge, e *Edge) ([]*Edge, bool) {
	for i, candidate := range list {
		if candidate == e {
			out := make([]*Edge, 0, len(list)-1)
			out = append(out, list[:i]...)
			return append(out, list[i+1:]...), true
		}
	}
	return list, false
}

// setOrDelete stores list under key and cleans up empty entries
func setOrDelete(index map[string][]*Edge, key string, list []*Edge) {
	if len(list) == 0 {
		delete(index, key)
		return
	}
	index[key] = list
}

// filterLabels keeps edges whose label is one of labels; no labels keeps all
func filterLabels(edges []*Edge, labels []string) []*Edge {
	out := make([]*Edge, 0, len(edges))
	for _, e := range edges {
		if len(labels) == 0 || containsString(labels, e.Label) {
			out = append(out, e)
		}
	}
	return out
}

// containsString reports whether s is in list
func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
