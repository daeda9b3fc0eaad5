package graphdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildGraph creates vertices and edges from compact literals
func buildGraph(t *testing.T, vertices []*Vertex, edges []*Edge) *Graph {
	t.Helper()
	g := NewGraph()
	for _, v := range vertices {
		_, err := g.AddVertex(v)
		require.NoError(t, err)
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e))
	}
	return g
}

func props(kv ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		m[kv[i].(string)] = kv[i+1]
	}
	return m
}

// peopleGraph: a -knows-> b -knows-> c, a -likes-> c, d isolated
func peopleGraph(t *testing.T) *Graph {
	return buildGraph(t,
		[]*Vertex{
			{ID: "a", Properties: props("name", "A", "age", 40)},
			{ID: "b", Properties: props("name", "B", "age", 25)},
			{ID: "c", Properties: props("name", "C", "age", "31")},
			{ID: "d", Properties: props("name", "D")},
		},
		[]*Edge{
			{OutID: "a", InID: "b", Label: "knows", Properties: props("since", 2010)},
			{OutID: "b", InID: "c", Label: "knows", Properties: props("since", 2015)},
			{OutID: "a", InID: "c", Label: "likes"},
		},
	)
}

func TestGraph_AddVertex(t *testing.T) {
	g := NewGraph()

	id, err := g.AddVertex(&Vertex{ID: "a"})
	require.NoError(t, err)
	assert.Equal(t, "a", id)

	_, err = g.AddVertex(&Vertex{ID: "a"})
	assert.ErrorIs(t, err, ErrDuplicateVertex)

	generated, err := g.AddVertex(&Vertex{Properties: props("name", "anon")})
	require.NoError(t, err)
	assert.NotEmpty(t, generated)

	v, ok := g.VertexByID(generated)
	require.True(t, ok)
	assert.Equal(t, "anon", v.Properties["name"])
	assert.Equal(t, 2, g.VertexCount())
}

func TestGraph_AddEdgeRequiresEndpoints(t *testing.T) {
	g := NewGraph()
	_, err := g.AddVertex(&Vertex{ID: "a"})
	require.NoError(t, err)

	err = g.AddEdge(&Edge{OutID: "a", InID: "missing", Label: "knows"})
	assert.ErrorIs(t, err, ErrMissingEndpoint)
	err = g.AddEdge(&Edge{OutID: "missing", InID: "a", Label: "knows"})
	assert.ErrorIs(t, err, ErrMissingEndpoint)
	assert.Equal(t, 0, g.EdgeCount())
}

func TestGraph_AdjacencyAndLabels(t *testing.T) {
	g := peopleGraph(t)
	a, _ := g.VertexByID("a")
	c, _ := g.VertexByID("c")

	assert.Len(t, g.OutEdges(a), 2)
	knows := g.OutEdges(a, "knows")
	require.Len(t, knows, 1)
	assert.Equal(t, "b", knows[0].InID)

	in := g.InEdges(c)
	require.Len(t, in, 2)
	assert.Equal(t, "b", in[0].OutID)
	assert.Equal(t, "a", in[1].OutID)
}

func TestGraph_RemoveVertexDropsIncidentEdges(t *testing.T) {
	g := peopleGraph(t)

	require.NoError(t, g.RemoveVertex("b"))
	assert.Equal(t, 3, g.VertexCount())
	assert.Equal(t, 1, g.EdgeCount())

	a, _ := g.VertexByID("a")
	out := g.OutEdges(a)
	require.Len(t, out, 1)
	assert.Equal(t, "likes", out[0].Label)

	assert.ErrorIs(t, g.RemoveVertex("b"), ErrVertexNotFound)
}

func TestGraph_RemoveVertexWithSelfLoop(t *testing.T) {
	g := buildGraph(t,
		[]*Vertex{{ID: "a"}},
		[]*Edge{{OutID: "a", InID: "a", Label: "self"}},
	)
	require.NoError(t, g.RemoveVertex("a"))
	assert.Equal(t, 0, g.VertexCount())
	assert.Equal(t, 0, g.EdgeCount())
}

func TestGraph_RemoveEdgeKeepsVertices(t *testing.T) {
	g := peopleGraph(t)
	e := g.Edges()[0]

	require.NoError(t, g.RemoveEdge(e))
	assert.Equal(t, 4, g.VertexCount())
	assert.Equal(t, 2, g.EdgeCount())
	assert.ErrorIs(t, g.RemoveEdge(e), ErrEdgeNotFound)
}
