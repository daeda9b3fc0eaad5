package graphdb

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleGraph = `{
  "V": [
    {"_id": "a", "name": "A"},
    {"_id": 1, "name": "One"},
    {"name": "anon"}
  ],
  "E": [
    {"_out": "a", "_in": 1, "_label": "knows", "since": 2010, "_weight": 3}
  ]
}`

func TestReadGraph(t *testing.T) {
	g := NewGraph()
	require.NoError(t, ReadGraph(strings.NewReader(sampleGraph), g))
	assert.Equal(t, 3, g.VertexCount())
	assert.Equal(t, 1, g.EdgeCount())

	one, ok := g.VertexByID("1")
	require.True(t, ok)
	assert.Equal(t, map[string]interface{}{"name": "One"}, one.Properties)

	anon := g.Vertices()[2]
	assert.NotEmpty(t, anon.ID)
	assert.Equal(t, "anon", anon.Properties["name"])

	e := g.Edges()[0]
	assert.Equal(t, "a", e.OutID)
	assert.Equal(t, "1", e.InID)
	assert.Equal(t, "knows", e.Label)
	assert.Equal(t, map[string]interface{}{"since": 2010.0}, e.Properties)
}

func TestReadGraph_Queryable(t *testing.T) {
	g := NewGraph()
	require.NoError(t, ReadGraph(strings.NewReader(sampleGraph), g))
	assert.Equal(t, []interface{}{"One"}, runQuery(t, g, `v("a").out("knows").values("name")`))
	assert.Equal(t, []interface{}{"a"}, runQuery(t, g, `v(1).in().id()`))
}

func TestReadGraph_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{name: "missing endpoint", doc: `{"V": [{"_id": "a"}], "E": [{"_out": "a", "_in": "zz", "_label": "x"}]}`, want: ErrMissingEndpoint},
		{name: "duplicate vertex", doc: `{"V": [{"_id": "a"}, {"_id": "a"}]}`, want: ErrDuplicateVertex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ReadGraph(strings.NewReader(tt.doc), NewGraph())
			assert.ErrorIs(t, err, tt.want)
		})
	}

	err := ReadGraph(strings.NewReader(`{"V": [`), NewGraph())
	assert.Error(t, err)
}

func TestLoadGraphFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleGraph), 0o644))

	g := NewGraph()
	require.NoError(t, LoadGraphFile(path, g))
	assert.Equal(t, 3, g.VertexCount())

	err := LoadGraphFile(filepath.Join(t.TempDir(), "missing.json"), NewGraph())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
