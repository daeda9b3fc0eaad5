package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gremlindb/graphdb"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestState(t *testing.T) (*replState, *bytes.Buffer) {
	t.Helper()
	db, err := graphdb.NewGraphDB(graphdb.DefaultConfig())
	require.NoError(t, err)
	g := db.Graph()
	_, err = g.AddVertex(&graphdb.Vertex{ID: "a", Properties: map[string]interface{}{"name": "A"}})
	require.NoError(t, err)
	_, err = g.AddVertex(&graphdb.Vertex{ID: "b", Properties: map[string]interface{}{"name": "B"}})
	require.NoError(t, err)
	require.NoError(t, g.AddEdge(&graphdb.Edge{OutID: "a", InID: "b", Label: "knows"}))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	out := &bytes.Buffer{}
	return newReplState(db, logger, out), out
}

func TestProcessCommand_Queries(t *testing.T) {
	rs, out := newTestState(t)

	require.NoError(t, rs.processCommand(`v("a").out("knows").values("name")`))
	assert.Equal(t, "\"B\"\n", out.String())

	out.Reset()
	require.NoError(t, rs.processCommand(`v("a")`))
	assert.Equal(t, `{"id":"a","properties":{"name":"A"},"type":"vertex"}`+"\n", out.String())

	out.Reset()
	require.NoError(t, rs.processCommand(`v().count()`))
	assert.Equal(t, "2\n", out.String())

	out.Reset()
	require.NoError(t, rs.processCommand(`v("zzz")`))
	assert.Equal(t, "No results returned\n", out.String())
	assert.Equal(t, 4, rs.queryNum)
}

func TestProcessCommand_QueryError(t *testing.T) {
	rs, _ := newTestState(t)
	err := rs.processCommand(`v().explode()`)
	require.Error(t, err)
	assert.ErrorIs(t, err, graphdb.ErrUnknownStep)
	assert.Contains(t, err.Error(), "query execution failed")
}

func TestProcessCommand_DotCommands(t *testing.T) {
	rs, out := newTestState(t)

	require.NoError(t, rs.processCommand(".stats"))
	assert.Contains(t, out.String(), "Vertices: 2")
	assert.Contains(t, out.String(), "Edges: 1")
	assert.Contains(t, out.String(), "Cached queries: 0/128")

	out.Reset()
	require.NoError(t, rs.processCommand(".help"))
	assert.Contains(t, out.String(), ".load <file>")

	assert.Error(t, rs.processCommand(".bogus"))
	assert.Error(t, rs.processCommand(".load"))
	assert.NoError(t, rs.processCommand("   "))

	require.NoError(t, rs.processCommand(".exit"))
	assert.False(t, rs.isRunning)
}

func TestProcessCommand_Load(t *testing.T) {
	rs, out := newTestState(t)
	path := filepath.Join(t.TempDir(), "more.json")
	doc := `{"V": [{"_id": "c", "name": "C"}], "E": [{"_out": "b", "_in": "c", "_label": "knows"}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	require.NoError(t, rs.processCommand(".load "+path))
	assert.Contains(t, out.String(), "3 vertices, 2 edges")

	out.Reset()
	require.NoError(t, rs.processCommand(`v("a").out().out().values("name")`))
	assert.Equal(t, "\"C\"\n", out.String())
}

func TestRunREPL(t *testing.T) {
	rs, out := newTestState(t)
	rs.runREPL(strings.NewReader("v().count()\n.nope\nquit\nv().count()\n"))

	text := out.String()
	assert.Contains(t, text, "gremlin> ")
	assert.Contains(t, text, "2\n")
	assert.Contains(t, text, "Error: unknown command: .nope")
	assert.Contains(t, text, "Goodbye!")
	assert.Equal(t, 1, rs.queryNum)
}

func TestQueryCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	doc := `{"V": [{"_id": "a"}, {"_id": "b"}], "E": [{"_out": "a", "_in": "b", "_label": "knows"}]}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cmd := newRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"query", "--data", path, "--log-level", "error", `e().count()`})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "1\n", out.String())
}
