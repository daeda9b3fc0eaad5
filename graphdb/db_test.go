package graphdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T, opts ...Option) (*GraphDB, *prometheus.Registry) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleGraph), 0o644))

	cfg := DefaultConfig()
	cfg.DataFile = path
	cfg.QueryCacheSize = 8

	reg := prometheus.NewRegistry()
	db, err := NewGraphDB(cfg, append([]Option{WithRegisterer(reg)}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, reg
}

func TestGraphDB_ExecuteQuery(t *testing.T) {
	db, _ := newTestDB(t)
	results, err := db.ExecuteQuery(context.Background(), `v("a").out("knows").values("name")`)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{"One"}, results)

	results, err = db.ExecuteQuery(context.Background(), `v().count()`)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{3}, results)
}

func TestGraphDB_SeesMutationsBetweenQueries(t *testing.T) {
	db, _ := newTestDB(t)
	query := `v().count()`
	_, err := db.ExecuteQuery(context.Background(), query)
	require.NoError(t, err)

	_, err = db.Graph().AddVertex(&Vertex{ID: "late"})
	require.NoError(t, err)

	results, err := db.ExecuteQuery(context.Background(), query)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{4}, results)
}

func TestGraphDB_Metrics(t *testing.T) {
	db, reg := newTestDB(t)
	ctx := context.Background()

	_, err := db.ExecuteQuery(ctx, `v().count()`)
	require.NoError(t, err)
	_, err = db.ExecuteQuery(ctx, `v().count()`)
	require.NoError(t, err)

	_, err = db.ExecuteQuery(ctx, `v(`)
	assert.ErrorIs(t, err, ErrParse)

	_, err = db.ExecuteQuery(ctx, `out().count()`)
	assert.ErrorIs(t, err, ErrQueryStart)

	_, err = db.ExecuteQuery(ctx, `v().explode()`)
	assert.ErrorIs(t, err, ErrUnknownStep)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = db.ExecuteQuery(canceled, `v().count()`)
	assert.ErrorIs(t, err, context.Canceled)

	m := db.metrics
	assert.Equal(t, 2.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues(statusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues(statusParseError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues(statusBuildError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.queriesTotal.WithLabelValues(statusRunError)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("miss")))

	count, err := testutil.GatherAndCount(reg, "gremlindb_query_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestGraphDB_LogSink(t *testing.T) {
	sink := NewMemorySink()
	db, _ := newTestDB(t, WithSink(sink))

	_, err := db.ExecuteQuery(context.Background(), `v("a").log()`)
	require.NoError(t, err)
	entries := sink.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "a", entries[0]["id"])
}

func TestGraphDB_WithoutCacheOrMetrics(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QueryCacheSize = 0
	db, err := NewGraphDB(cfg)
	require.NoError(t, err)
	assert.Nil(t, db.Cache())

	results, err := db.ExecuteQuery(context.Background(), `v().count()`)
	require.NoError(t, err)
	assert.Equal(t, []interface{}{0}, results)
	assert.NoError(t, db.Close())
}

func TestNewGraphDB_MissingDataFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataFile = filepath.Join(t.TempDir(), "missing.json")
	_, err := NewGraphDB(cfg)
	assert.Error(t, err)
}
