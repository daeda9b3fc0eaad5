package graphdb

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("gremlindb.graphdb")

// GraphDB is the main database interface: a graph plus the parse, build and
// run machinery for queries against it
type GraphDB struct {
	graph    *Graph
	cache    *QueryCache
	executor *Executor
	metrics  *Metrics
	sink     LogSink
}

// Option configures a GraphDB
type Option func(*GraphDB)

// WithRegisterer registers query metrics with reg
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(db *GraphDB) {
		db.metrics = NewMetrics(reg)
	}
}

// WithSink routes log() snapshots to sink instead of the standard logger
func WithSink(sink LogSink) Option {
	return func(db *GraphDB) {
		db.sink = sink
	}
}

// NewGraphDB initializes a new GraphDB instance, loading cfg.DataFile when
// set
func NewGraphDB(cfg Config, opts ...Option) (*GraphDB, error) {
	log := logrus.WithField("component", "GraphDB")
	cache, err := NewQueryCache(cfg.QueryCacheSize)
	if err != nil {
		return nil, err
	}
	db := &GraphDB{
		graph:    NewGraph(),
		cache:    cache,
		executor: NewExecutor(),
		sink:     NewLogrusSink(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(db)
	}
	if cfg.DataFile != "" {
		if err := db.LoadFile(cfg.DataFile); err != nil {
			return nil, err
		}
	}
	log.WithField("query_cache_size", cfg.QueryCacheSize).Debug("GraphDB initialized")
	return db, nil
}

// Graph returns the underlying graph for mutation between queries
func (db *GraphDB) Graph() *Graph {
	return db.graph
}

// Cache returns the parsed-query cache, nil when disabled
func (db *GraphDB) Cache() *QueryCache {
	return db.cache
}

// LoadFile adds the contents of a JSON graph file
func (db *GraphDB) LoadFile(path string) error {
	return LoadGraphFile(path, db.graph)
}

// ExecuteQuery parses, builds and runs a traversal query. Structural errors
// are returned before the graph is touched; no partial result is returned.
func (db *GraphDB) ExecuteQuery(ctx context.Context, query string) ([]interface{}, error) {
	execID := uuid.NewString()
	start := time.Now()
	log := logrus.WithFields(logrus.Fields{
		"component":    "GraphDB",
		"execution_id": execID,
	})

	ctx, span := tracer.Start(ctx, "graphdb.ExecuteQuery",
		trace.WithAttributes(
			attribute.String("query.execution_id", execID),
			attribute.Int("query.length", len(query)),
		),
	)
	defer span.End()

	fail := func(status string, err error) ([]interface{}, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		db.metrics.observeQuery(status, time.Since(start), 0, 0)
		log.WithError(err).WithField("status", status).Error("Query failed")
		return nil, err
	}

	_, parseSpan := tracer.Start(ctx, "graphdb.Parse")
	steps, hit, err := db.cache.Parse(query)
	parseSpan.SetAttributes(attribute.Bool("query.cache_hit", hit))
	parseSpan.End()
	if db.cache != nil {
		db.metrics.observeCache(hit)
	}
	if err != nil {
		return fail(statusParseError, err)
	}

	_, buildSpan := tracer.Start(ctx, "graphdb.Build")
	pipeline, err := Build(db.graph, steps, WithLogSink(db.sink))
	buildSpan.End()
	if err != nil {
		return fail(statusBuildError, err)
	}

	if err := ctx.Err(); err != nil {
		return fail(statusRunError, err)
	}
	_, runSpan := tracer.Start(ctx, "graphdb.Run",
		trace.WithAttributes(attribute.StringSlice("pipeline.stages", pipeline.Names())),
	)
	results, err := db.executor.Run(pipeline)
	runSpan.SetAttributes(attribute.Int("pipeline.stage_calls", pipeline.Calls()))
	runSpan.End()
	if err != nil {
		return fail(statusRunError, err)
	}

	elapsed := time.Since(start)
	db.metrics.observeQuery(statusOK, elapsed, len(results), pipeline.Calls())
	span.SetAttributes(attribute.Int("query.result_count", len(results)))
	span.SetStatus(codes.Ok, "")
	log.WithFields(logrus.Fields{
		"result_count": len(results),
		"duration_ms":  elapsed.Milliseconds(),
		"cache_hit":    hit,
	}).Info("Query executed")
	return results, nil
}

// Close releases cached state
func (db *GraphDB) Close() error {
	db.cache.Purge()
	logrus.WithField("component", "GraphDB").Debug("GraphDB closed")
	return nil
}
