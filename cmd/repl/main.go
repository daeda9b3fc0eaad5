package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"gremlindb/graphdb"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// replState holds the state of the REPL
type replState struct {
	db        *graphdb.GraphDB
	logger    *logrus.Logger
	out       io.Writer
	queryNum  int
	isRunning bool
}

// newReplState initializes the REPL state
func newReplState(db *graphdb.GraphDB, logger *logrus.Logger, out io.Writer) *replState {
	return &replState{
		db:        db,
		logger:    logger,
		out:       out,
		isRunning: true,
	}
}

// executeQuery runs a traversal and prints its results as JSON, one per line
func (rs *replState) executeQuery(query string) error {
	rs.queryNum++
	log := rs.logger.WithFields(logrus.Fields{
		"component": "Main",
		"query_num": rs.queryNum,
	})
	log.WithField("query", query).Debug("Executing query")
	results, err := rs.db.ExecuteQuery(context.Background(), query)
	if err != nil {
		return fmt.Errorf("query execution failed: %w", err)
	}
	if len(results) == 0 {
		fmt.Fprintln(rs.out, "No results returned")
		return nil
	}
	for _, result := range results {
		data, err := json.Marshal(graphdb.Render(result))
		if err != nil {
			fmt.Fprintf(rs.out, "%v\n", result)
			continue
		}
		fmt.Fprintln(rs.out, string(data))
	}
	return nil
}

// loadFile adds a JSON graph file to the current graph
func (rs *replState) loadFile(path string) error {
	if path == "" {
		return fmt.Errorf("file path required")
	}
	if err := rs.db.LoadFile(path); err != nil {
		return err
	}
	g := rs.db.Graph()
	fmt.Fprintf(rs.out, "Loaded %s: %d vertices, %d edges\n", path, g.VertexCount(), g.EdgeCount())
	return nil
}

// printStats shows graph and cache sizes
func (rs *replState) printStats() {
	g := rs.db.Graph()
	cache := rs.db.Cache()
	fmt.Fprintf(rs.out, "Vertices: %d\n", g.VertexCount())
	fmt.Fprintf(rs.out, "Edges: %d\n", g.EdgeCount())
	fmt.Fprintf(rs.out, "Cached queries: %d/%d\n", cache.Len(), cache.Capacity())
	fmt.Fprintf(rs.out, "Queries this session: %d\n", rs.queryNum)
}

// printHelp displays the help message
func (rs *replState) printHelp() {
	fmt.Fprintln(rs.out, "GremlinDB REPL Commands:")
	fmt.Fprintln(rs.out, "  .help            Show this help message")
	fmt.Fprintln(rs.out, "  .load <file>     Load a JSON graph file ({\"V\": [...], \"E\": [...]})")
	fmt.Fprintln(rs.out, "  .stats           Show graph and cache statistics")
	fmt.Fprintln(rs.out, "  .exit            Exit the REPL")
	fmt.Fprintln(rs.out, "Traversals:")
	fmt.Fprintln(rs.out, `  v().count()`)
	fmt.Fprintln(rs.out, `  v("a").out("knows").values("name")`)
	fmt.Fprintln(rs.out, `  v().has("age", gt(30)).order().by("age", "desc").take(3)`)
	fmt.Fprintln(rs.out, `  e("knows").filter(x => x.since > 2010).outV().dedup()`)
	fmt.Fprintln(rs.out, "Type '.exit' or 'quit' to exit.")
}

// processCommand processes a REPL command or query
func (rs *replState) processCommand(input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil
	}
	if input == "quit" {
		rs.isRunning = false
		return nil
	}
	if strings.HasPrefix(input, ".") {
		command, arg, _ := strings.Cut(input, " ")
		switch strings.ToLower(command) {
		case ".help":
			rs.printHelp()
			return nil
		case ".exit":
			rs.isRunning = false
			return nil
		case ".load":
			return rs.loadFile(strings.TrimSpace(arg))
		case ".stats":
			rs.printStats()
			return nil
		default:
			return fmt.Errorf("unknown command: %s; type '.help' for assistance", input)
		}
	}
	return rs.executeQuery(input)
}

// runREPL runs the REPL loop
func (rs *replState) runREPL(in io.Reader) {
	rs.logger.WithField("component", "Main").Info("Starting GremlinDB REPL")
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(rs.out, "Welcome to GremlinDB REPL. Type '.help' for commands or 'quit' to exit.")

	for rs.isRunning {
		fmt.Fprint(rs.out, "gremlin> ")
		if !scanner.Scan() {
			break
		}
		if err := rs.processCommand(scanner.Text()); err != nil {
			fmt.Fprintf(rs.out, "Error: %v\n", err)
		}
	}
	if err := rs.db.Close(); err != nil {
		rs.logger.WithError(err).Warn("Failed to close database")
	}
	fmt.Fprintln(rs.out, "Goodbye!")
}

// options are the command line flags shared by every command
type options struct {
	configPath string
	dataFile   string
	logLevel   string
}

// setup loads configuration, configures logging and opens the database
func setup(opts *options) (*graphdb.GraphDB, *logrus.Logger, error) {
	cfg, err := graphdb.LoadConfig(opts.configPath)
	if err != nil {
		return nil, nil, err
	}
	if opts.dataFile != "" {
		cfg.DataFile = opts.dataFile
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := logrus.StandardLogger()
	if err := cfg.ConfigureLogger(logger); err != nil {
		return nil, nil, err
	}

	reg := prometheus.NewRegistry()
	db, err := graphdb.NewGraphDB(cfg, graphdb.WithRegisterer(reg))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if cfg.MetricsAddr != "" {
		serveMetrics(cfg.MetricsAddr, reg, logger)
	}
	return db, logger, nil
}

// serveMetrics exposes /metrics in the background
func serveMetrics(addr string, reg *prometheus.Registry, logger *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		log := logger.WithFields(logrus.Fields{"component": "Metrics", "addr": addr})
		log.Info("Serving metrics")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("Metrics server stopped")
		}
	}()
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	rootCmd := &cobra.Command{
		Use:   "gremlindb",
		Short: "In-memory property graph with a Gremlin-style traversal REPL",
		RunE: func(cmd *cobra.Command, args []string) error {
			db, logger, err := setup(opts)
			if err != nil {
				return err
			}
			newReplState(db, logger, cmd.OutOrStdout()).runREPL(cmd.InOrStdin())
			return nil
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&opts.dataFile, "data", "", "JSON graph file to load at startup")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "query <traversal>",
		Short: "Run one traversal and print its results",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer db.Close()
			return newReplState(db, logger, cmd.OutOrStdout()).executeQuery(args[0])
		},
	})
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
