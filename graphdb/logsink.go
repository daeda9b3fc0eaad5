package graphdb

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// LogEntry is the snapshot handed to a LogSink by the log() step
type LogEntry map[string]interface{}

// LogSink receives log() snapshots. Calls are fire-and-forget.
type LogSink interface {
	Log(entry LogEntry)
}

// LogrusSink writes snapshots to a logrus logger
type LogrusSink struct {
	logger logrus.FieldLogger
}

// NewLogrusSink initializes a LogrusSink
func NewLogrusSink(logger logrus.FieldLogger) *LogrusSink {
	return &LogrusSink{logger: logger}
}

// Log writes entry at info level
func (s *LogrusSink) Log(entry LogEntry) {
	s.logger.WithFields(logrus.Fields{
		"component": "LogStep",
		"type":      entry["type"],
		"snapshot":  entry,
	}).Info("Traversal log")
}

// MemorySink keeps snapshots in memory, in arrival order
type MemorySink struct {
	mu      sync.Mutex
	entries []LogEntry
}

// NewMemorySink initializes an empty MemorySink
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Log appends entry
func (s *MemorySink) Log(entry LogEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
}

// Entries returns a copy of the recorded snapshots
func (s *MemorySink) Entries() []LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Reset clears recorded snapshots
func (s *MemorySink) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
}

// Snapshot renders a traversal value for a LogSink
func Snapshot(v interface{}) LogEntry {
	switch val := v.(type) {
	case *Vertex:
		return LogEntry{
			"type":       "vertex",
			"id":         val.ID,
			"properties": copyProperties(val.Properties),
		}
	case *Edge:
		entry := LogEntry{
			"type":       "edge",
			"label":      val.Label,
			"out":        val.OutID,
			"in":         val.InID,
			"properties": copyProperties(val.Properties),
		}
		if val.ID != "" {
			entry["id"] = val.ID
		}
		return entry
	case nil:
		return LogEntry{"type": "null", "value": nil}
	case string:
		return LogEntry{"type": "string", "value": val}
	case bool:
		return LogEntry{"type": "boolean", "value": val}
	case []interface{}:
		items := make([]interface{}, len(val))
		for i, item := range val {
			items[i] = Render(item)
		}
		return LogEntry{"type": "array", "value": items}
	}
	if _, ok := toNumber(v); ok {
		return LogEntry{"type": "number", "value": v}
	}
	return LogEntry{"type": "object", "value": Render(v)}
}

// Render converts vertices and edges nested in a value into snapshots so
// the value can be marshalled for display
func Render(v interface{}) interface{} {
	switch val := v.(type) {
	case *Vertex, *Edge:
		return map[string]interface{}(Snapshot(val))
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = Render(item)
		}
		return out
	case map[string][]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, items := range val {
			out[k] = Render(items)
		}
		return out
	}
	return v
}

// copyProperties returns a shallow copy so sinks cannot mutate the graph
func copyProperties(props map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
