package graphdb

import (
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
)

// QueryCache keeps parsed step lists for recently seen query strings. A nil
// QueryCache parses every time.
type QueryCache struct {
	capacity int
	steps    *lru.Cache[string, []Step]
}

// NewQueryCache initializes a QueryCache; a capacity of zero or less
// disables caching and returns nil
func NewQueryCache(capacity int) (*QueryCache, error) {
	log := logrus.WithField("component", "QueryCache")
	if capacity <= 0 {
		log.Debug("Query cache disabled")
		return nil, nil
	}
	steps, err := lru.New[string, []Step](capacity)
	if err != nil {
		return nil, err
	}
	log.WithField("capacity", capacity).Debug("Initializing QueryCache")
	return &QueryCache{capacity: capacity, steps: steps}, nil
}

// Parse returns the steps of query, parsing it on a miss. hit reports
// whether the cached copy was used. Parse errors are not cached.
func (c *QueryCache) Parse(query string) (steps []Step, hit bool, err error) {
	if c == nil {
		steps, err = Parse(query)
		return steps, false, err
	}
	if steps, ok := c.steps.Get(query); ok {
		logrus.WithField("component", "QueryCache").Debug("Parsed query found in cache")
		return steps, true, nil
	}
	steps, err = Parse(query)
	if err != nil {
		return nil, false, err
	}
	if evicted := c.steps.Add(query, steps); evicted {
		logrus.WithField("component", "QueryCache").Debug("Evicted least recently used query")
	}
	return steps, false, nil
}

// Len returns the number of cached queries
func (c *QueryCache) Len() int {
	if c == nil {
		return 0
	}
	return c.steps.Len()
}

// Capacity returns the maximum number of cached queries
func (c *QueryCache) Capacity() int {
	if c == nil {
		return 0
	}
	return c.capacity
}

// Purge drops every cached query
func (c *QueryCache) Purge() {
	if c == nil {
		return
	}
	c.steps.Purge()
	logrus.WithField("component", "QueryCache").Debug("Query cache purged")
}
