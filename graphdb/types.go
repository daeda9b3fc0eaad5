package graphdb

import (
	"fmt"
	"strings"
)

// Vertex is a graph vertex: a unique identifier plus open properties
type Vertex struct {
	ID         string
	Properties map[string]interface{}
}

// Edge connects two vertices by id. Edges do not own their endpoints.
type Edge struct {
	ID         string
	Label      string
	OutID      string
	InID       string
	Properties map[string]interface{}
}

// Key returns the identity of the edge for deduplication
func (e *Edge) Key() string {
	return e.OutID + "|" + e.InID + "|" + e.Label
}

// ValueKind tags the variants of a parsed argument
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindFloat
	KindBool
	KindObject
	KindPredicate
	KindFunction
	KindArray
)

// String converts ValueKind to a readable name
func (k ValueKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindObject:
		return "object"
	case KindPredicate:
		return "predicate"
	case KindFunction:
		return "function"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is a typed step argument
type Value struct {
	Kind      ValueKind
	Str       string
	Int       int64
	Float     float64
	Bool      bool
	Object    map[string]interface{}
	Predicate *Predicate
	Func      *Function
	Array     []interface{}
}

// StringValue builds a string argument
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// IntValue builds an integer argument
func IntValue(i int64) Value { return Value{Kind: KindInt, Int: i} }

// Interface returns the Go representation of the argument
func (v Value) Interface() interface{} {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindInt:
		return v.Int
	case KindFloat:
		return v.Float
	case KindBool:
		return v.Bool
	case KindObject:
		return v.Object
	case KindPredicate:
		return v.Predicate
	case KindFunction:
		return v.Func
	case KindArray:
		return v.Array
	default:
		return nil
	}
}

// String renders the argument for logs
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return fmt.Sprintf("%q", v.Str)
	case KindFunction:
		return v.Func.Source
	case KindPredicate:
		return v.Predicate.String()
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

// Step is one parsed call of a query, e.g. out("father")
type Step struct {
	Name string
	Args []Value
}

// String renders the step back into query form
func (s Step) String() string {
	args := make([]string, len(s.Args))
	for i, a := range s.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", s.Name, strings.Join(args, ", "))
}

// mark is an item recorded by as() for a later back()
type mark struct {
	vertex *Vertex
	edge   *Edge
}

// Traverser carries one thread of a traversal through the pipeline
type Traverser struct {
	Vertex *Vertex
	Edge   *Edge

	result    interface{}
	hasResult bool

	// path and marks belong to this traverser alone; fork copies them
	path  []interface{}
	marks map[string]mark
}

// newTraverser starts a traversal thread at a vertex or edge
func newTraverser(v *Vertex, e *Edge) *Traverser {
	t := &Traverser{Vertex: v, Edge: e}
	t.path = []interface{}{t.Item()}
	return t
}

// scalarTraverser wraps an aggregate result
func scalarTraverser(result interface{}) *Traverser {
	return &Traverser{result: result, hasResult: true}
}

// fork returns a child positioned at v/e with its own copy of path state
func (t *Traverser) fork(v *Vertex, e *Edge) *Traverser {
	child := &Traverser{Vertex: v, Edge: e}
	child.path = make([]interface{}, len(t.path), len(t.path)+1)
	copy(child.path, t.path)
	if len(t.marks) > 0 {
		child.marks = make(map[string]mark, len(t.marks))
		for k, m := range t.marks {
			child.marks[k] = m
		}
	}
	child.path = append(child.path, child.Item())
	return child
}

// jump returns a copy positioned at v/e without extending the path
func (t *Traverser) jump(v *Vertex, e *Edge) *Traverser {
	child := t.fork(v, e)
	child.path = child.path[:len(child.path)-1]
	return child
}

// setMark records the current item under label
func (t *Traverser) setMark(label string) {
	if t.marks == nil {
		t.marks = make(map[string]mark)
	}
	t.marks[label] = mark{vertex: t.Vertex, edge: t.Edge}
}

// markOf returns the item recorded under label
func (t *Traverser) markOf(label string) (mark, bool) {
	m, ok := t.marks[label]
	return m, ok
}

// Item returns the edge if the traverser carries one, otherwise the vertex
func (t *Traverser) Item() interface{} {
	if t.Edge != nil {
		return t.Edge
	}
	if t.Vertex != nil {
		return t.Vertex
	}
	return nil
}

// Result returns the computed result, if any
func (t *Traverser) Result() (interface{}, bool) {
	return t.result, t.hasResult
}

// setResult overrides the default item representation
func (t *Traverser) setResult(r interface{}) {
	t.result = r
	t.hasResult = true
}

// Value is what the traverser contributes to the output sequence
func (t *Traverser) Value() interface{} {
	if t.hasResult {
		return t.result
	}
	return t.Item()
}

// Path returns a copy of the visited items
func (t *Traverser) Path() []interface{} {
	out := make([]interface{}, len(t.path))
	copy(out, t.path)
	return out
}
