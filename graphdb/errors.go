package graphdb

import "errors"

// Structural query errors. They are returned wrapped; match with errors.Is.
var (
	ErrParse                 = errors.New("parse error")
	ErrInvalidFunctionSyntax = errors.New("invalid function syntax")
	ErrUnknownStep           = errors.New("unknown step")
	ErrQueryStart            = errors.New("query must start with v() or e()")
	ErrPipelineConsumed      = errors.New("pipeline already executed")
)

// Graph store errors
var (
	ErrDuplicateVertex = errors.New("vertex id already exists")
	ErrVertexNotFound  = errors.New("vertex not found")
	ErrEdgeNotFound    = errors.New("edge not found")
	ErrMissingEndpoint = errors.New("edge endpoint does not exist")
)
