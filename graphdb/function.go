package graphdb

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/sirupsen/logrus"
)

var (
	functionLiteral = regexp.MustCompile(`(?s)^function\s*[\w$]*\s*\(([^()]*)\)\s*\{(.*)\}$`)
	arrowLiteral    = regexp.MustCompile(`(?s)^(?:\(([^()]*)\)|([A-Za-z_$][\w$]*))\s*=>\s*(.+)$`)
	returnPrefix    = regexp.MustCompile(`^return\b\s*`)
	identPattern    = regexp.MustCompile(`^[A-Za-z_$][\w$]*$`)
	operatorAliases = strings.NewReplacer("!==", "!=", "===", "==")
)

// Function is an inline function literal compiled to a sandboxed expression.
// Bodies are single expressions in the expr language: property access,
// comparison, boolean and arithmetic operators. Statements and loops are
// rejected.
type Function struct {
	Source  string
	Params  []string
	Body    string
	program *vm.Program
}

// CompileFunction compiles `function(a, b) { return ... }`, `(a, b) => ...`
// or `a => ...` into a Function of at most two parameters
func CompileFunction(src string) (*Function, error) {
	src = strings.TrimSpace(src)
	log := logrus.WithFields(logrus.Fields{
		"component": "Function",
		"source":    src,
	})

	var params, body string
	if m := functionLiteral.FindStringSubmatch(src); m != nil {
		params, body = m[1], "{"+m[2]+"}"
	} else if m := arrowLiteral.FindStringSubmatch(src); m != nil {
		params = m[1]
		if m[2] != "" {
			params = m[2]
		}
		body = m[3]
	} else {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFunctionSyntax, src)
	}

	names, err := parseParams(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v in %q", ErrInvalidFunctionSyntax, err, src)
	}
	expression, err := normalizeBody(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v in %q", ErrInvalidFunctionSyntax, err, src)
	}

	program, err := expr.Compile(expression, expr.AllowUndefinedVariables())
	if err != nil {
		log.WithError(err).Debug("Function body rejected by expression compiler")
		return nil, fmt.Errorf("%w: %v", ErrInvalidFunctionSyntax, err)
	}
	log.WithField("params", names).Debug("Function compiled")
	return &Function{Source: src, Params: names, Body: expression, program: program}, nil
}

// Call evaluates the function with positional arguments; missing arguments
// are nil
func (f *Function) Call(args ...interface{}) (interface{}, error) {
	env := make(map[string]interface{}, len(f.Params))
	for i, name := range f.Params {
		if i < len(args) {
			env[name] = args[i]
		} else {
			env[name] = nil
		}
	}
	return expr.Run(f.program, env)
}

// Test calls the function and reports whether the result is truthy. Runtime
// errors count as false.
func (f *Function) Test(args ...interface{}) bool {
	out, err := f.Call(args...)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "Function",
			"source":    f.Source,
		}).WithError(err).Debug("Function evaluation failed")
		return false
	}
	return truthy(out)
}

// parseParams validates a comma separated parameter list
func parseParams(list string) ([]string, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}
	parts := strings.Split(list, ",")
	if len(parts) > 2 {
		return nil, fmt.Errorf("at most 2 parameters are supported, got %d", len(parts))
	}
	names := make([]string, len(parts))
	for i, p := range parts {
		p = strings.TrimSpace(p)
		if !identPattern.MatchString(p) {
			return nil, fmt.Errorf("invalid parameter %q", p)
		}
		names[i] = p
	}
	return names, nil
}

// normalizeBody turns a block or expression body into one expression
func normalizeBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if strings.HasPrefix(body, "{") && strings.HasSuffix(body, "}") {
		body = strings.TrimSpace(body[1 : len(body)-1])
		body = returnPrefix.ReplaceAllString(body, "")
	}
	body = strings.TrimSpace(strings.TrimRight(body, "; \t\n"))
	if body == "" {
		return "", fmt.Errorf("empty function body")
	}
	var state nesting
	for i := 0; i < len(body); i++ {
		if body[i] == ';' && state.topLevel() {
			return "", fmt.Errorf("multiple statements are not supported")
		}
		state.feed(body[i])
	}
	return operatorAliases.Replace(body), nil
}

// view exposes a vertex or edge to a function as a property map that also
// carries the internal fields
func view(item interface{}) interface{} {
	switch it := item.(type) {
	case *Vertex:
		m := make(map[string]interface{}, len(it.Properties)+1)
		for k, v := range it.Properties {
			m[k] = v
		}
		m[fieldID] = it.ID
		return m
	case *Edge:
		m := make(map[string]interface{}, len(it.Properties)+4)
		for k, v := range it.Properties {
			m[k] = v
		}
		m[fieldLabel] = it.Label
		m[fieldOut] = it.OutID
		m[fieldIn] = it.InID
		if it.ID != "" {
			m[fieldID] = it.ID
		}
		return m
	case []interface{}:
		out := make([]interface{}, len(it))
		for i, v := range it {
			out[i] = view(v)
		}
		return out
	}
	return item
}

// traverserView exposes traverser state as the second function argument
func traverserView(t *Traverser) map[string]interface{} {
	m := map[string]interface{}{
		"path":   view(t.Path()),
		"vertex": nil,
		"edge":   nil,
		"result": nil,
	}
	if t.Vertex != nil {
		m["vertex"] = view(t.Vertex)
	}
	if t.Edge != nil {
		m["edge"] = view(t.Edge)
	}
	if r, ok := t.Result(); ok {
		m["result"] = view(r)
	}
	return m
}
