package graphdb

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/sirupsen/logrus"
)

// nesting tracks quote state and bracket depths while scanning query text.
// Quotes do not nest and there is no escape processing.
type nesting struct {
	quote   byte
	paren   int
	brace   int
	bracket int
}

// feed updates the state with c
func (n *nesting) feed(c byte) {
	if n.quote != 0 {
		if c == n.quote {
			n.quote = 0
		}
		return
	}
	switch c {
	case '"', '\'':
		n.quote = c
	case '(':
		n.paren++
	case ')':
		n.paren--
	case '{':
		n.brace++
	case '}':
		n.brace--
	case '[':
		n.bracket++
	case ']':
		n.bracket--
	}
}

// topLevel reports whether the scanner is outside every string and bracket
func (n *nesting) topLevel() bool {
	return n.quote == 0 && n.paren == 0 && n.brace == 0 && n.bracket == 0
}

// balanced reports whether every opened context was closed
func (n *nesting) balanced() bool {
	return n.topLevel()
}

// rawStep is one step's text split into name and raw argument text
type rawStep struct {
	Name string
	Args string
}

// Tokenizer breaks a query into step calls
type Tokenizer struct {
	input string
}

// NewTokenizer initializes a new Tokenizer
func NewTokenizer(input string) *Tokenizer {
	return &Tokenizer{input: input}
}

// Tokenize splits the query into (name, raw args) pairs
func (t *Tokenizer) Tokenize() ([]rawStep, error) {
	log := logrus.WithField("component", "Tokenizer")
	if strings.TrimSpace(t.input) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrParse)
	}
	texts, err := splitSteps(stripComments(t.input))
	if err != nil {
		return nil, err
	}
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: invalid query format", ErrParse)
	}
	steps := make([]rawStep, 0, len(texts))
	for _, text := range texts {
		step, err := splitCall(text)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}
	log.WithField("step_count", len(steps)).Debug("Tokenization complete")
	return steps, nil
}

// stripComments removes // line comments that are not inside a string
func stripComments(input string) string {
	var b strings.Builder
	var quote byte
	for i := 0; i < len(input); i++ {
		c := input[i]
		if quote == 0 && c == '/' && i+1 < len(input) && input[i+1] == '/' {
			for i < len(input) && input[i] != '\n' {
				i++
			}
			if i < len(input) {
				b.WriteByte('\n')
			}
			continue
		}
		switch {
		case quote != 0 && c == quote:
			quote = 0
		case quote == 0 && (c == '"' || c == '\''):
			quote = c
		case c == '\n':
			// an unterminated quote does not swallow comments on later lines
			quote = 0
		}
		b.WriteByte(c)
	}
	return b.String()
}

// splitSteps splits on dots that are outside strings and brackets
func splitSteps(input string) ([]string, error) {
	var (
		steps   []string
		state   nesting
		current strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			steps = append(steps, s)
		}
		current.Reset()
	}
	for i := 0; i < len(input); i++ {
		c := input[i]
		if c == '.' && state.topLevel() {
			flush()
			continue
		}
		state.feed(c)
		current.WriteByte(c)
	}
	flush()
	if !state.balanced() {
		return nil, fmt.Errorf("%w: unbalanced quotes or brackets", ErrParse)
	}
	return steps, nil
}

// splitCall separates `name(args)` or a bare `name`
func splitCall(text string) (rawStep, error) {
	end := 0
	for end < len(text) && isIdentByte(text[end]) {
		end++
	}
	if end == 0 || (text[0] >= '0' && text[0] <= '9') {
		return rawStep{}, fmt.Errorf("%w: invalid step %q", ErrParse, text)
	}
	name := text[:end]
	rest := strings.TrimLeftFunc(text[end:], unicode.IsSpace)
	if rest == "" {
		return rawStep{Name: name}, nil
	}
	if rest[0] != '(' {
		return rawStep{}, fmt.Errorf("%w: invalid step %q", ErrParse, text)
	}
	var state nesting
	for i := 1; i < len(rest); i++ {
		c := rest[i]
		if c == ')' && state.topLevel() {
			if strings.TrimSpace(rest[i+1:]) != "" {
				return rawStep{}, fmt.Errorf("%w: unexpected text after %s(...) in %q", ErrParse, name, text)
			}
			return rawStep{Name: name, Args: rest[1:i]}, nil
		}
		state.feed(c)
	}
	return rawStep{}, fmt.Errorf("%w: unmatched parenthesis in %q", ErrParse, text)
}

// splitArgs splits raw argument text on top-level commas
func splitArgs(raw string) []string {
	var (
		args    []string
		state   nesting
		current strings.Builder
	)
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if c == ',' && state.topLevel() {
			args = append(args, strings.TrimSpace(current.String()))
			current.Reset()
			continue
		}
		state.feed(c)
		current.WriteByte(c)
	}
	if last := strings.TrimSpace(current.String()); last != "" || len(args) > 0 {
		args = append(args, last)
	}
	return args
}

// isIdentByte reports whether c can appear in a step or parameter name
func isIdentByte(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
