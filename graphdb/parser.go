package graphdb

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	intPattern       = regexp.MustCompile(`^-?\d+$`)
	decimalPattern   = regexp.MustCompile(`^-?(\d+\.\d*|\.\d+)([eE][-+]?\d+)?$`)
	callPattern      = regexp.MustCompile(`(?s)^([A-Za-z_]\w*)\s*\((.*)\)$`)
	arrowPattern     = regexp.MustCompile(`(?s)^(\([^()]*\)|[A-Za-z_$][\w$]*)\s*=>`)
	functionPattern  = regexp.MustCompile(`^function[\s(]`)
	bareKeyPattern   = regexp.MustCompile(`([{,]\s*)([A-Za-z_$][\w$]*)\s*:`)
)

// Parse converts a query string into its ordered step list
func Parse(query string) ([]Step, error) {
	log := logrus.WithField("component", "Parser")
	log.Debug("Starting parsing")
	raw, err := NewTokenizer(query).Tokenize()
	if err != nil {
		log.WithError(err).Error("Failed to tokenize query")
		return nil, err
	}
	steps := make([]Step, 0, len(raw))
	for _, r := range raw {
		args, err := ParseArgs(r.Args)
		if err != nil {
			log.WithError(err).WithField("step", r.Name).Error("Failed to parse step arguments")
			return nil, fmt.Errorf("step %s: %w", r.Name, err)
		}
		steps = append(steps, Step{Name: r.Name, Args: args})
	}
	log.WithField("steps", stepNames(steps)).Debug("Parsing complete")
	return steps, nil
}

// ParseArgs splits raw argument text on top-level commas and classifies each
// token into a typed value
func ParseArgs(raw string) ([]Value, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	tokens := splitArgs(raw)
	args := make([]Value, 0, len(tokens))
	for _, tok := range tokens {
		v, err := parseArg(tok)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	return args, nil
}

// parseArg classifies one trimmed argument token. Only a malformed function
// literal is an error; anything unrecognised falls back to a string.
func parseArg(tok string) (Value, error) {
	tok = strings.TrimSpace(tok)

	if isQuoted(tok) {
		return StringValue(tok[1 : len(tok)-1]), nil
	}

	if functionPattern.MatchString(tok) || arrowPattern.MatchString(tok) {
		fn, err := CompileFunction(tok)
		if err != nil {
			return Value{}, err
		}
		return Value{Kind: KindFunction, Func: fn}, nil
	}

	if m := callPattern.FindStringSubmatch(tok); m != nil && isPredicateName(m[1]) {
		inner, err := ParseArgs(m[2])
		if err != nil {
			return Value{}, err
		}
		operands := make([]interface{}, len(inner))
		for i, a := range inner {
			operands[i] = a.Interface()
		}
		p, _ := newPredicate(m[1], operands)
		return Value{Kind: KindPredicate, Predicate: p}, nil
	}

	if intPattern.MatchString(tok) {
		if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return IntValue(i), nil
		}
		// out of int64 range
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return Value{Kind: KindFloat, Float: f}, nil
		}
	}

	if decimalPattern.MatchString(tok) {
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return Value{Kind: KindFloat, Float: f}, nil
		}
	}

	switch tok {
	case "true":
		return Value{Kind: KindBool, Bool: true}, nil
	case "false":
		return Value{Kind: KindBool, Bool: false}, nil
	}

	if strings.HasPrefix(tok, "{") && strings.HasSuffix(tok, "}") {
		var obj map[string]interface{}
		if err := decodeLoose(tok, &obj); err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "Parser",
				"argument":  tok,
			}).WithError(err).Warn("Could not parse object literal; keeping it as a string")
			return StringValue(tok), nil
		}
		return Value{Kind: KindObject, Object: obj}, nil
	}

	if strings.HasPrefix(tok, "[") && strings.HasSuffix(tok, "]") {
		var arr []interface{}
		if err := decodeLoose(tok, &arr); err != nil {
			logrus.WithFields(logrus.Fields{
				"component": "Parser",
				"argument":  tok,
			}).WithError(err).Warn("Could not parse array literal; keeping it as a string")
			return StringValue(tok), nil
		}
		return Value{Kind: KindArray, Array: arr}, nil
	}

	return StringValue(tok), nil
}

// decodeLoose decodes JSON, retrying with bare keys quoted and then with
// single-quoted strings rewritten as double-quoted ones
func decodeLoose(text string, dst interface{}) error {
	err := json.Unmarshal([]byte(text), dst)
	if err == nil {
		return nil
	}
	keyed := outsideStrings(text, func(run string) string {
		return bareKeyPattern.ReplaceAllString(run, `$1"$2":`)
	})
	if json.Unmarshal([]byte(keyed), dst) == nil {
		return nil
	}
	if json.Unmarshal([]byte(doubleQuoted(keyed)), dst) == nil {
		return nil
	}
	return err
}

// outsideStrings applies fn to every run of text that is not inside a
// quoted string. Quotes of the other style inside a string are literal.
func outsideStrings(text string, fn func(run string) string) string {
	var b strings.Builder
	var quote byte
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case quote != 0:
			if c == quote {
				b.WriteString(text[start : i+1])
				start = i + 1
				quote = 0
			}
		case c == '"' || c == '\'':
			b.WriteString(fn(text[start:i]))
			start = i
			quote = c
		}
	}
	if quote != 0 {
		b.WriteString(text[start:])
	} else {
		b.WriteString(fn(text[start:]))
	}
	return b.String()
}

// doubleQuoted rewrites 'single-quoted' strings as JSON strings. Double
// quoted strings are copied unchanged.
func doubleQuoted(text string) string {
	var b strings.Builder
	var quote byte
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch quote {
		case '"':
			b.WriteByte(c)
			if c == '\\' && i+1 < len(text) {
				i++
				b.WriteByte(text[i])
			} else if c == '"' {
				quote = 0
			}
		case '\'':
			switch c {
			case '\'':
				b.WriteByte('"')
				quote = 0
			case '"', '\\':
				b.WriteByte('\\')
				b.WriteByte(c)
			default:
				b.WriteByte(c)
			}
		default:
			switch c {
			case '"':
				quote = c
				b.WriteByte(c)
			case '\'':
				quote = c
				b.WriteByte('"')
			default:
				b.WriteByte(c)
			}
		}
	}
	return b.String()
}

// isQuoted reports whether tok is a single string literal
func isQuoted(tok string) bool {
	if len(tok) < 2 {
		return false
	}
	q := tok[0]
	if (q != '"' && q != '\'') || tok[len(tok)-1] != q {
		return false
	}
	// "a" + "b" style tokens are not a single literal
	return strings.IndexByte(tok[1:len(tok)-1], q) < 0
}

// stepNames lists step names for logging
func stepNames(steps []Step) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Name
	}
	return names
}
