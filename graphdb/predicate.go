package graphdb

import (
	"fmt"
	"strings"
)

// PredicateKind names a comparison
type PredicateKind string

const (
	PredEq      PredicateKind = "eq"
	PredNeq     PredicateKind = "neq"
	PredLt      PredicateKind = "lt"
	PredLte     PredicateKind = "lte"
	PredGt      PredicateKind = "gt"
	PredGte     PredicateKind = "gte"
	PredInside  PredicateKind = "inside"
	PredOutside PredicateKind = "outside"
	PredBetween PredicateKind = "between"
	PredWithin  PredicateKind = "within"
	PredWithout PredicateKind = "without"
)

// Predicate is an immutable comparison descriptor applied with Evaluate
type Predicate struct {
	Kind     PredicateKind
	Operands []interface{}
}

// String renders the predicate in query form
func (p *Predicate) String() string {
	ops := make([]string, len(p.Operands))
	for i, op := range p.Operands {
		ops[i] = fmt.Sprintf("%v", op)
	}
	return fmt.Sprintf("%s(%s)", p.Kind, strings.Join(ops, ", "))
}

// Eq matches values strictly equal to v
func Eq(v interface{}) *Predicate { return &Predicate{Kind: PredEq, Operands: []interface{}{v}} }

// Neq matches values not strictly equal to v
func Neq(v interface{}) *Predicate { return &Predicate{Kind: PredNeq, Operands: []interface{}{v}} }

// Lt matches values below v
func Lt(v interface{}) *Predicate { return &Predicate{Kind: PredLt, Operands: []interface{}{v}} }

// Lte matches values at or below v
func Lte(v interface{}) *Predicate { return &Predicate{Kind: PredLte, Operands: []interface{}{v}} }

// Gt matches values above v
func Gt(v interface{}) *Predicate { return &Predicate{Kind: PredGt, Operands: []interface{}{v}} }

// Gte matches values at or above v
func Gte(v interface{}) *Predicate { return &Predicate{Kind: PredGte, Operands: []interface{}{v}} }

// Inside matches a < v < b
func Inside(a, b interface{}) *Predicate {
	return &Predicate{Kind: PredInside, Operands: []interface{}{a, b}}
}

// Outside matches v < a || v > b
func Outside(a, b interface{}) *Predicate {
	return &Predicate{Kind: PredOutside, Operands: []interface{}{a, b}}
}

// Between matches a <= v <= b
func Between(a, b interface{}) *Predicate {
	return &Predicate{Kind: PredBetween, Operands: []interface{}{a, b}}
}

// Within matches membership; a single array operand is used as the collection
func Within(values ...interface{}) *Predicate {
	return &Predicate{Kind: PredWithin, Operands: collection(values)}
}

// Without matches non-membership
func Without(values ...interface{}) *Predicate {
	return &Predicate{Kind: PredWithout, Operands: collection(values)}
}

// collection unwraps a lone array operand, otherwise keeps the operands
func collection(values []interface{}) []interface{} {
	if len(values) == 1 {
		if arr, ok := values[0].([]interface{}); ok {
			return arr
		}
	}
	return values
}

// newPredicate constructs a predicate by name from parsed operands
func newPredicate(name string, operands []interface{}) (*Predicate, bool) {
	arg := func(i int) interface{} {
		if i < len(operands) {
			return operands[i]
		}
		return nil
	}
	switch PredicateKind(name) {
	case PredEq:
		return Eq(arg(0)), true
	case PredNeq:
		return Neq(arg(0)), true
	case PredLt:
		return Lt(arg(0)), true
	case PredLte:
		return Lte(arg(0)), true
	case PredGt:
		return Gt(arg(0)), true
	case PredGte:
		return Gte(arg(0)), true
	case PredInside:
		return Inside(arg(0), arg(1)), true
	case PredOutside:
		return Outside(arg(0), arg(1)), true
	case PredBetween:
		return Between(arg(0), arg(1)), true
	case PredWithin:
		return Within(operands...), true
	case PredWithout:
		return Without(operands...), true
	}
	return nil, false
}

// isPredicateName reports whether name is one of the predicate constructors
func isPredicateName(name string) bool {
	_, ok := newPredicate(name, nil)
	return ok
}

// Evaluate applies p to v. Missing values, missing operands and values that
// cannot be compared all evaluate to false.
func Evaluate(p *Predicate, v interface{}) bool {
	if p == nil || v == nil {
		return false
	}
	switch p.Kind {
	case PredEq:
		return len(p.Operands) == 1 && strictEqual(v, p.Operands[0])
	case PredNeq:
		return len(p.Operands) == 1 && p.Operands[0] != nil && !strictEqual(v, p.Operands[0])
	case PredWithin:
		return len(p.Operands) > 0 && contains(p.Operands, v)
	case PredWithout:
		return len(p.Operands) > 0 && !contains(p.Operands, v)
	case PredLt, PredLte, PredGt, PredGte:
		if len(p.Operands) != 1 {
			return false
		}
		return compareOrdinal(p.Kind, coerceNumeric(v), coerceNumeric(p.Operands[0]))
	case PredInside, PredOutside, PredBetween:
		if len(p.Operands) != 2 {
			return false
		}
		return rangeMatch(p.Kind, coerceNumeric(v), coerceNumeric(p.Operands[0]), coerceNumeric(p.Operands[1]))
	}
	return false
}

// compareOrdinal evaluates lt/lte/gt/gte on already-coerced values
func compareOrdinal(kind PredicateKind, v, op interface{}) bool {
	less, ok := orderedLess(v, op)
	if !ok {
		return false
	}
	greater, _ := orderedLess(op, v)
	switch kind {
	case PredLt:
		return less
	case PredLte:
		return !greater
	case PredGt:
		return greater
	case PredGte:
		return !less
	}
	return false
}

// rangeMatch evaluates inside/outside/between on already-coerced values
func rangeMatch(kind PredicateKind, v, lo, hi interface{}) bool {
	belowLo, ok1 := orderedLess(v, lo)
	aboveHi, ok2 := orderedLess(hi, v)
	aboveLo, _ := orderedLess(lo, v)
	belowHi, _ := orderedLess(v, hi)
	if !ok1 || !ok2 {
		return false
	}
	switch kind {
	case PredInside:
		return aboveLo && belowHi
	case PredOutside:
		return belowLo || aboveHi
	case PredBetween:
		return !belowLo && !aboveHi
	}
	return false
}

// contains reports strict membership of v in list
func contains(list []interface{}, v interface{}) bool {
	for _, item := range list {
		if strictEqual(item, v) {
			return true
		}
	}
	return false
}
