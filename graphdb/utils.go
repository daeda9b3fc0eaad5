package graphdb

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// internal field names exposed on items alongside their properties
const (
	fieldID    = "_id"
	fieldLabel = "_label"
	fieldOut   = "_out"
	fieldIn    = "_in"
)

// toNumber converts Go numeric types to float64
func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// coerceNumeric turns non-empty numeric-looking strings into numbers and
// leaves every other value untouched
func coerceNumeric(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok {
		if f, ok := toNumber(v); ok {
			return f
		}
		return v
	}
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return v
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return v
	}
	return f
}

// parseNumber reads a number out of v for numeric aggregations
func parseNumber(v interface{}) (float64, bool) {
	if f, ok := toNumber(v); ok {
		return f, !math.IsNaN(f)
	}
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil && !math.IsNaN(f)
	}
	return 0, false
}

// strictEqual compares without string/number coercion; numbers compare by
// value regardless of their Go type
func strictEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	fa, aNum := toNumber(a)
	fb, bNum := toNumber(b)
	if aNum || bNum {
		return aNum && bNum && fa == fb
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return reflect.DeepEqual(a, b)
}

// orderedLess compares two ordinal values. ok is false when they are not
// comparable (different kinds, nil, booleans).
func orderedLess(a, b interface{}) (less bool, ok bool) {
	fa, aNum := a.(float64)
	fb, bNum := b.(float64)
	if aNum && bNum {
		return fa < fb, true
	}
	sa, aStr := a.(string)
	sb, bStr := b.(string)
	if aStr && bStr {
		return sa < sb, true
	}
	return false, false
}

// typeRank orders values of different kinds for sorting:
// nil < bool < number < string < everything else
func typeRank(v interface{}) int {
	if v == nil {
		return 0
	}
	if _, ok := v.(bool); ok {
		return 1
	}
	if _, ok := toNumber(v); ok {
		return 2
	}
	if _, ok := v.(string); ok {
		return 3
	}
	return 4
}

// compareValues is a total order used by order(): values of the same kind
// compare naturally, different kinds compare by typeRank
func compareValues(a, b interface{}) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch ra {
	case 1:
		ba, bb := a.(bool), b.(bool)
		if ba == bb {
			return 0
		}
		if !ba {
			return -1
		}
		return 1
	case 2:
		fa, _ := toNumber(a)
		fb, _ := toNumber(b)
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	case 3:
		return strings.Compare(a.(string), b.(string))
	case 4:
		return strings.Compare(canonical(a), canonical(b))
	}
	return 0
}

// canonical renders a value as a stable string key
func canonical(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case *Vertex:
		return "vertex:" + val.ID
	case *Edge:
		return "edge:" + val.Key()
	}
	if f, ok := toNumber(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if data, err := json.Marshal(v); err == nil {
		return string(data)
	}
	return fmt.Sprintf("%v", v)
}

// identityKey is the deduplication key of a traverser: its scalar result
// when it has one, otherwise the identity of its vertex or edge
func identityKey(t *Traverser) string {
	if r, ok := t.Result(); ok {
		return fmt.Sprintf("result:%T:%s", r, canonical(r))
	}
	return itemKey(t.Item())
}

// itemKey is the identity of a vertex or edge
func itemKey(item interface{}) string {
	switch it := item.(type) {
	case *Vertex:
		return "vertex:" + it.ID
	case *Edge:
		return "edge:" + it.Key()
	}
	return "unknown:" + canonical(item)
}

// field reads a property or internal field of a vertex or edge
func field(item interface{}, key string) (interface{}, bool) {
	switch it := item.(type) {
	case *Vertex:
		if key == fieldID {
			return it.ID, true
		}
		v, ok := it.Properties[key]
		return v, ok
	case *Edge:
		switch key {
		case fieldLabel:
			return it.Label, true
		case fieldOut:
			return it.OutID, true
		case fieldIn:
			return it.InID, true
		case fieldID:
			if it.ID != "" {
				return it.ID, true
			}
		}
		v, ok := it.Properties[key]
		return v, ok
	case map[string]interface{}:
		v, ok := it[key]
		return v, ok
	}
	return nil, false
}

// objectFilter reports whether every key of filter strictly equals the item
func objectFilter(item interface{}, filter map[string]interface{}) bool {
	for key, want := range filter {
		got, ok := field(item, key)
		if !ok || !strictEqual(got, want) {
			return false
		}
	}
	return true
}

// idString canonicalises an id argument; numeric ids use their shortest form
func idString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	if f, ok := toNumber(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprintf("%v", v)
}

// propertyKeys returns the non-internal property names of m, sorted
func propertyKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if !strings.HasPrefix(k, "_") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// truthy follows loose boolean semantics for function results
func truthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	}
	if f, ok := toNumber(v); ok {
		return f != 0 && !math.IsNaN(f)
	}
	return true
}
