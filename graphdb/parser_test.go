package graphdb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SimpleChain(t *testing.T) {
	steps, err := Parse("v().out().count()")
	require.NoError(t, err)
	require.Len(t, steps, 3)
	for i, name := range []string{"v", "out", "count"} {
		assert.Equal(t, name, steps[i].Name)
		assert.Empty(t, steps[i].Args)
	}
}

func TestParse_DotInsideStringDoesNotSplit(t *testing.T) {
	steps, err := Parse(`v({name: "a.b"}).out("x")`)
	require.NoError(t, err)
	require.Len(t, steps, 2)

	require.Len(t, steps[0].Args, 1)
	assert.Equal(t, KindObject, steps[0].Args[0].Kind)
	assert.Equal(t, map[string]interface{}{"name": "a.b"}, steps[0].Args[0].Object)
	assert.Equal(t, []Value{StringValue("x")}, steps[1].Args)
}

func TestParse_EmptyQuery(t *testing.T) {
	_, err := Parse("   ")
	assert.ErrorIs(t, err, ErrParse)
}

func TestParse_FunctionErrorsSurfaceAtParseTime(t *testing.T) {
	_, err := Parse(`v().filter(function(a, b, c) { return a })`)
	assert.ErrorIs(t, err, ErrInvalidFunctionSyntax)

	_, err = Parse(`v().filter(x => { var y = 1; return y })`)
	assert.ErrorIs(t, err, ErrInvalidFunctionSyntax)
}

func TestParseArgs_Classification(t *testing.T) {
	tests := []struct {
		raw  string
		kind ValueKind
		want interface{}
	}{
		{raw: `"double"`, kind: KindString, want: "double"},
		{raw: `'single'`, kind: KindString, want: "single"},
		{raw: `"with, comma"`, kind: KindString, want: "with, comma"},
		{raw: `42`, kind: KindInt, want: int64(42)},
		{raw: `-7`, kind: KindInt, want: int64(-7)},
		{raw: `3.5`, kind: KindFloat, want: 3.5},
		{raw: `-0.25`, kind: KindFloat, want: -0.25},
		{raw: `true`, kind: KindBool, want: true},
		{raw: `false`, kind: KindBool, want: false},
		{raw: `{"name": "A"}`, kind: KindObject, want: map[string]interface{}{"name": "A"}},
		{raw: `{'name': 'A'}`, kind: KindObject, want: map[string]interface{}{"name": "A"}},
		{raw: `{name: 'A', gen: 2}`, kind: KindObject, want: map[string]interface{}{"name": "A", "gen": 2.0}},
		{raw: `["a", "b"]`, kind: KindArray, want: []interface{}{"a", "b"}},
		{raw: `['a', 1]`, kind: KindArray, want: []interface{}{"a", 1.0}},
		{raw: `knows`, kind: KindString, want: "knows"},
		{raw: `{name: "O'Brien"}`, kind: KindObject, want: map[string]interface{}{"name": "O'Brien"}},
		{raw: `{'name': 'say "hi"'}`, kind: KindObject, want: map[string]interface{}{"name": `say "hi"`}},
		{raw: `{note: "a, b: c", 'k': 'it'}`, kind: KindObject, want: map[string]interface{}{"note": "a, b: c", "k": "it"}},
		{raw: `{broken: }`, kind: KindString, want: "{broken: }"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			args, err := ParseArgs(tt.raw)
			require.NoError(t, err)
			require.Len(t, args, 1)
			assert.Equal(t, tt.kind, args[0].Kind)
			assert.Equal(t, tt.want, args[0].Interface())
		})
	}
}

func TestParseArgs_Predicates(t *testing.T) {
	tests := []struct {
		raw  string
		want *Predicate
	}{
		{raw: `gt(30)`, want: Gt(int64(30))},
		{raw: `between(10, 30)`, want: Between(int64(10), int64(30))},
		{raw: `eq("x")`, want: Eq("x")},
		{raw: `within("a", "b")`, want: Within("a", "b")},
		{raw: `within(["a", "b"])`, want: Within("a", "b")},
		{raw: `without(1)`, want: Without(int64(1))},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			args, err := ParseArgs(tt.raw)
			require.NoError(t, err)
			require.Len(t, args, 1)
			require.Equal(t, KindPredicate, args[0].Kind)
			assert.Equal(t, tt.want, args[0].Predicate)
		})
	}
}

func TestParseArgs_Functions(t *testing.T) {
	for _, raw := range []string{
		`x => x.age > 30`,
		`(x) => x.age > 30`,
		`(x, g) => { return x.age > 30; }`,
		`function(x) { return x.age > 30 }`,
	} {
		t.Run(raw, func(t *testing.T) {
			args, err := ParseArgs(raw)
			require.NoError(t, err)
			require.Len(t, args, 1)
			require.Equal(t, KindFunction, args[0].Kind)
			assert.Equal(t, raw, args[0].Func.Source)
			assert.True(t, args[0].Func.Test(map[string]interface{}{"age": 31}))
		})
	}
}

func TestParseArgs_MixedList(t *testing.T) {
	args, err := ParseArgs(`"age", gt(30)`)
	require.NoError(t, err)
	require.Len(t, args, 2)
	assert.Equal(t, StringValue("age"), args[0])
	assert.Equal(t, KindPredicate, args[1].Kind)

	none, err := ParseArgs("")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParse_ObjectFilterWithApostrophe(t *testing.T) {
	g := buildGraph(t,
		[]*Vertex{
			{ID: "ob", Properties: props("name", "O'Brien")},
			{ID: "x", Properties: props("name", "X")},
		}, nil)
	assert.Equal(t, []interface{}{1}, runQuery(t, g, `v({name: "O'Brien"}).count()`))
	assert.Equal(t, []interface{}{"ob"}, runQuery(t, g, `v().has({'name': "O'Brien"}).id()`))
}

func TestParse_StepNameCannotStartWithDigit(t *testing.T) {
	_, err := Parse(`v().9x()`)
	assert.ErrorIs(t, err, ErrParse)
}
