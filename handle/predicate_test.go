package handle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yogthos/matryoshka/lattice"
)

func Test_Compile_Accepts(t *testing.T) {
	item := lattice.MapOf(map[string]lattice.Value{
		"line":    lattice.StringOf("ERROR: disk full"),
		"lineNum": lattice.NumberOf(14),
		"score":   lattice.NumberOf(0.75),
	})

	testCases := []struct {
		name   string
		source string
		expect bool
	}{
		{name: "includes hit", source: "item.line.includes('ERROR')", expect: true},
		{name: "includes miss", source: "item.line.includes('WARN')", expect: false},
		{name: "double quotes too", source: `item.line.includes("disk")`, expect: true},
		{name: "regex match", source: `item.line.match("^ERROR")`, expect: true},
		{name: "regex miss", source: `item.line.match("^WARN")`, expect: false},
		{name: "numeric comparison", source: "item.lineNum > 10", expect: true},
		{name: "numeric equality", source: "item.lineNum == 14", expect: true},
		{name: "inequality", source: "item.lineNum != 14", expect: false},
		{name: "arithmetic", source: "item.lineNum * 2 >= 28", expect: true},
		{name: "division", source: "item.lineNum / 2 == 7", expect: true},
		{name: "and", source: "item.lineNum > 10 and item.score < 1", expect: true},
		{name: "or", source: "item.lineNum > 99 or item.score > 0.5", expect: true},
		{name: "not", source: "not item.line.includes('WARN')", expect: true},
		{name: "symbolic operators", source: "item.lineNum > 10 && !(item.score > 1)", expect: true},
		{name: "string comparison", source: "item.line == 'ERROR: disk full'", expect: true},
		{name: "missing field compares as null", source: "item.nothing == 3", expect: false},
		{name: "parentheses", source: "(item.lineNum > 99 or item.lineNum < 20) and true", expect: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			pred, err := Compile(tc.source)
			require.NoError(t, err)

			got, err := pred(item)
			require.NoError(t, err)
			assert.Equal(tc.expect, got.Truthy())
		})
	}
}

func Test_Compile_Rejects(t *testing.T) {
	testCases := []struct {
		name   string
		source string
	}{
		{name: "unknown root name", source: "process.env"},
		{name: "unknown helper", source: "item.line.startsWith('x')"},
		{name: "helper with non-literal", source: "item.line.includes(item.other)"},
		{name: "unclosed parenthesis", source: "(item.lineNum > 1"},
		{name: "bad regex literal", source: `item.line.match("(unclosed")`},
		{name: "stray operator", source: "item.lineNum >"},
		{name: "function-call syntax", source: "eval('bad')"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			_, err := Compile(tc.source)

			assert.Error(err)
		})
	}
}

func Test_Compile_Caches(t *testing.T) {
	assert := assert.New(t)

	first, err := Compile("item.lineNum > 1")
	require.NoError(t, err)
	second, err := Compile("item.lineNum > 1")
	require.NoError(t, err)

	// the first compile stores the predicate under its source text
	assert.NotNil(first)
	assert.NotNil(second)
	compileMu.RLock()
	_, cached := compileCache["item.lineNum > 1"]
	compileMu.RUnlock()
	assert.True(cached, "compiled predicates are cached by source text")
}

func Test_Compile_MapExpression(t *testing.T) {
	assert := assert.New(t)

	fn, err := Compile("item.lineNum + 100")
	require.NoError(t, err)

	got, err := fn(lattice.MapOf(map[string]lattice.Value{"lineNum": lattice.NumberOf(5)}))
	require.NoError(t, err)
	assert.Equal(105.0, got.Num())
}
