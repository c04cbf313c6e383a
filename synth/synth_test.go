package synth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yogthos/matryoshka/knowledge"
	"github.com/yogthos/matryoshka/mkerrors"
)

func newTestEngine() *Engine {
	return NewEngine(knowledge.NewBase())
}

func Test_Synthesize_Predicate(t *testing.T) {
	// classify rebuilds a bracket-tag predicate
	assert := assert.New(t)

	res := newTestEngine().SynthesizeOnFailure(Request{
		Operation: "classify",
		Examples: []Example{
			{Input: "[ERROR] Connection failed", Output: true},
			{Input: "[ERROR] Timeout", Output: true},
			{Input: "[INFO] Started", Output: false},
			{Input: "[DEBUG] trace", Output: false},
		},
	})

	require.True(t, res.Success, "error: %v", res.Err)
	require.NotNil(t, res.Fn)

	yes, err := res.Fn("[ERROR] Disk full")
	require.NoError(t, err)
	assert.Equal(true, yes)

	no, err := res.Fn("[INFO] Stopped")
	require.NoError(t, err)
	assert.Equal(false, no)
}

func Test_Synthesize_Date(t *testing.T) {
	// day-first slash dates generalize to unseen inputs
	assert := assert.New(t)

	res := newTestEngine().SynthesizeOnFailure(Request{
		Operation: "parseDate",
		Examples: []Example{
			{Input: "15/01/24", Output: "2024-01-15"},
			{Input: "20/02/24", Output: "2024-02-20"},
		},
	})

	require.True(t, res.Success, "error: %v", res.Err)

	got, err := res.Fn("25/12/24")
	require.NoError(t, err)
	assert.Equal("2024-12-25", got)
}

func Test_Synthesize_Currency(t *testing.T) {
	testCases := []struct {
		name     string
		examples []Example
		input    string
		expect   float64
	}{
		{
			name: "us convention",
			examples: []Example{
				{Input: "$1,500.25", Output: 1500.25},
				{Input: "$2,300", Output: 2300.0},
			},
			input:  "$9,876.50",
			expect: 9876.50,
		},
		{
			name: "eu convention",
			examples: []Example{
				{Input: "€1.500,25", Output: 1500.25},
				{Input: "€2.300,00", Output: 2300.0},
			},
			input:  "€9.876,50",
			expect: 9876.50,
		},
		{
			name: "swiss apostrophes",
			examples: []Example{
				{Input: "CHF 1'500.25", Output: 1500.25},
				{Input: "CHF 2'300.00", Output: 2300.0},
			},
			input:  "CHF 9'876.50",
			expect: 9876.50,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			res := newTestEngine().SynthesizeOnFailure(Request{
				Operation: "parseCurrency",
				Examples:  tc.examples,
			})

			require.True(t, res.Success, "error: %v", res.Err)
			got, err := res.Fn(tc.input)
			require.NoError(t, err)
			assert.InDelta(tc.expect, got.(float64), 0.01)
		})
	}
}

func Test_Synthesize_Number(t *testing.T) {
	assert := assert.New(t)

	res := newTestEngine().SynthesizeOnFailure(Request{
		Operation: "parseNumber",
		Examples: []Example{
			{Input: "growth: 45%", Output: 45.0},
			{Input: "growth: 12%", Output: 12.0},
		},
	})

	require.True(t, res.Success, "error: %v", res.Err)
	got, err := res.Fn("growth: 99%")
	require.NoError(t, err)
	assert.InDelta(99.0, got.(float64), 0.01)
}

func Test_Synthesize_Extractor_SplitIndex(t *testing.T) {
	// the split part index is a relational hole unified across examples
	assert := assert.New(t)

	res := newTestEngine().SynthesizeOnFailure(Request{
		Operation: "synthesize",
		Examples: []Example{
			{Input: "alpha,beta,gamma", Output: "beta"},
			{Input: "one,two,three", Output: "two"},
		},
	})

	require.True(t, res.Success, "error: %v", res.Err)
	got, err := res.Fn("red,green,blue")
	require.NoError(t, err)
	assert.Equal("green", got)
}

func Test_Synthesize_Extractor_Number(t *testing.T) {
	assert := assert.New(t)

	res := newTestEngine().SynthesizeOnFailure(Request{
		Operation:    "extract",
		ExpectedType: "number",
		Examples: []Example{
			{Input: "Total: $5", Output: 5.0},
			{Input: "Total: $120", Output: 120.0},
		},
	})

	require.True(t, res.Success, "error: %v", res.Err)
	got, err := res.Fn("Total: $77")
	require.NoError(t, err)
	assert.InDelta(77.0, got.(float64), 0.01)
}

func Test_Synthesize_Classifier_MultiClass(t *testing.T) {
	assert := assert.New(t)

	res := newTestEngine().SynthesizeOnFailure(Request{
		Operation: "classify",
		Examples: []Example{
			{Input: "[ERROR] bad", Output: "error"},
			{Input: "[WARN] odd", Output: "warning"},
			{Input: "[ERROR] worse", Output: "error"},
		},
	})

	require.True(t, res.Success, "error: %v", res.Err)

	got, err := res.Fn("[WARN] strange")
	require.NoError(t, err)
	assert.Equal("warning", got)

	miss, err := res.Fn("totally unlabeled")
	require.NoError(t, err)
	assert.Nil(miss, "inputs matching no rule classify as null")
}

func Test_Synthesize_Failures(t *testing.T) {
	testCases := []struct {
		name       string
		req        Request
		expectKind mkerrors.Kind
	}{
		{
			name:       "no examples",
			req:        Request{Operation: "synthesize"},
			expectKind: mkerrors.KindInsufficientExamples,
		},
		{
			name: "conflicting examples",
			req: Request{Operation: "synthesize", Examples: []Example{
				{Input: "a", Output: "1"},
				{Input: "a", Output: "2"},
			}},
			expectKind: mkerrors.KindInsufficientExamples,
		},
		{
			name: "nothing verifies",
			req: Request{Operation: "parseCurrency", Examples: []Example{
				{Input: "no amount at all", Output: 42.0},
			}},
			expectKind: mkerrors.KindSynthesisFailed,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			res := newTestEngine().SynthesizeOnFailure(tc.req)

			assert.False(res.Success)
			require.Error(t, res.Err)
			assert.Equal(tc.expectKind, mkerrors.KindOf(res.Err))
		})
	}
}

func Test_Synthesize_CacheIdempotence(t *testing.T) {
	assert := assert.New(t)

	e := newTestEngine()
	req := Request{
		Operation: "parseDate",
		Examples: []Example{
			{Input: "15/01/24", Output: "2024-01-15"},
			{Input: "20/02/24", Output: "2024-02-20"},
		},
	}

	first := e.SynthesizeOnFailure(req)
	second := e.SynthesizeOnFailure(req)

	require.True(t, first.Success)
	assert.Equal(first.CacheKey, second.CacheKey)
	assert.Equal(first.Code, second.Code)
}

func Test_Synthesize_StoresInKnowledge(t *testing.T) {
	assert := assert.New(t)

	e := newTestEngine()
	res := e.SynthesizeOnFailure(Request{
		Operation: "synthesize",
		Examples: []Example{
			{Input: "[ERROR] a", Output: "ERROR"},
			{Input: "[WARN] b", Output: "WARN"},
		},
	})

	require.True(t, res.Success, "error: %v", res.Err)
	assert.Equal(1, e.Base.Len(), "verified syntheses land in the knowledge base")
}

func Test_Synthesis_Soundness(t *testing.T) {
	// every returned function must reproduce its own examples
	requests := []Request{
		{Operation: "parseCurrency", Examples: []Example{
			{Input: "$1,500,000", Output: 1500000.0},
			{Input: "$2,300,000", Output: 2300000.0},
		}},
		{Operation: "parseDate", Examples: []Example{
			{Input: "15/01/24", Output: "2024-01-15"},
			{Input: "20/02/24", Output: "2024-02-20"},
		}},
		{Operation: "classify", Examples: []Example{
			{Input: "FATAL: x", Output: true},
			{Input: "INFO: y", Output: false},
		}},
		{Operation: "synthesize", Examples: []Example{
			{Input: "k=v1", Output: "v1"},
			{Input: "k=other", Output: "other"},
		}},
	}

	for _, req := range requests {
		t.Run(req.Operation, func(t *testing.T) {
			assert := assert.New(t)

			res := newTestEngine().SynthesizeOnFailure(req)
			require.True(t, res.Success, "error: %v", res.Err)

			for _, ex := range req.Examples {
				got, err := res.Fn(ex.Input)
				require.NoError(t, err)
				assert.True(outputsEqual(got, ex.Output),
					"f(%q) = %v, want %v", ex.Input, got, ex.Output)
			}
		})
	}
}
