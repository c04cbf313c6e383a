package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yogthos/matryoshka/mkerrors"
)

func Test_ResolveConstraints(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectSource  string
		expectApplied []string
	}{
		{
			name:          "compress marker collapses to the bare term",
			input:         `[Σ⚡μ] ⊗ (grep "x")`,
			expectSource:  `(grep "x")`,
			expectApplied: []string{"Σ⚡μ"},
		},
		{
			name:          "canonical name works too",
			input:         `[simplify-and-compress] ⊗ (grep "x")`,
			expectSource:  `(grep "x")`,
			expectApplied: []string{"simplify-and-compress"},
		},
		{
			name:          "identity application folds",
			input:         `[Σ] ⊗ (app (lambda x x) (grep "x"))`,
			expectSource:  `(grep "x")`,
			expectApplied: []string{"Σ"},
		},
		{
			name:          "identical branches collapse",
			input:         `[Σ] ⊗ (if input "same" "same")`,
			expectSource:  `"same"`,
			expectApplied: []string{"Σ"},
		},
		{
			name:          "null-safe wraps match in a guard",
			input:         `[null-safe] ⊗ (match input "x" 0)`,
			expectSource:  `(if (match input "x" 0) (match input "x" 0) "")`,
			expectApplied: []string{"null-safe"},
		},
		{
			name:          "error-absorbing wraps grep",
			input:         `[error-absorbing] ⊗ (grep "x")`,
			expectSource:  `(absorb (grep "x") "")`,
			expectApplied: []string{"error-absorbing"},
		},
		{
			name:          "plain terms pass through untouched",
			input:         `(sum (grep "Sales"))`,
			expectSource:  `(sum (grep "Sales"))`,
			expectApplied: nil,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			parsed := Parse(tc.input)
			require.NoError(t, parsed.Err)

			res, err := ResolveConstraints(parsed.Term)
			require.NoError(t, err)

			assert.Equal(tc.expectSource, res.Term.Nucleus())
			assert.Equal(tc.expectApplied, res.Applied)
		})
	}
}

func Test_ResolveConstraints_Unknown(t *testing.T) {
	assert := assert.New(t)

	parsed := Parse(`[φΣnope] ⊗ (grep "x")`)
	require.NoError(t, parsed.Err)

	_, err := ResolveConstraints(parsed.Term)

	assert.Error(err)
	assert.Equal(mkerrors.KindUnknownConstraint, mkerrors.KindOf(err))
}

func Test_ResolveConstraints_Idempotent(t *testing.T) {
	inputs := []string{
		`[Σ⚡μ] ⊗ (app (lambda x x) (grep "x"))`,
		`[null-safe] ⊗ (count (filter RESULTS (lambda x (match x "a" 0))))`,
		`[error-absorbing] ⊗ (match input "a" 1)`,
	}

	for _, src := range inputs {
		t.Run(src, func(t *testing.T) {
			assert := assert.New(t)

			parsed := Parse(src)
			require.NoError(t, parsed.Err)

			once, err := ResolveConstraints(parsed.Term)
			require.NoError(t, err)

			twice, err := ResolveConstraints(once.Term)
			require.NoError(t, err)

			assert.True(once.Term.Equal(twice.Term),
				"second resolution changed the tree:\nonce:\n%s\ntwice:\n%s", once.Term.String(), twice.Term.String())
			assert.Empty(twice.Applied)
		})
	}
}
