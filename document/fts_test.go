package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func searchDoc() *Search {
	return NewSearch(New(
		"the quick brown fox\n" +
			"a slow brown dog\n" +
			"the quick red fox\n" +
			"nothing to see here\n" +
			"quickly quicker quickest\n" +
			"fox and dog together"))
}

func Test_Search_Query(t *testing.T) {
	testCases := []struct {
		name        string
		query       string
		expectLines []int
	}{
		{name: "single term", query: "fox", expectLines: []int{1, 3, 6}},
		{name: "implicit AND", query: "quick fox", expectLines: []int{1, 3}},
		{name: "explicit OR", query: "dog OR red", expectLines: []int{2, 3, 6}},
		{name: "NOT excludes", query: "fox NOT red", expectLines: []int{1, 6}},
		{name: "phrase", query: `"brown fox"`, expectLines: []int{1}},
		{name: "prefix wildcard", query: "quick*", expectLines: []int{1, 3, 5}},
		{name: "near proximity", query: "fox NEAR/2 dog", expectLines: []int{6}},
		{name: "near respects the distance", query: "red NEAR/1 fox", expectLines: []int{3}},
		{name: "near misses distant terms", query: "the NEAR/1 fox", expectLines: nil},
		{name: "no hits", query: "zebra", expectLines: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			hits, err := searchDoc().Query(tc.query)
			require.NoError(t, err)

			var lines []int
			for _, h := range hits {
				lines = append(lines, h.LineNum)
			}
			assert.Equal(tc.expectLines, lines)
		})
	}
}

func Test_Search_QueryErrors(t *testing.T) {
	testCases := []struct {
		name  string
		query string
	}{
		{name: "empty", query: ""},
		{name: "dangling OR", query: "fox OR"},
		{name: "leading OR", query: "OR fox"},
		{name: "dangling NEAR", query: "fox NEAR/3"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			_, err := searchDoc().Query(tc.query)

			assert.Error(err)
		})
	}
}

func Test_Search_Relevance(t *testing.T) {
	assert := assert.New(t)

	s := NewSearch(New("fox\nfox fox fox\nfox fox"))

	hits, err := s.QueryRelevance("fox")
	require.NoError(t, err)
	require.Len(t, hits, 3)

	assert.Equal(2, hits[0].LineNum, "highest term frequency first")
	assert.Equal(3, hits[1].LineNum)
	assert.Equal(1, hits[2].LineNum)
}

func Test_Search_Highlight(t *testing.T) {
	assert := assert.New(t)

	got := searchDoc().Highlight("fox", "the quick brown fox")

	assert.Equal("the quick brown »fox«", got)
}
