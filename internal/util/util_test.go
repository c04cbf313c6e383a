package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_MakeTextList(t *testing.T) {
	testCases := []struct {
		name   string
		input  []string
		expect string
	}{
		{name: "empty", input: nil, expect: ""},
		{name: "one item", input: []string{"currency"}, expect: "currency"},
		{name: "two items", input: []string{"currency", "extractor"}, expect: "currency and extractor"},
		{name: "three items take the oxford comma", input: []string{"currency", "date", "extractor"}, expect: "currency, date, and extractor"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert := assert.New(t)

			actual := MakeTextList(tc.input)

			assert.Equal(tc.expect, actual)
		})
	}
}

func Test_MakeTextList_DoesNotMutate(t *testing.T) {
	assert := assert.New(t)

	input := []string{"a", "b", "c"}
	MakeTextList(input)

	assert.Equal([]string{"a", "b", "c"}, input)
}
