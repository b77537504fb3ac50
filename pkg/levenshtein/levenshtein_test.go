// Copyright (c) 2015, Arbo von Monkiewitsch All rights reserved.
// Use of this source code is governed by a BSD-style
// license.

package levenshtein

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var distanceTestCases = []struct {
	s1     string
	s2     string
	wanted int
}{
	{"", "a", 1},
	{"a", "", 1},
	{"a", "a", 0},
	{"a", "b", 1},
	{"ab", "aaa", 2},
	{"kitten", "sitting", 3},
	{"sitting", "kitten", 3},
	{"aa", "aü", 1},
	{"Fön", "Föm", 1},
	{"abc", "def", 3},
}

func TestDistance(t *testing.T) {
	t.Parallel()

	var ctx Context

	for _, tc := range distanceTestCases {
		assert.Equal(t, tc.wanted, ctx.Distance(tc.s1, tc.s2), "%q -> %q", tc.s1, tc.s2)
	}
}

func TestSuggest(t *testing.T) {
	t.Parallel()

	kinds := []string{"type", "field", "method", "parameter", "exception"}

	got, ok := Suggest("methd", kinds)
	assert.True(t, ok)
	assert.Equal(t, "method", got)

	got, ok = Suggest("PARAMETR", kinds)
	assert.True(t, ok)
	assert.Equal(t, "parameter", got)

	_, ok = Suggest("constructor", kinds)
	assert.False(t, ok)

	_, ok = Suggest("", kinds)
	assert.False(t, ok)
}

func TestHint(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ` (did you mean "replace"?)`, Hint("replce", []string{"complete", "replace", "keep"}))
	assert.Empty(t, Hint("rewrite", []string{"complete", "replace", "keep"}))
}
