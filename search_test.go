package yamlpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchTermMatches(t *testing.T) {
	tests := []struct {
		name     string
		method   SearchMethod
		term     string
		inverted bool
		folded   bool
		value    string
		want     bool
	}{
		{name: "equals_string", method: MethodEquals, term: "abc", value: "abc", want: true},
		{name: "equals_numeric", method: MethodEquals, term: "5.0", value: "5", want: true},
		{name: "equals_mismatch", method: MethodEquals, term: "abc", value: "abd", want: false},
		{name: "not_equals", method: MethodEquals, term: "abc", inverted: true, value: "abd", want: true},

		{name: "starts_with", method: MethodStartsWith, term: "ab", value: "abc", want: true},
		{name: "starts_with_folded", method: MethodStartsWith, term: "AB", folded: true, value: "abc", want: true},
		{name: "starts_with_case", method: MethodStartsWith, term: "AB", value: "abc", want: false},
		{name: "ends_with", method: MethodEndsWith, term: "bc", value: "abc", want: true},
		{name: "contains", method: MethodContains, term: "b", value: "abc", want: true},

		{name: "greater_numeric", method: MethodGreaterThan, term: "10", value: "20", want: true},
		{name: "greater_numeric_false", method: MethodGreaterThan, term: "10", value: "5", want: false},
		{name: "greater_lexical", method: MethodGreaterThan, term: "apple", value: "banana", want: true},
		{name: "less_or_equal_boundary", method: MethodLessOrEqual, term: "5", value: "5", want: true},
		{name: "greater_or_equal_numeric", method: MethodGreaterOrEqual, term: "5", value: "05", want: true},

		{name: "regex", method: MethodRegex, term: "^a.c$", value: "abc", want: true},
		{name: "regex_no_match", method: MethodRegex, term: "^a.c$", value: "abcd", want: false},
		{name: "regex_inverted", method: MethodRegex, term: "^a", inverted: true, value: "xyz", want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			term, err := NewSearchTerm(tc.inverted, tc.method, "", tc.term)
			require.NoError(t, err)
			if tc.folded {
				term.CaseSensitive = false
			}

			got, err := term.Matches(tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewSearchTermSubPath(t *testing.T) {
	term, err := NewSearchTerm(false, MethodEquals, "meta.tag", "x")
	require.NoError(t, err)
	assert.Equal(t, ScopeValue, term.Scope)
	require.NotNil(t, term.SubPath)
	assert.Equal(t, 2, term.SubPath.Len())

	keyScoped, err := NewSearchTerm(false, MethodEquals, ".", "x")
	require.NoError(t, err)
	assert.Equal(t, ScopeKey, keyScoped.Scope)
	assert.Nil(t, keyScoped.SubPath)
}

func TestNewSearchTermBadRegex(t *testing.T) {
	_, err := NewSearchTerm(false, MethodRegex, "", "([")
	require.Error(t, err)
}

func TestSearchTermString(t *testing.T) {
	tests := []struct {
		path string
	}{
		{"[b=c]"},
		{"[!b=c]"},
		{"[.^pre]"},
		{"[n>=5]"},
		{"[.=~/^x/]"},
	}
	for _, tc := range tests {
		parsed := mustParse(t, "a"+tc.path)
		search := parsed.Segments()[1].(SearchSegment)
		assert.Equal(t, tc.path, search.Term.String())
	}
}
