package yamlpath

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, path string) *YAMLPath {
	t.Helper()
	parsed, err := Parse(path)
	require.NoError(t, err)
	return parsed
}

func TestParseSegments(t *testing.T) {
	tests := []struct {
		name string
		path string
		want []Segment
	}{
		{
			name: "single_key",
			path: "a",
			want: []Segment{KeySegment{Name: "a"}},
		},
		{
			name: "dotted_keys",
			path: "a.b.c",
			want: []Segment{KeySegment{Name: "a"}, KeySegment{Name: "b"}, KeySegment{Name: "c"}},
		},
		{
			name: "fslash_keys",
			path: "/a/b",
			want: []Segment{KeySegment{Name: "a"}, KeySegment{Name: "b"}},
		},
		{
			name: "escaped_separator",
			path: `a\.b.c`,
			want: []Segment{KeySegment{Name: "a.b"}, KeySegment{Name: "c"}},
		},
		{
			name: "quoted_key_is_literal",
			path: `'a.b*'.c`,
			want: []Segment{KeySegment{Name: "a.b*"}, KeySegment{Name: "c"}},
		},
		{
			name: "bare_integer_is_index",
			path: "a.1",
			want: []Segment{KeySegment{Name: "a"}, IndexSegment{Index: 1}},
		},
		{
			name: "bracket_index",
			path: "a[3]",
			want: []Segment{KeySegment{Name: "a"}, IndexSegment{Index: 3}},
		},
		{
			name: "negative_index",
			path: "a[-1]",
			want: []Segment{KeySegment{Name: "a"}, IndexSegment{Index: -1}},
		},
		{
			name: "integer_slice",
			path: "a[1:3]",
			want: []Segment{KeySegment{Name: "a"}, SliceSegment{Low: "1", High: "3"}},
		},
		{
			name: "key_slice",
			path: "[aa:bb]",
			want: []Segment{SliceSegment{Low: "aa", High: "bb"}},
		},
		{
			name: "wildcard",
			path: "a.*",
			want: []Segment{KeySegment{Name: "a"}, WildcardSegment{}},
		},
		{
			name: "bracket_wildcard",
			path: "a[*]",
			want: []Segment{KeySegment{Name: "a"}, WildcardSegment{}},
		},
		{
			name: "traversal",
			path: "a.**",
			want: []Segment{KeySegment{Name: "a"}, TraversalSegment{}},
		},
		{
			name: "traversal_then_key",
			path: "**.d",
			want: []Segment{TraversalSegment{}, KeySegment{Name: "d"}},
		},
		{
			name: "leading_anchor",
			path: "&top.b",
			want: []Segment{AnchorSegment{Name: "top"}, KeySegment{Name: "b"}},
		},
		{
			name: "bracket_anchor",
			path: "a[&mark]",
			want: []Segment{KeySegment{Name: "a"}, AnchorSegment{Name: "mark"}},
		},
		{
			name: "whitespace_is_ignored",
			path: "a [ b = c ]",
			want: []Segment{
				KeySegment{Name: "a"},
				SearchSegment{Term: &SearchTerm{
					Method: MethodEquals, Scope: ScopeValue,
					SubPath: &YAMLPath{original: "b", separator: SeparatorDot, segments: []Segment{KeySegment{Name: "b"}}},
					Term:    "c", CaseSensitive: true,
				}},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.path)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Segments())
		})
	}
}

func TestParseSearchTerms(t *testing.T) {
	subPath := func(expr string) *YAMLPath {
		parsed, err := Parse(expr)
		require.NoError(t, err)
		return parsed
	}

	tests := []struct {
		name string
		path string
		want *SearchTerm
	}{
		{
			name: "equals",
			path: "a[b=c]",
			want: &SearchTerm{Method: MethodEquals, Scope: ScopeValue, SubPath: subPath("b"), Term: "c", CaseSensitive: true},
		},
		{
			name: "double_equals",
			path: "a[b==c]",
			want: &SearchTerm{Method: MethodEquals, Scope: ScopeValue, SubPath: subPath("b"), Term: "c", CaseSensitive: true},
		},
		{
			name: "not_equals",
			path: "a[b!=c]",
			want: &SearchTerm{Inverted: true, Method: MethodEquals, Scope: ScopeValue, SubPath: subPath("b"), Term: "c", CaseSensitive: true},
		},
		{
			name: "starts_with_key_scope",
			path: "a[.^pre]",
			want: &SearchTerm{Method: MethodStartsWith, Scope: ScopeKey, Term: "pre", CaseSensitive: true},
		},
		{
			name: "ends_with",
			path: "a[b$suf]",
			want: &SearchTerm{Method: MethodEndsWith, Scope: ScopeValue, SubPath: subPath("b"), Term: "suf", CaseSensitive: true},
		},
		{
			name: "contains",
			path: "a[b%mid]",
			want: &SearchTerm{Method: MethodContains, Scope: ScopeValue, SubPath: subPath("b"), Term: "mid", CaseSensitive: true},
		},
		{
			name: "greater_or_equal",
			path: "a[n>=5]",
			want: &SearchTerm{Method: MethodGreaterOrEqual, Scope: ScopeValue, SubPath: subPath("n"), Term: "5", CaseSensitive: true},
		},
		{
			name: "less_than",
			path: "a[n<5]",
			want: &SearchTerm{Method: MethodLessThan, Scope: ScopeValue, SubPath: subPath("n"), Term: "5", CaseSensitive: true},
		},
		{
			name: "quoted_term_keeps_spaces",
			path: "a[b=' c ']",
			want: &SearchTerm{Method: MethodEquals, Scope: ScopeValue, SubPath: subPath("b"), Term: " c ", CaseSensitive: true},
		},
		{
			name: "nested_sub_path_operand",
			path: "a[b.c=x]",
			want: &SearchTerm{Method: MethodEquals, Scope: ScopeValue, SubPath: subPath("b.c"), Term: "x", CaseSensitive: true},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.path)
			require.NoError(t, err)
			segments := got.Segments()
			require.Len(t, segments, 2)
			search, ok := segments[1].(SearchSegment)
			require.True(t, ok, "second segment should be a search, got %T", segments[1])
			assert.Equal(t, tc.want, search.Term)
		})
	}
}

func TestParseRegexSearch(t *testing.T) {
	got := mustParse(t, "a[.=~/^ba+r$/]")
	segments := got.Segments()
	require.Len(t, segments, 2)

	search, ok := segments[1].(SearchSegment)
	require.True(t, ok)
	assert.Equal(t, MethodRegex, search.Term.Method)
	assert.Equal(t, ScopeKey, search.Term.Scope)
	assert.Equal(t, "^ba+r$", search.Term.Term)
	assert.NotNil(t, search.Term.re)
}

func TestParseSplats(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		method SearchMethod
		term   string
	}{
		{"prefix", "ab*", MethodStartsWith, "ab"},
		{"suffix", "*cd", MethodEndsWith, "cd"},
		{"infix", "te*xt", MethodRegex, "^te.*xt$"},
		{"multi", "a*b*c", MethodRegex, "^a.*b.*c$"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := mustParse(t, tc.path)
			segments := got.Segments()
			require.Len(t, segments, 1)

			search, ok := segments[0].(SearchSegment)
			require.True(t, ok, "expected a search segment, got %T", segments[0])
			assert.Equal(t, tc.method, search.Term.Method)
			assert.Equal(t, ScopeKey, search.Term.Scope)
			assert.Equal(t, tc.term, search.Term.Term)
		})
	}
}

func TestParseCollectors(t *testing.T) {
	t.Run("subtraction_chain", func(t *testing.T) {
		got := mustParse(t, "(a)-(b)")
		segments := got.Segments()
		require.Len(t, segments, 2)

		first := segments[0].(CollectorSegment)
		assert.Equal(t, CollectorNone, first.Op)
		assert.Equal(t, "a", first.SubPath.Original())

		second := segments[1].(CollectorSegment)
		assert.Equal(t, CollectorSubtraction, second.Op)
		assert.Equal(t, "b", second.SubPath.Original())
	})

	t.Run("addition_survives_whitespace", func(t *testing.T) {
		got := mustParse(t, "(a) + (b)")
		segments := got.Segments()
		require.Len(t, segments, 2)
		assert.Equal(t, CollectorAddition, segments[1].(CollectorSegment).Op)
	})

	t.Run("nested_collectors", func(t *testing.T) {
		got := mustParse(t, "((a)+(b))-(c)")
		segments := got.Segments()
		require.Len(t, segments, 2)

		outer := segments[0].(CollectorSegment)
		require.Equal(t, 2, outer.SubPath.Len())
		assert.Equal(t, CollectorAddition, outer.SubPath.Segments()[1].(CollectorSegment).Op)
	})

	t.Run("collector_then_index", func(t *testing.T) {
		got := mustParse(t, "(a)[0]")
		segments := got.Segments()
		require.Len(t, segments, 2)
		assert.Equal(t, IndexSegment{Index: 0}, segments[1])
	})

	t.Run("relative_sub_path", func(t *testing.T) {
		got := mustParse(t, "items.(name)")
		segments := got.Segments()
		require.Len(t, segments, 2)
		assert.Equal(t, KeySegment{Name: "items"}, segments[0])
		assert.Equal(t, "name", segments[1].(CollectorSegment).SubPath.Original())
	})
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"unmatched_bracket", "a["},
		{"unmatched_quote", "'a"},
		{"unmatched_collector", "(a"},
		{"unterminated_regex", "a[.=~/x]"},
		{"dangling_escape", `a\`},
		{"missing_operand", "a[=x]"},
		{"double_inversion", "a[!!b=c]"},
		{"tilde_without_equals", "a[b~c]"},
		{"non_integer_index", "a[x]"},
		{"traversal_with_text", "**x"},
		{"empty_anchor", "a[&]"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.path)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSyntax)

			var syntaxErr *SyntaxError
			require.ErrorAs(t, err, &syntaxErr)
			assert.Equal(t, tc.path, syntaxErr.Path)
		})
	}
}

func TestParseErrorOffset(t *testing.T) {
	_, err := Parse("key[=x]")
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 4, syntaxErr.Offset)
}

func TestParseErrorOffsetCountsRunes(t *testing.T) {
	// "ключ" is four runes but eight bytes; the offset reports runes.
	_, err := Parse("ключ[=x]")
	var syntaxErr *SyntaxError
	require.ErrorAs(t, err, &syntaxErr)
	assert.Equal(t, 5, syntaxErr.Offset)
}

func TestParseEmptyPath(t *testing.T) {
	for _, path := range []string{"", "   ", "/"} {
		parsed, err := Parse(path)
		require.NoError(t, err, "path %q", path)
		assert.Equal(t, 0, parsed.Len(), "path %q", path)
	}
}

func TestInferSeparator(t *testing.T) {
	assert.Equal(t, SeparatorFSlash, mustParse(t, "/a/b").Separator())
	assert.Equal(t, SeparatorDot, mustParse(t, "a.b").Separator())

	forced, err := ParseSeparator("a/b", SeparatorFSlash)
	require.NoError(t, err)
	assert.Equal(t, 2, forced.Len())
}

func TestParseErrorsDoNotPanic(t *testing.T) {
	// Error recovery should never leave the parser in a state that
	// corrupts later parses.
	_, _ = Parse("a[")
	parsed, err := Parse("a.b")
	require.NoError(t, err)
	assert.Equal(t, 2, parsed.Len())
	_ = errors.Is(err, ErrSyntax)
}
