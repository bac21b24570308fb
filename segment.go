package yamlpath

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dlclark/regexp2"
)

// Separator is the character that demarcates YAML Path segments.
type Separator rune

const (
	// SeparatorAuto infers the separator from the path: a leading '/'
	// selects SeparatorFSlash, anything else selects SeparatorDot.
	SeparatorAuto Separator = 0

	SeparatorDot    Separator = '.'
	SeparatorFSlash Separator = '/'
)

func (s Separator) String() string {
	switch s {
	case SeparatorFSlash:
		return "/"
	default:
		return "."
	}
}

func inferSeparator(path string) Separator {
	if strings.HasPrefix(path, "/") {
		return SeparatorFSlash
	}
	return SeparatorDot
}

// Segment is one addressing unit of a YAML Path. Exactly one concrete
// variant backs any Segment value; segments are immutable once parsed.
type Segment interface {
	fmt.Stringer

	// isSegment seals the variant set.
	isSegment()

	// deterministic reports whether a write operation may create this
	// segment when it does not already exist in the document.
	deterministic() bool
}

// KeySegment matches a mapping child by its exact key name.
type KeySegment struct {
	Name string
}

func (KeySegment) isSegment()          {}
func (KeySegment) deterministic() bool { return true }

func (s KeySegment) String() string {
	return escapeSegmentText(s.Name)
}

// IndexSegment matches a sequence element by its 0-based position.
type IndexSegment struct {
	Index int
}

func (IndexSegment) isSegment()          {}
func (IndexSegment) deterministic() bool { return true }

func (s IndexSegment) String() string {
	return "[" + strconv.Itoa(s.Index) + "]"
}

// SliceSegment matches a range of children: a half-open, clamped integer
// range over sequences, or an inclusive key range over mappings. Bounds are
// kept as written because their interpretation depends on the container.
type SliceSegment struct {
	Low  string
	High string
}

func (SliceSegment) isSegment()          {}
func (SliceSegment) deterministic() bool { return false }

func (s SliceSegment) String() string {
	return "[" + s.Low + ":" + s.High + "]"
}

// intBounds interprets the slice against a sequence of length n. Negative
// bounds count back from the end; the result is clamped to [0, n]. ok is
// false when either bound is not an integer.
func (s SliceSegment) intBounds(n int) (low, high int, ok bool) {
	low, err := strconv.Atoi(s.Low)
	if err != nil {
		return 0, 0, false
	}
	high, err = strconv.Atoi(s.High)
	if err != nil {
		return 0, 0, false
	}
	if low < 0 {
		low += n
	}
	if high < 0 {
		high += n
	}
	if low < 0 {
		low = 0
	}
	if high > n {
		high = n
	}
	return low, high, true
}

// WildcardSegment matches every child of the current node: every key and
// value of a mapping, every element of a sequence, and a bare scalar itself.
// Empty strings and explicit nulls match.
type WildcardSegment struct{}

func (WildcardSegment) isSegment()          {}
func (WildcardSegment) deterministic() bool { return false }

func (WildcardSegment) String() string { return "*" }

// TraversalSegment matches the current node and, depth-first in document
// order, every node beneath it.
type TraversalSegment struct{}

func (TraversalSegment) isSegment()          {}
func (TraversalSegment) deterministic() bool { return false }

func (TraversalSegment) String() string { return "**" }

// AnchorSegment matches children carrying the named anchor.
type AnchorSegment struct {
	Name string
}

func (AnchorSegment) isSegment()          {}
func (AnchorSegment) deterministic() bool { return false }

func (s AnchorSegment) String() string {
	return "[&" + s.Name + "]"
}

// SearchSegment matches children satisfying a SearchTerm.
type SearchSegment struct {
	Term *SearchTerm
}

func (SearchSegment) isSegment()          {}
func (SearchSegment) deterministic() bool { return false }

func (s SearchSegment) String() string {
	return s.Term.String()
}

// CollectorOperator combines a collector's results with those of the
// collector immediately preceding it.
type CollectorOperator uint8

const (
	CollectorNone CollectorOperator = iota
	CollectorAddition
	CollectorSubtraction
)

func (o CollectorOperator) String() string {
	switch o {
	case CollectorAddition:
		return "+"
	case CollectorSubtraction:
		return "-"
	default:
		return ""
	}
}

// CollectorSegment evaluates a sub-path against the current node as a
// virtual root, producing an ordered, combinable result list.
type CollectorSegment struct {
	SubPath *YAMLPath
	// Op relates this collector to the collector immediately before it.
	Op CollectorOperator
}

func (CollectorSegment) isSegment()          {}
func (CollectorSegment) deterministic() bool { return false }

func (s CollectorSegment) String() string {
	return s.Op.String() + "(" + s.SubPath.String() + ")"
}

// SearchScope selects what a SearchTerm compares.
type SearchScope uint8

const (
	// ScopeKey compares mapping key names; on sequences it compares the
	// element itself, and on scalars the scalar itself.
	ScopeKey SearchScope = iota

	// ScopeValue compares the value reached by the term's sub-path.
	ScopeValue
)

// SearchMethod is a SearchTerm comparison operator.
type SearchMethod uint8

const (
	MethodEquals SearchMethod = iota + 1
	MethodStartsWith
	MethodEndsWith
	MethodContains
	MethodRegex
	MethodGreaterThan
	MethodLessThan
	MethodGreaterOrEqual
	MethodLessOrEqual
)

func (m SearchMethod) String() string {
	switch m {
	case MethodEquals:
		return "="
	case MethodStartsWith:
		return "^"
	case MethodEndsWith:
		return "$"
	case MethodContains:
		return "%"
	case MethodRegex:
		return "=~"
	case MethodGreaterThan:
		return ">"
	case MethodLessThan:
		return "<"
	case MethodGreaterOrEqual:
		return ">="
	case MethodLessOrEqual:
		return "<="
	default:
		return "?"
	}
}

// SearchTerm describes one search expression: what to compare (scope and
// optional sub-path operand), how to compare it, and the comparand.
type SearchTerm struct {
	// Inverted negates the match result (the ! operator).
	Inverted bool

	Method SearchMethod
	Scope  SearchScope

	// SubPath locates the comparison value relative to each candidate.
	// It is nil when Scope is ScopeKey.
	SubPath *YAMLPath

	// Term is the comparand: a literal for most methods, a pattern for
	// MethodRegex.
	Term string

	// CaseSensitive is always true for parsed paths; it can be cleared on
	// programmatically built terms. Regex patterns manage their own case
	// folding via inline flags.
	CaseSensitive bool

	re *regexp2.Regexp
}

// NewSearchTerm builds a search term programmatically. subPath may be empty
// to compare key names (ScopeKey).
func NewSearchTerm(inverted bool, method SearchMethod, subPath string, term string) (*SearchTerm, error) {
	st := &SearchTerm{
		Inverted:      inverted,
		Method:        method,
		Scope:         ScopeKey,
		Term:          term,
		CaseSensitive: true,
	}
	if subPath != "" && subPath != "." {
		parsed, err := Parse(subPath)
		if err != nil {
			return nil, err
		}
		st.Scope = ScopeValue
		st.SubPath = parsed
	}
	if method == MethodRegex {
		if err := st.compile(); err != nil {
			return nil, err
		}
	}
	return st, nil
}

func (t *SearchTerm) compile() error {
	re, err := regexp2.Compile(t.Term, regexp2.None)
	if err != nil {
		return fmt.Errorf("compiling search pattern /%s/: %w", t.Term, err)
	}
	t.re = re
	return nil
}

func (t *SearchTerm) String() string {
	var b strings.Builder
	b.WriteByte('[')
	if t.Inverted {
		b.WriteByte('!')
	}
	if t.SubPath != nil {
		b.WriteString(t.SubPath.String())
	} else {
		b.WriteByte('.')
	}
	b.WriteString(t.Method.String())
	if t.Method == MethodRegex {
		b.WriteByte('/')
		b.WriteString(t.Term)
		b.WriteByte('/')
	} else {
		b.WriteString(escapeSearchTerm(t.Term))
	}
	b.WriteByte(']')
	return b.String()
}

// escapeSegmentText backslash-escapes every character of a key name that
// would otherwise be read as grammar, for both supported separators.
func escapeSegmentText(text string) string {
	return EnsureEscaped(text,
		'\\', '.', '/', '(', ')', '[', ']', '^', '$', '%', '*', '&', ' ', '\'', '"')
}

func escapeSearchTerm(term string) string {
	return EnsureEscaped(term, '\\', ']', '=', '~', '\'', '"', ' ')
}

// EnsureEscaped backslash-escapes every unescaped occurrence of each symbol
// within value. Already escaped occurrences are left alone.
func EnsureEscaped(value string, symbols ...rune) string {
	escaped := value
	for _, symbol := range symbols {
		replace := `\` + string(symbol)
		parts := strings.Split(escaped, replace)
		for i, part := range parts {
			parts[i] = strings.ReplaceAll(part, string(symbol), replace)
		}
		escaped = strings.Join(parts, replace)
	}
	return escaped
}

// EscapePathSection renders a string inert for use as a literal segment of a
// YAML Path with the given separator, escaping every grammar symbol.
func EscapePathSection(section string, separator Separator) string {
	sep := '.'
	if separator == SeparatorFSlash {
		sep = '/'
	}
	return EnsureEscaped(section,
		'\\', rune(sep), '(', ')', '[', ']', '^', '$', '%', '*', '&', ' ', '\'', '"')
}
