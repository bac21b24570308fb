package yamlpath

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dlclark/regexp2"

	"github.com/yamlpath-go/yamlpath/internal/stack"
)

// pendingType tracks what kind of segment the lexer is currently building.
type pendingType uint8

const (
	pendingNone pendingType = iota
	pendingIndex
	pendingAnchor
	pendingSearch
	pendingCollector
)

type parser struct {
	path      string
	separator Separator
	segments  []Segment

	segmentID strings.Builder
	pending   pendingType

	// demarc holds open demarcation marks: quotes, '[', '(' and the
	// user-chosen regex delimiter.
	demarc *stack.Stack[rune]

	escapeNext     bool
	capturingRegex bool
	seekRegexDelim bool
	seekAnchorMark bool
	quotedSegment  bool

	inverted   bool
	method     SearchMethod
	searchAttr string

	collectorLevel int
	collectorOp    CollectorOperator
	seekCollector  bool
}

// parsePath breaks a YAML Path expression into typed segments. It follows
// one character at a time, honoring backslash escapes, whole-segment
// quoting, bracketed searches and slices, and nested collectors, then
// desugars splats into canonical segments.
func parsePath(path string, separator Separator) ([]Segment, error) {
	p := &parser{
		path:           path,
		separator:      separator,
		demarc:         stack.New[rune](),
		seekAnchorMark: true,
	}

	if strings.TrimSpace(path) == "" {
		return nil, nil
	}

	sep := rune(separator)

	pos := -1
	for _, char := range path {
		pos++
		switch {
		case p.escapeNext:
			p.escapeNext = false
			p.segmentID.WriteRune(char)

		case p.capturingRegex:
			if top, ok := p.demarc.Peek(); ok && char == top {
				// The chosen delimiter ends the pattern; by design it
				// cannot be escaped inside the pattern.
				p.capturingRegex = false
				p.demarc.Pop()
				continue
			}
			p.segmentID.WriteRune(char)

		// The escape test must come after the regex capture so patterns
		// keep their own backslashes.
		case char == '\\':
			p.escapeNext = true

		case char == ' ' && !p.insideQuote():
			// Unescaped, undemarcated whitespace is ignored.

		case p.seekRegexDelim:
			p.seekRegexDelim = false
			p.capturingRegex = true
			p.demarc.Push(char)

		case p.seekAnchorMark && char == '&':
			p.seekAnchorMark = false
			p.pending = pendingAnchor

		case p.seekCollector && (char == '+' || char == '-'):
			p.seekCollector = false
			if char == '+' {
				p.collectorOp = CollectorAddition
			} else {
				p.collectorOp = CollectorSubtraction
			}

		case char == '\'' || char == '"':
			if p.demarc.IsEmpty() {
				p.demarc.Push(char)
				p.quotedSegment = true
				continue
			}
			if top, _ := p.demarc.Peek(); top == char {
				p.demarc.Pop()
				if p.demarc.IsEmpty() {
					// A whole quoted segment is always a literal key,
					// even when it looks like an operator or splat.
					p.flushQuotedKey()
					continue
				}
				// Quote closed inside a bracket or collector: keep it,
				// the term is undemarcated when the bracket closes.
			} else {
				p.demarc.Push(char)
			}
			p.segmentID.WriteRune(char)

		case char == '(' && p.collectorScope():
			p.seekCollector = false
			p.collectorLevel++
			p.demarc.Push(char)
			if p.collectorLevel == 1 {
				if err := p.flushSegment(pos); err != nil {
					return nil, err
				}
				p.pending = pendingCollector
				continue
			}
			p.segmentID.WriteRune(char)

		case p.collectorLevel > 0:
			if top, _ := p.demarc.Peek(); char == ')' && top == '(' {
				p.demarc.Pop()
				p.collectorLevel--
				if p.collectorLevel < 1 {
					if err := p.flushCollector(pos); err != nil {
						return nil, err
					}
					continue
				}
			}
			p.segmentID.WriteRune(char)

		case p.demarc.IsEmpty() && char == '[':
			if err := p.flushSegment(pos); err != nil {
				return nil, err
			}
			p.demarc.Push(char)
			p.pending = pendingIndex
			p.seekAnchorMark = true
			p.seekCollector = false
			p.inverted = false
			p.method = 0
			p.searchAttr = ""

		case p.insideBracket() && isSearchOperator(char):
			consumed, err := p.searchOperator(char, pos)
			if err != nil {
				return nil, err
			}
			if !consumed {
				p.segmentID.WriteRune(char)
				p.seekAnchorMark = false
			}

		case p.insideBracket() && char == ']':
			if err := p.closeBracket(pos); err != nil {
				return nil, err
			}

		case p.demarc.IsEmpty() && char == sep:
			if err := p.flushSegment(pos); err != nil {
				return nil, err
			}

		default:
			p.segmentID.WriteRune(char)
			p.seekAnchorMark = false
			p.seekCollector = false
		}
	}

	end := utf8.RuneCountInString(path)
	if p.collectorLevel > 0 {
		return nil, syntaxErrorf(path, end, "unmatched collector parenthesis")
	}
	if p.capturingRegex {
		return nil, syntaxErrorf(path, end, "unterminated regular expression")
	}
	if !p.demarc.IsEmpty() {
		top, _ := p.demarc.Peek()
		return nil, syntaxErrorf(path, end, "unmatched demarcation mark %q", string(top))
	}
	if p.escapeNext {
		return nil, syntaxErrorf(path, end, "dangling escape character")
	}
	if err := p.flushSegment(end); err != nil {
		return nil, err
	}

	return p.segments, nil
}

func (p *parser) insideQuote() bool {
	top, ok := p.demarc.Peek()
	return ok && (top == '\'' || top == '"')
}

func (p *parser) insideBracket() bool {
	top, ok := p.demarc.Peek()
	return ok && top == '['
}

// collectorScope reports whether a '(' opens (or nests within) a collector
// rather than being literal text inside quotes or brackets.
func (p *parser) collectorScope() bool {
	if p.demarc.IsEmpty() {
		return true
	}
	top, _ := p.demarc.Peek()
	return top == '('
}

func isSearchOperator(char rune) bool {
	switch char {
	case '=', '^', '$', '%', '!', '>', '<', '~':
		return true
	}
	return false
}

// searchOperator handles one operator character inside a bracketed search.
// It returns consumed=false when the character belongs to the term text
// (an operator character after the method is already fixed).
func (p *parser) searchOperator(char rune, offset int) (bool, error) {
	switch char {
	case '!':
		if p.method != 0 {
			return false, nil
		}
		if p.inverted {
			return false, syntaxErrorf(p.path, offset, "double search inversion is meaningless")
		}
		p.inverted = true
		return true, nil

	case '=':
		switch p.method {
		case MethodLessThan:
			p.method = MethodLessOrEqual
			return true, nil
		case MethodGreaterThan:
			p.method = MethodGreaterOrEqual
			return true, nil
		case MethodEquals:
			// Allow == as a synonym for =.
			return true, nil
		case 0:
			if p.segmentID.Len() == 0 {
				return false, syntaxErrorf(p.path, offset, "missing search operand before operator =")
			}
			p.pending = pendingSearch
			p.method = MethodEquals
			p.takeAttr()
			return true, nil
		default:
			return false, nil
		}

	case '~':
		if p.method != MethodEquals {
			return false, syntaxErrorf(p.path, offset,
				"unexpected ~; use =~ to search with a regular expression")
		}
		p.method = MethodRegex
		p.seekRegexDelim = true
		return true, nil
	}

	// ^ $ % > < all require an operand and an unfixed method.
	if p.method != 0 {
		return false, nil
	}
	if p.segmentID.Len() == 0 {
		return false, syntaxErrorf(p.path, offset,
			"missing search operand before operator %s", string(char))
	}

	p.pending = pendingSearch
	switch char {
	case '^':
		p.method = MethodStartsWith
	case '$':
		p.method = MethodEndsWith
	case '%':
		p.method = MethodContains
	case '>':
		p.method = MethodGreaterThan
	case '<':
		p.method = MethodLessThan
	}
	p.takeAttr()
	return true, nil
}

func (p *parser) takeAttr() {
	p.searchAttr = p.segmentID.String()
	p.segmentID.Reset()
}

// closeBracket finishes an index, slice, anchor or search segment.
func (p *parser) closeBracket(offset int) error {
	text := p.segmentID.String()
	defer func() {
		p.segmentID.Reset()
		p.pending = pendingNone
		p.demarc.Pop()
		p.method = 0
		p.inverted = false
		p.quotedSegment = false
	}()

	switch {
	case p.pending == pendingAnchor:
		if text == "" {
			return syntaxErrorf(p.path, offset, "empty anchor name")
		}
		p.segments = append(p.segments, AnchorSegment{Name: text})

	case p.pending == pendingSearch && p.method != 0:
		term := undemarcate(text)
		st := &SearchTerm{
			Inverted:      p.inverted,
			Method:        p.method,
			Term:          term,
			CaseSensitive: true,
		}
		if p.searchAttr != "." {
			sub, err := ParseSeparator(p.searchAttr, p.separator)
			if err != nil {
				return syntaxErrorf(p.path, offset, "invalid search operand %q: %v", p.searchAttr, err)
			}
			st.Scope = ScopeValue
			st.SubPath = sub
		}
		if p.method == MethodRegex {
			if err := st.compile(); err != nil {
				return syntaxErrorf(p.path, offset, "%v", err)
			}
		}
		p.segments = append(p.segments, SearchSegment{Term: st})

	case strings.Contains(text, ":") && !p.quotedSegment:
		low, high, _ := strings.Cut(text, ":")
		p.segments = append(p.segments, SliceSegment{Low: undemarcate(low), High: undemarcate(high)})

	case strings.Contains(text, "*") && !p.quotedSegment:
		seg, err := expandSplats(p.path, text, offset)
		if err != nil {
			return err
		}
		p.segments = append(p.segments, seg)

	default:
		idx, err := strconv.Atoi(text)
		if err != nil {
			return syntaxErrorf(p.path, offset, "not an integer index: %q", text)
		}
		p.segments = append(p.segments, IndexSegment{Index: idx})
	}

	return nil
}

// flushCollector parses the captured sub-expression and records a collector
// segment carrying the pending combination operator.
func (p *parser) flushCollector(offset int) error {
	expr := p.segmentID.String()
	p.segmentID.Reset()
	p.pending = pendingNone

	sub, err := Parse(expr)
	if err != nil {
		return syntaxErrorf(p.path, offset, "invalid collector expression %q: %v", expr, err)
	}

	p.segments = append(p.segments, CollectorSegment{SubPath: sub, Op: p.collectorOp})
	p.collectorOp = CollectorNone
	p.seekCollector = true
	return nil
}

// flushQuotedKey records a whole quoted token as a literal key.
func (p *parser) flushQuotedKey() {
	if p.segmentID.Len() == 0 {
		p.quotedSegment = false
		return
	}
	p.segments = append(p.segments, KeySegment{Name: p.segmentID.String()})
	p.segmentID.Reset()
	p.pending = pendingNone
	p.quotedSegment = false
}

// flushSegment records the pending undemarcated token, desugaring splats and
// bare integers into their canonical segments.
func (p *parser) flushSegment(offset int) error {
	if p.segmentID.Len() == 0 {
		p.pending = pendingNone
		return nil
	}
	text := p.segmentID.String()
	p.segmentID.Reset()

	if p.pending == pendingAnchor {
		p.pending = pendingNone
		p.segments = append(p.segments, AnchorSegment{Name: text})
		return nil
	}
	p.pending = pendingNone

	if strings.Contains(text, "*") {
		seg, err := expandSplats(p.path, text, offset)
		if err != nil {
			return err
		}
		p.segments = append(p.segments, seg)
		return nil
	}

	// A bare integer addresses a sequence position.
	if idx, err := strconv.Atoi(text); err == nil {
		p.segments = append(p.segments, IndexSegment{Index: idx})
		return nil
	}

	p.segments = append(p.segments, KeySegment{Name: text})
	return nil
}

// undemarcate strips one set of symmetric quote marks from a term.
func undemarcate(term string) string {
	if len(term) > 1 && (term[0] == '\'' || term[0] == '"') && term[len(term)-1] == term[0] {
		return term[1 : len(term)-1]
	}
	return term
}

// expandSplats desugars * tokens: a lone * is a wildcard, ** is the deep
// traversal operator, and splats embedded in a key become prefix, suffix or
// pattern searches on key names.
func expandSplats(path, text string, offset int) (Segment, error) {
	count := strings.Count(text, "*")

	if count == 1 {
		pos := strings.Index(text, "*")
		switch {
		case len(text) == 1:
			return WildcardSegment{}, nil
		case pos == 0:
			return splatSearch(MethodEndsWith, text[1:])
		case pos == len(text)-1:
			return splatSearch(MethodStartsWith, text[:pos])
		default:
			return splatSearch(MethodRegex,
				"^"+regexp2.Escape(text[:pos])+".*"+regexp2.Escape(text[pos+1:])+"$")
		}
	}

	if count == 2 && len(text) == 2 {
		return TraversalSegment{}, nil
	}

	// Multi-splat tokens become an anchored pattern search.
	var pattern strings.Builder
	pattern.WriteByte('^')
	wasSplat := false
	for _, char := range text {
		if char == '*' {
			if wasSplat {
				return nil, syntaxErrorf(path, offset,
					"the ** traversal operator has no meaning when combined with other characters")
			}
			wasSplat = true
			pattern.WriteString(".*")
			continue
		}
		wasSplat = false
		pattern.WriteString(regexp2.Escape(string(char)))
	}
	pattern.WriteByte('$')

	return splatSearch(MethodRegex, pattern.String())
}

func splatSearch(method SearchMethod, term string) (Segment, error) {
	st := &SearchTerm{
		Method:        method,
		Scope:         ScopeKey,
		Term:          term,
		CaseSensitive: true,
	}
	if method == MethodRegex {
		if err := st.compile(); err != nil {
			return nil, err
		}
	}
	return SearchSegment{Term: st}, nil
}
