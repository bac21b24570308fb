package yamlpath

import (
	"slices"
	"strings"
)

// YAMLPath is an immutable, parsed YAML Path expression: an ordered sequence
// of typed segments, the separator it was written with, and the original
// text. Two paths are equal when their segments address the same locations,
// regardless of separator.
type YAMLPath struct {
	original  string
	separator Separator
	segments  []Segment
}

// Parse parses a YAML Path expression, inferring the separator from a
// leading '/' (SeparatorFSlash) or defaulting to SeparatorDot.
func Parse(path string) (*YAMLPath, error) {
	return ParseSeparator(path, SeparatorAuto)
}

// ParseSeparator parses a YAML Path expression with a forced separator. Use
// it only when automatic inference fails, such as a dot-separated path whose
// first key begins with '/'.
func ParseSeparator(path string, separator Separator) (*YAMLPath, error) {
	if separator == SeparatorAuto {
		separator = inferSeparator(path)
	}

	segments, err := parsePath(path, separator)
	if err != nil {
		return nil, err
	}

	return &YAMLPath{
		original:  path,
		separator: separator,
		segments:  segments,
	}, nil
}

// Original returns the unmodified expression this path was parsed from.
func (p *YAMLPath) Original() string {
	return p.original
}

// Separator returns the separator the path was written with.
func (p *YAMLPath) Separator() Separator {
	return p.separator
}

// Segments returns the parsed segments. The returned slice is a copy; the
// path itself never changes after parsing.
func (p *YAMLPath) Segments() []Segment {
	return slices.Clone(p.segments)
}

// Len returns the number of segments.
func (p *YAMLPath) Len() int {
	return len(p.segments)
}

// String renders the canonical, re-parsable form of the path. Parsing the
// result matches the same document locations as the original expression,
// though spacing and quoting are normalized.
func (p *YAMLPath) String() string {
	return stringifySegments(p.segments, p.separator)
}

// Equal reports whether both paths address the same document locations.
// Separators do not participate in equality.
func (p *YAMLPath) Equal(other *YAMLPath) bool {
	if p == nil || other == nil {
		return p == other
	}
	return stringifySegments(p.segments, SeparatorFSlash) ==
		stringifySegments(other.segments, SeparatorFSlash)
}

// AppendCopy returns a new path with one added, pre-escaped segment. The
// receiver is unchanged and the separator is preserved. Use
// EscapePathSection to pre-escape arbitrary key names.
func (p *YAMLPath) AppendCopy(segment string) (*YAMLPath, error) {
	return ParseSeparator(joinSegmentText(p.original, segment, p.separator), p.separator)
}

// Append is the mutating counterpart of AppendCopy. On error the receiver is
// left unchanged.
func (p *YAMLPath) Append(segment string) error {
	next, err := p.AppendCopy(segment)
	if err != nil {
		return err
	}
	*p = *next
	return nil
}

func joinSegmentText(original, segment string, separator Separator) string {
	if original == "" {
		if separator == SeparatorFSlash {
			return "/" + segment
		}
		return segment
	}
	return original + separator.String() + segment
}

func stringifySegments(segments []Segment, separator Separator) string {
	var b strings.Builder
	sep := separator.String()

	// A fslash path always leads with its separator.
	if separator == SeparatorFSlash {
		b.WriteString(sep)
	}

	needSep := false
	for _, segment := range segments {
		switch s := segment.(type) {
		case KeySegment, TraversalSegment, WildcardSegment:
			if needSep {
				b.WriteString(sep)
			}
			b.WriteString(segment.String())
		case CollectorSegment:
			// Combinator collectors attach to the preceding collector.
			if needSep && s.Op == CollectorNone {
				b.WriteString(sep)
			}
			b.WriteString(segment.String())
		case AnchorSegment:
			if needSep {
				b.WriteString(segment.String())
			} else {
				b.WriteString("&" + s.Name)
			}
		default:
			// Bracketed forms attach directly to the prior segment.
			b.WriteString(segment.String())
		}
		needSep = true
	}

	return b.String()
}
