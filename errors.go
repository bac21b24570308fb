package yamlpath

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax indicates a YAML Path expression could not be parsed.
	ErrSyntax = errors.New("yamlpath: syntax error")

	// ErrMutationConflict indicates a write tried to create nodes through a
	// non-deterministic segment (wildcard, search, traversal, collector).
	ErrMutationConflict = errors.New("yamlpath: cannot create nodes through non-deterministic segments")

	// ErrValueFormat indicates a value could not be coerced to the requested
	// scalar format (for example a non-numeric string with FormatInt).
	ErrValueFormat = errors.New("yamlpath: value does not fit requested format")

	// ErrNotExist indicates a required YAML Path matched no nodes.
	ErrNotExist = errors.New("yamlpath: no nodes matched required path")

	// ErrNoDocument indicates the processor has no document to operate on.
	ErrNoDocument = errors.New("yamlpath: no document loaded")

	// ErrAnchorNotFound indicates an alias-directed write named an anchor
	// that does not exist in the document.
	ErrAnchorNotFound = errors.New("yamlpath: anchor not found")
)

// SyntaxError reports a malformed YAML Path along with the rune offset at
// which parsing failed. It unwraps to ErrSyntax.
type SyntaxError struct {
	Path   string // the original path expression
	Offset int    // rune offset of the offending character
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid yaml path %q at position %d: %s", e.Path, e.Offset, e.Reason)
}

func (e *SyntaxError) Unwrap() error {
	return ErrSyntax
}

// MutationConflictError reports a write operation that would have required
// creating nodes through a segment whose matches are not deterministic.
// The document is left unchanged. It unwraps to ErrMutationConflict.
type MutationConflictError struct {
	Path    string  // the original path expression
	Segment Segment // the segment that blocked creation
}

func (e *MutationConflictError) Error() string {
	if e.Segment == nil {
		return fmt.Sprintf("cannot create nodes for path %q", e.Path)
	}
	return fmt.Sprintf("cannot create nodes through segment %q of path %q", e.Segment, e.Path)
}

func (e *MutationConflictError) Unwrap() error {
	return ErrMutationConflict
}

func syntaxErrorf(path string, offset int, format string, args ...any) *SyntaxError {
	return &SyntaxError{
		Path:   path,
		Offset: offset,
		Reason: fmt.Sprintf(format, args...),
	}
}
