package yamlpath

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueFormat selects how a written scalar is typed and presented.
type ValueFormat uint8

const (
	// FormatDefault infers the tag from the value text and keeps the
	// target node's existing presentation style.
	FormatDefault ValueFormat = iota
	FormatBare
	FormatDQuote
	FormatSQuote
	FormatFolded
	FormatLiteral
	FormatBoolean
	FormatInt
	FormatFloat
)

func (f ValueFormat) String() string {
	switch f {
	case FormatDefault:
		return "default"
	case FormatBare:
		return "bare"
	case FormatDQuote:
		return "dquote"
	case FormatSQuote:
		return "squote"
	case FormatFolded:
		return "folded"
	case FormatLiteral:
		return "literal"
	case FormatBoolean:
		return "boolean"
	case FormatInt:
		return "int"
	case FormatFloat:
		return "float"
	default:
		return "unknown"
	}
}

// ParseValueFormat converts a format name into a ValueFormat.
func ParseValueFormat(name string) (ValueFormat, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return FormatDefault, nil
	case "bare":
		return FormatBare, nil
	case "dquote":
		return FormatDQuote, nil
	case "squote":
		return FormatSQuote, nil
	case "folded":
		return FormatFolded, nil
	case "literal":
		return FormatLiteral, nil
	case "boolean":
		return FormatBoolean, nil
	case "int":
		return FormatInt, nil
	case "float":
		return FormatFloat, nil
	default:
		return FormatDefault, fmt.Errorf("%w: unknown format %q", ErrValueFormat, name)
	}
}

// coerceValue validates and canonicalizes value for the typed formats. It is
// called before any mutation so a bad value never dirties the document.
func coerceValue(value string, format ValueFormat) (string, error) {
	switch format {
	case FormatBoolean:
		b, err := parseBool(value)
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(b), nil

	case FormatInt:
		n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return "", fmt.Errorf("%w: %q is not an integer", ErrValueFormat, value)
		}
		return strconv.FormatInt(n, 10), nil

	case FormatFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return "", fmt.Errorf("%w: %q is not a float", ErrValueFormat, value)
		}
		return strconv.FormatFloat(f, 'g', -1, 64), nil

	default:
		return value, nil
	}
}

func parseBool(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "y", "yes", "t", "true", "on", "1":
		return true, nil
	case "n", "no", "f", "false", "off", "0":
		return false, nil
	default:
		return false, fmt.Errorf("%w: %q is not a boolean", ErrValueFormat, value)
	}
}

// formatStyle maps a ValueFormat onto the scalar presentation it demands.
// StyleAny means the format has no opinion and the target keeps its style.
func (f ValueFormat) style() ScalarStyle {
	switch f {
	case FormatBare:
		return StylePlain
	case FormatDQuote:
		return StyleDoubleQuoted
	case FormatSQuote:
		return StyleSingleQuoted
	case FormatFolded:
		return StyleFolded
	case FormatLiteral:
		return StyleLiteral
	case FormatBoolean, FormatInt, FormatFloat:
		return StylePlain
	default:
		return StyleAny
	}
}

// tag returns the YAML tag a format forces, or "" when the tag should be
// inferred from the value text.
func (f ValueFormat) tag() string {
	switch f {
	case FormatBare, FormatDQuote, FormatSQuote, FormatFolded, FormatLiteral:
		return "!!str"
	case FormatBoolean:
		return "!!bool"
	case FormatInt:
		return "!!int"
	case FormatFloat:
		return "!!float"
	default:
		return ""
	}
}
