package yamlpath

import (
	"strconv"
	"strings"
)

// matches reports whether value satisfies the term, before inversion.
// Equality and the relational methods compare numerically when both sides
// parse as numbers, and lexicographically otherwise.
func (t *SearchTerm) matches(value string) (bool, error) {
	switch t.Method {
	case MethodEquals:
		if lhs, rhs, ok := bothNumbers(value, t.Term); ok {
			return lhs == rhs, nil
		}
		return t.fold(value) == t.fold(t.Term), nil

	case MethodStartsWith:
		return strings.HasPrefix(t.fold(value), t.fold(t.Term)), nil

	case MethodEndsWith:
		return strings.HasSuffix(t.fold(value), t.fold(t.Term)), nil

	case MethodContains:
		return strings.Contains(t.fold(value), t.fold(t.Term)), nil

	case MethodGreaterThan:
		if lhs, rhs, ok := bothNumbers(value, t.Term); ok {
			return lhs > rhs, nil
		}
		return t.fold(value) > t.fold(t.Term), nil

	case MethodLessThan:
		if lhs, rhs, ok := bothNumbers(value, t.Term); ok {
			return lhs < rhs, nil
		}
		return t.fold(value) < t.fold(t.Term), nil

	case MethodGreaterOrEqual:
		if lhs, rhs, ok := bothNumbers(value, t.Term); ok {
			return lhs >= rhs, nil
		}
		return t.fold(value) >= t.fold(t.Term), nil

	case MethodLessOrEqual:
		if lhs, rhs, ok := bothNumbers(value, t.Term); ok {
			return lhs <= rhs, nil
		}
		return t.fold(value) <= t.fold(t.Term), nil

	case MethodRegex:
		if t.re == nil {
			if err := t.compile(); err != nil {
				return false, err
			}
		}
		ok, err := t.re.MatchString(value)
		if err != nil {
			return false, err
		}
		return ok, nil

	default:
		return false, nil
	}
}

// Matches reports whether value satisfies the term, honoring inversion.
func (t *SearchTerm) Matches(value string) (bool, error) {
	ok, err := t.matches(value)
	if err != nil {
		return false, err
	}
	return ok != t.Inverted, nil
}

func (t *SearchTerm) fold(s string) string {
	if t.CaseSensitive {
		return s
	}
	return strings.ToLower(s)
}

func bothNumbers(a, b string) (float64, float64, bool) {
	lhs, err := strconv.ParseFloat(a, 64)
	if err != nil {
		return 0, 0, false
	}
	rhs, err := strconv.ParseFloat(b, 64)
	if err != nil {
		return 0, 0, false
	}
	return lhs, rhs, true
}
