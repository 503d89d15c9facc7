package remlint

import (
	"strings"
	"unicode"
)

// Unquote strips one pair of matching outer quotes, '"' or '\'', from s.
// Escapes are not decoded. Any other s is returned unchanged.
func Unquote(s string) string {
	if len(s) < 2 {
		return s
	}
	if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
		return s[1 : len(s)-1]
	}
	return s
}

// ParseList returns the items of a list value, in order.
//
// An array value is split on commas and each element is unquoted.
// Any other value is unquoted as a whole. Either way the result is then
// split on runs of whitespace and commas, so that
//
//	[a, "b c"]
//	"a b c"
//	a,b,c
//
// all yield a, b and c. Empty items are dropped.
func ParseList(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	if !strings.HasPrefix(value, "[") {
		return splitList(Unquote(value))
	}
	inner := strings.TrimSuffix(value[1:], "]")
	var items []string
	for part := range strings.SplitSeq(inner, ",") {
		part = Unquote(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		items = append(items, splitList(part)...)
	}
	return items
}

// splitList splits v on runs of whitespace and commas,
// ignoring one enclosing pair of brackets.
func splitList(v string) []string {
	v = strings.TrimPrefix(v, "[")
	v = strings.TrimSuffix(v, "]")
	return strings.FieldsFunc(v, func(r rune) bool {
		return unicode.IsSpace(r) || r == ','
	})
}

// IsTaskName reports whether name is a valid task name:
// one or more ASCII letters, digits, '_', '.' or '-'.
func IsTaskName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if c := name[i]; !isIdentContinue(c) && c != '.' && c != '-' {
			return false
		}
	}
	return true
}

// IsVarName reports whether name is a valid variable name:
// an ASCII letter or '_' followed by ASCII letters, digits or '_'.
func IsVarName(name string) bool {
	if name == "" || !isIdentStart(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		if !isIdentContinue(name[i]) {
			return false
		}
	}
	return true
}

// IsPlaceholder reports whether s contains a ${...} interpolation
// with a non-empty body.
func IsPlaceholder(s string) bool {
	i := strings.Index(s, "${")
	if i < 0 {
		return false
	}
	return strings.LastIndexByte(s, '}') >= i+3
}

func isIdentStart(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || b == '_'
}

func isIdentContinue(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}
