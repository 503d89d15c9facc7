package remlint

// scanUnquoted calls fn with the index and value of each byte of s
// that lies outside a quoted string. A double-quoted string runs to the
// next unescaped '"', and a backslash inside it escapes the byte that
// follows. A single-quoted string runs to the next '\'' with no escapes.
// The quote bytes themselves are never passed to fn.
// Scanning stops when fn returns false.
//
// Unterminated strings simply run to the end of s.
func scanUnquoted(s string, fn func(i int, c byte) bool) {
	var inSingle, inDouble, escaped bool
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inDouble:
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inDouble = false
			}
		case inSingle:
			if c == '\'' {
				inSingle = false
			}
		case c == '"':
			inDouble = true
		case c == '\'':
			inSingle = true
		default:
			if !fn(i, c) {
				return
			}
		}
	}
}

// StripComment returns line up to, but not including, the first '#'
// outside a quoted string. If there is no such '#', line is returned
// unchanged.
//
// For example:
//
//	key = "a # b" # real comment
//
// becomes
//
//	key = "a # b"
//
// with the space before the comment kept.
func StripComment(line string) string {
	end := len(line)
	scanUnquoted(line, func(i int, c byte) bool {
		if c == '#' {
			end = i
			return false
		}
		return true
	})
	return line[:end]
}

// BracketDelta returns the change in array nesting depth across line:
// +1 for each '[' and -1 for each ']' outside a quoted string.
// The quoting rules are those of [StripComment].
func BracketDelta(line string) int {
	delta := 0
	scanUnquoted(line, func(_ int, c byte) bool {
		switch c {
		case '[':
			delta++
		case ']':
			delta--
		}
		return true
	})
	return delta
}
