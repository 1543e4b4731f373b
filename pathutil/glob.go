package pathutil

import "unicode"

// Glob reports whether the whole of value matches pattern, ignoring case.
// '?' matches exactly one character and '*' matches any run, including an empty one.
func Glob(value, pattern string) bool {
	return globRunes([]rune(value), []rune(pattern))
}

func globRunes(value, pattern []rune) bool {
	for pos := 0; pos < len(pattern); pos++ {
		switch pattern[pos] {
		case '?':
			if pos >= len(value) {
				return false
			}
		case '*':
			// Try the longest tail first, backtracking down to an empty run
			for i := len(value); i >= pos; i-- {
				if globRunes(value[i:], pattern[pos+1:]) {
					return true
				}
			}
			return false
		default:
			if pos >= len(value) || !equalFold(pattern[pos], value[pos]) {
				return false
			}
		}
	}
	return len(value) == len(pattern)
}

func equalFold(a, b rune) bool {
	return a == b || unicode.ToUpper(a) == unicode.ToUpper(b) || unicode.ToLower(a) == unicode.ToLower(b)
}
