package pathutil

import "strings"

// DefaultSeparator is the virtual path separator used by every built-in backend
const DefaultSeparator = "/"

// TokenStack holds the segments of a path, next segment on top.
// Popping repeatedly walks the path from left to right.
type TokenStack struct {
	tokens []string // reversed: tokens[len-1] is the leftmost remaining segment
}

// Tokenize splits p on sep into a stack of non-empty segments.
// An empty path yields an empty stack, which stands for "this node itself".
func Tokenize(p string, sep string) *TokenStack {
	if sep == "" {
		sep = DefaultSeparator
	}
	parts := strings.Split(p, sep)
	tokens := make([]string, 0, len(parts))
	for i := len(parts) - 1; i >= 0; i-- {
		if parts[i] != "" {
			tokens = append(tokens, parts[i])
		}
	}
	return &TokenStack{tokens: tokens}
}

// Len returns number of segments left
func (s *TokenStack) Len() int {
	return len(s.tokens)
}

// Empty tells whether all segments were consumed
func (s *TokenStack) Empty() bool {
	return len(s.tokens) == 0
}

// Pop removes and returns the leftmost remaining segment.
// It returns "" on an empty stack.
func (s *TokenStack) Pop() string {
	if len(s.tokens) == 0 {
		return ""
	}
	last := len(s.tokens) - 1
	token := s.tokens[last]
	s.tokens = s.tokens[:last]
	return token
}

// Peek returns the leftmost remaining segment without consuming it
func (s *TokenStack) Peek() string {
	if len(s.tokens) == 0 {
		return ""
	}
	return s.tokens[len(s.tokens)-1]
}

// Segments returns remaining segments in walk order
func (s *TokenStack) Segments() []string {
	segments := make([]string, len(s.tokens))
	for i := range s.tokens {
		segments[i] = s.tokens[len(s.tokens)-1-i]
	}
	return segments
}

// Join re-joins the remaining segments as a relative path
func (s *TokenStack) Join(sep string) string {
	return strings.Join(s.Segments(), sep)
}

// Normalize returns the absolute, separator-normalized form of p.
// Redundant and trailing separators are dropped; an empty path becomes sep.
func Normalize(p string, sep string) string {
	if sep == "" {
		sep = DefaultSeparator
	}
	return sep + Tokenize(p, sep).Join(sep)
}

// Combine appends rel to base with exactly one separator between them
func Combine(base, rel, sep string) string {
	if sep == "" {
		sep = DefaultSeparator
	}
	if rel == "" {
		return base
	}
	return strings.TrimSuffix(base, sep) + sep + strings.TrimPrefix(rel, sep)
}

// Split separates the parent path from the last segment of p.
// The parent is returned in normalized form.
func Split(p string, sep string) (parent string, name string) {
	if sep == "" {
		sep = DefaultSeparator
	}
	segments := Tokenize(p, sep).Segments()
	if len(segments) == 0 {
		return sep, ""
	}
	return sep + strings.Join(segments[:len(segments)-1], sep), segments[len(segments)-1]
}
