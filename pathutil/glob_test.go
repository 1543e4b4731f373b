package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlob(t *testing.T) {
	tests := []struct {
		value, pattern string
		expected       bool
	}{
		{"File1.ext", "File?.ext", true},
		{"File1.ext", "*.ext", true},
		{"File1.ext", "*.txt", false},
		{"File1.ext", "file1.EXT", true},
		{"File1.ext", "File1", false},
		{"File1.ext", "ile1.ext", false},
		{"File1.ext", "*", true},
		{"", "*", true},
		{"", "?", false},
		{"a", "a?", false},
		{"a", "a??b", false},
		{"abc", "a*c", true},
		{"ac", "a*c", true},
		{"abcbc", "a*bc", true},
		{"abcbd", "a*bc", false},
		{"File1.ext", "F*1*.e?t", true},
		{"ÄÖÜ.txt", "äöü.*", true},
		{"a[b].txt", "a[b].txt", true},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.expected, Glob(tc.value, tc.pattern), "Glob(%q, %q)", tc.value, tc.pattern)
	}
}

func FuzzGlobStarMatchesEverything(f *testing.F) {
	f.Add("File1.ext")
	f.Add("")
	f.Fuzz(func(t *testing.T, value string) {
		assert.True(t, Glob(value, "*"))
	})
}
