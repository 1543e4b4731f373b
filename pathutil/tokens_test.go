package pathutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := map[string][]string{
		"":                      {},
		"/":                     {},
		"//":                    {},
		"/Folder1":              {"Folder1"},
		"Folder1/SubFolder1":    {"Folder1", "SubFolder1"},
		"/Folder1//SubFolder1/": {"Folder1", "SubFolder1"},
		"a/b/c/d.txt":           {"a", "b", "c", "d.txt"},
	}
	for input, expected := range tests {
		assert.Equal(t, expected, Tokenize(input, "/").Segments(), "input %q", input)
	}
}

func TestTokenStackPopsInWalkOrder(t *testing.T) {
	stack := Tokenize("/a/b/c", "/")
	assert.Equal(t, 3, stack.Len())
	assert.Equal(t, "a", stack.Peek())
	assert.Equal(t, "a", stack.Pop())
	assert.Equal(t, "b/c", stack.Join("/"))
	assert.Equal(t, "b", stack.Pop())
	assert.Equal(t, "c", stack.Pop())
	assert.True(t, stack.Empty())
	assert.Equal(t, "", stack.Pop())
	assert.Equal(t, "", stack.Peek())
}

func TestTokenizeCustomSeparator(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, Tokenize(`\a\\b\`, `\`).Segments())
	assert.Equal(t, []string{"a", "b"}, Tokenize("a::b", "::").Segments())
	assert.Equal(t, []string{"a", "b"}, Tokenize("/a/b", "").Segments())
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "/", Normalize("", "/"))
	assert.Equal(t, "/", Normalize("///", "/"))
	assert.Equal(t, "/Folder1/SubFolder1", Normalize("Folder1//SubFolder1/", "/"))
	assert.Equal(t, `\a\b`, Normalize(`a\b\`, `\`))
}

func TestCombine(t *testing.T) {
	assert.Equal(t, "/a/b", Combine("/a", "b", "/"))
	assert.Equal(t, "/a/b", Combine("/a/", "/b", "/"))
	assert.Equal(t, "/b", Combine("/", "b", "/"))
	assert.Equal(t, "/a", Combine("/a", "", "/"))
}

func TestSplit(t *testing.T) {
	parent, name := Split("/a/b/c.txt", "/")
	assert.Equal(t, "/a/b", parent)
	assert.Equal(t, "c.txt", name)

	parent, name = Split("c.txt", "/")
	assert.Equal(t, "/", parent)
	assert.Equal(t, "c.txt", name)

	parent, name = Split("/", "/")
	assert.Equal(t, "/", parent)
	assert.Equal(t, "", name)
}
