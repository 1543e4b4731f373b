package fs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCopySource(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"plain/key.txt", "bucket/plain/key.txt"},
		{"photos/my pic+1%.jpg", "bucket/photos/my%20pic%2B1%25.jpg"},
		{"prefix/café/ü.txt", "bucket/prefix/caf%C3%A9/%C3%BC.txt"},
		{"q?a#b", "bucket/q%3Fa%23b"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, copySource("bucket", tt.key), tt.key)
	}
}
