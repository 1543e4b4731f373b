// Package assertions holds test helpers that check the state of a provider rather than of a single value.
package assertions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m-manu/virtualpath/vfs"
)

// AssertFileContent asserts that the file at virtualPath exists and holds expected
func AssertFileContent(t testing.TB, p *vfs.Provider, virtualPath string, expected string) bool {
	t.Helper()
	f, err := p.GetFile(virtualPath)
	require.NoError(t, err)
	if !assert.NotNil(t, f, "file %s:%s should exist", p.Name(), virtualPath) {
		return false
	}
	actual, err := f.ReadAllText()
	require.NoError(t, err)
	return assert.Equal(t, expected, actual, "content of %s:%s", p.Name(), virtualPath)
}

// AssertAbsent asserts that neither a file nor a directory exists at virtualPath
func AssertAbsent(t testing.TB, p *vfs.Provider, virtualPath string) bool {
	t.Helper()
	isFile, err := p.FileExists(virtualPath)
	require.NoError(t, err)
	isDir, err := p.DirectoryExists(virtualPath)
	require.NoError(t, err)
	return assert.False(t, isFile || isDir, "%s:%s should not exist", p.Name(), virtualPath)
}

// AssertPaths asserts the virtual paths of every file on p, in any order
func AssertPaths(t testing.TB, p *vfs.Provider, expected ...string) bool {
	t.Helper()
	files, err := p.RootDirectory().MatchingFiles("*", vfs.UnlimitedDepth)
	require.NoError(t, err)
	actual := make([]string, 0, len(files))
	for _, f := range files {
		actual = append(actual, f.VirtualPath())
	}
	return assert.ElementsMatch(t, expected, actual)
}
