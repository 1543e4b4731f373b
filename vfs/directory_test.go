package vfs

import (
	"testing"
	"testing/fstest"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m-manu/virtualpath/fs"
	"github.com/m-manu/virtualpath/metrics"
)

// countingBackend counts List calls on an in-memory tree
type countingBackend struct {
	*fs.BillyFS
	lists int
}

func (c *countingBackend) List(dirPath string) ([]fs.Entry, error) {
	c.lists++
	return c.BillyFS.List(dirPath)
}

func newMemoryProvider(t *testing.T) *Provider {
	t.Helper()
	p := NewProvider(fs.NewMemoryFS(), Options{Name: "memory"})
	t.Cleanup(func() { _ = p.Dispose() })
	return p
}

func TestResolveMissingReturnsNil(t *testing.T) {
	p := newMemoryProvider(t)
	f, err := p.GetFile("/no/such/file.txt")
	require.NoError(t, err)
	assert.Nil(t, f)
	d, err := p.GetDirectory("/no/such")
	require.NoError(t, err)
	assert.Nil(t, d)
	exists, err := p.FileExists("/x")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGetDirectoryEmptyPathIsSelf(t *testing.T) {
	p := newMemoryProvider(t)
	d, err := p.GetDirectory("")
	require.NoError(t, err)
	assert.Same(t, p.RootDirectory(), d)
	assert.True(t, d.IsRoot())
	assert.Equal(t, "/", d.VirtualPath())
}

func TestCreateDirectoryCreatesIntermediates(t *testing.T) {
	p := newMemoryProvider(t)
	d, err := p.CreateDirectory("/a/b/c")
	require.NoError(t, err)
	assert.Equal(t, "/a/b/c", d.VirtualPath())
	assert.Equal(t, "c", d.Name())

	for _, dirPath := range []string{"/a", "/a/b", "/a/b/c", "a/b/c/", "//a//b"} {
		exists, err := p.DirectoryExists(dirPath)
		require.NoError(t, err)
		assert.True(t, exists, dirPath)
	}

	again, err := p.CreateDirectory("/a/b/c")
	require.NoError(t, err)
	assert.Same(t, d, again)
}

func TestResolutionIsObservedThroughFreshProvider(t *testing.T) {
	backend := fs.NewMemoryFS()
	p := NewProvider(backend, Options{})
	_, err := p.CreateDirectory("/a/b")
	require.NoError(t, err)
	_, err = p.CreateFileText("/a/b/f.txt", "hi")
	require.NoError(t, err)

	fresh := NewProvider(backend, Options{})
	f, err := fresh.GetFile("/a/b/f.txt")
	require.NoError(t, err)
	require.NotNil(t, f)
	text, err := f.ReadAllText()
	require.NoError(t, err)
	assert.Equal(t, "hi", text)
	assert.EqualValues(t, 2, f.Size())
}

func TestCreateDirectoryOverFileIsDuplicate(t *testing.T) {
	p := newMemoryProvider(t)
	_, err := p.CreateFileText("/x", "")
	require.NoError(t, err)
	_, err = p.CreateDirectory("/x")
	assert.ErrorIs(t, err, ErrDuplicateNode)
}

func TestCreateFile(t *testing.T) {
	p := newMemoryProvider(t)

	f, err := p.CreateFile("/missing/parent.txt", []byte("x"))
	require.NoError(t, err)
	assert.Nil(t, f)

	_, err = p.CreateDirectory("/docs")
	require.NoError(t, err)
	f, err = p.CreateFile("/docs/readme.md", []byte("hello"))
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "/docs/readme.md", f.VirtualPath())
	assert.Equal(t, ".md", f.Extension())
	assert.False(t, f.IsDirectory())

	_, err = p.CreateFile("/docs/readme.md", []byte("again"))
	assert.ErrorIs(t, err, ErrDuplicateNode)
	_, err = p.CreateFile("/docs", nil)
	assert.ErrorIs(t, err, ErrDuplicateNode)
	_, err = p.CreateFile("", nil)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestDeleteRemovesDescendants(t *testing.T) {
	p := newMemoryProvider(t)
	_, err := p.CreateDirectory("/a/b/c")
	require.NoError(t, err)
	_, err = p.CreateDirectory("/a/d")
	require.NoError(t, err)
	for _, filePath := range []string{"/a/1.txt", "/a/b/2.txt", "/a/b/c/3.txt", "/a/d/4.txt"} {
		_, err = p.CreateFileText(filePath, filePath)
		require.NoError(t, err)
	}

	require.NoError(t, p.Delete("/a"))
	for _, gone := range []string{"/a", "/a/b", "/a/b/c", "/a/d"} {
		d, err := p.GetDirectory(gone)
		require.NoError(t, err)
		assert.Nil(t, d, gone)
	}
	f, err := p.GetFile("/a/b/c/3.txt")
	require.NoError(t, err)
	assert.Nil(t, f)

	// the backend itself no longer has them either
	fresh := NewProvider(p.Backend(), Options{})
	nodes, err := fresh.RootDirectory().Nodes()
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestDeleteMissingIsNoop(t *testing.T) {
	p := newMemoryProvider(t)
	assert.NoError(t, p.Delete("/nothing"))
	assert.NoError(t, p.Delete("/nothing/deeper/still"))
}

func TestRemoveRootIsInvalid(t *testing.T) {
	p := newMemoryProvider(t)
	assert.ErrorIs(t, p.RootDirectory().Remove(), ErrInvalidOperation)
}

func TestDeleteEmptyPathKeepsEverything(t *testing.T) {
	p := newMemoryProvider(t)
	d, err := p.CreateDirectory("/a/b")
	require.NoError(t, err)
	_, err = p.CreateFileText("/a/b/keep.txt", "k")
	require.NoError(t, err)

	for _, empty := range []string{"", "/", "//"} {
		require.NoError(t, d.Delete(empty), empty)
		require.NoError(t, p.Delete(empty), empty)
	}
	exists, err := p.FileExists("/a/b/keep.txt")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, d.Remove())
	exists, err = p.DirectoryExists("/a/b")
	require.NoError(t, err)
	assert.False(t, exists)
	exists, err = p.DirectoryExists("/a")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestListingIsCached(t *testing.T) {
	backend := &countingBackend{BillyFS: fs.NewMemoryFS()}
	p := NewProvider(backend, Options{})
	_, err := p.CreateDirectory("/a")
	require.NoError(t, err)
	listsAfterCreate := backend.lists

	hits := testutil.ToFloat64(metrics.CacheLookups("hit"))
	for i := 0; i < 3; i++ {
		_, err := p.GetDirectory("/a")
		require.NoError(t, err)
	}
	assert.Equal(t, listsAfterCreate, backend.lists)
	assert.Greater(t, testutil.ToFloat64(metrics.CacheLookups("hit")), hits)

	p.RootDirectory().Refresh()
	_, err = p.GetDirectory("/a")
	require.NoError(t, err)
	assert.Equal(t, listsAfterCreate+1, backend.lists)
}

func TestCustomSeparator(t *testing.T) {
	p := NewProvider(fs.NewMemoryFS(), Options{Separator: `\`})
	_, err := p.CreateDirectory(`\a\b`)
	require.NoError(t, err)
	f, err := p.CreateFileText(`\a\b\c.txt`, "c")
	require.NoError(t, err)
	assert.Equal(t, `\a\b\c.txt`, f.VirtualPath())
	assert.Equal(t, "/a/b/c.txt", f.backendPath())
	assert.Equal(t, `\a`, p.CombineVirtualPath(`\`, "a"))
}

func TestInvalidChildNames(t *testing.T) {
	p := newMemoryProvider(t)
	for _, name := range []string{".", ".."} {
		_, err := p.CreateDirectory(name)
		assert.ErrorIs(t, err, ErrInvalidOperation, name)
	}
	backslash := NewProvider(fs.NewMemoryFS(), Options{Separator: `\`})
	_, err := backslash.CreateFileText(`a/b`, "")
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestGetAllMatchingFiles(t *testing.T) {
	p := newMemoryProvider(t)
	_, err := p.CreateDirectory("/x/y")
	require.NoError(t, err)
	for _, filePath := range []string{"/a.txt", "/b.log", "/x/c.txt", "/x/y/d.TXT"} {
		_, err = p.CreateFileText(filePath, "")
		require.NoError(t, err)
	}

	paths := func(depth int) []string {
		files, err := p.RootDirectory().MatchingFiles("*.txt", depth)
		require.NoError(t, err)
		var out []string
		for _, f := range files {
			out = append(out, f.VirtualPath())
		}
		return out
	}

	assert.Empty(t, paths(0))
	assert.Equal(t, []string{"/a.txt"}, paths(1))
	assert.Equal(t, []string{"/a.txt", "/x/c.txt"}, paths(2))
	assert.Equal(t, []string{"/a.txt", "/x/c.txt", "/x/y/d.TXT"}, paths(UnlimitedDepth))
	assert.Equal(t, paths(UnlimitedDepth), paths(-1))
}

func TestGetAllMatchingFilesStopsEarly(t *testing.T) {
	p := newMemoryProvider(t)
	for _, name := range []string{"/1", "/2", "/3"} {
		_, err := p.CreateFileText(name, "")
		require.NoError(t, err)
	}
	seen := 0
	for f, err := range p.GetAllMatchingFiles("*", UnlimitedDepth) {
		require.NoError(t, err)
		require.NotNil(t, f)
		seen++
		break
	}
	assert.Equal(t, 1, seen)
}

func TestReadOnlyBackend(t *testing.T) {
	p := NewProvider(fs.NewReadOnlyFS(fstest.MapFS{
		"docs/guide.md": {Data: []byte("# guide")},
	}, "embed:"), Options{Name: "readonly"})

	f, err := p.GetFile("/docs/guide.md")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, "embed:/docs/guide.md", f.RealPath())

	_, err = p.CreateDirectory("/other")
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
	assert.NotErrorIs(t, err, ErrBackendFailure)

	err = f.Remove()
	assert.ErrorIs(t, err, ErrUnsupportedOperation)
	still, err := p.FileExists("/docs/guide.md")
	require.NoError(t, err)
	assert.True(t, still)
}

func TestDispose(t *testing.T) {
	p := NewProvider(fs.NewMemoryFS(), Options{})
	require.NoError(t, p.Dispose())
	require.NoError(t, p.Dispose())
	_, err := p.GetDirectory("/a")
	assert.ErrorIs(t, err, ErrDisposed)
	assert.ErrorIs(t, err, ErrInvalidOperation)
}

func TestSameNode(t *testing.T) {
	p := newMemoryProvider(t)
	d, err := p.CreateDirectory("/a")
	require.NoError(t, err)
	f, err := p.CreateFileText("/b", "")
	require.NoError(t, err)
	again, err := p.GetDirectory("a")
	require.NoError(t, err)
	assert.True(t, SameNode(d, again))
	assert.False(t, SameNode(d, f))
	assert.True(t, SameNode(nil, nil))

	other := newMemoryProvider(t)
	assert.False(t, SameNode(p.RootDirectory(), other.RootDirectory()))
}
