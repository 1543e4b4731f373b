package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	set "github.com/deckarep/golang-set/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m-manu/virtualpath/assertions"
	"github.com/m-manu/virtualpath/fmte"
	"github.com/m-manu/virtualpath/registry"
	"github.com/m-manu/virtualpath/vfs"
)

type harness struct {
	app    *app
	out    *bytes.Buffer
	status *bytes.Buffer
}

func newHarness(t *testing.T, mountNames ...string) *harness {
	t.Helper()
	var status bytes.Buffer
	t.Cleanup(fmte.SetOutput(&status, io.Discard))
	mounts := map[string]*vfs.Provider{}
	for _, name := range mountNames {
		p, err := registry.New("memory", map[string]string{registry.OptionName: name})
		require.NoError(t, err)
		t.Cleanup(func() { _ = p.Dispose() })
		mounts[name] = p
	}
	out := &bytes.Buffer{}
	return &harness{
		app: &app{
			mounts:      mounts,
			out:         out,
			in:          strings.NewReader(""),
			exclusions:  set.NewSet[string](".DS_Store"),
			depth:       vfs.UnlimitedDepth,
			parallelism: 2,
			minSize:     1,
		},
		out:    out,
		status: &status,
	}
}

func (h *harness) run(t *testing.T, args ...string) string {
	t.Helper()
	h.out.Reset()
	require.NoError(t, h.app.run(args[0], args[1:]))
	return h.out.String()
}

func (h *harness) put(t *testing.T, address, content string) {
	t.Helper()
	h.app.in = strings.NewReader(content)
	h.run(t, "put", address)
}

func TestUsageErrors(t *testing.T) {
	h := newHarness(t, "tmp")
	for _, args := range [][]string{
		{"frobnicate"},
		{"cat"},
		{"cp", "tmp:/a"},
		{"ls", "no-colon"},
	} {
		err := h.app.run(args[0], args[1:])
		assert.ErrorIs(t, err, errUsage, "%v", args)
	}
	err := h.app.run("ls", []string{"ghost:/"})
	assert.ErrorContains(t, err, `no mount named "ghost"`)
	assert.NotErrorIs(t, err, errUsage)
}

func TestPutCatLsHash(t *testing.T) {
	h := newHarness(t, "tmp")
	h.run(t, "mkdir", "tmp:/docs")
	h.put(t, "tmp:/docs/hello.txt", "hello")
	assert.Equal(t, "hello", h.run(t, "cat", "tmp:/docs/hello.txt"))

	h.put(t, "tmp:/docs/hello.txt", "replaced")
	assert.Equal(t, "replaced", h.run(t, "cat", "tmp:/docs/hello.txt"))

	listing := h.run(t, "ls", "tmp:/")
	assert.Equal(t, "docs/\n", listing)
	listing = h.run(t, "ls", "tmp:/docs")
	assert.True(t, strings.HasPrefix(listing, "hello.txt\t{size: 8, modified: "), listing)

	h.put(t, "tmp:/h", "hello")
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592  tmp:/h\n", h.run(t, "hash", "tmp:/h"))

	err := h.app.run("put", []string{"tmp:/missing/x"})
	assert.ErrorContains(t, err, "parent directory")
	err = h.app.run("cat", []string{"tmp:/nope"})
	assert.ErrorContains(t, err, "does not exist")
}

func TestCopyMoveRemoveAcrossMounts(t *testing.T) {
	h := newHarness(t, "a", "b")
	h.put(t, "a:/report.pdf", "pdf")

	h.run(t, "cp", "a:/report.pdf", "b:/archive/")
	assertions.AssertFileContent(t, h.app.mounts["b"], "/archive/report.pdf", "pdf")

	h.run(t, "mv", "a:/report.pdf", "b:/archive/renamed.pdf")
	assertions.AssertAbsent(t, h.app.mounts["a"], "/report.pdf")
	assertions.AssertFileContent(t, h.app.mounts["b"], "/archive/renamed.pdf", "pdf")

	h.run(t, "mv", "b:/archive/renamed.pdf", "b:/")
	assertions.AssertPaths(t, h.app.mounts["b"], "/archive/report.pdf", "/renamed.pdf")

	h.run(t, "rm", "b:/archive")
	assertions.AssertAbsent(t, h.app.mounts["b"], "/archive")
	assert.Contains(t, h.status.String(), `delete "b:/archive": done`)
}

func TestRemoveRefusesMountRoot(t *testing.T) {
	h := newHarness(t, "a")
	h.put(t, "a:/keep.txt", "k")
	for _, root := range []string{"a:/", "a:"} {
		err := h.app.run("rm", []string{root})
		assert.ErrorIs(t, err, errUsage, root)
	}
	assertions.AssertPaths(t, h.app.mounts["a"], "/keep.txt")
}

func TestDryRunChangesNothing(t *testing.T) {
	h := newHarness(t, "a")
	h.put(t, "a:/keep.txt", "k")
	h.app.dryRun = true
	h.run(t, "rm", "a:/keep.txt")
	h.run(t, "mkdir", "a:/new")
	h.app.in = strings.NewReader("ignored")
	h.run(t, "put", "a:/other.txt")
	assertions.AssertPaths(t, h.app.mounts["a"], "/keep.txt")
	assertions.AssertAbsent(t, h.app.mounts["a"], "/new")
	assert.Contains(t, h.status.String(), "skipping (dry run)")
}

func TestTreeFindDigestDupes(t *testing.T) {
	h := newHarness(t, "a", "b")
	h.run(t, "mkdir", "a:/x/y")
	h.put(t, "a:/x/one.log", "1")
	h.put(t, "a:/x/y/two.log", "1")
	h.put(t, "a:/x/.DS_Store", "junk")
	h.put(t, "b:/three.log", "3")

	assert.Equal(t, "/\n  x/\n    y/\n      two.log (1 B)\n    one.log (1 B)\n", h.run(t, "tree", "a:/"))
	h.app.depth = 2
	assert.Equal(t, "/\n  x/\n    y/\n    one.log (1 B)\n", h.run(t, "tree", "a:/"))

	h.app.depth = vfs.UnlimitedDepth
	assert.Equal(t, "a:/x/one.log\na:/x/y/two.log\nb:/three.log\n", h.run(t, "find", "*.log"))
	assert.Equal(t, "b:/three.log\n", h.run(t, "find", "*.log", "b"))

	manifest := h.run(t, "digest", "a:/x")
	assert.Equal(t, "path,size,md5\n"+
		"one.log,1,c4ca4238a0b923820dcc509a6f75849b\n"+
		"y/two.log,1,c4ca4238a0b923820dcc509a6f75849b\n", manifest)

	assert.Equal(t, "x/one.log\tx/y/two.log\n", h.run(t, "dupes", "a:/"))
}

func TestSync(t *testing.T) {
	h := newHarness(t, "src", "dst")
	h.run(t, "mkdir", "src:/photos")
	h.put(t, "src:/photos/cat.jpg", "meow")
	h.put(t, "src:/notes.txt", "notes")
	h.put(t, "dst:/cat.jpg", "meow")

	h.app.dryRun = true
	h.run(t, "sync", "src:/", "dst:/")
	assertions.AssertPaths(t, h.app.mounts["dst"], "/cat.jpg")

	h.app.dryRun = false
	h.run(t, "sync", "src:/", "dst:/")
	assertions.AssertPaths(t, h.app.mounts["dst"], "/photos/cat.jpg", "/notes.txt")
	assert.Contains(t, h.status.String(), `rename/move file from "dst:/cat.jpg" to "dst:/photos/cat.jpg": done`)

	h.status.Reset()
	h.run(t, "sync", "src:/", "dst:/")
	assert.Contains(t, h.status.String(), "no action needed")
}

func TestMountsAndMetrics(t *testing.T) {
	h := newHarness(t, "one", "two")
	listing := h.run(t, "mounts")
	assert.Equal(t, 2, strings.Count(listing, "\n"))
	assert.True(t, strings.HasPrefix(listing, "one\t"))

	h.put(t, "one:/f", "x")
	assert.Contains(t, h.run(t, "metrics"), "virtualpath_backend_operations_total")
}
