package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m-manu/virtualpath/fs"
	"github.com/m-manu/virtualpath/vfs"
)

func TestBuiltinKinds(t *testing.T) {
	for _, kind := range []string{"ftp", "local", "memory", "minio", "readonly", "s3", "sftp", "zip"} {
		assert.True(t, Known(kind), kind)
	}
	assert.False(t, Known("dropbox"))
	assert.IsIncreasing(t, Kinds())
}

func TestNewMemory(t *testing.T) {
	p, err := New("memory", map[string]string{OptionName: "scratch", OptionSeparator: `\`})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Dispose() })
	assert.Equal(t, "scratch", p.Name())
	assert.Equal(t, `\`, p.VirtualPathSeparator())

	unnamed, err := New("memory", nil)
	require.NoError(t, err)
	assert.Equal(t, "memory", unnamed.Name())
	assert.Equal(t, "/", unnamed.VirtualPathSeparator())
}

func TestNewLocalAndReadOnly(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hi"), 0644))

	local, err := New("local", map[string]string{"root": root})
	require.NoError(t, err)
	f, err := local.GetFile("/hello.txt")
	require.NoError(t, err)
	require.NotNil(t, f)
	assert.Equal(t, filepath.Join(root, "hello.txt"), f.RealPath())

	ro, err := New("readonly", map[string]string{"root": root})
	require.NoError(t, err)
	text, err := ro.RootDirectory().GetFile("hello.txt")
	require.NoError(t, err)
	require.NotNil(t, text)
	_, err = ro.CreateFileText("/new.txt", "x")
	assert.ErrorIs(t, err, vfs.ErrUnsupportedOperation)

	_, err = New("readonly", map[string]string{"root": filepath.Join(root, "absent")})
	assert.Error(t, err)
}

func TestNewZip(t *testing.T) {
	archive := filepath.Join(t.TempDir(), "bundle.zip")
	p, err := New("zip", map[string]string{"file": archive})
	require.NoError(t, err)
	_, err = p.CreateFileText("/inside.txt", "zipped")
	require.NoError(t, err)
	require.NoError(t, p.Dispose())

	data, err := fs.ZipFile(archive).Load()
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestNetworkedKindsAreLazy(t *testing.T) {
	for kind, options := range map[string]map[string]string{
		"sftp":  {"target": "nobody@127.0.0.1:1:/data", "timeout": "1s"},
		"ftp":   {"addr": "127.0.0.1:1", "tls": "explicit"},
		"s3":    {"bucket": "b", "endpoint": "http://127.0.0.1:1", "path_style": "true"},
		"minio": {"bucket": "b", "endpoint": "127.0.0.1:1"},
	} {
		p, err := New(kind, options)
		require.NoError(t, err, kind)
		assert.False(t, p.Connected(), kind)
		require.NoError(t, p.Dispose(), kind)
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	cases := map[string]struct {
		kind    string
		options map[string]string
	}{
		"unknown kind":        {"gopher", nil},
		"local without root":  {"local", nil},
		"zip without file":    {"zip", map[string]string{}},
		"sftp without target": {"sftp", nil},
		"sftp bad target":     {"sftp", map[string]string{"target": "nohost"}},
		"sftp bad dialer":     {"sftp", map[string]string{"target": "h:/x", "dialer": "carrier-pigeon"}},
		"sftp bad bool":       {"sftp", map[string]string{"target": "h:/x", "insecure": "maybe"}},
		"ftp without addr":    {"ftp", nil},
		"ftp bad tls":         {"ftp", map[string]string{"addr": "h:21", "tls": "sometimes"}},
		"ftp bad timeout":     {"ftp", map[string]string{"addr": "h:21", "timeout": "soon"}},
		"s3 without bucket":   {"s3", nil},
		"minio without host":  {"minio", map[string]string{"bucket": "b"}},
	}
	for name, c := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(c.kind, c.options)
			assert.Error(t, err)
		})
	}
}

func TestRegister(t *testing.T) {
	Register("test-readonly-memory", func(opts Options) (fs.Backend, error) {
		return fs.NewMemoryFS(), nil
	})
	assert.True(t, Known("test-readonly-memory"))
	assert.Panics(t, func() {
		Register("test-readonly-memory", newMemory)
	})
	assert.Panics(t, func() {
		Register("test-nil", nil)
	})
}

func TestOptions(t *testing.T) {
	opts := Options{"a": " x ", "blank": "  ", "yes": "true"}
	v, err := opts.Required("a")
	require.NoError(t, err)
	assert.Equal(t, "x", v)
	_, err = opts.Required("blank")
	assert.ErrorContains(t, err, `"blank"`)
	assert.Equal(t, "fallback", opts.String("missing", "fallback"))
	b, err := opts.Bool("yes", false)
	require.NoError(t, err)
	assert.True(t, b)
}
