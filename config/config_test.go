package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
log:
  level: info
  format: console
mounts:
  - name: scratch
    type: memory
    separator: '\'
  - name: disk
    type: local
    options:
      root: ${VIRTUALPATH_TEST_ROOT}
`

func TestLoad(t *testing.T) {
	root := t.TempDir()
	t.Setenv("VIRTUALPATH_TEST_ROOT", root)
	t.Setenv("VIRTUALPATH_LOG_LEVEL", "debug")
	file := filepath.Join(t.TempDir(), "virtualpath.yaml")
	require.NoError(t, os.WriteFile(file, []byte(sample), 0644))

	cfg, err := Load(file)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	require.Len(t, cfg.Mounts, 2)
	assert.Equal(t, `\`, cfg.Mounts[0].Separator)
	assert.Equal(t, root, cfg.Mounts[1].Options["root"])
	require.NoError(t, cfg.Validate())

	providers, err := cfg.OpenAll()
	require.NoError(t, err)
	require.Len(t, providers, 2)
	assert.Equal(t, `\`, providers["scratch"].VirtualPathSeparator())
	assert.Equal(t, "disk", providers["disk"].Name())
	for _, p := range providers {
		require.NoError(t, p.Dispose())
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("mounts: [unclosed"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Mounts: []Mount{
		{Name: "a", Type: "memory"},
		{Name: "a", Type: "memory"},
		{Name: "", Type: "memory"},
		{Name: "b", Type: "carrier-pigeon"},
		{Name: "c:d", Type: "memory"},
	}}
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, `"a" is defined more than once`)
	assert.ErrorContains(t, err, "mount #3 has no name")
	assert.ErrorContains(t, err, `unknown type "carrier-pigeon"`)
	assert.ErrorContains(t, err, `"c:d"`)

	_, err = cfg.OpenAll()
	assert.Error(t, err)
}

func TestOpenAllDisposesOnFailure(t *testing.T) {
	cfg := &Config{Mounts: []Mount{
		{Name: "ok", Type: "memory"},
		{Name: "broken", Type: "local", Options: map[string]string{"root": filepath.Join(t.TempDir(), "absent")}},
	}}
	_, err := cfg.OpenAll()
	assert.ErrorContains(t, err, `mount "broken"`)
}

func TestParseMount(t *testing.T) {
	m, err := ParseMount("dev=sftp:me@example.com:2222:/srv,dialer=system,separator=\\")
	require.NoError(t, err)
	assert.Equal(t, Mount{
		Name:      "dev",
		Type:      "sftp",
		Separator: `\`,
		Options:   map[string]string{"target": "me@example.com:2222:/srv", "dialer": "system"},
	}, m)

	m, err = ParseMount("tmp=memory")
	require.NoError(t, err)
	assert.Equal(t, "memory", m.Type)
	assert.Empty(t, m.Options)

	for _, bad := range []string{"", "=local:/x", "noequals", "tmp=memory:arg", "x=local:/a,novalue"} {
		_, err := ParseMount(bad)
		assert.Error(t, err, bad)
	}
}
