package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTarget_ScpLike(t *testing.T) {
	tests := []struct {
		input string
		user  string
		host  string
		port  int
		path  string
	}{
		{"user@host:/path", "user", "host", 0, "/path"},
		{"host:/path", "", "host", 0, "/path"},
		{"user@myserver.com:2222:/data/backup", "user", "myserver.com", 2222, "/data/backup"},
		{"root@10.0.0.1:/mnt/disk", "root", "10.0.0.1", 0, "/mnt/disk"},
		{"user@host:22:/path/to/dir", "user", "host", 22, "/path/to/dir"},
		{"host:relative/dir", "", "host", 0, "relative/dir"},
	}
	for _, tt := range tests {
		target, err := ParseTarget(tt.input)
		assert.NoError(t, err, "input: %s", tt.input)
		assert.Equal(t, tt.user, target.User, "input: %s", tt.input)
		assert.Equal(t, tt.host, target.Host, "input: %s", tt.input)
		assert.Equal(t, tt.port, target.Port, "input: %s", tt.input)
		assert.Equal(t, tt.path, target.Path, "input: %s", tt.input)
	}
}

func TestParseTarget_URL(t *testing.T) {
	target, err := ParseTarget("sftp://alice@files.example.com:2022/srv/share")
	assert.NoError(t, err)
	assert.Equal(t, Target{User: "alice", Host: "files.example.com", Port: 2022, Path: "/srv/share"}, target)
	assert.Equal(t, "files.example.com:2022", target.Addr())
	assert.Equal(t, "alice@files.example.com", target.Spec())
	assert.Equal(t, "sftp://alice@files.example.com:2022/srv/share", target.String())

	bare, err := ParseTarget("sftp://host")
	assert.NoError(t, err)
	assert.Equal(t, "/", bare.Path)
	assert.Equal(t, "host:22", bare.Addr())
}

func TestParseTarget_Errors(t *testing.T) {
	tests := []string{
		"",
		"/local/path",
		"justadirectory",
		":path",
		"@:/p",
		"host:",
		"sftp:///path",
		"sftp://host:99999/x",
	}
	for _, input := range tests {
		_, err := ParseTarget(input)
		assert.Error(t, err, "input: %s", input)
	}
}

func TestSubsystemArgs(t *testing.T) {
	target := Target{User: "bob", Host: "nas", Port: 2200, Path: "/"}
	assert.Equal(t,
		[]string{"-l", "bob", "-p", "2200", "-i", "/keys/id", "-s", "nas", "sftp"},
		SubsystemArgs(target, "/keys/id", "sftp"))
	assert.Equal(t, []string{"-s", "nas", "sftp"}, SubsystemArgs(Target{Host: "nas"}, "", "sftp"))
}
