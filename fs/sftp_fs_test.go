package fs

import (
	"io"
	"runtime"
	"testing"

	"github.com/pkg/sftp"
	"github.com/stretchr/testify/assert"
)

type pipeConn struct {
	io.Reader
	io.WriteCloser
}

type closerFunc func() error

func (f closerFunc) Close() error {
	return f()
}

// inProcessSFTP serves the local filesystem over a pair of pipes
func inProcessSFTP(t *testing.T, dials *int) SFTPDialer {
	t.Helper()
	return func() (*sftp.Client, io.Closer, error) {
		*dials++
		toServer, fromClient := io.Pipe()
		toClient, fromServer := io.Pipe()
		server, err := sftp.NewServer(pipeConn{Reader: toServer, WriteCloser: fromServer})
		if err != nil {
			return nil, nil, err
		}
		go func() {
			_ = server.Serve()
		}()
		client, err := sftp.NewClientPipe(toClient, fromClient)
		if err != nil {
			_ = server.Close()
			return nil, nil, err
		}
		// hang up both server ends, like a dropped ssh connection
		transport := closerFunc(func() error {
			_ = toServer.Close()
			return fromServer.Close()
		})
		return client, transport, nil
	}
}

func TestSFTPFS(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("sftp server paths are posix")
	}
	dials := 0
	s := NewSFTPFS(inProcessSFTP(t, &dials), t.TempDir())
	assert.False(t, s.Connected())
	assert.Equal(t, 0, dials)

	exerciseBackend(t, s)
	assert.Equal(t, 1, dials)
	assert.False(t, s.Connected())
	assert.NoError(t, s.Close())

	_, err := s.List("/")
	assert.Error(t, err)
	assert.Equal(t, 1, dials)
}

func TestSFTPFSCloseBeforeUse(t *testing.T) {
	dials := 0
	s := NewSFTPFS(inProcessSFTP(t, &dials), "/")
	assert.NoError(t, s.Close())
	assert.Equal(t, 0, dials)
}
