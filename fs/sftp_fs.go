package fs

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/pkg/sftp"
)

// SFTPDialer opens an SFTP client. The returned io.Closer, if non-nil,
// tears down the transport underneath the client (SSH connection or process).
type SFTPDialer func() (*sftp.Client, io.Closer, error)

type sftpConn struct {
	client    *sftp.Client
	transport io.Closer
}

// SFTPFS implements Backend over an SFTP connection established on first use
type SFTPFS struct {
	root    string
	session *session[sftpConn]
}

// NewSFTPFS returns an SFTPFS rooted at root on the remote host. No connection is made until first use.
func NewSFTPFS(dial SFTPDialer, root string) *SFTPFS {
	connect := func() (sftpConn, error) {
		client, transport, err := dial()
		if err != nil {
			return sftpConn{}, fmt.Errorf("SFTP connection failed: %w", err)
		}
		return sftpConn{client: client, transport: transport}, nil
	}
	disconnect := func(c sftpConn) error {
		if c.transport == nil {
			return c.client.Close()
		}
		// The client waits for its receive loop, which only ends once the transport is gone
		err := c.transport.Close()
		_ = c.client.Close()
		return err
	}
	if root == "" {
		root = "/"
	}
	return &SFTPFS{root: root, session: newSession(connect, disconnect)}
}

// NewSFTPFSFromClient wraps an already connected sftp.Client
func NewSFTPFSFromClient(client *sftp.Client, root string) *SFTPFS {
	return NewSFTPFS(func() (*sftp.Client, io.Closer, error) {
		return client, nil, nil
	}, root)
}

func (s *SFTPFS) client() (*sftp.Client, error) {
	c, err := s.session.get()
	if err != nil {
		return nil, err
	}
	return c.client, nil
}

// Connected tells whether the SFTP session was established
func (s *SFTPFS) Connected() bool {
	return s.session.isConnected()
}

func (s *SFTPFS) RealPath(p string) string {
	return path.Join(s.root, clean(p))
}

func (s *SFTPFS) List(dirPath string) ([]Entry, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}
	infos, err := client.ReadDir(s.RealPath(dirPath))
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		if !info.IsDir() && !info.Mode().IsRegular() {
			continue
		}
		entries = append(entries, entryFromInfo(info))
	}
	return sortEntries(entries), nil
}

func (s *SFTPFS) OpenRead(filePath string) (io.ReadCloser, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}
	return client.Open(s.RealPath(filePath))
}

func (s *SFTPFS) OpenWrite(filePath string) (io.WriteCloser, error) {
	client, err := s.client()
	if err != nil {
		return nil, err
	}
	return client.OpenFile(s.RealPath(filePath), os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
}

func (s *SFTPFS) Mkdir(dirPath string) error {
	client, err := s.client()
	if err != nil {
		return err
	}
	// SFTP only has Mkdir, so we iterate path components
	return mkdirAll(client, s.RealPath(dirPath))
}

func mkdirAll(client *sftp.Client, p string) error {
	if info, err := client.Stat(p); err == nil && info.IsDir() {
		return nil
	}
	parent := path.Dir(p)
	if parent != p && parent != "/" && parent != "." {
		if err := mkdirAll(client, parent); err != nil {
			return err
		}
	}
	err := client.Mkdir(p)
	if err != nil {
		// May already exist due to race; check again
		if info, statErr := client.Stat(p); statErr == nil && info.IsDir() {
			return nil
		}
		return err
	}
	return nil
}

func (s *SFTPFS) RemoveFile(filePath string) error {
	client, err := s.client()
	if err != nil {
		return err
	}
	return client.Remove(s.RealPath(filePath))
}

func (s *SFTPFS) RemoveDir(dirPath string) error {
	client, err := s.client()
	if err != nil {
		return err
	}
	return client.RemoveDirectory(s.RealPath(dirPath))
}

func (s *SFTPFS) Rename(oldPath, newPath string) error {
	client, err := s.client()
	if err != nil {
		return err
	}
	// sftp.Client.Rename fails if dest exists on most servers, which is what we want
	return client.Rename(s.RealPath(oldPath), s.RealPath(newPath))
}

func (s *SFTPFS) Close() error {
	return s.session.close()
}
