package fs

import (
	"bytes"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/textproto"
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/jlaffaye/ftp"
)

// FTPConfig holds connection settings of an FTP or FTPS server
type FTPConfig struct {
	Address  string // host:port
	User     string
	Password string
	Root     string
	Timeout  time.Duration
	// TLS enables FTPS when non-nil: explicit (AUTH TLS) if ExplicitTLS is set, implicit otherwise
	TLS         *tls.Config
	ExplicitTLS bool
}

func (c FTPConfig) validate() error {
	if c.Address == "" {
		return errors.New("FTP address is required")
	}
	return nil
}

// ftpConn is the part of *ftp.ServerConn the backend drives
type ftpConn interface {
	List(path string) ([]*ftp.Entry, error)
	Retrieve(path string) (io.ReadCloser, error)
	Stor(path string, r io.Reader) error
	MakeDir(path string) error
	Delete(path string) error
	RemoveDir(path string) error
	Rename(from, to string) error
	Quit() error
}

type serverConn struct {
	*ftp.ServerConn
}

func (c serverConn) Retrieve(p string) (io.ReadCloser, error) {
	resp, err := c.Retr(p)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// FTPFS implements Backend over an FTP control connection established on first use.
// The connection carries one command at a time, so operations are serialized;
// a reader returned by OpenRead holds the connection until it is closed.
type FTPFS struct {
	root    string
	mx      sync.Mutex
	session *session[ftpConn]
}

// NewFTPFS returns an FTPFS. No connection is made until first use.
func NewFTPFS(cfg FTPConfig) (*FTPFS, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.User == "" {
		cfg.User = "anonymous"
		cfg.Password = "anonymous"
	}
	return newFTPFS(cfg.Root, func() (ftpConn, error) {
		opts := []ftp.DialOption{ftp.DialWithTimeout(cfg.Timeout)}
		if cfg.TLS != nil {
			if cfg.ExplicitTLS {
				opts = append(opts, ftp.DialWithExplicitTLS(cfg.TLS))
			} else {
				opts = append(opts, ftp.DialWithTLS(cfg.TLS))
			}
		}
		conn, err := ftp.Dial(cfg.Address, opts...)
		if err != nil {
			return nil, fmt.Errorf("FTP connection to %s failed: %w", cfg.Address, err)
		}
		if err := conn.Login(cfg.User, cfg.Password); err != nil {
			_ = conn.Quit()
			return nil, fmt.Errorf("FTP login as %s failed: %w", cfg.User, err)
		}
		return serverConn{conn}, nil
	}), nil
}

func newFTPFS(root string, connect func() (ftpConn, error)) *FTPFS {
	if root == "" {
		root = "/"
	}
	disconnect := func(conn ftpConn) error {
		return conn.Quit()
	}
	return &FTPFS{root: root, session: newSession(connect, disconnect)}
}

// lock takes the connection for one exchange
func (f *FTPFS) lock() (ftpConn, error) {
	f.mx.Lock()
	conn, err := f.session.get()
	if err != nil {
		f.mx.Unlock()
		return nil, err
	}
	return conn, nil
}

// Connected tells whether the control connection was established
func (f *FTPFS) Connected() bool {
	return f.session.isConnected()
}

func (f *FTPFS) RealPath(p string) string {
	return path.Join(f.root, clean(p))
}

func (f *FTPFS) List(dirPath string) ([]Entry, error) {
	conn, err := f.lock()
	if err != nil {
		return nil, err
	}
	defer f.mx.Unlock()
	realPath := f.RealPath(dirPath)
	ftpEntries, err := conn.List(realPath)
	if err != nil {
		return nil, translateFTP("list", realPath, err)
	}
	entries := make([]Entry, 0, len(ftpEntries))
	for _, e := range ftpEntries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		switch e.Type {
		case ftp.EntryTypeFolder:
			entries = append(entries, Entry{Name: e.Name, IsDir: true, ModTime: e.Time})
		case ftp.EntryTypeFile:
			entries = append(entries, Entry{Name: e.Name, ModTime: e.Time, Size: int64(e.Size)})
		}
	}
	return sortEntries(entries), nil
}

// unlockingReader releases the connection when the transfer is closed
type unlockingReader struct {
	io.ReadCloser
	once   sync.Once
	unlock func()
}

func (r *unlockingReader) Close() error {
	var err error
	r.once.Do(func() {
		err = r.ReadCloser.Close()
		r.unlock()
	})
	return err
}

// OpenRead starts a RETR. No other operation runs on the backend until the reader is closed.
func (f *FTPFS) OpenRead(filePath string) (io.ReadCloser, error) {
	conn, err := f.lock()
	if err != nil {
		return nil, err
	}
	realPath := f.RealPath(filePath)
	r, err := conn.Retrieve(realPath)
	if err != nil {
		f.mx.Unlock()
		return nil, translateFTP("retr", realPath, err)
	}
	return &unlockingReader{ReadCloser: r, unlock: f.mx.Unlock}, nil
}

// OpenWrite buffers the content and uploads it with a single STOR on Close
func (f *FTPFS) OpenWrite(filePath string) (io.WriteCloser, error) {
	if _, err := f.lock(); err != nil {
		return nil, err
	}
	f.mx.Unlock()
	realPath := f.RealPath(filePath)
	return newUploadWriter(func(data []byte) error {
		conn, err := f.lock()
		if err != nil {
			return err
		}
		defer f.mx.Unlock()
		return translateFTP("stor", realPath, conn.Stor(realPath, bytes.NewReader(data)))
	}), nil
}

// Mkdir creates dirPath and any missing parent, one MKD per level
func (f *FTPFS) Mkdir(dirPath string) error {
	conn, err := f.lock()
	if err != nil {
		return err
	}
	defer f.mx.Unlock()
	current := "/"
	for _, segment := range strings.Split(strings.TrimPrefix(clean(dirPath), "/"), "/") {
		if segment == "" {
			continue
		}
		current = path.Join(current, segment)
		realPath := f.RealPath(current)
		if err := conn.MakeDir(realPath); err != nil {
			// Already there?
			if _, listErr := conn.List(realPath); listErr == nil {
				continue
			}
			return translateFTP("mkdir", realPath, err)
		}
	}
	return nil
}

func (f *FTPFS) RemoveFile(filePath string) error {
	conn, err := f.lock()
	if err != nil {
		return err
	}
	defer f.mx.Unlock()
	realPath := f.RealPath(filePath)
	return translateFTP("delete", realPath, conn.Delete(realPath))
}

func (f *FTPFS) RemoveDir(dirPath string) error {
	conn, err := f.lock()
	if err != nil {
		return err
	}
	defer f.mx.Unlock()
	realPath := f.RealPath(dirPath)
	return translateFTP("rmdir", realPath, conn.RemoveDir(realPath))
}

func (f *FTPFS) Rename(oldPath, newPath string) error {
	conn, err := f.lock()
	if err != nil {
		return err
	}
	defer f.mx.Unlock()
	from, to := f.RealPath(oldPath), f.RealPath(newPath)
	return translateFTP("rename", from, conn.Rename(from, to))
}

// Close waits for an open transfer to finish before sending QUIT
func (f *FTPFS) Close() error {
	f.mx.Lock()
	defer f.mx.Unlock()
	return f.session.close()
}

// translateFTP maps the "file unavailable" reply to io/fs.ErrNotExist
func translateFTP(op, p string, err error) error {
	if err == nil {
		return nil
	}
	var protoErr *textproto.Error
	if errors.As(err, &protoErr) && protoErr.Code == ftp.StatusFileUnavailable {
		return pathError(op, p, os.ErrNotExist)
	}
	return pathError(op, p, err)
}
