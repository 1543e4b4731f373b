package vfs

import (
	"bytes"
	"io"
	"iter"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/m-manu/virtualpath/fs"
	"github.com/m-manu/virtualpath/logging"
	"github.com/m-manu/virtualpath/metrics"
	"github.com/m-manu/virtualpath/pathutil"
)

// Options configures a Provider
type Options struct {
	// Name labels the provider in logs and metrics, e.g. "memory" or "sftp"
	Name string
	// Separator is the virtual path separator, "/" by default
	Separator string
	// RealSeparator is the separator of the backend's native paths, "/" by default
	RealSeparator string
}

// Provider anchors a tree of directories and files on one backend.
// Path operations are delegated to its root directory.
type Provider struct {
	backend  fs.Backend
	name     string
	sep      string
	realSep  string
	root     *Directory
	mx       sync.Mutex
	disposed bool
}

// NewProvider creates a provider over backend
func NewProvider(backend fs.Backend, opts Options) *Provider {
	if opts.Separator == "" {
		opts.Separator = pathutil.DefaultSeparator
	}
	if opts.RealSeparator == "" {
		opts.RealSeparator = "/"
	}
	if opts.Name == "" {
		opts.Name = "backend"
	}
	p := &Provider{
		backend: backend,
		name:    opts.Name,
		sep:     opts.Separator,
		realSep: opts.RealSeparator,
	}
	p.root = &Directory{provider: p}
	return p
}

// RootDirectory is the single root of this provider
func (p *Provider) RootDirectory() *Directory {
	return p.root
}

// Backend returns the backing adapter
func (p *Provider) Backend() fs.Backend {
	return p.backend
}

// Name returns the label given in Options
func (p *Provider) Name() string {
	return p.name
}

func (p *Provider) VirtualPathSeparator() string {
	return p.sep
}

func (p *Provider) RealPathSeparator() string {
	return p.realSep
}

// CombineVirtualPath joins a base and a relative virtual path
func (p *Provider) CombineVirtualPath(basePath, relativePath string) string {
	return pathutil.Combine(basePath, relativePath, p.sep)
}

// Connected tells whether a networked backend has established its connection.
// Backends without a connection always report true.
func (p *Provider) Connected() bool {
	if c, ok := p.backend.(interface{ Connected() bool }); ok {
		return c.Connected()
	}
	return true
}

func (p *Provider) GetFile(virtualPath string) (*File, error) {
	return p.root.GetFile(virtualPath)
}

func (p *Provider) GetDirectory(virtualPath string) (*Directory, error) {
	return p.root.GetDirectory(virtualPath)
}

func (p *Provider) FileExists(virtualPath string) (bool, error) {
	return p.root.FileExists(virtualPath)
}

func (p *Provider) DirectoryExists(virtualPath string) (bool, error) {
	return p.root.DirectoryExists(virtualPath)
}

func (p *Provider) CreateDirectory(virtualPath string) (*Directory, error) {
	return p.root.CreateDirectory(virtualPath)
}

func (p *Provider) CreateFile(virtualPath string, contents []byte) (*File, error) {
	return p.root.CreateFile(virtualPath, contents)
}

func (p *Provider) CreateFileText(virtualPath string, contents string) (*File, error) {
	return p.root.CreateFileText(virtualPath, contents)
}

func (p *Provider) CreateFileFrom(virtualPath string, r io.Reader) (*File, error) {
	return p.root.CreateFileFrom(virtualPath, r)
}

// OpenCreate returns a stream whose content becomes a new file at virtualPath once closed.
// It returns nil and no error when the parent directory does not exist.
func (p *Provider) OpenCreate(virtualPath string) (io.WriteCloser, error) {
	parentPath, name := pathutil.Split(virtualPath, p.sep)
	if name == "" {
		return nil, newError(OpCreate, virtualPath, ErrInvalidOperation)
	}
	parent, err := p.root.GetDirectory(parentPath)
	if err != nil || parent == nil {
		return nil, err
	}
	if err := parent.checkFreeName(name); err != nil {
		return nil, err
	}
	return &createStream{parent: parent, name: name}, nil
}

func (p *Provider) Delete(virtualPath string) error {
	return p.root.Delete(virtualPath)
}

// GetFileHash returns the MD5 of the file at virtualPath, "" if there is no such file
func (p *Provider) GetFileHash(virtualPath string) (string, error) {
	f, err := p.root.GetFile(virtualPath)
	if err != nil || f == nil {
		return "", err
	}
	return f.GetFileHash()
}

func (p *Provider) GetAllMatchingFiles(globPattern string, maxDepth int) iter.Seq2[*File, error] {
	return p.root.GetAllMatchingFiles(globPattern, maxDepth)
}

// Dispose releases the backend exactly once; later calls are no-ops.
// It is safe to call before the backend was ever used.
func (p *Provider) Dispose() error {
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.disposed {
		return nil
	}
	p.disposed = true
	logging.Debug("disposing provider", zap.String("provider", p.name))
	return wrapBackend(OpClose, "", p.backend.Close())
}

func (p *Provider) isDisposed() bool {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.disposed
}

// call runs one backend primitive, recording its outcome
func (p *Provider) call(op, path string, fn func() error) error {
	if p.isDisposed() {
		return newError(op, path, ErrDisposed)
	}
	start := time.Now()
	err := fn()
	metrics.RecordBackendOperation(p.name, op, time.Since(start), err == nil)
	return err
}

func (p *Provider) list(dirPath string) ([]fs.Entry, error) {
	var entries []fs.Entry
	err := p.call(OpList, dirPath, func() (err error) {
		entries, err = p.backend.List(dirPath)
		return err
	})
	return entries, err
}

func (p *Provider) openRead(filePath string) (io.ReadCloser, error) {
	var r io.ReadCloser
	err := p.call(OpRead, filePath, func() (err error) {
		r, err = p.backend.OpenRead(filePath)
		return err
	})
	return r, wrapBackend(OpRead, filePath, err)
}

// write commits the whole content of filePath in one backend write
func (p *Provider) write(filePath string, r io.Reader) (int64, error) {
	var n int64
	err := p.call(OpWrite, filePath, func() error {
		w, err := p.backend.OpenWrite(filePath)
		if err != nil {
			return err
		}
		n, err = io.Copy(w, r)
		if err != nil {
			_ = w.Close()
			return err
		}
		return w.Close()
	})
	if err == nil {
		logging.Debug("wrote file", zap.String("provider", p.name), zap.String("path", filePath), zap.Int64("size", n))
	}
	return n, wrapBackend(OpWrite, filePath, err)
}

func (p *Provider) mkdir(dirPath string) error {
	err := p.call(OpMkdir, dirPath, func() error {
		return p.backend.Mkdir(dirPath)
	})
	if err == nil {
		logging.Debug("created directory", zap.String("provider", p.name), zap.String("path", dirPath))
	}
	return wrapBackend(OpMkdir, dirPath, err)
}

func (p *Provider) removeFile(filePath string) error {
	err := p.call(OpDelete, filePath, func() error {
		return p.backend.RemoveFile(filePath)
	})
	if err == nil {
		logging.Debug("deleted file", zap.String("provider", p.name), zap.String("path", filePath))
	}
	return wrapBackend(OpDelete, filePath, err)
}

func (p *Provider) removeDir(dirPath string) error {
	err := p.call(OpDelete, dirPath, func() error {
		return p.backend.RemoveDir(dirPath)
	})
	if err == nil {
		logging.Debug("deleted directory", zap.String("provider", p.name), zap.String("path", dirPath))
	}
	return wrapBackend(OpDelete, dirPath, err)
}

func (p *Provider) rename(renamer fs.Renamer, oldPath, newPath string) error {
	err := p.call(OpRename, oldPath, func() error {
		return renamer.Rename(oldPath, newPath)
	})
	if err == nil {
		logging.Debug("renamed file", zap.String("provider", p.name),
			zap.String("from", oldPath), zap.String("to", newPath))
	}
	return wrapBackend(OpRename, oldPath, err)
}

func (p *Provider) copy(copier fs.Copier, srcPath, dstPath string) error {
	err := p.call(OpCopy, srcPath, func() error {
		return copier.Copy(srcPath, dstPath)
	})
	return wrapBackend(OpCopy, srcPath, err)
}

// createStream buffers content for OpenCreate and creates the file on Close
type createStream struct {
	parent *Directory
	name   string
	buf    bytes.Buffer
	closed bool
}

func (s *createStream) Write(b []byte) (int, error) {
	if s.closed {
		return 0, newError(OpWrite, s.name, ErrInvalidOperation)
	}
	return s.buf.Write(b)
}

func (s *createStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	_, err := s.parent.addFile(s.name, &s.buf)
	return err
}
