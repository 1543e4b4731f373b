package vfs

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"path"
	"time"

	"go.uber.org/zap"

	"github.com/m-manu/virtualpath/fs"
	"github.com/m-manu/virtualpath/logging"
	"github.com/m-manu/virtualpath/metrics"
	"github.com/m-manu/virtualpath/pathutil"
)

// WriteMode decides how OpenWrite seeds its stream
type WriteMode int

const (
	// Overwrite starts with the existing content and the cursor at the beginning
	Overwrite WriteMode = iota
	// Truncate starts with an empty stream
	Truncate
	// Append starts with the existing content and the cursor at the end
	Append
)

func (m WriteMode) String() string {
	switch m {
	case Overwrite:
		return "overwrite"
	case Truncate:
		return "truncate"
	case Append:
		return "append"
	}
	return "unknown"
}

// File is a leaf node
type File struct {
	dir     *Directory
	name    string
	modTime time.Time
	size    int64
}

func (f *File) Name() string {
	return f.name
}

// Extension returns the name's suffix starting at the final dot, "" if there is none
func (f *File) Extension() string {
	return path.Ext(f.name)
}

func (f *File) VirtualPath() string {
	return pathutil.Combine(f.dir.VirtualPath(), f.name, f.dir.provider.sep)
}

func (f *File) RealPath() string {
	return f.dir.provider.backend.RealPath(f.backendPath())
}

func (f *File) LastModified() time.Time {
	return f.modTime
}

// Size as last reported by the backend or written through this wrapper
func (f *File) Size() int64 {
	return f.size
}

func (f *File) IsDirectory() bool {
	return false
}

func (f *File) Provider() *Provider {
	return f.dir.provider
}

func (f *File) Directory() *Directory {
	return f.dir
}

func (f *File) String() string {
	return f.RealPath() + " -> " + f.VirtualPath()
}

func (f *File) backendPath() string {
	return f.dir.childBackendPath(f.name)
}

// OpenRead streams the file's content. The caller closes the reader.
func (f *File) OpenRead() (io.ReadCloser, error) {
	return f.dir.provider.openRead(f.backendPath())
}

func (f *File) ReadAll() ([]byte, error) {
	r, err := f.OpenRead()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, wrapBackend(OpRead, f.backendPath(), err)
	}
	return data, nil
}

func (f *File) ReadAllText() (string, error) {
	data, err := f.ReadAll()
	return string(data), err
}

// OpenWrite returns a stream over the file content. Nothing reaches the backend
// until Close, which commits the whole buffer in one write.
func (f *File) OpenWrite(mode WriteMode) (*WriteStream, error) {
	s := &WriteStream{file: f}
	if mode == Truncate {
		return s, nil
	}
	existing, err := f.ReadAll()
	if err != nil {
		return nil, err
	}
	s.buf = existing
	if mode == Append {
		s.pos = len(existing)
	}
	return s, nil
}

// WriteAll replaces the file content
func (f *File) WriteAll(data []byte) error {
	s, err := f.OpenWrite(Truncate)
	if err != nil {
		return err
	}
	if _, err := s.Write(data); err != nil {
		_ = s.Close()
		return err
	}
	return s.Close()
}

// GetFileHash returns the lowercase hex MD5 of the content
func (f *File) GetFileHash() (string, error) {
	r, err := f.OpenRead()
	if err != nil {
		return "", err
	}
	defer r.Close()
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", wrapBackend(OpRead, f.backendPath(), err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Remove deletes the file from its backend and its parent's listing
func (f *File) Remove() error {
	return f.dir.deleteFile(f)
}

// sameBackend tells whether dst lives on the backing adapter of f
func (f *File) sameBackend(dst *Directory) bool {
	return f.dir.provider == dst.provider || f.dir.provider.backend == dst.provider.backend
}

// CopyTo copies f into dst under name, or under f's own name when name is empty.
// A native copy is used when both live on a backend that has one; otherwise the whole
// content is read and written again.
func (f *File) CopyTo(dst *Directory, name string) (*File, error) {
	if name == "" {
		name = f.name
	}
	if copier, ok := f.dir.provider.backend.(fs.Copier); ok && f.sameBackend(dst) {
		if err := dst.checkFreeName(name); err != nil {
			return nil, err
		}
		if err := dst.provider.copy(copier, f.backendPath(), dst.childBackendPath(name)); err != nil {
			return nil, err
		}
		metrics.RecordTransfer(f.size, true)
		copied := &File{dir: dst, name: name, modTime: time.Now(), size: f.size}
		dst.files = append(dst.files, copied)
		return copied, nil
	}
	data, err := f.ReadAll()
	if err != nil {
		return nil, err
	}
	copied, err := dst.addFile(name, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	metrics.RecordTransfer(int64(len(data)), false)
	return copied, nil
}

// MoveTo moves f into dst under name, or under f's own name when name is empty.
// Within one backend that can rename this is a single rename. Across backends it is a copy
// followed by a delete of the source; a failed delete leaves both files and returns a *MoveError.
func (f *File) MoveTo(dst *Directory, name string) (*File, error) {
	if name == "" {
		name = f.name
	}
	if renamer, ok := f.dir.provider.backend.(fs.Renamer); ok && f.sameBackend(dst) {
		if dst == f.dir && name == f.name {
			return f, nil
		}
		if err := dst.checkFreeName(name); err != nil {
			return nil, err
		}
		if err := f.dir.provider.rename(renamer, f.backendPath(), dst.childBackendPath(name)); err != nil {
			return nil, err
		}
		f.dir.evictFile(f)
		moved := &File{dir: dst, name: name, modTime: f.modTime, size: f.size}
		dst.files = append(dst.files, moved)
		metrics.RecordTransfer(f.size, true)
		return moved, nil
	}
	source := f.VirtualPath()
	destination := pathutil.Combine(dst.VirtualPath(), name, dst.provider.sep)
	moved, err := f.CopyTo(dst, name)
	if err != nil {
		return nil, &MoveError{Source: source, Destination: destination, Stage: "copy", Err: err}
	}
	if err := f.Remove(); err != nil {
		logging.Warn("moved file copied but source not deleted",
			zap.String("source", source), zap.String("destination", destination), zap.Error(err))
		return moved, &MoveError{Source: source, Destination: destination, Stage: "delete", Copied: true, Err: err}
	}
	return moved, nil
}

// CopyToPath copies f into the directory at dirPath on f's own provider.
// It returns nil and no error when that directory does not exist.
func (f *File) CopyToPath(dirPath, name string) (*File, error) {
	dst, err := f.dir.provider.GetDirectory(dirPath)
	if err != nil || dst == nil {
		return nil, err
	}
	return f.CopyTo(dst, name)
}

// MoveToPath is MoveTo with the destination resolved on f's own provider
func (f *File) MoveToPath(dirPath, name string) (*File, error) {
	dst, err := f.dir.provider.GetDirectory(dirPath)
	if err != nil || dst == nil {
		return nil, err
	}
	return f.MoveTo(dst, name)
}

// WriteStream is the buffer returned by OpenWrite
type WriteStream struct {
	file   *File
	buf    []byte
	pos    int
	closed bool
}

var errNegativePosition = errors.New("negative position")

func (s *WriteStream) Write(b []byte) (int, error) {
	if s.closed {
		return 0, newError(OpWrite, s.file.VirtualPath(), ErrInvalidOperation)
	}
	end := s.pos + len(b)
	if end > len(s.buf) {
		s.buf = append(s.buf, make([]byte, end-len(s.buf))...)
	}
	copy(s.buf[s.pos:end], b)
	s.pos = end
	return len(b), nil
}

func (s *WriteStream) Read(b []byte) (int, error) {
	if s.pos >= len(s.buf) {
		return 0, io.EOF
	}
	n := copy(b, s.buf[s.pos:])
	s.pos += n
	return n, nil
}

func (s *WriteStream) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(s.pos) + offset
	case io.SeekEnd:
		abs = int64(len(s.buf)) + offset
	default:
		return 0, newError(OpWrite, s.file.VirtualPath(), ErrInvalidOperation)
	}
	if abs < 0 {
		return 0, newError(OpWrite, s.file.VirtualPath(), errNegativePosition)
	}
	s.pos = int(abs)
	return abs, nil
}

// Len is the current buffer length
func (s *WriteStream) Len() int {
	return len(s.buf)
}

// Bytes returns the buffered content
func (s *WriteStream) Bytes() []byte {
	return s.buf
}

// Close commits the buffer to the backend. Only the first call writes.
func (s *WriteStream) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	n, err := s.file.dir.provider.write(s.file.backendPath(), bytes.NewReader(s.buf))
	if err != nil {
		return err
	}
	s.file.size = n
	s.file.modTime = time.Now()
	return nil
}
