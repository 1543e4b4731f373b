package fs

import (
	"errors"
	"io"
	iofs "io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

// ErrUnsupported is returned by backends that cannot perform a mutating operation
var ErrUnsupported = errors.New("operation not supported")

// Backend is the set of primitives a storage backend must expose so that
// directories and files can be built on top of it.
// Paths passed to a Backend are absolute, "/" separated and normalized; "/" is the root.
type Backend interface {
	// List returns the immediate children of dirPath.
	// A missing directory yields an error matching io/fs.ErrNotExist.
	List(dirPath string) ([]Entry, error)

	// OpenRead opens filePath for reading.
	OpenRead(filePath string) (io.ReadCloser, error)

	// OpenWrite creates or replaces filePath. Content is final once the writer is closed.
	OpenWrite(filePath string) (io.WriteCloser, error)

	// Mkdir creates dirPath. It is not an error if it already exists.
	Mkdir(dirPath string) error

	// RemoveFile deletes a file.
	RemoveFile(filePath string) error

	// RemoveDir deletes a directory that no longer has children.
	RemoveDir(dirPath string) error

	// RealPath maps a backend path to the backend's native location string.
	RealPath(p string) string

	// Close releases the backend's resources (e.g. network connections).
	// It must be safe to call more than once, and before any other call.
	Close() error
}

// Renamer is implemented by backends that can move a file natively
type Renamer interface {
	Rename(oldPath, newPath string) error
}

// Copier is implemented by backends that can copy a file natively
type Copier interface {
	Copy(srcPath, dstPath string) error
}

// Entry is a child of a listed directory
type Entry struct {
	Name    string
	IsDir   bool
	ModTime time.Time
	Size    int64
}

// IsNotExist tells whether err means the path is absent on the backend
func IsNotExist(err error) bool {
	return errors.Is(err, iofs.ErrNotExist)
}

func pathError(op, p string, err error) error {
	if err == nil {
		return nil
	}
	return &iofs.PathError{Op: op, Path: p, Err: err}
}

func unsupported(op, p string) error {
	return pathError(op, p, ErrUnsupported)
}

// clean normalizes a backend path: absolute, "/" separated, no trailing separator
func clean(p string) string {
	return path.Clean("/" + strings.TrimPrefix(p, "/"))
}

func sortEntries(entries []Entry) []Entry {
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

func entryFromInfo(info iofs.FileInfo) Entry {
	e := Entry{
		Name:    info.Name(),
		IsDir:   info.IsDir(),
		ModTime: info.ModTime(),
	}
	if !e.IsDir {
		e.Size = info.Size()
	}
	return e
}
