package fs

import (
	"io"
	iofs "io/fs"
	"strings"
)

// ReadOnlyFS implements Backend on an io/fs.FS such as an embed.FS.
// Every mutating primitive fails with ErrUnsupported.
type ReadOnlyFS struct {
	fsys  iofs.FS
	label string
}

// NewReadOnlyFS wraps fsys; label prefixes real paths (e.g. "embed:")
func NewReadOnlyFS(fsys iofs.FS, label string) *ReadOnlyFS {
	return &ReadOnlyFS{fsys: fsys, label: label}
}

// fsName converts a backend path to an io/fs name ("." is the root)
func fsName(p string) string {
	name := strings.TrimPrefix(clean(p), "/")
	if name == "" {
		return "."
	}
	return name
}

func (r *ReadOnlyFS) RealPath(p string) string {
	return r.label + clean(p)
}

func (r *ReadOnlyFS) List(dirPath string) ([]Entry, error) {
	dirEntries, err := iofs.ReadDir(r.fsys, fsName(dirPath))
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, d := range dirEntries {
		info, err := d.Info()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entryFromInfo(info))
	}
	return sortEntries(entries), nil
}

func (r *ReadOnlyFS) OpenRead(filePath string) (io.ReadCloser, error) {
	return r.fsys.Open(fsName(filePath))
}

func (r *ReadOnlyFS) OpenWrite(filePath string) (io.WriteCloser, error) {
	return nil, unsupported("write", filePath)
}

func (r *ReadOnlyFS) Mkdir(dirPath string) error {
	return unsupported("mkdir", dirPath)
}

func (r *ReadOnlyFS) RemoveFile(filePath string) error {
	return unsupported("remove", filePath)
}

func (r *ReadOnlyFS) RemoveDir(dirPath string) error {
	return unsupported("rmdir", dirPath)
}

func (r *ReadOnlyFS) Close() error {
	return nil
}
