package fs

import (
	"io"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
)

// BillyFS implements Backend over any go-billy filesystem
type BillyFS struct {
	bfs billy.Filesystem
}

// NewBillyFS wraps an existing billy.Filesystem
func NewBillyFS(bfs billy.Filesystem) *BillyFS {
	return &BillyFS{bfs: bfs}
}

// NewMemoryFS creates an empty in-memory tree
func NewMemoryFS() *BillyFS {
	return NewBillyFS(memfs.New())
}

// Unwrap returns the underlying billy.Filesystem
func (b *BillyFS) Unwrap() billy.Filesystem {
	return b.bfs
}

func (b *BillyFS) RealPath(p string) string {
	return b.bfs.Join(b.bfs.Root(), clean(p))
}

func (b *BillyFS) List(dirPath string) ([]Entry, error) {
	dirPath = clean(dirPath)
	if dirPath != "/" {
		info, err := b.bfs.Stat(dirPath)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, pathError("list", dirPath, os.ErrNotExist)
		}
	}
	infos, err := b.bfs.ReadDir(dirPath)
	if err != nil {
		if dirPath == "/" && IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	entries := make([]Entry, 0, len(infos))
	for _, info := range infos {
		entries = append(entries, entryFromInfo(info))
	}
	return sortEntries(entries), nil
}

func (b *BillyFS) OpenRead(filePath string) (io.ReadCloser, error) {
	return b.bfs.Open(clean(filePath))
}

func (b *BillyFS) OpenWrite(filePath string) (io.WriteCloser, error) {
	return b.bfs.OpenFile(clean(filePath), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
}

func (b *BillyFS) Mkdir(dirPath string) error {
	return b.bfs.MkdirAll(clean(dirPath), 0755)
}

func (b *BillyFS) RemoveFile(filePath string) error {
	return b.bfs.Remove(clean(filePath))
}

func (b *BillyFS) RemoveDir(dirPath string) error {
	return b.bfs.Remove(clean(dirPath))
}

func (b *BillyFS) Rename(oldPath, newPath string) error {
	return b.bfs.Rename(clean(oldPath), clean(newPath))
}

func (b *BillyFS) Close() error {
	return nil
}
