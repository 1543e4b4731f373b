package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalFS implements Backend on a directory of the local disk
type LocalFS struct {
	root string
}

// NewLocalFS returns a LocalFS rooted at root, which must be a readable directory
func NewLocalFS(root string) (*LocalFS, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("couldn't comprehend path \"%s\": %w", root, err)
	}
	if !IsReadableDirectory(absRoot) {
		return nil, fmt.Errorf("path \"%s\" is not a readable directory", root)
	}
	return &LocalFS{root: absRoot}, nil
}

func (l *LocalFS) RealPath(p string) string {
	return filepath.Join(l.root, filepath.FromSlash(clean(p)))
}

func (l *LocalFS) List(dirPath string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(l.RealPath(dirPath))
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(dirEntries))
	for _, d := range dirEntries {
		info, infoErr := d.Info()
		if infoErr != nil {
			// Removed between ReadDir and Info
			if errors.Is(infoErr, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("couldn't get metadata of \"%s\": %w", d.Name(), infoErr)
		}
		if !info.IsDir() && !info.Mode().IsRegular() {
			continue
		}
		entries = append(entries, entryFromInfo(info))
	}
	return sortEntries(entries), nil
}

func (l *LocalFS) OpenRead(filePath string) (io.ReadCloser, error) {
	return os.Open(l.RealPath(filePath))
}

func (l *LocalFS) OpenWrite(filePath string) (io.WriteCloser, error) {
	return os.Create(l.RealPath(filePath))
}

func (l *LocalFS) Mkdir(dirPath string) error {
	return os.MkdirAll(l.RealPath(dirPath), 0755)
}

func (l *LocalFS) RemoveFile(filePath string) error {
	return os.Remove(l.RealPath(filePath))
}

func (l *LocalFS) RemoveDir(dirPath string) error {
	if clean(dirPath) == "/" {
		return fmt.Errorf("refusing to remove root directory %s", l.root)
	}
	return os.Remove(l.RealPath(dirPath))
}

// Rename refuses to replace an existing destination
func (l *LocalFS) Rename(oldPath, newPath string) error {
	dst := l.RealPath(newPath)
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf(`file "%s" already exists`, dst)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return os.Rename(l.RealPath(oldPath), dst)
}

func (l *LocalFS) Close() error {
	return nil
}

// IsReadableDirectory checks whether a readable directory exists at given path
func IsReadableDirectory(path string) bool {
	info, err := os.Lstat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
