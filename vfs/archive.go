package vfs

import (
	"bytes"

	"github.com/m-manu/virtualpath/fs"
)

// nestedArchive keeps a zip archive as a file inside another provider
type nestedArchive struct {
	dir  *Directory
	name string
}

// ArchiveAt returns a store for an archive named name inside dir.
// The file is created on the first save.
func ArchiveAt(dir *Directory, name string) fs.ArchiveStore {
	return &nestedArchive{dir: dir, name: name}
}

// ArchiveOf returns a store backed by an existing file
func ArchiveOf(f *File) fs.ArchiveStore {
	return &nestedArchive{dir: f.dir, name: f.name}
}

func (a *nestedArchive) Load() ([]byte, error) {
	f, err := a.dir.fileNamed(a.name)
	if err != nil || f == nil {
		return nil, err
	}
	return f.ReadAll()
}

func (a *nestedArchive) Save(data []byte) error {
	f, err := a.dir.fileNamed(a.name)
	if err != nil {
		return err
	}
	if f == nil {
		_, err = a.dir.addFile(a.name, bytes.NewReader(data))
		return err
	}
	return f.WriteAll(data)
}

func (a *nestedArchive) Location() string {
	return a.dir.childBackendPath(a.name)
}
