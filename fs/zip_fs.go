package fs

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// ArchiveStore is where the bytes of a zip archive live
type ArchiveStore interface {
	// Load returns the archive, or nil and no error when it does not exist yet
	Load() ([]byte, error)
	Save(data []byte) error
	Location() string
}

// ZipFile is an ArchiveStore on the local disk
type ZipFile string

func (z ZipFile) Load() ([]byte, error) {
	data, err := os.ReadFile(string(z))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	return data, err
}

func (z ZipFile) Save(data []byte) error {
	return os.WriteFile(string(z), data, 0644)
}

func (z ZipFile) Location() string {
	return string(z)
}

type zipTree struct {
	*BillyFS
	dirty bool
}

// ZipFS implements Backend on a zip archive.
// The archive is unpacked into memory on first use and written back on Close if anything changed.
type ZipFS struct {
	store   ArchiveStore
	session *session[*zipTree]
}

// NewZipFS returns a ZipFS over store. A missing archive starts out empty.
func NewZipFS(store ArchiveStore) *ZipFS {
	z := &ZipFS{store: store}
	z.session = newSession(z.open, z.save)
	return z
}

func (z *ZipFS) open() (*zipTree, error) {
	data, err := z.store.Load()
	if err != nil {
		return nil, fmt.Errorf("couldn't read archive %s: %w", z.store.Location(), err)
	}
	tree := &zipTree{BillyFS: NewMemoryFS()}
	if len(data) == 0 {
		return tree, nil
	}
	if err := unpackZip(data, tree.BillyFS); err != nil {
		return nil, fmt.Errorf("couldn't unpack archive %s: %w", z.store.Location(), err)
	}
	return tree, nil
}

func (z *ZipFS) save(tree *zipTree) error {
	if !tree.dirty {
		return nil
	}
	data, err := packZip(tree.BillyFS)
	if err != nil {
		return fmt.Errorf("couldn't pack archive %s: %w", z.store.Location(), err)
	}
	return z.store.Save(data)
}

func (z *ZipFS) tree(mutating bool) (*zipTree, error) {
	tree, err := z.session.get()
	if err != nil {
		return nil, err
	}
	if mutating {
		tree.dirty = true
	}
	return tree, nil
}

func (z *ZipFS) RealPath(p string) string {
	return z.store.Location() + "!" + clean(p)
}

func (z *ZipFS) List(dirPath string) ([]Entry, error) {
	tree, err := z.tree(false)
	if err != nil {
		return nil, err
	}
	return tree.List(dirPath)
}

func (z *ZipFS) OpenRead(filePath string) (io.ReadCloser, error) {
	tree, err := z.tree(false)
	if err != nil {
		return nil, err
	}
	return tree.OpenRead(filePath)
}

func (z *ZipFS) OpenWrite(filePath string) (io.WriteCloser, error) {
	tree, err := z.tree(true)
	if err != nil {
		return nil, err
	}
	return tree.OpenWrite(filePath)
}

func (z *ZipFS) Mkdir(dirPath string) error {
	tree, err := z.tree(true)
	if err != nil {
		return err
	}
	return tree.Mkdir(dirPath)
}

func (z *ZipFS) RemoveFile(filePath string) error {
	tree, err := z.tree(true)
	if err != nil {
		return err
	}
	return tree.RemoveFile(filePath)
}

func (z *ZipFS) RemoveDir(dirPath string) error {
	tree, err := z.tree(true)
	if err != nil {
		return err
	}
	return tree.RemoveDir(dirPath)
}

func (z *ZipFS) Rename(oldPath, newPath string) error {
	tree, err := z.tree(true)
	if err != nil {
		return err
	}
	return tree.Rename(oldPath, newPath)
}

// Close writes the archive back if it was modified
func (z *ZipFS) Close() error {
	return z.session.close()
}

func unpackZip(data []byte, tree *BillyFS) error {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return err
	}
	for _, f := range reader.File {
		// clean also drops any ".." escaping the archive root
		name := clean(strings.ReplaceAll(f.Name, "\\", "/"))
		if name == "/" {
			continue
		}
		if f.FileInfo().IsDir() {
			if err := tree.Mkdir(name); err != nil {
				return err
			}
			continue
		}
		if err := tree.Mkdir(path.Dir(name)); err != nil {
			return err
		}
		if err := unpackZipEntry(f, tree, name); err != nil {
			return err
		}
	}
	return nil
}

func unpackZipEntry(f *zip.File, tree *BillyFS, name string) error {
	in, err := f.Open()
	if err != nil {
		return fmt.Errorf("couldn't open entry %s: %w", f.Name, err)
	}
	defer in.Close()
	out, err := tree.OpenWrite(name)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return fmt.Errorf("couldn't extract entry %s: %w", f.Name, err)
	}
	return out.Close()
}

func packZip(tree *BillyFS) ([]byte, error) {
	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	if err := packZipDir(writer, tree, "/"); err != nil {
		_ = writer.Close()
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func packZipDir(writer *zip.Writer, tree *BillyFS, dirPath string) error {
	entries, err := tree.List(dirPath)
	if err != nil {
		return err
	}
	for _, e := range entries {
		childPath := path.Join(dirPath, e.Name)
		name := strings.TrimPrefix(childPath, "/")
		if e.IsDir {
			if _, err := writer.CreateHeader(&zip.FileHeader{Name: name + "/", Modified: e.ModTime}); err != nil {
				return err
			}
			if err := packZipDir(writer, tree, childPath); err != nil {
				return err
			}
			continue
		}
		out, err := writer.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: e.ModTime})
		if err != nil {
			return err
		}
		in, err := tree.OpenRead(childPath)
		if err != nil {
			return err
		}
		_, err = io.Copy(out, in)
		_ = in.Close()
		if err != nil {
			return fmt.Errorf("couldn't compress %s: %w", childPath, err)
		}
	}
	return nil
}
