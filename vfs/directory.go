package vfs

import (
	"bytes"
	"io"
	"iter"
	"math"
	"path"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/m-manu/virtualpath/fs"
	"github.com/m-manu/virtualpath/logging"
	"github.com/m-manu/virtualpath/metrics"
	"github.com/m-manu/virtualpath/pathutil"
)

// UnlimitedDepth makes GetAllMatchingFiles descend into every level
const UnlimitedDepth = math.MaxInt

// Directory is a node that has children.
// Its children are listed from the backend once, on first use, and kept in a cache
// owned by this wrapper; creations and deletions done through it keep the cache current.
// A Directory is not safe for concurrent use.
type Directory struct {
	provider *Provider
	parent   *Directory // nil at root; used only to compute paths
	name     string
	modTime  time.Time

	listed bool
	dirs   []*Directory
	files  []*File
}

func (d *Directory) Name() string {
	return d.name
}

// VirtualPath is computed from the ancestor chain; the root's is the separator alone
func (d *Directory) VirtualPath() string {
	if d.parent == nil {
		return d.provider.sep
	}
	return pathutil.Combine(d.parent.VirtualPath(), d.name, d.provider.sep)
}

func (d *Directory) RealPath() string {
	return d.provider.backend.RealPath(d.backendPath())
}

func (d *Directory) LastModified() time.Time {
	return d.modTime
}

func (d *Directory) IsDirectory() bool {
	return true
}

func (d *Directory) IsRoot() bool {
	return d.parent == nil
}

// Parent returns the containing directory, nil at root
func (d *Directory) Parent() *Directory {
	return d.parent
}

func (d *Directory) Provider() *Provider {
	return d.provider
}

func (d *Directory) String() string {
	return d.RealPath() + " -> " + d.VirtualPath()
}

// backendPath is the "/" separated path handed to the backing adapter
func (d *Directory) backendPath() string {
	if d.parent == nil {
		return "/"
	}
	return path.Join(d.parent.backendPath(), d.name)
}

func (d *Directory) childBackendPath(name string) string {
	return path.Join(d.backendPath(), name)
}

// ensureListed fills the listing cache on first use
func (d *Directory) ensureListed() error {
	if d.listed {
		metrics.RecordCacheHit()
		return nil
	}
	entries, err := d.provider.list(d.backendPath())
	if err != nil {
		if !fs.IsNotExist(err) {
			return wrapBackend(OpList, d.backendPath(), err)
		}
		// Gone from the backend: it simply has no children
		entries = nil
	}
	metrics.RecordCacheFill()
	d.dirs = make([]*Directory, 0, len(entries))
	d.files = make([]*File, 0, len(entries))
	for _, e := range entries {
		if e.IsDir {
			d.dirs = append(d.dirs, &Directory{provider: d.provider, parent: d, name: e.Name, modTime: e.ModTime})
		} else {
			d.files = append(d.files, &File{dir: d, name: e.Name, modTime: e.ModTime, size: e.Size})
		}
	}
	d.listed = true
	logging.Debug("listed directory", zap.String("provider", d.provider.name),
		zap.String("path", d.backendPath()), zap.Int("entries", len(entries)))
	return nil
}

// Refresh drops the listing cache so that the next access re-queries the backend
func (d *Directory) Refresh() {
	d.listed = false
	d.dirs = nil
	d.files = nil
}

// Files returns the files directly inside d
func (d *Directory) Files() ([]*File, error) {
	if err := d.ensureListed(); err != nil {
		return nil, err
	}
	return slices.Clone(d.files), nil
}

// Directories returns the directories directly inside d
func (d *Directory) Directories() ([]*Directory, error) {
	if err := d.ensureListed(); err != nil {
		return nil, err
	}
	return slices.Clone(d.dirs), nil
}

// Nodes returns child directories followed by child files
func (d *Directory) Nodes() ([]Node, error) {
	if err := d.ensureListed(); err != nil {
		return nil, err
	}
	nodes := make([]Node, 0, len(d.dirs)+len(d.files))
	for _, c := range d.dirs {
		nodes = append(nodes, c)
	}
	for _, f := range d.files {
		nodes = append(nodes, f)
	}
	return nodes, nil
}

func (d *Directory) fileNamed(name string) (*File, error) {
	if err := d.ensureListed(); err != nil {
		return nil, err
	}
	for _, f := range d.files {
		if f.name == name {
			return f, nil
		}
	}
	return nil, nil
}

func (d *Directory) dirNamed(name string) (*Directory, error) {
	if err := d.ensureListed(); err != nil {
		return nil, err
	}
	for _, c := range d.dirs {
		if c.name == name {
			return c, nil
		}
	}
	return nil, nil
}

// GetFile resolves a file below d. A miss at any level returns nil and no error.
func (d *Directory) GetFile(virtualPath string) (*File, error) {
	return d.getFile(pathutil.Tokenize(virtualPath, d.provider.sep))
}

func (d *Directory) getFile(tokens *pathutil.TokenStack) (*File, error) {
	if tokens.Empty() {
		return nil, nil
	}
	name := tokens.Pop()
	if tokens.Empty() {
		return d.fileNamed(name)
	}
	child, err := d.dirNamed(name)
	if err != nil || child == nil {
		return nil, err
	}
	return child.getFile(tokens)
}

// GetDirectory resolves a directory below d; an empty path is d itself.
// A miss at any level returns nil and no error.
func (d *Directory) GetDirectory(virtualPath string) (*Directory, error) {
	return d.getDirectory(pathutil.Tokenize(virtualPath, d.provider.sep))
}

func (d *Directory) getDirectory(tokens *pathutil.TokenStack) (*Directory, error) {
	if tokens.Empty() {
		return d, nil
	}
	child, err := d.dirNamed(tokens.Pop())
	if err != nil || child == nil {
		return nil, err
	}
	return child.getDirectory(tokens)
}

func (d *Directory) FileExists(virtualPath string) (bool, error) {
	f, err := d.GetFile(virtualPath)
	return f != nil, err
}

func (d *Directory) DirectoryExists(virtualPath string) (bool, error) {
	c, err := d.GetDirectory(virtualPath)
	return c != nil, err
}

// CreateDirectory creates every missing directory along virtualPath.
// An existing directory is returned as is.
func (d *Directory) CreateDirectory(virtualPath string) (*Directory, error) {
	return d.createDirectory(pathutil.Tokenize(virtualPath, d.provider.sep))
}

func (d *Directory) createDirectory(tokens *pathutil.TokenStack) (*Directory, error) {
	if tokens.Empty() {
		return d, nil
	}
	name := tokens.Pop()
	child, err := d.dirNamed(name)
	if err != nil {
		return nil, err
	}
	if child == nil {
		child, err = d.addDirectory(name)
		if err != nil {
			return nil, err
		}
	}
	return child.createDirectory(tokens)
}

func (d *Directory) addDirectory(name string) (*Directory, error) {
	if err := d.checkFreeName(name); err != nil {
		return nil, err
	}
	if err := d.provider.mkdir(d.childBackendPath(name)); err != nil {
		return nil, err
	}
	child := &Directory{provider: d.provider, parent: d, name: name, modTime: time.Now()}
	d.dirs = append(d.dirs, child)
	return child, nil
}

// checkFreeName fails unless name is a valid, unused child name of d
func (d *Directory) checkFreeName(name string) error {
	childPath := pathutil.Combine(d.VirtualPath(), name, d.provider.sep)
	if name == "" || name == "." || name == ".." || strings.Contains(name, "/") {
		return newError(OpCreate, childPath, ErrInvalidOperation)
	}
	f, err := d.fileNamed(name)
	if err != nil {
		return err
	}
	c, err := d.dirNamed(name)
	if err != nil {
		return err
	}
	if f != nil || c != nil {
		return newError(OpCreate, childPath, ErrDuplicateNode)
	}
	return nil
}

// CreateFile creates a file below d. The parent directory must exist:
// when it does not, nil and no error are returned.
func (d *Directory) CreateFile(virtualPath string, contents []byte) (*File, error) {
	return d.CreateFileFrom(virtualPath, bytes.NewReader(contents))
}

func (d *Directory) CreateFileText(virtualPath string, contents string) (*File, error) {
	return d.CreateFileFrom(virtualPath, strings.NewReader(contents))
}

// CreateFileFrom is CreateFile with content read from r
func (d *Directory) CreateFileFrom(virtualPath string, r io.Reader) (*File, error) {
	tokens := pathutil.Tokenize(virtualPath, d.provider.sep)
	if tokens.Empty() {
		return nil, newError(OpCreate, virtualPath, ErrInvalidOperation)
	}
	return d.createFile(tokens, r)
}

func (d *Directory) createFile(tokens *pathutil.TokenStack, r io.Reader) (*File, error) {
	name := tokens.Pop()
	if tokens.Empty() {
		return d.addFile(name, r)
	}
	child, err := d.dirNamed(name)
	if err != nil || child == nil {
		return nil, err
	}
	return child.createFile(tokens, r)
}

func (d *Directory) addFile(name string, r io.Reader) (*File, error) {
	if err := d.checkFreeName(name); err != nil {
		return nil, err
	}
	size, err := d.provider.write(d.childBackendPath(name), r)
	if err != nil {
		return nil, err
	}
	f := &File{dir: d, name: name, modTime: time.Now(), size: size}
	d.files = append(d.files, f)
	return f, nil
}

// Delete removes the node at virtualPath below d, directories with all their descendants.
// A path that does not exist is not an error, and neither is an empty one: use Remove to delete d itself.
func (d *Directory) Delete(virtualPath string) error {
	tokens := pathutil.Tokenize(virtualPath, d.provider.sep)
	if tokens.Empty() {
		return nil
	}
	return d.delete(tokens)
}

func (d *Directory) delete(tokens *pathutil.TokenStack) error {
	name := tokens.Pop()
	if tokens.Empty() {
		return d.deleteChild(name)
	}
	child, err := d.dirNamed(name)
	if err != nil || child == nil {
		return err
	}
	return child.delete(tokens)
}

// Remove deletes d and everything below it. The root cannot be removed.
func (d *Directory) Remove() error {
	if d.parent == nil {
		return newError(OpDelete, d.VirtualPath(), ErrInvalidOperation)
	}
	return d.parent.deleteChild(d.name)
}

func (d *Directory) deleteChild(name string) error {
	f, err := d.fileNamed(name)
	if err != nil {
		return err
	}
	if f != nil {
		return d.deleteFile(f)
	}
	child, err := d.dirNamed(name)
	if err != nil || child == nil {
		return err
	}
	if err := child.deleteContents(); err != nil {
		return err
	}
	if err := d.provider.removeDir(child.backendPath()); err != nil {
		return err
	}
	d.dirs = slices.DeleteFunc(d.dirs, func(c *Directory) bool { return c == child })
	return nil
}

func (d *Directory) deleteFile(f *File) error {
	if err := d.provider.removeFile(f.backendPath()); err != nil {
		return err
	}
	d.evictFile(f)
	return nil
}

func (d *Directory) evictFile(f *File) {
	d.files = slices.DeleteFunc(d.files, func(c *File) bool { return c == f })
}

// deleteContents removes descendants bottom-up: files first, then each subdirectory
func (d *Directory) deleteContents() error {
	files, err := d.Files()
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := d.deleteFile(f); err != nil {
			return err
		}
	}
	dirs, err := d.Directories()
	if err != nil {
		return err
	}
	for _, child := range dirs {
		if err := d.deleteChild(child.name); err != nil {
			return err
		}
	}
	return nil
}

// GetAllMatchingFiles yields files whose name matches globPattern, d's own files first,
// then those of each subdirectory. maxDepth counts directory levels: 0 yields nothing,
// 1 only d's files. Every iteration walks the tree again.
func (d *Directory) GetAllMatchingFiles(globPattern string, maxDepth int) iter.Seq2[*File, error] {
	return func(yield func(*File, error) bool) {
		d.walkMatching(globPattern, maxDepth, yield)
	}
}

func (d *Directory) walkMatching(globPattern string, depth int, yield func(*File, error) bool) bool {
	if depth == 0 {
		return true
	}
	files, err := d.Files()
	if err != nil {
		yield(nil, err)
		return false
	}
	for _, f := range files {
		if pathutil.Glob(f.name, globPattern) && !yield(f, nil) {
			return false
		}
	}
	dirs, err := d.Directories()
	if err != nil {
		yield(nil, err)
		return false
	}
	for _, child := range dirs {
		if !child.walkMatching(globPattern, depth-1, yield) {
			return false
		}
	}
	return true
}

// MatchingFiles collects GetAllMatchingFiles into a slice
func (d *Directory) MatchingFiles(globPattern string, maxDepth int) ([]*File, error) {
	var matches []*File
	for f, err := range d.GetAllMatchingFiles(globPattern, maxDepth) {
		if err != nil {
			return matches, err
		}
		matches = append(matches, f)
	}
	return matches, nil
}
