package service

import (
	"path"
	"sort"

	set "github.com/deckarep/golang-set/v2"

	"github.com/m-manu/virtualpath/pathutil"
	"github.com/m-manu/virtualpath/vfs"
)

// FindFiles finds all files below dir, keyed by their "/" separated path relative to dir.
// Files and directories whose name is in excludedNames are skipped along with their contents.
// (Very similar to `find` command on unix-like operating systems)
func FindFiles(dir *vfs.Directory, excludedNames set.Set[string]) (
	files map[string]*vfs.File,
	totalSizeOfFiles int64,
	err error,
) {
	files = make(map[string]*vfs.File)
	err = walk(dir, "", excludedNames, func(relativePath string, f *vfs.File) {
		files[relativePath] = f
		totalSizeOfFiles += f.Size()
	})
	return files, totalSizeOfFiles, err
}

func walk(dir *vfs.Directory, relativeDir string, excludedNames set.Set[string], visit func(string, *vfs.File)) error {
	files, err := dir.Files()
	if err != nil {
		return err
	}
	for _, f := range files {
		if excludedNames != nil && excludedNames.Contains(f.Name()) {
			continue
		}
		visit(path.Join(relativeDir, f.Name()), f)
	}
	dirs, err := dir.Directories()
	if err != nil {
		return err
	}
	for _, child := range dirs {
		if excludedNames != nil && excludedNames.Contains(child.Name()) {
			continue
		}
		if err := walk(child, path.Join(relativeDir, child.Name()), excludedNames, visit); err != nil {
			return err
		}
	}
	return nil
}

// FindMatchingFiles searches every mount for files whose name matches globPattern.
// Results are "mount:virtual path" addresses in ascending order.
func FindMatchingFiles(mounts map[string]*vfs.Provider, globPattern string, maxDepth int) ([]string, error) {
	matches := set.NewSet[string]()
	for name, p := range mounts {
		for f, err := range p.GetAllMatchingFiles(globPattern, maxDepth) {
			if err != nil {
				return nil, err
			}
			matches.Add(name + ":" + f.VirtualPath())
		}
	}
	sorted := matches.ToSlice()
	sort.Strings(sorted)
	return sorted, nil
}

// RelativeToVirtual turns a "/" separated relative path into a virtual path below dir
func RelativeToVirtual(dir *vfs.Directory, relativePath string) string {
	p := dir.Provider()
	return p.CombineVirtualPath(dir.VirtualPath(), pathutil.Tokenize(relativePath, "/").Join(p.VirtualPathSeparator()))
}
