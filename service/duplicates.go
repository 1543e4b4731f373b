package service

import (
	"fmt"
	"sort"

	set "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	"github.com/m-manu/virtualpath/entity"
	"github.com/m-manu/virtualpath/lib"
	"github.com/m-manu/virtualpath/vfs"
)

// FindDuplicates groups files below dir that have the same digest. Files of at least minSize bytes
// are considered, and only those sharing their size with another file are read.
// Each group is sorted and groups are ordered by their first path.
func FindDuplicates(dir *vfs.Directory, excludedNames set.Set[string], minSize int64, parallelism int) ([][]string, error) {
	files, _, err := FindFiles(dir, excludedNames)
	if err != nil {
		return nil, err
	}
	bySize := map[int64][]string{}
	for relativePath, f := range files {
		if f.Size() >= minSize {
			bySize[f.Size()] = append(bySize[f.Size()], relativePath)
		}
	}
	var toScan []string
	for _, paths := range bySize {
		if len(paths) > 1 {
			toScan = append(toScan, paths...)
		}
	}
	sort.Strings(toScan)
	if parallelism < 1 {
		parallelism = 1
	}
	if parallelism > len(toScan) {
		parallelism = max(len(toScan), 1)
	}

	filesToDigests := lib.NewSafeMap[string, entity.FileDigest]()
	digestsToFiles := lib.NewMultiMap[entity.FileDigest, string]()
	var counter int32
	var g errgroup.Group
	indexInParallel(&g, files, toScan, parallelism, &counter, filesToDigests, digestsToFiles)
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("error while building index: %w", err)
	}

	groups := make([][]string, 0)
	for _, paths := range digestsToFiles.Groups(2) {
		sorted := append([]string(nil), paths...)
		sort.Strings(sorted)
		groups = append(groups, sorted)
	}
	sort.Slice(groups, func(i, j int) bool {
		return groups[i][0] < groups[j][0]
	})
	return groups, nil
}
