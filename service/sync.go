package service

import (
	"fmt"
	"path"
	"runtime"
	"sort"
	"sync/atomic"

	set "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	"github.com/m-manu/virtualpath/action"
	"github.com/m-manu/virtualpath/entity"
	"github.com/m-manu/virtualpath/fmte"
	"github.com/m-manu/virtualpath/lib"
	"github.com/m-manu/virtualpath/vfs"
)

const (
	indexBuildErrorCountTolerance = 20
)

// SyncPlan is what it takes to make a destination directory hold the files of a source directory
type SyncPlan struct {
	Actions []action.Action
	// Moves rearrange files already present at destination instead of transferring them again
	Moves      int
	Copies     int
	Savings    int64 // bytes that need not be transferred thanks to moves
	Transfer   int64 // bytes copied from source
	Unchanged  int
	SourceSize int64
}

// FindOrphans finds files at source that do not have corresponding files at destination.
// File at destination must exist and have same size. Result is sorted.
func FindOrphans(sourceFiles, destinationFiles map[string]*vfs.File) []string {
	orphansAtSource := make([]string, 0, len(sourceFiles)/10)
	for sourcePath, sourceFile := range sourceFiles {
		destinationFile, existsAtDestination := destinationFiles[sourcePath]
		if !existsAtDestination || sourceFile.Size() != destinationFile.Size() {
			orphansAtSource = append(orphansAtSource, sourcePath)
		}
	}
	sort.Strings(orphansAtSource)
	return orphansAtSource
}

func buildIndex(files map[string]*vfs.File, filesToScan []string, counter *int32,
	filesToDigests lib.SafeMap[string, entity.FileDigest], digestsToFiles lib.MultiMap[entity.FileDigest, string],
) error {
	errCount := 0
	for _, relativePath := range filesToScan {
		newValue := atomic.AddInt32(counter, 1)
		f := files[relativePath]
		fmte.PrintfV("Evaluating file (#%d): %s\n", newValue, f.VirtualPath())
		digest, err := GetDigest(f)
		if err != nil {
			errCount++
			fmte.PrintfErr("couldn't index file \"%s\" (skipping): %+v\n", f.VirtualPath(), err)
			if errCount > indexBuildErrorCountTolerance {
				return fmt.Errorf("too many errors while building index")
			}
			continue
		}
		filesToDigests.Set(relativePath, digest)
		digestsToFiles.Add(digest, relativePath)
	}
	return nil
}

// indexInParallel digests the listed files with the given number of workers
func indexInParallel(g *errgroup.Group, files map[string]*vfs.File, toScan []string, parallelism int, counter *int32,
	filesToDigests lib.SafeMap[string, entity.FileDigest], digestsToFiles lib.MultiMap[entity.FileDigest, string],
) {
	for i := 0; i < parallelism; i++ {
		low := i * len(toScan) / parallelism
		high := (i + 1) * len(toScan) / parallelism
		g.Go(func() error {
			return buildIndex(files, toScan[low:high], counter, filesToDigests, digestsToFiles)
		})
	}
}

// PlanSync compares source and destination directories, which may live on different providers,
// and lists the actions that make destination hold every file of source.
// Files that are already at destination under another path are moved there rather than copied again.
// Destination files that do not exist at source are left alone.
func PlanSync(source, destination *vfs.Directory, excludedNames set.Set[string]) (plan SyncPlan, err error) {
	sourceFiles, sourceSize, err := FindFiles(source, excludedNames)
	if err != nil {
		return plan, fmt.Errorf("couldn't scan %s: %w", source.VirtualPath(), err)
	}
	destinationFiles, _, err := FindFiles(destination, excludedNames)
	if err != nil {
		return plan, fmt.Errorf("couldn't scan %s: %w", destination.VirtualPath(), err)
	}
	plan.SourceSize = sourceSize
	orphansAtSource := FindOrphans(sourceFiles, destinationFiles)
	candidatesAtDestination := FindOrphans(destinationFiles, sourceFiles)
	plan.Unchanged = len(sourceFiles) - len(orphansAtSource)

	orphanFilesToDigests := lib.NewSafeMap[string, entity.FileDigest]()
	orphanDigestsToFiles := lib.NewMultiMap[entity.FileDigest, string]()
	candidateFilesToDigests := lib.NewSafeMap[string, entity.FileDigest]()
	candidateDigestsToFiles := lib.NewMultiMap[entity.FileDigest, string]()
	var sourceCounter, destinationCounter int32
	parallelismForSource, parallelismForDestination := getParallelism(runtime.NumCPU())
	var g errgroup.Group
	if len(candidatesAtDestination) > 0 {
		indexInParallel(&g, sourceFiles, orphansAtSource, parallelismForSource, &sourceCounter,
			orphanFilesToDigests, orphanDigestsToFiles)
		indexInParallel(&g, destinationFiles, candidatesAtDestination, parallelismForDestination, &destinationCounter,
			candidateFilesToDigests, candidateDigestsToFiles)
	}
	if err := g.Wait(); err != nil {
		return plan, fmt.Errorf("error while building index: %w", err)
	}

	uniqueness := set.NewSetWithSize[string](len(orphansAtSource))
	moved := set.NewSet[string]()
	add := func(a action.Action) bool {
		if uniqueness.Contains(a.Uniqueness()) {
			return false
		}
		uniqueness.Add(a.Uniqueness())
		plan.Actions = append(plan.Actions, a)
		return true
	}
	dst := destination.Provider()

	// moves first: their targets do not exist at destination, and their sources are not needed at source
	for _, orphanAtSource := range orphansAtSource {
		if _, existsAtDestination := destinationFiles[orphanAtSource]; existsAtDestination {
			continue
		}
		orphanDigest, indexed := orphanFilesToDigests.Get(orphanAtSource)
		if !indexed || len(orphanDigestsToFiles.Get(orphanDigest)) > 1 {
			// many orphans at source have the same digest
			continue
		}
		var candidateAtDestination string
		for _, destinationPath := range candidateDigestsToFiles.Get(orphanDigest) {
			if _, existsAtSource := sourceFiles[destinationPath]; !existsAtSource && !moved.Contains(destinationPath) {
				candidateAtDestination = destinationPath
				break
			}
		}
		if candidateAtDestination == "" {
			continue
		}
		if parent := path.Dir(orphanAtSource); parent != "." {
			add(action.MakeDirectoryAction{Provider: dst, Path: RelativeToVirtual(destination, parent)})
		}
		if add(action.MoveFileAction{
			Source:          dst,
			SourcePath:      RelativeToVirtual(destination, candidateAtDestination),
			Destination:     dst,
			DestinationPath: RelativeToVirtual(destination, orphanAtSource),
		}) {
			moved.Add(candidateAtDestination)
			plan.Moves++
			plan.Savings += sourceFiles[orphanAtSource].Size()
			delete(sourceFiles, orphanAtSource)
		}
	}

	// then whatever could not be rearranged is transferred, replacing a differing file if there is one
	for _, orphanAtSource := range orphansAtSource {
		f, pending := sourceFiles[orphanAtSource]
		if !pending {
			continue
		}
		target := RelativeToVirtual(destination, orphanAtSource)
		if _, existsAtDestination := destinationFiles[orphanAtSource]; existsAtDestination {
			add(action.DeleteAction{Provider: dst, Path: target})
		}
		if add(action.CopyFileAction{
			Source:          source.Provider(),
			SourcePath:      f.VirtualPath(),
			Destination:     dst,
			DestinationPath: target,
		}) {
			plan.Copies++
			plan.Transfer += f.Size()
		}
	}
	return plan, nil
}

func getParallelism(n int) (int, int) {
	if n > 3 {
		if n%2 == 0 {
			return n/2 - 1, n / 2
		} else {
			return n / 2, n / 2
		}
	}
	return 1, 1
}
