package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"

	set "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	"github.com/m-manu/virtualpath/entity"
	"github.com/m-manu/virtualpath/vfs"
)

var manifestHeader = []string{"path", "size", "md5"}

// DigestTree computes the MD5 of every file below dir, hashing up to parallelism files at a time.
// Rows are sorted by relative path.
func DigestTree(ctx context.Context, dir *vfs.Directory, excludedNames set.Set[string], parallelism int) ([]entity.PathDigest, error) {
	files, _, err := FindFiles(dir, excludedNames)
	if err != nil {
		return nil, err
	}
	relativePaths := make([]string, 0, len(files))
	for relativePath := range files {
		relativePaths = append(relativePaths, relativePath)
	}
	sort.Strings(relativePaths)

	if parallelism < 1 {
		parallelism = 1
	}
	digests := make([]entity.PathDigest, len(relativePaths))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, relativePath := range relativePaths {
		f := files[relativePath]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			hash, err := f.GetFileHash()
			if err != nil {
				return fmt.Errorf("couldn't hash %s: %w", f.VirtualPath(), err)
			}
			digests[i] = entity.PathDigest{Path: relativePath, Size: f.Size(), MD5: hash}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return digests, nil
}

// WriteManifest writes digests as CSV with a header row
func WriteManifest(w io.Writer, digests []entity.PathDigest) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(manifestHeader); err != nil {
		return err
	}
	for _, d := range digests {
		if err := cw.Write(d.Record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
