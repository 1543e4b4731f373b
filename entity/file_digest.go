package entity

import "fmt"

// FileDigest is a cheap fingerprint of a file's content: equal digests are very likely equal files
type FileDigest struct {
	FileExtension string
	FileSize      int64
	FileFuzzyHash string
}

func (f FileDigest) String() string {
	return fmt.Sprintf("%v/%v/%v", f.FileExtension, f.FileSize, f.FileFuzzyHash)
}

// PathDigest is one row of a content manifest
type PathDigest struct {
	Path string
	Size int64
	MD5  string
}

// Record returns the row as CSV fields
func (p PathDigest) Record() []string {
	return []string{p.Path, fmt.Sprint(p.Size), p.MD5}
}
