package service

import (
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"io"

	"github.com/m-manu/virtualpath/bytesutil"
	"github.com/m-manu/virtualpath/entity"
	"github.com/m-manu/virtualpath/lib"
	"github.com/m-manu/virtualpath/vfs"
)

const (
	thresholdFileSize = 16 * bytesutil.KIBI
)

// GetDigest generates entity.FileDigest of the file provided in an extremely fast manner
// without compromising the quality of uniqueness.
// Large files are sampled at the start, middle and end in a single forward read.
func GetDigest(f *vfs.File) (entity.FileDigest, error) {
	hash, err := fileHash(f)
	if err != nil {
		return entity.FileDigest{}, err
	}
	return entity.FileDigest{
		FileExtension: lib.GetFileExt(f.Name()),
		FileSize:      f.Size(),
		FileFuzzyHash: hash,
	}, nil
}

func fileHash(f *vfs.File) (string, error) {
	var prefix string
	var bytes []byte
	var fileReadErr error
	if f.Size() <= thresholdFileSize {
		prefix = "f"
		bytes, fileReadErr = f.ReadAll()
	} else {
		prefix = "s"
		bytes, fileReadErr = readCrucialBytes(f)
	}
	if fileReadErr != nil {
		return "", fmt.Errorf("couldn't calculate hash of %s: %w", f.VirtualPath(), fileReadErr)
	}
	h := crc32.NewIEEE()
	_, _ = h.Write(bytes)
	return prefix + hex.EncodeToString(h.Sum(nil)), nil
}

func readCrucialBytes(f *vfs.File) ([]byte, error) {
	r, err := f.OpenRead()
	if err != nil {
		return nil, err
	}
	defer r.Close()
	fileSize := f.Size()
	firstBytes := make([]byte, thresholdFileSize/2)
	if _, err := io.ReadFull(r, firstBytes); err != nil {
		return nil, fmt.Errorf("couldn't read first few bytes (maybe file is corrupted?): %w", err)
	}
	if _, err := io.CopyN(io.Discard, r, fileSize/2-thresholdFileSize/2); err != nil {
		return nil, fmt.Errorf("couldn't skip to middle (maybe file is corrupted?): %w", err)
	}
	middleBytes := make([]byte, thresholdFileSize/4)
	if _, err := io.ReadFull(r, middleBytes); err != nil {
		return nil, fmt.Errorf("couldn't read middle bytes (maybe file is corrupted?): %w", err)
	}
	if _, err := io.CopyN(io.Discard, r, fileSize-thresholdFileSize/4-(fileSize/2+thresholdFileSize/4)); err != nil {
		return nil, fmt.Errorf("couldn't skip to end (maybe file is corrupted?): %w", err)
	}
	lastBytes := make([]byte, thresholdFileSize/4)
	if _, err := io.ReadFull(r, lastBytes); err != nil {
		return nil, fmt.Errorf("couldn't read end bytes (maybe file is corrupted?): %w", err)
	}
	return append(append(firstBytes, middleBytes...), lastBytes...), nil
}
