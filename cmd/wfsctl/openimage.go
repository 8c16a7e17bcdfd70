package main

import (
	"fmt"
	"os"

	"github.com/s5kern/wfs/blockdev"
	"github.com/s5kern/wfs/limits"
)

// openImage opens an existing S5FS image file, sizing the FileDisk from
// the file's length on disk rather than requiring the caller to already
// know the block count mkfs chose.
func openImage(path string) (*blockdev.FileDisk, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if fi.Size()%limits.BSIZE != 0 {
		return nil, fmt.Errorf("%s: size %d is not a multiple of the block size", path, fi.Size())
	}
	nblock := int(fi.Size() / limits.BSIZE)
	return blockdev.OpenFileDisk(path, nblock)
}
