// Package blockdev implements the block-device collaborator the core
// consumes through a synchronous read_block/write_block interface: an
// in-memory disk for tests and a file-backed disk for mountable
// filesystems.
package blockdev

import "github.com/s5kern/wfs/limits"

/// Disk is the block-device collaborator S5FS's block-device mobj fills
/// and flushes through. Both calls are synchronous and block the caller,
/// as spec'd; callers supply buffers of exactly limits.BSIZE bytes.
type Disk interface {
	ReadBlock(n int, out []byte) error
	WriteBlock(n int, in []byte) error
	Flush() error
	NumBlocks() int
	Close() error
}

/// blockSize is the unit every Disk implementation reads and writes.
const blockSize = limits.BSIZE
