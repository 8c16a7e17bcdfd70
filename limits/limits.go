// Package limits holds the system-wide size limits the rest of wfs is
// built against (block size, direct-pointer count, name length, fd table
// size) plus atomically-updated counters used to track free-list
// consumption the way the teacher's Sysatomic_t does for its own resource
// classes.
package limits

import "sync/atomic"

/// BSIZE is the size in bytes of one disk block and one page frame.
const BSIZE = 4096

/// N_DIRECT is the number of direct block pointers in an S5 inode.
const N_DIRECT = 10

/// INODESIZE is the on-disk size of one S5 inode.
const INODESIZE = 128

/// INODES_PER_BLOCK is the number of inodes packed into one disk block.
const INODES_PER_BLOCK = BSIZE / INODESIZE

/// NAME_MAX is the maximum length, in bytes, of one path component.
const NAME_MAX = 256

/// NNODEFREE is the number of uint32 slots in one ordinary free-list
/// block: the whole block, minus one slot reserved for the "next node"
/// pointer.
const NNODEFREE = BSIZE/4 - 1

/// SBHeaderWords is the count of uint32 fields the superblock stores
/// ahead of its inline free-block array (magic, version, root inode,
/// total inodes, free-inode head, free-slot count).
const SBHeaderWords = 6

/// NSBFREE is the number of uint32 slots in the superblock's inline
/// free-block array, one slot reserved for the "next node" pointer, the
/// rest sharing the block with the header fields above.
const NSBFREE = (BSIZE/4 - SBHeaderWords) - 1

/// DIRENT_NAME_LEN is the fixed name field width of one directory entry.
const DIRENT_NAME_LEN = 60

/// NOFILE is the number of file-descriptor slots in one process's fd table.
const NOFILE = 512

/// MAX_FILE_BLOCKS is the largest block index an S5 file may address:
/// N_DIRECT direct blocks plus one single-indirect block's worth.
const MAX_FILE_BLOCKS = N_DIRECT + BSIZE/4

/// MAX_FILE_SIZE is the largest byte offset a write may target.
const MAX_FILE_SIZE = MAX_FILE_BLOCKS * BSIZE

/// Counter is a numeric limit that can be atomically given and taken,
/// mirroring the teacher's Sysatomic_t: a pool that starts at some
/// capacity and is drawn down and replenished concurrently.
type Counter int64

/// Given increases the counter by n.
func (c *Counter) Given(n uint) {
	atomic.AddInt64((*int64)(c), int64(n))
}

/// Taken decrements the counter by n and reports whether the result stayed
/// non-negative; on failure the counter is left unchanged.
func (c *Counter) Taken(n uint) bool {
	v := int64(n)
	if atomic.AddInt64((*int64)(c), -v) >= 0 {
		return true
	}
	atomic.AddInt64((*int64)(c), v)
	return false
}

/// Take decrements the counter by one.
func (c *Counter) Take() bool {
	return c.Taken(1)
}

/// Give increments the counter by one.
func (c *Counter) Give() {
	c.Given(1)
}

/// Value returns the counter's current value.
func (c *Counter) Value() int64 {
	return atomic.LoadInt64((*int64)(c))
}

/// Syslimit_t tracks the process-wide resource limits wfs enforces: open
/// vnodes, and the free-block/free-inode counters fsck and the metrics
/// package both read.
type Syslimit_t struct {
	Vnodes     int     // max resident vnodes across all mounted filesystems
	FreeBlocks Counter // free blocks remaining, decremented on alloc_block
	FreeInodes Counter // free inodes remaining, decremented on ialloc
}

/// Syslimit holds the process-wide limits in effect.
var Syslimit = &Syslimit_t{
	Vnodes: 20000,
}
