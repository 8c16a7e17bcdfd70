// Package stat carries the result of a stat(2)-shaped syscall: the
// fields an S5FS vnode can report about itself.
package stat

import "unsafe"

/// Stat_t mirrors a file's stat information. Fields are kept private with
/// setters/getters, the way the teacher's Stat_t does, since Bytes exposes
/// the struct's raw memory layout to callers that want a wire-format copy.
type Stat_t struct {
	dev    uint64
	ino    uint64
	mode   uint64
	size   uint64
	rdev   uint64
	nlink  uint64
	blocks uint64
	mtime  int64
}

/// Wdev stores the owning block device's id.
func (st *Stat_t) Wdev(v uint64) { st.dev = v }

/// Wino stores the inode number.
func (st *Stat_t) Wino(v uint64) { st.ino = v }

/// Wmode records the file mode (type tag).
func (st *Stat_t) Wmode(v uint64) { st.mode = v }

/// Wsize records the file size in bytes.
func (st *Stat_t) Wsize(v uint64) { st.size = v }

/// Wrdev stores the device id for special files.
func (st *Stat_t) Wrdev(v uint64) { st.rdev = v }

/// Wnlink stores the link count.
func (st *Stat_t) Wnlink(v uint64) { st.nlink = v }

/// Wblocks stores the block count (inode_blocks).
func (st *Stat_t) Wblocks(v uint64) { st.blocks = v }

/// Wmtime stores the modification time as a unix timestamp.
func (st *Stat_t) Wmtime(v int64) { st.mtime = v }

/// Dev returns the owning block device's id.
func (st *Stat_t) Dev() uint64 { return st.dev }

/// Ino returns the inode number.
func (st *Stat_t) Ino() uint64 { return st.ino }

/// Mode returns the stored mode value.
func (st *Stat_t) Mode() uint64 { return st.mode }

/// Size returns the stored size.
func (st *Stat_t) Size() uint64 { return st.size }

/// Rdev returns the stored rdev.
func (st *Stat_t) Rdev() uint64 { return st.rdev }

/// Nlink returns the stored link count.
func (st *Stat_t) Nlink() uint64 { return st.nlink }

/// Blocks returns the stored block count.
func (st *Stat_t) Blocks() uint64 { return st.blocks }

/// Mtime returns the stored modification time.
func (st *Stat_t) Mtime() int64 { return st.mtime }

/// BlockSize is the size, in bytes, reported for st_blksize.
const BlockSize = 4096

/// Bytes exposes the raw bytes of the structure for callers (the fuse
/// adapter, getattr) that need a flat byte view rather than the accessors.
func (st *Stat_t) Bytes() []byte {
	const sz = unsafe.Sizeof(*st)
	sl := (*[sz]byte)(unsafe.Pointer(st))
	return sl[:]
}
