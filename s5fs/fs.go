package s5fs

import (
	"sync"

	"github.com/jacobsa/timeutil"

	"github.com/s5kern/wfs/blockdev"
	"github.com/s5kern/wfs/defs"
	"github.com/s5kern/wfs/limits"
	"github.com/s5kern/wfs/memobj"
	"github.com/s5kern/wfs/metrics"
	"github.com/s5kern/wfs/util"
	"github.com/s5kern/wfs/vfs"
)

/// Fs_t is one mounted S5 filesystem instance: the block-device memory
/// object every vnode's file mobj ultimately reads/writes through, the
/// superblock (protected by sbmu, this filesystem's global mutex),
/// and the vnode cache.
type Fs_t struct {
	disk blockdev.Disk
	bdev *memobj.Mobj // KindBlockDevice mobj caching raw disk blocks

	sbmu sync.Mutex
	sb   *superblock

	firstInodeBlock int
	inodeBlocks     int
	firstDataBlock  int

	clock timeutil.Clock

	// cache is the shared vnode cache this filesystem's Lookup/Mknod/Mkdir
	// go through, so that every VnodeOps path observes the same, single
	// in-memory vnode per inode.
	// Set once via SetCache before the filesystem is reachable from any
	// syscall.
	cache *vfs.Cache

	// lastHits/lastMisses record the block-cache counters as of the
	// previous SampleMetrics call, since prometheus counters only move
	// forward and the underlying Mobj reports lifetime totals.
	lastHits, lastMisses int64

	debug bool
}

/// SetCache wires the vnode cache this filesystem's Lookup/Mknod/Mkdir
/// use to vget newly-named inodes. The mount path calls this once,
/// immediately after Boot or Mkfs, before handing the filesystem's root
/// vnode to any vfs.Process.
func (fs *Fs_t) SetCache(c *vfs.Cache) {
	fs.cache = c
}

/// Boot mounts an already-formatted S5FS image.
func Boot(disk blockdev.Disk) (*Fs_t, defs.Err_t) {
	bdev := memobj.NewBlockDevice(disk)
	f, err := bdev.GetPframe(0, false)
	if err != 0 {
		return nil, err
	}
	sb := readSuperblock(f.Data)
	f.Release()
	if sb.Magic != Magic {
		return nil, defs.EINVAL
	}
	inodeBlocks := util.Roundup(int(sb.TotalInodes), limits.INODES_PER_BLOCK) / limits.INODES_PER_BLOCK
	fs := &Fs_t{
		disk:            disk,
		bdev:            bdev,
		sb:              sb,
		firstInodeBlock: 1,
		inodeBlocks:     inodeBlocks,
		firstDataBlock:  1 + inodeBlocks,
		clock:           timeutil.RealClock(),
	}
	limits.Syslimit.FreeBlocks.Given(uint(sb.FreeSlotCnt))
	limits.Syslimit.FreeInodes.Given(freeInodeCount(sb))
	return fs, 0
}

func freeInodeCount(sb *superblock) uint {
	// best-effort hint only; the authoritative count is the free list
	// itself, which fsck walks exactly.
	if sb.FreeInoHead < 0 {
		return 0
	}
	return 1
}

/// Mkfs formats a fresh S5FS image of nblocks total blocks and ninodes
/// total inodes onto disk, generalizing the teacher's mkfs/mkfs.go
/// skeleton-copying tool to S5FS's own layout.
func Mkfs(disk blockdev.Disk, nblocks, ninodes int) (*Fs_t, defs.Err_t) {
	bdev := memobj.NewBlockDevice(disk)
	inodeBlocks := util.Roundup(ninodes, limits.INODES_PER_BLOCK) / limits.INODES_PER_BLOCK
	firstData := 1 + inodeBlocks
	if firstData >= nblocks {
		return nil, defs.ENOSPC
	}

	// Zero the inode blocks and chain inodes 2..ninodes-1 onto the free
	// list (inode 1 is the root; inode 0 is never handed out).
	for b := 1; b <= inodeBlocks; b++ {
		f, err := bdev.GetPframe(b, true)
		if err != 0 {
			return nil, err
		}
		for i := range f.Data {
			f.Data[i] = 0
		}
		f.Release()
	}

	sb := &superblock{
		Magic:       Magic,
		Version:     Version,
		RootIno:     1,
		TotalInodes: uint32(ninodes),
		FreeInoHead: -1,
	}
	for ino := ninodes - 1; ino >= 2; ino-- {
		writeFreeInode(bdev, uint32(ino), sb.FreeInoHead, firstData, inodeBlocks)
		sb.FreeInoHead = int32(ino)
	}

	// Chain every remaining data block onto the free-block list, using
	// the superblock's inline array for as many as fit and spilling the
	// rest into ordinary free-list node blocks.
	sb.FreeNodeNext = -1
	sb.FreeSlotCnt = 0
	firstFreeData := firstData + 1 // block firstData itself becomes root inode's first block
	if err := chainFreeBlocks(bdev, sb, firstFreeData, nblocks); err != 0 {
		return nil, err
	}

	fs := &Fs_t{
		disk:            disk,
		bdev:            bdev,
		sb:              sb,
		firstInodeBlock: 1,
		inodeBlocks:     inodeBlocks,
		firstDataBlock:  firstData,
		clock:           timeutil.RealClock(),
	}

	// Root directory: inode 1, with "." and ".." both pointing at itself.
	root := &inode{Type: typeDir, Nlink: 2}
	root.Direct[0] = uint32(firstData)
	if err := fs.writeInodeRaw(1, root); err != 0 {
		return nil, err
	}
	if err := fs.initDir(1, 1); err != 0 {
		return nil, err
	}

	sbf, _ := bdev.GetPframe(0, true)
	sb.write(sbf.Data)
	sbf.Release()

	return fs, 0
}

func writeFreeInode(bdev *memobj.Mobj, ino uint32, next int32, firstData, inodeBlocks int) {
	block, off := inodeOffset(ino, 1)
	f, _ := bdev.GetPframe(block, true)
	rec := &inode{Type: typeFree, NextFree: next}
	rec.write(f.Data[off : off+inodeDiskSize])
	f.Release()
}

func chainFreeBlocks(bdev *memobj.Mobj, sb *superblock, first, total int) defs.Err_t {
	blocks := make([]int, 0, total-first)
	for b := first; b < total; b++ {
		blocks = append(blocks, b)
	}
	// Build the list back-to-front so that the lowest block numbers end
	// up in the superblock's inline array first (cosmetic, matches the
	// teacher's habit of allocating low blocks first).
	idx := len(blocks)
	next := int32(-1)
	for idx > 0 {
		take := limits.NSBFREE
		if idx < take {
			take = idx
		}
		if idx-take == 0 {
			// This chunk becomes the superblock's own inline array.
			for i := 0; i < take; i++ {
				sb.FreeArray[i] = uint32(blocks[idx-take+i])
			}
			sb.FreeSlotCnt = uint32(take)
			break
		}
		nodeBlock := blocks[idx-1]
		idx--
		// A node carries at most NSBFREE entries, so allocBlock can load
		// it whole into the superblock's inline array.
		take = limits.NSBFREE
		if idx < take {
			take = idx
		}
		node := &freelistNode{Next: next}
		for i := 0; i < take; i++ {
			node.Blocks[i] = uint32(blocks[idx-take+i])
		}
		f, err := bdev.GetPframe(nodeBlock, true)
		if err != 0 {
			return err
		}
		node.write(f.Data)
		f.Release()
		next = int32(nodeBlock)
		idx -= take
	}
	sb.FreeNodeNext = next
	return 0
}

/// Statistics reports a short human-readable summary, generalizing
/// ufs.Ufs_t.Statistics.
func (fs *Fs_t) Statistics() string {
	hits, misses := fs.bdev.Stats()
	return "s5fs: free_blocks=" + itoa(int(limits.Syslimit.FreeBlocks.Value())) +
		" free_inodes=" + itoa(int(limits.Syslimit.FreeInodes.Value())) +
		" block_cache_hits=" + itoa(int(hits)) + " misses=" + itoa(int(misses))
}

/// SampleMetrics publishes the current free-list, open-vnode, and
/// block-cache gauges to the metrics package. wfsctl serve calls this
/// on a timer.
func (fs *Fs_t) SampleMetrics() {
	metrics.SetFreeBlocks(int64(limits.Syslimit.FreeBlocks.Value()))
	metrics.SetFreeInodes(int64(limits.Syslimit.FreeInodes.Value()))
	if fs.cache != nil {
		metrics.SetOpenVnodes(fs.cache.Count())
	}
	hits, misses := fs.bdev.Stats()
	metrics.SampleMobj(hits-fs.lastHits, misses-fs.lastMisses)
	fs.lastHits, fs.lastMisses = hits, misses
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

/// Sync flushes every dirty block to disk, mirroring ufs.Ufs_t.Sync /
/// the teacher's Fs_sync.
func (fs *Fs_t) Sync() defs.Err_t {
	return fs.bdev.Flush()
}

/// Shutdown flushes and releases the underlying disk.
func (fs *Fs_t) Shutdown() defs.Err_t {
	if err := fs.Sync(); err != 0 {
		return err
	}
	if err := fs.disk.Close(); err != nil {
		return defs.EINVAL
	}
	return 0
}

/// RootIno32 returns the root directory's inode number in its native
/// on-disk width. RootIno (uint64) implements vfs.FileSystem.
func (fs *Fs_t) RootIno32() uint32 {
	fs.sbmu.Lock()
	defer fs.sbmu.Unlock()
	return fs.sb.RootIno
}
