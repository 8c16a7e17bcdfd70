package s5fs

import (
	"fmt"

	"github.com/s5kern/wfs/util"
)

/// CheckReport summarizes one consistency pass over a mounted image:
/// no block is double-counted, and every listed free block or inode
/// falls within range. This is a maintenance feature beyond the
/// distilled core's scope, exposed through wfsctl fsck.
type CheckReport struct {
	TotalBlocks      int
	TotalInodes      int
	FreeBlocksListed int
	FreeInodesListed int
	LiveInodes       int
	Problems         []string
}

func (r *CheckReport) bad(format string, args ...interface{}) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

/// Clean reports whether Check found zero problems.
func (r *CheckReport) Clean() bool { return len(r.Problems) == 0 }

/// Check walks the free-block list, the free-inode list, and every
/// live inode's direct/indirect blocks, verifying that no block number
/// appears twice across (free list ∪ every live inode's blocks) and
/// that every referenced block/inode number is in range. It takes the
/// superblock mutex for the duration, so it excludes concurrent
/// mutation — this is a maintenance operation, not a hot path.
func (fs *Fs_t) Check() *CheckReport {
	fs.sbmu.Lock()
	defer fs.sbmu.Unlock()

	total := fs.totalBlocksLocked()
	r := &CheckReport{
		TotalBlocks: total,
		TotalInodes: int(fs.sb.TotalInodes),
	}
	seen := make(map[uint32]string, total)

	fs.walkFreeBlocksLocked(r, seen)
	fs.walkFreeInodesLocked(r, seen)
	fs.walkLiveInodesLocked(r, seen)
	return r
}

func (fs *Fs_t) totalBlocksLocked() int {
	return fs.disk.NumBlocks()
}

func (fs *Fs_t) claim(r *CheckReport, seen map[uint32]string, block uint32, owner string) {
	if block == BlockNone {
		return
	}
	if int(block) >= r.TotalBlocks {
		r.bad("%s references out-of-range block %d", owner, block)
		return
	}
	if prev, ok := seen[block]; ok {
		r.bad("block %d claimed by both %s and %s", block, prev, owner)
		return
	}
	seen[block] = owner
}

func (fs *Fs_t) walkFreeBlocksLocked(r *CheckReport, seen map[uint32]string) {
	for i := uint32(0); i < fs.sb.FreeSlotCnt; i++ {
		fs.claim(r, seen, fs.sb.FreeArray[i], "free-array")
		r.FreeBlocksListed++
	}
	node := fs.sb.FreeNodeNext
	for node >= 0 {
		nb := uint32(node)
		fs.claim(r, seen, nb, "free-list-node")
		r.FreeBlocksListed++
		f, err := fs.bdev.GetPframe(int(nb), false)
		if err != 0 {
			r.bad("free-list node %d unreadable", nb)
			return
		}
		n := readFreelistNode(f.Data)
		f.Release()
		for _, b := range n.Blocks {
			if b != BlockNone {
				fs.claim(r, seen, b, "free-list-node-entry")
				r.FreeBlocksListed++
			}
		}
		node = n.Next
	}
}

func (fs *Fs_t) walkFreeInodesLocked(r *CheckReport, seen map[uint32]string) {
	visited := make(map[uint32]bool)
	ino := fs.sb.FreeInoHead
	for ino >= 0 {
		n := uint32(ino)
		if n >= fs.sb.TotalInodes {
			r.bad("free-inode list references out-of-range inode %d", n)
			return
		}
		if visited[n] {
			r.bad("free-inode list cycles back to inode %d", n)
			return
		}
		visited[n] = true
		r.FreeInodesListed++

		h, err := fs.GetInode(n, false)
		if err != 0 {
			r.bad("free inode %d unreadable", n)
			return
		}
		if h.Type() != typeFree {
			r.bad("inode %d on free list but type=%d", n, h.Type())
		}
		next := h.rec.NextFree
		h.Release()
		ino = next
	}
}

func (fs *Fs_t) walkLiveInodesLocked(r *CheckReport, seen map[uint32]string) {
	for n := uint32(0); n < fs.sb.TotalInodes; n++ {
		h, err := fs.GetInode(n, false)
		if err != 0 {
			r.bad("inode %d unreadable", n)
			continue
		}
		if h.Type() == typeFree {
			h.Release()
			continue
		}
		r.LiveInodes++
		owner := fmt.Sprintf("inode-%d", n)
		for k, blk := range h.rec.Direct {
			if blk != BlockNone {
				fs.claim(r, seen, blk, fmt.Sprintf("%s-direct[%d]", owner, k))
			}
		}
		if h.rec.Indirect != BlockNone {
			fs.claim(r, seen, h.rec.Indirect, owner+"-indirect")
			f, ferr := fs.bdev.GetPframe(int(h.rec.Indirect), false)
			if ferr == 0 {
				for off := 0; off+4 <= len(f.Data); off += 4 {
					b := uint32(util.Readn(f.Data, 4, off))
					if b != BlockNone {
						fs.claim(r, seen, b, fmt.Sprintf("%s-indirect-slot[%d]", owner, off/4))
					}
				}
				f.Release()
			}
		}
		h.Release()
	}
}
