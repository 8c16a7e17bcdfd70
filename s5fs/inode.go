package s5fs

import (
	"github.com/s5kern/wfs/defs"
	"github.com/s5kern/wfs/limits"
	"github.com/s5kern/wfs/memobj"
)

/// InodeHandle is a fetched inode plus the page frame backing it:
/// GetInode returns this pair; Release releases the frame. Writes go
/// through SetDirty, which marks the owning frame dirty so the
/// block-device mobj's next flush writes it back.
type InodeHandle struct {
	fs    *Fs_t
	frame *memobj.Frame
	rec   *inode
	off   int
	ino   uint32
}

/// GetInode fetches the enclosing disk block for ino via the block-device
/// mobj, returning the in-place inode with its owning frame's mutex held.
func (fs *Fs_t) GetInode(ino uint32, forWrite bool) (*InodeHandle, defs.Err_t) {
	block, off := inodeOffset(ino, fs.firstInodeBlock)
	f, err := fs.bdev.GetPframe(block, forWrite)
	if err != 0 {
		return nil, err
	}
	rec := readInode(f.Data[off : off+inodeDiskSize])
	return &InodeHandle{fs: fs, frame: f, rec: rec, off: off, ino: ino}, 0
}

/// Release copies the cached inode record back into the frame and
/// releases the frame's mutex. Only SetDirty marks the frame for writeback.
func (h *InodeHandle) Release() {
	h.rec.write(h.frame.Data[h.off : h.off+inodeDiskSize])
	h.frame.Release()
}

/// SetDirty marks the inode's owning frame dirty; call after mutating
/// the fields returned by Type/Nlink/Size/etc.
func (h *InodeHandle) SetDirty() {
	h.frame.MarkDirty()
}

func (h *InodeHandle) Type() uint32    { return h.rec.Type }
func (h *InodeHandle) Nlink() uint32   { return h.rec.Nlink }
func (h *InodeHandle) Size() uint32    { return h.rec.Size }
func (h *InodeHandle) Devid() uint32   { return h.rec.Devid }
func (h *InodeHandle) Mtime() int64    { return h.rec.Mtime }
func (h *InodeHandle) Ino() uint32     { return h.ino }

func (h *InodeHandle) SetNlink(n uint32) { h.rec.Nlink = n; h.SetDirty() }
func (h *InodeHandle) SetSize(n uint32)  { h.rec.Size = n; h.SetDirty() }
func (h *InodeHandle) SetMtime(t int64)  { h.rec.Mtime = t; h.SetDirty() }

func (fs *Fs_t) writeInodeRaw(ino uint32, rec *inode) defs.Err_t {
	block, off := inodeOffset(ino, fs.firstInodeBlock)
	f, err := fs.bdev.GetPframe(block, true)
	if err != 0 {
		return err
	}
	rec.write(f.Data[off : off+inodeDiskSize])
	f.Release()
	return 0
}

/// allocInode pops the head of the free-inode list, returning ENOSPC
/// if the list is exhausted.
func (fs *Fs_t) allocInode(typ uint32, devid uint32) (uint32, defs.Err_t) {
	fs.sbmu.Lock()
	defer fs.sbmu.Unlock()

	if fs.sb.FreeInoHead < 0 {
		return 0, defs.ENOSPC
	}
	ino := uint32(fs.sb.FreeInoHead)
	h, err := fs.GetInode(ino, true)
	if err != 0 {
		return 0, err
	}
	next := h.rec.NextFree
	h.rec.Type = typ
	h.rec.Nlink = 0
	h.rec.Size = 0
	h.rec.Devid = devid
	for i := range h.rec.Direct {
		h.rec.Direct[i] = BlockNone
	}
	h.rec.Indirect = BlockNone
	h.Release()

	fs.sb.FreeInoHead = next
	limits.Syslimit.FreeInodes.Taken(1)
	fs.writeSuperblock()
	return ino, 0
}

/// freeInode pushes ino back onto the free-inode list, under the
/// superblock lock.
func (fs *Fs_t) freeInode(ino uint32) defs.Err_t {
	fs.sbmu.Lock()
	defer fs.sbmu.Unlock()

	h, err := fs.GetInode(ino, true)
	if err != 0 {
		return err
	}
	h.rec.Type = typeFree
	h.rec.NextFree = fs.sb.FreeInoHead
	h.Release()

	fs.sb.FreeInoHead = int32(ino)
	limits.Syslimit.FreeInodes.Give()
	fs.writeSuperblock()
	return 0
}

func (fs *Fs_t) writeSuperblock() {
	f, err := fs.bdev.GetPframe(0, true)
	if err != 0 {
		return
	}
	fs.sb.write(f.Data)
	f.Release()
}

/// allocBlock returns a freshly zeroed block number: zeroing is required
/// because block number 0 means "sparse" everywhere else in the format,
/// so any other number must start clean.
func (fs *Fs_t) allocBlock() (uint32, defs.Err_t) {
	fs.sbmu.Lock()
	defer fs.sbmu.Unlock()

	if fs.sb.FreeSlotCnt == 0 {
		if fs.sb.FreeNodeNext < 0 {
			return 0, defs.ENOSPC
		}
		nodeBlock := uint32(fs.sb.FreeNodeNext)
		f, err := fs.bdev.GetPframe(int(nodeBlock), false)
		if err != 0 {
			return 0, err
		}
		node := readFreelistNode(f.Data)
		f.Release()
		copy(fs.sb.FreeArray[:], node.Blocks[:limits.NSBFREE])
		fs.sb.FreeSlotCnt = uint32(limits.NSBFREE)
		fs.sb.FreeNodeNext = node.Next
		limits.Syslimit.FreeBlocks.Taken(1) // the node block itself is now in use
	}

	fs.sb.FreeSlotCnt--
	block := fs.sb.FreeArray[fs.sb.FreeSlotCnt]
	fs.sb.FreeArray[fs.sb.FreeSlotCnt] = 0
	limits.Syslimit.FreeBlocks.Taken(1)
	fs.writeSuperblock()

	f, err := fs.bdev.GetPframe(int(block), true)
	if err != 0 {
		return 0, err
	}
	for i := range f.Data {
		f.Data[i] = 0
	}
	f.Release()
	return block, 0
}

/// freeBlock pushes block back onto the free list, clearing its dirty
/// bit first since its contents no longer matter.
func (fs *Fs_t) freeBlock(block uint32) defs.Err_t {
	fs.sbmu.Lock()
	defer fs.sbmu.Unlock()

	if f := fs.bdev.FindPframe(int(block)); f != nil {
		f.ClearDirty()
		f.Release()
	}

	if fs.sb.FreeSlotCnt >= uint32(limits.NSBFREE) {
		// Flush the full inline array to the freshly-freed block, make
		// that block the next free-list node, and restart the inline
		// array empty.
		f, err := fs.bdev.GetPframe(int(block), true)
		if err != 0 {
			return err
		}
		node := &freelistNode{Next: fs.sb.FreeNodeNext}
		for i := 0; i < limits.NSBFREE && i < limits.NNODEFREE; i++ {
			node.Blocks[i] = fs.sb.FreeArray[i]
		}
		node.write(f.Data)
		f.Release()
		fs.sb.FreeNodeNext = int32(block)
		fs.sb.FreeSlotCnt = 0
		limits.Syslimit.FreeBlocks.Give() // node block itself now counted as free
		fs.writeSuperblock()
		return 0
	}

	fs.sb.FreeArray[fs.sb.FreeSlotCnt] = block
	fs.sb.FreeSlotCnt++
	limits.Syslimit.FreeBlocks.Give()
	fs.writeSuperblock()
	return 0
}
