package s5fs

import (
	"github.com/s5kern/wfs/defs"
	"github.com/s5kern/wfs/limits"
	"github.com/s5kern/wfs/util"
)

/// blockFor translates file block index k to a disk block number. With
/// alloc set it allocates missing direct/indirect blocks as needed,
/// rolling back any block allocated in this call if a later step fails
/// so nothing leaks.
func (fs *Fs_t) blockFor(ino uint32, k int, alloc bool) (uint32, defs.Err_t) {
	if k >= limits.MAX_FILE_BLOCKS {
		return 0, defs.EINVAL
	}

	h, err := fs.GetInode(ino, alloc)
	if err != 0 {
		return 0, err
	}
	defer h.Release()

	if k < limits.N_DIRECT {
		if h.rec.Direct[k] != BlockNone || !alloc {
			return h.rec.Direct[k], 0
		}
		nb, err := fs.allocBlock()
		if err != 0 {
			return 0, err
		}
		h.rec.Direct[k] = nb
		h.SetDirty()
		return nb, 0
	}

	j := k - limits.N_DIRECT
	newIndirect := false
	if h.rec.Indirect == BlockNone {
		if !alloc {
			return 0, 0
		}
		ib, err := fs.allocBlock()
		if err != 0 {
			return 0, err
		}
		h.rec.Indirect = ib
		h.SetDirty()
		newIndirect = true
	}
	undoIndirect := func() {
		if newIndirect {
			fs.freeBlock(h.rec.Indirect)
			h.rec.Indirect = BlockNone
		}
	}

	indf, err := fs.bdev.GetPframe(int(h.rec.Indirect), false)
	if err != 0 {
		undoIndirect()
		return 0, err
	}
	off := j * 4
	existing := uint32(util.Readn(indf.Data, 4, off))
	if existing != BlockNone || !alloc {
		indf.Release()
		return existing, 0
	}
	nb, aerr := fs.allocBlock()
	if aerr != 0 {
		indf.Release()
		undoIndirect()
		return 0, aerr
	}
	util.Writen(indf.Data, 4, off, int(nb))
	indf.MarkDirty()
	indf.Release()
	return nb, 0
}

/// ReadFile reads up to len(buf) bytes starting at pos, clamping at EOF.
func (fs *Fs_t) ReadFile(ino uint32, length uint64, pos int64, buf []byte) (int, defs.Err_t) {
	if pos < 0 || uint64(pos) >= length {
		return 0, 0
	}
	remain := int64(length) - pos
	if int64(len(buf)) > remain {
		buf = buf[:remain]
	}
	n := 0
	for n < len(buf) {
		fileOff := pos + int64(n)
		k := int(fileOff / limits.BSIZE)
		within := int(fileOff % limits.BSIZE)
		want := limits.BSIZE - within
		if want > len(buf)-n {
			want = len(buf) - n
		}

		disk, err := fs.blockFor(ino, k, false)
		if err != 0 {
			return n, err
		}
		if disk == BlockNone {
			for i := 0; i < want; i++ {
				buf[n+i] = 0
			}
		} else {
			f, err := fs.bdev.GetPframe(int(disk), false)
			if err != 0 {
				return n, err
			}
			copy(buf[n:n+want], f.Data[within:within+want])
			f.Release()
		}
		n += want
	}
	return n, 0
}

/// WriteFile writes buf at pos, growing the file as needed. Returns
/// EFBIG only when pos itself exceeds the maximum file size; a mid-write
/// failure leaves the file length reflecting only what was actually
/// written.
func (fs *Fs_t) WriteFile(ino uint32, pos int64, buf []byte) (int, uint64, defs.Err_t) {
	if pos >= limits.MAX_FILE_SIZE {
		return 0, 0, defs.EFBIG
	}
	maxLen := int64(limits.MAX_FILE_SIZE) - pos
	if int64(len(buf)) > maxLen {
		buf = buf[:maxLen]
	}

	n := 0
	newLen := uint64(pos)
	for n < len(buf) {
		fileOff := pos + int64(n)
		k := int(fileOff / limits.BSIZE)
		within := int(fileOff % limits.BSIZE)
		want := limits.BSIZE - within
		if want > len(buf)-n {
			want = len(buf) - n
		}

		disk, err := fs.blockFor(ino, k, true)
		if err != 0 {
			return n, newLen, err
		}
		f, err := fs.bdev.GetPframe(int(disk), true)
		if err != 0 {
			return n, newLen, err
		}
		copy(f.Data[within:within+want], buf[n:n+want])
		f.Release()

		n += want
		if uint64(fileOff+int64(want)) > newLen {
			newLen = uint64(fileOff + int64(want))
		}
	}
	return n, newLen, 0
}
