package s5fs

import (
	"github.com/s5kern/wfs/defs"
	"github.com/s5kern/wfs/limits"
	"github.com/s5kern/wfs/memobj"
	"github.com/s5kern/wfs/stat"
	"github.com/s5kern/wfs/util"
	"github.com/s5kern/wfs/vfs"
)

// vnodeFiller backs a vnode's own file mobj, the mobj the address-space
// manager maps for mmap. BackingFrame translates a file-relative block
// index to a disk block number and hands back that disk block's own frame
// from the filesystem's block-device mobj — the same frame read() and
// write() fault on — rather than a private copy, so a dirty page is
// visible through either path and there is nothing of the file mobj's own
// left to flush.
type vnodeFiller struct {
	fs  *Fs_t
	ino uint32
}

func (vf *vnodeFiller) BackingFrame(index int, forWrite bool) (*memobj.Frame, defs.Err_t) {
	disk, err := vf.fs.blockFor(vf.ino, index, forWrite)
	if err != 0 {
		return nil, err
	}
	if disk == BlockNone {
		// A hole with nothing allocated yet: hand back a transient
		// zero page rather than caching anything under this index.
		return memobj.NewZeroFrame(index, limits.BSIZE), 0
	}
	return vf.fs.bdev.GetPframe(int(disk), forWrite)
}

/// RootIno reports the root directory's inode number; part of
/// vfs.FileSystem.
func (fs *Fs_t) RootIno() uint64 { return uint64(fs.RootIno32()) }

/// ReadVnode constructs the in-memory vnode for ino, reading its inode
/// record from disk. This is the vnode-cache miss path: the cache calls
/// it once per inode and keeps the result until the last reference
/// drops.
func (fs *Fs_t) ReadVnode(ino uint64) (*vfs.Vnode, defs.Err_t) {
	h, err := fs.GetInode(uint32(ino), false)
	if err != 0 {
		return nil, err
	}
	defer h.Release()
	if h.Type() == typeFree {
		return nil, defs.ENOENT
	}

	v := &vfs.Vnode{
		Mode:   defs.Type_t(h.Type()),
		Length: uint64(h.Size()),
		Devid:  h.Devid(),
		Nlink:  h.Nlink(),
		Mtime:  h.Mtime(),
		Ops:    fs,
		Mobj:   memobj.NewFile(&vnodeFiller{fs: fs, ino: uint32(ino)}),
	}
	return v, 0
}

/// Mmap hands the address-space manager v's backing memory object,
/// taking one reference on its behalf.
func (fs *Fs_t) Mmap(v *vfs.Vnode) (*memobj.Mobj, defs.Err_t) {
	v.Mobj.Ref()
	return v.Mobj, 0
}

func (fs *Fs_t) Lookup(parent *vfs.Vnode, name string) (*vfs.Vnode, defs.Err_t) {
	_, childIno, err := fs.findDirent(uint32(parent.Ino), parent.Length, name)
	if err != 0 {
		return nil, err
	}
	return fs.vget(childIno)
}

func (fs *Fs_t) vget(ino uint32) (*vfs.Vnode, defs.Err_t) {
	return fs.cache.Vget(fs, uint64(ino))
}

func (fs *Fs_t) Mknod(parent *vfs.Vnode, name string, typ defs.Type_t, devid uint32) (*vfs.Vnode, defs.Err_t) {
	ino, err := fs.allocInode(uint32(typ), devid)
	if err != 0 {
		return nil, err
	}
	h, err := fs.GetInode(ino, true)
	if err != 0 {
		return nil, err
	}
	h.SetNlink(1)
	now := fs.clock.Now().Unix()
	h.SetMtime(now)
	h.Release()

	newLen, lerr := fs.linkDirent(uint32(parent.Ino), parent.Length, name, ino)
	if lerr != 0 {
		fs.freeInode(ino)
		return nil, lerr
	}
	parent.Length = newLen
	ph, perr := fs.GetInode(uint32(parent.Ino), true)
	if perr == 0 {
		ph.SetSize(uint32(newLen))
		ph.Release()
	}
	return fs.vget(ino)
}

func (fs *Fs_t) Mkdir(parent *vfs.Vnode, name string) (*vfs.Vnode, defs.Err_t) {
	child, err := fs.Mknod(parent, name, defs.T_DIR, 0)
	if err != 0 {
		return nil, err
	}
	if err := fs.initDir(uint32(child.Ino), uint32(parent.Ino)); err != 0 {
		return nil, err
	}
	child.Length = 2 * dirEntrySize
	child.Nlink = 2
	chh, cherr := fs.GetInode(uint32(child.Ino), true)
	if cherr == 0 {
		chh.SetNlink(2)
		chh.Release()
	}

	ph, perr := fs.GetInode(uint32(parent.Ino), true)
	if perr == 0 {
		ph.SetNlink(ph.Nlink() + 1)
		ph.Release()
		parent.Nlink++
	}
	return child, 0
}

func (fs *Fs_t) Link(parent *vfs.Vnode, name string, child *vfs.Vnode) defs.Err_t {
	newLen, err := fs.linkDirent(uint32(parent.Ino), parent.Length, name, uint32(child.Ino))
	if err != 0 {
		return err
	}
	parent.Length = newLen
	ph, _ := fs.GetInode(uint32(parent.Ino), true)
	ph.SetSize(uint32(newLen))
	ph.Release()

	ch, err := fs.GetInode(uint32(child.Ino), true)
	if err != 0 {
		return err
	}
	ch.SetNlink(ch.Nlink() + 1)
	ch.Release()
	child.Nlink++
	return 0
}

func (fs *Fs_t) Unlink(parent *vfs.Vnode, name string) defs.Err_t {
	pos, childIno, err := fs.findDirent(uint32(parent.Ino), parent.Length, name)
	if err != 0 {
		return err
	}
	ch, err := fs.GetInode(childIno, true)
	if err != 0 {
		return err
	}
	if ch.Type() == typeDir {
		ch.Release()
		return defs.EISDIR
	}
	newLen, rerr := fs.removeDirentAt(uint32(parent.Ino), parent.Length, pos)
	if rerr != 0 {
		ch.Release()
		return rerr
	}
	parent.Length = newLen
	ph, _ := fs.GetInode(uint32(parent.Ino), true)
	ph.SetSize(uint32(newLen))
	ph.Release()

	ch.SetNlink(ch.Nlink() - 1)
	ch.Release()
	return 0
}

func (fs *Fs_t) Rmdir(parent *vfs.Vnode, name string) defs.Err_t {
	pos, childIno, err := fs.findDirent(uint32(parent.Ino), parent.Length, name)
	if err != 0 {
		return err
	}
	ch, err := fs.GetInode(childIno, false)
	if err != 0 {
		return err
	}
	if ch.Type() != typeDir {
		ch.Release()
		return defs.ENOTDIR
	}
	if ch.Size() > 2*dirEntrySize {
		ch.Release()
		return defs.ENOTEMPTY
	}
	ch.Release()

	newLen, rerr := fs.removeDirentAt(uint32(parent.Ino), parent.Length, pos)
	if rerr != 0 {
		return rerr
	}
	parent.Length = newLen
	ph, _ := fs.GetInode(uint32(parent.Ino), true)
	ph.SetNlink(ph.Nlink() - 1)
	ph.SetSize(uint32(newLen))
	ph.Release()
	parent.Nlink--

	chh, err := fs.GetInode(childIno, true)
	if err != 0 {
		return err
	}
	chh.SetNlink(0)
	chh.Release()
	return 0
}

func (fs *Fs_t) Rename(oldParent *vfs.Vnode, oldName string, newParent *vfs.Vnode, newName string) defs.Err_t {
	_, oldIno, err := fs.findDirent(uint32(oldParent.Ino), oldParent.Length, oldName)
	if err != 0 {
		return err
	}
	oh, err := fs.GetInode(oldIno, false)
	if err != 0 {
		return err
	}
	if oh.Type() == typeDir {
		oh.Release()
		return defs.EISDIR
	}
	oh.Release()

	if pos, existingIno, ferr := fs.findDirent(uint32(newParent.Ino), newParent.Length, newName); ferr == 0 {
		eh, err := fs.GetInode(existingIno, false)
		if err != 0 {
			return err
		}
		if eh.Type() == typeDir {
			eh.Release()
			return defs.EISDIR
		}
		eh.Release()
		newLen, rerr := fs.removeDirentAt(uint32(newParent.Ino), newParent.Length, pos)
		if rerr != 0 {
			return rerr
		}
		newParent.Length = newLen
		dh, _ := fs.GetInode(existingIno, true)
		dh.SetNlink(dh.Nlink() - 1)
		dh.Release()
	}

	newLen, lerr := fs.linkDirent(uint32(newParent.Ino), newParent.Length, newName, oldIno)
	if lerr != 0 {
		return lerr
	}
	newParent.Length = newLen
	nph, _ := fs.GetInode(uint32(newParent.Ino), true)
	nph.SetSize(uint32(newLen))
	nph.Release()

	pos, _, _ := fs.findDirent(uint32(oldParent.Ino), oldParent.Length, oldName)
	oldLen, rerr := fs.removeDirentAt(uint32(oldParent.Ino), oldParent.Length, pos)
	if rerr != 0 {
		return rerr
	}
	oldParent.Length = oldLen
	oph, _ := fs.GetInode(uint32(oldParent.Ino), true)
	oph.SetSize(uint32(oldLen))
	oph.Release()
	return 0
}

func (fs *Fs_t) Readdir(dir *vfs.Vnode, offset int) (name string, ino uint64, recordLen int, err defs.Err_t) {
	if uint64(offset) >= dir.Length {
		return "", 0, 0, 0
	}
	buf := make([]byte, direntDiskSize)
	n, rerr := fs.ReadFile(uint32(dir.Ino), dir.Length, int64(offset), buf)
	if rerr != 0 {
		return "", 0, 0, rerr
	}
	if n < direntDiskSize {
		return "", 0, 0, 0
	}
	d := readDirent(buf)
	if d.nameLen() == 0 {
		return "", 0, dirEntrySize, 0
	}
	return d.nameStr(), uint64(d.Ino), dirEntrySize, 0
}

func (fs *Fs_t) Read(v *vfs.Vnode, pos int64, buf []byte) (int, defs.Err_t) {
	return fs.ReadFile(uint32(v.Ino), v.Length, pos, buf)
}

func (fs *Fs_t) Write(v *vfs.Vnode, pos int64, buf []byte) (int, defs.Err_t) {
	n, newLen, err := fs.WriteFile(uint32(v.Ino), pos, buf)
	grew := newLen > v.Length
	if n > 0 || grew {
		// writer-lock-through-commit: inode.size/mtime are committed
		// first, then the in-memory vnode fields, both before the
		// caller releases v's mutex.
		now := fs.clock.Now().Unix()
		h, ierr := fs.GetInode(uint32(v.Ino), true)
		if ierr == 0 {
			if grew {
				h.SetSize(uint32(newLen))
			}
			if n > 0 {
				h.SetMtime(now)
			}
			h.Release()
		}
		if n > 0 {
			v.Mtime = now
		}
		if grew {
			v.Length = newLen
		}
	}
	return n, err
}

func (fs *Fs_t) Stat(v *vfs.Vnode, st *stat.Stat_t) {
	st.Wmode(uint64(v.Mode))
	st.Wsize(v.Length)
	st.Wino(v.Ino)
	st.Wnlink(uint64(v.Nlink))
	st.Wrdev(uint64(v.Devid))
	st.Wblocks(blockCount(v.Length))
	st.Wmtime(v.Mtime)
}

func blockCount(length uint64) uint64 {
	const bsize = 4096
	return util.Roundup(length, bsize) / bsize
}

func (fs *Fs_t) DeleteVnode(v *vfs.Vnode) defs.Err_t {
	ino := uint32(v.Ino)
	h, err := fs.GetInode(ino, true)
	if err != 0 {
		return err
	}
	for _, blk := range h.rec.Direct {
		if blk != BlockNone {
			fs.freeBlock(blk)
		}
	}
	if h.rec.Indirect != BlockNone {
		f, ferr := fs.bdev.GetPframe(int(h.rec.Indirect), false)
		if ferr == 0 {
			for off := 0; off+4 <= len(f.Data); off += 4 {
				b := uint32(util.Readn(f.Data, 4, off))
				if b != BlockNone {
					fs.freeBlock(b)
				}
			}
			f.Release()
		}
		fs.freeBlock(h.rec.Indirect)
	}
	h.Release()
	return fs.freeInode(ino)
}

func (fs *Fs_t) WriteVnode(v *vfs.Vnode) defs.Err_t {
	h, err := fs.GetInode(uint32(v.Ino), true)
	if err != 0 {
		return err
	}
	h.SetSize(uint32(v.Length))
	h.SetNlink(v.Nlink)
	h.SetMtime(v.Mtime)
	h.Release()
	return 0
}
