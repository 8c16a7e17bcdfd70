package fuseadapter

import (
	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"

	"github.com/s5kern/wfs/defs"
)

func (a *FS) OpenDir(op *fuseops.OpenDirOp) {
	v, err := a.cache.Vget(a.fs, uint64(op.Inode))
	if err != 0 {
		op.Respond(errno(err))
		return
	}
	if v.Mode != defs.T_DIR {
		a.cache.Vput(v)
		op.Respond(errno(defs.ENOTDIR))
		return
	}
	handle := a.mintHandle()
	a.putDirHandle(handle, v)
	op.Handle = handle
	op.Respond(nil)
}

// ReadDir walks s5fs.Fs_t's directory entries the way vfs.Process.Getdents
// does, one on-disk record at a time, appending each into a fresh buffer
// via fuseutil.WriteDirent until a record would not fit or op.Size is hit.
// Entry type is left as the zero value (unknown); the kernel falls back to
// a later GetInodeAttributes rather than trusting it.
func (a *FS) ReadDir(op *fuseops.ReadDirOp) {
	v := a.getDirHandle(op.Handle)
	if v == nil {
		op.Respond(errno(defs.EBADF))
		return
	}

	buf := make([]byte, 0, op.Size)
	pos := int(op.Offset)
	v.Lock()
	for len(buf) < op.Size {
		name, ino, reclen, rerr := v.Ops.Readdir(v, pos)
		if rerr != 0 {
			v.Unlock()
			op.Respond(errno(rerr))
			return
		}
		if reclen == 0 {
			break
		}
		if name != "" {
			n := fuseutil.WriteDirent(buf[len(buf):op.Size], fuseops.Dirent{
				Offset: fuseops.DirOffset(pos + reclen),
				Inode:  fuseops.InodeID(ino),
				Name:   name,
			})
			if n == 0 {
				break
			}
			buf = buf[:len(buf)+n]
		}
		pos += reclen
	}
	v.Unlock()
	op.Data = buf
	op.Respond(nil)
}

func (a *FS) ReleaseDirHandle(op *fuseops.ReleaseDirHandleOp) {
	v := a.dropDirHandle(op.Handle)
	if v != nil {
		a.cache.Vput(v)
	}
	op.Respond(nil)
}
