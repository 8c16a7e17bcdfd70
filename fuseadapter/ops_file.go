package fuseadapter

import (
	"github.com/jacobsa/fuse/fuseops"

	"github.com/s5kern/wfs/defs"
)

func (a *FS) OpenFile(op *fuseops.OpenFileOp) {
	v, err := a.cache.Vget(a.fs, uint64(op.Inode))
	if err != 0 {
		op.Respond(errno(err))
		return
	}
	handle := a.mintHandle()
	a.putFileHandle(handle, v)
	op.Handle = handle
	op.Respond(nil)
}

func (a *FS) ReadFile(op *fuseops.ReadFileOp) {
	v := a.getFileHandle(op.Handle)
	if v == nil {
		op.Respond(errno(defs.EBADF))
		return
	}
	buf := make([]byte, op.Size)
	v.Lock()
	n, rerr := v.Ops.Read(v, op.Offset, buf)
	v.Unlock()
	if rerr != 0 {
		op.Respond(errno(rerr))
		return
	}
	op.Data = buf[:n]
	op.Respond(nil)
}

func (a *FS) WriteFile(op *fuseops.WriteFileOp) {
	v := a.getFileHandle(op.Handle)
	if v == nil {
		op.Respond(errno(defs.EBADF))
		return
	}
	v.Lock()
	_, werr := v.Ops.Write(v, op.Offset, op.Data)
	v.Unlock()
	op.Respond(errno(werr))
}

// SyncFile/FlushFile both flush the filesystem's whole dirty-block set
// rather than just this inode's blocks: the block-device mobj is the
// only cache in this core, so there is no narrower unit to flush.
func (a *FS) SyncFile(op *fuseops.SyncFileOp) {
	op.Respond(errno(a.fs.Sync()))
}

func (a *FS) FlushFile(op *fuseops.FlushFileOp) {
	op.Respond(errno(a.fs.Sync()))
}

func (a *FS) ReleaseFileHandle(op *fuseops.ReleaseFileHandleOp) {
	v := a.dropFileHandle(op.Handle)
	if v != nil {
		a.cache.Vput(v)
	}
	op.Respond(nil)
}
