package fuseadapter

import (
	"github.com/jacobsa/fuse/fuseops"

	"github.com/s5kern/wfs/defs"
	"github.com/s5kern/wfs/vfs"
)

func childEntry(v *vfs.Vnode) fuseops.ChildInodeEntry {
	v.Lock()
	attr := attrFromVnode(v)
	v.Unlock()
	return fuseops.ChildInodeEntry{
		Child:      fuseops.InodeID(v.Ino),
		Generation: 0,
		Attributes: attr,
	}
}

func (a *FS) LookUpInode(op *fuseops.LookUpInodeOp) {
	parent, err := a.cache.Vget(a.fs, uint64(op.Parent))
	if err != 0 {
		op.Respond(errno(err))
		return
	}
	parent.Lock()
	child, lerr := parent.Ops.Lookup(parent, op.Name)
	parent.Unlock()
	a.cache.Vput(parent)
	if lerr != 0 {
		op.Respond(errno(lerr))
		return
	}
	op.Entry = childEntry(child)
	op.Respond(nil)
}

func (a *FS) GetInodeAttributes(op *fuseops.GetInodeAttributesOp) {
	v, err := a.cache.Vget(a.fs, uint64(op.Inode))
	if err != 0 {
		op.Respond(errno(err))
		return
	}
	v.Lock()
	op.Attributes = attrFromVnode(v)
	v.Unlock()
	a.cache.Vput(v)
	op.Respond(nil)
}

// SetInodeAttributes supports only the attribute changes s5fs can
// represent (mtime); size/mode changes (truncate, chmod) are outside the
// core's Non-goals and are accepted without effect, matching the
// "no permission bits" and "no truncate path" simplifications noted in
// attr.go and vfs.Process.Open.
func (a *FS) SetInodeAttributes(op *fuseops.SetInodeAttributesOp) {
	v, err := a.cache.Vget(a.fs, uint64(op.Inode))
	if err != 0 {
		op.Respond(errno(err))
		return
	}
	v.Lock()
	if op.Mtime != nil {
		v.Mtime = op.Mtime.Unix()
	}
	op.Attributes = attrFromVnode(v)
	v.Unlock()
	a.cache.Vput(v)
	op.Respond(nil)
}

// ForgetInode releases the one vnode reference the kernel is giving back.
// This pack's ForgetInodeOp carries a single ID with no batch count, so
// one Vget+double-Vput nets exactly the -1 the vfs.Cache ref count needs
// (see FS's doc comment on using Ino as the InodeID directly).
func (a *FS) ForgetInode(op *fuseops.ForgetInodeOp) {
	v, err := a.cache.Vget(a.fs, uint64(op.ID))
	if err == 0 {
		a.cache.Vput(v)
		a.cache.Vput(v)
	}
	op.Respond(nil)
}

func (a *FS) MkDir(op *fuseops.MkDirOp) {
	parent, err := a.cache.Vget(a.fs, uint64(op.Parent))
	if err != 0 {
		op.Respond(errno(err))
		return
	}
	parent.Lock()
	child, merr := parent.Ops.Mkdir(parent, op.Name)
	parent.Unlock()
	a.cache.Vput(parent)
	if merr != 0 {
		op.Respond(errno(merr))
		return
	}
	op.Entry = childEntry(child)
	op.Respond(nil)
}

func (a *FS) CreateFile(op *fuseops.CreateFileOp) {
	parent, err := a.cache.Vget(a.fs, uint64(op.Parent))
	if err != 0 {
		op.Respond(errno(err))
		return
	}
	parent.Lock()
	child, merr := parent.Ops.Mknod(parent, op.Name, defs.T_FILE, 0)
	parent.Unlock()
	a.cache.Vput(parent)
	if merr != 0 {
		op.Respond(errno(merr))
		return
	}
	a.cache.Vref(child)
	handle := a.mintHandle()
	a.putFileHandle(handle, child)
	op.Entry = childEntry(child)
	op.Handle = handle
	op.Respond(nil)
}

func (a *FS) RmDir(op *fuseops.RmDirOp) {
	parent, err := a.cache.Vget(a.fs, uint64(op.Parent))
	if err != 0 {
		op.Respond(errno(err))
		return
	}
	parent.Lock()
	rerr := parent.Ops.Rmdir(parent, op.Name)
	parent.Unlock()
	a.cache.Vput(parent)
	op.Respond(errno(rerr))
}

func (a *FS) Unlink(op *fuseops.UnlinkOp) {
	parent, err := a.cache.Vget(a.fs, uint64(op.Parent))
	if err != 0 {
		op.Respond(errno(err))
		return
	}
	parent.Lock()
	uerr := parent.Ops.Unlink(parent, op.Name)
	parent.Unlock()
	a.cache.Vput(parent)
	op.Respond(errno(uerr))
}
