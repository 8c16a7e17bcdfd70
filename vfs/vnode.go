// Package vfs implements the polymorphic vnode layer: the vnode cache,
// path resolution, the per-process file-descriptor table, and the
// POSIX-like syscalls.
package vfs

import (
	"sync"

	"github.com/s5kern/wfs/defs"
	"github.com/s5kern/wfs/memobj"
	"github.com/s5kern/wfs/stat"
)

/// Vnode is the in-memory, reference-counted cache entry for one inode,
/// uniquely identified by (FileSystem, Ino). Its per-node mutex
/// serializes every modification to Mode/Length/directory content.
/// Filesystem-specific behavior is dispatched through Ops.
type Vnode struct {
	mu sync.Mutex

	FS  FileSystem
	Ino uint64

	Mode   defs.Type_t
	Length uint64
	Devid  uint32
	Nlink  uint32
	Mtime  int64

	refs int32

	Mobj *memobj.Mobj
	Ops  VnodeOps

	// Priv carries filesystem-private extra state (e.g. s5fs's
	// InodeHandle bookkeeping) that doesn't belong in the generic vnode.
	Priv interface{}
}

/// VnodeOps is the filesystem-supplied operation table a Vnode dispatches
/// through. Every method is implemented; an operation that does not apply
/// to a vnode's type returns an error code (s5fs's Unlink of a directory
/// returns EISDIR).
// Lookup and Mknod/Mkdir return a vnode with one reference already
// taken (as if through Cache.Vget); the caller releases it via Vput.
type VnodeOps interface {
	Lookup(parent *Vnode, name string) (*Vnode, defs.Err_t)
	Mknod(parent *Vnode, name string, typ defs.Type_t, devid uint32) (*Vnode, defs.Err_t)
	Mkdir(parent *Vnode, name string) (*Vnode, defs.Err_t)
	Link(parent *Vnode, name string, child *Vnode) defs.Err_t
	Unlink(parent *Vnode, name string) defs.Err_t
	Rmdir(parent *Vnode, name string) defs.Err_t
	Rename(oldParent *Vnode, oldName string, newParent *Vnode, newName string) defs.Err_t
	Readdir(dir *Vnode, offset int) (name string, ino uint64, recordLen int, err defs.Err_t)
	Read(v *Vnode, pos int64, buf []byte) (int, defs.Err_t)
	Write(v *Vnode, pos int64, buf []byte) (int, defs.Err_t)
	Stat(v *Vnode, st *stat.Stat_t)
	DeleteVnode(v *Vnode) defs.Err_t
	WriteVnode(v *Vnode) defs.Err_t

	// Mmap returns v's backing memory object for the address-space
	// manager to map, with one reference taken on the caller's behalf.
	Mmap(v *Vnode) (*memobj.Mobj, defs.Err_t)
}

/// FileSystem is the collaborator a mounted filesystem gives the vnode
/// cache: how to manufacture a Vnode for an inode number not yet cached.
type FileSystem interface {
	ReadVnode(ino uint64) (*Vnode, defs.Err_t)
	RootIno() uint64
}

/// Lock acquires the vnode's mutex.
func (v *Vnode) Lock() { v.mu.Lock() }

/// Unlock releases the vnode's mutex.
func (v *Vnode) Unlock() { v.mu.Unlock() }

/// ref increments the vnode's reference count.
func (v *Vnode) ref() {
	v.mu.Lock()
	v.refs++
	v.mu.Unlock()
}
