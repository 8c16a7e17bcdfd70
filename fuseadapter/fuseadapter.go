// Package fuseadapter mounts an s5fs.Fs_t as a real kernel filesystem via
// github.com/jacobsa/fuse, translating fuseops.Op calls into the vnode
// cache's ops the way vfs.Process translates POSIX syscalls. It
// implements fuseutil.FileSystem; symlinks are left to
// NotImplementedFileSystem's ENOSYS default.
package fuseadapter

import (
	"sync"

	"github.com/jacobsa/fuse/fuseops"
	"github.com/jacobsa/fuse/fuseutil"

	"github.com/s5kern/wfs/s5fs"
	"github.com/s5kern/wfs/vfs"
)

/// FS adapts a mounted s5fs.Fs_t to fuseutil.FileSystem. A vnode's own
/// reference count IS the inode table FUSE expects: LookUpInode/MkDir/
/// CreateFile each hand back one vfs.Cache reference, consumed one at a
/// time by ForgetInode, so no separate inode-ID map is needed — an
/// InodeID is simply a vnode's Ino (root is 1 in both numbering schemes).
type FS struct {
	fuseutil.NotImplementedFileSystem

	fs    *s5fs.Fs_t
	cache *vfs.Cache

	mu         sync.Mutex
	nextHandle fuseops.HandleID
	fileHandle map[fuseops.HandleID]*vfs.Vnode
	dirHandle  map[fuseops.HandleID]*vfs.Vnode
}

var _ fuseutil.FileSystem = (*FS)(nil)

/// New constructs an FS over an already-booted filesystem. The caller
/// must have called fs.SetCache(cache) and cache.Vget'd the root inode at
/// least once before mounting, so the root survives the first lookup.
func New(fs *s5fs.Fs_t, cache *vfs.Cache) *FS {
	return &FS{
		fs:         fs,
		cache:      cache,
		fileHandle: make(map[fuseops.HandleID]*vfs.Vnode),
		dirHandle:  make(map[fuseops.HandleID]*vfs.Vnode),
	}
}

func (a *FS) mintHandle() fuseops.HandleID {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nextHandle++
	return a.nextHandle
}

func (a *FS) putFileHandle(h fuseops.HandleID, v *vfs.Vnode) {
	a.mu.Lock()
	a.fileHandle[h] = v
	a.mu.Unlock()
}

func (a *FS) getFileHandle(h fuseops.HandleID) *vfs.Vnode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fileHandle[h]
}

func (a *FS) dropFileHandle(h fuseops.HandleID) *vfs.Vnode {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := a.fileHandle[h]
	delete(a.fileHandle, h)
	return v
}

func (a *FS) putDirHandle(h fuseops.HandleID, v *vfs.Vnode) {
	a.mu.Lock()
	a.dirHandle[h] = v
	a.mu.Unlock()
}

func (a *FS) getDirHandle(h fuseops.HandleID) *vfs.Vnode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.dirHandle[h]
}

func (a *FS) dropDirHandle(h fuseops.HandleID) *vfs.Vnode {
	a.mu.Lock()
	defer a.mu.Unlock()
	v := a.dirHandle[h]
	delete(a.dirHandle, h)
	return v
}

/// Init acknowledges the mount; the filesystem is already booted and
/// cached by the time New is called, so there is nothing left to set up.
func (a *FS) Init(op *fuseops.InitOp) {
	op.Respond(nil)
}
