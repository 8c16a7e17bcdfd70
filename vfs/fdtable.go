package vfs

import (
	"sync"

	"github.com/s5kern/wfs/defs"
	"github.com/s5kern/wfs/limits"
	"github.com/s5kern/wfs/pathname"
)

/// FileHandle is what a file descriptor refers to: a vnode reference,
/// open-mode flags, and a shared current position. Duplicates (dup/dup2)
/// share one FileHandle and thus its position.
type FileHandle struct {
	mu     sync.Mutex
	Vnode  *Vnode
	Flags  int
	Pos    int64
	refs   int32
	cache  *Cache
}

func (h *FileHandle) ref() {
	h.mu.Lock()
	h.refs++
	h.mu.Unlock()
}

func (h *FileHandle) put() {
	h.mu.Lock()
	h.refs--
	last := h.refs == 0
	h.mu.Unlock()
	if last {
		h.cache.Vput(h.Vnode)
	}
}

/// Fd wraps a FileHandle reference plus descriptor-local flags
/// (FD_CLOEXEC), mirroring the teacher's Fd_t/Copyfd split between
/// per-descriptor and per-handle state.
type Fd struct {
	Handle  *FileHandle
	Cloexec bool
}

/// FdTable is a per-process fixed-size table of file descriptors.
type FdTable struct {
	mu   sync.Mutex
	fds  [limits.NOFILE]*Fd
}

/// NewFdTable constructs an empty file-descriptor table.
func NewFdTable() *FdTable {
	return &FdTable{}
}

/// GetEmptyFd returns the lowest unused descriptor index, or EMFILE if
/// the table is full.
func (t *FdTable) GetEmptyFd() (int, defs.Err_t) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, f := range t.fds {
		if f == nil {
			return i, 0
		}
	}
	return 0, defs.EMFILE
}

/// Install places fd into slot n, which must be empty.
func (t *FdTable) Install(n int, fd *Fd) {
	t.mu.Lock()
	t.fds[n] = fd
	t.mu.Unlock()
}

/// Fget returns the Fd at n, or EBADF if unset.
func (t *FdTable) Fget(n int) (*Fd, defs.Err_t) {
	if n < 0 || n >= limits.NOFILE {
		return nil, defs.EBADF
	}
	t.mu.Lock()
	fd := t.fds[n]
	t.mu.Unlock()
	if fd == nil {
		return nil, defs.EBADF
	}
	return fd, 0
}

/// Fput closes descriptor n: releases the handle's reference (closing
/// the underlying vnode if this was the last reference) and clears the
/// slot.
func (t *FdTable) Fput(n int) defs.Err_t {
	t.mu.Lock()
	fd := t.fds[n]
	t.fds[n] = nil
	t.mu.Unlock()
	if fd == nil {
		return defs.EBADF
	}
	fd.Handle.put()
	return 0
}

/// Clone returns a fresh FdTable with the same descriptor slots as t,
/// each handle gaining a reference — the fork(2) descriptor-table
/// duplication semantics, where the child's fd N refers to the same
/// open-file state as the parent's.
func (t *FdTable) Clone() *FdTable {
	t.mu.Lock()
	defer t.mu.Unlock()
	n := &FdTable{}
	for i, fd := range t.fds {
		if fd == nil {
			continue
		}
		fd.Handle.ref()
		n.fds[i] = &Fd{Handle: fd.Handle, Cloexec: fd.Cloexec}
	}
	return n
}

/// DoDup allocates a fresh descriptor aliasing old's handle.
func (t *FdTable) DoDup(old int) (int, defs.Err_t) {
	oldfd, err := t.Fget(old)
	if err != 0 {
		return 0, err
	}
	n, err := t.GetEmptyFd()
	if err != 0 {
		return 0, err
	}
	oldfd.Handle.ref()
	t.Install(n, &Fd{Handle: oldfd.Handle})
	return n, 0
}

/// DoDup2 aliases new to old's handle, closing new first if it was open.
/// A no-op when old == new.
func (t *FdTable) DoDup2(old, new int) defs.Err_t {
	if old == new {
		if _, err := t.Fget(old); err != 0 {
			return err
		}
		return 0
	}
	oldfd, err := t.Fget(old)
	if err != 0 {
		return err
	}
	if _, err := t.Fget(new); err == 0 {
		t.Fput(new)
	}
	oldfd.Handle.ref()
	t.Install(new, &Fd{Handle: oldfd.Handle})
	return 0
}

/// Cwd tracks a process's current working directory, mirroring the
/// teacher's Cwd_t.
type Cwd struct {
	mu   sync.Mutex
	Vn   *Vnode
	Path pathname.Path
}

/// MkRootCwd constructs a Cwd rooted at "/".
func MkRootCwd(root *Vnode) *Cwd {
	return &Cwd{Vn: root, Path: pathname.MkRoot()}
}

/// Fullpath joins cwd with p if p is not already absolute.
func (cwd *Cwd) Fullpath(p pathname.Path) pathname.Path {
	cwd.mu.Lock()
	defer cwd.mu.Unlock()
	if p.IsAbsolute() {
		return p
	}
	return cwd.Path.Extend(p)
}

/// Chdir swaps the cwd vnode, releasing the old one. The caller supplies
/// an already-referenced new vnode (e.g. from NamevOpen).
func (cwd *Cwd) Chdir(cache *Cache, newVn *Vnode, newPath pathname.Path) {
	cwd.mu.Lock()
	old := cwd.Vn
	cwd.Vn = newVn
	cwd.Path = newPath
	cwd.mu.Unlock()
	cache.Vput(old)
}
