package vfs

import (
	"github.com/s5kern/wfs/defs"
	"github.com/s5kern/wfs/memobj"
	"github.com/s5kern/wfs/pathname"
	"github.com/s5kern/wfs/stat"
	"github.com/s5kern/wfs/vmm"
)

/// Process bundles the per-process VFS state a syscall needs: the shared
/// vnode cache, this process's descriptor table, its cwd, and its
/// address space.
type Process struct {
	Cache     *Cache
	Fds       *FdTable
	Cwd       *Cwd
	AddrSpace *vmm.AddressSpace
}

/// NewProcess constructs VFS state for a fresh process rooted at root.
/// Its address space starts empty, programmed against NullPageTable: this
/// core has no real MMU to drive, so mapped pages are materialized only
/// through the fault-on-access path (AddrSpace.Read/Write and the FUSE
/// adapter's page cache), never through an actual page-table write.
func NewProcess(cache *Cache, root *Vnode) *Process {
	return &Process{
		Cache:     cache,
		Fds:       NewFdTable(),
		Cwd:       MkRootCwd(root),
		AddrSpace: vmm.New(vmm.NullPageTable{}),
	}
}

/// Mmap implements mmap(2): MAP_ANON mappings get a fresh anonymous
/// memory object; otherwise fdno's vnode supplies the backing object via
/// its VnodeOps.Mmap. Returns the mapping's first virtual page number.
func (p *Process) Mmap(fdno int, lopage, npages uint64, prot, flags int, byteOff uint64) (uint64, defs.Err_t) {
	var backing *memobj.Mobj
	if flags&defs.MAP_ANON == 0 {
		fd, err := p.Fds.Fget(fdno)
		if err != 0 {
			return 0, err
		}
		v := fd.Handle.Vnode
		v.Lock()
		backing, err = v.Ops.Mmap(v)
		v.Unlock()
		if err != 0 {
			return 0, err
		}
	}
	vma, err := p.AddrSpace.Map(backing, lopage, npages, prot, flags, byteOff, vmm.DirLow)
	if err != 0 {
		return 0, err
	}
	return vma.Start, 0
}

/// Munmap implements munmap(2) over the process's own address space.
func (p *Process) Munmap(lopage, npages uint64) defs.Err_t {
	return p.AddrSpace.Unmap(lopage, npages)
}

/// Fork duplicates p's VFS-visible state for a child process: descriptor
/// table entries gain a reference rather than being reopened, the cwd
/// vnode gains a reference, and the address space is cloned through
/// vmm.AddressSpace.Clone (shared mappings stay shared; private mappings
/// become a copy-on-write shadow pair, one side reparenting the caller's
/// own VMA).
func (p *Process) Fork() *Process {
	p.Cwd.mu.Lock()
	cwdVn, cwdPath := p.Cwd.Vn, p.Cwd.Path
	p.Cwd.mu.Unlock()
	cwdVn.ref()

	child := &Process{
		Cache:     p.Cache,
		Fds:       p.Fds.Clone(),
		Cwd:       &Cwd{Vn: cwdVn, Path: cwdPath},
		AddrSpace: vmm.New(vmm.NullPageTable{}),
	}
	p.AddrSpace.Clone(child.AddrSpace)
	return child
}

/// Open resolves path and installs a descriptor for it, honoring O_CREAT
/// and O_EXCL; O_TRUNC truncation is not modeled since writes go through
/// Write directly (no separate truncate path in this core).
func (p *Process) Open(path pathname.Path, oflags int, mode uint32) (int, defs.Err_t) {
	full := p.Cwd.Fullpath(path)
	vn, err := p.Cache.NamevOpen(p.Cwd.Vn, full, oflags, defs.T_FILE, 0)
	if err != 0 {
		return -1, err
	}
	if vn.Mode == defs.T_DIR && (oflags&(defs.O_WRONLY|defs.O_RDWR) != 0) {
		p.Cache.Vput(vn)
		return -1, defs.EISDIR
	}
	n, err := p.Fds.GetEmptyFd()
	if err != 0 {
		p.Cache.Vput(vn)
		return -1, err
	}
	h := &FileHandle{Vnode: vn, Flags: oflags, refs: 1, cache: p.Cache}
	p.Fds.Install(n, &Fd{Handle: h})
	return n, 0
}

/// Close releases a descriptor.
func (p *Process) Close(fdno int) defs.Err_t {
	return p.Fds.Fput(fdno)
}

/// Read reads into buf at the handle's current position and advances it.
/// Directories return EISDIR (use Getdents instead).
func (p *Process) Read(fdno int, buf []byte) (int, defs.Err_t) {
	fd, err := p.Fds.Fget(fdno)
	if err != 0 {
		return -1, err
	}
	v := fd.Handle.Vnode
	if v.Mode == defs.T_DIR {
		return -1, defs.EISDIR
	}
	fd.Handle.mu.Lock()
	pos := fd.Handle.Pos
	fd.Handle.mu.Unlock()

	v.Lock()
	n, rerr := v.Ops.Read(v, pos, buf)
	v.Unlock()
	if rerr != 0 {
		return -1, rerr
	}
	fd.Handle.mu.Lock()
	fd.Handle.Pos += int64(n)
	fd.Handle.mu.Unlock()
	return n, 0
}

/// Write writes buf at the handle's position (or at EOF, under the vnode
/// lock, if opened O_APPEND) and advances the position.
func (p *Process) Write(fdno int, buf []byte) (int, defs.Err_t) {
	fd, err := p.Fds.Fget(fdno)
	if err != 0 {
		return -1, err
	}
	v := fd.Handle.Vnode

	v.Lock()
	fd.Handle.mu.Lock()
	if fd.Handle.Flags&defs.O_APPEND != 0 {
		fd.Handle.Pos = int64(v.Length)
	}
	pos := fd.Handle.Pos
	fd.Handle.mu.Unlock()

	n, werr := v.Ops.Write(v, pos, buf)
	v.Unlock()
	if werr != 0 && n == 0 {
		return -1, werr
	}
	fd.Handle.mu.Lock()
	fd.Handle.Pos += int64(n)
	fd.Handle.mu.Unlock()
	return n, 0
}

/// Lseek repositions the handle per whence, rejecting a negative result.
func (p *Process) Lseek(fdno int, offset int64, whence int) (int64, defs.Err_t) {
	fd, err := p.Fds.Fget(fdno)
	if err != 0 {
		return -1, err
	}
	v := fd.Handle.Vnode
	fd.Handle.mu.Lock()
	defer fd.Handle.mu.Unlock()
	var newPos int64
	switch whence {
	case defs.SEEK_SET:
		newPos = offset
	case defs.SEEK_CUR:
		newPos = fd.Handle.Pos + offset
	case defs.SEEK_END:
		v.Lock()
		newPos = int64(v.Length) + offset
		v.Unlock()
	default:
		return -1, defs.EINVAL
	}
	if newPos < 0 {
		return -1, defs.EINVAL
	}
	fd.Handle.Pos = newPos
	return newPos, 0
}

/// Dup duplicates a descriptor.
func (p *Process) Dup(fdno int) (int, defs.Err_t) {
	return p.Fds.DoDup(fdno)
}

/// Dup2 aliases newfd to oldfd.
func (p *Process) Dup2(oldfd, newfd int) defs.Err_t {
	return p.Fds.DoDup2(oldfd, newfd)
}

/// Mkdir creates a directory at path.
func (p *Process) Mkdir(path pathname.Path, mode uint32) defs.Err_t {
	full := p.Cwd.Fullpath(path)
	dir, base, err := p.Cache.NamevDir(p.Cwd.Vn, full)
	if err != 0 {
		return err
	}
	dir.Lock()
	child, err := dir.Ops.Mkdir(dir, base)
	dir.Unlock()
	p.Cache.Vput(dir)
	if err != 0 {
		return err
	}
	p.Cache.Vput(child)
	return 0
}

/// Rmdir removes an empty directory at path.
func (p *Process) Rmdir(path pathname.Path) defs.Err_t {
	full := p.Cwd.Fullpath(path)
	dir, base, err := p.Cache.NamevDir(p.Cwd.Vn, full)
	if err != 0 {
		return err
	}
	dir.Lock()
	err = dir.Ops.Rmdir(dir, base)
	dir.Unlock()
	p.Cache.Vput(dir)
	return err
}

/// Unlink removes a non-directory entry at path.
func (p *Process) Unlink(path pathname.Path) defs.Err_t {
	full := p.Cwd.Fullpath(path)
	dir, base, err := p.Cache.NamevDir(p.Cwd.Vn, full)
	if err != 0 {
		return err
	}
	dir.Lock()
	err = dir.Ops.Unlink(dir, base)
	dir.Unlock()
	p.Cache.Vput(dir)
	return err
}

/// Mknod creates a device/special node at path.
func (p *Process) Mknod(path pathname.Path, typ defs.Type_t, devid uint32) defs.Err_t {
	full := p.Cwd.Fullpath(path)
	dir, base, err := p.Cache.NamevDir(p.Cwd.Vn, full)
	if err != 0 {
		return err
	}
	dir.Lock()
	child, err := dir.Ops.Mknod(dir, base, typ, devid)
	dir.Unlock()
	p.Cache.Vput(dir)
	if err != 0 {
		return err
	}
	p.Cache.Vput(child)
	return 0
}

/// Link creates a new name for an existing vnode.
func (p *Process) Link(oldpath, newpath pathname.Path) defs.Err_t {
	oldfull := p.Cwd.Fullpath(oldpath)
	target, err := p.Cache.NamevOpen(p.Cwd.Vn, oldfull, 0, 0, 0)
	if err != 0 {
		return err
	}
	defer p.Cache.Vput(target)

	newfull := p.Cwd.Fullpath(newpath)
	dir, base, err := p.Cache.NamevDir(p.Cwd.Vn, newfull)
	if err != 0 {
		return err
	}
	defer p.Cache.Vput(dir)

	a, b := orderVnodes(dir, target)
	a.Lock()
	if b != a {
		b.Lock()
	}
	err = dir.Ops.Link(dir, base, target)
	if b != a {
		b.Unlock()
	}
	a.Unlock()
	return err
}

/// Rename moves oldpath to newpath (non-directories only, per the core's
/// Non-goals excluding cross-directory directory rename).
func (p *Process) Rename(oldpath, newpath pathname.Path) defs.Err_t {
	oldfull := p.Cwd.Fullpath(oldpath)
	oldDir, oldBase, err := p.Cache.NamevDir(p.Cwd.Vn, oldfull)
	if err != 0 {
		return err
	}
	defer p.Cache.Vput(oldDir)

	newfull := p.Cwd.Fullpath(newpath)
	newDir, newBase, err := p.Cache.NamevDir(p.Cwd.Vn, newfull)
	if err != 0 {
		return err
	}
	defer p.Cache.Vput(newDir)

	a, b := orderVnodes(oldDir, newDir)
	a.Lock()
	if b != a {
		b.Lock()
	}
	err = oldDir.Ops.Rename(oldDir, oldBase, newDir, newBase)
	if b != a {
		b.Unlock()
	}
	a.Unlock()
	return err
}

// orderVnodes returns (x, y) in a canonical order (by inode number) so
// two-vnode operations always acquire locks in the same order regardless
// of call direction, preventing A->B / B->A deadlock.
func orderVnodes(x, y *Vnode) (*Vnode, *Vnode) {
	if x == y {
		return x, y
	}
	if x.Ino <= y.Ino {
		return x, y
	}
	return y, x
}

/// Stat populates st for the vnode at path.
func (p *Process) Stat(path pathname.Path, st *stat.Stat_t) defs.Err_t {
	full := p.Cwd.Fullpath(path)
	vn, err := p.Cache.NamevOpen(p.Cwd.Vn, full, 0, 0, 0)
	if err != 0 {
		return err
	}
	defer p.Cache.Vput(vn)
	vn.Lock()
	vn.Ops.Stat(vn, st)
	vn.Unlock()
	return 0
}

/// Chdir changes the process's current working directory.
func (p *Process) Chdir(path pathname.Path) defs.Err_t {
	full := p.Cwd.Fullpath(path)
	vn, err := p.Cache.NamevOpen(p.Cwd.Vn, full, 0, 0, 0)
	if err != 0 {
		return err
	}
	if vn.Mode != defs.T_DIR {
		p.Cache.Vput(vn)
		return defs.ENOTDIR
	}
	p.Cwd.Chdir(p.Cache, vn, full)
	return 0
}

/// DirentRecord is one fixed-size record Getdents returns to the caller.
type DirentRecord struct {
	Ino  uint64
	Name string
}

/// Getdents returns one directory record at the handle's current
/// position and advances it by the on-disk entry size the filesystem's
/// Readdir reports, though the caller-visible record itself is a
/// constant size.
func (p *Process) Getdents(fdno int) (*DirentRecord, defs.Err_t) {
	fd, err := p.Fds.Fget(fdno)
	if err != 0 {
		return nil, err
	}
	v := fd.Handle.Vnode
	if v.Mode != defs.T_DIR {
		return nil, defs.ENOTDIR
	}
	fd.Handle.mu.Lock()
	pos := fd.Handle.Pos
	fd.Handle.mu.Unlock()

	v.Lock()
	name, ino, reclen, rerr := v.Ops.Readdir(v, int(pos))
	v.Unlock()
	if rerr != 0 {
		return nil, rerr
	}
	if reclen == 0 {
		return nil, 0 // EOF: caller sees a nil record
	}
	fd.Handle.mu.Lock()
	fd.Handle.Pos += int64(reclen)
	fd.Handle.mu.Unlock()
	return &DirentRecord{Ino: ino, Name: name}, 0
}

/// Ls is a getdents-driven convenience wrapper, generalizing
/// ufs.Ufs_t.Ls, that lists every entry in a directory.
func (p *Process) Ls(path pathname.Path) ([]DirentRecord, defs.Err_t) {
	full := p.Cwd.Fullpath(path)
	vn, err := p.Cache.NamevOpen(p.Cwd.Vn, full, 0, 0, 0)
	if err != 0 {
		return nil, err
	}
	defer p.Cache.Vput(vn)
	if vn.Mode != defs.T_DIR {
		return nil, defs.ENOTDIR
	}

	var out []DirentRecord
	pos := 0
	for {
		vn.Lock()
		name, ino, reclen, rerr := vn.Ops.Readdir(vn, pos)
		vn.Unlock()
		if rerr != 0 {
			return nil, rerr
		}
		if reclen == 0 {
			break
		}
		if name != "" {
			out = append(out, DirentRecord{Ino: ino, Name: name})
		}
		pos += reclen
	}
	return out, 0
}
