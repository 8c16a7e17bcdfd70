package vfs

import (
	"github.com/s5kern/wfs/defs"
	"github.com/s5kern/wfs/pathname"
)

/// NamevDir resolves all but the last component of path, returning the
/// directory vnode that would contain it (referenced, unlocked) plus the
/// final component's name.
func (c *Cache) NamevDir(base *Vnode, path pathname.Path) (dir *Vnode, basename string, err defs.Err_t) {
	comps := path.Components()
	if len(comps) == 0 {
		return nil, "", defs.EINVAL
	}
	start := base
	if path.IsAbsolute() {
		start = c.rootOf(base)
	}
	c.Vref(start)
	cur := start
	for _, comp := range comps[:len(comps)-1] {
		next, e := c.step(cur, comp.String())
		c.Vput(cur)
		if e != 0 {
			return nil, "", e
		}
		cur = next
	}
	return cur, comps[len(comps)-1].String(), 0
}

func (c *Cache) rootOf(base *Vnode) *Vnode {
	// The root is reachable by walking ".." from any vnode far enough, but
	// in practice callers pass the process's root vnode directly; base is
	// only used to recover the FileSystem to ask for RootIno.
	v, err := c.Vget(base.FS, base.FS.RootIno())
	if err != 0 {
		return base
	}
	return v
}

func (c *Cache) step(dir *Vnode, comp string) (*Vnode, defs.Err_t) {
	if comp == "." {
		c.Vref(dir)
		return dir, 0
	}
	dir.Lock()
	if dir.Mode != defs.T_DIR {
		dir.Unlock()
		return nil, defs.ENOTDIR
	}
	child, err := dir.Ops.Lookup(dir, comp)
	dir.Unlock()
	if err != 0 {
		return nil, err
	}
	return child, 0
}

/// NamevOpen resolves the full path to a vnode (referenced, unlocked).
/// With O_CREAT and the name absent, it creates the entry via the
/// parent's Mknod. If the path has a trailing slash the result must be a
/// directory.
func (c *Cache) NamevOpen(base *Vnode, path pathname.Path, oflags int, typ defs.Type_t, devid uint32) (*Vnode, defs.Err_t) {
	if path.IsAbsolute() && len(path.Components()) == 0 {
		// "/" names the root directory itself.
		return c.rootOf(base), 0
	}
	dir, basename, err := c.NamevDir(base, path)
	if err != 0 {
		return nil, err
	}
	if len(basename) > 255 {
		c.Vput(dir)
		return nil, defs.ENAMETOOLONG
	}

	dir.Lock()
	child, lerr := dir.Ops.Lookup(dir, basename)
	if lerr == defs.ENOENT && oflags&defs.O_CREAT != 0 {
		var cerr defs.Err_t
		child, cerr = dir.Ops.Mknod(dir, basename, typ, devid)
		lerr = cerr
	} else if lerr == 0 && oflags&defs.O_CREAT != 0 && oflags&defs.O_EXCL != 0 {
		dir.Unlock()
		c.Vput(dir)
		c.Vput(child)
		return nil, defs.EEXIST
	}
	dir.Unlock()
	c.Vput(dir)
	if lerr != 0 {
		return nil, lerr
	}

	if path.TrailingSlash() && child.Mode != defs.T_DIR {
		c.Vput(child)
		return nil, defs.ENOTDIR
	}
	return child, 0
}
