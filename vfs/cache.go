package vfs

import (
	"sync"

	"github.com/s5kern/wfs/defs"
)

/// cacheKey uniquely identifies a vnode by (filesystem, inode number),
/// enforcing at most one resident vnode per (fs, ino) pair.
type cacheKey struct {
	fs  FileSystem
	ino uint64
}

/// Cache is the vnode cache shared by every Process built over it (Fork
/// hands the child the parent's Cache), keyed by (fs, ino). A plain mutex-guarded map is the idiomatic choice at
/// this scale; see DESIGN.md for why the teacher's lock-free hashtable
/// was not ported.
type Cache struct {
	mu sync.Mutex
	m  map[cacheKey]*Vnode
}

/// NewCache constructs an empty vnode cache.
func NewCache() *Cache {
	return &Cache{m: make(map[cacheKey]*Vnode)}
}

/// Vget returns an existing cached vnode with its reference count
/// incremented, or reads one from disk via the filesystem's ReadVnode
/// and inserts it.
func (c *Cache) Vget(fs FileSystem, ino uint64) (*Vnode, defs.Err_t) {
	key := cacheKey{fs, ino}

	c.mu.Lock()
	if v, ok := c.m[key]; ok {
		c.mu.Unlock()
		v.ref()
		return v, nil
	}
	c.mu.Unlock()

	v, err := fs.ReadVnode(ino)
	if err != 0 {
		return nil, err
	}
	v.FS = fs
	v.Ino = ino
	v.refs = 1

	c.mu.Lock()
	if existing, ok := c.m[key]; ok {
		// Lost the race to populate the cache; discard our read.
		c.mu.Unlock()
		existing.ref()
		return existing, nil
	}
	c.m[key] = v
	c.mu.Unlock()
	return v, nil
}

/// VgetLocked is Vget but returns the vnode with its mutex already held,
/// avoiding a re-lock race during multi-step operations.
func (c *Cache) VgetLocked(fs FileSystem, ino uint64) (*Vnode, defs.Err_t) {
	v, err := c.Vget(fs, ino)
	if err != 0 {
		return nil, err
	}
	v.Lock()
	return v, 0
}

/// Vref adds a reference to an already-cached vnode.
func (c *Cache) Vref(v *Vnode) {
	v.ref()
}

/// Vput releases one reference. On the last release, if the vnode's link
/// count is zero, its filesystem's DeleteVnode is invoked and the entry
/// is dropped from the cache; otherwise any dirtied inode state is
/// written back.
func (c *Cache) Vput(v *Vnode) defs.Err_t {
	v.mu.Lock()
	v.refs--
	last := v.refs == 0
	v.mu.Unlock()
	if !last {
		return 0
	}

	c.mu.Lock()
	delete(c.m, cacheKey{v.FS, v.Ino})
	c.mu.Unlock()

	v.mu.Lock()
	nlink := v.Nlink
	v.mu.Unlock()

	if nlink == 0 {
		if err := v.Ops.DeleteVnode(v); err != 0 {
			return err
		}
		return 0
	}
	return v.Ops.WriteVnode(v)
}

/// VputLocked releases a vnode the caller holds locked.
func (c *Cache) VputLocked(v *Vnode) defs.Err_t {
	v.mu.Unlock()
	return c.Vput(v)
}

/// Count reports the number of vnodes currently resident, for the
/// open-vnode gauge.
func (c *Cache) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.m)
}
