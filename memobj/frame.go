// Package memobj implements the block cache and memory-object layer:
// page frames cached per (memory-object, index), and the four memory
// object variants (block device, file, anonymous, shadow) that S5FS and
// the address-space manager build on.
package memobj

import "sync"

/// Frame is one cached page. Its owner back-pointer is weak: a frame
/// cannot outlive its owning Mobj because Mobj.Put's final release evicts
/// every resident frame before the Mobj itself is discarded.
type Frame struct {
	mu    sync.Mutex
	owner *Mobj
	Index int
	Data  []byte
	dirty bool
}

/// Lock acquires the frame's mutex. get_pframe returns with this held;
/// the caller releases it via Release.
func (f *Frame) Lock() { f.mu.Lock() }

/// Release releases the frame's mutex without writing back; writeback
/// happens only via Mobj.Flush.
func (f *Frame) Release() { f.mu.Unlock() }

/// MarkDirty flags the frame as holding modifications not yet on disk.
func (f *Frame) MarkDirty() { f.dirty = true }

/// ClearDirty drops the frame's dirty flag without writing it back; used
/// when a block is freed and its stale contents no longer matter.
func (f *Frame) ClearDirty() { f.dirty = false }

/// Dirty reports whether the frame has unflushed modifications.
func (f *Frame) Dirty() bool { return f.dirty }

/// Owner returns the memory object this frame belongs to.
func (f *Frame) Owner() *Mobj { return f.owner }

/// NewZeroFrame returns a fresh, already-locked, zero-filled frame that
/// belongs to no Mobj. A BackingFiller returns one of these for an index
/// with nothing to alias yet — a sparse file hole that has no disk block —
/// so the caller sees zeros without anything caching a copy.
func NewZeroFrame(index, size int) *Frame {
	f := &Frame{Index: index, Data: make([]byte, size)}
	f.mu.Lock()
	return f
}
