package memobj

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/s5kern/wfs/defs"
	"github.com/s5kern/wfs/limits"
)

/// Kind distinguishes the four memory-object variants.
type Kind int

const (
	KindBlockDevice Kind = iota
	KindFile
	KindAnon
	KindShadow
)

/// Filler supplies the per-variant I/O callbacks a Mobj delegates to on a
/// cache miss or on flush. Block-device mobjs fill from the disk;
/// anonymous mobjs zero-fill and never flush. A mobj built with a Filler
/// keeps its own cache of frames, independent of any other mobj.
type Filler interface {
	FillPframe(index int, dst []byte) defs.Err_t
	FlushPframe(index int, src []byte) defs.Err_t
}

/// BackingFiller is the alternative to Filler for a mobj whose pages are
/// not its own: every GetPframe call is handed straight to BackingFrame,
/// which resolves the index to someone else's already-cached Frame (or
/// hands back a fresh, untracked one) instead of filling a local copy. A
/// mobj built with a BackingFiller never populates its own frames map, so
/// it has nothing of its own to flush or evict — the frame's real owner
/// (if any) is the sole writeback authority. S5FS's file-mapping mobjs use
/// this so a file's mmap'd pages are literally the same cached pages
/// read() and write() go through on the underlying block device, rather
/// than a second, independently-dirtied copy.
type BackingFiller interface {
	BackingFrame(index int, forWrite bool) (*Frame, defs.Err_t)
}

/// Mobj is a polymorphic, reference-counted, cached container of page
/// frames. A shadow Mobj additionally carries a strong reference to its
/// base.
type Mobj struct {
	mu      sync.Mutex
	kind    Kind
	refs    int
	frames  map[int]*Frame
	filler  Filler        // nil for shadow and backing mobjs
	backing BackingFiller // non-nil only for a backing (aliasing) mobj

	base *Mobj // non-nil only for shadow mobjs

	fill singleflight.Group

	hits, misses int64
}

/// New constructs a Mobj of the given kind backed by filler. Used for the
/// block-device and anon variants; shadow mobjs are built with NewShadow
/// and file mobjs with NewFile.
func New(kind Kind, filler Filler) *Mobj {
	return &Mobj{
		kind:   kind,
		refs:   1,
		frames: make(map[int]*Frame),
		filler: filler,
	}
}

/// newBacking constructs a Mobj of the given kind that delegates every
/// GetPframe straight to filler.BackingFrame and keeps no frames of its
/// own.
func newBacking(kind Kind, filler BackingFiller) *Mobj {
	return &Mobj{
		kind:    kind,
		refs:    1,
		frames:  make(map[int]*Frame),
		backing: filler,
	}
}

/// Kind reports the mobj's variant tag.
func (m *Mobj) Kind() Kind { return m.kind }

/// Ref increments the mobj's reference count.
func (m *Mobj) Ref() {
	m.mu.Lock()
	m.refs++
	m.mu.Unlock()
}

/// Put releases one reference. On the final release it flushes and frees
/// every resident frame and, for a shadow mobj, releases its base
/// reference in turn.
func (m *Mobj) Put() {
	m.mu.Lock()
	m.refs--
	last := m.refs == 0
	m.mu.Unlock()
	if !last {
		return
	}
	m.flushLocked()
	m.mu.Lock()
	for idx := range m.frames {
		delete(m.frames, idx)
	}
	base := m.base
	m.base = nil
	m.mu.Unlock()
	if base != nil {
		base.Put()
	}
}

/// GetPframe returns a resident or newly filled page frame, with its
/// mutex held by the caller. forWrite marks the frame dirty immediately,
/// since the caller is about to modify it.
func (m *Mobj) GetPframe(index int, forWrite bool) (*Frame, defs.Err_t) {
	if m.kind == KindShadow {
		return m.getPframeShadow(index, forWrite)
	}
	if m.backing != nil {
		return m.backing.BackingFrame(index, forWrite)
	}
	if f := m.tryResident(index); f != nil {
		f.Lock()
		if forWrite {
			f.MarkDirty()
		}
		return f, 0
	}
	key := fmt.Sprintf("%d", index)
	v, err, _ := m.fill.Do(key, func() (interface{}, error) {
		data := make([]byte, limits.BSIZE)
		if e := m.filler.FillPframe(index, data); e != 0 {
			return nil, e
		}
		f := &Frame{owner: m, Index: index, Data: data}
		m.mu.Lock()
		if existing, ok := m.frames[index]; ok {
			m.mu.Unlock()
			return existing, nil
		}
		m.frames[index] = f
		m.mu.Unlock()
		return f, nil
	})
	if err != nil {
		return nil, err.(defs.Err_t)
	}
	f := v.(*Frame)
	f.Lock()
	if forWrite {
		f.MarkDirty()
	}
	return f, 0
}

func (m *Mobj) tryResident(index int) *Frame {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.frames[index]
	if ok {
		m.hits++
	} else {
		m.misses++
	}
	return f
}

/// FindPframe returns a resident frame (mutex held) or nil, without
/// triggering a fill. Used by S5FS's freeBlock to clear the dirty flag of
/// a freed block's cached frame.
func (m *Mobj) FindPframe(index int) *Frame {
	m.mu.Lock()
	f, ok := m.frames[index]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	f.Lock()
	return f
}

/// FreePframe evicts and discards a page frame. The caller must hold the
/// frame's mutex and releases it as part of this call.
func (m *Mobj) FreePframe(f *Frame) {
	m.mu.Lock()
	delete(m.frames, f.Index)
	m.mu.Unlock()
	f.Release()
}

/// Flush writes back every dirty frame via the variant's FlushPframe and
/// clears their dirty flags.
func (m *Mobj) Flush() defs.Err_t {
	return m.flushLocked()
}

func (m *Mobj) flushLocked() defs.Err_t {
	if m.kind == KindShadow || m.filler == nil {
		return 0
	}
	m.mu.Lock()
	frames := make([]*Frame, 0, len(m.frames))
	for _, f := range m.frames {
		frames = append(frames, f)
	}
	m.mu.Unlock()
	for _, f := range frames {
		f.Lock()
		if f.dirty {
			if e := m.filler.FlushPframe(f.Index, f.Data); e != 0 {
				f.Release()
				return e
			}
			f.dirty = false
		}
		f.Release()
	}
	return 0
}

/// Stats reports cache hit/miss counters, exposed through
/// metrics.SampleMobj by s5fs.Fs_t.SampleMetrics.
func (m *Mobj) Stats() (hits, misses int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}

/// Resident returns the number of frames currently cached.
func (m *Mobj) Resident() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.frames)
}

/// SoleRef reports whether m has exactly one referrer left. vmm uses this
/// to find the collapse precondition on a shadow's base after a sibling
/// shadow is torn down.
func (m *Mobj) SoleRef() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refs == 1
}
