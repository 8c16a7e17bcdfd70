package memobj

import "github.com/s5kern/wfs/defs"

/// NewShadow wraps base in a fresh copy-on-write overlay. The shadow takes
/// its own strong reference on base; the caller's reference to base is
/// untouched (mmap's MAP_PRIVATE path releases its own reference once the
/// shadow exists).
func NewShadow(base *Mobj) *Mobj {
	base.Ref()
	return &Mobj{
		kind:   KindShadow,
		refs:   1,
		frames: make(map[int]*Frame),
		base:   base,
	}
}

/// Base returns the mobj this shadow overlays.
func (m *Mobj) Base() *Mobj {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.base
}

func (m *Mobj) getPframeShadow(index int, forWrite bool) (*Frame, defs.Err_t) {
	if f := m.tryResident(index); f != nil {
		f.Lock()
		if forWrite {
			f.MarkDirty()
		}
		return f, 0
	}
	if !forWrite {
		// Fall through to the base; the returned frame belongs to the
		// base mobj, not this shadow — we are not copying.
		return m.base.GetPframe(index, false)
	}

	baseFrame, err := m.base.GetPframe(index, false)
	if err != 0 {
		return nil, err
	}
	data := make([]byte, len(baseFrame.Data))
	copy(data, baseFrame.Data)
	baseFrame.Release()

	f := &Frame{owner: m, Index: index, Data: data, dirty: true}
	m.mu.Lock()
	if existing, ok := m.frames[index]; ok {
		m.mu.Unlock()
		existing.Lock()
		existing.MarkDirty()
		return existing, 0
	}
	m.frames[index] = f
	m.mu.Unlock()
	f.Lock()
	return f, 0
}

/// Collapse merges a shadow into its immediate base when the base is
/// itself a shadow with no other referrers: pages resident in child take
/// precedence, pages missing there are pulled from the base, and child is
/// relinked to the base's own base. The
/// caller is responsible for verifying the single-referrer precondition
/// (ref-counts are tracked by callers, e.g. vmm tears down a VMA and knows
/// whether its shadow pair is still shared). Collapse bounds the depth of
/// long fork chains.
func Collapse(child *Mobj) {
	child.mu.Lock()
	base := child.base
	child.mu.Unlock()
	if base == nil || base.kind != KindShadow {
		return
	}

	base.mu.Lock()
	grandparent := base.base
	for idx, f := range base.frames {
		if _, already := child.frames[idx]; !already {
			child.frames[idx] = f
			f.owner = child
		}
	}
	base.frames = nil
	base.mu.Unlock()

	// Transfer base's strong reference to grandparent onto child directly;
	// base no longer points at it, so base's own (now-unreachable) Put
	// must not release it a second time.
	base.mu.Lock()
	base.base = nil
	base.mu.Unlock()

	child.mu.Lock()
	child.base = grandparent
	child.mu.Unlock()
}
