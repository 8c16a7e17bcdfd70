package memobj

import (
	"testing"

	"github.com/s5kern/wfs/defs"
)

func TestAnonZeroFill(t *testing.T) {
	m := NewAnon()
	f, err := m.GetPframe(0, false)
	if err != 0 {
		t.Fatalf("GetPframe: %v", err)
	}
	for i, b := range f.Data {
		if b != 0 {
			t.Fatalf("byte %d not zero: %v", i, b)
		}
	}
	f.Release()
}

func TestAnonDirtyRoundtrip(t *testing.T) {
	m := NewAnon()
	f, err := m.GetPframe(3, true)
	if err != 0 {
		t.Fatalf("GetPframe: %v", err)
	}
	f.Data[0] = 0x42
	f.Release()

	f2, err := m.GetPframe(3, false)
	if err != 0 {
		t.Fatalf("GetPframe: %v", err)
	}
	if f2.Data[0] != 0x42 {
		t.Fatalf("expected byte to persist across refetch, got %v", f2.Data[0])
	}
	f2.Release()
}

func TestShadowReadFallsThroughToBase(t *testing.T) {
	base := NewAnon()
	bf, _ := base.GetPframe(0, true)
	bf.Data[0] = 7
	bf.Release()

	shadow := NewShadow(base)
	sf, err := shadow.GetPframe(0, false)
	if err != 0 {
		t.Fatalf("GetPframe: %v", err)
	}
	if sf.Data[0] != 7 {
		t.Fatalf("expected shadow read to see base's byte, got %v", sf.Data[0])
	}
	if sf.Owner() != base {
		t.Fatalf("expected a read-only shadow fetch to return the base's own frame")
	}
	sf.Release()
}

func TestShadowWriteMaterializesPrivateCopy(t *testing.T) {
	base := NewAnon()
	bf, _ := base.GetPframe(0, true)
	bf.Data[0] = 7
	bf.Release()

	shadow := NewShadow(base)
	sf, err := shadow.GetPframe(0, true)
	if err != 0 {
		t.Fatalf("GetPframe: %v", err)
	}
	sf.Data[0] = 9
	sf.Release()

	// base must be unaffected.
	bf2, _ := base.GetPframe(0, false)
	if bf2.Data[0] != 7 {
		t.Fatalf("shadow write leaked into base: got %v", bf2.Data[0])
	}
	bf2.Release()

	// future reads through this shadow see the private copy.
	sf2, _ := shadow.GetPframe(0, false)
	if sf2.Data[0] != 9 {
		t.Fatalf("expected shadow's own copy to persist, got %v", sf2.Data[0])
	}
	sf2.Release()
}

type fakeBacking struct {
	calls int
	frame *Frame
}

func (b *fakeBacking) BackingFrame(index int, forWrite bool) (*Frame, defs.Err_t) {
	b.calls++
	b.frame.Lock()
	return b.frame, 0
}

func TestBackingFillerNeverCachesItsOwnFrame(t *testing.T) {
	shared := &Frame{Index: 0, Data: []byte{1, 2, 3, 4}}
	backing := &fakeBacking{frame: shared}
	m := newBacking(KindFile, backing)

	f, err := m.GetPframe(0, false)
	if err != 0 {
		t.Fatalf("GetPframe: %v", err)
	}
	if f != shared {
		t.Fatalf("expected GetPframe to hand back the aliased frame directly")
	}
	f.Release()

	if m.Resident() != 0 {
		t.Fatalf("backing mobj cached %d frames of its own, want 0", m.Resident())
	}

	// a second fetch goes straight back through BackingFrame rather than
	// being served from a local cache.
	f2, _ := m.GetPframe(0, false)
	f2.Release()
	if backing.calls != 2 {
		t.Fatalf("BackingFrame called %d times, want 2 (no local caching)", backing.calls)
	}
}

func TestFindPframeMissIsNil(t *testing.T) {
	m := NewAnon()
	if f := m.FindPframe(42); f != nil {
		t.Fatalf("expected no resident frame, got %v", f)
	}
}

func TestCollapseMergesGrandparent(t *testing.T) {
	grandparent := NewAnon()
	gf, _ := grandparent.GetPframe(0, true)
	gf.Data[0] = 1
	gf.Release()

	parent := NewShadow(grandparent)
	child := NewShadow(parent)

	Collapse(child)

	if child.Base() != grandparent {
		t.Fatalf("expected collapse to relink child directly to grandparent")
	}
	f, _ := child.GetPframe(0, false)
	if f.Data[0] != 1 {
		t.Fatalf("expected collapsed chain to still see grandparent's data, got %v", f.Data[0])
	}
	f.Release()
}
