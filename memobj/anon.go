package memobj

import "github.com/s5kern/wfs/defs"

/// anonFiller backs an anonymous mobj: every page is zero-filled on first
/// read and never written back, since anonymous memory has no disk home.
type anonFiller struct{}

func (anonFiller) FillPframe(index int, dst []byte) defs.Err_t {
	for i := range dst {
		dst[i] = 0
	}
	return 0
}

func (anonFiller) FlushPframe(index int, src []byte) defs.Err_t {
	return 0
}

/// NewAnon creates a fresh anonymous memory object, used for MAP_ANON
/// mappings and for the child side of a private fork of an anonymous
/// region.
func NewAnon() *Mobj {
	return New(KindAnon, anonFiller{})
}

/// NewFile wraps a filesystem-supplied BackingFiller as a file memory
/// object. S5FS hands this the same filer that resolves a file's blocks on
/// the underlying block-device mobj, so a mapped page is the block
/// device's own cached frame rather than a second copy.
func NewFile(filler BackingFiller) *Mobj {
	return newBacking(KindFile, filler)
}
