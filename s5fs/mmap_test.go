package s5fs

import (
	"testing"

	"github.com/s5kern/wfs/defs"
)

// TestMmapSeesWriteFileWithoutRefault checks that a page already faulted
// in through a vnode's mmap mobj reflects a write() that lands after it,
// without needing to be re-fetched — the two paths must be caching the
// very same frame, not independent copies.
func TestMmapSeesWriteFileWithoutRefault(t *testing.T) {
	fs := mkfsT(t, 64, 32)
	root := rootVnode(t, fs)
	defer fs.cache.Vput(root)

	root.Lock()
	child, err := fs.Mknod(root, "mapped", defs.T_FILE, 0)
	root.Unlock()
	if err != 0 {
		t.Fatalf("Mknod: %v", err)
	}
	defer fs.cache.Vput(child)

	initial := []byte("hello, world!!!!")
	if n, werr := fs.Write(child, 0, initial); werr != 0 || n != len(initial) {
		t.Fatalf("Write: n=%d err=%v", n, werr)
	}

	mobj, merr := fs.Mmap(child)
	if merr != 0 {
		t.Fatalf("Mmap: %v", merr)
	}
	defer mobj.Put()

	f, ferr := mobj.GetPframe(0, false)
	if ferr != 0 {
		t.Fatalf("GetPframe: %v", ferr)
	}
	if string(f.Data[:len(initial)]) != string(initial) {
		t.Fatalf("mapped page = %q, want %q", f.Data[:len(initial)], initial)
	}
	f.Release()

	updated := []byte("goodbye, world!!")
	if n, werr := fs.Write(child, 0, updated); werr != 0 || n != len(updated) {
		t.Fatalf("Write: n=%d err=%v", n, werr)
	}

	f2, ferr := mobj.GetPframe(0, false)
	if ferr != 0 {
		t.Fatalf("GetPframe: %v", ferr)
	}
	if string(f2.Data[:len(updated)]) != string(updated) {
		t.Fatalf("mapped page after write() = %q, want %q (stale page means mmap is double-buffering)", f2.Data[:len(updated)], updated)
	}
	f2.Release()
}

// TestMmapHoleReadsZeroWithoutCaching exercises the sparse-block path:
// mapping a brand-new file's first page, before any write() has
// allocated a block, must read as zero and must not leave a frame
// resident in the file mobj's own cache.
func TestMmapHoleReadsZeroWithoutCaching(t *testing.T) {
	fs := mkfsT(t, 64, 32)
	root := rootVnode(t, fs)
	defer fs.cache.Vput(root)

	root.Lock()
	child, err := fs.Mknod(root, "sparse", defs.T_FILE, 0)
	root.Unlock()
	if err != 0 {
		t.Fatalf("Mknod: %v", err)
	}
	defer fs.cache.Vput(child)

	mobj, merr := fs.Mmap(child)
	if merr != 0 {
		t.Fatalf("Mmap: %v", merr)
	}
	defer mobj.Put()

	f, ferr := mobj.GetPframe(0, false)
	if ferr != 0 {
		t.Fatalf("GetPframe: %v", ferr)
	}
	for i, b := range f.Data {
		if b != 0 {
			t.Fatalf("byte %d of unallocated page = %d, want 0", i, b)
		}
	}
	f.Release()

	if got := mobj.Resident(); got != 0 {
		t.Fatalf("file mobj has %d frames resident, want 0 (it must never cache its own copies)", got)
	}
}
