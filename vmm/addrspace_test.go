package vmm_test

import (
	"bytes"
	"testing"

	"github.com/s5kern/wfs/defs"
	"github.com/s5kern/wfs/vmm"
)

func TestMapAnonReadWriteRoundTrip(t *testing.T) {
	as := vmm.New(vmm.NullPageTable{})

	vma, err := as.Map(nil, 0, 2, defs.PROT_READ|defs.PROT_WRITE, defs.MAP_ANON|defs.MAP_PRIVATE, 0, vmm.DirLow)
	if err != 0 {
		t.Fatalf("Map: %v", err)
	}

	payload := bytes.Repeat([]byte("x"), vmm.PageSize+17)
	vaddr := vma.Start * vmm.PageSize
	n, err := as.Write(vaddr, payload)
	if err != 0 || n != len(payload) {
		t.Fatalf("Write = %d, %v, want %d, nil", n, err, len(payload))
	}

	buf := make([]byte, len(payload))
	n, err = as.Read(vaddr, buf)
	if err != 0 || n != len(payload) {
		t.Fatalf("Read = %d, %v, want %d, nil", n, err, len(payload))
	}
	if !bytes.Equal(buf, payload) {
		t.Fatalf("Read returned mismatched data")
	}
}

func TestMapZeroPagesRejected(t *testing.T) {
	as := vmm.New(vmm.NullPageTable{})
	if _, err := as.Map(nil, 0, 0, defs.PROT_READ, defs.MAP_ANON, 0, vmm.DirLow); err != defs.EINVAL {
		t.Fatalf("Map(0 pages) = %v, want EINVAL", err)
	}
}

func TestMapNonAnonWithoutBackingRejected(t *testing.T) {
	as := vmm.New(vmm.NullPageTable{})
	if _, err := as.Map(nil, 0, 1, defs.PROT_READ, 0, 0, vmm.DirLow); err != defs.EINVAL {
		t.Fatalf("Map(nil backing, not MAP_ANON) = %v, want EINVAL", err)
	}
}

func TestUnmapFreesRangeForReuse(t *testing.T) {
	as := vmm.New(vmm.NullPageTable{})

	vma, err := as.Map(nil, 0, 4, defs.PROT_READ, defs.MAP_ANON, 0, vmm.DirLow)
	if err != 0 {
		t.Fatalf("Map: %v", err)
	}
	start := vma.Start

	if err := as.Unmap(start, 4); err != 0 {
		t.Fatalf("Unmap: %v", err)
	}

	vma2, err := as.Map(nil, start, 4, defs.PROT_READ, defs.MAP_ANON|defs.MAP_FIXED, 0, vmm.DirLow)
	if err != 0 {
		t.Fatalf("remap after Unmap: %v", err)
	}
	if vma2.Start != start {
		t.Fatalf("remap started at %d, want %d", vma2.Start, start)
	}
}

func TestMapFixedOverwritesExistingArea(t *testing.T) {
	as := vmm.New(vmm.NullPageTable{})

	first, err := as.Map(nil, 0, 4, defs.PROT_READ|defs.PROT_WRITE, defs.MAP_ANON, 0, vmm.DirLow)
	if err != 0 {
		t.Fatalf("Map(first): %v", err)
	}
	if _, err := as.Write(first.Start*vmm.PageSize, []byte("marker")); err != 0 {
		t.Fatalf("Write(first): %v", err)
	}

	if _, err := as.Map(nil, first.Start, 4, defs.PROT_READ, defs.MAP_ANON|defs.MAP_FIXED, 0, vmm.DirLow); err != 0 {
		t.Fatalf("Map(MAP_FIXED over first): %v", err)
	}

	buf := make([]byte, 6)
	n, err := as.Read(first.Start*vmm.PageSize, buf)
	if err != 0 || n != 6 {
		t.Fatalf("Read after MAP_FIXED overwrite: %d, %v", n, err)
	}
	if bytes.Equal(buf, []byte("marker")) {
		t.Fatalf("MAP_FIXED did not replace the old mapping's backing store")
	}
}

func TestWriteRejectsReadOnlyMapping(t *testing.T) {
	as := vmm.New(vmm.NullPageTable{})

	vma, err := as.Map(nil, 0, 1, defs.PROT_READ, defs.MAP_ANON, 0, vmm.DirLow)
	if err != 0 {
		t.Fatalf("Map: %v", err)
	}
	if _, err := as.Write(vma.Start*vmm.PageSize, []byte("x")); err != defs.EFAULT {
		t.Fatalf("Write(read-only mapping) = %v, want EFAULT", err)
	}
}

func TestCloneSharedAreaIsVisibleToBoth(t *testing.T) {
	parent := vmm.New(vmm.NullPageTable{})
	child := vmm.New(vmm.NullPageTable{})

	vma, err := parent.Map(nil, 0, 1, defs.PROT_READ|defs.PROT_WRITE, defs.MAP_ANON|defs.MAP_SHARED, 0, vmm.DirLow)
	if err != 0 {
		t.Fatalf("Map: %v", err)
	}

	parent.Clone(child)

	if _, err := parent.Write(vma.Start*vmm.PageSize, []byte("shared")); err != 0 {
		t.Fatalf("parent Write: %v", err)
	}
	buf := make([]byte, 6)
	if _, err := child.Read(vma.Start*vmm.PageSize, buf); err != 0 {
		t.Fatalf("child Read: %v", err)
	}
	if string(buf) != "shared" {
		t.Fatalf("child saw %q, want shared area to mirror parent's write", buf)
	}
}

func TestClonePrivateAreaIsCopyOnWrite(t *testing.T) {
	parent := vmm.New(vmm.NullPageTable{})
	child := vmm.New(vmm.NullPageTable{})

	vma, err := parent.Map(nil, 0, 1, defs.PROT_READ|defs.PROT_WRITE, defs.MAP_ANON|defs.MAP_PRIVATE, 0, vmm.DirLow)
	if err != 0 {
		t.Fatalf("Map: %v", err)
	}
	if _, err := parent.Write(vma.Start*vmm.PageSize, []byte("before")); err != 0 {
		t.Fatalf("initial Write: %v", err)
	}

	parent.Clone(child)

	if _, err := parent.Write(vma.Start*vmm.PageSize, []byte("after!")); err != 0 {
		t.Fatalf("post-clone parent Write: %v", err)
	}

	buf := make([]byte, 6)
	if _, err := child.Read(vma.Start*vmm.PageSize, buf); err != 0 {
		t.Fatalf("child Read: %v", err)
	}
	if string(buf) != "before" {
		t.Fatalf("child saw %q after parent's post-clone write, want isolation (\"before\")", buf)
	}
}

func TestTeardownReleasesAreas(t *testing.T) {
	as := vmm.New(vmm.NullPageTable{})
	vma, err := as.Map(nil, 0, 2, defs.PROT_READ, defs.MAP_ANON, 0, vmm.DirLow)
	if err != 0 {
		t.Fatalf("Map: %v", err)
	}
	as.Teardown()

	// After teardown the address space is empty, so the same fixed
	// range can be mapped again without a MAP_FIXED overwrite.
	if _, err := as.Map(nil, vma.Start, 2, defs.PROT_READ, defs.MAP_ANON, 0, vmm.DirLow); err != 0 {
		t.Fatalf("Map after Teardown: %v", err)
	}
}
