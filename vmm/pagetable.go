// Package vmm implements the per-process address-space manager: sorted
// VM areas, mmap/munmap, fork-time copy-on-write clone, and
// cross-address-space read/write. Hardware page-table manipulation is
// consumed as an abstract collaborator, never touched directly.
package vmm

/// PageTable is the collaborator this package consumes instead of
/// manipulating hardware page tables directly (map_page, unmap_range,
/// tlb_flush_range). vfn is a virtual frame number (virtual address
/// >> 12).
type PageTable interface {
	MapPage(vfn uint64, paddr uintptr, prot int) error
	UnmapRange(startVfn, npages uint64)
	TLBFlushRange(startVfn, npages uint64)
}

/// NullPageTable discards every call. It lets the vmm package's own
/// tests exercise VMA bookkeeping without a real page-table collaborator.
type NullPageTable struct{}

func (NullPageTable) MapPage(vfn uint64, paddr uintptr, prot int) error { return nil }
func (NullPageTable) UnmapRange(startVfn, npages uint64)                {}
func (NullPageTable) TLBFlushRange(startVfn, npages uint64)             {}
