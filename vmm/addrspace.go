package vmm

import (
	"sync"

	"github.com/s5kern/wfs/defs"
)

/// AddressSpace is one process's address space: its sorted VM-area
/// list plus the page table it programs.
type AddressSpace struct {
	mu sync.Mutex

	Areas Region
	PT    PageTable
}

/// New constructs an empty address space over the given page-table
/// collaborator.
func New(pt PageTable) *AddressSpace {
	return &AddressSpace{PT: pt}
}

/// Teardown releases every VM area's memory-object reference and
/// unmaps the whole address space from the page table, mirroring
/// vm.Vm_t.Uvmfree.
func (as *AddressSpace) Teardown() {
	as.mu.Lock()
	defer as.mu.Unlock()
	all := as.Areas.Clear()
	for _, a := range all {
		as.PT.UnmapRange(a.Start, a.Npages)
		a.Mobj.Put()
	}
}

/// checkFixedOrFree validates a caller-chosen lopage for a non-MAP_FIXED
/// mapping: the range must be entirely free.
func (as *AddressSpace) checkFixedOrFree(lopage, npages uint64, fixed bool) defs.Err_t {
	if fixed {
		return 0
	}
	if as.Areas.overlapsAny(lopage, npages) {
		return defs.EINVAL
	}
	return 0
}
