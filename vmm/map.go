package vmm

import (
	"github.com/s5kern/wfs/defs"
	"github.com/s5kern/wfs/memobj"
)

/// Map implements mmap: choose a memory object (a fresh anonymous mobj
/// for MAP_ANON, else the caller-supplied backing mobj from the vnode's
/// mmap callback), choose a range (find_range / MAP_FIXED overwrite /
/// must-be-empty), wrap in a shadow for MAP_PRIVATE, then install the
/// area. On any failure path the chosen mobj's reference is released so
/// nothing leaks.
func (as *AddressSpace) Map(backing *memobj.Mobj, lopage, npages uint64, prot, flags int, byteOff uint64, dir Dir) (*VMA, defs.Err_t) {
	if npages == 0 {
		return nil, defs.EINVAL
	}

	var mobj *memobj.Mobj
	if flags&defs.MAP_ANON != 0 {
		mobj = memobj.NewAnon()
	} else {
		if backing == nil {
			return nil, defs.EINVAL
		}
		mobj = backing
	}

	as.mu.Lock()
	defer as.mu.Unlock()

	var start uint64
	var err defs.Err_t
	switch {
	case lopage == 0:
		start, err = as.Areas.FindRange(npages, dir)
		if err != 0 {
			mobj.Put()
			return nil, err
		}
	case flags&defs.MAP_FIXED != 0:
		for _, dropped := range as.Areas.removeLocked(lopage, npages) {
			as.PT.UnmapRange(dropped.Start, dropped.Npages)
			dropped.Mobj.Put()
		}
		start = lopage
	default:
		if e := as.checkFixedOrFree(lopage, npages, false); e != 0 {
			mobj.Put()
			return nil, e
		}
		start = lopage
	}

	shared := flags&defs.MAP_SHARED != 0
	if !shared {
		// MAP_PRIVATE: wrap in a fresh shadow, which holds the only
		// initial strong reference for this mapping.
		shadow := memobj.NewShadow(mobj)
		mobj.Put()
		mobj = shadow
	}

	vma := &VMA{
		Start:  start,
		Npages: npages,
		Off:    byteOff / PageSize,
		Prot:   prot,
		Shared: shared,
		Mobj:   mobj,
	}
	as.Areas.insertLocked(vma)
	return vma, 0
}

/// Unmap implements munmap: split/truncate/delete every overlapping
/// area, invalidating page-table entries and flushing TLB ranges for
/// each change.
func (as *AddressSpace) Unmap(lopage, npages uint64) defs.Err_t {
	if npages == 0 {
		return defs.EINVAL
	}
	as.mu.Lock()
	defer as.mu.Unlock()

	as.PT.UnmapRange(lopage, npages)
	as.PT.TLBFlushRange(lopage, npages)
	for _, dropped := range as.Areas.removeLocked(lopage, npages) {
		dropped.Mobj.Put()
	}
	as.Areas.collapseEligible()
	return 0
}
