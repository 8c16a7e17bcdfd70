package vmm

import "github.com/s5kern/wfs/memobj"

/// Clone implements fork-time address-space duplication: shared areas
/// gain a reference to the same mobj; private areas are
/// each split into two fresh shadow objects over the area's current
/// mobj, one reparenting the parent's area and one backing the child's,
/// so that subsequent copy-on-write in either process is invisible to
/// the other.
func (as *AddressSpace) Clone(child *AddressSpace) {
	as.mu.Lock()
	defer as.mu.Unlock()
	child.mu.Lock()
	defer child.mu.Unlock()

	snapshot := as.Areas.Snapshot()
	cloned := make([]*VMA, 0, len(snapshot))
	var parentPatches []func()

	for _, a := range snapshot {
		var childMobj *memobj.Mobj
		var parentPatch func()

		if a.Shared {
			a.Mobj.Ref()
			childMobj = a.Mobj
		} else {
			parentShadow := memobj.NewShadow(a.Mobj)
			childShadow := memobj.NewShadow(a.Mobj)
			oldParentMobj := a.Mobj
			parentPatch = func(a *VMA) func() {
				return func() {
					a.Mobj = parentShadow
					oldParentMobj.Put()
				}
			}(a)
			childMobj = childShadow
		}

		ca := &VMA{
			Start:  a.Start,
			Npages: a.Npages,
			Off:    a.Off,
			Prot:   a.Prot,
			Shared: a.Shared,
			Mobj:   childMobj,
		}
		cloned = append(cloned, ca)
		if parentPatch != nil {
			parentPatches = append(parentPatches, parentPatch)
		}
	}

	for _, ca := range cloned {
		child.Areas.insertLocked(ca)
	}
	for _, patch := range parentPatches {
		patch()
	}
}
