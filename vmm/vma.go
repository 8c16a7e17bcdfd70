package vmm

import (
	"sort"
	"sync"

	"github.com/s5kern/wfs/defs"
	"github.com/s5kern/wfs/memobj"
)

/// PageSize is the unit every VMA's Start/Npages/Off field is expressed
/// in, matching the block cache's page frame size.
const PageSize = 4096

/// Dir selects the search direction for FindRange.
type Dir int

const (
	DirLow  Dir = iota // ascending from the user address-space floor
	DirHigh            // descending from the user address-space ceiling
)

// UserMinPage/UserMaxPage bound the page-number range FindRange
// searches; a host embedding this package over real hardware would set
// these to its actual user virtual-address window.
const (
	UserMinPage = 1
	UserMaxPage = 1 << 36
)

/// VMA is a contiguous virtual-page range within one address space,
/// mapped into a memory object at a page offset with fixed protection
/// and sharing.
type VMA struct {
	Start  uint64 // first virtual page number
	Npages uint64
	Off    uint64 // page offset into Mobj
	Prot   int    // defs.PROT_*
	Shared bool
	Mobj   *memobj.Mobj
}

/// End returns the VMA's exclusive upper page bound.
func (v *VMA) End() uint64 { return v.Start + v.Npages }

/// overlaps reports whether [lo, lo+n) intersects this area.
func (v *VMA) overlaps(lo, n uint64) bool {
	return lo < v.End() && lo+n > v.Start
}

/// Region is the sorted, non-overlapping list of VM areas belonging to
/// one address space.
type Region struct {
	mu    sync.Mutex
	areas []*VMA
}

/// Insert places v in sorted position; the caller guarantees it
/// doesn't overlap any existing area.
func (r *Region) Insert(v *VMA) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.insertLocked(v)
}

func (r *Region) insertLocked(v *VMA) {
	i := sort.Search(len(r.areas), func(i int) bool { return r.areas[i].Start >= v.Start })
	r.areas = append(r.areas, nil)
	copy(r.areas[i+1:], r.areas[i:])
	r.areas[i] = v
}

/// Lookup returns the area containing vfn, if any.
func (r *Region) Lookup(vfn uint64) (*VMA, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lookupLocked(vfn)
}

func (r *Region) lookupLocked(vfn uint64) (*VMA, bool) {
	i := sort.Search(len(r.areas), func(i int) bool { return r.areas[i].End() > vfn })
	if i < len(r.areas) && r.areas[i].Start <= vfn {
		return r.areas[i], true
	}
	return nil, false
}

/// overlapsAny reports whether [lo, lo+n) overlaps any existing area.
func (r *Region) overlapsAny(lo, n uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.areas {
		if a.overlaps(lo, n) {
			return true
		}
	}
	return false
}

/// FindRange scans for a gap of n free pages, ascending from
/// UserMinPage (DirLow) or descending from UserMaxPage (DirHigh).
func (r *Region) FindRange(n uint64, dir Dir) (uint64, defs.Err_t) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if dir == DirLow {
		prevEnd := uint64(UserMinPage)
		for _, a := range r.areas {
			if a.Start >= prevEnd && a.Start-prevEnd >= n {
				return prevEnd, 0
			}
			if a.End() > prevEnd {
				prevEnd = a.End()
			}
		}
		if UserMaxPage-prevEnd >= n {
			return prevEnd, 0
		}
		return 0, defs.ENOMEM
	}

	// DirHigh: scan gaps from the top down.
	top := uint64(UserMaxPage)
	for i := len(r.areas) - 1; i >= 0; i-- {
		a := r.areas[i]
		if top-a.End() >= n {
			return top - n, 0
		}
		if a.Start < top {
			top = a.Start
		}
	}
	if top-UserMinPage >= n {
		return top - n, 0
	}
	return 0, defs.ENOMEM
}

// removeLocked applies exactly one of split/truncate-left/truncate-right/
// delete to every area overlapping [lo, lo+n), and returns only the
// deleted areas so the caller can Put() their Mobj references. Split and
// truncated areas stay in the region and keep their Mobj ref (a split
// takes one extra reference for the new tail area).
func (r *Region) removeLocked(lo, n uint64) (dropped []*VMA) {
	hi := lo + n
	var kept []*VMA
	for _, a := range r.areas {
		if !a.overlaps(lo, n) {
			kept = append(kept, a)
			continue
		}
		switch {
		case lo <= a.Start && hi >= a.End():
			// delete: range covers the area entirely.
			dropped = append(dropped, a)
		case lo > a.Start && hi < a.End():
			// split: range strictly interior. Tail keeps the same mobj
			// (refcount bumped) with an adjusted offset.
			tail := &VMA{
				Start:  hi,
				Npages: a.End() - hi,
				Off:    a.Off + (hi - a.Start),
				Prot:   a.Prot,
				Shared: a.Shared,
				Mobj:   a.Mobj,
			}
			a.Mobj.Ref()
			a.Npages = lo - a.Start
			kept = append(kept, a, tail)
		case lo <= a.Start:
			// truncate-left: range overlaps the start.
			shift := hi - a.Start
			a.Start = hi
			a.Off += shift
			a.Npages -= shift
			kept = append(kept, a)
		default:
			// truncate-right: range overlaps the end.
			a.Npages = lo - a.Start
			kept = append(kept, a)
		}
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].Start < kept[j].Start })
	r.areas = kept
	return dropped
}

/// Clear empties the region, returning every area so the caller can
/// release its Mobj reference (used by address-space teardown).
func (r *Region) Clear() []*VMA {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.areas
	r.areas = nil
	return all
}

// collapseEligible scans for private (shadow) areas whose base just
// became solely referenced by that one area — typically because a
// sibling shadow from the same fork was just unmapped — and collapses
// it inward, bounding fork-chain depth (spec's "Shadow collapse").
// Unmap runs it after every removal; Teardown and a MAP_FIXED
// replacement in Map do not.
func (r *Region) collapseEligible() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.areas {
		if a.Shared || a.Mobj.Kind() != memobj.KindShadow {
			continue
		}
		if base := a.Mobj.Base(); base != nil && base.SoleRef() {
			memobj.Collapse(a.Mobj)
		}
	}
}

/// Snapshot returns a copy of the current area list, for clone and
/// cross-address-space I/O (callers must not mutate it).
func (r *Region) Snapshot() []*VMA {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*VMA, len(r.areas))
	copy(out, r.areas)
	return out
}
