package vmm

import "github.com/s5kern/wfs/defs"

/// Read walks the overlapped areas starting at vaddr (a byte address),
/// fetches each page frame through the area's mobj at
/// (area.Off + (vfn - area.Start)), and copies into buf. Used to
/// implement copy_from_user.
func (as *AddressSpace) Read(vaddr uint64, buf []byte) (int, defs.Err_t) {
	return as.transfer(vaddr, buf, false)
}

/// Write implements vmmap_write: same area walk as Read, but copies
/// into each fetched frame and marks it dirty. Used to implement
/// copy_to_user.
func (as *AddressSpace) Write(vaddr uint64, buf []byte) (int, defs.Err_t) {
	return as.transfer(vaddr, buf, true)
}

func (as *AddressSpace) transfer(vaddr uint64, buf []byte, write bool) (int, defs.Err_t) {
	n := 0
	for n < len(buf) {
		va := vaddr + uint64(n)
		vfn := va / PageSize
		within := int(va % PageSize)

		as.mu.Lock()
		vma, ok := as.Areas.lookupLocked(vfn)
		as.mu.Unlock()
		if !ok {
			return n, defs.EFAULT
		}
		if write && vma.Prot&defs.PROT_WRITE == 0 {
			return n, defs.EFAULT
		}

		index := int(vma.Off + (vfn - vma.Start))
		f, err := vma.Mobj.GetPframe(index, write)
		if err != 0 {
			return n, err
		}

		want := PageSize - within
		if want > len(buf)-n {
			want = len(buf) - n
		}
		if write {
			copy(f.Data[within:within+want], buf[n:n+want])
		} else {
			copy(buf[n:n+want], f.Data[within:within+want])
		}
		f.Release()
		n += want
	}
	return n, 0
}
