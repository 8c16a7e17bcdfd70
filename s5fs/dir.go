package s5fs

import "github.com/s5kern/wfs/defs"

/// findDirent scans dir's content in entry-sized increments for name,
/// returning its byte position and inode number, or ENOENT.
func (fs *Fs_t) findDirent(ino uint32, length uint64, name string) (pos int, child uint32, err defs.Err_t) {
	buf := make([]byte, direntDiskSize)
	for off := int64(0); uint64(off) < length; off += direntDiskSize {
		n, rerr := fs.ReadFile(ino, length, off, buf)
		if rerr != 0 {
			return 0, 0, rerr
		}
		if n < direntDiskSize {
			break
		}
		d := readDirent(buf)
		if d.nameLen() > 0 && d.nameStr() == name {
			return int(off), d.Ino, 0
		}
	}
	return 0, 0, defs.ENOENT
}

/// linkDirent appends a (name, childIno) entry, reusing the first empty
/// slot if one exists; fails with EEXIST if name is already present.
func (fs *Fs_t) linkDirent(dirIno uint32, length uint64, name string, childIno uint32) (newLength uint64, err defs.Err_t) {
	if _, _, ferr := fs.findDirent(dirIno, length, name); ferr == 0 {
		return length, defs.EEXIST
	}

	buf := make([]byte, direntDiskSize)
	holeOff := int64(-1)
	for off := int64(0); uint64(off) < length; off += direntDiskSize {
		n, rerr := fs.ReadFile(dirIno, length, off, buf)
		if rerr != 0 {
			return length, rerr
		}
		if n < direntDiskSize {
			break
		}
		d := readDirent(buf)
		if d.nameLen() == 0 {
			holeOff = off
			break
		}
	}

	d := &dirent{Ino: childIno}
	if !d.setName(name) {
		return length, defs.ENAMETOOLONG
	}
	out := make([]byte, direntDiskSize)
	d.write(out)

	writeOff := holeOff
	if writeOff < 0 {
		writeOff = int64(length)
	}
	n, newLen, werr := fs.WriteFile(dirIno, writeOff, out)
	if werr != 0 || n != direntDiskSize {
		return length, werr
	}
	if newLen < length {
		newLen = length
	}
	return newLen, 0
}

/// removeDirentAt overwrites the entry at pos with the directory's last
/// entry (preserving contiguity) and truncates the length by one entry.
/// The caller has already located the entry at pos with findDirent.
func (fs *Fs_t) removeDirentAt(dirIno uint32, length uint64, pos int) (newLength uint64, err defs.Err_t) {
	lastOff := int64(length) - direntDiskSize
	if lastOff < 0 {
		return length, defs.EINVAL
	}
	if int64(pos) != lastOff {
		last := make([]byte, direntDiskSize)
		n, rerr := fs.ReadFile(dirIno, length, lastOff, last)
		if rerr != 0 || n != direntDiskSize {
			return length, rerr
		}
		wn, _, werr := fs.WriteFile(dirIno, int64(pos), last)
		if werr != 0 || wn != direntDiskSize {
			return length, werr
		}
	}
	return uint64(lastOff), 0
}

/// initDir writes the "." and ".." entries a freshly created directory
/// carries from creation to deletion: initial link count is 2.
func (fs *Fs_t) initDir(dirIno, parentIno uint32) defs.Err_t {
	dot := &dirent{Ino: dirIno}
	dot.setName(".")
	dotdot := &dirent{Ino: parentIno}
	dotdot.setName("..")

	buf := make([]byte, direntDiskSize*2)
	dot.write(buf[:direntDiskSize])
	dotdot.write(buf[direntDiskSize:])

	n, _, err := fs.WriteFile(dirIno, 0, buf)
	if err != 0 || n != len(buf) {
		return err
	}
	h, err := fs.GetInode(dirIno, true)
	if err != 0 {
		return err
	}
	h.SetSize(uint32(len(buf)))
	h.Release()
	return 0
}

/// dirEntrySize is the caller-visible record size Readdir advances the
/// file position by, for getdents.
const dirEntrySize = direntDiskSize
