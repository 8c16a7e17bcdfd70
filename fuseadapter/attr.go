package fuseadapter

import (
	"os"
	"time"

	"github.com/jacobsa/fuse/fuseops"

	"github.com/s5kern/wfs/defs"
	"github.com/s5kern/wfs/vfs"
)

// defaultFilePerm and defaultDirPerm are applied uniformly since s5fs
// inodes carry no permission bits of their own — every file is rw for
// owner, r for group/other, and every directory is additionally
// searchable (0755), matching the teacher's unprivileged single-user model.
const defaultFilePerm = os.FileMode(0644)
const defaultDirPerm = os.FileMode(0755)

/// attrFromVnode builds the attribute struct the kernel caches for v. The
/// caller must hold v's lock.
func attrFromVnode(v *vfs.Vnode) fuseops.InodeAttributes {
	mode := defaultFilePerm
	if v.Mode == defs.T_DIR {
		mode = os.ModeDir | defaultDirPerm
	}
	mtime := time.Unix(v.Mtime, 0)
	return fuseops.InodeAttributes{
		Size:  v.Length,
		Nlink: uint64(v.Nlink),
		Mode:  mode,
		Atime: mtime,
		Mtime: mtime,
		Ctime: mtime,
	}
}
