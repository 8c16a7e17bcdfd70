package fuseadapter

import (
	"golang.org/x/sys/unix"

	"github.com/s5kern/wfs/defs"
)

/// errno converts one of defs' syscall-shaped error codes to the
/// syscall.Errno values jacobsa/fuse forwards to the kernel, the way
/// fuse's own errors.go aliases bazilfuse's EIO/ENOENT/ENOSYS.
func errno(e defs.Err_t) error {
	switch e {
	case 0:
		return nil
	case defs.EINVAL:
		return unix.EINVAL
	case defs.ENAMETOOLONG:
		return unix.ENAMETOOLONG
	case defs.EBADF:
		return unix.EBADF
	case defs.EMFILE:
		return unix.EMFILE
	case defs.EISDIR:
		return unix.EISDIR
	case defs.ENOTDIR:
		return unix.ENOTDIR
	case defs.EPERM:
		return unix.EPERM
	case defs.EEXIST:
		return unix.EEXIST
	case defs.ENOENT:
		return unix.ENOENT
	case defs.ENOTEMPTY:
		return unix.ENOTEMPTY
	case defs.ENOTSUP:
		return unix.ENOTSUP
	case defs.ENODEV:
		return unix.ENODEV
	case defs.ENOMEM:
		return unix.ENOMEM
	case defs.ENOSPC:
		return unix.ENOSPC
	case defs.EFBIG:
		return unix.EFBIG
	case defs.EINTR:
		return unix.EINTR
	case defs.EFAULT:
		return unix.EFAULT
	default:
		return unix.EIO
	}
}
