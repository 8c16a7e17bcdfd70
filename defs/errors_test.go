package defs

import "testing"

// TestErrCodesAreDistinctAndNegative guards the invariant every Err_t
// comparison in the core relies on: 0 means success, and every named
// error is a unique negative value (so callers can safely switch on them
// in a translation table, as fuseadapter's errno.go does).
func TestErrCodesAreDistinctAndNegative(t *testing.T) {
	codes := []Err_t{
		EINVAL, ENAMETOOLONG, EBADF, EMFILE, EISDIR, ENOTDIR, EPERM, EEXIST,
		ENOENT, ENOTEMPTY, ENOTSUP, ENODEV, ENOMEM, ENOSPC, EFBIG, EINTR, EFAULT,
	}
	seen := make(map[Err_t]bool, len(codes))
	for _, c := range codes {
		if c >= 0 {
			t.Fatalf("error code %v is not negative", c)
		}
		if seen[c] {
			t.Fatalf("error code %v is reused by more than one constant", c)
		}
		seen[c] = true
	}
}
