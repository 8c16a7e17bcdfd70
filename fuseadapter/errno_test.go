package fuseadapter

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/s5kern/wfs/defs"
)

func TestErrnoMapsSuccessToNil(t *testing.T) {
	require.NoError(t, errno(0))
}

func TestErrnoMapsKnownCodes(t *testing.T) {
	cases := map[defs.Err_t]error{
		defs.ENOENT:      unix.ENOENT,
		defs.EEXIST:      unix.EEXIST,
		defs.ENOTDIR:     unix.ENOTDIR,
		defs.EISDIR:      unix.EISDIR,
		defs.ENOTEMPTY:   unix.ENOTEMPTY,
		defs.EBADF:       unix.EBADF,
		defs.EINVAL:      unix.EINVAL,
		defs.ENOSPC:      unix.ENOSPC,
		defs.ENOMEM:      unix.ENOMEM,
		defs.EPERM:       unix.EPERM,
		defs.ENAMETOOLONG: unix.ENAMETOOLONG,
	}
	for code, want := range cases {
		require.Equal(t, want, errno(code), "code %v", code)
	}
}

func TestErrnoDefaultsUnknownCodesToEIO(t *testing.T) {
	require.Equal(t, unix.EIO, errno(defs.Err_t(-999)))
}
