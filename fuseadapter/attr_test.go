package fuseadapter

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/s5kern/wfs/defs"
	"github.com/s5kern/wfs/vfs"
)

func TestAttrFromVnodeFile(t *testing.T) {
	v := &vfs.Vnode{
		Mode:   defs.T_FILE,
		Length: 123,
		Nlink:  1,
		Mtime:  1700000000,
	}

	attr := attrFromVnode(v)
	require.Equal(t, uint64(123), attr.Size)
	require.Equal(t, uint64(1), attr.Nlink)
	require.Equal(t, defaultFilePerm, attr.Mode)
	require.True(t, attr.Mode&os.ModeDir == 0)
	require.Equal(t, time.Unix(1700000000, 0), attr.Mtime)
	require.Equal(t, attr.Mtime, attr.Atime)
	require.Equal(t, attr.Mtime, attr.Ctime)
}

func TestAttrFromVnodeDirectory(t *testing.T) {
	v := &vfs.Vnode{
		Mode:   defs.T_DIR,
		Length: 64,
		Nlink:  2,
		Mtime:  1700000001,
	}

	attr := attrFromVnode(v)
	require.True(t, attr.Mode&os.ModeDir != 0)
	require.Equal(t, defaultDirPerm, attr.Mode&os.ModePerm)
}
