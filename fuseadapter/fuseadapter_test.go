package fuseadapter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/s5kern/wfs/vfs"
)

func newTestFS() *FS {
	return New(nil, nil)
}

func TestMintHandleIsMonotonicAndNeverZero(t *testing.T) {
	a := newTestFS()
	h1 := a.mintHandle()
	h2 := a.mintHandle()
	require.NotZero(t, h1)
	require.Greater(t, h2, h1)
}

func TestFileHandleTableRoundTrip(t *testing.T) {
	a := newTestFS()
	v := &vfs.Vnode{Ino: 42}

	h := a.mintHandle()
	a.putFileHandle(h, v)
	require.Same(t, v, a.getFileHandle(h))

	dropped := a.dropFileHandle(h)
	require.Same(t, v, dropped)
	require.Nil(t, a.getFileHandle(h))
}

func TestDirHandleTableRoundTrip(t *testing.T) {
	a := newTestFS()
	v := &vfs.Vnode{Ino: 7}

	h := a.mintHandle()
	a.putDirHandle(h, v)
	require.Same(t, v, a.getDirHandle(h))

	dropped := a.dropDirHandle(h)
	require.Same(t, v, dropped)
	require.Nil(t, a.getDirHandle(h))
}

func TestUnknownHandleLooksUpAsNil(t *testing.T) {
	a := newTestFS()
	require.Nil(t, a.getFileHandle(999))
	require.Nil(t, a.getDirHandle(999))
}
