package memobj

import (
	"github.com/s5kern/wfs/blockdev"
	"github.com/s5kern/wfs/defs"
)

/// blockDeviceFiller fills and flushes pages directly against a Disk; the
/// page index equals the disk block number. This is the one mobj
/// instance a filesystem mounts its block cache on: file pages become,
/// on allocation, literally the same cached pages as this mobj's, so
/// there is no double buffering between file content and the disk
/// cache.
type blockDeviceFiller struct {
	disk blockdev.Disk
}

func (b *blockDeviceFiller) FillPframe(index int, dst []byte) defs.Err_t {
	if err := b.disk.ReadBlock(index, dst); err != nil {
		return defs.EINVAL
	}
	return 0
}

func (b *blockDeviceFiller) FlushPframe(index int, src []byte) defs.Err_t {
	if err := b.disk.WriteBlock(index, src); err != nil {
		return defs.EINVAL
	}
	return 0
}

/// NewBlockDevice wraps disk as a block-device memory object, the shared
/// cache every S5FS filesystem instance built on disk reads and writes
/// through.
func NewBlockDevice(disk blockdev.Disk) *Mobj {
	return New(KindBlockDevice, &blockDeviceFiller{disk: disk})
}
