package blockdev

import (
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

/// FileDisk is a Disk backed by a regular file, generalizing the
/// teacher's ahci_disk_t (seek-then-read/write under one mutex so the two
/// stay atomic with respect to other goroutines). Unlike the teacher's
/// single-process test harness, wfsctl mount/serve may race a second
/// process against the same image, so Open takes an advisory flock on the
/// file descriptor.
type FileDisk struct {
	mu     sync.Mutex
	f      *os.File
	nblock int
}

/// OpenFileDisk opens path as a disk of nblock blocks, taking an
/// exclusive advisory lock so a second process cannot mount the same
/// image concurrently.
func OpenFileDisk(path string, nblock int) (*FileDisk, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("blockdev: %s is already locked by another process: %w", path, err)
	}
	return &FileDisk{f: f, nblock: nblock}, nil
}

/// CreateFileDisk creates a fresh, zero-filled disk image of nblock
/// blocks at path, used by `wfsctl mkfs`.
func CreateFileDisk(path string, nblock int) (*FileDisk, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Truncate(int64(nblock) * int64(blockSize)); err != nil {
		f.Close()
		return nil, err
	}
	return &FileDisk{f: f, nblock: nblock}, nil
}

func (d *FileDisk) seek(n int) error {
	_, err := d.f.Seek(int64(n)*int64(blockSize), 0)
	return err
}

func (d *FileDisk) ReadBlock(n int, out []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n < 0 || n >= d.nblock {
		return fmt.Errorf("blockdev: block %d out of range (%d blocks)", n, d.nblock)
	}
	if err := d.seek(n); err != nil {
		return err
	}
	got, err := d.f.Read(out[:blockSize])
	if err != nil {
		return err
	}
	if got != blockSize {
		return fmt.Errorf("blockdev: short read of block %d: %d bytes", n, got)
	}
	return nil
}

func (d *FileDisk) WriteBlock(n int, in []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if n < 0 || n >= d.nblock {
		return fmt.Errorf("blockdev: block %d out of range (%d blocks)", n, d.nblock)
	}
	if err := d.seek(n); err != nil {
		return err
	}
	wrote, err := d.f.Write(in[:blockSize])
	if err != nil {
		return err
	}
	if wrote != blockSize {
		return fmt.Errorf("blockdev: short write of block %d: %d bytes", n, wrote)
	}
	return nil
}

func (d *FileDisk) Flush() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.f.Sync()
}

func (d *FileDisk) NumBlocks() int { return d.nblock }

func (d *FileDisk) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	unix.Flock(int(d.f.Fd()), unix.LOCK_UN)
	return d.f.Close()
}
