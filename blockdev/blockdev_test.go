package blockdev

import (
	"bytes"
	"path/filepath"
	"testing"
)

func TestMemDiskReadWriteRoundTrip(t *testing.T) {
	d := NewMemDisk(4)
	want := bytes.Repeat([]byte{0xab}, blockSize)

	if err := d.WriteBlock(2, want); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	got := make([]byte, blockSize)
	if err := d.ReadBlock(2, got); err != nil {
		t.Fatalf("ReadBlock: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("ReadBlock returned mismatched data")
	}
}

func TestMemDiskOutOfRange(t *testing.T) {
	d := NewMemDisk(2)
	buf := make([]byte, blockSize)
	if err := d.ReadBlock(2, buf); err == nil {
		t.Fatalf("ReadBlock(2) on a 2-block disk should fail")
	}
	if err := d.WriteBlock(-1, buf); err == nil {
		t.Fatalf("WriteBlock(-1) should fail")
	}
}

func TestMemDiskNumBlocks(t *testing.T) {
	d := NewMemDisk(7)
	if got := d.NumBlocks(); got != 7 {
		t.Fatalf("NumBlocks() = %d, want 7", got)
	}
}

func TestFileDiskCreateWriteReopenReadBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")

	fd, err := CreateFileDisk(path, 4)
	if err != nil {
		t.Fatalf("CreateFileDisk: %v", err)
	}
	want := bytes.Repeat([]byte{0x7f}, blockSize)
	if err := fd.WriteBlock(1, want); err != nil {
		t.Fatalf("WriteBlock: %v", err)
	}
	if err := fd.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := fd.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenFileDisk(path, 4)
	if err != nil {
		t.Fatalf("OpenFileDisk: %v", err)
	}
	defer reopened.Close()

	got := make([]byte, blockSize)
	if err := reopened.ReadBlock(1, got); err != nil {
		t.Fatalf("ReadBlock after reopen: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("ReadBlock after reopen returned mismatched data")
	}
}

func TestOpenFileDiskRefusesSecondLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "disk.img")

	first, err := CreateFileDisk(path, 2)
	if err != nil {
		t.Fatalf("CreateFileDisk: %v", err)
	}
	defer first.Close()

	if _, err := OpenFileDisk(path, 2); err == nil {
		t.Fatalf("OpenFileDisk on an already-locked image unexpectedly succeeded")
	}
}
