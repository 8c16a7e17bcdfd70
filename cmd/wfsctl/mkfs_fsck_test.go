package main

import (
	"bytes"
	"path/filepath"
	"testing"
)

// run executes the shared rootCmd with args. Flag values live in package
// variables and persist across Execute calls, so each test passes every
// flag it depends on.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestMkfsThenFsckClean(t *testing.T) {
	image := filepath.Join(t.TempDir(), "disk.img")

	if _, err := run(t, "mkfs", image, "--blocks", "256", "--inodes", "64"); err != nil {
		t.Fatalf("mkfs: %v", err)
	}

	out, err := run(t, "fsck", image)
	if err != nil {
		t.Fatalf("fsck: %v\n%s", err, out)
	}
}

func TestMkfsRejectsImageTooSmallForInodeTable(t *testing.T) {
	image := filepath.Join(t.TempDir(), "tiny.img")

	if _, err := run(t, "mkfs", image, "--blocks", "1", "--inodes", "1024"); err == nil {
		t.Fatalf("mkfs with too few blocks for the inode table unexpectedly succeeded")
	}
}

func TestFsckMissingImage(t *testing.T) {
	image := filepath.Join(t.TempDir(), "does-not-exist.img")

	if _, err := run(t, "fsck", image); err == nil {
		t.Fatalf("fsck on a missing image unexpectedly succeeded")
	}
}

func TestMkfsRequiresExactlyOneArg(t *testing.T) {
	if _, err := run(t, "mkfs"); err == nil {
		t.Fatalf("mkfs with no image argument unexpectedly succeeded")
	}
}
