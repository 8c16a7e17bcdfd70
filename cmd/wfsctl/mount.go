package main

import (
	"context"
	"fmt"

	"github.com/jacobsa/fuse"
	"github.com/jacobsa/fuse/fuseutil"
	"github.com/spf13/cobra"

	"github.com/s5kern/wfs/fuseadapter"
	"github.com/s5kern/wfs/s5fs"
	"github.com/s5kern/wfs/vfs"
)

var mountCmd = &cobra.Command{
	Use:   "mount <image> <mountpoint>",
	Short: "Mount an S5FS image via FUSE, generalizing samples/mount_hello's pattern",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		image, mountpoint := args[0], args[1]

		disk, err := openImage(image)
		if err != nil {
			return err
		}
		defer disk.Close()

		fs, errt := s5fs.Boot(disk)
		if errt != 0 {
			return fmt.Errorf("boot: %w", errt)
		}

		cache := vfs.NewCache()
		fs.SetCache(cache)
		root, errt := cache.Vget(fs, fs.RootIno())
		if errt != 0 {
			return fmt.Errorf("loading root inode: %w", errt)
		}
		defer cache.Vput(root)

		adapter := fuseadapter.New(fs, cache)
		mfs, err := fuse.Mount(mountpoint, fuseutil.NewFileSystemServer(adapter), &fuse.MountConfig{})
		if err != nil {
			return fmt.Errorf("mount: %w", err)
		}
		fmt.Printf("mounted %s on %s\n", image, mountpoint)
		return mfs.Join(context.Background())
	},
}
