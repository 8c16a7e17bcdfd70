package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s5kern/wfs/blockdev"
	"github.com/s5kern/wfs/s5fs"
)

var (
	mkfsBlocks int
	mkfsInodes int
)

var mkfsCmd = &cobra.Command{
	Use:   "mkfs <image>",
	Short: "Format a fresh S5FS image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		image := args[0]
		disk, err := blockdev.CreateFileDisk(image, mkfsBlocks)
		if err != nil {
			return fmt.Errorf("creating %s: %w", image, err)
		}
		fs, errt := s5fs.Mkfs(disk, mkfsBlocks, mkfsInodes)
		if errt != 0 {
			disk.Close()
			return fmt.Errorf("mkfs: %w", errt)
		}
		if errt := fs.Shutdown(); errt != 0 {
			return fmt.Errorf("flushing %s: %w", image, errt)
		}
		fmt.Printf("formatted %s: %d blocks, %d inodes\n", image, mkfsBlocks, mkfsInodes)
		return nil
	},
}

func init() {
	mkfsCmd.Flags().IntVar(&mkfsBlocks, "blocks", 8192, "total disk blocks")
	mkfsCmd.Flags().IntVar(&mkfsInodes, "inodes", 1024, "total inodes")
}
