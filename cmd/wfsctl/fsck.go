package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/s5kern/wfs/s5fs"
)

var fsckCmd = &cobra.Command{
	Use:   "fsck <image>",
	Short: "Walk the free lists and inode table, reporting inconsistencies",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		disk, err := openImage(args[0])
		if err != nil {
			return err
		}
		defer disk.Close()

		fs, errt := s5fs.Boot(disk)
		if errt != 0 {
			return fmt.Errorf("boot: %w", errt)
		}

		report := fs.Check()
		fmt.Printf("blocks: %d total, %d free listed\n", report.TotalBlocks, report.FreeBlocksListed)
		fmt.Printf("inodes: %d total, %d free listed, %d live\n", report.TotalInodes, report.FreeInodesListed, report.LiveInodes)
		if report.Clean() {
			fmt.Println("clean")
			return nil
		}
		for _, p := range report.Problems {
			fmt.Println("problem:", p)
		}
		return fmt.Errorf("%d problems found", len(report.Problems))
	},
}
