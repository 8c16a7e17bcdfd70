// Command wfsctl formats, checks, mounts, and serves S5FS images,
// generalizing mkfs/mkfs.go's skeleton-copying tool to a full CLI over
// the rest of the module.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
