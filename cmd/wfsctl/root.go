package main

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:   "wfsctl",
	Short: "Format, check, mount, and serve S5FS images",
}

func init() {
	rootCmd.AddCommand(mkfsCmd, fsckCmd, mountCmd, serveCmd)
}
