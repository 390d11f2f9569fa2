package main

import (
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "aquamarine-shiftd",
		Short: "Standalone driver for the Tab backend",
		Long:  "aquamarine-shiftd connects to a nested Shift session and runs the Tab backend without a host compositor, for manual testing.",
	}

	root.AddCommand(newServeCmd())
	root.AddCommand(newDoctorCmd())

	return root
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
