package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "ewctl",
	Short: "Elephant Watch operator toolkit",
	Long:  "ewctl inspects geofence boundaries, prepares operator credentials and drives a running Elephant Watch API.",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(zonesCmd)
	rootCmd.AddCommand(hashPasswordCmd)
	rootCmd.AddCommand(scenarioCmd)
}
