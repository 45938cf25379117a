package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/few"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of few",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "few version %s\n", few.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
