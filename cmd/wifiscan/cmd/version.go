package cmd

import (
	"fmt"

	"github.com/dogeorg/wifiscan/pkg/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Get wifiscan version information",
	Run: func(cmd *cobra.Command, args []string) {
		version := version.GetRelease()

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Release: %s\n", version.Release)
		fmt.Fprintf(out, "Git: %s\n", version.Git.Commit)
		fmt.Fprintf(out, "Dirty: %t\n", version.Git.Dirty)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
