package main

import (
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/assessmatch/internal/version"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s version %s (commit %s, built %s)\n", app, version.Version, version.Commit, version.Date)
		},
	}
}
