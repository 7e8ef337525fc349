package main

import (
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze [query]",
		Short: "Show how a query is classified, without ranking",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cleanup, err := root.newClient(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			in, err := client.Analyze(strings.Join(args, " "))
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, in)
			}

			cmd.Printf("level: %s\n", in.Level)
			cmd.Printf("tokens: %d (enrichment: %t)\n", in.Tokens, in.NeedsEnrichment)
			cmd.Printf("balance: %t %v\n", in.RequiresBalance, in.Domains)
			signals := make([]string, 0, len(in.Terms))
			for s := range in.Terms {
				signals = append(signals, s)
			}
			sort.Strings(signals)
			for _, s := range signals {
				cmd.Printf("  %-10s %s\n", s, strings.Join(in.Terms[s], ", "))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the intent as JSON")
	return cmd
}
