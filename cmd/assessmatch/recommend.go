package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	assessmatch "github.com/kailas-cloud/assessmatch/pkg/sdk"
)

func newRecommendCmd(root *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "recommend [query or job description URL]",
		Short: "Recommend assessments for a query",
		Example: `  assessmatch recommend "Java developer who collaborates with business teams"
  assessmatch recommend https://example.com/jobs/analyst --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cleanup, err := root.newClient(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			res, err := client.Recommend(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, res)
			}
			printRecommendation(cmd, res)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "output the result as JSON")
	return cmd
}

// newClient builds an SDK client for one-shot commands.
func (o *rootOptions) newClient(cmd *cobra.Command) (*assessmatch.Client, func(), error) {
	cfg, path, err := o.loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := o.newLogger(cfg, "warn")
	if err != nil {
		return nil, nil, err
	}
	client, err := assessmatch.New(cmd.Context(), o.sdkOptions(path, cfg, logger, assessmatch.WithWarmUp(false))...)
	if err != nil {
		syncLogger(logger)
		return nil, nil, err
	}
	return client, func() {
		client.Close()
		syncLogger(logger)
	}, nil
}

func printRecommendation(cmd *cobra.Command, res assessmatch.Result) {
	out := cmd.OutOrStdout()
	if len(res.Assessments) == 0 {
		cmd.Println("No assessments found.")
		return
	}

	tw := tabwriter.NewWriter(out, 0, 2, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "#\tSCORE\tNAME\tCATEGORY\tMIN\tURL")
	for i, a := range res.Assessments {
		_, _ = fmt.Fprintf(tw, "%d\t%.3f\t%s\t%s\t%d\t%s\n",
			i+1, a.Score, a.Name, a.Category, a.DurationMinutes, a.URL)
	}
	_ = tw.Flush()

	cmd.Println()
	cmd.Printf("tier: %s  balanced: %t  domains: %s\n",
		res.Tier, res.Balanced, strings.Join(res.Intent.Domains, ", "))
	if res.Shortfall {
		cmd.Println("note: the catalog holds fewer assessments than the minimum result count")
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
