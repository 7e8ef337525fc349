package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	assessmatch "github.com/kailas-cloud/assessmatch/pkg/sdk"
)

func newEvaluateCmd(root *rootOptions) *cobra.Command {
	var (
		k    int
		out  string
		summaryOnly bool
	)
	cmd := &cobra.Command{
		Use:   "evaluate [query set]",
		Short: "Score recommendations with Recall@K over a labeled query set",
		Long: `Runs every query of a JSON, YAML, CSV or plain text file through the engine.
Labeled queries are scored with Recall@K; the mean is taken over labeled
queries only. With --out, predictions are written as a Query,Assessment_url CSV.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, cleanup, err := root.newClient(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := client.Evaluate(cmd.Context(), args[0], k)
			if err != nil {
				return err
			}
			printReport(cmd, report, summaryOnly)

			if out != "" {
				if err := report.WritePredictions(out); err != nil {
					return err
				}
				cmd.Printf("predictions written to %s\n", out)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&k, "k", "k", 10, "recall cutoff")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write predictions CSV to this path")
	cmd.Flags().BoolVar(&summaryOnly, "summary", false, "print only the summary line")
	return cmd
}

// recallColor grades a recall value: green from 0.5, yellow above 0, red at 0.
func recallColor(recall float64) *color.Color {
	switch {
	case recall >= 0.5:
		return color.New(color.FgGreen)
	case recall > 0:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}

func printReport(cmd *cobra.Command, r assessmatch.EvaluationReport, summaryOnly bool) {
	w := cmd.OutOrStdout()

	if !summaryOnly {
		for _, res := range r.Results {
			switch {
			case res.Err != nil:
				_, _ = color.New(color.FgRed).Fprintf(w, "  ERR   %s: %v\n", res.Query, res.Err)
			case !res.Labeled:
				_, _ = color.New(color.Faint).Fprintf(w, "  -     %s (%d results, unlabeled)\n", res.Query, len(res.URLs))
			default:
				_, _ = recallColor(res.Recall).Fprintf(w, "  %.2f  %s\n", res.Recall, res.Query)
			}
		}
		_, _ = fmt.Fprintln(w)
	}

	if r.Labeled == 0 {
		_, _ = color.New(color.FgYellow).Fprintf(w, "%d queries, none labeled: no recall computed\n", len(r.Results))
		return
	}
	_, _ = recallColor(r.MeanRecall).Add(color.Bold).Fprintf(w,
		"Mean Recall@%d: %.4f over %d labeled queries (%d failed)\n",
		r.K, r.MeanRecall, r.Labeled, r.Failed)
}
