package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/cq/internal/compare"
	"github.com/joescharf/cq/internal/output"
	"github.com/joescharf/cq/internal/report"
)

var historyCmd = &cobra.Command{
	Use:   "history <file>",
	Short: "List stored review results for an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyRun(cmd.Context(), args[0])
	},
}

var historyCompareCmd = &cobra.Command{
	Use:   "compare <file>",
	Short: "Diff the two most recent stored reviews of an artifact",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyCompareRun(cmd.Context(), args[0])
	},
}

func init() {
	historyCmd.AddCommand(historyCompareCmd)
	rootCmd.AddCommand(historyCmd)
}

func historyRun(ctx context.Context, key string) error {
	s, err := getStore(0)
	if err != nil {
		return err
	}

	results, err := s.All(ctx, key)
	if err != nil {
		return err
	}
	if len(results) == 0 {
		ui.Info("no stored reviews for %s", key)
		return nil
	}

	table := ui.Table([]string{"WHEN", "SCORE", "VERDICT", "SUMMARY"})
	for _, r := range results {
		table.Append([]string{
			r.Timestamp.Local().Format("2006-01-02 15:04"),
			output.ScoreColor(r.Score),
			output.VerdictColor(r.Approved),
			r.Summary,
		})
	}
	return table.Render()
}

func historyCompareRun(ctx context.Context, key string) error {
	s, err := getStore(0)
	if err != nil {
		return err
	}

	results, err := s.All(ctx, key)
	if err != nil {
		return err
	}
	if len(results) < 2 {
		return fmt.Errorf("need at least 2 stored reviews for %s, have %d", key, len(results))
	}

	cmp := compare.Compare(results[len(results)-2], results[len(results)-1])
	fmt.Fprint(ui.Out, report.RenderComparison(&cmp))
	return nil
}
