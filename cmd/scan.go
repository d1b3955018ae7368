package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/cq/internal/output"
	"github.com/joescharf/cq/internal/report"
	"github.com/joescharf/cq/internal/scan"
)

var (
	scanWorkers  int
	scanWorstN   int
	scanJSON     bool
	scanMarkdown bool
)

var scanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Review every recognized source file under a directory",
	Long: `Scan a project tree, review each recognized file with a bounded
worker pool, and print the aggregate: overall score, worst artifacts,
critical issues, and recommendations. Ctrl-C stops the scan at artifact
granularity; already-completed results are still reported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return scanRun(cmd.Context(), args[0])
	},
}

func init() {
	scanCmd.Flags().IntVar(&scanWorkers, "workers", 0, "Worker pool size (default: number of CPUs)")
	scanCmd.Flags().IntVar(&scanWorstN, "worst", 0, "How many lowest-scoring artifacts to list")
	scanCmd.Flags().BoolVar(&scanJSON, "json", false, "Print the aggregate as JSON")
	scanCmd.Flags().BoolVar(&scanMarkdown, "markdown", false, "Print the aggregate as a Markdown report")
	rootCmd.AddCommand(scanCmd)
}

func scanRun(ctx context.Context, root string) error {
	opts, err := reviewOptions()
	if err != nil {
		return err
	}

	store, err := getStore(opts.MaxHistoryPerArtifact)
	if err != nil {
		return err
	}

	engine, err := newEngine(store)
	if err != nil {
		return err
	}

	scanner := scan.New(engine)
	scanner.Workers = scanWorkers
	if scanner.Workers == 0 {
		scanner.Workers = viper.GetInt("scan.workers")
	}
	scanner.WorstN = scanWorstN
	if scanner.WorstN == 0 {
		scanner.WorstN = viper.GetInt("scan.worst_n")
	}

	agg, scanErr := scanner.Scan(ctx, root, opts)
	if agg == nil {
		return scanErr
	}
	if scanErr != nil {
		ui.Warning("scan interrupted: %v (reporting %d completed artifacts)", scanErr, len(agg.Results))
	}

	switch {
	case scanJSON:
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(agg)
	case scanMarkdown:
		fmt.Fprint(ui.Out, report.RenderAggregate(agg))
		return nil
	default:
		printAggregate(agg)
		return nil
	}
}

func printAggregate(agg *scan.Aggregate) {
	ui.Info("%s — overall score %s/100 across %d artifacts", output.Cyan(agg.RootPath), output.ScoreColor(agg.OverallScore), len(agg.Results))

	if len(agg.Worst) > 0 {
		fmt.Fprintln(ui.Out)
		table := ui.Table([]string{"ARTIFACT", "SCORE"})
		for _, w := range agg.Worst {
			table.Append([]string{w.ArtifactKey, output.ScoreColor(w.Score)})
		}
		_ = table.Render()
	}

	if len(agg.CriticalIssues) > 0 {
		fmt.Fprintln(ui.Out)
		ui.Error("%d critical issue(s) found", len(agg.CriticalIssues))
	}

	for _, rec := range agg.Recommendations {
		ui.Info("%s", rec)
	}
}
