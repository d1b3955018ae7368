package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/cq/internal/events"
	"github.com/joescharf/cq/internal/history"
	"github.com/joescharf/cq/internal/models"
	"github.com/joescharf/cq/internal/output"
	"github.com/joescharf/cq/internal/report"
	"github.com/joescharf/cq/internal/review"
	"github.com/joescharf/cq/internal/rules"
)

var (
	reviewStrict    bool
	reviewNoHistory bool
	reviewJSON      bool
	reviewMarkdown  bool
	reviewIgnore    []string
	reviewThreshold int
)

var reviewCmd = &cobra.Command{
	Use:   "review <file>",
	Short: "Review a single source file",
	Long: `Review a source file against the rule catalog, print the result,
and append it to the artifact's history. When a previous review of the
same artifact exists, the trend against it is shown as well.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return reviewRun(cmd.Context(), args[0])
	},
}

func init() {
	reviewCmd.Flags().BoolVar(&reviewStrict, "strict", false, "High-severity issues also block approval")
	reviewCmd.Flags().BoolVar(&reviewNoHistory, "no-history", false, "Do not persist the result")
	reviewCmd.Flags().BoolVar(&reviewJSON, "json", false, "Print the result as JSON")
	reviewCmd.Flags().BoolVar(&reviewMarkdown, "markdown", false, "Print the result as a Markdown report")
	reviewCmd.Flags().StringSliceVar(&reviewIgnore, "ignore", nil, "Rule ID patterns to skip (glob)")
	reviewCmd.Flags().IntVar(&reviewThreshold, "threshold", 0, "Approval threshold override (1-100)")
	rootCmd.AddCommand(reviewCmd)
}

// newEngine assembles a review engine for CLI commands.
func newEngine(store history.Store) (*review.Engine, error) {
	engine := review.NewEngine(rules.NewCatalog(), store, events.NewBus())
	engine.SetWarnf(ui.Warning)

	if path := viper.GetString("events_log"); path != "" {
		emitter, err := events.NewEmitter(path)
		if err != nil {
			return nil, err
		}
		engine.SetEmitter(emitter)
	}
	return engine, nil
}

func reviewOptions() (models.Options, error) {
	opts, err := optionsFromConfig()
	if err != nil {
		return opts, err
	}
	if reviewStrict {
		opts.StrictMode = true
	}
	if reviewThreshold > 0 {
		opts.ApprovalThreshold = reviewThreshold
	}
	opts.IgnorePatterns = append(opts.IgnorePatterns, reviewIgnore...)
	return opts, nil
}

func reviewRun(ctx context.Context, path string) error {
	opts, err := reviewOptions()
	if err != nil {
		return err
	}

	var store history.Store
	if !reviewNoHistory {
		store, err = getStore(opts.MaxHistoryPerArtifact)
		if err != nil {
			return err
		}
	}

	engine, err := newEngine(store)
	if err != nil {
		return err
	}

	data, err := readArtifact(path)
	if err != nil {
		return err
	}

	result, cmp, err := engine.ReviewAndCompare(ctx, data, path, opts)
	if err != nil {
		return err
	}

	switch {
	case reviewJSON:
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case reviewMarkdown:
		fmt.Fprint(ui.Out, report.RenderResult(result))
		if cmp != nil {
			fmt.Fprintln(ui.Out)
			fmt.Fprint(ui.Out, report.RenderComparison(cmp))
		}
		return nil
	default:
		printResult(result)
		if cmp != nil {
			printTrend(cmp)
		}
		return nil
	}
}

// readArtifact reads the artifact text, mapping a missing or unreadable
// file to ErrArtifactNotFound before any history is touched.
func readArtifact(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", review.ErrArtifactNotFound, path, err)
	}
	return string(data), nil
}

// printResult renders a result in the default colored CLI format.
func printResult(r *models.ReviewResult) {
	ui.Info("%s — score %s/100, %s", output.Cyan(r.ArtifactKey), output.ScoreColor(r.Score), output.VerdictColor(r.Approved))
	ui.Info("%s", r.Summary)

	if len(r.Issues) > 0 {
		fmt.Fprintln(ui.Out)
		table := ui.Table([]string{"SEVERITY", "LINE", "ISSUE", "FIX"})
		for _, iss := range r.Issues {
			line := ""
			if iss.Location != nil {
				line = fmt.Sprintf("%d", iss.Location.Line)
			}
			table.Append([]string{output.SeverityColor(string(iss.Severity)), line, iss.Description, iss.Recommendation})
		}
		_ = table.Render()
	}

	if len(r.Suggestions) > 0 {
		fmt.Fprintln(ui.Out)
		table := ui.Table([]string{"CATEGORY", "SUGGESTION", "BENEFIT"})
		for _, s := range r.Suggestions {
			table.Append([]string{string(s.Category), s.Description, s.Benefit})
		}
		_ = table.Render()
	}
}

func printTrend(cmp *models.Comparison) {
	fmt.Fprintln(ui.Out)
	ui.Info("trend vs previous run: %s (%+d)", output.TrendColor(string(cmp.Trend)), cmp.ScoreDelta)
	if n := len(cmp.ResolvedIssues); n > 0 {
		ui.Success("%d issue(s) resolved", n)
	}
	if n := len(cmp.NewIssues); n > 0 {
		ui.Warning("%d new issue(s)", n)
	}
}
