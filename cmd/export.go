package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/joescharf/cq/internal/models"
	"github.com/joescharf/cq/internal/report"
)

var exportFormat string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the latest review of every artifact as JSON, CSV, or Markdown",
	RunE: func(cmd *cobra.Command, args []string) error {
		return exportRun(cmd.Context())
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "Output format: json, csv, markdown")
	rootCmd.AddCommand(exportCmd)
}

func exportRun(ctx context.Context) error {
	s, err := getStore(0)
	if err != nil {
		return err
	}

	keys, err := s.Keys(ctx)
	if err != nil {
		return err
	}

	var latest []*models.ReviewResult
	for _, k := range keys {
		r, err := s.Latest(ctx, k)
		if err != nil {
			return err
		}
		if r != nil {
			latest = append(latest, r)
		}
	}

	switch exportFormat {
	case "json":
		enc := json.NewEncoder(ui.Out)
		enc.SetIndent("", "  ")
		return enc.Encode(latest)
	case "csv":
		w := csv.NewWriter(ui.Out)
		w.Write([]string{"ArtifactKey", "Score", "Approved", "Issues", "Suggestions", "Timestamp"})
		for _, r := range latest {
			w.Write([]string{
				r.ArtifactKey,
				fmt.Sprintf("%d", r.Score),
				fmt.Sprintf("%t", r.Approved),
				fmt.Sprintf("%d", len(r.Issues)),
				fmt.Sprintf("%d", len(r.Suggestions)),
				r.Timestamp.Format("2006-01-02 15:04:05"),
			})
		}
		w.Flush()
		return w.Error()
	case "markdown":
		for i, r := range latest {
			if i > 0 {
				fmt.Fprintln(ui.Out)
			}
			fmt.Fprint(ui.Out, report.RenderResult(r))
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s (use: json, csv, markdown)", exportFormat)
	}
}
