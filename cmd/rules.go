package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/joescharf/cq/internal/output"
	"github.com/joescharf/cq/internal/rules"
)

var rulesFileType string

var rulesCmd = &cobra.Command{
	Use:   "rules",
	Short: "List the built-in rule catalog",
	Long: `List the catalog rules, their applicability tags, and what their
findings become. With --type only rules applicable to that file-type
tag are shown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return rulesRun()
	},
}

func init() {
	rulesCmd.Flags().StringVar(&rulesFileType, "type", "", "Only rules applicable to this file-type tag (js, py, html, ...)")
	rootCmd.AddCommand(rulesCmd)
}

func rulesRun() error {
	catalog := rules.NewCatalog()

	var list []rules.Rule
	if rulesFileType != "" {
		list = catalog.RulesFor(rulesFileType)
	} else {
		list = catalog.All()
	}

	table := ui.Table([]string{"ID", "GROUP", "APPLIES TO", "OUTCOME", "DESCRIPTION"})
	for _, r := range list {
		appliesTo := "any"
		if tags := r.AppliesTo(); len(tags) > 0 {
			appliesTo = strings.Join(tags, " ")
		}

		out := r.Outcome()
		outcome := "suggestion/" + string(out.Category)
		if out.IsIssue() {
			outcome = "issue/" + output.SeverityColor(string(out.Severity))
		}

		table.Append([]string{r.ID(), string(r.Group()), appliesTo, outcome, out.Description})
	}
	return table.Render()
}
