package cmd

import (
	"github.com/spf13/cobra"

	"github.com/joescharf/cq/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server over stdio",
	Long: `Run cq as a Model Context Protocol server on stdin/stdout.

Exposes cq_review_file, cq_review_project, cq_history, and
cq_compare_latest as tools. Register it with an MCP client like so:

  {
    "mcpServers": {
      "cq": {
        "command": "cq",
        "args": ["serve"]
      }
    }
  }`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveRun(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serveRun(cmd *cobra.Command) error {
	opts, err := optionsFromConfig()
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

	srv := mcp.NewServer(engine, opts)
	// Stdout carries the protocol, so the banner goes to stderr.
	ui.Warning("cq MCP server listening on stdio")
	return srv.ServeStdio(cmd.Context())
}
