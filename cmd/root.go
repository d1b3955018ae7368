package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joescharf/cq/internal/history"
	"github.com/joescharf/cq/internal/models"
	"github.com/joescharf/cq/internal/output"
	"github.com/joescharf/cq/internal/rules"
)

// Package-level shared dependencies, initialized in cobra.OnInitialize.
var (
	ui        *output.UI
	histStore history.Store

	verbose bool

	buildVersion string
	buildCommit  string
	buildDate    string
)

var rootCmd = &cobra.Command{
	Use:   "cq",
	Short: "Code quality review engine",
	Long: `cq reviews source files with a deterministic rule catalog,
scores them, tracks review history per artifact, and reports trends
across runs and whole project trees.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	DisableAutoGenTag: true,
}

// Execute is the main entry point called from main.go.
func Execute(version, commit, date string) {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig, initDeps)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.config/cq/config.yaml)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("cq %s (commit %s, built %s)\n", buildVersion, buildCommit, buildDate)
		},
	})
}

func initConfig() {
	// If --config is explicitly set, use that file
	if cfgFile, _ := rootCmd.PersistentFlags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: cannot find home directory: %v\n", err)
			os.Exit(1)
		}

		configDir := filepath.Join(home, ".config", "cq")
		viper.AddConfigPath(configDir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("CQ")
	viper.AutomaticEnv()

	// Defaults via viper.SetDefault()
	home, _ := os.UserHomeDir()
	defaultConfigDir := filepath.Join(home, ".config", "cq")

	viper.SetDefault("db_path", filepath.Join(defaultConfigDir, "cq.db"))
	viper.SetDefault("events_log", "")
	viper.SetDefault("rules.file", "")
	viper.SetDefault("review.approval_threshold", models.DefaultApprovalThreshold)
	viper.SetDefault("review.strict", false)
	viper.SetDefault("review.check_security", true)
	viper.SetDefault("review.check_accessibility", true)
	viper.SetDefault("review.check_performance", true)
	viper.SetDefault("history.max_per_artifact", models.DefaultMaxHistory)
	viper.SetDefault("scan.workers", 0)
	viper.SetDefault("scan.worst_n", 5)

	// Read config file if it exists (optional)
	_ = viper.ReadInConfig()
}

func initDeps() {
	ui = output.New()
	ui.Verbose = verbose

	// The history store is initialized lazily — only when commands
	// actually need it. This allows config/version commands to run
	// without a db.
}

// getStore returns the shared store, initializing it on first call.
// maxPerArtifact caps each artifact's stored history; a non-positive
// value falls back to the configured default. Commands that carry
// review options pass Options.MaxHistoryPerArtifact so an override
// there reaches the store.
func getStore(maxPerArtifact int) (history.Store, error) {
	if histStore != nil {
		return histStore, nil
	}

	if maxPerArtifact <= 0 {
		maxPerArtifact = viper.GetInt("history.max_per_artifact")
	}
	dbPath := viper.GetString("db_path")
	s, err := history.NewSQLiteStore(dbPath, maxPerArtifact)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Context() is nil until Execute runs; migrations also happen from
	// tests that call getStore directly.
	ctx := rootCmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	histStore = s
	return histStore, nil
}

// optionsFromConfig builds review options from the effective viper
// configuration, including custom rules from the configured rules file.
func optionsFromConfig() (models.Options, error) {
	opts := models.DefaultOptions()
	opts.StrictMode = viper.GetBool("review.strict")
	opts.CheckSecurity = viper.GetBool("review.check_security")
	opts.CheckAccessibility = viper.GetBool("review.check_accessibility")
	opts.CheckPerformance = viper.GetBool("review.check_performance")
	opts.ApprovalThreshold = viper.GetInt("review.approval_threshold")
	opts.MaxHistoryPerArtifact = viper.GetInt("history.max_per_artifact")

	if path := viper.GetString("rules.file"); path != "" {
		specs, err := rules.LoadSpecs(path)
		if err != nil {
			return opts, err
		}
		opts.CustomRules = specs
	}
	return opts, nil
}
