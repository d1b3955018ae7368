package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configForce bool

// configDirFunc returns the config directory path, replaceable in tests.
var configDirFunc = defaultConfigDir

func defaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "cq"), nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or manage configuration",
	Long: `Show or manage cq configuration.

Running bare 'cq config' is the same as 'cq config show'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create config file with commented defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configInitRun()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration with sources",
	RunE: func(cmd *cobra.Command, args []string) error {
		return configShowRun()
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing config file")
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

// configTemplate is the template for generating config.yaml with comments.
const configTemplate = `# cq configuration
# See: cq config show (for effective values and sources)

# SQLite review-history database path (default: ~/.config/cq/cq.db)
# db_path: {{ .DBPath }}

# JSONL event audit log. Empty disables event logging.
# events_log: ""

rules:
  # YAML file with additional custom rules (empty: built-ins only)
  file: "{{ .RulesFile }}"

review:
  # Minimum score for approval (default: 70)
  approval_threshold: {{ .ApprovalThreshold }}

  # Strict mode: high-severity issues also block approval (default: false)
  strict: {{ .Strict }}

  # Rule group toggles
  check_security: true
  check_accessibility: true
  check_performance: true

history:
  # Stored results per artifact; oldest entries are evicted first (default: 10)
  max_per_artifact: {{ .MaxHistory }}

scan:
  # Worker pool size for project scans (0: number of CPUs)
  workers: {{ .Workers }}

  # Lowest-scoring artifacts listed in the aggregate (default: 5)
  worst_n: {{ .WorstN }}
`

type configTemplateData struct {
	DBPath            string
	RulesFile         string
	ApprovalThreshold int
	Strict            bool
	MaxHistory        int
	Workers           int
	WorstN            int
}

func configFilePath() (string, error) {
	dir, err := configDirFunc()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func configInitRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(cfgPath); err == nil {
		if !configForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", cfgPath)
		}
		ui.Warning("Overwriting existing config file")
	}

	data := configTemplateData{
		DBPath:            viper.GetString("db_path"),
		RulesFile:         viper.GetString("rules.file"),
		ApprovalThreshold: viper.GetInt("review.approval_threshold"),
		Strict:            viper.GetBool("review.strict"),
		MaxHistory:        viper.GetInt("history.max_per_artifact"),
		Workers:           viper.GetInt("scan.workers"),
		WorstN:            viper.GetInt("scan.worst_n"),
	}

	tmpl, err := template.New("config").Parse(configTemplate)
	if err != nil {
		return fmt.Errorf("template parse error: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("template execute error: %w", err)
	}

	dir := filepath.Dir(cfgPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(cfgPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	ui.Success("Config file created: %s", cfgPath)
	fmt.Fprintln(ui.Out)
	fmt.Fprint(ui.Out, buf.String())
	return nil
}

// configKeyInfo describes a config key for display purposes.
type configKeyInfo struct {
	Key    string
	EnvVar string
}

var configKeys = []configKeyInfo{
	{Key: "db_path", EnvVar: "CQ_DB_PATH"},
	{Key: "events_log", EnvVar: "CQ_EVENTS_LOG"},
	{Key: "rules.file", EnvVar: "CQ_RULES_FILE"},
	{Key: "review.approval_threshold", EnvVar: "CQ_REVIEW_APPROVAL_THRESHOLD"},
	{Key: "review.strict", EnvVar: "CQ_REVIEW_STRICT"},
	{Key: "review.check_security", EnvVar: "CQ_REVIEW_CHECK_SECURITY"},
	{Key: "review.check_accessibility", EnvVar: "CQ_REVIEW_CHECK_ACCESSIBILITY"},
	{Key: "review.check_performance", EnvVar: "CQ_REVIEW_CHECK_PERFORMANCE"},
	{Key: "history.max_per_artifact", EnvVar: "CQ_HISTORY_MAX_PER_ARTIFACT"},
	{Key: "scan.workers", EnvVar: "CQ_SCAN_WORKERS"},
	{Key: "scan.worst_n", EnvVar: "CQ_SCAN_WORST_N"},
}

func configShowRun() error {
	cfgPath, err := configFilePath()
	if err != nil {
		return err
	}

	if _, err := os.Stat(cfgPath); err == nil {
		ui.Info("Config file: %s", cfgPath)
	} else {
		ui.Info("Config file: (none)")
	}
	fmt.Fprintln(ui.Out)

	fileValues := readConfigFileValues(cfgPath)

	for _, k := range configKeys {
		val := viper.Get(k.Key)
		source := detectSource(k.Key, k.EnvVar, fileValues)
		fmt.Fprintf(ui.Out, "  %-28s %v  %s\n", k.Key, val, source)
	}

	return nil
}

// readConfigFileValues reads the raw YAML file and returns a flat map of keys present in it.
func readConfigFileValues(path string) map[string]bool {
	result := make(map[string]bool)

	data, err := os.ReadFile(path)
	if err != nil {
		return result
	}

	var parsed map[string]any
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return result
	}

	flattenKeys("", parsed, result)
	return result
}

// flattenKeys recursively flattens a nested map to dot-notation keys.
func flattenKeys(prefix string, m map[string]any, result map[string]bool) {
	for key, val := range m {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := val.(map[string]any); ok {
			flattenKeys(fullKey, nested, result)
		} else {
			result[fullKey] = true
		}
	}
}

// detectSource determines where a config value is coming from.
func detectSource(key, envVar string, fileValues map[string]bool) string {
	if _, ok := os.LookupEnv(envVar); ok {
		return fmt.Sprintf("(env: %s)", envVar)
	}
	if fileValues[key] {
		return "(file)"
	}
	return "(default)"
}
