package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pable/cricroster/internal/config"
	"github.com/pable/cricroster/internal/logging"
	"github.com/pable/cricroster/internal/storage"
)

var (
	dbPath     string
	configPath string
	dataDir    string
	logLevel   string
	logFormat  string

	// env is loaded once before any command runs; flags win over it.
	env config.Env
)

var rootCmd = &cobra.Command{
	Use:   "cricroster",
	Short: "Cricket career roster builder",
	Long: `Fold Cricsheet ball-by-ball archives (Tests, ODIs, T20Is and the IPL) into a
ranked roster of player careers with roles, trophies and teammates.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	defaultDB := filepath.Join(mustUserHome(), ".cricroster", "roster.db")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDB, "path to SQLite database ($CRICROSTER_DB)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "YAML file overlaying the built-in curated lists")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "data", "directory holding the Cricsheet archives ($CRICROSTER_DATA_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error ($CRICROSTER_LOG_LEVEL)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log format: console or json ($CRICROSTER_LOG_FORMAT)")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(collectCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(enrichCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
}

// setup applies environment defaults to flags the user did not set and
// installs the logger.
func setup(cmd *cobra.Command, args []string) error {
	e, err := config.ParseEnv()
	if err != nil {
		return err
	}
	env = e

	flags := cmd.Flags()
	override := func(name string, dst *string, val string) {
		if val != "" && !flags.Changed(name) {
			*dst = val
		}
	}
	override("db", &dbPath, env.DBPath)
	override("data-dir", &dataDir, env.DataDir)
	override("log-level", &logLevel, env.LogLevel)
	override("log-format", &logFormat, env.LogFormat)

	return logging.Setup(os.Stderr, logLevel, logFormat)
}

func mustUserHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}

// openDB opens the run database, creating its directory when needed.
func openDB() (*storage.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	db, err := storage.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	return db, nil
}
