package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile         string
	logLevel        string
	logFormat       string
	pageSize        int
	insertBatchSize int
	deleteBatchSize int
	verifyInserts   bool
)

var rootCmd = &cobra.Command{
	Use:   "featsync",
	Short: "Feature Store Drain Synchronizer",
	Long: `A CLI tool for one-directional, idempotent synchronization between two
feature stores. Records present only in the source are migrated into the
target, and source records already represented in the target are purged.

Features:
  - Automatic attribute-name mapping with per-job overrides
  - Insert-before-delete ordering (a failed run never loses data)
  - Re-runnable: partial runs self-heal on the next pass
  - MySQL table and feature-service HTTP store backends`,
	Version: Version,
}

// Execute runs the root command
func Execute() {
	// Credentials referenced as ${VAR} in the config file may live in .env
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "featsync.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Processing overrides
	rootCmd.PersistentFlags().IntVar(&pageSize, "page-size", 0,
		"Override query page size (records per page)")
	rootCmd.PersistentFlags().IntVar(&insertBatchSize, "insert-batch-size", 0,
		"Override insert batch size (records per insert call)")
	rootCmd.PersistentFlags().IntVar(&deleteBatchSize, "delete-batch-size", 0,
		"Override delete batch size (ids per delete call)")

	// Verification override
	rootCmd.PersistentFlags().BoolVar(&verifyInserts, "verify", false,
		"Verify migrated records arrived in target before deleting from source")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel        string
	LogFormat       string
	PageSize        int
	InsertBatchSize int
	DeleteBatchSize int
	Verify          bool
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:        logLevel,
		LogFormat:       logFormat,
		PageSize:        pageSize,
		InsertBatchSize: insertBatchSize,
		DeleteBatchSize: deleteBatchSize,
		Verify:          verifyInserts,
	}
}
