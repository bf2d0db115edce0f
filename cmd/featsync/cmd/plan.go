package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/featsync/internal/config"
	"github.com/dbsmedya/featsync/internal/feature"
	"github.com/dbsmedya/featsync/internal/importer"
	"github.com/dbsmedya/featsync/internal/logger"
	"github.com/dbsmedya/featsync/internal/report"
)

// outputWriter is used for printing output, can be overridden in tests
var outputWriter io.Writer = os.Stdout

// setOutputWriter sets the output writer (used for testing)
func setOutputWriter(w io.Writer) {
	outputWriter = w
}

// resetOutputWriter resets output to stdout (used for testing)
func resetOutputWriter() {
	outputWriter = os.Stdout
}

var planJob string

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Show what a sync run would do, without modifying either store",
	Long: `Plan compares the source and target stores for a job and displays the
matched/unmatched record counts, the effective attribute map, and the
actions a sync run would take. Neither store is modified.

Example:
  featsync plan --config featsync.yaml --job drain_inspections`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planJob, "job", "j", "",
		"Job name from configuration file (required)")
	planCmd.MarkFlagRequired("job")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	jobCfg, err := cfg.GetJob(planJob)
	if err != nil {
		return err
	}

	// Apply CLI overrides
	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.PageSize, overrides.InsertBatchSize,
		overrides.DeleteBatchSize, overrides.Verify)

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log = log.WithJob(planJob)

	ctx := context.Background()

	src, tgt, err := openStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open stores: %w", err)
	}
	defer src.Close()
	defer tgt.Close()

	custom := feature.NewAttributeMap()
	for srcField, tgtField := range jobCfg.AttributeMap {
		custom.Add(srcField, tgtField)
	}

	imp, err := importer.New(src.Store, tgt.Store, custom, cfg.Verification, log)
	if err != nil {
		return fmt.Errorf("failed to create importer: %w", err)
	}

	comp, err := imp.Compare(ctx, jobCfg.SourceUIDField, jobCfg.TargetUIDField)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	report.Render(outputWriter, planJob, comp)
	return nil
}
