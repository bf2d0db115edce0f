package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/featsync/internal/config"
	"github.com/dbsmedya/featsync/internal/logger"
	"github.com/dbsmedya/featsync/internal/store"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and store connectivity",
	Long: `Validate checks the configuration file and the configured stores to
ensure a sync run can execute safely.

Checks performed:
  - Configuration syntax and required fields
  - Store connectivity (source and target)
  - Schema availability on both stores
  - Job uid fields and custom attribute mappings against live schemas

Example:
  featsync validate --config featsync.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Apply CLI overrides
	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.PageSize, overrides.InsertBatchSize,
		overrides.DeleteBatchSize, overrides.Verify)

	// Initialize logger
	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	log.Info("Starting validation checks...")

	// Static configuration checks first
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}
	log.Info("Configuration syntax OK")

	ctx := context.Background()

	src, tgt, err := openStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open stores: %w", err)
	}
	defer src.Close()
	defer tgt.Close()

	srcSchema, err := src.Store.Schema(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch source schema: %w", err)
	}
	log.Infow("Source schema OK", "id_field", srcSchema.IDField, "fields", len(srcSchema.Fields))

	tgtSchema, err := tgt.Store.Schema(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch target schema: %w", err)
	}
	log.Infow("Target schema OK", "id_field", tgtSchema.IDField, "fields", len(tgtSchema.Fields))

	// Per-job checks against the live schemas
	for name, job := range cfg.Jobs {
		if err := validateJobSchemas(name, &job, srcSchema, tgtSchema); err != nil {
			return err
		}
		log.Infow("Job OK", "job", name)
	}

	fmt.Println("\nAll validation checks passed.")
	return nil
}

// validateJobSchemas checks a job's uid fields and custom attribute map
// against the live store schemas.
func validateJobSchemas(name string, job *config.JobConfig, srcSchema, tgtSchema *store.Schema) error {
	if !srcSchema.HasField(job.SourceUIDField) {
		return fmt.Errorf("job %q: source uid field %q not found in source schema", name, job.SourceUIDField)
	}
	if !tgtSchema.HasField(job.TargetUIDField) {
		return fmt.Errorf("job %q: target uid field %q not found in target schema", name, job.TargetUIDField)
	}
	for src, tgt := range job.AttributeMap {
		if !srcSchema.HasField(src) {
			return fmt.Errorf("job %q: mapped field %q not found in source schema", name, src)
		}
		if !tgtSchema.HasField(tgt) {
			return fmt.Errorf("job %q: mapped field %q not found in target schema", name, tgt)
		}
	}
	return nil
}
