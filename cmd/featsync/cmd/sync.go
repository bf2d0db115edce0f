package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/featsync/internal/config"
	"github.com/dbsmedya/featsync/internal/feature"
	"github.com/dbsmedya/featsync/internal/importer"
	"github.com/dbsmedya/featsync/internal/lock"
	"github.com/dbsmedya/featsync/internal/logger"
)

var (
	syncJob   string
	syncForce bool
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync records from source store to target store",
	Long: `Sync migrates records that exist only in the source store into the
target store, then purges from the source every record already represented
in the target.

The sync process follows these steps:
  1. Compare both stores on the job's business unique-id fields
  2. Insert unmatched source records into the target (renamed per attribute map)
  3. Delete the migrated records from the source
  4. Purge stale source records whose key already existed in the target

Insert always happens before the source delete, so an interrupted run can
leave duplicates but never loses data. Re-running the job cleans them up.

Example:
  featsync sync --config featsync.yaml --job drain_inspections`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVarP(&syncJob, "job", "j", "",
		"Job name from configuration file (required)")
	syncCmd.MarkFlagRequired("job")

	syncCmd.Flags().BoolVar(&syncForce, "force", false,
		"Force execution even if the job lock cannot be acquired (use with caution)")

	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	configFile := GetConfigFile()

	// Load configuration
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	jobCfg, err := cfg.GetJob(syncJob)
	if err != nil {
		return err
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
	log = log.WithJob(syncJob)

	log.Infow("Starting sync operation",
		"job", syncJob,
		"config", configFile,
	)

	// Setup context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	src, tgt, err := openStores(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to open stores: %w", err)
	}
	defer src.Close()
	defer tgt.Close()

	// Acquire advisory lock to prevent concurrent job execution when the
	// source store is MySQL-backed
	if jobCfg.Lock && !syncForce {
		if src.DB == nil {
			return fmt.Errorf("job %q requests locking but the source store is not MySQL-backed", syncJob)
		}
		jobLock := lock.NewJobLock(src.DB, syncJob)
		if err := jobLock.Acquire(ctx, 1); err != nil {
			if errors.Is(err, lock.ErrLockTimeout) {
				return fmt.Errorf("job %q is already running on another instance (use --force to override)", syncJob)
			}
			return fmt.Errorf("failed to acquire job lock: %w", err)
		}
		defer jobLock.Release(context.Background())
		log.Infow("Acquired advisory lock for job", "lock", jobLock.LockName())
	}

	// Build the custom attribute map from job configuration
	custom := feature.NewAttributeMap()
	for srcField, tgtField := range jobCfg.AttributeMap {
		custom.Add(srcField, tgtField)
	}

	imp, err := importer.New(src.Store, tgt.Store, custom, cfg.Verification, log)
	if err != nil {
		return fmt.Errorf("failed to create importer: %w", err)
	}

	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Warn("Received shutdown signal - cancelling sync...")
		cancel()
	}()

	result, err := imp.Run(ctx, jobCfg.SourceUIDField, jobCfg.TargetUIDField)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn("Sync operation cancelled by user")
			return nil
		}
		return fmt.Errorf("sync operation failed: %w", err)
	}

	// Display results
	fmt.Printf("\n=== Sync Complete ===\n")
	fmt.Printf("Job: %s\n", syncJob)
	fmt.Printf("Run ID: %s\n", result.RunID)
	fmt.Printf("Duration: %s\n", result.Duration)
	fmt.Printf("Source Records: %d\n", result.SourceFetched)
	fmt.Printf("Target Records: %d\n", result.TargetFetched)
	fmt.Printf("Migrated: %d\n", result.Migrated)
	fmt.Printf("Purged: %d\n", result.Purged)
	if cfg.Verification.Enabled {
		fmt.Printf("Verified: %v\n", result.Verified)
	}

	return nil
}
