// Package importer drives the one-directional drain synchronization between
// a source and a target feature store: records present only in the source
// are migrated into the target, and source records already represented in
// the target are purged.
package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dbsmedya/featsync/internal/config"
	"github.com/dbsmedya/featsync/internal/feature"
	"github.com/dbsmedya/featsync/internal/logger"
	"github.com/dbsmedya/featsync/internal/store"
)

// Run phases, logged as the run progresses.
const (
	phaseComparing = "comparing"
	phaseImporting = "importing"
	phasePurging   = "purging"
)

// Result contains statistics and status of one sync run.
type Result struct {
	RunID         string
	StartedAt     time.Time
	CompletedAt   time.Time
	Duration      time.Duration
	SourceFetched int
	TargetFetched int
	Migrated      int
	Purged        int
	Verified      bool
}

// Importer coordinates reconciliation and migration between two stores.
// It keeps no comparison state between runs; each Run and Compare builds a
// fresh Comparison value. A single Importer must not be used from multiple
// goroutines at once, matching the strictly sequential remote call order.
type Importer struct {
	source store.Store
	target store.Store
	custom feature.AttributeMap
	verify config.VerificationConfig
	logger *logger.Logger
}

// New creates an importer. custom may be nil when no attribute-name
// overrides are needed.
func New(source, target store.Store, custom feature.AttributeMap, verify config.VerificationConfig, log *logger.Logger) (*Importer, error) {
	if source == nil {
		return nil, fmt.Errorf("source store is nil")
	}
	if target == nil {
		return nil, fmt.Errorf("target store is nil")
	}
	if custom == nil {
		custom = feature.NewAttributeMap()
	}
	if log == nil {
		log = logger.NewDefault()
	}

	return &Importer{
		source: source,
		target: target,
		custom: custom,
		verify: verify,
		logger: log,
	}, nil
}

// Run executes one full sync pass:
//
//  1. Compare both stores on the given uid fields.
//  2. Migrate unmatched source records: rename attributes through the
//     effective map, strip the source internal-id field, insert into target
//     as one logical batch, then delete the originals from source.
//  3. Purge matched (stale) source records: their business key already
//     exists in target, so they are deleted without re-insertion.
//
// Insert always precedes the source delete, and the delete is skipped when
// the insert fails, so a failure can leave duplicates but never lose data.
// There is no rollback; re-running is the recovery path, since duplicates
// left by a partial run classify as stale and are purged by the next run.
func (im *Importer) Run(ctx context.Context, srcUIDField, tgtUIDField string) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := im.logger.WithRun(result.RunID)

	log.Infow("Starting sync run",
		"phase", phaseComparing,
		"source_uid_field", srcUIDField,
		"target_uid_field", tgtUIDField,
	)

	comp, err := im.Compare(ctx, srcUIDField, tgtUIDField)
	if err != nil {
		return nil, err
	}
	result.SourceFetched = comp.Source.Fetched()
	result.TargetFetched = comp.Target.Fetched()

	addFeatures := comp.Source.Unmatched
	staleFeatures := comp.Source.Matched

	if len(addFeatures) > 0 {
		log.Infow("Migrating records absent from target",
			"phase", phaseImporting,
			"count", len(addFeatures),
		)
		if err := im.migrate(ctx, log, comp, addFeatures, srcUIDField, tgtUIDField, result); err != nil {
			return nil, err
		}
		result.Migrated = len(addFeatures)
	} else {
		log.Debugw("No records to migrate", "phase", phaseImporting)
	}

	if len(staleFeatures) > 0 {
		log.Infow("Purging stale source records already present in target",
			"phase", phasePurging,
			"count", len(staleFeatures),
		)
		staleIDs := captureIDs(staleFeatures, comp.SourceIDField)
		if err := im.source.DeleteBatch(ctx, staleIDs); err != nil {
			return nil, fmt.Errorf("failed to purge stale source records: %w", err)
		}
		result.Purged = len(staleFeatures)
	} else {
		log.Debugw("No stale records to purge", "phase", phasePurging)
	}

	result.CompletedAt = time.Now()
	result.Duration = result.CompletedAt.Sub(result.StartedAt)

	log.Infow("Sync run complete",
		"duration", result.Duration,
		"migrated", result.Migrated,
		"purged", result.Purged,
	)

	return result, nil
}

// migrate inserts the unmatched source records into the target, then
// deletes the originals from the source. The source internal ids are
// captured before any transformation.
func (im *Importer) migrate(ctx context.Context, log *logger.Logger, comp *Comparison, records []feature.Record, srcUIDField, tgtUIDField string, result *Result) error {
	addIDs := captureIDs(records, comp.SourceIDField)

	projected := feature.ReplaceAttributes(records, comp.EffectiveMap)
	// The target assigns fresh internal ids on insert; carrying the source
	// id along would conflict or be rejected.
	projected = feature.RemoveAttributes(projected, []string{comp.SourceIDField})

	if err := im.target.InsertBatch(ctx, projected); err != nil {
		return fmt.Errorf("failed to insert records into target: %w", err)
	}

	if im.verify.Enabled {
		if err := im.verifyMigrated(ctx, records, srcUIDField, tgtUIDField); err != nil {
			return err
		}
		result.Verified = true
		log.Debugw("Verified migrated records present in target", "count", len(records))
	}

	log.Debugw("Deleting migrated records from source", "count", len(addIDs))
	if err := im.source.DeleteBatch(ctx, addIDs); err != nil {
		return fmt.Errorf("failed to delete migrated records from source: %w", err)
	}
	return nil
}

// verifyMigrated re-queries the target uid column and confirms every
// migrated uid arrived, refusing to delete from source otherwise.
func (im *Importer) verifyMigrated(ctx context.Context, migrated []feature.Record, srcUIDField, tgtUIDField string) error {
	tgtRecords, err := im.target.QueryAll(ctx, []string{tgtUIDField})
	if err != nil {
		return fmt.Errorf("verification query on target failed: %w", err)
	}

	present := make(map[any]struct{}, len(tgtRecords))
	for _, rec := range tgtRecords {
		uid, _ := rec.Get(tgtUIDField)
		present[uid] = struct{}{}
	}

	for _, rec := range migrated {
		uid, _ := rec.Get(srcUIDField)
		if _, ok := present[uid]; !ok {
			return fmt.Errorf("verification failed: uid %v not found in target after insert, source records kept", uid)
		}
	}
	return nil
}

// captureIDs collects the internal id value of each record.
func captureIDs(records []feature.Record, idField string) []any {
	ids := make([]any, 0, len(records))
	for _, rec := range records {
		id, _ := rec.Get(idField)
		ids = append(ids, id)
	}
	return ids
}
