package importer

import (
	"context"
	"fmt"

	"github.com/dbsmedya/featsync/internal/feature"
	"github.com/dbsmedya/featsync/internal/store"
)

// Side holds one store's half of a comparison.
type Side struct {
	// Index maps each record's business unique-id value to its internal id.
	// When several records share a uid, the last fetched one wins; the
	// per-record partition below still classifies every duplicate.
	Index map[any]any

	// Matched are records whose uid is present in the other side's index.
	Matched []feature.Record

	// Unmatched are records whose uid is absent from the other side's index.
	Unmatched []feature.Record
}

// Fetched returns the number of records queried for this side.
func (s *Side) Fetched() int {
	return len(s.Matched) + len(s.Unmatched)
}

// Comparison is the result of one reconciliation pass. It is a standalone
// value: every Compare call builds a fresh one, so concurrent importers
// never share comparison state.
type Comparison struct {
	Source Side
	Target Side

	// EffectiveMap is the merged auto+custom attribute map used for the run.
	EffectiveMap feature.AttributeMap

	// SourceIDField and TargetIDField are the stores' internal id fields.
	SourceIDField string
	TargetIDField string
}

// Compare fetches both stores' records and partitions each side into
// matched and unmatched sets keyed on the given business unique-id fields.
//
// Misconfiguration (a custom mapping or uid field not covered by the
// schemas) fails fast with a *ConfigurationError before any record query.
// Remote failures propagate unchanged.
func (im *Importer) Compare(ctx context.Context, srcUIDField, tgtUIDField string) (*Comparison, error) {
	srcSchema, err := im.source.Schema(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch source schema: %w", err)
	}
	tgtSchema, err := im.target.Schema(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch target schema: %w", err)
	}

	auto := feature.AutoMap(srcSchema.Fields, tgtSchema.Fields)
	if err := validateMappings(im.custom, srcSchema, tgtSchema); err != nil {
		return nil, err
	}
	effective := auto.Merge(im.custom)

	if err := validateUIDCoverage(effective, srcUIDField, tgtUIDField); err != nil {
		return nil, err
	}

	srcFields, tgtFields := effective.SourcePairs()
	srcFields = appendField(srcFields, srcSchema.IDField)
	tgtFields = appendField(tgtFields, tgtSchema.IDField)

	im.logger.Debugw("Comparing stores",
		"source_fields", srcFields,
		"target_fields", tgtFields,
	)

	srcRecords, err := im.source.QueryAll(ctx, srcFields)
	if err != nil {
		return nil, fmt.Errorf("failed to query source store: %w", err)
	}
	tgtRecords, err := im.target.QueryAll(ctx, tgtFields)
	if err != nil {
		return nil, fmt.Errorf("failed to query target store: %w", err)
	}

	comp := &Comparison{
		EffectiveMap:  effective,
		SourceIDField: srcSchema.IDField,
		TargetIDField: tgtSchema.IDField,
	}
	comp.Source.Index = buildIndex(srcRecords, srcUIDField, srcSchema.IDField)
	comp.Target.Index = buildIndex(tgtRecords, tgtUIDField, tgtSchema.IDField)

	comp.Source.Matched, comp.Source.Unmatched = partition(srcRecords, srcUIDField, comp.Target.Index)
	comp.Target.Matched, comp.Target.Unmatched = partition(tgtRecords, tgtUIDField, comp.Source.Index)

	im.logger.Infow("Comparison complete",
		"source_fetched", comp.Source.Fetched(),
		"source_matched", len(comp.Source.Matched),
		"source_unmatched", len(comp.Source.Unmatched),
		"target_fetched", comp.Target.Fetched(),
		"target_matched", len(comp.Target.Matched),
		"target_unmatched", len(comp.Target.Unmatched),
	)

	return comp, nil
}

// validateMappings checks every custom mapping against the live schemas.
func validateMappings(custom feature.AttributeMap, srcSchema, tgtSchema *store.Schema) error {
	for src, tgt := range custom {
		if !srcSchema.HasField(src) {
			return configErrorf("custom mapping %q -> %q: field %q not in source schema", src, tgt, src)
		}
		if !tgtSchema.HasField(tgt) {
			return configErrorf("custom mapping %q -> %q: field %q not in target schema", src, tgt, tgt)
		}
	}
	return nil
}

// validateUIDCoverage checks the uid fields are carried by the effective
// map, so uid values are present on every fetched record.
func validateUIDCoverage(effective feature.AttributeMap, srcUIDField, tgtUIDField string) error {
	if _, ok := effective[srcUIDField]; !ok {
		return configErrorf("source uid field %q is not covered by the attribute map", srcUIDField)
	}
	for _, tgt := range effective {
		if tgt == tgtUIDField {
			return nil
		}
	}
	return configErrorf("target uid field %q is not covered by the attribute map", tgtUIDField)
}

// appendField appends name unless already present.
func appendField(fields []string, name string) []string {
	for _, f := range fields {
		if f == name {
			return fields
		}
	}
	return append(fields, name)
}

// buildIndex maps uid value -> internal id, last write wins on duplicates.
func buildIndex(records []feature.Record, uidField, idField string) map[any]any {
	index := make(map[any]any, len(records))
	for _, rec := range records {
		uid, _ := rec.Get(uidField)
		id, _ := rec.Get(idField)
		index[uid] = id
	}
	return index
}

// partition splits records into matched/unmatched by membership of their
// uid value in the other side's index. Fetch order is preserved and every
// record lands in exactly one bucket.
func partition(records []feature.Record, uidField string, otherIndex map[any]any) (matched, unmatched []feature.Record) {
	for _, rec := range records {
		uid, _ := rec.Get(uidField)
		if _, ok := otherIndex[uid]; ok {
			matched = append(matched, rec)
		} else {
			unmatched = append(unmatched, rec)
		}
	}
	return matched, unmatched
}
