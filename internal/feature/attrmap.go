package feature

import "sort"

// AttributeMap maps source field names to target field names for a sync run.
// Two maps exist per run: the auto map derived from the field-name
// intersection of the two schemas, and the caller-supplied custom map.
// Merge combines them with custom entries winning on key collision.
type AttributeMap map[string]string

// NewAttributeMap creates an empty attribute map.
func NewAttributeMap() AttributeMap {
	return make(AttributeMap)
}

// Add inserts or overwrites a single source→target mapping. No validation
// against live schemas happens here; the importer checks mappings before
// querying records.
func (m AttributeMap) Add(sourceField, targetField string) {
	m[sourceField] = targetField
}

// Merge returns a new map containing all entries of m overridden by any key
// also present in custom. Neither input is modified.
func (m AttributeMap) Merge(custom AttributeMap) AttributeMap {
	merged := make(AttributeMap, len(m)+len(custom))
	for src, tgt := range m {
		merged[src] = tgt
	}
	for src, tgt := range custom {
		merged[src] = tgt
	}
	return merged
}

// SourcePairs returns the source and target field names as positionally
// paired slices, sorted by source field name so query field lists are
// deterministic across runs.
func (m AttributeMap) SourcePairs() (sourceFields, targetFields []string) {
	sourceFields = make([]string, 0, len(m))
	for src := range m {
		sourceFields = append(sourceFields, src)
	}
	sort.Strings(sourceFields)

	targetFields = make([]string, 0, len(sourceFields))
	for _, src := range sourceFields {
		targetFields = append(targetFields, m[src])
	}
	return sourceFields, targetFields
}

// AutoMap builds identity mappings for every field name present in both
// schemas. Entry order is unspecified; callers rely on SourcePairs for
// deterministic ordering.
func AutoMap(sourceFields, targetFields []string) AttributeMap {
	tgtSet := make(map[string]struct{}, len(targetFields))
	for _, f := range targetFields {
		tgtSet[f] = struct{}{}
	}

	auto := NewAttributeMap()
	for _, f := range sourceFields {
		if _, ok := tgtSet[f]; ok {
			auto.Add(f, f)
		}
	}
	return auto
}
