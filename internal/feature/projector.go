package feature

// ReplaceAttributes returns a copy of records with attribute names renamed
// per nameMap. Attributes without a mapping are dropped; only mapped fields
// survive into the output. Input records are not modified and both record
// order and attribute order are preserved.
func ReplaceAttributes(records []Record, nameMap AttributeMap) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		projected := NewRecord()
		for _, field := range rec.Fields() {
			newName, ok := nameMap[field]
			if !ok {
				continue
			}
			value, _ := rec.Get(field)
			projected.Set(newName, value)
		}
		out = append(out, projected)
	}
	return out
}

// RemoveAttributes returns a copy of records with the named attributes
// deleted. Absent names are a no-op. Input records are not modified and
// record order is preserved.
func RemoveAttributes(records []Record, names []string) []Record {
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		trimmed := rec.Clone()
		for _, name := range names {
			trimmed.Delete(name)
		}
		out = append(out, trimmed)
	}
	return out
}
