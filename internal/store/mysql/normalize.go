package mysql

import "time"

// normalizeValue converts driver-specific value types into the plain scalars
// the sync engine compares and re-inserts. The MySQL driver returns []byte
// for text columns and time.Time for temporal ones; []byte values would not
// be usable as index map keys.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case time.Time:
		return x
	default:
		return v
	}
}
