// Package schema describes records as ordered lists of named, typed fields.
//
// A Schema is derived once from a Go struct type with Of or FromType, or
// declared explicitly through a Registry from type expressions such as
// "list<int>" or "int|float|null". Field types form a closed set: bool, int,
// float, string, null, list, set, tuple, map, record, optional and union.
// Types that fall outside it fail at derivation time with an error matching
// errors.ErrSchema.
//
// Go types map onto kinds as follows:
//
//	bool                 bool
//	int*, uint*          int
//	float32, float64     float
//	string               string
//	*T                   optional<T>
//	[]T                  list<T>
//	[N]T                 tuple<T,N>
//	map[K]struct{}       set<K>
//	map[K]V              map<K,V>   (K is string, integer or bool)
//	struct               record
//	interface            declared with a `typeline:",type=..."` tag
package schema
