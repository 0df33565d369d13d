// Package reconcile computes which referenced keys no resource table defines.
package reconcile

import "keysync/internal/keyset"

// DefinedUnion merges the keys of every table, primary and secondary alike.
func DefinedUnion(tables ...keyset.KeySet) keyset.KeySet {
	return keyset.Union(tables...)
}

// Missing returns referenced minus defined.
func Missing(referenced, defined keyset.KeySet) keyset.KeySet {
	return keyset.Difference(referenced, defined)
}
