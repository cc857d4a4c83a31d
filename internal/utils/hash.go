package utils

import "hash/fnv"

// HashStrings is a stable FNV-1a hash over parts. Parts are separated so
// ("ab","c") and ("a","bc") differ.
func HashStrings(parts ...string) uint64 {
	h := fnv.New64a()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return h.Sum64()
}
