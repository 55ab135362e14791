package item

import (
	"github.com/samber/lo"
	"github.com/twmb/murmur3"
)

// BloomHashCount is the number of independent hash functions used by the
// item-index bloom filters, one key per function.
const BloomHashCount = 4

// HashFamily wraps a mount's bloom keys into keyed hash functions. Keys are
// regenerated on every mount, so filter positions never carry meaning
// across mounts.
type HashFamily struct {
	keys [BloomHashCount]uint64
}

func NewHashFamily(keys [BloomHashCount]uint64) *HashFamily {
	return &HashFamily{keys: keys}
}

// Sums returns one keyed hash of key per function.
func (f *HashFamily) Sums(key Key) []uint64 {
	return lo.Map(f.keys[:], func(seed uint64, _ int) uint64 {
		return murmur3.SeedSum64(seed, []byte(key))
	})
}

// Indexes maps key to one slot per hash function in a filter of m slots.
func (f *HashFamily) Indexes(key Key, m uint64) []uint64 {
	return lo.Map(f.Sums(key), func(sum uint64, _ int) uint64 {
		return sum % m
	})
}
