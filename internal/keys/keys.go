// Package keys turns raw key spans into accumulator identities.
//
// Identities are xxh3 hashes with a fixed seed, so they are stable across
// runs and workers. Distinct names may share a hash; stats.Table detects
// that on every hit and reports a collision instead of merging the keys.
package keys

import (
	"github.com/zeebo/xxh3"

	"github.com/example/brc/internal/stats"
)

// Seed is the fixed hash seed.
const Seed uint64 = 0x1b2c

// Hash returns the identity of key.
func Hash(key []byte) uint64 {
	return xxh3.HashSeed(key, Seed)
}

// Resolver maps keys to identities and builds tables that accept them.
// Implementations are safe for concurrent use by scanning workers.
type Resolver interface {
	// Resolve returns the identity of key. ok is false when the record
	// should be dropped; err is non-nil when it is a fault.
	Resolve(key []byte) (id uint64, ok bool, err error)
	// NewTable returns a fresh accumulator table for one owner.
	NewTable() *stats.Table
}

// Open discovers keys at runtime: every key is accepted.
type Open struct {
	// Capacity presizes tables; zero means stats.DefaultCapacity.
	Capacity int
}

// Resolve implements Resolver.
func (Open) Resolve(key []byte) (uint64, bool, error) {
	return Hash(key), true, nil
}

// NewTable implements Resolver.
func (o Open) NewTable() *stats.Table {
	return stats.NewTable(o.Capacity)
}
