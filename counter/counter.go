// Package counter implements a sharded concurrent map from barcode
// string to observation count, safe for upsert from arbitrarily many
// producer goroutines with no external synchronization.
//
// It is sharded the same way encoding/bamprovider's concurrentMap shards
// sam.Record lookups: a seahash of the key selects one of a fixed number
// of mutex-guarded buckets.
package counter

import (
	"sort"
	"sync"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/unsafe"
)

const numShards = 1024

type shard struct {
	mu sync.Mutex
	m  map[string]uint32
}

// Counter is a concurrent barcode -> count map. The zero value is not
// usable; construct one with New.
type Counter struct {
	shards [numShards]shard
}

// New creates an empty Counter.
func New() *Counter {
	c := &Counter{}
	for i := range c.shards {
		c.shards[i].m = make(map[string]uint32)
	}
	return c
}

func (c *Counter) shardFor(key string) *shard {
	h := seahash.Sum64(unsafe.StringToBytes(key))
	return &c.shards[h%uint64(numShards)]
}

// Upsert increments key's count, inserting it with count 1 if absent.
// Safe to call concurrently from any number of goroutines.
func (c *Counter) Upsert(key string) {
	s := c.shardFor(key)
	s.mu.Lock()
	s.m[key]++
	s.mu.Unlock()
}

// Find returns key's count and whether it is present. It is a snapshot
// read: callers must not invoke it concurrently with Upsert calls they
// need to observe the effects of without racing.
func (c *Counter) Find(key string) (uint32, bool) {
	s := c.shardFor(key)
	s.mu.Lock()
	v, ok := s.m[key]
	s.mu.Unlock()
	return v, ok
}

// Contains reports whether key has been observed at least once.
func (c *Counter) Contains(key string) bool {
	_, ok := c.Find(key)
	return ok
}

// Size returns the total number of distinct keys observed.
func (c *Counter) Size() int {
	n := 0
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		n += len(s.m)
		s.mu.Unlock()
	}
	return n
}

// Entry is one (barcode, count) pair returned by Snapshot.
type Entry struct {
	Key   string
	Count uint32
}

// Snapshot returns every (barcode, count) pair in the counter. Iteration
// order is unspecified and non-deterministic across runs (it follows Go
// map iteration order within each shard); callers that need a specific
// order, such as package knee, must sort explicitly. Snapshot assumes no
// concurrent writers.
func (c *Counter) Snapshot() []Entry {
	entries := make([]Entry, 0, c.Size())
	for i := range c.shards {
		s := &c.shards[i]
		s.mu.Lock()
		for k, v := range s.m {
			entries = append(entries, Entry{Key: k, Count: v})
		}
		s.mu.Unlock()
	}
	return entries
}

// SortIndexes returns a permutation of [0, len(freq)) that sorts freq in
// descending order. Ties are broken by Go's unstable sort, i.e. by
// whatever order sort.Slice happens to leave equal elements in. Callers
// must not rely on tie order being insertion order.
func SortIndexes(freq []uint32) []int {
	idx := make([]int, len(freq))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		return freq[idx[i]] > freq[idx[j]]
	})
	return idx
}
