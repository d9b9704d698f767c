// Package shardmap provides a lock-striped map so that hot keys on one shard do
// not serialize access to the rest.
package shardmap

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const DefaultShards = 32

type shard[V any] struct {
	mu    sync.RWMutex
	items map[string]V
}

type Map[V any] struct {
	shards []*shard[V]
}

func New[V any](shards int) *Map[V] {
	if shards <= 0 {
		shards = DefaultShards
	}
	m := &Map[V]{shards: make([]*shard[V], shards)}
	for i := range m.shards {
		m.shards[i] = &shard[V]{items: make(map[string]V)}
	}
	return m
}

func (m *Map[V]) shardFor(key string) *shard[V] {
	return m.shards[xxhash.Sum64String(key)%uint64(len(m.shards))]
}

func (m *Map[V]) Get(key string) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

func (m *Map[V]) Set(key string, v V) {
	s := m.shardFor(key)
	s.mu.Lock()
	s.items[key] = v
	s.mu.Unlock()
}

func (m *Map[V]) Delete(key string) {
	s := m.shardFor(key)
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()
}

// Update runs fn under the shard's write lock. fn receives the current value
// (if any) and returns the new value and whether to keep it.
func (m *Map[V]) Update(key string, fn func(cur V, ok bool) (V, bool)) V {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[key]
	next, keep := fn(cur, ok)
	if keep {
		s.items[key] = next
	} else {
		delete(s.items, key)
	}
	return next
}

func (m *Map[V]) Len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.items)
		s.mu.RUnlock()
	}
	return n
}

// Range visits every entry. Each shard is copied under its read lock, so fn may
// call back into the map.
func (m *Map[V]) Range(fn func(key string, v V) bool) {
	for _, s := range m.shards {
		s.mu.RLock()
		keys := make([]string, 0, len(s.items))
		vals := make([]V, 0, len(s.items))
		for k, v := range s.items {
			keys = append(keys, k)
			vals = append(vals, v)
		}
		s.mu.RUnlock()
		for i := range keys {
			if !fn(keys[i], vals[i]) {
				return
			}
		}
	}
}
