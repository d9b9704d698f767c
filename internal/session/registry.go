package session

import (
	"sort"
	"strconv"

	"stock-service/internal/shardmap"
)

// Registry tracks live connections process-wide. It only ever holds
// snapshots, never the sessions themselves.
type Registry struct {
	entries *shardmap.Map[Snapshot]
}

func NewRegistry() *Registry {
	return &Registry{entries: shardmap.New[Snapshot](shardmap.DefaultShards)}
}

func key(id int64) string { return strconv.FormatInt(id, 10) }

// Update replaces the entry for s.ID, adding it if absent.
func (r *Registry) Update(s Snapshot) { r.entries.Set(key(s.ID), s) }

func (r *Registry) Remove(id int64) { r.entries.Delete(key(id)) }

func (r *Registry) Get(id int64) (Snapshot, bool) { return r.entries.Get(key(id)) }

func (r *Registry) Count() int { return r.entries.Len() }

// List returns all snapshots ordered by connection id.
func (r *Registry) List() []Snapshot {
	out := make([]Snapshot, 0, r.entries.Len())
	r.entries.Range(func(_ string, s Snapshot) bool {
		out = append(out, s)
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
