// Package store implements the metadata index and content store (spec
// §4.1, §4.2): the two in-memory maps the engine coordinates into a
// single consistent blob store.
/*
 * Copyright (c) 2024-2025, Tiered Store Authors. All rights reserved.
 */
package store

import (
	"sync"
	"time"

	"github.com/samcaspus/tieredstore/blob"
)

// Index is the in-memory mapping from blob id to descriptor. Its own
// mutex only protects map structure; cross-call atomicity (e.g.
// "insert into index and content together") is the engine's per-id
// lock's job, per spec §9's ownership split.
type Index struct {
	mu sync.RWMutex
	m  map[string]*blob.Meta
}

func NewIndex() *Index {
	return &Index{m: make(map[string]*blob.Meta)}
}

// Insert adds meta keyed by meta.ID. Returns false if ID is already
// present (conflict), per spec §4.1.
func (ix *Index) Insert(meta blob.Meta) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, exists := ix.m[meta.ID]; exists {
		return false
	}
	cp := meta
	ix.m[meta.ID] = &cp
	return true
}

// Get returns a value copy of the descriptor for id, or false if absent.
func (ix *Index) Get(id string) (blob.Meta, bool) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	m, ok := ix.m[id]
	if !ok {
		return blob.Meta{}, false
	}
	return m.Clone(), true
}

// Remove deletes id's descriptor and returns its last value, or false
// if id was absent.
func (ix *Index) Remove(id string) (blob.Meta, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	m, ok := ix.m[id]
	if !ok {
		return blob.Meta{}, false
	}
	delete(ix.m, id)
	return m.Clone(), true
}

// Snapshot returns a point-in-time copy of every descriptor, safe to
// range over without holding any index lock (spec §4.1 snapshot()).
func (ix *Index) Snapshot() []blob.Meta {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	out := make([]blob.Meta, 0, len(ix.m))
	for _, m := range ix.m {
		out = append(out, m.Clone())
	}
	return out
}

// UpdateTimestamp advances id's LastAccessed to t if t is later than
// the current value; it never regresses it (spec invariant P5), and is
// idempotent under repeated calls with the same or earlier t.
func (ix *Index) UpdateTimestamp(id string, t time.Time) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	m, ok := ix.m[id]
	if !ok {
		return false
	}
	if t.After(m.LastAccessed) {
		m.LastAccessed = t
	}
	return true
}

// SetLastAccessed is the administrative override (spec §4.4
// admin.update_last_accessed): unlike UpdateTimestamp it may move the
// clock backwards, which is the whole point of the test hook.
func (ix *Index) SetLastAccessed(id string, t time.Time) (blob.Meta, bool) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	m, ok := ix.m[id]
	if !ok {
		return blob.Meta{}, false
	}
	m.LastAccessed = t
	return m.Clone(), true
}

// SetTier writes newTier iff the descriptor's current tier still
// equals oldTier, used exclusively by the sweep (spec §4.1, §4.3) so a
// concurrently-deleted or concurrently-retiered blob is a harmless
// no-op rather than a lost update.
func (ix *Index) SetTier(id string, oldTier, newTier blob.Tier) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	m, ok := ix.m[id]
	if !ok || m.Tier != oldTier {
		return false
	}
	m.Tier = newTier
	return true
}
