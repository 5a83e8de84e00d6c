// Package stats maintains the eight aggregate counters (total_files,
// total_size, and each tier's count/size) that back GET /admin/stats
// and the Prometheus /metrics surface.
//
// Naming convention: "count" for a number of blobs, "size" for a byte
// total.
/*
 * Copyright (c) 2024-2025, Tiered Store Authors. All rights reserved.
 */
package stats

import (
	"sync"

	"github.com/samcaspus/tieredstore/blob"
)

// tierBucket is one tier's count/size pair.
type tierBucket struct {
	Count int64 `json:"count"`
	Size  int64 `json:"size"`
}

// Snapshot is a point-in-time, internally-consistent copy of the
// aggregate counters (spec §4.4 stats()).
type Snapshot struct {
	TotalFiles int64                    `json:"total_files"`
	TotalSize  int64                    `json:"total_size"`
	Tiers      map[blob.Tier]tierBucket `json:"tiers"`
}

// Aggregator holds the eight counters behind one mutex: spec §5 requires
// all of them to move as a single atomic update per mutating operation, so
// a joint lock — rather than one atomic variable per counter — is the
// design that makes invariant P3 (stats sum) hold by construction.
type Aggregator struct {
	mu         sync.RWMutex
	totalFiles int64
	totalSize  int64
	tiers      map[blob.Tier]*tierBucket
}

// New returns an Aggregator with all counters zeroed.
func New() *Aggregator {
	return &Aggregator{
		tiers: map[blob.Tier]*tierBucket{
			blob.HOT:  {},
			blob.WARM: {},
			blob.COLD: {},
		},
	}
}

// OnCreate records a new blob landing in tier t with the given size.
func (a *Aggregator) OnCreate(t blob.Tier, size int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalFiles++
	a.totalSize += size
	b := a.tiers[t]
	b.Count++
	b.Size += size
}

// OnDelete records a blob of the given tier and size being removed.
func (a *Aggregator) OnDelete(t blob.Tier, size int64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.totalFiles--
	a.totalSize -= size
	b := a.tiers[t]
	b.Count--
	b.Size -= size
}

// OnTierChange moves size bytes' worth of accounting from oldTier's
// bucket to newTier's bucket without touching totals. Called under the
// same per-id critical section that writes the descriptor's Tier
// field, so a stats() snapshot never observes the size counted in
// neither or in both buckets (spec's "Tier transitions during sweep"
// design note).
func (a *Aggregator) OnTierChange(oldTier, newTier blob.Tier, size int64) {
	if oldTier == newTier {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	from := a.tiers[oldTier]
	from.Count--
	from.Size -= size
	to := a.tiers[newTier]
	to.Count++
	to.Size += size
}

// Snapshot returns a consistent copy of all eight counters. It never
// scans the index; the counters are maintained incrementally on every
// mutation (spec §9 "Aggregate counters" design note).
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := Snapshot{
		TotalFiles: a.totalFiles,
		TotalSize:  a.totalSize,
		Tiers:      make(map[blob.Tier]tierBucket, len(a.tiers)),
	}
	for t, b := range a.tiers {
		out.Tiers[t] = *b
	}
	return out
}

// Audit recomputes the eight counters from authoritative descriptors and
// reports whether they agree with the incrementally-maintained state.
// This is the optional debug check spec §9 allows ("a periodic audit
// job MAY scan and assert equality"); it is not on any request path.
func (a *Aggregator) Audit(descriptors []blob.Meta) (ok bool, got, want Snapshot) {
	want = Snapshot{Tiers: map[blob.Tier]tierBucket{blob.HOT: {}, blob.WARM: {}, blob.COLD: {}}}
	for _, d := range descriptors {
		want.TotalFiles++
		want.TotalSize += d.Size
		b := want.Tiers[d.Tier]
		b.Count++
		b.Size += d.Size
		want.Tiers[d.Tier] = b
	}
	got = a.Snapshot()
	ok = got.TotalFiles == want.TotalFiles && got.TotalSize == want.TotalSize
	if ok {
		for _, t := range blob.AllTiers {
			if got.Tiers[t] != want.Tiers[t] {
				ok = false
				break
			}
		}
	}
	return ok, got, want
}
