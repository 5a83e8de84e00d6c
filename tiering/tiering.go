// Package tiering implements the pure tier classifier and the bulk
// reclassification sweep (spec §4.3).
/*
 * Copyright (c) 2024-2025, Tiered Store Authors. All rights reserved.
 */
package tiering

import (
	"time"

	"go.uber.org/atomic"

	"github.com/samcaspus/tieredstore/blob"
	"github.com/samcaspus/tieredstore/config"
)

// Classify is the total, pure function deriving a tier from age.
// age <= thresholds.Hot -> HOT
// thresholds.Hot < age <= thresholds.Warm -> WARM
// age > thresholds.Warm -> COLD
func Classify(age time.Duration, t config.Thresholds) blob.Tier {
	switch {
	case age <= t.Hot:
		return blob.HOT
	case age <= t.Warm:
		return blob.WARM
	default:
		return blob.COLD
	}
}

// Snapshotter is the minimal view the sweep needs of the metadata
// index: a read-consistent, lock-free-to-iterate list of descriptors,
// and a way to apply a tier change atomically with stats accounting.
// The engine package supplies the concrete implementation; defining
// the interface here keeps the sweep free of the engine's locking
// details, the same separation the teacher draws between xaction
// (xaction/xrun/bucket.go) and the target that owns the data it acts
// on.
type Snapshotter interface {
	Snapshot() []blob.Meta
	// ApplyTier sets id's tier to newTier iff its current tier still
	// equals oldTier (the value observed in the snapshot), and updates
	// stats bucket accounting atomically with the tier write. Returns
	// false if id no longer exists or was already reclassified
	// concurrently (e.g. deleted-and-recreated), in which case the
	// sweep simply skips it: spec §4.3 explicitly allows a blob
	// mutated mid-sweep to be scanned or not scanned.
	ApplyTier(id string, oldTier, newTier blob.Tier, size int64) bool
}

// Summary is the result of one completed sweep.
type Summary struct {
	UUID        string        `json:"uuid"`
	StartedAt   time.Time     `json:"started_at"`
	Duration    time.Duration `json:"duration_ns"`
	Scanned     int64         `json:"scanned"`
	Transitions map[string]int64 `json:"transitions"`
}

func transitionKey(from, to blob.Tier) string {
	switch {
	case from == blob.HOT && to == blob.WARM:
		return "promotions_to_warm"
	case from == blob.WARM && to == blob.COLD:
		return "promotions_to_cold"
	case from == blob.HOT && to == blob.COLD:
		return "promotions_to_cold"
	case from == blob.COLD && to == blob.WARM:
		return "demotions_to_warm"
	case from == blob.COLD && to == blob.HOT:
		return "demotions_to_hot"
	case from == blob.WARM && to == blob.HOT:
		return "demotions_to_hot"
	default:
		return "noop"
	}
}

// RunSweep performs one bulk reclassification pass over snap's
// descriptors, using a single `now` captured at the start (spec §4.3
// step 2: "using a single now value captured at sweep start"), and
// returns a summary. It never blocks unrelated reads: each transition
// takes its own per-id critical section via ApplyTier.
func RunSweep(uuid string, snap Snapshotter, t config.Thresholds) Summary {
	now := time.Now()
	descriptors := snap.Snapshot()

	counts := map[string]*atomic.Int64{
		"promotions_to_warm": new(atomic.Int64),
		"promotions_to_cold": new(atomic.Int64),
		"demotions_to_warm":  new(atomic.Int64),
		"demotions_to_hot":   new(atomic.Int64),
	}

	for i := range descriptors {
		d := &descriptors[i]
		newTier := Classify(now.Sub(d.LastAccessed), t)
		if newTier == d.Tier {
			continue
		}
		if !snap.ApplyTier(d.ID, d.Tier, newTier, d.Size) {
			continue
		}
		key := transitionKey(d.Tier, newTier)
		if c, ok := counts[key]; ok {
			c.Inc()
		}
	}

	out := make(map[string]int64, len(counts))
	for k, v := range counts {
		out[k] = v.Load()
	}

	return Summary{
		UUID:        uuid,
		StartedAt:   now,
		Duration:    time.Since(now),
		Scanned:     int64(len(descriptors)),
		Transitions: out,
	}
}
