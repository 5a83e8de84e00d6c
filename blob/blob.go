// Package blob defines the core data model: blob identifiers,
// descriptors (Meta), and tiers.
//
// Meta is this store's analogue of the teacher's LOM ("local
// object metadata"): the one record of truth for a stored object's
// size, timestamps, and placement.
/*
 * Copyright (c) 2024-2025, Tiered Store Authors. All rights reserved.
 */
package blob

import (
	"time"

	"github.com/google/uuid"
)

// Tier is one of HOT, WARM, COLD.
type Tier string

const (
	HOT  Tier = "HOT"
	WARM Tier = "WARM"
	COLD Tier = "COLD"
)

// AllTiers enumerates every tier, in the fixed order used whenever
// stats are iterated deterministically (e.g. the Prometheus collector,
// Aggregator.Audit).
var AllTiers = [3]Tier{HOT, WARM, COLD}

// NewID mints a fresh, server-generated blob identifier: a canonical
// hex-with-hyphens UUIDv4. Clients may never supply their own.
func NewID() string {
	return uuid.New().String()
}

// ParseID validates that s is a well-formed UUID without requiring
// that it name an existing blob. The transport layer uses this to
// reject malformed ids with 404/422 before touching the engine, per
// spec §6 ("servers must reject malformed identifiers... never a 5xx").
func ParseID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}

// Meta is the descriptor for one stored blob. All fields except
// LastAccessed and Tier never change after Create; those two are mutated only
// through the store's locked update paths.
type Meta struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum"`
	CreatedAt   time.Time `json:"created_at"`

	// LastAccessed and Tier are read under the owning shard lock by
	// callers outside the store package; Clone returns a safe copy.
	LastAccessed time.Time `json:"last_accessed"`
	Tier         Tier      `json:"tier"`
}

// Clone returns a value copy of m, safe to hand to callers outside the
// lock that protects the live descriptor (spec §4.1 snapshot()).
func (m *Meta) Clone() Meta {
	return *m
}
