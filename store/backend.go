package store

import (
	"time"

	"github.com/samcaspus/tieredstore/blob"
)

// Backend is the engine-facing storage abstraction pairing the
// metadata index and the content store into one interface, so the
// engine can be built once and run against either the default
// in-memory pair or a durable substitute (spec §6: "a durable backend
// is an optional substitution that must preserve the same contracts").
type Backend interface {
	// Insert atomically creates both the descriptor and the payload.
	// Returns false on id collision (spec §4.1 insert()).
	Insert(meta blob.Meta, payload []byte) bool
	// Get returns the descriptor and payload for id.
	Get(id string) (blob.Meta, []byte, bool)
	GetMeta(id string) (blob.Meta, bool)
	// Remove atomically deletes both the descriptor and the payload.
	Remove(id string) (blob.Meta, bool)
	Snapshot() []blob.Meta
	UpdateTimestamp(id string, t time.Time) bool
	SetLastAccessed(id string, t time.Time) (blob.Meta, bool)
	SetTier(id string, oldTier, newTier blob.Tier) bool
}

// MemoryBackend is the default Backend: Index and Content fused under
// the engine's per-id lock domain (spec §9 design note: "fuse them
// into a single map from id to (descriptor, payload)" — implemented
// here as two maps kept in lockstep by always mutating both under the
// same call).
type MemoryBackend struct {
	idx     *Index
	content *Content
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{idx: NewIndex(), content: NewContent()}
}

func (b *MemoryBackend) Insert(meta blob.Meta, payload []byte) bool {
	if !b.idx.Insert(meta) {
		return false
	}
	b.content.Put(meta.ID, payload)
	return true
}

func (b *MemoryBackend) Get(id string) (blob.Meta, []byte, bool) {
	meta, ok := b.idx.Get(id)
	if !ok {
		return blob.Meta{}, nil, false
	}
	payload, ok := b.content.Get(id)
	if !ok {
		// Pairing invariant (spec P1) guarantees this cannot happen in
		// steady state; treat it as absence rather than panicking the
		// request path.
		return blob.Meta{}, nil, false
	}
	return meta, payload, true
}

func (b *MemoryBackend) GetMeta(id string) (blob.Meta, bool) {
	return b.idx.Get(id)
}

func (b *MemoryBackend) Remove(id string) (blob.Meta, bool) {
	meta, ok := b.idx.Remove(id)
	if !ok {
		return blob.Meta{}, false
	}
	b.content.Remove(id)
	return meta, true
}

func (b *MemoryBackend) Snapshot() []blob.Meta { return b.idx.Snapshot() }

func (b *MemoryBackend) UpdateTimestamp(id string, t time.Time) bool {
	return b.idx.UpdateTimestamp(id, t)
}

func (b *MemoryBackend) SetLastAccessed(id string, t time.Time) (blob.Meta, bool) {
	return b.idx.SetLastAccessed(id, t)
}

func (b *MemoryBackend) SetTier(id string, oldTier, newTier blob.Tier) bool {
	return b.idx.SetTier(id, oldTier, newTier)
}
