package store

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"github.com/tidwall/buntdb"

	"github.com/samcaspus/tieredstore/blob"
)

// BuntBackend persists descriptors and payloads in an embedded
// tidwall/buntdb database, giving the "durable backend is an optional
// substitution" clause of spec §6 a concrete, exercised implementation
// (buntdb is a teacher direct dependency otherwise unused by the
// in-memory core). Descriptors are JSON-encoded under "meta:<id>";
// payload bytes are stored verbatim (as a Go string, which is just an
// immutable byte sequence) under "data:<id>".
type BuntBackend struct {
	db *buntdb.DB
}

// NewBuntBackend opens (creating if needed) a buntdb database at path.
// An empty path opens an in-memory buntdb instance, useful for tests
// that want BuntBackend's semantics without touching disk.
func NewBuntBackend(path string) (*BuntBackend, error) {
	if path == "" {
		path = ":memory:"
	}
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open buntdb")
	}
	return &BuntBackend{db: db}, nil
}

func (b *BuntBackend) Close() error { return b.db.Close() }

func metaKey(id string) string { return "meta:" + id }
func dataKey(id string) string { return "data:" + id }

func (b *BuntBackend) Insert(meta blob.Meta, payload []byte) bool {
	encoded, err := jsoniter.Marshal(meta)
	if err != nil {
		return false
	}
	inserted := true
	_ = b.db.Update(func(tx *buntdb.Tx) error {
		if _, err := tx.Get(metaKey(meta.ID)); err == nil {
			inserted = false
			return nil
		}
		if _, _, err := tx.Set(metaKey(meta.ID), string(encoded), nil); err != nil {
			return err
		}
		_, _, err := tx.Set(dataKey(meta.ID), string(payload), nil)
		return err
	})
	return inserted
}

func (b *BuntBackend) readMeta(tx *buntdb.Tx, id string) (blob.Meta, bool) {
	raw, err := tx.Get(metaKey(id))
	if err != nil {
		return blob.Meta{}, false
	}
	var m blob.Meta
	if err := jsoniter.UnmarshalFromString(raw, &m); err != nil {
		return blob.Meta{}, false
	}
	return m, true
}

func (b *BuntBackend) Get(id string) (blob.Meta, []byte, bool) {
	var (
		meta    blob.Meta
		payload []byte
		ok      bool
	)
	_ = b.db.View(func(tx *buntdb.Tx) error {
		m, found := b.readMeta(tx, id)
		if !found {
			return nil
		}
		raw, err := tx.Get(dataKey(id))
		if err != nil {
			return nil
		}
		meta, payload, ok = m, []byte(raw), true
		return nil
	})
	return meta, payload, ok
}

func (b *BuntBackend) GetMeta(id string) (blob.Meta, bool) {
	var (
		meta  blob.Meta
		found bool
	)
	_ = b.db.View(func(tx *buntdb.Tx) error {
		meta, found = b.readMeta(tx, id)
		return nil
	})
	return meta, found
}

func (b *BuntBackend) Remove(id string) (blob.Meta, bool) {
	var (
		meta  blob.Meta
		found bool
	)
	_ = b.db.Update(func(tx *buntdb.Tx) error {
		m, ok := b.readMeta(tx, id)
		if !ok {
			return nil
		}
		meta, found = m, true
		if _, err := tx.Delete(metaKey(id)); err != nil && err != buntdb.ErrNotFound {
			return err
		}
		if _, err := tx.Delete(dataKey(id)); err != nil && err != buntdb.ErrNotFound {
			return err
		}
		return nil
	})
	return meta, found
}

func (b *BuntBackend) Snapshot() []blob.Meta {
	var out []blob.Meta
	_ = b.db.View(func(tx *buntdb.Tx) error {
		return tx.AscendKeys("meta:*", func(key, value string) bool {
			var m blob.Meta
			if err := jsoniter.UnmarshalFromString(value, &m); err == nil {
				out = append(out, m)
			}
			return true
		})
	})
	return out
}

func (b *BuntBackend) UpdateTimestamp(id string, t time.Time) bool {
	found := false
	_ = b.db.Update(func(tx *buntdb.Tx) error {
		m, ok := b.readMeta(tx, id)
		if !ok {
			return nil
		}
		found = true
		if t.After(m.LastAccessed) {
			m.LastAccessed = t
			encoded, err := jsoniter.Marshal(m)
			if err != nil {
				return err
			}
			_, _, err = tx.Set(metaKey(id), string(encoded), nil)
			return err
		}
		return nil
	})
	return found
}

func (b *BuntBackend) SetLastAccessed(id string, t time.Time) (blob.Meta, bool) {
	var (
		result blob.Meta
		found  bool
	)
	_ = b.db.Update(func(tx *buntdb.Tx) error {
		m, ok := b.readMeta(tx, id)
		if !ok {
			return nil
		}
		m.LastAccessed = t
		encoded, err := jsoniter.Marshal(m)
		if err != nil {
			return err
		}
		if _, _, err := tx.Set(metaKey(id), string(encoded), nil); err != nil {
			return err
		}
		result, found = m, true
		return nil
	})
	return result, found
}

func (b *BuntBackend) SetTier(id string, oldTier, newTier blob.Tier) bool {
	applied := false
	_ = b.db.Update(func(tx *buntdb.Tx) error {
		m, ok := b.readMeta(tx, id)
		if !ok || m.Tier != oldTier {
			return nil
		}
		m.Tier = newTier
		encoded, err := jsoniter.Marshal(m)
		if err != nil {
			return err
		}
		if _, _, err := tx.Set(metaKey(id), string(encoded), nil); err != nil {
			return err
		}
		applied = true
		return nil
	})
	return applied
}
