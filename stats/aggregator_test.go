package stats

import (
	"sync"
	"testing"

	"github.com/samcaspus/tieredstore/blob"
)

func assertSumInvariant(t *testing.T, a *Aggregator) {
	t.Helper()
	snap := a.Snapshot()
	var count, size int64
	for _, b := range snap.Tiers {
		count += b.Count
		size += b.Size
	}
	if count != snap.TotalFiles {
		t.Errorf("sum of tier counts = %d, total_files = %d", count, snap.TotalFiles)
	}
	if size != snap.TotalSize {
		t.Errorf("sum of tier sizes = %d, total_size = %d", size, snap.TotalSize)
	}
}

func TestOnCreateAndOnDelete(t *testing.T) {
	a := New()
	a.OnCreate(blob.HOT, 2097152)
	a.OnCreate(blob.HOT, 2097152)
	assertSumInvariant(t, a)

	snap := a.Snapshot()
	if snap.TotalFiles != 2 || snap.TotalSize != 4194304 {
		t.Fatalf("unexpected snapshot after creates: %+v", snap)
	}

	a.OnDelete(blob.HOT, 2097152)
	assertSumInvariant(t, a)
	snap = a.Snapshot()
	if snap.TotalFiles != 1 || snap.TotalSize != 2097152 {
		t.Fatalf("unexpected snapshot after delete: %+v", snap)
	}
}

func TestOnTierChangeMovesBucketsNotTotals(t *testing.T) {
	a := New()
	a.OnCreate(blob.HOT, 1024)
	before := a.Snapshot()

	a.OnTierChange(blob.HOT, blob.WARM, 1024)
	assertSumInvariant(t, a)
	after := a.Snapshot()

	if after.TotalFiles != before.TotalFiles || after.TotalSize != before.TotalSize {
		t.Fatalf("OnTierChange must not change totals: before=%+v after=%+v", before, after)
	}
	if after.Tiers[blob.HOT].Count != 0 || after.Tiers[blob.WARM].Count != 1 {
		t.Fatalf("tier buckets did not move: %+v", after.Tiers)
	}
}

func TestConcurrentMutationsPreserveInvariant(t *testing.T) {
	a := New()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			a.OnCreate(blob.HOT, 1048576)
		}()
	}
	wg.Wait()
	assertSumInvariant(t, a)
	if got := a.Snapshot().TotalFiles; got != 100 {
		t.Fatalf("total_files = %d, want 100", got)
	}
}

func TestAuditAgreesWithIncrementalCounters(t *testing.T) {
	a := New()
	descriptors := []blob.Meta{
		{ID: "1", Tier: blob.HOT, Size: 10},
		{ID: "2", Tier: blob.WARM, Size: 20},
	}
	for _, d := range descriptors {
		a.OnCreate(d.Tier, d.Size)
	}
	ok, got, want := a.Audit(descriptors)
	if !ok {
		t.Fatalf("audit disagreement: got=%+v want=%+v", got, want)
	}
}
