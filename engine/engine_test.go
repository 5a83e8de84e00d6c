package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/samcaspus/tieredstore/blob"
	"github.com/samcaspus/tieredstore/config"
	"github.com/samcaspus/tieredstore/errs"
	"github.com/samcaspus/tieredstore/store"
)

func newTestEngine() *Engine {
	return New(store.NewMemoryBackend(), config.DefaultThresholds())
}

var _ = Describe("Engine", func() {
	var eng *Engine

	BeforeEach(func() {
		eng = newTestEngine()
	})

	Describe("Create and Read", func() {
		It("round-trips bytes and reports the right descriptor", func() {
			payload := make([]byte, 2*1024*1024)
			for i := range payload {
				payload[i] = 'x'
			}
			sum := sha256.Sum256(payload)
			wantChecksum := hex.EncodeToString(sum[:])

			id, err := eng.Create("a.bin", "application/octet-stream", payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(id).NotTo(BeEmpty())

			meta, got, err := eng.Read(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(len(payload)))
			Expect(got).To(Equal(payload))
			Expect(meta.Size).To(Equal(int64(len(payload))))
			Expect(meta.Tier).To(Equal(blob.HOT))
			Expect(meta.Checksum).To(Equal(wantChecksum))
		})

		It("rejects undersized uploads without changing stats", func() {
			_, err := eng.Create("small.bin", "application/octet-stream", make([]byte, 512*1024))
			Expect(err).To(HaveOccurred())
			e, ok := errs.AsError(err)
			Expect(ok).To(BeTrue())
			Expect(e.Kind()).To(Equal(errs.KindInvalidSize))
			Expect(e.Error()).To(ContainSubstring("too small"))

			snap, _ := eng.Stats()
			Expect(snap.TotalFiles).To(Equal(int64(0)))
		})

		It("does not advance last_accessed on metadata-only reads", func() {
			id, err := eng.Create("f.bin", "text/plain", make([]byte, 1<<20))
			Expect(err).NotTo(HaveOccurred())

			before, err := eng.GetMetadata(id)
			Expect(err).NotTo(HaveOccurred())

			after, err := eng.GetMetadata(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(after.LastAccessed).To(Equal(before.LastAccessed))
		})
	})

	Describe("Delete", func() {
		It("is final: subsequent read/metadata/delete all report NotFound", func() {
			id, err := eng.Create("f.bin", "text/plain", make([]byte, 1<<20))
			Expect(err).NotTo(HaveOccurred())

			Expect(eng.Delete(id)).To(Succeed())

			_, _, err = eng.Read(id)
			Expect(err).To(HaveOccurred())
			Expect(errs.Status(err)).To(Equal(404))

			_, err = eng.GetMetadata(id)
			Expect(err).To(HaveOccurred())

			err = eng.Delete(id)
			Expect(err).To(HaveOccurred())
		})

		It("keeps stats consistent as blobs are removed", func() {
			ids := make([]string, 10)
			for i := range ids {
				id, err := eng.Create("f.bin", "text/plain", make([]byte, 2*1024*1024))
				Expect(err).NotTo(HaveOccurred())
				ids[i] = id
			}
			snap, _ := eng.Stats()
			Expect(snap.TotalFiles).To(Equal(int64(10)))
			Expect(snap.TotalSize).To(Equal(int64(20971520)))
			Expect(snap.Tiers[blob.HOT].Count).To(Equal(int64(10)))

			for _, id := range ids[:3] {
				Expect(eng.Delete(id)).To(Succeed())
			}
			snap, _ = eng.Stats()
			Expect(snap.TotalFiles).To(Equal(int64(7)))
			Expect(snap.TotalSize).To(Equal(int64(14680064)))
			Expect(snap.Tiers[blob.HOT].Count).To(Equal(int64(7)))
		})
	})

	Describe("Tiering", func() {
		It("ages HOT -> WARM -> COLD -> HOT across sweeps", func() {
			id, err := eng.Create("f.bin", "text/plain", make([]byte, 1<<20))
			Expect(err).NotTo(HaveOccurred())

			meta, err := eng.GetMetadata(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(meta.Tier).To(Equal(blob.HOT))

			Expect(eng.UpdateLastAccessed(id, 35)).To(Succeed())
			eng.RunTiering()
			meta, _ = eng.GetMetadata(id)
			Expect(meta.Tier).To(Equal(blob.WARM))

			Expect(eng.UpdateLastAccessed(id, 95)).To(Succeed())
			eng.RunTiering()
			meta, _ = eng.GetMetadata(id)
			Expect(meta.Tier).To(Equal(blob.COLD))

			_, _, err = eng.Read(id)
			Expect(err).NotTo(HaveOccurred())
			eng.RunTiering()
			meta, _ = eng.GetMetadata(id)
			Expect(meta.Tier).To(Equal(blob.HOT))
		})

		It("keeps the stats sum invariant across a sweep with mixed transitions", func() {
			hotID, _ := eng.Create("h.bin", "text/plain", make([]byte, 1<<20))
			warmID, _ := eng.Create("w.bin", "text/plain", make([]byte, 1<<20))
			_ = eng.UpdateLastAccessed(warmID, 45)
			_ = hotID

			eng.RunTiering()
			ok, got, want := eng.Audit()
			Expect(ok).To(BeTrue(), "audit mismatch: got=%+v want=%+v", got, want)
		})
	})

	Describe("Concurrent creates", func() {
		It("never returns a duplicate id", func() {
			const n = 50
			ids := make([]string, n)
			var wg sync.WaitGroup
			for i := 0; i < n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					id, err := eng.Create("f.bin", "text/plain", make([]byte, 1<<20))
					Expect(err).NotTo(HaveOccurred())
					ids[i] = id
				}(i)
			}
			wg.Wait()

			seen := make(map[string]bool, n)
			for _, id := range ids {
				Expect(seen[id]).To(BeFalse(), "duplicate id %s", id)
				seen[id] = true
			}
		})
	})

	Describe("Malicious identifiers", func() {
		It("reports NotFound, never a crash, for adversarial ids", func() {
			adversarial := []string{
				"'; DROP TABLE files; --",
				"../../etc/passwd",
				"\x00\x00",
				"",
			}
			for _, id := range adversarial {
				_, _, err := eng.Read(id)
				Expect(err).To(HaveOccurred())
				Expect(errs.Status(err)).To(BeNumerically("<", 500))
			}
		})
	})
})
