package api

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"

	"github.com/samcaspus/tieredstore/blob"
	"github.com/samcaspus/tieredstore/engine"
	"github.com/samcaspus/tieredstore/errs"
	"github.com/samcaspus/tieredstore/tiering"
)

// handler holds the engine reference every route closes over. There is
// exactly one handler per process, constructed in NewRouter; nothing
// here is a package-level singleton (spec §9).
type handler struct {
	eng *engine.Engine
}

// maxUploadMemory bounds how much of a multipart upload
// ParseMultipartForm buffers in memory before spilling to a temp file;
// it is unrelated to, and smaller than, the MaxSize content bound the
// engine enforces.
const maxUploadMemory = 32 << 20 // 32 MiB

// create handles POST /files: a multipart upload, field name "file"
// (spec §6).
func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeErr(w, r, errs.MissingFile("file is required"))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeErr(w, r, errs.MissingFile("file is required"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeErr(w, r, errs.Internal(err, "failed to read upload"))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = r.FormValue("content_type")
	}

	id, err := h.eng.Create(header.Filename, contentType, data)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	meta, err := h.eng.GetMetadata(id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createResponse{FileID: id, Blob: toBlobDTO(meta)})
}

// read handles GET /files/{id}: full-object read, refreshing
// last_accessed (spec §6).
func (h *handler) read(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !blob.ParseID(id) {
		writeErr(w, r, errs.NotFound("blob not found"))
		return
	}
	meta, payload, err := h.eng.Read(id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set(headerBlobID, meta.ID)
	w.Header().Set(headerBlobTier, string(meta.Tier))
	w.Header().Set(headerBlobChecksum, meta.Checksum)
	w.Header().Set(headerBlobLastAccessed, isoMillis(meta.LastAccessed))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

// metadata handles GET /files/{id}/metadata: descriptor only, does not
// advance last_accessed (spec §6, §9 Open Question #1).
func (h *handler) metadata(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !blob.ParseID(id) {
		writeErr(w, r, errs.NotFound("blob not found"))
		return
	}
	meta, err := h.eng.GetMetadata(id)
	if err != nil {
		writeErr(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toBlobDTO(meta))
}

// delete handles DELETE /files/{id} (spec §6).
func (h *handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !blob.ParseID(id) {
		writeErr(w, r, errs.NotFound("blob not found"))
		return
	}
	if err := h.eng.Delete(id); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// runTiering handles POST /admin/tiering/run (spec §6).
func (h *handler) runTiering(w http.ResponseWriter, r *http.Request) {
	summary := h.eng.RunTiering()
	writeJSON(w, http.StatusOK, toSweepResponse(summary))
}

// tieringStatus handles GET /admin/tiering/status, a domain-stack
// addition letting an operator poll the last sweep's result.
func (h *handler) tieringStatus(w http.ResponseWriter, r *http.Request) {
	summary, ok := h.eng.LastSweepStatus()
	if !ok {
		writeErr(w, r, errs.NotFound("no tiering sweep has run yet"))
		return
	}
	writeJSON(w, http.StatusOK, toSweepResponse(summary))
}

// stats handles GET /admin/stats (spec §6).
func (h *handler) stats(w http.ResponseWriter, r *http.Request) {
	snap, thresholds := h.eng.Stats()
	resp := statsResponse{
		TotalFiles: snap.TotalFiles,
		TotalSize:  snap.TotalSize,
		Tiers:      make(map[string]statsTierDTO, len(snap.Tiers)),
		Thresholds: thresholdsDTO{
			HotDays:  thresholds.Hot.Hours() / 24,
			WarmDays: thresholds.Warm.Hours() / 24,
		},
	}
	for t, b := range snap.Tiers {
		resp.Tiers[string(t)] = statsTierDTO{Count: b.Count, Size: b.Size}
	}
	writeJSON(w, http.StatusOK, resp)
}

// updateLastAccessed handles POST
// /admin/files/{id}/update-last-accessed, the testing/ops hook (spec
// §6, §4.4).
func (h *handler) updateLastAccessed(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !blob.ParseID(id) {
		writeErr(w, r, errs.NotFound("blob not found"))
		return
	}
	var req updateLastAccessedRequest
	if err := jsoniter.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, r, errs.InvalidIdentifier("malformed request body"))
		return
	}
	if err := h.eng.UpdateLastAccessed(id, req.DaysAgo); err != nil {
		writeErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func toSweepResponse(s tiering.Summary) sweepResponse {
	return sweepResponse{
		UUID:        s.UUID,
		StartedAt:   isoMillis(s.StartedAt),
		DurationMS:  s.Duration.Milliseconds(),
		Scanned:     s.Scanned,
		Transitions: s.Transitions,
	}
}
