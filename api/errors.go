package api

import (
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/samcaspus/tieredstore/errs"
	"github.com/samcaspus/tieredstore/log"
)

// writeErr maps err to its status code and writes the {detail: ...}
// envelope, matching spec §6/§7. Internal errors are logged with their
// cause but the cause is never serialized to the client.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	status := errs.Status(err)
	if status == http.StatusInternalServerError {
		log.WithComponent("api").Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("internal error")
	}
	writeJSON(w, status, errorResponse{Detail: errs.Detail(err)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc, err := jsoniter.Marshal(body)
	if err != nil {
		// Marshaling our own DTOs should never fail; if it does, there
		// is nothing more useful to do than log it — the status line
		// has already been written.
		log.WithComponent("api").Error().Err(err).Msg("failed to marshal response body")
		return
	}
	_, _ = w.Write(enc)
}
