package api

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"

	"github.com/samcaspus/tieredstore/config"
	"github.com/samcaspus/tieredstore/engine"
	"github.com/samcaspus/tieredstore/store"
)

func newTestServer() http.Handler {
	eng := engine.New(store.NewMemoryBackend(), config.DefaultThresholds())
	return NewRouter(eng)
}

func multipartUpload(t *testing.T, size int) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "a.bin")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(bytes.Repeat([]byte{'x'}, size)); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func TestCreateAndReadRoundTrip(t *testing.T) {
	srv := newTestServer()

	body, contentType := multipartUpload(t, 2*1024*1024)
	req := httptest.NewRequest(http.MethodPost, "/files/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created createResponse
	if err := jsoniter.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Blob.Tier != "HOT" {
		t.Fatalf("tier = %q, want HOT", created.Blob.Tier)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/"+created.FileID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("read status = %d", rec.Code)
	}
	if rec.Body.Len() != 2*1024*1024 {
		t.Fatalf("read body length = %d, want %d", rec.Body.Len(), 2*1024*1024)
	}
}

func TestSizeRejection(t *testing.T) {
	srv := newTestServer()

	body, contentType := multipartUpload(t, 512*1024)
	req := httptest.NewRequest(http.MethodPost, "/files/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var errResp errorResponse
	if err := jsoniter.Unmarshal(rec.Body.Bytes(), &errResp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if !strings.Contains(strings.ToLower(errResp.Detail), "too small") {
		t.Fatalf("detail = %q, want substring 'too small'", errResp.Detail)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/stats", nil))
	var stats statsResponse
	_ = jsoniter.Unmarshal(rec.Body.Bytes(), &stats)
	if stats.TotalFiles != 0 {
		t.Fatalf("total_files = %d, want 0 after a rejected upload", stats.TotalFiles)
	}
}

func TestMaliciousIdentifierSafety(t *testing.T) {
	srv := newTestServer()

	adversarial := []string{
		"'; DROP TABLE files; --",
		"../../../etc/passwd",
		"%00%00",
	}
	for _, id := range adversarial {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/files/"+id, nil)
		srv.ServeHTTP(rec, req)

		if rec.Code >= 500 {
			t.Fatalf("GET /files/%q returned %d, want 4xx", id, rec.Code)
		}
		if strings.Contains(strings.ToLower(rec.Body.String()), "traceback") {
			t.Fatalf("response leaked implementation detail: %s", rec.Body.String())
		}
	}
}

func TestDeleteThenNotFound(t *testing.T) {
	srv := newTestServer()
	body, contentType := multipartUpload(t, 1024*1024)
	req := httptest.NewRequest(http.MethodPost, "/files/", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	var created createResponse
	_ = jsoniter.Unmarshal(rec.Body.Bytes(), &created)

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/files/"+created.FileID, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/"+created.FileID+"/metadata", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("metadata-after-delete status = %d, want 404", rec.Code)
	}
}
