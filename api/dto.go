// Package api is the HTTP transport collaborator (spec §6): request
// parsing, multipart decoding, and response encoding live here, never
// in the engine.
/*
 * Copyright (c) 2024-2025, Tiered Store Authors. All rights reserved.
 */
package api

import (
	"time"

	"github.com/samcaspus/tieredstore/blob"
)

// isoMillis formats t the way spec §6 mandates: "ISO-8601 UTC with
// millisecond precision".
func isoMillis(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

// blobDTO is the wire representation of a blob descriptor.
type blobDTO struct {
	ID           string `json:"id"`
	Filename     string `json:"filename"`
	ContentType  string `json:"content_type"`
	Size         int64  `json:"size"`
	Checksum     string `json:"checksum"`
	CreatedAt    string `json:"created_at"`
	LastAccessed string `json:"last_accessed"`
	Tier         string `json:"tier"`
}

func toBlobDTO(m blob.Meta) blobDTO {
	return blobDTO{
		ID:           m.ID,
		Filename:     m.Filename,
		ContentType:  m.ContentType,
		Size:         m.Size,
		Checksum:     m.Checksum,
		CreatedAt:    isoMillis(m.CreatedAt),
		LastAccessed: isoMillis(m.LastAccessed),
		Tier:         string(m.Tier),
	}
}

// createResponse is the body of a successful POST /files.
type createResponse struct {
	FileID string  `json:"file_id"`
	Blob   blobDTO `json:"blob"`
}

// The header* constants name the HTTP response headers returned
// alongside the raw body on GET /files/{id}, since the body itself is
// the object's bytes (spec §6: "200 + body (+ descriptor in
// envelope)").
const (
	headerBlobID           = "X-Blob-Id"
	headerBlobTier         = "X-Blob-Tier"
	headerBlobChecksum     = "X-Blob-Checksum-Sha256"
	headerBlobLastAccessed = "X-Blob-Last-Accessed"
)

// errorResponse is the body of every non-2xx response (spec §6: "Error
// responses carry {detail: string}").
type errorResponse struct {
	Detail string `json:"detail"`
}

type statsTierDTO struct {
	Count int64 `json:"count"`
	Size  int64 `json:"size"`
}

type statsResponse struct {
	TotalFiles int64                   `json:"total_files"`
	TotalSize  int64                   `json:"total_size"`
	Tiers      map[string]statsTierDTO `json:"tiers"`
	Thresholds thresholdsDTO           `json:"thresholds"`
}

type thresholdsDTO struct {
	HotDays  float64 `json:"hot_days"`
	WarmDays float64 `json:"warm_days"`
}

type sweepResponse struct {
	UUID        string           `json:"uuid"`
	StartedAt   string           `json:"started_at"`
	DurationMS  int64            `json:"duration_ms"`
	Scanned     int64            `json:"scanned"`
	Transitions map[string]int64 `json:"transitions"`
}

type updateLastAccessedRequest struct {
	DaysAgo int `json:"days_ago"`
}
