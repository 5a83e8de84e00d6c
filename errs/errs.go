// Package errs defines the core's error taxonomy and HTTP-status mapping.
//
// Every error the engine returns is one of a small set of kinds; the
// transport layer (package api) never has to pattern-match on error
// strings to decide a status code.
/*
 * Copyright (c) 2024-2025, Tiered Store Authors. All rights reserved.
 */
package errs

import (
	"errors"
	"net/http"

	pkgerrors "github.com/pkg/errors"
)

// Kind classifies an error for the purpose of wire-level status mapping.
type Kind int

const (
	// KindInternal is the zero value on purpose: an unrecognized or
	// wrapped stdlib error defaults to "internal", never to a
	// client-error status code.
	KindInternal Kind = iota
	KindInvalidSize
	KindInvalidIdentifier
	KindMissingFile
	KindNotFound
	KindConflict
)

// Error is a taxonomy-tagged error with a stable, substring-matchable
// message safe to return verbatim on the wire.
type Error struct {
	kind Kind
	msg  string
	// cause, when set, is logged but never serialized to the client.
	cause error
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Kind() Kind    { return e.kind }
func (e *Error) Unwrap() error { return e.cause }

func newErr(kind Kind, msg string) *Error { return &Error{kind: kind, msg: msg} }

func InvalidSize(msg string) *Error       { return newErr(KindInvalidSize, msg) }
func InvalidIdentifier(msg string) *Error { return newErr(KindInvalidIdentifier, msg) }
func MissingFile(msg string) *Error       { return newErr(KindMissingFile, msg) }
func NotFound(msg string) *Error          { return newErr(KindNotFound, msg) }
func Conflict(msg string) *Error          { return newErr(KindConflict, msg) }

// Internal wraps an unexpected/invariant-violation error. cause is kept
// for logging but is never exposed in Error() or on the wire.
func Internal(cause error, msg string) *Error {
	return &Error{kind: KindInternal, msg: msg, cause: pkgerrors.WithStack(cause)}
}

// AsError extracts a *Error from err, if any is in its chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Status maps err to an HTTP status code. Unrecognized errors map to
// 500, matching spec: "internal errors must never leak implementation
// detail", not even via a narrower status guess.
func Status(err error) int {
	e, ok := AsError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.kind {
	case KindInvalidSize, KindInvalidIdentifier, KindMissingFile:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		// Conflict is retried internally by the engine and must never
		// reach the transport layer; 409 is a documentation fallback.
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the safe, wire-visible detail string for err: the
// tagged message for a *Error, or a generic string for anything else.
func Detail(err error) string {
	if e, ok := AsError(err); ok {
		return e.msg
	}
	return "internal error"
}
