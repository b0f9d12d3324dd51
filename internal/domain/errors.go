package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound          = errors.New("domain: not found")
	ErrConflict          = errors.New("domain: conflict")
	ErrUnauthorized      = errors.New("domain: unauthorized")
	ErrForbidden         = errors.New("domain: forbidden")
	ErrUnknownCollection = errors.New("domain: unknown collection")
	ErrInvalidRecord     = errors.New("domain: invalid record")
)

// RemoteError is a transport or validation failure reported by the remote
// store. Message is forwarded verbatim from the backend.
type RemoteError struct {
	Op      string // "select", "insert", "update", "delete", "upsert", "delete_all"
	Table   string
	Status  int    // HTTP status, 0 when the request never completed
	Code    string // backend error code, e.g. "23505"
	Message string
	Err     error
}

func (e *RemoteError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("remote %s %s (%d): %s", e.Op, e.Table, e.Status, msg)
	}
	return fmt.Sprintf("remote %s %s: %s", e.Op, e.Table, msg)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// IsConflict reports whether the remote rejected the write because of a
// uniqueness constraint.
func (e *RemoteError) IsConflict() bool {
	return e.Status == http.StatusConflict || e.Code == "23505"
}
