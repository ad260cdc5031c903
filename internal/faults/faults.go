package faults

import (
	"errors"
	"fmt"
)

// Kind classifies a fault for callers that branch on the failure class
// rather than the concrete cause.
type Kind string

const (
	// Validation means the caller violated a repository precondition.
	// Nothing was mutated; safe to correct the input and retry.
	Validation Kind = "validation"

	// Storage means a local persistence operation failed. The operation
	// had no effect.
	Storage Kind = "storage"

	// Parse means a stored record is malformed. Recovered by skipping
	// the record, never fatal.
	Parse Kind = "parse"

	// Sync means a remote push failed. The sync engine absorbs it by
	// moving to pending; no data is lost.
	Sync Kind = "sync"
)

// Fault is a classified error. Wraps an optional cause so errors.Is/As
// keep working through it.
type Fault struct {
	Kind    Kind
	Message string
	Cause   error
}

func (f *Fault) Error() string {
	if f.Cause != nil {
		return f.Message + ": " + f.Cause.Error()
	}
	return f.Message
}

func (f *Fault) Unwrap() error {
	return f.Cause
}

// Validationf builds a validation fault from a format string.
func Validationf(format string, args ...interface{}) error {
	return &Fault{Kind: Validation, Message: fmt.Sprintf(format, args...)}
}

// StorageErr wraps a storage I/O failure.
func StorageErr(msg string, cause error) error {
	return &Fault{Kind: Storage, Message: msg, Cause: cause}
}

// ParseErr wraps a malformed-record failure.
func ParseErr(msg string, cause error) error {
	return &Fault{Kind: Parse, Message: msg, Cause: cause}
}

// SyncErr wraps a remote push failure.
func SyncErr(msg string, cause error) error {
	return &Fault{Kind: Sync, Message: msg, Cause: cause}
}

// IsKind reports whether err (or anything it wraps) is a fault of the
// given kind.
func IsKind(err error, kind Kind) bool {
	var f *Fault
	if errors.As(err, &f) {
		return f.Kind == kind
	}
	return false
}
