package core

import (
	"errors"
	"fmt"
)

// Common errors. Every failure surfaced by the stores and the Service wraps
// exactly one of these, so callers can tell them apart with errors.Is.
var (
	ErrUnauthenticated  = errors.New("unauthenticated")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrInvalidState     = errors.New("invalid state")
	ErrDecryption       = errors.New("decryption failed")
	ErrStorage          = errors.New("storage failure")
	ErrReadOnly         = errors.New("store is in read-only mode")
)

// StorageError reports a failed filesystem operation of a store.
// The previous on-disk state is left intact.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is makes every StorageError match ErrStorage.
func (e *StorageError) Is(target error) bool { return target == ErrStorage }

// Error codes returned by Code.
const (
	CodeOK               = "ok"
	CodeUnauthenticated  = "unauthenticated"
	CodePermissionDenied = "permission_denied"
	CodeNotFound         = "not_found"
	CodeAlreadyExists    = "already_exists"
	CodeInvalidArgument  = "invalid_argument"
	CodeInvalidState     = "invalid_state"
	CodeReadOnly         = "read_only"
	CodeInternal         = "internal"
)

// Code maps err to a stable, distinguishable code. Decryption, storage and
// unclassified failures all map to CodeInternal.
func Code(err error) string {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, ErrUnauthenticated):
		return CodeUnauthenticated
	case errors.Is(err, ErrPermissionDenied):
		return CodePermissionDenied
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrAlreadyExists):
		return CodeAlreadyExists
	case errors.Is(err, ErrInvalidArgument):
		return CodeInvalidArgument
	case errors.Is(err, ErrInvalidState):
		return CodeInvalidState
	case errors.Is(err, ErrReadOnly):
		return CodeReadOnly
	default:
		return CodeInternal
	}
}
