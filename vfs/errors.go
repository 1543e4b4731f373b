package vfs

import (
	"errors"
	"fmt"

	"github.com/m-manu/virtualpath/fs"
)

var (
	// ErrDuplicateNode indicates a sibling with the same name already exists
	ErrDuplicateNode = errors.New("node already exists")

	// ErrUnsupportedOperation indicates a read-only backend rejected a mutation
	ErrUnsupportedOperation = fs.ErrUnsupported

	// ErrInvalidOperation indicates a structurally nonsensical request, such as deleting the root
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrBackendFailure marks errors coming from the backing adapter itself
	ErrBackendFailure = errors.New("backend failure")

	// ErrDisposed is returned by a provider after Dispose
	ErrDisposed = fmt.Errorf("%w: provider is disposed", ErrInvalidOperation)
)

// Operation names used in errors and logs
const (
	OpList   = "list"
	OpRead   = "read"
	OpWrite  = "write"
	OpMkdir  = "mkdir"
	OpCreate = "create"
	OpDelete = "delete"
	OpRename = "rename"
	OpCopy   = "copy"
	OpMove   = "move"
	OpClose  = "close"
)

// Error wraps a failure with the operation and path it happened on
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(op, path string, err error) *Error {
	return &Error{Op: op, Path: path, Err: err}
}

// backendError matches both ErrBackendFailure and the original adapter error
type backendError struct {
	err error
}

func (e backendError) Error() string {
	return e.err.Error()
}

func (e backendError) Unwrap() []error {
	return []error{ErrBackendFailure, e.err}
}

// wrapBackend classifies an adapter error; unsupported mutations keep their own identity
func wrapBackend(op, path string, err error) error {
	if err == nil {
		return nil
	}
	var vErr *Error
	if errors.As(err, &vErr) {
		return err
	}
	if errors.Is(err, fs.ErrUnsupported) {
		return newError(op, path, err)
	}
	return newError(op, path, backendError{err: err})
}

// MoveError reports a cross-backend move that stopped half way.
// When Copied is true the destination was written and the source still exists.
type MoveError struct {
	Source      string
	Destination string
	Stage       string // "copy" or "delete"
	Copied      bool
	Err         error
}

func (e *MoveError) Error() string {
	if e.Copied {
		return fmt.Sprintf("move %s -> %s: copied, but source could not be deleted (both exist now): %v",
			e.Source, e.Destination, e.Err)
	}
	return fmt.Sprintf("move %s -> %s failed at %s: %v", e.Source, e.Destination, e.Stage, e.Err)
}

func (e *MoveError) Unwrap() error {
	return e.Err
}
