package core

import (
	"errors"
	"strings"
)

// Error kinds. Every error returned by the engine matches exactly one of
// these through errors.Is, except cancellation, which carries the
// context's error instead.
var (
	// ErrValidation marks caller mistakes: blank names, bad identifiers,
	// empty or malformed field maps. Raised before touching disk.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an absent namespace or document.
	ErrNotFound = errors.New("not found")
	// ErrConflict marks a create on something that already exists, or a
	// delete of a namespace that still holds documents.
	ErrConflict = errors.New("conflict")
	// ErrIO marks filesystem failures during read, write, sync or mkdir.
	ErrIO = errors.New("i/o failure")
	// ErrIntegrity marks an on-disk record that cannot be trusted: bad JSON,
	// wrong shape, or an unknown value kind.
	ErrIntegrity = errors.New("data integrity violation")
)

// Lifecycle errors.
var (
	ErrClosed   = errors.New("store is closed")
	ErrReleased = errors.New("document handle already released")
	ErrLocked   = errors.New("store root is locked by another instance")
)

// OpError records the operation and the document it concerned.
type OpError struct {
	Op        string
	Namespace string
	ID        string
	Kind      error
	Err       error
}

func (e *OpError) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Namespace != "" {
		b.WriteString(" ")
		b.WriteString(e.Namespace)
		if e.ID != "" {
			b.WriteString("/")
			b.WriteString(e.ID)
		}
	} else if e.ID != "" {
		b.WriteString(" ")
		b.WriteString(e.ID)
	}
	b.WriteString(": ")
	if e.Err != nil {
		b.WriteString(e.Err.Error())
	} else if e.Kind != nil {
		b.WriteString(e.Kind.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the underlying cause.
func (e *OpError) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewOpError builds an OpError. err may be nil when the kind says it all.
func NewOpError(op, namespace, id string, kind, err error) *OpError {
	return &OpError{Op: op, Namespace: namespace, ID: id, Kind: kind, Err: err}
}
