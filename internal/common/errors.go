package common

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across packages.
var (
	ErrNotFound             = errors.New("not found")
	ErrBaseVersionPermanent = errors.New("base version cannot be deleted")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrNoEditorTarget       = errors.New("no item open in editor")
	ErrNoChapter            = errors.New("no chapter selected")
	ErrAlreadyExists        = errors.New("already exists")
)

// ConflictError is returned when a beat would be linked to a scene that
// another beat already links to. Nothing is written when it is returned.
type ConflictError struct {
	BeatID      string
	SceneID     string
	OtherBeatID string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("scene %s already linked to another beat (%s)", e.SceneID, e.OtherBeatID)
}

// ValidationError reports a missing or malformed required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Required builds a ValidationError for an empty required field.
func Required(field string) error {
	return &ValidationError{Field: field, Reason: "is required"}
}

// RemoteKind distinguishes failed reads from failed writes.
type RemoteKind int

const (
	RemoteRead RemoteKind = iota
	RemoteWrite
)

func (k RemoteKind) String() string {
	if k == RemoteWrite {
		return "write"
	}
	return "read"
}

// RemoteError wraps a document store failure with the operation that hit it.
type RemoteError struct {
	Op   string
	Kind RemoteKind
	Err  error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Op, e.Kind, e.Err)
}

func (e *RemoteError) Unwrap() error { return e.Err }

// ReadFailed wraps err as a RemoteError of kind RemoteRead. A nil err stays nil.
func ReadFailed(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Op: op, Kind: RemoteRead, Err: err}
}

// WriteFailed wraps err as a RemoteError of kind RemoteWrite. A nil err stays nil.
func WriteFailed(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteError{Op: op, Kind: RemoteWrite, Err: err}
}

// IsConflict reports whether err is or wraps a ConflictError.
func IsConflict(err error) bool {
	var c *ConflictError
	return errors.As(err, &c)
}

// IsValidation reports whether err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRemote reports whether err is or wraps a RemoteError.
func IsRemote(err error) bool {
	var r *RemoteError
	return errors.As(err, &r)
}
