package domain

import (
	"errors"
	"fmt"
)

var (
	ErrSchemaConflict    = errors.New("field key already present in category")
	ErrSchemaNotFound    = errors.New("category or field not found")
	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("status cannot move backward")
	ErrOrderArchived     = errors.New("order is archived")
	ErrCapacityFull      = errors.New("no capacity left for the selected date")
	ErrInvalidSchema     = errors.New("invalid field configuration")
	ErrNotImage          = errors.New("only jpg, png, webp or gif images are accepted")
)

// ValidationError flags the first failing field of an input session.
type ValidationError struct {
	FieldKey string
	Reason   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.FieldKey, e.Reason)
}

type UploadError struct {
	FieldKey string
	Err      error
}

func (e *UploadError) Error() string { return fmt.Sprintf("upload failed for %s: %v", e.FieldKey, e.Err) }
func (e *UploadError) Unwrap() error { return e.Err }

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }
func (e *PersistenceError) Unwrap() error { return e.Err }

func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
