package form

import "errors"

// State tracks where an input session is in its lifecycle.
type State int

const (
	StateEmpty State = iota
	StateEditing
	StateValidating
	StateInvalid
	StateValid
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateEditing:
		return "editing"
	case StateValidating:
		return "validating"
	case StateInvalid:
		return "invalid"
	case StateValid:
		return "valid"
	case StateSubmitted:
		return "submitted"
	}
	return "unknown"
}

var (
	ErrUnknownField       = errors.New("field is not part of this form")
	ErrIdentityLocked     = errors.New("identity comes from the signed-in customer")
	ErrUploadInFlight     = errors.New("an upload is still in progress")
	ErrAlreadySubmitted   = errors.New("session already submitted")
	ErrBusy               = errors.New("submission in progress")
	ErrPickupDateRequired = errors.New("choose a pickup date first")
	ErrNotUploadable      = errors.New("field does not accept files")
	ErrUploadOnly         = errors.New("field only takes an uploaded file")
	ErrNoUploader         = errors.New("no file storage configured")
	ErrUploadSuperseded   = errors.New("upload discarded: field hidden or replaced")
)
