package token

import "errors"

var (
	// ErrValidation marks a malformed enrollment request. It is surfaced to
	// the submitting client before anything is persisted.
	ErrValidation = errors.New("invalid enrollment request")

	// ErrNotFound means no token exists under the given serial.
	ErrNotFound = errors.New("token not found")

	// ErrPINRejected means the supplied pass did not match the stored PIN.
	ErrPINRejected = errors.New("wrong pin")
)
