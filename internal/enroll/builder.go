package enroll

import (
	"errors"
	"net/url"
	"strings"
)

const (
	// TokenType identifies the static-pass credential kind on the
	// token-administration endpoint.
	TokenType = "spass"

	// PlaceholderSecret fills the mandatory otpkey field of the generic
	// token-creation call. A static-pass token computes no OTP, so the value
	// is constant, carries no entropy, and must never be treated as a secret.
	PlaceholderSecret = "1234"

	// DefaultDescription is substituted when the description field is blank.
	DefaultDescription = "self enrolled"
)

// ErrPINMismatch is returned by ConfirmPIN when the confirmation field does
// not repeat the PIN field.
var ErrPINMismatch = errors.New("PINs do not match")

// FormState carries the raw values of the enrollment form at submission time.
type FormState struct {
	Description string
	PIN         string
	PINConfirm  string
}

// Owner identifies the enrolling user. It is supplied by the authentication
// layer rather than the form, and is passed through unvalidated; rejecting a
// malformed identity is the record manager's job.
type Owner struct {
	Login string
	Realm string
}

// Build assembles the enrollment request mapping submitted to the
// token-administration endpoint. It is pure and deterministic: no I/O, no
// validation, and identical inputs yield identical mappings.
//
// The pin key is included only when the PIN field is non-empty and its value
// is taken verbatim from that field alone; Build never consults the
// confirmation field. Catching a mismatched confirmation before submission
// is ConfirmPIN's responsibility.
func Build(form FormState, owner Owner) url.Values {
	req := url.Values{}
	req.Set("type", TokenType)
	req.Set("otpkey", PlaceholderSecret)

	if strings.TrimSpace(form.Description) == "" {
		req.Set("description", DefaultDescription)
	} else {
		req.Set("description", form.Description)
	}

	if form.PIN != "" {
		req.Set("pin", form.PIN)
	}

	req.Set("user", owner.Login)
	req.Set("realm", owner.Realm)

	return req
}

// ConfirmPIN is the confirmation check that must block submission when the
// two PIN fields differ. It runs before Build's output is submitted, never
// inside Build.
func ConfirmPIN(form FormState) error {
	if form.PIN != form.PINConfirm {
		return ErrPINMismatch
	}
	return nil
}
