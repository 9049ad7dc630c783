package token

import "time"

// Token is the persisted record of an enrolled static-pass credential. Its
// only variable authentication factor is PINHash; no OTP material is ever
// stored for this type. A nil PINHash means the token authenticates by mere
// possession.
type Token struct {
	ID          string
	OwnerLogin  string
	OwnerRealm  string
	Type        string
	Description string
	PINHash     []byte
	CreatedAt   time.Time
}

// PINSet reports whether a static PIN gates authentication with this token.
func (t Token) PINSet() bool {
	return len(t.PINHash) > 0
}
