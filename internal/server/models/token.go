package models

import "time"

// TokenPurpose says which single action a token authorizes.
type TokenPurpose string

const (
	PurposeVerification     TokenPurpose = "verification"
	PurposePasswordReset    TokenPurpose = "password-reset"
	PurposeUsernameRecovery TokenPurpose = "username-recovery"
)

func (p TokenPurpose) Valid() bool {
	switch p {
	case PurposeVerification, PurposePasswordReset, PurposeUsernameRecovery:
		return true
	default:
		return false
	}
}

// Token is a single-use capability bound to Identifier (an email address).
type Token struct {
	ID         string
	Identifier string
	Purpose    TokenPurpose
	Value      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Expired reports whether the token is past its expiry at now.
// A token is still valid at exactly ExpiresAt.
func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}
