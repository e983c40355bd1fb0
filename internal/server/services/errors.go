package services

import (
	"fmt"

	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/dmitrijs2005/forumtrust/internal/server/models"
)

// TokenErrorKind enumerates why a token could not be consumed.
type TokenErrorKind int

const (
	TokenNotFound TokenErrorKind = iota + 1
	TokenExpired
)

func (k TokenErrorKind) String() string {
	switch k {
	case TokenNotFound:
		return "not found"
	case TokenExpired:
		return "expired"
	default:
		return fmt.Sprintf("TokenErrorKind(%d)", int(k))
	}
}

// TokenError is the expected failure of a token consumption.
// It matches common.ErrorNotFound or common.ErrTokenExpired with errors.Is.
type TokenError struct {
	Kind TokenErrorKind
}

func (e *TokenError) Error() string {
	return "token " + e.Kind.String()
}

func (e *TokenError) Is(target error) bool {
	switch e.Kind {
	case TokenNotFound:
		return target == common.ErrorNotFound
	case TokenExpired:
		return target == common.ErrTokenExpired
	}
	return false
}

// DenialReason enumerates why an identity may not authenticate.
type DenialReason int

const (
	DeniedBanned DenialReason = iota + 1
	DeniedEmailNotVerified
)

func (r DenialReason) String() string {
	switch r {
	case DeniedBanned:
		return "banned"
	case DeniedEmailNotVerified:
		return "email not verified"
	default:
		return fmt.Sprintf("DenialReason(%d)", int(r))
	}
}

// DenialError is returned when an otherwise valid identity is not allowed to
// authenticate. Ban is set for DeniedBanned. It matches common.ErrorForbidden.
type DenialError struct {
	Reason DenialReason
	Ban    *models.BanState
}

func (e *DenialError) Error() string {
	return "authentication denied: " + e.Reason.String()
}

func (e *DenialError) Is(target error) bool {
	return target == common.ErrorForbidden
}
