package services

import (
	"context"

	"github.com/dmitrijs2005/forumtrust/internal/dbx"
)

// Notifier delivers token-bearing links to an email address. Delivery
// failures are logged by the caller and never reach the end user.
type Notifier interface {
	SendVerification(ctx context.Context, email, link string) error
	SendPasswordReset(ctx context.Context, email, link string) error
	SendUsernameRecovery(ctx context.Context, email, username, link string) error
}

// Credentials hashes and checks passwords. db may be a transaction so the
// credential write commits together with the caller's other changes.
type Credentials interface {
	SetPassword(ctx context.Context, db dbx.DBTX, identityID, password string) error
	Verify(ctx context.Context, db dbx.DBTX, identityID, password string) error
	// VerifyUnknown costs as much as Verify and always fails. It keeps
	// sign-in timing from telling registered addresses apart.
	VerifyUnknown(password string) error
}
