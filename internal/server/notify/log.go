// Package notify delivers account links to users.
package notify

import (
	"context"

	"github.com/dmitrijs2005/forumtrust/internal/logging"
)

// LogNotifier writes every message to the log instead of sending it. It is
// the notifier used until a mail transport is configured.
type LogNotifier struct {
	log logging.Logger
}

func NewLogNotifier(log logging.Logger) *LogNotifier {
	return &LogNotifier{log: log.With("module", "notify")}
}

func (n *LogNotifier) SendVerification(ctx context.Context, email, link string) error {
	n.log.Info(ctx, "verification link", "email", email, "link", link)
	return nil
}

func (n *LogNotifier) SendPasswordReset(ctx context.Context, email, link string) error {
	n.log.Info(ctx, "password reset link", "email", email, "link", link)
	return nil
}

func (n *LogNotifier) SendUsernameRecovery(ctx context.Context, email, username, link string) error {
	n.log.Info(ctx, "username recovery link", "email", email, "username", username, "link", link)
	return nil
}
