package identities

import (
	"context"
	"time"

	"github.com/dmitrijs2005/forumtrust/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, identity *models.Identity) (*models.Identity, error)
	GetByID(ctx context.Context, id string) (*models.Identity, error)
	GetByEmail(ctx context.Context, email string) (*models.Identity, error)
	MarkEmailVerified(ctx context.Context, email string) (*models.Identity, error)
	SetBan(ctx context.Context, id string, reason string, expiresAt *time.Time) (*models.Identity, error)
	ClearBan(ctx context.Context, id string) (*models.Identity, error)
	ClearExpiredBan(ctx context.Context, id string, now time.Time) (bool, error)
}
