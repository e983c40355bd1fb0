package modlog

import (
	"context"

	"github.com/dmitrijs2005/forumtrust/internal/server/models"
)

// Repository is append-only: there is no update or delete.
type Repository interface {
	Append(ctx context.Context, entry *models.ModerationLogEntry) (*models.ModerationLogEntry, error)
	List(ctx context.Context, limit, offset int) ([]models.ModerationLogEntry, error)
	Count(ctx context.Context) (int, error)
	ListForTarget(ctx context.Context, targetType models.ContentType, targetID string) ([]models.ModerationLogEntry, error)
}
