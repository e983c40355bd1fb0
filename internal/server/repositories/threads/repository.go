package threads

import (
	"context"

	"github.com/dmitrijs2005/forumtrust/internal/server/models"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*models.Thread, error)
	SetLocked(ctx context.Context, id string, locked bool) (*models.Thread, error)
}
