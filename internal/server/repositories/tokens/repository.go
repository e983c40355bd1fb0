package tokens

import (
	"context"

	"github.com/dmitrijs2005/forumtrust/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, token *models.Token) (*models.Token, error)
	Take(ctx context.Context, value string) (*models.Token, error)
	TakeForPurpose(ctx context.Context, value string, purpose models.TokenPurpose) (*models.Token, error)
}
