package accounts

import "context"

type Repository interface {
	UpsertPasswordHash(ctx context.Context, userID, hash string) error
	GetPasswordHash(ctx context.Context, userID string) (string, error)
}
