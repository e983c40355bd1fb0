// Package accounts stores credential rows (provider "credential") holding a
// password hash per identity.
package accounts

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/dmitrijs2005/forumtrust/internal/dbx"
	"github.com/google/uuid"
)

// ProviderCredential is the provider id of password credentials.
const ProviderCredential = "credential"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// UpsertPasswordHash creates the credential row for userID or replaces its hash.
func (r *PostgresRepository) UpsertPasswordHash(ctx context.Context, userID, hash string) error {
	query := `
		INSERT INTO accounts (id, user_id, provider_id, password_hash)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, provider_id)
		DO UPDATE SET password_hash = EXCLUDED.password_hash, updated_at = now()
	`
	if _, err := r.db.ExecContext(ctx, query, uuid.NewString(), userID, ProviderCredential, hash); err != nil {
		return dbx.StorageError(err)
	}
	return nil
}

func (r *PostgresRepository) GetPasswordHash(ctx context.Context, userID string) (string, error) {
	query := `
		SELECT password_hash FROM accounts
		WHERE user_id = $1 AND provider_id = $2
	`
	var hash string
	if err := r.db.QueryRowContext(ctx, query, userID, ProviderCredential).Scan(&hash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", dbx.StorageError(err)
	}
	return hash, nil
}
