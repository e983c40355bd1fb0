// Package tokens provides the PostgreSQL store for single-use verification,
// password-reset and username-recovery tokens.
package tokens

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/dmitrijs2005/forumtrust/internal/dbx"
	"github.com/dmitrijs2005/forumtrust/internal/server/models"
	"github.com/google/uuid"
)

// PostgresRepository implements token persistence over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts token and fills in its ID and CreatedAt.
func (r *PostgresRepository) Create(ctx context.Context, token *models.Token) (*models.Token, error) {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}

	query := `
		INSERT INTO verification_tokens (id, identifier, purpose, value, expires_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		token.ID, token.Identifier, string(token.Purpose), token.Value, token.ExpiresAt).
		Scan(&token.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, dbx.StorageError(err)
	}
	return token, nil
}

// Take deletes the token with the given value and returns it, expired or not.
// The lookup and the delete are one statement, so of several concurrent
// callers at most one receives the row; the rest get common.ErrorNotFound.
func (r *PostgresRepository) Take(ctx context.Context, value string) (*models.Token, error) {
	query := `
		DELETE FROM verification_tokens
		WHERE value = $1
		RETURNING id, identifier, purpose, value, expires_at, created_at
	`
	return scanToken(r.db.QueryRowContext(ctx, query, value))
}

// TakeForPurpose is Take restricted to one purpose. A token of another
// purpose is left untouched and reported as common.ErrorNotFound.
func (r *PostgresRepository) TakeForPurpose(ctx context.Context, value string, purpose models.TokenPurpose) (*models.Token, error) {
	query := `
		DELETE FROM verification_tokens
		WHERE value = $1 AND purpose = $2
		RETURNING id, identifier, purpose, value, expires_at, created_at
	`
	return scanToken(r.db.QueryRowContext(ctx, query, value, string(purpose)))
}

func scanToken(row *sql.Row) (*models.Token, error) {
	t := &models.Token{}
	var purpose string
	if err := row.Scan(&t.ID, &t.Identifier, &purpose, &t.Value, &t.ExpiresAt, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.StorageError(err)
	}
	t.Purpose = models.TokenPurpose(purpose)
	return t, nil
}
