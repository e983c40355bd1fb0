// Package identities stores forum accounts (the users table) in PostgreSQL.
package identities

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/dmitrijs2005/forumtrust/internal/dbx"
	"github.com/dmitrijs2005/forumtrust/internal/server/models"
	"github.com/google/uuid"
)

const columns = `id, email, username, name, role, email_verified, banned, ban_reason, ban_expires, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanIdentity(row *sql.Row) (*models.Identity, error) {
	i := &models.Identity{}
	var role string
	err := row.Scan(&i.ID, &i.Email, &i.Username, &i.Name, &role, &i.EmailVerified,
		&i.Banned, &i.BanReason, &i.BanExpiresAt, &i.CreatedAt, &i.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.StorageError(err)
	}
	i.Role = models.Role(role)
	return i, nil
}

// Create inserts a new identity. The email is stored normalized; a duplicate
// email or username yields common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, identity *models.Identity) (*models.Identity, error) {
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	if identity.Role == "" {
		identity.Role = models.RoleMember
	}
	identity.Email = common.NormalizeEmail(identity.Email)

	query :=
		`INSERT INTO users (id, email, username, name, role)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		identity.ID, identity.Email, identity.Username, identity.Name, string(identity.Role)).
		Scan(&identity.CreatedAt, &identity.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, dbx.StorageError(err)
	}

	return identity, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Identity, error) {
	query := `SELECT ` + columns + ` FROM users WHERE id = $1`
	return scanIdentity(r.db.QueryRowContext(ctx, query, id))
}

// GetByEmail matches case-insensitively.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Identity, error) {
	query := `SELECT ` + columns + ` FROM users WHERE lower(email) = lower($1)`
	return scanIdentity(r.db.QueryRowContext(ctx, query, common.NormalizeEmail(email)))
}

func (r *PostgresRepository) MarkEmailVerified(ctx context.Context, email string) (*models.Identity, error) {
	query :=
		`UPDATE users SET email_verified = TRUE, updated_at = now()
		 WHERE lower(email) = lower($1)
		 RETURNING ` + columns
	return scanIdentity(r.db.QueryRowContext(ctx, query, common.NormalizeEmail(email)))
}

// SetBan overwrites the ban fields. A nil expiresAt is a permanent ban.
func (r *PostgresRepository) SetBan(ctx context.Context, id string, reason string, expiresAt *time.Time) (*models.Identity, error) {
	query :=
		`UPDATE users SET banned = TRUE, ban_reason = $2, ban_expires = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + columns
	return scanIdentity(r.db.QueryRowContext(ctx, query, id, reason, expiresAt))
}

func (r *PostgresRepository) ClearBan(ctx context.Context, id string) (*models.Identity, error) {
	query :=
		`UPDATE users SET banned = FALSE, ban_reason = NULL, ban_expires = NULL, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + columns
	return scanIdentity(r.db.QueryRowContext(ctx, query, id))
}

// ClearExpiredBan clears the ban only while it is persisted and past its
// expiry at now. It reports whether a row was written, so repeating the call
// is a no-op.
func (r *PostgresRepository) ClearExpiredBan(ctx context.Context, id string, now time.Time) (bool, error) {
	query :=
		`UPDATE users SET banned = FALSE, ban_reason = NULL, ban_expires = NULL, updated_at = now()
		 WHERE id = $1 AND banned AND ban_expires IS NOT NULL AND ban_expires < $2
		 `
	res, err := r.db.ExecContext(ctx, query, id, now)
	if err != nil {
		return false, dbx.StorageError(err)
	}
	if err := dbx.ExpectAffected(res); err != nil {
		if errors.Is(err, dbx.ErrNoRowsAffected) {
			return false, nil
		}
		return false, dbx.StorageError(err)
	}
	return true, nil
}
