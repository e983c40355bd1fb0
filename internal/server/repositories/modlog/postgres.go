// Package modlog stores the moderation audit trail in PostgreSQL.
package modlog

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/forumtrust/internal/dbx"
	"github.com/dmitrijs2005/forumtrust/internal/server/models"
	"github.com/google/uuid"
)

const columns = `id, moderator_id, action, target_type, target_id, notes, created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, entry *models.ModerationLogEntry) (*models.ModerationLogEntry, error) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO moderation_logs (id, moderator_id, action, target_type, target_id, notes)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at
		 `
	err := r.db.QueryRowContext(ctx, query,
		entry.ID, entry.ModeratorID, entry.Action, string(entry.TargetType), entry.TargetID, entry.Notes).
		Scan(&entry.CreatedAt)
	if err != nil {
		return nil, dbx.StorageError(err)
	}
	return entry, nil
}

// List returns entries newest first.
func (r *PostgresRepository) List(ctx context.Context, limit, offset int) ([]models.ModerationLogEntry, error) {
	query := `SELECT ` + columns + ` FROM moderation_logs ORDER BY created_at DESC, id DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, dbx.StorageError(err)
	}
	return collect(rows)
}

func (r *PostgresRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM moderation_logs`).Scan(&n); err != nil {
		return 0, dbx.StorageError(err)
	}
	return n, nil
}

// ListForTarget returns every entry about one target, oldest first.
func (r *PostgresRepository) ListForTarget(ctx context.Context, targetType models.ContentType, targetID string) ([]models.ModerationLogEntry, error) {
	query := `SELECT ` + columns + ` FROM moderation_logs WHERE target_type = $1 AND target_id = $2 ORDER BY created_at, id`

	rows, err := r.db.QueryContext(ctx, query, string(targetType), targetID)
	if err != nil {
		return nil, dbx.StorageError(err)
	}
	return collect(rows)
}

func collect(rows *sql.Rows) ([]models.ModerationLogEntry, error) {
	defer rows.Close()

	var result []models.ModerationLogEntry
	for rows.Next() {
		var e models.ModerationLogEntry
		var targetType string
		if err := rows.Scan(&e.ID, &e.ModeratorID, &e.Action, &targetType, &e.TargetID, &e.Notes, &e.CreatedAt); err != nil {
			return nil, dbx.StorageError(err)
		}
		e.TargetType = models.ContentType(targetType)
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.StorageError(err)
	}
	return result, nil
}
