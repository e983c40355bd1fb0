// Package threads exposes the moderation-relevant part of the threads table.
package threads

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/dmitrijs2005/forumtrust/internal/dbx"
	"github.com/dmitrijs2005/forumtrust/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Thread, error) {
	query := `SELECT id, title, is_locked FROM threads WHERE id = $1`
	return scanThread(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) SetLocked(ctx context.Context, id string, locked bool) (*models.Thread, error) {
	query :=
		`UPDATE threads SET is_locked = $2
		 WHERE id = $1
		 RETURNING id, title, is_locked
		 `
	return scanThread(r.db.QueryRowContext(ctx, query, id, locked))
}

func scanThread(row *sql.Row) (*models.Thread, error) {
	t := &models.Thread{}
	if err := row.Scan(&t.ID, &t.Title, &t.IsLocked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.StorageError(err)
	}
	return t, nil
}
