// Package reports stores content reports in PostgreSQL.
package reports

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/dmitrijs2005/forumtrust/internal/dbx"
	"github.com/dmitrijs2005/forumtrust/internal/server/models"
	"github.com/google/uuid"
)

const columns = `id, reporter_id, content_type, content_id, reason, created_at, handled_by`

// listColumns selects a report joined with its reporter's name and username.
const listColumns = `r.id, r.reporter_id, r.content_type, r.content_id, r.reason, r.created_at, r.handled_by,
		u.name, u.username`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(s scanner) (*models.Report, error) {
	r := &models.Report{}
	var contentType string
	if err := s.Scan(&r.ID, &r.ReporterID, &contentType, &r.ContentID, &r.Reason, &r.CreatedAt, &r.HandledBy); err != nil {
		return nil, err
	}
	r.ContentType = models.ContentType(contentType)
	return r, nil
}

func scanOne(row *sql.Row) (*models.Report, error) {
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.StorageError(err)
	}
	return r, nil
}

func scanListed(s scanner) (*models.Report, error) {
	r := &models.Report{}
	var (
		contentType string
		name        sql.NullString
		username    *string
	)
	if err := s.Scan(&r.ID, &r.ReporterID, &contentType, &r.ContentID, &r.Reason, &r.CreatedAt, &r.HandledBy,
		&name, &username); err != nil {
		return nil, err
	}
	r.ContentType = models.ContentType(contentType)
	if name.Valid {
		r.Reporter = &models.Reporter{Name: name.String, Username: username}
	}
	return r, nil
}

// statusFilter returns the WHERE clause selecting reports aliased as r in
// status.
func statusFilter(status models.ReportStatus) string {
	switch status {
	case models.ReportsOpen:
		return ` WHERE r.handled_by IS NULL`
	case models.ReportsHandled:
		return ` WHERE r.handled_by IS NOT NULL`
	default:
		return ``
	}
}

func (r *PostgresRepository) Create(ctx context.Context, report *models.Report) (*models.Report, error) {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO reports (id, reporter_id, content_type, content_id, reason)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at
		 `
	err := r.db.QueryRowContext(ctx, query,
		report.ID, report.ReporterID, string(report.ContentType), report.ContentID, report.Reason).
		Scan(&report.CreatedAt)
	if err != nil {
		return nil, dbx.StorageError(err)
	}
	return report, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	query := `SELECT ` + columns + ` FROM reports WHERE id = $1`
	return scanOne(r.db.QueryRowContext(ctx, query, id))
}

// SetHandledBy marks the report handled by moderatorID, overwriting any
// previous handler.
func (r *PostgresRepository) SetHandledBy(ctx context.Context, id, moderatorID string) (*models.Report, error) {
	query :=
		`UPDATE reports SET handled_by = $2
		 WHERE id = $1
		 RETURNING ` + columns
	return scanOne(r.db.QueryRowContext(ctx, query, id, moderatorID))
}

// List returns reports in status with their reporters, newest first. A report
// whose reporter row is gone is listed without one.
func (r *PostgresRepository) List(ctx context.Context, status models.ReportStatus, limit, offset int) ([]models.Report, error) {
	query := `SELECT ` + listColumns + `
		 FROM reports r
		 LEFT JOIN users u ON u.id = r.reporter_id` + statusFilter(status) +
		` ORDER BY r.created_at DESC, r.id DESC LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, dbx.StorageError(err)
	}
	defer rows.Close()

	result := make([]models.Report, 0, limit)
	for rows.Next() {
		report, err := scanListed(rows)
		if err != nil {
			return nil, dbx.StorageError(err)
		}
		result = append(result, *report)
	}
	if err := rows.Err(); err != nil {
		return nil, dbx.StorageError(err)
	}
	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context, status models.ReportStatus) (int, error) {
	query := `SELECT count(*) FROM reports r` + statusFilter(status)

	var n int
	if err := r.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, dbx.StorageError(err)
	}
	return n, nil
}
