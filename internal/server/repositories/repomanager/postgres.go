// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/forumtrust/internal/dbx"
	"github.com/dmitrijs2005/forumtrust/internal/server/migrations"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/identities"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/modlog"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/reports"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/threads"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/tokens"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository implementations
// and exposes a schema migration hook.
type PostgresRepositoryManager struct{}

// Identities returns an identities.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Identities(db dbx.DBTX) identities.Repository {
	return identities.NewPostgresRepository(db)
}

// Tokens returns a tokens.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Tokens(db dbx.DBTX) tokens.Repository {
	return tokens.NewPostgresRepository(db)
}

// Reports returns a reports.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Reports(db dbx.DBTX) reports.Repository {
	return reports.NewPostgresRepository(db)
}

// ModerationLogs returns a modlog.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) ModerationLogs(db dbx.DBTX) modlog.Repository {
	return modlog.NewPostgresRepository(db)
}

// Threads returns a threads.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Threads(db dbx.DBTX) threads.Repository {
	return threads.NewPostgresRepository(db)
}

// Accounts returns an accounts.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Accounts(db dbx.DBTX) accounts.Repository {
	return accounts.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}
