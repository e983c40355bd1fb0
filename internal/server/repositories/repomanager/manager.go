package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/forumtrust/internal/dbx"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/identities"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/modlog"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/reports"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/threads"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/tokens"
)

// RepositoryManager vends repositories bound to a DBTX, so the same service
// code runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Identities(db dbx.DBTX) identities.Repository
	Tokens(db dbx.DBTX) tokens.Repository
	Reports(db dbx.DBTX) reports.Repository
	ModerationLogs(db dbx.DBTX) modlog.Repository
	Threads(db dbx.DBTX) threads.Repository
	Accounts(db dbx.DBTX) accounts.Repository
}
