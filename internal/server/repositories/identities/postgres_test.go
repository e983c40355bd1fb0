package identities

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/dmitrijs2005/forumtrust/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var identityCols = []string{"id", "email", "username", "name", "role", "email_verified", "banned", "ban_reason", "ban_expires", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func strPtr(s string) *string { return &s }

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*email,\s*username,\s*name,\s*role\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+created_at,\s*updated_at\s*$`
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	mock.ExpectQuery(q).
		WithArgs("u-1", "alice@example.com", "alice", "Alice", "member").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	got, err := repo.Create(context.Background(), &models.Identity{
		ID: "u-1", Email: "  Alice@Example.COM ", Username: strPtr("alice"), Name: "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
	assert.Equal(t, models.RoleMember, got.Role)
	assert.Equal(t, now, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_GeneratesID(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).
		WithArgs(sqlmock.AnyArg(), "bob@example.com", nil, "", "moderator").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(time.Now(), time.Now()))

	got, err := repo.Create(context.Background(), &models.Identity{Email: "bob@example.com", Role: models.RoleModerator})
	require.NoError(t, err)
	assert.Len(t, got.ID, 36)
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_lower_uidx"})

	_, err := repo.Create(context.Background(), &models.Identity{ID: "u-1", Email: "a@example.com"})
	require.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+users`).
		WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.Identity{ID: "u-1", Email: "a@example.com"})
	require.ErrorIs(t, err, common.ErrorStorage)
	if !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*email,.*updated_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
	exp := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	now := time.Now()

	mock.ExpectQuery(q).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(identityCols).
			AddRow("u-1", "a@example.com", nil, "A", "moderator", true, true, "spam", exp, now, now))

	got, err := repo.GetByID(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Nil(t, got.Username)
	assert.Equal(t, models.RoleModerator, got.Role)
	assert.True(t, got.Banned)
	require.NotNil(t, got.BanReason)
	assert.Equal(t, "spam", *got.BanReason)
	require.NotNil(t, got.BanExpiresAt)
	assert.True(t, exp.Equal(*got.BanExpiresAt))
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+users\s+WHERE\s+id`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestGetByEmail_NormalizesInput(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+users\s+WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)$`).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows(identityCols).
			AddRow("u-1", "a@example.com", "alice", "A", "member", false, false, nil, nil, now, now))

	got, err := repo.GetByEmail(context.Background(), "A@Example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice", *got.Username)
	assert.Nil(t, got.BanExpiresAt)
}

func TestMarkEmailVerified(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	q := `(?s)^UPDATE\s+users\s+SET\s+email_verified\s*=\s*TRUE.*WHERE\s+lower\(email\)\s*=\s*lower\(\$1\)\s+RETURNING\s+id,.*updated_at$`
	mock.ExpectQuery(q).
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows(identityCols).
			AddRow("u-1", "a@example.com", nil, "", "member", true, false, nil, nil, now, now))

	got, err := repo.MarkEmailVerified(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.True(t, got.EmailVerified)

	mock.ExpectQuery(q).WithArgs("nobody@example.com").WillReturnError(sql.ErrNoRows)
	_, err = repo.MarkEmailVerified(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestSetBan(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	exp := now.Add(7 * 24 * time.Hour)
	q := `(?s)^UPDATE\s+users\s+SET\s+banned\s*=\s*TRUE,\s*ban_reason\s*=\s*\$2,\s*ban_expires\s*=\s*\$3.*WHERE\s+id\s*=\s*\$1`

	mock.ExpectQuery(q).
		WithArgs("u-1", "abuse", exp).
		WillReturnRows(sqlmock.NewRows(identityCols).
			AddRow("u-1", "a@example.com", nil, "", "member", true, true, "abuse", exp, now, now))

	got, err := repo.SetBan(context.Background(), "u-1", "abuse", &exp)
	require.NoError(t, err)
	assert.True(t, got.Banned)

	mock.ExpectQuery(q).
		WithArgs("u-2", "spam", nil).
		WillReturnError(sql.ErrNoRows)

	_, err = repo.SetBan(context.Background(), "u-2", "spam", nil)
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestClearBan(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`(?s)^UPDATE\s+users\s+SET\s+banned\s*=\s*FALSE,\s*ban_reason\s*=\s*NULL,\s*ban_expires\s*=\s*NULL.*WHERE\s+id\s*=\s*\$1\s+RETURNING`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(identityCols).
			AddRow("u-1", "a@example.com", nil, "", "member", true, false, nil, nil, now, now))

	got, err := repo.ClearBan(context.Background(), "u-1")
	require.NoError(t, err)
	assert.False(t, got.Banned)
	assert.Nil(t, got.BanReason)
}

func TestClearExpiredBan(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	q := `(?s)^UPDATE\s+users\s+SET\s+banned\s*=\s*FALSE.*WHERE\s+id\s*=\s*\$1\s+AND\s+banned\s+AND\s+ban_expires\s+IS\s+NOT\s+NULL\s+AND\s+ban_expires\s*<\s*\$2\s*$`

	mock.ExpectExec(q).WithArgs("u-1", now).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("u-1", now).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(q).WithArgs("u-1", now).WillReturnError(errors.New("db err"))

	wrote, err := repo.ClearExpiredBan(context.Background(), "u-1", now)
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = repo.ClearExpiredBan(context.Background(), "u-1", now)
	require.NoError(t, err)
	assert.False(t, wrote)

	_, err = repo.ClearExpiredBan(context.Background(), "u-1", now)
	require.ErrorIs(t, err, common.ErrorStorage)
	require.NoError(t, mock.ExpectationsWereMet())
}
