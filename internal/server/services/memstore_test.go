package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/dmitrijs2005/forumtrust/internal/dbx"
	"github.com/dmitrijs2005/forumtrust/internal/server/models"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/identities"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/modlog"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/reports"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/threads"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/tokens"
)

// memState is the data held by memStore. It is copied wholesale on begin so
// a failed transaction can be undone.
type memState struct {
	identities map[string]models.Identity
	tokens     map[string]models.Token // by value
	reports    map[string]models.Report
	logs       []models.ModerationLogEntry
	threads    map[string]models.Thread
	passwords  map[string]string
}

func (s memState) clone() memState {
	c := memState{
		identities: make(map[string]models.Identity, len(s.identities)),
		tokens:     make(map[string]models.Token, len(s.tokens)),
		reports:    make(map[string]models.Report, len(s.reports)),
		logs:       append([]models.ModerationLogEntry(nil), s.logs...),
		threads:    make(map[string]models.Thread, len(s.threads)),
		passwords:  make(map[string]string, len(s.passwords)),
	}
	for k, v := range s.identities {
		c.identities[k] = v
	}
	for k, v := range s.tokens {
		c.tokens[k] = v
	}
	for k, v := range s.reports {
		c.reports[k] = v
	}
	for k, v := range s.threads {
		c.threads[k] = v
	}
	for k, v := range s.passwords {
		c.passwords[k] = v
	}
	return c
}

// memStore is an in-memory RepositoryManager and Transactor. Transactions are
// serialized and roll back to a snapshot on error. failOn injects errors into
// named operations; writes counts identity row updates.
type memStore struct {
	mu     sync.Mutex
	txMu   sync.Mutex
	state  memState
	seq    int
	clock  func() time.Time
	failOn map[string]error
	writes int
	txs    int
}

func newMemStore(clock func() time.Time) *memStore {
	return &memStore{
		state: memState{
			identities: map[string]models.Identity{},
			tokens:     map[string]models.Token{},
			reports:    map[string]models.Report{},
			threads:    map[string]models.Thread{},
			passwords:  map[string]string{},
		},
		clock:  clock,
		failOn: map[string]error{},
	}
}

// nextID hands out sequential ids shaped like the uuids Postgres generates.
func (m *memStore) nextID() string {
	m.seq++
	return fmt.Sprintf("00000000-0000-4000-8000-%012d", m.seq)
}

func (m *memStore) fail(op string) error {
	return m.failOn[op]
}

// Transactor

func (m *memStore) Conn() dbx.DBTX { return nil }

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.state.clone()
	writes := m.writes
	m.txs++
	m.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		m.mu.Lock()
		m.state = snapshot
		m.writes = writes
		m.mu.Unlock()
		return err
	}
	return nil
}

// RepositoryManager

func (m *memStore) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memStore) Identities(dbx.DBTX) identities.Repository    { return memIdentities{m} }
func (m *memStore) Tokens(dbx.DBTX) tokens.Repository            { return memTokens{m} }
func (m *memStore) Reports(dbx.DBTX) reports.Repository          { return memReports{m} }
func (m *memStore) ModerationLogs(dbx.DBTX) modlog.Repository    { return memLogs{m} }
func (m *memStore) Threads(dbx.DBTX) threads.Repository          { return memThreads{m} }
func (m *memStore) Accounts(dbx.DBTX) accounts.Repository        { return memAccounts{m} }

// helpers used by tests

func (m *memStore) identity(id string) models.Identity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.identities[id]
}

func (m *memStore) putIdentity(i models.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i.Email = common.NormalizeEmail(i.Email)
	if i.Role == "" {
		i.Role = models.RoleMember
	}
	m.state.identities[i.ID] = i
}

func (m *memStore) putThread(t models.Thread) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.threads[t.ID] = t
}

func (m *memStore) tokenCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.tokens)
}

func (m *memStore) tokensFor(identifier string, purpose models.TokenPurpose) []models.Token {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Token
	for _, t := range m.state.tokens {
		if t.Identifier == identifier && t.Purpose == purpose {
			out = append(out, t)
		}
	}
	return out
}

func (m *memStore) logsFor(targetID string) []models.ModerationLogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ModerationLogEntry
	for _, e := range m.state.logs {
		if e.TargetID == targetID {
			out = append(out, e)
		}
	}
	return out
}

func (m *memStore) logCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state.logs)
}

func (m *memStore) identityWrites() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// identities

type memIdentities struct{ m *memStore }

func (r memIdentities) Create(_ context.Context, identity *models.Identity) (*models.Identity, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("identities.Create"); err != nil {
		return nil, err
	}
	for _, existing := range m.state.identities {
		if existing.Email == identity.Email {
			return nil, common.ErrorAlreadyExists
		}
		if identity.Username != nil && existing.Username != nil && *existing.Username == *identity.Username {
			return nil, common.ErrorAlreadyExists
		}
	}
	created := *identity
	created.ID = m.nextID()
	created.CreatedAt = m.clock()
	created.UpdatedAt = created.CreatedAt
	m.state.identities[created.ID] = created
	m.writes++
	return &created, nil
}

func (r memIdentities) GetByID(_ context.Context, id string) (*models.Identity, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("identities.GetByID"); err != nil {
		return nil, err
	}
	i, ok := m.state.identities[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &i, nil
}

func (r memIdentities) GetByEmail(_ context.Context, email string) (*models.Identity, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("identities.GetByEmail"); err != nil {
		return nil, err
	}
	email = common.NormalizeEmail(email)
	for _, i := range m.state.identities {
		if i.Email == email {
			return &i, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memIdentities) update(id string, op string, fn func(*models.Identity)) (*models.Identity, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(op); err != nil {
		return nil, err
	}
	i, ok := m.state.identities[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	fn(&i)
	i.UpdatedAt = m.clock()
	m.state.identities[id] = i
	m.writes++
	return &i, nil
}

func (r memIdentities) MarkEmailVerified(ctx context.Context, email string) (*models.Identity, error) {
	found, err := r.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return r.update(found.ID, "identities.MarkEmailVerified", func(i *models.Identity) { i.EmailVerified = true })
}

func (r memIdentities) SetBan(_ context.Context, id, reason string, expiresAt *time.Time) (*models.Identity, error) {
	return r.update(id, "identities.SetBan", func(i *models.Identity) {
		i.Banned = true
		i.BanReason = &reason
		i.BanExpiresAt = expiresAt
	})
}

func (r memIdentities) ClearBan(_ context.Context, id string) (*models.Identity, error) {
	return r.update(id, "identities.ClearBan", func(i *models.Identity) {
		i.Banned = false
		i.BanReason = nil
		i.BanExpiresAt = nil
	})
}

func (r memIdentities) ClearExpiredBan(_ context.Context, id string, now time.Time) (bool, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("identities.ClearExpiredBan"); err != nil {
		return false, err
	}
	i, ok := m.state.identities[id]
	if !ok || !i.Banned || i.BanExpiresAt == nil || !i.BanExpiresAt.Before(now) {
		return false, nil
	}
	i.Banned = false
	i.BanReason = nil
	i.BanExpiresAt = nil
	m.state.identities[id] = i
	m.writes++
	return true, nil
}

// tokens

type memTokens struct{ m *memStore }

func (r memTokens) Create(_ context.Context, token *models.Token) (*models.Token, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("tokens.Create"); err != nil {
		return nil, err
	}
	if _, ok := m.state.tokens[token.Value]; ok {
		return nil, common.ErrorAlreadyExists
	}
	created := *token
	created.ID = m.nextID()
	created.CreatedAt = m.clock()
	m.state.tokens[created.Value] = created
	return &created, nil
}

func (r memTokens) Take(ctx context.Context, value string) (*models.Token, error) {
	return r.take(value, "")
}

func (r memTokens) TakeForPurpose(ctx context.Context, value string, purpose models.TokenPurpose) (*models.Token, error) {
	return r.take(value, purpose)
}

func (r memTokens) take(value string, purpose models.TokenPurpose) (*models.Token, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("tokens.Take"); err != nil {
		return nil, err
	}
	t, ok := m.state.tokens[value]
	if !ok || (purpose != "" && t.Purpose != purpose) {
		return nil, common.ErrorNotFound
	}
	delete(m.state.tokens, value)
	return &t, nil
}

// reports

type memReports struct{ m *memStore }

func (r memReports) Create(_ context.Context, report *models.Report) (*models.Report, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("reports.Create"); err != nil {
		return nil, err
	}
	created := *report
	created.ID = m.nextID()
	// strictly increasing so newest-first ordering is deterministic
	created.CreatedAt = m.clock().Add(time.Duration(m.seq) * time.Millisecond)
	m.state.reports[created.ID] = created
	return &created, nil
}

func (r memReports) GetByID(_ context.Context, id string) (*models.Report, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	rep, ok := m.state.reports[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &rep, nil
}

func (r memReports) SetHandledBy(_ context.Context, id, moderatorID string) (*models.Report, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("reports.SetHandledBy"); err != nil {
		return nil, err
	}
	rep, ok := m.state.reports[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	rep.HandledBy = &moderatorID
	m.state.reports[id] = rep
	return &rep, nil
}

func (r memReports) filtered(status models.ReportStatus) []models.Report {
	var out []models.Report
	for _, rep := range r.m.state.reports {
		switch {
		case status == models.ReportsOpen && rep.Handled():
			continue
		case status == models.ReportsHandled && !rep.Handled():
			continue
		}
		out = append(out, rep)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r memReports) List(_ context.Context, status models.ReportStatus, limit, offset int) ([]models.Report, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("reports.List"); err != nil {
		return nil, err
	}
	all := r.filtered(status)
	if offset >= len(all) {
		return nil, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	page := all[offset:end]
	for i := range page {
		if u, ok := m.state.identities[page[i].ReporterID]; ok {
			page[i].Reporter = &models.Reporter{Name: u.Name, Username: u.Username}
		}
	}
	return page, nil
}

func (r memReports) Count(_ context.Context, status models.ReportStatus) (int, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(r.filtered(status)), nil
}

// moderation log

type memLogs struct{ m *memStore }

func (r memLogs) Append(_ context.Context, entry *models.ModerationLogEntry) (*models.ModerationLogEntry, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("logs.Append"); err != nil {
		return nil, err
	}
	created := *entry
	created.ID = m.nextID()
	created.CreatedAt = m.clock().Add(time.Duration(m.seq) * time.Millisecond)
	m.state.logs = append(m.state.logs, created)
	return &created, nil
}

func (r memLogs) List(_ context.Context, limit, offset int) ([]models.ModerationLogEntry, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ModerationLogEntry
	for i := len(m.state.logs) - 1; i >= 0; i-- {
		out = append(out, m.state.logs[i])
	}
	if offset >= len(out) {
		return nil, nil
	}
	end := offset + limit
	if end > len(out) {
		end = len(out)
	}
	return out[offset:end], nil
}

func (r memLogs) Count(context.Context) (int, error) {
	return r.m.logCount(), nil
}

func (r memLogs) ListForTarget(_ context.Context, targetType models.ContentType, targetID string) ([]models.ModerationLogEntry, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.ModerationLogEntry
	for _, e := range m.state.logs {
		if e.TargetType == targetType && e.TargetID == targetID {
			out = append(out, e)
		}
	}
	return out, nil
}

// threads

type memThreads struct{ m *memStore }

func (r memThreads) GetByID(_ context.Context, id string) (*models.Thread, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.state.threads[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &t, nil
}

func (r memThreads) SetLocked(_ context.Context, id string, locked bool) (*models.Thread, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.state.threads[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	t.IsLocked = locked
	m.state.threads[id] = t
	return &t, nil
}

// accounts

type memAccounts struct{ m *memStore }

func (r memAccounts) UpsertPasswordHash(_ context.Context, userID, hash string) error {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail("accounts.Upsert"); err != nil {
		return err
	}
	m.state.passwords[userID] = hash
	return nil
}

func (r memAccounts) GetPasswordHash(_ context.Context, userID string) (string, error) {
	m := r.m
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.state.passwords[userID]
	if !ok {
		return "", common.ErrorNotFound
	}
	return h, nil
}
