package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/dmitrijs2005/forumtrust/internal/dbx"
	"github.com/dmitrijs2005/forumtrust/internal/logging"
	"github.com/dmitrijs2005/forumtrust/internal/server/config"
	"github.com/dmitrijs2005/forumtrust/internal/server/models"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sentMessage struct {
	kind  string
	email string
	extra string
	link  string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (n *recordingNotifier) record(kind, email, extra, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentMessage{kind: kind, email: email, extra: extra, link: link})
	return n.err
}

func (n *recordingNotifier) SendVerification(_ context.Context, email, link string) error {
	return n.record("verification", email, "", link)
}

func (n *recordingNotifier) SendPasswordReset(_ context.Context, email, link string) error {
	return n.record("password-reset", email, "", link)
}

func (n *recordingNotifier) SendUsernameRecovery(_ context.Context, email, username, link string) error {
	return n.record("username-recovery", email, username, link)
}

func (n *recordingNotifier) messages() []sentMessage {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]sentMessage(nil), n.sent...)
}

// fakeCredentials stores passwords through the accounts repository so that
// they follow the surrounding transaction.
type fakeCredentials struct {
	store    *memStore
	unknowns int
}

func (c *fakeCredentials) SetPassword(ctx context.Context, db dbx.DBTX, identityID, password string) error {
	return c.store.Accounts(db).UpsertPasswordHash(ctx, identityID, "hashed:"+password)
}

func (c *fakeCredentials) Verify(ctx context.Context, db dbx.DBTX, identityID, password string) error {
	hash, err := c.store.Accounts(db).GetPasswordHash(ctx, identityID)
	if errors.Is(err, common.ErrorNotFound) || (err == nil && hash != "hashed:"+password) {
		return common.ErrorUnauthorized
	}
	return err
}

func (c *fakeCredentials) VerifyUnknown(string) error {
	c.unknowns++
	return common.ErrorUnauthorized
}

type fixture struct {
	clock    *fakeClock
	store    *memStore
	notifier *recordingNotifier
	tokens   *TokenService
	bans     *BanService
	reports  *ReportService
	accounts *AccountService
}

func newFixture(t *testing.T, opts ...func(*config.Config)) *fixture {
	t.Helper()

	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := newMemStore(clock.Now)
	notifier := &recordingNotifier{}

	cfg := &config.Config{}
	cfg.LoadDefaults()
	for _, o := range opts {
		o(cfg)
	}

	links, err := NewLinks("https://forum.example")
	require.NoError(t, err)

	log := logging.Nop{}

	tokens := NewTokenService(store, store, log)
	tokens.now = clock.Now
	bans := NewBanService(store, store, log)
	bans.now = clock.Now

	return &fixture{
		clock:    clock,
		store:    store,
		notifier: notifier,
		tokens:   tokens,
		bans:     bans,
		reports:  NewReportService(store, store, log),
		accounts: NewAccountService(store, store, tokens, bans, &fakeCredentials{store: store}, notifier, links, cfg, log),
	}
}

// Fixed uuids for validator-checked ids.
const (
	userU1      = "11111111-1111-4111-8111-111111111111"
	userU2      = "22222222-2222-4222-8222-222222222222"
	moderatorM1 = "33333333-3333-4333-8333-333333333333"
	postP1      = "44444444-4444-4444-8444-444444444444"
	threadT1    = "55555555-5555-4555-8555-555555555555"
)

func (f *fixture) seedUser(id, email string) {
	f.store.putIdentity(models.Identity{ID: id, Email: email, EmailVerified: true})
}

func tokenFromLink(t *testing.T, link string) string {
	t.Helper()
	_, value, ok := strings.Cut(link, "token=")
	require.True(t, ok, "no token in %q", link)
	return value
}

func intPtr(v int) *int { return &v }

var errDBDown = errors.Join(common.ErrorStorage, errors.New("db down"))
