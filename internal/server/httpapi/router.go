// Package httpapi is the HTTP surface of the trust and moderation services.
// Handlers only translate between JSON and service calls; every decision is
// made by the services.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/didip/tollbooth/v6/limiter"
	"github.com/dmitrijs2005/forumtrust/internal/logging"
	"github.com/dmitrijs2005/forumtrust/internal/server/config"
	"github.com/dmitrijs2005/forumtrust/internal/server/models"
	"github.com/dmitrijs2005/forumtrust/internal/server/services"
	"github.com/go-chi/chi/v5"
)

// Accounts is the part of services.AccountService used by the handlers.
type Accounts interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.Identity, error)
	SignIn(ctx context.Context, email, password string) (*models.Identity, error)
	Authorize(ctx context.Context, identityID string) (*models.Identity, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	RequestUsernameRecovery(ctx context.Context, email string) error
	RecoverUsername(ctx context.Context, token string) (string, error)
}

// Bans is the part of services.BanService used by the handlers.
type Bans interface {
	Ban(ctx context.Context, identityID, moderatorID, reason string, durationDays *int) (*models.Identity, error)
	Unban(ctx context.Context, identityID, moderatorID, notes string) (*models.Identity, error)
}

// Moderation is the part of services.ReportService used by the handlers.
type Moderation interface {
	FileReport(ctx context.Context, reporterID string, contentType models.ContentType, contentID, reason string) (*models.Report, error)
	ListReports(ctx context.Context, status models.ReportStatus, page, pageSize int) (*models.Page[models.Report], error)
	HandleReport(ctx context.Context, reportID, moderatorID, action, notes string) (*models.Report, error)
	LockThread(ctx context.Context, threadID, moderatorID, notes string) (*models.Thread, error)
	UnlockThread(ctx context.Context, threadID, moderatorID, notes string) (*models.Thread, error)
	ListModerationLogs(ctx context.Context, page, pageSize int) (*models.Page[models.ModerationLogEntry], error)
}

// Pinger reports storage health. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	accounts   Accounts
	bans       Bans
	moderation Moderation
	db         Pinger
	log        logging.Logger

	secretKey      []byte
	accessTokenTTL time.Duration
	authLimiter    *limiter.Limiter
}

// NewHandler wires the services into a Handler. db may be nil, in which case
// /healthz does not check storage.
func NewHandler(cfg *config.Config, accounts Accounts, bans Bans, moderation Moderation, db Pinger, log logging.Logger) *Handler {
	lmt := tollbooth.NewLimiter(cfg.AuthRateLimit, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Hour})
	lmt.SetIPLookups([]string{"RemoteAddr", "X-Forwarded-For", "X-Real-IP"})
	lmt.SetMessageContentType("application/json; charset=utf-8")
	lmt.SetMessage(`{"status":"error","code":"RATE_LIMITED","message":"too many requests"}`)

	return &Handler{
		accounts:       accounts,
		bans:           bans,
		moderation:     moderation,
		db:             db,
		log:            log.With("module", "http"),
		secretKey:      []byte(cfg.SecretKey),
		accessTokenTTL: cfg.AccessTokenTTL,
		authLimiter:    lmt,
	}
}

// Router registers all routes and the middleware stack.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(h.requestID)
	r.Use(h.recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", h.healthz)

	r.Route("/auth", func(r chi.Router) {
		r.Use(h.rateLimit)
		r.Post("/register", h.register)
		r.Post("/sign-in", h.signIn)
		r.Post("/verify-email", h.verifyEmail)
		r.Post("/verification/resend", h.resendVerification)
		r.Post("/password/forgot", h.forgotPassword)
		r.Post("/password/reset", h.resetPassword)
		r.Post("/username/forgot", h.forgotUsername)
		r.Post("/username/recover", h.recoverUsername)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)
		r.Post("/reports", h.fileReport)
	})

	r.Route("/mod", func(r chi.Router) {
		r.Use(h.authenticate)
		r.Use(h.requireModerator)
		r.Get("/reports", h.listReports)
		r.Post("/reports/{id}/handle", h.handleReport)
		r.Post("/users/{id}/ban", h.banUser)
		r.Post("/users/{id}/unban", h.unbanUser)
		r.Post("/threads/{id}/lock", h.lockThread)
		r.Post("/threads/{id}/unlock", h.unlockThread)
		r.Get("/logs", h.listLogs)
	})

	return r
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			h.log.Warn(r.Context(), "health check failed", "error", err)
			writeError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "storage unavailable")
			return
		}
	}
	writeMessage(w, http.StatusOK, "ok")
}
