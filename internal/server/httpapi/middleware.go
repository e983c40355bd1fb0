package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/didip/tollbooth/v6"
	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/dmitrijs2005/forumtrust/internal/logging"
	"github.com/dmitrijs2005/forumtrust/internal/server/auth"
	"github.com/dmitrijs2005/forumtrust/internal/server/models"
	"github.com/google/uuid"
)

type ctxKey int

const (
	ctxKeyRequestID ctxKey = iota
	ctxKeyIdentity
)

const requestIDHeader = "X-Request-Id"

func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)

		ctx := context.WithValue(r.Context(), ctxKeyRequestID, reqID)
		ctx = logging.ContextWith(ctx, "request_id", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.log.Error(r.Context(), "panic recovered", "method", r.Method, "path", r.URL.Path, "panic", rec)
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *statusRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(recorder, r)

		statusCode := recorder.statusCode
		if statusCode == 0 {
			statusCode = http.StatusOK
		}
		fields := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status_code", statusCode,
			"duration_ms", time.Since(start).Milliseconds(),
		}
		switch {
		case statusCode >= 500:
			h.log.Error(r.Context(), "http request completed", fields...)
		case statusCode >= 400:
			h.log.Warn(r.Context(), "http request completed", fields...)
		default:
			h.log.Info(r.Context(), "http request completed", fields...)
		}
	})
}

// rateLimit throttles the unauthenticated account endpoints per client IP.
func (h *Handler) rateLimit(next http.Handler) http.Handler {
	return tollbooth.LimitHandler(h.authLimiter, next)
}

// authenticate accepts a bearer access token, then reloads the identity so
// that bans and verification are enforced on every request, not only at
// sign-in.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerTokenFromHeader(r.Header.Get(common.AccessTokenHeaderName))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", err.Error())
			return
		}

		claims, err := auth.ParseToken(raw, h.secretKey)
		if err != nil {
			h.writeDomainError(w, r, err)
			return
		}

		identity, err := h.accounts.Authorize(r.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				err = common.ErrorUnauthorized
			}
			h.writeDomainError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyIdentity, identity)
		ctx = logging.ContextWith(ctx, "user_id", identity.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) requireModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := identityFromContext(r.Context())
		if !ok || !identity.Role.CanModerate() {
			writeError(w, http.StatusForbidden, "FORBIDDEN", "moderator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func identityFromContext(ctx context.Context) (*models.Identity, bool) {
	identity, ok := ctx.Value(ctxKeyIdentity).(*models.Identity)
	return identity, ok
}

func bearerTokenFromHeader(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New("missing bearer token")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
