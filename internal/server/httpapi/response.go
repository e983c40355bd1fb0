package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/dmitrijs2005/forumtrust/internal/server/services"
)

type apiError struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeSuccess(w http.ResponseWriter, statusCode int, data any) {
	writeJSON(w, statusCode, map[string]any{
		"status": "success",
		"data":   data,
	})
}

func writeMessage(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{
		"status":  "success",
		"message": message,
	})
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, apiError{Status: "error", Code: code, Message: message})
}

// writeDomainError maps a service error onto a status code. Unexpected
// errors are logged and reported without detail.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		tokenErr  *services.TokenError
		denialErr *services.DenialError
	)
	switch {
	case errors.As(err, &tokenErr):
		code := "TOKEN_INVALID"
		if tokenErr.Kind == services.TokenExpired {
			code = "TOKEN_EXPIRED"
		}
		writeError(w, http.StatusBadRequest, code, tokenErr.Error())
	case errors.As(err, &denialErr):
		resp := apiError{Status: "error", Code: "EMAIL_NOT_VERIFIED", Message: denialErr.Error()}
		if denialErr.Reason == services.DeniedBanned {
			resp.Code = "BANNED"
			resp.Details = newBanResponse(denialErr.Ban)
		}
		writeJSON(w, http.StatusForbidden, resp)
	case errors.Is(err, common.ErrorValidation):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, common.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "SESSION_EXPIRED", "access token expired")
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid or missing credentials")
	case errors.Is(err, common.ErrorForbidden):
		writeError(w, http.StatusForbidden, "FORBIDDEN", "forbidden")
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusConflict, "CONFLICT", "already exists")
	default:
		h.log.Error(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON value")
	}
	return nil
}

func parseIntDefault(raw string, fallback int) int {
	if strings.TrimSpace(raw) == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
