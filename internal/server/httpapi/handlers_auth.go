package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/forumtrust/internal/server/auth"
	"github.com/dmitrijs2005/forumtrust/internal/server/services"
)

// uniformMessage answers every request keyed by an email address, so callers
// cannot learn which addresses are registered.
const uniformMessage = "if the address belongs to an account, a message has been sent"

type registerRequest struct {
	Email    string `json:"email" validate:"required"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !bind(w, r, &req) {
		return
	}

	identity, err := h.accounts.Register(r.Context(), services.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, newIdentityResponse(identity))
}

type signInRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type signInResponse struct {
	AccessToken string           `json:"accessToken"`
	TokenType   string           `json:"tokenType"`
	ExpiresIn   int64            `json:"expiresIn"`
	User        identityResponse `json:"user"`
}

func (h *Handler) signIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if !bind(w, r, &req) {
		return
	}

	identity, err := h.accounts.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	token, err := auth.GenerateToken(identity.ID, identity.Role, h.secretKey, h.accessTokenTTL)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	writeSuccess(w, http.StatusOK, signInResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(h.accessTokenTTL.Seconds()),
		User:        newIdentityResponse(identity),
	})
}

type tokenRequest struct {
	Token string `json:"token" validate:"required"`
}

type emailRequest struct {
	Email string `json:"email" validate:"required"`
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !bind(w, r, &req) {
		return
	}
	if err := h.accounts.VerifyEmail(r.Context(), req.Token); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "email verified")
}

func (h *Handler) resendVerification(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !bind(w, r, &req) {
		return
	}
	if err := h.accounts.ResendVerification(r.Context(), req.Email); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeMessage(w, http.StatusAccepted, uniformMessage)
}

func (h *Handler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !bind(w, r, &req) {
		return
	}
	if err := h.accounts.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeMessage(w, http.StatusAccepted, uniformMessage)
}

type resetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !bind(w, r, &req) {
		return
	}
	if err := h.accounts.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "password updated")
}

func (h *Handler) forgotUsername(w http.ResponseWriter, r *http.Request) {
	var req emailRequest
	if !bind(w, r, &req) {
		return
	}
	if err := h.accounts.RequestUsernameRecovery(r.Context(), req.Email); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeMessage(w, http.StatusAccepted, uniformMessage)
}

func (h *Handler) recoverUsername(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !bind(w, r, &req) {
		return
	}
	username, err := h.accounts.RecoverUsername(r.Context(), req.Token)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]string{"username": username})
}
