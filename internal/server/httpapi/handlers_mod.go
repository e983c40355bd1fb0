package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/forumtrust/internal/server/models"
	"github.com/dmitrijs2005/forumtrust/internal/server/services"
	"github.com/go-chi/chi/v5"
)

type fileReportRequest struct {
	ContentType string `json:"contentType" validate:"required"`
	ContentID   string `json:"contentId" validate:"required"`
	Reason      string `json:"reason" validate:"required"`
}

func (h *Handler) fileReport(w http.ResponseWriter, r *http.Request) {
	var req fileReportRequest
	if !bind(w, r, &req) {
		return
	}
	reporter, _ := identityFromContext(r.Context())

	report, err := h.moderation.FileReport(r.Context(), reporter.ID, models.ContentType(req.ContentType), req.ContentID, req.Reason)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusCreated, newReportResponse(*report))
}

func (h *Handler) listReports(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.moderation.ListReports(r.Context(),
		models.ReportStatus(q.Get("status")),
		parseIntDefault(q.Get("page"), 1),
		parseIntDefault(q.Get("pageSize"), services.DefaultPageSize))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, newPageResponse(page, newReportResponse))
}

type handleReportRequest struct {
	Action string `json:"action" validate:"required"`
	Notes  string `json:"notes"`
}

func (h *Handler) handleReport(w http.ResponseWriter, r *http.Request) {
	var req handleReportRequest
	if !bind(w, r, &req) {
		return
	}
	moderator, _ := identityFromContext(r.Context())

	report, err := h.moderation.HandleReport(r.Context(), chi.URLParam(r, "id"), moderator.ID, req.Action, req.Notes)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, newReportResponse(*report))
}

type banRequest struct {
	Reason       string `json:"reason" validate:"required,max=500"`
	DurationDays *int   `json:"durationDays" validate:"omitempty,min=1,max=36500"`
}

func (h *Handler) banUser(w http.ResponseWriter, r *http.Request) {
	var req banRequest
	if !bind(w, r, &req) {
		return
	}
	moderator, _ := identityFromContext(r.Context())

	identity, err := h.bans.Ban(r.Context(), chi.URLParam(r, "id"), moderator.ID, req.Reason, req.DurationDays)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, newIdentityResponse(identity))
}

type notesRequest struct {
	Notes string `json:"notes"`
}

func (h *Handler) unbanUser(w http.ResponseWriter, r *http.Request) {
	var req notesRequest
	if !bindOptional(w, r, &req) {
		return
	}
	moderator, _ := identityFromContext(r.Context())

	identity, err := h.bans.Unban(r.Context(), chi.URLParam(r, "id"), moderator.ID, req.Notes)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, newIdentityResponse(identity))
}

func (h *Handler) lockThread(w http.ResponseWriter, r *http.Request) {
	h.setThreadLock(w, r, true)
}

func (h *Handler) unlockThread(w http.ResponseWriter, r *http.Request) {
	h.setThreadLock(w, r, false)
}

func (h *Handler) setThreadLock(w http.ResponseWriter, r *http.Request, locked bool) {
	var req notesRequest
	if !bindOptional(w, r, &req) {
		return
	}
	moderator, _ := identityFromContext(r.Context())

	change := h.moderation.UnlockThread
	if locked {
		change = h.moderation.LockThread
	}
	thread, err := change(r.Context(), chi.URLParam(r, "id"), moderator.ID, req.Notes)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, threadResponse{ID: thread.ID, Title: thread.Title, IsLocked: thread.IsLocked})
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.moderation.ListModerationLogs(r.Context(),
		parseIntDefault(q.Get("page"), 1),
		parseIntDefault(q.Get("pageSize"), services.DefaultPageSize))
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	writeSuccess(w, http.StatusOK, newPageResponse(page, newLogEntryResponse))
}
