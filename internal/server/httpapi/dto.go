package httpapi

import (
	"time"

	"github.com/dmitrijs2005/forumtrust/internal/server/models"
)

type identityResponse struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	Username      *string    `json:"username,omitempty"`
	Name          string     `json:"name"`
	Role          string     `json:"role"`
	EmailVerified bool       `json:"emailVerified"`
	Banned        bool       `json:"banned"`
	BanReason     *string    `json:"banReason,omitempty"`
	BanExpiresAt  *time.Time `json:"banExpiresAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
}

func newIdentityResponse(i *models.Identity) identityResponse {
	return identityResponse{
		ID:            i.ID,
		Email:         i.Email,
		Username:      i.Username,
		Name:          i.Name,
		Role:          string(i.Role),
		EmailVerified: i.EmailVerified,
		Banned:        i.Banned,
		BanReason:     i.BanReason,
		BanExpiresAt:  i.BanExpiresAt,
		CreatedAt:     i.CreatedAt,
	}
}

type banResponse struct {
	Reason    *string    `json:"reason,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

func newBanResponse(b *models.BanState) *banResponse {
	if b == nil {
		return nil
	}
	return &banResponse{Reason: b.Reason, ExpiresAt: b.ExpiresAt}
}

type reporterResponse struct {
	Name     string  `json:"name"`
	Username *string `json:"username"`
}

type reportResponse struct {
	ID          string            `json:"id"`
	ReporterID  string            `json:"reporterId"`
	Reporter    *reporterResponse `json:"reporter,omitempty"`
	ContentType string            `json:"contentType"`
	ContentID   string            `json:"contentId"`
	Reason      string            `json:"reason"`
	CreatedAt   time.Time         `json:"createdAt"`
	HandledBy   *string           `json:"handledBy"`
}

func newReportResponse(r models.Report) reportResponse {
	resp := reportResponse{
		ID:          r.ID,
		ReporterID:  r.ReporterID,
		ContentType: string(r.ContentType),
		ContentID:   r.ContentID,
		Reason:      r.Reason,
		CreatedAt:   r.CreatedAt,
		HandledBy:   r.HandledBy,
	}
	if r.Reporter != nil {
		resp.Reporter = &reporterResponse{Name: r.Reporter.Name, Username: r.Reporter.Username}
	}
	return resp
}

type logEntryResponse struct {
	ID          string    `json:"id"`
	ModeratorID string    `json:"moderatorId"`
	Action      string    `json:"action"`
	TargetType  string    `json:"targetType"`
	TargetID    string    `json:"targetId"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

func newLogEntryResponse(e models.ModerationLogEntry) logEntryResponse {
	return logEntryResponse{
		ID:          e.ID,
		ModeratorID: e.ModeratorID,
		Action:      e.Action,
		TargetType:  string(e.TargetType),
		TargetID:    e.TargetID,
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt,
	}
}

type threadResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	IsLocked bool   `json:"isLocked"`
}

type pageResponse[T any] struct {
	Items     []T `json:"items"`
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	Total     int `json:"total"`
	PageCount int `json:"pageCount"`
}

func newPageResponse[M, T any](p *models.Page[M], conv func(M) T) pageResponse[T] {
	items := make([]T, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, conv(it))
	}
	return pageResponse[T]{
		Items:     items,
		Page:      p.Page,
		PageSize:  p.PageSize,
		Total:     p.Total,
		PageCount: p.PageCount,
	}
}
