package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/dmitrijs2005/forumtrust/internal/dbx"
	"github.com/dmitrijs2005/forumtrust/internal/logging"
	"github.com/dmitrijs2005/forumtrust/internal/server/models"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/repomanager"
)

// Pagination defaults for report and log listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ReportService records content reports and the moderator actions that
// resolve them. Reports and log entries are never deleted.
type ReportService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewReportService(tx dbx.Transactor, m repomanager.RepositoryManager, log logging.Logger) *ReportService {
	return &ReportService{
		tx:          tx,
		repomanager: m,
		log:         log.With("module", "reports"),
	}
}

type fileReportInput struct {
	ReporterID  string `validate:"required,uuid"`
	ContentType string `validate:"required,oneof=thread post user"`
	ContentID   string `validate:"required,uuid"`
	Reason      string `validate:"required,max=1000"`
}

// FileReport records a new open report. Repeated reports of the same content
// by the same reporter are all kept.
func (s *ReportService) FileReport(ctx context.Context, reporterID string, contentType models.ContentType, contentID, reason string) (*models.Report, error) {
	in := fileReportInput{
		ReporterID:  reporterID,
		ContentType: string(contentType),
		ContentID:   contentID,
		Reason:      reason,
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	report, err := s.repomanager.Reports(s.tx.Conn()).Create(ctx, &models.Report{
		ReporterID:  reporterID,
		ContentType: contentType,
		ContentID:   contentID,
		Reason:      reason,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "report filed", "report_id", report.ID, "content_type", string(contentType), "content_id", contentID)
	return report, nil
}

// ListReports returns one page of reports in status, newest first.
func (s *ReportService) ListReports(ctx context.Context, status models.ReportStatus, page, pageSize int) (*models.Page[models.Report], error) {
	if status == "" {
		status = models.ReportsOpen
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown report status %q", common.ErrorValidation, status)
	}
	page, pageSize = normalizePage(page, pageSize)

	repo := s.repomanager.Reports(s.tx.Conn())

	items, err := repo.List(ctx, status, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	total, err := repo.Count(ctx, status)
	if err != nil {
		return nil, err
	}

	return newPage(items, page, pageSize, total), nil
}

// HandleReport marks the report handled by moderatorID and logs action
// against the reported content. Handling an already handled report replaces
// its handler.
func (s *ReportService) HandleReport(ctx context.Context, reportID, moderatorID, action, notes string) (*models.Report, error) {
	if err := validateVar(action, "required,max=200"); err != nil {
		return nil, err
	}
	if moderatorID == "" {
		return nil, fmt.Errorf("%w: moderator required", common.ErrorValidation)
	}
	if err := requireID("report", reportID); err != nil {
		return nil, err
	}

	var report *models.Report
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		report, err = s.repomanager.Reports(tx).SetHandledBy(ctx, reportID, moderatorID)
		if err != nil {
			return err
		}
		_, err = s.repomanager.ModerationLogs(tx).Append(ctx, &models.ModerationLogEntry{
			ModeratorID: moderatorID,
			Action:      action,
			TargetType:  report.ContentType,
			TargetID:    report.ContentID,
			Notes:       notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "report handled", "report_id", reportID, "moderator_id", moderatorID, "action", action)
	return report, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func newPage[T any](items []T, page, pageSize, total int) *models.Page[T] {
	if items == nil {
		items = []T{}
	}
	return &models.Page[T]{
		Items:     items,
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		PageCount: (total + pageSize - 1) / pageSize,
	}
}

