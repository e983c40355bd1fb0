package reports

import (
	"context"

	"github.com/dmitrijs2005/forumtrust/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, report *models.Report) (*models.Report, error)
	GetByID(ctx context.Context, id string) (*models.Report, error)
	SetHandledBy(ctx context.Context, id, moderatorID string) (*models.Report, error)
	List(ctx context.Context, status models.ReportStatus, limit, offset int) ([]models.Report, error)
	Count(ctx context.Context, status models.ReportStatus) (int, error)
}
