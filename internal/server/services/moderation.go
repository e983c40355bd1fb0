package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/dmitrijs2005/forumtrust/internal/dbx"
	"github.com/dmitrijs2005/forumtrust/internal/server/models"
)

// LockThread locks threadID and logs "Lock thread".
func (s *ReportService) LockThread(ctx context.Context, threadID, moderatorID, notes string) (*models.Thread, error) {
	return s.setThreadLocked(ctx, threadID, moderatorID, notes, true)
}

// UnlockThread unlocks threadID and logs "Unlock thread".
func (s *ReportService) UnlockThread(ctx context.Context, threadID, moderatorID, notes string) (*models.Thread, error) {
	return s.setThreadLocked(ctx, threadID, moderatorID, notes, false)
}

func (s *ReportService) setThreadLocked(ctx context.Context, threadID, moderatorID, notes string, locked bool) (*models.Thread, error) {
	if moderatorID == "" {
		return nil, fmt.Errorf("%w: moderator required", common.ErrorValidation)
	}
	if err := requireID("thread", threadID); err != nil {
		return nil, err
	}

	action := models.ActionUnlockThread
	if locked {
		action = models.ActionLockThread
	}

	var thread *models.Thread
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		thread, err = s.repomanager.Threads(tx).SetLocked(ctx, threadID, locked)
		if err != nil {
			return err
		}
		_, err = s.repomanager.ModerationLogs(tx).Append(ctx, &models.ModerationLogEntry{
			ModeratorID: moderatorID,
			Action:      action,
			TargetType:  models.ContentThread,
			TargetID:    threadID,
			Notes:       notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "thread lock changed", "thread_id", threadID, "moderator_id", moderatorID, "locked", locked)
	return thread, nil
}

// ListModerationLogs returns one page of the moderation log, newest first.
func (s *ReportService) ListModerationLogs(ctx context.Context, page, pageSize int) (*models.Page[models.ModerationLogEntry], error) {
	page, pageSize = normalizePage(page, pageSize)

	repo := s.repomanager.ModerationLogs(s.tx.Conn())

	items, err := repo.List(ctx, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, err
	}
	total, err := repo.Count(ctx)
	if err != nil {
		return nil, err
	}
	return newPage(items, page, pageSize, total), nil
}

// ListModerationLogsForTarget returns the full history of one target,
// oldest first.
func (s *ReportService) ListModerationLogsForTarget(ctx context.Context, targetType models.ContentType, targetID string) ([]models.ModerationLogEntry, error) {
	if err := validateVar(string(targetType), "required,oneof=thread post user"); err != nil {
		return nil, err
	}
	if requireID(string(targetType), targetID) != nil {
		// Nothing can have been logged against an id storage cannot hold.
		return []models.ModerationLogEntry{}, nil
	}
	entries, err := s.repomanager.ModerationLogs(s.tx.Conn()).ListForTarget(ctx, targetType, targetID)
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []models.ModerationLogEntry{}
	}
	return entries, nil
}
