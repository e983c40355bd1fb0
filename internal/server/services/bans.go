package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/dmitrijs2005/forumtrust/internal/dbx"
	"github.com/dmitrijs2005/forumtrust/internal/logging"
	"github.com/dmitrijs2005/forumtrust/internal/server/models"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/repomanager"
)

// EffectiveBanState applies ban expiry to the persisted ban fields of identity.
// A ban whose expiry is before now is reported as lifted even though storage
// still says banned; Reconcile brings storage in line.
func EffectiveBanState(identity *models.Identity, now time.Time) models.BanState {
	if !identity.Banned {
		return models.BanState{}
	}
	if identity.BanExpiresAt != nil && now.After(*identity.BanExpiresAt) {
		return models.BanState{}
	}
	return models.BanState{
		Banned:    true,
		Reason:    identity.BanReason,
		ExpiresAt: identity.BanExpiresAt,
	}
}

// BanService applies and lifts bans. Every ban and unban writes one
// moderation log entry in the same transaction as the state change.
type BanService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	now         func() time.Time
}

func NewBanService(tx dbx.Transactor, m repomanager.RepositoryManager, log logging.Logger) *BanService {
	return &BanService{
		tx:          tx,
		repomanager: m,
		log:         log.With("module", "bans"),
		now:         time.Now,
	}
}

// EffectiveBanState is the package function evaluated at the service clock.
func (s *BanService) EffectiveBanState(identity *models.Identity) models.BanState {
	return EffectiveBanState(identity, s.now())
}

// Reconcile clears a persisted ban that has expired and returns the identity
// as stored afterwards. Identities whose persisted state already matches the
// effective state are returned unchanged without touching storage.
func (s *BanService) Reconcile(ctx context.Context, identity *models.Identity) (*models.Identity, error) {
	now := s.now()
	if !identity.Banned || EffectiveBanState(identity, now).Banned {
		return identity, nil
	}

	repo := s.repomanager.Identities(s.tx.Conn())

	wrote, err := repo.ClearExpiredBan(ctx, identity.ID, now)
	if err != nil {
		return nil, err
	}
	if !wrote {
		// Someone else changed the row since identity was read.
		return repo.GetByID(ctx, identity.ID)
	}

	s.log.Info(ctx, "expired ban cleared", "user_id", identity.ID)

	cleared := *identity
	cleared.Banned = false
	cleared.BanReason = nil
	cleared.BanExpiresAt = nil
	return &cleared, nil
}

// Ban bans identityID, replacing any existing ban. A nil durationDays is a
// permanent ban; otherwise it must be between 1 and MaxBanDays.
func (s *BanService) Ban(ctx context.Context, identityID, moderatorID, reason string, durationDays *int) (*models.Identity, error) {
	if moderatorID == "" {
		return nil, fmt.Errorf("%w: moderator required", common.ErrorValidation)
	}
	if durationDays != nil && (*durationDays <= 0 || *durationDays > MaxBanDays) {
		return nil, fmt.Errorf("%w: ban duration must be between 1 and %d days", common.ErrorValidation, MaxBanDays)
	}
	if err := requireID("user", identityID); err != nil {
		return nil, err
	}

	var (
		expiresAt *time.Time
		action    = models.ActionPermanentBan
	)
	if durationDays != nil {
		t := s.now().AddDate(0, 0, *durationDays)
		expiresAt = &t
		action = fmt.Sprintf("Temporary ban (%d days)", *durationDays)
	}

	var banned *models.Identity
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		banned, err = s.repomanager.Identities(tx).SetBan(ctx, identityID, reason, expiresAt)
		if err != nil {
			return err
		}
		_, err = s.repomanager.ModerationLogs(tx).Append(ctx, &models.ModerationLogEntry{
			ModeratorID: moderatorID,
			Action:      action,
			TargetType:  models.ContentUser,
			TargetID:    identityID,
			Notes:       reason,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user banned", "user_id", identityID, "moderator_id", moderatorID, "action", action)
	return banned, nil
}

// Unban lifts any ban on identityID. The action is logged even when the
// identity was not banned.
func (s *BanService) Unban(ctx context.Context, identityID, moderatorID, notes string) (*models.Identity, error) {
	if moderatorID == "" {
		return nil, fmt.Errorf("%w: moderator required", common.ErrorValidation)
	}
	if err := requireID("user", identityID); err != nil {
		return nil, err
	}

	var unbanned *models.Identity
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		unbanned, err = s.repomanager.Identities(tx).ClearBan(ctx, identityID)
		if err != nil {
			return err
		}
		_, err = s.repomanager.ModerationLogs(tx).Append(ctx, &models.ModerationLogEntry{
			ModeratorID: moderatorID,
			Action:      models.ActionUnban,
			TargetType:  models.ContentUser,
			TargetID:    identityID,
			Notes:       notes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "user unbanned", "user_id", identityID, "moderator_id", moderatorID)
	return unbanned, nil
}
