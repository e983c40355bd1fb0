package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/dmitrijs2005/forumtrust/internal/dbx"
	"github.com/dmitrijs2005/forumtrust/internal/logging"
	"github.com/dmitrijs2005/forumtrust/internal/server/config"
	"github.com/dmitrijs2005/forumtrust/internal/server/models"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/repomanager"
)

// AccountService answers whether an identity may authenticate and drives the
// account flows that spend tokens: registration, email verification,
// password reset and username recovery.
//
// Flows keyed by an email address answer the same way whether or not the
// address is registered.
type AccountService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	tokens      *TokenService
	bans        *BanService
	credentials Credentials
	notifier    Notifier
	links       *Links
	log         logging.Logger

	requireEmailVerification bool
	verificationTTL          time.Duration
	passwordResetTTL         time.Duration
	usernameRecoveryTTL      time.Duration
}

func NewAccountService(
	tx dbx.Transactor,
	m repomanager.RepositoryManager,
	tokens *TokenService,
	bans *BanService,
	credentials Credentials,
	notifier Notifier,
	links *Links,
	cfg *config.Config,
	log logging.Logger,
) *AccountService {
	return &AccountService{
		tx:                       tx,
		repomanager:              m,
		tokens:                   tokens,
		bans:                     bans,
		credentials:              credentials,
		notifier:                 notifier,
		links:                    links,
		log:                      log.With("module", "accounts"),
		requireEmailVerification: cfg.RequireEmailVerification,
		verificationTTL:          cfg.VerificationTTL,
		passwordResetTTL:         cfg.PasswordResetTTL,
		usernameRecoveryTTL:      cfg.UsernameRecoveryTTL,
	}
}

// CanAuthenticate returns nil when identity may sign in, or a *DenialError.
// The ban check uses the effective state, so an expired ban does not deny.
func (s *AccountService) CanAuthenticate(identity *models.Identity) error {
	if state := s.bans.EffectiveBanState(identity); state.Banned {
		return &DenialError{Reason: DeniedBanned, Ban: &state}
	}
	if s.requireEmailVerification && !identity.EmailVerified {
		return &DenialError{Reason: DeniedEmailNotVerified}
	}
	return nil
}

// Authorize loads identityID, clears an expired ban and checks
// CanAuthenticate.
func (s *AccountService) Authorize(ctx context.Context, identityID string) (*models.Identity, error) {
	identity, err := s.repomanager.Identities(s.tx.Conn()).GetByID(ctx, identityID)
	if err != nil {
		return nil, err
	}
	return s.authorize(ctx, identity)
}

func (s *AccountService) authorize(ctx context.Context, identity *models.Identity) (*models.Identity, error) {
	identity, err := s.bans.Reconcile(ctx, identity)
	if err != nil {
		return nil, err
	}
	if err := s.CanAuthenticate(identity); err != nil {
		return nil, err
	}
	return identity, nil
}

// SignIn checks the password of the account registered under email. Unknown
// addresses and wrong passwords both yield common.ErrorUnauthorized after the
// same hashing work.
func (s *AccountService) SignIn(ctx context.Context, email, password string) (*models.Identity, error) {
	identity, err := s.repomanager.Identities(s.tx.Conn()).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, s.credentials.VerifyUnknown(password)
		}
		return nil, err
	}

	if err := s.credentials.Verify(ctx, s.tx.Conn(), identity.ID, password); err != nil {
		return nil, err
	}

	return s.authorize(ctx, identity)
}

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	Email    string `validate:"required,email,max=254"`
	Username string `validate:"omitempty,alphanum,min=3,max=30"`
	Name     string `validate:"max=100"`
	Password string `validate:"required,min=8,max=72"`
}

// Register creates the identity, its credential and a verification token in
// one transaction, then sends the verification link. A taken email or
// username yields common.ErrorAlreadyExists.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.Identity, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	var (
		identity *models.Identity
		token    *models.Token
	)
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		candidate := &models.Identity{
			Email: common.NormalizeEmail(in.Email),
			Name:  in.Name,
			Role:  models.RoleMember,
		}
		if in.Username != "" {
			username := in.Username
			candidate.Username = &username
		}

		var err error
		identity, err = s.repomanager.Identities(tx).Create(ctx, candidate)
		if err != nil {
			return err
		}
		if err := s.credentials.SetPassword(ctx, tx, identity.ID, in.Password); err != nil {
			return err
		}
		token, err = s.tokens.issue(ctx, tx, identity.Email, models.PurposeVerification, s.verificationTTL)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "account registered", "user_id", identity.ID)
	s.notify(ctx, "verification", func() error {
		return s.notifier.SendVerification(ctx, identity.Email, s.links.Verification(token.Value))
	})
	return identity, nil
}

// VerifyEmail spends a verification token and marks the bound address
// verified in the same transaction. On a *TokenError nothing else changes.
func (s *AccountService) VerifyEmail(ctx context.Context, value string) error {
	err := s.tokens.consumeInTx(ctx, value, models.PurposeVerification,
		func(ctx context.Context, tx dbx.DBTX, email string) error {
			_, err := s.repomanager.Identities(tx).MarkEmailVerified(ctx, email)
			return err
		})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "email verified")
	return nil
}

// ResendVerification issues and sends a new verification link when email
// belongs to an unverified account. It returns nil otherwise.
func (s *AccountService) ResendVerification(ctx context.Context, email string) error {
	identity, err := s.lookupForUniformFlow(ctx, email)
	if err != nil || identity == nil {
		return err
	}
	if identity.EmailVerified {
		return nil
	}

	token, err := s.tokens.Issue(ctx, identity.Email, models.PurposeVerification, s.verificationTTL)
	if err != nil {
		return err
	}
	s.notify(ctx, "verification", func() error {
		return s.notifier.SendVerification(ctx, identity.Email, s.links.Verification(token.Value))
	})
	return nil
}

// RequestPasswordReset sends a reset link when email belongs to an account
// and returns nil either way.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	identity, err := s.lookupForUniformFlow(ctx, email)
	if err != nil || identity == nil {
		return err
	}

	token, err := s.tokens.Issue(ctx, identity.Email, models.PurposePasswordReset, s.passwordResetTTL)
	if err != nil {
		return err
	}
	s.notify(ctx, "password reset", func() error {
		return s.notifier.SendPasswordReset(ctx, identity.Email, s.links.PasswordReset(token.Value))
	})
	return nil
}

// ResetPassword checks newPassword, spends a password-reset token and stores
// the new password for the bound account, all in one transaction.
func (s *AccountService) ResetPassword(ctx context.Context, value, newPassword string) error {
	if err := validateVar(newPassword, passwordTag); err != nil {
		return err
	}

	err := s.tokens.consumeInTx(ctx, value, models.PurposePasswordReset,
		func(ctx context.Context, tx dbx.DBTX, email string) error {
			identity, err := s.repomanager.Identities(tx).GetByEmail(ctx, email)
			if err != nil {
				return err
			}
			return s.credentials.SetPassword(ctx, tx, identity.ID, newPassword)
		})
	if err != nil {
		return err
	}

	s.log.Info(ctx, "password reset")
	return nil
}

// RequestUsernameRecovery sends a recovery link when email belongs to an
// account with a username and returns nil either way.
func (s *AccountService) RequestUsernameRecovery(ctx context.Context, email string) error {
	identity, err := s.lookupForUniformFlow(ctx, email)
	if err != nil || identity == nil {
		return err
	}
	if identity.Username == nil {
		return nil
	}

	token, err := s.tokens.Issue(ctx, identity.Email, models.PurposeUsernameRecovery, s.usernameRecoveryTTL)
	if err != nil {
		return err
	}
	username := *identity.Username
	s.notify(ctx, "username recovery", func() error {
		return s.notifier.SendUsernameRecovery(ctx, identity.Email, username, s.links.UsernameRecovery(token.Value))
	})
	return nil
}

// RecoverUsername spends a username-recovery token and returns the username
// of the bound account.
func (s *AccountService) RecoverUsername(ctx context.Context, value string) (string, error) {
	var username string
	err := s.tokens.consumeInTx(ctx, value, models.PurposeUsernameRecovery,
		func(ctx context.Context, tx dbx.DBTX, email string) error {
			identity, err := s.repomanager.Identities(tx).GetByEmail(ctx, email)
			if err != nil {
				return err
			}
			if identity.Username == nil {
				return fmt.Errorf("%w: account has no username", common.ErrorNotFound)
			}
			username = *identity.Username
			return nil
		})
	if err != nil {
		return "", err
	}
	return username, nil
}

// lookupForUniformFlow validates email and loads its identity. An unknown
// address returns (nil, nil) so callers answer as if it existed.
func (s *AccountService) lookupForUniformFlow(ctx context.Context, email string) (*models.Identity, error) {
	if err := validateVar(email, emailTag); err != nil {
		return nil, err
	}

	identity, err := s.repomanager.Identities(s.tx.Conn()).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Debug(ctx, "no account for address")
			return nil, nil
		}
		return nil, err
	}
	return identity, nil
}

func (s *AccountService) notify(ctx context.Context, kind string, send func() error) {
	if err := send(); err != nil {
		s.log.Error(ctx, "notification failed", "kind", kind, "error", err)
	}
}
