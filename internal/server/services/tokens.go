// Package services contains the trust and moderation logic of the server:
// single-use tokens, bans, reports with their moderation log, and the account
// lifecycle built on top of them.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/dmitrijs2005/forumtrust/internal/dbx"
	"github.com/dmitrijs2005/forumtrust/internal/logging"
	"github.com/dmitrijs2005/forumtrust/internal/server/models"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/repomanager"
)

// TokenService issues and consumes single-use, expiring tokens.
// There is deliberately no way to extend a token; issue a new one instead.
type TokenService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	now         func() time.Time
}

func NewTokenService(tx dbx.Transactor, m repomanager.RepositoryManager, log logging.Logger) *TokenService {
	return &TokenService{
		tx:          tx,
		repomanager: m,
		log:         log.With("module", "tokens"),
		now:         time.Now,
	}
}

// Issue stores a fresh token for identifier that expires after ttl.
// Earlier tokens for the same identifier and purpose stay valid.
func (s *TokenService) Issue(ctx context.Context, identifier string, purpose models.TokenPurpose, ttl time.Duration) (*models.Token, error) {
	return s.issue(ctx, s.tx.Conn(), identifier, purpose, ttl)
}

func (s *TokenService) issue(ctx context.Context, db dbx.DBTX, identifier string, purpose models.TokenPurpose, ttl time.Duration) (*models.Token, error) {
	identifier = common.NormalizeEmail(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("%w: empty identifier", common.ErrorValidation)
	}
	if !purpose.Valid() {
		return nil, fmt.Errorf("%w: unknown token purpose %q", common.ErrorValidation, purpose)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: token ttl must be positive", common.ErrorValidation)
	}

	value, err := common.MakeRandHexString(common.TokenValueSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}

	token, err := s.repomanager.Tokens(db).Create(ctx, &models.Token{
		Identifier: identifier,
		Purpose:    purpose,
		Value:      value,
		ExpiresAt:  s.now().Add(ttl),
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug(ctx, "token issued", "purpose", string(purpose), "expires_at", token.ExpiresAt)
	return token, nil
}

// Consume spends the token with the given value and returns the identifier
// it was bound to. A missing token yields *TokenError{TokenNotFound}, an
// expired one *TokenError{TokenExpired}; either way the value is gone after
// the call.
func (s *TokenService) Consume(ctx context.Context, value string) (string, error) {
	token, err := s.consume(ctx, s.tx.Conn(), value, "")
	if err != nil {
		return "", err
	}
	return token.Identifier, nil
}

// ConsumeFor is Consume restricted to tokens of purpose. Tokens of other
// purposes are reported as not found and left in place.
func (s *TokenService) ConsumeFor(ctx context.Context, value string, purpose models.TokenPurpose) (string, error) {
	token, err := s.consume(ctx, s.tx.Conn(), value, purpose)
	if err != nil {
		return "", err
	}
	return token.Identifier, nil
}

// consume deletes the token in one statement and only then checks expiry, so
// an expired token is removed by the same call that rejects it.
// An empty purpose matches any token.
func (s *TokenService) consume(ctx context.Context, db dbx.DBTX, value string, purpose models.TokenPurpose) (*models.Token, error) {
	if value == "" {
		return nil, &TokenError{Kind: TokenNotFound}
	}

	repo := s.repomanager.Tokens(db)

	var (
		token *models.Token
		err   error
	)
	if purpose == "" {
		token, err = repo.Take(ctx, value)
	} else {
		token, err = repo.TakeForPurpose(ctx, value, purpose)
	}
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, &TokenError{Kind: TokenNotFound}
		}
		return nil, err
	}

	if token.Expired(s.now()) {
		s.log.Debug(ctx, "expired token discarded", "purpose", string(token.Purpose))
		return nil, &TokenError{Kind: TokenExpired}
	}
	return token, nil
}

// consumeInTx consumes a token of purpose and runs fn with its identifier in
// the same transaction. A *TokenError commits, keeping the cleanup of an
// expired token, and is returned after the commit. Errors from fn roll back
// and the token survives.
func (s *TokenService) consumeInTx(ctx context.Context, value string, purpose models.TokenPurpose,
	fn func(ctx context.Context, tx dbx.DBTX, identifier string) error) error {

	var tokenErr error
	err := s.tx.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		token, err := s.consume(ctx, tx, value, purpose)
		if err != nil {
			var te *TokenError
			if errors.As(err, &te) {
				tokenErr = err
				return nil
			}
			return err
		}
		return fn(ctx, tx, token.Identifier)
	})
	if err != nil {
		return err
	}
	return tokenErr
}
