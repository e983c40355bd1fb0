// Package credentials hashes and checks account passwords with bcrypt.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/forumtrust/internal/common"
	"github.com/dmitrijs2005/forumtrust/internal/dbx"
	"github.com/dmitrijs2005/forumtrust/internal/server/repositories/repomanager"
	"golang.org/x/crypto/bcrypt"
)

// Store keeps one bcrypt hash per identity in the accounts table.
type Store struct {
	repomanager repomanager.RepositoryManager
	cost        int

	decoyOnce sync.Once
	decoy     []byte
}

// NewStore returns a Store hashing with cost; cost <= 0 means bcrypt.DefaultCost.
func NewStore(m repomanager.RepositoryManager, cost int) *Store {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &Store{repomanager: m, cost: cost}
}

// SetPassword hashes password and stores it for identityID using db, which
// may be a transaction.
func (s *Store) SetPassword(ctx context.Context, db dbx.DBTX, identityID, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return fmt.Errorf("%w: %w", common.ErrorValidation, err)
		}
		return fmt.Errorf("%w: %w", common.ErrorInternal, err)
	}
	return s.repomanager.Accounts(db).UpsertPasswordHash(ctx, identityID, string(hash))
}

// Verify checks password against the stored hash. A missing credential and a
// wrong password both yield common.ErrorUnauthorized.
func (s *Store) Verify(ctx context.Context, db dbx.DBTX, identityID, password string) error {
	hash, err := s.repomanager.Accounts(db).GetPasswordHash(ctx, identityID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return s.VerifyUnknown(password)
		}
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return common.ErrorUnauthorized
	}
	return nil
}

// VerifyUnknown spends the same bcrypt work as Verify for a sign-in that has
// no account behind it, then yields common.ErrorUnauthorized.
func (s *Store) VerifyUnknown(password string) error {
	_ = bcrypt.CompareHashAndPassword(s.decoyHash(), []byte(password))
	return common.ErrorUnauthorized
}

func (s *Store) decoyHash() []byte {
	s.decoyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("forumtrust decoy password"), s.cost)
		if err == nil {
			s.decoy = hash
		}
	})
	return s.decoy
}
