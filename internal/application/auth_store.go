package application

import (
	"context"
	"time"

	"github.com/example/dropplan/internal/persistence"
)

// StoreCredentials reads user credentials through a Transactor.
type StoreCredentials struct {
	tx persistence.Transactor
}

// NewStoreCredentials returns a CredentialStore backed by tx.
func NewStoreCredentials(tx persistence.Transactor) *StoreCredentials {
	return &StoreCredentials{tx: tx}
}

// GetUserCredentialsByEmail implements CredentialStore.
func (s *StoreCredentials) GetUserCredentialsByEmail(ctx context.Context, email string) (creds UserCredentials, err error) {
	err = s.tx.WithinReadOnlyTransaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		stored, err := repos.Users().GetUserByEmail(ctx, email)
		if err != nil {
			return err
		}
		creds = UserCredentials{
			User:         toUser(stored),
			PasswordHash: stored.PasswordHash,
			Disabled:     !stored.IsActive,
		}
		return nil
	})
	return creds, translateError(err)
}

// GetUser implements CredentialStore.
func (s *StoreCredentials) GetUser(ctx context.Context, id string) (user User, err error) {
	err = s.tx.WithinReadOnlyTransaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		stored, err := repos.Users().GetUser(ctx, id)
		if err != nil {
			return err
		}
		user = toUser(stored)
		return nil
	})
	return user, translateError(err)
}

// StoreSessions persists authentication sessions through a Transactor.
type StoreSessions struct {
	tx persistence.Transactor
}

// NewStoreSessions returns a SessionRepository backed by tx.
func NewStoreSessions(tx persistence.Transactor) *StoreSessions {
	return &StoreSessions{tx: tx}
}

func (s *StoreSessions) run(ctx context.Context, fn func(repo persistence.SessionRepository) (persistence.Session, error)) (Session, error) {
	var out persistence.Session
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		var err error
		out, err = fn(repos.Sessions())
		return err
	})
	if err != nil {
		return Session{}, translateError(err)
	}
	return toSession(out), nil
}

// CreateSession implements SessionRepository.
func (s *StoreSessions) CreateSession(ctx context.Context, session Session) (Session, error) {
	return s.run(ctx, func(repo persistence.SessionRepository) (persistence.Session, error) {
		return repo.CreateSession(ctx, toPersistenceSession(session))
	})
}

// GetSession implements SessionRepository.
func (s *StoreSessions) GetSession(ctx context.Context, token string) (Session, error) {
	return s.run(ctx, func(repo persistence.SessionRepository) (persistence.Session, error) {
		return repo.GetSession(ctx, token)
	})
}

// UpdateSession implements SessionRepository.
func (s *StoreSessions) UpdateSession(ctx context.Context, session Session) (Session, error) {
	return s.run(ctx, func(repo persistence.SessionRepository) (persistence.Session, error) {
		return repo.UpdateSession(ctx, toPersistenceSession(session))
	})
}

// RevokeSession implements SessionRepository.
func (s *StoreSessions) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error) {
	return s.run(ctx, func(repo persistence.SessionRepository) (persistence.Session, error) {
		return repo.RevokeSession(ctx, token, revokedAt)
	})
}

// DeleteExpiredSessions implements SessionRepository.
func (s *StoreSessions) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context, repos persistence.Repositories) error {
		return repos.Sessions().DeleteExpiredSessions(ctx, reference)
	})
	return translateError(err)
}
