package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const defaultSessionTTL = 24 * time.Hour

// CredentialStore looks up the accounts that may sign in.
type CredentialStore interface {
	GetUserCredentialsByEmail(ctx context.Context, email string) (UserCredentials, error)
	GetUser(ctx context.Context, id string) (User, error)
}

// SessionRepository stores issued session tokens.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// PasswordVerifier compares a stored hash with a candidate password.
type PasswordVerifier func(hashedPassword, password string) error

// AuthService signs users in and tracks their session tokens.
type AuthService struct {
	credentials    CredentialStore
	sessions       SessionRepository
	verifyPassword PasswordVerifier
	tokenGenerator func() string
	now            func() time.Time
	sessionTTL     time.Duration
	logger         *slog.Logger
}

// NewAuthService constructs an AuthService that logs through slog.Default.
func NewAuthService(credentials CredentialStore, sessions SessionRepository, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration) *AuthService {
	return NewAuthServiceWithLogger(credentials, sessions, verify, tokenGenerator, now, sessionTTL, nil)
}

// NewAuthServiceWithLogger constructs an AuthService. A nil verify checks
// argon2id hashes and a non-positive TTL falls back to 24 hours.
func NewAuthServiceWithLogger(credentials CredentialStore, sessions SessionRepository, verify PasswordVerifier, tokenGenerator func() string, now func() time.Time, sessionTTL time.Duration, logger *slog.Logger) *AuthService {
	if verify == nil {
		verify = VerifyPassword
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	if sessionTTL <= 0 {
		sessionTTL = defaultSessionTTL
	}
	return &AuthService{
		credentials:    credentials,
		sessions:       sessions,
		verifyPassword: verify,
		tokenGenerator: tokenGenerator,
		now:            now,
		sessionTTL:     sessionTTL,
		logger:         defaultLogger(logger),
	}
}

func (s *AuthService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AuthService", operation, attrs...)
}

func (s *AuthService) ready(needCredentials, needSessions bool) error {
	switch {
	case s == nil:
		return fmt.Errorf("AuthService is nil")
	case needCredentials && s.credentials == nil:
		return fmt.Errorf("credential store not configured")
	case needSessions && s.sessions == nil:
		return fmt.Errorf("session repository not configured")
	}
	return nil
}

// usable reports why session can no longer be used at now. A revoked session
// is reported as revoked even when it has also expired.
func (session Session) usable(now time.Time) error {
	if session.RevokedAt != nil && !session.RevokedAt.IsZero() {
		return ErrSessionRevoked
	}
	if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(now) {
		return ErrSessionExpired
	}
	return nil
}

// lookup loads the session for token, reporting a missing one as missing.
func (s *AuthService) lookup(ctx context.Context, token string, missing error) (Session, error) {
	session, err := s.sessions.GetSession(ctx, token)
	if errors.Is(err, ErrNotFound) {
		return Session{}, missing
	}
	return session, err
}

// Authenticate checks an email/password pair and issues a new session.
// Expired sessions of every user are pruned on the way.
func (s *AuthService) Authenticate(ctx context.Context, params AuthenticateParams) (result AuthenticateResult, err error) {
	if err = s.ready(true, false); err != nil {
		return
	}

	email := strings.TrimSpace(strings.ToLower(params.Email))
	logger := s.loggerWith(ctx, "Authenticate", "email", email)
	defer func() {
		logOutcome(ctx, logger, "authentication", err, "user_id", result.User.ID, "session_id", result.Session.ID)
	}()

	if email == "" || params.Password == "" {
		err = ErrInvalidCredentials
		return
	}

	creds, err := s.credentials.GetUserCredentialsByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		err = ErrInvalidCredentials
	}
	if err != nil {
		return
	}
	if creds.Disabled {
		err = ErrAccountDisabled
		return
	}
	if s.verifyPassword(creds.PasswordHash, params.Password) != nil {
		err = ErrInvalidCredentials
		return
	}

	now := s.now()
	session := Session{
		ID:          s.tokenGenerator(),
		UserID:      creds.User.ID,
		Fingerprint: strings.TrimSpace(params.Fingerprint),
		CreatedAt:   now,
		UpdatedAt:   now,
		ExpiresAt:   now.Add(s.sessionTTL),
	}
	if session.Token = s.tokenGenerator(); session.Token == "" {
		session.Token = session.ID
	}

	if s.sessions != nil {
		if err = s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
			return
		}
		if session, err = s.sessions.CreateSession(ctx, session); err != nil {
			return
		}
	}

	result = AuthenticateResult{User: creds.User, Session: session}
	return
}

// RefreshSession swaps the token of a live session for a new one and
// restarts its lifetime. The session keeps its id.
func (s *AuthService) RefreshSession(ctx context.Context, params RefreshSessionParams) (result RefreshSessionResult, err error) {
	if err = s.ready(false, true); err != nil {
		return
	}

	token := strings.TrimSpace(params.Token)
	logger := s.loggerWith(ctx, "RefreshSession", "token_provided", token != "")
	defer func() {
		logOutcome(ctx, logger, "session refresh", err, "session_id", result.Session.ID, "user_id", result.Session.UserID)
	}()

	if token == "" {
		err = ErrInvalidCredentials
		return
	}

	session, err := s.lookup(ctx, token, ErrInvalidCredentials)
	if err != nil {
		return
	}
	now := s.now()
	if err = session.usable(now); err != nil {
		return
	}

	if rotated := s.tokenGenerator(); rotated != "" {
		session.Token = rotated
	}
	if fingerprint := strings.TrimSpace(params.Fingerprint); fingerprint != "" {
		session.Fingerprint = fingerprint
	}
	session.UpdatedAt = now
	session.ExpiresAt = now.Add(s.sessionTTL)

	if session, err = s.sessions.UpdateSession(ctx, session); err != nil {
		return
	}
	result = RefreshSessionResult{Session: session}
	return
}

// RevokeSession ends the session identified by token and prunes expired ones.
func (s *AuthService) RevokeSession(ctx context.Context, token string) (err error) {
	if err = s.ready(false, true); err != nil {
		return
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidCredentials
	}

	logger := s.loggerWith(ctx, "RevokeSession", "token_provided", true)
	defer func() { logOutcome(ctx, logger, "session revocation", err) }()

	now := s.now()
	if _, err = s.sessions.RevokeSession(ctx, token, now); err != nil {
		if errors.Is(err, ErrNotFound) {
			err = ErrInvalidCredentials
		}
		return
	}
	if err = s.sessions.DeleteExpiredSessions(ctx, now); err != nil {
		err = fmt.Errorf("prune expired sessions: %w", err)
	}
	return
}

// ValidateSession resolves token to the principal of an active account.
// Unknown tokens and deleted users map to ErrUnauthorized.
func (s *AuthService) ValidateSession(ctx context.Context, token string) (principal Principal, err error) {
	if err = s.ready(true, true); err != nil {
		return
	}

	token = strings.TrimSpace(token)
	logger := s.loggerWith(ctx, "ValidateSession", "token_provided", token != "")
	defer func() { logOutcome(ctx, logger, "session validation", err, "principal_id", principal.UserID) }()

	if token == "" {
		err = ErrInvalidCredentials
		return
	}

	session, err := s.lookup(ctx, token, ErrUnauthorized)
	if err != nil {
		return
	}
	if err = session.usable(s.now()); err != nil {
		return
	}

	user, err := s.credentials.GetUser(ctx, session.UserID)
	if errors.Is(err, ErrNotFound) {
		err = ErrUnauthorized
	}
	if err != nil {
		return
	}
	if !user.IsActive {
		err = ErrAccountDisabled
		return
	}

	principal = Principal{UserID: user.ID, Role: user.Role}
	return
}
