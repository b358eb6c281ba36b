package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	authNow          = time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)
	testArgon2Params = Argon2idParams{Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16}
	errStoreDown     = errors.New("store unavailable")
)

func plainVerifier(hashedPassword, password string) error {
	if hashedPassword != password {
		return ErrInvalidCredentials
	}
	return nil
}

// tokens returns a generator that yields values in order, then "".
func tokens(values ...string) func() string {
	return func() string {
		if len(values) == 0 {
			return ""
		}
		next := values[0]
		values = values[1:]
		return next
	}
}

func fixedNow() time.Time { return authNow }

type authFixture struct {
	creds    *credentialStoreStub
	sessions *sessionRepositoryStub
	svc      *AuthService
}

func newAuthFixture(user User, passwordHash string, gen func() string) *authFixture {
	f := &authFixture{
		creds:    &credentialStoreStub{credentials: UserCredentials{User: user, PasswordHash: passwordHash, Disabled: !user.IsActive}},
		sessions: newSessionRepositoryStub(),
	}
	f.svc = NewAuthService(f.creds, f.sessions, plainVerifier, gen, fixedNow, time.Hour)
	return f
}

func (f *authFixture) seed(token string, expiresIn time.Duration, revoked bool) {
	session := Session{ID: "session-" + token, UserID: "user-1", Token: token, Fingerprint: "laptop", CreatedAt: authNow, UpdatedAt: authNow, ExpiresAt: authNow.Add(expiresIn)}
	if revoked {
		at := authNow.Add(-time.Minute)
		session.RevokedAt = &at
	}
	f.sessions.seed(session)
}

var signedUp = User{ID: "user-1", Email: "dev@example.com", Role: RoleExecutor, IsActive: true}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("issues a session and prunes expired ones", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(signedUp, "correct horse", tokens("session-id", "session-token"))
		f.seed("stale", -time.Minute, false)

		result, err := f.svc.Authenticate(ctx, AuthenticateParams{Email: " Dev@Example.com ", Password: "correct horse", Fingerprint: " laptop "})
		require.NoError(t, err)
		assert.Equal(t, "session-id", result.Session.ID)
		assert.Equal(t, "session-token", result.Session.Token)
		assert.Equal(t, "laptop", result.Session.Fingerprint)
		assert.Equal(t, authNow.Add(time.Hour), result.Session.ExpiresAt)
		assert.Equal(t, signedUp.ID, result.User.ID)

		assert.Equal(t, []time.Time{authNow}, f.sessions.deleteCalls)
		_, err = f.sessions.GetSession(ctx, "stale")
		assert.ErrorIs(t, err, ErrNotFound)
		stored, err := f.sessions.GetSession(ctx, "session-token")
		require.NoError(t, err)
		assert.Equal(t, signedUp.ID, stored.UserID)
	})

	t.Run("falls back to the session id when no token is generated", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(signedUp, "correct horse", tokens("only-value"))

		result, err := f.svc.Authenticate(ctx, AuthenticateParams{Email: signedUp.Email, Password: "correct horse"})
		require.NoError(t, err)
		assert.Equal(t, "only-value", result.Session.Token)
	})

	t.Run("verifies argon2id hashes by default", func(t *testing.T) {
		t.Parallel()
		hash, err := CreatePasswordHash("correct horse", testArgon2Params)
		require.NoError(t, err)
		creds := &credentialStoreStub{credentials: UserCredentials{User: signedUp, PasswordHash: hash}}
		svc := NewAuthService(creds, newSessionRepositoryStub(), nil, tokens("id", "token"), fixedNow, time.Hour)

		_, err = svc.Authenticate(ctx, AuthenticateParams{Email: signedUp.Email, Password: "correct horse"})
		require.NoError(t, err)
		_, err = svc.Authenticate(ctx, AuthenticateParams{Email: signedUp.Email, Password: "battery staple"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	failures := []struct {
		name   string
		params AuthenticateParams
		setup  func(*authFixture)
		want   error
	}{
		{"blank email", AuthenticateParams{Password: "correct horse"}, nil, ErrInvalidCredentials},
		{"blank password", AuthenticateParams{Email: signedUp.Email}, nil, ErrInvalidCredentials},
		{"unknown email", AuthenticateParams{Email: "ghost@example.com", Password: "correct horse"}, func(f *authFixture) { f.creds.credentials = UserCredentials{} }, ErrInvalidCredentials},
		{"wrong password", AuthenticateParams{Email: signedUp.Email, Password: "wrong"}, nil, ErrInvalidCredentials},
		{"disabled account", AuthenticateParams{Email: signedUp.Email, Password: "correct horse"}, func(f *authFixture) { f.creds.credentials.Disabled = true }, ErrAccountDisabled},
		{"credential lookup failure", AuthenticateParams{Email: signedUp.Email, Password: "correct horse"}, func(f *authFixture) { f.creds.err = errStoreDown }, errStoreDown},
		{"session write failure", AuthenticateParams{Email: signedUp.Email, Password: "correct horse"}, func(f *authFixture) { f.sessions.createErr = errStoreDown }, errStoreDown},
		{"prune failure", AuthenticateParams{Email: signedUp.Email, Password: "correct horse"}, func(f *authFixture) { f.sessions.deleteErr = errStoreDown }, errStoreDown},
	}
	for _, tc := range failures {
		tc := tc
		t.Run("rejects "+tc.name, func(t *testing.T) {
			t.Parallel()
			f := newAuthFixture(signedUp, "correct horse", tokens("id", "token"))
			if tc.setup != nil {
				tc.setup(f)
			}
			_, err := f.svc.Authenticate(ctx, tc.params)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAuthService_RefreshSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("rotates the token and restarts the lifetime", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(signedUp, "", tokens("rotated"))
		f.seed("existing", time.Minute, false)

		result, err := f.svc.RefreshSession(ctx, RefreshSessionParams{Token: " existing ", Fingerprint: "phone"})
		require.NoError(t, err)
		assert.Equal(t, "session-existing", result.Session.ID)
		assert.Equal(t, "rotated", result.Session.Token)
		assert.Equal(t, "phone", result.Session.Fingerprint)
		assert.Equal(t, authNow.Add(time.Hour), result.Session.ExpiresAt)

		_, err = f.sessions.GetSession(ctx, "existing")
		assert.ErrorIs(t, err, ErrNotFound, "the old token must stop working")
	})

	t.Run("keeps token and fingerprint when none are supplied", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(signedUp, "", tokens())
		f.seed("existing", time.Minute, false)

		result, err := f.svc.RefreshSession(ctx, RefreshSessionParams{Token: "existing"})
		require.NoError(t, err)
		assert.Equal(t, "existing", result.Session.Token)
		assert.Equal(t, "laptop", result.Session.Fingerprint)
	})

	failures := []struct {
		name    string
		token   string
		expires time.Duration
		revoked bool
		setup   func(*authFixture)
		want    error
	}{
		{name: "blank token", token: " ", expires: time.Hour, want: ErrInvalidCredentials},
		{name: "unknown token", token: "ghost", expires: time.Hour, want: ErrInvalidCredentials},
		{name: "expired session", token: "existing", expires: -time.Minute, want: ErrSessionExpired},
		{name: "revoked session", token: "existing", expires: time.Hour, revoked: true, want: ErrSessionRevoked},
		{name: "write failure", token: "existing", expires: time.Hour, setup: func(f *authFixture) { f.sessions.updateErr = errStoreDown }, want: errStoreDown},
	}
	for _, tc := range failures {
		tc := tc
		t.Run("rejects "+tc.name, func(t *testing.T) {
			t.Parallel()
			f := newAuthFixture(signedUp, "", tokens("rotated"))
			f.seed("existing", tc.expires, tc.revoked)
			if tc.setup != nil {
				tc.setup(f)
			}
			_, err := f.svc.RefreshSession(ctx, RefreshSessionParams{Token: tc.token})
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAuthService_RevokeSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("marks the session revoked", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(signedUp, "", nil)
		f.seed("token", time.Hour, false)

		require.NoError(t, f.svc.RevokeSession(ctx, "token"))
		stored := f.sessions.sessionsByID["session-token"]
		require.NotNil(t, stored.RevokedAt)
		assert.Equal(t, authNow, *stored.RevokedAt)
		assert.Len(t, f.sessions.deleteCalls, 1)

		_, err := f.svc.ValidateSession(ctx, "token")
		assert.ErrorIs(t, err, ErrSessionRevoked)
	})

	failures := []struct {
		name  string
		token string
		setup func(*authFixture)
		want  error
	}{
		{name: "blank token", token: "  ", want: ErrInvalidCredentials},
		{name: "unknown token", token: "ghost", want: ErrInvalidCredentials},
		{name: "revoke failure", token: "token", setup: func(f *authFixture) { f.sessions.revokeErr = errStoreDown }, want: errStoreDown},
		{name: "prune failure", token: "token", setup: func(f *authFixture) { f.sessions.deleteErr = errStoreDown }, want: errStoreDown},
	}
	for _, tc := range failures {
		tc := tc
		t.Run("reports "+tc.name, func(t *testing.T) {
			t.Parallel()
			f := newAuthFixture(signedUp, "", nil)
			f.seed("token", time.Hour, false)
			if tc.setup != nil {
				tc.setup(f)
			}
			assert.ErrorIs(t, f.svc.RevokeSession(ctx, tc.token), tc.want)
		})
	}
}

func TestAuthService_ValidateSession(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("resolves the principal with its role", func(t *testing.T) {
		t.Parallel()
		manager := signedUp
		manager.Role = RoleManager
		f := newAuthFixture(manager, "", nil)
		f.seed("token", time.Hour, false)

		principal, err := f.svc.ValidateSession(ctx, " token ")
		require.NoError(t, err)
		assert.Equal(t, Principal{UserID: signedUp.ID, Role: RoleManager}, principal)
	})

	failures := []struct {
		name    string
		token   string
		expires time.Duration
		revoked bool
		setup   func(*authFixture)
		want    error
	}{
		{name: "blank token", token: " ", expires: time.Hour, want: ErrInvalidCredentials},
		{name: "unknown token", token: "ghost", expires: time.Hour, want: ErrUnauthorized},
		{name: "expired session", token: "token", expires: -time.Minute, want: ErrSessionExpired},
		{name: "revoked and expired session", token: "token", expires: -time.Minute, revoked: true, want: ErrSessionRevoked},
		{name: "deactivated user", token: "token", expires: time.Hour, setup: func(f *authFixture) { f.creds.credentials.User.IsActive = false }, want: ErrAccountDisabled},
		{name: "deleted user", token: "token", expires: time.Hour, setup: func(f *authFixture) { f.creds.credentials.User.ID = "someone-else" }, want: ErrUnauthorized},
		{name: "session lookup failure", token: "token", expires: time.Hour, setup: func(f *authFixture) { f.sessions.getErr = errStoreDown }, want: errStoreDown},
	}
	for _, tc := range failures {
		tc := tc
		t.Run("rejects "+tc.name, func(t *testing.T) {
			t.Parallel()
			f := newAuthFixture(signedUp, "", nil)
			f.seed("token", tc.expires, tc.revoked)
			if tc.setup != nil {
				tc.setup(f)
			}
			_, err := f.svc.ValidateSession(ctx, tc.token)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestAuthService_RequiresStores(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var nilSvc *AuthService
	_, err := nilSvc.Authenticate(ctx, AuthenticateParams{})
	assert.Error(t, err)

	noSessions := NewAuthService(&credentialStoreStub{}, nil, nil, nil, nil, 0)
	_, err = noSessions.RefreshSession(ctx, RefreshSessionParams{Token: "token"})
	assert.EqualError(t, err, "session repository not configured")
	_, err = noSessions.ValidateSession(ctx, "token")
	assert.EqualError(t, err, "session repository not configured")

	noCredentials := NewAuthService(nil, newSessionRepositoryStub(), nil, nil, nil, 0)
	_, err = noCredentials.Authenticate(ctx, AuthenticateParams{Email: "a@example.com", Password: "x"})
	assert.EqualError(t, err, "credential store not configured")
	assert.Equal(t, defaultSessionTTL, noCredentials.sessionTTL)
}

func TestSessionUsable(t *testing.T) {
	t.Parallel()

	past := authNow.Add(-time.Hour)
	cases := []struct {
		name    string
		session Session
		want    error
	}{
		{"live", Session{ExpiresAt: authNow.Add(time.Minute)}, nil},
		{"no expiry", Session{}, nil},
		{"expires exactly now", Session{ExpiresAt: authNow}, ErrSessionExpired},
		{"revoked", Session{ExpiresAt: authNow.Add(time.Hour), RevokedAt: &past}, ErrSessionRevoked},
		{"revoked wins over expired", Session{ExpiresAt: past, RevokedAt: &past}, ErrSessionRevoked},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.session.usable(authNow)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

type credentialStoreStub struct {
	credentials UserCredentials
	err         error
}

func (c *credentialStoreStub) GetUserCredentialsByEmail(_ context.Context, email string) (UserCredentials, error) {
	if c.err != nil {
		return UserCredentials{}, c.err
	}
	if c.credentials.User.ID == "" || c.credentials.User.Email != email {
		return UserCredentials{}, ErrNotFound
	}
	return c.credentials, nil
}

func (c *credentialStoreStub) GetUser(_ context.Context, id string) (User, error) {
	if c.err != nil {
		return User{}, c.err
	}
	if c.credentials.User.ID != id {
		return User{}, ErrNotFound
	}
	return c.credentials.User, nil
}

// sessionRepositoryStub keeps sessions in memory, indexed by id and token.
type sessionRepositoryStub struct {
	sessionsByID map[string]Session
	tokenToID    map[string]string

	createErr, getErr, updateErr, revokeErr, deleteErr error

	deleteCalls []time.Time
}

func newSessionRepositoryStub() *sessionRepositoryStub {
	return &sessionRepositoryStub{sessionsByID: map[string]Session{}, tokenToID: map[string]string{}}
}

func (s *sessionRepositoryStub) seed(session Session) {
	s.sessionsByID[session.ID] = session
	s.tokenToID[session.Token] = session.ID
}

func (s *sessionRepositoryStub) CreateSession(_ context.Context, session Session) (Session, error) {
	if s.createErr != nil {
		return Session{}, s.createErr
	}
	s.seed(session)
	return session, nil
}

func (s *sessionRepositoryStub) GetSession(_ context.Context, token string) (Session, error) {
	if s.getErr != nil {
		return Session{}, s.getErr
	}
	id, ok := s.tokenToID[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	return s.sessionsByID[id], nil
}

func (s *sessionRepositoryStub) UpdateSession(_ context.Context, session Session) (Session, error) {
	if s.updateErr != nil {
		return Session{}, s.updateErr
	}
	current, ok := s.sessionsByID[session.ID]
	if !ok {
		return Session{}, ErrNotFound
	}
	delete(s.tokenToID, current.Token)
	s.seed(session)
	return session, nil
}

func (s *sessionRepositoryStub) RevokeSession(_ context.Context, token string, revokedAt time.Time) (Session, error) {
	if s.revokeErr != nil {
		return Session{}, s.revokeErr
	}
	id, ok := s.tokenToID[token]
	if !ok {
		return Session{}, ErrNotFound
	}
	session := s.sessionsByID[id]
	session.RevokedAt = &revokedAt
	session.UpdatedAt = revokedAt
	s.sessionsByID[id] = session
	return session, nil
}

func (s *sessionRepositoryStub) DeleteExpiredSessions(_ context.Context, reference time.Time) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleteCalls = append(s.deleteCalls, reference)
	for id, session := range s.sessionsByID {
		if !session.ExpiresAt.IsZero() && !session.ExpiresAt.After(reference) {
			delete(s.sessionsByID, id)
			delete(s.tokenToID, session.Token)
		}
	}
	return nil
}
