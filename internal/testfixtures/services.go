package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/dropplan/internal/application"
	"github.com/example/dropplan/internal/persistence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Logger      *slog.Logger
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
	}
	for _, opt := range opts {
		opt(factory)
	}
	if factory.Clock == nil {
		factory.Clock = NewClock(time.Time{})
	}
	if factory.IDGenerator == nil {
		factory.IDGenerator = NewIDGenerator("id")
	}
	return factory
}

// WithClock overrides the clock used by the factory.
func WithClock(clock *Clock) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Clock = clock
	}
}

// WithIDGenerator overrides the identifier generator used by the factory.
func WithIDGenerator(generator *IDGenerator) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.IDGenerator = generator
	}
}

// WithLogger sets the logger handed to every service.
func WithLogger(logger *slog.Logger) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Logger = logger
	}
}

// NewUserService builds a user service over tx. Passwords are "hashed" by
// prefixing them so tests stay fast.
func (f *ServiceFactory) NewUserService(tx persistence.Transactor, opts ...application.UserServiceOption) *application.UserService {
	opts = append([]application.UserServiceOption{application.WithPasswordHasher(PlainHasher)}, opts...)
	return application.NewUserService(tx, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger, opts...)
}

// NewProjectService builds a project service over tx.
func (f *ServiceFactory) NewProjectService(tx persistence.Transactor) *application.ProjectService {
	return application.NewProjectService(tx, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewIterationService builds an iteration service over tx.
func (f *ServiceFactory) NewIterationService(tx persistence.Transactor) *application.IterationService {
	return application.NewIterationService(tx, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewWorkItemService builds a work item service over tx.
func (f *ServiceFactory) NewWorkItemService(tx persistence.Transactor) *application.WorkItemService {
	return application.NewWorkItemService(tx, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewWorkSessionService builds a work session service over tx.
func (f *ServiceFactory) NewWorkSessionService(tx persistence.Transactor) *application.WorkSessionService {
	return application.NewWorkSessionService(tx, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// NewDropPlanService builds a drop plan service over tx.
func (f *ServiceFactory) NewDropPlanService(tx persistence.Transactor, opts ...application.DropPlanServiceOption) *application.DropPlanService {
	return application.NewDropPlanService(tx, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger, opts...)
}

// NewCalendarService builds a calendar service over tx.
func (f *ServiceFactory) NewCalendarService(tx persistence.Transactor) *application.CalendarService {
	return application.NewCalendarService(tx, f.IDGenerator.NextFunc(), f.Clock.NowFunc(), f.Logger)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials    application.CredentialStore
	Sessions       application.SessionRepository
	PasswordVerify application.PasswordVerifier
	TokenGenerator func() string
	Now            func() time.Time
	SessionTTL     time.Duration
	Logger         *slog.Logger
}

// NewAuthService builds an auth service using the supplied dependencies.
func (f *ServiceFactory) NewAuthService(deps AuthServiceDeps) *application.AuthService {
	token := deps.TokenGenerator
	if token == nil {
		token = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	logger := deps.Logger
	if logger == nil {
		logger = f.Logger
	}
	return application.NewAuthServiceWithLogger(
		deps.Credentials,
		deps.Sessions,
		deps.PasswordVerify,
		token,
		now,
		deps.SessionTTL,
		logger,
	)
}

// NewStoreAuthService builds an auth service whose credentials and sessions
// live in tx. Passwords are checked with PlainVerifier.
func (f *ServiceFactory) NewStoreAuthService(tx persistence.Transactor, ttl time.Duration) *application.AuthService {
	return f.NewAuthService(AuthServiceDeps{
		Credentials:    application.NewStoreCredentials(tx),
		Sessions:       application.NewStoreSessions(tx),
		PasswordVerify: PlainVerifier,
		SessionTTL:     ttl,
	})
}

// PlainHasher stores passwords as "plain:<password>".
func PlainHasher(password string) (string, error) {
	return "plain:" + password, nil
}

// PlainVerifier checks passwords stored by PlainHasher.
func PlainVerifier(hash, password string) error {
	if hash != "plain:"+password {
		return application.ErrInvalidCredentials
	}
	return nil
}
