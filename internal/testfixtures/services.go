package testfixtures

import (
	"log/slog"
	"time"

	"github.com/example/relationship-reminder/internal/application"
	"github.com/example/relationship-reminder/internal/recurrence"
)

// ServiceFactory assists tests with constructing application services using
// deterministic identifiers and clocks.
type ServiceFactory struct {
	Clock       *Clock
	IDGenerator *IDGenerator
	Engine      *recurrence.Engine
}

// ServiceFactoryOption configures a ServiceFactory instance.
type ServiceFactoryOption func(*ServiceFactory)

// NewServiceFactory constructs a ServiceFactory with defaults.
func NewServiceFactory(opts ...ServiceFactoryOption) *ServiceFactory {
	factory := &ServiceFactory{
		Clock:       NewClock(time.Time{}),
		IDGenerator: NewIDGenerator("id"),
		Engine:      recurrence.NewEngine(time.UTC),
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
	if factory.Engine == nil {
		factory.Engine = recurrence.NewEngine(time.UTC)
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

// WithEngine overrides the recurrence engine used by the factory.
func WithEngine(engine *recurrence.Engine) ServiceFactoryOption {
	return func(factory *ServiceFactory) {
		factory.Engine = engine
	}
}

// ContactServiceDeps captures dependencies for constructing a contact service.
type ContactServiceDeps struct {
	Contacts    application.ContactRepository
	Events      application.ContactEventStore
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewContactService builds a contact service using the supplied dependencies
// combined with the factory defaults.
func (f *ServiceFactory) NewContactService(deps ContactServiceDeps) *application.ContactService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewContactServiceWithLogger(
		deps.Contacts,
		deps.Events,
		idGen,
		now,
		deps.Logger,
	)
}

// EventServiceDeps captures dependencies for constructing an event service.
type EventServiceDeps struct {
	Events      application.EventRepository
	Contacts    application.EventContactDirectory
	Engine      *recurrence.Engine
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewEventService builds an event service using the supplied dependencies.
func (f *ServiceFactory) NewEventService(deps EventServiceDeps) *application.EventService {
	engine := deps.Engine
	if engine == nil {
		engine = f.Engine
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewEventServiceWithLogger(
		deps.Events,
		deps.Contacts,
		engine,
		idGen,
		now,
		deps.Logger,
	)
}

// TemplateServiceDeps captures dependencies for constructing a template service.
type TemplateServiceDeps struct {
	Templates   application.TemplateRepository
	IDGenerator func() string
	Now         func() time.Time
	Logger      *slog.Logger
}

// NewTemplateService builds a template service using the supplied dependencies.
func (f *ServiceFactory) NewTemplateService(deps TemplateServiceDeps) *application.TemplateService {
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = f.IDGenerator.NextFunc()
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewTemplateServiceWithLogger(
		deps.Templates,
		idGen,
		now,
		deps.Logger,
	)
}

// WishServiceDeps captures dependencies for constructing a wish service.
type WishServiceDeps struct {
	Events    application.WishEventStore
	Contacts  application.WishContactStore
	Templates application.WishTemplateStore
	Engine    *recurrence.Engine
	Now       func() time.Time
	Logger    *slog.Logger
}

// NewWishService builds a wish service using the supplied dependencies.
func (f *ServiceFactory) NewWishService(deps WishServiceDeps) *application.WishService {
	engine := deps.Engine
	if engine == nil {
		engine = f.Engine
	}
	now := deps.Now
	if now == nil {
		now = f.Clock.NowFunc()
	}
	return application.NewWishServiceWithLogger(
		deps.Events,
		deps.Contacts,
		deps.Templates,
		engine,
		now,
		deps.Logger,
	)
}

// AuthServiceDeps captures dependencies for constructing an auth service.
type AuthServiceDeps struct {
	Credentials    application.CredentialStore
	Sessions       application.SessionRepository
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
	return application.NewAuthServiceWithLogger(
		deps.Credentials,
		deps.Sessions,
		token,
		now,
		deps.SessionTTL,
		deps.Logger,
	)
}
