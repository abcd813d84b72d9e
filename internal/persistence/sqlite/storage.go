package sqlite

import (
	"context"
	"time"
)

// Storage bundles the connection pool with the per-entity repositories and
// the startup chores (migration, seeding) a caller runs before serving.
type Storage struct {
	pool      *ConnectionPool
	users     *UserRepository
	contacts  *ContactRepository
	events    *EventRepository
	templates *TemplateRepository
	sessions  *SessionRepository
}

// Open connects to the database and wires the repositories. The schema is
// not touched; call Migrate before first use.
func Open(config Config) (*Storage, error) {
	pool, err := NewConnectionPool(config)
	if err != nil {
		return nil, err
	}

	return &Storage{
		pool:      pool,
		users:     NewUserRepository(pool),
		contacts:  NewContactRepository(pool),
		events:    NewEventRepository(pool),
		templates: NewTemplateRepository(pool),
		sessions:  NewSessionRepository(pool),
	}, nil
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	return s.pool.Close()
}

// Ping tests the database connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate brings the schema up to the latest version.
func (s *Storage) Migrate(ctx context.Context) error {
	return Migrate(ctx, s.pool)
}

// Seed installs the built-in system templates.
func (s *Storage) Seed(ctx context.Context, idGenerator func() string, now func() time.Time) error {
	return SeedSystemTemplates(ctx, s.templates, idGenerator, now)
}

// Pool exposes the connection pool for callers that need raw access.
func (s *Storage) Pool() *ConnectionPool { return s.pool }

// Users returns the user repository.
func (s *Storage) Users() *UserRepository { return s.users }

// Contacts returns the contact repository.
func (s *Storage) Contacts() *ContactRepository { return s.contacts }

// Events returns the event repository.
func (s *Storage) Events() *EventRepository { return s.events }

// Templates returns the template repository.
func (s *Storage) Templates() *TemplateRepository { return s.templates }

// Sessions returns the session repository.
func (s *Storage) Sessions() *SessionRepository { return s.sessions }
