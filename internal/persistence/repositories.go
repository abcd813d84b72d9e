package persistence

import (
	"context"
	"time"
)

// UserRepository exposes CRUD operations for user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	UpdateUser(ctx context.Context, user User) error
	DeleteUser(ctx context.Context, id string) error
}

// ContactRepository exposes CRUD operations for contacts.
type ContactRepository interface {
	CreateContact(ctx context.Context, contact Contact) error
	GetContact(ctx context.Context, id string) (Contact, error)
	UpdateContact(ctx context.Context, contact Contact) error
	DeleteContact(ctx context.Context, id string) error
	ListContacts(ctx context.Context, userID string) ([]Contact, error)
}

// EventFilter narrows event queries. The occurrence bounds form a half-open
// interval [OccursFrom, OccursBefore) over the cached next occurrence.
type EventFilter struct {
	UserID       string
	ContactID    string
	OccursFrom   *time.Time
	OccursBefore *time.Time
}

// EventRepository stores recurring events and their derived occurrence state.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) error
	GetEvent(ctx context.Context, id string) (Event, error)
	UpdateEvent(ctx context.Context, event Event) error
	DeleteEvent(ctx context.Context, id string) error
	DeleteEventsForContact(ctx context.Context, contactID string) error
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
}

// TemplateRepository stores greeting templates.
type TemplateRepository interface {
	CreateTemplate(ctx context.Context, template Template) error
	GetTemplate(ctx context.Context, id string) (Template, error)
	DeleteTemplate(ctx context.Context, id string) error
	// ListTemplates returns system templates plus templates owned by ownerID.
	ListTemplates(ctx context.Context, ownerID string) ([]Template, error)
	// UpsertSystemTemplate installs or refreshes a system template keyed on
	// its title. Used by the startup seed.
	UpsertSystemTemplate(ctx context.Context, template Template) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	UpdateSession(ctx context.Context, session Session) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}
