package persistence

import "time"

// User represents a registered account together with its credential hash.
type User struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Contact represents a person an account keeps reminders for.
type Contact struct {
	ID        string
	UserID    string
	Name      string
	Phone     string
	Relation  string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Event represents an annually recurring occasion stored in persistence.
// RecurringMonth and RecurringDay mirror OriginalDate's calendar components;
// NextOccurrence caches the date the event falls due next.
type Event struct {
	ID             string
	UserID         string
	ContactID      string
	Title          string
	Type           string
	OriginalDate   time.Time
	Notes          string
	RecurringMonth int
	RecurringDay   int
	NextOccurrence time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Template represents a greeting message template. A nil OwnerID marks a
// shared system template.
type Template struct {
	ID        string
	OwnerID   *string
	Title     string
	Body      string
	Category  string
	EventType string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}
