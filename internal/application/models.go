package application

import "time"

// Principal represents the authenticated user invoking a service method.
// Every resource in the system is owned by exactly one user; services use
// the principal's user ID for ownership checks.
type Principal struct {
	UserID string
}

// Relation classifies how a contact relates to the account owner.
type Relation string

const (
	RelationGirlfriend Relation = "girlfriend"
	RelationBoyfriend  Relation = "boyfriend"
	RelationFriend     Relation = "friend"
	RelationFamily     Relation = "family"
	RelationColleague  Relation = "colleague"
	RelationOther      Relation = "other"
)

// ValidRelations enumerates the accepted contact relation values.
var ValidRelations = map[Relation]struct{}{
	RelationGirlfriend: {},
	RelationBoyfriend:  {},
	RelationFriend:     {},
	RelationFamily:     {},
	RelationColleague:  {},
	RelationOther:      {},
}

// EventType classifies the annually recurring occasion an event tracks.
type EventType string

const (
	EventTypeBirthday    EventType = "birthday"
	EventTypeAnniversary EventType = "anniversary"
	EventTypePetBirthday EventType = "pet_birthday"
	EventTypeOther       EventType = "other"
)

// ValidEventTypes enumerates the accepted event type values.
var ValidEventTypes = map[EventType]struct{}{
	EventTypeBirthday:    {},
	EventTypeAnniversary: {},
	EventTypePetBirthday: {},
	EventTypeOther:       {},
}

// TemplateCategory groups message templates by tone or target relation.
type TemplateCategory string

const (
	TemplateCategoryGirlfriend TemplateCategory = "girlfriend"
	TemplateCategoryBoyfriend  TemplateCategory = "boyfriend"
	TemplateCategoryFriend     TemplateCategory = "friend"
	TemplateCategoryFamily     TemplateCategory = "family"
	TemplateCategoryColleague  TemplateCategory = "colleague"
	TemplateCategoryFunny      TemplateCategory = "funny"
	TemplateCategoryFormal     TemplateCategory = "formal"
	TemplateCategoryGeneral    TemplateCategory = "general"
)

// ValidTemplateCategories enumerates the accepted template categories.
var ValidTemplateCategories = map[TemplateCategory]struct{}{
	TemplateCategoryGirlfriend: {},
	TemplateCategoryBoyfriend:  {},
	TemplateCategoryFriend:     {},
	TemplateCategoryFamily:     {},
	TemplateCategoryColleague:  {},
	TemplateCategoryFunny:      {},
	TemplateCategoryFormal:     {},
	TemplateCategoryGeneral:    {},
}

// TemplateEventTypeAll marks a template as applicable to every event type.
const TemplateEventTypeAll = "all"

// User represents a registered account exposed by the application services.
type User struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         User
	PasswordHash string
}

// Session represents an authenticated session issued to a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// RegisterParams captures the data required to create an account.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
}

// RegisterResult captures the outcome of a successful registration. A fresh
// session is issued so the caller is signed in immediately.
type RegisterResult struct {
	User    User
	Session Session
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    User
	Session Session
}

// RefreshSessionParams captures the data required to refresh an existing session.
type RefreshSessionParams struct {
	Token string
}

// RefreshSessionResult captures the outcome of rotating a session token.
type RefreshSessionResult struct {
	Session Session
}

// ContactInput captures caller provided contact fields.
type ContactInput struct {
	Name     string
	Phone    string
	Relation Relation
	Notes    string
}

// Contact represents a person the account owner keeps reminders for.
type Contact struct {
	ID        string
	UserID    string
	Name      string
	Phone     string
	Relation  Relation
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreateContactParams wraps the data required to create a contact.
type CreateContactParams struct {
	Principal Principal
	Input     ContactInput
}

// UpdateContactParams wraps the data required to update an existing contact.
type UpdateContactParams struct {
	Principal Principal
	ContactID string
	Input     ContactInput
}

// ContactDetail bundles a contact with its events ordered by next occurrence.
type ContactDetail struct {
	Contact Contact
	Events  []Event
}

// EventInput captures caller provided event fields.
type EventInput struct {
	ContactID    string
	Title        string
	Type         EventType
	OriginalDate time.Time
	Notes        string
}

// Event represents an annually recurring occasion linked to a contact.
//
// RecurringMonth, RecurringDay, and NextOccurrence are derived from
// OriginalDate by the event service; they are never settable by callers.
type Event struct {
	ID             string
	UserID         string
	ContactID      string
	Title          string
	Type           EventType
	OriginalDate   time.Time
	Notes          string
	RecurringMonth time.Month
	RecurringDay   int
	NextOccurrence time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// CreateEventParams wraps the data required to create an event.
type CreateEventParams struct {
	Principal Principal
	Input     EventInput
}

// UpdateEventParams wraps the data required to update an existing event.
type UpdateEventParams struct {
	Principal Principal
	EventID   string
	Input     EventInput
}

// EventView pairs an event with its resolved contact and the number of whole
// days remaining until its next occurrence.
type EventView struct {
	Event     Event
	Contact   Contact
	DaysUntil int
}

// TemplateInput captures caller provided template fields.
type TemplateInput struct {
	Title     string
	Body      string
	Category  TemplateCategory
	EventType string
}

// Template represents a reusable greeting message. System templates have a
// nil OwnerID and are visible to everyone; custom templates belong to the
// user who created them.
type Template struct {
	ID        string
	OwnerID   *string
	Title     string
	Body      string
	Category  TemplateCategory
	EventType string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsSystem reports whether the template is a built-in shared template.
func (t Template) IsSystem() bool {
	return t.OwnerID == nil
}

// CreateTemplateParams wraps the data required to create a custom template.
type CreateTemplateParams struct {
	Principal Principal
	Input     TemplateInput
}

// ListTemplatesParams narrows template listings by category and event type.
type ListTemplatesParams struct {
	Principal Principal
	Category  TemplateCategory
	EventType string
}

// GenerateWishParams wraps the data required to render a greeting message.
type GenerateWishParams struct {
	Principal  Principal
	EventID    string
	TemplateID string
}

// WishResult captures a rendered greeting together with the delivery details
// the caller needs to send it manually.
type WishResult struct {
	Message      string
	ContactName  string
	ContactPhone string
	EventTitle   string
	EventType    EventType
	Occurrence   time.Time
	TemplateID   string
	TemplateName string
}
