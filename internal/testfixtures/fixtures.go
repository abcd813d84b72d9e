package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/relationship-reminder/internal/application"
	"github.com/example/relationship-reminder/internal/persistence"
)

var (
	userCounter     uint64
	contactCounter  uint64
	eventCounter    uint64
	templateCounter uint64
	sessionCounter  uint64
)

var referenceTime = time.Date(2025, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic user record that can be materialised
// for application or persistence tests.
type UserFixture struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic user fixture with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := UserFixture{
		ID:           id,
		Email:        fmt.Sprintf("%s@example.com", id),
		Name:         fmt.Sprintf("User %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
	}
}

// WithUserEmail overrides the generated email address.
func WithUserEmail(email string) UserOption {
	return func(f *UserFixture) {
		f.Email = email
	}
}

// WithUserName overrides the generated display name.
func WithUserName(name string) UserOption {
	return func(f *UserFixture) {
		f.Name = name
	}
}

// WithUserPasswordHash overrides the generated password hash.
func WithUserPasswordHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.PasswordHash = hash
	}
}

// WithUserTimestamps sets both created and updated timestamps on the fixture.
func WithUserTimestamps(created, updated time.Time) UserOption {
	return func(f *UserFixture) {
		f.CreatedAt = created
		f.UpdatedAt = updated
	}
}

// Application returns the fixture as an application.User value.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:        f.ID,
		Email:     f.Email,
		Name:      f.Name,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Credentials returns the fixture as application.UserCredentials.
func (f UserFixture) Credentials() application.UserCredentials {
	return application.UserCredentials{
		User:         f.Application(),
		PasswordHash: f.PasswordHash,
	}
}

// Principal returns an application.Principal derived from the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID}
}

// Persistence returns the fixture as a persistence.User value.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:           f.ID,
		Email:        f.Email,
		Name:         f.Name,
		PasswordHash: f.PasswordHash,
		CreatedAt:    f.CreatedAt,
		UpdatedAt:    f.UpdatedAt,
	}
}

// ---------------------------- Contact fixtures ----------------------------

// ContactFixture represents a deterministic contact record.
type ContactFixture struct {
	ID        string
	UserID    string
	Name      string
	Phone     string
	Relation  application.Relation
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ContactOption configures the generated contact fixture.
type ContactOption func(*ContactFixture)

// NewContactFixture returns a deterministic contact fixture with optional overrides.
func NewContactFixture(opts ...ContactOption) ContactFixture {
	idx := atomic.AddUint64(&contactCounter, 1)
	id := fmt.Sprintf("contact-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	fixture := ContactFixture{
		ID:        id,
		UserID:    "user-001",
		Name:      fmt.Sprintf("Contact %03d", idx),
		Phone:     fmt.Sprintf("+1 555 010%04d", idx),
		Relation:  application.RelationFriend,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithContactID overrides the generated contact ID.
func WithContactID(id string) ContactOption {
	return func(f *ContactFixture) {
		f.ID = id
	}
}

// WithContactUserID sets the owning user.
func WithContactUserID(userID string) ContactOption {
	return func(f *ContactFixture) {
		f.UserID = userID
	}
}

// WithContactName overrides the generated name.
func WithContactName(name string) ContactOption {
	return func(f *ContactFixture) {
		f.Name = name
	}
}

// WithContactPhone overrides the generated phone number.
func WithContactPhone(phone string) ContactOption {
	return func(f *ContactFixture) {
		f.Phone = phone
	}
}

// WithContactRelation overrides the generated relation.
func WithContactRelation(relation application.Relation) ContactOption {
	return func(f *ContactFixture) {
		f.Relation = relation
	}
}

// WithContactNotes sets free-form notes on the fixture.
func WithContactNotes(notes string) ContactOption {
	return func(f *ContactFixture) {
		f.Notes = notes
	}
}

// Application returns the fixture as an application.Contact value.
func (f ContactFixture) Application() application.Contact {
	return application.Contact{
		ID:        f.ID,
		UserID:    f.UserID,
		Name:      f.Name,
		Phone:     f.Phone,
		Relation:  f.Relation,
		Notes:     f.Notes,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Contact value.
func (f ContactFixture) Persistence() persistence.Contact {
	return persistence.Contact{
		ID:        f.ID,
		UserID:    f.UserID,
		Name:      f.Name,
		Phone:     f.Phone,
		Relation:  string(f.Relation),
		Notes:     f.Notes,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as an application.ContactInput.
func (f ContactFixture) Input() application.ContactInput {
	return application.ContactInput{
		Name:     f.Name,
		Phone:    f.Phone,
		Relation: f.Relation,
		Notes:    f.Notes,
	}
}

// ----------------------------- Event fixtures -----------------------------

// EventFixture represents a deterministic event record with its derived
// recurrence fields already populated.
type EventFixture struct {
	ID             string
	UserID         string
	ContactID      string
	Title          string
	Type           application.EventType
	OriginalDate   time.Time
	Notes          string
	RecurringMonth time.Month
	RecurringDay   int
	NextOccurrence time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns a deterministic event fixture with optional overrides.
// The recurrence fields derive from the original date; overriding the date via
// WithEventOriginalDate keeps them consistent.
func NewEventFixture(opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	id := fmt.Sprintf("event-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Hour)
	original := time.Date(1990, time.June, 15, 0, 0, 0, 0, time.UTC)
	fixture := EventFixture{
		ID:             id,
		UserID:         "user-001",
		ContactID:      "contact-001",
		Title:          fmt.Sprintf("Event %03d", idx),
		Type:           application.EventTypeBirthday,
		OriginalDate:   original,
		RecurringMonth: original.Month(),
		RecurringDay:   original.Day(),
		NextOccurrence: time.Date(referenceTime.Year(), original.Month(), original.Day(), 0, 0, 0, 0, time.UTC),
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventID overrides the generated event ID.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) {
		f.ID = id
	}
}

// WithEventUserID sets the owning user.
func WithEventUserID(userID string) EventOption {
	return func(f *EventFixture) {
		f.UserID = userID
	}
}

// WithEventContactID sets the linked contact.
func WithEventContactID(contactID string) EventOption {
	return func(f *EventFixture) {
		f.ContactID = contactID
	}
}

// WithEventTitle overrides the generated title.
func WithEventTitle(title string) EventOption {
	return func(f *EventFixture) {
		f.Title = title
	}
}

// WithEventType overrides the event type.
func WithEventType(eventType application.EventType) EventOption {
	return func(f *EventFixture) {
		f.Type = eventType
	}
}

// WithEventOriginalDate sets the original date and rederives the recurring
// month and day from it.
func WithEventOriginalDate(date time.Time) EventOption {
	return func(f *EventFixture) {
		f.OriginalDate = date
		f.RecurringMonth = date.Month()
		f.RecurringDay = date.Day()
	}
}

// WithEventNextOccurrence overrides the cached next occurrence.
func WithEventNextOccurrence(date time.Time) EventOption {
	return func(f *EventFixture) {
		f.NextOccurrence = date
	}
}

// WithEventNotes sets free-form notes on the fixture.
func WithEventNotes(notes string) EventOption {
	return func(f *EventFixture) {
		f.Notes = notes
	}
}

// Application returns the fixture as an application.Event value.
func (f EventFixture) Application() application.Event {
	return application.Event{
		ID:             f.ID,
		UserID:         f.UserID,
		ContactID:      f.ContactID,
		Title:          f.Title,
		Type:           f.Type,
		OriginalDate:   f.OriginalDate,
		Notes:          f.Notes,
		RecurringMonth: f.RecurringMonth,
		RecurringDay:   f.RecurringDay,
		NextOccurrence: f.NextOccurrence,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Event value.
func (f EventFixture) Persistence() persistence.Event {
	return persistence.Event{
		ID:             f.ID,
		UserID:         f.UserID,
		ContactID:      f.ContactID,
		Title:          f.Title,
		Type:           string(f.Type),
		OriginalDate:   f.OriginalDate,
		Notes:          f.Notes,
		RecurringMonth: int(f.RecurringMonth),
		RecurringDay:   f.RecurringDay,
		NextOccurrence: f.NextOccurrence,
		CreatedAt:      f.CreatedAt,
		UpdatedAt:      f.UpdatedAt,
	}
}

// Input returns the fixture as an application.EventInput.
func (f EventFixture) Input() application.EventInput {
	return application.EventInput{
		ContactID:    f.ContactID,
		Title:        f.Title,
		Type:         f.Type,
		OriginalDate: f.OriginalDate,
		Notes:        f.Notes,
	}
}

// --------------------------- Template fixtures ----------------------------

// TemplateFixture represents a deterministic greeting template record.
type TemplateFixture struct {
	ID        string
	OwnerID   *string
	Title     string
	Body      string
	Category  application.TemplateCategory
	EventType string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TemplateOption configures the generated template fixture.
type TemplateOption func(*TemplateFixture)

// NewTemplateFixture returns a deterministic template fixture with optional
// overrides. The fixture is a system template unless an owner is set.
func NewTemplateFixture(opts ...TemplateOption) TemplateFixture {
	idx := atomic.AddUint64(&templateCounter, 1)
	id := fmt.Sprintf("template-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	fixture := TemplateFixture{
		ID:        id,
		Title:     fmt.Sprintf("Template %03d", idx),
		Body:      "Happy birthday, {{name}}! Wishing you a wonderful day.",
		Category:  application.TemplateCategoryGeneral,
		EventType: application.TemplateEventTypeAll,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithTemplateID overrides the generated template ID.
func WithTemplateID(id string) TemplateOption {
	return func(f *TemplateFixture) {
		f.ID = id
	}
}

// WithTemplateOwner marks the template as a custom template owned by the user.
func WithTemplateOwner(userID string) TemplateOption {
	return func(f *TemplateFixture) {
		f.OwnerID = &userID
	}
}

// WithTemplateTitle overrides the generated title.
func WithTemplateTitle(title string) TemplateOption {
	return func(f *TemplateFixture) {
		f.Title = title
	}
}

// WithTemplateBody overrides the generated body.
func WithTemplateBody(body string) TemplateOption {
	return func(f *TemplateFixture) {
		f.Body = body
	}
}

// WithTemplateCategory overrides the generated category.
func WithTemplateCategory(category application.TemplateCategory) TemplateOption {
	return func(f *TemplateFixture) {
		f.Category = category
	}
}

// WithTemplateEventType overrides the event type the template applies to.
func WithTemplateEventType(eventType string) TemplateOption {
	return func(f *TemplateFixture) {
		f.EventType = eventType
	}
}

// Application returns the fixture as an application.Template value.
func (f TemplateFixture) Application() application.Template {
	return application.Template{
		ID:        f.ID,
		OwnerID:   f.OwnerID,
		Title:     f.Title,
		Body:      f.Body,
		Category:  f.Category,
		EventType: f.EventType,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Persistence returns the fixture as a persistence.Template value.
func (f TemplateFixture) Persistence() persistence.Template {
	return persistence.Template{
		ID:        f.ID,
		OwnerID:   f.OwnerID,
		Title:     f.Title,
		Body:      f.Body,
		Category:  string(f.Category),
		EventType: f.EventType,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
	}
}

// Input returns the fixture as an application.TemplateInput.
func (f TemplateFixture) Input() application.TemplateInput {
	return application.TemplateInput{
		Title:     f.Title,
		Body:      f.Body,
		Category:  f.Category,
		EventType: f.EventType,
	}
}

// ---------------------------- Session fixtures ----------------------------

// SessionFixture represents a deterministic session record.
type SessionFixture struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// SessionOption configures the generated session fixture.
type SessionOption func(*SessionFixture)

// NewSessionFixture returns a deterministic session fixture with optional overrides.
func NewSessionFixture(opts ...SessionOption) SessionFixture {
	idx := atomic.AddUint64(&sessionCounter, 1)
	id := fmt.Sprintf("session-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Second)
	fixture := SessionFixture{
		ID:        id,
		UserID:    "user-001",
		Token:     fmt.Sprintf("token-%03d", idx),
		ExpiresAt: created.Add(24 * time.Hour),
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithSessionID overrides the generated session ID.
func WithSessionID(id string) SessionOption {
	return func(f *SessionFixture) {
		f.ID = id
	}
}

// WithSessionUserID sets the owning user.
func WithSessionUserID(userID string) SessionOption {
	return func(f *SessionFixture) {
		f.UserID = userID
	}
}

// WithSessionToken overrides the generated token.
func WithSessionToken(token string) SessionOption {
	return func(f *SessionFixture) {
		f.Token = token
	}
}

// WithSessionExpiresAt overrides the expiry timestamp.
func WithSessionExpiresAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.ExpiresAt = t
	}
}

// WithSessionRevokedAt marks the session as revoked at the given time.
func WithSessionRevokedAt(t time.Time) SessionOption {
	return func(f *SessionFixture) {
		f.RevokedAt = &t
	}
}

// Application returns the fixture as an application.Session value.
func (f SessionFixture) Application() application.Session {
	return application.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: f.RevokedAt,
	}
}

// Persistence returns the fixture as a persistence.Session value.
func (f SessionFixture) Persistence() persistence.Session {
	return persistence.Session{
		ID:        f.ID,
		UserID:    f.UserID,
		Token:     f.Token,
		ExpiresAt: f.ExpiresAt,
		CreatedAt: f.CreatedAt,
		UpdatedAt: f.UpdatedAt,
		RevokedAt: f.RevokedAt,
	}
}
