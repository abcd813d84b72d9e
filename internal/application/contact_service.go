package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/example/relationship-reminder/internal/persistence"
)

// ContactRepository captures the persistence operations needed by the service.
type ContactRepository interface {
	CreateContact(ctx context.Context, contact Contact) (Contact, error)
	GetContact(ctx context.Context, id string) (Contact, error)
	UpdateContact(ctx context.Context, contact Contact) (Contact, error)
	DeleteContact(ctx context.Context, id string) error
	ListContacts(ctx context.Context, userID string) ([]Contact, error)
}

// ContactEventStore exposes the event operations the contact service needs
// for detail views and for cascading deletes.
type ContactEventStore interface {
	ListEventsForContact(ctx context.Context, contactID string) ([]Event, error)
	DeleteEventsForContact(ctx context.Context, contactID string) error
}

var phonePattern = regexp.MustCompile(`^\+?[\d\s\-()]+$`)

// ContactService orchestrates validation, authorization, and persistence for contacts.
type ContactService struct {
	contacts    ContactRepository
	events      ContactEventStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewContactService constructs a contact service with the provided dependencies.
func NewContactService(contacts ContactRepository, events ContactEventStore, idGenerator func() string, now func() time.Time) *ContactService {
	return NewContactServiceWithLogger(contacts, events, idGenerator, now, nil)
}

// NewContactServiceWithLogger constructs a contact service with a specified logger.
func NewContactServiceWithLogger(contacts ContactRepository, events ContactEventStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ContactService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ContactService{contacts: contacts, events: events, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *ContactService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ContactService", operation, attrs...)
}

// CreateContact validates input and persists a new contact for the principal.
func (s *ContactService) CreateContact(ctx context.Context, params CreateContactParams) (contact Contact, err error) {
	if s == nil {
		err = fmt.Errorf("ContactService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateContact",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create contact", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("contact_id", contact.ID).InfoContext(ctx, "contact created")
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	normalized := normalizeContactInput(params.Input)
	vErr := validateContactInput(normalized)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	contact = Contact{
		ID:        s.idGenerator(),
		UserID:    params.Principal.UserID,
		Name:      normalized.Name,
		Phone:     normalized.Phone,
		Relation:  normalized.Relation,
		Notes:     normalized.Notes,
		CreatedAt: s.now(),
	}
	contact.UpdatedAt = contact.CreatedAt

	if s.contacts == nil {
		return
	}

	var persisted Contact
	persisted, err = s.contacts.CreateContact(ctx, contact)
	if err != nil {
		err = mapContactRepoError(err)
		return
	}

	contact = persisted
	return
}

// GetContact returns a contact owned by the principal together with its
// events ordered by next occurrence.
func (s *ContactService) GetContact(ctx context.Context, principal Principal, contactID string) (detail ContactDetail, err error) {
	if s == nil {
		err = fmt.Errorf("ContactService is nil")
		return
	}
	if s.contacts == nil {
		err = fmt.Errorf("contact repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "GetContact",
		"principal_id", principal.UserID,
		"contact_id", contactID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to get contact", "error", err, "error_kind", ErrorKind(err))
		}
	}()

	var contact Contact
	contact, err = s.contacts.GetContact(ctx, contactID)
	if err != nil {
		err = mapContactRepoError(err)
		return
	}
	if contact.UserID != principal.UserID {
		err = ErrUnauthorized
		return
	}

	detail = ContactDetail{Contact: contact}

	if s.events == nil {
		return
	}

	var events []Event
	events, err = s.events.ListEventsForContact(ctx, contactID)
	if err != nil {
		if isNotFoundError(err) {
			err = nil
			return
		}
		return
	}

	ordered := make([]Event, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].NextOccurrence.Equal(ordered[j].NextOccurrence) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].NextOccurrence.Before(ordered[j].NextOccurrence)
	})
	detail.Events = ordered
	return
}

// UpdateContact validates input and updates an existing contact owned by the principal.
func (s *ContactService) UpdateContact(ctx context.Context, params UpdateContactParams) (contact Contact, err error) {
	if s == nil {
		err = fmt.Errorf("ContactService is nil")
		return
	}
	if s.contacts == nil {
		err = fmt.Errorf("contact repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateContact",
		"principal_id", params.Principal.UserID,
		"contact_id", params.ContactID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update contact", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("contact_id", contact.ID).InfoContext(ctx, "contact updated")
	}()

	var existing Contact
	existing, err = s.contacts.GetContact(ctx, params.ContactID)
	if err != nil {
		err = mapContactRepoError(err)
		return
	}
	if existing.UserID != params.Principal.UserID {
		err = ErrUnauthorized
		return
	}

	normalized := normalizeContactInput(params.Input)
	vErr := validateContactInput(normalized)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	updated := existing
	updated.Name = normalized.Name
	updated.Phone = normalized.Phone
	updated.Relation = normalized.Relation
	updated.Notes = normalized.Notes
	updated.UpdatedAt = s.now()

	contact, err = s.contacts.UpdateContact(ctx, updated)
	if err != nil {
		err = mapContactRepoError(err)
		return
	}

	return
}

// DeleteContact removes a contact owned by the principal along with all of
// its events.
func (s *ContactService) DeleteContact(ctx context.Context, principal Principal, contactID string) error {
	if s == nil {
		return fmt.Errorf("ContactService is nil")
	}
	if s.contacts == nil {
		return fmt.Errorf("contact repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteContact",
		"principal_id", principal.UserID,
		"contact_id", contactID,
	)

	existing, err := s.contacts.GetContact(ctx, contactID)
	if err != nil {
		err = mapContactRepoError(err)
		logger.ErrorContext(ctx, "failed to delete contact", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if existing.UserID != principal.UserID {
		logger.ErrorContext(ctx, "failed to delete contact", "error", ErrUnauthorized, "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}

	if s.events != nil {
		if err := s.events.DeleteEventsForContact(ctx, contactID); err != nil {
			logger.ErrorContext(ctx, "failed to delete contact events", "error", err, "error_kind", ErrorKind(err))
			return err
		}
	}

	if err := s.contacts.DeleteContact(ctx, contactID); err != nil {
		err = mapContactRepoError(err)
		logger.ErrorContext(ctx, "failed to delete contact", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "contact deleted")
	return nil
}

// ListContacts returns the principal's contacts, newest first.
func (s *ContactService) ListContacts(ctx context.Context, principal Principal) (contacts []Contact, err error) {
	if s == nil {
		err = fmt.Errorf("ContactService is nil")
		return
	}
	if s.contacts == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListContacts",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list contacts", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(contacts)).InfoContext(ctx, "contacts listed")
	}()

	var raw []Contact
	raw, err = s.contacts.ListContacts(ctx, principal.UserID)
	if err != nil {
		if isNotFoundError(err) {
			err = nil
			return
		}
		return
	}

	contacts = make([]Contact, len(raw))
	copy(contacts, raw)

	sort.SliceStable(contacts, func(i, j int) bool {
		if contacts[i].CreatedAt.Equal(contacts[j].CreatedAt) {
			return contacts[i].ID < contacts[j].ID
		}
		return contacts[i].CreatedAt.After(contacts[j].CreatedAt)
	})

	return
}

func normalizeContactInput(input ContactInput) ContactInput {
	return ContactInput{
		Name:     strings.TrimSpace(input.Name),
		Phone:    strings.TrimSpace(input.Phone),
		Relation: Relation(strings.TrimSpace(string(input.Relation))),
		Notes:    strings.TrimSpace(input.Notes),
	}
}

func validateContactInput(input ContactInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "name is required")
	} else if len(input.Name) > 100 {
		vErr.add("name", "name must be at most 100 characters")
	}

	if input.Phone == "" {
		vErr.add("phone", "phone is required")
	} else if !phonePattern.MatchString(input.Phone) {
		vErr.add("phone", "phone may only contain digits, spaces, dashes, parentheses, and a leading +")
	}

	if input.Relation == "" {
		vErr.add("relation", "relation is required")
	} else if _, ok := ValidRelations[input.Relation]; !ok {
		vErr.add("relation", "relation is not a recognized value")
	}

	if len(input.Notes) > 500 {
		vErr.add("notes", "notes must be at most 500 characters")
	}

	return vErr
}

func mapContactRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		vErr := &ValidationError{}
		vErr.add("phone", "another contact already uses this phone number")
		return vErr
	}
	return err
}
