package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/relationship-reminder/internal/persistence"
	"github.com/example/relationship-reminder/internal/recurrence"
)

// EventRepository captures the persistence interactions needed by the service.
type EventRepository interface {
	CreateEvent(ctx context.Context, event Event) (Event, error)
	GetEvent(ctx context.Context, id string) (Event, error)
	UpdateEvent(ctx context.Context, event Event) (Event, error)
	DeleteEvent(ctx context.Context, id string) error
	ListEvents(ctx context.Context, filter EventRepositoryFilter) ([]Event, error)
}

// EventRepositoryFilter narrows queries issued to the event repository. The
// occurrence bounds form a half-open interval [OccursFrom, OccursBefore).
type EventRepositoryFilter struct {
	UserID       string
	ContactID    string
	OccursFrom   *time.Time
	OccursBefore *time.Time
}

// EventContactDirectory exposes contact lookup operations.
type EventContactDirectory interface {
	GetContact(ctx context.Context, id string) (Contact, error)
	ListContacts(ctx context.Context, userID string) ([]Contact, error)
}

// upcomingWindowDays is the width of the upcoming-events view.
const upcomingWindowDays = 30

// EventService orchestrates validation, authorization, and persistence for
// recurring events. It is the sole writer of the derived recurrence fields:
// RecurringMonth and RecurringDay always mirror OriginalDate, and
// NextOccurrence is recomputed on create, on date-changing updates, and
// lazily on time-sensitive reads when a cached value has fallen behind.
type EventService struct {
	events      EventRepository
	contacts    EventContactDirectory
	engine      *recurrence.Engine
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewEventService constructs an event service with the provided dependencies.
func NewEventService(events EventRepository, contacts EventContactDirectory, engine *recurrence.Engine, idGenerator func() string, now func() time.Time) *EventService {
	return NewEventServiceWithLogger(events, contacts, engine, idGenerator, now, nil)
}

// NewEventServiceWithLogger constructs an event service with a specified logger.
func NewEventServiceWithLogger(events EventRepository, contacts EventContactDirectory, engine *recurrence.Engine, idGenerator func() string, now func() time.Time, logger *slog.Logger) *EventService {
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &EventService{
		events:      events,
		contacts:    contacts,
		engine:      engine,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *EventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EventService", operation, attrs...)
}

// CreateEvent validates input, derives the recurrence fields from the
// original date, and persists a new event for the principal.
func (s *EventService) CreateEvent(ctx context.Context, params CreateEventParams) (event Event, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateEvent",
		"principal_id", params.Principal.UserID,
		"contact_id", params.Input.ContactID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("event_id", event.ID).InfoContext(ctx, "event created")
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	normalized := normalizeEventInput(params.Input)
	vErr := validateEventInput(normalized, s.now())
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if err = s.ensureContactOwned(ctx, params.Principal, normalized.ContactID); err != nil {
		return
	}

	now := s.now()
	month, day := normalized.OriginalDate.Month(), normalized.OriginalDate.Day()
	event = Event{
		ID:             s.idGenerator(),
		UserID:         params.Principal.UserID,
		ContactID:      normalized.ContactID,
		Title:          normalized.Title,
		Type:           normalized.Type,
		OriginalDate:   normalized.OriginalDate,
		Notes:          normalized.Notes,
		RecurringMonth: month,
		RecurringDay:   day,
		NextOccurrence: s.engine.NextOccurrence(now, month, day),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if s.events == nil {
		return
	}

	var persisted Event
	persisted, err = s.events.CreateEvent(ctx, event)
	if err != nil {
		err = mapEventRepoError(err)
		return
	}

	event = persisted
	return
}

// UpdateEvent applies validation and authorization before updating an event.
// The recurrence fields are re-derived only when the original date actually
// changes; edits to title, notes, type, or contact leave the cached next
// occurrence untouched.
func (s *EventService) UpdateEvent(ctx context.Context, params UpdateEventParams) (event Event, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}
	if s.events == nil {
		err = fmt.Errorf("event repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "UpdateEvent",
		"principal_id", params.Principal.UserID,
		"event_id", params.EventID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to update event", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("event_id", event.ID).InfoContext(ctx, "event updated")
	}()

	var existing Event
	existing, err = s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		err = mapEventRepoError(err)
		return
	}
	if existing.UserID != params.Principal.UserID {
		err = ErrUnauthorized
		return
	}

	normalized := normalizeEventInput(params.Input)
	vErr := validateEventInput(normalized, s.now())
	if vErr.HasErrors() {
		err = vErr
		return
	}

	if normalized.ContactID != existing.ContactID {
		if err = s.ensureContactOwned(ctx, params.Principal, normalized.ContactID); err != nil {
			return
		}
	}

	updated := existing
	updated.ContactID = normalized.ContactID
	updated.Title = normalized.Title
	updated.Type = normalized.Type
	updated.Notes = normalized.Notes
	updated.UpdatedAt = s.now()

	if !sameCalendarDate(existing.OriginalDate, normalized.OriginalDate) {
		month, day := normalized.OriginalDate.Month(), normalized.OriginalDate.Day()
		updated.OriginalDate = normalized.OriginalDate
		updated.RecurringMonth = month
		updated.RecurringDay = day
		updated.NextOccurrence = s.engine.NextOccurrence(s.now(), month, day)
	}

	event, err = s.events.UpdateEvent(ctx, updated)
	if err != nil {
		err = mapEventRepoError(err)
		return
	}

	return
}

// DeleteEvent removes an event owned by the principal.
func (s *EventService) DeleteEvent(ctx context.Context, principal Principal, eventID string) error {
	if s == nil {
		return fmt.Errorf("EventService is nil")
	}
	if s.events == nil {
		return fmt.Errorf("event repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteEvent",
		"principal_id", principal.UserID,
		"event_id", eventID,
	)

	existing, err := s.events.GetEvent(ctx, eventID)
	if err != nil {
		err = mapEventRepoError(err)
		logger.ErrorContext(ctx, "failed to delete event", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if existing.UserID != principal.UserID {
		logger.ErrorContext(ctx, "failed to delete event", "error", ErrUnauthorized, "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}

	if err := s.events.DeleteEvent(ctx, eventID); err != nil {
		err = mapEventRepoError(err)
		logger.ErrorContext(ctx, "failed to delete event", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "event deleted")
	return nil
}

// ListEvents returns all of the principal's events ordered by next
// occurrence, soonest first, with contacts and day counts resolved.
func (s *EventService) ListEvents(ctx context.Context, principal Principal) (views []EventView, err error) {
	return s.listWindow(ctx, principal, "ListEvents", nil, nil)
}

// TodayEvents returns the principal's events occurring today.
func (s *EventService) TodayEvents(ctx context.Context, principal Principal) (views []EventView, err error) {
	start := s.engine.StartOfDay(s.now())
	end := start.AddDate(0, 0, 1)
	return s.listWindow(ctx, principal, "TodayEvents", &start, &end)
}

// UpcomingEvents returns the principal's events occurring within the next
// thirty days, today included.
func (s *EventService) UpcomingEvents(ctx context.Context, principal Principal) (views []EventView, err error) {
	start := s.engine.StartOfDay(s.now())
	end := start.AddDate(0, 0, upcomingWindowDays)
	return s.listWindow(ctx, principal, "UpcomingEvents", &start, &end)
}

func (s *EventService) listWindow(ctx context.Context, principal Principal, operation string, from, before *time.Time) (views []EventView, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}
	if s.events == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, operation,
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list events", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(views)).InfoContext(ctx, "events listed")
	}()

	if principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	if err = s.refreshStale(ctx, principal.UserID); err != nil {
		return
	}

	var events []Event
	events, err = s.events.ListEvents(ctx, EventRepositoryFilter{
		UserID:       principal.UserID,
		OccursFrom:   from,
		OccursBefore: before,
	})
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

	contactsByID, err := s.contactIndex(ctx, principal.UserID)
	if err != nil {
		return
	}

	now := s.now()
	views = make([]EventView, 0, len(ordered))
	for _, event := range ordered {
		views = append(views, EventView{
			Event:     event,
			Contact:   contactsByID[event.ContactID],
			DaysUntil: s.engine.DaysUntil(now, event.NextOccurrence),
		})
	}
	return
}

// refreshStale advances the cached next occurrence of any event that has
// fallen behind the current day. The recomputation is idempotent, so racing
// refreshes converge on the same stored value.
func (s *EventService) refreshStale(ctx context.Context, userID string) error {
	start := s.engine.StartOfDay(s.now())

	stale, err := s.events.ListEvents(ctx, EventRepositoryFilter{
		UserID:       userID,
		OccursBefore: &start,
	})
	if err != nil {
		if isNotFoundError(err) {
			return nil
		}
		return err
	}

	for _, event := range stale {
		next := s.engine.NextOccurrence(start, event.RecurringMonth, event.RecurringDay)
		if next.Equal(event.NextOccurrence) {
			continue
		}
		event.NextOccurrence = next
		event.UpdatedAt = s.now()
		if _, err := s.events.UpdateEvent(ctx, event); err != nil {
			return mapEventRepoError(err)
		}
	}
	return nil
}

func (s *EventService) ensureContactOwned(ctx context.Context, principal Principal, contactID string) error {
	if s.contacts == nil {
		return nil
	}
	contact, err := s.contacts.GetContact(ctx, contactID)
	if err != nil {
		if isNotFoundError(err) {
			vErr := &ValidationError{}
			vErr.add("contact_id", "contact does not exist")
			return vErr
		}
		return err
	}
	if contact.UserID != principal.UserID {
		return ErrUnauthorized
	}
	return nil
}

func (s *EventService) contactIndex(ctx context.Context, userID string) (map[string]Contact, error) {
	index := make(map[string]Contact)
	if s.contacts == nil {
		return index, nil
	}
	contacts, err := s.contacts.ListContacts(ctx, userID)
	if err != nil {
		if isNotFoundError(err) {
			return index, nil
		}
		return nil, err
	}
	for _, contact := range contacts {
		index[contact.ID] = contact
	}
	return index, nil
}

func normalizeEventInput(input EventInput) EventInput {
	return EventInput{
		ContactID:    strings.TrimSpace(input.ContactID),
		Title:        strings.TrimSpace(input.Title),
		Type:         EventType(strings.TrimSpace(string(input.Type))),
		OriginalDate: input.OriginalDate,
		Notes:        strings.TrimSpace(input.Notes),
	}
}

func validateEventInput(input EventInput, now time.Time) *ValidationError {
	vErr := &ValidationError{}

	if input.ContactID == "" {
		vErr.add("contact_id", "contact is required")
	}

	if input.Title == "" {
		vErr.add("title", "title is required")
	} else if len(input.Title) > 100 {
		vErr.add("title", "title must be at most 100 characters")
	}

	if input.Type == "" {
		vErr.add("type", "type is required")
	} else if _, ok := ValidEventTypes[input.Type]; !ok {
		vErr.add("type", "type is not a recognized value")
	}

	if input.OriginalDate.IsZero() {
		vErr.add("original_date", "original date is required")
	} else if input.OriginalDate.After(now) {
		vErr.add("original_date", "original date must not be in the future")
	}

	if len(input.Notes) > 500 {
		vErr.add("notes", "notes must be at most 500 characters")
	}

	return vErr
}

func sameCalendarDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func mapEventRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrForeignKeyViolation) {
		vErr := &ValidationError{}
		vErr.add("contact_id", "contact does not exist")
		return vErr
	}
	return err
}
