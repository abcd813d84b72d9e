package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/relationship-reminder/internal/recurrence"
	"github.com/example/relationship-reminder/internal/wish"
)

// WishEventStore exposes the event operations the wish service needs. The
// update hook lets a stale cached occurrence be repaired on the way through.
type WishEventStore interface {
	GetEvent(ctx context.Context, id string) (Event, error)
	UpdateEvent(ctx context.Context, event Event) (Event, error)
}

// WishContactStore exposes contact lookup operations.
type WishContactStore interface {
	GetContact(ctx context.Context, id string) (Contact, error)
}

// WishTemplateStore exposes template lookup operations.
type WishTemplateStore interface {
	GetTemplate(ctx context.Context, id string) (Template, error)
}

// WishService renders greeting messages by combining an event, its contact,
// and a template.
type WishService struct {
	events    WishEventStore
	contacts  WishContactStore
	templates WishTemplateStore
	engine    *recurrence.Engine
	now       func() time.Time
	logger    *slog.Logger
}

// NewWishService constructs a wish service with the provided dependencies.
func NewWishService(events WishEventStore, contacts WishContactStore, templates WishTemplateStore, engine *recurrence.Engine, now func() time.Time) *WishService {
	return NewWishServiceWithLogger(events, contacts, templates, engine, now, nil)
}

// NewWishServiceWithLogger constructs a wish service with a specified logger.
func NewWishServiceWithLogger(events WishEventStore, contacts WishContactStore, templates WishTemplateStore, engine *recurrence.Engine, now func() time.Time, logger *slog.Logger) *WishService {
	if engine == nil {
		engine = recurrence.NewEngine(nil)
	}
	if now == nil {
		now = time.Now
	}
	return &WishService{
		events:    events,
		contacts:  contacts,
		templates: templates,
		engine:    engine,
		now:       now,
		logger:    defaultLogger(logger),
	}
}

func (s *WishService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "WishService", operation, attrs...)
}

// GenerateWish renders the template against the event's contact and returns
// the message with the delivery details the caller needs to send it.
func (s *WishService) GenerateWish(ctx context.Context, params GenerateWishParams) (result WishResult, err error) {
	if s == nil {
		err = fmt.Errorf("WishService is nil")
		return
	}
	if s.events == nil {
		err = fmt.Errorf("event store not configured")
		return
	}
	if s.contacts == nil {
		err = fmt.Errorf("contact store not configured")
		return
	}
	if s.templates == nil {
		err = fmt.Errorf("template store not configured")
		return
	}

	logger := s.loggerWith(ctx, "GenerateWish",
		"principal_id", params.Principal.UserID,
		"event_id", params.EventID,
		"template_id", params.TemplateID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to generate wish", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.InfoContext(ctx, "wish generated")
	}()

	var event Event
	event, err = s.events.GetEvent(ctx, params.EventID)
	if err != nil {
		err = mapEventRepoError(err)
		return
	}
	if event.UserID != params.Principal.UserID {
		err = ErrUnauthorized
		return
	}

	event, err = s.repairStaleOccurrence(ctx, event)
	if err != nil {
		return
	}

	var contact Contact
	contact, err = s.contacts.GetContact(ctx, event.ContactID)
	if err != nil {
		err = mapContactRepoError(err)
		return
	}

	var template Template
	template, err = s.templates.GetTemplate(ctx, params.TemplateID)
	if err != nil {
		err = mapTemplateRepoError(err)
		return
	}
	if !template.IsSystem() && *template.OwnerID != params.Principal.UserID {
		err = ErrUnauthorized
		return
	}
	if template.EventType != TemplateEventTypeAll && template.EventType != string(event.Type) {
		vErr := &ValidationError{}
		vErr.add("template_id", "template does not apply to this event type")
		err = vErr
		return
	}

	data := wish.Data{
		Name:      contact.Name,
		Relation:  string(contact.Relation),
		EventType: string(event.Type),
	}
	// Ages count full years elapsed as of today, not the age reached at the
	// upcoming occurrence.
	elapsed := s.engine.ElapsedYears(event.OriginalDate, s.engine.StartOfDay(s.now()))
	switch event.Type {
	case EventTypeBirthday, EventTypePetBirthday:
		data.Age = &elapsed
	case EventTypeAnniversary:
		data.Year = &elapsed
	}

	result = WishResult{
		Message:      wish.Render(template.Body, data),
		ContactName:  contact.Name,
		ContactPhone: contact.Phone,
		EventTitle:   event.Title,
		EventType:    event.Type,
		Occurrence:   event.NextOccurrence,
		TemplateID:   template.ID,
		TemplateName: template.Title,
	}
	return
}

// repairStaleOccurrence recomputes and persists the cached next occurrence
// when it has fallen behind the current day, so the reported occurrence never
// points at an occasion that already passed.
func (s *WishService) repairStaleOccurrence(ctx context.Context, event Event) (Event, error) {
	start := s.engine.StartOfDay(s.now())
	if !event.NextOccurrence.Before(start) {
		return event, nil
	}

	event.NextOccurrence = s.engine.NextOccurrence(start, event.RecurringMonth, event.RecurringDay)
	event.UpdatedAt = s.now()

	persisted, err := s.events.UpdateEvent(ctx, event)
	if err != nil {
		return Event{}, mapEventRepoError(err)
	}
	return persisted, nil
}
