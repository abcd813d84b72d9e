package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/relationship-reminder/internal/persistence"
	"github.com/example/relationship-reminder/internal/recurrence"
)

type eventRepositoryStub struct {
	events map[string]Event

	createErr error
	updateErr error
	deleteErr error
	listErr   error

	updateCalls int
}

func newEventRepositoryStub() *eventRepositoryStub {
	return &eventRepositoryStub{events: make(map[string]Event)}
}

func (s *eventRepositoryStub) seed(event Event) {
	s.events[event.ID] = event
}

func (s *eventRepositoryStub) CreateEvent(ctx context.Context, event Event) (Event, error) {
	if s.createErr != nil {
		return Event{}, s.createErr
	}
	s.events[event.ID] = event
	return event, nil
}

func (s *eventRepositoryStub) GetEvent(ctx context.Context, id string) (Event, error) {
	event, ok := s.events[id]
	if !ok {
		return Event{}, ErrNotFound
	}
	return event, nil
}

func (s *eventRepositoryStub) UpdateEvent(ctx context.Context, event Event) (Event, error) {
	if s.updateErr != nil {
		return Event{}, s.updateErr
	}
	if _, ok := s.events[event.ID]; !ok {
		return Event{}, ErrNotFound
	}
	s.updateCalls++
	s.events[event.ID] = event
	return event, nil
}

func (s *eventRepositoryStub) DeleteEvent(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.events[id]; !ok {
		return ErrNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *eventRepositoryStub) ListEvents(ctx context.Context, filter EventRepositoryFilter) ([]Event, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Event, 0, len(s.events))
	for _, event := range s.events {
		if filter.UserID != "" && event.UserID != filter.UserID {
			continue
		}
		if filter.ContactID != "" && event.ContactID != filter.ContactID {
			continue
		}
		if filter.OccursFrom != nil && event.NextOccurrence.Before(*filter.OccursFrom) {
			continue
		}
		if filter.OccursBefore != nil && !event.NextOccurrence.Before(*filter.OccursBefore) {
			continue
		}
		out = append(out, event)
	}
	return out, nil
}

func newEventServiceForTest(repo *eventRepositoryStub, contacts *contactRepositoryStub, id string, now time.Time) *EventService {
	return NewEventService(repo, contacts, recurrence.NewEngine(time.UTC), sequenceGenerator(id), func() time.Time { return now })
}

func TestEventService_CreateEvent(t *testing.T) {
	t.Parallel()

	t.Run("derives recurrence fields from the original date", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
		repo := newEventRepositoryStub()
		contacts := newContactRepositoryStub()
		contacts.seed(Contact{ID: "contact-1", UserID: "user-1"})

		svc := newEventServiceForTest(repo, contacts, "event-1", now)

		event, err := svc.CreateEvent(context.Background(), CreateEventParams{
			Principal: Principal{UserID: "user-1"},
			Input: EventInput{
				ContactID:    "contact-1",
				Title:        "  Alice's birthday  ",
				Type:         EventTypeBirthday,
				OriginalDate: time.Date(1994, time.September, 12, 0, 0, 0, 0, time.UTC),
				Notes:        " loves tulips ",
			},
		})
		if err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		if event.ID != "event-1" || event.UserID != "user-1" {
			t.Fatalf("unexpected identity: %+v", event)
		}
		if event.Title != "Alice's birthday" || event.Notes != "loves tulips" {
			t.Fatalf("expected trimmed fields, got %+v", event)
		}
		if event.RecurringMonth != time.September || event.RecurringDay != 12 {
			t.Fatalf("unexpected recurrence fields: month=%v day=%d", event.RecurringMonth, event.RecurringDay)
		}
		want := time.Date(2025, time.September, 12, 0, 0, 0, 0, time.UTC)
		if !event.NextOccurrence.Equal(want) {
			t.Fatalf("expected next occurrence %v, got %v", want, event.NextOccurrence)
		}
		if !event.CreatedAt.Equal(now) || !event.UpdatedAt.Equal(now) {
			t.Fatalf("unexpected timestamps: %+v", event)
		}
	})

	t.Run("keeps a leap-day rule on day 29 and substitutes in non-leap years", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, time.March, 15, 9, 0, 0, 0, time.UTC)
		repo := newEventRepositoryStub()
		contacts := newContactRepositoryStub()
		contacts.seed(Contact{ID: "contact-1", UserID: "user-1"})

		svc := newEventServiceForTest(repo, contacts, "event-1", now)

		event, err := svc.CreateEvent(context.Background(), CreateEventParams{
			Principal: Principal{UserID: "user-1"},
			Input: EventInput{
				ContactID:    "contact-1",
				Title:        "Leapling birthday",
				Type:         EventTypeBirthday,
				OriginalDate: time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC),
			},
		})
		if err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		if event.RecurringMonth != time.February || event.RecurringDay != 29 {
			t.Fatalf("expected the stored rule to keep day 29, got month=%v day=%d", event.RecurringMonth, event.RecurringDay)
		}
		want := time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)
		if !event.NextOccurrence.Equal(want) {
			t.Fatalf("expected next occurrence %v, got %v", want, event.NextOccurrence)
		}
	})

	t.Run("anchors an occurrence falling on today to the current year", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, time.June, 1, 23, 30, 0, 0, time.UTC)
		repo := newEventRepositoryStub()
		contacts := newContactRepositoryStub()
		contacts.seed(Contact{ID: "contact-1", UserID: "user-1"})

		svc := newEventServiceForTest(repo, contacts, "event-1", now)

		event, err := svc.CreateEvent(context.Background(), CreateEventParams{
			Principal: Principal{UserID: "user-1"},
			Input: EventInput{
				ContactID:    "contact-1",
				Title:        "Anniversary",
				Type:         EventTypeAnniversary,
				OriginalDate: time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC),
			},
		})
		if err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		want := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
		if !event.NextOccurrence.Equal(want) {
			t.Fatalf("expected today's occurrence %v, got %v", want, event.NextOccurrence)
		}
	})

	t.Run("collects validation errors", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
		svc := newEventServiceForTest(newEventRepositoryStub(), newContactRepositoryStub(), "event-1", now)

		_, err := svc.CreateEvent(context.Background(), CreateEventParams{
			Principal: Principal{UserID: "user-1"},
			Input: EventInput{
				Title: strings.Repeat("x", 101),
				Type:  "graduation",
				Notes: strings.Repeat("y", 501),
			},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"contact_id", "title", "type", "original_date", "notes"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected a %s field error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects future original dates", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
		contacts := newContactRepositoryStub()
		contacts.seed(Contact{ID: "contact-1", UserID: "user-1"})
		svc := newEventServiceForTest(newEventRepositoryStub(), contacts, "event-1", now)

		_, err := svc.CreateEvent(context.Background(), CreateEventParams{
			Principal: Principal{UserID: "user-1"},
			Input: EventInput{
				ContactID:    "contact-1",
				Title:        "Time traveler",
				Type:         EventTypeOther,
				OriginalDate: now.AddDate(0, 0, 1),
			},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["original_date"]; !ok {
			t.Fatalf("expected an original_date field error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("rejects contacts belonging to other users", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
		contacts := newContactRepositoryStub()
		contacts.seed(Contact{ID: "contact-1", UserID: "owner"})
		svc := newEventServiceForTest(newEventRepositoryStub(), contacts, "event-1", now)

		_, err := svc.CreateEvent(context.Background(), CreateEventParams{
			Principal: Principal{UserID: "intruder"},
			Input: EventInput{
				ContactID:    "contact-1",
				Title:        "Birthday",
				Type:         EventTypeBirthday,
				OriginalDate: time.Date(1990, time.May, 5, 0, 0, 0, 0, time.UTC),
			},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("translates unknown contacts into a field error", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
		svc := newEventServiceForTest(newEventRepositoryStub(), newContactRepositoryStub(), "event-1", now)

		_, err := svc.CreateEvent(context.Background(), CreateEventParams{
			Principal: Principal{UserID: "user-1"},
			Input: EventInput{
				ContactID:    "ghost",
				Title:        "Birthday",
				Type:         EventTypeBirthday,
				OriginalDate: time.Date(1990, time.May, 5, 0, 0, 0, 0, time.UTC),
			},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["contact_id"]; !ok {
			t.Fatalf("expected a contact_id field error, got %v", vErr.FieldErrors)
		}
	})

	t.Run("maps foreign key violations into a field error", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
		repo := newEventRepositoryStub()
		repo.createErr = persistence.ErrForeignKeyViolation
		contacts := newContactRepositoryStub()
		contacts.seed(Contact{ID: "contact-1", UserID: "user-1"})
		svc := newEventServiceForTest(repo, contacts, "event-1", now)

		_, err := svc.CreateEvent(context.Background(), CreateEventParams{
			Principal: Principal{UserID: "user-1"},
			Input: EventInput{
				ContactID:    "contact-1",
				Title:        "Birthday",
				Type:         EventTypeBirthday,
				OriginalDate: time.Date(1990, time.May, 5, 0, 0, 0, 0, time.UTC),
			},
		})

		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["contact_id"]; !ok {
			t.Fatalf("expected a contact_id field error, got %v", vErr.FieldErrors)
		}
	})
}

func TestEventService_UpdateEvent(t *testing.T) {
	t.Parallel()

	seedEvent := func(repo *eventRepositoryStub) Event {
		created := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
		event := Event{
			ID:             "event-1",
			UserID:         "user-1",
			ContactID:      "contact-1",
			Title:          "Birthday",
			Type:           EventTypeBirthday,
			OriginalDate:   time.Date(1994, time.September, 12, 0, 0, 0, 0, time.UTC),
			RecurringMonth: time.September,
			RecurringDay:   12,
			NextOccurrence: time.Date(2025, time.September, 12, 0, 0, 0, 0, time.UTC),
			CreatedAt:      created,
			UpdatedAt:      created,
		}
		repo.seed(event)
		return event
	}

	t.Run("leaves the cached occurrence alone when the date is unchanged", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
		repo := newEventRepositoryStub()
		existing := seedEvent(repo)
		contacts := newContactRepositoryStub()
		contacts.seed(Contact{ID: "contact-1", UserID: "user-1"})

		svc := newEventServiceForTest(repo, contacts, "", now)

		event, err := svc.UpdateEvent(context.Background(), UpdateEventParams{
			Principal: Principal{UserID: "user-1"},
			EventID:   "event-1",
			Input: EventInput{
				ContactID:    existing.ContactID,
				Title:        existing.Title,
				Type:         existing.Type,
				OriginalDate: existing.OriginalDate,
				Notes:        "remember the cake",
			},
		})
		if err != nil {
			t.Fatalf("UpdateEvent failed: %v", err)
		}
		if event.Notes != "remember the cake" {
			t.Fatalf("expected notes to update, got %q", event.Notes)
		}
		if !event.NextOccurrence.Equal(existing.NextOccurrence) {
			t.Fatalf("expected next occurrence to stay %v, got %v", existing.NextOccurrence, event.NextOccurrence)
		}
		if !event.CreatedAt.Equal(existing.CreatedAt) {
			t.Fatalf("expected creation time to be preserved, got %v", event.CreatedAt)
		}
		if !event.UpdatedAt.Equal(now) {
			t.Fatalf("expected updated time to advance, got %v", event.UpdatedAt)
		}
	})

	t.Run("recomputes recurrence fields when the date changes", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
		repo := newEventRepositoryStub()
		existing := seedEvent(repo)
		contacts := newContactRepositoryStub()
		contacts.seed(Contact{ID: "contact-1", UserID: "user-1"})

		svc := newEventServiceForTest(repo, contacts, "", now)

		event, err := svc.UpdateEvent(context.Background(), UpdateEventParams{
			Principal: Principal{UserID: "user-1"},
			EventID:   "event-1",
			Input: EventInput{
				ContactID:    existing.ContactID,
				Title:        existing.Title,
				Type:         existing.Type,
				OriginalDate: time.Date(1994, time.March, 3, 0, 0, 0, 0, time.UTC),
			},
		})
		if err != nil {
			t.Fatalf("UpdateEvent failed: %v", err)
		}
		if event.RecurringMonth != time.March || event.RecurringDay != 3 {
			t.Fatalf("unexpected recurrence fields: month=%v day=%d", event.RecurringMonth, event.RecurringDay)
		}
		want := time.Date(2026, time.March, 3, 0, 0, 0, 0, time.UTC)
		if !event.NextOccurrence.Equal(want) {
			t.Fatalf("expected next occurrence %v, got %v", want, event.NextOccurrence)
		}
	})

	t.Run("rejects updates to other users' events", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
		repo := newEventRepositoryStub()
		existing := seedEvent(repo)
		svc := newEventServiceForTest(repo, newContactRepositoryStub(), "", now)

		_, err := svc.UpdateEvent(context.Background(), UpdateEventParams{
			Principal: Principal{UserID: "intruder"},
			EventID:   "event-1",
			Input: EventInput{
				ContactID:    existing.ContactID,
				Title:        existing.Title,
				Type:         existing.Type,
				OriginalDate: existing.OriginalDate,
			},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("maps missing events to ErrNotFound", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
		svc := newEventServiceForTest(newEventRepositoryStub(), newContactRepositoryStub(), "", now)

		_, err := svc.UpdateEvent(context.Background(), UpdateEventParams{
			Principal: Principal{UserID: "user-1"},
			EventID:   "ghost",
			Input:     EventInput{ContactID: "contact-1", Title: "T", Type: EventTypeOther, OriginalDate: now.AddDate(-1, 0, 0)},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestEventService_DeleteEvent(t *testing.T) {
	t.Parallel()

	t.Run("deletes the principal's event", func(t *testing.T) {
		t.Parallel()

		repo := newEventRepositoryStub()
		repo.seed(Event{ID: "event-1", UserID: "user-1"})
		svc := newEventServiceForTest(repo, newContactRepositoryStub(), "", time.Now())

		if err := svc.DeleteEvent(context.Background(), Principal{UserID: "user-1"}, "event-1"); err != nil {
			t.Fatalf("DeleteEvent failed: %v", err)
		}
		if _, ok := repo.events["event-1"]; ok {
			t.Fatal("expected the event to be deleted")
		}
	})

	t.Run("rejects deleting other users' events", func(t *testing.T) {
		t.Parallel()

		repo := newEventRepositoryStub()
		repo.seed(Event{ID: "event-1", UserID: "owner"})
		svc := newEventServiceForTest(repo, newContactRepositoryStub(), "", time.Now())

		if err := svc.DeleteEvent(context.Background(), Principal{UserID: "intruder"}, "event-1"); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestEventService_ListWindows(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)

	seed := func() (*eventRepositoryStub, *contactRepositoryStub) {
		repo := newEventRepositoryStub()
		repo.seed(Event{
			ID: "event-today", UserID: "user-1", ContactID: "contact-1",
			RecurringMonth: time.June, RecurringDay: 1,
			NextOccurrence: time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		})
		repo.seed(Event{
			ID: "event-upcoming", UserID: "user-1", ContactID: "contact-1",
			RecurringMonth: time.June, RecurringDay: 30,
			NextOccurrence: time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
		})
		repo.seed(Event{
			ID: "event-later", UserID: "user-1", ContactID: "contact-2",
			RecurringMonth: time.July, RecurringDay: 1,
			NextOccurrence: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		})
		repo.seed(Event{
			ID: "event-foreign", UserID: "user-2", ContactID: "contact-9",
			RecurringMonth: time.June, RecurringDay: 2,
			NextOccurrence: time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		})

		contacts := newContactRepositoryStub()
		contacts.seed(Contact{ID: "contact-1", UserID: "user-1", Name: "Alice"})
		contacts.seed(Contact{ID: "contact-2", UserID: "user-1", Name: "Bob"})
		return repo, contacts
	}

	t.Run("lists all events soonest first with contacts and day counts", func(t *testing.T) {
		t.Parallel()

		repo, contacts := seed()
		svc := newEventServiceForTest(repo, contacts, "", now)

		views, err := svc.ListEvents(context.Background(), Principal{UserID: "user-1"})
		if err != nil {
			t.Fatalf("ListEvents failed: %v", err)
		}
		if len(views) != 3 {
			t.Fatalf("expected three events, got %d", len(views))
		}
		gotIDs := []string{views[0].Event.ID, views[1].Event.ID, views[2].Event.ID}
		wantIDs := []string{"event-today", "event-upcoming", "event-later"}
		for i := range wantIDs {
			if gotIDs[i] != wantIDs[i] {
				t.Fatalf("expected order %v, got %v", wantIDs, gotIDs)
			}
		}
		if views[0].DaysUntil != 0 || views[1].DaysUntil != 29 || views[2].DaysUntil != 30 {
			t.Fatalf("unexpected day counts: %d %d %d", views[0].DaysUntil, views[1].DaysUntil, views[2].DaysUntil)
		}
		if views[0].Contact.Name != "Alice" || views[2].Contact.Name != "Bob" {
			t.Fatalf("expected contacts to be resolved, got %+v", views)
		}
	})

	t.Run("limits the today view to the current day", func(t *testing.T) {
		t.Parallel()

		repo, contacts := seed()
		svc := newEventServiceForTest(repo, contacts, "", now)

		views, err := svc.TodayEvents(context.Background(), Principal{UserID: "user-1"})
		if err != nil {
			t.Fatalf("TodayEvents failed: %v", err)
		}
		if len(views) != 1 || views[0].Event.ID != "event-today" {
			t.Fatalf("expected only today's event, got %+v", views)
		}
	})

	t.Run("limits the upcoming view to the next thirty days", func(t *testing.T) {
		t.Parallel()

		repo, contacts := seed()
		svc := newEventServiceForTest(repo, contacts, "", now)

		views, err := svc.UpcomingEvents(context.Background(), Principal{UserID: "user-1"})
		if err != nil {
			t.Fatalf("UpcomingEvents failed: %v", err)
		}
		if len(views) != 2 {
			t.Fatalf("expected two events inside the window, got %+v", views)
		}
		if views[0].Event.ID != "event-today" || views[1].Event.ID != "event-upcoming" {
			t.Fatalf("unexpected window contents: %+v", views)
		}
	})

	t.Run("rejects missing principal", func(t *testing.T) {
		t.Parallel()

		repo, contacts := seed()
		svc := newEventServiceForTest(repo, contacts, "", now)

		if _, err := svc.ListEvents(context.Background(), Principal{}); !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestEventService_RefreshStaleOccurrences(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, time.June, 1, 10, 0, 0, 0, time.UTC)
	repo := newEventRepositoryStub()
	repo.seed(Event{
		ID: "event-stale", UserID: "user-1", ContactID: "contact-1",
		RecurringMonth: time.May, RecurringDay: 20,
		NextOccurrence: time.Date(2025, time.May, 20, 0, 0, 0, 0, time.UTC),
	})
	contacts := newContactRepositoryStub()
	contacts.seed(Contact{ID: "contact-1", UserID: "user-1"})

	svc := newEventServiceForTest(repo, contacts, "", now)

	views, err := svc.ListEvents(context.Background(), Principal{UserID: "user-1"})
	if err != nil {
		t.Fatalf("ListEvents failed: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected the healed event in the listing, got %+v", views)
	}

	want := time.Date(2026, time.May, 20, 0, 0, 0, 0, time.UTC)
	if !views[0].Event.NextOccurrence.Equal(want) {
		t.Fatalf("expected the occurrence to advance to %v, got %v", want, views[0].Event.NextOccurrence)
	}
	if !views[0].Event.UpdatedAt.Equal(now) {
		t.Fatalf("expected the update timestamp to advance, got %v", views[0].Event.UpdatedAt)
	}
	stored := repo.events["event-stale"]
	if !stored.NextOccurrence.Equal(want) {
		t.Fatalf("expected the healed occurrence to be persisted, got %v", stored.NextOccurrence)
	}
	if repo.updateCalls != 1 {
		t.Fatalf("expected one repository update, got %d", repo.updateCalls)
	}

	// A second read finds nothing stale and writes nothing.
	if _, err := svc.ListEvents(context.Background(), Principal{UserID: "user-1"}); err != nil {
		t.Fatalf("second ListEvents failed: %v", err)
	}
	if repo.updateCalls != 1 {
		t.Fatalf("expected the refresh to be idempotent, got %d updates", repo.updateCalls)
	}
}
