package sqlite_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/example/relationship-reminder/internal/persistence"
	"github.com/example/relationship-reminder/internal/testfixtures"
)

func TestMigrateIsIdempotent(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	if err := harness.Storage.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate returned error: %v", err)
	}
	if err := harness.Storage.Ping(context.Background()); err != nil {
		t.Fatalf("Ping returned error: %v", err)
	}
}

func TestUserRepository(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	fixture := testfixtures.NewUserFixture()
	if err := harness.Users.CreateUser(ctx, fixture.Persistence()); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}

	got, err := harness.Users.GetUser(ctx, fixture.ID)
	if err != nil {
		t.Fatalf("GetUser returned error: %v", err)
	}
	if got != fixture.Persistence() {
		t.Fatalf("user round trip mismatch:\n got %+v\nwant %+v", got, fixture.Persistence())
	}

	byEmail, err := harness.Users.GetUserByEmail(ctx, fixture.Email)
	if err != nil {
		t.Fatalf("GetUserByEmail returned error: %v", err)
	}
	if byEmail.ID != fixture.ID {
		t.Fatalf("expected user %q, got %q", fixture.ID, byEmail.ID)
	}

	duplicate := testfixtures.NewUserFixture(testfixtures.WithUserEmail(fixture.Email))
	if err := harness.Users.CreateUser(ctx, duplicate.Persistence()); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for a reused email, got %v", err)
	}

	updated := fixture.Persistence()
	updated.Name = "Renamed"
	updated.UpdatedAt = fixture.UpdatedAt.Add(time.Hour)
	if err := harness.Users.UpdateUser(ctx, updated); err != nil {
		t.Fatalf("UpdateUser returned error: %v", err)
	}
	got, err = harness.Users.GetUser(ctx, fixture.ID)
	if err != nil {
		t.Fatalf("GetUser after update returned error: %v", err)
	}
	if got.Name != "Renamed" {
		t.Fatalf("expected the rename to stick, got %q", got.Name)
	}

	if err := harness.Users.DeleteUser(ctx, fixture.ID); err != nil {
		t.Fatalf("DeleteUser returned error: %v", err)
	}
	if _, err := harness.Users.GetUser(ctx, fixture.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestContactRepository(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	owner := testfixtures.NewUserFixture()
	other := testfixtures.NewUserFixture()
	mustCreateUser(t, harness, owner)
	mustCreateUser(t, harness, other)

	t.Run("enforces one phone per user", func(t *testing.T) {
		first := testfixtures.NewContactFixture(
			testfixtures.WithContactUserID(owner.ID),
			testfixtures.WithContactPhone("+1 555 7000"),
		)
		if err := harness.Contacts.CreateContact(ctx, first.Persistence()); err != nil {
			t.Fatalf("CreateContact returned error: %v", err)
		}

		same := testfixtures.NewContactFixture(
			testfixtures.WithContactUserID(owner.ID),
			testfixtures.WithContactPhone("+1 555 7000"),
		)
		if err := harness.Contacts.CreateContact(ctx, same.Persistence()); !errors.Is(err, persistence.ErrDuplicate) {
			t.Fatalf("expected ErrDuplicate for a reused phone, got %v", err)
		}

		elsewhere := testfixtures.NewContactFixture(
			testfixtures.WithContactUserID(other.ID),
			testfixtures.WithContactPhone("+1 555 7000"),
		)
		if err := harness.Contacts.CreateContact(ctx, elsewhere.Persistence()); err != nil {
			t.Fatalf("expected another user to reuse the phone, got %v", err)
		}
	})

	t.Run("rejects contacts for unknown users", func(t *testing.T) {
		orphan := testfixtures.NewContactFixture(testfixtures.WithContactUserID("no-such-user"))
		if err := harness.Contacts.CreateContact(ctx, orphan.Persistence()); !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
		}
	})

	t.Run("lists a user's contacts newest first", func(t *testing.T) {
		listOwner := testfixtures.NewUserFixture()
		mustCreateUser(t, harness, listOwner)

		older := testfixtures.NewContactFixture(testfixtures.WithContactUserID(listOwner.ID))
		newer := testfixtures.NewContactFixture(testfixtures.WithContactUserID(listOwner.ID))
		if err := harness.Contacts.CreateContact(ctx, older.Persistence()); err != nil {
			t.Fatalf("CreateContact returned error: %v", err)
		}
		if err := harness.Contacts.CreateContact(ctx, newer.Persistence()); err != nil {
			t.Fatalf("CreateContact returned error: %v", err)
		}

		contacts, err := harness.Contacts.ListContacts(ctx, listOwner.ID)
		if err != nil {
			t.Fatalf("ListContacts returned error: %v", err)
		}
		if len(contacts) != 2 {
			t.Fatalf("expected two contacts, got %d", len(contacts))
		}
		if contacts[0].ID != newer.ID || contacts[1].ID != older.ID {
			t.Fatalf("expected newest-first ordering, got %q then %q", contacts[0].ID, contacts[1].ID)
		}
	})

	t.Run("cascades contact deletion to events", func(t *testing.T) {
		cascadeOwner := testfixtures.NewUserFixture()
		mustCreateUser(t, harness, cascadeOwner)
		contact := testfixtures.NewContactFixture(testfixtures.WithContactUserID(cascadeOwner.ID))
		if err := harness.Contacts.CreateContact(ctx, contact.Persistence()); err != nil {
			t.Fatalf("CreateContact returned error: %v", err)
		}
		event := testfixtures.NewEventFixture(
			testfixtures.WithEventUserID(cascadeOwner.ID),
			testfixtures.WithEventContactID(contact.ID),
		)
		if err := harness.Events.CreateEvent(ctx, event.Persistence()); err != nil {
			t.Fatalf("CreateEvent returned error: %v", err)
		}

		if err := harness.Contacts.DeleteContact(ctx, contact.ID); err != nil {
			t.Fatalf("DeleteContact returned error: %v", err)
		}
		if _, err := harness.Events.GetEvent(ctx, event.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected the event to cascade away, got %v", err)
		}
	})
}

func TestEventRepository(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	owner := testfixtures.NewUserFixture()
	mustCreateUser(t, harness, owner)
	contact := testfixtures.NewContactFixture(testfixtures.WithContactUserID(owner.ID))
	if err := harness.Contacts.CreateContact(ctx, contact.Persistence()); err != nil {
		t.Fatalf("CreateContact returned error: %v", err)
	}

	t.Run("round trips an event including leap-day rules", func(t *testing.T) {
		fixture := testfixtures.NewEventFixture(
			testfixtures.WithEventUserID(owner.ID),
			testfixtures.WithEventContactID(contact.ID),
			testfixtures.WithEventOriginalDate(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)),
			testfixtures.WithEventNextOccurrence(time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)),
		)
		if err := harness.Events.CreateEvent(ctx, fixture.Persistence()); err != nil {
			t.Fatalf("CreateEvent returned error: %v", err)
		}

		got, err := harness.Events.GetEvent(ctx, fixture.ID)
		if err != nil {
			t.Fatalf("GetEvent returned error: %v", err)
		}
		if got != fixture.Persistence() {
			t.Fatalf("event round trip mismatch:\n got %+v\nwant %+v", got, fixture.Persistence())
		}
		if got.RecurringMonth != 2 || got.RecurringDay != 29 {
			t.Fatalf("expected the stored rule to keep day 29, got month=%d day=%d", got.RecurringMonth, got.RecurringDay)
		}
	})

	t.Run("rejects events for unknown contacts", func(t *testing.T) {
		orphan := testfixtures.NewEventFixture(
			testfixtures.WithEventUserID(owner.ID),
			testfixtures.WithEventContactID("no-such-contact"),
		)
		if err := harness.Events.CreateEvent(ctx, orphan.Persistence()); !errors.Is(err, persistence.ErrForeignKeyViolation) {
			t.Fatalf("expected ErrForeignKeyViolation, got %v", err)
		}
	})

	t.Run("filters by a half-open occurrence window", func(t *testing.T) {
		windowOwner := testfixtures.NewUserFixture()
		mustCreateUser(t, harness, windowOwner)
		windowContact := testfixtures.NewContactFixture(testfixtures.WithContactUserID(windowOwner.ID))
		if err := harness.Contacts.CreateContact(ctx, windowContact.Persistence()); err != nil {
			t.Fatalf("CreateContact returned error: %v", err)
		}

		occurrences := []time.Time{
			time.Date(2025, time.May, 31, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
			time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		}
		ids := make([]string, len(occurrences))
		for i, occurrence := range occurrences {
			fixture := testfixtures.NewEventFixture(
				testfixtures.WithEventUserID(windowOwner.ID),
				testfixtures.WithEventContactID(windowContact.ID),
				testfixtures.WithEventID(fmt.Sprintf("window-event-%d", i)),
				testfixtures.WithEventNextOccurrence(occurrence),
			)
			ids[i] = fixture.ID
			if err := harness.Events.CreateEvent(ctx, fixture.Persistence()); err != nil {
				t.Fatalf("CreateEvent returned error: %v", err)
			}
		}

		from := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)
		before := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
		events, err := harness.Events.ListEvents(ctx, persistence.EventFilter{
			UserID:       windowOwner.ID,
			OccursFrom:   &from,
			OccursBefore: &before,
		})
		if err != nil {
			t.Fatalf("ListEvents returned error: %v", err)
		}
		if len(events) != 2 {
			t.Fatalf("expected two events in the window, got %d", len(events))
		}
		if events[0].ID != ids[1] || events[1].ID != ids[2] {
			t.Fatalf("expected the window boundaries to be half open, got %q then %q", events[0].ID, events[1].ID)
		}
	})

	t.Run("deletes all events for a contact", func(t *testing.T) {
		bulkContact := testfixtures.NewContactFixture(testfixtures.WithContactUserID(owner.ID))
		if err := harness.Contacts.CreateContact(ctx, bulkContact.Persistence()); err != nil {
			t.Fatalf("CreateContact returned error: %v", err)
		}
		for i := 0; i < 3; i++ {
			fixture := testfixtures.NewEventFixture(
				testfixtures.WithEventUserID(owner.ID),
				testfixtures.WithEventContactID(bulkContact.ID),
			)
			if err := harness.Events.CreateEvent(ctx, fixture.Persistence()); err != nil {
				t.Fatalf("CreateEvent returned error: %v", err)
			}
		}

		if err := harness.Events.DeleteEventsForContact(ctx, bulkContact.ID); err != nil {
			t.Fatalf("DeleteEventsForContact returned error: %v", err)
		}
		remaining, err := harness.Events.ListEvents(ctx, persistence.EventFilter{ContactID: bulkContact.ID})
		if err != nil {
			t.Fatalf("ListEvents returned error: %v", err)
		}
		if len(remaining) != 0 {
			t.Fatalf("expected no events left, got %d", len(remaining))
		}

		// Deleting for a contact with no events is not an error.
		if err := harness.Events.DeleteEventsForContact(ctx, bulkContact.ID); err != nil {
			t.Fatalf("expected a second cascade to be a no-op, got %v", err)
		}
	})
}

func TestTemplateRepository(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	owner := testfixtures.NewUserFixture()
	stranger := testfixtures.NewUserFixture()
	mustCreateUser(t, harness, owner)
	mustCreateUser(t, harness, stranger)

	system := testfixtures.NewTemplateFixture()
	custom := testfixtures.NewTemplateFixture(testfixtures.WithTemplateOwner(owner.ID))
	foreign := testfixtures.NewTemplateFixture(testfixtures.WithTemplateOwner(stranger.ID))
	for _, fixture := range []testfixtures.TemplateFixture{system, custom, foreign} {
		if err := harness.Templates.CreateTemplate(ctx, fixture.Persistence()); err != nil {
			t.Fatalf("CreateTemplate returned error: %v", err)
		}
	}

	t.Run("lists system templates plus the owner's custom ones", func(t *testing.T) {
		templates, err := harness.Templates.ListTemplates(ctx, owner.ID)
		if err != nil {
			t.Fatalf("ListTemplates returned error: %v", err)
		}
		if len(templates) != 2 {
			t.Fatalf("expected two visible templates, got %d", len(templates))
		}
		if templates[0].ID != system.ID || templates[1].ID != custom.ID {
			t.Fatalf("expected system-first ordering, got %q then %q", templates[0].ID, templates[1].ID)
		}
	})

	t.Run("upsert keeps a stable ID across reseeds", func(t *testing.T) {
		seed := testfixtures.NewTemplateFixture(testfixtures.WithTemplateTitle("Upsert probe"))
		if err := harness.Templates.UpsertSystemTemplate(ctx, seed.Persistence()); err != nil {
			t.Fatalf("UpsertSystemTemplate returned error: %v", err)
		}

		refreshed := seed.Persistence()
		refreshed.ID = "template-reseeded"
		refreshed.Body = "An updated body."
		if err := harness.Templates.UpsertSystemTemplate(ctx, refreshed); err != nil {
			t.Fatalf("second UpsertSystemTemplate returned error: %v", err)
		}

		got, err := harness.Templates.GetTemplate(ctx, seed.ID)
		if err != nil {
			t.Fatalf("GetTemplate returned error: %v", err)
		}
		if got.Body != "An updated body." {
			t.Fatalf("expected the body to refresh in place, got %q", got.Body)
		}
		if _, err := harness.Templates.GetTemplate(ctx, "template-reseeded"); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected no duplicate row under the new ID, got %v", err)
		}
	})

	t.Run("seeding the catalog twice installs each template once", func(t *testing.T) {
		seedHarness := testfixtures.NewSQLiteHarness(t)
		ids := testfixtures.NewIDGenerator("seed")
		now := func() time.Time { return testfixtures.ReferenceTime() }

		if err := seedHarness.Storage.Seed(ctx, ids.Next, now); err != nil {
			t.Fatalf("Seed returned error: %v", err)
		}
		first, err := seedHarness.Templates.ListTemplates(ctx, "")
		if err != nil {
			t.Fatalf("ListTemplates returned error: %v", err)
		}

		if err := seedHarness.Storage.Seed(ctx, ids.Next, now); err != nil {
			t.Fatalf("second Seed returned error: %v", err)
		}
		second, err := seedHarness.Templates.ListTemplates(ctx, "")
		if err != nil {
			t.Fatalf("ListTemplates returned error: %v", err)
		}

		if len(first) == 0 || len(first) != len(second) {
			t.Fatalf("expected an idempotent seed, got %d then %d templates", len(first), len(second))
		}
	})

	t.Run("deletes templates", func(t *testing.T) {
		if err := harness.Templates.DeleteTemplate(ctx, custom.ID); err != nil {
			t.Fatalf("DeleteTemplate returned error: %v", err)
		}
		if _, err := harness.Templates.GetTemplate(ctx, custom.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected ErrNotFound after delete, got %v", err)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	t.Parallel()

	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	owner := testfixtures.NewUserFixture()
	mustCreateUser(t, harness, owner)

	t.Run("round trips and rotates a session", func(t *testing.T) {
		fixture := testfixtures.NewSessionFixture(testfixtures.WithSessionUserID(owner.ID))
		created, err := harness.Sessions.CreateSession(ctx, fixture.Persistence())
		if err != nil {
			t.Fatalf("CreateSession returned error: %v", err)
		}
		if created.Token != fixture.Token {
			t.Fatalf("expected token %q, got %q", fixture.Token, created.Token)
		}

		rotated := created
		rotated.Token = fixture.Token + "-rotated"
		rotated.ExpiresAt = created.ExpiresAt.Add(time.Hour)
		rotated.UpdatedAt = created.UpdatedAt.Add(time.Minute)
		updated, err := harness.Sessions.UpdateSession(ctx, rotated)
		if err != nil {
			t.Fatalf("UpdateSession returned error: %v", err)
		}
		if updated.Token != rotated.Token {
			t.Fatalf("expected the rotated token, got %q", updated.Token)
		}

		if _, err := harness.Sessions.GetSession(ctx, fixture.Token); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected the old token to be dead, got %v", err)
		}
	})

	t.Run("revokes by token", func(t *testing.T) {
		fixture := testfixtures.NewSessionFixture(testfixtures.WithSessionUserID(owner.ID))
		if _, err := harness.Sessions.CreateSession(ctx, fixture.Persistence()); err != nil {
			t.Fatalf("CreateSession returned error: %v", err)
		}

		revokedAt := fixture.CreatedAt.Add(time.Hour)
		revoked, err := harness.Sessions.RevokeSession(ctx, fixture.Token, revokedAt)
		if err != nil {
			t.Fatalf("RevokeSession returned error: %v", err)
		}
		if revoked.RevokedAt == nil || !revoked.RevokedAt.Equal(revokedAt) {
			t.Fatalf("expected revoked_at %v, got %v", revokedAt, revoked.RevokedAt)
		}
	})

	t.Run("deletes sessions expired at or before the reference", func(t *testing.T) {
		reference := testfixtures.ReferenceTime().Add(72 * time.Hour)

		expired := testfixtures.NewSessionFixture(
			testfixtures.WithSessionUserID(owner.ID),
			testfixtures.WithSessionExpiresAt(reference.Add(-time.Second)),
		)
		boundary := testfixtures.NewSessionFixture(
			testfixtures.WithSessionUserID(owner.ID),
			testfixtures.WithSessionExpiresAt(reference),
		)
		alive := testfixtures.NewSessionFixture(
			testfixtures.WithSessionUserID(owner.ID),
			testfixtures.WithSessionExpiresAt(reference.Add(time.Second)),
		)
		for _, fixture := range []testfixtures.SessionFixture{expired, boundary, alive} {
			if _, err := harness.Sessions.CreateSession(ctx, fixture.Persistence()); err != nil {
				t.Fatalf("CreateSession returned error: %v", err)
			}
		}

		if err := harness.Sessions.DeleteExpiredSessions(ctx, reference); err != nil {
			t.Fatalf("DeleteExpiredSessions returned error: %v", err)
		}

		if _, err := harness.Sessions.GetSession(ctx, expired.Token); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected the expired session to be gone, got %v", err)
		}
		if _, err := harness.Sessions.GetSession(ctx, boundary.Token); !errors.Is(err, persistence.ErrNotFound) {
			t.Fatalf("expected the boundary session to be gone, got %v", err)
		}
		if _, err := harness.Sessions.GetSession(ctx, alive.Token); err != nil {
			t.Fatalf("expected the live session to survive, got %v", err)
		}
	})
}

func mustCreateUser(t *testing.T, harness *testfixtures.SQLiteHarness, fixture testfixtures.UserFixture) {
	t.Helper()
	if err := harness.Users.CreateUser(context.Background(), fixture.Persistence()); err != nil {
		t.Fatalf("CreateUser returned error: %v", err)
	}
}
