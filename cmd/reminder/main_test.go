package main

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/example/relationship-reminder/internal/application"
	"github.com/example/relationship-reminder/internal/testfixtures"
)

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"unknown": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for input, want := range cases {
		if got := parseLogLevel(input); got != want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestEventConversionRoundTrip(t *testing.T) {
	fixture := testfixtures.NewEventFixture(
		testfixtures.WithEventOriginalDate(time.Date(2024, time.February, 29, 0, 0, 0, 0, time.UTC)),
		testfixtures.WithEventNextOccurrence(time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC)),
	)
	original := fixture.Application()

	converted := toApplicationEvent(toPersistenceEvent(original))
	if converted != original {
		t.Fatalf("event round trip mismatch:\n got %+v\nwant %+v", converted, original)
	}
	if converted.RecurringMonth != time.February || converted.RecurringDay != 29 {
		t.Fatalf("unexpected recurrence fields: month=%v day=%d", converted.RecurringMonth, converted.RecurringDay)
	}
}

func TestTemplateConversionPreservesOwnership(t *testing.T) {
	system := testfixtures.NewTemplateFixture().Application()
	if got := toApplicationTemplate(toPersistenceTemplate(system)); got.OwnerID != nil {
		t.Fatalf("expected system template to stay ownerless, got owner %q", *got.OwnerID)
	}

	custom := testfixtures.NewTemplateFixture(testfixtures.WithTemplateOwner("user-042")).Application()
	converted := toApplicationTemplate(toPersistenceTemplate(custom))
	if converted.OwnerID == nil || *converted.OwnerID != "user-042" {
		t.Fatalf("expected owner user-042, got %v", converted.OwnerID)
	}
	if converted.OwnerID == custom.OwnerID {
		t.Fatal("expected the owner pointer to be cloned, not shared")
	}
}

func TestAdaptersAgainstSQLiteStorage(t *testing.T) {
	harness := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	users := newCredentialStoreAdapter(harness.Users)
	contacts := newContactRepositoryAdapter(harness.Contacts)
	events := newEventRepositoryAdapter(harness.Events)

	userFixture := testfixtures.NewUserFixture()
	creds, err := users.CreateUserCredentials(ctx, userFixture.Credentials())
	if err != nil {
		t.Fatalf("CreateUserCredentials returned error: %v", err)
	}
	if creds.PasswordHash != userFixture.PasswordHash {
		t.Fatalf("expected password hash to round trip, got %q", creds.PasswordHash)
	}

	byEmail, err := users.GetUserCredentialsByEmail(ctx, userFixture.Email)
	if err != nil {
		t.Fatalf("GetUserCredentialsByEmail returned error: %v", err)
	}
	if byEmail.User.ID != userFixture.ID {
		t.Fatalf("expected user %q, got %q", userFixture.ID, byEmail.User.ID)
	}

	contactFixture := testfixtures.NewContactFixture(testfixtures.WithContactUserID(userFixture.ID))
	contact, err := contacts.CreateContact(ctx, contactFixture.Application())
	if err != nil {
		t.Fatalf("CreateContact returned error: %v", err)
	}
	if contact.Relation != contactFixture.Relation {
		t.Fatalf("expected relation %q, got %q", contactFixture.Relation, contact.Relation)
	}

	eventFixture := testfixtures.NewEventFixture(
		testfixtures.WithEventUserID(userFixture.ID),
		testfixtures.WithEventContactID(contact.ID),
	)
	event, err := events.CreateEvent(ctx, eventFixture.Application())
	if err != nil {
		t.Fatalf("CreateEvent returned error: %v", err)
	}

	listed, err := events.ListEvents(ctx, application.EventRepositoryFilter{UserID: userFixture.ID})
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != event.ID {
		t.Fatalf("expected the created event in the listing, got %+v", listed)
	}

	forContact, err := events.ListEventsForContact(ctx, contact.ID)
	if err != nil {
		t.Fatalf("ListEventsForContact returned error: %v", err)
	}
	if len(forContact) != 1 {
		t.Fatalf("expected one event for contact, got %d", len(forContact))
	}

	if err := events.DeleteEventsForContact(ctx, contact.ID); err != nil {
		t.Fatalf("DeleteEventsForContact returned error: %v", err)
	}
	remaining, err := events.ListEvents(ctx, application.EventRepositoryFilter{UserID: userFixture.ID})
	if err != nil {
		t.Fatalf("ListEvents returned error: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no events after cascade delete, got %d", len(remaining))
	}
}
