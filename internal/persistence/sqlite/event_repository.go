package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/example/relationship-reminder/internal/persistence"
)

// EventRepository implements persistence.EventRepository using SQLite.
type EventRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewEventRepository creates a new SQLite event repository.
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

const eventColumns = `id, user_id, contact_id, title, type, original_date, notes,
	recurring_month, recurring_day, next_occurrence, created_at, updated_at`

// CreateEvent inserts a new event with its derived recurrence fields.
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" || event.UserID == "" || event.ContactID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		event.ID,
		event.UserID,
		event.ContactID,
		event.Title,
		event.Type,
		formatDate(event.OriginalDate),
		event.Notes,
		event.RecurringMonth,
		event.RecurringDay,
		formatDate(event.NextOccurrence),
		formatTime(event.CreatedAt),
		formatTime(event.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetEvent retrieves an event by ID.
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	if id == "" {
		return persistence.Event{}, persistence.ErrNotFound
	}

	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`

	row := r.helper.QueryRow(ctx, query, id)
	event, err := scanEventRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Event{}, persistence.ErrNotFound
		}
		return persistence.Event{}, r.mapper.MapError(err)
	}
	return event, nil
}

// UpdateEvent updates an existing event, including its derived fields.
func (r *EventRepository) UpdateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE events
		SET contact_id = ?, title = ?, type = ?, original_date = ?, notes = ?,
			recurring_month = ?, recurring_day = ?, next_occurrence = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		event.ContactID,
		event.Title,
		event.Type,
		formatDate(event.OriginalDate),
		event.Notes,
		event.RecurringMonth,
		event.RecurringDay,
		formatDate(event.NextOccurrence),
		formatTime(event.UpdatedAt),
		event.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// DeleteEvent removes an event by ID.
func (r *EventRepository) DeleteEvent(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// DeleteEventsForContact removes every event linked to a contact. Deleting
// zero rows is not an error.
func (r *EventRepository) DeleteEventsForContact(ctx context.Context, contactID string) error {
	if contactID == "" {
		return nil
	}

	_, err := r.helper.Exec(ctx, `DELETE FROM events WHERE contact_id = ?`, contactID)
	return r.mapper.MapError(err)
}

// ListEvents returns events matching the filter ordered by next occurrence.
// The occurrence bounds form a half-open interval; the date-only column
// encoding makes the string comparison equivalent to a date comparison.
func (r *EventRepository) ListEvents(ctx context.Context, filter persistence.EventFilter) ([]persistence.Event, error) {
	var conditions []string
	var args []any

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.ContactID != "" {
		conditions = append(conditions, "contact_id = ?")
		args = append(args, filter.ContactID)
	}
	if filter.OccursFrom != nil {
		conditions = append(conditions, "next_occurrence >= ?")
		args = append(args, formatDate(*filter.OccursFrom))
	}
	if filter.OccursBefore != nil {
		conditions = append(conditions, "next_occurrence < ?")
		args = append(args, formatDate(*filter.OccursBefore))
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY next_occurrence ASC, id ASC"

	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var events []persistence.Event
	for rows.Next() {
		event, err := scanEventRow(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return events, nil
}

func scanEventRow(scan func(dest ...any) error) (persistence.Event, error) {
	var event persistence.Event
	var originalDateStr, nextOccurrenceStr, createdAtStr, updatedAtStr string

	err := scan(
		&event.ID,
		&event.UserID,
		&event.ContactID,
		&event.Title,
		&event.Type,
		&originalDateStr,
		&event.Notes,
		&event.RecurringMonth,
		&event.RecurringDay,
		&nextOccurrenceStr,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Event{}, err
	}

	if event.OriginalDate, err = parseDate(originalDateStr); err != nil {
		return persistence.Event{}, err
	}
	if event.NextOccurrence, err = parseDate(nextOccurrenceStr); err != nil {
		return persistence.Event{}, err
	}
	if event.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Event{}, err
	}
	if event.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Event{}, err
	}

	return event, nil
}
