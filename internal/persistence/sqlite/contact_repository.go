package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/relationship-reminder/internal/persistence"
)

// ContactRepository implements persistence.ContactRepository using SQLite.
type ContactRepository struct {
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewContactRepository creates a new SQLite contact repository.
func NewContactRepository(pool *ConnectionPool) *ContactRepository {
	return &ContactRepository{
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateContact inserts a new contact. A (user_id, phone) uniqueness
// constraint surfaces as persistence.ErrDuplicate.
func (r *ContactRepository) CreateContact(ctx context.Context, contact persistence.Contact) error {
	if contact.ID == "" || contact.UserID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO contacts (id, user_id, name, phone, relation, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		contact.ID,
		contact.UserID,
		contact.Name,
		contact.Phone,
		contact.Relation,
		contact.Notes,
		formatTime(contact.CreatedAt),
		formatTime(contact.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetContact retrieves a contact by ID.
func (r *ContactRepository) GetContact(ctx context.Context, id string) (persistence.Contact, error) {
	if id == "" {
		return persistence.Contact{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, user_id, name, phone, relation, notes, created_at, updated_at
		FROM contacts
		WHERE id = ?
	`

	var contact persistence.Contact
	var createdAtStr, updatedAtStr string

	err := r.helper.QueryRow(ctx, query, id).Scan(
		&contact.ID,
		&contact.UserID,
		&contact.Name,
		&contact.Phone,
		&contact.Relation,
		&contact.Notes,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Contact{}, persistence.ErrNotFound
		}
		return persistence.Contact{}, r.mapper.MapError(err)
	}

	if contact.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Contact{}, err
	}
	if contact.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Contact{}, err
	}

	return contact, nil
}

// UpdateContact updates an existing contact.
func (r *ContactRepository) UpdateContact(ctx context.Context, contact persistence.Contact) error {
	if contact.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		UPDATE contacts
		SET name = ?, phone = ?, relation = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		contact.Name,
		contact.Phone,
		contact.Relation,
		contact.Notes,
		formatTime(contact.UpdatedAt),
		contact.ID,
	)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// DeleteContact removes a contact by ID. The contact's events cascade via
// the schema's foreign key.
func (r *ContactRepository) DeleteContact(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM contacts WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// ListContacts returns all contacts belonging to a user, newest first.
func (r *ContactRepository) ListContacts(ctx context.Context, userID string) ([]persistence.Contact, error) {
	query := `
		SELECT id, user_id, name, phone, relation, notes, created_at, updated_at
		FROM contacts
		WHERE user_id = ?
		ORDER BY created_at DESC, id ASC
	`

	rows, err := r.helper.Query(ctx, query, userID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var contacts []persistence.Contact
	for rows.Next() {
		var contact persistence.Contact
		var createdAtStr, updatedAtStr string

		err := rows.Scan(
			&contact.ID,
			&contact.UserID,
			&contact.Name,
			&contact.Phone,
			&contact.Relation,
			&contact.Notes,
			&createdAtStr,
			&updatedAtStr,
		)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}

		if contact.CreatedAt, err = parseTime(createdAtStr); err != nil {
			return nil, err
		}
		if contact.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
			return nil, err
		}

		contacts = append(contacts, contact)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return contacts, nil
}
