package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/example/relationship-reminder/internal/persistence"
)

// TemplateRepository implements persistence.TemplateRepository using SQLite.
type TemplateRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewTemplateRepository creates a new SQLite template repository.
func NewTemplateRepository(pool *ConnectionPool) *TemplateRepository {
	return &TemplateRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateTemplate inserts a new template.
func (r *TemplateRepository) CreateTemplate(ctx context.Context, template persistence.Template) error {
	if template.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO templates (id, owner_id, title, body, category, event_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		template.ID,
		nullableString(template.OwnerID),
		template.Title,
		template.Body,
		template.Category,
		template.EventType,
		formatTime(template.CreatedAt),
		formatTime(template.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetTemplate retrieves a template by ID.
func (r *TemplateRepository) GetTemplate(ctx context.Context, id string) (persistence.Template, error) {
	if id == "" {
		return persistence.Template{}, persistence.ErrNotFound
	}

	query := `
		SELECT id, owner_id, title, body, category, event_type, created_at, updated_at
		FROM templates
		WHERE id = ?
	`

	template, err := scanTemplateRow(r.helper.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return persistence.Template{}, persistence.ErrNotFound
		}
		return persistence.Template{}, r.mapper.MapError(err)
	}
	return template, nil
}

// DeleteTemplate removes a template by ID.
func (r *TemplateRepository) DeleteTemplate(ctx context.Context, id string) error {
	if id == "" {
		return persistence.ErrNotFound
	}

	result, err := r.helper.Exec(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return r.mapper.MapError(err)
	}
	return requireRowsAffected(result)
}

// ListTemplates returns every system template plus the templates owned by
// ownerID, system templates first, each group oldest first.
func (r *TemplateRepository) ListTemplates(ctx context.Context, ownerID string) ([]persistence.Template, error) {
	query := `
		SELECT id, owner_id, title, body, category, event_type, created_at, updated_at
		FROM templates
		WHERE owner_id IS NULL OR owner_id = ?
		ORDER BY owner_id IS NOT NULL, created_at ASC, id ASC
	`

	rows, err := r.helper.Query(ctx, query, ownerID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var templates []persistence.Template
	for rows.Next() {
		template, err := scanTemplateRow(rows.Scan)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		templates = append(templates, template)
	}

	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return templates, nil
}

// UpsertSystemTemplate installs a system template or refreshes the existing
// one with the same title. The ID of an already installed template is kept
// stable across reseeds.
func (r *TemplateRepository) UpsertSystemTemplate(ctx context.Context, template persistence.Template) error {
	if template.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		var existingID string
		err := r.helper.QueryRowTx(tx,
			`SELECT id FROM templates WHERE owner_id IS NULL AND title = ?`,
			template.Title,
		).Scan(&existingID)

		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = r.helper.ExecTx(tx, `
				INSERT INTO templates (id, owner_id, title, body, category, event_type, created_at, updated_at)
				VALUES (?, NULL, ?, ?, ?, ?, ?, ?)
			`,
				template.ID,
				template.Title,
				template.Body,
				template.Category,
				template.EventType,
				formatTime(template.CreatedAt),
				formatTime(template.UpdatedAt),
			)
			return r.mapper.MapError(err)
		case err != nil:
			return r.mapper.MapError(err)
		default:
			_, err = r.helper.ExecTx(tx, `
				UPDATE templates
				SET body = ?, category = ?, event_type = ?, updated_at = ?
				WHERE id = ?
			`,
				template.Body,
				template.Category,
				template.EventType,
				formatTime(template.UpdatedAt),
				existingID,
			)
			return r.mapper.MapError(err)
		}
	})
}

func scanTemplateRow(scan func(dest ...any) error) (persistence.Template, error) {
	var template persistence.Template
	var ownerID sql.NullString
	var createdAtStr, updatedAtStr string

	err := scan(
		&template.ID,
		&ownerID,
		&template.Title,
		&template.Body,
		&template.Category,
		&template.EventType,
		&createdAtStr,
		&updatedAtStr,
	)
	if err != nil {
		return persistence.Template{}, err
	}

	if ownerID.Valid {
		owner := ownerID.String
		template.OwnerID = &owner
	}
	if template.CreatedAt, err = parseTime(createdAtStr); err != nil {
		return persistence.Template{}, err
	}
	if template.UpdatedAt, err = parseTime(updatedAtStr); err != nil {
		return persistence.Template{}, err
	}

	return template, nil
}
