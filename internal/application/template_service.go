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
)

// TemplateRepository captures the persistence operations needed by the service.
type TemplateRepository interface {
	CreateTemplate(ctx context.Context, template Template) (Template, error)
	GetTemplate(ctx context.Context, id string) (Template, error)
	DeleteTemplate(ctx context.Context, id string) error
	// ListTemplates returns every system template plus the templates owned
	// by ownerID.
	ListTemplates(ctx context.Context, ownerID string) ([]Template, error)
}

// TemplateService orchestrates validation, authorization, and persistence for
// greeting templates. System templates are shared and immutable; custom
// templates belong to the user who created them.
type TemplateService struct {
	templates   TemplateRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTemplateService constructs a template service with the provided dependencies.
func NewTemplateService(templates TemplateRepository, idGenerator func() string, now func() time.Time) *TemplateService {
	return NewTemplateServiceWithLogger(templates, idGenerator, now, nil)
}

// NewTemplateServiceWithLogger constructs a template service with a specified logger.
func NewTemplateServiceWithLogger(templates TemplateRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TemplateService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TemplateService{templates: templates, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *TemplateService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TemplateService", operation, attrs...)
}

// CreateTemplate validates input and persists a new custom template owned by
// the principal.
func (s *TemplateService) CreateTemplate(ctx context.Context, params CreateTemplateParams) (template Template, err error) {
	if s == nil {
		err = fmt.Errorf("TemplateService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateTemplate",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to create template", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("template_id", template.ID).InfoContext(ctx, "template created")
	}()

	if params.Principal.UserID == "" {
		err = ErrUnauthorized
		return
	}

	normalized := normalizeTemplateInput(params.Input)
	vErr := validateTemplateInput(normalized)
	if vErr.HasErrors() {
		err = vErr
		return
	}

	ownerID := params.Principal.UserID
	template = Template{
		ID:        s.idGenerator(),
		OwnerID:   &ownerID,
		Title:     normalized.Title,
		Body:      normalized.Body,
		Category:  normalized.Category,
		EventType: normalized.EventType,
		CreatedAt: s.now(),
	}
	template.UpdatedAt = template.CreatedAt

	if s.templates == nil {
		return
	}

	var persisted Template
	persisted, err = s.templates.CreateTemplate(ctx, template)
	if err != nil {
		err = mapTemplateRepoError(err)
		return
	}

	template = persisted
	return
}

// ListTemplates returns the templates visible to the principal, optionally
// narrowed by category and event type. An event type filter matches
// templates declared for that exact type as well as templates declared for
// all types. System templates sort ahead of custom ones.
func (s *TemplateService) ListTemplates(ctx context.Context, params ListTemplatesParams) (templates []Template, err error) {
	if s == nil {
		err = fmt.Errorf("TemplateService is nil")
		return
	}
	if s.templates == nil {
		return nil, nil
	}

	logger := s.loggerWith(ctx, "ListTemplates",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to list templates", "error", err, "error_kind", ErrorKind(err))
			return
		}
		logger.With("result_count", len(templates)).InfoContext(ctx, "templates listed")
	}()

	category := TemplateCategory(strings.TrimSpace(string(params.Category)))
	eventType := strings.TrimSpace(params.EventType)

	vErr := &ValidationError{}
	if category != "" {
		if _, ok := ValidTemplateCategories[category]; !ok {
			vErr.add("category", "category is not a recognized value")
		}
	}
	if eventType != "" && eventType != TemplateEventTypeAll {
		if _, ok := ValidEventTypes[EventType(eventType)]; !ok {
			vErr.add("event_type", "event type is not a recognized value")
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	var raw []Template
	raw, err = s.templates.ListTemplates(ctx, params.Principal.UserID)
	if err != nil {
		if isNotFoundError(err) {
			err = nil
			return
		}
		return
	}

	filtered := make([]Template, 0, len(raw))
	for _, template := range raw {
		if category != "" && template.Category != category {
			continue
		}
		if eventType != "" && template.EventType != eventType && template.EventType != TemplateEventTypeAll {
			continue
		}
		filtered = append(filtered, template)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].IsSystem() != filtered[j].IsSystem() {
			return filtered[i].IsSystem()
		}
		if filtered[i].CreatedAt.Equal(filtered[j].CreatedAt) {
			return filtered[i].ID < filtered[j].ID
		}
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	templates = filtered
	return
}

// DeleteTemplate removes a custom template owned by the principal. System
// templates cannot be deleted.
func (s *TemplateService) DeleteTemplate(ctx context.Context, principal Principal, templateID string) error {
	if s == nil {
		return fmt.Errorf("TemplateService is nil")
	}
	if s.templates == nil {
		return fmt.Errorf("template repository not configured")
	}

	logger := s.loggerWith(ctx, "DeleteTemplate",
		"principal_id", principal.UserID,
		"template_id", templateID,
	)

	existing, err := s.templates.GetTemplate(ctx, templateID)
	if err != nil {
		err = mapTemplateRepoError(err)
		logger.ErrorContext(ctx, "failed to delete template", "error", err, "error_kind", ErrorKind(err))
		return err
	}
	if existing.IsSystem() || *existing.OwnerID != principal.UserID {
		logger.ErrorContext(ctx, "failed to delete template", "error", ErrUnauthorized, "error_kind", ErrorKind(ErrUnauthorized))
		return ErrUnauthorized
	}

	if err := s.templates.DeleteTemplate(ctx, templateID); err != nil {
		err = mapTemplateRepoError(err)
		logger.ErrorContext(ctx, "failed to delete template", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "template deleted")
	return nil
}

func normalizeTemplateInput(input TemplateInput) TemplateInput {
	return TemplateInput{
		Title:     strings.TrimSpace(input.Title),
		Body:      strings.TrimSpace(input.Body),
		Category:  TemplateCategory(strings.TrimSpace(string(input.Category))),
		EventType: strings.TrimSpace(input.EventType),
	}
}

func validateTemplateInput(input TemplateInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Title == "" {
		vErr.add("title", "title is required")
	} else if len(input.Title) > 100 {
		vErr.add("title", "title must be at most 100 characters")
	}

	if input.Body == "" {
		vErr.add("body", "body is required")
	} else if len(input.Body) > 1000 {
		vErr.add("body", "body must be at most 1000 characters")
	}

	if input.Category == "" {
		vErr.add("category", "category is required")
	} else if _, ok := ValidTemplateCategories[input.Category]; !ok {
		vErr.add("category", "category is not a recognized value")
	}

	if input.EventType == "" {
		vErr.add("event_type", "event type is required")
	} else if input.EventType != TemplateEventTypeAll {
		if _, ok := ValidEventTypes[EventType(input.EventType)]; !ok {
			vErr.add("event_type", "event type is not a recognized value")
		}
	}

	return vErr
}

func mapTemplateRepoError(err error) error {
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
		return ErrAlreadyExists
	}
	return err
}
