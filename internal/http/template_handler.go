package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/relationship-reminder/internal/application"
)

type templateService interface {
	CreateTemplate(ctx context.Context, params application.CreateTemplateParams) (application.Template, error)
	ListTemplates(ctx context.Context, params application.ListTemplatesParams) ([]application.Template, error)
	DeleteTemplate(ctx context.Context, principal application.Principal, templateID string) error
}

type TemplateHandler struct {
	service   templateService
	responder responder
	logger    *slog.Logger
}

func NewTemplateHandler(service templateService, logger *slog.Logger) *TemplateHandler {
	base := defaultLogger(logger)
	return &TemplateHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TemplateHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TemplateHandler", operation, attrs...)
}

func (h *TemplateHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req templateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode template request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	template, err := h.service.CreateTemplate(r.Context(), application.CreateTemplateParams{
		Principal: principal,
		Input: application.TemplateInput{
			Title:     req.Title,
			Body:      req.Body,
			Category:  application.TemplateCategory(req.Category),
			EventType: req.EventType,
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create template", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("template_id", template.ID).InfoContext(r.Context(), "template created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toTemplateDTO(template))
}

func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	query := r.URL.Query()
	params := application.ListTemplatesParams{
		Principal: principal,
		Category:  application.TemplateCategory(strings.TrimSpace(query.Get("category"))),
		EventType: strings.TrimSpace(query.Get("event_type")),
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	templates, err := h.service.ListTemplates(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list templates", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]templateDTO, 0, len(templates))
	for _, template := range templates {
		dtos = append(dtos, toTemplateDTO(template))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, templateListResponse{Templates: dtos})
}

func (h *TemplateHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	templateID, ok := TemplateIDFromContext(r.Context())
	if !ok || strings.TrimSpace(templateID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTemplateID)
		return
	}

	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "template_id", templateID)

	if err := h.service.DeleteTemplate(r.Context(), principal, templateID); err != nil {
		logger.ErrorContext(r.Context(), "failed to delete template", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "template deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type templateRequest struct {
	Title     string `json:"title"`
	Body      string `json:"body"`
	Category  string `json:"category"`
	EventType string `json:"event_type"`
}

type templateDTO struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Category  string `json:"category"`
	EventType string `json:"event_type"`
	IsSystem  bool   `json:"is_system"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type templateListResponse struct {
	Templates []templateDTO `json:"templates"`
}

func toTemplateDTO(template application.Template) templateDTO {
	return templateDTO{
		ID:        template.ID,
		Title:     template.Title,
		Body:      template.Body,
		Category:  string(template.Category),
		EventType: template.EventType,
		IsSystem:  template.IsSystem(),
		CreatedAt: template.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: template.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
