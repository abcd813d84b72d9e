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

type contactService interface {
	CreateContact(ctx context.Context, params application.CreateContactParams) (application.Contact, error)
	GetContact(ctx context.Context, principal application.Principal, contactID string) (application.ContactDetail, error)
	UpdateContact(ctx context.Context, params application.UpdateContactParams) (application.Contact, error)
	DeleteContact(ctx context.Context, principal application.Principal, contactID string) error
	ListContacts(ctx context.Context, principal application.Principal) ([]application.Contact, error)
}

type ContactHandler struct {
	service   contactService
	responder responder
	logger    *slog.Logger
}

func NewContactHandler(service contactService, logger *slog.Logger) *ContactHandler {
	base := defaultLogger(logger)
	return &ContactHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ContactHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ContactHandler", operation, attrs...)
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode contact request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	contact, err := h.service.CreateContact(r.Context(), application.CreateContactParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create contact", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("contact_id", contact.ID).InfoContext(r.Context(), "contact created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toContactDTO(contact))
}

func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	logger := h.log(r.Context(), "List", "principal_id", principal.UserID)

	contacts, err := h.service.ListContacts(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list contacts", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]contactDTO, 0, len(contacts))
	for _, contact := range contacts {
		dtos = append(dtos, toContactDTO(contact))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, contactListResponse{Contacts: dtos})
}

func (h *ContactHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	contactID, ok := ContactIDFromContext(r.Context())
	if !ok || strings.TrimSpace(contactID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidContactID)
		return
	}

	logger := h.log(r.Context(), "Get", "principal_id", principal.UserID, "contact_id", contactID)

	detail, err := h.service.GetContact(r.Context(), principal, contactID)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to get contact", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	events := make([]eventDTO, 0, len(detail.Events))
	for _, event := range detail.Events {
		events = append(events, toEventDTO(event))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, contactDetailResponse{
		Contact: toContactDTO(detail.Contact),
		Events:  events,
	})
}

func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	contactID, ok := ContactIDFromContext(r.Context())
	if !ok || strings.TrimSpace(contactID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidContactID)
		return
	}

	var req contactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode contact request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "contact_id", contactID)

	contact, err := h.service.UpdateContact(r.Context(), application.UpdateContactParams{
		Principal: principal,
		ContactID: contactID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update contact", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "contact updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toContactDTO(contact))
}

func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	contactID, ok := ContactIDFromContext(r.Context())
	if !ok || strings.TrimSpace(contactID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidContactID)
		return
	}

	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "contact_id", contactID)

	if err := h.service.DeleteContact(r.Context(), principal, contactID); err != nil {
		logger.ErrorContext(r.Context(), "failed to delete contact", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "contact deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type contactRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Relation string `json:"relation"`
	Notes    string `json:"notes"`
}

func (req contactRequest) toInput() application.ContactInput {
	return application.ContactInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Relation: application.Relation(req.Relation),
		Notes:    req.Notes,
	}
}

type contactDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Relation  string `json:"relation"`
	Notes     string `json:"notes,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type contactListResponse struct {
	Contacts []contactDTO `json:"contacts"`
}

type contactDetailResponse struct {
	Contact contactDTO `json:"contact"`
	Events  []eventDTO `json:"events"`
}

func toContactDTO(contact application.Contact) contactDTO {
	return contactDTO{
		ID:        contact.ID,
		Name:      contact.Name,
		Phone:     contact.Phone,
		Relation:  string(contact.Relation),
		Notes:     contact.Notes,
		CreatedAt: contact.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: contact.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}
