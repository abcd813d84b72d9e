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

const dateLayout = "2006-01-02"

type eventService interface {
	CreateEvent(ctx context.Context, params application.CreateEventParams) (application.Event, error)
	UpdateEvent(ctx context.Context, params application.UpdateEventParams) (application.Event, error)
	DeleteEvent(ctx context.Context, principal application.Principal, eventID string) error
	ListEvents(ctx context.Context, principal application.Principal) ([]application.EventView, error)
	TodayEvents(ctx context.Context, principal application.Principal) ([]application.EventView, error)
	UpcomingEvents(ctx context.Context, principal application.Principal) ([]application.EventView, error)
}

type EventHandler struct {
	service   eventService
	responder responder
	logger    *slog.Logger
}

func NewEventHandler(service eventService, logger *slog.Logger) *EventHandler {
	base := defaultLogger(logger)
	return &EventHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EventHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EventHandler", operation, attrs...)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode event request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "contact_id", input.ContactID)

	event, err := h.service.CreateEvent(r.Context(), application.CreateEventParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to create event", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("event_id", event.ID).InfoContext(r.Context(), "event created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEventDTO(event))
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	h.listWith(w, r, "List", func(ctx context.Context, principal application.Principal) ([]application.EventView, error) {
		return h.service.ListEvents(ctx, principal)
	})
}

func (h *EventHandler) Today(w http.ResponseWriter, r *http.Request) {
	h.listWith(w, r, "Today", func(ctx context.Context, principal application.Principal) ([]application.EventView, error) {
		return h.service.TodayEvents(ctx, principal)
	})
}

func (h *EventHandler) Upcoming(w http.ResponseWriter, r *http.Request) {
	h.listWith(w, r, "Upcoming", func(ctx context.Context, principal application.Principal) ([]application.EventView, error) {
		return h.service.UpcomingEvents(ctx, principal)
	})
}

func (h *EventHandler) listWith(w http.ResponseWriter, r *http.Request, operation string, query func(context.Context, application.Principal) ([]application.EventView, error)) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	logger := h.log(r.Context(), operation, "principal_id", principal.UserID)

	views, err := query(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to list events", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dtos := make([]eventViewDTO, 0, len(views))
	for _, view := range views {
		dtos = append(dtos, toEventViewDTO(view))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, eventListResponse{Events: dtos})
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode event request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, err := req.toInput()
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "event_id", eventID)

	event, err := h.service.UpdateEvent(r.Context(), application.UpdateEventParams{
		Principal: principal,
		EventID:   eventID,
		Input:     input,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to update event", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "event updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(event))
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	eventID, ok := EventIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "event_id", eventID)

	if err := h.service.DeleteEvent(r.Context(), principal, eventID); err != nil {
		logger.ErrorContext(r.Context(), "failed to delete event", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "event deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type eventRequest struct {
	ContactID    string `json:"contact_id"`
	Title        string `json:"title"`
	Type         string `json:"type"`
	OriginalDate string `json:"original_date"`
	Notes        string `json:"notes"`
}

func (req eventRequest) toInput() (application.EventInput, error) {
	input := application.EventInput{
		ContactID: req.ContactID,
		Title:     req.Title,
		Type:      application.EventType(req.Type),
		Notes:     req.Notes,
	}

	if trimmed := strings.TrimSpace(req.OriginalDate); trimmed != "" {
		date, err := time.ParseInLocation(dateLayout, trimmed, time.UTC)
		if err != nil {
			vErr := &application.ValidationError{FieldErrors: map[string]string{
				"original_date": "the original date must use the YYYY-MM-DD format",
			}}
			return application.EventInput{}, vErr
		}
		input.OriginalDate = date
	}

	return input, nil
}

type eventDTO struct {
	ID             string `json:"id"`
	ContactID      string `json:"contact_id"`
	Title          string `json:"title"`
	Type           string `json:"type"`
	OriginalDate   string `json:"original_date"`
	Notes          string `json:"notes,omitempty"`
	RecurringMonth int    `json:"recurring_month"`
	RecurringDay   int    `json:"recurring_day"`
	NextOccurrence string `json:"next_occurrence"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

type eventViewDTO struct {
	Event     eventDTO   `json:"event"`
	Contact   contactDTO `json:"contact"`
	DaysUntil int        `json:"days_until"`
}

type eventListResponse struct {
	Events []eventViewDTO `json:"events"`
}

func toEventDTO(event application.Event) eventDTO {
	return eventDTO{
		ID:             event.ID,
		ContactID:      event.ContactID,
		Title:          event.Title,
		Type:           string(event.Type),
		OriginalDate:   event.OriginalDate.Format(dateLayout),
		Notes:          event.Notes,
		RecurringMonth: int(event.RecurringMonth),
		RecurringDay:   event.RecurringDay,
		NextOccurrence: event.NextOccurrence.Format(dateLayout),
		CreatedAt:      event.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      event.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toEventViewDTO(view application.EventView) eventViewDTO {
	return eventViewDTO{
		Event:     toEventDTO(view.Event),
		Contact:   toContactDTO(view.Contact),
		DaysUntil: view.DaysUntil,
	}
}
