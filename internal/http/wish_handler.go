package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/example/relationship-reminder/internal/application"
)

type wishService interface {
	GenerateWish(ctx context.Context, params application.GenerateWishParams) (application.WishResult, error)
}

type WishHandler struct {
	service   wishService
	responder responder
	logger    *slog.Logger
}

func NewWishHandler(service wishService, logger *slog.Logger) *WishHandler {
	base := defaultLogger(logger)
	return &WishHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *WishHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "WishHandler", operation, attrs...)
}

func (h *WishHandler) Generate(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingSessionToken)
		return
	}

	var req generateWishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Generate", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode wish request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Generate", "principal_id", principal.UserID, "event_id", req.EventID, "template_id", req.TemplateID)

	result, err := h.service.GenerateWish(r.Context(), application.GenerateWishParams{
		Principal:  principal,
		EventID:    req.EventID,
		TemplateID: req.TemplateID,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "failed to generate wish", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "wish generated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, wishResponse{
		Message:      result.Message,
		ContactName:  result.ContactName,
		ContactPhone: result.ContactPhone,
		EventTitle:   result.EventTitle,
		EventType:    string(result.EventType),
		Occurrence:   result.Occurrence.Format(dateLayout),
		TemplateID:   result.TemplateID,
		TemplateName: result.TemplateName,
	})
}

type generateWishRequest struct {
	EventID    string `json:"event_id"`
	TemplateID string `json:"template_id"`
}

type wishResponse struct {
	Message      string `json:"message"`
	ContactName  string `json:"contact_name"`
	ContactPhone string `json:"contact_phone"`
	EventTitle   string `json:"event_title"`
	EventType    string `json:"event_type"`
	Occurrence   string `json:"occurrence"`
	TemplateID   string `json:"template_id"`
	TemplateName string `json:"template_name"`
}
