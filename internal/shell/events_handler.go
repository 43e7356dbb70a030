package shell

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"campuspass/internal/events"
)

// EventsHandler forwards event, registration, and help-desk requests to
// the backend API. The backend owns all the business rules; these
// handlers only invoke them for the authenticated user.
type EventsHandler struct {
	client *events.Client
	logger *slog.Logger
}

// NewEventsHandler creates the handler.
func NewEventsHandler(client *events.Client, logger *slog.Logger) *EventsHandler {
	return &EventsHandler{client: client, logger: logger}
}

// List handles GET /events.
func (h *EventsHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.List(r.Context(), r.URL.Query().Get("category"))
	if err != nil {
		h.writeBackendError(w, err, "failed to list events")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": list})
}

// Get handles GET /events/{eventID}.
func (h *EventsHandler) Get(w http.ResponseWriter, r *http.Request) {
	event, err := h.client.Get(r.Context(), chi.URLParam(r, "eventID"))
	if err != nil {
		h.writeBackendError(w, err, "failed to load event")
		return
	}
	writeJSON(w, http.StatusOK, event)
}

// Register handles POST /registrations.
func (h *EventsHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload events.RegistrationRequest
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.EventID == "" {
		writeError(w, http.StatusBadRequest, "event_id is required")
		return
	}

	registration, err := h.client.Register(r.Context(), payload)
	if err != nil {
		h.writeBackendError(w, err, "failed to register")
		return
	}
	writeJSON(w, http.StatusCreated, registration)
}

// MyRegistrations handles GET /registrations.
func (h *EventsHandler) MyRegistrations(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.MyRegistrations(r.Context())
	if err != nil {
		h.writeBackendError(w, err, "failed to list registrations")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"registrations": list})
}

// OpenTicket handles POST /tickets.
func (h *EventsHandler) OpenTicket(w http.ResponseWriter, r *http.Request) {
	var payload events.TicketRequest
	if err := decodeJSONBody(w, r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Subject == "" || payload.Message == "" {
		writeError(w, http.StatusBadRequest, "subject and message are required")
		return
	}

	ticket, err := h.client.OpenTicket(r.Context(), payload)
	if err != nil {
		h.writeBackendError(w, err, "failed to open ticket")
		return
	}
	writeJSON(w, http.StatusCreated, ticket)
}

// MyTickets handles GET /tickets.
func (h *EventsHandler) MyTickets(w http.ResponseWriter, r *http.Request) {
	list, err := h.client.MyTickets(r.Context())
	if err != nil {
		h.writeBackendError(w, err, "failed to list tickets")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tickets": list})
}

func (h *EventsHandler) writeBackendError(w http.ResponseWriter, err error, fallback string) {
	var apiErr *events.APIError
	if errors.As(err, &apiErr) {
		writeError(w, apiErr.StatusCode, apiErr.Detail)
		return
	}
	h.logger.Error("backend API call failed", "error", err)
	writeError(w, http.StatusBadGateway, fallback)
}
