package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"eventhub/internal/services"
)

// EventHandler exposes the event lifecycle and public listings.
type EventHandler struct {
	events *services.EventService
}

func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// Create handles POST /api/events.
func (h *EventHandler) Create(e *core.RequestEvent) error {
	var req services.EventInput
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	ev, err := h.events.Create(e.Request.Context(), e.Auth.Id, req)
	if err != nil {
		return fail("events.Create", err)
	}
	return e.JSON(http.StatusCreated, ev)
}

// Publish handles POST /api/events/{eventId}/publish.
func (h *EventHandler) Publish(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	ev, err := h.events.Publish(e.Request.Context(), e.Auth.Id, eventID)
	if err != nil {
		return fail("events.Publish", err)
	}
	return e.JSON(http.StatusOK, ev)
}

// Close handles POST /api/events/{eventId}/close.
func (h *EventHandler) Close(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	ev, err := h.events.Close(e.Request.Context(), e.Auth.Id, eventID)
	if err != nil {
		return fail("events.Close", err)
	}
	return e.JSON(http.StatusOK, ev)
}

// Update handles PATCH /api/events/{eventId}.
func (h *EventHandler) Update(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	var req services.EventUpdate
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	ev, err := h.events.Update(e.Request.Context(), e.Auth.Id, eventID, req)
	if err != nil {
		return fail("events.Update", err)
	}
	return e.JSON(http.StatusOK, ev)
}

// List handles GET /api/events.
func (h *EventHandler) List(e *core.RequestEvent) error {
	listings, err := h.events.List()
	if err != nil {
		return fail("events.List", err)
	}
	return e.JSON(http.StatusOK, listings)
}

// Details handles GET /api/events/{eventId}.
func (h *EventHandler) Details(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	callerID := ""
	if e.Auth != nil {
		callerID = e.Auth.Id
	}

	listing, err := h.events.Details(eventID, callerID)
	if err != nil {
		return fail("events.Details", err)
	}
	return e.JSON(http.StatusOK, listing)
}

// Mine handles GET /api/organizer/events.
func (h *EventHandler) Mine(e *core.RequestEvent) error {
	listings, err := h.events.Mine(e.Auth.Id)
	if err != nil {
		return fail("events.Mine", err)
	}
	return e.JSON(http.StatusOK, listings)
}

// Registrations handles GET /api/organizer/events/{eventId}/registrations.
func (h *EventHandler) Registrations(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	regs, err := h.events.Registrations(e.Auth.Id, eventID)
	if err != nil {
		return fail("events.Registrations", err)
	}
	return e.JSON(http.StatusOK, regs)
}

// Analytics handles GET /api/organizer/events/{eventId}/analytics.
func (h *EventHandler) Analytics(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	stats, err := h.events.Analytics(e.Auth.Id, eventID)
	if err != nil {
		return fail("events.Analytics", err)
	}
	return e.JSON(http.StatusOK, stats)
}
