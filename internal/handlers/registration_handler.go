package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"eventhub/internal/services"
)

// RegistrationHandler exposes the participant flows: register, cancel,
// payment proof upload and own-registration reads.
type RegistrationHandler struct {
	registrations *services.RegistrationService
	payments      *services.PaymentService
}

func NewRegistrationHandler(registrations *services.RegistrationService, payments *services.PaymentService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, payments: payments}
}

// Register handles POST /api/events/{eventId}/register.
func (h *RegistrationHandler) Register(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	var req services.RegisterRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	reg, err := h.registrations.Register(e.Request.Context(), e.Auth, eventID, req)
	if err != nil {
		return fail("registrations.Register", err)
	}
	return e.JSON(http.StatusCreated, reg)
}

// Cancel handles DELETE /api/events/{eventId}/register.
func (h *RegistrationHandler) Cancel(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	if err := h.registrations.Cancel(e.Request.Context(), e.Auth.Id, eventID); err != nil {
		return fail("registrations.Cancel", err)
	}
	return e.JSON(http.StatusOK, map[string]any{"message": "Registration cancelled"})
}

// Status handles GET /api/events/{eventId}/registration.
func (h *RegistrationHandler) Status(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	reg, err := h.registrations.Status(eventID, e.Auth.Id)
	if err != nil {
		return fail("registrations.Status", err)
	}
	if reg == nil {
		return e.JSON(http.StatusOK, map[string]any{"registered": false})
	}
	return e.JSON(http.StatusOK, map[string]any{"registered": true, "registration": reg})
}

// Mine handles GET /api/me/registrations.
func (h *RegistrationHandler) Mine(e *core.RequestEvent) error {
	regs, err := h.registrations.Mine(e.Auth.Id)
	if err != nil {
		return fail("registrations.Mine", err)
	}
	return e.JSON(http.StatusOK, regs)
}

// UploadProof handles PATCH /api/events/{eventId}/registrations/{registrationId}/payment-proof.
func (h *RegistrationHandler) UploadProof(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")
	registrationID := e.Request.PathValue("registrationId")

	var req struct {
		PaymentProof string `json:"payment_proof"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	reg, err := h.payments.UploadProof(e.Request.Context(), e.Auth.Id, eventID, registrationID, req.PaymentProof)
	if err != nil {
		return fail("payments.UploadProof", err)
	}
	return e.JSON(http.StatusOK, reg)
}
