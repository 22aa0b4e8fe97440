package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"eventhub/internal/services"
)

// OrganizerHandler exposes payment review and ticket redemption.
type OrganizerHandler struct {
	payments    *services.PaymentService
	redemptions *services.RedemptionService
}

func NewOrganizerHandler(payments *services.PaymentService, redemptions *services.RedemptionService) *OrganizerHandler {
	return &OrganizerHandler{payments: payments, redemptions: redemptions}
}

// PendingPayments handles GET /api/organizer/events/{eventId}/payments.
func (h *OrganizerHandler) PendingPayments(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	orders, err := h.payments.Pending(e.Auth.Id, eventID)
	if err != nil {
		return fail("payments.Pending", err)
	}
	return e.JSON(http.StatusOK, orders)
}

// ApprovePayment handles POST /api/organizer/events/{eventId}/registrations/{registrationId}/approve.
func (h *OrganizerHandler) ApprovePayment(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")
	registrationID := e.Request.PathValue("registrationId")

	reg, err := h.payments.Approve(e.Request.Context(), e.Auth.Id, eventID, registrationID)
	if err != nil {
		return fail("payments.Approve", err)
	}
	return e.JSON(http.StatusOK, reg)
}

// RejectPayment handles POST /api/organizer/events/{eventId}/registrations/{registrationId}/reject.
func (h *OrganizerHandler) RejectPayment(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")
	registrationID := e.Request.PathValue("registrationId")

	var req struct {
		Reason string `json:"reason"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	reg, err := h.payments.Reject(e.Request.Context(), e.Auth.Id, eventID, registrationID, req.Reason)
	if err != nil {
		return fail("payments.Reject", err)
	}
	return e.JSON(http.StatusOK, reg)
}

// Scan handles POST /api/organizer/events/{eventId}/scan.
func (h *OrganizerHandler) Scan(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")

	var req struct {
		TicketID string `json:"ticket_id"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	result, err := h.redemptions.Scan(e.Request.Context(), e.Auth.Id, eventID, req.TicketID)
	if err != nil {
		return fail("redemptions.Scan", err)
	}
	return e.JSON(http.StatusOK, result)
}

type attendanceRequest struct {
	AttendanceMarked bool `json:"attendance_marked"`
}

// SetAttendance handles PATCH /api/organizer/events/{eventId}/registrations/{registrationId}/attendance.
func (h *OrganizerHandler) SetAttendance(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")
	registrationID := e.Request.PathValue("registrationId")

	var req attendanceRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	reg, err := h.redemptions.SetAttendance(e.Request.Context(), e.Auth.Id, eventID, registrationID, req.AttendanceMarked)
	if err != nil {
		return fail("redemptions.SetAttendance", err)
	}
	return e.JSON(http.StatusOK, reg)
}

// SetCollected handles PATCH /api/organizer/events/{eventId}/registrations/{registrationId}/collected.
func (h *OrganizerHandler) SetCollected(e *core.RequestEvent) error {
	eventID := e.Request.PathValue("eventId")
	registrationID := e.Request.PathValue("registrationId")

	var req struct {
		ItemIndex int  `json:"item_index"`
		Collected bool `json:"collected"`
	}
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request body", err)
	}

	reg, err := h.redemptions.SetCollected(e.Request.Context(), e.Auth.Id, eventID, registrationID, req.ItemIndex, req.Collected)
	if err != nil {
		return fail("redemptions.SetCollected", err)
	}
	return e.JSON(http.StatusOK, reg)
}
