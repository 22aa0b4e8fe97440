package handlers

import (
	"errors"
	"log/slog"

	"github.com/pocketbase/pocketbase/apis"

	"eventhub/internal/status"
)

var notFoundErrs = []error{
	status.ErrEventNotFound,
	status.ErrRegistrationNotFound,
	status.ErrTicketNotFound,
}

var forbiddenErrs = []error{
	status.ErrAccessDenied,
	status.ErrNotEligible,
	status.ErrAccountDisabled,
}

// fail translates a service error into an API error. Domain sentinels carry
// their own user-facing message; anything unrecognized is logged and masked.
// Every violated precondition, capacity/stock conflicts included, reads as a
// plain 400.
func fail(op string, err error) error {
	if isAny(err, notFoundErrs) {
		return apis.NewNotFoundError(err.Error(), nil)
	}
	if isAny(err, forbiddenErrs) {
		return apis.NewForbiddenError(err.Error(), nil)
	}

	var domainErr *status.Error
	if errors.As(err, &domainErr) || isDomain(err) {
		return apis.NewBadRequestError(err.Error(), nil)
	}

	slog.Error(op, "error", err)
	return apis.NewInternalServerError("Something went wrong", err)
}

func isAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var badRequestErrs = []error{
	status.ErrCapacityFull,
	status.ErrAlreadyRegistered,
	status.ErrInsufficientStock,
	status.ErrWrongPaymentState,
	status.ErrEventNotOpen,
	status.ErrDeadlinePassed,
	status.ErrEventStarted,
	status.ErrEventClosed,
	status.ErrNoItems,
	status.ErrUnknownItem,
	status.ErrUnknownVariant,
	status.ErrPurchaseLimit,
	status.ErrPerItemLimit,
	status.ErrProofRequired,
	status.ErrLimitDecrease,
	status.ErrFormLocked,
	status.ErrInvalidItemIndex,
	status.ErrAttendanceOnly,
	status.ErrCollectionOnly,
	status.ErrTicketRequired,
	status.ErrInvalidTag,
	status.ErrMissingField,
	status.ErrUnknownEventType,
	status.ErrWrongEvent,
	status.ErrNotDraft,
	status.ErrDeadlineAfterEnd,
	status.ErrTagRequired,
}

func isDomain(err error) bool {
	return isAny(err, badRequestErrs)
}
