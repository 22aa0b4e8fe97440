// Package status defines the error taxonomy shared by services and handlers.
//
// Sentinel values double as the user-facing message when no parameters are
// involved. Parametrized failures wrap a sentinel through E so callers can
// still branch with errors.Is while the response carries the specific
// limiting value (stock left, quantity already ordered, and so on).
package status

import (
	"errors"
	"fmt"
)

// Not-found failures.
var (
	ErrEventNotFound        = errors.New("Event not found")
	ErrRegistrationNotFound = errors.New("Registration not found")
	ErrTicketNotFound       = errors.New("No registration found for this QR code")
)

// Authorization failures.
var (
	ErrAccountDisabled = errors.New("Account is disabled")
	ErrNotEligible     = errors.New("This event is restricted to IIIT students only")
	ErrAccessDenied    = errors.New("Access denied")
)

// Validation and state-conflict failures.
var (
	ErrEventNotOpen      = errors.New("Event not open for registration")
	ErrDeadlinePassed    = errors.New("Registration deadline passed")
	ErrEventStarted      = errors.New("Event already started. Cannot cancel.")
	ErrEventClosed       = errors.New("Closed events cannot be edited")
	ErrAlreadyRegistered = errors.New("Already registered for this event")
	ErrCapacityFull      = errors.New("Event registration full")
	ErrNoItems           = errors.New("No items selected")
	ErrUnknownItem       = errors.New("item not found")
	ErrUnknownVariant    = errors.New("variant not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrPurchaseLimit     = errors.New("Total purchase limit exceeded")
	ErrPerItemLimit      = errors.New("Per-item limit exceeded")
	ErrWrongPaymentState = errors.New("wrong payment state")
	ErrProofRequired     = errors.New("Payment proof image is required")
	ErrLimitDecrease     = errors.New("Registration limit can only be increased")
	ErrFormLocked        = errors.New("Cannot edit custom form after registrations have been received")
	ErrInvalidItemIndex  = errors.New("Invalid item index")
	ErrAttendanceOnly    = errors.New("Attendance is only applicable for normal events")
	ErrCollectionOnly    = errors.New("Collected is only applicable for merchandise events")
	ErrTicketRequired    = errors.New("ticket_id is required")
	ErrInvalidTag        = errors.New("Invalid event tag provided")
	ErrMissingField      = errors.New("required field is missing")
	ErrUnknownEventType  = errors.New("Unknown event type")
	ErrWrongEvent        = errors.New("Registration does not belong to this event")
	ErrNotDraft          = errors.New("Only draft events can be published")
	ErrDeadlineAfterEnd  = errors.New("Registration deadline cannot be after the event end date")
	ErrTagRequired       = errors.New("At least one event tag is required")
	ErrStockUnsynced     = errors.New("stock ledger not initialized")
)

// Error couples a sentinel kind with a specific user-facing message.
type Error struct {
	kind error
	msg  string
}

func (e *Error) Error() string { return e.msg }
func (e *Error) Unwrap() error { return e.kind }

// E builds a parametrized error that still matches kind under errors.Is.
func E(kind error, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}
