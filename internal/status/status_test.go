package status

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestE_MatchesKindAndCarriesMessage(t *testing.T) {
	err := E(ErrInsufficientStock, "Insufficient stock for %q. Available: %d", "Hoodie", 3)

	assert.True(t, errors.Is(err, ErrInsufficientStock))
	assert.False(t, errors.Is(err, ErrPurchaseLimit))
	assert.Equal(t, `Insufficient stock for "Hoodie". Available: 3`, err.Error())
}

func TestE_SurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("approve order: %w", E(ErrWrongPaymentState, "This order is not pending approval"))
	assert.True(t, errors.Is(err, ErrWrongPaymentState))
}

func TestSentinelsAreUserFacing(t *testing.T) {
	assert.Equal(t, "Event registration full", ErrCapacityFull.Error())
	assert.Equal(t, "Registration deadline passed", ErrDeadlinePassed.Error())
	assert.Equal(t, "No registration found for this QR code", ErrTicketNotFound.Error())
}
