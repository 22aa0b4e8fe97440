package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStamp_ResponseMatchesPersistedValue(t *testing.T) {
	clock := time.Date(2026, 4, 3, 9, 30, 15, 123456789, time.UTC)

	dt, echoed, err := stamp(clock)
	require.NoError(t, err)

	// Whatever precision the store keeps, the echoed value must be exactly
	// the persisted one, not a second clock read.
	assert.True(t, echoed.Equal(dt.Time()))
	assert.Equal(t, "2026-04-03 09:30:15.123Z", dt.String())
}
