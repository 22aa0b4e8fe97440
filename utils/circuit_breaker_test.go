package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreaker_PassesThroughWhileClosed(t *testing.T) {
	b := NewBreaker("test", 3, time.Minute)

	calls := 0
	err := b.Do(func() error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	b := NewBreaker("test", 3, time.Minute)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Do(func() error { return boom }), boom)
	}

	// Open: calls are short-circuited.
	calls := 0
	err := b.Do(func() error {
		calls++
		return nil
	})
	assert.ErrorIs(t, err, ErrBreakerOpen)
	assert.Equal(t, 0, calls)
}

func TestBreaker_SuccessResetsFailureStreak(t *testing.T) {
	b := NewBreaker("test", 3, time.Minute)
	boom := errors.New("boom")

	b.Do(func() error { return boom })
	b.Do(func() error { return boom })
	require.NoError(t, b.Do(func() error { return nil }))

	// Streak reset; two more failures must not trip it.
	b.Do(func() error { return boom })
	b.Do(func() error { return boom })
	assert.NoError(t, b.Do(func() error { return nil }))
}

func TestBreaker_ProbesAfterCooldown(t *testing.T) {
	b := NewBreaker("test", 1, 10*time.Millisecond)
	boom := errors.New("boom")

	b.Do(func() error { return boom })
	assert.ErrorIs(t, b.Do(func() error { return nil }), ErrBreakerOpen)

	time.Sleep(20 * time.Millisecond)

	// One probe is allowed through; success closes the breaker.
	require.NoError(t, b.Do(func() error { return nil }))
	assert.NoError(t, b.Do(func() error { return nil }))
}
