// Package notify holds the fire-and-forget side effects of the core flows:
// confirmation email, Discord webhook embeds and realtime dashboard events.
// None of them may ever fail the operation that triggered them; failures are
// logged and counted.
package notify

import (
	"log/slog"

	"eventhub/monitoring"
)

// Dispatch runs a side effect on its own goroutine, decoupled from the
// request that triggered it. Errors and panics are logged and counted, never
// propagated.
func Dispatch(kind string, fn func() error) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("side effect panicked", "kind", kind, "panic", r)
				monitoring.TrackSideEffectFailure(kind)
			}
		}()
		if err := fn(); err != nil {
			slog.Warn("side effect failed", "kind", kind, "error", err)
			monitoring.TrackSideEffectFailure(kind)
		}
	}()
}
