package handlers

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"
	"github.com/redis/go-redis/v9"
)

// Roles stored on the users auth collection.
const (
	RoleOrganizer   = "organizer"
	RoleParticipant = "participant"
)

// RequireRole guards a route group behind an authenticated user with the
// given role. Disabled accounts are rejected regardless of role.
func RequireRole(role string) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if e.Auth == nil {
			return apis.NewUnauthorizedError("Authentication required", nil)
		}
		if e.Auth.GetBool("disabled") {
			return apis.NewForbiddenError("Account is disabled", nil)
		}
		if e.Auth.GetString("role") != role {
			return apis.NewForbiddenError("Access denied", nil)
		}
		return e.Next()
	}
}

// RateLimit is a fixed-window per-user limiter backed by Redis. Used on the
// scan endpoint where a stuck scanner can hammer the API.
func RateLimit(client *redis.Client, prefix string, limit int, window time.Duration) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		if client == nil || e.Auth == nil {
			return e.Next()
		}

		ctx := e.Request.Context()
		key := fmt.Sprintf("ratelimit:%s:%s", prefix, e.Auth.Id)

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			// Limiter outage must not take the endpoint down with it.
			return e.Next()
		}
		if count == 1 {
			client.Expire(ctx, key, window)
		}
		if count > int64(limit) {
			return apis.NewTooManyRequestsError("Too many requests. Slow down.", nil)
		}
		return e.Next()
	}
}
