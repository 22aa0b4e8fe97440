// Package services implements the core flows: registration, the payment
// approval state machine, ticket redemption and event lifecycle. Handlers
// stay thin; every rule lives here or in the pure model helpers.
package services

import (
	"database/sql"
	"errors"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"eventhub/internal/status"
	"eventhub/models"
)

// stamp converts a service clock reading into the persisted date-time plus
// the exact value echoed back to the caller, so a response timestamp always
// equals what was stored.
func stamp(now time.Time) (types.DateTime, time.Time, error) {
	dt, err := types.ParseDateTime(now)
	if err != nil {
		return types.DateTime{}, time.Time{}, err
	}
	return dt, dt.Time(), nil
}

// findEvent loads an event record, mapping the store's not-found to the
// domain error.
func findEvent(app core.App, eventID string) (*core.Record, error) {
	record, err := app.FindRecordById("events", eventID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrEventNotFound
		}
		return nil, err
	}
	return record, nil
}

// findOwnedEvent loads an event and verifies the caller organizes it.
func findOwnedEvent(app core.App, eventID, organizerID string) (*core.Record, error) {
	record, err := findEvent(app, eventID)
	if err != nil {
		return nil, err
	}
	if record.GetString("organizer") != organizerID {
		return nil, status.ErrAccessDenied
	}
	return record, nil
}

// findRegistration loads a registration by id scoped to an event.
func findRegistration(app core.App, eventID, registrationID string) (*core.Record, error) {
	record, err := app.FindRecordById("registrations", registrationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, status.ErrRegistrationNotFound
		}
		return nil, err
	}
	if record.GetString("event") != eventID {
		return nil, status.ErrWrongEvent
	}
	return record, nil
}

func countRegistrations(app core.App, eventID string) (int, error) {
	count, err := app.CountRecords("registrations", dbx.HashExp{"event": eventID})
	return int(count), err
}

// participantOrders returns all of a participant's registrations for an
// event. For merchandise events each one is a separate order; purchase caps
// are evaluated across the whole set.
func participantOrders(app core.App, eventID, participantID string) ([]models.Registration, error) {
	records, err := app.FindRecordsByFilter(
		"registrations",
		"event = {:event} && participant = {:participant}",
		"-created",
		0,
		0,
		dbx.Params{"event": eventID, "participant": participantID},
	)
	if err != nil {
		return nil, err
	}

	orders := make([]models.Registration, 0, len(records))
	for _, record := range records {
		reg, err := models.RegistrationFromRecord(record)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *reg)
	}
	return orders, nil
}

// ParticipantInfo is the projection of a user embedded in organizer-facing
// responses.
type ParticipantInfo struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func participantInfo(app core.App, userID string) ParticipantInfo {
	info := ParticipantInfo{ID: userID}
	user, err := app.FindRecordById("users", userID)
	if err != nil {
		return info
	}
	info.Name = displayName(user)
	info.Email = user.Email()
	return info
}

func displayName(user *core.Record) string {
	name := user.GetString("first_name")
	if last := user.GetString("last_name"); last != "" {
		if name != "" {
			name += " "
		}
		name += last
	}
	if name == "" {
		name = "Participant"
	}
	return name
}
