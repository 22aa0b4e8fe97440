package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"eventhub/internal/ledger"
	"eventhub/internal/notify"
	"eventhub/internal/status"
	"eventhub/internal/ticket"
	"eventhub/models"
	"eventhub/monitoring"
)

// RegisterRequest carries either the custom-form responses (normal events)
// or the ordered lines (merchandise events).
type RegisterRequest struct {
	FormResponses map[string]any     `json:"form_responses"`
	ItemsOrdered  []models.OrderLine `json:"items_ordered"`
}

// RegistrationWithEvent pairs a registration with its event for listings.
type RegistrationWithEvent struct {
	Registration *models.Registration `json:"registration"`
	Event        *models.Event        `json:"event"`
	EventStatus  string               `json:"event_status"`
}

type RegistrationService struct {
	app      core.App
	ledger   *ledger.Ledger
	issuer   *ticket.Issuer
	mailer   *notify.Mailer
	realtime *notify.Realtime
	now      func() time.Time
}

func NewRegistrationService(app core.App, l *ledger.Ledger, issuer *ticket.Issuer, mailer *notify.Mailer, realtime *notify.Realtime) *RegistrationService {
	return &RegistrationService{
		app:      app,
		ledger:   l,
		issuer:   issuer,
		mailer:   mailer,
		realtime: realtime,
		now:      time.Now,
	}
}

// Register runs the full precondition chain and creates a registration.
// Normal events get a ticket immediately; merchandise orders start at
// pending_upload with no ticket and no stock movement.
func (s *RegistrationService) Register(ctx context.Context, participant *core.Record, eventID string, req RegisterRequest) (*models.Registration, error) {
	if participant.GetBool("disabled") {
		return nil, status.ErrAccountDisabled
	}

	eventRecord, err := findEvent(s.app, eventID)
	if err != nil {
		return nil, err
	}
	ev, err := models.EventFromRecord(eventRecord)
	if err != nil {
		return nil, err
	}

	if ev.Status != models.StatusPublished {
		return nil, status.ErrEventNotOpen
	}
	if s.now().After(ev.RegistrationDeadline) {
		return nil, status.ErrDeadlinePassed
	}
	if ev.Eligibility == models.EligibilityIIIT &&
		participant.GetString("participant_type") == models.ParticipantTypeNonIIIT {
		return nil, status.ErrNotEligible
	}

	switch ev.Type {
	case models.EventTypeNormal:
		return s.registerNormal(ctx, participant, ev, req.FormResponses)
	case models.EventTypeMerchandise:
		return s.registerMerchandise(ctx, participant, ev, req.ItemsOrdered)
	default:
		return nil, status.ErrUnknownEventType
	}
}

func (s *RegistrationService) registerNormal(ctx context.Context, participant *core.Record, ev *models.Event, responses map[string]any) (*models.Registration, error) {
	count, err := countRegistrations(s.app, ev.ID)
	if err != nil {
		return nil, err
	}
	if ev.RegistrationLimit > 0 && count >= ev.RegistrationLimit {
		monitoring.TrackRegistration(ev.Type, "capacity_full")
		return nil, status.ErrCapacityFull
	}

	if existing, err := s.findOwn(ev.ID, participant.Id); err != nil {
		return nil, err
	} else if existing != nil {
		return nil, status.ErrAlreadyRegistered
	}

	if err := models.ValidateFormResponses(ev.CustomForm, responses); err != nil {
		return nil, err
	}

	// Fast atomic gate: serializes concurrent claims on the last seats
	// before any of them reaches the store. A zero limit means unlimited
	// and needs no gate.
	if ev.RegistrationLimit > 0 {
		if _, err := s.ledger.ReserveSeat(ctx, ev.ID, count, ev.RegistrationLimit); err != nil {
			if errors.Is(err, status.ErrCapacityFull) {
				monitoring.TrackStockConflict("capacity")
				monitoring.TrackRegistration(ev.Type, "capacity_full")
			}
			return nil, err
		}
	}

	tck, err := s.issuer.Issue()
	if err != nil {
		s.releaseSeat(ctx, ev.ID)
		return nil, err
	}

	if responses == nil {
		responses = map[string]any{}
	}

	var record *core.Record
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		// Re-verify capacity and uniqueness now that we hold the write
		// transaction; the earlier reads may be stale.
		n, err := countRegistrations(txApp, ev.ID)
		if err != nil {
			return err
		}
		if ev.RegistrationLimit > 0 && n >= ev.RegistrationLimit {
			return status.ErrCapacityFull
		}
		if existing, err := s.findOwnTx(txApp, ev.ID, participant.Id); err != nil {
			return err
		} else if existing != nil {
			return status.ErrAlreadyRegistered
		}

		collection, err := txApp.FindCollectionByNameOrId("registrations")
		if err != nil {
			return err
		}
		record = core.NewRecord(collection)
		record.Set("event", ev.ID)
		record.Set("participant", participant.Id)
		record.Set("status", models.RegistrationConfirmed)
		record.Set("payment_status", models.PaymentNotRequired)
		record.Set("form_responses", responses)
		record.Set("ticket_id", tck.ID)
		record.Set("qr_code", tck.DataURL)
		return txApp.Save(record)
	})
	if txErr != nil {
		s.releaseSeat(ctx, ev.ID)
		monitoring.TrackRegistration(ev.Type, "error")
		return nil, txErr
	}

	monitoring.TrackRegistration(ev.Type, "ok")
	s.sendConfirmation(participant, ev, tck)
	notify.Dispatch("realtime", func() error {
		return s.realtime.Publish(notify.OrganizerChannel(ev.OrganizerID), map[string]any{
			"type":        "registration_created",
			"event_id":    ev.ID,
			"participant": participant.Id,
		})
	})

	return models.RegistrationFromRecord(record)
}

func (s *RegistrationService) registerMerchandise(ctx context.Context, participant *core.Record, ev *models.Event, lines []models.OrderLine) (*models.Registration, error) {
	for i := range lines {
		if lines[i].Quantity <= 0 {
			lines[i].Quantity = 1
		}
		lines[i].Collected = false
	}

	prior, err := participantOrders(s.app, ev.ID, participant.Id)
	if err != nil {
		return nil, err
	}
	if err := models.ValidateOrder(ev, prior, lines); err != nil {
		if errors.Is(err, status.ErrInsufficientStock) {
			monitoring.TrackStockConflict("order")
		}
		monitoring.TrackRegistration(ev.Type, "rejected")
		return nil, err
	}

	var record *core.Record
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		// Re-validate caps and stock against fresh state; a concurrent
		// order by the same participant could have passed the first check.
		eventRecord, err := findEvent(txApp, ev.ID)
		if err != nil {
			return err
		}
		freshEvent, err := models.EventFromRecord(eventRecord)
		if err != nil {
			return err
		}
		freshPrior, err := participantOrders(txApp, ev.ID, participant.Id)
		if err != nil {
			return err
		}
		if err := models.ValidateOrder(freshEvent, freshPrior, lines); err != nil {
			return err
		}

		collection, err := txApp.FindCollectionByNameOrId("registrations")
		if err != nil {
			return err
		}
		record = core.NewRecord(collection)
		record.Set("event", ev.ID)
		record.Set("participant", participant.Id)
		record.Set("status", models.RegistrationConfirmed)
		record.Set("payment_status", models.PaymentPendingUpload)
		record.Set("items_ordered", lines)
		return txApp.Save(record)
	})
	if txErr != nil {
		monitoring.TrackRegistration(ev.Type, "rejected")
		return nil, txErr
	}

	monitoring.TrackRegistration(ev.Type, "ok")
	notify.Dispatch("realtime", func() error {
		return s.realtime.Publish(notify.OrganizerChannel(ev.OrganizerID), map[string]any{
			"type":        "order_placed",
			"event_id":    ev.ID,
			"participant": participant.Id,
		})
	})

	return models.RegistrationFromRecord(record)
}

// Cancel deletes the participant's registration before event start,
// restoring any merchandise stock the order had committed.
func (s *RegistrationService) Cancel(ctx context.Context, participantID, eventID string) error {
	eventRecord, err := findEvent(s.app, eventID)
	if err != nil {
		return err
	}
	ev, err := models.EventFromRecord(eventRecord)
	if err != nil {
		return err
	}
	if s.now().After(ev.StartDate) {
		return status.ErrEventStarted
	}

	wasMerchandise := false
	var restoredItems []models.MerchandiseItem
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		regRecord, err := txApp.FindFirstRecordByFilter(
			"registrations",
			"event = {:event} && participant = {:participant}",
			dbx.Params{"event": eventID, "participant": participantID},
		)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return status.ErrRegistrationNotFound
			}
			return err
		}
		reg, err := models.RegistrationFromRecord(regRecord)
		if err != nil {
			return err
		}

		if ev.Type == models.EventTypeMerchandise && len(reg.ItemsOrdered) > 0 {
			freshRecord, err := findEvent(txApp, eventID)
			if err != nil {
				return err
			}
			freshEvent, err := models.EventFromRecord(freshRecord)
			if err != nil {
				return err
			}
			// Restore only lines whose variant still exists; renamed or
			// removed variants are skipped.
			freshEvent.RestoreStock(reg.ItemsOrdered)
			freshRecord.Set("merchandise_items", freshEvent.MerchandiseItems)
			if err := txApp.Save(freshRecord); err != nil {
				return err
			}
			wasMerchandise = true
			restoredItems = freshEvent.MerchandiseItems
		}

		return txApp.Delete(regRecord)
	})
	if txErr != nil {
		return txErr
	}

	if wasMerchandise {
		if err := s.ledger.SyncStock(ctx, eventID, restoredItems); err != nil {
			monitoring.TrackSideEffectFailure("ledger_sync")
		}
	} else {
		s.releaseSeat(ctx, eventID)
	}
	return nil
}

// Status returns the participant's registration for an event, or nil.
func (s *RegistrationService) Status(eventID, participantID string) (*models.Registration, error) {
	record, err := s.findOwn(eventID, participantID)
	if err != nil || record == nil {
		return nil, err
	}
	return models.RegistrationFromRecord(record)
}

// Mine lists the participant's registrations, newest first, with their events.
func (s *RegistrationService) Mine(participantID string) ([]RegistrationWithEvent, error) {
	records, err := s.app.FindRecordsByFilter(
		"registrations",
		"participant = {:participant}",
		"-created",
		0,
		0,
		dbx.Params{"participant": participantID},
	)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]RegistrationWithEvent, 0, len(records))
	for _, record := range records {
		reg, err := models.RegistrationFromRecord(record)
		if err != nil {
			return nil, err
		}
		entry := RegistrationWithEvent{Registration: reg}
		if eventRecord, err := s.app.FindRecordById("events", reg.EventID); err == nil {
			if ev, err := models.EventFromRecord(eventRecord); err == nil {
				entry.Event = ev
				entry.EventStatus = ev.DisplayStatus(now)
			}
		}
		out = append(out, entry)
	}
	return out, nil
}

func (s *RegistrationService) findOwn(eventID, participantID string) (*core.Record, error) {
	return s.findOwnTx(s.app, eventID, participantID)
}

func (s *RegistrationService) findOwnTx(app core.App, eventID, participantID string) (*core.Record, error) {
	record, err := app.FindFirstRecordByFilter(
		"registrations",
		"event = {:event} && participant = {:participant}",
		dbx.Params{"event": eventID, "participant": participantID},
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

func (s *RegistrationService) releaseSeat(ctx context.Context, eventID string) {
	if err := s.ledger.ReleaseSeat(ctx, eventID); err != nil {
		monitoring.TrackSideEffectFailure("ledger_release")
	}
}

func (s *RegistrationService) sendConfirmation(participant *core.Record, ev *models.Event, tck *ticket.Ticket) {
	organizerName := "Organizer"
	if organizer, err := s.app.FindRecordById("users", ev.OrganizerID); err == nil {
		if name := organizer.GetString("organizer_name"); name != "" {
			organizerName = name
		}
	}

	email := notify.RegistrationEmail{
		To:            participant.Email(),
		Participant:   displayName(participant),
		EventName:     ev.Name,
		OrganizerName: organizerName,
		EventStart:    ev.StartDate.Format("02 Jan 2006 15:04"),
		EventType:     ev.Type,
		QRPNG:         tck.PNG,
	}
	notify.Dispatch("email", func() error {
		return s.mailer.SendRegistrationEmail(email)
	})
}
