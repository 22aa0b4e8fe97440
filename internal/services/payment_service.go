package services

import (
	"context"
	"errors"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"

	"eventhub/internal/ledger"
	"eventhub/internal/notify"
	"eventhub/internal/status"
	"eventhub/internal/ticket"
	"eventhub/models"
	"eventhub/monitoring"
)

// DefaultRejectionReason is used when the organizer rejects without a note.
const DefaultRejectionReason = "Payment proof rejected"

// PaymentService drives merchandise orders through
// pending_upload -> pending_approval -> approved/rejected. Stock is only
// committed at approval; until then orders hold no reservation.
type PaymentService struct {
	app      core.App
	ledger   *ledger.Ledger
	issuer   *ticket.Issuer
	mailer   *notify.Mailer
	realtime *notify.Realtime
}

func NewPaymentService(app core.App, l *ledger.Ledger, issuer *ticket.Issuer, mailer *notify.Mailer, realtime *notify.Realtime) *PaymentService {
	return &PaymentService{
		app:      app,
		ledger:   l,
		issuer:   issuer,
		mailer:   mailer,
		realtime: realtime,
	}
}

// UploadProof attaches a payment proof and moves the order to
// pending_approval. Allowed from pending_upload or rejected only; a re-upload
// clears the previous rejection reason.
func (s *PaymentService) UploadProof(ctx context.Context, participantID, eventID, registrationID, proof string) (*models.Registration, error) {
	if proof == "" {
		return nil, status.ErrProofRequired
	}

	var record *core.Record
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		var err error
		record, err = findRegistration(txApp, eventID, registrationID)
		if err != nil {
			return err
		}
		if record.GetString("participant") != participantID {
			return status.ErrAccessDenied
		}

		reg, err := models.RegistrationFromRecord(record)
		if err != nil {
			return err
		}
		if !reg.CanUploadProof() {
			return status.E(status.ErrWrongPaymentState, "Payment proof cannot be uploaded at this stage")
		}

		record.Set("payment_proof", proof)
		record.Set("payment_proof_uploaded_at", types.NowDateTime())
		record.Set("payment_status", models.PaymentPendingApproval)
		record.Set("rejection_reason", "")
		return txApp.Save(record)
	})
	if txErr != nil {
		monitoring.TrackPayment("upload", "rejected")
		return nil, txErr
	}

	monitoring.TrackPayment("upload", "ok")
	if eventRecord, err := findEvent(s.app, eventID); err == nil {
		organizerID := eventRecord.GetString("organizer")
		notify.Dispatch("realtime", func() error {
			return s.realtime.Publish(notify.OrganizerChannel(organizerID), map[string]any{
				"type":         "payment_uploaded",
				"event_id":     eventID,
				"registration": registrationID,
			})
		})
	}

	return models.RegistrationFromRecord(record)
}

// Approve commits an order: it re-validates every ordered line against the
// event's current merchandise, decrements stock, issues the ticket and moves
// the order to approved. All-or-nothing; any stale line aborts with no
// mutation and the order stays pending_approval.
func (s *PaymentService) Approve(ctx context.Context, organizerID, eventID, registrationID string) (*models.Registration, error) {
	eventRecord, err := findOwnedEvent(s.app, eventID, organizerID)
	if err != nil {
		return nil, err
	}

	regRecord, err := findRegistration(s.app, eventID, registrationID)
	if err != nil {
		return nil, err
	}
	reg, err := models.RegistrationFromRecord(regRecord)
	if err != nil {
		return nil, err
	}
	if reg.PaymentStatus != models.PaymentPendingApproval {
		return nil, status.E(status.ErrWrongPaymentState, "This order is not pending approval")
	}

	// Fast atomic gate over all lines. When two pending orders chase the
	// same last unit only one passes; the loser fails here without touching
	// the store.
	if err := s.gateStock(ctx, eventRecord, reg.ItemsOrdered); err != nil {
		if errors.Is(err, status.ErrInsufficientStock) {
			monitoring.TrackStockConflict("approval")
			monitoring.TrackPayment("approve", "stock_conflict")
		}
		return nil, err
	}

	tck, err := s.issuer.Issue()
	if err != nil {
		s.restoreStock(ctx, eventID, reg.ItemsOrdered)
		return nil, err
	}

	var approved *core.Record
	var committedItems []models.MerchandiseItem
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		// Everything is re-read inside the transaction: the order may have
		// been rejected meanwhile, items may have been edited since the
		// gate ran.
		var err error
		approved, err = findRegistration(txApp, eventID, registrationID)
		if err != nil {
			return err
		}
		freshReg, err := models.RegistrationFromRecord(approved)
		if err != nil {
			return err
		}
		if freshReg.PaymentStatus != models.PaymentPendingApproval {
			return status.E(status.ErrWrongPaymentState, "This order is not pending approval")
		}

		freshRecord, err := findEvent(txApp, eventID)
		if err != nil {
			return err
		}
		freshEvent, err := models.EventFromRecord(freshRecord)
		if err != nil {
			return err
		}
		if err := models.ApproveOrder(freshEvent, freshReg.ItemsOrdered); err != nil {
			return err
		}

		freshRecord.Set("merchandise_items", freshEvent.MerchandiseItems)
		if err := txApp.Save(freshRecord); err != nil {
			return err
		}
		committedItems = freshEvent.MerchandiseItems

		approved.Set("payment_status", models.PaymentApproved)
		approved.Set("ticket_id", tck.ID)
		approved.Set("qr_code", tck.DataURL)
		return txApp.Save(approved)
	})
	if txErr != nil {
		s.restoreStock(ctx, eventID, reg.ItemsOrdered)
		monitoring.TrackPayment("approve", "rejected")
		return nil, txErr
	}

	// Resync the mirror to the committed document so the gate and the
	// durable stock cannot drift.
	if err := s.ledger.SyncStock(ctx, eventID, committedItems); err != nil {
		monitoring.TrackSideEffectFailure("ledger_sync")
	}

	monitoring.TrackPayment("approve", "ok")
	s.sendApprovalEmail(eventRecord, reg.ParticipantID, tck)
	notify.Dispatch("realtime", func() error {
		return s.realtime.Publish(notify.OrganizerChannel(organizerID), map[string]any{
			"type":         "payment_approved",
			"event_id":     eventID,
			"registration": registrationID,
		})
	})

	return models.RegistrationFromRecord(approved)
}

// Reject moves a pending_approval order to rejected with a reason. No stock
// was committed, so there is nothing to restore; the participant may
// re-upload proof.
func (s *PaymentService) Reject(ctx context.Context, organizerID, eventID, registrationID, reason string) (*models.Registration, error) {
	if _, err := findOwnedEvent(s.app, eventID, organizerID); err != nil {
		return nil, err
	}
	if reason == "" {
		reason = DefaultRejectionReason
	}

	var record *core.Record
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		var err error
		record, err = findRegistration(txApp, eventID, registrationID)
		if err != nil {
			return err
		}
		if record.GetString("payment_status") != models.PaymentPendingApproval {
			return status.E(status.ErrWrongPaymentState, "This order is not pending approval")
		}

		record.Set("payment_status", models.PaymentRejected)
		record.Set("rejection_reason", reason)
		return txApp.Save(record)
	})
	if txErr != nil {
		monitoring.TrackPayment("reject", "rejected")
		return nil, txErr
	}

	monitoring.TrackPayment("reject", "ok")
	return models.RegistrationFromRecord(record)
}

// RegistrationWithParticipant is an organizer-facing listing entry.
type RegistrationWithParticipant struct {
	Registration *models.Registration `json:"registration"`
	Participant  ParticipantInfo      `json:"participant"`
}

// Pending lists the orders an organizer still has to review (or already
// reviewed), newest upload first.
func (s *PaymentService) Pending(organizerID, eventID string) ([]RegistrationWithParticipant, error) {
	if _, err := findOwnedEvent(s.app, eventID, organizerID); err != nil {
		return nil, err
	}

	records, err := s.app.FindRecordsByFilter(
		"registrations",
		"event = {:event} && (payment_status = 'pending_approval' || payment_status = 'approved' || payment_status = 'rejected')",
		"-payment_proof_uploaded_at",
		0,
		0,
		dbx.Params{"event": eventID},
	)
	if err != nil {
		return nil, err
	}

	out := make([]RegistrationWithParticipant, 0, len(records))
	for _, record := range records {
		reg, err := models.RegistrationFromRecord(record)
		if err != nil {
			return nil, err
		}
		out = append(out, RegistrationWithParticipant{
			Registration: reg,
			Participant:  participantInfo(s.app, reg.ParticipantID),
		})
	}
	return out, nil
}

// gateStock runs the ledger's conditional decrement, seeding the mirror from
// the durable document on first use.
func (s *PaymentService) gateStock(ctx context.Context, eventRecord *core.Record, lines []models.OrderLine) error {
	err := s.ledger.DecrementStock(ctx, eventRecord.Id, lines)
	if !errors.Is(err, status.ErrStockUnsynced) {
		return err
	}

	ev, mapErr := models.EventFromRecord(eventRecord)
	if mapErr != nil {
		return mapErr
	}
	if syncErr := s.ledger.SyncStock(ctx, ev.ID, ev.MerchandiseItems); syncErr != nil {
		return syncErr
	}
	return s.ledger.DecrementStock(ctx, ev.ID, lines)
}

func (s *PaymentService) restoreStock(ctx context.Context, eventID string, lines []models.OrderLine) {
	if err := s.ledger.RestoreStock(ctx, eventID, lines); err != nil {
		monitoring.TrackSideEffectFailure("ledger_restore")
	}
}

func (s *PaymentService) sendApprovalEmail(eventRecord *core.Record, participantID string, tck *ticket.Ticket) {
	participant, err := s.app.FindRecordById("users", participantID)
	if err != nil {
		return
	}

	ev, err := models.EventFromRecord(eventRecord)
	if err != nil {
		return
	}
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
