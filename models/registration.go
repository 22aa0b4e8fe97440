package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
)

// Payment statuses for merchandise orders. Normal-event registrations stay
// at not_required for their whole life.
const (
	PaymentNotRequired     = "not_required"
	PaymentPendingUpload   = "pending_upload"
	PaymentPendingApproval = "pending_approval"
	PaymentApproved        = "approved"
	PaymentRejected        = "rejected"
)

// RegistrationConfirmed is the only persisted registration status;
// cancellation deletes the record outright.
const RegistrationConfirmed = "confirmed"

// OrderLine is one ordered item/variant with the price frozen at order time.
// Later variant price edits never affect an existing order.
type OrderLine struct {
	ItemName  string  `json:"item_name"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
	Collected bool    `json:"collected"`
}

type Registration struct {
	ID                     string         `json:"id"`
	EventID                string         `json:"event_id"`
	ParticipantID          string         `json:"participant_id"`
	Status                 string         `json:"status"`
	FormResponses          map[string]any `json:"form_responses,omitempty"`
	ItemsOrdered           []OrderLine    `json:"items_ordered,omitempty"`
	TicketID               string         `json:"ticket_id,omitempty"`
	QRCode                 string         `json:"qr_code,omitempty"`
	AttendanceMarked       bool           `json:"attendance_marked"`
	AttendanceTime         *time.Time     `json:"attendance_time,omitempty"`
	CollectionTime         *time.Time     `json:"collection_time,omitempty"`
	PaymentStatus          string         `json:"payment_status"`
	PaymentProof           string         `json:"payment_proof,omitempty"`
	PaymentProofUploadedAt *time.Time     `json:"payment_proof_uploaded_at,omitempty"`
	RejectionReason        string         `json:"rejection_reason,omitempty"`
	Created                time.Time      `json:"created"`
}

// RegistrationFromRecord maps a persisted registrations record.
func RegistrationFromRecord(record *core.Record) (*Registration, error) {
	r := &Registration{
		ID:               record.Id,
		EventID:          record.GetString("event"),
		ParticipantID:    record.GetString("participant"),
		Status:           record.GetString("status"),
		TicketID:         record.GetString("ticket_id"),
		QRCode:           record.GetString("qr_code"),
		AttendanceMarked: record.GetBool("attendance_marked"),
		PaymentStatus:    record.GetString("payment_status"),
		PaymentProof:     record.GetString("payment_proof"),
		RejectionReason:  record.GetString("rejection_reason"),
		Created:          record.GetDateTime("created").Time(),
	}

	if err := record.UnmarshalJSONField("form_responses", &r.FormResponses); err != nil {
		return nil, err
	}
	if err := record.UnmarshalJSONField("items_ordered", &r.ItemsOrdered); err != nil {
		return nil, err
	}

	if dt := record.GetDateTime("attendance_time"); !dt.IsZero() {
		t := dt.Time()
		r.AttendanceTime = &t
	}
	if dt := record.GetDateTime("collection_time"); !dt.IsZero() {
		t := dt.Time()
		r.CollectionTime = &t
	}
	if dt := record.GetDateTime("payment_proof_uploaded_at"); !dt.IsZero() {
		t := dt.Time()
		r.PaymentProofUploadedAt = &t
	}

	return r, nil
}

// CanUploadProof reports whether a payment proof upload is allowed from the
// current state: only before first upload or after a rejection.
func (r *Registration) CanUploadProof() bool {
	return r.PaymentStatus == PaymentPendingUpload || r.PaymentStatus == PaymentRejected
}

// AllCollected reports whether every ordered line has been handed over.
func (r *Registration) AllCollected() bool {
	for _, line := range r.ItemsOrdered {
		if !line.Collected {
			return false
		}
	}
	return true
}
