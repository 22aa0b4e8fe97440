package services

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"

	"eventhub/internal/notify"
	"eventhub/internal/status"
	"eventhub/models"
	"eventhub/monitoring"
)

// ScanItem is one ordered line in a scan response.
type ScanItem struct {
	ItemName string `json:"item_name"`
	Size     string `json:"size"`
	Color    string `json:"color"`
	Quantity int    `json:"quantity"`
}

// ScanResult is the organizer-facing outcome of a QR scan.
type ScanResult struct {
	AlreadyMarked  bool            `json:"already_marked"`
	Mode           string          `json:"mode"`
	Message        string          `json:"message"`
	Participant    ParticipantInfo `json:"participant"`
	AttendanceTime *time.Time      `json:"attendance_time,omitempty"`
	CollectionTime *time.Time      `json:"collection_time,omitempty"`
	Items          []ScanItem      `json:"items,omitempty"`
}

// RedemptionService consumes tickets: attendance for normal events, item
// collection for merchandise. Scans are idempotent; repeating one reports
// already_marked without touching timestamps.
type RedemptionService struct {
	app      core.App
	realtime *notify.Realtime
	now      func() time.Time
}

func NewRedemptionService(app core.App, realtime *notify.Realtime) *RedemptionService {
	return &RedemptionService{app: app, realtime: realtime, now: time.Now}
}

// Scan resolves a ticket within the scanning organizer's event and marks
// attendance (normal) or collects all items at once (merchandise). Ticket
// lookup is scoped by event: a ticket for another event reads as unknown
// here even though ids are globally unique.
func (s *RedemptionService) Scan(ctx context.Context, organizerID, eventID, ticketID string) (*ScanResult, error) {
	if ticketID == "" {
		return nil, status.ErrTicketRequired
	}

	eventRecord, err := findOwnedEvent(s.app, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	mode := eventRecord.GetString("type")

	var result *ScanResult
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		record, err := txApp.FindFirstRecordByFilter(
			"registrations",
			"ticket_id = {:ticket} && event = {:event}",
			dbx.Params{"ticket": ticketID, "event": eventID},
		)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return status.ErrTicketNotFound
			}
			return err
		}
		reg, err := models.RegistrationFromRecord(record)
		if err != nil {
			return err
		}

		if mode == models.EventTypeMerchandise {
			result, err = s.scanMerchandise(txApp, record, reg)
		} else {
			result, err = s.scanNormal(txApp, record, reg)
		}
		return err
	})
	if txErr != nil {
		monitoring.TrackScan(mode, "error")
		return nil, txErr
	}

	result.Participant = participantInfo(s.app, result.Participant.ID)
	if result.AlreadyMarked {
		monitoring.TrackScan(result.Mode, "already_marked")
	} else {
		monitoring.TrackScan(result.Mode, "marked")
		notify.Dispatch("realtime", func() error {
			return s.realtime.Publish(notify.OrganizerChannel(organizerID), map[string]any{
				"type":     "ticket_scanned",
				"event_id": eventID,
				"mode":     result.Mode,
			})
		})
	}
	return result, nil
}

func (s *RedemptionService) scanNormal(txApp core.App, record *core.Record, reg *models.Registration) (*ScanResult, error) {
	if reg.AttendanceMarked {
		return &ScanResult{
			AlreadyMarked:  true,
			Mode:           models.EventTypeNormal,
			Message:        "Already marked present",
			Participant:    ParticipantInfo{ID: reg.ParticipantID},
			AttendanceTime: reg.AttendanceTime,
		}, nil
	}

	dt, now, err := stamp(s.now())
	if err != nil {
		return nil, err
	}
	record.Set("attendance_marked", true)
	record.Set("attendance_time", dt)
	if err := txApp.Save(record); err != nil {
		return nil, err
	}

	return &ScanResult{
		Mode:           models.EventTypeNormal,
		Message:        "Attendance marked successfully",
		Participant:    ParticipantInfo{ID: reg.ParticipantID},
		AttendanceTime: &now,
	}, nil
}

func (s *RedemptionService) scanMerchandise(txApp core.App, record *core.Record, reg *models.Registration) (*ScanResult, error) {
	items := make([]ScanItem, len(reg.ItemsOrdered))
	for i, line := range reg.ItemsOrdered {
		items[i] = ScanItem{
			ItemName: line.ItemName,
			Size:     line.Size,
			Color:    line.Color,
			Quantity: line.Quantity,
		}
	}

	if reg.AllCollected() {
		return &ScanResult{
			AlreadyMarked:  true,
			Mode:           models.EventTypeMerchandise,
			Message:        "Items already collected",
			Participant:    ParticipantInfo{ID: reg.ParticipantID},
			CollectionTime: reg.CollectionTime,
			Items:          items,
		}, nil
	}

	// Booth flow: one scan hands over the whole order.
	dt, now, err := stamp(s.now())
	if err != nil {
		return nil, err
	}
	for i := range reg.ItemsOrdered {
		reg.ItemsOrdered[i].Collected = true
	}
	record.Set("items_ordered", reg.ItemsOrdered)
	record.Set("collection_time", dt)
	if err := txApp.Save(record); err != nil {
		return nil, err
	}

	return &ScanResult{
		Mode:           models.EventTypeMerchandise,
		Message:        "Items marked as collected",
		Participant:    ParticipantInfo{ID: reg.ParticipantID},
		CollectionTime: &now,
		Items:          items,
	}, nil
}

// SetAttendance manually toggles attendance for a normal-event registration,
// clearing the timestamp when unmarking. This is the organizer's correction
// path next to the idempotent scan.
func (s *RedemptionService) SetAttendance(ctx context.Context, organizerID, eventID, registrationID string, marked bool) (*models.Registration, error) {
	eventRecord, err := findOwnedEvent(s.app, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	if eventRecord.GetString("type") != models.EventTypeNormal {
		return nil, status.ErrAttendanceOnly
	}

	var record *core.Record
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		var err error
		record, err = findRegistration(txApp, eventID, registrationID)
		if err != nil {
			return err
		}
		record.Set("attendance_marked", marked)
		if marked {
			dt, _, err := stamp(s.now())
			if err != nil {
				return err
			}
			record.Set("attendance_time", dt)
		} else {
			record.Set("attendance_time", "")
		}
		return txApp.Save(record)
	})
	if txErr != nil {
		return nil, txErr
	}
	return models.RegistrationFromRecord(record)
}

// SetCollected toggles a single ordered line's collected flag, independent of
// the all-or-nothing scan path.
func (s *RedemptionService) SetCollected(ctx context.Context, organizerID, eventID, registrationID string, itemIndex int, collected bool) (*models.Registration, error) {
	eventRecord, err := findOwnedEvent(s.app, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	if eventRecord.GetString("type") != models.EventTypeMerchandise {
		return nil, status.ErrCollectionOnly
	}

	var record *core.Record
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		var err error
		record, err = findRegistration(txApp, eventID, registrationID)
		if err != nil {
			return err
		}
		reg, err := models.RegistrationFromRecord(record)
		if err != nil {
			return err
		}
		if itemIndex < 0 || itemIndex >= len(reg.ItemsOrdered) {
			return status.ErrInvalidItemIndex
		}

		reg.ItemsOrdered[itemIndex].Collected = collected
		record.Set("items_ordered", reg.ItemsOrdered)
		return txApp.Save(record)
	})
	if txErr != nil {
		return nil, txErr
	}
	return models.RegistrationFromRecord(record)
}
