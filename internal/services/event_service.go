package services

import (
	"context"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"eventhub/internal/ledger"
	"eventhub/internal/notify"
	"eventhub/internal/status"
	"eventhub/models"
)

// EventInput carries the organizer-supplied fields for creating an event.
type EventInput struct {
	Name                 string                   `json:"event_name"`
	Description          string                   `json:"event_description"`
	Type                 string                   `json:"event_type"`
	Category             string                   `json:"event_category"`
	Eligibility          string                   `json:"eligibility"`
	Tags                 []string                 `json:"event_tags"`
	RegistrationDeadline time.Time                `json:"registration_deadline"`
	StartDate            time.Time                `json:"event_start_date"`
	EndDate              time.Time                `json:"event_end_date"`
	RegistrationLimit    int                      `json:"registration_limit"`
	RegistrationFee      float64                  `json:"registration_fee"`
	CustomForm           []models.CustomFormField `json:"custom_form"`
	MerchandiseItems     []models.MerchandiseItem `json:"merchandise_items"`
	PurchaseLimit        int                      `json:"purchase_limit"`
	PerItemLimit         int                      `json:"per_item_limit"`
}

// EventUpdate carries a partial edit; nil fields are left untouched.
type EventUpdate struct {
	Name                 *string                   `json:"event_name"`
	Description          *string                   `json:"event_description"`
	Category             *string                   `json:"event_category"`
	Eligibility          *string                   `json:"eligibility"`
	Tags                 []string                  `json:"event_tags"`
	RegistrationDeadline *time.Time                `json:"registration_deadline"`
	StartDate            *time.Time                `json:"event_start_date"`
	EndDate              *time.Time                `json:"event_end_date"`
	RegistrationLimit    *int                      `json:"registration_limit"`
	RegistrationFee      *float64                  `json:"registration_fee"`
	CustomForm           *[]models.CustomFormField `json:"custom_form"`
	MerchandiseItems     *[]models.MerchandiseItem `json:"merchandise_items"`
	PurchaseLimit        *int                      `json:"purchase_limit"`
	PerItemLimit         *int                      `json:"per_item_limit"`
}

// EventService owns the event lifecycle: draft, publish, edit, listings and
// organizer analytics.
type EventService struct {
	app     core.App
	ledger  *ledger.Ledger
	discord *notify.Discord
	now     func() time.Time
}

func NewEventService(app core.App, l *ledger.Ledger, discord *notify.Discord) *EventService {
	return &EventService{app: app, ledger: l, discord: discord, now: time.Now}
}

// Create validates and stores a new draft event. Merchandise events must ship
// at least one item with at least one variant; the stock mirror is seeded
// right away so the first approval does not race the seed.
func (s *EventService) Create(ctx context.Context, organizerID string, in EventInput) (*models.Event, error) {
	if in.Name == "" {
		return nil, status.E(status.ErrMissingField, "Event name is required")
	}
	if in.Type != models.EventTypeNormal && in.Type != models.EventTypeMerchandise {
		return nil, status.ErrUnknownEventType
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() || in.RegistrationDeadline.IsZero() {
		return nil, status.E(status.ErrMissingField, "Event dates are required")
	}
	if in.RegistrationDeadline.After(in.EndDate) {
		return nil, status.ErrDeadlineAfterEnd
	}
	if err := models.ValidateTags(in.Tags); err != nil {
		return nil, err
	}
	if in.Eligibility == "" {
		in.Eligibility = models.EligibilityAll
	}
	if in.Type == models.EventTypeMerchandise {
		if err := validateMerchandise(in.MerchandiseItems); err != nil {
			return nil, err
		}
	}

	collection, err := s.app.FindCollectionByNameOrId("events")
	if err != nil {
		return nil, err
	}

	record := core.NewRecord(collection)
	record.Set("organizer", organizerID)
	record.Set("name", in.Name)
	record.Set("description", in.Description)
	record.Set("type", in.Type)
	record.Set("category", in.Category)
	record.Set("eligibility", in.Eligibility)
	record.Set("tags", in.Tags)
	record.Set("registration_deadline", in.RegistrationDeadline)
	record.Set("start_date", in.StartDate)
	record.Set("end_date", in.EndDate)
	record.Set("registration_limit", in.RegistrationLimit)
	record.Set("registration_fee", in.RegistrationFee)
	record.Set("status", models.StatusDraft)
	if in.Type == models.EventTypeNormal {
		record.Set("custom_form", in.CustomForm)
	} else {
		record.Set("merchandise_items", in.MerchandiseItems)
		record.Set("purchase_limit", in.PurchaseLimit)
		record.Set("per_item_limit", in.PerItemLimit)
	}

	if err := s.app.Save(record); err != nil {
		return nil, err
	}

	if in.Type == models.EventTypeMerchandise {
		if err := s.ledger.SyncStock(ctx, record.Id, in.MerchandiseItems); err != nil {
			s.app.Logger().Warn("stock mirror seed failed", "event", record.Id, "error", err)
		}
	}

	return models.EventFromRecord(record)
}

// Publish flips a draft to published and announces it on the organizer's
// Discord webhook. Only drafts can be published.
func (s *EventService) Publish(ctx context.Context, organizerID, eventID string) (*models.Event, error) {
	var record *core.Record
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		var err error
		record, err = findOwnedEvent(txApp, eventID, organizerID)
		if err != nil {
			return err
		}
		if record.GetString("status") != models.StatusDraft {
			return status.ErrNotDraft
		}
		record.Set("status", models.StatusPublished)
		return txApp.Save(record)
	})
	if txErr != nil {
		return nil, txErr
	}

	ev, err := models.EventFromRecord(record)
	if err != nil {
		return nil, err
	}
	s.announce(ev, organizerID, false)
	return ev, nil
}

// Update applies a partial edit. Closed events are frozen entirely; the
// registration limit may only grow; the custom form locks once anyone has
// registered. Merchandise item edits replace the whole list and resync the
// stock mirror.
func (s *EventService) Update(ctx context.Context, organizerID, eventID string, in EventUpdate) (*models.Event, error) {
	var record *core.Record
	var itemsChanged bool
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		var err error
		record, err = findOwnedEvent(txApp, eventID, organizerID)
		if err != nil {
			return err
		}
		ev, err := models.EventFromRecord(record)
		if err != nil {
			return err
		}
		if !ev.Editable(s.now()) {
			return status.ErrEventClosed
		}

		if in.Name != nil {
			record.Set("name", *in.Name)
		}
		if in.Description != nil {
			record.Set("description", *in.Description)
		}
		if in.Category != nil {
			record.Set("category", *in.Category)
		}
		if in.Eligibility != nil {
			record.Set("eligibility", *in.Eligibility)
		}
		if in.Tags != nil {
			if err := models.ValidateTags(in.Tags); err != nil {
				return err
			}
			record.Set("tags", in.Tags)
		}

		deadline := ev.RegistrationDeadline
		end := ev.EndDate
		if in.RegistrationDeadline != nil {
			deadline = *in.RegistrationDeadline
		}
		if in.EndDate != nil {
			end = *in.EndDate
		}
		if deadline.After(end) {
			return status.ErrDeadlineAfterEnd
		}
		if in.RegistrationDeadline != nil {
			record.Set("registration_deadline", *in.RegistrationDeadline)
		}
		if in.StartDate != nil {
			record.Set("start_date", *in.StartDate)
		}
		if in.EndDate != nil {
			record.Set("end_date", *in.EndDate)
		}

		if in.RegistrationLimit != nil {
			if *in.RegistrationLimit < ev.RegistrationLimit {
				return status.E(status.ErrLimitDecrease,
					"Registration limit can only be increased. Current: %d", ev.RegistrationLimit)
			}
			record.Set("registration_limit", *in.RegistrationLimit)
		}
		if in.RegistrationFee != nil {
			record.Set("registration_fee", *in.RegistrationFee)
		}

		if in.CustomForm != nil {
			count, err := countRegistrations(txApp, eventID)
			if err != nil {
				return err
			}
			if count > 0 {
				return status.ErrFormLocked
			}
			record.Set("custom_form", *in.CustomForm)
		}

		if in.MerchandiseItems != nil {
			if ev.Type != models.EventTypeMerchandise {
				return status.ErrUnknownEventType
			}
			if err := validateMerchandise(*in.MerchandiseItems); err != nil {
				return err
			}
			record.Set("merchandise_items", *in.MerchandiseItems)
			itemsChanged = true
		}
		if in.PurchaseLimit != nil {
			record.Set("purchase_limit", *in.PurchaseLimit)
		}
		if in.PerItemLimit != nil {
			record.Set("per_item_limit", *in.PerItemLimit)
		}

		return txApp.Save(record)
	})
	if txErr != nil {
		return nil, txErr
	}

	ev, err := models.EventFromRecord(record)
	if err != nil {
		return nil, err
	}
	if itemsChanged {
		if err := s.ledger.SyncStock(ctx, eventID, ev.MerchandiseItems); err != nil {
			s.app.Logger().Warn("stock mirror resync failed", "event", eventID, "error", err)
		}
	}
	if ev.Status == models.StatusPublished {
		s.announce(ev, organizerID, true)
	}
	return ev, nil
}

// Close marks an event closed and drops its ledger counters. Closed events
// reject registrations, edits and approvals for good.
func (s *EventService) Close(ctx context.Context, organizerID, eventID string) (*models.Event, error) {
	var record *core.Record
	txErr := s.app.RunInTransaction(func(txApp core.App) error {
		var err error
		record, err = findOwnedEvent(txApp, eventID, organizerID)
		if err != nil {
			return err
		}
		if record.GetString("status") == models.StatusClosed {
			return status.ErrEventClosed
		}
		record.Set("status", models.StatusClosed)
		return txApp.Save(record)
	})
	if txErr != nil {
		return nil, txErr
	}

	if err := s.ledger.Forget(ctx, eventID); err != nil {
		s.app.Logger().Warn("ledger cleanup failed", "event", eventID, "error", err)
	}
	return models.EventFromRecord(record)
}

// EventListing is an event with its clock-derived display status and current
// registration count.
type EventListing struct {
	*models.Event
	DisplayStatus     string `json:"display_status"`
	RegistrationCount int    `json:"registration_count"`
}

// List returns published events of active organizers, newest start first.
func (s *EventService) List() ([]EventListing, error) {
	records, err := s.app.FindRecordsByFilter(
		"events",
		"status = {:status} && organizer.disabled = false",
		"-start_date",
		0,
		0,
		dbx.Params{"status": models.StatusPublished},
	)
	if err != nil {
		return nil, err
	}
	return s.listings(records)
}

// Details returns one event listing. Drafts are only visible to their
// organizer; callerID may be empty for anonymous reads.
func (s *EventService) Details(eventID, callerID string) (*EventListing, error) {
	record, err := findEvent(s.app, eventID)
	if err != nil {
		return nil, err
	}
	ev, err := models.EventFromRecord(record)
	if err != nil {
		return nil, err
	}
	if ev.Status == models.StatusDraft && ev.OrganizerID != callerID {
		return nil, status.ErrEventNotFound
	}

	count, err := countRegistrations(s.app, eventID)
	if err != nil {
		return nil, err
	}
	return &EventListing{
		Event:             ev,
		DisplayStatus:     ev.DisplayStatus(s.now()),
		RegistrationCount: count,
	}, nil
}

// Mine returns all of an organizer's events, drafts included.
func (s *EventService) Mine(organizerID string) ([]EventListing, error) {
	records, err := s.app.FindRecordsByFilter(
		"events",
		"organizer = {:organizer}",
		"-created",
		0,
		0,
		dbx.Params{"organizer": organizerID},
	)
	if err != nil {
		return nil, err
	}
	return s.listings(records)
}

// Registrations lists an event's registrations with participant projections.
func (s *EventService) Registrations(organizerID, eventID string) ([]RegistrationWithParticipant, error) {
	if _, err := findOwnedEvent(s.app, eventID, organizerID); err != nil {
		return nil, err
	}

	records, err := s.app.FindRecordsByFilter(
		"registrations",
		"event = {:event}",
		"-created",
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

// VariantSales is one variant's sold/collected tally in merchandise analytics.
type VariantSales struct {
	ItemName  string `json:"item_name"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Sold      int    `json:"sold"`
	Collected int    `json:"collected"`
	Revenue   string `json:"revenue"`
}

// Analytics summarizes an event for its organizer. Revenue is computed with
// exact decimals from prices frozen on each order line, so totals do not
// drift with float rounding.
type Analytics struct {
	EventID            string `json:"event_id"`
	EventType          string `json:"event_type"`
	TotalRegistrations int    `json:"total_registrations"`
	Attended           int    `json:"attended,omitempty"`
	PendingUpload      int    `json:"pending_upload,omitempty"`
	PendingApproval    int    `json:"pending_approval,omitempty"`
	Approved           int    `json:"approved,omitempty"`
	Rejected           int    `json:"rejected,omitempty"`
	Revenue            string `json:"revenue"`

	Variants []VariantSales `json:"variants,omitempty"`
}

func (s *EventService) Analytics(organizerID, eventID string) (*Analytics, error) {
	eventRecord, err := findOwnedEvent(s.app, eventID, organizerID)
	if err != nil {
		return nil, err
	}
	ev, err := models.EventFromRecord(eventRecord)
	if err != nil {
		return nil, err
	}

	records, err := s.app.FindRecordsByFilter(
		"registrations",
		"event = {:event}",
		"-created",
		0,
		0,
		dbx.Params{"event": eventID},
	)
	if err != nil {
		return nil, err
	}

	out := &Analytics{
		EventID:            eventID,
		EventType:          ev.Type,
		TotalRegistrations: len(records),
	}

	if ev.Type == models.EventTypeNormal {
		for _, record := range records {
			if record.GetBool("attendance_marked") {
				out.Attended++
			}
		}
		fee := decimal.NewFromFloat(ev.RegistrationFee)
		out.Revenue = fee.Mul(decimal.NewFromInt(int64(len(records)))).StringFixed(2)
		return out, nil
	}

	type variantKey struct{ item, size, color string }
	sales := map[variantKey]*VariantSales{}
	order := []variantKey{}
	for _, item := range ev.MerchandiseItems {
		for _, v := range item.Variants {
			key := variantKey{item.ItemName, v.Size, v.Color}
			sales[key] = &VariantSales{ItemName: item.ItemName, Size: v.Size, Color: v.Color, Revenue: "0.00"}
			order = append(order, key)
		}
	}

	total := decimal.Zero
	for _, record := range records {
		reg, err := models.RegistrationFromRecord(record)
		if err != nil {
			return nil, err
		}
		switch reg.PaymentStatus {
		case models.PaymentPendingUpload:
			out.PendingUpload++
		case models.PaymentPendingApproval:
			out.PendingApproval++
		case models.PaymentRejected:
			out.Rejected++
		case models.PaymentApproved:
			out.Approved++
		}
		if reg.PaymentStatus != models.PaymentApproved {
			continue
		}

		for _, line := range reg.ItemsOrdered {
			lineRevenue := decimal.NewFromFloat(line.Price).Mul(decimal.NewFromInt(int64(line.Quantity)))
			total = total.Add(lineRevenue)

			key := variantKey{line.ItemName, line.Size, line.Color}
			vs, ok := sales[key]
			if !ok {
				// Variant was removed from the catalog after this order.
				vs = &VariantSales{ItemName: line.ItemName, Size: line.Size, Color: line.Color, Revenue: "0.00"}
				sales[key] = vs
				order = append(order, key)
			}
			vs.Sold += line.Quantity
			if line.Collected {
				vs.Collected += line.Quantity
			}
			prev, _ := decimal.NewFromString(vs.Revenue)
			vs.Revenue = prev.Add(lineRevenue).StringFixed(2)
		}
	}

	out.Revenue = total.StringFixed(2)
	out.Variants = make([]VariantSales, 0, len(order))
	for _, key := range order {
		out.Variants = append(out.Variants, *sales[key])
	}
	return out, nil
}

func (s *EventService) listings(records []*core.Record) ([]EventListing, error) {
	now := s.now()
	out := make([]EventListing, 0, len(records))
	for _, record := range records {
		ev, err := models.EventFromRecord(record)
		if err != nil {
			return nil, err
		}
		count, err := countRegistrations(s.app, ev.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, EventListing{
			Event:             ev,
			DisplayStatus:     ev.DisplayStatus(now),
			RegistrationCount: count,
		})
	}
	return out, nil
}

func (s *EventService) announce(ev *models.Event, organizerID string, updated bool) {
	organizer, err := s.app.FindRecordById("users", organizerID)
	if err != nil {
		return
	}
	webhook := organizer.GetString("discord_webhook")
	if webhook == "" {
		return
	}
	name := organizer.GetString("organizer_name")
	if name == "" {
		name = displayName(organizer)
	}

	notify.Dispatch("discord", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.discord.AnnounceEvent(ctx, webhook, ev, name, updated)
	})
}

func validateMerchandise(items []models.MerchandiseItem) error {
	if len(items) == 0 {
		return status.E(status.ErrMissingField, "At least one merchandise item is required")
	}
	for _, item := range items {
		if item.ItemName == "" {
			return status.E(status.ErrMissingField, "Merchandise item name is required")
		}
		if len(item.Variants) == 0 {
			return status.E(status.ErrMissingField, "Item %q needs at least one variant", item.ItemName)
		}
		for _, v := range item.Variants {
			if v.Stock < 0 || v.Price < 0 {
				return status.E(status.ErrMissingField, "Item %q has an invalid variant", item.ItemName)
			}
		}
	}
	return nil
}
