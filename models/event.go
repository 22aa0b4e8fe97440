package models

import (
	"slices"
	"time"

	"github.com/pocketbase/pocketbase/core"

	"eventhub/internal/status"
)

// Event types.
const (
	EventTypeNormal      = "normal"
	EventTypeMerchandise = "merchandise"
)

// Persisted event statuses. "ongoing" and "closed" are never stored for a
// published event; they are derived from the clock (see DisplayStatus).
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusCompleted = "completed"
	StatusClosed    = "closed"
)

// Display statuses shown to participants.
const (
	DisplayDraft    = "draft"
	DisplayUpcoming = "upcoming"
	DisplayOngoing  = "ongoing"
	DisplayClosed   = "closed"
)

// Eligibility values.
const (
	EligibilityIIIT = "iiit"
	EligibilityAll  = "all"
)

// ParticipantTypeNonIIIT is the participant_type excluded from iiit-only events.
const ParticipantTypeNonIIIT = "Non-IIIT"

// AllowedTags is the closed set of event tags.
var AllowedTags = []string{
	"competition",
	"workshop",
	"academic-talk",
	"cultural",
	"social",
	"sports",
	"recreational",
	"miscellaneous",
}

// Variant is one size/color combination of a merchandise item with its own
// stock and price.
type Variant struct {
	Size  string  `json:"size"`
	Color string  `json:"color"`
	Stock int     `json:"stock"`
	Price float64 `json:"price"`
}

type MerchandiseItem struct {
	ItemName string    `json:"item_name"`
	Variants []Variant `json:"variants"`
}

type CustomFormField struct {
	FieldName  string   `json:"field_name"`
	FieldType  string   `json:"field_type"` // text, dropdown, checkbox
	Options    []string `json:"options,omitempty"`
	IsRequired bool     `json:"is_required"`
}

type Event struct {
	ID                   string            `json:"id"`
	OrganizerID          string            `json:"organizer_id"`
	Name                 string            `json:"event_name"`
	Description          string            `json:"event_description"`
	Type                 string            `json:"event_type"`
	Category             string            `json:"event_category"`
	Eligibility          string            `json:"eligibility"`
	Tags                 []string          `json:"event_tags"`
	RegistrationDeadline time.Time         `json:"registration_deadline"`
	StartDate            time.Time         `json:"event_start_date"`
	EndDate              time.Time         `json:"event_end_date"`
	RegistrationLimit    int               `json:"registration_limit"`
	RegistrationFee      float64           `json:"registration_fee"`
	Status               string            `json:"status"`
	CustomForm           []CustomFormField `json:"custom_form,omitempty"`
	MerchandiseItems     []MerchandiseItem `json:"merchandise_items,omitempty"`
	PurchaseLimit        int               `json:"purchase_limit"`
	PerItemLimit         int               `json:"per_item_limit"`
}

// EventFromRecord maps a persisted events record onto an Event.
func EventFromRecord(record *core.Record) (*Event, error) {
	ev := &Event{
		ID:                   record.Id,
		OrganizerID:          record.GetString("organizer"),
		Name:                 record.GetString("name"),
		Description:          record.GetString("description"),
		Type:                 record.GetString("type"),
		Category:             record.GetString("category"),
		Eligibility:          record.GetString("eligibility"),
		RegistrationDeadline: record.GetDateTime("registration_deadline").Time(),
		StartDate:            record.GetDateTime("start_date").Time(),
		EndDate:              record.GetDateTime("end_date").Time(),
		RegistrationLimit:    record.GetInt("registration_limit"),
		RegistrationFee:      record.GetFloat("registration_fee"),
		Status:               record.GetString("status"),
		PurchaseLimit:        record.GetInt("purchase_limit"),
		PerItemLimit:         record.GetInt("per_item_limit"),
	}

	if err := record.UnmarshalJSONField("tags", &ev.Tags); err != nil {
		return nil, err
	}
	if err := record.UnmarshalJSONField("custom_form", &ev.CustomForm); err != nil {
		return nil, err
	}
	if err := record.UnmarshalJSONField("merchandise_items", &ev.MerchandiseItems); err != nil {
		return nil, err
	}

	return ev, nil
}

// DisplayStatus derives the participant-facing status from the persisted
// status and the clock. Draft stays draft; closed/completed stay closed;
// a published event moves upcoming -> ongoing -> closed as time passes.
func (e *Event) DisplayStatus(now time.Time) string {
	switch e.Status {
	case StatusDraft:
		return DisplayDraft
	case StatusClosed, StatusCompleted:
		return DisplayClosed
	}
	if now.After(e.EndDate) {
		return DisplayClosed
	}
	if now.Before(e.StartDate) {
		return DisplayUpcoming
	}
	return DisplayOngoing
}

// Editable reports whether the event still accepts organizer edits.
// Draft events are always editable; published ones close at end date.
func (e *Event) Editable(now time.Time) bool {
	if e.Status == StatusClosed {
		return false
	}
	if e.Status != StatusDraft && now.After(e.EndDate) {
		return false
	}
	return true
}

// FindItem returns a pointer into MerchandiseItems, or nil.
func (e *Event) FindItem(name string) *MerchandiseItem {
	for i := range e.MerchandiseItems {
		if e.MerchandiseItems[i].ItemName == name {
			return &e.MerchandiseItems[i]
		}
	}
	return nil
}

// FindVariant returns a pointer into Variants, or nil.
func (m *MerchandiseItem) FindVariant(size, color string) *Variant {
	for i := range m.Variants {
		if m.Variants[i].Size == size && m.Variants[i].Color == color {
			return &m.Variants[i]
		}
	}
	return nil
}

// ValidateTags checks the tag list against the allowed set.
func ValidateTags(tags []string) error {
	if len(tags) == 0 {
		return status.ErrTagRequired
	}
	for _, tag := range tags {
		if !slices.Contains(AllowedTags, tag) {
			return status.ErrInvalidTag
		}
	}
	return nil
}

// ValidateFormResponses checks that every required custom-form field has a
// non-empty response. A boolean false counts as present; empty strings and
// missing keys do not.
func ValidateFormResponses(form []CustomFormField, responses map[string]any) error {
	for _, field := range form {
		if !field.IsRequired {
			continue
		}
		value, ok := responses[field.FieldName]
		if !ok || value == nil || value == "" {
			return status.E(status.ErrMissingField, "Required field %q is missing", field.FieldName)
		}
	}
	return nil
}
