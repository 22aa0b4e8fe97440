package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"eventhub/internal/status"
)

func TestDisplayStatus(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		status string
		start  time.Time
		end    time.Time
		want   string
	}{
		{"draft stays draft", StatusDraft, now.Add(time.Hour), now.Add(2 * time.Hour), DisplayDraft},
		{"closed stays closed", StatusClosed, now.Add(time.Hour), now.Add(2 * time.Hour), DisplayClosed},
		{"completed reads closed", StatusCompleted, now.Add(-2 * time.Hour), now.Add(-time.Hour), DisplayClosed},
		{"published before start", StatusPublished, now.Add(time.Hour), now.Add(2 * time.Hour), DisplayUpcoming},
		{"published in window", StatusPublished, now.Add(-time.Hour), now.Add(time.Hour), DisplayOngoing},
		{"published after end", StatusPublished, now.Add(-2 * time.Hour), now.Add(-time.Hour), DisplayClosed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := &Event{Status: tt.status, StartDate: tt.start, EndDate: tt.end}
			assert.Equal(t, tt.want, ev.DisplayStatus(now))
		})
	}
}

func TestEditable(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	past := &Event{Status: StatusPublished, EndDate: now.Add(-time.Hour)}
	assert.False(t, past.Editable(now))

	closed := &Event{Status: StatusClosed, EndDate: now.Add(time.Hour)}
	assert.False(t, closed.Editable(now))

	draftPast := &Event{Status: StatusDraft, EndDate: now.Add(-time.Hour)}
	assert.True(t, draftPast.Editable(now))

	live := &Event{Status: StatusPublished, EndDate: now.Add(time.Hour)}
	assert.True(t, live.Editable(now))
}

func TestValidateTags(t *testing.T) {
	assert.ErrorIs(t, ValidateTags(nil), status.ErrTagRequired)
	assert.ErrorIs(t, ValidateTags([]string{"competition", "rave"}), status.ErrInvalidTag)
	assert.NoError(t, ValidateTags([]string{"workshop", "cultural"}))
}

func TestValidateFormResponses(t *testing.T) {
	form := []CustomFormField{
		{FieldName: "Team Name", FieldType: "text", IsRequired: true},
		{FieldName: "Dietary", FieldType: "text"},
		{FieldName: "Accommodation", FieldType: "checkbox", IsRequired: true},
	}

	err := ValidateFormResponses(form, map[string]any{"Team Name": "gophers"})
	assert.ErrorIs(t, err, status.ErrMissingField)
	assert.Equal(t, `Required field "Accommodation" is missing`, err.Error())

	err = ValidateFormResponses(form, map[string]any{"Team Name": "", "Accommodation": true})
	assert.ErrorIs(t, err, status.ErrMissingField)

	// A false checkbox is still an answer.
	assert.NoError(t, ValidateFormResponses(form, map[string]any{
		"Team Name":     "gophers",
		"Accommodation": false,
	}))

	// Optional fields may be absent.
	assert.NoError(t, ValidateFormResponses(nil, nil))
}

func TestFindItemAndVariant(t *testing.T) {
	ev := merchEvent()

	item := ev.FindItem("Hoodie")
	assert.NotNil(t, item)
	assert.Nil(t, ev.FindItem("Cap"))

	v := item.FindVariant("M", "black")
	assert.NotNil(t, v)
	assert.Equal(t, 10, v.Stock)
	assert.Nil(t, item.FindVariant("M", "red"))

	// Returned pointers alias the event for in-place stock math.
	v.Stock--
	assert.Equal(t, 9, ev.MerchandiseItems[0].Variants[0].Stock)
}
