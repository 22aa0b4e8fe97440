package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/models"
	"eventhub/utils"
)

func testEvent() *models.Event {
	return &models.Event{
		ID:                   "evt1",
		Name:                 "Spring Hackathon",
		Description:          "48h build sprint",
		Eligibility:          models.EligibilityAll,
		Tags:                 []string{"competition"},
		StartDate:            time.Date(2026, 4, 3, 9, 0, 0, 0, time.UTC),
		RegistrationDeadline: time.Date(2026, 4, 1, 23, 59, 0, 0, time.UTC),
		RegistrationFee:      150,
	}
}

func TestAnnounceEvent_PostsEmbed(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscord(5, time.Minute)
	err := d.AnnounceEvent(context.Background(), srv.URL, testEvent(), "Tech Club", false)
	require.NoError(t, err)

	assert.Equal(t, "Tech Club", got["username"])
	embeds := got["embeds"].([]any)
	require.Len(t, embeds, 1)
	embed := embeds[0].(map[string]any)
	assert.Equal(t, "New Event: Spring Hackathon", embed["title"])

	fields := embed["fields"].([]any)
	byName := map[string]string{}
	for _, f := range fields {
		field := f.(map[string]any)
		byName[field["name"].(string)] = field["value"].(string)
	}
	assert.Equal(t, "competition", byName["Tag"])
	assert.Equal(t, "₹150", byName["Fee"])
	assert.Equal(t, "03/04/2026", byName["Starts"])
	assert.Equal(t, "01/04/2026", byName["Registration Deadline"])
}

func TestAnnounceEvent_UpdateTitle(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
	}))
	defer srv.Close()

	ev := testEvent()
	ev.RegistrationFee = 0

	d := NewDiscord(5, time.Minute)
	require.NoError(t, d.AnnounceEvent(context.Background(), srv.URL, ev, "Tech Club", true))

	embed := got["embeds"].([]any)[0].(map[string]any)
	assert.Equal(t, "Event Updated: Spring Hackathon", embed["title"])

	fields := embed["fields"].([]any)
	for _, f := range fields {
		field := f.(map[string]any)
		if field["name"] == "Fee" {
			assert.Equal(t, "Free", field["value"])
		}
	}
}

func TestAnnounceEvent_EmptyURLIsNoop(t *testing.T) {
	d := NewDiscord(5, time.Minute)
	assert.NoError(t, d.AnnounceEvent(context.Background(), "", testEvent(), "Tech Club", false))
}

func TestAnnounceEvent_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	d := NewDiscord(5, time.Minute)
	err := d.AnnounceEvent(context.Background(), srv.URL, testEvent(), "Tech Club", false)
	assert.Error(t, err)
}

func TestAnnounceEvent_BreakerStopsDeadWebhook(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	d := NewDiscord(2, time.Minute)
	ev := testEvent()

	assert.Error(t, d.AnnounceEvent(context.Background(), srv.URL, ev, "Tech Club", false))
	assert.Error(t, d.AnnounceEvent(context.Background(), srv.URL, ev, "Tech Club", false))

	// Breaker is open now; the webhook must not be hit again.
	err := d.AnnounceEvent(context.Background(), srv.URL, ev, "Tech Club", false)
	assert.ErrorIs(t, err, utils.ErrBreakerOpen)
	assert.Equal(t, 2, hits)
}
