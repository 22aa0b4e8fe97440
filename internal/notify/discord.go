package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"eventhub/models"
	"eventhub/utils"
)

const (
	colorPublished = 0x2563eb
	colorUpdated   = 0xf59e0b
)

// Discord posts event announcements to an organizer's webhook, if they
// configured one. A missing webhook URL is not an error. Deliveries go
// through a circuit breaker so a dead webhook stops being retried for a
// while instead of timing out on every announcement.
type Discord struct {
	Client  *http.Client
	breaker *utils.Breaker
}

func NewDiscord(maxFailures int, cooldown time.Duration) *Discord {
	return &Discord{
		Client:  &http.Client{Timeout: 10 * time.Second},
		breaker: utils.NewBreaker("discord", maxFailures, cooldown),
	}
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Color       int                 `json:"color"`
	Fields      []discordEmbedField `json:"fields"`
	Footer      map[string]string   `json:"footer"`
	Timestamp   string              `json:"timestamp"`
}

type discordPayload struct {
	Username string         `json:"username"`
	Embeds   []discordEmbed `json:"embeds"`
}

// AnnounceEvent posts a publish or update embed for ev to webhookURL.
func (d *Discord) AnnounceEvent(ctx context.Context, webhookURL string, ev *models.Event, organizerName string, updated bool) error {
	if webhookURL == "" {
		return nil
	}

	title := fmt.Sprintf("New Event: %s", ev.Name)
	color := colorPublished
	if updated {
		title = fmt.Sprintf("Event Updated: %s", ev.Name)
		color = colorUpdated
	}

	tag := "event"
	if len(ev.Tags) > 0 {
		tag = ev.Tags[0]
	}
	fee := "Free"
	if ev.RegistrationFee > 0 {
		fee = fmt.Sprintf("₹%.0f", ev.RegistrationFee)
	}

	payload := discordPayload{
		Username: organizerName,
		Embeds: []discordEmbed{{
			Title:       title,
			Description: ev.Description,
			Color:       color,
			Fields: []discordEmbedField{
				{Name: "Tag", Value: tag, Inline: true},
				{Name: "Eligibility", Value: ev.Eligibility, Inline: true},
				{Name: "Starts", Value: ev.StartDate.Format("02/01/2006"), Inline: true},
				{Name: "Registration Deadline", Value: ev.RegistrationDeadline.Format("02/01/2006"), Inline: true},
				{Name: "Fee", Value: fee, Inline: true},
			},
			Footer:    map[string]string{"text": fmt.Sprintf("Organizer: %s", organizerName)},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: discord payload: %w", err)
	}

	return d.breaker.Do(func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("notify: discord request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := d.Client.Do(req)
		if err != nil {
			return fmt.Errorf("notify: discord webhook: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return fmt.Errorf("notify: discord webhook: unexpected status %d", resp.StatusCode)
		}
		return nil
	})
}
