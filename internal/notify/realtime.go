package notify

import (
	"fmt"

	pubnub "github.com/pubnub/go"
)

// Realtime publishes organizer dashboard events (new registration, proof
// uploaded, ticket scanned) over PubNub. A nil client disables publishing,
// for deployments without PubNub credentials.
type Realtime struct {
	PubNub *pubnub.PubNub
}

func NewRealtime(pn *pubnub.PubNub) *Realtime {
	return &Realtime{PubNub: pn}
}

// OrganizerChannel is the per-organizer dashboard channel name.
func OrganizerChannel(organizerID string) string {
	return fmt.Sprintf("organizer-%s", organizerID)
}

func (r *Realtime) Publish(channel string, message map[string]any) error {
	if r.PubNub == nil {
		return nil
	}
	_, _, err := r.PubNub.Publish().
		Channel(channel).
		Message(message).
		Execute()
	if err != nil {
		return fmt.Errorf("notify: publish to %s: %w", channel, err)
	}
	return nil
}
