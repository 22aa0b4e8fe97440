// Package ticket issues the opaque redemption tokens and their QR encodings.
package ticket

import (
	"encoding/base64"
	"fmt"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
)

const qrSize = 256

// Ticket is a freshly issued redemption token. DataURL is what gets stored on
// the registration and rendered by clients; PNG is the raw image for the
// confirmation email attachment.
type Ticket struct {
	ID      string
	DataURL string
	PNG     []byte
}

// Issuer generates tickets. NewID is swappable for tests; the default is a
// random UUID, unique across all registrations.
type Issuer struct {
	NewID func() string
}

func NewIssuer() *Issuer {
	return &Issuer{NewID: uuid.NewString}
}

// Issue mints a ticket id and encodes it as a QR image. The QR payload is
// exactly the ticket id; the id remains the canonical redemption key even if
// the image is ever regenerated.
func (i *Issuer) Issue() (*Ticket, error) {
	id := i.NewID()
	png, err := qrcode.Encode(id, qrcode.Medium, qrSize)
	if err != nil {
		return nil, fmt.Errorf("ticket: encode qr: %w", err)
	}
	return &Ticket{
		ID:      id,
		DataURL: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		PNG:     png,
	}, nil
}
