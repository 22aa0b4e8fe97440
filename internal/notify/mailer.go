package notify

import (
	"bytes"
	"fmt"
	"io"
	"net/mail"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/mailer"
)

// RegistrationEmail carries everything the confirmation mail needs. QRPNG is
// attached inline and referenced from the HTML body.
type RegistrationEmail struct {
	To            string
	Participant   string
	EventName     string
	OrganizerName string
	EventStart    string
	EventType     string
	QRPNG         []byte
}

// Mailer sends registration confirmations through the app's configured SMTP
// client (falls back to the log sender when SMTP is off).
type Mailer struct {
	app core.App
}

func NewMailer(app core.App) *Mailer {
	return &Mailer{app: app}
}

func (m *Mailer) SendRegistrationEmail(email RegistrationEmail) error {
	meta := m.app.Settings().Meta

	message := &mailer.Message{
		From: mail.Address{
			Name:    meta.SenderName,
			Address: meta.SenderAddress,
		},
		To:      []mail.Address{{Address: email.To}},
		Subject: fmt.Sprintf("Registration Confirmed: %s", email.EventName),
		HTML:    registrationHTML(email),
		InlineAttachments: map[string]io.Reader{
			"qrcode": bytes.NewReader(email.QRPNG),
		},
	}

	if err := m.app.NewMailClient().Send(message); err != nil {
		return fmt.Errorf("notify: registration email to %s: %w", email.To, err)
	}
	return nil
}

func registrationHTML(email RegistrationEmail) string {
	var body string
	if email.EventType == "normal" {
		body = fmt.Sprintf(`<p>Event starts: <strong>%s</strong></p>
<p>Your attendance QR code. Show this at the venue to mark your attendance.</p>
<div style="text-align:center"><img src="cid:qrcode" alt="Attendance QR" width="200" height="200"/></div>`,
			email.EventStart)
	} else {
		body = `<p>Your order QR code. Present this when collecting your merchandise.</p>
<div style="text-align:center"><img src="cid:qrcode" alt="Order QR" width="200" height="200"/></div>`
	}

	return fmt.Sprintf(`<div style="font-family:Arial,sans-serif;max-width:520px;margin:0 auto">
<h1>Registration Confirmed</h1>
<p>Hi <strong>%s</strong>,</p>
<p>You have successfully registered for <strong>%s</strong> by <strong>%s</strong>.</p>
%s
<p style="font-size:13px;color:#94a3b8">This QR code is unique to you. Do not share it.</p>
</div>`,
		email.Participant, email.EventName, email.OrganizerName, body)
}
