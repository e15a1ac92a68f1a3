package notify

import (
	"context"
	"fmt"
	"strings"

	"wedding-rsvp/internal/models"
)

// MessageSender delivers a text message to a phone number.
// *whatsapp.Service implements it.
type MessageSender interface {
	SendMessage(ctx context.Context, phoneNumber, message string) error
}

// HostAlert tells the hosts about every guest response over WhatsApp.
type HostAlert struct {
	Sender MessageSender
	Phone  string
}

// Notify implements Notifier.
func (h *HostAlert) Notify(ctx context.Context, c Confirmation) error {
	if err := h.Sender.SendMessage(ctx, h.Phone, AlertMessage(c)); err != nil {
		return fmt.Errorf("failed to send host alert: %w", err)
	}
	return nil
}

// AlertMessage formats the host alert for c.
func AlertMessage(c Confirmation) string {
	var b strings.Builder
	switch c.Response {
	case models.ResponseAccepted:
		b.WriteString("✅ RSVP accepted\n\n")
	case models.ResponseDeclined:
		b.WriteString("❌ RSVP declined\n\n")
	default:
		b.WriteString("RSVP update\n\n")
	}
	fmt.Fprintf(&b, "Guest: %s\n", c.Name)
	if c.Email != "" {
		fmt.Fprintf(&b, "Email: %s", c.Email)
	}
	return strings.TrimRight(b.String(), "\n")
}
