package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wedding-rsvp/internal/models"
)

func newTestEmailNotifier(t *testing.T) *EmailNotifier {
	t.Helper()
	n, err := NewEmailNotifier(&EmailConfig{
		Host:      "smtp.example.com",
		Port:      587,
		From:      "rsvp@example.com",
		BrideName: "Eliza",
		GroomName: "Louie",
	}, zerolog.Nop())
	require.NoError(t, err)
	return n
}

func TestEmailNotifier_RenderText(t *testing.T) {
	n := newTestEmailNotifier(t)
	g := goldie.New(t)

	for _, r := range []models.Response{models.ResponseAccepted, models.ResponseDeclined} {
		t.Run(string(r), func(t *testing.T) {
			email, err := n.Render(Confirmation{Name: "Jane Roe", Email: "p@q.com", Response: r})
			require.NoError(t, err)
			assert.Equal(t, Subject, email.Subject)
			g.Assert(t, "confirmation_"+string(r), []byte(email.Text))
		})
	}
}

func TestEmailNotifier_RenderHTML(t *testing.T) {
	n := newTestEmailNotifier(t)

	email, err := n.Render(Confirmation{Name: "Jane <Roe>", Email: "p@q.com", Response: models.ResponseAccepted})
	require.NoError(t, err)
	assert.Contains(t, email.HTML, "Dear <strong>Jane &lt;Roe&gt;</strong>")
	assert.Contains(t, email.HTML, "acceptance")
	assert.NotContains(t, email.HTML, "has been recorded")
	assert.Contains(t, email.HTML, "Eliza &amp; Louie")

	email, err = n.Render(Confirmation{Name: "Jane", Email: "p@q.com", Response: models.ResponseDeclined})
	require.NoError(t, err)
	assert.Contains(t, email.HTML, "has been recorded")
}

func TestEmailNotifier_RenderDetails(t *testing.T) {
	n := newTestEmailNotifier(t)
	n.cfg.WeddingDate = "December 13, 2025"
	n.cfg.WeddingLocation = "Tagaytay"

	email, err := n.Render(Confirmation{Name: "Jane", Response: models.ResponseAccepted})
	require.NoError(t, err)
	assert.Contains(t, email.HTML, "December 13, 2025 · Tagaytay")
}

func TestEmailNotifier_RejectsUnsetResponse(t *testing.T) {
	n := newTestEmailNotifier(t)
	err := n.Notify(context.Background(), Confirmation{Name: "Jane", Email: "p@q.com"})
	assert.Error(t, err)
}

func TestEmailNotifier_InvalidRecipient(t *testing.T) {
	n := newTestEmailNotifier(t)
	err := n.Notify(context.Background(), Confirmation{Name: "Jane", Email: "not an address", Response: models.ResponseAccepted})
	assert.ErrorContains(t, err, "invalid recipient")
}

type fakeSender struct {
	phone, message string
	err            error
}

func (f *fakeSender) SendMessage(_ context.Context, phone, message string) error {
	f.phone, f.message = phone, message
	return f.err
}

func TestHostAlert(t *testing.T) {
	sender := &fakeSender{}
	alert := &HostAlert{Sender: sender, Phone: "639171234567"}

	err := alert.Notify(context.Background(), Confirmation{Name: "Jane Roe", Email: "p@q.com", Response: models.ResponseDeclined})
	require.NoError(t, err)
	assert.Equal(t, "639171234567", sender.phone)
	assert.Equal(t, "❌ RSVP declined\n\nGuest: Jane Roe\nEmail: p@q.com", sender.message)

	sender.err = errors.New("not on whatsapp")
	err = alert.Notify(context.Background(), Confirmation{Name: "Jane Roe", Response: models.ResponseAccepted})
	assert.ErrorContains(t, err, "not on whatsapp")
	assert.Equal(t, "✅ RSVP accepted\n\nGuest: Jane Roe", sender.message)
}

func TestChain(t *testing.T) {
	var calls []string
	primary := NotifierFunc(func(context.Context, Confirmation) error {
		calls = append(calls, "primary")
		return errors.New("smtp down")
	})
	secondary := NotifierFunc(func(context.Context, Confirmation) error {
		calls = append(calls, "secondary")
		return errors.New("whatsapp down")
	})

	chain := &Chain{Primary: primary, Secondary: []Notifier{secondary}, Log: zerolog.Nop()}
	err := chain.Notify(context.Background(), Confirmation{Name: "Jane", Response: models.ResponseAccepted})

	assert.EqualError(t, err, "smtp down", "only the primary result is reported")
	assert.Equal(t, []string{"primary", "secondary"}, calls)
}

func TestChain_SecondaryFailureIgnored(t *testing.T) {
	chain := &Chain{
		Primary:   &LogNotifier{Log: zerolog.Nop()},
		Secondary: []Notifier{NotifierFunc(func(context.Context, Confirmation) error { return errors.New("boom") })},
		Log:       zerolog.Nop(),
	}
	assert.NoError(t, chain.Notify(context.Background(), Confirmation{Name: "Jane", Response: models.ResponseAccepted}))
}
