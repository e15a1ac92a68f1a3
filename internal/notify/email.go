package notify

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/rs/zerolog"
	"github.com/wneessen/go-mail"

	"wedding-rsvp/internal/models"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Subject is the subject line of every confirmation email.
const Subject = "Thank You for Your RSVP"

// EmailConfig holds SMTP and wording settings
type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string

	BrideName       string
	GroomName       string
	WeddingDate     string
	WeddingLocation string
}

// Email is a rendered confirmation.
type Email struct {
	Subject string
	Text    string
	HTML    string
}

// EmailNotifier sends confirmations over SMTP.
type EmailNotifier struct {
	cfg  *EmailConfig
	text *texttemplate.Template
	html *htmltemplate.Template
	log  zerolog.Logger
}

// NewEmailNotifier creates a new SMTP notifier
func NewEmailNotifier(cfg *EmailConfig, log zerolog.Logger) (*EmailNotifier, error) {
	text, err := texttemplate.ParseFS(templateFS, "templates/confirmation.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse text template: %w", err)
	}
	html, err := htmltemplate.ParseFS(templateFS, "templates/confirmation.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse html template: %w", err)
	}

	return &EmailNotifier{cfg: cfg, text: text, html: html, log: log}, nil
}

type emailData struct {
	Guest    string
	Accepted bool
	Couple   string
	Details  string
}

// Render builds the confirmation email for c without sending it.
func (n *EmailNotifier) Render(c Confirmation) (*Email, error) {
	data := emailData{
		Guest:    c.Name,
		Accepted: c.Response == models.ResponseAccepted,
		Couple:   fmt.Sprintf("%s & %s", n.cfg.BrideName, n.cfg.GroomName),
	}
	if n.cfg.WeddingDate != "" && n.cfg.WeddingLocation != "" {
		data.Details = fmt.Sprintf("%s · %s", n.cfg.WeddingDate, n.cfg.WeddingLocation)
	}

	var text, html bytes.Buffer
	if err := n.text.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("failed to render text body: %w", err)
	}
	if err := n.html.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to render html body: %w", err)
	}

	return &Email{Subject: Subject, Text: text.String(), HTML: html.String()}, nil
}

// Notify renders and sends the confirmation to c.Email
func (n *EmailNotifier) Notify(ctx context.Context, c Confirmation) error {
	if !c.Response.IsDecision() {
		return fmt.Errorf("cannot confirm response %q", c.Response)
	}

	email, err := n.Render(c)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return fmt.Errorf("invalid sender address: %w", err)
	}
	if err := msg.To(c.Email); err != nil {
		return fmt.Errorf("invalid recipient address %q: %w", c.Email, err)
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextPlain, email.Text)
	msg.AddAlternativeString(mail.TypeTextHTML, email.HTML)

	client, err := mail.NewClient(n.cfg.Host,
		mail.WithPort(n.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(n.cfg.Username),
		mail.WithPassword(n.cfg.Password),
		mail.WithTLSPortPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	n.log.Info().Str("to", c.Email).Str("response", string(c.Response)).Msg("Email sent successfully")
	return nil
}
