package notify

import (
	"context"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/models"
)

// Confirmation is what a guest is told after responding.
type Confirmation struct {
	Name     string
	Email    string
	Response models.Response
}

// Notifier sends a response confirmation. Failures are returned, never panicked.
type Notifier interface {
	Notify(ctx context.Context, c Confirmation) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, c Confirmation) error

func (f NotifierFunc) Notify(ctx context.Context, c Confirmation) error { return f(ctx, c) }

// Chain delivers to Primary and reports its result. Secondary notifiers
// (host alerts) are tried afterwards and their failures are only logged.
type Chain struct {
	Primary   Notifier
	Secondary []Notifier
	Log       zerolog.Logger
}

// Notify implements Notifier.
func (c *Chain) Notify(ctx context.Context, conf Confirmation) error {
	err := c.Primary.Notify(ctx, conf)

	for _, n := range c.Secondary {
		if serr := n.Notify(ctx, conf); serr != nil {
			c.Log.Warn().Err(serr).Str("guest", conf.Name).Msg("Secondary notification failed")
		}
	}
	return err
}

// LogNotifier only logs confirmations. Used when no mail server is configured.
type LogNotifier struct {
	Log zerolog.Logger
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, c Confirmation) error {
	n.Log.Info().
		Str("guest", c.Name).
		Str("email", c.Email).
		Str("response", string(c.Response)).
		Msg("RSVP confirmation (mail delivery disabled)")
	return nil
}
