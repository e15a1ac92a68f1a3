package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"wedding-rsvp/internal/config"
	"wedding-rsvp/internal/notify"
	"wedding-rsvp/internal/rsvp"
	"wedding-rsvp/internal/storage"
	"wedding-rsvp/internal/whatsapp"
)

// app is the wired service shared by the commands.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	store    storage.GuestStore
	engine   *rsvp.Engine
	whatsapp *whatsapp.Service
}

// loadConfig applies the global flags on top of the environment.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	var cfg *config.Config
	if opts.EnvFile != "" {
		cfg = config.LoadConfig(opts.EnvFile)
	} else {
		cfg = config.LoadConfig()
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if opts.LogFormat != "" {
		cfg.LogFormat = opts.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newApp opens the store and builds the engine. With notifiers unset every
// confirmation is only logged.
func newApp(ctx context.Context, opts *RootOptions, logOut io.Writer, notifiers bool) (*app, error) {
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.LogLevel, cfg.LogFormat, logOut)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("driver", cfg.StoreDriver).Msg("Guest store opened")

	a := &app{cfg: cfg, log: log, store: store}

	var notifier notify.Notifier = &notify.LogNotifier{Log: component(log, "notify")}
	if notifiers {
		notifier, err = a.buildNotifier(ctx)
		if err != nil {
			a.Close()
			return nil, err
		}
	}

	loc, err := cfg.Location()
	if err != nil {
		a.Close()
		return nil, err
	}
	a.engine = rsvp.NewEngine(store, notifier, component(log, "engine"), &rsvp.Config{Location: loc})
	return a, nil
}

// openStore opens the guest store selected by STORE_DRIVER.
func openStore(cfg *config.Config) (storage.GuestStore, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres:
		return storage.OpenPostgres(cfg.DatabaseURL)
	case config.DriverJSON:
		if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return storage.NewFileStore(cfg.JSONStorePath())
	case config.DriverSQLite:
		if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		return storage.OpenSQLite(cfg.SQLitePath)
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}

// buildNotifier sends guest confirmations by email when SMTP is configured
// and alerts the hosts on WhatsApp when enabled.
func (a *app) buildNotifier(ctx context.Context) (notify.Notifier, error) {
	log := component(a.log, "notify")
	chain := &notify.Chain{Primary: &notify.LogNotifier{Log: log}, Log: log}

	if a.cfg.MailEnabled() {
		email, err := notify.NewEmailNotifier(&notify.EmailConfig{
			Host:            a.cfg.SMTPHost,
			Port:            a.cfg.SMTPPort,
			Username:        a.cfg.SMTPUsername,
			Password:        a.cfg.SMTPPassword,
			From:            a.cfg.MailFrom,
			BrideName:       a.cfg.BrideName,
			GroomName:       a.cfg.GroomName,
			WeddingDate:     a.cfg.WeddingDate,
			WeddingLocation: a.cfg.WeddingLocation,
		}, log)
		if err != nil {
			return nil, err
		}
		chain.Primary = email
	} else {
		log.Warn().Msg("SMTP_HOST or MAIL_FROM not set, confirmation emails are only logged")
	}

	if a.cfg.WhatsAppEnabled {
		svc, err := whatsapp.NewService(ctx, &whatsapp.Config{
			DataDir:     a.cfg.DataDir,
			CountryCode: a.cfg.PhoneCountryCode,
		}, component(a.log, "whatsapp"))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize WhatsApp: %w", err)
		}
		a.log.Info().Msg("Connecting to WhatsApp...")
		if err := svc.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect to WhatsApp: %w", err)
		}
		a.whatsapp = svc
		chain.Secondary = append(chain.Secondary, &notify.HostAlert{
			Sender: svc,
			Phone:  a.cfg.HostWhatsAppNumber,
		})
	}

	return chain, nil
}

// Close releases the store and the WhatsApp connection.
func (a *app) Close() {
	if a.whatsapp != nil {
		a.whatsapp.Disconnect()
	}
	if err := a.store.Close(); err != nil {
		a.log.Error().Err(err).Msg("Failed to close guest store")
	}
}

func component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
