package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"wedding-rsvp/internal/handler"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	Console bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Run the RSVP HTTP API",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, rootOpts, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Console, "console", false, "also run the interactive admin console on stdin")

	return cmd
}

func runServe(cmd *cobra.Command, rootOpts *RootOptions, opts *ServeOptions) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, rootOpts, cmd.ErrOrStderr(), true)
	if err != nil {
		return err
	}
	defer a.Close()

	gin.SetMode(gin.ReleaseMode)
	router := handler.NewRouter(a.engine, &handler.Options{
		AllowedOrigins: a.cfg.AllowedOrigins,
		Credentials:    handler.StaticCredentials(a.cfg.AdminUsername, a.cfg.AdminPassword),
	}, component(a.log, "http"))
	if a.cfg.AdminPassword == "" {
		a.log.Warn().Msg("ADMIN_PASSWORD not set, admin routes are disabled")
	}

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	if opts.Console {
		go func() {
			console := NewConsole(a.engine, cmd.InOrStdin(), cmd.OutOrStdout())
			if err := console.Run(ctx); err != nil {
				a.log.Error().Err(err).Msg("Console stopped")
			}
			stop()
		}()
	}

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}

	a.log.Info().Msg("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
