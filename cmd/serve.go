package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/names-to-faces/internal/app"
	"github.com/kozaktomas/names-to-faces/internal/config"
	"github.com/kozaktomas/names-to-faces/internal/constants"
	"github.com/kozaktomas/names-to-faces/internal/person"
	"github.com/kozaktomas/names-to-faces/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the Names to Faces HTTP API.

POST /api/v1/lifecycle/foreground runs the biometric verifier on this machine
and falls back to the password in the request body. An unlock returns a
session cookie for the /api/v1/people endpoints. Every foreground or
background event invalidates all sessions.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 0, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "", "Host to bind to (overrides WEB_HOST)")
	serveCmd.Flags().String("session-secret", "", "Secret for signing session cookies (overrides WEB_SESSION_SECRET)")
}

// logPresenter reports list changes in the log; HTTP clients poll the list.
func logPresenter() app.Presenter {
	return app.PresenterFunc(func(people []person.Person) {
		if people == nil {
			slog.Debug("people list hidden")
			return
		}
		slog.Debug("people list changed", "count", len(people))
	})
}

// resolveServeHostPort applies command line overrides to the loaded config.
func resolveServeHostPort(cmd *cobra.Command, cfg *config.Config) {
	if port := mustGetInt(cmd, "port"); port > 0 {
		cfg.Web.Port = port
	}
	if host := mustGetString(cmd, "host"); host != "" {
		cfg.Web.Host = host
	}
	if secret := mustGetString(cmd, "session-secret"); secret != "" {
		cfg.Web.SessionSecret = secret
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	resolveServeHostPort(cmd, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rt, err := newRuntime(ctx, cfg, logPresenter())
	if err != nil {
		return err
	}
	defer rt.Close()

	if cfg.Web.SessionSecret == "" {
		rt.logger.Warn("WEB_SESSION_SECRET is not set, using the development secret")
	}

	server := web.NewServer(cfg, rt.app, rt.loop, rt.logger)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		fmt.Println("\nShutting down...")

		shutdownCtx, shutdownCancel := context.WithTimeout(ctx, constants.ShutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			fmt.Printf("Error during shutdown: %v\n", err)
		}
	}()

	fmt.Printf("Starting Names to Faces API on http://%s:%d (backend: %s)\n", cfg.Web.Host, cfg.Web.Port, cfg.Backend)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Start(); err != nil {
		return fmt.Errorf("starting server: %w", err)
	}
	return nil
}
