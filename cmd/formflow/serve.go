package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/aretw0/formflow"
	"github.com/aretw0/formflow/internal/presentation/tui"
	httpAdapter "github.com/aretw0/formflow/pkg/adapters/http"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Starts the engine behind a JSON API: form CRUD, canvas projection,
resolution, evaluation, generation, /metrics and the OpenAPI document.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		addr := a.cfg.Addr
		if v, _ := cmd.Flags().GetString("addr"); v != "" {
			addr = v
		}

		srv := &http.Server{
			Addr: addr,
			Handler: httpAdapter.NewHandler(a.engine,
				httpAdapter.WithLogger(a.logger),
				httpAdapter.WithMetrics(a.registry),
			),
		}

		if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
			tui.PrintBanner(os.Stderr, tui.Profile(os.Stderr), "version "+strings.TrimSpace(formflow.Version))
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			a.logger.Info("starting FormFlow server", "addr", srv.Addr, "store", a.cfg.Store)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case sig := <-shutdown:
			a.logger.Info("shutting down", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				a.logger.Warn("graceful shutdown did not complete", "timeout", shutdownTimeout.String(), "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("killing server: %w", err)
				}
			}
			a.logger.Info("FormFlow server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (default FORMFLOW_ADDR or :8080)")
	serveCmd.Flags().BoolP("quiet", "q", false, "Do not print the banner")
}
