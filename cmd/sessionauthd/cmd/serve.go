package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/MrEthical07/sessionauth/api"
	otelexport "github.com/MrEthical07/sessionauth/metrics/export/otel"
)

const meterName = "github.com/MrEthical07/sessionauth"

var (
	serveAddr      string
	serveNoMigrate bool
	serveNoReaper  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server and the session reaper",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadFromFlags(cmd)
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		rt, err := openRuntime(ctx, cfg, !serveNoMigrate)
		if err != nil {
			return err
		}
		defer rt.Close()

		if cfg.Metrics.OTel && !cfg.Metrics.Disabled {
			exporter, err := otelexport.NewOTelExporter(otel.Meter(meterName), rt.engine)
			if err != nil {
				return fmt.Errorf("register otel instruments: %w", err)
			}
			defer exporter.Close()
		}

		var wg sync.WaitGroup
		if !serveNoReaper {
			r, err := newReaper(rt)
			if err != nil {
				return err
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				r.Run(ctx)
			}()
			rt.logger.Info("session reaper started",
				slog.Duration("interval", r.Interval()),
			)
		}

		server := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           api.New(rt.engine, api.WithLogger(rt.logger)).Router(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		done := make(chan error, 1)
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				done <- fmt.Errorf("server failed: %w", err)
				return
			}
			done <- nil
		}()

		rt.logger.Info("listening", slog.String("addr", cfg.Server.Addr))

		select {
		case <-ctx.Done():
			rt.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			err = server.Shutdown(shutdownCtx)
			wg.Wait()
			if err != nil {
				return fmt.Errorf("server shutdown failed: %w", err)
			}
			return nil
		case err := <-done:
			stop()
			wg.Wait()
			return err
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address; overrides server.addr")
	serveCmd.Flags().BoolVar(&serveNoMigrate, "no-migrate", false, "Skip creating the tables at start-up")
	serveCmd.Flags().BoolVar(&serveNoReaper, "no-reaper", false, "Do not run the background session reaper")
}
