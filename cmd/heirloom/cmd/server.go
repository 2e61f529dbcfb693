package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/heirloom-app/heirloom/api"
)

type serverConfig struct {
	Port int `env:"HEIRLOOM_PORT" envDefault:"8080"`
}

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the liveness heartbeat server",
	RunE: func(cmd *cobra.Command, args []string) error {
		var cfg serverConfig
		if err := env.Parse(&cfg); err != nil {
			return fmt.Errorf("parsing environment: %w", err)
		}
		if cmd.Flags().Changed("port") {
			cfg.Port = serverPort
		}

		repo, err := openRepository()
		if err != nil {
			return err
		}
		defer repo.Close()

		logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))
		a := api.New(repo, api.WithLogger(logger))

		r := chi.NewRouter()
		r.Use(middleware.Logger)
		r.Use(middleware.Recoverer)

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})
		r.Mount("/api/v1", a.Router())

		server := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			logger.Info("liveness server listening", "addr", server.Addr)
			errCh <- server.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("shutting down: %w", err)
			}
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "port to listen on")
	rootCmd.AddCommand(serverCmd)
}
