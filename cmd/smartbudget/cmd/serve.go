package cmd

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"smartbudget/pkg/api"
	"smartbudget/pkg/config"
	"smartbudget/pkg/db"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the HTTP API",
	Long: `Serve the JSON API over the analytical database.

Endpoints:
  GET  /                 Service status
  GET  /expenses         List expenses (category, from, to, limit)
  POST /expenses         Create a validated expense
  GET  /recommendations  List recommendations
  GET  /healthz          Liveness probe
  GET  /metrics          Prometheus metrics

Example:
  smartbudget serve
  smartbudget serve --addr :8080`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: configured address)")
}

func runServe(cmd *cobra.Command, args []string) {
	// Load configuration
	cfg, err := config.Load(getConfigFile())
	exitOnError(err, "failed to load configuration")

	if err := cfg.Validate([]string{"storage", "dataDir"}, []string{"server", "addr"}); err != nil {
		exitOnError(err, "invalid configuration")
	}

	pathResolver := newPathResolver(cfg)

	// Open database
	dbPath := pathResolver.GetDatabasePath()
	slog.Debug("Opening database", "path", dbPath)
	conn, err := db.Open(dbPath)
	exitOnError(err, "failed to open database")
	defer conn.Close()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(conn),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on interrupt
	done := make(chan struct{})
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		slog.Info("Shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}
		close(done)
	}()

	slog.Info("Starting API server", "addr", addr, "database", dbPath)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		exitOnError(err, "server error")
	}
	<-done

	slog.Info("Server stopped")
}
