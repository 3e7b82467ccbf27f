package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/warp/worklog/api"
	"github.com/warp/worklog/auth"
	"github.com/warp/worklog/directory"
	"github.com/warp/worklog/export"
	"github.com/warp/worklog/payroll"
	"github.com/warp/worklog/store/workbook"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: "Serves the work log API. Sign-in needs passkeys, and the built-in roster\n" +
		"has none: point roster_path (WORKLOG_ROSTER_PATH) at a roster file that sets\n" +
		"admin_passkey and per-employee passkey entries.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Addr = serveAddr
		}
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
}

// serve starts the server and blocks until SIGINT or SIGTERM.
func serve(ctx context.Context) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	st, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	roster, err := loadRoster(cfg)
	if err != nil {
		return err
	}
	if err := roster.CheckSignIn(); err != nil {
		return fmt.Errorf("%w: set roster_path to a roster with passkeys", err)
	}
	if _, err := directory.Seed(ctx, st, roster); err != nil {
		return err
	}

	var sink payroll.LogSink = payroll.NopSink{}
	if cfg.WorkbookPath != "" {
		wb, err := workbook.Open(cfg.WorkbookPath)
		if err != nil {
			return err
		}
		log.WithField("path", wb.Path()).Info("spreadsheet log enabled")
		sink = wb
	}

	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	creds := auth.NewCredentials(roster.Passkeys(), roster.AdminPasskey)

	handler := api.NewHandler(st, sink, tokens, creds)
	handler.Roster = roster
	handler.Importer.Limit = cfg.ImportLimit
	handler.Importer.SnapToMonday = cfg.SnapWeeks
	handler.SnapWeeks = cfg.SnapWeeks

	if cfg.S3Bucket != "" {
		up, err := export.NewS3Uploader(ctx, cfg.S3Bucket, cfg.S3Prefix)
		if err != nil {
			return err
		}
		handler.Uploader = up
	}

	scheduler := api.NewPayrollScheduler(handler.Builder)
	scheduler.CheckInterval = cfg.ReportInterval
	scheduler.Enabled = cfg.ReportInterval > 0
	handler.Scheduler = scheduler
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewRouter(handler, cfg.CORSOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithFields(log.Fields{"addr": cfg.Addr, "store": cfg.Store, "env": cfg.Environment}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-quit:
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}
