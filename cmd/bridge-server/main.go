package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinbridge/clinbridge/internal/config"
	"github.com/clinbridge/clinbridge/internal/domain/note"
	"github.com/clinbridge/clinbridge/internal/domain/patient"
	"github.com/clinbridge/clinbridge/internal/domain/template"
	"github.com/clinbridge/clinbridge/internal/domain/vocab"
	"github.com/clinbridge/clinbridge/internal/platform/emr"
	"github.com/clinbridge/clinbridge/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "bridge-server",
		Short: "Clinical note to EMR bridge",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(checkCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the bridge API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify EMR connectivity and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger := newLogger(cfg)
			client := emr.NewClient(cfg.EMRBaseURL, cfg.EMRUsername, cfg.EMRPassword, cfg.EMRTimeout(), logger)

			ctx, cancel := context.WithTimeout(cmd.Context(), cfg.EMRTimeout())
			defer cancel()
			if err := client.Ping(ctx); err != nil {
				return fmt.Errorf("EMR unreachable at %s: %w", cfg.EMRBaseURL, err)
			}
			logger.Info().Str("emr", cfg.EMRBaseURL).Msg("EMR reachable")
			return nil
		},
	}
}

func newLogger(cfg *config.Config) zerolog.Logger {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if cfg.IsDev() {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return logger
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := newLogger(cfg)

	client := emr.NewClient(cfg.EMRBaseURL, cfg.EMRUsername, cfg.EMRPassword, cfg.EMRTimeout(), logger)
	resolver := vocab.NewResolver(client)

	refs := note.Refs{
		VisitTypeID:           cfg.VisitTypeID,
		NoteEncounterTypeID:   cfg.NoteEncounterTypeID,
		OrderEncounterTypeID:  cfg.OrderEncounterTypeID,
		ClinicalNoteConceptID: cfg.ClinicalNoteConceptID,
		DrugOrderTypeID:       cfg.DrugOrderTypeID,
		CareSettingID:         cfg.CareSettingID,
		LocationID:            cfg.DefaultLocationID,
		ProviderID:            cfg.DefaultProviderID,
	}
	noteSvc := note.NewService(client, resolver, refs, logger)
	patientSvc := patient.NewService(client, cfg.VisitTypeID, logger)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recovery(logger))
	e.Use(echomw.RequestID())
	e.Use(middleware.Logger(logger))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api/v1")
	api.Use(middleware.APIKey(cfg.APIKey))
	note.NewHandler(noteSvc).RegisterRoutes(api)
	patient.NewHandler(patientSvc).RegisterRoutes(api)
	template.NewHandler().RegisterRoutes(api)

	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Str("emr", cfg.EMRBaseURL).Msg("starting bridge server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server start failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
