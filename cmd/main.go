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

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"foodlog/config"
	"foodlog/controllers"
	"foodlog/routes"
	"foodlog/services"
	"foodlog/utils"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "foodlog",
		Short: "Meal logging service with photo analysis",
	}
	root.AddCommand(newServeCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var port int
	var provider string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.HTTPPort = port
			}
			if provider != "" {
				cfg.AnalyzerProvider = provider
				if err := cfg.Resolve(); err != nil {
					return err
				}
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "override FOODLOG_HTTP_PORT")
	cmd.Flags().StringVar(&provider, "provider", "", "override FOODLOG_ANALYZER_PROVIDER (vision, rekognition)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := utils.NewLogger("foodlog", cfg.LogLevel)
	gin.SetMode(gin.ReleaseMode)

	rec, err := newRecognizer(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("recognizer unavailable")
		return err
	}

	var archive services.PhotoStore
	if cfg.PhotoBucket != "" {
		a, err := services.NewPhotoArchive(ctx, cfg.AWSRegion, cfg.PhotoBucket, cfg.PhotoPrefix)
		if err != nil {
			log.Error().Err(err).Msg("photo archive unavailable")
			return err
		}
		archive = a
	}

	reg := prometheus.NewRegistry()
	metrics := services.NewMetrics(reg)
	hub := services.NewRealtimeHub()

	ingestion := services.NewIngestionService(services.NewEntryBuilder(), cfg.FallbackMeal, metrics, log, hub)
	analysis := services.NewImageAnalysisService(rec, cfg.MaxImageBytes, metrics, log)
	snap := services.NewSnapService(analysis, ingestion, archive, cfg.AnalysisTimeout, cfg.AnalysisRetries, log)

	router := routes.SetupRouter(routes.Deps{
		Sessions:  services.NewSessionRegistry(),
		FoodLogs:  controllers.NewFoodLogController(ingestion, cfg.Location),
		Images:    controllers.NewImageAnalysisController(snap, cfg.MaxImageBytes),
		Realtime:  controllers.NewRealtimeController(hub),
		Gatherer:  reg,
		Log:       log,
		MaxUpload: cfg.MaxImageBytes,
	})

	// analysis calls (and their retries) must fit inside one response
	writeTimeout := cfg.AnalysisTimeout*time.Duration(cfg.AnalysisRetries+1) + 15*time.Second
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Int("port", cfg.HTTPPort).
			Str("provider", rec.Name()).
			Str("timezone", cfg.Timezone).
			Bool("photo_archive", archive != nil).
			Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		log.Error().Err(err).Msg("HTTP server failed")
		return err
	case <-quit:
	}

	log.Info().Msg("Shutting down server…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func newRecognizer(ctx context.Context, cfg *config.Config) (services.Recognizer, error) {
	switch cfg.AnalyzerProvider {
	case config.ProviderRekognition:
		table, err := services.LoadCalorieTable(cfg.CalorieTable)
		if err != nil {
			return nil, err
		}
		return services.NewRekognitionRecognizer(ctx, cfg.AWSRegion, table, cfg.RekognitionMaxLabels, cfg.RekognitionMinConfidence)
	case config.ProviderVision:
		return services.NewVisionClient(cfg.VisionURL, cfg.VisionAPIKey, cfg.VisionModel), nil
	}
	return nil, fmt.Errorf("unsupported analyzer provider %q", cfg.AnalyzerProvider)
}
