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

	"spreadpool/internal/api"
	"spreadpool/internal/app"
	"spreadpool/internal/config"
	"spreadpool/internal/logging"
	"spreadpool/internal/mailer"
	"spreadpool/internal/metrics"
	"spreadpool/internal/picks"
	"spreadpool/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.MustLoad()
	logging.Setup(cfg.AppEnv, cfg.LogLevel)

	log.Info().
		Str("env", cfg.AppEnv).
		Int("season", cfg.SeasonYear).
		Msg("Starting spread pool server")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	a, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize backends")
	}
	defer a.Close()

	extractor := picks.NewExtractor(a.Scores, a.Calendar)
	ingestor := mailer.NewIngestor(extractor, a.Spreads, acknowledger(cfg))

	health := map[string]api.HealthCheck{"postgres": a.DB.Health}
	if a.Cache != nil {
		health["redis"] = a.Cache.Ping
	}

	server := api.NewServer(api.Deps{
		Scores:   a.Scores,
		Spreads:  a.Spreads,
		Tally:    a.Tally,
		Ingester: ingestor,
		Calendar: a.Calendar,
		Health:   health,
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.APIPort)
		log.Info().Str("addr", addr).Msg("Starting API server")
		if err := server.Listen(addr); err != nil {
			log.Error().Err(err).Msg("API server failed")
			cancel()
		}
	}()

	var metricsServer *http.Server
	if cfg.EnableMetrics {
		metricsServer = startMetricsServer(cfg.MetricsPort)
	}

	go reportStats(ctx, a)

	sched := scheduler.NewScheduler(scheduler.Config{
		TallyCron:    cfg.TallyRefreshCron,
		PollInterval: cfg.ScorePollInterval,
	}, a.Calendar, a.Scores, a.Tally)

	if cfg.EnableScheduler {
		if err := sched.Start(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to start scheduler")
		}
	}

	<-ctx.Done()

	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("API server shutdown failed")
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("Metrics server shutdown failed")
		}
	}

	log.Info().Msg("Server shutdown complete")
}

// acknowledger mails replies when an SMTP relay is configured and logs them otherwise
func acknowledger(cfg *config.Config) mailer.Acknowledger {
	if !cfg.SMTPEnabled() {
		log.Info().Msg("No SMTP host configured, acknowledgments will be logged only")
		return mailer.LogAcknowledger{}
	}

	return mailer.NewSMTPAcknowledger(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		Sender:   cfg.MailSender,
	})
}

// reportStats keeps the uptime and pool gauges current
func reportStats(ctx context.Context, a *app.App) {
	startTime := time.Now()
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			stat := a.DB.Pool.Stat()
			metrics.UpdateDBConnectionStats(stat.AcquiredConns(), stat.IdleConns())
		case <-ctx.Done():
			return
		}
	}
}

// startMetricsServer starts a separate HTTP server for Prometheus metrics
func startMetricsServer(port int) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Int("port", port).Msg("Starting metrics server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Metrics server failed")
		}
	}()

	return srv
}
