package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dentalbuddy/clinic-api/internal/email"
	"github.com/dentalbuddy/clinic-api/internal/repository/postgres"
	"github.com/dentalbuddy/clinic-api/pkg/logger"
	"github.com/dentalbuddy/clinic-api/pkg/messaging/redis"
	"github.com/dentalbuddy/clinic-api/pkg/metrics"
	"github.com/dentalbuddy/clinic-api/pkg/worker"
)

// workerConfig is environment-only; the worker runs headless in the
// same deployment as the API but carries no config file.
type workerConfig struct {
	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`
	RedisURL    string `envconfig:"REDIS_URL" default:"redis://localhost:6379/0"`

	BatchSize           int `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	PollIntervalSeconds int `envconfig:"OUTBOX_POLL_INTERVAL_SECONDS" default:"5"`
	RetryAttempts       int `envconfig:"OUTBOX_RETRY_ATTEMPTS" default:"3"`
	RetryDelaySeconds   int `envconfig:"OUTBOX_RETRY_DELAY_SECONDS" default:"5"`
	RetentionDays       int `envconfig:"OUTBOX_RETENTION_DAYS" default:"30"`

	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM" default:"billing@dentalbuddy.local"`

	HealthPort int `envconfig:"HEALTH_PORT" default:"8081"`
}

func setupHealthCheck(port int, appLogger *logger.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(fmt.Sprintf(":%d", port), mux); err != nil {
			appLogger.ZL.Error().Err(err).Msg("Health check server failed")
			os.Exit(1)
		}
	}()
}

func main() {
	var cfg workerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load worker configuration")
	}

	log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	appLogger := &logger.Logger{ZL: log.Logger}

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.RedisURL}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Redis broker")
	}
	defer broker.Close()

	baseRepo := postgres.NewBaseRepository(db)
	outboxRepo := postgres.NewOutboxRepository(baseRepo)
	invoiceRepo := postgres.NewInvoiceRepository(baseRepo)
	patientRepo := postgres.NewPatientRepository(baseRepo)

	processor := worker.NewOutboxProcessor(
		outboxRepo,
		broker,
		worker.OutboxProcessorConfig{
			BatchSize:     cfg.BatchSize,
			PollInterval:  time.Duration(cfg.PollIntervalSeconds) * time.Second,
			RetryAttempts: cfg.RetryAttempts,
			RetryDelay:    time.Duration(cfg.RetryDelaySeconds) * time.Second,
			Retention:     time.Duration(cfg.RetentionDays) * 24 * time.Hour,
		},
		appLogger,
		metrics.New("outbox_processor"),
	)

	setupHealthCheck(cfg.HealthPort, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.SMTPHost != "" {
		emailSvc := email.NewSMTPService(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		})
		receipts := worker.NewReceiptListener(broker, emailSvc, invoiceRepo, patientRepo, appLogger)
		go func() {
			if err := receipts.Start(ctx); err != nil {
				appLogger.Error(err, "Receipt listener stopped")
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		appLogger.Info("Shutting down...")
		cancel()
	}()

	processor.Start(ctx)
}
