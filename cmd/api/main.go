package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dentalbuddy/clinic-api/internal/config"
	authHandler "github.com/dentalbuddy/clinic-api/internal/handler/auth"
	billingHandler "github.com/dentalbuddy/clinic-api/internal/handler/billing"
	healthHandler "github.com/dentalbuddy/clinic-api/internal/handler/health"
	patientHandler "github.com/dentalbuddy/clinic-api/internal/handler/patient"
	procedureHandler "github.com/dentalbuddy/clinic-api/internal/handler/procedure"
	reportHandler "github.com/dentalbuddy/clinic-api/internal/handler/report"
	roleHandler "github.com/dentalbuddy/clinic-api/internal/handler/role"
	userHandler "github.com/dentalbuddy/clinic-api/internal/handler/user"
	"github.com/dentalbuddy/clinic-api/internal/middleware"
	"github.com/dentalbuddy/clinic-api/internal/repository/postgres"
	"github.com/dentalbuddy/clinic-api/internal/router"
	authService "github.com/dentalbuddy/clinic-api/internal/service/auth"
	billingService "github.com/dentalbuddy/clinic-api/internal/service/billing"
	patientService "github.com/dentalbuddy/clinic-api/internal/service/patient"
	permissionService "github.com/dentalbuddy/clinic-api/internal/service/permission"
	procedureService "github.com/dentalbuddy/clinic-api/internal/service/procedure"
	reportService "github.com/dentalbuddy/clinic-api/internal/service/report"
	roleService "github.com/dentalbuddy/clinic-api/internal/service/role"
	userService "github.com/dentalbuddy/clinic-api/internal/service/user"
	"github.com/dentalbuddy/clinic-api/pkg/auth"
	"github.com/dentalbuddy/clinic-api/pkg/logger"
	"github.com/dentalbuddy/clinic-api/pkg/metrics"
	"github.com/dentalbuddy/clinic-api/pkg/security"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	level, err := zerolog.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	appLogger := logger.NewLogger(&logger.Config{
		Level:      level,
		TimeFormat: time.RFC3339,
		Pretty:     cfg.Logger.Pretty,
	})
	log.Logger = appLogger.ZL

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Repositories
	baseRepo := postgres.NewBaseRepository(db)
	roleRepo := postgres.NewRoleRepository(baseRepo)
	userRepo := postgres.NewUserRepository(baseRepo)
	patientRepo := postgres.NewPatientRepository(baseRepo)
	procedureRepo := postgres.NewProcedureRepository(baseRepo)
	invoiceRepo := postgres.NewInvoiceRepository(baseRepo)
	reportRepo := postgres.NewReportRepository(baseRepo)

	// Shared infrastructure
	hasher := security.NewBcryptHasher(0)
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour, cfg.JWT.Issuer)

	// Services
	permissionSvc := permissionService.NewService()
	authSvc := authService.NewService(userRepo, roleRepo, hasher, jwtSvc)
	roleSvc := roleService.NewService(roleRepo)
	userSvc := userService.NewService(userRepo, roleRepo, hasher)
	patientSvc := patientService.NewService(patientRepo)
	procedureSvc := procedureService.NewService(procedureRepo, patientRepo)
	billingSvc := billingService.NewService(invoiceRepo, procedureRepo, patientRepo).
		WithMetrics(metrics.New("clinic_billing"))
	reportSvc := reportService.NewService(reportRepo)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtSvc, permissionSvc, userRepo, roleRepo)
	rateLimiter := middleware.NewRateLimiter(cfg.RateLimit)

	// Router
	r := router.NewRouter(
		authMiddleware,
		authHandler.NewHandler(authSvc),
		healthHandler.NewHandler(db),
		patientHandler.NewHandler(patientSvc, procedureSvc),
		procedureHandler.NewHandler(procedureSvc),
		billingHandler.NewHandler(billingSvc),
		roleHandler.NewHandler(roleSvc),
		userHandler.NewHandler(userSvc),
		reportHandler.NewHandler(reportSvc),
		router.Config{
			CORSConfig:    middleware.DefaultCORSConfig(),
			RateLimiter:   rateLimiter,
			MetricsPrefix: "clinic_api",
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	log.Info().Int("port", cfg.Server.Port).Msg("server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
