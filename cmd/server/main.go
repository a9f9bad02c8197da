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

	"github.com/dailit/dailit-server/internal/api"
	"github.com/dailit/dailit-server/internal/chatauth"
	"github.com/dailit/dailit-server/internal/config"
	"github.com/dailit/dailit-server/internal/models"
	"github.com/dailit/dailit-server/internal/repository"
	"github.com/dailit/dailit-server/internal/scheduler"
	"github.com/dailit/dailit-server/internal/service"
	"github.com/dailit/dailit-server/internal/utils"
	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	logger := utils.NewLogger(cfg.LogLevel)

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Create repository
	var repo repository.Repository
	switch cfg.Database.Driver {
	case "memory":
		logger.Warn("using the in-memory store, data is lost on restart")
		repo = repository.NewMemoryRepository()
	default:
		db, err := config.SetupDatabase(cfg, logger)
		if err != nil {
			logger.LogError("main", "main", "setting up database", nil, err)
			os.Exit(1)
		}
		defer db.Close()
		repo = repository.NewPostgresRepository(db)
	}

	// Create service
	svc := service.NewDefaultService(repo, logger, service.Options{
		JWTSecret:       cfg.Auth.JWTSecret,
		SoonWindowDays:  cfg.Expiry.SoonWindowDays,
		ReparentOrphans: cfg.Hierarchy.ReparentOrphans,
	})

	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		created, err := svc.EnsureAdmin(sigCtx, models.SignUpRequest{
			Email:    cfg.Auth.AdminEmail,
			Password: cfg.Auth.AdminPassword,
			Name:     cfg.Auth.AdminName,
		})
		if err != nil {
			logger.LogError("main", "main", "creating bootstrap admin", nil, err)
			os.Exit(1)
		}
		if created {
			logger.Info("created bootstrap admin %s", cfg.Auth.AdminEmail)
		}
	}

	jobs := scheduler.NewJobs(svc, logger)
	cron := scheduler.NewScheduler(jobs, logger, cfg.Scheduler.StatusRefreshSchedule)
	if err := cron.Start(); err != nil {
		logger.LogError("main", "main", "starting scheduler", cfg.Scheduler.StatusRefreshSchedule, err)
		os.Exit(1)
	}

	// Create API handler
	chat := chatauth.NewClient(cfg.Chat.LoginURL, cfg.Chat.DashboardURL, cfg.Chat.TeamSlug)
	handler := api.NewHandler(svc, chat, logger, api.Options{
		JWTSecret:      cfg.Auth.JWTSecret,
		LoginPerMinute: cfg.RateLimit.LoginPerMinute,
		LoginBurst:     cfg.RateLimit.LoginBurst,
	})

	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-sigCtx.Done():
				return
			case <-ticker.C:
				handler.LoginLimiter().Cleanup(30 * time.Minute)
			}
		}
	}()

	// Set up Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestLogger(logger))
	router.Use(api.MetricsMiddleware())
	router.Use(api.CORSMiddleware(cfg.CORS.AllowedOrigins, cfg.IsProduction()))

	// Set up routes
	handler.SetupRoutes(router)

	// Start server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError("main", "main", "serving http", nil, err)
			stopSignals()
		}
	}()

	<-sigCtx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError("main", "main", "shutting down http server", nil, err)
	}

	select {
	case <-cron.Stop().Done():
	case <-shutdownCtx.Done():
	}
}
