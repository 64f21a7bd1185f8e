package main

import (
	"github.com/tribaltrek/pulse/internal/config"
	"github.com/tribaltrek/pulse/internal/handlers"
	"github.com/tribaltrek/pulse/internal/models"
	"github.com/tribaltrek/pulse/internal/services"
	"github.com/tribaltrek/pulse/pkg/logger"
)

// appServices holds all initialized services and handlers needed by the application.
type appServices struct {
	taskQueue       services.TaskQueue
	worker          *services.Worker
	digestService   *services.DigestService
	feedbackHandler *handlers.FeedbackHandler
	channelHandler  *handlers.AlertChannelHandler
}

// bootstrap initializes all application dependencies: database, services, schedulers.
func bootstrap(cfg *config.Config) *appServices {
	// Initialize database
	if err := models.InitDB(&cfg.Database); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Auto migrate database
	if err := models.AutoMigrate(); err != nil {
		logger.Fatalf("Failed to migrate database: %v", err)
	}

	db := models.GetDB()

	// Initialize task queue (uses Redis if enabled, otherwise sync mode)
	notificationService := services.NewNotificationService(db)
	taskQueue := services.InitTaskQueue(cfg)
	if syncQueue, ok := taskQueue.(*services.SyncQueue); ok {
		syncQueue.SetProcessor(notificationService.DispatchAlert)
	}

	// Start async worker if Redis is enabled
	var worker *services.Worker
	if cfg.Redis.Enabled {
		worker = services.InitWorker(&cfg.Redis)
		if worker != nil {
			worker.SetProcessor(notificationService.DispatchAlert)
			worker.Start()
		}
	}

	// Alerting and the in-memory sentiment trend window
	alertService := services.NewAlertService(db, taskQueue)
	trendMonitor := services.NewTrendMonitor(services.DefaultTrendCapacity)
	trendMonitor.SetAlertFunc(alertService.NotifyTrend)

	// Feedback pipeline
	aiService := services.NewAIService(&cfg.AI)
	feedbackService := services.NewFeedbackService(db, aiService, trendMonitor, alertService)
	statsService := services.NewStatsService(db)

	// Daily sentiment digest scheduler
	digestService := services.NewDigestService(statsService, taskQueue, cfg.Alerts.DigestCron)
	if cfg.Alerts.DigestEnabled {
		digestService.StartScheduler()
	}

	return &appServices{
		taskQueue:       taskQueue,
		worker:          worker,
		digestService:   digestService,
		feedbackHandler: handlers.NewFeedbackHandler(feedbackService, statsService, trendMonitor),
		channelHandler:  handlers.NewAlertChannelHandler(db),
	}
}

// shutdown gracefully stops all services.
func (s *appServices) shutdown() {
	s.digestService.StopScheduler()
	logger.Info().Msg("Schedulers stopped")

	if s.worker != nil {
		s.worker.Stop()
	}
	if s.taskQueue != nil {
		s.taskQueue.Close()
	}
}
