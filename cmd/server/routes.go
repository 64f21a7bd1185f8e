package main

import (
	"github.com/gin-gonic/gin"
	"github.com/tribaltrek/pulse/internal/handlers"
	"github.com/tribaltrek/pulse/internal/middleware"
	"github.com/tribaltrek/pulse/pkg/logger"
)

// registerRoutes sets up all HTTP routes on the given Gin engine.
func registerRoutes(r *gin.Engine, svc *appServices) {
	// Middleware
	r.Use(logger.GinLogger(), logger.GinRecovery())
	r.RedirectTrailingSlash = false
	r.RedirectFixedPath = false
	r.Use(middleware.CORS())

	// Rate limiter for feedback submission
	submitLimiter := middleware.NewRateLimiter(10, 20)

	// Health check
	r.GET("/health", handlers.HealthCheck)

	// API routes
	api := r.Group("/api")
	{
		feedback := api.Group("/feedback")
		{
			feedback.POST("", submitLimiter.Middleware(), svc.feedbackHandler.Create)
			feedback.GET("", svc.feedbackHandler.List)
			feedback.PUT("", svc.feedbackHandler.Update)
			feedback.GET("/stats", svc.feedbackHandler.Stats)
			feedback.GET("/trends", svc.feedbackHandler.Trends)
		}

		channels := api.Group("/alert-channels")
		{
			channels.GET("", svc.channelHandler.List)
			channels.POST("", svc.channelHandler.Create)
			channels.PUT("/:id", svc.channelHandler.Update)
			channels.DELETE("/:id", svc.channelHandler.Delete)
		}
	}
}
