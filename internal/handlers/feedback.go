package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tribaltrek/pulse/internal/services"
	"github.com/tribaltrek/pulse/pkg/logger"
)

// FeedbackHandler exposes the feedback pipeline over HTTP.
type FeedbackHandler struct {
	service *services.FeedbackService
	stats   *services.StatsService
	trends  *services.TrendMonitor
}

func NewFeedbackHandler(service *services.FeedbackService, stats *services.StatsService, trends *services.TrendMonitor) *FeedbackHandler {
	return &FeedbackHandler{service: service, stats: stats, trends: trends}
}

// Create handles POST /api/feedback. A submission always succeeds from the
// visitor's perspective unless validation fails or something unexpected
// breaks; provider unavailability degrades silently to rule-based analysis.
func (h *FeedbackHandler) Create(c *gin.Context) {
	var req services.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Submit(c.Request.Context(), &req)
	if err != nil {
		logger.Errorf("[Feedback] Submission failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process feedback"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"feedback":          result.Feedback,
		"chatbotResponse":   result.ChatbotResponse,
		"followUpQuestions": result.FollowUpQuestions,
	})
}

// List handles GET /api/feedback with optional filters and pagination.
func (h *FeedbackHandler) List(c *gin.Context) {
	var req services.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.service.List(&req)
	if err != nil {
		logger.Errorf("[Feedback] List failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load feedback"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Update handles PUT /api/feedback for vendor responses and flag overrides.
func (h *FeedbackHandler) Update(c *gin.Context) {
	var req services.UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	feedback, err := h.service.Update(&req)
	if err != nil {
		if errors.Is(err, services.ErrFeedbackNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Feedback not found"})
			return
		}
		logger.Errorf("[Feedback] Update failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update feedback"})
		return
	}

	c.JSON(http.StatusOK, feedback)
}

// Stats handles GET /api/feedback/stats.
func (h *FeedbackHandler) Stats(c *gin.Context) {
	location := c.Query("location")

	overview, err := h.stats.Overview(location, time.Time{})
	if err != nil {
		logger.Errorf("[Feedback] Stats failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to compute stats"})
		return
	}

	c.JSON(http.StatusOK, overview)
}

// Trends handles GET /api/feedback/trends, exposing the trend monitor's
// recent window for the optional location/category filters.
func (h *FeedbackHandler) Trends(c *gin.Context) {
	location := c.Query("location")
	category := c.Query("category")

	c.JSON(http.StatusOK, gin.H{
		"sentimentTrends": h.trends.Recent(location, category),
	})
}
