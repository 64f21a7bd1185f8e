package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tribaltrek/pulse/internal/models"
	"github.com/tribaltrek/pulse/pkg/logger"
	"github.com/tribaltrek/pulse/pkg/response"
)

// AlertChannelHandler manages the webhooks that receive escalations,
// trend alerts and daily digests.
type AlertChannelHandler struct {
	db *gorm.DB
}

func NewAlertChannelHandler(db *gorm.DB) *AlertChannelHandler {
	return &AlertChannelHandler{db: db}
}

type alertChannelRequest struct {
	Name        string `json:"name" binding:"required"`
	Type        string `json:"type" binding:"required,oneof=slack webhook"`
	Webhook     string `json:"webhook" binding:"required,url"`
	IsActive    *bool  `json:"is_active"`
	TrendAlerts *bool  `json:"trend_alerts"`
	DailyDigest *bool  `json:"daily_digest"`
}

func (h *AlertChannelHandler) List(c *gin.Context) {
	var channels []models.AlertChannel
	if err := h.db.Order("id ASC").Find(&channels).Error; err != nil {
		logger.Errorf("[AlertChannel] List failed: %v", err)
		response.ServerError(c, "failed to load alert channels")
		return
	}
	response.Success(c, channels)
}

func (h *AlertChannelHandler) Create(c *gin.Context) {
	var req alertChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	channel := models.AlertChannel{
		Name:        req.Name,
		Type:        req.Type,
		Webhook:     req.Webhook,
		IsActive:    true,
		TrendAlerts: true,
	}
	if req.IsActive != nil {
		channel.IsActive = *req.IsActive
	}
	if req.TrendAlerts != nil {
		channel.TrendAlerts = *req.TrendAlerts
	}
	if req.DailyDigest != nil {
		channel.DailyDigest = *req.DailyDigest
	}

	if err := h.db.Create(&channel).Error; err != nil {
		logger.Errorf("[AlertChannel] Create failed: %v", err)
		response.ServerError(c, "failed to create alert channel")
		return
	}

	logger.Infof("[AlertChannel] Created channel %d (%s)", channel.ID, channel.Name)
	response.Created(c, channel)
}

func (h *AlertChannelHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid channel id")
		return
	}

	var channel models.AlertChannel
	if err := h.db.First(&channel, uint(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, "alert channel not found")
			return
		}
		logger.Errorf("[AlertChannel] Lookup failed: %v", err)
		response.ServerError(c, "failed to load alert channel")
		return
	}

	var req alertChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	channel.Name = req.Name
	channel.Type = req.Type
	channel.Webhook = req.Webhook
	if req.IsActive != nil {
		channel.IsActive = *req.IsActive
	}
	if req.TrendAlerts != nil {
		channel.TrendAlerts = *req.TrendAlerts
	}
	if req.DailyDigest != nil {
		channel.DailyDigest = *req.DailyDigest
	}

	if err := h.db.Save(&channel).Error; err != nil {
		logger.Errorf("[AlertChannel] Update failed: %v", err)
		response.ServerError(c, "failed to update alert channel")
		return
	}
	response.Success(c, channel)
}

func (h *AlertChannelHandler) Delete(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid channel id")
		return
	}

	result := h.db.Delete(&models.AlertChannel{}, uint(id))
	if result.Error != nil {
		logger.Errorf("[AlertChannel] Delete failed: %v", result.Error)
		response.ServerError(c, "failed to delete alert channel")
		return
	}
	if result.RowsAffected == 0 {
		response.NotFound(c, "alert channel not found")
		return
	}
	response.Success(c, gin.H{"deleted": uint(id)})
}
