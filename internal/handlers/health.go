package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tribaltrek/pulse/internal/models"
	"github.com/tribaltrek/pulse/internal/services"
)

// HealthCheck reports database reachability, the active task queue mode
// and how many escalated feedbacks are still awaiting a vendor response.
func HealthCheck(c *gin.Context) {
	db := models.GetDB()

	dbStatus := "ok"
	if sqlDB, err := db.DB(); err != nil {
		dbStatus = "error: " + err.Error()
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
	}

	queueMode := "sync"
	if q := services.GetTaskQueue(); q != nil && q.IsAsync() {
		queueMode = "async"
	}

	var pendingEscalations int64
	db.Model(&models.Feedback{}).
		Where("escalated = ? AND response_from_vendor = ?", true, "").
		Count(&pendingEscalations)

	status := http.StatusOK
	if dbStatus != "ok" {
		status = http.StatusServiceUnavailable
	}

	c.JSON(status, gin.H{
		"status":             dbStatus,
		"queue":              queueMode,
		"pendingEscalations": pendingEscalations,
	})
}
