package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tribaltrek/pulse/internal/models"
	"github.com/tribaltrek/pulse/pkg/logger"
	"gorm.io/gorm"
)

// NotificationService delivers alert tasks to the configured webhook
// channels. It is the processor behind the alert dispatch queue.
type NotificationService struct {
	db     *gorm.DB
	client *http.Client
}

func NewNotificationService(db *gorm.DB) *NotificationService {
	return &NotificationService{
		db:     db,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// DispatchAlert sends one alert task to every channel that should receive
// it. Delivery failures are logged per channel; the first error is returned
// so queue retries can kick in.
func (s *NotificationService) DispatchAlert(ctx context.Context, task *AlertTask) error {
	channels, err := s.channelsFor(task.Kind)
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		logger.Debugf("[Notification] No active channels for %s alert", task.Kind)
		return nil
	}

	message := s.buildMessage(task)

	var firstErr error
	for _, ch := range channels {
		var sendErr error
		switch ch.Type {
		case "slack":
			sendErr = s.sendSlack(ctx, &ch, task, message)
		default:
			sendErr = s.sendWebhook(ctx, &ch, task, message)
		}
		if sendErr != nil {
			logger.Errorf("[Notification] Delivery to channel %s failed: %v", ch.Name, sendErr)
			if firstErr == nil {
				firstErr = sendErr
			}
			continue
		}
		logger.Infof("[Notification] %s alert delivered to channel %s", task.Kind, ch.Name)
	}
	return firstErr
}

func (s *NotificationService) channelsFor(kind string) ([]models.AlertChannel, error) {
	query := s.db.Where("is_active = ?", true)
	switch kind {
	case AlertKindTrend:
		query = query.Where("trend_alerts = ?", true)
	case AlertKindDigest:
		query = query.Where("daily_digest = ?", true)
	}
	var channels []models.AlertChannel
	if err := query.Find(&channels).Error; err != nil {
		return nil, fmt.Errorf("load alert channels: %w", err)
	}
	return channels, nil
}

func (s *NotificationService) buildMessage(task *AlertTask) string {
	switch task.Kind {
	case AlertKindUrgent:
		icon := "🔴"
		if task.UrgencyLevel == models.UrgencyHigh {
			icon = "🟠"
		}
		return fmt.Sprintf("%s *Urgent visitor feedback* [%s]\nLocation: %s\nCategory: %s\nSentiment: %s\n\n%s",
			icon, task.UrgencyLevel, task.Location, task.Category, task.Sentiment, task.Message)
	case AlertKindTrend:
		return fmt.Sprintf("📉 *Negative sentiment cluster*\nLocation: %s\nCategory: %s\n\n%s",
			task.Location, task.Category, task.Message)
	default:
		return task.Message
	}
}

func (s *NotificationService) sendSlack(ctx context.Context, ch *models.AlertChannel, task *AlertTask, message string) error {
	payload := map[string]interface{}{
		"text": message,
		"blocks": []map[string]interface{}{
			{
				"type": "section",
				"text": map[string]string{
					"type": "mrkdwn",
					"text": message,
				},
			},
		},
	}
	return s.postJSON(ctx, ch.Webhook, payload)
}

func (s *NotificationService) sendWebhook(ctx context.Context, ch *models.AlertChannel, task *AlertTask, message string) error {
	payload := map[string]interface{}{
		"kind":          task.Kind,
		"feedback_id":   task.FeedbackID,
		"reference":     task.Reference,
		"location":      task.Location,
		"category":      task.Category,
		"sentiment":     task.Sentiment,
		"urgency_level": task.UrgencyLevel,
		"message":       message,
	}
	return s.postJSON(ctx, ch.Webhook, payload)
}

func (s *NotificationService) postJSON(ctx context.Context, webhookURL string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}
