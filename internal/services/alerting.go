package services

import (
	"fmt"
	"strings"

	"github.com/tribaltrek/pulse/internal/models"
	"github.com/tribaltrek/pulse/pkg/logger"
	"gorm.io/gorm"
)

// autoResponseRule pairs a predicate with a template. Rules are evaluated
// top to bottom; the first match wins.
type autoResponseRule struct {
	Name   string
	Match  func(*models.Feedback) bool
	Render func(*models.Feedback) string
}

var autoResponseRules = []autoResponseRule{
	{
		Name: "safety-escalation",
		Match: func(f *models.Feedback) bool {
			for _, insight := range f.Analysis.Insights {
				if strings.Contains(insight, "URGENT") || strings.Contains(insight, "Safety") {
					return true
				}
			}
			return false
		},
		Render: func(f *models.Feedback) string {
			return fmt.Sprintf(
				"Dear %s, we take safety concerns extremely seriously. Our team has been alerted about your experience at %s and will investigate immediately. You will hear from us within 24 hours.",
				f.UserName, f.Location)
		},
	},
	{
		Name: "negative-apology",
		Match: func(f *models.Feedback) bool {
			return f.Analysis.Sentiment == models.SentimentNegative && f.Analysis.Confidence > 0.8
		},
		Render: func(f *models.Feedback) string {
			return fmt.Sprintf(
				"Dear %s, we sincerely apologize that your visit to %s fell short of expectations. Your feedback has been shared with the local team and we will follow up with you within 48 hours.",
				f.UserName, f.Location)
		},
	},
	{
		Name:  "generic-thanks",
		Match: func(f *models.Feedback) bool { return true },
		Render: func(f *models.Feedback) string {
			return fmt.Sprintf(
				"Dear %s, thank you for sharing your experience at %s. Your feedback helps us improve tourism services across the region.",
				f.UserName, f.Location)
		},
	},
}

// GenerateAutoResponse picks the first matching reply template for a
// finalized feedback record.
func GenerateAutoResponse(f *models.Feedback) string {
	for _, rule := range autoResponseRules {
		if rule.Match(f) {
			return rule.Render(f)
		}
	}
	return ""
}

// AlertService escalates urgent feedback and hands alerts to the dispatch
// queue for channel delivery.
type AlertService struct {
	db    *gorm.DB
	queue TaskQueue
}

func NewAlertService(db *gorm.DB, queue TaskQueue) *AlertService {
	return &AlertService{db: db, queue: queue}
}

// TriggerAlert inspects a stored feedback record; records at high or
// critical urgency are escalated, given an auto-response and queued for
// channel notification. Returns whether an escalation happened.
func (s *AlertService) TriggerAlert(f *models.Feedback) bool {
	if f.UrgencyLevel != models.UrgencyHigh && f.UrgencyLevel != models.UrgencyCritical {
		return false
	}

	logger.Warn().
		Uint("feedback_id", f.ID).
		Str("location", f.Location).
		Str("category", f.Category).
		Str("urgency", f.UrgencyLevel).
		Msg("urgent feedback escalated")

	f.Escalated = true
	f.AutoResponse = GenerateAutoResponse(f)

	if s.db != nil && f.ID != 0 {
		if err := s.db.Model(f).Updates(map[string]interface{}{
			"escalated":     true,
			"auto_response": f.AutoResponse,
		}).Error; err != nil {
			logger.Errorf("[Alert] Failed to persist escalation for feedback %d: %v", f.ID, err)
		}
	}

	if s.queue != nil {
		task := &AlertTask{
			Kind:         AlertKindUrgent,
			FeedbackID:   f.ID,
			Reference:    f.Reference,
			Location:     f.Location,
			Category:     f.Category,
			Sentiment:    f.Sentiment,
			UrgencyLevel: f.UrgencyLevel,
			Message:      summarizeFeedback(f),
		}
		if err := s.queue.Enqueue(task); err != nil {
			logger.Errorf("[Alert] Failed to enqueue alert for feedback %d: %v", f.ID, err)
		}
	}

	return true
}

// NotifyTrend queues a channel notification for a detected negative cluster.
func (s *AlertService) NotifyTrend(alert TrendAlert) {
	if s.queue == nil {
		return
	}
	task := &AlertTask{
		Kind:     AlertKindTrend,
		Location: alert.Location,
		Category: alert.Category,
		Message: fmt.Sprintf("%d of the last %d reviews for %s / %s are negative",
			alert.NegativeCount, alert.SampleSize, alert.Location, alert.Category),
	}
	if err := s.queue.Enqueue(task); err != nil {
		logger.Errorf("[Alert] Failed to enqueue trend alert: %v", err)
	}
}

func summarizeFeedback(f *models.Feedback) string {
	text := f.TextFeedback
	if len(text) > 140 {
		text = text[:140] + "..."
	}
	return fmt.Sprintf("%d-star review at %s (%s): %s", f.Rating, f.Location, f.Category, text)
}
