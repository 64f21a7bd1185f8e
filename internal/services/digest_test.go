package services

import (
	"strings"
	"testing"
	"time"

	"github.com/tribaltrek/pulse/internal/models"
)

func TestGenerateAndSend_QueuesDigestTask(t *testing.T) {
	db := setupTestDB(t)
	queue := &captureQueue{}
	svc := NewDigestService(NewStatsService(db), queue, "0 9 * * *")

	db.Create(&models.Feedback{Location: "Shillong", Rating: 5,
		Sentiment: models.SentimentPositive, UrgencyLevel: models.UrgencyLow,
		CreatedAt: time.Now().Add(-time.Hour)})
	db.Create(&models.Feedback{Location: "Dawki", Rating: 1,
		Sentiment: models.SentimentNegative, UrgencyLevel: models.UrgencyHigh,
		Flagged: true, CreatedAt: time.Now().Add(-2 * time.Hour)})
	// Outside the 24h window, must not be counted.
	db.Create(&models.Feedback{Location: "Tura", Rating: 1,
		Sentiment: models.SentimentNegative, UrgencyLevel: models.UrgencyHigh,
		CreatedAt: time.Now().Add(-30 * time.Hour)})

	if err := svc.GenerateAndSend(); err != nil {
		t.Fatalf("GenerateAndSend failed: %v", err)
	}

	if len(queue.tasks) != 1 {
		t.Fatalf("expected 1 digest task, got %d", len(queue.tasks))
	}
	task := queue.tasks[0]
	if task.Kind != AlertKindDigest {
		t.Errorf("task kind = %q, expected %q", task.Kind, AlertKindDigest)
	}
	if !strings.Contains(task.Message, "Total feedback: 2") {
		t.Errorf("digest should count only the 24h window, got:\n%s", task.Message)
	}
	if !strings.Contains(task.Message, "Dawki (1)") {
		t.Errorf("digest should list negative hotspots, got:\n%s", task.Message)
	}
}

func TestBuildDigestMessage_EmptyWindow(t *testing.T) {
	msg := buildDigestMessage(&OverviewStats{ByUrgency: map[string]int64{}}, nil)

	if !strings.Contains(msg, "Total feedback: 0") {
		t.Errorf("empty digest should report zero, got:\n%s", msg)
	}
	if strings.Contains(msg, "Average rating") {
		t.Errorf("empty digest should omit the average, got:\n%s", msg)
	}
	if strings.Contains(msg, "hotspots") {
		t.Errorf("empty digest should omit hotspots, got:\n%s", msg)
	}
}

func TestDigestScheduler_InvalidSpecStaysOff(t *testing.T) {
	svc := NewDigestService(nil, nil, "not a cron spec")

	// Must not panic, and there is nothing to fire.
	svc.StartScheduler()
	svc.StopScheduler()

	if svc.entryID != 0 {
		t.Errorf("entryID = %d, expected no registered job", svc.entryID)
	}
}
