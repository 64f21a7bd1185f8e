package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/tribaltrek/pulse/pkg/logger"
)

// DigestService posts a daily sentiment summary to the channels that opted
// into digests.
type DigestService struct {
	stats    *StatsService
	queue    TaskQueue
	cronSpec string
	cron     *cron.Cron
	entryID  cron.EntryID
}

func NewDigestService(stats *StatsService, queue TaskQueue, cronSpec string) *DigestService {
	return &DigestService{
		stats:    stats,
		queue:    queue,
		cronSpec: cronSpec,
	}
}

// StartScheduler registers the digest job. Invalid cron specs are logged and
// the scheduler simply stays off.
func (s *DigestService) StartScheduler() {
	s.cron = cron.New()
	id, err := s.cron.AddFunc(s.cronSpec, func() {
		if err := s.GenerateAndSend(); err != nil {
			logger.Errorf("[Digest] Failed to send daily digest: %v", err)
		}
	})
	if err != nil {
		logger.Errorf("[Digest] Invalid cron spec %q: %v", s.cronSpec, err)
		return
	}
	s.entryID = id
	s.cron.Start()
	logger.Infof("[Digest] Daily digest scheduled (%s)", s.cronSpec)
}

// StopScheduler stops the cron runner.
func (s *DigestService) StopScheduler() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// GenerateAndSend builds the last-24h summary and queues it for delivery.
func (s *DigestService) GenerateAndSend() error {
	since := time.Now().Add(-24 * time.Hour)

	overview, err := s.stats.Overview("", since)
	if err != nil {
		return fmt.Errorf("build digest stats: %w", err)
	}
	topNegative, err := s.stats.TopNegativeLocations(since, 5)
	if err != nil {
		return fmt.Errorf("build digest hotspots: %w", err)
	}

	message := buildDigestMessage(overview, topNegative)
	logger.Infof("[Digest] Generated daily digest: %d feedbacks in window", overview.Total)

	return s.queue.Enqueue(&AlertTask{
		Kind:    AlertKindDigest,
		Message: message,
	})
}

func buildDigestMessage(overview *OverviewStats, topNegative []LocationCount) string {
	var b strings.Builder
	b.WriteString("📊 *Daily visitor feedback digest*\n\n")
	fmt.Fprintf(&b, "Total feedback: %d\n", overview.Total)
	fmt.Fprintf(&b, "Positive: %d | Negative: %d | Neutral: %d\n",
		overview.Positive, overview.Negative, overview.Neutral)
	fmt.Fprintf(&b, "Flagged for review: %d | Escalated: %d\n", overview.Flagged, overview.Escalated)
	if overview.Total > 0 {
		fmt.Fprintf(&b, "Average rating: %.1f/5\n", overview.AverageRating)
	}

	if len(topNegative) > 0 {
		b.WriteString("\nNegative feedback hotspots:\n")
		for i, lc := range topNegative {
			fmt.Fprintf(&b, "%d. %s (%d)\n", i+1, lc.Location, lc.Count)
		}
	}
	return b.String()
}
