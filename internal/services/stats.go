package services

import (
	"time"

	"github.com/tribaltrek/pulse/internal/models"
	"gorm.io/gorm"
)

// StatsService aggregates stored feedback for the dashboard endpoint and the
// daily digest.
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

// OverviewStats summarizes a slice of the feedback store.
type OverviewStats struct {
	Total         int64            `json:"total"`
	Positive      int64            `json:"positive"`
	Negative      int64            `json:"negative"`
	Neutral       int64            `json:"neutral"`
	Flagged       int64            `json:"flagged"`
	Escalated     int64            `json:"escalated"`
	AverageRating float64          `json:"average_rating"`
	ByUrgency     map[string]int64 `json:"by_urgency"`
}

// LocationCount pairs a location with its record count.
type LocationCount struct {
	Location string `json:"location"`
	Count    int64  `json:"count"`
}

// Overview computes aggregates over all records, optionally restricted to a
// location and/or a time window (zero since means no window).
func (s *StatsService) Overview(location string, since time.Time) (*OverviewStats, error) {
	base := s.db.Model(&models.Feedback{})
	if location != "" && location != "All" {
		base = base.Where("location = ?", location)
	}
	if !since.IsZero() {
		base = base.Where("created_at >= ?", since)
	}

	stats := &OverviewStats{ByUrgency: map[string]int64{}}

	if err := base.Session(&gorm.Session{}).Count(&stats.Total).Error; err != nil {
		return nil, err
	}
	if stats.Total == 0 {
		return stats, nil
	}

	type bucket struct {
		Key   string
		Count int64
	}
	var sentiments []bucket
	if err := base.Session(&gorm.Session{}).
		Select("sentiment as key, count(*) as count").
		Group("sentiment").
		Scan(&sentiments).Error; err != nil {
		return nil, err
	}
	for _, b := range sentiments {
		switch b.Key {
		case models.SentimentPositive:
			stats.Positive = b.Count
		case models.SentimentNegative:
			stats.Negative = b.Count
		case models.SentimentNeutral:
			stats.Neutral = b.Count
		}
	}

	var urgencies []bucket
	if err := base.Session(&gorm.Session{}).
		Select("urgency_level as key, count(*) as count").
		Group("urgency_level").
		Scan(&urgencies).Error; err != nil {
		return nil, err
	}
	for _, b := range urgencies {
		stats.ByUrgency[b.Key] = b.Count
	}

	if err := base.Session(&gorm.Session{}).Where("flagged = ?", true).Count(&stats.Flagged).Error; err != nil {
		return nil, err
	}
	if err := base.Session(&gorm.Session{}).Where("escalated = ?", true).Count(&stats.Escalated).Error; err != nil {
		return nil, err
	}

	var avg *float64
	if err := base.Session(&gorm.Session{}).Select("avg(rating)").Scan(&avg).Error; err != nil {
		return nil, err
	}
	if avg != nil {
		stats.AverageRating = *avg
	}

	return stats, nil
}

// TopNegativeLocations lists the locations with the most negative reviews in
// the window.
func (s *StatsService) TopNegativeLocations(since time.Time, limit int) ([]LocationCount, error) {
	if limit <= 0 {
		limit = 5
	}
	var out []LocationCount
	query := s.db.Model(&models.Feedback{}).
		Select("location, count(*) as count").
		Where("sentiment = ?", models.SentimentNegative)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	if err := query.Group("location").
		Order("count DESC").
		Limit(limit).
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
