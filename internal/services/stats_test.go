package services

import (
	"testing"
	"time"

	"github.com/tribaltrek/pulse/internal/models"
)

func TestOverview_Aggregates(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStatsService(db)

	records := []models.Feedback{
		{Location: "Shillong", Rating: 5, Sentiment: models.SentimentPositive, UrgencyLevel: models.UrgencyLow},
		{Location: "Shillong", Rating: 4, Sentiment: models.SentimentPositive, UrgencyLevel: models.UrgencyLow},
		{Location: "Shillong", Rating: 1, Sentiment: models.SentimentNegative, UrgencyLevel: models.UrgencyHigh, Flagged: true, Escalated: true},
		{Location: "Dawki", Rating: 3, Sentiment: models.SentimentNeutral, UrgencyLevel: models.UrgencyLow},
	}
	for i := range records {
		records[i].Analysis = models.Analysis{Sentiment: records[i].Sentiment}
		if err := db.Create(&records[i]).Error; err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	stats, err := svc.Overview("", time.Time{})
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}

	if stats.Total != 4 {
		t.Errorf("Total = %d, expected 4", stats.Total)
	}
	if stats.Positive != 2 || stats.Negative != 1 || stats.Neutral != 1 {
		t.Errorf("sentiment buckets = %d/%d/%d, expected 2/1/1",
			stats.Positive, stats.Negative, stats.Neutral)
	}
	if stats.Flagged != 1 || stats.Escalated != 1 {
		t.Errorf("flagged/escalated = %d/%d, expected 1/1", stats.Flagged, stats.Escalated)
	}
	if stats.AverageRating != 3.25 {
		t.Errorf("AverageRating = %v, expected 3.25", stats.AverageRating)
	}
	if stats.ByUrgency[models.UrgencyHigh] != 1 || stats.ByUrgency[models.UrgencyLow] != 3 {
		t.Errorf("ByUrgency = %v, expected 1 high / 3 low", stats.ByUrgency)
	}
}

func TestOverview_LocationFilter(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStatsService(db)

	db.Create(&models.Feedback{Location: "Shillong", Rating: 5, Sentiment: models.SentimentPositive, UrgencyLevel: models.UrgencyLow})
	db.Create(&models.Feedback{Location: "Dawki", Rating: 1, Sentiment: models.SentimentNegative, UrgencyLevel: models.UrgencyHigh})

	stats, err := svc.Overview("Dawki", time.Time{})
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if stats.Total != 1 || stats.Negative != 1 {
		t.Errorf("filtered stats = %+v, expected a single negative record", stats)
	}

	all, err := svc.Overview("All", time.Time{})
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if all.Total != 2 {
		t.Errorf(`Total = %d with "All" filter, expected 2`, all.Total)
	}
}

func TestOverview_TimeWindow(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStatsService(db)

	old := models.Feedback{Location: "Tura", Rating: 2, Sentiment: models.SentimentNegative,
		UrgencyLevel: models.UrgencyMedium, CreatedAt: time.Now().Add(-48 * time.Hour)}
	recent := models.Feedback{Location: "Tura", Rating: 5, Sentiment: models.SentimentPositive,
		UrgencyLevel: models.UrgencyLow, CreatedAt: time.Now().Add(-time.Hour)}
	db.Create(&old)
	db.Create(&recent)

	stats, err := svc.Overview("", time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if stats.Total != 1 || stats.Positive != 1 {
		t.Errorf("windowed stats = %+v, expected only the recent record", stats)
	}
}

func TestOverview_EmptyStore(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStatsService(db)

	stats, err := svc.Overview("", time.Time{})
	if err != nil {
		t.Fatalf("Overview failed: %v", err)
	}
	if stats.Total != 0 || stats.AverageRating != 0 {
		t.Errorf("empty store stats = %+v, expected zeros", stats)
	}
}

func TestTopNegativeLocations(t *testing.T) {
	db := setupTestDB(t)
	svc := NewStatsService(db)

	seed := map[string]int{"Shillong": 3, "Dawki": 1, "Cherrapunji": 2}
	for location, n := range seed {
		for i := 0; i < n; i++ {
			db.Create(&models.Feedback{Location: location, Rating: 1,
				Sentiment: models.SentimentNegative, UrgencyLevel: models.UrgencyMedium})
		}
	}
	db.Create(&models.Feedback{Location: "Mawlynnong", Rating: 5,
		Sentiment: models.SentimentPositive, UrgencyLevel: models.UrgencyLow})

	top, err := svc.TopNegativeLocations(time.Time{}, 2)
	if err != nil {
		t.Fatalf("TopNegativeLocations failed: %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("got %d locations, expected 2", len(top))
	}
	if top[0].Location != "Shillong" || top[0].Count != 3 {
		t.Errorf("top hotspot = %+v, expected Shillong with 3", top[0])
	}
	if top[1].Location != "Cherrapunji" || top[1].Count != 2 {
		t.Errorf("second hotspot = %+v, expected Cherrapunji with 2", top[1])
	}
}
