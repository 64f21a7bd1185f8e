package services

import (
	"sync"
	"time"

	"github.com/tribaltrek/pulse/internal/models"
	"github.com/tribaltrek/pulse/pkg/logger"
)

// Trend detection tuning. A cluster alert fires when at least
// trendMinSamples entries exist for a location/category and at least
// trendNegativeThreshold of the last trendWindow are negative.
const (
	DefaultTrendCapacity   = 1000
	trendWindow            = 10
	trendMinSamples        = 5
	trendNegativeThreshold = 3
	trendRecentLimit       = 30
)

// TrendEntry is the lightweight sentiment tuple kept for trend detection.
type TrendEntry struct {
	Timestamp  time.Time `json:"timestamp"`
	Sentiment  string    `json:"sentiment"`
	Confidence float64   `json:"confidence"`
	Location   string    `json:"location"`
	Category   string    `json:"category"`
}

// TrendAlert describes a detected negative-sentiment cluster.
type TrendAlert struct {
	Location      string    `json:"location"`
	Category      string    `json:"category"`
	NegativeCount int       `json:"negative_count"`
	SampleSize    int       `json:"sample_size"`
	DetectedAt    time.Time `json:"detected_at"`
}

// TrendMonitor keeps a bounded, chronological ring of recent sentiment
// entries. All access is mutex-serialized; the buffer evicts oldest-first
// once the capacity is reached.
type TrendMonitor struct {
	mu       sync.Mutex
	entries  []TrendEntry
	capacity int
	onAlert  func(TrendAlert)
}

func NewTrendMonitor(capacity int) *TrendMonitor {
	if capacity <= 0 {
		capacity = DefaultTrendCapacity
	}
	return &TrendMonitor{capacity: capacity}
}

// SetAlertFunc registers the callback invoked when Check detects a cluster.
func (m *TrendMonitor) SetAlertFunc(fn func(TrendAlert)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onAlert = fn
}

// Add appends a sentiment entry, dropping the oldest entry once the buffer
// is full.
func (m *TrendMonitor) Add(e TrendEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) >= m.capacity {
		m.entries = m.entries[1:]
	}
	m.entries = append(m.entries, e)
}

// Check inspects the last entries for the given location and category and
// fires a trend alert when a negative cluster is detected. It returns the
// alert, or nil when the window is healthy.
func (m *TrendMonitor) Check(location, category string) *TrendAlert {
	m.mu.Lock()
	matches := m.filterLocked(location, category)
	onAlert := m.onAlert
	m.mu.Unlock()

	if len(matches) < trendMinSamples {
		return nil
	}

	window := matches
	if len(window) > trendWindow {
		window = window[len(window)-trendWindow:]
	}

	negative := 0
	for _, e := range window {
		if e.Sentiment == models.SentimentNegative {
			negative++
		}
	}
	if negative < trendNegativeThreshold {
		return nil
	}

	alert := &TrendAlert{
		Location:      location,
		Category:      category,
		NegativeCount: negative,
		SampleSize:    len(window),
		DetectedAt:    time.Now(),
	}
	logger.Warn().
		Str("location", location).
		Str("category", category).
		Int("negative", negative).
		Int("window", len(window)).
		Msg("negative sentiment trend detected")

	if onAlert != nil {
		onAlert(*alert)
	}
	return alert
}

// Recent returns the newest entries matching the optional filters, oldest
// first. Empty or "All" filters match everything.
func (m *TrendMonitor) Recent(location, category string) []TrendEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	matches := m.filterLocked(location, category)
	if len(matches) > trendRecentLimit {
		matches = matches[len(matches)-trendRecentLimit:]
	}
	out := make([]TrendEntry, len(matches))
	copy(out, matches)
	return out
}

// Len returns the number of buffered entries.
func (m *TrendMonitor) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Entries returns a copy of the whole buffer, oldest first.
func (m *TrendMonitor) Entries() []TrendEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]TrendEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

func (m *TrendMonitor) filterLocked(location, category string) []TrendEntry {
	var matches []TrendEntry
	for _, e := range m.entries {
		if location != "" && location != "All" && e.Location != location {
			continue
		}
		if category != "" && category != "All" && e.Category != category {
			continue
		}
		matches = append(matches, e)
	}
	return matches
}
