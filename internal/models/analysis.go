package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Sentiment values for an analyzed feedback text.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Urgency levels, ordered from least to most severe.
const (
	UrgencyLow      = "low"
	UrgencyMedium   = "medium"
	UrgencyHigh     = "high"
	UrgencyCritical = "critical"
)

// MaxKeywords caps the extracted salient terms on an analysis.
const MaxKeywords = 5

// Analysis is the sentiment verdict for one piece of feedback text. It is
// produced by a hosted provider or by the deterministic fallback analyzer and
// stored as a JSON column on the feedback record.
type Analysis struct {
	Sentiment  string             `json:"sentiment"`
	Confidence float64            `json:"confidence"`
	Emotions   map[string]float64 `json:"emotions,omitempty"`
	Keywords   []string           `json:"keywords"`
	Language   string             `json:"language"`
	Toxicity   float64            `json:"toxicity"`
	Urgency    string             `json:"urgency"`
	Categories []string           `json:"categories"`
	Insights   []string           `json:"actionableInsights"`
}

func (a Analysis) Value() (driver.Value, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (a *Analysis) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return fmt.Errorf("unsupported analysis column type %T", src)
	}
}

// UrgencyRank maps an urgency level to its severity order. Unknown values
// rank lowest so they never mask a real escalation.
func UrgencyRank(urgency string) int {
	switch urgency {
	case UrgencyCritical:
		return 3
	case UrgencyHigh:
		return 2
	case UrgencyMedium:
		return 1
	default:
		return 0
	}
}

// MaxUrgency returns the more severe of two urgency levels.
func MaxUrgency(a, b string) string {
	if UrgencyRank(b) > UrgencyRank(a) {
		return b
	}
	if a == "" {
		return UrgencyLow
	}
	return a
}

// ValidSentiment reports whether s is one of the three sentiment values.
func ValidSentiment(s string) bool {
	return s == SentimentPositive || s == SentimentNegative || s == SentimentNeutral
}

// ValidUrgency reports whether u is a known urgency level.
func ValidUrgency(u string) bool {
	return u == UrgencyLow || u == UrgencyMedium || u == UrgencyHigh || u == UrgencyCritical
}

// VoiceAnalysis holds the transcription outcome for a voice note attached to
// a feedback submission. The transcript is re-analyzed through the text path.
type VoiceAnalysis struct {
	Transcript string `json:"transcript"`
	Language   string `json:"language"`
	Sentiment  string `json:"sentiment,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

func (v *VoiceAnalysis) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (v *VoiceAnalysis) Scan(src interface{}) error {
	switch val := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(val, v)
	case string:
		return json.Unmarshal([]byte(val), v)
	default:
		return fmt.Errorf("unsupported voice analysis column type %T", src)
	}
}

// ImageAnalysis holds the caption and object tags extracted from an attached
// photo, plus a crude sentiment read of the caption.
type ImageAnalysis struct {
	Caption   string   `json:"caption"`
	Objects   []string `json:"objects,omitempty"`
	Sentiment string   `json:"sentiment,omitempty"`
}

func (i *ImageAnalysis) Value() (driver.Value, error) {
	if i == nil {
		return nil, nil
	}
	data, err := json.Marshal(i)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (i *ImageAnalysis) Scan(src interface{}) error {
	switch val := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(val, i)
	case string:
		return json.Unmarshal([]byte(val), i)
	default:
		return fmt.Errorf("unsupported image analysis column type %T", src)
	}
}
