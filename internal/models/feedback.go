package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Feedback represents one user-submitted review and its derived analysis.
// Records are created once on submission and only mutated through the vendor
// response update or the alert escalation step; they are never deleted.
type Feedback struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Reference string `gorm:"size:64;uniqueIndex" json:"reference"`

	UserID   string `gorm:"size:100;index" json:"userId"`
	UserName string `gorm:"size:200" json:"userName"`
	Location string `gorm:"size:200;index" json:"location"`
	Category string `gorm:"size:100;index" json:"category"`

	Rating       int    `json:"rating"`
	TextFeedback string `gorm:"type:text" json:"textFeedback"`
	EmojiRating  string `gorm:"size:16" json:"emojiRating,omitempty"`
	Language     string `gorm:"size:16" json:"language"`

	Analysis      Analysis       `gorm:"type:text" json:"aiAnalysis"`
	VoiceAnalysis *VoiceAnalysis `gorm:"type:text" json:"voiceAnalysis,omitempty"`
	ImageAnalysis *ImageAnalysis `gorm:"type:text" json:"imageAnalysis,omitempty"`

	// Denormalized from Analysis at insert so list filters stay in SQL.
	Sentiment    string  `gorm:"size:20;index" json:"sentiment"`
	Confidence   float64 `json:"confidence"`
	UrgencyLevel string  `gorm:"size:20;index" json:"urgencyLevel"`
	Flagged      bool    `gorm:"index" json:"flagged"`
	Toxicity     float64 `json:"toxicity"`

	IsVerified         bool   `gorm:"default:false" json:"isVerified"`
	ResponseFromVendor string `gorm:"type:text" json:"responseFromVendor,omitempty"`
	AutoResponse       string `gorm:"type:text" json:"autoResponseGenerated,omitempty"`
	Escalated          bool   `gorm:"default:false" json:"escalated"`

	CreatedAt time.Time `gorm:"index" json:"timestamp"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Feedback) TableName() string { return "feedbacks" }

// BeforeCreate assigns the public reference ID.
func (f *Feedback) BeforeCreate(tx *gorm.DB) error {
	if f.Reference == "" {
		f.Reference = uuid.NewString()
	}
	return nil
}
