package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tribaltrek/pulse/internal/models"
	"github.com/tribaltrek/pulse/pkg/logger"
	"gorm.io/gorm"
)

// ErrFeedbackNotFound is returned by Update when the record does not exist.
var ErrFeedbackNotFound = errors.New("feedback not found")

// FeedbackService runs the submission pipeline and serves queries over the
// stored records.
type FeedbackService struct {
	db     *gorm.DB
	ai     *AIService
	trends *TrendMonitor
	alerts *AlertService
}

func NewFeedbackService(db *gorm.DB, ai *AIService, trends *TrendMonitor, alerts *AlertService) *FeedbackService {
	return &FeedbackService{db: db, ai: ai, trends: trends, alerts: alerts}
}

// SubmitRequest carries one feedback submission.
type SubmitRequest struct {
	UserID       string `json:"userId" binding:"required"`
	UserName     string `json:"userName" binding:"required"`
	Location     string `json:"location" binding:"required"`
	Category     string `json:"category" binding:"required"`
	Rating       int    `json:"rating" binding:"required,min=1,max=5"`
	TextFeedback string `json:"textFeedback"`
	Language     string `json:"language"`
	VoiceData    string `json:"voiceData"` // base64
	ImageData    string `json:"imageData"` // base64
	EmojiRating  string `json:"emojiRating"`
}

// SubmitResult is the created record plus the conversational extras returned
// to the caller.
type SubmitResult struct {
	Feedback          *models.Feedback `json:"feedback"`
	ChatbotResponse   string           `json:"chatbotResponse"`
	FollowUpQuestions []string         `json:"followUpQuestions"`
}

// analysisSource tags where the verdict came from, so the fusion-vs-no-fusion
// branch is one explicit switch: provider results get rating fusion applied,
// fallback results already folded the ratings in and are final.
type analysisSource struct {
	Kind     string
	Analysis *models.Analysis
}

const (
	sourceProvider = "provider"
	sourceFallback = "fallback"
)

// Submit runs the full pipeline: analyze, fuse, persist, update trends,
// escalate and generate the conversational reply. Nothing is persisted when
// an error is returned.
func (s *FeedbackService) Submit(ctx context.Context, req *SubmitRequest) (*SubmitResult, error) {
	voiceBlob, err := decodeOptionalBase64(req.VoiceData)
	if err != nil {
		return nil, fmt.Errorf("invalid voiceData encoding: %w", err)
	}
	imageBlob, err := decodeOptionalBase64(req.ImageData)
	if err != nil {
		return nil, fmt.Errorf("invalid imageData encoding: %w", err)
	}

	language := req.Language
	if language == "" {
		language = "auto"
	}

	var voiceAnalysis *models.VoiceAnalysis
	var imageAnalysis *models.ImageAnalysis
	var transcriptAnalysis *models.Analysis
	text := req.TextFeedback

	// Voice and image enrichment is best effort; a failing media adapter
	// never blocks the submission.
	if len(voiceBlob) > 0 {
		va, ta, vErr := s.ai.AnalyzeVoice(ctx, voiceBlob, language)
		if vErr != nil {
			logger.Warnf("[Feedback] Voice analysis unavailable: %v", vErr)
		} else {
			voiceAnalysis = va
			// A transcript stands in for typed text when none was given,
			// and its analysis is reused so the provider is not called twice.
			if strings.TrimSpace(text) == "" && va != nil {
				text = va.Transcript
				transcriptAnalysis = ta
			}
		}
	}
	if len(imageBlob) > 0 {
		ia, iErr := s.ai.AnalyzeImage(ctx, imageBlob)
		if iErr != nil {
			logger.Warnf("[Feedback] Image analysis unavailable: %v", iErr)
		} else {
			imageAnalysis = ia
		}
	}

	var src analysisSource
	if transcriptAnalysis != nil {
		src = analysisSource{
			Kind:     sourceProvider,
			Analysis: EnhanceWithRatings(transcriptAnalysis, req.Rating, req.EmojiRating),
		}
	} else {
		src = s.analyze(ctx, text, req.Rating, req.EmojiRating, language)
	}

	analysis := src.Analysis
	urgencyLevel := analysis.Urgency
	if urgencyLevel == "" {
		urgencyLevel = models.UrgencyLow
	}

	flagged := isFlagged(analysis.Sentiment, analysis.Confidence, analysis.Toxicity, urgencyLevel)

	feedback := &models.Feedback{
		UserID:        req.UserID,
		UserName:      req.UserName,
		Location:      req.Location,
		Category:      req.Category,
		Rating:        req.Rating,
		TextFeedback:  req.TextFeedback,
		EmojiRating:   req.EmojiRating,
		Language:      analysis.Language,
		Analysis:      *analysis,
		VoiceAnalysis: voiceAnalysis,
		ImageAnalysis: imageAnalysis,
		Sentiment:     analysis.Sentiment,
		Confidence:    analysis.Confidence,
		UrgencyLevel:  urgencyLevel,
		Flagged:       flagged,
		Toxicity:      analysis.Toxicity,
	}

	if err := s.db.Create(feedback).Error; err != nil {
		return nil, fmt.Errorf("persist feedback: %w", err)
	}

	s.trends.Add(TrendEntry{
		Timestamp:  feedback.CreatedAt,
		Sentiment:  feedback.Sentiment,
		Confidence: feedback.Confidence,
		Location:   feedback.Location,
		Category:   feedback.Category,
	})
	s.trends.Check(feedback.Location, feedback.Category)

	s.alerts.TriggerAlert(feedback)

	return &SubmitResult{
		Feedback:          feedback,
		ChatbotResponse:   GenerateChatResponse(feedback),
		FollowUpQuestions: FollowUpQuestions(feedback),
	}, nil
}

// analyze picks the provider or fallback path and tags the result. Ratings
// are fused on provider results only; the fallback votes them in itself.
func (s *FeedbackService) analyze(ctx context.Context, text string, rating int, emoji, language string) analysisSource {
	if strings.TrimSpace(text) != "" {
		if analysis, err := s.ai.AnalyzeText(ctx, text, language); err == nil {
			return analysisSource{
				Kind:     sourceProvider,
				Analysis: EnhanceWithRatings(analysis, rating, emoji),
			}
		} else if !errors.Is(err, ErrNoCredential) {
			logger.Warnf("[Feedback] Provider analysis failed, using fallback: %v", err)
		}
	}
	return analysisSource{
		Kind:     sourceFallback,
		Analysis: FallbackAnalysis(text, rating, emoji, language),
	}
}

// isFlagged applies the fixed review heuristics: strongly negative, toxic,
// or operationally urgent.
func isFlagged(sentiment string, confidence, toxicity float64, urgency string) bool {
	if sentiment == models.SentimentNegative && confidence > 0.7 {
		return true
	}
	if toxicity > 0.5 {
		return true
	}
	return urgency == models.UrgencyHigh || urgency == models.UrgencyCritical
}

func decodeOptionalBase64(data string) ([]byte, error) {
	if data == "" {
		return nil, nil
	}
	// Tolerate data URL prefixes from browser clients.
	if idx := strings.Index(data, ","); idx != -1 && strings.HasPrefix(data, "data:") {
		data = data[idx+1:]
	}
	return base64.StdEncoding.DecodeString(data)
}

// ListRequest holds the query filters. "All" (or empty) disables a filter;
// flagged filters only when set to "true".
type ListRequest struct {
	Location  string `form:"location"`
	Category  string `form:"category"`
	Sentiment string `form:"sentiment"`
	Flagged   string `form:"flagged"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

// SentimentStats counts records by sentiment over the filtered set.
type SentimentStats struct {
	Positive int64 `json:"positive"`
	Negative int64 `json:"negative"`
	Neutral  int64 `json:"neutral"`
	Total    int64 `json:"total"`
}

// ListResponse is the GET /api/feedback payload.
type ListResponse struct {
	Feedbacks       []models.Feedback `json:"feedbacks"`
	Total           int64             `json:"total"`
	SentimentStats  SentimentStats    `json:"sentimentStats"`
	SentimentTrends []TrendEntry      `json:"sentimentTrends"`
	HasMore         bool              `json:"hasMore"`
}

// List returns filtered records sorted newest first, paginated after
// sorting, with aggregate sentiment counts over the whole filtered set.
func (s *FeedbackService) List(req *ListRequest) (*ListResponse, error) {
	if req.Limit <= 0 {
		req.Limit = 50
	}
	if req.Offset < 0 {
		req.Offset = 0
	}

	base := s.db.Model(&models.Feedback{})
	if req.Location != "" && req.Location != "All" {
		base = base.Where("location = ?", req.Location)
	}
	if req.Category != "" && req.Category != "All" {
		base = base.Where("category = ?", req.Category)
	}
	if req.Sentiment != "" && req.Sentiment != "All" {
		base = base.Where("sentiment = ?", req.Sentiment)
	}
	if req.Flagged == "true" {
		base = base.Where("flagged = ?", true)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, err
	}

	stats := SentimentStats{Total: total}
	type sentimentCount struct {
		Sentiment string
		Count     int64
	}
	var counts []sentimentCount
	if err := base.Session(&gorm.Session{}).
		Select("sentiment, count(*) as count").
		Group("sentiment").
		Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, c := range counts {
		switch c.Sentiment {
		case models.SentimentPositive:
			stats.Positive = c.Count
		case models.SentimentNegative:
			stats.Negative = c.Count
		case models.SentimentNeutral:
			stats.Neutral = c.Count
		}
	}

	var feedbacks []models.Feedback
	if err := base.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Offset(req.Offset).
		Limit(req.Limit).
		Find(&feedbacks).Error; err != nil {
		return nil, err
	}

	return &ListResponse{
		Feedbacks:       feedbacks,
		Total:           total,
		SentimentStats:  stats,
		SentimentTrends: s.trends.Recent(req.Location, req.Category),
		HasMore:         int64(req.Offset+req.Limit) < total,
	}, nil
}

// UpdateRequest carries the vendor-side update. Only provided fields are
// merged; no re-analysis happens.
type UpdateRequest struct {
	FeedbackID         uint    `json:"feedbackId" binding:"required"`
	ResponseFromVendor *string `json:"responseFromVendor"`
	Flagged            *bool   `json:"flagged"`
}

// Update merges the vendor response and/or flag override into an existing
// record.
func (s *FeedbackService) Update(req *UpdateRequest) (*models.Feedback, error) {
	var feedback models.Feedback
	if err := s.db.First(&feedback, req.FeedbackID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeedbackNotFound
		}
		return nil, err
	}

	updates := map[string]interface{}{"updated_at": time.Now()}
	if req.ResponseFromVendor != nil {
		updates["response_from_vendor"] = *req.ResponseFromVendor
	}
	if req.Flagged != nil {
		updates["flagged"] = *req.Flagged
	}

	if err := s.db.Model(&feedback).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &feedback, nil
}

// GetByID loads one record.
func (s *FeedbackService) GetByID(id uint) (*models.Feedback, error) {
	var feedback models.Feedback
	if err := s.db.First(&feedback, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFeedbackNotFound
		}
		return nil, err
	}
	return &feedback, nil
}
