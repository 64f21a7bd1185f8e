package services

import (
	"strings"

	"github.com/tribaltrek/pulse/internal/models"
)

// Lexicons for the rule-based analyzer. English plus Hindi (romanized and
// Devanagari) are merged into one pass so mixed-language reviews score too.
var positiveLexicon = map[string]bool{
	"good": true, "great": true, "excellent": true, "amazing": true,
	"wonderful": true, "beautiful": true, "awesome": true, "fantastic": true,
	"lovely": true, "nice": true, "comfortable": true, "friendly": true,
	"helpful": true, "delicious": true, "tasty": true, "perfect": true,
	"best": true, "enjoyed": true, "enjoyable": true, "recommend": true,
	"peaceful": true, "scenic": true, "memorable": true, "clean": true,
	"accha": true, "badhiya": true, "sundar": true, "shandar": true,
	"mast": true, "swadisht": true,
	"अच्छा": true, "अच्छी": true, "बढ़िया": true, "सुंदर": true,
	"शानदार": true, "स्वादिष्ट": true,
}

var negativeLexicon = map[string]bool{
	"bad": true, "terrible": true, "horrible": true, "awful": true,
	"dirty": true, "poor": true, "worst": true, "rude": true,
	"unsafe": true, "expensive": true, "overpriced": true,
	"disappointing": true, "disappointed": true, "broken": true,
	"smelly": true, "noisy": true, "uncomfortable": true, "slow": true,
	"pathetic": true, "crowded": true, "unhygienic": true, "scam": true,
	"kharab": true, "ganda": true, "gandi": true, "bekar": true,
	"bura": true, "mehenga": true,
	"गंदा": true, "गंदी": true, "खराब": true, "बेकार": true,
	"बुरा": true, "महंगा": true,
}

// safetyTerms force a critical escalation and an explicit safety insight when
// they show up in a negative review.
var safetyTerms = []string{
	"unsafe", "danger", "dangerous", "theft", "stolen", "harass",
	"accident", "injury", "emergency", "असुरक्षित", "खतरा",
}

// categoryKeywords maps topical tags to the substrings that select them.
var categoryKeywords = []struct {
	Category string
	Terms    []string
}{
	{"accommodation", []string{"room", "stay", "hotel", "homestay", "bed"}},
	{"food", []string{"food", "meal", "restaurant", "breakfast", "dinner"}},
	{"service quality", []string{"staff", "service", "help", "guide"}},
	{"cleanliness", []string{"clean", "dirty", "hygiene", "toilet"}},
	{"pricing", []string{"price", "cost", "expensive", "cheap"}},
	{"location", []string{"location", "place", "area", "view"}},
}

// Emoji buckets used by the fallback vote.
var positiveEmojis = map[string]bool{"😍": true, "😊": true}
var negativeEmojis = map[string]bool{"😞": true, "😡": true}

// FallbackAnalysis produces a deterministic sentiment verdict without any
// network dependency. It is the analysis of record whenever the hosted
// provider is unavailable, unconfigured or fails, and it already folds the
// star and emoji signals in, so its output must not be fused again.
func FallbackAnalysis(text string, starRating int, emojiRating, language string) *models.Analysis {
	tokens := tokenize(text)

	positiveCount, negativeCount := 0, 0
	var keywords []string
	seen := map[string]bool{}
	for _, tok := range tokens {
		matched := false
		if positiveLexicon[tok] {
			positiveCount++
			matched = true
		} else if negativeLexicon[tok] {
			negativeCount++
			matched = true
		}
		if matched && !seen[tok] && len(keywords) < models.MaxKeywords {
			seen[tok] = true
			keywords = append(keywords, tok)
		}
	}

	// Text-only verdict before the rating vote.
	textSentiment := models.SentimentNeutral
	textConfidence := 0.5
	switch {
	case positiveCount > negativeCount:
		textSentiment = models.SentimentPositive
		textConfidence = minFloat(0.85, 0.6+0.1*float64(positiveCount-negativeCount))
	case negativeCount > positiveCount:
		textSentiment = models.SentimentNegative
		textConfidence = minFloat(0.85, 0.6+0.1*float64(negativeCount-positiveCount))
	case positiveCount > 0:
		// equal nonzero counts
		textConfidence = 0.7
	}

	// Weighted vote across text, star and emoji signals. The star weight is
	// boosted when there is no text so a bare rating still carries a verdict.
	hasText := strings.TrimSpace(text) != ""
	hasEmoji := positiveEmojis[emojiRating] || negativeEmojis[emojiRating] || emojiRating == "😐"

	textWeight := 0.0
	if hasText {
		textWeight = 0.5
	}
	starWeight := 0.3
	if !hasText {
		starWeight = 0.8
	}
	emojiWeight := 0.0
	if hasEmoji {
		emojiWeight = 0.2
	}

	total := textWeight + starWeight + emojiWeight
	textWeight /= total
	starWeight /= total
	emojiWeight /= total

	var positiveScore, negativeScore, neutralScore float64
	switch textSentiment {
	case models.SentimentPositive:
		positiveScore += textWeight * textConfidence
	case models.SentimentNegative:
		negativeScore += textWeight * textConfidence
	default:
		neutralScore += textWeight * textConfidence
	}
	switch {
	case starRating >= 4:
		positiveScore += starWeight
	case starRating <= 2:
		negativeScore += starWeight
	default:
		neutralScore += starWeight
	}
	if hasEmoji {
		switch {
		case positiveEmojis[emojiRating]:
			positiveScore += emojiWeight
		case negativeEmojis[emojiRating]:
			negativeScore += emojiWeight
		default:
			neutralScore += emojiWeight
		}
	}

	sentiment, winning := voteWinner(positiveScore, negativeScore, neutralScore)
	confidence := minFloat(0.9, 0.6+winning*0.4)

	lowerText := strings.ToLower(text)
	safety := false
	if hasText {
		for _, term := range safetyTerms {
			if strings.Contains(lowerText, term) {
				safety = true
				break
			}
		}
	}

	urgency := models.UrgencyLow
	if sentiment == models.SentimentNegative {
		if starRating == 1 {
			urgency = models.UrgencyHigh
		} else {
			urgency = models.UrgencyMedium
		}
		if safety {
			urgency = models.UrgencyCritical
		}
	}
	if emojiRating == "😡" {
		urgency = models.MaxUrgency(urgency, models.UrgencyHigh)
	}

	categories := extractCategories(lowerText)

	return &models.Analysis{
		Sentiment:  sentiment,
		Confidence: confidence,
		Emotions:   fallbackEmotions(sentiment, confidence, emojiRating),
		Keywords:   keywords,
		Language:   resolveLanguage(text, language),
		Toxicity:   0,
		Urgency:    urgency,
		Categories: categories,
		Insights:   buildInsights(sentiment, starRating, categories, safety),
	}
}

func tokenize(text string) []string {
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.Trim(f, ".,!?;:\"'()[]|")
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// voteWinner picks the highest-scoring sentiment, breaking ties toward
// neutral.
func voteWinner(positive, negative, neutral float64) (string, float64) {
	if positive > negative && positive > neutral {
		return models.SentimentPositive, positive
	}
	if negative > positive && negative > neutral {
		return models.SentimentNegative, negative
	}
	return models.SentimentNeutral, maxFloat(neutral, maxFloat(positive, negative))
}

func extractCategories(lowerText string) []string {
	var categories []string
	for _, group := range categoryKeywords {
		for _, term := range group.Terms {
			if strings.Contains(lowerText, term) {
				categories = append(categories, group.Category)
				break
			}
		}
	}
	if categories == nil {
		categories = []string{"general"}
	}
	return categories
}

func buildInsights(sentiment string, starRating int, categories []string, safety bool) []string {
	var insights []string
	has := func(cat string) bool {
		for _, c := range categories {
			if c == cat {
				return true
			}
		}
		return false
	}

	if safety && sentiment == models.SentimentNegative {
		insights = append(insights, "URGENT: Safety concern reported - requires immediate attention")
	}
	if sentiment == models.SentimentNegative {
		if starRating == 1 {
			insights = append(insights, "Critical service improvement needed")
		}
		if has("cleanliness") {
			insights = append(insights, "Focus on hygiene and cleanliness standards")
		}
		if has("food") {
			insights = append(insights, "Review food quality and freshness")
		}
		if has("service quality") {
			insights = append(insights, "Invest in staff training and responsiveness")
		}
		if has("accommodation") {
			insights = append(insights, "Inspect room maintenance and amenities")
		}
		if has("pricing") {
			insights = append(insights, "Re-evaluate pricing against the value offered")
		}
	}
	if sentiment == models.SentimentPositive {
		insights = append(insights, "Leverage positive feedback for marketing")
	}
	if len(insights) == 0 {
		insights = append(insights, "Monitor feedback for emerging patterns")
	}
	return insights
}

func fallbackEmotions(sentiment string, confidence float64, emojiRating string) map[string]float64 {
	emotions := map[string]float64{}
	switch sentiment {
	case models.SentimentPositive:
		emotions["joy"] = confidence
	case models.SentimentNegative:
		emotions["sadness"] = confidence * 0.6
		emotions["anger"] = confidence * 0.4
	}
	if emojiRating == "😡" {
		emotions["anger"] = maxFloat(emotions["anger"], 0.8)
	}
	return emotions
}

// resolveLanguage returns the declared language, falling back to a script
// check when the caller asked for auto-detection.
func resolveLanguage(text, language string) string {
	if language != "" && language != "auto" {
		return language
	}
	for _, r := range text {
		if r >= 0x0900 && r <= 0x097F { // Devanagari block
			return "hi"
		}
	}
	return "en"
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
