package services

import (
	"github.com/tribaltrek/pulse/internal/models"
)

// emojiSignal is the fixed mapping from a quick-reaction emoji to the
// sentiment bucket and urgency floor it implies.
type emojiSignal struct {
	Sentiment string
	Urgency   string
}

var emojiSignals = map[string]emojiSignal{
	"😍": {models.SentimentPositive, models.UrgencyLow},
	"😊": {models.SentimentPositive, models.UrgencyLow},
	"😐": {models.SentimentNeutral, models.UrgencyLow},
	"😞": {models.SentimentNegative, models.UrgencyMedium},
	"😡": {models.SentimentNegative, models.UrgencyHigh},
}

// EnhanceWithRatings folds the star rating and emoji reaction into an
// analysis that the hosted provider already produced. When the provider is
// confident the ratings only corroborate; when it is not, they dominate a
// re-vote with heavier weights than the no-provider fallback uses. The two
// weighting schemes are intentionally different and must stay separate.
func EnhanceWithRatings(a *models.Analysis, starRating int, emojiRating string) *models.Analysis {
	if a == nil {
		return nil
	}
	out := *a
	if out.Urgency == "" {
		out.Urgency = models.UrgencyLow
	}

	signal, hasEmoji := emojiSignals[emojiRating]

	if out.Confidence > 0.7 {
		// High confidence: keep the provider's sentiment, only let the
		// ratings escalate urgency or nudge confidence.
		if out.Sentiment == models.SentimentNegative {
			switch starRating {
			case 1:
				out.Urgency = models.MaxUrgency(out.Urgency, models.UrgencyHigh)
			case 2:
				out.Urgency = models.MaxUrgency(out.Urgency, models.UrgencyMedium)
			}
		}
		if hasEmoji {
			if signal.Sentiment == out.Sentiment {
				out.Confidence = minFloat(0.95, out.Confidence+0.1)
			} else {
				out.Confidence = maxFloat(0.6, out.Confidence-0.1)
			}
		}
		return &out
	}

	// Low confidence: re-vote. The provider's verdict enters with its own
	// confidence as weight; the ratings carry fixed, heavier weights.
	textWeight := out.Confidence
	starWeight := 0.4
	emojiWeight := 0.0
	if hasEmoji {
		emojiWeight = 0.3
	}

	total := textWeight + starWeight + emojiWeight
	textWeight /= total
	starWeight /= total
	emojiWeight /= total

	var positiveScore, negativeScore, neutralScore float64
	switch out.Sentiment {
	case models.SentimentPositive:
		positiveScore += textWeight
	case models.SentimentNegative:
		negativeScore += textWeight
	default:
		neutralScore += textWeight
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
		switch signal.Sentiment {
		case models.SentimentPositive:
			positiveScore += emojiWeight
		case models.SentimentNegative:
			negativeScore += emojiWeight
		default:
			neutralScore += emojiWeight
		}
	}

	sentiment, winning := voteWinner(positiveScore, negativeScore, neutralScore)
	out.Sentiment = sentiment
	out.Confidence = minFloat(0.9, 0.6+winning*0.4)

	urgency := models.UrgencyLow
	if sentiment == models.SentimentNegative {
		if starRating == 1 {
			urgency = models.UrgencyHigh
		} else {
			urgency = models.UrgencyMedium
		}
	}
	if hasEmoji {
		urgency = models.MaxUrgency(urgency, signal.Urgency)
	}
	// Never silently downgrade what the provider already judged urgent.
	out.Urgency = models.MaxUrgency(urgency, a.Urgency)

	return &out
}
