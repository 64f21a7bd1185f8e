package services

import (
	"fmt"
	"strings"

	"github.com/tribaltrek/pulse/internal/models"
)

// chatResponseRule pairs a predicate with a reply template, evaluated in
// order with first match winning.
type chatResponseRule struct {
	Match  func(*models.Feedback) bool
	Render func(*models.Feedback) string
}

var chatResponseRules = []chatResponseRule{
	{
		Match: func(f *models.Feedback) bool { return f.UrgencyLevel == models.UrgencyCritical },
		Render: func(f *models.Feedback) string {
			return fmt.Sprintf(
				"We are treating your report from %s about %s as a priority. A member of our team will contact you within 2 hours.",
				f.Location, strings.Join(f.Analysis.Categories, ", "))
		},
	},
	{
		Match: func(f *models.Feedback) bool { return f.Analysis.Sentiment == models.SentimentPositive },
		Render: func(f *models.Feedback) string {
			keywords := f.Analysis.Keywords
			if len(keywords) > 3 {
				keywords = keywords[:3]
			}
			if len(keywords) == 0 {
				return fmt.Sprintf("Thank you for the wonderful feedback about %s! We're delighted you enjoyed your visit.", f.Location)
			}
			return fmt.Sprintf(
				"Thank you for the wonderful feedback about %s! We're delighted you highlighted %s.",
				f.Location, strings.Join(keywords, ", "))
		},
	},
	{
		Match: func(f *models.Feedback) bool { return f.Analysis.Sentiment == models.SentimentNegative },
		Render: func(f *models.Feedback) string {
			insights := f.Analysis.Insights
			if len(insights) > 2 {
				insights = insights[:2]
			}
			if len(insights) == 0 {
				return fmt.Sprintf(
					"We're sorry your experience at %s wasn't what you hoped for. We will look into it and update you within 24-48 hours.",
					f.Location)
			}
			return fmt.Sprintf(
				"We're sorry your experience at %s wasn't what you hoped for. We will act on this: %s. Expect an update within 24-48 hours.",
				f.Location, strings.Join(insights, " and "))
		},
	},
	{
		Match: func(f *models.Feedback) bool { return true },
		Render: func(f *models.Feedback) string {
			return fmt.Sprintf(
				"Thank you for taking the time to review %s in the %s category. Every piece of feedback helps us improve.",
				f.Location, strings.ToLower(f.Category))
		},
	},
}

// GenerateChatResponse produces the contextual reply text shown to the
// visitor right after submission.
func GenerateChatResponse(f *models.Feedback) string {
	for _, rule := range chatResponseRules {
		if rule.Match(f) {
			return rule.Render(f)
		}
	}
	return ""
}

// maxFollowUpQuestions caps the follow-up list shown to the visitor.
const maxFollowUpQuestions = 3

// FollowUpQuestions builds up to three follow-up prompts. Each condition
// appends independently, in fixed order.
func FollowUpQuestions(f *models.Feedback) []string {
	var questions []string
	add := func(q string) {
		if len(questions) < maxFollowUpQuestions {
			questions = append(questions, q)
		}
	}

	if f.Analysis.Sentiment == models.SentimentNegative {
		add("What specifically could we improve about your experience?")
	}
	add(fmt.Sprintf("Would you consider visiting %s again?", f.Location))
	for _, c := range f.Analysis.Categories {
		if c == "service quality" {
			add("Which staff interaction stood out to you, and why?")
			break
		}
	}
	for _, c := range f.Analysis.Categories {
		if c == "cleanliness" {
			add("Which areas did you find were not kept to standard?")
			break
		}
	}
	return questions
}
