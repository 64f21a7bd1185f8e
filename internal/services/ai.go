package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tribaltrek/pulse/pkg/logger"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"github.com/tribaltrek/pulse/internal/config"
	"github.com/tribaltrek/pulse/internal/models"
	"google.golang.org/genai"
)

// ErrNoCredential is returned when no analysis provider is usable. The
// submission pipeline maps it straight onto the deterministic fallback
// without attempting any network call.
var ErrNoCredential = errors.New("no analysis provider credential configured")

const analysisPromptTemplate = `You are a sentiment analysis engine for tourist feedback. Analyze the review below and respond with ONLY a JSON object, no prose, in exactly this shape:
{
  "sentiment": "positive" | "negative" | "neutral",
  "confidence": 0.0-1.0,
  "emotions": {"joy": 0.0-1.0, "anger": 0.0-1.0, "sadness": 0.0-1.0, "surprise": 0.0-1.0, "fear": 0.0-1.0, "disgust": 0.0-1.0},
  "keywords": ["up to 5 salient terms"],
  "language": "resolved ISO language code",
  "toxicity": 0.0-1.0,
  "urgency": "low" | "medium" | "high" | "critical",
  "categories": ["accommodation", "food", "service quality", "cleanliness", "pricing", "location"],
  "actionableInsights": ["short recommendation strings"]
}

Review language hint: %s
Review text:
%s`

// AIService wraps the hosted language-model providers used for text, voice
// and image analysis. Providers are tried in configuration order.
type AIService struct {
	cfg *config.AIConfig
}

func NewAIService(cfg *config.AIConfig) *AIService {
	return &AIService{cfg: cfg}
}

// Timeout returns the per-request provider timeout.
func (s *AIService) Timeout() time.Duration {
	return time.Duration(s.cfg.TimeoutSeconds) * time.Second
}

// usableProviders filters the configured providers down to the ones that can
// actually be called. Ollama needs no credential; every hosted provider does.
func (s *AIService) usableProviders() []config.ProviderConfig {
	var out []config.ProviderConfig
	for _, p := range s.cfg.Providers {
		if p.Provider == "ollama" || p.APIKey != "" {
			out = append(out, p)
		}
	}
	return out
}

// AnalyzeText runs one scoring request against the configured providers and
// parses the fixed-shape JSON verdict. Any failure is returned to the caller,
// which is responsible for routing to the fallback analyzer.
func (s *AIService) AnalyzeText(ctx context.Context, text, language string) (*models.Analysis, error) {
	providers := s.usableProviders()
	if len(providers) == 0 {
		return nil, ErrNoCredential
	}

	prompt := fmt.Sprintf(analysisPromptTemplate, language, text)

	ctx, cancel := context.WithTimeout(ctx, s.Timeout())
	defer cancel()

	var lastErr error
	for i, p := range providers {
		logger.Debugf("[AI] Attempting provider %d/%d: %s (model: %s)", i+1, len(providers), p.Name, p.Model)

		content, err := s.callProvider(ctx, &p, prompt)
		if err != nil {
			lastErr = err
			logger.Warnf("[AI] Provider %s failed: %v", p.Name, err)
			continue
		}

		analysis, err := parseAnalysis(content)
		if err != nil {
			lastErr = err
			logger.Warnf("[AI] Provider %s returned unparseable analysis: %v", p.Name, err)
			continue
		}

		if analysis.Language == "" {
			analysis.Language = resolveLanguage(text, language)
		}
		logger.Infof("[AI] Analysis via %s: sentiment=%s confidence=%.2f", p.Name, analysis.Sentiment, analysis.Confidence)
		return analysis, nil
	}

	return nil, fmt.Errorf("all analysis providers failed: %w", lastErr)
}

// callProvider dispatches to the provider-specific call based on the
// configured provider type.
func (s *AIService) callProvider(ctx context.Context, p *config.ProviderConfig, prompt string) (string, error) {
	switch p.Provider {
	case "anthropic":
		return s.callAnthropic(ctx, p, prompt)
	case "ollama":
		return s.callOllama(ctx, p, prompt)
	case "gemini":
		return s.callGemini(ctx, p, prompt)
	case "azure":
		return s.callAzure(ctx, p, prompt)
	default:
		// openai and other OpenAI-compatible services
		return s.callOpenAI(ctx, p, prompt)
	}
}

// callOpenAI handles OpenAI and OpenAI-compatible APIs (including custom endpoints)
func (s *AIService) callOpenAI(ctx context.Context, p *config.ProviderConfig, prompt string) (string, error) {
	clientConfig := openai.DefaultConfig(p.APIKey)
	if p.BaseURL != "" {
		clientConfig.BaseURL = p.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	temperature := float32(0.2)
	if p.Temperature > 0 {
		temperature = float32(p.Temperature)
	}

	model := p.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

// callAnthropic handles Anthropic Claude API using the native SDK
func (s *AIService) callAnthropic(ctx context.Context, p *config.ProviderConfig, prompt string) (string, error) {
	client := anthropic.NewClient(
		option.WithAPIKey(p.APIKey),
	)

	maxTokens := int64(p.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 1024
	}

	model := p.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	return content, nil
}

// callOllama handles local models through the Ollama API
func (s *AIService) callOllama(ctx context.Context, p *config.ProviderConfig, prompt string) (string, error) {
	baseURL := p.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	model := p.Model
	if model == "" {
		model = "llama3"
	}

	var content strings.Builder
	err = client.Chat(ctx, &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Options: map[string]interface{}{
			"temperature": p.Temperature,
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Ollama API error: %w", err)
	}

	return content.String(), nil
}

// callGemini handles Google Gemini API using the native SDK
func (s *AIService) callGemini(ctx context.Context, p *config.ProviderConfig, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: p.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("Gemini client error: %w", err)
	}

	model := p.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	return resp.Text(), nil
}

// callAzure handles Azure OpenAI API using special configuration
func (s *AIService) callAzure(ctx context.Context, p *config.ProviderConfig, prompt string) (string, error) {
	// Azure requires BaseURL format: https://{resource-name}.openai.azure.com
	// Model field is used as deployment name
	cfg := openai.DefaultAzureConfig(p.APIKey, p.BaseURL)
	client := openai.NewClientWithConfig(cfg)

	temperature := float32(0.2)
	if p.Temperature > 0 {
		temperature = float32(p.Temperature)
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("Azure OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from Azure OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}

// parseAnalysis extracts the fixed-shape JSON verdict from a model response,
// tolerating markdown code fences and surrounding prose, and normalizes the
// fields into valid ranges.
func parseAnalysis(content string) (*models.Analysis, error) {
	raw := extractJSONObject(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in provider response")
	}

	var a models.Analysis
	if err := json.Unmarshal([]byte(raw), &a); err != nil {
		return nil, fmt.Errorf("malformed provider JSON: %w", err)
	}

	a.Sentiment = strings.ToLower(strings.TrimSpace(a.Sentiment))
	if !models.ValidSentiment(a.Sentiment) {
		a.Sentiment = models.SentimentNeutral
	}
	a.Urgency = strings.ToLower(strings.TrimSpace(a.Urgency))
	if !models.ValidUrgency(a.Urgency) {
		a.Urgency = models.UrgencyLow
	}
	a.Confidence = clamp01(a.Confidence)
	a.Toxicity = clamp01(a.Toxicity)
	if len(a.Keywords) > models.MaxKeywords {
		a.Keywords = a.Keywords[:models.MaxKeywords]
	}
	for name, v := range a.Emotions {
		a.Emotions[name] = clamp01(v)
	}
	return &a, nil
}

// extractJSONObject returns the outermost {...} slice of content, stripping
// any ```json fences first.
func extractJSONObject(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return content[start : end+1]
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
