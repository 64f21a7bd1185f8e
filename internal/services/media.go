package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"github.com/tribaltrek/pulse/internal/config"
	"github.com/tribaltrek/pulse/internal/models"
	"github.com/tribaltrek/pulse/pkg/logger"
)

const imagePrompt = `Describe this travel feedback photo. Respond with ONLY a JSON object:
{"caption": "one sentence", "objects": ["visible objects"], "sentiment": "positive" | "negative" | "neutral"}`

// speechProvider returns the first OpenAI-compatible provider with a
// credential; the speech and vision endpoints ride on it.
func (s *AIService) speechProvider() (*config.ProviderConfig, error) {
	for _, p := range s.cfg.Providers {
		if (p.Provider == "openai" || p.Provider == "" || p.Provider == "azure") && p.APIKey != "" {
			return &p, nil
		}
	}
	return nil, ErrNoCredential
}

func (s *AIService) openAIClient(p *config.ProviderConfig) *openai.Client {
	if p.Provider == "azure" {
		return openai.NewClientWithConfig(openai.DefaultAzureConfig(p.APIKey, p.BaseURL))
	}
	clientConfig := openai.DefaultConfig(p.APIKey)
	if p.BaseURL != "" {
		clientConfig.BaseURL = p.BaseURL
	}
	return openai.NewClientWithConfig(clientConfig)
}

// AnalyzeVoice transcribes a voice note and re-runs text analysis on the
// transcript. The transcript analysis is returned alongside so the pipeline
// can use it when the submission carried no typed text.
func (s *AIService) AnalyzeVoice(ctx context.Context, audio []byte, language string) (*models.VoiceAnalysis, *models.Analysis, error) {
	p, err := s.speechProvider()
	if err != nil {
		return nil, nil, err
	}
	client := s.openAIClient(p)

	ctx, cancel := context.WithTimeout(ctx, s.Timeout())
	defer cancel()

	lang := language
	if lang == "auto" {
		lang = ""
	}

	resp, err := client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    s.cfg.SpeechModel,
		FilePath: "feedback.wav",
		Reader:   bytes.NewReader(audio),
		Language: lang,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("transcription error: %w", err)
	}

	transcript := strings.TrimSpace(resp.Text)
	logger.Infof("[AI] Voice transcript length: %d chars", len(transcript))

	voice := &models.VoiceAnalysis{
		Transcript: transcript,
		Language:   resolveLanguage(transcript, language),
	}
	if transcript == "" {
		return voice, nil, nil
	}

	analysis, err := s.AnalyzeText(ctx, transcript, voice.Language)
	if err != nil {
		// The transcript itself is still useful; the caller decides how to
		// score it.
		return voice, nil, nil
	}
	voice.Sentiment = analysis.Sentiment
	voice.Confidence = analysis.Confidence
	return voice, analysis, nil
}

// AnalyzeImage captions an attached photo and extracts object tags plus a
// crude sentiment read of the caption.
func (s *AIService) AnalyzeImage(ctx context.Context, image []byte) (*models.ImageAnalysis, error) {
	p, err := s.speechProvider()
	if err != nil {
		return nil, err
	}
	client := s.openAIClient(p)

	ctx, cancel := context.WithTimeout(ctx, s.Timeout())
	defer cancel()

	dataURL := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.cfg.VisionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: imagePrompt},
					{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: dataURL}},
				},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("vision API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from vision API")
	}

	return parseImageAnalysis(resp.Choices[0].Message.Content)
}

func parseImageAnalysis(content string) (*models.ImageAnalysis, error) {
	raw := extractJSONObject(content)
	if raw == "" {
		return nil, fmt.Errorf("no JSON object in vision response")
	}
	var img struct {
		Caption   string   `json:"caption"`
		Objects   []string `json:"objects"`
		Sentiment string   `json:"sentiment"`
	}
	if err := json.Unmarshal([]byte(raw), &img); err != nil {
		return nil, fmt.Errorf("malformed vision JSON: %w", err)
	}
	sentiment := strings.ToLower(strings.TrimSpace(img.Sentiment))
	if !models.ValidSentiment(sentiment) {
		sentiment = models.SentimentNeutral
	}
	return &models.ImageAnalysis{
		Caption:   img.Caption,
		Objects:   img.Objects,
		Sentiment: sentiment,
	}, nil
}
