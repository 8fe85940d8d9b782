package vision

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/sitewatch/sitewatch/domain/entities"
	"github.com/sitewatch/sitewatch/domain/repositories"
)

// GeminiModel is the alternative vision backend using Google's Gemini API.
type GeminiModel struct {
	client          *genai.Client
	model           string
	maxOutputTokens int
	timeout         time.Duration
	logger          *zap.Logger
}

// NewGeminiModel creates a Gemini-backed vision model. Requires the
// GEMINI_API_KEY environment variable.
func NewGeminiModel(model string, maxOutputTokens int, timeout time.Duration, logger *zap.Logger) (*GeminiModel, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiModel{
		client:          client,
		model:           model,
		maxOutputTokens: maxOutputTokens,
		timeout:         timeout,
		logger:          logger,
	}, nil
}

// Analyze sends one frame plus the fixed prompt and returns the raw model
// text with its token cost.
func (g *GeminiModel) Analyze(ctx context.Context, imageJPEG []byte) (*repositories.VisionResponse, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(imageJPEG, "image/jpeg"),
			genai.NewPartFromText(safetyPrompt),
		}, genai.RoleUser),
	}

	config := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(g.maxOutputTokens),
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	g.logger.Info("invoking vision model",
		zap.String("model", g.model),
		zap.Int("imageBytes", len(imageJPEG)),
		zap.Int("maxOutputTokens", g.maxOutputTokens))

	response, err := g.client.Models.GenerateContent(ctx, g.model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("invoke model %s: %w", g.model, err)
	}

	if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
		return nil, fmt.Errorf("model response has no content")
	}

	var text string
	for _, part := range response.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("model response has no text")
	}

	usage := entities.TokenUsage{}
	if response.UsageMetadata != nil {
		usage.InputTokens = int(response.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int(response.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}

	return &repositories.VisionResponse{Text: text, Usage: usage}, nil
}
