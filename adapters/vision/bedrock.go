// Package vision adapts generative vision models to the pipeline's analysis
// contract. Both backends receive the same fixed prompt and return raw text;
// parsing happens elsewhere.
package vision

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"go.uber.org/zap"

	"github.com/sitewatch/sitewatch/domain/entities"
	"github.com/sitewatch/sitewatch/domain/repositories"
)

// BedrockAPI is the slice of the Bedrock runtime client the adapter uses.
type BedrockAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// BedrockModel invokes an Anthropic model hosted on Bedrock with the fixed
// safety prompt and a bounded response-size budget.
type BedrockModel struct {
	client          BedrockAPI
	modelID         string
	maxOutputTokens int
	timeout         time.Duration
	logger          *zap.Logger
}

// NewBedrockModel creates a Bedrock-backed vision model.
func NewBedrockModel(client BedrockAPI, modelID string, maxOutputTokens int, timeout time.Duration, logger *zap.Logger) *BedrockModel {
	return &BedrockModel{
		client:          client,
		modelID:         modelID,
		maxOutputTokens: maxOutputTokens,
		timeout:         timeout,
		logger:          logger,
	}
}

type anthropicRequest struct {
	AnthropicVersion string             `json:"anthropic_version"`
	MaxTokens        int                `json:"max_tokens"`
	Messages         []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type   string                 `json:"type"`
	Text   string                 `json:"text,omitempty"`
	Source *anthropicImageSource  `json:"source,omitempty"`
}

type anthropicImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type anthropicResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// Analyze sends one frame plus the fixed prompt and returns the raw model
// text with its token cost.
func (b *BedrockModel) Analyze(ctx context.Context, imageJPEG []byte) (*repositories.VisionResponse, error) {
	body, err := json.Marshal(anthropicRequest{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        b.maxOutputTokens,
		Messages: []anthropicMessage{{
			Role: "user",
			Content: []anthropicContent{
				{
					Type: "image",
					Source: &anthropicImageSource{
						Type:      "base64",
						MediaType: "image/jpeg",
						Data:      base64.StdEncoding.EncodeToString(imageJPEG),
					},
				},
				{Type: "text", Text: safetyPrompt},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal model request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	b.logger.Info("invoking vision model",
		zap.String("modelId", b.modelID),
		zap.Int("imageBytes", len(imageJPEG)),
		zap.Int("maxOutputTokens", b.maxOutputTokens))

	out, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke model %s: %w", b.modelID, err)
	}

	return decodeAnthropicResponse(out.Body)
}

// decodeAnthropicResponse extracts the concatenated text and token usage from
// a Bedrock Anthropic response body.
func decodeAnthropicResponse(body []byte) (*repositories.VisionResponse, error) {
	var resp anthropicResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode model response: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("model response has no content")
	}

	var text string
	for _, part := range resp.Content {
		text += part.Text
	}

	return &repositories.VisionResponse{
		Text: text,
		Usage: entities.TokenUsage{
			InputTokens:  resp.Usage.InputTokens,
			OutputTokens: resp.Usage.OutputTokens,
			TotalTokens:  resp.Usage.InputTokens + resp.Usage.OutputTokens,
		},
	}, nil
}
