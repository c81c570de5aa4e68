package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carys/llm-decision-engine/internal/core"
	"github.com/carys/llm-decision-engine/internal/utils"
	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
)

// GeminiClient is an implementation of the LLMClient interface using Google Gemini
type GeminiClient struct {
	client        *genai.Client
	model         *genai.GenerativeModel
	modelName     string
	maxInputSize  int
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	promptFormat  string
}

// intentResponse represents the structured response from the LLM
type intentResponse struct {
	Intent     string   `json:"intent"`
	Confidence float64  `json:"confidence"`
	Secondary  []string `json:"secondary"`
	Reasoning  string   `json:"reasoning"`
}

const classifyPrompt = `You are an intent classifier for an email assistant. Classify what the user's message is asking for.
Respond with a JSON object containing:
- intent: one of reply, compose, summarize, schedule, search, template, translate, tone, unsubscribe, assistance
- confidence: number between 0 and 1 (how confident you are in the classification)
- secondary: array of other plausible intents, most likely first
- reasoning: string (brief explanation of the classification)

User message:
%s

Additional context:
%s

Respond only with the JSON object and nothing else.`

// NewGeminiClient creates a new Gemini client from an existing genai client
func NewGeminiClient(
	client *genai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxInputSize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *GeminiClient {
	model := client.GenerativeModel(modelName)
	model.SetTemperature(temperature)
	model.SetTopP(topP)
	model.SetMaxOutputTokens(int32(maxTokens))

	return &GeminiClient{
		client:        client,
		model:         model,
		modelName:     modelName,
		maxInputSize:  maxInputSize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat:  classifyPrompt,
	}
}

// Close closes the Gemini client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// ClassifyIntent labels the request text via Gemini content generation
func (c *GeminiClient) ClassifyIntent(ctx context.Context, req *core.ClassifyRequest) (*core.IntentClassification, error) {
	text := c.textProcessor.ProcessText(req.Text, c.maxInputSize)
	contextText := req.EmailContext
	if contextText == "" {
		contextText = "(none)"
	} else {
		contextText = c.textProcessor.ProcessText(contextText, c.maxInputSize)
	}

	prompt := fmt.Sprintf(c.promptFormat, text, contextText)

	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content with Gemini: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	responseText := fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])

	parsed, err := parseIntentJSON(responseText)
	if err != nil {
		return nil, err
	}

	return &core.IntentClassification{
		Intent:       parsed.Intent,
		Confidence:   parsed.Confidence,
		Secondary:    parsed.Secondary,
		Reasoning:    parsed.Reasoning,
		ClassifiedAt: time.Now(),
	}, nil
}

// parseIntentJSON decodes the provider's JSON answer, salvaging the
// first {...} block when the model wrapped it in prose.
func parseIntentJSON(responseText string) (*intentResponse, error) {
	var parsed intentResponse
	if err := json.Unmarshal([]byte(responseText), &parsed); err == nil {
		return &parsed, nil
	}

	jsonStart := 0
	jsonEnd := len(responseText)

	for i := 0; i < len(responseText); i++ {
		if responseText[i] == '{' {
			jsonStart = i
			break
		}
	}
	for i := len(responseText) - 1; i >= 0; i-- {
		if responseText[i] == '}' {
			jsonEnd = i + 1
			break
		}
	}

	if jsonStart >= jsonEnd {
		return nil, fmt.Errorf("failed to extract JSON from LLM response")
	}
	if err := json.Unmarshal([]byte(responseText[jsonStart:jsonEnd]), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
	}
	return &parsed, nil
}
