package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/carys/llm-decision-engine/internal/core"
	"github.com/carys/llm-decision-engine/internal/utils"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIClient is an implementation of the LLMClient interface using OpenAI
type OpenAIClient struct {
	client        *openai.Client
	modelName     string
	maxTokens     int
	temperature   float32
	topP          float32
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

// NewOpenAIClient creates a new OpenAI client
func NewOpenAIClient(
	client *openai.Client,
	modelName string,
	maxTokens int,
	temperature float32,
	topP float32,
	maxInputSize int,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
) *OpenAIClient {
	return &OpenAIClient{
		client:        client,
		modelName:     modelName,
		maxTokens:     maxTokens,
		temperature:   temperature,
		topP:          topP,
		maxInputSize:  maxInputSize,
		logger:        logger,
		textProcessor: textProcessor,
		promptFormat:  classifyPrompt,
	}
}

// ClassifyIntent labels the request text via OpenAI chat completion
func (c *OpenAIClient) ClassifyIntent(ctx context.Context, req *core.ClassifyRequest) (*core.IntentClassification, error) {
	text := c.textProcessor.ProcessText(req.Text, c.maxInputSize)
	contextText := req.EmailContext
	if contextText == "" {
		contextText = "(none)"
	} else {
		contextText = c.textProcessor.ProcessText(contextText, c.maxInputSize)
	}

	prompt := fmt.Sprintf(c.promptFormat, text, contextText)

	chatReq := openai.ChatCompletionRequest{
		Model: c.modelName,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an intent classifier. Respond only with JSON.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
		TopP:        c.topP,
	}

	responseFormat := openai.ChatCompletionResponseFormat{
		Type: "json",
	}
	chatReq.ResponseFormat = &responseFormat

	resp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion with OpenAI: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from OpenAI")
	}

	parsed, err := parseIntentJSON(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	return &core.IntentClassification{
		Intent:       parsed.Intent,
		Confidence:   parsed.Confidence,
		Secondary:    parsed.Secondary,
		Reasoning:    parsed.Reasoning,
		ClassifiedAt: time.Now(),
		ProcessingID: resp.ID,
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
