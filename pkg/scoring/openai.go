package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/feedwise/feedwise/pkg/config"
	"github.com/feedwise/feedwise/pkg/types"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

const scoringSystemPrompt = `You are a veterinary nutrition analyst. Given a pet profile and one food product, judge how well the product fits the pet. Respond with a single JSON object in exactly this format:

{"final_score": <0-100 number>, "reason": "<one paragraph rationale>", "key_evidence": ["<evidence>"], "score_breakdown": {"safety_score": <0-100>, "macro_fit_score": <0-100>, "protein_quality_score": <0-100>}, "hard_fail": <bool>, "health_tags": ["<tag>"], "hit_avoid": ["<risk>"]}

Set hard_fail to true only when the product contains an ingredient the pet is allergic to or that is toxic to the species. Respond with JSON only, no prose around it.`

// OpenAIClient scores products through an OpenAI-compatible chat completion
// endpoint instead of a workflow service. It prompts for the same JSON score
// schema the workflow backend returns, so both backends produce identical
// records.
type OpenAIClient struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	timeout     time.Duration
}

// NewOpenAIClient creates an OpenAI-backed scorer. Supports OpenAI-compatible
// services through a custom base URL.
func NewOpenAIClient(cfg config.ScoringConfig) *OpenAIClient {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "dummy-key"
	}

	var client *openai.Client
	if cfg.BaseURL != "" {
		clientConfig := openai.DefaultConfig(apiKey)
		clientConfig.BaseURL = cfg.BaseURL
		client = openai.NewClientWithConfig(clientConfig)
	} else {
		client = openai.NewClient(apiKey)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}

	timeout := DefaultWorkflowTimeout
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	return &OpenAIClient{
		client:      client,
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		timeout:     timeout,
	}
}

// Name returns the scorer identifier for logging.
func (c *OpenAIClient) Name() string {
	return "openai/" + c.model
}

// Score performs a single blocking chat completion and decodes the model's
// JSON answer into a score record. Like the workflow backend it never
// retries.
func (c *OpenAIClient) Score(ctx context.Context, profile *types.PetProfile, product *types.Product, callerID string) (*types.ScoreRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	userPrompt, err := buildScoringPrompt(profile, product)
	if err != nil {
		return nil, fmt.Errorf("build scoring prompt: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
		User:        safeUserID(callerID),
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: scoringSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, NewTimeoutError(err.Error())
		}
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			return nil, NewBadResponseError(apiErr.HTTPStatusCode, apiErr.Message)
		}
		return nil, classifyTransportError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, NewParseError("no choices returned from API", "")
	}

	return decodeScoreOutput(resp.Choices[0].Message.Content, product)
}

// buildScoringPrompt renders the profile and product as a compact JSON
// document for the model.
func buildScoringPrompt(profile *types.PetProfile, product *types.Product) (string, error) {
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return "", err
	}
	productJSON, err := json.Marshal(product)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("Pet profile:\n")
	b.Write(profileJSON)
	b.WriteString("\n\nProduct:\n")
	b.Write(productJSON)
	return b.String(), nil
}
