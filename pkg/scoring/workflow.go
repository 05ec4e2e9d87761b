package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/feedwise/feedwise/pkg/config"
	"github.com/feedwise/feedwise/pkg/types"
)

// DefaultWorkflowTimeout bounds one scoring request. It is deliberately much
// larger than the orchestrator's submission stagger so several requests stay
// in flight at once.
const DefaultWorkflowTimeout = 90 * time.Second

// WorkflowClient scores products through a workflow-style scoring endpoint
// (Dify compatible): the request carries a flat inputs bag and the response
// wraps the model's answer as a JSON-encoded string under data.outputs.output.
type WorkflowClient struct {
	endpoint string
	apiKey   string
	client   *http.Client
	limiter  *rate.Limiter
}

// NewWorkflowClient creates a workflow scoring client from configuration.
func NewWorkflowClient(cfg config.ScoringConfig) *WorkflowClient {
	timeout := DefaultWorkflowTimeout
	if cfg.Timeout > 0 {
		timeout = time.Duration(cfg.Timeout) * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}

	return &WorkflowClient{
		endpoint: cfg.BaseURL,
		apiKey:   cfg.APIKey,
		client:   &http.Client{Timeout: timeout},
		limiter:  limiter,
	}
}

// Name returns the scorer identifier for logging.
func (c *WorkflowClient) Name() string {
	return "workflow"
}

// workflowRequest is the outbound payload shape.
type workflowRequest struct {
	Inputs       map[string]interface{} `json:"inputs"`
	ResponseMode string                 `json:"response_mode"`
	User         string                 `json:"user"`
}

// workflowResponse is the envelope the endpoint answers with. The actual
// score schema is the JSON-encoded string in Data.Outputs.Output.
type workflowResponse struct {
	Data struct {
		Outputs struct {
			Output string `json:"output"`
		} `json:"outputs"`
	} `json:"data"`
}

// Score performs a single blocking scoring call. It classifies failures into
// the package's typed errors and never retries; a failed product is the
// orchestrator's problem, which substitutes a fallback record exactly once.
func (c *WorkflowClient) Score(ctx context.Context, profile *types.PetProfile, product *types.Product, callerID string) (*types.ScoreRecord, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, NewTimeoutError(fmt.Sprintf("rate limiter: %v", err))
		}
	}

	payload := workflowRequest{
		Inputs:       buildWorkflowInputs(profile, product, safeUserID(callerID)),
		ResponseMode: "blocking",
		User:         safeUserID(callerID),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal scoring request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build scoring request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewUnreachableError(fmt.Sprintf("reading scoring response: %v", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, NewBadResponseError(resp.StatusCode, string(respBody))
	}

	var envelope workflowResponse
	if err := json.Unmarshal(respBody, &envelope); err != nil {
		return nil, NewParseError(fmt.Sprintf("decoding workflow envelope: %v", err), string(respBody))
	}

	return decodeScoreOutput(envelope.Data.Outputs.Output, product)
}

// classifyTransportError maps transport failures to typed scoring errors.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewTimeoutError(err.Error())
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return NewTimeoutError(err.Error())
	}
	return NewUnreachableError(err.Error())
}

// buildWorkflowInputs flattens the profile and product into the inputs bag
// the scoring workflow expects. Unset numeric fields get conservative
// defaults rather than zeros so the model is not misled by missing data.
func buildWorkflowInputs(profile *types.PetProfile, product *types.Product, userID string) map[string]interface{} {
	weight := profile.WeightKg
	if weight <= 0 {
		weight = 4.0
	}
	age := profile.AgeMonths
	if age <= 0 {
		age = 12
	}

	health := profile.HealthStatus
	if health == "" {
		health = "healthy"
	}
	if notes := strings.TrimSpace(profile.DoctorNotes); notes != "" {
		health = health + "; veterinarian notes: " + notes
	}

	allergies := profile.Allergies
	if allergies == "" {
		allergies = "none"
	}

	activity := profile.ActivityLevel
	if activity == "" {
		activity = "medium"
	}

	componentRatio := "{}"
	if len(product.Nutrition) > 0 {
		if data, err := json.Marshal(product.Nutrition); err == nil {
			componentRatio = string(data)
		}
	}

	rawMaterial := strings.Join(append(append([]string{}, product.Ingredients...), product.Additives...), " ")

	inputs := map[string]interface{}{
		"species":          strings.ToLower(profile.Species),
		"breed":            profile.Breed,
		"age_months":       age,
		"weight_kg":        weight,
		"neutered":         fmt.Sprintf("%t", profile.Neutered),
		"activity_level":   activity,
		"allergies":        allergies,
		"health":           health,
		"food_preferences": profile.FoodPreferences,
		"component_ratio":  componentRatio,
		"raw_material":     rawMaterial,
		"sys.files":        []string{},
		"sys.user_id":      uuid.NewString(),
		"sys.user_name":    userID,
		"sys.app_id":       uuid.NewString(),
	}

	for k, v := range profile.Extra {
		inputs[k] = v
	}

	return inputs
}

// safeUserID strips characters the remote service rejects from caller ids.
func safeUserID(id string) string {
	if id == "" {
		return "anonymous-user"
	}
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		}
	}
	safe := b.String()
	if safe == "" {
		return "anonymous-user"
	}
	if len(safe) > 50 {
		safe = safe[:50]
	}
	return safe
}
