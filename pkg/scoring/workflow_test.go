package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedwise/feedwise/pkg/config"
	"github.com/feedwise/feedwise/pkg/types"
)

func testProfile() *types.PetProfile {
	return &types.PetProfile{
		Species:   "Cat",
		AgeMonths: 24,
		WeightKg:  4.5,
		Allergies: "chicken",
	}
}

func testProduct() *types.Product {
	return &types.Product{
		ID:          "prod-1",
		Brand:       "Acme",
		Name:        "Salmon Feast",
		Price:       42.5,
		Ingredients: []string{"salmon", "rice"},
		Nutrition:   map[string]float64{"protein": 32},
	}
}

// workflowAnswer wraps a score payload the way the workflow endpoint does:
// the score JSON is itself a string under data.outputs.output.
func workflowAnswer(t *testing.T, score interface{}) []byte {
	t.Helper()
	inner, err := json.Marshal(score)
	require.NoError(t, err)
	outer, err := json.Marshal(map[string]interface{}{
		"data": map[string]interface{}{
			"outputs": map[string]interface{}{"output": string(inner)},
		},
	})
	require.NoError(t, err)
	return outer
}

func TestWorkflowScoreSuccess(t *testing.T) {
	var gotReq workflowRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write(workflowAnswer(t, map[string]interface{}{
			"final_score":     87.5,
			"reason":          "High quality salmon protein",
			"key_evidence":    []string{"named protein source"},
			"score_breakdown": map[string]float64{"safety": 90, "fit": 85},
			"health_tags":     []string{"skin_coat"},
			"hard_fail":       false,
		}))
	}))
	defer srv.Close()

	client := NewWorkflowClient(config.ScoringConfig{BaseURL: srv.URL, APIKey: "test-key"})
	record, err := client.Score(context.Background(), testProfile(), testProduct(), "user@1!")
	require.NoError(t, err)

	assert.Equal(t, "prod-1", record.ProductID)
	assert.Equal(t, 87.5, record.Overall)
	assert.Equal(t, "High quality salmon protein", record.Rationale)
	assert.Equal(t, 90.0, record.Breakdown["safety"])
	assert.False(t, record.Fallback)

	assert.Equal(t, "blocking", gotReq.ResponseMode)
	assert.Equal(t, "user1", gotReq.User, "caller id should be sanitized")
	assert.Equal(t, "cat", gotReq.Inputs["species"], "species should be lowercased")
	assert.Equal(t, "chicken", gotReq.Inputs["allergies"])
}

func TestWorkflowScoreDefaultsMissingProfileFields(t *testing.T) {
	var gotReq workflowRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Write(workflowAnswer(t, map[string]interface{}{"final_score": 70}))
	}))
	defer srv.Close()

	client := NewWorkflowClient(config.ScoringConfig{BaseURL: srv.URL})
	_, err := client.Score(context.Background(), &types.PetProfile{Species: "dog"}, testProduct(), "")
	require.NoError(t, err)

	assert.Equal(t, float64(12), gotReq.Inputs["age_months"])
	assert.Equal(t, 4.0, gotReq.Inputs["weight_kg"])
	assert.Equal(t, "healthy", gotReq.Inputs["health"])
	assert.Equal(t, "none", gotReq.Inputs["allergies"])
	assert.Equal(t, "medium", gotReq.Inputs["activity_level"])
	assert.Equal(t, "anonymous-user", gotReq.Inputs["sys.user_name"])
}

func TestWorkflowScoreRepairsMalformedOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Trailing comma and unquoted key, the kind of damage model
		// output actually arrives with.
		outer, _ := json.Marshal(map[string]interface{}{
			"data": map[string]interface{}{
				"outputs": map[string]interface{}{
					"output": `{final_score: 91, "reason": "solid",}`,
				},
			},
		})
		w.Write(outer)
	}))
	defer srv.Close()

	client := NewWorkflowClient(config.ScoringConfig{BaseURL: srv.URL})
	record, err := client.Score(context.Background(), testProfile(), testProduct(), "u")
	require.NoError(t, err)
	assert.Equal(t, 91.0, record.Overall)
}

func TestWorkflowScoreClampsOutOfRangeScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(workflowAnswer(t, map[string]interface{}{"final_score": 140}))
	}))
	defer srv.Close()

	client := NewWorkflowClient(config.ScoringConfig{BaseURL: srv.URL})
	record, err := client.Score(context.Background(), testProfile(), testProduct(), "u")
	require.NoError(t, err)
	assert.Equal(t, 100.0, record.Overall)
}

func TestWorkflowScoreBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "workflow not published", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewWorkflowClient(config.ScoringConfig{BaseURL: srv.URL})
	_, err := client.Score(context.Background(), testProfile(), testProduct(), "u")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadResponse)

	var badResp *BadResponseError
	require.ErrorAs(t, err, &badResp)
	assert.Equal(t, http.StatusBadRequest, badResp.StatusCode)
}

func TestWorkflowScoreTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	defer srv.Close()

	client := NewWorkflowClient(config.ScoringConfig{BaseURL: srv.URL})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Score(ctx, testProfile(), testProduct(), "u")
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestWorkflowScoreUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewWorkflowClient(config.ScoringConfig{BaseURL: srv.URL})
	_, err := client.Score(context.Background(), testProfile(), testProduct(), "u")
	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestWorkflowScoreEmptyOutput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"outputs":{"output":""}}}`))
	}))
	defer srv.Close()

	client := NewWorkflowClient(config.ScoringConfig{BaseURL: srv.URL})
	_, err := client.Score(context.Background(), testProfile(), testProduct(), "u")
	assert.ErrorIs(t, err, ErrParse)
}

func TestSafeUserID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", "anonymous-user"},
		{"clean", "user-42_a", "user-42_a"},
		{"stripped", "user@example.com", "userexamplecom"},
		{"only illegal", "@@@", "anonymous-user"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, safeUserID(tt.in))
		})
	}
}
