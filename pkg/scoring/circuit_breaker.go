package scoring

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/feedwise/feedwise/pkg/alert"
	"github.com/feedwise/feedwise/pkg/config"
	"github.com/feedwise/feedwise/pkg/types"
)

// BreakerClient wraps a Scorer with circuit breaking logic. When the scoring
// service fails repeatedly the breaker opens, later calls fail fast, and the
// orchestrator's fallback path takes over without burning the per-task
// timeout on every product.
type BreakerClient struct {
	scorer  Scorer
	cb      *gobreaker.CircuitBreaker
	alerter alert.Alerter
	name    string
}

// NewBreakerClient creates a circuit breaker around the given scorer.
func NewBreakerClient(scorer Scorer, cfg config.CircuitBreakerConfig, alerter alert.Alerter) *BreakerClient {
	name := scorer.Name()

	st := gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    time.Duration(cfg.Interval) * time.Second,
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= cfg.ReadyToTripRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				msg := fmt.Sprintf("Circuit breaker '%s' changed status from %s to %s. Too many scoring failures detected.", name, from, to)
				if alerter != nil {
					_ = alerter.Alert(fmt.Sprintf("URGENT: Scoring Circuit Breaker Tripped - %s", name), msg)
				}
			}
		},
	}

	return &BreakerClient{
		scorer:  scorer,
		cb:      gobreaker.NewCircuitBreaker(st),
		alerter: alerter,
		name:    name,
	}
}

// Name implements Scorer.
func (c *BreakerClient) Name() string {
	return c.name + "+breaker"
}

// Score implements Scorer. An open breaker surfaces as an unreachable
// service, which the orchestrator recovers with a fallback record.
func (c *BreakerClient) Score(ctx context.Context, profile *types.PetProfile, product *types.Product, callerID string) (*types.ScoreRecord, error) {
	resp, err := c.cb.Execute(func() (interface{}, error) {
		return c.scorer.Score(ctx, profile, product, callerID)
	})

	if err != nil {
		if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
			return nil, NewUnreachableError(err.Error())
		}
		return nil, err
	}
	return resp.(*types.ScoreRecord), nil
}
