package feedwise

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/feedwise/feedwise/pkg/types"
)

// Orchestration policy defaults. The stagger keeps the remote service's rate
// limiter happy while still overlapping requests; the per-task timeout must
// stay larger than one scoring call's own timeout so the client, not the
// orchestrator, classifies the failure.
const (
	DefaultConcurrency = 10
	DefaultStagger     = 5 * time.Second
	DefaultTaskTimeout = 120 * time.Second
)

// run drives one analysis session to a terminal state. Tasks are submitted
// in input order with a stagger delay between consecutive submissions, but
// complete in whatever order the remote service answers; each completion
// publishes a fresh progress snapshot. Per-product failures are absorbed by
// the fallback scorer, so the final aggregate always contains exactly one
// record per input product.
func (a *Advisor) run(ctx context.Context, sessionID string, profile *types.PetProfile, products []types.Product, callerID string) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.ErrorContext(ctx, "panic in analysis run", "session_id", sessionID, "panic", r)
			a.failSession(sessionID, "internal error during analysis")
		}
	}()

	ctx = context.WithValue(ctx, types.ContextKeySessionID, sessionID)
	if callerID != "" {
		ctx = context.WithValue(ctx, types.ContextKeyUserID, callerID)
	}

	total := len(products)
	results := make([]types.ScoreRecord, total)

	var mu sync.Mutex
	completed := 0

	g := new(errgroup.Group)
	g.SetLimit(a.workerCount(total))

	start := a.clock.Now()
	for i := range products {
		product := &products[i]
		g.Go(func() error {
			record := a.scoreOne(ctx, profile, product, callerID)

			// One critical section per session covers both the slot write
			// and the snapshot publication, so two tasks finishing at the
			// same instant cannot lose an update.
			mu.Lock()
			results[i] = *record
			completed++
			a.progress.Publish(&types.ProgressSnapshot{
				SessionID:       sessionID,
				Status:          types.StatusRunning,
				ProgressPercent: completed * 100 / total,
				CompletedCount:  completed,
				TotalCount:      total,
				CurrentItem:     product.Label(),
				UpdatedAt:       a.clock.Now(),
			})
			mu.Unlock()
			return nil
		})

		// Stagger the next submission; nothing waits after the last one.
		if i < total-1 {
			a.clock.Sleep(ctx, a.stagger())
		}
	}

	// Workers never return errors; failures became fallback records.
	_ = g.Wait()

	ideal, budget := a.ranker.Rank(results)
	aggregate := &types.Aggregate{
		Results:          results,
		IdealRanking:     ideal,
		BudgetRanking:    budget,
		AnonymousMapping: AssignCodes(products),
	}

	now := a.clock.Now()
	a.progress.Publish(&types.ProgressSnapshot{
		SessionID:       sessionID,
		Status:          types.StatusCompleted,
		ProgressPercent: 100,
		CompletedCount:  total,
		TotalCount:      total,
		UpdatedAt:       now,
		Aggregate:       aggregate,
	})

	a.logger.InfoContext(ctx, "analysis session completed",
		"session_id", sessionID,
		"product_count", total,
		"elapsed", now.Sub(start),
	)

	a.persistSession(ctx, sessionID, profile, products, aggregate, now)
}

// scoreOne runs a single scoring task under its own timeout and converts
// any failure into the product's deterministic fallback record. A failed
// product never aborts the run or disturbs other in-flight tasks.
func (a *Advisor) scoreOne(ctx context.Context, profile *types.PetProfile, product *types.Product, callerID string) *types.ScoreRecord {
	taskCtx, cancel := context.WithTimeout(ctx, a.taskTimeout())
	defer cancel()

	record, err := a.scorer.Score(taskCtx, profile, product, callerID)
	if err != nil {
		// Context-aware logging so the telemetry sink can attach the
		// session and caller ids carried on ctx.
		a.logger.WarnContext(ctx, "scoring failed, substituting fallback record",
			"product_id", product.ID,
			"product", product.Label(),
			"error", err,
		)
		return a.fallback.DefaultRecord(product)
	}

	record.ClampOverall()
	return record
}

// persistSession writes the terminal session to the record store when one is
// configured. Persistence failures are logged, not surfaced: the polling
// contract already delivered the aggregate.
func (a *Advisor) persistSession(ctx context.Context, sessionID string, profile *types.PetProfile, products []types.Product, aggregate *types.Aggregate, completedAt time.Time) {
	if a.sessions == nil {
		return
	}

	productIDs := make([]string, len(products))
	for i, p := range products {
		productIDs[i] = p.ID
	}

	session := &types.AnalysisSession{
		ID:          sessionID,
		PetID:       profile.ID,
		ProductIDs:  productIDs,
		Status:      types.StatusCompleted,
		CreatedAt:   completedAt,
		CompletedAt: &completedAt,
		Aggregate:   aggregate,
	}

	if err := a.sessions.SaveSession(ctx, session); err != nil {
		a.logger.ErrorContext(ctx, "failed to persist analysis session", "session_id", sessionID, "error", err)
	}
}

// workerCount bounds the pool at the configured concurrency cap, never more
// workers than products.
func (a *Advisor) workerCount(total int) int {
	limit := a.cfg.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}
	if total < limit {
		return total
	}
	return limit
}

func (a *Advisor) stagger() time.Duration {
	if a.cfg.Stagger > 0 {
		return time.Duration(a.cfg.Stagger) * time.Second
	}
	return DefaultStagger
}

func (a *Advisor) taskTimeout() time.Duration {
	if a.cfg.TaskTimeout > 0 {
		return time.Duration(a.cfg.TaskTimeout) * time.Second
	}
	return DefaultTaskTimeout
}
