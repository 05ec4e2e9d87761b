package feedwise

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/feedwise/feedwise/pkg/config"
	"github.com/feedwise/feedwise/pkg/progress"
	"github.com/feedwise/feedwise/pkg/scoring"
	"github.com/feedwise/feedwise/pkg/types"
)

// SessionStore persists finished analysis sessions. The concrete
// implementation lives in pkg/store; the engine only needs this slice of it.
type SessionStore interface {
	SaveSession(ctx context.Context, session *types.AnalysisSession) error
}

// Advisor is the analysis engine's public entry point. StartAnalysis returns
// immediately with a session id; the run proceeds in the background and its
// state is observable through the progress store.
type Advisor struct {
	scorer   scoring.Scorer
	progress *progress.Store
	sessions SessionStore

	cfg      config.AnalysisConfig
	clock    Clock
	ranker   *Ranker
	fallback *FallbackScorer
	logger   *slog.Logger
}

// Option customizes an Advisor.
type Option func(*Advisor)

// WithClock replaces the wall clock, letting tests drive the stagger policy
// without real sleeps.
func WithClock(clock Clock) Option {
	return func(a *Advisor) {
		a.clock = clock
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Advisor) {
		a.logger = logger
	}
}

// WithSessionStore enables persistence of terminal sessions.
func WithSessionStore(store SessionStore) Option {
	return func(a *Advisor) {
		a.sessions = store
	}
}

// New creates an Advisor over the given scorer and progress store.
func New(scorer scoring.Scorer, progressStore *progress.Store, cfg config.AnalysisConfig, opts ...Option) *Advisor {
	a := &Advisor{
		scorer:   scorer,
		progress: progressStore,
		cfg:      cfg,
		clock:    realClock{},
		ranker: &Ranker{
			ScoreWeight: cfg.ScoreWeight,
			PriceWeight: cfg.PriceWeight,
		},
		fallback: &FallbackScorer{Neutral: cfg.NeutralScore},
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// StartAnalysis creates a session for the given profile and products and
// schedules the scoring run in the background. It returns the session id
// immediately and never blocks for the run's duration.
//
// Precondition failures (missing profile, empty product list) do not raise:
// the session is created directly in the failed state so the polling
// contract stays uniform.
func (a *Advisor) StartAnalysis(profile *types.PetProfile, products []types.Product, callerID string) string {
	sessionID := uuid.NewString()

	if profile == nil {
		a.failSession(sessionID, types.ErrMissingProfile.Error())
		return sessionID
	}
	if err := profile.Validate(); err != nil {
		a.failSession(sessionID, err.Error())
		return sessionID
	}
	if len(products) == 0 {
		a.failSession(sessionID, types.ErrEmptyProducts.Error())
		return sessionID
	}

	// Runs own their products; a caller mutating its slice after Start must
	// not race the background workers.
	owned := make([]types.Product, len(products))
	copy(owned, products)

	a.progress.Publish(&types.ProgressSnapshot{
		SessionID:  sessionID,
		Status:     types.StatusRunning,
		TotalCount: len(owned),
		UpdatedAt:  a.clock.Now(),
	})

	a.logger.Info("analysis session started",
		"session_id", sessionID,
		"species", profile.Species,
		"product_count", len(owned),
	)

	go a.run(context.Background(), sessionID, profile, owned, callerID)

	return sessionID
}

// Progress returns the caller-visible snapshot for a session. Unknown or
// already evicted sessions yield a not_found snapshot rather than an error,
// matching the four-status polling contract.
func (a *Advisor) Progress(sessionID string) *types.ProgressSnapshot {
	if snap, ok := a.progress.Get(sessionID); ok {
		return snap
	}
	return &types.ProgressSnapshot{
		SessionID: sessionID,
		Status:    types.StatusNotFound,
		UpdatedAt: a.clock.Now(),
	}
}

// failSession publishes a terminal failed snapshot without entering the
// scoring loop.
func (a *Advisor) failSession(sessionID, message string) {
	a.logger.Warn("analysis session rejected", "session_id", sessionID, "reason", message)
	a.progress.Publish(&types.ProgressSnapshot{
		SessionID: sessionID,
		Status:    types.StatusFailed,
		Message:   message,
		UpdatedAt: a.clock.Now(),
	})
}
