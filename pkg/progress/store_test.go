package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedwise/feedwise/pkg/config"
	"github.com/feedwise/feedwise/pkg/types"
)

func newTestStore(t *testing.T, cfg config.ProgressConfig) *Store {
	t.Helper()
	s := NewStore(cfg)
	t.Cleanup(s.Close)
	return s
}

func snap(id string, status types.Status, completed, total int) *types.ProgressSnapshot {
	return &types.ProgressSnapshot{
		SessionID:      id,
		Status:         status,
		CompletedCount: completed,
		TotalCount:     total,
		UpdatedAt:      time.Now(),
	}
}

func TestPublishAndGet(t *testing.T) {
	s := newTestStore(t, config.ProgressConfig{})

	s.Publish(snap("s-1", types.StatusRunning, 0, 3))

	got, ok := s.Get("s-1")
	require.True(t, ok)
	assert.Equal(t, types.StatusRunning, got.Status)
	assert.Equal(t, 3, got.TotalCount)

	_, ok = s.Get("missing")
	assert.False(t, ok)
}

func TestPublishDropsStaleWrites(t *testing.T) {
	s := newTestStore(t, config.ProgressConfig{})

	s.Publish(snap("s-1", types.StatusRunning, 2, 3))
	s.Publish(snap("s-1", types.StatusRunning, 1, 3))

	got, ok := s.Get("s-1")
	require.True(t, ok)
	assert.Equal(t, 2, got.CompletedCount, "completed count must be monotonic")
}

func TestPublishNeverDowngradesTerminal(t *testing.T) {
	s := newTestStore(t, config.ProgressConfig{})

	s.Publish(snap("s-1", types.StatusCompleted, 3, 3))
	s.Publish(snap("s-1", types.StatusRunning, 3, 3))

	got, ok := s.Get("s-1")
	require.True(t, ok)
	assert.Equal(t, types.StatusCompleted, got.Status)
}

func TestPublishFailureAfterPartialProgress(t *testing.T) {
	s := newTestStore(t, config.ProgressConfig{})

	// A run that fails mid-flight reports the failure without carrying the
	// counts it had accumulated. The terminal snapshot must still land.
	s.Publish(snap("s-1", types.StatusRunning, 2, 3))
	s.Publish(&types.ProgressSnapshot{
		SessionID: "s-1",
		Status:    types.StatusFailed,
		Message:   "internal error during analysis",
		UpdatedAt: time.Now(),
	})

	got, ok := s.Get("s-1")
	require.True(t, ok)
	assert.Equal(t, types.StatusFailed, got.Status)
	assert.NotEmpty(t, got.Message)
}

func TestEvictExpiredTerminalSessions(t *testing.T) {
	s := newTestStore(t, config.ProgressConfig{TTL: 1})

	base := time.Now()
	s.now = func() time.Time { return base }
	s.Publish(snap("old", types.StatusCompleted, 1, 1))
	s.Publish(snap("live", types.StatusRunning, 0, 1))

	s.now = func() time.Time { return base.Add(2 * time.Minute) }
	s.evictExpired()

	_, ok := s.Get("old")
	assert.False(t, ok, "terminal session past its TTL should be evicted")

	_, ok = s.Get("live")
	assert.True(t, ok, "running session should survive the TTL sweep")
}

func TestEvictAbandonedSessions(t *testing.T) {
	s := newTestStore(t, config.ProgressConfig{TTL: 1})

	base := time.Now()
	s.now = func() time.Time { return base }
	s.Publish(snap("abandoned", types.StatusRunning, 0, 5))

	s.now = func() time.Time { return base.Add(5 * time.Minute) }
	s.evictExpired()

	_, ok := s.Get("abandoned")
	assert.False(t, ok, "never-terminal session should eventually be evicted")
}

func TestMaxEntriesEvictsOldestTerminal(t *testing.T) {
	s := newTestStore(t, config.ProgressConfig{MaxEntries: 2})

	base := time.Now()
	s.now = func() time.Time { return base }
	s.Publish(snap("t-1", types.StatusCompleted, 1, 1))

	s.now = func() time.Time { return base.Add(time.Second) }
	s.Publish(snap("t-2", types.StatusCompleted, 1, 1))

	s.Publish(snap("t-3", types.StatusRunning, 0, 1))

	assert.Equal(t, 2, s.Len())
	_, ok := s.Get("t-1")
	assert.False(t, ok, "oldest terminal entry should make room")
	_, ok = s.Get("t-3")
	assert.True(t, ok)
}

func TestReadersSeeWholeSnapshots(t *testing.T) {
	s := newTestStore(t, config.ProgressConfig{})

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i <= 50; i++ {
			s.Publish(snap("s-1", types.StatusRunning, i, 50))
		}
	}()

	last := -1
	for {
		got, ok := s.Get("s-1")
		if ok {
			require.GreaterOrEqual(t, got.CompletedCount, last)
			last = got.CompletedCount
		}
		select {
		case <-done:
			got, ok := s.Get("s-1")
			require.True(t, ok)
			assert.Equal(t, 50, got.CompletedCount)
			return
		default:
		}
	}
}
