package progress

import (
	"sync"
	"time"

	"github.com/feedwise/feedwise/pkg/config"
	"github.com/feedwise/feedwise/pkg/types"
)

// DefaultTTL is how long terminal snapshots stay readable when no retention
// is configured.
const DefaultTTL = 30 * time.Minute

// Store is the process-wide keyed progress state polled by callers while the
// orchestrator works in the background. Snapshots are published whole and
// never mutated in place, so a reader can only ever observe a fully formed
// snapshot. Each session has a single writer (the run that owns it); the
// store serializes publication across sessions with one mutex.
//
// Terminal snapshots are evicted after a TTL by a janitor goroutine;
// sessions that never reach a terminal state are evicted once they exceed
// several TTL windows, so abandoned runs cannot grow the store forever.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	ttl        time.Duration
	maxEntries int

	stopOnce sync.Once
	stop     chan struct{}

	// now is replaceable in tests.
	now func() time.Time
}

type entry struct {
	snap *types.ProgressSnapshot
	// terminalAt is set when the session reached a terminal status.
	terminalAt time.Time
	createdAt  time.Time
}

// NewStore creates a progress store and starts its eviction janitor.
func NewStore(cfg config.ProgressConfig) *Store {
	ttl := DefaultTTL
	if cfg.TTL > 0 {
		ttl = time.Duration(cfg.TTL) * time.Minute
	}

	s := &Store{
		sessions:   make(map[string]*entry),
		ttl:        ttl,
		maxEntries: cfg.MaxEntries,
		stop:       make(chan struct{}),
		now:        time.Now,
	}

	go s.janitor()
	return s
}

// Publish stores a new snapshot for its session. Stale writes are dropped:
// a running snapshot never lowers a session's completed count, and a
// terminal snapshot is never replaced by a non-terminal one. Terminal
// snapshots themselves always land.
func (s *Store) Publish(snap *types.ProgressSnapshot) {
	if snap == nil || snap.SessionID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[snap.SessionID]
	if !ok {
		if s.maxEntries > 0 && len(s.sessions) >= s.maxEntries {
			s.evictOldestTerminalLocked()
		}
		e = &entry{createdAt: s.now()}
		s.sessions[snap.SessionID] = e
	} else if e.snap != nil {
		if e.snap.Status.Terminal() && !snap.Status.Terminal() {
			return
		}
		// The monotonic guard only applies between running snapshots. A
		// terminal snapshot must always land, even when it carries no
		// counts (a run failing after partial progress).
		if !snap.Status.Terminal() && snap.CompletedCount < e.snap.CompletedCount {
			return
		}
	}

	e.snap = snap
	if snap.Status.Terminal() && e.terminalAt.IsZero() {
		e.terminalAt = s.now()
	}
}

// Get returns the latest snapshot for the session id.
func (s *Store) Get(sessionID string) (*types.ProgressSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[sessionID]
	if !ok || e.snap == nil {
		return nil, false
	}
	return e.snap, true
}

// Len returns the number of tracked sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the eviction janitor.
func (s *Store) Close() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *Store) janitor() {
	interval := s.ttl / 4
	if interval > time.Minute {
		interval = time.Minute
	}
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

// evictExpired removes terminal sessions older than the TTL and abandoned
// non-terminal sessions older than four TTL windows.
func (s *Store) evictExpired() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for id, e := range s.sessions {
		switch {
		case !e.terminalAt.IsZero() && now.Sub(e.terminalAt) > s.ttl:
			delete(s.sessions, id)
		case e.terminalAt.IsZero() && now.Sub(e.createdAt) > 4*s.ttl:
			delete(s.sessions, id)
		}
	}
}

func (s *Store) evictOldestTerminalLocked() {
	var oldestID string
	var oldestAt time.Time
	for id, e := range s.sessions {
		if e.terminalAt.IsZero() {
			continue
		}
		if oldestID == "" || e.terminalAt.Before(oldestAt) {
			oldestID = id
			oldestAt = e.terminalAt
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
	}
}
