package feedwise

import (
	"context"
	"time"
)

// Clock abstracts the delays the orchestrator takes between task
// submissions, so the stagger policy can be tested without wall-clock
// sleeps.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Sleep blocks for d or until the context is done, whichever comes
	// first.
	Sleep(ctx context.Context, d time.Duration)
}

// realClock is the production Clock.
type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
