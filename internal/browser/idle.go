package browser

import (
	"context"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
)

// idlePoll is how often waiters re-check the tracker.
const idlePoll = 50 * time.Millisecond

// idleTracker counts in-flight requests from CDP network events and reports
// when the page has stayed at or below maxInflight requests for a window.
type idleTracker struct {
	maxInflight int
	now         func() time.Time

	mu       sync.Mutex
	inflight map[network.RequestID]struct{}
	since    time.Time // zero while busy
}

func newIdleTracker(maxInflight int) *idleTracker {
	t := &idleTracker{
		maxInflight: maxInflight,
		now:         time.Now,
		inflight:    make(map[network.RequestID]struct{}),
	}
	t.since = t.now()
	return t
}

// Listen is a chromedp.ListenTarget handler.
func (t *idleTracker) Listen(ev any) {
	switch e := ev.(type) {
	case *network.EventRequestWillBeSent:
		t.start(e.RequestID)
	case *network.EventLoadingFinished:
		t.finish(e.RequestID)
	case *network.EventLoadingFailed:
		t.finish(e.RequestID)
	}
}

// Reset forgets requests from the previous document and restarts the window.
func (t *idleTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.inflight)
	t.since = t.now()
}

func (t *idleTracker) start(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.inflight[id] = struct{}{}
	if len(t.inflight) > t.maxInflight {
		t.since = time.Time{}
	}
}

func (t *idleTracker) finish(id network.RequestID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.inflight[id]; !ok {
		return
	}
	delete(t.inflight, id)
	if t.since.IsZero() && len(t.inflight) <= t.maxInflight {
		t.since = t.now()
	}
}

// Idle reports whether the page has been quiet for at least window.
func (t *idleTracker) Idle(window time.Duration) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.since.IsZero() && t.now().Sub(t.since) >= window
}

// Wait blocks until Idle(window) holds or ctx is done.
func (t *idleTracker) Wait(ctx context.Context, window time.Duration) error {
	ticker := time.NewTicker(idlePoll)
	defer ticker.Stop()
	for {
		if t.Idle(window) {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
