package app

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/yourusername/media-fetch-go/internal/domain"
)

// RunControl is the state shared between the session (control side) and the
// pipeline goroutine: three flags plus the most recent progress event.
// It satisfies domain.PauseControl so the engine can block between chunks.
type RunControl struct {
	running       atomic.Bool
	paused        atomic.Bool
	stopRequested atomic.Bool

	mu       sync.Mutex
	resumeCh chan struct{} // closed while not paused
	stopCh   chan struct{}
	stopOnce sync.Once
	last     domain.ProgressEvent
}

// NewRunControl creates a control in the not-paused, not-stopped state
func NewRunControl() *RunControl {
	rc := &RunControl{
		resumeCh: make(chan struct{}),
		stopCh:   make(chan struct{}),
	}
	close(rc.resumeCh)
	return rc
}

// SetRunning marks the pipeline as started or finished
func (rc *RunControl) SetRunning(v bool) { rc.running.Store(v) }

// Running reports whether the pipeline is executing
func (rc *RunControl) Running() bool { return rc.running.Load() }

// Paused reports whether a pause is in effect
func (rc *RunControl) Paused() bool { return rc.paused.Load() }

// StopRequested reports whether stop was requested
func (rc *RunControl) StopRequested() bool { return rc.stopRequested.Load() }

// Pause sets the paused flag. Returns false when already paused or stopping.
func (rc *RunControl) Pause() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.stopRequested.Load() || rc.paused.Load() {
		return false
	}
	rc.resumeCh = make(chan struct{})
	rc.paused.Store(true)
	return true
}

// Resume clears the paused flag and wakes waiters. Returns false when not paused.
func (rc *RunControl) Resume() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if !rc.paused.Load() {
		return false
	}
	rc.paused.Store(false)
	close(rc.resumeCh)
	return true
}

// RequestStop sets the stop flag, releases any pause and wakes waiters. Idempotent.
func (rc *RunControl) RequestStop() {
	rc.stopOnce.Do(func() {
		rc.mu.Lock()
		rc.stopRequested.Store(true)
		if rc.paused.Load() {
			rc.paused.Store(false)
			close(rc.resumeCh)
		}
		rc.mu.Unlock()
		close(rc.stopCh)
	})
}

// StopCh is closed once stop is requested
func (rc *RunControl) StopCh() <-chan struct{} { return rc.stopCh }

// AwaitResume blocks while paused. It returns domain.ErrUserStopped when a stop
// arrives while waiting and ctx.Err() when the context ends first.
func (rc *RunControl) AwaitResume(ctx context.Context) error {
	for {
		rc.mu.Lock()
		ch := rc.resumeCh
		paused := rc.paused.Load()
		rc.mu.Unlock()

		if rc.stopRequested.Load() {
			return domain.ErrUserStopped
		}
		if !paused {
			return nil
		}

		select {
		case <-ch:
		case <-rc.stopCh:
			return domain.ErrUserStopped
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// SetLast records the most recent progress event
func (rc *RunControl) SetLast(ev domain.ProgressEvent) {
	rc.mu.Lock()
	rc.last = ev
	rc.mu.Unlock()
}

// Last returns the most recent progress event
func (rc *RunControl) Last() domain.ProgressEvent {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.last
}
