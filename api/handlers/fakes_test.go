package handlers

import (
	"context"
	"sync"

	"github.com/yourusername/media-fetch-go/internal/app"
	"github.com/yourusername/media-fetch-go/internal/domain"
)

// fakeSession records control calls and serves canned history
type fakeSession struct {
	mu       sync.Mutex
	state    domain.RunState
	started  []domain.DownloadRequest
	startErr error
	result   *app.RunResult
	events   chan domain.ProgressEvent

	runs    []*domain.RunRecord
	stats   *domain.RunStats
	history error
	runByID map[string]*domain.RunRecord
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		state:   domain.RunIdle,
		events:  make(chan domain.ProgressEvent, 8),
		runByID: map[string]*domain.RunRecord{},
	}
}

func (f *fakeSession) Start(req domain.DownloadRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	f.started = append(f.started, req)
	f.state = domain.RunRunning
	return "run-1", nil
}

func (f *fakeSession) set(state domain.RunState) domain.RunState {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = state
	return state
}

func (f *fakeSession) Pause() domain.RunState  { return f.set(domain.RunPaused) }
func (f *fakeSession) Resume() domain.RunState { return f.set(domain.RunRunning) }
func (f *fakeSession) Stop() domain.RunState   { return f.set(domain.RunStopped) }

func (f *fakeSession) TogglePause() domain.RunState {
	if f.State() == domain.RunPaused {
		return f.Resume()
	}
	return f.Pause()
}

func (f *fakeSession) State() domain.RunState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSession) Status() app.SessionStatus {
	return app.SessionStatus{State: f.State(), RunID: "run-1"}
}

func (f *fakeSession) Result() *app.RunResult { return f.result }

func (f *fakeSession) Subscribe() (<-chan domain.ProgressEvent, func()) {
	return f.events, func() {}
}

func (f *fakeSession) Runs(limit int) ([]*domain.RunRecord, error) {
	if f.history != nil {
		return nil, f.history
	}
	if limit < len(f.runs) {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

func (f *fakeSession) GetRun(id string) (*domain.RunRecord, error) {
	if f.history != nil {
		return nil, f.history
	}
	run, ok := f.runByID[id]
	if !ok {
		return nil, domain.ErrRunNotFound
	}
	return run, nil
}

func (f *fakeSession) Stats() (*domain.RunStats, error) {
	if f.history != nil {
		return nil, f.history
	}
	return f.stats, nil
}

// fakeCatalog returns canned formats
type fakeCatalog struct {
	formats []domain.EncodingCandidate
	err     error
	asked   []string
}

func (f *fakeCatalog) Fetch(ctx context.Context, locator string) ([]domain.EncodingCandidate, error) {
	f.asked = append(f.asked, locator)
	return f.formats, f.err
}
