package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yourusername/media-fetch-go/internal/domain"
	"github.com/yourusername/media-fetch-go/internal/metrics"
	"github.com/yourusername/media-fetch-go/pkg/logger"
)

// ErrHistoryDisabled is returned by history queries when no repository is configured
var ErrHistoryDisabled = errors.New("run history is disabled")

// Notifier receives run lifecycle notifications
type Notifier interface {
	NotifyRunStarted(runID, locator string)
	NotifyRunFinished(runID string, state domain.RunState, report *domain.BatchReport)
}

// RunResult is the outcome of the last finished run
type RunResult struct {
	RunID      string              `json:"run_id"`
	Locator    string              `json:"locator"`
	Kind       domain.LocatorKind  `json:"kind"`
	State      domain.RunState     `json:"state"`
	Report     *domain.BatchReport `json:"report,omitempty"`
	ErrorKind  domain.ErrorKind    `json:"error_kind,omitempty"`
	Error      string              `json:"error,omitempty"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

// SessionStatus is a snapshot of the session
type SessionStatus struct {
	State     domain.RunState       `json:"state"`
	RunID     string                `json:"run_id,omitempty"`
	Locator   string                `json:"locator,omitempty"`
	Kind      domain.LocatorKind    `json:"kind,omitempty"`
	Target    string                `json:"target,omitempty"`
	StartedAt *time.Time            `json:"started_at,omitempty"`
	Progress  *domain.ProgressEvent `json:"progress,omitempty"`
}

type activeRun struct {
	id        string
	req       domain.DownloadRequest
	kind      domain.LocatorKind
	control   *RunControl
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time
	record    *domain.RunRecord
	forced    bool // Stop gave up waiting and declared the run Stopped

	superseded atomic.Bool // a newer run owns the session; this pipeline is only draining
}

// Session owns the run state and the single active pipeline. Control calls
// return immediately; the pipeline runs on its own goroutine.
type Session struct {
	engine   domain.Engine
	hub      *ProgressHub
	repo     domain.RunRepository
	notifier Notifier
	logs     *logger.LoggerAdapter
	grace    time.Duration

	mu     sync.Mutex
	state  domain.RunState
	run    *activeRun
	result *RunResult
}

// NewSession creates an idle session. repo and notifier may be nil.
func NewSession(
	engine domain.Engine,
	hub *ProgressHub,
	repo domain.RunRepository,
	notifier Notifier,
	logs *logger.LoggerAdapter,
	grace time.Duration,
) *Session {
	if hub == nil {
		hub = NewProgressHub(0, 64)
	}
	if logs == nil {
		logs = logger.NewSingleLoggerAdapter(nil)
	}
	if grace <= 0 {
		grace = time.Second
	}
	metrics.SetRunState(string(domain.RunIdle))
	return &Session{
		engine:   engine,
		hub:      hub,
		repo:     repo,
		notifier: notifier,
		logs:     logs,
		grace:    grace,
		state:    domain.RunIdle,
	}
}

func (s *Session) setState(state domain.RunState) {
	s.state = state
	metrics.SetRunState(string(state))
}

// Start launches a run for req and returns its id. It fails with
// domain.ErrRunActive while another run is in flight.
func (s *Session) Start(req domain.DownloadRequest) (string, error) {
	kind := domain.ClassifyLocator(req.Locator)
	if kind == domain.LocatorInvalid {
		return "", domain.NewError(domain.KindInvalidLocator, "unsupported locator", nil).WithItem(req.Locator)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.IsActive() {
		return "", domain.ErrRunActive
	}

	ctx, cancel := context.WithCancel(context.Background())
	run := &activeRun{
		id:        uuid.New().String(),
		req:       req,
		kind:      kind,
		control:   NewRunControl(),
		cancel:    cancel,
		done:      make(chan struct{}),
		startedAt: time.Now(),
	}
	run.record = domain.NewRunRecord(run.id, req, kind)

	// a force-stopped pipeline may still be exiting; it must not publish
	// into the new run or replace its result
	if s.run != nil {
		s.run.superseded.Store(true)
	}
	s.run = run
	s.setState(domain.RunRunning)

	if s.repo != nil {
		if err := s.repo.Create(run.record); err != nil {
			s.logs.LogAppError("Failed to record run", zap.String("run_id", run.id), zap.Error(err))
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyRunStarted(run.id, req.Locator)
	}
	metrics.RunsStartedTotal.WithLabelValues(string(kind)).Inc()
	s.logs.LogSessionEvent("run_started",
		zap.String("run_id", run.id),
		zap.String("locator", req.Locator),
		zap.String("kind", string(kind)),
		zap.String("target", req.Target()),
		zap.String("output_dir", req.OutputDir))

	go s.execute(ctx, run)

	return run.id, nil
}

func (s *Session) emitter(run *activeRun) func(domain.ProgressEvent) {
	return func(ev domain.ProgressEvent) {
		if run.superseded.Load() {
			return
		}
		ev.RunID = run.id
		if ev.At.IsZero() {
			ev.At = time.Now()
		}
		run.control.SetLast(ev)
		s.hub.Publish(ev)
	}
}

func (s *Session) execute(ctx context.Context, run *activeRun) {
	defer close(run.done)
	defer run.cancel()

	run.control.SetRunning(true)

	var (
		report *domain.BatchReport
		err    error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("pipeline panic: %v", r)
				s.logs.LogAppError("Pipeline panic", zap.String("run_id", run.id), zap.Any("panic", r))
			}
		}()
		orch := NewOrchestrator(s.engine, run.control, s.emitter(run), s.logs.Session().With(zap.String("run_id", run.id)))
		report, err = orch.Execute(ctx, run.req)
	}()

	run.control.SetRunning(false)
	s.finish(run, report, err)
}

func (s *Session) finish(run *activeRun, report *domain.BatchReport, err error) {
	state := domain.RunCompleted
	switch {
	case run.control.StopRequested():
		state = domain.RunStopped
		err = nil
	case err != nil:
		state = domain.RunFailed
	}

	result := &RunResult{
		RunID:      run.id,
		Locator:    run.req.Locator,
		Kind:       run.kind,
		State:      state,
		Report:     report,
		StartedAt:  run.startedAt,
		FinishedAt: time.Now(),
	}
	if err != nil {
		result.ErrorKind = domain.KindOf(err)
		result.Error = err.Error()
	}

	s.mu.Lock()
	owner := s.run == run
	if owner && !run.forced {
		s.setState(state)
	}
	if owner {
		s.result = result
	}
	s.mu.Unlock()

	emit := s.emitter(run)
	switch state {
	case domain.RunCompleted:
		if run.kind == domain.LocatorSingle {
			emit(domain.ProgressEvent{Percent: 100, Label: "Download complete", Milestone: true})
		}
	case domain.RunFailed:
		emit(domain.ProgressEvent{Percent: domain.Indeterminate, Label: "Download failed: " + result.Error, Milestone: true})
	}

	run.record.Finish(state, report, err)
	if s.repo != nil {
		if uerr := s.repo.Update(run.record); uerr != nil {
			s.logs.LogAppError("Failed to update run record", zap.String("run_id", run.id), zap.Error(uerr))
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyRunFinished(run.id, state, report)
	}

	metrics.RunsFinishedTotal.WithLabelValues(string(state)).Inc()
	metrics.RunDuration.Observe(result.FinishedAt.Sub(run.startedAt).Seconds())

	fields := []zap.Field{
		zap.String("run_id", run.id),
		zap.String("state", string(state)),
		zap.Duration("duration", result.FinishedAt.Sub(run.startedAt)),
	}
	if report != nil {
		fields = append(fields, zap.String("summary", report.Summary()))
		for _, f := range report.Failures {
			s.logs.LogAppError("Item failed",
				zap.String("run_id", run.id),
				zap.Int("position", f.Position),
				zap.String("locator", f.Locator),
				zap.String("kind", string(f.Kind)),
				zap.String("reason", f.Reason))
		}
	}
	if err != nil {
		fields = append(fields, zap.Error(err))
		s.logs.LogAppError("Run failed", zap.String("run_id", run.id), zap.Error(err))
	}
	s.logs.LogSessionEvent("run_finished", fields...)
}

// Pause suspends the active run. Idempotent: pausing a paused run is a no-op.
// Returns the resulting state.
func (s *Session) Pause() domain.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.RunRunning {
		s.pauseLocked()
	}
	return s.state
}

// Resume continues a paused run. Idempotent.
func (s *Session) Resume() domain.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == domain.RunPaused {
		s.resumeLocked()
	}
	return s.state
}

// TogglePause flips between Running and Paused; no-op in any other state
func (s *Session) TogglePause() domain.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.state {
	case domain.RunRunning:
		s.pauseLocked()
	case domain.RunPaused:
		s.resumeLocked()
	}
	return s.state
}

func (s *Session) pauseLocked() {
	if !s.run.control.Pause() {
		return
	}
	s.setState(domain.RunPaused)
	s.emitter(s.run)(domain.ProgressEvent{Percent: domain.Indeterminate, Label: "Download paused", Milestone: true})
	s.logs.LogSessionEvent("run_paused", zap.String("run_id", s.run.id))
}

func (s *Session) resumeLocked() {
	if !s.run.control.Resume() {
		return
	}
	s.setState(domain.RunRunning)
	s.emitter(s.run)(domain.ProgressEvent{Percent: domain.Indeterminate, Label: "Download resumed", Milestone: true})
	s.logs.LogSessionEvent("run_resumed", zap.String("run_id", s.run.id))
}

// Stop ends the active run and returns once it is Stopped, at most one grace
// period later. Safe to call repeatedly and when nothing is running.
func (s *Session) Stop() domain.RunState {
	s.mu.Lock()
	run := s.run
	if run == nil || !s.state.IsActive() {
		st := s.state
		s.mu.Unlock()
		return st
	}
	first := s.state != domain.RunStopping
	if first {
		s.setState(domain.RunStopping)
		run.control.RequestStop()
		run.cancel()
		s.logs.LogSessionEvent("run_stopping", zap.String("run_id", run.id))
	}
	s.mu.Unlock()

	timer := time.NewTimer(s.grace)
	defer timer.Stop()

	select {
	case <-run.done:
	case <-timer.C:
		s.mu.Lock()
		if s.run == run && s.state == domain.RunStopping {
			run.forced = true
			s.setState(domain.RunStopped)
			s.result = &RunResult{
				RunID:      run.id,
				Locator:    run.req.Locator,
				Kind:       run.kind,
				State:      domain.RunStopped,
				StartedAt:  run.startedAt,
				FinishedAt: time.Now(),
			}
			s.logs.LogAppError("Pipeline did not exit within grace period",
				zap.String("run_id", run.id), zap.Duration("grace", s.grace))
		}
		s.mu.Unlock()
	}

	if first {
		s.emitter(run)(domain.ProgressEvent{Percent: domain.Indeterminate, Label: "Download stopped", Milestone: true})
	}
	return s.State()
}

// State returns the current run state
func (s *Session) State() domain.RunState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Status returns a snapshot including the latest progress event
func (s *Session) Status() SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SessionStatus{State: s.state}
	if s.run == nil {
		return st
	}
	started := s.run.startedAt
	st.RunID = s.run.id
	st.Locator = s.run.req.Locator
	st.Kind = s.run.kind
	st.Target = s.run.req.Target()
	st.StartedAt = &started
	if last := s.run.control.Last(); !last.At.IsZero() {
		st.Progress = &last
	}
	return st
}

// Result returns the last finished run, nil before the first run ends
func (s *Session) Result() *RunResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.result == nil {
		return nil
	}
	cp := *s.result
	return &cp
}

// Wait blocks until the current run's pipeline exits or ctx ends
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	run := s.run
	s.mu.Unlock()
	if run == nil {
		return nil
	}
	select {
	case <-run.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown stops any active run and waits for its pipeline to exit
func (s *Session) Shutdown(ctx context.Context) error {
	s.Stop()
	err := s.Wait(ctx)
	s.hub.Close()
	return err
}

// Subscribe registers a progress consumer
func (s *Session) Subscribe() (<-chan domain.ProgressEvent, func()) {
	return s.hub.Subscribe()
}

// Catalog returns a catalog over the session's engine
func (s *Session) Catalog() *Catalog {
	return NewCatalog(s.engine, s.logs.Session())
}

// Runs returns the most recent runs from history
func (s *Session) Runs(limit int) ([]*domain.RunRecord, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.FindRecent(limit)
}

// GetRun returns one run from history
func (s *Session) GetRun(id string) (*domain.RunRecord, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.FindByID(id)
}

// Stats returns run history statistics
func (s *Session) Stats() (*domain.RunStats, error) {
	if s.repo == nil {
		return nil, ErrHistoryDisabled
	}
	return s.repo.GetStats()
}
