package app

import (
	"context"
	"sync"
	"time"

	"github.com/yourusername/media-fetch-go/internal/domain"
)

type downloadFunc func(ctx context.Context, job *domain.EngineJob, hooks domain.TransferHooks) (*domain.EngineOutput, error)

// fakeEngine serves canned probe results and a scriptable download
type fakeEngine struct {
	mu        sync.Mutex
	probes    map[string]*domain.ProbeResult
	probeErr  map[string]error
	listing   []domain.CollectionEntry
	listErr   error
	download  downloadFunc
	jobs      []domain.EngineJob
	probed    []string
	listCalls int
}

func newFakeEngine() *fakeEngine {
	return &fakeEngine{
		probes:   make(map[string]*domain.ProbeResult),
		probeErr: make(map[string]error),
		download: quickDownload,
	}
}

func standardFormats() []domain.EncodingCandidate {
	return []domain.EncodingCandidate{
		{FormatID: "137", Height: 1080, FrameRate: 30, Bitrate: 4000, VideoCodec: "avc1.640028", HasVideo: true},
		{FormatID: "136", Height: 720, FrameRate: 30, Bitrate: 2000, VideoCodec: "avc1.4d401f", HasVideo: true},
		{FormatID: "140", Bitrate: 129, AudioCodec: "mp4a.40.2", HasAudio: true},
		{FormatID: "18", Height: 360, Bitrate: 600, VideoCodec: "avc1", AudioCodec: "mp4a", HasVideo: true, HasAudio: true},
	}
}

func (f *fakeEngine) addItem(id, title string) string {
	loc := domain.ItemLocator(id)
	f.probes[loc] = &domain.ProbeResult{
		Item:    domain.MediaItem{ID: id, Title: title, Locator: loc, Thumbnail: "https://img/" + id},
		Formats: standardFormats(),
	}
	f.listing = append(f.listing, domain.CollectionEntry{ID: id, Title: title, Locator: loc})
	return loc
}

func (f *fakeEngine) Probe(ctx context.Context, locator string) (*domain.ProbeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probed = append(f.probed, locator)
	if err := f.probeErr[locator]; err != nil {
		return nil, err
	}
	res, ok := f.probes[locator]
	if !ok {
		return nil, domain.NewError(domain.KindResolutionFailed, "Video unavailable", nil)
	}
	cp := *res
	cp.Formats = append([]domain.EncodingCandidate(nil), res.Formats...)
	return &cp, nil
}

func (f *fakeEngine) ListCollection(ctx context.Context, locator string) ([]domain.CollectionEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]domain.CollectionEntry(nil), f.listing...), nil
}

func (f *fakeEngine) Download(ctx context.Context, job *domain.EngineJob, hooks domain.TransferHooks) (*domain.EngineOutput, error) {
	f.mu.Lock()
	f.jobs = append(f.jobs, *job)
	fn := f.download
	f.mu.Unlock()
	return fn(ctx, job, hooks)
}

func (f *fakeEngine) probedSnapshot() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.probed...)
}

// gatedEngine holds the metadata lookup of one locator until release is closed
type gatedEngine struct {
	*fakeEngine
	gated   string
	entered chan struct{}
	release chan struct{}
}

func newGatedEngine(engine *fakeEngine, locator string) *gatedEngine {
	return &gatedEngine{
		fakeEngine: engine,
		gated:      locator,
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (g *gatedEngine) Probe(ctx context.Context, locator string) (*domain.ProbeResult, error) {
	if locator == g.gated {
		close(g.entered)
		<-g.release
	}
	return g.fakeEngine.Probe(ctx, locator)
}

func (f *fakeEngine) jobsSnapshot() []domain.EngineJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.EngineJob(nil), f.jobs...)
}

// quickDownload reports two progress lines, postprocesses and succeeds
func quickDownload(ctx context.Context, job *domain.EngineJob, hooks domain.TransferHooks) (*domain.EngineOutput, error) {
	hooks.Progress(domain.TransferProgress{DownloadedBytes: 500, TotalBytes: 1000, Speed: 2048})
	hooks.Progress(domain.TransferProgress{DownloadedBytes: 1000, TotalBytes: 1000, Speed: 2048})
	hooks.Phase(domain.PhasePostProcessing)
	return &domain.EngineOutput{FilePath: job.OutputTemplate + ".mp4"}, nil
}

// slowDownload keeps transferring until the context ends, honouring pause
// between chunks the way the real engine does
func slowDownload(ctx context.Context, job *domain.EngineJob, hooks domain.TransferHooks) (*domain.EngineOutput, error) {
	var done int64
	for {
		if hooks.Control.Paused() {
			if err := hooks.Control.AwaitResume(ctx); err != nil {
				return nil, domain.ErrUserStopped
			}
		}
		select {
		case <-ctx.Done():
			return nil, domain.ErrUserStopped
		case <-time.After(2 * time.Millisecond):
		}
		done += 1024
		hooks.Progress(domain.TransferProgress{DownloadedBytes: done, TotalBytes: 0})
	}
}

// fakeRepo is an in-memory run repository
type fakeRepo struct {
	mu      sync.Mutex
	runs    map[string]domain.RunRecord
	updates int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{runs: make(map[string]domain.RunRecord)}
}

func (r *fakeRepo) Create(run *domain.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[run.ID] = *run
	return nil
}

func (r *fakeRepo) Update(run *domain.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates++
	r.runs[run.ID] = *run
	return nil
}

func (r *fakeRepo) FindByID(id string) (*domain.RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, domain.NewError(domain.KindResolutionFailed, "not found", nil)
	}
	return &run, nil
}

func (r *fakeRepo) FindRecent(limit int) ([]*domain.RunRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.RunRecord
	for _, run := range r.runs {
		run := run
		out = append(out, &run)
	}
	return out, nil
}

func (r *fakeRepo) GetStats() (*domain.RunStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &domain.RunStats{Total: int64(len(r.runs))}, nil
}

// eventLog collects emitted events
type eventLog struct {
	mu     sync.Mutex
	events []domain.ProgressEvent
}

func (l *eventLog) emit(ev domain.ProgressEvent) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) labels() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for _, ev := range l.events {
		out = append(out, ev.Label)
	}
	return out
}

func (l *eventLog) snapshot() []domain.ProgressEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.ProgressEvent(nil), l.events...)
}
