package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/yourusername/media-fetch-go/internal/domain"
	"github.com/yourusername/media-fetch-go/internal/metrics"
)

// ItemJob is one item's download cycle as planned by the orchestrator
type ItemJob struct {
	Item      domain.MediaItem
	Selection domain.SelectionResult
	Request   domain.DownloadRequest
	Template  string // absolute output path without extension
	Label     string // "[3/12] Title" inside a collection, the title otherwise
	Total     int    // collection size, 0 for a single item
}

// PostProcess returns the engine directive for the request
func (j ItemJob) PostProcess() domain.PostProcess {
	if j.Request.AudioOnly {
		return domain.PostProcess{
			Kind:         domain.PostProcessExtractAudio,
			AudioCodec:   j.Request.AudioCodec,
			AudioBitrate: j.Request.AudioBitrate,
		}
	}
	container := j.Request.MergeContainer
	if container == "" {
		container = domain.DefaultMergeContainer
	}
	return domain.PostProcess{
		Kind:      domain.PostProcessRemux,
		Container: container,
	}
}

// ItemDriver runs single items through the engine while honouring the run's
// pause and stop flags
type ItemDriver struct {
	engine  domain.Engine
	control *RunControl
	emit    func(domain.ProgressEvent)
	logger  *zap.Logger
}

// NewItemDriver creates a driver bound to one run's control
func NewItemDriver(engine domain.Engine, control *RunControl, emit func(domain.ProgressEvent), logger *zap.Logger) *ItemDriver {
	if emit == nil {
		emit = func(domain.ProgressEvent) {}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ItemDriver{
		engine:  engine,
		control: control,
		emit:    emit,
		logger:  logger,
	}
}

// itemCycle tracks one item's state; engine hooks may fire from other goroutines
type itemCycle struct {
	mu        sync.Mutex
	state     domain.ItemState
	meter     *RateMeter
	lastBytes int64
}

func (c *itemCycle) get() domain.ItemState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *itemCycle) transition(to domain.ItemState) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == to || !c.state.CanTransition(to) {
		return false
	}
	c.state = to
	return true
}

// Run executes the cycle and always returns a terminal result
func (d *ItemDriver) Run(ctx context.Context, job ItemJob) domain.ItemResult {
	result := domain.ItemResult{
		Position: job.Item.Position,
		ItemID:   job.Item.ID,
		Title:    job.Item.Title,
		Locator:  job.Item.Locator,
		Format:   job.Selection.FormatID(),
	}
	cycle := &itemCycle{state: domain.ItemPending, meter: NewRateMeter()}

	// a pause taken before the transfer holds the engine from starting
	if d.control.StopRequested() || ctx.Err() != nil || d.control.AwaitResume(ctx) != nil {
		result.State = domain.ItemStopped
		result.Kind = domain.KindUserStopped
		return result
	}

	if err := os.MkdirAll(filepath.Dir(job.Template), 0755); err != nil {
		return d.fail(result, domain.NewError(domain.KindTransferFailed, "cannot create destination directory", err))
	}

	cycle.transition(domain.ItemDownloading)
	d.logger.Info("Item download started",
		zap.String("item", job.Item.ID),
		zap.String("format", result.Format),
		zap.String("template", job.Template))

	hooks := domain.TransferHooks{
		Control:  d.control,
		Progress: func(p domain.TransferProgress) { d.onProgress(job, cycle, p) },
		Phase:    func(ph domain.TransferPhase) { d.onPhase(job, cycle, ph) },
	}

	out, err := d.engine.Download(ctx, &domain.EngineJob{
		ItemID:         job.Item.ID,
		Locator:        job.Item.Locator,
		FormatID:       result.Format,
		OutputTemplate: job.Template,
		PostProcess:    job.PostProcess(),
	}, hooks)
	metrics.TransferRate.Set(0)

	if err == nil {
		cycle.transition(domain.ItemFinished)
		result.State = domain.ItemFinished
		if out != nil {
			result.FilePath = out.FilePath
		}
		d.logger.Info("Item download finished",
			zap.String("item", job.Item.ID),
			zap.String("file", result.FilePath))
		return result
	}

	if d.control.StopRequested() || errors.Is(err, domain.ErrUserStopped) || ctx.Err() != nil {
		cycle.transition(domain.ItemStopped)
		result.State = domain.ItemStopped
		result.Kind = domain.KindUserStopped
		d.logger.Info("Item download stopped", zap.String("item", job.Item.ID))
		return result
	}

	fallback := domain.KindTransferFailed
	if cycle.get() == domain.ItemPostProcessing {
		fallback = domain.KindPostProcessFailed
	}
	cycle.transition(domain.ItemFailed)
	return d.fail(result, domain.AsError(err, fallback))
}

func (d *ItemDriver) fail(result domain.ItemResult, err *domain.Error) domain.ItemResult {
	result.State = domain.ItemFailed
	result.Kind = err.Kind
	result.Reason = err.ReasonText()
	d.logger.Warn("Item download failed",
		zap.String("item", result.ItemID),
		zap.String("kind", string(err.Kind)),
		zap.String("reason", result.Reason))
	return result
}

func (d *ItemDriver) onProgress(job ItemJob, cycle *itemCycle, p domain.TransferProgress) {
	if d.control.Paused() {
		cycle.transition(domain.ItemPaused)
		return
	}
	if cycle.get() == domain.ItemPaused {
		cycle.transition(domain.ItemDownloading)
	}
	if cycle.get() != domain.ItemDownloading {
		return
	}

	cycle.mu.Lock()
	if delta := p.DownloadedBytes - cycle.lastBytes; delta > 0 {
		metrics.BytesDownloadedTotal.Add(float64(delta))
	}
	cycle.lastBytes = p.DownloadedBytes
	bps := cycle.meter.Observe(p)
	cycle.mu.Unlock()

	metrics.TransferRate.Set(bps)
	d.emit(domain.ProgressEvent{
		Percent:   Percent(p.DownloadedBytes, p.TotalBytes),
		Label:     job.Label,
		Thumbnail: job.Item.Thumbnail,
		Rate:      bps,
		RateText:  FormatRate(bps),
		Position:  job.Item.Position,
		Total:     job.Total,
	})
}

func (d *ItemDriver) onPhase(job ItemJob, cycle *itemCycle, ph domain.TransferPhase) {
	switch ph {
	case domain.PhasePostProcessing:
		if cycle.get() == domain.ItemPaused {
			cycle.transition(domain.ItemDownloading)
		}
		if cycle.transition(domain.ItemPostProcessing) {
			d.emit(domain.ProgressEvent{
				Percent:   domain.Indeterminate,
				Label:     "Processing...",
				Thumbnail: job.Item.Thumbnail,
				Position:  job.Item.Position,
				Total:     job.Total,
				Milestone: true,
			})
		}
	case domain.PhaseDownloading:
		cycle.transition(domain.ItemDownloading)
	}
}
