package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/yourusername/media-fetch-go/internal/domain"
	"github.com/yourusername/media-fetch-go/internal/metrics"
)

// Orchestrator sequences item cycles for one run. Items run one at a time;
// a failed item is recorded and the next one starts.
type Orchestrator struct {
	catalog *Catalog
	driver  *ItemDriver
	control *RunControl
	emit    func(domain.ProgressEvent)
	logger  *zap.Logger
}

// NewOrchestrator creates an orchestrator for one run
func NewOrchestrator(engine domain.Engine, control *RunControl, emit func(domain.ProgressEvent), logger *zap.Logger) *Orchestrator {
	if emit == nil {
		emit = func(domain.ProgressEvent) {}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		catalog: NewCatalog(engine, logger),
		driver:  NewItemDriver(engine, control, emit, logger),
		control: control,
		emit:    emit,
		logger:  logger,
	}
}

// Execute classifies the request's locator and runs it. The returned error is
// a run-level failure: an invalid locator, an unusable engine, an unresolvable
// collection, or the failure of a single-item run.
func (o *Orchestrator) Execute(ctx context.Context, req domain.DownloadRequest) (*domain.BatchReport, error) {
	switch domain.ClassifyLocator(req.Locator) {
	case domain.LocatorSingle:
		return o.RunSingle(ctx, req)
	case domain.LocatorCollection:
		return o.Run(ctx, req)
	default:
		return &domain.BatchReport{}, domain.NewError(domain.KindInvalidLocator, "unsupported locator", nil).WithItem(req.Locator)
	}
}

// RunSingle downloads one item
func (o *Orchestrator) RunSingle(ctx context.Context, req domain.DownloadRequest) (*domain.BatchReport, error) {
	started := time.Now()
	report := &domain.BatchReport{Total: 1}
	defer func() { report.Duration = time.Since(started) }()

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return report, domain.NewError(domain.KindTransferFailed, "cannot create destination directory", err)
	}

	item := domain.MediaItem{Locator: req.Locator}
	itemStarted := time.Now()
	res := o.runItem(ctx, item, req, NewOutputNamer(req.OutputDir, 0), 0)
	o.record(report, res, itemStarted)

	if res.State == domain.ItemFailed {
		return report, &domain.Error{Kind: res.Kind, Item: req.Locator, Reason: res.Reason}
	}
	return report, nil
}

// Run downloads every resolvable member of a collection in order
func (o *Orchestrator) Run(ctx context.Context, req domain.DownloadRequest) (*domain.BatchReport, error) {
	started := time.Now()
	report := &domain.BatchReport{}
	defer func() { report.Duration = time.Since(started) }()

	o.emit(domain.ProgressEvent{Percent: domain.Indeterminate, Label: "Resolving collection...", Milestone: true})

	items, skipped, err := o.catalog.Resolve(ctx, req.Locator)
	report.Skipped = skipped
	metrics.ItemsSkippedTotal.Add(float64(skipped))
	if err != nil {
		if o.control.StopRequested() {
			report.StoppedEarly = true
			return report, nil
		}
		return report, err
	}
	report.Total = len(items)

	if err := os.MkdirAll(req.OutputDir, 0755); err != nil {
		return report, domain.NewError(domain.KindTransferFailed, "cannot create destination directory", err)
	}

	o.logger.Info("Collection resolved",
		zap.String("collection", req.Locator),
		zap.Int("items", len(items)),
		zap.Int("skipped", skipped))

	namer := NewOutputNamer(req.OutputDir, len(items))
	for i, item := range items {
		if o.control.StopRequested() || ctx.Err() != nil {
			report.StoppedEarly = true
			break
		}
		// paused between items: the next one waits
		if err := o.control.AwaitResume(ctx); err != nil {
			report.StoppedEarly = true
			break
		}

		o.emit(domain.ProgressEvent{
			Percent:   float64(i) / float64(len(items)) * 100,
			Label:     positionLabel(item.Position, len(items), item.Title),
			Position:  item.Position,
			Total:     len(items),
			Milestone: true,
		})

		itemStarted := time.Now()
		res := o.runItem(ctx, item, req, namer, len(items))
		o.record(report, res, itemStarted)
		if res.State == domain.ItemStopped {
			break
		}
	}

	if !report.StoppedEarly {
		o.emit(domain.ProgressEvent{
			Percent:   100,
			Label:     "Playlist download complete",
			Total:     len(items),
			Milestone: true,
		})
	}
	o.logger.Info("Collection finished",
		zap.String("collection", req.Locator),
		zap.String("summary", report.Summary()))
	return report, nil
}

// runItem probes, selects and drives one item. It never returns an error:
// every outcome is folded into the result.
func (o *Orchestrator) runItem(ctx context.Context, item domain.MediaItem, req domain.DownloadRequest, namer *OutputNamer, total int) domain.ItemResult {
	res := domain.ItemResult{
		Position: item.Position,
		ItemID:   item.ID,
		Title:    item.Title,
		Locator:  item.Locator,
	}

	if err := o.control.AwaitResume(ctx); err != nil {
		res.State = domain.ItemStopped
		res.Kind = domain.KindUserStopped
		return res
	}

	probe, err := o.catalog.Probe(ctx, item.Locator)
	if err != nil {
		if o.control.StopRequested() || errors.Is(err, context.Canceled) {
			res.State = domain.ItemStopped
			res.Kind = domain.KindUserStopped
			return res
		}
		return failedResult(res, domain.AsError(err, domain.KindResolutionFailed))
	}

	// listing titles can be stale or missing, the probe is authoritative
	resolved := probe.Item
	resolved.Position = item.Position
	if resolved.ID == "" {
		resolved.ID = item.ID
	}
	if resolved.Title == "" {
		resolved.Title = item.Title
	}
	res.ItemID = resolved.ID
	res.Title = resolved.Title

	selection, err := SelectFormat(probe.Formats, req)
	if err != nil {
		return failedResult(res, domain.AsError(err, domain.KindNoSuitableFormat))
	}

	label := resolved.Title
	if total > 0 {
		label = positionLabel(item.Position, total, resolved.Title)
	}

	if !req.AudioOnly {
		o.emit(domain.ProgressEvent{
			Percent:   domain.Indeterminate,
			Label:     "Selected quality: " + domain.FormatResolution(selection.Height()),
			Thumbnail: resolved.Thumbnail,
			Position:  item.Position,
			Total:     total,
			Milestone: true,
		})
	}

	return o.driver.Run(ctx, ItemJob{
		Item:      resolved,
		Selection: selection,
		Request:   req,
		Template:  namer.Template(resolved.Title, resolved.ID, item.Position),
		Label:     label,
		Total:     total,
	})
}

func (o *Orchestrator) record(report *domain.BatchReport, res domain.ItemResult, started time.Time) {
	report.Record(res)
	metrics.ItemsTotal.WithLabelValues(string(res.State)).Inc()
	metrics.ItemDuration.WithLabelValues(string(res.State)).Observe(time.Since(started).Seconds())
	if res.Failed() {
		metrics.ItemFailuresTotal.WithLabelValues(string(res.Kind)).Inc()
		o.logger.Warn("Item failed",
			zap.Int("position", res.Position),
			zap.String("item", res.ItemID),
			zap.String("kind", string(res.Kind)),
			zap.String("reason", res.Reason))
	}
}

func failedResult(res domain.ItemResult, err *domain.Error) domain.ItemResult {
	res.State = domain.ItemFailed
	res.Kind = err.Kind
	res.Reason = err.ReasonText()
	return res
}

func positionLabel(pos, total int, title string) string {
	return fmt.Sprintf("[%d/%d] %s", pos, total, title)
}
