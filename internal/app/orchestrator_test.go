package app

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/media-fetch-go/internal/domain"
)

const testCollection = "https://www.youtube.com/playlist?list=PLtest"

func collectionRequest(t *testing.T) domain.DownloadRequest {
	return domain.DownloadRequest{
		Locator:        testCollection,
		OutputDir:      t.TempDir(),
		Resolution:     720,
		MergeContainer: "mp4",
	}
}

func TestOrchestrator_BatchIsolation(t *testing.T) {
	engine := newFakeEngine()
	for _, id := range []string{"a1", "a2", "a3", "a4", "a5"} {
		engine.addItem(id, "Title "+id)
	}
	engine.probeErr[domain.ItemLocator("a3")] = domain.NewError(domain.KindResolutionFailed, "Private video", nil)

	orch := NewOrchestrator(engine, NewRunControl(), nil, nil)
	report, err := orch.Run(context.Background(), collectionRequest(t))
	require.NoError(t, err)

	assert.Equal(t, 5, report.Total)
	assert.Equal(t, 5, report.Attempted)
	assert.Equal(t, 4, report.Succeeded)
	assert.False(t, report.StoppedEarly)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, 3, report.Failures[0].Position)
	assert.Equal(t, domain.KindResolutionFailed, report.Failures[0].Kind)
	assert.Contains(t, report.Failures[0].Reason, "Private video")

	var downloaded []string
	for _, j := range engine.jobsSnapshot() {
		downloaded = append(downloaded, j.ItemID)
	}
	assert.Equal(t, []string{"a1", "a2", "a4", "a5"}, downloaded)
}

func TestOrchestrator_SkipsUnavailableAndNumbersContiguously(t *testing.T) {
	engine := newFakeEngine()
	engine.addItem("a1", "First: Song")
	engine.listing = append(engine.listing, domain.CollectionEntry{ID: "gone", Title: "[Deleted video]", Unavailable: true})
	engine.addItem("a2", "Second")

	req := collectionRequest(t)
	report, err := NewOrchestrator(engine, NewRunControl(), nil, nil).Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 2, report.Succeeded)

	jobs := engine.jobsSnapshot()
	require.Len(t, jobs, 2)
	assert.Equal(t, filepath.Join(req.OutputDir, "001_First Song"), jobs[0].OutputTemplate)
	assert.Equal(t, filepath.Join(req.OutputDir, "002_Second"), jobs[1].OutputTemplate)
	assert.Equal(t, []int{1, 2}, []int{report.Items[0].Position, report.Items[1].Position})
}

func TestOrchestrator_AggregateProgress(t *testing.T) {
	engine := newFakeEngine()
	engine.addItem("a1", "A")
	engine.addItem("a2", "B")
	engine.addItem("a3", "C")
	events := &eventLog{}

	_, err := NewOrchestrator(engine, NewRunControl(), events.emit, nil).Run(context.Background(), collectionRequest(t))
	require.NoError(t, err)

	var starts []domain.ProgressEvent
	for _, ev := range events.snapshot() {
		if ev.Milestone && ev.Position > 0 && !ev.IsIndeterminate() {
			starts = append(starts, ev)
		}
	}
	require.Len(t, starts, 3)
	assert.Equal(t, "[1/3] A", starts[0].Label)
	assert.Equal(t, 0.0, starts[0].Percent)
	assert.InDelta(t, 33.33, starts[1].Percent, 0.01)
	assert.InDelta(t, 66.67, starts[2].Percent, 0.01)

	labels := events.labels()
	assert.Contains(t, labels, "[2/3] B")
	assert.Contains(t, labels, "Selected quality: 720p")
	assert.Equal(t, "Playlist download complete", labels[len(labels)-1])
}

func TestOrchestrator_StopAbortsRemainingItems(t *testing.T) {
	engine := newFakeEngine()
	for _, id := range []string{"a1", "a2", "a3", "a4"} {
		engine.addItem(id, id)
	}
	control := NewRunControl()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	engine.download = func(c context.Context, job *domain.EngineJob, hooks domain.TransferHooks) (*domain.EngineOutput, error) {
		if job.ItemID == "a2" {
			control.RequestStop()
			cancel()
			return slowDownload(c, job, hooks)
		}
		return quickDownload(c, job, hooks)
	}

	done := make(chan *domain.BatchReport, 1)
	go func() {
		report, _ := NewOrchestrator(engine, control, nil, nil).Run(ctx, collectionRequest(t))
		done <- report
	}()

	select {
	case report := <-done:
		assert.True(t, report.StoppedEarly)
		assert.Equal(t, 2, report.Attempted)
		assert.Equal(t, 1, report.Succeeded)
		assert.Empty(t, report.Failures)
		assert.Equal(t, domain.ItemStopped, report.Items[1].State)
	case <-time.After(2 * time.Second):
		t.Fatal("orchestrator did not stop")
	}
	assert.Len(t, engine.jobsSnapshot(), 2)
}

func TestOrchestrator_EngineUnavailableIsFatal(t *testing.T) {
	engine := newFakeEngine()
	engine.listErr = domain.NewError(domain.KindEngineUnavailable, "yt-dlp not found", nil)

	report, err := NewOrchestrator(engine, NewRunControl(), nil, nil).Run(context.Background(), collectionRequest(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrEngineUnavailable))
	assert.Zero(t, report.Attempted)
}

func TestOrchestrator_EmptyCollection(t *testing.T) {
	engine := newFakeEngine()
	engine.listing = []domain.CollectionEntry{{ID: "x", Unavailable: true}}

	report, err := NewOrchestrator(engine, NewRunControl(), nil, nil).Run(context.Background(), collectionRequest(t))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrResolutionFailed))
	assert.Equal(t, 1, report.Skipped)
}

func TestOrchestrator_RunSingle(t *testing.T) {
	engine := newFakeEngine()
	loc := engine.addItem("s1", "Solo")

	req := domain.DownloadRequest{Locator: loc, OutputDir: t.TempDir(), Resolution: 1080, MergeContainer: "mp4"}
	report, err := NewOrchestrator(engine, NewRunControl(), nil, nil).Execute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Succeeded)
	assert.Equal(t, "137+140", report.Items[0].Format)
	assert.Equal(t, filepath.Join(req.OutputDir, "Solo"), engine.jobsSnapshot()[0].OutputTemplate)
}

func TestOrchestrator_RunSingleFailure(t *testing.T) {
	engine := newFakeEngine()
	loc := domain.ItemLocator("nope")
	engine.probes[loc] = &domain.ProbeResult{Item: domain.MediaItem{ID: "nope"}}

	req := domain.DownloadRequest{Locator: loc, OutputDir: t.TempDir(), Resolution: 720}
	report, err := NewOrchestrator(engine, NewRunControl(), nil, nil).Execute(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNoFormats))
	assert.Equal(t, 1, report.FailedCount())
}

func TestOrchestrator_InvalidLocator(t *testing.T) {
	_, err := NewOrchestrator(newFakeEngine(), NewRunControl(), nil, nil).Execute(context.Background(),
		domain.DownloadRequest{Locator: "https://example.com/x", OutputDir: t.TempDir()})
	assert.True(t, errors.Is(err, domain.ErrInvalidLocator))
}

func TestOrchestrator_PausedBatchWaitsThenStops(t *testing.T) {
	engine := newFakeEngine()
	engine.addItem("a1", "One")
	engine.addItem("a2", "Two")
	control := NewRunControl()
	require.True(t, control.Pause())

	done := make(chan *domain.BatchReport, 1)
	go func() {
		report, _ := NewOrchestrator(engine, control, nil, nil).Run(context.Background(), collectionRequest(t))
		done <- report
	}()

	time.Sleep(30 * time.Millisecond)
	assert.Empty(t, engine.probedSnapshot(), "no item may be probed while paused")
	assert.Empty(t, engine.jobsSnapshot())

	control.RequestStop()
	select {
	case report := <-done:
		assert.True(t, report.StoppedEarly)
		assert.Equal(t, 0, report.Attempted)
		assert.Equal(t, 2, report.Total)
	case <-time.After(2 * time.Second):
		t.Fatal("orchestrator did not stop while paused")
	}
}
