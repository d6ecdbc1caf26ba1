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

func testJob(t *testing.T, req domain.DownloadRequest) ItemJob {
	t.Helper()
	sel, err := SelectFormat(standardFormats(), req)
	require.NoError(t, err)
	return ItemJob{
		Item:      domain.MediaItem{ID: "abc", Title: "Clip", Locator: domain.ItemLocator("abc"), Position: 2},
		Selection: sel,
		Request:   req,
		Template:  filepath.Join(t.TempDir(), "out", "002_Clip"),
		Label:     "[2/5] Clip",
		Total:     5,
	}
}

func TestItemDriver_Finished(t *testing.T) {
	engine := newFakeEngine()
	events := &eventLog{}
	driver := NewItemDriver(engine, NewRunControl(), events.emit, nil)

	job := testJob(t, videoRequest(720))
	res := driver.Run(context.Background(), job)

	assert.Equal(t, domain.ItemFinished, res.State)
	assert.Equal(t, "136+140", res.Format)
	assert.Equal(t, job.Template+".mp4", res.FilePath)
	assert.Equal(t, 2, res.Position)

	jobs := engine.jobsSnapshot()
	require.Len(t, jobs, 1)
	assert.Equal(t, domain.PostProcessRemux, jobs[0].PostProcess.Kind)
	assert.Equal(t, "mp4", jobs[0].PostProcess.Container)

	evs := events.snapshot()
	require.Len(t, evs, 3)
	assert.Equal(t, 50.0, evs[0].Percent)
	assert.Equal(t, "[2/5] Clip", evs[0].Label)
	assert.Equal(t, "2.0 KiB/s", evs[0].RateText)
	assert.Equal(t, 100.0, evs[1].Percent)
	assert.Equal(t, "Processing...", evs[2].Label)
	assert.True(t, evs[2].IsIndeterminate())
}

func TestItemDriver_AudioDirective(t *testing.T) {
	engine := newFakeEngine()
	driver := NewItemDriver(engine, NewRunControl(), nil, nil)

	req := domain.DownloadRequest{AudioOnly: true, AudioCodec: "mp3", AudioBitrate: 320}
	res := driver.Run(context.Background(), testJob(t, req))
	require.Equal(t, domain.ItemFinished, res.State)

	pp := engine.jobsSnapshot()[0].PostProcess
	assert.Equal(t, domain.PostProcessExtractAudio, pp.Kind)
	assert.Equal(t, "mp3", pp.AudioCodec)
	assert.Equal(t, 320, pp.AudioBitrate)
}

func TestItemDriver_TransferFailed(t *testing.T) {
	engine := newFakeEngine()
	engine.download = func(ctx context.Context, job *domain.EngineJob, hooks domain.TransferHooks) (*domain.EngineOutput, error) {
		hooks.Progress(domain.TransferProgress{DownloadedBytes: 10, TotalBytes: 100})
		return nil, errors.New("HTTP Error 403: Forbidden")
	}
	driver := NewItemDriver(engine, NewRunControl(), nil, nil)

	res := driver.Run(context.Background(), testJob(t, videoRequest(720)))
	assert.Equal(t, domain.ItemFailed, res.State)
	assert.Equal(t, domain.KindTransferFailed, res.Kind)
	assert.Equal(t, "HTTP Error 403: Forbidden", res.Reason)
}

func TestItemDriver_PostProcessFailed(t *testing.T) {
	engine := newFakeEngine()
	engine.download = func(ctx context.Context, job *domain.EngineJob, hooks domain.TransferHooks) (*domain.EngineOutput, error) {
		hooks.Progress(domain.TransferProgress{DownloadedBytes: 100, TotalBytes: 100})
		hooks.Phase(domain.PhasePostProcessing)
		return nil, errors.New("ffmpeg exited with status 1")
	}
	driver := NewItemDriver(engine, NewRunControl(), nil, nil)

	res := driver.Run(context.Background(), testJob(t, videoRequest(720)))
	assert.Equal(t, domain.ItemFailed, res.State)
	assert.Equal(t, domain.KindPostProcessFailed, res.Kind)
}

func TestItemDriver_StopDuringDownloading(t *testing.T) {
	engine := newFakeEngine()
	engine.download = slowDownload
	control := NewRunControl()
	driver := NewItemDriver(engine, control, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan domain.ItemResult, 1)
	go func() { done <- driver.Run(ctx, testJob(t, videoRequest(720))) }()

	time.Sleep(20 * time.Millisecond)
	control.RequestStop()
	cancel()

	select {
	case res := <-done:
		assert.Equal(t, domain.ItemStopped, res.State)
		assert.Equal(t, domain.KindUserStopped, res.Kind)
		assert.Empty(t, res.Reason)
	case <-time.After(time.Second):
		t.Fatal("driver did not stop within the grace period")
	}
}

func TestItemDriver_StopBeforeStart(t *testing.T) {
	engine := newFakeEngine()
	control := NewRunControl()
	control.RequestStop()

	res := NewItemDriver(engine, control, nil, nil).Run(context.Background(), testJob(t, videoRequest(720)))
	assert.Equal(t, domain.ItemStopped, res.State)
	assert.Empty(t, engine.jobsSnapshot())
}

func TestItemDriver_PauseSuspendsProgress(t *testing.T) {
	engine := newFakeEngine()
	control := NewRunControl()
	events := &eventLog{}
	resumed := make(chan struct{})

	engine.download = func(ctx context.Context, job *domain.EngineJob, hooks domain.TransferHooks) (*domain.EngineOutput, error) {
		control.Pause()
		hooks.Progress(domain.TransferProgress{DownloadedBytes: 10, TotalBytes: 100})
		go func() {
			time.Sleep(10 * time.Millisecond)
			control.Resume()
			close(resumed)
		}()
		require.NoError(t, hooks.Control.AwaitResume(ctx))
		<-resumed
		hooks.Progress(domain.TransferProgress{DownloadedBytes: 20, TotalBytes: 100})
		return &domain.EngineOutput{FilePath: job.OutputTemplate + ".mp4"}, nil
	}

	res := NewItemDriver(engine, control, events.emit, nil).Run(context.Background(), testJob(t, videoRequest(720)))
	require.Equal(t, domain.ItemFinished, res.State)

	evs := events.snapshot()
	require.Len(t, evs, 1, "progress while paused must not be reported")
	assert.Equal(t, 20.0, evs[0].Percent)
}

func TestItemJob_PostProcessDefaultsContainer(t *testing.T) {
	job := ItemJob{Request: domain.DownloadRequest{Locator: "x", OutputDir: "/tmp", Resolution: 720}}
	pp := job.PostProcess()
	assert.Equal(t, domain.PostProcessRemux, pp.Kind)
	assert.Equal(t, domain.DefaultMergeContainer, pp.Container)

	job.Request.MergeContainer = "mkv"
	assert.Equal(t, "mkv", job.PostProcess().Container)
}

func TestItemDriver_PausedBeforeStartHoldsEngine(t *testing.T) {
	engine := newFakeEngine()
	control := NewRunControl()
	require.True(t, control.Pause())

	done := make(chan domain.ItemResult, 1)
	go func() {
		done <- NewItemDriver(engine, control, nil, nil).Run(context.Background(), testJob(t, videoRequest(720)))
	}()

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, engine.jobsSnapshot())

	control.Resume()
	select {
	case res := <-done:
		assert.Equal(t, domain.ItemFinished, res.State)
	case <-time.After(time.Second):
		t.Fatal("driver did not continue after resume")
	}
	assert.Len(t, engine.jobsSnapshot(), 1)
}
