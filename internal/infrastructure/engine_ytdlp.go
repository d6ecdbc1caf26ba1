package infrastructure

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/yourusername/media-fetch-go/internal/domain"
	"github.com/yourusername/media-fetch-go/pkg/logger"
	"go.uber.org/zap"
)

// YTDLPEngine implements domain.Engine on top of yt-dlp, with ffmpeg doing
// the merge, remux and audio transcode steps
type YTDLPEngine struct {
	config   *domain.EngineConfig
	logging  *domain.LoggingConfig
	binaries domain.BinaryLocator
	grace    time.Duration
	events   *logger.LoggerAdapter // For structured events only (LogAppError)
}

// NewYTDLPEngine creates the engine. Binaries are located on first use.
func NewYTDLPEngine(config *domain.EngineConfig, logging *domain.LoggingConfig, binaries domain.BinaryLocator, grace time.Duration, events *logger.LoggerAdapter) *YTDLPEngine {
	if events == nil {
		events = logger.NewSingleLoggerAdapter(nil)
	}
	return &YTDLPEngine{
		config:   config,
		logging:  logging,
		binaries: binaries,
		grace:    grace,
		events:   events,
	}
}

// Probe fetches an item's metadata and encodings
func (e *YTDLPEngine) Probe(ctx context.Context, locator string) (*domain.ProbeResult, error) {
	out, err := e.runJSON(ctx, "Probe", "-J", "--no-playlist", "--no-warnings", locator)
	if err != nil {
		return nil, err
	}
	return parseProbe(out, locator)
}

// ListCollection lists a collection's members without resolving them
func (e *YTDLPEngine) ListCollection(ctx context.Context, locator string) ([]domain.CollectionEntry, error) {
	out, err := e.runJSON(ctx, "List", "-J", "--flat-playlist", "--no-warnings", locator)
	if err != nil {
		return nil, err
	}
	return parseListing(out)
}

// runJSON runs a metadata-only invocation and returns its stdout
func (e *YTDLPEngine) runJSON(ctx context.Context, label string, args ...string) ([]byte, error) {
	bin, err := e.binaries.Locate(YTDLPBinaryName)
	if err != nil {
		return nil, domain.AsError(err, domain.KindEngineUnavailable)
	}

	logFile := e.openLog()
	defer logFile.Close()

	target := args[len(args)-1]
	e.writeLogHeader(logFile, label+": "+target, CommandLine(bin, args...))

	var stdout bytes.Buffer
	tail := newOutputTail(logFile)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = tail

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			e.writeLogFooter(logFile, "STOPPED", "cancelled")
			return nil, domain.ErrUserStopped
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			e.writeLogFooter(logFile, "FAILED", err.Error())
			return nil, domain.NewError(domain.KindEngineUnavailable, "failed to run yt-dlp", err)
		}
		reason := tail.Reason()
		if reason == "" {
			reason = "yt-dlp could not resolve " + target
		}
		e.writeLogFooter(logFile, "FAILED", reason)
		return nil, domain.NewError(domain.KindResolutionFailed, reason, err)
	}

	e.writeLogFooter(logFile, "SUCCESS", fmt.Sprintf("%d bytes of metadata", stdout.Len()))
	return stdout.Bytes(), nil
}

// Download transfers one item and runs its postprocess step
func (e *YTDLPEngine) Download(ctx context.Context, job *domain.EngineJob, hooks domain.TransferHooks) (*domain.EngineOutput, error) {
	bin, err := e.binaries.Locate(YTDLPBinaryName)
	if err != nil {
		return nil, domain.AsError(err, domain.KindEngineUnavailable)
	}
	ffmpeg, err := e.binaries.Locate(FFmpegBinaryName)
	if err != nil {
		return nil, domain.AsError(err, domain.KindEngineUnavailable)
	}

	if err := os.MkdirAll(filepath.Dir(job.OutputTemplate), 0755); err != nil {
		return nil, domain.NewError(domain.KindTransferFailed, "failed to create output directory", err)
	}

	args := e.downloadArgs(job, ffmpeg)

	logFile := e.openLog()
	defer logFile.Close()
	e.writeLogHeader(logFile, "Download: "+job.ItemID, CommandLine(bin, args...))

	// Cancelling ctx terminates the whole process group; whatever survives
	// the grace period is killed by exec
	cmd := exec.CommandContext(ctx, bin, args...)
	setProcessGroup(cmd)
	cmd.Cancel = func() error { return terminateProcess(cmd) }
	cmd.WaitDelay = e.grace

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, domain.NewError(domain.KindEngineUnavailable, "failed to attach to yt-dlp", err)
	}
	tail := newOutputTail(logFile)
	cmd.Stderr = tail

	if err := cmd.Start(); err != nil {
		e.writeLogFooter(logFile, "FAILED", err.Error())
		return nil, domain.NewError(domain.KindEngineUnavailable, "failed to start yt-dlp", err)
	}

	phase := domain.PhaseDownloading
	stopped := false

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if p, ok := parseProgressLine(line); ok {
			if hooks.Progress != nil {
				hooks.Progress(p)
			}
			if !stopped && hooks.Control != nil && hooks.Control.Paused() {
				if err := e.hold(ctx, cmd, hooks.Control); err != nil {
					stopped = true
					terminateProcess(cmd)
				}
			}
			continue
		}

		fmt.Fprintln(logFile, line)
		if phase == domain.PhaseDownloading && isPostProcessLine(line) {
			phase = domain.PhasePostProcessing
			if hooks.Phase != nil {
				hooks.Phase(phase)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		io.Copy(logFile, stdout)
	}

	waitErr := cmd.Wait()
	killProcess(cmd)

	if stopped || ctx.Err() != nil {
		e.writeLogFooter(logFile, "STOPPED", "stopped by user")
		return nil, domain.ErrUserStopped
	}

	if waitErr != nil {
		kind := domain.KindTransferFailed
		if phase == domain.PhasePostProcessing {
			kind = domain.KindPostProcessFailed
		}
		reason := tail.Reason()
		if reason == "" {
			reason = "yt-dlp exited with an error"
		}
		e.writeLogFooter(logFile, "FAILED", reason)
		return nil, domain.NewError(kind, reason, waitErr)
	}

	path, err := findOutputFile(job.OutputTemplate, outputExtension(job.PostProcess))
	if err != nil {
		e.writeLogFooter(logFile, "FAILED", err.Error())
		return nil, domain.NewError(domain.KindPostProcessFailed, "finalised file not found", err)
	}

	e.writeLogFooter(logFile, "SUCCESS", "Downloaded: "+path)
	return &domain.EngineOutput{FilePath: path}, nil
}

// hold suspends the engine until the caller resumes or stops
func (e *YTDLPEngine) hold(ctx context.Context, cmd *exec.Cmd, control domain.PauseControl) error {
	if err := suspendProcess(cmd); err != nil {
		e.events.LogAppError("Failed to suspend engine", zap.Error(err))
	}
	if err := control.AwaitResume(ctx); err != nil {
		return err
	}
	if err := resumeProcess(cmd); err != nil {
		e.events.LogAppError("Failed to resume engine", zap.Error(err))
	}
	return nil
}

// downloadArgs builds the yt-dlp argument list for one job
// Note: exec.Command passes args directly to process, no shell quoting needed
func (e *YTDLPEngine) downloadArgs(job *domain.EngineJob, ffmpeg string) []string {
	args := []string{
		"--no-playlist",
		"--newline",
		"--progress-template", progressTemplate,
		"-f", job.FormatID,
		"-o", escapeOutputTemplate(job.OutputTemplate) + ".%(ext)s",
		"--force-overwrites",
		"--ffmpeg-location", ffmpeg,
	}

	if e.config.ConcurrentFragments > 0 {
		args = append(args, "--concurrent-fragments", strconv.Itoa(e.config.ConcurrentFragments))
	}
	if e.config.Retries > 0 {
		args = append(args, "--retries", strconv.Itoa(e.config.Retries))
	}
	if e.config.FragmentRetries > 0 {
		args = append(args, "--fragment-retries", strconv.Itoa(e.config.FragmentRetries))
	}

	pp := job.PostProcess
	switch pp.Kind {
	case domain.PostProcessExtractAudio:
		args = append(args,
			"-x",
			"--audio-format", pp.AudioCodec,
			"--audio-quality", fmt.Sprintf("%dK", pp.AudioBitrate),
			"--postprocessor-args", "ExtractAudio:-ar 44100 -ac 2",
		)
	case domain.PostProcessRemux:
		if pp.Container != "" {
			args = append(args,
				"--merge-output-format", pp.Container,
				"--remux-video", pp.Container,
			)
		}
	}

	return append(args, job.Locator)
}

// openLog opens today's engine log; output is discarded when it cannot be opened
func (e *YTDLPEngine) openLog() io.WriteCloser {
	if e.logging == nil || e.logging.LogsDir == "" {
		return nopWriteCloser{io.Discard}
	}
	if err := os.MkdirAll(e.logging.LogsDir, 0755); err != nil {
		e.events.LogAppError("Failed to create logs directory", zap.Error(err))
		return nopWriteCloser{io.Discard}
	}
	path := e.logging.EngineLogPath(time.Now())
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		e.events.LogAppError("Failed to open engine log", zap.String("path", path), zap.Error(err))
		return nopWriteCloser{io.Discard}
	}
	return f
}

// writeLogHeader writes the invocation start marker
func (e *YTDLPEngine) writeLogHeader(w io.Writer, title, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "\n=== [%s] %s ===\n", timestamp, title)
	fmt.Fprintf(w, "$ %s\n", cmdLine)
}

// writeLogFooter writes the invocation end marker
func (e *YTDLPEngine) writeLogFooter(w io.Writer, status, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, status, message)
	fmt.Fprint(w, "=== END ===\n\n")
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
