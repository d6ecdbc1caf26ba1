package domain

import "context"

// Engine is the external extraction/transcode engine contract
type Engine interface {
	// Probe fetches metadata and available encodings without downloading
	Probe(ctx context.Context, locator string) (*ProbeResult, error)

	// ListCollection resolves a collection locator into its flat, ordered member listing
	ListCollection(ctx context.Context, locator string) ([]CollectionEntry, error)

	// Download transfers and postprocesses one item
	Download(ctx context.Context, job *EngineJob, hooks TransferHooks) (*EngineOutput, error)
}

// ProbeResult is the metadata-only view of one item
type ProbeResult struct {
	Item    MediaItem
	Formats []EncodingCandidate
}

// PostProcessKind is the finalisation step after the raw transfer
type PostProcessKind string

const (
	PostProcessRemux        PostProcessKind = "remux"
	PostProcessExtractAudio PostProcessKind = "extract_audio"
)

// PostProcess is the directive handed to the engine
type PostProcess struct {
	Kind         PostProcessKind
	Container    string // remux target
	AudioCodec   string // transcode target
	AudioBitrate int    // kbps
}

// EngineJob is one invocation of the engine for one item
type EngineJob struct {
	ItemID         string
	Locator        string
	FormatID       string
	OutputTemplate string // absolute path template, extension left to the engine
	PostProcess    PostProcess
}

// EngineOutput describes the finalised files
type EngineOutput struct {
	FilePath string
}

// PauseControl lets the engine honour pause requests between transfer chunks
type PauseControl interface {
	Paused() bool
	// AwaitResume blocks while paused; returns ctx.Err() if the context ends first
	AwaitResume(ctx context.Context) error
}

// TransferHooks are the callbacks the engine invokes while working
type TransferHooks struct {
	Progress func(TransferProgress)
	Phase    func(TransferPhase)
	Control  PauseControl
}

// BinaryLocator resolves the path of an external binary
type BinaryLocator interface {
	Locate(name string) (string, error)
}
