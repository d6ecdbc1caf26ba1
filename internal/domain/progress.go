package domain

import "time"

// Indeterminate is the percentage sentinel used when the total is unknown
const Indeterminate = -1.0

// ProgressEvent is a transient progress notification
type ProgressEvent struct {
	RunID     string    `json:"run_id,omitempty"`
	Percent   float64   `json:"percent"` // [0,100] or Indeterminate
	Label     string    `json:"label"`
	Thumbnail string    `json:"thumbnail,omitempty"`
	Rate      float64   `json:"rate"`                // smoothed bytes per second
	RateText  string    `json:"rate_text,omitempty"` // human unit, e.g. "1.2 MiB/s"
	Position  int       `json:"position,omitempty"`  // item ordinal in a collection
	Total     int       `json:"total,omitempty"`     // collection size
	Milestone bool      `json:"milestone,omitempty"` // state change, never throttled
	At        time.Time `json:"at"`
}

// IsIndeterminate reports an unknown percentage
func (e ProgressEvent) IsIndeterminate() bool {
	return e.Percent < 0
}

// TransferProgress is the engine's raw byte-level counter snapshot
type TransferProgress struct {
	DownloadedBytes int64
	TotalBytes      int64 // 0 when unknown
	Speed           float64
	Filename        string
}

// TransferPhase is reported by the engine when its work changes nature
type TransferPhase string

const (
	PhaseDownloading    TransferPhase = "downloading"
	PhasePostProcessing TransferPhase = "postprocessing"
)
