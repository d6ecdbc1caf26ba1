package domain

import (
	"fmt"
	"time"
)

// ItemResult is the outcome of one item's download cycle
type ItemResult struct {
	Position int       `json:"position"`
	ItemID   string    `json:"item_id,omitempty"`
	Title    string    `json:"title,omitempty"`
	Locator  string    `json:"locator"`
	State    ItemState `json:"state"`
	Format   string    `json:"format,omitempty"`
	FilePath string    `json:"file_path,omitempty"`
	Kind     ErrorKind `json:"kind,omitempty"`
	Reason   string    `json:"reason,omitempty"`
}

// Failed reports whether the item ended in failure
func (r ItemResult) Failed() bool {
	return r.State == ItemFailed
}

// BatchReport is the aggregate report of a run
type BatchReport struct {
	Total        int           `json:"total"`     // resolvable items in the run
	Skipped      int           `json:"skipped"`   // unresolvable entries in the collection listing
	Attempted    int           `json:"attempted"` // items whose cycle was started
	Succeeded    int           `json:"succeeded"`
	Failures     []ItemResult  `json:"failures"`
	Items        []ItemResult  `json:"items"`
	StoppedEarly bool          `json:"stopped_early"`
	Duration     time.Duration `json:"duration"`
}

// Record appends an item outcome and updates the counters
func (r *BatchReport) Record(res ItemResult) {
	r.Items = append(r.Items, res)
	r.Attempted++
	switch res.State {
	case ItemFinished:
		r.Succeeded++
	case ItemFailed:
		r.Failures = append(r.Failures, res)
	case ItemStopped:
		r.StoppedEarly = true
	}
}

// FailedCount returns the number of failed items
func (r *BatchReport) FailedCount() int {
	return len(r.Failures)
}

// Summary renders a one-line human summary
func (r *BatchReport) Summary() string {
	s := fmt.Sprintf("%d/%d succeeded, %d failed", r.Succeeded, r.Attempted, len(r.Failures))
	if r.Skipped > 0 {
		s += fmt.Sprintf(", %d skipped", r.Skipped)
	}
	if r.StoppedEarly {
		s += ", stopped early"
	}
	return s
}
