package domain

import (
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run id has no history record
var ErrRunNotFound = errors.New("run not found")

// RunRecord is the persisted summary of one session run
type RunRecord struct {
	ID           string       `json:"id" gorm:"primaryKey"`
	Locator      string       `json:"locator" gorm:"not null"`
	Kind         LocatorKind  `json:"kind" gorm:"not null"`
	Target       string       `json:"target"`
	OutputDir    string       `json:"output_dir"`
	State        RunState     `json:"state" gorm:"not null;index"`
	Total        int          `json:"total"`
	Skipped      int          `json:"skipped"`
	Attempted    int          `json:"attempted"`
	Succeeded    int          `json:"succeeded"`
	Failed       int          `json:"failed"`
	StoppedEarly bool         `json:"stopped_early"`
	ErrorKind    ErrorKind    `json:"error_kind,omitempty"`
	ErrorMessage string       `json:"error_message,omitempty"`
	Items        []ItemRecord `json:"items,omitempty" gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
	StartedAt    time.Time    `json:"started_at" gorm:"index"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
}

// ItemRecord is the persisted outcome of one item inside a run
type ItemRecord struct {
	ID       uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	RunID    string    `json:"run_id" gorm:"index;not null"`
	Position int       `json:"position"`
	ItemID   string    `json:"item_id"`
	Title    string    `json:"title"`
	Locator  string    `json:"locator"`
	State    ItemState `json:"state"`
	Format   string    `json:"format,omitempty"`
	FilePath string    `json:"file_path,omitempty"`
	Kind     ErrorKind `json:"kind,omitempty"`
	Reason   string    `json:"reason,omitempty"`
}

// NewRunRecord creates the record for a run that is starting
func NewRunRecord(id string, req DownloadRequest, kind LocatorKind) *RunRecord {
	return &RunRecord{
		ID:        id,
		Locator:   req.Locator,
		Kind:      kind,
		Target:    req.Target(),
		OutputDir: req.OutputDir,
		State:     RunRunning,
		StartedAt: time.Now(),
	}
}

// Finish copies the final state and report into the record
func (r *RunRecord) Finish(state RunState, report *BatchReport, err error) {
	r.State = state
	now := time.Now()
	r.FinishedAt = &now
	if report != nil {
		r.Total = report.Total
		r.Skipped = report.Skipped
		r.Attempted = report.Attempted
		r.Succeeded = report.Succeeded
		r.Failed = report.FailedCount()
		r.StoppedEarly = report.StoppedEarly
		r.Items = r.Items[:0]
		for _, it := range report.Items {
			r.Items = append(r.Items, ItemRecord{
				RunID:    r.ID,
				Position: it.Position,
				ItemID:   it.ItemID,
				Title:    it.Title,
				Locator:  it.Locator,
				State:    it.State,
				Format:   it.Format,
				FilePath: it.FilePath,
				Kind:     it.Kind,
				Reason:   it.Reason,
			})
		}
	}
	if err != nil {
		r.ErrorKind = KindOf(err)
		r.ErrorMessage = err.Error()
	}
}

// RunRepository defines the interface for run history persistence
type RunRepository interface {
	// Create creates a new run record
	Create(run *RunRecord) error

	// Update saves a run record together with its item records
	Update(run *RunRecord) error

	// FindByID finds a run with its items, ErrRunNotFound when absent
	FindByID(id string) (*RunRecord, error)

	// FindRecent returns the most recent runs, newest first
	FindRecent(limit int) ([]*RunRecord, error)

	// GetStats returns run statistics
	GetStats() (*RunStats, error)
}

// RunStats represents run history statistics
type RunStats struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Stopped   int64 `json:"stopped"`
	Failed    int64 `json:"failed"`
	Items     int64 `json:"items"`
	ItemsOK   int64 `json:"items_ok"`
}
