package domain

// RunState is the lifecycle state of a session's active request
type RunState string

const (
	RunIdle      RunState = "idle"
	RunRunning   RunState = "running"
	RunPaused    RunState = "paused"
	RunStopping  RunState = "stopping"
	RunStopped   RunState = "stopped"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
)

// IsActive reports a run in flight
func (s RunState) IsActive() bool {
	return s == RunRunning || s == RunPaused || s == RunStopping
}

// IsTerminal reports a finished run
func (s RunState) IsTerminal() bool {
	return s == RunStopped || s == RunCompleted || s == RunFailed
}

// ItemState is the state of one item's download cycle
type ItemState string

const (
	ItemPending        ItemState = "pending"
	ItemDownloading    ItemState = "downloading"
	ItemPaused         ItemState = "paused"
	ItemPostProcessing ItemState = "postprocessing"
	ItemFinished       ItemState = "finished"
	ItemStopped        ItemState = "stopped"
	ItemFailed         ItemState = "failed"
)

// IsTerminal reports a finished item cycle
func (s ItemState) IsTerminal() bool {
	return s == ItemFinished || s == ItemStopped || s == ItemFailed
}

// CanTransition reports whether the item state machine allows from -> to
func (s ItemState) CanTransition(to ItemState) bool {
	if s.IsTerminal() {
		return false
	}
	switch to {
	case ItemStopped, ItemFailed:
		return true
	case ItemDownloading:
		return s == ItemPending || s == ItemPaused
	case ItemPaused:
		return s == ItemDownloading
	case ItemPostProcessing:
		return s == ItemDownloading
	case ItemFinished:
		return s == ItemPostProcessing || s == ItemDownloading
	}
	return false
}
