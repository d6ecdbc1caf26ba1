package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunState(t *testing.T) {
	assert.True(t, RunRunning.IsActive())
	assert.True(t, RunPaused.IsActive())
	assert.True(t, RunStopping.IsActive())
	assert.False(t, RunIdle.IsActive())
	assert.False(t, RunCompleted.IsActive())

	assert.True(t, RunStopped.IsTerminal())
	assert.True(t, RunCompleted.IsTerminal())
	assert.True(t, RunFailed.IsTerminal())
	assert.False(t, RunPaused.IsTerminal())
}

func TestItemState_CanTransition(t *testing.T) {
	tests := []struct {
		from, to ItemState
		allowed  bool
	}{
		{ItemPending, ItemDownloading, true},
		{ItemDownloading, ItemPaused, true},
		{ItemPaused, ItemDownloading, true},
		{ItemDownloading, ItemPostProcessing, true},
		{ItemPostProcessing, ItemFinished, true},
		{ItemPending, ItemStopped, true},
		{ItemPaused, ItemStopped, true},
		{ItemPostProcessing, ItemStopped, true},
		{ItemPending, ItemPostProcessing, false},
		{ItemPaused, ItemPostProcessing, false},
		{ItemFinished, ItemStopped, false},
		{ItemStopped, ItemDownloading, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransition(tt.to))
		})
	}
}

func TestBatchReport_Record(t *testing.T) {
	var r BatchReport
	r.Total = 3
	r.Record(ItemResult{Position: 1, State: ItemFinished})
	r.Record(ItemResult{Position: 2, State: ItemFailed, Kind: KindTransferFailed, Reason: "403"})
	r.Record(ItemResult{Position: 3, State: ItemStopped})

	assert.Equal(t, 3, r.Attempted)
	assert.Equal(t, 1, r.Succeeded)
	assert.Equal(t, 1, r.FailedCount())
	assert.True(t, r.StoppedEarly)
	assert.Equal(t, "1/3 succeeded, 1 failed, stopped early", r.Summary())
}
