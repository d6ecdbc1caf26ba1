package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/media-fetch-go/internal/domain"
)

func TestCatalog_FetchSingle(t *testing.T) {
	engine := newFakeEngine()
	loc := engine.addItem("v1", "One")

	formats, err := NewCatalog(engine, nil).Fetch(context.Background(), loc)
	require.NoError(t, err)
	assert.Len(t, formats, len(standardFormats()))
}

func TestCatalog_FetchCollectionSamplesFirstResolvable(t *testing.T) {
	engine := newFakeEngine()
	engine.addItem("v1", "One")
	engine.addItem("v2", "Two")
	engine.probeErr[domain.ItemLocator("v1")] = domain.NewError(domain.KindResolutionFailed, "region blocked", nil)

	formats, err := NewCatalog(engine, nil).Fetch(context.Background(), testCollection)
	require.NoError(t, err)
	assert.NotEmpty(t, formats)
	assert.Equal(t, []string{domain.ItemLocator("v1"), domain.ItemLocator("v2")}, engine.probed)
}

func TestCatalog_Errors(t *testing.T) {
	engine := newFakeEngine()
	cat := NewCatalog(engine, nil)

	_, err := cat.Fetch(context.Background(), "not a locator")
	assert.True(t, errors.Is(err, domain.ErrInvalidLocator))

	_, err = cat.Fetch(context.Background(), domain.ItemLocator("missing"))
	assert.True(t, errors.Is(err, domain.ErrResolutionFailed))

	empty := domain.ItemLocator("empty")
	engine.probes[empty] = &domain.ProbeResult{Item: domain.MediaItem{ID: "empty"}}
	_, err = cat.Fetch(context.Background(), empty)
	assert.True(t, errors.Is(err, domain.ErrNoFormats))

	broken := domain.ItemLocator("broken")
	engine.probeErr[broken] = errors.New("unexpected engine output")
	_, err = cat.Fetch(context.Background(), broken)
	assert.True(t, errors.Is(err, domain.ErrResolutionFailed))

	engine.probeErr[broken] = domain.NewError(domain.KindEngineUnavailable, "", nil)
	_, err = cat.Fetch(context.Background(), broken)
	assert.True(t, errors.Is(err, domain.ErrEngineUnavailable))
}

func TestCatalog_FetchCollectionStopsOnEngineUnavailable(t *testing.T) {
	engine := newFakeEngine()
	engine.addItem("v1", "One")
	engine.addItem("v2", "Two")
	engine.probeErr[domain.ItemLocator("v1")] = domain.NewError(domain.KindEngineUnavailable, "", nil)

	_, err := NewCatalog(engine, nil).Fetch(context.Background(), testCollection)
	assert.True(t, errors.Is(err, domain.ErrEngineUnavailable))
	assert.Len(t, engine.probed, 1)
}

func TestSummarize(t *testing.T) {
	s := Summarize(standardFormats())
	assert.Equal(t, []string{"1080p", "720p", "360p"}, s.Resolutions)
	require.Len(t, s.Audio, len(domain.SupportedAudioCodecs))
	assert.Equal(t, "M4A", s.Audio[0].Codec)
	assert.Equal(t, domain.SupportedAudioBitrates, s.Audio[0].Bitrates)
}
