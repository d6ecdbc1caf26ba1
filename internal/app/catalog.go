package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/yourusername/media-fetch-go/internal/domain"
)

// Catalog queries the engine for items and their encodings. Nothing is cached:
// every call goes back to the engine.
type Catalog struct {
	engine domain.Engine
	logger *zap.Logger
}

// NewCatalog creates a catalog over an engine
func NewCatalog(engine domain.Engine, logger *zap.Logger) *Catalog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Catalog{engine: engine, logger: logger}
}

// Probe resolves one item and its encodings
func (c *Catalog) Probe(ctx context.Context, locator string) (*domain.ProbeResult, error) {
	res, err := c.engine.Probe(ctx, locator)
	if err != nil {
		return nil, classifyResolveError(err, locator)
	}
	if res == nil || len(res.Formats) == 0 {
		return nil, domain.NewError(domain.KindNoFormats, "engine returned no encodings", nil).WithItem(locator)
	}
	if res.Item.Locator == "" {
		res.Item.Locator = locator
	}
	return res, nil
}

// Resolve lists the resolvable members of a collection in order, assigning
// positions 1..N. Unresolvable entries are counted in skipped.
func (c *Catalog) Resolve(ctx context.Context, locator string) (items []domain.MediaItem, skipped int, err error) {
	entries, err := c.engine.ListCollection(ctx, locator)
	if err != nil {
		return nil, 0, classifyResolveError(err, locator)
	}

	for _, e := range entries {
		if e.Unavailable || e.ID == "" {
			skipped++
			c.logger.Debug("Skipping unavailable entry",
				zap.String("collection", locator),
				zap.String("id", e.ID),
				zap.String("title", e.Title))
			continue
		}
		loc := e.Locator
		if loc == "" {
			loc = domain.ItemLocator(e.ID)
		}
		items = append(items, domain.MediaItem{
			ID:       e.ID,
			Title:    e.Title,
			Locator:  loc,
			Position: len(items) + 1,
		})
	}

	if len(items) == 0 {
		return nil, skipped, domain.NewError(domain.KindResolutionFailed,
			fmt.Sprintf("collection has no available items (%d unavailable)", skipped), nil).WithItem(locator)
	}
	return items, skipped, nil
}

// Fetch returns the encodings for a locator. For a collection only the first
// resolvable member is probed; the result is a sample, other members may differ.
func (c *Catalog) Fetch(ctx context.Context, locator string) ([]domain.EncodingCandidate, error) {
	switch domain.ClassifyLocator(locator) {
	case domain.LocatorSingle:
		res, err := c.Probe(ctx, locator)
		if err != nil {
			return nil, err
		}
		return res.Formats, nil

	case domain.LocatorCollection:
		items, _, err := c.Resolve(ctx, locator)
		if err != nil {
			return nil, err
		}
		var lastErr error
		for _, item := range items {
			res, err := c.Probe(ctx, item.Locator)
			if err == nil {
				return res.Formats, nil
			}
			if errors.Is(err, domain.ErrEngineUnavailable) || ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			c.logger.Debug("Collection member not resolvable, trying next",
				zap.String("item", item.Locator), zap.Error(err))
		}
		return nil, lastErr

	default:
		return nil, domain.NewError(domain.KindInvalidLocator, "unsupported locator", nil).WithItem(locator)
	}
}

// classifyResolveError keeps classified engine errors and maps the rest to ResolutionFailed
func classifyResolveError(err error, locator string) error {
	var de *domain.Error
	if errors.As(err, &de) {
		if de.Item == "" {
			return de.WithItem(locator)
		}
		return de
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return domain.NewError(domain.KindResolutionFailed, "", err).WithItem(locator)
}

// AudioOption is one codec with its selectable bitrates
type AudioOption struct {
	Codec    string `json:"codec"`
	Bitrates []int  `json:"bitrates"`
}

// FormatSummary is the user-facing view of what can be requested
type FormatSummary struct {
	Resolutions []string      `json:"resolutions"`
	Audio       []AudioOption `json:"audio"`
}

// Summarize lists the distinct video heights, tallest first, and the audio
// output grid. Audio is transcoded by the engine so the grid is fixed.
func Summarize(candidates []domain.EncodingCandidate) FormatSummary {
	seen := make(map[int]bool)
	var heights []int
	for _, c := range candidates {
		if c.HasVideo && c.Height > 0 && !seen[c.Height] {
			seen[c.Height] = true
			heights = append(heights, c.Height)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(heights)))

	summary := FormatSummary{Resolutions: make([]string, 0, len(heights))}
	for _, h := range heights {
		summary.Resolutions = append(summary.Resolutions, domain.FormatResolution(h))
	}
	for _, codec := range domain.SupportedAudioCodecs {
		summary.Audio = append(summary.Audio, AudioOption{
			Codec:    strings.ToUpper(codec),
			Bitrates: append([]int(nil), domain.SupportedAudioBitrates...),
		})
	}
	return summary
}
