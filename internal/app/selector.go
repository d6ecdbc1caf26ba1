package app

import (
	"fmt"
	"sort"

	"github.com/yourusername/media-fetch-go/internal/domain"
)

// lessFunc orders two candidates; it must be a strict total order so the
// selection never depends on the order the engine listed the formats in.
type lessFunc func(a, b *domain.EncodingCandidate) bool

// rankVideoOnly: frame rate, then bitrate, then H.264 family, then format id.
// Height is already fixed by the time this runs.
func rankVideoOnly(a, b *domain.EncodingCandidate) bool {
	if a.FrameRate != b.FrameRate {
		return a.FrameRate > b.FrameRate
	}
	if a.Bitrate != b.Bitrate {
		return a.Bitrate > b.Bitrate
	}
	if a.IsH264() != b.IsH264() {
		return a.IsH264()
	}
	return a.FormatID < b.FormatID
}

// rankAudioOnly: bitrate, then AAC family, then sample rate, then format id
func rankAudioOnly(a, b *domain.EncodingCandidate) bool {
	if a.Bitrate != b.Bitrate {
		return a.Bitrate > b.Bitrate
	}
	if a.IsAAC() != b.IsAAC() {
		return a.IsAAC()
	}
	if a.SampleRate != b.SampleRate {
		return a.SampleRate > b.SampleRate
	}
	return a.FormatID < b.FormatID
}

// rankMuxed: height, then bitrate, then format id
func rankMuxed(a, b *domain.EncodingCandidate) bool {
	if a.Height != b.Height {
		return a.Height > b.Height
	}
	if a.Bitrate != b.Bitrate {
		return a.Bitrate > b.Bitrate
	}
	return a.FormatID < b.FormatID
}

// best returns the first candidate under less, nil for an empty slice
func best(cands []*domain.EncodingCandidate, less lessFunc) *domain.EncodingCandidate {
	if len(cands) == 0 {
		return nil
	}
	sorted := make([]*domain.EncodingCandidate, len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool { return less(sorted[i], sorted[j]) })
	return sorted[0]
}

type partitions struct {
	videoOnly []*domain.EncodingCandidate
	audioOnly []*domain.EncodingCandidate
	muxed     []*domain.EncodingCandidate
}

func partition(candidates []domain.EncodingCandidate) partitions {
	var p partitions
	for i := range candidates {
		c := &candidates[i]
		switch {
		case c.Muxed():
			p.muxed = append(p.muxed, c)
		case c.VideoOnly():
			p.videoOnly = append(p.videoOnly, c)
		case c.AudioOnly():
			p.audioOnly = append(p.audioOnly, c)
		}
	}
	return p
}

// heightWindow keeps exact matches of target, or else only the candidates at
// the highest height strictly below it. Taller encodings are never chosen.
func heightWindow(videoOnly []*domain.EncodingCandidate, target int) []*domain.EncodingCandidate {
	var exact []*domain.EncodingCandidate
	below := 0
	for _, c := range videoOnly {
		if c.Height == target {
			exact = append(exact, c)
		} else if c.Height > 0 && c.Height < target && c.Height > below {
			below = c.Height
		}
	}
	if len(exact) > 0 {
		return exact
	}
	if below == 0 {
		return nil
	}
	var fallback []*domain.EncodingCandidate
	for _, c := range videoOnly {
		if c.Height == below {
			fallback = append(fallback, c)
		}
	}
	return fallback
}

// SelectFormat chooses the encoding(s) to download for a request.
// Video targets combine the best video-only and audio-only streams and fall
// back to the best muxed stream when either side is missing. Audio targets
// pick the best audio-only source; the engine transcodes it afterwards.
func SelectFormat(candidates []domain.EncodingCandidate, req domain.DownloadRequest) (domain.SelectionResult, error) {
	p := partition(candidates)

	if req.AudioOnly {
		if a := best(p.audioOnly, rankAudioOnly); a != nil {
			return domain.SelectionResult{Single: a}, nil
		}
		if m := best(p.muxed, rankMuxed); m != nil {
			return domain.SelectionResult{Single: m}, nil
		}
		return domain.SelectionResult{}, domain.NewError(domain.KindNoSuitableFormat,
			"no stream with an audio track", nil)
	}

	video := best(heightWindow(p.videoOnly, req.Resolution), rankVideoOnly)
	audio := best(p.audioOnly, rankAudioOnly)
	if video != nil && audio != nil {
		return domain.SelectionResult{Video: video, Audio: audio}, nil
	}

	if m := best(p.muxed, rankMuxed); m != nil {
		return domain.SelectionResult{Single: m}, nil
	}

	return domain.SelectionResult{}, domain.NewError(domain.KindNoSuitableFormat,
		fmt.Sprintf("no formats found for %s", domain.FormatResolution(req.Resolution)), nil)
}
