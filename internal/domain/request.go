package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// SupportedResolutions lists the selectable target heights
var SupportedResolutions = []int{144, 240, 360, 480, 720, 1080, 1440, 2160, 4320}

// SupportedAudioCodecs lists the output codecs the engine can transcode to
var SupportedAudioCodecs = []string{"m4a", "mp3", "wav", "aac"}

// SupportedAudioBitrates lists the output bitrates in kbps
var SupportedAudioBitrates = []int{64, 96, 128, 192, 256, 320}

// DefaultMergeContainer is the remux target when a request names none
const DefaultMergeContainer = "mp4"

// DownloadRequest is the immutable description of what the caller wants fetched
type DownloadRequest struct {
	Locator        string `json:"locator"`
	OutputDir      string `json:"output_dir"`
	Resolution     int    `json:"resolution,omitempty"` // target height, meaningful when AudioOnly is false
	AudioOnly      bool   `json:"audio_only"`
	AudioCodec     string `json:"audio_codec,omitempty"`
	AudioBitrate   int    `json:"audio_bitrate,omitempty"` // kbps
	MergeContainer string `json:"merge_container,omitempty"`
}

// RequestOptions carries the raw caller choices before validation
type RequestOptions struct {
	Locator        string
	OutputDir      string
	Resolution     string
	AudioOnly      bool
	AudioCodec     string
	AudioBitrate   int
	MergeContainer string
}

// NewDownloadRequest validates options and builds a request
func NewDownloadRequest(opts RequestOptions) (DownloadRequest, error) {
	req := DownloadRequest{
		Locator:        strings.TrimSpace(opts.Locator),
		OutputDir:      strings.TrimSpace(opts.OutputDir),
		AudioOnly:      opts.AudioOnly,
		MergeContainer: strings.ToLower(strings.TrimSpace(opts.MergeContainer)),
	}
	if req.Locator == "" {
		return DownloadRequest{}, fmt.Errorf("locator is required")
	}
	if req.OutputDir == "" {
		return DownloadRequest{}, fmt.Errorf("output directory is required")
	}
	if req.MergeContainer == "" {
		req.MergeContainer = DefaultMergeContainer
	}

	if req.AudioOnly {
		codec := strings.ToLower(strings.TrimSpace(opts.AudioCodec))
		if !ValidateAudioCodec(codec) {
			return DownloadRequest{}, fmt.Errorf("unsupported audio codec: %q", opts.AudioCodec)
		}
		if !ValidateAudioBitrate(opts.AudioBitrate) {
			return DownloadRequest{}, fmt.Errorf("unsupported audio bitrate: %d", opts.AudioBitrate)
		}
		req.AudioCodec = codec
		req.AudioBitrate = opts.AudioBitrate
		return req, nil
	}

	height, err := ParseResolution(opts.Resolution)
	if err != nil {
		return DownloadRequest{}, err
	}
	req.Resolution = height
	return req, nil
}

// ParseResolution accepts "720p", "720P" or "720" and returns the height
func ParseResolution(s string) (int, error) {
	s = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(s)), "p")
	h, err := strconv.Atoi(s)
	if err != nil || h <= 0 {
		return 0, fmt.Errorf("invalid resolution: %q", s)
	}
	return h, nil
}

// FormatResolution renders a height as "720p"
func FormatResolution(height int) string {
	return strconv.Itoa(height) + "p"
}

// ValidateAudioCodec checks if an output codec is supported
func ValidateAudioCodec(codec string) bool {
	for _, c := range SupportedAudioCodecs {
		if c == codec {
			return true
		}
	}
	return false
}

// ValidateAudioBitrate checks if an output bitrate is supported
func ValidateAudioBitrate(kbps int) bool {
	for _, b := range SupportedAudioBitrates {
		if b == kbps {
			return true
		}
	}
	return false
}

// Target describes the request's selection target for logs and labels
func (r DownloadRequest) Target() string {
	if r.AudioOnly {
		return fmt.Sprintf("audio %s %dkbps", r.AudioCodec, r.AudioBitrate)
	}
	return FormatResolution(r.Resolution)
}
