package domain

import "strings"

// MediaItem is one resolvable unit (a single video)
type MediaItem struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Thumbnail string `json:"thumbnail,omitempty"`
	Locator   string `json:"locator"`
	Position  int    `json:"position,omitempty"` // 1-based ordinal inside a collection, 0 for single items
}

// CollectionEntry is one member of a flat collection listing
type CollectionEntry struct {
	ID          string
	Title       string
	Locator     string
	Unavailable bool // private, deleted or otherwise unresolvable from the listing alone
}

// EncodingCandidate is one encoding offered by the engine for an item
type EncodingCandidate struct {
	FormatID   string  `json:"format_id"`
	Container  string  `json:"container,omitempty"`
	VideoCodec string  `json:"video_codec,omitempty"`
	AudioCodec string  `json:"audio_codec,omitempty"`
	Height     int     `json:"height,omitempty"`
	FrameRate  float64 `json:"frame_rate,omitempty"`
	Bitrate    float64 `json:"bitrate,omitempty"` // total kbps
	SampleRate int     `json:"sample_rate,omitempty"`
	FileSize   int64   `json:"file_size,omitempty"`
	HasVideo   bool    `json:"has_video"`
	HasAudio   bool    `json:"has_audio"`
	FormatNote string  `json:"format_note,omitempty"`
}

// VideoOnly reports a video track without audio
func (c EncodingCandidate) VideoOnly() bool { return c.HasVideo && !c.HasAudio }

// AudioOnly reports an audio track without video
func (c EncodingCandidate) AudioOnly() bool { return c.HasAudio && !c.HasVideo }

// Muxed reports both tracks in one stream
func (c EncodingCandidate) Muxed() bool { return c.HasVideo && c.HasAudio }

// IsH264 reports an H.264-family video codec
func (c EncodingCandidate) IsH264() bool {
	v := strings.ToLower(c.VideoCodec)
	return strings.HasPrefix(v, "avc") || strings.HasPrefix(v, "h264")
}

// IsAAC reports an AAC-family audio codec
func (c EncodingCandidate) IsAAC() bool {
	a := strings.ToLower(c.AudioCodec)
	return strings.HasPrefix(a, "mp4a") || strings.HasPrefix(a, "aac")
}

// SelectionResult is the chosen encoding: a video-only + audio-only pair or a single stream
type SelectionResult struct {
	Video  *EncodingCandidate `json:"video,omitempty"`
	Audio  *EncodingCandidate `json:"audio,omitempty"`
	Single *EncodingCandidate `json:"single,omitempty"`
}

// Combined reports whether the selection merges two streams
func (s SelectionResult) Combined() bool {
	return s.Video != nil && s.Audio != nil
}

// FormatID is the identifier handed to the engine: "video+audio" or a single id
func (s SelectionResult) FormatID() string {
	if s.Combined() {
		return s.Video.FormatID + "+" + s.Audio.FormatID
	}
	if s.Single != nil {
		return s.Single.FormatID
	}
	return ""
}

// Height returns the video height of the selection, 0 for audio
func (s SelectionResult) Height() int {
	if s.Combined() {
		return s.Video.Height
	}
	if s.Single != nil && s.Single.HasVideo {
		return s.Single.Height
	}
	return 0
}
