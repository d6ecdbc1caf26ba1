package infrastructure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/yourusername/media-fetch-go/internal/domain"
)

// progressPrefix marks the lines rendered from our --progress-template
const progressPrefix = "mfprogress:"

// progressTemplate makes yt-dlp print one machine readable line per progress tick:
// downloaded|total|estimated total|speed
const progressTemplate = "download:" + progressPrefix +
	"%(progress.downloaded_bytes)s|%(progress.total_bytes)s|%(progress.total_bytes_estimate)s|%(progress.speed)s"

// postProcessMarkers are the log prefixes yt-dlp uses once the transfer is over
var postProcessMarkers = []string{
	"[Merger]",
	"[ExtractAudio]",
	"[VideoRemuxer]",
	"[VideoConvertor]",
	"[FixupM3u8]",
	"[FixupM4a]",
	"[FixupStretched]",
	"[ffmpeg]",
}

// unavailableTitles are the placeholders a flat listing uses for dead entries
var unavailableTitles = map[string]bool{
	"[Private video]":     true,
	"[Deleted video]":     true,
	"[Unavailable video]": true,
}

var unavailableAvailability = map[string]bool{
	"private":         true,
	"needs_auth":      true,
	"premium_only":    true,
	"subscriber_only": true,
}

type ytdlpFormat struct {
	FormatID       string  `json:"format_id"`
	Ext            string  `json:"ext"`
	VCodec         string  `json:"vcodec"`
	ACodec         string  `json:"acodec"`
	Height         int     `json:"height"`
	FPS            float64 `json:"fps"`
	TBR            float64 `json:"tbr"`
	VBR            float64 `json:"vbr"`
	ABR            float64 `json:"abr"`
	ASR            int     `json:"asr"`
	Filesize       float64 `json:"filesize"`
	FilesizeApprox float64 `json:"filesize_approx"`
	FormatNote     string  `json:"format_note"`
}

type ytdlpInfo struct {
	Type       string        `json:"_type"`
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Thumbnail  string        `json:"thumbnail"`
	WebpageURL string        `json:"webpage_url"`
	Formats    []ytdlpFormat `json:"formats"`
}

type ytdlpEntry struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	URL          string `json:"url"`
	Availability string `json:"availability"`
}

type ytdlpListing struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Entries []*ytdlpEntry `json:"entries"`
}

// parseProbe decodes `yt-dlp -J` output into an item and its encodings
func parseProbe(data []byte, locator string) (*domain.ProbeResult, error) {
	var info ytdlpInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, domain.NewError(domain.KindResolutionFailed, "unreadable engine metadata", err)
	}
	if info.ID == "" {
		return nil, domain.NewError(domain.KindResolutionFailed, "engine metadata has no item id", nil)
	}

	item := domain.MediaItem{
		ID:        info.ID,
		Title:     info.Title,
		Thumbnail: info.Thumbnail,
		Locator:   info.WebpageURL,
	}
	if item.Locator == "" {
		item.Locator = locator
	}
	if item.Title == "" {
		item.Title = info.ID
	}

	formats := make([]domain.EncodingCandidate, 0, len(info.Formats))
	for _, f := range info.Formats {
		if c, ok := f.candidate(); ok {
			formats = append(formats, c)
		}
	}
	return &domain.ProbeResult{Item: item, Formats: formats}, nil
}

func (f ytdlpFormat) candidate() (domain.EncodingCandidate, bool) {
	if f.FormatID == "" || f.Ext == "mhtml" {
		return domain.EncodingCandidate{}, false
	}
	hasVideo := codecPresent(f.VCodec)
	hasAudio := codecPresent(f.ACodec)
	// Progressive formats from some extractors carry no codec info at all
	if f.VCodec == "" && f.ACodec == "" && f.Height > 0 {
		hasVideo, hasAudio = true, true
	}
	if !hasVideo && !hasAudio {
		return domain.EncodingCandidate{}, false
	}

	c := domain.EncodingCandidate{
		FormatID:   f.FormatID,
		Container:  f.Ext,
		Height:     f.Height,
		FrameRate:  f.FPS,
		Bitrate:    f.TBR,
		SampleRate: f.ASR,
		HasVideo:   hasVideo,
		HasAudio:   hasAudio,
		FormatNote: f.FormatNote,
	}
	if hasVideo {
		c.VideoCodec = f.VCodec
	} else {
		c.Height = 0
		c.FrameRate = 0
	}
	if hasAudio {
		c.AudioCodec = f.ACodec
	}
	if c.Bitrate == 0 {
		c.Bitrate = f.VBR + f.ABR
	}
	if f.Filesize > 0 {
		c.FileSize = int64(f.Filesize)
	} else {
		c.FileSize = int64(f.FilesizeApprox)
	}
	return c, true
}

func codecPresent(codec string) bool {
	return codec != "" && codec != "none"
}

// parseListing decodes `yt-dlp -J --flat-playlist` output, keeping listing order
func parseListing(data []byte) ([]domain.CollectionEntry, error) {
	var listing ytdlpListing
	if err := json.Unmarshal(data, &listing); err != nil {
		return nil, domain.NewError(domain.KindResolutionFailed, "unreadable collection listing", err)
	}

	entries := make([]domain.CollectionEntry, 0, len(listing.Entries))
	for _, e := range listing.Entries {
		if e == nil {
			entries = append(entries, domain.CollectionEntry{Unavailable: true})
			continue
		}
		entry := domain.CollectionEntry{
			ID:    e.ID,
			Title: e.Title,
		}
		switch {
		case e.ID != "":
			entry.Locator = domain.ItemLocator(e.ID)
		default:
			entry.Locator = e.URL
		}
		entry.Unavailable = e.ID == "" ||
			unavailableTitles[e.Title] ||
			unavailableAvailability[e.Availability]
		entries = append(entries, entry)
	}
	return entries, nil
}

// parseProgressLine decodes one line rendered from progressTemplate
func parseProgressLine(line string) (domain.TransferProgress, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), progressPrefix)
	if !ok {
		return domain.TransferProgress{}, false
	}
	fields := strings.Split(rest, "|")
	if len(fields) != 4 {
		return domain.TransferProgress{}, false
	}

	p := domain.TransferProgress{
		DownloadedBytes: int64(parseNumber(fields[0])),
		TotalBytes:      int64(parseNumber(fields[1])),
		Speed:           parseNumber(fields[3]),
	}
	if p.TotalBytes == 0 {
		p.TotalBytes = int64(parseNumber(fields[2]))
	}
	return p, true
}

// parseNumber reads a template field; yt-dlp renders missing values as "NA"
func parseNumber(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

// isPostProcessLine reports output that belongs to the finalisation phase
func isPostProcessLine(line string) bool {
	for _, m := range postProcessMarkers {
		if strings.HasPrefix(line, m) {
			return true
		}
	}
	return false
}

// outputTail forwards engine stderr to the engine log while remembering the
// last ERROR line and the last few lines for failure reasons
type outputTail struct {
	mu        sync.Mutex
	sink      io.Writer
	partial   []byte
	lastError string
	lines     []string
	keep      int
}

func newOutputTail(sink io.Writer) *outputTail {
	if sink == nil {
		sink = io.Discard
	}
	return &outputTail{sink: sink, keep: 5}
}

func (t *outputTail) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.sink.Write(p)
	t.partial = append(t.partial, p...)
	for {
		i := bytes.IndexByte(t.partial, '\n')
		if i < 0 {
			break
		}
		t.observe(string(t.partial[:i]))
		t.partial = t.partial[i+1:]
	}
	return len(p), nil
}

func (t *outputTail) observe(line string) {
	line = strings.TrimRight(line, "\r")
	if strings.TrimSpace(line) == "" {
		return
	}
	if msg, ok := strings.CutPrefix(line, "ERROR:"); ok {
		t.lastError = strings.TrimSpace(msg)
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > t.keep {
		t.lines = t.lines[1:]
	}
}

// Reason returns the best human explanation of a failure seen so far
func (t *outputTail) Reason() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.partial) > 0 {
		t.observe(string(t.partial))
		t.partial = nil
	}
	if t.lastError != "" {
		return t.lastError
	}
	if len(t.lines) > 0 {
		return t.lines[len(t.lines)-1]
	}
	return ""
}

// outputExtension returns the extension the postprocess step produces
func outputExtension(pp domain.PostProcess) string {
	switch pp.Kind {
	case domain.PostProcessExtractAudio:
		return pp.AudioCodec
	case domain.PostProcessRemux:
		return pp.Container
	}
	return ""
}

// findOutputFile locates the finalised file for an output template. Engine
// intermediates (partial downloads and per-stream files like "x.f137.mp4")
// are ignored; the expected extension wins, otherwise the newest match.
func findOutputFile(template, ext string) (string, error) {
	dir := filepath.Dir(template)
	base := filepath.Base(template)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read output directory: %w", err)
	}

	var newest string
	var newestMod int64
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		rest, ok := strings.CutPrefix(e.Name(), base+".")
		if !ok || rest == "" || strings.Contains(rest, ".") {
			continue
		}
		switch strings.ToLower(rest) {
		case "part", "ytdl", "temp", "json":
			continue
		}
		path := filepath.Join(dir, e.Name())
		if ext != "" && strings.EqualFold(rest, ext) {
			return path, nil
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().UnixNano() > newestMod {
			newest = path
			newestMod = info.ModTime().UnixNano()
		}
	}

	if newest == "" {
		return "", fmt.Errorf("no output file for %s", base)
	}
	return newest, nil
}
