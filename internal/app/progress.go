package app

import (
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/yourusername/media-fetch-go/internal/domain"
	"github.com/yourusername/media-fetch-go/internal/metrics"
)

// Percent converts byte counters to a percentage in [0,100], or
// domain.Indeterminate when the total is unknown
func Percent(downloaded, total int64) float64 {
	if total <= 0 {
		return domain.Indeterminate
	}
	p := float64(downloaded) / float64(total) * 100
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// FormatRate renders bytes per second in binary units, e.g. "1.5 MiB/s"
func FormatRate(bps float64) string {
	if bps <= 0 {
		return ""
	}
	return humanize.IBytes(uint64(bps)) + "/s"
}

const rateWindow = 10

// RateMeter smooths the transfer rate over the last samples. The engine's own
// speed is used when reported, otherwise the rate is derived from byte deltas.
type RateMeter struct {
	samples   []float64
	lastBytes int64
	lastAt    time.Time
	now       func() time.Time
}

// NewRateMeter creates an empty meter
func NewRateMeter() *RateMeter {
	return &RateMeter{
		samples: make([]float64, 0, rateWindow),
		now:     time.Now,
	}
}

// Observe feeds a counter snapshot and returns the smoothed rate
func (m *RateMeter) Observe(p domain.TransferProgress) float64 {
	at := m.now()

	// the engine restarts its counter for every stream of a merged download
	if p.DownloadedBytes < m.lastBytes {
		m.samples = m.samples[:0]
		m.lastAt = time.Time{}
	}

	var sample float64
	switch {
	case p.Speed > 0:
		sample = p.Speed
	case !m.lastAt.IsZero():
		if dt := at.Sub(m.lastAt).Seconds(); dt > 0 {
			sample = float64(p.DownloadedBytes-m.lastBytes) / dt
		}
	}
	m.lastBytes = p.DownloadedBytes
	m.lastAt = at

	if sample > 0 {
		m.samples = append(m.samples, sample)
		if len(m.samples) > rateWindow {
			m.samples = m.samples[1:]
		}
	}
	return m.Rate()
}

// Rate returns the current smoothed rate, 0 before any sample
func (m *RateMeter) Rate() float64 {
	if len(m.samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range m.samples {
		sum += s
	}
	return sum / float64(len(m.samples))
}

// ProgressHub fans progress events out to any number of subscribers.
// Publishing never blocks: a subscriber that falls behind loses its oldest
// buffered event. Determinate events for the same label are rate limited;
// milestones, indeterminate events and label changes always pass.
type ProgressHub struct {
	mu        sync.RWMutex
	subs      map[int]chan domain.ProgressEvent
	nextID    int
	bufSize   int
	limiter   *rate.Limiter
	lastLabel string
}

// NewProgressHub creates a hub; interval 0 disables throttling
func NewProgressHub(interval time.Duration, bufSize int) *ProgressHub {
	if bufSize < 1 {
		bufSize = 1
	}
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &ProgressHub{
		subs:    make(map[int]chan domain.ProgressEvent),
		bufSize: bufSize,
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Subscribe registers a consumer. The returned cancel func closes the channel.
func (h *ProgressHub) Subscribe() (<-chan domain.ProgressEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextID
	h.nextID++
	ch := make(chan domain.ProgressEvent, h.bufSize)
	h.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			close(ch)
			h.mu.Unlock()
		})
	}
}

// Subscribers returns the number of registered consumers
func (h *ProgressHub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Publish delivers ev to every subscriber. It returns false when the event was
// throttled and delivered to nobody.
func (h *ProgressHub) Publish(ev domain.ProgressEvent) bool {
	h.mu.Lock()
	throttle := !ev.Milestone && !ev.IsIndeterminate() && ev.Percent < 100 && ev.Label == h.lastLabel
	h.lastLabel = ev.Label
	allowed := h.limiter.Allow()
	h.mu.Unlock()
	if throttle && !allowed {
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- ev:
			continue
		default:
		}
		select {
		case <-ch:
			metrics.ProgressEventsDropped.Inc()
		default:
		}
		select {
		case ch <- ev:
		default:
			metrics.ProgressEventsDropped.Inc()
		}
	}
	return true
}

// Close closes every subscriber channel
func (h *ProgressHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}
