package monitor

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/baditaflorin/go_status_dashboard/internal/models"
	"github.com/baditaflorin/go_status_dashboard/internal/view"
)

// DefaultInterval is how often the service list is re-fetched in the
// background.
const DefaultInterval = 30 * time.Second

const subscriberBuffer = 8

// UpdateRefresh tells subscribers the service list changed.
const UpdateRefresh = "refresh"

// Update is sent to subscribers.
type Update struct {
	Type     string `json:"type"`
	Services int    `json:"services,omitempty"`
}

// Fetcher is the part of the dashboard view the monitor drives.
type Fetcher interface {
	FetchAndRender(ctx context.Context) view.Page
}

// Monitor periodically re-fetches the service list and tells subscribers
// when it changed.
type Monitor struct {
	fetcher  Fetcher
	interval time.Duration
	log      logrus.FieldLogger

	mu          sync.Mutex
	subscribers map[chan Update]struct{}
	last        []models.ServiceRecord
	seen        bool
}

// NewMonitor creates a monitor. A zero or negative interval disables the
// background loop; subscribers are still told about NotifyChanged.
func NewMonitor(f Fetcher, interval time.Duration, log logrus.FieldLogger) *Monitor {
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &Monitor{
		fetcher:     f,
		interval:    interval,
		log:         log,
		subscribers: make(map[chan Update]struct{}),
	}
}

// Start runs the refresh loop until ctx is cancelled.
func (m *Monitor) Start(ctx context.Context) {
	if m.interval <= 0 {
		m.log.Info("background refresh disabled")
		return
	}

	// Initial check
	m.CheckAll(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

// CheckAll fetches the list once and publishes a refresh when it differs
// from the previous successful fetch. It reports whether it published.
func (m *Monitor) CheckAll(ctx context.Context) bool {
	page := m.fetcher.FetchAndRender(ctx)
	if page.Error != nil {
		return false
	}

	m.mu.Lock()
	changed := m.seen && !models.Equal(m.last, page.Services)
	m.last = page.Services
	m.seen = true
	m.mu.Unlock()

	m.log.WithField("services", len(page.Services)).Debug("refresh completed")
	if changed {
		m.Publish(Update{Type: UpdateRefresh, Services: len(page.Services)})
	}
	return changed
}

// NotifyChanged tells subscribers the list changed without fetching it.
func (m *Monitor) NotifyChanged() {
	m.Publish(Update{Type: UpdateRefresh})
}

// Subscribe registers a new subscriber. The caller must Unsubscribe.
func (m *Monitor) Subscribe() chan Update {
	ch := make(chan Update, subscriberBuffer)
	m.mu.Lock()
	m.subscribers[ch] = struct{}{}
	m.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes ch.
func (m *Monitor) Unsubscribe(ch chan Update) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.subscribers[ch]; ok {
		delete(m.subscribers, ch)
		close(ch)
	}
}

// Publish sends u to every subscriber. A subscriber whose buffer is full
// misses the update.
func (m *Monitor) Publish(u Update) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for ch := range m.subscribers {
		select {
		case ch <- u:
		default:
			m.log.WithField("type", u.Type).Debug("dropping update for slow subscriber")
		}
	}
}

// Subscribers returns the number of registered subscribers.
func (m *Monitor) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subscribers)
}
