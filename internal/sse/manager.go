package sse

import (
	"cmp"
	"context"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/listenupapp/bookshelf/internal/id"
)

const (
	defaultHeartbeat = 30 * time.Second
	defaultQueueSize = 256
	subscriberBuffer = 64
)

// Subscription is one connected page.
type Subscription struct {
	ConnectedAt time.Time
	ID          string

	types  map[EventType]struct{}
	events chan Event
	done   chan struct{}
}

// Events delivers the subscribed events. It is closed on Unsubscribe.
func (s *Subscription) Events() <-chan Event { return s.events }

// Done is closed when the manager drops the subscription.
func (s *Subscription) Done() <-chan struct{} { return s.done }

// Wants reports whether s receives events of type t.
// Heartbeats go to everyone; an empty type set means every type.
func (s *Subscription) Wants(t EventType) bool {
	if t == EventHeartbeat || len(s.types) == 0 {
		return true
	}
	_, ok := s.types[t]
	return ok
}

// Option configures a Manager.
type Option func(*Manager)

// WithHeartbeat sets the keepalive interval.
func WithHeartbeat(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.heartbeat = d
		}
	}
}

// WithQueueSize sets how many events may wait for dispatch before Emit drops.
func WithQueueSize(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.queueSize = n
		}
	}
}

// Manager fans change notifications out to every open page and remembers the
// latest event of each type, so a page that connects late can catch up.
type Manager struct {
	logger    *slog.Logger
	queue     chan Event
	heartbeat time.Duration
	queueSize int

	mu     sync.RWMutex
	subs   map[string]*Subscription
	latest map[EventType]Event
	seq    uint64

	// closing guards queue: Emit sends under the read lock, Shutdown closes under the write lock.
	closing sync.RWMutex
	closed  bool
	stopped chan struct{}
	started bool
}

// NewManager creates a Manager. Call Start before emitting.
func NewManager(logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		logger:    logger,
		heartbeat: defaultHeartbeat,
		queueSize: defaultQueueSize,
		subs:      make(map[string]*Subscription),
		latest:    make(map[EventType]Event),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.queue = make(chan Event, m.queueSize)
	return m
}

// Start dispatches queued events until ctx is done or Shutdown drains the
// queue. Run it once, in its own goroutine.
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	m.started = true
	m.mu.Unlock()
	defer close(m.stopped)

	m.logger.Info("SSE manager starting", "heartbeat", m.heartbeat)

	ticker := time.NewTicker(m.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case evt, ok := <-m.queue:
			if !ok {
				return
			}
			m.dispatch(evt)
		case <-ticker.C:
			m.dispatch(NewHeartbeatEvent())
		case <-ctx.Done():
			m.logger.Info("SSE manager stopping")
			m.dropAll()
			return
		}
	}
}

// Shutdown refuses further events, waits for the queue to drain (bounded by
// ctx) and drops every subscription. Calling it twice is harmless.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.closing.Lock()
	if m.closed {
		m.closing.Unlock()
		return nil
	}
	m.closed = true
	close(m.queue)
	m.closing.Unlock()

	m.mu.RLock()
	started := m.started
	m.mu.RUnlock()

	if started {
		select {
		case <-m.stopped:
		case <-ctx.Done():
			m.logger.Warn("SSE drain timed out; pending events lost")
		}
	} else {
		for evt := range m.queue {
			m.dispatch(evt)
		}
	}

	m.dropAll()
	m.logger.Info("SSE manager shut down")
	return nil
}

// Emit queues event for dispatch. Values that are not an Event are dropped,
// as is everything once the queue is full or the manager is shut down.
func (m *Manager) Emit(event any) {
	evt, ok := event.(Event)
	if !ok {
		m.logger.Error("dropping value that is not an sse.Event")
		return
	}

	m.closing.RLock()
	defer m.closing.RUnlock()
	if m.closed {
		return
	}

	select {
	case m.queue <- evt:
	default:
		m.logger.Error("SSE queue full, dropping event", "event_type", evt.Type)
	}
}

// dispatch numbers evt, records it as the latest of its type and offers it
// to every interested subscriber without blocking.
func (m *Manager) dispatch(evt Event) {
	m.mu.Lock()
	if evt.Type != EventHeartbeat {
		m.seq++
		evt.ID = m.seq
		m.latest[evt.Type] = evt
	}
	subs := slices.Collect(maps.Values(m.subs))
	m.mu.Unlock()

	var delivered, dropped int
	for _, s := range subs {
		if !s.Wants(evt.Type) {
			continue
		}
		if m.offer(s, evt) {
			delivered++
		} else {
			dropped++
			m.logger.Warn("slow SSE client missed an event", "client_id", s.ID, "event_type", evt.Type)
		}
	}

	if evt.Type != EventHeartbeat {
		m.logger.Debug("event dispatched",
			"event_type", evt.Type,
			"event_id", evt.ID,
			slog.Group("clients", "delivered", delivered, "dropped", dropped))
	}
}

// offer sends without blocking. The read lock keeps Unsubscribe from closing
// the channel mid-send.
func (m *Manager) offer(s *Subscription, evt Event) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.subs[s.ID]; !ok {
		return true
	}
	select {
	case s.events <- evt:
		return true
	default:
		return false
	}
}

// Subscribe registers a page for the given event types; none means all.
func (m *Manager) Subscribe(types ...EventType) (*Subscription, error) {
	subID, err := id.Generate("sse")
	if err != nil {
		return nil, err
	}

	s := &Subscription{
		ID:          subID,
		ConnectedAt: time.Now(),
		types:       make(map[EventType]struct{}, len(types)),
		events:      make(chan Event, subscriberBuffer),
		done:        make(chan struct{}),
	}
	for _, t := range types {
		s.types[t] = struct{}{}
	}

	m.mu.Lock()
	m.subs[s.ID] = s
	n := len(m.subs)
	m.mu.Unlock()

	m.logger.Info("SSE client connected", "client_id", s.ID, "types", types, "total_clients", n)
	return s, nil
}

// Unsubscribe removes a subscription. Unknown IDs are ignored.
func (m *Manager) Unsubscribe(subID string) {
	m.mu.Lock()
	s, ok := m.subs[subID]
	if ok {
		delete(m.subs, subID)
		close(s.done)
		close(s.events)
	}
	n := len(m.subs)
	m.mu.Unlock()

	if ok {
		m.logger.Info("SSE client disconnected",
			"client_id", subID,
			"duration", time.Since(s.ConnectedAt),
			"total_clients", n)
	}
}

// Snapshot returns the latest event of each type s wants whose ID is greater
// than after, oldest first.
func (m *Manager) Snapshot(s *Subscription, after uint64) []Event {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Event
	for t, evt := range m.latest {
		if evt.ID > after && s.Wants(t) {
			out = append(out, evt)
		}
	}
	slices.SortFunc(out, func(a, b Event) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// LastID is the ID of the most recently dispatched event, zero if none.
func (m *Manager) LastID() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seq
}

// ClientCount returns the number of open subscriptions.
func (m *Manager) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subs)
}

func (m *Manager) dropAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for subID, s := range m.subs {
		close(s.done)
		close(s.events)
		delete(m.subs, subID)
	}
}
