// Package broadcast fans festival events out to every connected display.
package broadcast

import (
	"encoding/json"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// EventType names a frame on the stream.
type EventType string

const (
	EventResult        EventType = "result"
	EventResultDeleted EventType = "result_deleted"
	EventFinalize      EventType = "finalize"

	// Transport frames. They never pass through Broadcast.
	EventPing      EventType = "ping"
	EventKeepalive EventType = "keepalive"
)

// DefaultBuffer is the per-subscriber queue length used when none is configured.
const DefaultBuffer = 32

var (
	greetingData  = json.RawMessage(`"hello"`)
	keepaliveData = json.RawMessage(`{}`)
)

// Event is a domain change to announce.
type Event struct {
	Type    EventType
	Payload interface{}
}

// Frame is an already serialized event shared by every subscriber.
type Frame struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"payload"`
}

// KeepaliveFrame returns the payload-less liveness frame.
func KeepaliveFrame() Frame {
	return Frame{Type: EventKeepalive, Data: keepaliveData}
}

// Subscription is the handle returned by Register.
type Subscription struct {
	id     uint64
	bus    *Bus
	frames chan Frame

	mu     sync.RWMutex
	closed bool
}

// ID returns the subscriber id.
func (s *Subscription) ID() uint64 {
	return s.id
}

// Frames yields queued frames. The channel is closed once the subscription is released.
func (s *Subscription) Frames() <-chan Frame {
	return s.frames
}

// Release unregisters the subscription. Calling it more than once is a no-op.
func (s *Subscription) Release() {
	if s.bus != nil {
		s.bus.Unregister(s.id)
		return
	}
	s.close()
}

func (s *Subscription) deliver(frame Frame) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return false
	}
	select {
	case s.frames <- frame:
		return true
	default:
		return false
	}
}

func (s *Subscription) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.frames)
}

// Bus is an in-memory, single process publish/subscribe registry.
type Bus struct {
	mu      sync.RWMutex
	subs    map[uint64]*Subscription
	lastID  uint64
	closed  bool
	buffer  int
	logger  *zap.Logger
	metrics *busMetrics
}

// NewBus constructs a bus. A nil registerer disables metrics.
func NewBus(buffer int, logger *zap.Logger, registerer prometheus.Registerer) *Bus {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bus{
		subs:   make(map[uint64]*Subscription),
		buffer: buffer,
		logger: logger,
	}
	if registerer != nil {
		b.metrics = newBusMetrics(registerer)
	}
	return b
}

// Register adds a subscriber whose queue already holds the greeting ping.
func (b *Bus) Register() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastID++
	sub := &Subscription{
		id:     b.lastID,
		bus:    b,
		frames: make(chan Frame, b.buffer),
	}
	if b.closed {
		sub.close()
		return sub
	}
	sub.frames <- Frame{Type: EventPing, Data: greetingData}
	b.subs[sub.id] = sub
	b.metrics.setSubscribers(len(b.subs))
	b.logger.Debug("stream subscriber registered", zap.Uint64("subscriber_id", sub.id))
	return sub
}

// Unregister removes a subscriber by id. Unknown ids are ignored.
func (b *Bus) Unregister(id uint64) {
	b.mu.Lock()
	sub, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
		b.metrics.setSubscribers(len(b.subs))
	}
	b.mu.Unlock()

	if ok {
		sub.close()
		b.logger.Debug("stream subscriber released", zap.Uint64("subscriber_id", id))
	}
}

// Broadcast serializes the event once and queues it for every subscriber.
// A subscriber whose queue is full is released so its transport disconnects
// and the client resynchronizes on reconnect. Failures are recorded and
// swallowed; it returns the number of subscribers that accepted the frame.
func (b *Bus) Broadcast(evt Event) int {
	data, err := json.Marshal(evt.Payload)
	if err != nil {
		b.logger.Error("marshal broadcast payload", zap.String("type", string(evt.Type)), zap.Error(err))
		return 0
	}
	frame := Frame{Type: evt.Type, Data: data}

	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subs))
	for _, sub := range b.subs {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	b.metrics.incEvent(evt.Type)
	delivered := 0
	for _, sub := range subs {
		if sub.deliver(frame) {
			delivered++
			continue
		}
		b.metrics.incFailure(evt.Type)
		b.logger.Debug("stream delivery dropped, releasing subscriber",
			zap.Uint64("subscriber_id", sub.id),
			zap.String("type", string(evt.Type)),
		)
		b.Unregister(sub.id)
	}
	return delivered
}

// Len returns the number of registered subscribers.
func (b *Bus) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close releases every subscriber and rejects new registrations.
func (b *Bus) Close() {
	b.mu.Lock()
	subs := b.subs
	b.subs = make(map[uint64]*Subscription)
	b.closed = true
	b.metrics.setSubscribers(0)
	b.mu.Unlock()

	for _, sub := range subs {
		sub.close()
	}
}

type busMetrics struct {
	subscribers prometheus.Gauge
	events      *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

func newBusMetrics(registerer prometheus.Registerer) *busMetrics {
	m := &busMetrics{
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "festival_bus_subscribers",
			Help: "Number of connected stream subscribers",
		}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "festival_bus_events_total",
			Help: "Events broadcast on the bus",
		}, []string{"type"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "festival_bus_delivery_failures_total",
			Help: "Frames that could not be queued for a subscriber",
		}, []string{"type"}),
	}
	registerer.MustRegister(m.subscribers, m.events, m.failures)
	return m
}

func (m *busMetrics) setSubscribers(n int) {
	if m == nil {
		return
	}
	m.subscribers.Set(float64(n))
}

func (m *busMetrics) incEvent(t EventType) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(string(t)).Inc()
}

func (m *busMetrics) incFailure(t EventType) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(string(t)).Inc()
}
