// Package tracker captures page views on the serving side and delivers them
// to the ingestion endpoint. Delivery is best effort: Track never blocks, a
// full queue drops the event, and failed deliveries are logged and dropped
// without retry.
package tracker

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-blog-analytics/internal/observability"
	"github.com/tbourn/go-blog-analytics/internal/useragent"
)

// DefaultQueueSize is used when New is given a non-positive size.
const DefaultQueueSize = 256

// ErrClosed is returned by Close when called twice.
var ErrClosed = errors.New("tracker closed")

// Event is one observed navigation.
type Event struct {
	Path      string
	Referrer  string
	UserAgent string
	Screen    string
	Language  string

	// Forward carries request headers the transport may pass on (edge geo
	// headers). It is never serialized into the payload.
	Forward http.Header
}

// Payload is the ingestion body derived from an Event.
type Payload struct {
	ID       string  `json:"-"`
	Path     string  `json:"path"`
	Referrer *string `json:"referrer"`
	useragent.ClientInfo

	Header http.Header `json:"-"`
}

// NewPayload parses ev's user agent and assigns a fresh event id.
func NewPayload(ev Event) Payload {
	path := strings.TrimSpace(ev.Path)
	if path == "" {
		path = "/"
	}
	var ref *string
	if r := strings.TrimSpace(ev.Referrer); r != "" {
		ref = &r
	}
	return Payload{
		ID:         uuid.NewString(),
		Path:       path,
		Referrer:   ref,
		ClientInfo: useragent.Parse(ev.UserAgent, ev.Screen, ev.Language),
		Header:     ev.Forward,
	}
}

// Transport delivers one payload.
type Transport interface {
	Send(ctx context.Context, p Payload) error
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, p Payload) error

// Send calls f.
func (f TransportFunc) Send(ctx context.Context, p Payload) error { return f(ctx, p) }

// Tracker queues events for a single background delivery worker.
type Tracker struct {
	transport Transport
	timeout   time.Duration

	mu     sync.RWMutex
	closed bool
	queue  chan Payload

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithSendTimeout bounds each delivery attempt (default 5s).
func WithSendTimeout(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// New starts a tracker delivering through transport.
func New(transport Transport, queueSize int, opts ...Option) *Tracker {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	t := &Tracker{
		transport: transport,
		timeout:   5 * time.Second,
		queue:     make(chan Payload, queueSize),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	for _, o := range opts {
		o(t)
	}
	go t.run()
	return t
}

// Track enqueues ev and reports whether it was accepted. It never blocks.
func (t *Tracker) Track(ev Event) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return false
	}
	p := NewPayload(ev)
	select {
	case t.queue <- p:
		return true
	default:
		observability.TrackerDropped()
		log.Warn().Str("path", p.Path).Msg("tracker queue full, event dropped")
		return false
	}
}

// Close stops accepting events and waits for queued ones to be delivered.
// When ctx expires first, in-flight and queued events are abandoned and
// ctx's error is returned.
func (t *Tracker) Close(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	t.closed = true
	close(t.queue)
	t.mu.Unlock()

	select {
	case <-t.done:
		t.cancel()
		return nil
	case <-ctx.Done():
		t.cancel()
		<-t.done
		return ctx.Err()
	}
}

func (t *Tracker) run() {
	defer close(t.done)
	for p := range t.queue {
		if t.ctx.Err() != nil {
			continue
		}
		t.deliver(p)
	}
}

func (t *Tracker) deliver(p Payload) {
	ctx, cancel := context.WithTimeout(t.ctx, t.timeout)
	defer cancel()
	if err := t.transport.Send(ctx, p); err != nil {
		log.Debug().Err(err).Str("path", p.Path).Str("event_id", p.ID).Msg("page view delivery failed")
	}
}
