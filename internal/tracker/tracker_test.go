package tracker

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu   sync.Mutex
	got  []Payload
	err  error
	gate chan struct{}
}

func (r *recorder) Send(ctx context.Context, p Payload) error {
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.got = append(r.got, p)
	return r.err
}

func (r *recorder) payloads() []Payload {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Payload(nil), r.got...)
}

func TestNewPayload_ParsesAgentAndDefaults(t *testing.T) {
	p := NewPayload(Event{
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Language:  "en-US",
		Forward:   http.Header{"Cf-Ipcountry": {"US"}},
	})
	if p.Path != "/" || p.Referrer != nil {
		t.Fatalf("defaults unexpected: path=%q referrer=%v", p.Path, p.Referrer)
	}
	if p.ID == "" || p.Browser == nil || *p.Browser != "Chrome" || *p.Device != "desktop" || *p.Language != "en-US" {
		t.Fatalf("payload unexpected: %+v", p)
	}
	if p.Header.Get("CF-IPCountry") != "US" {
		t.Fatalf("forward headers lost")
	}
	if q := NewPayload(Event{}); q.ID == p.ID {
		t.Fatalf("event ids must be unique")
	}
}

func TestTracker_DeliversAndDrainsOnClose(t *testing.T) {
	rec := &recorder{}
	tr := New(rec, 8)
	for _, path := range []string{"/a", "/b", "/c"} {
		if !tr.Track(Event{Path: path}) {
			t.Fatalf("track %s rejected", path)
		}
	}
	if err := tr.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	got := rec.payloads()
	if len(got) != 3 || got[0].Path != "/a" || got[2].Path != "/c" {
		t.Fatalf("delivered %+v", got)
	}
	if tr.Track(Event{Path: "/late"}) {
		t.Fatalf("track after close must be rejected")
	}
	if err := tr.Close(context.Background()); !errors.Is(err, ErrClosed) {
		t.Fatalf("second close: %v", err)
	}
}

func TestTracker_FullQueueDropsWithoutBlocking(t *testing.T) {
	rec := &recorder{gate: make(chan struct{})}
	tr := New(rec, 1)

	accepted := 0
	start := time.Now()
	for i := 0; i < 20; i++ {
		if tr.Track(Event{Path: "/x"}) {
			accepted++
		}
	}
	if time.Since(start) > time.Second {
		t.Fatalf("Track blocked")
	}
	// One in flight (held by the gate) plus one queued at most.
	if accepted < 1 || accepted > 2 {
		t.Fatalf("accepted %d events with queue size 1", accepted)
	}
	close(rec.gate)
	if err := tr.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestTracker_FailuresAreSwallowed(t *testing.T) {
	rec := &recorder{err: errors.New("down")}
	tr := New(rec, 4)
	tr.Track(Event{Path: "/a"})
	tr.Track(Event{Path: "/b"})
	if err := tr.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}
	if n := len(rec.payloads()); n != 2 {
		t.Fatalf("each event should be attempted exactly once, got %d", n)
	}
}

func TestTracker_CloseHonorsDeadline(t *testing.T) {
	rec := &recorder{gate: make(chan struct{})}
	tr := New(rec, 4, WithSendTimeout(time.Minute))
	tr.Track(Event{Path: "/stuck"})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := tr.Close(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("close: want deadline exceeded, got %v", err)
	}
}

func TestTransportFunc(t *testing.T) {
	var seen string
	tr := New(TransportFunc(func(ctx context.Context, p Payload) error {
		seen = p.Path
		return nil
	}), 1)
	tr.Track(Event{Path: "/fn"})
	_ = tr.Close(context.Background())
	if seen != "/fn" {
		t.Fatalf("TransportFunc not invoked, seen=%q", seen)
	}
}
