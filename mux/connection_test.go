package mux

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vchan-go/vchan/transport"
)

func TestConnectionQueuesWhileDisconnected(t *testing.T) {
	d := newFakeDialer()
	c := NewConnection(d, WithReconnectDelay(10*time.Millisecond))
	defer c.Close()

	if c.State() != ConnOpening {
		t.Fatal("expected Opening right after construction, got", c.State())
	}

	c.Send([]byte("m1"))
	c.Send([]byte("m2"))
	c.Send([]byte("m3"))
	if n := c.Queued(); n != 3 {
		t.Fatalf("expected 3 queued frames, got %d", n)
	}

	s := d.open(t)
	s.expectSent(t, []byte("m1"))
	s.expectSent(t, []byte("m2"))
	s.expectSent(t, []byte("m3"))
	waitConnState(t, c, ConnOpened)
	if n := c.Queued(); n != 0 {
		t.Fatalf("expected empty queue, got %d", n)
	}
}

func TestConnectionFIFOAcrossReconnect(t *testing.T) {
	d := newFakeDialer()
	c := NewConnection(d, WithReconnectDelay(10*time.Millisecond))
	defer c.Close()
	rec := newRecorder()
	c.Subscribe(rec)

	s1 := d.open(t)
	rec.expect(t, "open")
	c.Send([]byte("a"))
	s1.expectSent(t, []byte("a"))

	s1.Close()
	e := rec.expect(t, "close")
	if e.reason == "" {
		t.Fatal("expected a close reason")
	}

	c.Send([]byte("b"))
	c.Send([]byte("c"))
	c.Send([]byte("d"))

	s2 := d.open(t)
	rec.expect(t, "open")
	s2.expectSent(t, []byte("b"))
	s2.expectSent(t, []byte("c"))
	s2.expectSent(t, []byte("d"))
	s1.expectNothingSent(t)
}

func TestConnectionDrainStopsOnFailure(t *testing.T) {
	d := newFakeDialer()
	c := NewConnection(d)
	defer c.Close()
	rec := newRecorder()
	c.Subscribe(rec)

	c.Send([]byte("m1"))
	c.Send([]byte("m2"))

	s := newFakeSocket()
	s.failSends(errors.New("unstable"))
	d.socks <- s
	rec.expect(t, "open")
	if n := c.Queued(); n != 2 {
		t.Fatalf("expected frames to stay queued, got %d", n)
	}

	// new frames wait behind the stuck queue
	c.Send([]byte("m3"))
	if n := c.Queued(); n != 3 {
		t.Fatalf("expected 3 queued frames, got %d", n)
	}

	s.failSends(nil)
	c.Send([]byte("m4"))
	s.expectSent(t, []byte("m1"))
	s.expectSent(t, []byte("m2"))
	s.expectSent(t, []byte("m3"))
	s.expectSent(t, []byte("m4"))
}

func TestConnectionMessages(t *testing.T) {
	d := newFakeDialer()
	c := NewConnection(d)
	defer c.Close()
	rec := newRecorder()
	c.Subscribe(rec)

	s := d.open(t)
	rec.expect(t, "open")
	s.push([]byte("not a frame"))
	e := rec.expect(t, "message")
	if string(e.msg) != "not a frame" {
		t.Fatalf("unexpected message: %q", e.msg)
	}
}

func TestConnectionDialFailure(t *testing.T) {
	var dials int32
	refused := errors.New("connection refused")
	d := transport.DialerFunc(func(ctx context.Context) (transport.Socket, error) {
		atomic.AddInt32(&dials, 1)
		return nil, refused
	})
	c := NewConnection(d, WithReconnectDelay(5*time.Millisecond))
	rec := newRecorder()
	c.Subscribe(rec)

	waitFor(t, "redial", func() bool { return atomic.LoadInt32(&dials) >= 3 })
	c.Unsubscribe(rec)
	fatal(c.Close(), t)

	var sawError, sawClose bool
	for len(rec.events) > 0 {
		e := <-rec.events
		switch e.kind {
		case "error":
			if !errors.Is(e.err, refused) {
				t.Fatal("unexpected error:", e.err)
			}
			sawError = true
		case "close":
			if e.reason != refused.Error() {
				t.Fatalf("unexpected reason: %q", e.reason)
			}
			sawClose = true
		}
	}
	if !sawError || !sawClose {
		t.Fatal("expected error and close events for a failed dial")
	}
}

func TestConnectionClose(t *testing.T) {
	d := newFakeDialer()
	c := NewConnection(d)
	rec := newRecorder()
	c.Subscribe(rec)

	s := d.open(t)
	rec.expect(t, "open")

	fatal(c.Close(), t)
	e := rec.expect(t, "close")
	if e.reason != ReasonConnectionClosed {
		t.Fatalf("unexpected reason: %q", e.reason)
	}
	if c.State() != ConnClosed {
		t.Fatal("expected Closed, got", c.State())
	}
	select {
	case <-s.closed:
	default:
		t.Fatal("socket left open")
	}
	fatal(c.Close(), t)
	rec.expectNone(t)

	c.Send([]byte("late"))
	if c.Queued() != 1 {
		t.Fatal("expected send after close to be queued")
	}
}

func TestConnectionUnsubscribe(t *testing.T) {
	d := newFakeDialer()
	c := NewConnection(d)
	defer c.Close()
	rec := newRecorder()
	c.Subscribe(rec)
	c.Subscribe(rec)
	c.Unsubscribe(rec)
	c.Unsubscribe(rec)

	s := d.open(t)
	waitConnState(t, c, ConnOpened)
	s.push([]byte("x"))
	rec.expectNone(t)
}
