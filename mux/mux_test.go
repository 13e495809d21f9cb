package mux

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/vchan-go/vchan/transport"
)

const timeout = 2 * time.Second

func fatal(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

// fakeSocket is an in-memory transport.Socket. Messages pushed with push are
// received by the connection; messages the connection sends show up on sent.
type fakeSocket struct {
	in     chan []byte
	sent   chan []byte
	closed chan struct{}
	once   sync.Once

	mu      sync.Mutex
	failing error
}

func newFakeSocket() *fakeSocket {
	return &fakeSocket{
		in:     make(chan []byte, 64),
		sent:   make(chan []byte, 256),
		closed: make(chan struct{}),
	}
}

func (s *fakeSocket) Send(msg []byte) error {
	select {
	case <-s.closed:
		return io.ErrClosedPipe
	default:
	}
	s.mu.Lock()
	err := s.failing
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.sent <- msg
	return nil
}

func (s *fakeSocket) Receive() ([]byte, error) {
	select {
	case msg := <-s.in:
		return msg, nil
	case <-s.closed:
		return nil, io.EOF
	}
}

func (s *fakeSocket) Close() error {
	s.once.Do(func() { close(s.closed) })
	return nil
}

func (s *fakeSocket) push(msg []byte) {
	s.in <- msg
}

func (s *fakeSocket) failSends(err error) {
	s.mu.Lock()
	s.failing = err
	s.mu.Unlock()
}

func (s *fakeSocket) expectSent(t *testing.T, want []byte) {
	t.Helper()
	select {
	case got := <-s.sent:
		if !bytes.Equal(got, want) {
			t.Fatalf("unexpected frame sent: %x, want %x", got, want)
		}
	case <-time.After(timeout):
		t.Fatalf("timed out waiting for frame %x", want)
	}
}

func (s *fakeSocket) expectNothingSent(t *testing.T) {
	t.Helper()
	select {
	case got := <-s.sent:
		t.Fatalf("unexpected frame sent: %x", got)
	case <-time.After(30 * time.Millisecond):
	}
}

// fakeDialer hands out the sockets fed to it, blocking until one is available.
type fakeDialer struct {
	socks chan *fakeSocket
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{socks: make(chan *fakeSocket)}
}

func (d *fakeDialer) Dial(ctx context.Context) (transport.Socket, error) {
	select {
	case s := <-d.socks:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *fakeDialer) open(t *testing.T) *fakeSocket {
	t.Helper()
	s := newFakeSocket()
	select {
	case d.socks <- s:
	case <-time.After(timeout):
		t.Fatal("connection never dialed")
	}
	return s
}

type record struct {
	kind   string
	reason string
	msg    []byte
	err    error
}

// recorder is a Listener collecting events in order.
type recorder struct {
	events chan record
}

func newRecorder() *recorder {
	return &recorder{events: make(chan record, 64)}
}

func (r *recorder) HandleOpen() {
	r.events <- record{kind: "open"}
}

func (r *recorder) HandleClose(reason string) {
	r.events <- record{kind: "close", reason: reason}
}

func (r *recorder) HandleMessage(msg []byte) {
	r.events <- record{kind: "message", msg: msg}
}

func (r *recorder) HandleError(err error) {
	r.events <- record{kind: "error", err: err}
}

func (r *recorder) next(t *testing.T) record {
	t.Helper()
	select {
	case e := <-r.events:
		return e
	case <-time.After(timeout):
		t.Fatal("timed out waiting for event")
	}
	return record{}
}

func (r *recorder) expect(t *testing.T, kind string) record {
	t.Helper()
	e := r.next(t)
	if e.kind != kind {
		t.Fatalf("expected %s event, got %#v", kind, e)
	}
	return e
}

func (r *recorder) expectNone(t *testing.T) {
	t.Helper()
	select {
	case e := <-r.events:
		t.Fatalf("unexpected event: %#v", e)
	case <-time.After(30 * time.Millisecond):
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitConnState(t *testing.T, c *Connection, want ConnState) {
	t.Helper()
	waitFor(t, "connection "+want.String(), func() bool { return c.State() == want })
}

func waitState(t *testing.T, ch *Channel, want State) {
	t.Helper()
	waitFor(t, "channel "+want.String(), func() bool { return ch.State() == want })
}
