package peer

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/vchan-go/vchan/frame"
	"github.com/vchan-go/vchan/transport"
)

const timeout = 2 * time.Second

func fatal(err error, t *testing.T) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}

type sent struct {
	peer string
	msg  []byte
}

// fakeHost records what is sent and who is subscribed.
type fakeHost struct {
	mu        sync.Mutex
	peers     []string
	sent      []sent
	listeners []transport.HostListener
}

func (h *fakeHost) Send(peerID string, msg []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sent = append(h.sent, sent{peerID, msg})
	return nil
}

func (h *fakeHost) Peers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.peers...)
}

func (h *fakeHost) Subscribe(l transport.HostListener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, l)
}

func (h *fakeHost) Unsubscribe(l transport.HostListener) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, cur := range h.listeners {
		if cur == l {
			h.listeners = append(h.listeners[:i:i], h.listeners[i+1:]...)
			return
		}
	}
}

func (h *fakeHost) subscribed(l transport.HostListener) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, cur := range h.listeners {
		if cur == l {
			return true
		}
	}
	return false
}

// take returns and forgets everything sent so far.
func (h *fakeHost) take() []sent {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := h.sent
	h.sent = nil
	return s
}

func expectSent(t *testing.T, h *fakeHost, want ...sent) {
	t.Helper()
	got := h.take()
	if len(got) != len(want) {
		t.Fatalf("expected %d frames sent, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i].peer != want[i].peer || !bytes.Equal(got[i].msg, want[i].msg) {
			t.Fatalf("frame %d: got %s %x, want %s %x", i, got[i].peer, got[i].msg, want[i].peer, want[i].msg)
		}
	}
}

func control(name string, op frame.Opcode) []byte {
	return frame.Pack(frame.ComputeIdentifier(name), op, nil)
}

func message(name, payload string) []byte {
	return frame.Pack(frame.ComputeIdentifier(name), frame.OpMessage, []byte(payload))
}

// clientRecorder collects the events of a Client.
type clientRecorder struct {
	mu       sync.Mutex
	messages []string
	closes   int
}

func (r *clientRecorder) HandleMessage(payload []byte) {
	r.mu.Lock()
	r.messages = append(r.messages, string(payload))
	r.mu.Unlock()
}

func (r *clientRecorder) HandleClose() {
	r.mu.Lock()
	r.closes++
	r.mu.Unlock()
}

func (r *clientRecorder) counts() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages), r.closes
}

// incoming subscribes a clientRecorder to every client joining reg.
func incoming(reg *Registry) (map[string]*clientRecorder, *RegistryFuncs) {
	recs := make(map[string]*clientRecorder)
	l := &RegistryFuncs{Incoming: func(c *Client) {
		rec := &clientRecorder{}
		c.Subscribe(rec)
		recs[c.ID()] = rec
	}}
	reg.Subscribe(l)
	return recs, l
}
