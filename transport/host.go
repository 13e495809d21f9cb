package transport

import (
	"errors"
	"io"
	"net"
	"sort"
	"sync"

	"github.com/rs/xid"
	"go.uber.org/zap"
)

// HostOption configures a Host.
type HostOption func(*Host)

// WithLogger sets the logger used by the Host and its listeners.
func WithLogger(l *zap.Logger) HostOption {
	return func(h *Host) {
		h.log = l
	}
}

// Host tracks the sockets accepted by one or more listeners, gives each a
// unique peer id and reports their traffic to subscribed HostListeners.
type Host struct {
	log *zap.Logger

	mu     sync.Mutex
	peers  map[string]Socket
	closed bool

	listenersMu sync.Mutex
	listeners   []HostListener
}

// NewHost returns an empty Host.
func NewHost(opts ...HostOption) *Host {
	h := &Host{
		log:   zap.NewNop(),
		peers: make(map[string]Socket),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve registers sock under a fresh peer id and reads from it until it
// fails. Subscribers see HandleConnect before any HandleMessage for the id
// and HandleDisconnect once it is gone. A clean remote close returns nil.
func (h *Host) Serve(sock Socket) error {
	id := xid.New().String()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		sock.Close()
		return ErrHostClosed
	}
	h.peers[id] = sock
	h.mu.Unlock()

	log := h.log.With(zap.String("peer", id))
	log.Debug("peer connected")
	h.each(func(l HostListener) { l.HandleConnect(id) })

	var err error
	for {
		var msg []byte
		msg, err = sock.Receive()
		if err != nil {
			break
		}
		h.each(func(l HostListener) { l.HandleMessage(id, msg) })
	}

	h.mu.Lock()
	if h.peers[id] == sock {
		delete(h.peers, id)
	}
	h.mu.Unlock()
	sock.Close()

	log.Debug("peer disconnected", zap.Error(err))
	h.each(func(l HostListener) { l.HandleDisconnect(id) })

	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

// Send writes msg to the socket of peerID.
func (h *Host) Send(peerID string, msg []byte) error {
	h.mu.Lock()
	sock, ok := h.peers[peerID]
	h.mu.Unlock()
	if !ok {
		return ErrUnknownPeer
	}
	return sock.Send(msg)
}

// Close disconnects peerID. Its Serve call returns shortly after.
func (h *Host) Close(peerID string) error {
	h.mu.Lock()
	sock, ok := h.peers[peerID]
	delete(h.peers, peerID)
	h.mu.Unlock()
	if !ok {
		return ErrUnknownPeer
	}
	return sock.Close()
}

// Peers returns the ids of all connected peers, oldest first.
func (h *Host) Peers() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	ids := make([]string, 0, len(h.peers))
	for id := range h.peers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Shutdown closes every peer socket and makes further Serve calls fail.
func (h *Host) Shutdown() {
	h.mu.Lock()
	h.closed = true
	socks := make([]Socket, 0, len(h.peers))
	for _, sock := range h.peers {
		socks = append(socks, sock)
	}
	h.mu.Unlock()
	for _, sock := range socks {
		sock.Close()
	}
}

// Subscribe adds l to the listeners of h. Subscribing twice has no effect.
func (h *Host) Subscribe(l HostListener) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	for _, cur := range h.listeners {
		if cur == l {
			return
		}
	}
	h.listeners = append(h.listeners, l)
}

// Unsubscribe removes l. Events not yet dispatched to l are dropped.
func (h *Host) Unsubscribe(l HostListener) {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	for i, cur := range h.listeners {
		if cur == l {
			h.listeners = append(h.listeners[:i:i], h.listeners[i+1:]...)
			return
		}
	}
}

func (h *Host) subscribed(l HostListener) bool {
	h.listenersMu.Lock()
	defer h.listenersMu.Unlock()
	for _, cur := range h.listeners {
		if cur == l {
			return true
		}
	}
	return false
}

func (h *Host) each(fn func(HostListener)) {
	h.listenersMu.Lock()
	snapshot := append([]HostListener(nil), h.listeners...)
	h.listenersMu.Unlock()
	for _, l := range snapshot {
		if h.subscribed(l) {
			fn(l)
		}
	}
}
