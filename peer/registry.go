package peer

import (
	"sort"
	"sync"

	"github.com/vchan-go/vchan/frame"
	"github.com/vchan-go/vchan/transport"
	"go.uber.org/zap"
)

// RegistryListener is told about peers completing the handshake.
// Implementations are compared by identity, so use pointer receivers.
type RegistryListener interface {
	// HandleIncoming runs before any message of the new peer is forwarded,
	// so listeners attached to c here see all of its traffic.
	HandleIncoming(c *Client)
}

// RegistryFuncs adapts a function to a RegistryListener. Use it by pointer.
type RegistryFuncs struct {
	Incoming func(c *Client)
}

func (f *RegistryFuncs) HandleIncoming(c *Client) {
	if f.Incoming != nil {
		f.Incoming(c)
	}
}

// Registry tracks the peers that opened one channel name. It implements
// transport.HostListener so it can be subscribed to a transport.Host.
type Registry struct {
	name   string
	id     frame.Identifier
	sender Sender
	log    *zap.Logger

	mu      sync.Mutex
	clients map[string]*Client

	listeners listenerSet[RegistryListener]
}

var _ transport.HostListener = (*Registry)(nil)

// NewRegistry returns an empty registry for the channel name, writing
// frames through s.
func NewRegistry(name string, s Sender, opts ...Option) *Registry {
	o := buildOptions(opts)
	return &Registry{
		name:    name,
		id:      frame.ComputeIdentifier(name),
		sender:  s,
		log:     o.log.With(zap.String("channel", name)),
		clients: make(map[string]*Client),
	}
}

// Name returns the channel name.
func (r *Registry) Name() string {
	return r.name
}

// Identifier returns the frame prefix derived from the channel name.
func (r *Registry) Identifier() frame.Identifier {
	return r.id
}

// Add tracks peerID and raises HandleIncoming with its new client. Adding a
// tracked peer does nothing.
func (r *Registry) Add(peerID string) {
	r.mu.Lock()
	if _, ok := r.clients[peerID]; ok {
		r.mu.Unlock()
		return
	}
	c := newClient(r.id, peerID, r.sender, r)
	r.clients[peerID] = c
	r.mu.Unlock()

	r.log.Debug("peer joined", zap.String("peer", peerID))
	r.listeners.each(func(l RegistryListener) { l.HandleIncoming(c) })
}

// Remove forgets peerID and raises a close on its client. No frame is sent.
func (r *Registry) Remove(peerID string) {
	r.mu.Lock()
	c, ok := r.clients[peerID]
	delete(r.clients, peerID)
	r.mu.Unlock()
	if !ok {
		return
	}
	r.log.Debug("peer left", zap.String("peer", peerID))
	c.closeLocal()
}

// Get returns the client of peerID.
func (r *Registry) Get(peerID string) (*Client, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.clients[peerID]
	return c, ok
}

// Has reports whether peerID is tracked.
func (r *Registry) Has(peerID string) bool {
	_, ok := r.Get(peerID)
	return ok
}

// Peers returns the tracked peer ids in sorted order.
func (r *Registry) Peers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Forward delivers payload to the listeners of peerID's client. Unknown
// peers are ignored.
func (r *Registry) Forward(peerID string, payload []byte) {
	if c, ok := r.Get(peerID); ok {
		c.deliver(payload)
	}
}

// NotifyAll sends InitiateHandshake to every peer in peerIDs not tracked
// yet, so already connected peers learn the channel is available.
func (r *Registry) NotifyAll(peerIDs []string) {
	for _, id := range peerIDs {
		if r.Has(id) {
			continue
		}
		if err := newClient(r.id, id, r.sender, nil).InitiateHandshake(); err != nil {
			r.log.Debug("notify failed", zap.String("peer", id), zap.Error(err))
		}
	}
}

// Clear closes every tracked client, telling each peer, and empties the
// registry.
func (r *Registry) Clear() {
	r.mu.Lock()
	clients := make([]*Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.clients = make(map[string]*Client)
	r.mu.Unlock()

	for _, c := range clients {
		if err := c.Close(); err != nil {
			r.log.Debug("close failed", zap.String("peer", c.id), zap.Error(err))
		}
	}
}

// Subscribe adds l to the listeners of r. Subscribing twice has no effect.
func (r *Registry) Subscribe(l RegistryListener) {
	r.listeners.add(l)
}

// Unsubscribe removes l.
func (r *Registry) Unsubscribe(l RegistryListener) {
	r.listeners.remove(l)
}

// UnsubscribeAll removes every listener of r.
func (r *Registry) UnsubscribeAll() {
	r.listeners.clear()
}

// HandleMessage handles a raw message received from peerID. Messages not
// addressed to this channel are ignored.
func (r *Registry) HandleMessage(peerID string, msg []byte) {
	f, ok := frame.Decode(r.id, msg)
	if !ok {
		return
	}
	switch f.Op {
	case frame.OpResolveHandshake:
		r.Add(peerID)
	case frame.OpInitiateHandshake:
		if err := newClient(r.id, peerID, r.sender, nil).ResolveHandshake(); err != nil {
			r.log.Debug("resolve failed", zap.String("peer", peerID), zap.Error(err))
		}
		r.Add(peerID)
	case frame.OpMessage:
		r.Forward(peerID, f.Payload)
	case frame.OpClose:
		r.Remove(peerID)
	}
}

// HandleConnect does nothing: a peer joins the channel by handshaking.
func (r *Registry) HandleConnect(peerID string) {}

// HandleDisconnect removes peerID, raising a close on its client.
func (r *Registry) HandleDisconnect(peerID string) {
	r.Remove(peerID)
}

// detach forgets c if it is still the client tracked for its peer.
func (r *Registry) detach(c *Client) {
	r.mu.Lock()
	if r.clients[c.id] == c {
		delete(r.clients, c.id)
	}
	r.mu.Unlock()
}
