package peer

import (
	"sync"

	"github.com/vchan-go/vchan/frame"
)

// ClientListener receives the events of one peer on a channel.
// Implementations are compared by identity, so use pointer receivers.
type ClientListener interface {
	HandleMessage(payload []byte)
	HandleClose()
}

// ClientFuncs adapts optional functions to a ClientListener. Use it by
// pointer.
type ClientFuncs struct {
	Message func(payload []byte)
	Close   func()
}

func (f *ClientFuncs) HandleMessage(payload []byte) {
	if f.Message != nil {
		f.Message(payload)
	}
}

func (f *ClientFuncs) HandleClose() {
	if f.Close != nil {
		f.Close()
	}
}

// Client is the handle of one remote peer on a channel. Every frame it
// writes is prefixed with the channel identifier and addressed to that
// peer only.
type Client struct {
	id     string
	chid   frame.Identifier
	sender Sender
	reg    *Registry

	mu     sync.Mutex
	closed bool

	listeners listenerSet[ClientListener]
}

func newClient(chid frame.Identifier, peerID string, s Sender, reg *Registry) *Client {
	return &Client{
		id:     peerID,
		chid:   chid,
		sender: s,
		reg:    reg,
	}
}

// ID returns the peer id.
func (c *Client) ID() string {
	return c.id
}

// Send writes payload as one message to the peer.
func (c *Client) Send(payload []byte) error {
	return c.sender.Send(c.id, frame.Pack(c.chid, frame.OpMessage, payload))
}

// InitiateHandshake asks the peer to open the channel.
func (c *Client) InitiateHandshake() error {
	return c.sender.Send(c.id, frame.Pack(c.chid, frame.OpInitiateHandshake, nil))
}

// ResolveHandshake accepts a handshake initiated by the peer.
func (c *Client) ResolveHandshake() error {
	return c.sender.Send(c.id, frame.Pack(c.chid, frame.OpResolveHandshake, nil))
}

// Close tells the peer the channel is closed, drops the client from its
// registry and raises a local close. The peer connection itself stays up.
// The Close frame write error, if any, is returned after the local close.
func (c *Client) Close() error {
	err := c.sender.Send(c.id, frame.Pack(c.chid, frame.OpClose, nil))
	if c.reg != nil {
		c.reg.detach(c)
	}
	c.closeLocal()
	return err
}

// Subscribe adds l to the listeners of c. Subscribing twice has no effect.
func (c *Client) Subscribe(l ClientListener) {
	c.listeners.add(l)
}

// Unsubscribe removes l.
func (c *Client) Unsubscribe(l ClientListener) {
	c.listeners.remove(l)
}

func (c *Client) deliver(payload []byte) {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return
	}
	c.listeners.each(func(l ClientListener) { l.HandleMessage(payload) })
}

// closeLocal raises the close event once.
func (c *Client) closeLocal() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.listeners.each(func(l ClientListener) { l.HandleClose() })
}
