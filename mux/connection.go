package mux

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/vchan-go/vchan/transport"
	"go.uber.org/zap"
)

// ConnState is the state of the physical connection.
type ConnState uint8

const (
	ConnUnknown ConnState = iota
	ConnOpening
	ConnOpened
	ConnClosed
)

func (s ConnState) String() string {
	switch s {
	case ConnUnknown:
		return "Unknown"
	case ConnOpening:
		return "Opening"
	case ConnOpened:
		return "Opened"
	case ConnClosed:
		return "Closed"
	default:
		return fmt.Sprintf("ConnState(%d)", uint8(s))
	}
}

// Connection owns one physical socket and keeps it connected. Frames sent
// while the socket is down are queued and flushed in order once it is back.
//
// Events are dispatched to listeners one at a time from the connection's
// own goroutine.
type Connection struct {
	dialer transport.Dialer
	delay  time.Duration
	log    *zap.Logger

	// mu protects state, sock and queue, and serializes writes to sock
	// so queued frames always leave before newer ones.
	mu    sync.Mutex
	state ConnState
	sock  transport.Socket
	queue [][]byte

	listeners listeners

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewConnection starts dialing with d right away and keeps reconnecting
// until Close is called.
func NewConnection(d transport.Dialer, opts ...Option) *Connection {
	o := options{
		reconnectDelay: DefaultReconnectDelay,
		log:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		dialer: d,
		delay:  o.reconnectDelay,
		log:    o.log,
		state:  ConnOpening,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go c.loop()
	return c
}

// Channel returns a new, not yet connected Channel on c.
func (c *Connection) Channel(name string) *Channel {
	return NewChannel(name, c)
}

// State returns the current connection state.
func (c *Connection) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Queued returns the number of frames waiting for the socket.
func (c *Connection) Queued() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Send writes msg to the socket, or queues it when the socket is down or
// the write fails. Send never reports an error and takes ownership of msg.
func (c *Connection) Send(msg []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != ConnOpened || c.sock == nil || !c.drainLocked() {
		c.queue = append(c.queue, msg)
		return
	}
	if err := c.sock.Send(msg); err != nil {
		c.log.Debug("send failed, frame queued", zap.Error(err))
		c.queue = append(c.queue, msg)
	}
}

// drainLocked flushes the queue head first. It stops at the first failed
// write, leaving that frame at the head, and reports whether the queue is
// empty.
func (c *Connection) drainLocked() bool {
	for len(c.queue) > 0 {
		if err := c.sock.Send(c.queue[0]); err != nil {
			c.log.Debug("drain interrupted", zap.Int("queued", len(c.queue)), zap.Error(err))
			return false
		}
		c.queue[0] = nil
		c.queue = c.queue[1:]
	}
	return true
}

// Subscribe adds l to the listeners of c. Subscribing twice has no effect.
func (c *Connection) Subscribe(l Listener) {
	c.listeners.add(l)
}

// Unsubscribe removes l. A call already delivering an event to l may still
// complete.
func (c *Connection) Unsubscribe(l Listener) {
	c.listeners.remove(l)
}

// Close stops reconnecting and closes the socket. Queued frames are kept
// but never sent. Close must not be called from a listener of c.
func (c *Connection) Close() error {
	c.cancel()
	<-c.done
	return nil
}

func (c *Connection) loop() {
	defer close(c.done)
	for {
		sock, err := c.dialer.Dial(c.ctx)
		if c.ctx.Err() != nil {
			if sock != nil {
				sock.Close()
			}
			break
		}
		if err != nil {
			c.log.Warn("dial failed", zap.Error(err))
			c.listeners.each(func(l Listener) { l.HandleError(err) })
			c.closed(err.Error())
		} else {
			reason := c.serve(sock)
			if c.ctx.Err() != nil {
				break
			}
			c.closed(reason)
		}

		t := time.NewTimer(c.delay)
		select {
		case <-c.ctx.Done():
			t.Stop()
		case <-t.C:
		}
		if c.ctx.Err() != nil {
			break
		}
		c.mu.Lock()
		c.state = ConnOpening
		c.mu.Unlock()
		c.log.Debug("reconnecting")
	}
	if c.State() != ConnClosed {
		c.closed(ReasonConnectionClosed)
	}
}

// serve runs one opened socket until it fails and returns the close reason.
func (c *Connection) serve(sock transport.Socket) string {
	c.mu.Lock()
	c.sock = sock
	c.state = ConnOpened
	c.drainLocked()
	queued := len(c.queue)
	c.mu.Unlock()

	c.log.Info("connection opened", zap.Int("queued", queued))
	c.listeners.each(func(l Listener) { l.HandleOpen() })

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-c.ctx.Done():
			sock.Close()
		case <-stop:
		}
	}()

	for {
		msg, err := sock.Receive()
		if err != nil {
			c.mu.Lock()
			c.sock = nil
			c.mu.Unlock()
			sock.Close()
			if c.ctx.Err() == nil && !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.listeners.each(func(l Listener) { l.HandleError(err) })
			}
			return err.Error()
		}
		c.listeners.each(func(l Listener) { l.HandleMessage(msg) })
	}
}

func (c *Connection) closed(reason string) {
	c.mu.Lock()
	c.state = ConnClosed
	c.sock = nil
	c.mu.Unlock()
	c.log.Info("connection closed", zap.String("reason", reason))
	c.listeners.each(func(l Listener) { l.HandleClose(reason) })
}
