package mux

import (
	"fmt"
	"sync"

	"github.com/vchan-go/vchan/frame"
	"go.uber.org/zap"
)

// Channel is a named logical stream multiplexed over a Connection.
//
// A channel is opened by a handshake: whichever end sees the connection
// first sends InitiateHandshake and the other answers ResolveHandshake.
// When the connection drops the channel falls back to StateOpening and
// handshakes again by itself once the connection is back. Only Close
// ends a channel for good.
type Channel struct {
	name string
	id   frame.Identifier
	conn *Connection
	log  *zap.Logger

	// mu protects state and sub. It is never held while listeners run.
	mu    sync.Mutex
	state State
	sub   *connListener

	listeners listeners
}

// NewChannel returns a channel named name on conn. Call Connect to start
// the handshake.
func NewChannel(name string, conn *Connection) *Channel {
	id := frame.ComputeIdentifier(name)
	return &Channel{
		name: name,
		id:   id,
		conn: conn,
		log:  conn.log.With(zap.String("channel", name)),
	}
}

// Name returns the channel name.
func (ch *Channel) Name() string {
	return ch.name
}

// Identifier returns the frame prefix derived from the channel name.
func (ch *Channel) Identifier() frame.Identifier {
	return ch.id
}

// State returns the current handshake state.
func (ch *Channel) State() State {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.state
}

// IsOpened reports whether Send can be used.
func (ch *Channel) IsOpened() bool {
	return ch.State() == StateOpened
}

// Subscribe adds l to the listeners of ch. Subscribing twice has no effect.
func (ch *Channel) Subscribe(l Listener) {
	ch.listeners.add(l)
}

// Unsubscribe removes l. A call already delivering an event to l may still
// complete.
func (ch *Channel) Unsubscribe(l Listener) {
	ch.listeners.remove(l)
}

// UnsubscribeAll removes every listener of ch.
func (ch *Channel) UnsubscribeAll() {
	ch.listeners.clear()
}

// Connect (re)subscribes the channel to its connection and starts the
// handshake, immediately if the connection is opened or else as soon as it
// opens. A previous subscription is dropped first.
func (ch *Channel) Connect() error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.state == StateClosed {
		return ErrClosed
	}
	if ch.sub != nil {
		ch.conn.Unsubscribe(ch.sub)
	}
	ch.sub = &connListener{ch: ch}
	ch.state = StateOpening
	ch.conn.Subscribe(ch.sub)

	if ch.conn.State() == ConnOpened {
		t := step(ch.state, evConnOpen, true)
		ch.applyLocked(t)
	}
	return nil
}

// Send writes payload as one message. It fails with ErrNotOpen unless the
// handshake has completed, and the error also matches ErrClosed once the
// channel is closed. Nothing is buffered at the channel level.
func (ch *Channel) Send(payload []byte) error {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	if ch.state == StateClosed {
		return fmt.Errorf("%w: %w", ErrNotOpen, ErrClosed)
	}
	if ch.state != StateOpened {
		return fmt.Errorf("%w: %q is %s", ErrNotOpen, ch.name, ch.state)
	}
	ch.conn.Send(frame.Pack(ch.id, frame.OpMessage, payload))
	return nil
}

// Close ends the channel for good. The remote end is told with a Close
// frame and local listeners see ReasonClosedByUser. Closing twice is a no-op.
func (ch *Channel) Close() error {
	ch.mu.Lock()
	if ch.state == StateClosed {
		ch.mu.Unlock()
		return nil
	}
	ch.state = StateClosed
	sub := ch.sub
	ch.sub = nil
	if sub != nil {
		ch.conn.Unsubscribe(sub)
		ch.conn.Send(frame.Pack(ch.id, frame.OpClose, nil))
	}
	ch.mu.Unlock()

	ch.log.Debug("channel closed")
	ch.listeners.each(func(l Listener) { l.HandleClose(ReasonClosedByUser) })
	return nil
}

// applyLocked changes state and writes the frames a transition asks for.
func (ch *Channel) applyLocked(t transition) {
	if t.effects.has(effSendInitiate) {
		ch.conn.Send(frame.Pack(ch.id, frame.OpInitiateHandshake, nil))
	}
	if t.effects.has(effSendResolve) {
		ch.conn.Send(frame.Pack(ch.id, frame.OpResolveHandshake, nil))
	}
	ch.state = t.next
}

func (ch *Channel) handle(sub *connListener, ev event, reason string, payload []byte) {
	ch.mu.Lock()
	if ch.sub != sub {
		ch.mu.Unlock()
		return
	}
	prev := ch.state
	t := step(prev, ev, ch.conn.State() == ConnOpened)
	ch.applyLocked(t)
	ch.mu.Unlock()

	if prev != t.next {
		ch.log.Debug("channel state changed",
			zap.Stringer("event", ev),
			zap.Stringer("from", prev),
			zap.Stringer("to", t.next))
	}
	if t.effects.has(effRaiseOpen) {
		ch.listeners.each(func(l Listener) { l.HandleOpen() })
	}
	if t.effects.has(effDeliver) {
		ch.listeners.each(func(l Listener) { l.HandleMessage(payload) })
	}
	if t.effects.has(effRaiseClose) {
		ch.listeners.each(func(l Listener) { l.HandleClose(reason) })
	}
}

// connListener subscribes one Connect call of a channel to its connection.
// Events reaching a listener that is no longer the channel's current one
// are dropped.
type connListener struct {
	ch *Channel
}

func (l *connListener) HandleOpen() {
	l.ch.handle(l, evConnOpen, "", nil)
}

func (l *connListener) HandleClose(reason string) {
	l.ch.handle(l, evConnClose, ReasonDisconnected+": "+reason, nil)
}

func (l *connListener) HandleMessage(msg []byte) {
	f, ok := frame.Decode(l.ch.id, msg)
	if !ok {
		return
	}
	ev, ok := eventFor(f.Op)
	if !ok {
		return
	}
	l.ch.handle(l, ev, ReasonClosedByRemote, f.Payload)
}

func (l *connListener) HandleError(err error) {
	l.ch.mu.Lock()
	current := l.ch.sub == l
	l.ch.mu.Unlock()
	if current {
		l.ch.listeners.each(func(cl Listener) { cl.HandleError(err) })
	}
}
