package transport

import (
	"context"
	"errors"
)

var (
	// ErrUnknownPeer is returned when addressing a peer id the Host does not track.
	ErrUnknownPeer = errors.New("transport: unknown peer")

	// ErrFrameTooLarge is returned when a stream frame exceeds MaxFrameSize.
	ErrFrameTooLarge = errors.New("transport: frame too large")

	// ErrHostClosed is returned by Serve once the Host has been shut down.
	ErrHostClosed = errors.New("transport: host closed")
)

// Socket is a message oriented duplex connection. Each Send is received
// as exactly one message on the other end.
type Socket interface {
	// Send writes one message.
	Send(msg []byte) error

	// Receive blocks until the next message arrives or the socket fails.
	// io.EOF is returned when the remote end closed cleanly.
	Receive() ([]byte, error)

	// Close closes the socket and unblocks pending Receive calls.
	Close() error
}

// A Dialer establishes a new Socket each time it is called.
type Dialer interface {
	Dial(ctx context.Context) (Socket, error)
}

// DialerFunc adapts a function to a Dialer.
type DialerFunc func(ctx context.Context) (Socket, error)

func (f DialerFunc) Dial(ctx context.Context) (Socket, error) {
	return f(ctx)
}

// HostListener receives the events of a Host. Implementations are compared
// by identity, so use pointer receivers.
type HostListener interface {
	HandleConnect(peerID string)
	HandleDisconnect(peerID string)
	HandleMessage(peerID string, msg []byte)
}
