// Package mux multiplexes named channels over one reconnecting Connection.
//
// A Connection owns a single physical socket, queues outbound frames while
// it is down and dials again after every disconnect. Channels share the
// Connection, each opening itself with an in-band handshake that either end
// may start, and resume on their own once the Connection comes back.
package mux

import "errors"

var (
	// ErrNotOpen is returned by Channel.Send before the handshake completes
	// or after the channel lost its connection.
	ErrNotOpen = errors.New("mux: channel not open")

	// ErrClosed is returned when using a channel closed with Channel.Close.
	ErrClosed = errors.New("mux: channel closed")
)

// Close reasons reported by channels. Ambient disconnects are reported as
// ReasonDisconnected followed by the connection's own reason.
const (
	ReasonClosedByUser   = "closed by user"
	ReasonClosedByRemote = "closed by remote"
	ReasonDisconnected   = "disconnected"

	// ReasonConnectionClosed is reported by a Connection shut down with Close.
	ReasonConnectionClosed = "connection closed"
)
