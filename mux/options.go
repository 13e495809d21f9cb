package mux

import (
	"time"

	"go.uber.org/zap"
)

// DefaultReconnectDelay is the fixed pause between a disconnect and the
// next dial. There is no backoff and no retry limit.
const DefaultReconnectDelay = 5 * time.Second

type options struct {
	reconnectDelay time.Duration
	log            *zap.Logger
}

// Option configures a Connection.
type Option func(*options)

// WithReconnectDelay overrides DefaultReconnectDelay.
func WithReconnectDelay(d time.Duration) Option {
	return func(o *options) {
		o.reconnectDelay = d
	}
}

// WithLogger sets the logger used by the Connection and its channels.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}
