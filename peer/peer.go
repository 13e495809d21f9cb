// Package peer is the host side of a virtual channel: one channel name
// offered to many remote peers, each handshaking on its own.
//
// Raw traffic reaches a Registry already tagged with the id of the peer it
// came from, typically by subscribing the Registry to a transport.Host.
// A Store hands out one Registry per channel name and tears it down once
// the last user releases it.
package peer

import (
	"sync"

	"github.com/vchan-go/vchan/transport"
	"go.uber.org/zap"
)

// Sender writes a raw message to one peer.
type Sender interface {
	Send(peerID string, msg []byte) error
}

// Host is the peer-id primitive a Store binds registries to.
// transport.Host implements it.
type Host interface {
	Sender
	Peers() []string
	Subscribe(l transport.HostListener)
	Unsubscribe(l transport.HostListener)
}

var _ Host = (*transport.Host)(nil)

type options struct {
	log *zap.Logger
}

// Option configures a Registry or a Store.
type Option func(*options)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.log = l
	}
}

func buildOptions(opts []Option) options {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// listenerSet is an ordered set of listeners compared by identity.
// Dispatch rechecks membership before every call.
type listenerSet[L comparable] struct {
	mu   sync.Mutex
	list []L
}

func (s *listenerSet[L]) add(l L) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.list {
		if cur == l {
			return
		}
	}
	s.list = append(s.list, l)
}

func (s *listenerSet[L]) remove(l L) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.list {
		if cur == l {
			s.list = append(s.list[:i:i], s.list[i+1:]...)
			return
		}
	}
}

func (s *listenerSet[L]) clear() {
	s.mu.Lock()
	s.list = nil
	s.mu.Unlock()
}

func (s *listenerSet[L]) has(l L) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cur := range s.list {
		if cur == l {
			return true
		}
	}
	return false
}

func (s *listenerSet[L]) each(fn func(L)) {
	s.mu.Lock()
	snapshot := s.list
	s.mu.Unlock()
	for _, l := range snapshot {
		if s.has(l) {
			fn(l)
		}
	}
}
