package peer

import (
	"sync"

	"go.uber.org/zap"
)

type storeEntry struct {
	reg  *Registry
	refs int
}

// Store hands out one Registry per channel name, bound to a Host, and
// counts references to it.
type Store struct {
	host Host
	log  *zap.Logger

	mu      sync.Mutex
	entries map[string]*storeEntry
}

// NewStore returns an empty store for h.
func NewStore(h Host, opts ...Option) *Store {
	o := buildOptions(opts)
	return &Store{
		host:    h,
		log:     o.log,
		entries: make(map[string]*storeEntry),
	}
}

// Get returns the registry for name, takes a reference to it and subscribes
// listeners to it. The first Get creates the registry, subscribes listeners
// and then the registry to the host, and only then offers the channel to
// every peer already connected, so the first Incoming events reach them.
func (s *Store) Get(name string, listeners ...RegistryListener) *Registry {
	s.mu.Lock()
	if e, ok := s.entries[name]; ok {
		e.refs++
		s.mu.Unlock()
		for _, l := range listeners {
			e.reg.Subscribe(l)
		}
		return e.reg
	}
	reg := NewRegistry(name, s.host, WithLogger(s.log))
	for _, l := range listeners {
		reg.Subscribe(l)
	}
	s.entries[name] = &storeEntry{reg: reg, refs: 1}
	s.host.Subscribe(reg)
	s.mu.Unlock()

	s.log.Debug("registry created", zap.String("channel", name))
	reg.NotifyAll(s.host.Peers())
	return reg
}

// Release drops a reference to name. The last release unsubscribes the
// registry from the host, closes all of its clients and detaches its
// listeners. Releasing an unknown name does nothing.
func (s *Store) Release(name string) {
	s.mu.Lock()
	e, ok := s.entries[name]
	if !ok {
		s.mu.Unlock()
		return
	}
	e.refs--
	if e.refs > 0 {
		s.mu.Unlock()
		return
	}
	delete(s.entries, name)
	s.mu.Unlock()

	s.host.Unsubscribe(e.reg)
	e.reg.Clear()
	e.reg.UnsubscribeAll()
	s.log.Debug("registry released", zap.String("channel", name))
}

// Refs returns the number of references held on name.
func (s *Store) Refs(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[name]; ok {
		return e.refs
	}
	return 0
}
