package mux

import "sync"

// Listener receives the events of a Connection or a Channel. Listeners are
// compared by identity, so implementations should use pointer receivers.
type Listener interface {
	HandleOpen()
	HandleClose(reason string)
	HandleMessage(msg []byte)
	HandleError(err error)
}

// ListenerFuncs adapts optional functions to a Listener. Use it by pointer.
type ListenerFuncs struct {
	Open    func()
	Close   func(reason string)
	Message func(msg []byte)
	Error   func(err error)
}

func (f *ListenerFuncs) HandleOpen() {
	if f.Open != nil {
		f.Open()
	}
}

func (f *ListenerFuncs) HandleClose(reason string) {
	if f.Close != nil {
		f.Close(reason)
	}
}

func (f *ListenerFuncs) HandleMessage(msg []byte) {
	if f.Message != nil {
		f.Message(msg)
	}
}

func (f *ListenerFuncs) HandleError(err error) {
	if f.Error != nil {
		f.Error(err)
	}
}

// listeners is an ordered set of Listeners. Dispatch rechecks membership
// before every call, so a listener removed mid-dispatch is skipped.
type listeners struct {
	mu   sync.Mutex
	list []Listener
}

func (ls *listeners) add(l Listener) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.indexLocked(l) >= 0 {
		return
	}
	ls.list = append(ls.list, l)
}

func (ls *listeners) remove(l Listener) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	if i := ls.indexLocked(l); i >= 0 {
		ls.list = append(ls.list[:i:i], ls.list[i+1:]...)
	}
}

func (ls *listeners) clear() {
	ls.mu.Lock()
	ls.list = nil
	ls.mu.Unlock()
}

func (ls *listeners) has(l Listener) bool {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.indexLocked(l) >= 0
}

func (ls *listeners) indexLocked(l Listener) int {
	for i, cur := range ls.list {
		if cur == l {
			return i
		}
	}
	return -1
}

func (ls *listeners) each(fn func(Listener)) {
	ls.mu.Lock()
	snapshot := ls.list
	ls.mu.Unlock()
	for _, l := range snapshot {
		if ls.has(l) {
			fn(l)
		}
	}
}
