package observer

import (
	"sync"

	"pokuclick/interfaces"
)

// Broadcaster holds the busy flag and notifies listeners on each edge.
// Redundant SetBusy calls do not notify.
type Broadcaster struct {
	mutex     sync.Mutex
	busy      bool
	listeners []interfaces.BusyListener
}

// NewBroadcaster creates a Broadcaster in the idle state.
func NewBroadcaster(listeners ...interfaces.BusyListener) *Broadcaster {
	return &Broadcaster{listeners: listeners}
}

// Subscribe adds a listener. Listeners are notified in subscription order.
func (b *Broadcaster) Subscribe(l interfaces.BusyListener) {
	if l == nil {
		return
	}
	b.mutex.Lock()
	defer b.mutex.Unlock()

	b.listeners = append(b.listeners, l)
}

// SetBusy updates the flag and reports whether it changed.
func (b *Broadcaster) SetBusy(busy bool) bool {
	b.mutex.Lock()
	if b.busy == busy {
		b.mutex.Unlock()
		return false
	}
	b.busy = busy
	listeners := append([]interfaces.BusyListener(nil), b.listeners...)
	b.mutex.Unlock()

	for _, l := range listeners {
		if busy {
			l.OnBusyBegan()
		} else {
			l.OnBusyEnded()
		}
	}
	return true
}

// Busy returns the current flag.
func (b *Broadcaster) Busy() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	return b.busy
}

// ListenerFuncs adapts two funcs to interfaces.BusyListener. Nil funcs are skipped.
type ListenerFuncs struct {
	Began func()
	Ended func()
}

// OnBusyBegan implements interfaces.BusyListener.
func (f ListenerFuncs) OnBusyBegan() {
	if f.Began != nil {
		f.Began()
	}
}

// OnBusyEnded implements interfaces.BusyListener.
func (f ListenerFuncs) OnBusyEnded() {
	if f.Ended != nil {
		f.Ended()
	}
}
