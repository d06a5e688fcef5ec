package telnet

import (
	"sync/atomic"

	"github.com/petermattis/goid"
)

// eventPump is the client's single-threaded event loop.  Every piece of connection
// state is owned by the goroutine running the pump; other goroutines hand it work
// through post rather than touching that state themselves.
type eventPump struct {
	events chan func()
	done   chan struct{}
	loopID atomic.Int64
}

func newEventPump() *eventPump {
	return &eventPump{
		events: make(chan func(), 100),
		done:   make(chan struct{}),
	}
}

// onLoop reports whether the caller is running on the pump's goroutine, which is the
// case inside every hook the client fires
func (p *eventPump) onLoop() bool {
	return p.loopID.Load() == goid.Get()
}

// post schedules work on the loop. Work posted from the loop itself runs immediately,
// and work posted after the loop has exited is dropped. Posting blocks while the inbox
// is full.
func (p *eventPump) post(work func()) {
	if p.onLoop() {
		work()
		return
	}

	select {
	case p.events <- work:
	case <-p.done:
	}
}

// run executes start, then processes posted work until finished reports true
func (p *eventPump) run(start func(), finished func() bool) {
	p.loopID.Store(goid.Get())
	defer close(p.done)

	start()

	for !finished() {
		work := <-p.events
		work()
	}
}
