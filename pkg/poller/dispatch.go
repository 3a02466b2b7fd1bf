package poller

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Dispatcher hands a delivery over to the execution context a sink
// requires. Dispatch must be safe for concurrent use and must not block.
type Dispatcher interface {
	Dispatch(fn func())
}

// DispatcherFunc adapts a plain function to a Dispatcher.
type DispatcherFunc func(fn func())

// Dispatch calls f(fn).
func (f DispatcherFunc) Dispatch(fn func()) {
	f(fn)
}

// Immediate runs deliveries inline on the caller's goroutine. It is only
// suitable for sinks that are safe to call from the scheduler itself.
var Immediate Dispatcher = DispatcherFunc(func(fn func()) { fn() })

// Serial runs deliveries one at a time on its own goroutine. Dispatch never
// blocks: if a delivery is still running, the pending one is replaced by
// the newest, so a slow sink only ever sees the latest state. Skipping the
// intermediate deliveries is intended; observers still see every cycle.
type Serial struct {
	mu      sync.Mutex
	pending func()

	wake     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewSerial starts a Serial dispatcher. Call Close to stop it.
func NewSerial() *Serial {
	d := &Serial{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	go d.run()
	return d
}

// Dispatch queues fn, replacing any delivery that has not started yet.
func (d *Serial) Dispatch(fn func()) {
	d.mu.Lock()
	if d.pending != nil {
		logrus.Trace("replacing pending delivery")
	}
	d.pending = fn
	d.mu.Unlock()

	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// Close stops the delivery goroutine. Pending deliveries are dropped.
func (d *Serial) Close() {
	d.stopOnce.Do(func() {
		close(d.done)
	})
}

func (d *Serial) run() {
	for {
		select {
		case <-d.done:
			return
		case <-d.wake:
		}

		d.mu.Lock()
		fn := d.pending
		d.pending = nil
		d.mu.Unlock()

		if fn != nil {
			runRecovered(fn)
		}
	}
}

func runRecovered(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logrus.Errorf("panic in delivery: %v", r)
		}
	}()
	fn()
}
