package gesture

import (
	"sync"

	"github.com/offlinefirst/fnsolo/pkg/tap"
)

// Dispatcher is the thread-safety boundary between the foreign OS callback
// context and the machine. It serialises all work onto one goroutine in
// arrival order; it does no classification itself.
type Dispatcher struct {
	work chan item
	quit chan struct{}
	done chan struct{}
	once sync.Once
}

type item struct {
	run   func() tap.Verdict
	reply chan tap.Verdict
}

// NewDispatcher starts the dispatch goroutine.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		work: make(chan item),
		quit: make(chan struct{}),
		done: make(chan struct{}),
	}
	go d.loop()
	return d
}

func (d *Dispatcher) loop() {
	defer close(d.done)
	for {
		select {
		case <-d.quit:
			return
		case it := <-d.work:
			verdict := it.run()
			if it.reply != nil {
				it.reply <- verdict
			}
		}
	}
}

// Dispatch runs fn on the dispatch goroutine and blocks for its verdict,
// which is how the OS callback gets its consume/pass answer before
// returning. After Close it reports pass without running fn.
func (d *Dispatcher) Dispatch(fn func() tap.Verdict) tap.Verdict {
	it := item{run: fn, reply: make(chan tap.Verdict, 1)}
	select {
	case d.work <- it:
		return <-it.reply
	case <-d.quit:
		return tap.VerdictPass
	}
}

// Post queues fn behind everything already dispatched and returns without
// waiting. Timer fires and live configuration updates arrive this way so
// they share the machine's single execution context.
func (d *Dispatcher) Post(fn func()) {
	it := item{run: func() tap.Verdict {
		fn()
		return tap.VerdictPass
	}}
	select {
	case d.work <- it:
	case <-d.quit:
	}
}

// Close stops the loop and waits for it to exit. Work queued but not yet
// started never runs; callers must detach their event source first so no
// classification is lost mid-flight.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.quit)
	})
	<-d.done
}
