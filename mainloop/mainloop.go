package mainloop

import (
	"sync"
)

// Loop executes posted functions one at a time on the goroutine that
// called Run. Everything that touches daemon state runs here, so state
// handlers never race each other. A posted function may call Post or
// publish further events directly.
type Loop struct {
	funcs chan func()
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
}

func New() *Loop {
	return &Loop{
		funcs: make(chan func(), 64),
		quit:  make(chan struct{}),
		done:  make(chan struct{}),
	}
}

// Run blocks until Stop is called, draining anything still queued
// before returning.
func (l *Loop) Run() {
	defer close(l.done)
	for {
		select {
		case fn := <-l.funcs:
			fn()
		case <-l.quit:
			for {
				select {
				case fn := <-l.funcs:
					fn()
				default:
					return
				}
			}
		}
	}
}

// Post queues fn for execution. Safe from any goroutine; posts after
// Stop are dropped.
func (l *Loop) Post(fn func()) {
	select {
	case <-l.quit:
	default:
		select {
		case l.funcs <- fn:
		case <-l.quit:
		}
	}
}

// Stop makes Run return once the queue is drained and waits for it.
// Must not be called from the loop itself.
func (l *Loop) Stop() {
	l.once.Do(func() { close(l.quit) })
	<-l.done
}
