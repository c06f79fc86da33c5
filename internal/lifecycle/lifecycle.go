// Package lifecycle runs cleanup handlers when vsmm is interrupted, for example to
// remove a half-downloaded archive before the process exits.
package lifecycle

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// Handler receives the signal that interrupted the process.
type Handler func(os.Signal)

// HandlerID identifies a registered handler. The zero value is never issued.
type HandlerID int64

type entry struct {
	id      HandlerID
	handler Handler
}

type registry struct {
	mu      sync.Mutex
	lastID  HandlerID
	entries []entry
}

func (r *registry) add(handler Handler) HandlerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastID++
	r.entries = append(r.entries, entry{id: r.lastID, handler: handler})
	return r.lastID
}

func (r *registry) remove(id HandlerID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.entries {
		if e.id == id {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			return
		}
	}
}

// newestFirst copies the handlers so they can run without holding the lock.
func (r *registry) newestFirst() []Handler {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Handler, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0; i-- {
		out = append(out, r.entries[i].handler)
	}
	return out
}

var (
	handled = []os.Signal{os.Interrupt, syscall.SIGTERM}

	handlers   = &registry{}
	listenOnce sync.Once
	signals    chan os.Signal

	notify = signal.Notify
	stop   = signal.Stop
	exit   = os.Exit
)

// Register adds a handler to run when SIGINT or SIGTERM arrives. Handlers run newest first,
// then the process exits with the signal's conventional status.
func Register(handler Handler) HandlerID {
	if handler == nil {
		return 0
	}
	listenOnce.Do(listen)
	return handlers.add(handler)
}

// Unregister removes a handler. Unknown ids are ignored.
func Unregister(id HandlerID) {
	if id == 0 {
		return
	}
	handlers.remove(id)
}

// listen waits for the first signal and runs the handlers. A second signal while they
// run exits straight away so a stuck handler cannot keep the process alive.
func listen() {
	ch := make(chan os.Signal, 2)
	signals = ch
	notify(ch, handled...)

	go func() {
		sig := <-ch
		done := make(chan struct{})
		go func() {
			for _, handler := range handlers.newestFirst() {
				runSafely(handler, sig)
			}
			close(done)
		}()

		select {
		case <-done:
			exit(ExitCode(sig))
		case second := <-ch:
			exit(ExitCode(second))
		}
	}()
}

func runSafely(handler Handler, sig os.Signal) {
	defer func() {
		_ = recover()
	}()
	handler(sig)
}

// ExitCode is the shell status for a process ended by sig, 1 for signals vsmm does not handle.
func ExitCode(sig os.Signal) int {
	switch sig {
	case os.Interrupt:
		return 130
	case syscall.SIGTERM:
		return 143
	default:
		return 1
	}
}

// reset restores the package to its initial state between tests.
func reset() {
	if signals != nil {
		stop(signals)
	}
	signals = nil
	listenOnce = sync.Once{}
	handlers = &registry{}
	notify = signal.Notify
	stop = signal.Stop
	exit = os.Exit
}
