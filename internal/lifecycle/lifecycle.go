// Package lifecycle runs shutdown handlers when SIGINT or SIGTERM arrives and
// then exits with the conventional 128+signal status. A second signal while
// the handlers run exits at once.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
)

// Handler receives the OS signal that triggered shutdown.
type Handler func(os.Signal)

// HandlerID identifies a registered handler. Zero is never issued.
type HandlerID int64

type registration struct {
	id      HandlerID
	handler Handler
}

var (
	defaultSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

	lastID atomic.Int64

	startOnce  sync.Once
	signalChan chan os.Signal

	handlersMu    sync.RWMutex
	registrations []registration

	channelFactory = newSignalChan
	notifyFunc     = signal.Notify
	stopFunc       = signal.Stop
	exitFunc       = os.Exit
)

// Register adds a handler for the next shutdown signal. Handlers run last
// registered first, so work started later unwinds before the work that
// started it.
func Register(handler Handler) HandlerID {
	if handler == nil {
		return 0
	}

	startOnce.Do(startListener)

	id := HandlerID(lastID.Add(1))

	handlersMu.Lock()
	registrations = append(registrations, registration{id: id, handler: handler})
	handlersMu.Unlock()

	return id
}

func Unregister(id HandlerID) {
	if id == 0 {
		return
	}

	handlersMu.Lock()
	defer handlersMu.Unlock()

	for index, existing := range registrations {
		if existing.id == id {
			registrations = append(registrations[:index], registrations[index+1:]...)
			return
		}
	}
}

// CancelOnSignal returns a context that is canceled when a shutdown signal
// arrives. The signal handler then blocks until release is called or grace
// elapses, so the work holding ctx can finish its current step before the
// process exits. release must be called once the work is done.
func CancelOnSignal(parent context.Context, grace time.Duration) (ctx context.Context, release func()) {
	ctx, cancel := context.WithCancel(parent)
	finished := make(chan struct{})

	id := Register(func(os.Signal) {
		cancel()
		timer := time.NewTimer(grace)
		defer timer.Stop()
		select {
		case <-finished:
		case <-timer.C:
		}
	})

	var once sync.Once
	release = func() {
		once.Do(func() {
			Unregister(id)
			close(finished)
			cancel()
		})
	}
	return ctx, release
}

func startListener() {
	signals := channelFactory()
	signalChan = signals
	notifyFunc(signals, defaultSignals...)

	go func() {
		sig := <-signals
		go forceExitOnRepeat(signals)
		runHandlers(sig)
		exitFunc(ExitCode(sig))
	}()
}

func forceExitOnRepeat(signals chan os.Signal) {
	if sig, ok := <-signals; ok {
		exitFunc(ExitCode(sig))
	}
}

func runHandlers(sig os.Signal) {
	handlersMu.RLock()
	pending := make([]registration, len(registrations))
	copy(pending, registrations)
	handlersMu.RUnlock()

	for index := len(pending) - 1; index >= 0; index-- {
		callHandler(pending[index].handler, sig)
	}
}

// callHandler keeps a panicking handler from skipping the rest.
func callHandler(handler Handler, sig os.Signal) {
	defer func() {
		_ = recover()
	}()
	handler(sig)
}

// ExitCode maps a shutdown signal to the process exit status.
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

// reset clears global state (tests only).
func reset() {
	if signalChan != nil {
		stopFunc(signalChan)
	}
	signalChan = nil

	startOnce = sync.Once{}
	lastID.Store(0)

	handlersMu.Lock()
	registrations = nil
	handlersMu.Unlock()

	channelFactory = newSignalChan
	notifyFunc = signal.Notify
	stopFunc = signal.Stop
	exitFunc = os.Exit
}

func newSignalChan() chan os.Signal {
	return make(chan os.Signal, 1)
}
