// Package fetch owns the reader side of the pipeline: a dedicated
// worker goroutine performs the blocking reads a pass needs and
// publishes dataset events, so the rendering side never waits on IO.
// Triggering a pass is fire and forget, passes run strictly one at a
// time in trigger order.
package fetch

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"streamplot/internal/schema"
)

const (
	triggerBacklog = 64
	eventBacklog   = 256

	// failTimeout bounds how long an abandoned pass waits to deliver
	// its FetchFailed. A consumer that stopped draining leaves the
	// process nothing useful to do, so the loop terminates it.
	failTimeout = 5 * time.Second
)

// errStopped aborts the pass in flight when the loop shuts down.
var errStopped = errors.New("fetch loop stopped")

// Options configure a fetch loop.
type Options struct {
	// Command is joined and run through the shell once per pass, its
	// stdout providing the pass input. When empty, Stdin is read
	// instead.
	Command []string

	X     schema.Selector
	Epoch schema.Selector

	// Refresh greater than zero selects Snapshot mode. Scheduling the
	// repeated passes is the caller's business, the loop only defines
	// what a single pass means.
	Refresh time.Duration

	// Stdin is the fallback input, os.Stdin when nil.
	Stdin io.Reader
}

// Loop drives the fetch worker. Fetch schedules passes, Events
// delivers what each pass produced, Stop tears the worker down.
type Loop struct {
	opts   Options
	mode   Mode
	logger *zap.Logger

	trigger chan struct{}
	events  chan Event
	stop    chan struct{}
	done    chan struct{}

	failTimeout time.Duration

	mu      sync.Mutex
	src     source
	stopped bool
}

// NewLoop starts the worker goroutine. Callers must drain Events and
// call Stop when finished.
func NewLoop(opts Options, logger *zap.Logger) *Loop {
	return newLoop(opts, logger, triggerBacklog, eventBacklog, failTimeout)
}

func newLoop(opts Options, logger *zap.Logger, triggers, events int, failAfter time.Duration) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loop{
		opts:        opts,
		mode:        ModeFor(opts.Refresh, opts.Epoch),
		logger:      logger,
		trigger:     make(chan struct{}, triggers),
		events:      make(chan Event, events),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		failTimeout: failAfter,
	}
	go l.run()
	return l
}

// Mode reports how this loop's passes interpret their input.
func (l *Loop) Mode() Mode { return l.mode }

// Events returns the channel passes publish on. It closes after Stop,
// once the worker has wound down.
func (l *Loop) Events() <-chan Event { return l.events }

// Fetch schedules one pass and returns immediately. When the backlog
// is full the trigger is dropped, which loses nothing: a full backlog
// already guarantees passes that will read the same source again.
func (l *Loop) Fetch() {
	select {
	case l.trigger <- struct{}{}:
	default:
	}
}

// Stop ends the worker and waits for it to exit. A pass in flight is
// abandoned: a blocked read is canceled and a still-running command
// is killed, so Stop returns even when the source has gone quiet.
// Calling Stop again is a no-op.
func (l *Loop) Stop() {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return
	}
	l.stopped = true
	l.mu.Unlock()

	close(l.stop)
	l.abortSource()
	<-l.done
}

func (l *Loop) run() {
	defer close(l.done)
	defer close(l.events)
	for {
		select {
		case <-l.stop:
			return
		case <-l.trigger:
			l.pass()
		}
	}
}

// pass runs one fetch pass and reports its outcome. Every abandoned
// pass produces exactly one FetchFailed, except during shutdown.
func (l *Loop) pass() {
	log := l.logger.With(
		zap.String("pass", uuid.New().String()[:8]),
		zap.Stringer("mode", l.mode),
	)
	log.Debug("pass started")

	err := l.runPass()
	switch {
	case err == nil:
		log.Debug("pass finished")
		return
	case errors.Is(err, errStopped):
		return
	}

	log.Warn("pass abandoned", zap.Error(err))
	select {
	case l.events <- FetchFailed{Err: err}:
	case <-l.stop:
	case <-time.After(l.failTimeout):
		log.Fatal("event consumer stopped draining", zap.Error(err))
	}
}

func (l *Loop) runPass() error {
	src, err := l.opts.open()
	if err != nil {
		return err
	}
	l.setSource(src)

	// Recheck after registering: Stop sweeps the register only once,
	// and may have done so before this source landed in it.
	select {
	case <-l.stop:
		l.setSource(nil)
		src.Close()
		return errStopped
	default:
	}

	eng := &engine{x: l.opts.X, epoch: l.opts.Epoch, mode: l.mode, emit: l.emit}
	err = eng.run(src)

	l.setSource(nil)
	if cerr := src.Close(); err == nil {
		err = cerr
	}
	// A pass swept up by Stop had its source aborted out from under
	// it; whatever it reported is shutdown noise, not a failure.
	select {
	case <-l.stop:
		return errStopped
	default:
	}
	return err
}

// emit delivers one event, blocking until the consumer takes it or
// the loop stops. Backpressure here is what keeps a slow consumer
// from unbounded buffering.
func (l *Loop) emit(ev Event) error {
	select {
	case l.events <- ev:
		return nil
	case <-l.stop:
		return errStopped
	}
}

func (l *Loop) setSource(src source) {
	l.mu.Lock()
	l.src = src
	l.mu.Unlock()
}

// abortSource interrupts the registered source. The worker keeps
// ownership and still closes it; a source registered after the sweep
// is caught by the recheck in runPass.
func (l *Loop) abortSource() {
	l.mu.Lock()
	src := l.src
	l.mu.Unlock()
	if src != nil {
		src.abort()
	}
}
