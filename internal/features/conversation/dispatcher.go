package conversation

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultLaneBuffer   = 16
	defaultLaneIdle     = 2 * time.Minute
	defaultEventTimeout = 2 * time.Minute
)

// Handler consumes events. Router satisfies it.
type Handler interface {
	Dispatch(ctx context.Context, ev Event)
}

type DispatcherOptions struct {
	LaneBuffer   int
	LaneIdle     time.Duration
	EventTimeout time.Duration
}

// Dispatcher runs events of one identity strictly one after another while
// different identities proceed in parallel. Each identity gets a lane that
// retires after LaneIdle without traffic.
type Dispatcher struct {
	ctx      context.Context
	cancel   context.CancelFunc
	handler  Handler
	opts     DispatcherOptions
	logger   zerolog.Logger
	stopping chan struct{}

	mu      sync.Mutex
	lanes   map[int64]*lane
	stopped bool
	wg      sync.WaitGroup
}

type lane struct {
	events  chan Event
	pending int
}

func NewDispatcher(handler Handler, opts DispatcherOptions, logger zerolog.Logger) *Dispatcher {
	if opts.LaneBuffer <= 0 {
		opts.LaneBuffer = defaultLaneBuffer
	}
	if opts.LaneIdle <= 0 {
		opts.LaneIdle = defaultLaneIdle
	}
	if opts.EventTimeout <= 0 {
		opts.EventTimeout = defaultEventTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		ctx:      ctx,
		cancel:   cancel,
		handler:  handler,
		opts:     opts,
		logger:   logger.With().Str("component", "dispatcher").Logger(),
		stopping: make(chan struct{}),
		lanes:    make(map[int64]*lane),
	}
}

// Submit queues ev on the lane of its identity. It blocks while that lane is
// full and returns false once the dispatcher is stopping.
func (d *Dispatcher) Submit(ev Event) bool {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return false
	}
	l, ok := d.lanes[ev.UserID]
	if !ok {
		l = &lane{events: make(chan Event, d.opts.LaneBuffer)}
		d.lanes[ev.UserID] = l
		d.wg.Add(1)
		go d.run(ev.UserID, l)
	}
	l.pending++
	d.mu.Unlock()

	l.events <- ev
	return true
}

// Lanes returns the number of live lanes.
func (d *Dispatcher) Lanes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.lanes)
}

// Stop rejects new events, lets queued ones finish and waits for every lane
// to exit or ctx to expire.
func (d *Dispatcher) Stop(ctx context.Context) error {
	d.mu.Lock()
	if !d.stopped {
		d.stopped = true
		close(d.stopping)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	defer d.cancel()
	select {
	case <-done:
		d.logger.Info().Msg("Dispatcher stopped")
		return nil
	case <-ctx.Done():
		d.logger.Warn().Msg("Dispatcher stop timed out, abandoning queued events")
		return ctx.Err()
	}
}

func (d *Dispatcher) run(userID int64, l *lane) {
	defer d.wg.Done()

	idle := time.NewTimer(d.opts.LaneIdle)
	defer idle.Stop()

	for {
		select {
		case ev := <-l.events:
			d.process(ev)
			d.done(l)
			idle.Reset(d.opts.LaneIdle)

		case <-idle.C:
			if d.retire(userID, l) {
				return
			}
			idle.Reset(d.opts.LaneIdle)

		case <-d.stopping:
			if d.retire(userID, l) {
				return
			}
			d.process(<-l.events)
			d.done(l)
		}
	}
}

func (d *Dispatcher) done(l *lane) {
	d.mu.Lock()
	l.pending--
	d.mu.Unlock()
}

func (d *Dispatcher) retire(userID int64, l *lane) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if l.pending > 0 {
		return false
	}
	delete(d.lanes, userID)
	return true
}

func (d *Dispatcher) process(ev Event) {
	ctx, cancel := context.WithTimeout(d.ctx, d.opts.EventTimeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			d.logger.Error().
				Int64("user_id", ev.UserID).
				Str("panic", fmt.Sprint(rec)).
				Bytes("stack", debug.Stack()).
				Msg("Event handler panicked")
		}
	}()
	d.handler.Dispatch(ctx, ev)
}
