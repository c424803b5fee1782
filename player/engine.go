package player

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/auplay-cli/auplay/decoder"
	"github.com/auplay-cli/auplay/log"
	"github.com/google/uuid"
	"github.com/samber/mo"
)

type commandKind int

const (
	cmdSetResource commandKind = iota + 1
	cmdStart
	cmdPause
	cmdStop
	cmdClear
	cmdSeek
	cmdHoldProgress
)

func (k commandKind) String() string {
	switch k {
	case cmdSetResource:
		return "setResource"
	case cmdStart:
		return "start"
	case cmdPause:
		return "pause"
	case cmdStop:
		return "stop"
	case cmdClear:
		return "clear"
	case cmdSeek:
		return "seek"
	case cmdHoldProgress:
		return "holdProgress"
	default:
		return "unknown"
	}
}

type command struct {
	kind   commandKind
	source string
	ms     int64
	hold   bool
}

// Snapshot is a point-in-time view of the engine, readable from any goroutine.
type Snapshot struct {
	Session    uuid.UUID
	State      State
	Source     mo.Option[string]
	DurationMs int64
	PositionMs int64
}

// Engine is one playback session. A single goroutine owns the resource and
// every piece of state; commands are queued and never block the caller, and
// events fan out to per-subscriber queues in the order they occurred.
type Engine struct {
	id  uuid.UUID
	log log.Entry

	inbox    *mailbox[command]
	snapshot atomic.Pointer[Snapshot]

	subsMu sync.Mutex
	subs   map[uuid.UUID]*Subscription
	closed bool

	cancel   context.CancelFunc
	done     chan struct{}
	shutdown sync.Once

	// Owned by the engine goroutine.
	resource     *Resource
	sampler      *Sampler
	ramp         bufferRamp
	state        State
	pendingStart bool
	holdProgress bool
}

// Launch validates opts and starts a new engine session in its own goroutine.
func Launch(opts Options) (*Engine, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.New()

	e := &Engine{
		id:       id,
		log:      log.With(map[string]any{"session": id.String()}),
		inbox:    newMailbox[command](),
		subs:     make(map[uuid.UUID]*Subscription),
		cancel:   cancel,
		done:     make(chan struct{}),
		resource: NewResource(opts.Factory),
		sampler:  NewSampler(opts.SampleInterval),
		ramp:     bufferRamp{step: max(1, opts.BufferRampStep)},
		state:    Idle,
	}
	e.publish()

	go e.run(ctx)

	e.log.Debugf("engine session started")
	return e, nil
}

// ID identifies the engine session.
func (e *Engine) ID() uuid.UUID {
	return e.id
}

// Done is closed once the session has fully shut down.
func (e *Engine) Done() <-chan struct{} {
	return e.done
}

// Shutdown releases the resource, closes every subscription and stops the
// session goroutine. It blocks until that has happened. Must not be called
// from a goroutine the engine waits on.
func (e *Engine) Shutdown() {
	e.shutdown.Do(func() {
		e.inbox.close()
		e.cancel()
	})
	<-e.done
}

// Snapshot returns the latest published view of the engine.
func (e *Engine) Snapshot() Snapshot {
	return *e.snapshot.Load()
}

// State returns the current state.
func (e *Engine) State() State {
	return e.Snapshot().State
}

// SetResource loads source, implicitly stopping and releasing whatever is loaded.
func (e *Engine) SetResource(source string) {
	e.send(command{kind: cmdSetResource, source: source})
}

// Start begins or resumes playback. Issued while preparing, it takes effect
// as soon as the source is prepared.
func (e *Engine) Start() {
	e.send(command{kind: cmdStart})
}

func (e *Engine) Pause() {
	e.send(command{kind: cmdPause})
}

// Stop halts playback and rewinds to zero.
func (e *Engine) Stop() {
	e.send(command{kind: cmdStop})
}

// Clear releases the resource and returns the engine to Idle.
func (e *Engine) Clear() {
	e.send(command{kind: cmdClear})
}

// Seek moves to ms. It is ignored while nothing prepared is loaded.
func (e *Engine) Seek(ms int64) {
	e.send(command{kind: cmdSeek, ms: ms})
}

// HoldProgress suspends or resumes progress events, e.g. while a seek bar is dragged.
func (e *Engine) HoldProgress(hold bool) {
	e.send(command{kind: cmdHoldProgress, hold: hold})
}

// Subscribe registers a new event consumer.
func (e *Engine) Subscribe() *Subscription {
	sub := &Subscription{
		id:     uuid.New(),
		box:    newMailbox[Event](),
		engine: e,
	}

	e.subsMu.Lock()
	defer e.subsMu.Unlock()

	if e.closed {
		sub.box.close()
		return sub
	}
	e.subs[sub.id] = sub
	return sub
}

// Unsubscribe deregisters id and closes its queue. Unknown ids are ignored.
func (e *Engine) Unsubscribe(id uuid.UUID) {
	e.subsMu.Lock()
	sub, ok := e.subs[id]
	delete(e.subs, id)
	e.subsMu.Unlock()

	if ok {
		sub.box.close()
	}
}

func (e *Engine) send(c command) {
	if !e.inbox.push(c) {
		e.log.Debugf("dropping %s: engine session closed", c.kind)
	}
}

func (e *Engine) run(ctx context.Context) {
	defer close(e.done)

	for {
		select {
		case <-ctx.Done():
			e.teardown()
			return
		case <-e.inbox.wait():
			for _, c := range e.inbox.drain() {
				e.handle(c)
			}
		case signal := <-e.resource.Signals():
			e.onSignal(signal)
		case t := <-e.sampler.ticks:
			e.onTick(t)
		}
	}
}

func (e *Engine) handle(c command) {
	switch c.kind {
	case cmdSetResource:
		e.setResource(c.source)
	case cmdStart:
		e.start()
	case cmdPause:
		e.pause()
	case cmdStop:
		e.stop()
	case cmdClear:
		e.clear()
	case cmdSeek:
		e.seek(c.ms)
	case cmdHoldProgress:
		e.holdProgress = c.hold
	}
}

func (e *Engine) setResource(source string) {
	e.pendingStart = false
	if e.state == Playing {
		_ = e.resource.Stop()
	}
	e.sampler.Stop()
	e.ramp.reset()

	if err := e.resource.Open(source); err != nil {
		e.log.Warnf("open %s: %v", source, err)
		e.transition(Error, err)
		return
	}

	e.log.Infof("preparing %s", source)
	e.transition(Preparing, nil)
}

func (e *Engine) start() {
	switch e.state {
	case Playing:
		return
	case Preparing:
		e.pendingStart = true
		return
	case Paused, Stopped, Completed:
		if !e.resource.Opened() {
			e.reject(cmdStart)
			return
		}
	default:
		e.reject(cmdStart)
		return
	}

	if e.state == Completed {
		if err := e.resource.Seek(0); err != nil {
			e.fail(err)
			return
		}
	}

	if err := e.resource.Start(); err != nil {
		e.fail(err)
		return
	}

	e.transition(Playing, nil)
}

func (e *Engine) pause() {
	switch e.state {
	case Paused:
	case Preparing:
		e.pendingStart = false
	case Playing:
		if err := e.resource.Pause(); err != nil {
			e.fail(err)
			return
		}
		e.transition(Paused, nil)
	default:
		e.reject(cmdPause)
	}
}

func (e *Engine) stop() {
	switch e.state {
	case Stopped:
	case Preparing:
		e.pendingStart = false
		e.resource.Release()
		e.transition(Stopped, nil)
	case Playing, Paused, Completed:
		if err := e.resource.Stop(); err != nil {
			e.fail(err)
			return
		}
		e.transition(Stopped, nil)
	default:
		e.reject(cmdStop)
	}
}

func (e *Engine) clear() {
	if e.state == Idle {
		return
	}

	e.pendingStart = false
	if e.state == Playing {
		_ = e.resource.Stop()
	}
	e.resource.Release()
	e.transition(Idle, nil)
}

func (e *Engine) seek(ms int64) {
	if err := e.resource.Seek(ms); err != nil {
		e.fail(err)
		return
	}
	e.publish()
}

func (e *Engine) onSignal(signal decoder.Signal) {
	switch signal.Kind {
	case decoder.Prepared:
		if e.state != Preparing {
			return
		}
		e.resource.MarkPrepared()
		e.transition(Paused, nil)

		if e.pendingStart {
			e.pendingStart = false
			e.start()
		}
	case decoder.Completed:
		if e.state == Playing {
			e.transition(Completed, nil)
		}
	case decoder.Failed:
		e.fail(signal.Err)
	}
}

func (e *Engine) onTick(t tick) {
	if !e.sampler.current(t) || e.state != Playing {
		return
	}

	e.publish()
	if e.holdProgress {
		return
	}

	durationMs, currentMs := e.resource.Position()
	currentMs = max(currentMs, 0)
	if durationMs > 0 {
		currentMs = min(currentMs, durationMs)
	}

	percent, ok := e.resource.Buffered()
	if !ok {
		percent = e.ramp.next()
	}

	e.broadcast(Event{
		Kind:     EventProgress,
		Previous: Playing,
		State:    Playing,
		Progress: ProgressEvent{
			TotalMs:         durationMs,
			CurrentMs:       currentMs,
			BufferedPercent: min(max(percent, 0), 100),
		},
	})
}

// fail moves to Error and releases the resource. A failure before the source
// is prepared is an open failure, anything later is wrapped as ErrDecoder.
func (e *Engine) fail(err error) {
	kind := ErrDecoder
	if e.state == Preparing {
		kind = ErrOpenFailed
	}

	e.pendingStart = false
	e.resource.Release()
	e.log.Errorf("decoder failure: %v", err)
	e.transition(Error, fmt.Errorf("%w: %w", kind, err))
}

func (e *Engine) reject(kind commandKind) {
	err := fmt.Errorf("%w: %s while %s", ErrInvalidState, kind, e.state)
	e.log.Debugf("%v", err)
	e.broadcast(Event{Kind: EventError, Previous: e.state, State: e.state, Err: err})
}

// transition commits next, couples the sampler to Playing, publishes the
// snapshot and only then emits the state event.
func (e *Engine) transition(next State, err error) {
	previous := e.state
	e.state = next

	if next == Playing {
		e.sampler.Start()
	} else {
		e.sampler.Stop()
	}

	e.publish()
	e.log.Debugf("%s -> %s", previous, next)
	e.broadcast(Event{Kind: EventState, Previous: previous, State: next, Err: err})
}

func (e *Engine) publish() {
	durationMs, positionMs := e.resource.Position()
	source := mo.None[string]()
	if e.resource.Opened() {
		source = mo.Some(e.resource.Source())
	}

	e.snapshot.Store(&Snapshot{
		Session:    e.id,
		State:      e.state,
		Source:     source,
		DurationMs: durationMs,
		PositionMs: positionMs,
	})
}

func (e *Engine) broadcast(event Event) {
	event.Session = e.id
	event.Source = e.resource.Source()

	e.subsMu.Lock()
	defer e.subsMu.Unlock()

	for _, sub := range e.subs {
		sub.box.push(event)
	}
}

// teardown runs on the engine goroutine once the session is cancelled.
func (e *Engine) teardown() {
	e.pendingStart = false
	if e.state == Playing {
		_ = e.resource.Stop()
	}
	e.resource.Release()
	if e.state != Idle {
		e.transition(Idle, nil)
	}
	e.sampler.Stop()

	e.subsMu.Lock()
	e.closed = true
	subs := e.subs
	e.subs = make(map[uuid.UUID]*Subscription)
	e.subsMu.Unlock()

	for _, sub := range subs {
		sub.box.close()
	}

	e.log.Debugf("engine session closed")
}
