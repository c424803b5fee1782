// Package facade is the client-side entry point to playback: one Facade per
// UI surface, bound through the broker to the shared engine.
//
// Commands are no-ops while unbound. Events are pulled from the engine by a
// per-facade goroutine and handed to a single listener slot and an optional
// widget.
//
// Destroy keeps playback alive while the engine is Playing and leaves the
// facade bound and usable; a later Clear, Stop or Destroy through the same
// facade tears down normally. If every facade goes away while Playing,
// playback continues, the broker clears the engine once it stops on its own,
// and any new facade that binds meanwhile reaches the same session.
package facade

import (
	"context"
	"sync"

	"github.com/auplay-cli/auplay/broker"
	"github.com/auplay-cli/auplay/log"
	"github.com/auplay-cli/auplay/player"
	"github.com/auplay-cli/auplay/util"
	"github.com/google/uuid"
)

// Facade is safe for concurrent use.
type Facade struct {
	id     uuid.UUID
	broker *broker.Broker

	mu       sync.Mutex
	conn     *broker.Connection
	sub      *player.Subscription
	listener Listener
	widget   Widget
}

// New returns an unbound facade on b.
func New(b *broker.Broker) *Facade {
	return &Facade{
		id:     uuid.New(),
		broker: b,
	}
}

// ID identifies the facade as a broker client.
func (f *Facade) ID() uuid.UUID {
	return f.id
}

// Bind connects to the shared engine. onBound, if not nil, runs once the
// connection is established and reports whether a new engine session was
// started. Binding a bound facade calls onBound(false) and changes nothing.
// Bind failures wrap broker.ErrBindFailed.
func (f *Facade) Bind(onBound func(created bool)) error {
	f.mu.Lock()

	if f.conn != nil && f.conn.Bound() {
		f.mu.Unlock()
		if onBound != nil {
			onBound(false)
		}
		return nil
	}

	conn, created, err := f.broker.Bind(f.id)
	if err != nil {
		f.mu.Unlock()
		return err
	}

	sub := conn.Engine().Subscribe()
	f.conn = conn
	f.sub = sub
	f.mu.Unlock()

	go f.deliver(sub)

	if onBound != nil {
		onBound(created)
	}
	return nil
}

// Unbind deregisters from the engine and releases the connection. Playback is untouched.
func (f *Facade) Unbind() {
	f.mu.Lock()
	conn, sub := f.conn, f.sub
	f.conn, f.sub = nil, nil
	f.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
	if conn != nil {
		f.broker.Unbind(conn)
	}
}

// Bound reports whether the facade holds an active connection.
func (f *Facade) Bound() bool {
	return f.engine() != nil
}

// SetListener installs l, replacing any previous listener. Nil removes it.
func (f *Facade) SetListener(l Listener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listener = l
}

// SetWidget installs the UI element kept in sync with playback. Nil removes it.
func (f *Facade) SetWidget(w Widget) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.widget = w
}

func (f *Facade) SetResource(source string) {
	if e := f.engine(); e != nil {
		e.SetResource(source)
	}
}

func (f *Facade) Start() {
	if e := f.engine(); e != nil {
		e.Start()
	}
}

func (f *Facade) Pause() {
	if e := f.engine(); e != nil {
		e.Pause()
	}
}

func (f *Facade) Stop() {
	if e := f.engine(); e != nil {
		e.Stop()
	}
}

func (f *Facade) Clear() {
	if e := f.engine(); e != nil {
		e.Clear()
	}
}

func (f *Facade) Seek(ms int64) {
	if e := f.engine(); e != nil {
		e.Seek(ms)
	}
}

func (f *Facade) HoldProgress(hold bool) {
	if e := f.engine(); e != nil {
		e.HoldProgress(hold)
	}
}

// Destroy clears and unbinds unless the engine is Playing, in which case it
// does nothing so that playback outlives the UI.
func (f *Facade) Destroy() {
	e := f.engine()
	if e == nil {
		return
	}

	if e.State() == player.Playing {
		log.Debugf("facade %s: destroy deferred while playing", f.id)
		return
	}

	e.Clear()
	f.Unbind()
}

// IsPlaying reports whether the bound engine is Playing.
func (f *Facade) IsPlaying() bool {
	return f.State() == player.Playing
}

// State returns the bound engine's state, or Idle when unbound.
func (f *Facade) State() player.State {
	if e := f.engine(); e != nil {
		return e.State()
	}
	return player.Idle
}

// Snapshot returns the bound engine's snapshot. ok is false when unbound.
func (f *Facade) Snapshot() (snapshot player.Snapshot, ok bool) {
	if e := f.engine(); e != nil {
		return e.Snapshot(), true
	}
	return snapshot, false
}

func (f *Facade) engine() *player.Engine {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.conn == nil || !f.conn.Bound() {
		return nil
	}
	return f.conn.Engine()
}

func (f *Facade) targets() (Listener, Widget) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listener, f.widget
}

// deliver pumps sub into the listener and widget until the subscription closes.
func (f *Facade) deliver(sub *player.Subscription) {
	var totalMs int64

	for {
		event, err := sub.Next(context.Background())
		if err != nil {
			return
		}

		listener, widget := f.targets()
		if listener == nil {
			listener = BaseListener{}
		}

		switch event.Kind {
		case player.EventState:
			dispatchState(event, listener, widget, totalMs)
			if event.State == player.Idle {
				totalMs = 0
			}
		case player.EventProgress:
			p := event.Progress
			totalMs = p.TotalMs

			listener.OnProgress(p.TotalMs, p.CurrentMs)
			listener.OnBufferProgress(p.TotalMs, p.BufferedMs(), p.BufferedPercent)
			if widget != nil {
				widget.SetProgress(p.TotalMs, util.Clamp(p.CurrentMs, 0, p.TotalMs))
				widget.SetBuffered(p.TotalMs, p.BufferedMs())
			}
		case player.EventError:
			listener.OnError(event.Err)
		}
	}
}

func dispatchState(event player.Event, listener Listener, widget Widget, totalMs int64) {
	if observer, ok := listener.(StateObserver); ok {
		observer.OnStateChange(event.Previous, event.State)
	}

	switch event.State {
	case player.Paused:
		if event.Previous == player.Preparing {
			listener.OnPrepared()
		} else {
			listener.OnPause()
		}
	case player.Playing:
		listener.OnStart()
	case player.Stopped:
		listener.OnStop()
	case player.Completed:
		listener.OnComplete()
	case player.Error:
		listener.OnError(event.Err)
	}

	if widget == nil {
		return
	}

	widget.SetActive(event.State == player.Playing)
	switch event.State {
	case player.Stopped:
		widget.SetProgress(totalMs, 0)
	case player.Completed:
		widget.SetProgress(totalMs, totalMs)
	case player.Idle, player.Preparing:
		widget.SetProgress(0, 0)
		widget.SetBuffered(0, 0)
	}
}
