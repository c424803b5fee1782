package facade

import (
	"github.com/auplay-cli/auplay/player"
	"github.com/samber/lo"
)

// Listener receives a facade's events on the facade's delivery goroutine,
// one at a time and in the order they happened.
type Listener interface {
	OnPrepared()
	OnStart()
	OnPause()
	OnStop()
	OnComplete()
	OnError(err error)
	OnProgress(totalMs, currentMs int64)
	OnBufferProgress(totalMs, bufferedMs int64, percent int)
}

// StateObserver is an optional extension of Listener that sees every
// transition, including the ones without a dedicated callback.
type StateObserver interface {
	OnStateChange(previous, current player.State)
}

// BaseListener implements Listener with no-ops, for embedding.
type BaseListener struct{}

func (BaseListener) OnPrepared()                        {}
func (BaseListener) OnStart()                           {}
func (BaseListener) OnPause()                           {}
func (BaseListener) OnStop()                            {}
func (BaseListener) OnComplete()                        {}
func (BaseListener) OnError(error)                      {}
func (BaseListener) OnProgress(int64, int64)            {}
func (BaseListener) OnBufferProgress(int64, int64, int) {}

// Listeners combines several listeners into one slot value. Nil entries are skipped.
func Listeners(listeners ...Listener) Listener {
	return multiListener(lo.Filter(listeners, func(l Listener, _ int) bool {
		return l != nil
	}))
}

type multiListener []Listener

func (m multiListener) OnPrepared() {
	for _, l := range m {
		l.OnPrepared()
	}
}

func (m multiListener) OnStart() {
	for _, l := range m {
		l.OnStart()
	}
}

func (m multiListener) OnPause() {
	for _, l := range m {
		l.OnPause()
	}
}

func (m multiListener) OnStop() {
	for _, l := range m {
		l.OnStop()
	}
}

func (m multiListener) OnComplete() {
	for _, l := range m {
		l.OnComplete()
	}
}

func (m multiListener) OnError(err error) {
	for _, l := range m {
		l.OnError(err)
	}
}

func (m multiListener) OnProgress(totalMs, currentMs int64) {
	for _, l := range m {
		l.OnProgress(totalMs, currentMs)
	}
}

func (m multiListener) OnBufferProgress(totalMs, bufferedMs int64, percent int) {
	for _, l := range m {
		l.OnBufferProgress(totalMs, bufferedMs, percent)
	}
}

func (m multiListener) OnStateChange(previous, current player.State) {
	for _, l := range m {
		if observer, ok := l.(StateObserver); ok {
			observer.OnStateChange(previous, current)
		}
	}
}

// Widget is a UI element that mirrors playback. It never drives state.
type Widget interface {
	// SetProgress moves the progress indicator; current is within [0, total].
	SetProgress(totalMs, currentMs int64)
	SetBuffered(totalMs, bufferedMs int64)

	// SetActive toggles the playing indicator.
	SetActive(active bool)
}
