package player

import (
	"errors"
	"testing"
	"time"

	"github.com/auplay-cli/auplay/decoder"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

// toPaused loads source and waits until the engine is prepared.
func toPaused(e *Engine, ff *fakeFactory, sub *Subscription, source string) {
	e.SetResource(source)
	ev, err := nextState(sub)
	So(err, ShouldBeNil)
	So(ev.State, ShouldEqual, Preparing)

	ff.last().prepare()
	ev, err = nextState(sub)
	So(err, ShouldBeNil)
	So(ev.State, ShouldEqual, Paused)
}

func TestEngineScenarios(t *testing.T) {
	Convey("Given a running engine", t, func() {
		e, ff := newTestEngine(t, 20*time.Millisecond)
		defer e.Shutdown()
		sub := e.Subscribe()

		Convey("Loading, preparing and starting reaches Playing exactly once", func() {
			e.SetResource("a.mp3")

			ev, err := next(sub)
			So(err, ShouldBeNil)
			So(ev.Kind, ShouldEqual, EventState)
			So(ev.Previous, ShouldEqual, Idle)
			So(ev.State, ShouldEqual, Preparing)
			So(ev.Source, ShouldEqual, "a.mp3")
			So(ev.Session, ShouldEqual, e.ID())

			ff.last().prepare()
			ev, err = next(sub)
			So(err, ShouldBeNil)
			So(ev.Previous, ShouldEqual, Preparing)
			So(ev.State, ShouldEqual, Paused)

			e.Start()
			e.Start()
			e.Pause()

			var states []State
			for {
				ev, err := nextState(sub)
				So(err, ShouldBeNil)
				states = append(states, ev.State)
				if ev.State == Paused {
					break
				}
			}
			So(states, ShouldResemble, []State{Playing, Paused})
			So(e.State(), ShouldEqual, Paused)
		})

		Convey("Starting while Idle is rejected without a state change", func() {
			e.Start()

			ev, err := next(sub)
			So(err, ShouldBeNil)
			So(ev.Kind, ShouldEqual, EventError)
			So(ev.State, ShouldEqual, Idle)
			So(errors.Is(ev.Err, ErrInvalidState), ShouldBeTrue)
			So(e.State(), ShouldEqual, Idle)
		})

		Convey("A bad source moves to Error and a good one recovers", func() {
			e.SetResource("bad://x")

			ev, err := next(sub)
			So(err, ShouldBeNil)
			So(ev.Kind, ShouldEqual, EventState)
			So(ev.State, ShouldEqual, Error)
			So(errors.Is(ev.Err, ErrOpenFailed), ShouldBeTrue)
			So(errors.Is(ev.Err, decoder.ErrUnsupported), ShouldBeTrue)

			toPaused(e, ff, sub, "good.mp3")
			e.Start()

			ev, err = nextState(sub)
			So(err, ShouldBeNil)
			So(ev.Previous, ShouldEqual, Paused)
			So(ev.State, ShouldEqual, Playing)
		})

		Convey("Start immediately followed by Stop emits no progress", func() {
			toPaused(e, ff, sub, "a.mp3")

			e.Start()
			e.Stop()

			events := collect(sub, 150*time.Millisecond)
			kinds := lo.Map(events, func(ev Event, _ int) EventKind { return ev.Kind })
			So(kinds, ShouldNotContain, EventProgress)

			states := lo.Map(events, func(ev Event, _ int) State { return ev.State })
			So(states, ShouldResemble, []State{Playing, Stopped})
		})

		Convey("A factory failure is an open failure", func() {
			ff.failNext = errBoom
			e.SetResource("a.mp3")

			ev, err := next(sub)
			So(err, ShouldBeNil)
			So(ev.State, ShouldEqual, Error)
			So(errors.Is(ev.Err, ErrOpenFailed), ShouldBeTrue)
			So(errors.Is(ev.Err, errBoom), ShouldBeTrue)
		})
	})
}

func TestEngineProgress(t *testing.T) {
	Convey("Given a playing engine", t, func() {
		e, ff := newTestEngine(t, 20*time.Millisecond)
		defer e.Shutdown()
		sub := e.Subscribe()

		toPaused(e, ff, sub, "a.mp3")
		e.Start()
		ev, err := next(sub)
		So(err, ShouldBeNil)
		So(ev.State, ShouldEqual, Playing)

		Convey("Progress is only ever emitted while Playing", func() {
			var progress int
			for progress < 3 {
				ev, err := next(sub)
				So(err, ShouldBeNil)
				if ev.Kind == EventProgress {
					progress++
				}
			}

			e.Pause()
			ev, err := nextState(sub)
			So(err, ShouldBeNil)
			So(ev.State, ShouldEqual, Paused)

			events := collect(sub, 120*time.Millisecond)
			So(events, ShouldBeEmpty)
		})

		Convey("Progress carries position, duration and a monotonic buffer ramp", func() {
			var samples []ProgressEvent
			for len(samples) < 5 {
				ev, err := next(sub)
				So(err, ShouldBeNil)
				if ev.Kind == EventProgress {
					So(ev.State, ShouldEqual, Playing)
					samples = append(samples, ev.Progress)
				}
			}

			So(samples[0].TotalMs, ShouldEqual, 1000)
			So(samples[0].BufferedPercent, ShouldEqual, 25)
			So(samples[4].BufferedPercent, ShouldEqual, 100)
			for i := 1; i < len(samples); i++ {
				So(samples[i].BufferedPercent, ShouldBeGreaterThanOrEqualTo, samples[i-1].BufferedPercent)
				So(samples[i].CurrentMs, ShouldBeGreaterThanOrEqualTo, samples[i-1].CurrentMs)
				So(samples[i].CurrentMs, ShouldBeLessThanOrEqualTo, samples[i].TotalMs)
			}
			So(samples[4].BufferedMs(), ShouldEqual, 1000)
		})

		Convey("Holding progress suppresses samples until released", func() {
			e.HoldProgress(true)
			e.Pause()
			_, err := nextState(sub)
			So(err, ShouldBeNil)

			e.Start()
			ev, err := next(sub)
			So(err, ShouldBeNil)
			So(ev.State, ShouldEqual, Playing)
			So(collect(sub, 100*time.Millisecond), ShouldBeEmpty)

			e.HoldProgress(false)
			ev, err = next(sub)
			So(err, ShouldBeNil)
			So(ev.Kind, ShouldEqual, EventProgress)
		})

		Convey("Natural completion moves to Completed and start replays from zero", func() {
			ff.last().complete()
			ev, err := nextState(sub)
			So(err, ShouldBeNil)
			So(ev.State, ShouldEqual, Completed)
			So(collect(sub, 80*time.Millisecond), ShouldBeEmpty)

			e.Start()
			ev, err = nextState(sub)
			So(err, ShouldBeNil)
			So(ev.State, ShouldEqual, Playing)
			So(ff.last().called("seek"), ShouldBeTrue)
		})

		Convey("A decoder failure moves to Error and releases the handle", func() {
			handle := ff.last()
			handle.fail(errBoom)

			ev, err := nextState(sub)
			So(err, ShouldBeNil)
			So(ev.State, ShouldEqual, Error)
			So(errors.Is(ev.Err, ErrDecoder), ShouldBeTrue)
			So(errors.Is(ev.Err, errBoom), ShouldBeTrue)
			So(handle.isReleased(), ShouldBeTrue)
			So(e.Snapshot().Source.IsAbsent(), ShouldBeTrue)

			Convey("and only Clear or a new resource recovers", func() {
				e.Start()
				ev, err := next(sub)
				So(err, ShouldBeNil)
				So(ev.Kind, ShouldEqual, EventError)

				e.Clear()
				ev, err = next(sub)
				So(err, ShouldBeNil)
				So(ev.State, ShouldEqual, Idle)
			})
		})

		Convey("Loading while Playing stops and releases the previous handle first", func() {
			first := ff.last()
			e.SetResource("b.mp3")

			ev, err := nextState(sub)
			So(err, ShouldBeNil)
			So(ev.Previous, ShouldEqual, Playing)
			So(ev.State, ShouldEqual, Preparing)
			So(first.isReleased(), ShouldBeTrue)
			So(first.called("stop"), ShouldBeTrue)

			live, maxLive := ff.stats()
			So(live, ShouldEqual, 1)
			So(maxLive, ShouldEqual, 1)
		})
	})
}

func TestEngineLifecycle(t *testing.T) {
	Convey("Given a running engine", t, func() {
		e, ff := newTestEngine(t, 20*time.Millisecond)
		defer e.Shutdown()
		sub := e.Subscribe()

		Convey("Clear is idempotent", func() {
			toPaused(e, ff, sub, "a.mp3")

			e.Clear()
			e.Clear()
			e.Start()

			ev, err := next(sub)
			So(err, ShouldBeNil)
			So(ev.State, ShouldEqual, Idle)

			ev, err = next(sub)
			So(err, ShouldBeNil)
			So(ev.Kind, ShouldEqual, EventError)
			So(ev.State, ShouldEqual, Idle)

			live, _ := ff.stats()
			So(live, ShouldEqual, 0)
			So(e.Snapshot().Source.IsAbsent(), ShouldBeTrue)
		})

		Convey("At most one handle is open for any sequence of loads", func() {
			for _, source := range []string{"a.mp3", "b.mp3", "bad://x", "c.mp3", "d.mp3"} {
				e.SetResource(source)
			}
			So(eventually(func() bool {
				src, ok := e.Snapshot().Source.Get()
				return ok && src == "d.mp3"
			}), ShouldBeTrue)
			So(e.State(), ShouldEqual, Preparing)

			live, maxLive := ff.stats()
			So(live, ShouldEqual, 1)
			So(maxLive, ShouldEqual, 1)
			So(OpenHandles(), ShouldBeLessThanOrEqualTo, 1)

			src, ok := e.Snapshot().Source.Get()
			So(ok, ShouldBeTrue)
			So(src, ShouldEqual, "d.mp3")
		})

		Convey("Start while Preparing is deferred until prepared", func() {
			e.SetResource("a.mp3")
			e.Start()

			ev, err := next(sub)
			So(err, ShouldBeNil)
			So(ev.State, ShouldEqual, Preparing)

			ff.last().prepare()
			ev, err = next(sub)
			So(err, ShouldBeNil)
			So(ev.State, ShouldEqual, Paused)
			ev, err = next(sub)
			So(err, ShouldBeNil)
			So(ev.State, ShouldEqual, Playing)
		})

		Convey("Stop while Preparing cancels the prepare", func() {
			e.SetResource("a.mp3")
			e.Start()
			e.Stop()

			ev, err := next(sub)
			So(err, ShouldBeNil)
			So(ev.State, ShouldEqual, Preparing)
			ev, err = next(sub)
			So(err, ShouldBeNil)
			So(ev.State, ShouldEqual, Stopped)

			handle := ff.last()
			So(handle.isReleased(), ShouldBeTrue)
			handle.prepare()

			e.Start()
			ev, err = next(sub)
			So(err, ShouldBeNil)
			So(ev.Kind, ShouldEqual, EventError)
			So(ev.State, ShouldEqual, Stopped)
		})

		Convey("A decoder failure while Preparing is an open failure", func() {
			e.SetResource("unsupported.mp3")
			ev, err := nextState(sub)
			So(err, ShouldBeNil)
			So(ev.State, ShouldEqual, Preparing)

			handle := ff.last()
			handle.fail(errors.New("unrecognized file format"))

			ev, err = nextState(sub)
			So(err, ShouldBeNil)
			So(ev.State, ShouldEqual, Error)
			So(errors.Is(ev.Err, ErrOpenFailed), ShouldBeTrue)
			So(errors.Is(ev.Err, ErrDecoder), ShouldBeFalse)
			So(handle.isReleased(), ShouldBeTrue)

			live, _ := ff.stats()
			So(live, ShouldEqual, 0)
		})

		Convey("Seek is ignored until prepared and clamped afterwards", func() {
			e.SetResource("a.mp3")
			e.Seek(500)
			_, err := next(sub)
			So(err, ShouldBeNil)
			So(ff.last().called("seek"), ShouldBeFalse)

			ff.last().prepare()
			_, err = next(sub)
			So(err, ShouldBeNil)

			e.Seek(5000)
			So(eventually(func() bool { return e.Snapshot().PositionMs == 1000 }), ShouldBeTrue)
		})

		Convey("Pause and Stop are rejected where they make no sense", func() {
			e.Pause()
			e.Stop()

			for n := 0; n < 2; n++ {
				ev, err := next(sub)
				So(err, ShouldBeNil)
				So(ev.Kind, ShouldEqual, EventError)
				So(errors.Is(ev.Err, ErrInvalidState), ShouldBeTrue)
			}
		})

		Convey("Shutdown releases the resource and closes subscriptions", func() {
			toPaused(e, ff, sub, "a.mp3")
			other := e.Subscribe()

			e.Shutdown()

			ev, err := next(sub)
			So(err, ShouldBeNil)
			So(ev.State, ShouldEqual, Idle)
			_, err = next(sub)
			So(err, ShouldEqual, ErrEngineClosed)

			_, err = next(other)
			So(err, ShouldBeNil)
			_, err = next(other)
			So(err, ShouldEqual, ErrEngineClosed)

			So(ff.last().isReleased(), ShouldBeTrue)

			late := e.Subscribe()
			_, err = next(late)
			So(err, ShouldEqual, ErrEngineClosed)
		})

		Convey("Unsubscribed consumers stop receiving events", func() {
			sub.Close()
			e.Start()
			_, err := next(sub)
			So(err, ShouldEqual, ErrEngineClosed)
		})
	})
}

func TestLaunch(t *testing.T) {
	Convey("Launch requires a decoder factory", t, func() {
		_, err := Launch(Options{})
		So(err, ShouldNotBeNil)
	})
}
