package broker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/auplay-cli/auplay/decoder"
	"github.com/auplay-cli/auplay/player"
	"github.com/google/uuid"
	. "github.com/smartystreets/goconvey/convey"
)

func syntheticLauncher(launches *atomic.Int32, duration time.Duration) Launcher {
	return func() (*player.Engine, error) {
		launches.Add(1)
		return player.Launch(player.Options{
			Factory: func() (decoder.Decoder, error) {
				return decoder.NewSynthetic(decoder.SyntheticOptions{
					Duration:     duration,
					PrepareDelay: 10 * time.Millisecond,
				}), nil
			},
			SampleInterval: 20 * time.Millisecond,
			BufferRampStep: 10,
		})
	}
}

// waitState consumes events until state is reached.
func waitState(sub *player.Subscription, state player.State) ([]player.State, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var seen []player.State
	for {
		event, err := sub.Next(ctx)
		if err != nil {
			return seen, err
		}
		if event.Kind != player.EventState {
			continue
		}
		seen = append(seen, event.State)
		if event.State == state {
			return seen, nil
		}
	}
}

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

func TestBind(t *testing.T) {
	Convey("Given a broker", t, func() {
		var launches atomic.Int32
		b := New(syntheticLauncher(&launches, time.Minute))
		defer b.Close()

		Convey("Binding is idempotent per client", func() {
			client := uuid.New()

			first, created, err := b.Bind(client)
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)
			So(first.Bound(), ShouldBeTrue)
			So(first.Client(), ShouldEqual, client)

			second, created, err := b.Bind(client)
			So(err, ShouldBeNil)
			So(created, ShouldBeFalse)
			So(second, ShouldEqual, first)
			So(b.Connections(), ShouldEqual, 1)
			So(launches.Load(), ShouldEqual, 1)
		})

		Convey("Concurrent binds share one engine session", func() {
			const clients = 8

			var wg sync.WaitGroup
			conns := make([]*Connection, clients)
			createdFlags := make([]bool, clients)
			for i := 0; i < clients; i++ {
				i := i
				wg.Add(1)
				go func() {
					defer wg.Done()
					conn, created, err := b.Bind(uuid.New())
					if err == nil {
						conns[i], createdFlags[i] = conn, created
					}
				}()
			}
			wg.Wait()

			So(launches.Load(), ShouldEqual, 1)
			var created int
			for i := 0; i < clients; i++ {
				So(conns[i], ShouldNotBeNil)
				So(conns[i].Engine(), ShouldEqual, conns[0].Engine())
				if createdFlags[i] {
					created++
				}
			}
			So(created, ShouldEqual, 1)

			Convey("and both listeners observe a single Preparing to Playing sequence", func() {
				engine := conns[0].Engine()
				subA := engine.Subscribe()
				subB := engine.Subscribe()

				engine.SetResource("a.mp3")
				conns[1].Engine().Start()

				for _, sub := range []*player.Subscription{subA, subB} {
					seen, err := waitState(sub, player.Playing)
					So(err, ShouldBeNil)
					So(seen, ShouldResemble, []player.State{player.Preparing, player.Paused, player.Playing})
				}
			})
		})

		Convey("Unbinding never stops playback", func() {
			conn, _, err := b.Bind(uuid.New())
			So(err, ShouldBeNil)
			engine := conn.Engine()
			sub := engine.Subscribe()

			engine.SetResource("a.mp3")
			engine.Start()
			_, err = waitState(sub, player.Playing)
			So(err, ShouldBeNil)

			b.Unbind(conn)
			b.Unbind(conn)
			So(conn.Bound(), ShouldBeFalse)
			So(b.Connections(), ShouldEqual, 0)

			time.Sleep(50 * time.Millisecond)
			So(engine.State(), ShouldEqual, player.Playing)
			So(b.Engine(), ShouldEqual, engine)

			Convey("and a later bind reaches the same session", func() {
				again, created, err := b.Bind(uuid.New())
				So(err, ShouldBeNil)
				So(created, ShouldBeFalse)
				So(again.Engine(), ShouldEqual, engine)
				So(again.ID(), ShouldNotEqual, conn.ID())
			})
		})

		Convey("The last unbind of an idle engine ends the session", func() {
			conn, _, err := b.Bind(uuid.New())
			So(err, ShouldBeNil)
			engine := conn.Engine()

			b.Unbind(conn)
			So(b.Engine(), ShouldBeNil)
			<-engine.Done()

			next, created, err := b.Bind(uuid.New())
			So(err, ShouldBeNil)
			So(created, ShouldBeTrue)
			So(next.Engine().ID(), ShouldNotEqual, engine.ID())
		})

		Convey("A voluntary clear with nobody bound ends the session", func() {
			conn, _, err := b.Bind(uuid.New())
			So(err, ShouldBeNil)
			engine := conn.Engine()
			sub := engine.Subscribe()

			engine.SetResource("a.mp3")
			_, err = waitState(sub, player.Paused)
			So(err, ShouldBeNil)

			b.Unbind(conn)
			So(b.Engine(), ShouldEqual, engine)

			engine.Clear()
			So(eventually(func() bool { return b.Engine() == nil }), ShouldBeTrue)
			<-engine.Done()
		})
	})
}

func TestUnattendedPlayback(t *testing.T) {
	Convey("Playback that finishes with nobody bound is cleaned up", t, func() {
		var launches atomic.Int32
		b := New(syntheticLauncher(&launches, 150*time.Millisecond))
		defer b.Close()

		conn, _, err := b.Bind(uuid.New())
		So(err, ShouldBeNil)
		engine := conn.Engine()
		sub := engine.Subscribe()

		engine.SetResource("a.mp3")
		engine.Start()
		_, err = waitState(sub, player.Playing)
		So(err, ShouldBeNil)
		b.Unbind(conn)

		seen, err := waitState(sub, player.Idle)
		So(err, ShouldBeNil)
		So(seen, ShouldResemble, []player.State{player.Completed, player.Idle})

		So(eventually(func() bool { return b.Engine() == nil }), ShouldBeTrue)
		<-engine.Done()
		So(player.OpenHandles(), ShouldEqual, 0)
	})
}

func TestBindFailures(t *testing.T) {
	Convey("Bind failures are returned to the caller", t, func() {
		boom := errors.New("no host")
		b := New(func() (*player.Engine, error) { return nil, boom })

		_, _, err := b.Bind(uuid.New())
		So(errors.Is(err, ErrBindFailed), ShouldBeTrue)
		So(errors.Is(err, boom), ShouldBeTrue)
		So(b.Connections(), ShouldEqual, 0)
	})

	Convey("A closed broker rejects binds and has ended its session", t, func() {
		var launches atomic.Int32
		b := New(syntheticLauncher(&launches, time.Minute))

		conn, _, err := b.Bind(uuid.New())
		So(err, ShouldBeNil)
		engine := conn.Engine()
		engine.SetResource("a.mp3")
		engine.Start()

		b.Close()
		b.Close()
		<-engine.Done()
		So(conn.Bound(), ShouldBeFalse)
		So(b.Engine(), ShouldBeNil)

		_, _, err = b.Bind(uuid.New())
		So(errors.Is(err, ErrBindFailed), ShouldBeTrue)
	})
}
