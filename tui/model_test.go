package tui

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/auplay-cli/auplay/broker"
	"github.com/auplay-cli/auplay/decoder"
	"github.com/auplay-cli/auplay/facade"
	"github.com/auplay-cli/auplay/player"
	tea "github.com/charmbracelet/bubbletea"
	. "github.com/smartystreets/goconvey/convey"
)

func newBroker() *broker.Broker {
	return broker.New(func() (*player.Engine, error) {
		return player.Launch(player.Options{
			Factory: func() (decoder.Decoder, error) {
				return decoder.NewSynthetic(decoder.SyntheticOptions{
					Duration:     time.Minute,
					PrepareDelay: 10 * time.Millisecond,
				}), nil
			},
			SampleInterval: 15 * time.Millisecond,
			BufferRampStep: 25,
		})
	})
}

func keyPress(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel(t *testing.T) {
	Convey("Given a screen on an unbound facade", t, func() {
		b := newBroker()
		defer b.Close()

		m := newModel(facade.New(b), &Options{Source: "/music/album/track 01.flac"})
		m.Update(tea.WindowSizeMsg{Width: 84, Height: 24})

		So(m.title, ShouldEqual, "track 01")
		So(m.width, ShouldEqual, 80)
		So(m.state, ShouldEqual, player.Idle)

		Convey("progress is kept within the duration", func() {
			m.Update(progressMsg{totalMs: 180_000, currentMs: 200_000})
			m.Update(bufferedMsg{totalMs: 180_000, bufferedMs: 90_000})

			So(m.currentMs, ShouldEqual, 180_000)
			So(m.percent(), ShouldEqual, 1)
			So(m.bufferedPercent(), ShouldEqual, 0.5)
			So(m.View(), ShouldContainSubstring, "3:00")
			So(m.View(), ShouldContainSubstring, "buffered 50%")
		})

		Convey("rejected commands become notifications", func() {
			_, cmd := m.Update(errorMsg{err: fmt.Errorf("%w: pause in idle", player.ErrInvalidState)})
			So(cmd, ShouldNotBeNil)
			So(m.lastErr, ShouldBeNil)

			m.Update(cmd())
			So(m.View(), ShouldContainSubstring, "pause in idle")
		})

		Convey("other errors stay on screen until the next load", func() {
			m.Update(errorMsg{err: errors.New("decoder exited")})
			So(m.View(), ShouldContainSubstring, "decoder exited")

			m.Update(stateMsg{previous: player.Error, current: player.Preparing})
			So(m.lastErr, ShouldBeNil)
		})

		Convey("seeking needs a loaded resource", func() {
			m.Update(progressMsg{totalMs: 10_000, currentMs: 4_000})
			m.Update(keyPress("l"))
			So(m.currentMs, ShouldEqual, 4_000)

			m.Update(stateMsg{previous: player.Playing, current: player.Paused})
			m.Update(keyPress("l"))
			So(m.currentMs, ShouldEqual, 5_000)
			m.Update(keyPress("h"))
			m.Update(keyPress("h"))
			So(m.currentMs, ShouldEqual, 3_000)
		})

		Convey("q quits", func() {
			_, cmd := m.Update(keyPress("q"))
			So(cmd, ShouldNotBeNil)
			So(cmd(), ShouldHaveSameTypeAs, tea.QuitMsg{})
		})

		Convey("? toggles the full help", func() {
			m.Update(keyPress("?"))
			So(m.helpC.ShowAll, ShouldBeTrue)
		})
	})
}

func TestScreenDrivesPlayback(t *testing.T) {
	Convey("Key presses reach the engine and its events come back to the screen", t, func() {
		b := newBroker()
		defer b.Close()

		f := facade.New(b)
		So(f.Bind(nil), ShouldBeNil)

		msgs := make(chan tea.Msg, 1024)
		br := &bridge{send: func(msg tea.Msg) { msgs <- msg }}
		f.SetWidget(br)
		f.SetListener(br)

		m := newModel(f, &Options{Source: "https://radio.example/stream.mp3", Title: "Radio"})
		So(m.title, ShouldEqual, "Radio")
		So(m.Init()(), ShouldBeNil)

		pump := func(until func() bool) bool {
			deadline := time.After(2 * time.Second)
			for !until() {
				select {
				case msg := <-msgs:
					m.Update(msg)
				case <-deadline:
					return false
				}
			}
			return true
		}

		So(pump(func() bool { return m.state == player.Playing && m.active && m.currentMs > 0 }), ShouldBeTrue)
		So(m.totalMs, ShouldEqual, time.Minute.Milliseconds())

		m.Update(keyPress(" "))
		So(pump(func() bool { return m.state == player.Paused && !m.active }), ShouldBeTrue)

		m.Update(keyPress("s"))
		So(pump(func() bool { return m.state == player.Stopped && m.currentMs == 0 }), ShouldBeTrue)
	})
}
