package player

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/auplay-cli/auplay/decoder"
	"github.com/samber/lo"
)

// fakeDecoder is a scripted decoder: tests fire its signals by hand.
type fakeDecoder struct {
	mu       sync.Mutex
	signals  chan decoder.Signal
	source   string
	duration int64
	position int64
	playing  bool
	released bool
	calls    []string
	owner    *fakeFactory
}

func (f *fakeDecoder) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeDecoder) Open(source string) error {
	f.record("open")
	validated, err := decoder.ValidateSource(source)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.source = validated
	f.mu.Unlock()

	f.owner.opened()
	return nil
}

func (f *fakeDecoder) Start() error {
	f.record("start")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = true
	return nil
}

func (f *fakeDecoder) Pause() error {
	f.record("pause")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	return nil
}

func (f *fakeDecoder) Stop() error {
	f.record("stop")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playing = false
	f.position = 0
	return nil
}

func (f *fakeDecoder) Seek(ms int64) error {
	f.record("seek")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.position = ms
	return nil
}

func (f *fakeDecoder) Position() (int64, int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.playing && f.position < f.duration {
		f.position += 10
	}
	return f.duration, f.position
}

func (f *fakeDecoder) Buffered() (int, bool) {
	return 0, false
}

func (f *fakeDecoder) Signals() <-chan decoder.Signal {
	return f.signals
}

func (f *fakeDecoder) Release() error {
	f.mu.Lock()
	already := f.released
	f.released = true
	f.mu.Unlock()

	if !already {
		f.record("release")
		f.owner.released(f)
	}
	return nil
}

func (f *fakeDecoder) prepare() {
	f.signals <- decoder.Signal{Kind: decoder.Prepared}
}

func (f *fakeDecoder) complete() {
	f.signals <- decoder.Signal{Kind: decoder.Completed}
}

func (f *fakeDecoder) fail(err error) {
	f.signals <- decoder.Signal{Kind: decoder.Failed, Err: err}
}

func (f *fakeDecoder) called(call string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return lo.Contains(f.calls, call)
}

func (f *fakeDecoder) isReleased() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.released
}

// fakeFactory hands out fake decoders and tracks how many are open at once.
type fakeFactory struct {
	mu       sync.Mutex
	handles  []*fakeDecoder
	live     int
	maxLive  int
	failNext error
}

func (ff *fakeFactory) factory() (decoder.Decoder, error) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	if ff.failNext != nil {
		err := ff.failNext
		ff.failNext = nil
		return nil, err
	}

	d := &fakeDecoder{
		signals:  make(chan decoder.Signal, 4),
		duration: 1000,
		owner:    ff,
	}
	ff.handles = append(ff.handles, d)
	return d, nil
}

func (ff *fakeFactory) opened() {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	ff.live++
	ff.maxLive = max(ff.maxLive, ff.live)
}

func (ff *fakeFactory) released(d *fakeDecoder) {
	ff.mu.Lock()
	defer ff.mu.Unlock()

	d.mu.Lock()
	wasOpen := d.source != ""
	d.mu.Unlock()

	if wasOpen {
		ff.live--
	}
}

func (ff *fakeFactory) last() *fakeDecoder {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	if len(ff.handles) == 0 {
		return nil
	}
	return ff.handles[len(ff.handles)-1]
}

func (ff *fakeFactory) stats() (live, maxLive int) {
	ff.mu.Lock()
	defer ff.mu.Unlock()
	return ff.live, ff.maxLive
}

func newTestEngine(t *testing.T, interval time.Duration) (*Engine, *fakeFactory) {
	t.Helper()

	ff := &fakeFactory{}
	e, err := Launch(Options{
		Factory:        ff.factory,
		SampleInterval: interval,
		BufferRampStep: 25,
	})
	if err != nil {
		t.Fatal(err)
	}
	return e, ff
}

// next waits for the next event or fails after a generous timeout.
func next(sub *Subscription) (Event, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return sub.Next(ctx)
}

// nextState skips progress events until the next state or error event.
func nextState(sub *Subscription) (Event, error) {
	for {
		event, err := next(sub)
		if err != nil || event.Kind != EventProgress {
			return event, err
		}
	}
}

// collect gathers events until the subscription is quiet for d.
func collect(sub *Subscription, d time.Duration) []Event {
	var events []Event
	for {
		ctx, cancel := context.WithTimeout(context.Background(), d)
		event, err := sub.Next(ctx)
		cancel()
		if err != nil {
			return events
		}
		events = append(events, event)
	}
}

var errBoom = errors.New("boom")
