package decoder

import (
	"fmt"
	"sync"
	"time"

	"github.com/auplay-cli/auplay/config"
	"github.com/auplay-cli/auplay/key"
)

// SyntheticOptions shapes the media a Synthetic decoder pretends to play.
type SyntheticOptions struct {
	Duration     time.Duration
	PrepareDelay time.Duration
}

// SyntheticOptionsFromConfig reads synthetic.duration and synthetic.prepare_delay.
func SyntheticOptionsFromConfig() SyntheticOptions {
	return SyntheticOptions{
		Duration:     config.Millis(key.SyntheticDuration),
		PrepareDelay: config.Millis(key.SyntheticPrepareDelay),
	}
}

// Synthetic is an in-process decoder driven by the wall clock. It accepts any
// http(s) source and local paths with a known audio extension; nothing is
// actually read or decoded.
type Synthetic struct {
	mu      sync.Mutex
	opts    SyntheticOptions
	signals chan Signal

	source   string
	prepared bool
	playing  bool
	released bool

	offset    time.Duration
	startedAt time.Time

	prepareTimer  *time.Timer
	completeTimer *time.Timer
}

// NewSynthetic returns an unopened synthetic decoder.
func NewSynthetic(opts SyntheticOptions) *Synthetic {
	if opts.Duration <= 0 {
		opts.Duration = 3 * time.Minute
	}
	return &Synthetic{
		opts:    opts,
		signals: make(chan Signal, 4),
	}
}

func (s *Synthetic) Open(source string) error {
	validated, err := ValidateSource(source)
	if err != nil {
		return err
	}
	if !IsRemote(validated) && !HasAudioExtension(validated) {
		return fmt.Errorf("%w: %s", ErrUnsupported, validated)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return ErrReleased
	}

	s.source = validated
	s.prepareTimer = time.AfterFunc(s.opts.PrepareDelay, func() {
		s.mu.Lock()
		if s.released {
			s.mu.Unlock()
			return
		}
		s.prepared = true
		s.mu.Unlock()
		sendSignal(s.signals, Signal{Kind: Prepared})
	})
	return nil
}

func (s *Synthetic) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	if s.playing {
		return nil
	}
	if s.offset >= s.opts.Duration {
		s.offset = 0
	}

	s.playing = true
	s.startedAt = time.Now()
	s.armCompletion()
	return nil
}

func (s *Synthetic) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	s.halt()
	return nil
}

func (s *Synthetic) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}
	s.halt()
	s.offset = 0
	return nil
}

func (s *Synthetic) Seek(ms int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.usable(); err != nil {
		return err
	}

	target := time.Duration(ms) * time.Millisecond
	if target < 0 {
		target = 0
	}
	if target > s.opts.Duration {
		target = s.opts.Duration
	}

	s.offset = target
	if s.playing {
		s.startedAt = time.Now()
		s.armCompletion()
	}
	return nil
}

func (s *Synthetic) Position() (durationMs, currentMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.prepared {
		return 0, 0
	}
	return s.opts.Duration.Milliseconds(), s.current().Milliseconds()
}

// Buffered reports no native buffering state, so the sampler ramps instead.
func (s *Synthetic) Buffered() (int, bool) {
	return 0, false
}

func (s *Synthetic) Signals() <-chan Signal {
	return s.signals
}

func (s *Synthetic) Release() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return nil
	}
	s.released = true
	s.playing = false
	if s.prepareTimer != nil {
		s.prepareTimer.Stop()
	}
	if s.completeTimer != nil {
		s.completeTimer.Stop()
	}
	return nil
}

// Source returns the validated source passed to Open.
func (s *Synthetic) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source
}

func (s *Synthetic) usable() error {
	if s.released {
		return ErrReleased
	}
	if !s.prepared {
		return ErrNotPrepared
	}
	return nil
}

func (s *Synthetic) current() time.Duration {
	pos := s.offset
	if s.playing {
		pos += time.Since(s.startedAt)
	}
	if pos > s.opts.Duration {
		pos = s.opts.Duration
	}
	return pos
}

// halt freezes the clock at the current position. Callers hold mu.
func (s *Synthetic) halt() {
	if s.playing {
		s.offset = s.current()
	}
	s.playing = false
	if s.completeTimer != nil {
		s.completeTimer.Stop()
	}
}

// armCompletion schedules the Completed signal for the remaining time. Callers hold mu.
func (s *Synthetic) armCompletion() {
	if s.completeTimer != nil {
		s.completeTimer.Stop()
	}

	startedAt := s.startedAt
	s.completeTimer = time.AfterFunc(s.opts.Duration-s.offset, func() {
		s.mu.Lock()
		if s.released || !s.playing || s.startedAt != startedAt {
			s.mu.Unlock()
			return
		}
		s.offset = s.opts.Duration
		s.playing = false
		s.mu.Unlock()
		sendSignal(s.signals, Signal{Kind: Completed})
	})
}
