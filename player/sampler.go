package player

import (
	"time"
)

// tick is one sampler wake-up, stamped with the generation that produced it.
type tick struct {
	generation uint64
}

// Sampler wakes the engine at a fixed interval while it runs. Each Start
// begins a new generation; the engine drops ticks whose generation is not
// the running one, so a tick that raced a Stop is never turned into an event.
type Sampler struct {
	interval   time.Duration
	ticks      chan tick
	generation uint64
	stop       chan struct{}
}

// NewSampler returns a stopped sampler.
func NewSampler(interval time.Duration) *Sampler {
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	return &Sampler{
		interval: interval,
		ticks:    make(chan tick),
	}
}

// Start begins a new generation. A running generation is stopped first.
func (s *Sampler) Start() {
	s.Stop()

	s.generation++
	s.stop = make(chan struct{})
	go s.run(s.generation, s.stop)
}

// Stop suspends sampling. The ticker goroutine exits; it does not keep polling.
func (s *Sampler) Stop() {
	if s.stop == nil {
		return
	}
	close(s.stop)
	s.stop = nil
}

// Running reports whether a generation is active.
func (s *Sampler) Running() bool {
	return s.stop != nil
}

// current reports whether t belongs to the running generation.
func (s *Sampler) current(t tick) bool {
	return s.stop != nil && t.generation == s.generation
}

func (s *Sampler) run(generation uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			select {
			case s.ticks <- tick{generation: generation}:
			case <-stop:
				return
			}
		}
	}
}

// bufferRamp simulates buffering for decoders that report none: it climbs by
// step on every sample and never decreases until reset.
type bufferRamp struct {
	step    int
	percent int
}

func (r *bufferRamp) next() int {
	r.percent = min(100, r.percent+r.step)
	return r.percent
}

func (r *bufferRamp) reset() {
	r.percent = 0
}
