package player

import (
	"fmt"
	"sync/atomic"

	"github.com/auplay-cli/auplay/decoder"
)

var openHandles atomic.Int64

// OpenHandles returns the number of decoder handles currently open in the process.
func OpenHandles() int64 {
	return openHandles.Load()
}

// Resource owns at most one open decoder handle. It is not safe for
// concurrent use; the engine goroutine is its only caller.
type Resource struct {
	factory  decoder.Factory
	handle   decoder.Decoder
	source   string
	prepared bool
}

// NewResource returns an empty resource that opens handles from factory.
func NewResource(factory decoder.Factory) *Resource {
	return &Resource{factory: factory}
}

// Open releases any open handle, then opens source on a fresh one.
func (r *Resource) Open(source string) error {
	r.Release()

	handle, err := r.factory()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOpenFailed, source, err)
	}

	if err := handle.Open(source); err != nil {
		_ = handle.Release()
		return fmt.Errorf("%w: %s: %w", ErrOpenFailed, source, err)
	}

	r.handle = handle
	r.source = source
	openHandles.Add(1)
	return nil
}

// Opened reports whether a handle is held.
func (r *Resource) Opened() bool {
	return r.handle != nil
}

// Source returns the source of the open handle, or "".
func (r *Resource) Source() string {
	return r.source
}

// MarkPrepared records that the decoder finished preparing, which enables seeking.
func (r *Resource) MarkPrepared() {
	if r.handle != nil {
		r.prepared = true
	}
}

// Prepared reports whether the open handle is ready.
func (r *Resource) Prepared() bool {
	return r.prepared
}

func (r *Resource) Start() error {
	if r.handle == nil {
		return nil
	}
	return r.handle.Start()
}

func (r *Resource) Pause() error {
	if r.handle == nil {
		return nil
	}
	return r.handle.Pause()
}

// Stop pauses and rewinds to zero.
func (r *Resource) Stop() error {
	if r.handle == nil {
		return nil
	}
	return r.handle.Stop()
}

// Seek moves to ms clamped into [0, duration]. It is ignored while nothing
// prepared is open.
func (r *Resource) Seek(ms int64) error {
	if r.handle == nil || !r.prepared {
		return nil
	}

	duration, _ := r.handle.Position()
	if ms < 0 {
		ms = 0
	}
	if duration > 0 && ms > duration {
		ms = duration
	}
	return r.handle.Seek(ms)
}

// Position returns the last known duration and position, or zeros without a handle.
func (r *Resource) Position() (durationMs, currentMs int64) {
	if r.handle == nil {
		return 0, 0
	}
	return r.handle.Position()
}

// Buffered returns the decoder's buffered-ahead percentage if it has one.
func (r *Resource) Buffered() (int, bool) {
	if r.handle == nil {
		return 0, false
	}
	return r.handle.Buffered()
}

// Signals returns the open handle's signal channel. Without a handle it is
// nil, which blocks forever in a select.
func (r *Resource) Signals() <-chan decoder.Signal {
	if r.handle == nil {
		return nil
	}
	return r.handle.Signals()
}

// Release frees the handle. Calling it again is a no-op.
func (r *Resource) Release() {
	if r.handle == nil {
		return
	}

	_ = r.handle.Release()
	openHandles.Add(-1)

	r.handle = nil
	r.source = ""
	r.prepared = false
}
