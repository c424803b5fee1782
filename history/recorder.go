package history

import (
	"sync"

	"github.com/auplay-cli/auplay/facade"
	"github.com/auplay-cli/auplay/key"
	"github.com/auplay-cli/auplay/log"
	"github.com/spf13/viper"
)

// Recorder is a facade listener that saves the position of one source
// whenever playback pauses, stops, completes or fails.
type Recorder struct {
	facade.BaseListener

	source string

	mu         sync.Mutex
	positionMs int64
	durationMs int64
}

// NewRecorder returns a recorder for source.
func NewRecorder(source string) *Recorder {
	return &Recorder{source: source}
}

func (r *Recorder) OnProgress(totalMs, currentMs int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.positionMs, r.durationMs = currentMs, totalMs
}

func (r *Recorder) OnPause() {
	r.flush()
}

func (r *Recorder) OnStop() {
	r.flush()
}

func (r *Recorder) OnError(error) {
	r.flush()
}

func (r *Recorder) OnComplete() {
	r.mu.Lock()
	r.positionMs = r.durationMs
	r.mu.Unlock()
	r.flush()
}

// Flush saves the last seen position now.
func (r *Recorder) Flush() error {
	if !viper.GetBool(key.HistorySave) {
		return nil
	}

	r.mu.Lock()
	positionMs, durationMs := r.positionMs, r.durationMs
	r.mu.Unlock()

	if durationMs <= 0 {
		return nil
	}
	return Save(r.source, positionMs, durationMs)
}

func (r *Recorder) flush() {
	if err := r.Flush(); err != nil {
		log.Warnf("saving history for %s: %v", r.source, err)
	}
}
