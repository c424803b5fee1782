package history

import (
	"sync"

	"github.com/auplay-cli/auplay/facade"
	"github.com/auplay-cli/auplay/log"
)

// Seeker is the part of a facade a Resumer drives.
type Seeker interface {
	Seek(ms int64)
}

// Resumer seeks to a saved position the first time its source is prepared.
type Resumer struct {
	facade.BaseListener

	seeker Seeker
	at     int64
	once   sync.Once
}

// NewResumer returns a listener that seeks s to entry's resume position.
// A nil or finished entry resumes nothing.
func NewResumer(s Seeker, entry *Entry) *Resumer {
	r := &Resumer{seeker: s}
	if entry != nil {
		r.at = entry.ResumeAt()
	}
	return r
}

func (r *Resumer) OnPrepared() {
	if r.at <= 0 {
		return
	}

	r.once.Do(func() {
		log.Debugf("resuming at %d ms", r.at)
		r.seeker.Seek(r.at)
	})
}
