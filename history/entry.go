package history

import (
	"fmt"
	"time"

	"github.com/auplay-cli/auplay/key"
	"github.com/auplay-cli/auplay/util"
	"github.com/spf13/viper"
)

// Entry is the saved playback position of one media source.
type Entry struct {
	Source     string    `json:"source"`
	PositionMs int64     `json:"position_ms"`
	DurationMs int64     `json:"duration_ms"`
	Percent    float64   `json:"percent"`
	MaxPercent float64   `json:"max_percent"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Finished reports whether the source was ever played past history.completion_percentage.
func (e *Entry) Finished() bool {
	return e.MaxPercent >= float64(viper.GetInt(key.HistoryCompletionPercentage))
}

// ResumeAt is where playback should continue: the saved position, or zero once finished.
func (e *Entry) ResumeAt() int64 {
	if e.Finished() {
		return 0
	}
	return e.PositionMs
}

func (e *Entry) String() string {
	return fmt.Sprintf("%s : %s / %s (%.0f%%)",
		e.Source,
		util.FormatMillis(e.PositionMs),
		util.FormatMillis(e.DurationMs),
		e.Percent,
	)
}

func percentOf(positionMs, durationMs int64) float64 {
	if durationMs <= 0 {
		return 0
	}
	return min(100, float64(positionMs)*100/float64(durationMs))
}
