package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/auplay-cli/auplay/facade"
	"github.com/auplay-cli/auplay/icon"
	"github.com/auplay-cli/auplay/log"
	"github.com/auplay-cli/auplay/player"
	"github.com/auplay-cli/auplay/util"
	"github.com/muesli/reflow/truncate"
)

const defaultLineWidth = 80

// Line is the headless rendition of the screen: a single progress line that
// is rewritten in place. It finishes when playback stops, completes or fails.
type Line struct {
	facade.BaseListener

	out   io.Writer
	title string
	width func() int

	mu         sync.Mutex
	active     bool
	last       string
	bufferedMs int64

	done chan error
	once sync.Once
}

// NewLine returns a line writing to out. Its width follows the terminal.
func NewLine(out io.Writer, title string) *Line {
	return &Line{
		out:   out,
		title: title,
		width: terminalWidth,
		done:  make(chan error, 1),
	}
}

func terminalWidth() int {
	w, _, err := util.TerminalSize()
	if err != nil || w <= 0 {
		return defaultLineWidth
	}
	return w
}

// Done yields the reason playback ended, nil for a normal stop or completion.
func (l *Line) Done() <-chan error {
	return l.done
}

func (l *Line) finish(err error) {
	l.once.Do(func() {
		l.done <- err
	})
}

func (l *Line) SetProgress(totalMs, currentMs int64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	glyph := icon.Get(icon.Pause)
	if l.active {
		glyph = icon.Get(icon.Play)
	}

	times := fmt.Sprintf(" %s / %s", util.FormatMillis(currentMs), util.FormatMillis(totalMs))
	width := max(l.width()-1, 20)
	barWidth := max(width/3, 10)
	bar := renderBar(barWidth, currentMs, l.bufferedMs, totalMs)

	head := strings.TrimSpace(glyph + " " + l.title)
	room := width - barWidth - len(times) - 3
	if room < 1 {
		head = ""
	} else {
		head = truncate.StringWithTail(head, uint(room), "…")
	}

	l.render(fmt.Sprintf("%s [%s]%s", head, bar, times))
}

func (l *Line) SetBuffered(_, bufferedMs int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.bufferedMs = bufferedMs
}

func (l *Line) SetActive(active bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.active = active
}

func (l *Line) OnStop() {
	l.finish(nil)
}

func (l *Line) OnComplete() {
	l.finish(nil)
}

func (l *Line) OnError(err error) {
	if errors.Is(err, player.ErrInvalidState) {
		log.Warn(err)
		return
	}
	l.finish(err)
}

// render replaces the previous line with s. Callers hold l.mu.
func (l *Line) render(s string) {
	if s == l.last {
		return
	}
	l.eraseLocked()
	_, _ = fmt.Fprintf(l.out, "\r%s", s)
	l.last = s
}

func (l *Line) eraseLocked() {
	if l.last == "" {
		return
	}
	_, _ = fmt.Fprintf(l.out, "\r%s\r", strings.Repeat(" ", len(l.last)))
	l.last = ""
}

// Erase clears the line.
func (l *Line) Erase() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.eraseLocked()
}

// renderBar draws played, buffered and remaining cells.
func renderBar(width int, currentMs, bufferedMs, totalMs int64) string {
	if totalMs <= 0 {
		return strings.Repeat("-", width)
	}

	played := int(int64(width) * util.Clamp(currentMs, 0, totalMs) / totalMs)
	buffered := int(int64(width) * util.Clamp(bufferedMs, 0, totalMs) / totalMs)
	buffered = max(buffered-played, 0)

	return strings.Repeat("#", played) +
		strings.Repeat("=", buffered) +
		strings.Repeat("-", width-played-buffered)
}

// RunLine loads options.Source through f and renders it as a Line on out
// until playback ends or ctx is cancelled, in which case playback is stopped.
func RunLine(ctx context.Context, f *facade.Facade, out io.Writer, options *Options) error {
	line := NewLine(out, displayTitle(options))

	f.SetWidget(line)
	f.SetListener(facade.Listeners(line, options.Listener))
	defer func() {
		f.SetWidget(nil)
		f.SetListener(options.Listener)
	}()

	f.SetResource(options.Source)
	f.Start()

	select {
	case err := <-line.Done():
		line.Erase()
		return err
	case <-ctx.Done():
		f.Stop()
		line.Erase()
		return nil
	}
}
