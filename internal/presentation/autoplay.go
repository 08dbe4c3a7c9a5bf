package presentation

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/anim"
	"github.com/dshills/lectern/internal/page"
)

// Timing is one recorded page change.
type Timing struct {
	At   float64
	File string
}

// ReadTimings parses "timestamp filename" lines. Blank lines are skipped.
func ReadTimings(r io.Reader) ([]Timing, error) {
	var out []Timing
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		at, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadTiming, n, err)
		}
		t := Timing{At: at}
		if len(fields) > 1 {
			t.File = fields[1]
		}
		out = append(out, t)
	}
	return out, sc.Err()
}

// AutoPlayerOption configures an AutoPlayer.
type AutoPlayerOption func(*AutoPlayer)

// WithTimings replays recorded page changes.
func WithTimings(ts []Timing) AutoPlayerOption {
	return func(a *AutoPlayer) { a.timings = ts }
}

// WithDelay advances one page per delay.
func WithDelay(d time.Duration) AutoPlayerOption {
	return func(a *AutoPlayer) { a.delay = d }
}

// WithLoop jumps back to the first page after the last.
func WithLoop(loop bool) AutoPlayerOption {
	return func(a *AutoPlayer) { a.loop = loop }
}

// WithPlayerLogger sets the logger.
func WithPlayerLogger(logger *zap.Logger) AutoPlayerOption {
	return func(a *AutoPlayer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// AutoPlayer changes pages on its own, either at recorded times or at a
// fixed pace. Schedules are relative to the first page change it sees, so
// setup time does not count.
type AutoPlayer struct {
	pres    *Presentation
	sched   *anim.Scheduler
	timings []Timing
	delay   time.Duration
	loop    bool
	logger  *zap.Logger

	started bool
	due     []time.Duration
	pending anim.ID
}

// NewAutoPlayer creates a player and registers it with pres.
func NewAutoPlayer(pres *Presentation, opts ...AutoPlayerOption) *AutoPlayer {
	a := &AutoPlayer{
		pres:   pres,
		sched:  pres.Scheduler(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	pres.OnPageChanged(a.pageChanged)
	return a
}

// Remaining returns how many page changes are still scheduled.
func (a *AutoPlayer) Remaining() int { return len(a.due) }

// Stop cancels the pending page change and any that would follow.
func (a *AutoPlayer) Stop() {
	if a.pending != 0 {
		a.sched.Cancel(a.pending)
		a.pending = 0
	}
	a.due = nil
}

// plan computes when each following page change is due.
func (a *AutoPlayer) plan() {
	now := a.sched.Now()
	a.due = a.due[:0]
	if len(a.timings) > 0 {
		base := a.timings[0].At
		for _, t := range a.timings[1:] {
			a.due = append(a.due, now+time.Duration((t.At-base)*float64(time.Second)))
		}
		return
	}
	if a.delay <= 0 {
		return
	}
	for n := 1; n < a.pres.Len(); n++ {
		a.due = append(a.due, now+time.Duration(n)*a.delay)
	}
}

// loopDelay is the pause on the last page before looping.
func (a *AutoPlayer) loopDelay() time.Duration {
	if a.delay > 0 {
		return a.delay
	}
	if n := len(a.timings); n > 1 {
		return time.Duration((a.timings[n-1].At - a.timings[n-2].At) * float64(time.Second))
	}
	return time.Second
}

func (a *AutoPlayer) pageChanged(_ *page.Page, index int) {
	if a.pending != 0 {
		a.sched.Cancel(a.pending)
		a.pending = 0
	}
	switch {
	case !a.started:
		a.started = true
		a.plan()
	case index == a.pres.Len()-1 && a.loop:
		a.due = nil
		a.pending = a.sched.After(a.loopDelay(), func() {
			a.pending = 0
			a.started = false
			a.logger.Debug("autoplay loop")
			a.pres.First()
		})
		return
	}
	if len(a.due) == 0 {
		return
	}
	next := a.due[0]
	a.due = a.due[1:]
	a.pending = a.sched.After(max(next-a.sched.Now(), 0), func() {
		a.pending = 0
		a.pres.Move(1)
	})
}
