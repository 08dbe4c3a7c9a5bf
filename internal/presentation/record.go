package presentation

import (
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/page"
)

// PageFile names the frame of page index as written by export.
func PageFile(index int) string {
	return fmt.Sprintf("page-%03d.png", index+1)
}

// Recorder writes a timing line for every page change.
type Recorder struct {
	w      io.Writer
	now    func() time.Time
	logger *zap.Logger
	lines  int
}

// NewRecorder creates a recorder writing to w and registers it with pres.
// A nil now uses the wall clock.
func NewRecorder(pres *Presentation, w io.Writer, now func() time.Time, logger *zap.Logger) *Recorder {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Recorder{w: w, now: now, logger: logger}
	pres.OnPageChanged(r.pageChanged)
	return r
}

// Lines returns how many lines were written.
func (r *Recorder) Lines() int { return r.lines }

func (r *Recorder) pageChanged(_ *page.Page, index int) {
	t := float64(r.now().UnixMilli()) / 1000
	if _, err := fmt.Fprintf(r.w, "%.1f %s\n", t, PageFile(index)); err != nil {
		r.logger.Warn("record timing", zap.Error(err))
		return
	}
	r.lines++
}
