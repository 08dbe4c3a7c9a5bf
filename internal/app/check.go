package app

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/page"
)

// PageInfo summarizes one compiled page.
type PageInfo struct {
	Title  string
	Groups int
	Source page.Span
}

// Report is the result of Check.
type Report struct {
	Pages    []PageInfo
	Warnings []error
}

// Check compiles the markup at path for a terminal of width columns and
// summarizes it.
func Check(path string, spec StyleSpec, width int, logger *zap.Logger) (*Report, error) {
	deck, err := LoadDeck(path, spec, TerminalTarget(width), nil, logger)
	if deck == nil {
		return nil, err
	}
	defer deck.Release()

	r := &Report{Warnings: deck.Warnings}
	for _, p := range deck.Pages {
		r.Pages = append(r.Pages, PageInfo{Title: p.Title(), Groups: len(p.Groups()), Source: p.Source()})
	}
	return r, err
}

// Write prints the report, one line per page and per warning.
func (r *Report) Write(w io.Writer) error {
	for i, p := range r.Pages {
		title := p.Title
		if title == "" {
			title = "(untitled)"
		}
		if _, err := fmt.Fprintf(w, "%3d  %-40s groups=%d bytes=%d-%d\n", i+1, title, p.Groups, p.Source.Start, p.Source.End); err != nil {
			return err
		}
	}
	for _, warn := range r.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %v\n", warn); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%d pages, %d warnings\n", len(r.Pages), len(r.Warnings))
	return err
}
