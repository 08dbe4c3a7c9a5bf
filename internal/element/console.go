package element

import (
	"os"
	"os/exec"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/mattn/go-shellwords"
	"go.uber.org/zap"

	"github.com/dshills/lectern/internal/engine/document"
	"github.com/dshills/lectern/internal/engine/style"
	"github.com/dshills/lectern/internal/process"
	"github.com/dshills/lectern/internal/renderer/backend"
	"github.com/dshills/lectern/internal/renderer/batch"
	"github.com/dshills/lectern/internal/renderer/core"
	"github.com/dshills/lectern/internal/renderer/font"
	"github.com/dshills/lectern/internal/renderer/layout"
)

const (
	consoleCols     = 80
	consoleRows     = 10
	consoleTabWidth = 8
	maxScrollback   = 1000
	exitedBanner    = "\n[process exited]\n"
)

// Console is an interactive session with a child process. Output is
// appended to a scrolled text box; typed lines are echoed locally and sent
// to the process's stdin on Enter.
//
// A console is drawn on one surface at a time. The process starts on the
// first placement and is stopped by Remove(nil).
type Console struct {
	owner

	command string
	argv    []string
	opts    options
	sup     *process.Supervisor
	ownSup  bool
	session *process.Session

	doc     *document.Document
	tabs    *layout.TabExpander
	lay     *layout.Layout
	surface document.Surface
	bg      *batch.Item
	x, y    int

	baseW, baseH int
	w, h         int
	alpha        uint8

	input      []rune
	inputStart int
	history    []string
	histPos    int
	partial    []byte
	lines      int
	exited     bool
}

// NewConsole prepares a console running command, split with shell quoting
// rules. The executable is resolved now; the process starts when the
// console is first placed.
func NewConsole(command string, opts ...Option) (*Console, error) {
	argv, err := shellwords.Parse(command)
	if err != nil {
		return nil, &ResourceError{Path: command, Err: err}
	}
	if len(argv) == 0 {
		return nil, &ResourceError{Path: command, Err: process.ErrEmptyCommand}
	}
	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, &ResourceError{Path: argv[0], Err: err}
	}

	o := buildOptions(opts)
	face := o.fonts.Face(font.Spec{Name: o.fontName, Size: o.fontSize})
	w, h := o.width, o.height
	if w == 0 {
		w = consoleCols * max(font.Advance(face, 'M'), 1)
	}
	if h == 0 {
		h = consoleRows * max(font.LineHeight(face), 1)
	}

	c := &Console{
		command: command,
		argv:    argv,
		opts:    o,
		sup:     o.supervisor,
		tabs:    layout.NewTabExpander(consoleTabWidth),
		baseW:   w,
		baseH:   h,
		w:       w,
		h:       h,
		alpha:   255,
	}
	if c.sup == nil {
		c.sup = process.NewSupervisor(process.WithLogger(o.logger))
		c.ownSup = true
	}
	c.doc = document.New(style.Attrs{
		style.KeyFontName: style.String(o.fontName),
		style.KeyFontSize: style.Float(o.fontSize),
		style.KeyColor:    style.Color(o.fg),
	})
	return c, nil
}

// Command returns the command line the console runs.
func (c *Console) Command() string { return c.command }

// Text returns everything shown in the console.
func (c *Console) Text() string { return c.doc.Text() }

// Input returns the line being typed.
func (c *Console) Input() string { return string(c.input) }

// Running reports whether the process has been started and not yet
// stopped.
func (c *Console) Running() bool { return c.session != nil && !c.exited }

func (c *Console) start() error {
	if c.session != nil {
		return nil
	}
	s, err := process.NewSession(c.sup, c.argv[0], c.argv, c.opts.dir)
	if err != nil {
		return &ResourceError{Path: c.argv[0], Err: err}
	}
	c.session = s
	c.exited = false
	c.opts.logger.Info("console started",
		zap.String("command", c.command),
		zap.String("process", s.Process().ID),
		zap.Int("pid", s.Process().PID()))
	return nil
}

// Metrics implements document.Element.
func (c *Console) Metrics() document.Metrics {
	return document.Metrics{Ascent: c.h, Advance: c.w}
}

// Place implements document.Element.
func (c *Console) Place(s document.Surface, x, y int) error {
	if c.surface != nil && c.surface != s {
		c.Remove(c.surface)
	}
	if c.lay != nil {
		if x == c.x && y == c.y {
			return nil
		}
		c.x, c.y = x, y
		c.lay.SetPosition(x, y-c.h)
		c.bg.SetRect(core.R(x, y-c.h, c.w, c.h))
		c.bg.SetClip(s.Clip())
		return nil
	}

	b := s.Batch()
	if b == nil {
		return nil
	}
	if err := c.start(); err != nil {
		return err
	}
	c.surface = s
	c.x, c.y = x, y
	c.bg = b.AddQuad(c.opts.layer-1, core.R(x, y-c.h, c.w, c.h), c.opts.bg.ScaleAlpha(c.alpha))
	c.bg.SetClip(s.Clip())
	c.lay = layout.New(c.doc, b, c.opts.fonts,
		layout.WithLayer(c.opts.layer),
		layout.WithColor(c.opts.fg),
		layout.WithTabWidth(consoleTabWidth),
		layout.WithLogger(c.opts.logger))
	if err := c.lay.Enter(x, y-c.h, c.w, c.h, layout.VAlignTop); err != nil {
		return err
	}
	c.scrollToEnd()
	return nil
}

// Remove implements document.Element. Remove(nil) also stops the process.
func (c *Console) Remove(s document.Surface) {
	if c.lay != nil && (s == nil || s == c.surface) {
		c.lay.Leave()
		c.lay = nil
		c.bg.Remove()
		c.bg = nil
		c.surface = nil
	}
	if s != nil {
		return
	}
	if c.session != nil {
		if err := c.session.Close(); err != nil {
			c.opts.logger.Warn("console close", zap.String("command", c.command), zap.Error(err))
		}
		c.session = nil
	}
	if c.ownSup {
		c.sup.Shutdown(time.Second)
	}
}

// SetOpacity implements document.Element.
func (c *Console) SetOpacity(v uint8) {
	if v == c.alpha {
		return
	}
	c.alpha = v
	if c.bg != nil {
		c.bg.SetColor(c.opts.bg.ScaleAlpha(v))
	}
	c.edit(func() {
		_ = c.doc.SetStyle(0, c.doc.Len(), style.Attrs{style.KeyColor: style.Color(c.opts.fg.ScaleAlpha(v))})
	})
}

// SetScale implements document.Element.
func (c *Console) SetScale(f float64) {
	if f <= 0 {
		return
	}
	w, h := scaled(c.baseW, f), scaled(c.baseH, f)
	if w == c.w && h == c.h {
		return
	}
	c.w, c.h = w, h
	if c.lay != nil {
		c.bg.SetRect(core.R(c.x, c.y-h, w, h))
		c.lay.SetPosition(c.x, c.y-h)
		if err := c.lay.Resize(w, h); err != nil {
			c.opts.logger.Warn("console resize", zap.Error(err))
		}
		c.scrollToEnd()
	}
	c.changed(c)
}

// Update drains process output into the text box.
func (c *Console) Update(time.Duration) {
	if c.session == nil || c.exited {
		return
	}
	chunks := c.session.Output().Drain()
	if len(chunks) > 0 {
		for _, ch := range chunks {
			c.partial = append(c.partial, ch...)
		}
		var text []byte
		text, c.partial = splitUTF8(c.partial)
		c.appendOutput(sanitize(string(text)))
	}
	if c.session.EOF() && c.session.Output().Len() == 0 {
		c.exited = true
		c.appendOutput(exitedBanner)
		c.opts.logger.Info("console exited",
			zap.String("command", c.command),
			zap.Int("code", c.session.Process().ExitCode()))
	}
}

// appendOutput inserts text before the line being typed.
func (c *Console) appendOutput(text string) {
	if text == "" {
		return
	}
	tail := c.lineTail()
	rs := []rune(c.tabs.ExpandTabs(tail + text))
	out := string(rs[utf8.RuneCountInString(tail):])
	c.edit(func() {
		if err := c.doc.InsertText(c.inputStart, out, c.colorAttrs()); err != nil {
			c.opts.logger.Warn("console output", zap.Error(err))
			return
		}
		c.inputStart += utf8.RuneCountInString(out)
		c.lines += strings.Count(out, "\n")
		c.trim()
	})
}

// lineTail returns the output after the last newline, which decides where
// the next tab stop is.
func (c *Console) lineTail() string {
	head := c.doc.Slice(0, c.inputStart)
	if i := strings.LastIndexByte(head, '\n'); i >= 0 {
		return head[i+1:]
	}
	return head
}

// trim drops the oldest lines past the scrollback limit.
func (c *Console) trim() {
	for c.lines > maxScrollback {
		end := -1
		for i, r := range c.doc.Runes(0) {
			if r == '\n' {
				end = i + 1
				break
			}
		}
		if end <= 0 || end > c.inputStart {
			return
		}
		if err := c.doc.DeleteText(0, end); err != nil {
			return
		}
		c.inputStart -= end
		c.lines--
	}
}

func (c *Console) colorAttrs() style.Attrs {
	return style.Attrs{style.KeyColor: style.Color(c.opts.fg.ScaleAlpha(c.alpha))}
}

// edit runs fn inside an update bracket so the text box re-flows once.
func (c *Console) edit(fn func()) {
	if c.lay == nil {
		fn()
		return
	}
	if err := c.lay.BeginUpdate(); err != nil {
		fn()
		return
	}
	fn()
	_ = c.lay.EndUpdate()
	c.scrollToEnd()
}

func (c *Console) scrollToEnd() {
	if c.lay == nil {
		return
	}
	c.lay.SetView(0, max(c.lay.ContentHeight()-c.h, 0))
}

// HandleKey implements KeyHandler. Navigation keys are left to the page.
func (c *Console) HandleKey(ev backend.Event) bool {
	if ev.Type != backend.EventKey || c.lay == nil || c.session == nil || c.alpha == 0 {
		return false
	}
	switch ev.Key {
	case backend.KeyRune:
		c.typeText(string(ev.Rune))
	case backend.KeyTab:
		c.typeText("\t")
	case backend.KeyBackspace:
		if len(c.input) == 0 {
			return true
		}
		c.input = c.input[:len(c.input)-1]
		c.edit(func() {
			_ = c.doc.DeleteText(c.doc.Len()-1, c.doc.Len())
		})
	case backend.KeyEnter:
		c.submit()
	case backend.KeyUp:
		c.recall(-1)
	case backend.KeyDown:
		c.recall(1)
	case backend.KeyCtrlC:
		if c.exited {
			return false
		}
		_ = c.session.Process().Signal(os.Interrupt)
	default:
		return false
	}
	return true
}

func (c *Console) typeText(s string) {
	if c.exited {
		return
	}
	c.input = append(c.input, []rune(s)...)
	c.edit(func() {
		_ = c.doc.InsertText(c.doc.Len(), s, c.colorAttrs())
	})
}

func (c *Console) submit() {
	line := string(c.input)
	if line != "" && (len(c.history) == 0 || c.history[len(c.history)-1] != line) {
		c.history = append(c.history, line)
	}
	c.histPos = len(c.history)
	c.input = nil
	c.edit(func() {
		_ = c.doc.InsertText(c.doc.Len(), "\n", c.colorAttrs())
		c.inputStart = c.doc.Len()
		c.lines++
		c.trim()
	})
	c.session.Write([]byte(line + "\n"))
}

// recall replaces the typed line with a history entry; dir is -1 for
// older and 1 for newer. Moving past the newest entry clears the line.
func (c *Console) recall(dir int) {
	pos := c.histPos + dir
	if pos < 0 || pos > len(c.history) {
		return
	}
	c.histPos = pos
	line := ""
	if pos < len(c.history) {
		line = c.history[pos]
	}
	c.input = []rune(line)
	c.edit(func() {
		_ = c.doc.DeleteText(c.inputStart, c.doc.Len())
		_ = c.doc.InsertText(c.inputStart, line, c.colorAttrs())
	})
}

// splitUTF8 splits b before a trailing incomplete rune.
func splitUTF8(b []byte) (complete, rest []byte) {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if !utf8.FullRune(b[i:]) {
			return b[:i], append([]byte(nil), b[i:]...)
		}
		break
	}
	return b, nil
}

// sanitize drops carriage returns, escape sequences and other control
// characters except newline and tab.
func sanitize(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); {
		r, n := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == 0x1b:
			i += escapeLen(s[i:])
			continue
		case r == '\n' || r == '\t':
			sb.WriteRune(r)
		case r < 0x20 || r == 0x7f || r == document.Sentinel:
		default:
			sb.WriteRune(r)
		}
		i += n
	}
	return sb.String()
}

// escapeLen returns the length of the escape sequence at the start of s.
func escapeLen(s string) int {
	if len(s) < 2 {
		return len(s)
	}
	switch s[1] {
	case '[':
		for i := 2; i < len(s); i++ {
			if s[i] >= 0x40 && s[i] <= 0x7e {
				return i + 1
			}
		}
		return len(s)
	case ']':
		for i := 2; i < len(s); i++ {
			if s[i] == 0x07 {
				return i + 1
			}
			if s[i] == 0x1b && i+1 < len(s) && s[i+1] == '\\' {
				return i + 2
			}
		}
		return len(s)
	default:
		return 2
	}
}
