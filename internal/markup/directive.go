package markup

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mattn/go-shellwords"
	"go.uber.org/multierr"

	"github.com/dshills/lectern/internal/config"
	"github.com/dshills/lectern/internal/decoration"
	"github.com/dshills/lectern/internal/element"
	"github.com/dshills/lectern/internal/engine/style"
	"github.com/dshills/lectern/internal/renderer/core"
)

func (c *compiler) directive(d *Directive, ctx blockCtx) {
	off := d.Source().Start
	arg := d.Args
	if arg == "" {
		arg = strings.TrimSpace(d.Body)
	}
	switch d.Name {
	case DirectiveStyle:
		c.styleDirective(d.Body, c.line(off))
	case DirectiveDecoration:
		spec, err := decoration.Parse(strings.Split(d.Body, "\n"))
		for _, e := range multierr.Errors(err) {
			line := c.line(off)
			var le *decoration.LineError
			if errors.As(e, &le) && line > 0 {
				line += le.Line - 1
			}
			c.warnLine(line, e)
		}
		c.deco = spec
	case DirectiveLoadStyle:
		if arg == "" {
			c.warn(off, fmt.Errorf("%w: %s", ErrMissingArgument, d.Name))
			return
		}
		s, err := config.Load(arg, config.WithDir(c.dir), config.WithLogger(c.logger))
		if err != nil {
			c.warn(off, err)
			return
		}
		c.setSheet(s, off)
	case DirectiveFooter:
		footer := arg
		c.footer = &footer
	case DirectiveVideo:
		c.video(arg, ctx, off)
	case DirectiveConsole:
		c.console(arg, ctx, off)
	case DirectivePlugin:
		c.plugin(arg, ctx, off)
	}
}

// styleDirective applies "section.option = value" lines. first is the
// line number of the first body line.
func (c *compiler) styleDirective(body string, first int) {
	for i, line := range strings.Split(body, "\n") {
		at := 0
		if first > 0 {
			at = first + i
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok {
			k, v, ok = strings.Cut(line, ":")
		}
		if !ok {
			c.warnLine(at, fmt.Errorf("%w: %q", ErrDirectiveSyntax, line))
			continue
		}
		if err := c.raw.SetOption(strings.TrimSpace(k), strings.TrimSpace(v)); err != nil {
			c.warnLine(at, err)
		}
	}
	c.restyle()
}

// elementOptions returns the shared element options followed by extra.
func (c *compiler) elementOptions(extra ...element.Option) []element.Option {
	opts := make([]element.Option, 0, len(c.elemOpts)+2+len(extra))
	opts = append(opts, element.WithLogger(c.logger), element.WithFonts(c.fonts))
	opts = append(opts, c.elemOpts...)
	return append(opts, extra...)
}

// video embeds "path [width=N] [height=N] [loop=BOOL] [sar=F]".
func (c *compiler) video(arg string, ctx blockCtx, off int) {
	words, err := shellwords.Parse(arg)
	if err != nil {
		c.warn(off, fmt.Errorf("%w: %v", ErrDirectiveSyntax, err))
		return
	}
	if len(words) == 0 {
		c.warn(off, fmt.Errorf("%w: %s", ErrMissingArgument, DirectiveVideo))
		return
	}
	w, h, rest, err := sizeArgs(words[1:])
	if err != nil {
		c.warn(off, err)
		return
	}
	extra := []element.Option{element.WithSize(w, h)}
	if v, ok := rest["loop"]; ok {
		loop, err := strconv.ParseBool(v)
		if err != nil {
			c.warn(off, fmt.Errorf("%w: loop=%q", ErrDirectiveSyntax, v))
		}
		extra = append(extra, element.WithLoop(loop))
	}
	if v, ok := rest["sar"]; ok {
		sar, err := strconv.ParseFloat(v, 64)
		if err != nil || sar <= 0 {
			c.warn(off, fmt.Errorf("%w: sar=%q", ErrDirectiveSyntax, v))
		} else {
			extra = append(extra, element.WithSampleAspect(sar))
		}
	}
	v, err := element.OpenVideo(c.path(words[0]), c.elementOptions(extra...)...)
	if err != nil {
		c.warn(off, err)
		return
	}
	c.embed(v, ctx)
}

// console embeds an interactive session running arg.
func (c *compiler) console(arg string, ctx blockCtx, off int) {
	if arg == "" {
		c.warn(off, fmt.Errorf("%w: %s", ErrMissingArgument, DirectiveConsole))
		return
	}
	fg, bg := core.White, core.Black
	if v, ok := c.sheet.Lookup(config.SectionLiteralBlock, style.KeyColor); ok {
		fg = v.AsColor(fg)
	}
	if v, ok := c.sheet.Lookup(config.SectionLiteralBlock, style.KeyBackground); ok {
		bg = v.AsColor(bg)
	}
	lit := c.sheet.Resolved(config.SectionLiteral)
	extra := []element.Option{
		element.WithDir(c.dir),
		element.WithColors(fg, bg),
		element.WithFont(lit[style.KeyFontName].AsString(""), lit[style.KeyFontSize].AsFloat(0)),
	}
	if c.sup != nil {
		extra = append(extra, element.WithSupervisor(c.sup))
	}
	con, err := element.NewConsole(arg, c.elementOptions(extra...)...)
	if err != nil {
		c.warn(off, err)
		return
	}
	c.embed(con, ctx)
}

// plugin embeds "name args" from the registry.
func (c *compiler) plugin(arg string, ctx blockCtx, off int) {
	name, args, _ := strings.Cut(arg, " ")
	if name == "" {
		c.warn(off, fmt.Errorf("%w: %s", ErrMissingArgument, DirectivePlugin))
		return
	}
	text := c.sheet.Resolved(config.SectionDefault)
	extra := []element.Option{
		element.WithColors(text[style.KeyColor].AsColor(core.Black), core.Transparent),
		element.WithFont(text[style.KeyFontName].AsString(""), text[style.KeyFontSize].AsFloat(0)),
	}
	el, err := c.registry.New(name, strings.TrimSpace(args), c.elementOptions(extra...)...)
	if err != nil {
		c.warn(off, err)
		return
	}
	c.embed(el, ctx)
}
