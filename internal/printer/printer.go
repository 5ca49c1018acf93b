// Package printer renders user-facing command output. Log lines go to the
// zerolog file logger; everything a human is meant to read goes through a
// Printer so styling stays consistent and testable.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"

	"github.com/colonyops/tally/internal/core/styles"
)

type ctxKey struct{}

// Printer writes styled lines to an output writer.
type Printer struct {
	out   io.Writer
	plain bool
}

// New creates a Printer writing to out. Styling is disabled when out is not
// a terminal.
func New(out io.Writer) *Printer {
	plain := true
	if f, ok := out.(*os.File); ok {
		plain = !term.IsTerminal(int(f.Fd()))
	}
	return &Printer{out: out, plain: plain}
}

// WithCtx stores the printer on the context.
func WithCtx(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the printer from the context, or a stdout printer.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stdout)
}

// Println writes an unstyled line.
func (p *Printer) Println(a ...any) {
	fmt.Fprintln(p.out, a...)
}

// Printf writes unstyled formatted text.
func (p *Printer) Printf(format string, a ...any) {
	fmt.Fprintf(p.out, format, a...)
}

// Titlef writes a bold heading line.
func (p *Printer) Titlef(format string, a ...any) {
	p.styledLine(styles.Title, format, a...)
}

// Infof writes an informational line.
func (p *Printer) Infof(format string, a ...any) {
	p.styledLine(styles.Subtitle, format, a...)
}

// Mutedf writes a de-emphasized line.
func (p *Printer) Mutedf(format string, a ...any) {
	p.styledLine(styles.Muted, format, a...)
}

// Successf writes a success line with an OK icon.
func (p *Printer) Successf(format string, a ...any) {
	p.styledLine(styles.Success, styles.IconOK+" "+format, a...)
}

// Warnf writes a warning line.
func (p *Printer) Warnf(format string, a ...any) {
	p.styledLine(styles.Warning, styles.IconWarn+" "+format, a...)
}

// Errorf writes an error line.
func (p *Printer) Errorf(format string, a ...any) {
	p.styledLine(styles.Error, styles.IconError+" "+format, a...)
}

func (p *Printer) styledLine(style interface{ Render(...string) string }, format string, a ...any) {
	text := fmt.Sprintf(format, a...)
	if !p.plain {
		text = style.Render(text)
	}
	fmt.Fprintln(p.out, text)
}
