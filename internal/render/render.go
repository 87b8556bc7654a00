// Package render turns API records into Markdown and prints it to a terminal,
// through glamour when the output is a terminal and as plain wrapped text otherwise.
package render

import (
	"fmt"
	"io"
	"os"
	"time"

	"ghclient/internal/logging"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
)

const defaultWidth = 100

// Renderer writes Markdown documents to an output stream.
type Renderer struct {
	out    io.Writer
	style  string
	width  int
	plain  bool
	logger *logging.AppLogger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithStyle selects a glamour standard style ("dark", "light", "notty", ...).
func WithStyle(style string) Option {
	return func(r *Renderer) { r.style = style }
}

// WithWidth sets the wrap width.
func WithWidth(width int) Option {
	return func(r *Renderer) {
		if width > 0 {
			r.width = width
		}
	}
}

// WithPlain disables Markdown styling.
func WithPlain(plain bool) Option {
	return func(r *Renderer) { r.plain = plain }
}

// New creates a renderer for out. Styling is disabled when out is not a
// terminal.
func New(out io.Writer, logger *logging.AppLogger, opts ...Option) *Renderer {
	if logger == nil {
		logger = logging.GetDefault()
	}
	r := &Renderer{
		out:    out,
		width:  defaultWidth,
		logger: logger,
	}
	if f, ok := out.(*os.File); ok {
		output := termenv.NewOutput(f)
		r.plain = output.Profile == termenv.Ascii
	} else {
		r.plain = true
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.style == "" && !r.plain {
		r.style = DetectStyle(out, 200*time.Millisecond)
	}
	return r
}

// DetectStyle picks "dark" or "light" from the terminal background. A
// GLAMOUR_STYLE environment variable wins; "dark" is used when detection does
// not finish within timeout.
func DetectStyle(out io.Writer, timeout time.Duration) string {
	defaultStyle := "dark"

	style := os.Getenv("GLAMOUR_STYLE")
	if style != "" && style != "auto" {
		return style
	}

	ch := make(chan string, 1)
	go func() {
		output := termenv.NewOutput(out)
		if output.HasDarkBackground() {
			ch <- "dark"
			return
		}
		ch <- "light"
	}()

	select {
	case s := <-ch:
		return s
	case <-time.After(timeout):
		return defaultStyle
	}
}

// Markdown renders md and writes it to the output.
func (r *Renderer) Markdown(md string) error {
	text, err := r.Render(md)
	if err != nil {
		return err
	}
	_, err = io.WriteString(r.out, text)
	return err
}

// Render returns the rendered form of md.
func (r *Renderer) Render(md string) (string, error) {
	if r.plain {
		return wordwrap.String(md, r.width) + "\n", nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.style),
		glamour.WithWordWrap(r.width),
	)
	if err != nil {
		r.logger.Error("Failed to create glamour renderer", "error", err)
		return "", fmt.Errorf("failed to create renderer: %w", err)
	}
	out, err := renderer.Render(md)
	if err != nil {
		r.logger.Error("Failed to render markdown", "error", err)
		return "", fmt.Errorf("failed to render markdown: %w", err)
	}
	return out, nil
}

// Println writes a single unstyled line.
func (r *Renderer) Println(a ...any) {
	fmt.Fprintln(r.out, a...)
}
