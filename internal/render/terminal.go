// Package render draws model output on the terminal: glamour for
// markdown, chroma for diffs and code, with a live view that repaints
// as streamed fragments arrive. All styling is disabled when stdout is
// not a terminal so output stays pipeable.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"golang.org/x/term"

	"gitscribe/internal/config"
)

const defaultWrapWidth = 100

// Terminal renders styled output for one process.
type Terminal struct {
	out    io.Writer
	errOut io.Writer
	tty    bool
	theme  string
	logger *zap.Logger

	markdown *glamour.TermRenderer
	height   func() int

	header lipgloss.Style
	notice lipgloss.Style
	errTxt lipgloss.Style
	accent lipgloss.Style
}

// NewTerminal builds a Terminal bound to stdout and stderr.
func NewTerminal(cfg config.TerminalConfig, logger *zap.Logger) *Terminal {
	fd := os.Stdout.Fd()
	detected := isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	t := NewTerminalWriter(os.Stdout, os.Stderr, resolveTTY(detected, cfg.Color), cfg, logger)
	t.height = func() int {
		_, h, err := term.GetSize(int(fd))
		if err != nil {
			return 0
		}
		return h
	}
	return t
}

// resolveTTY applies the color config to the detected terminal state:
// "always" and "never" override detection, anything else keeps it.
func resolveTTY(detected bool, color string) bool {
	switch color {
	case "always":
		return true
	case "never":
		return false
	default:
		return detected
	}
}

// NewTerminalWriter builds a Terminal on explicit writers. Callers
// outside tests should use NewTerminal.
func NewTerminalWriter(out, errOut io.Writer, tty bool, cfg config.TerminalConfig, logger *zap.Logger) *Terminal {
	if logger == nil {
		logger = zap.NewNop()
	}
	theme := cfg.Theme
	if theme == "" {
		theme = "monokai"
	}
	t := &Terminal{
		out:    out,
		errOut: errOut,
		tty:    tty,
		theme:  theme,
		logger: logger,
		height: func() int { return 0 },
		header: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		notice: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		errTxt: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		accent: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
	}

	width := cfg.Width
	if width <= 0 {
		if f, ok := out.(*os.File); ok {
			if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
				width = w
			}
		}
	}
	if width <= 0 {
		width = defaultWrapWidth
	}

	opts := []glamour.TermRendererOption{glamour.WithWordWrap(width)}
	switch {
	case !tty:
		opts = append(opts, glamour.WithStylePath("notty"))
	case cfg.MarkdownStyle == "" || cfg.MarkdownStyle == "auto":
		opts = append(opts, glamour.WithAutoStyle())
	default:
		opts = append(opts, glamour.WithStylePath(cfg.MarkdownStyle))
	}
	t.markdown, _ = glamour.NewTermRenderer(opts...)

	return t
}

// IsTTY reports whether output goes to an interactive terminal.
func (t *Terminal) IsTTY() bool { return t.tty }

// Print writes text verbatim.
func (t *Terminal) Print(text string) {
	fmt.Fprint(t.out, text)
}

// Header writes a bold green line.
func (t *Terminal) Header(text string) { t.styledLine(t.out, t.header, text) }

// Notice writes a bold yellow line.
func (t *Terminal) Notice(text string) { t.styledLine(t.out, t.notice, text) }

// Error writes a bold red line to stderr.
func (t *Terminal) Error(text string) { t.styledLine(t.errOut, t.errTxt, text) }

// Accent writes a bold cyan line.
func (t *Terminal) Accent(text string) { t.styledLine(t.out, t.accent, text) }

func (t *Terminal) styledLine(w io.Writer, style lipgloss.Style, text string) {
	if t.tty {
		fmt.Fprintln(w, style.Render(text))
		return
	}
	fmt.Fprintln(w, text)
}

// Highlight returns text styled for the given kind. On a non-terminal
// it returns the text unchanged.
func (t *Terminal) Highlight(text string, kind Kind) string {
	if !t.tty || text == "" {
		return text
	}
	switch kind {
	case Markdown:
		return t.renderMarkdown(text)
	case Diff:
		return t.highlightChroma(text, "diff")
	case Code:
		name := "plaintext"
		if lexer := lexers.Analyse(text); lexer != nil {
			name = lexer.Config().Name
		}
		return t.highlightChroma(text, name)
	default:
		return text
	}
}

// renderMarkdown renders markdown with panic recovery. glamour can
// panic on pathological partial input during streaming, in which case
// the raw text is shown instead.
func (t *Terminal) renderMarkdown(content string) (result string) {
	defer func() {
		if r := recover(); r != nil {
			result = content
		}
	}()

	if t.markdown != nil && content != "" {
		rendered, err := t.markdown.Render(content)
		if err == nil {
			return rendered
		}
		t.logger.Debug("markdown render failed", zap.Error(err))
	}
	return content
}

func (t *Terminal) highlightChroma(text, lexer string) string {
	var sb strings.Builder
	if err := quick.Highlight(&sb, text, lexer, "terminal256", t.theme); err != nil {
		t.logger.Debug("highlight failed", zap.String("lexer", lexer), zap.Error(err))
		return text
	}
	return sb.String()
}
