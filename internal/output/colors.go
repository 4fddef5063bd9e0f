package output

import (
	"io"
	"log/slog"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// LevelSuccess sits between info and warn so success lines are never filtered out
const LevelSuccess = slog.Level(2)

// palette styles console lines by level
type palette struct {
	success lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	debug   lipgloss.Style
}

func newPalette(w io.Writer) *palette {
	r := lipgloss.NewRenderer(w)
	if !colorEnabled(w) {
		r.SetColorProfile(termenv.Ascii)
	}

	return &palette{
		success: r.NewStyle().Foreground(lipgloss.Color("#4dca7d")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("#f5c800")),
		err:     r.NewStyle().Foreground(lipgloss.Color("#f46251")).Bold(true),
		debug:   r.NewStyle().Faint(true),
	}
}

func (p *palette) render(level slog.Level, msg string) string {
	switch {
	case level >= slog.LevelError:
		return p.err.Render(msg)
	case level >= slog.LevelWarn:
		return p.warn.Render(msg)
	case level == LevelSuccess:
		return p.success.Render(msg)
	case level <= slog.LevelDebug:
		return p.debug.Render(msg)
	default:
		return msg
	}
}

// colorEnabled reports whether w is a terminal and NO_COLOR is unset
func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
