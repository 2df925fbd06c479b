// Package logging renders bob's build/install progress as single colored
// lines, one per event: a severity glyph, a colored message, nothing
// else. Color is produced with lipgloss rather than hand-rolled ANSI
// escapes.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Severity is the glyph/color class of a log line.
type Severity int

const (
	Info Severity = iota
	Success
	Warn
	Fatal
)

var glyphs = map[Severity]string{
	Info:    "*",
	Success: "+",
	Warn:    "!",
	Fatal:   "x",
}

var styles = map[Severity]lipgloss.Style{
	Info:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	Success: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	Warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	Fatal:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13")),
}

// Logger serializes emission of log lines so that parallel build-step
// workers never interleave partial lines.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	errOut   io.Writer
	useColor bool
}

// New builds a Logger writing to out/errOut. Color is auto-detected from
// the standard environment conventions (CLICOLOR_FORCE, NO_COLOR, TERM,
// and whether the stream is a terminal), mirroring supports_colour() in the
// original implementation.
func New(out, errOut io.Writer) *Logger {
	return &Logger{out: out, errOut: errOut, useColor: detectColor(out)}
}

// Default is the process-wide logger, writing to stdout/stderr.
var Default = New(os.Stdout, os.Stderr)

// SetColor forces color on or off, overriding auto-detection (the -no-color
// CLI flag wires into this).
func (l *Logger) SetColor(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.useColor = on
}

func detectColor(w io.Writer) bool {
	if os.Getenv("CLICOLOR_FORCE") != "" {
		return true
	}
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if !isatty.IsTerminal(f.Fd()) {
		return false
	}
	term := os.Getenv("TERM")
	return term != "" && term != "dumb"
}

func (l *Logger) line(sev Severity, stream io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)

	l.mu.Lock()
	defer l.mu.Unlock()

	glyph := glyphs[sev]
	if l.useColor {
		style := styles[sev]
		fmt.Fprintf(stream, "%s %s\n", style.Render(glyph), style.Render(msg))
		return
	}
	fmt.Fprintf(stream, "%s %s\n", glyph, msg)
}

// Info logs an informational line (e.g. "compiling...").
func (l *Logger) Info(format string, args ...any) { l.line(Info, l.out, format, args...) }

// Success logs a completed-action line.
func (l *Logger) Success(format string, args ...any) { l.line(Success, l.out, format, args...) }

// Warn logs a non-fatal problem, e.g. a missing optional feature like an
// absent install map.
func (l *Logger) Warn(format string, args ...any) { l.line(Warn, l.errOut, format, args...) }

// Fatal logs a fatal error line. It does not exit the process; callers
// decide exit codes.
func (l *Logger) Fatal(format string, args ...any) { l.line(Fatal, l.errOut, format, args...) }

// AlreadyDone logs the "already compiled/linked" message frugality produces
// on a cache hit, optionally echoing a previous command's captured log
// output.
func (l *Logger) AlreadyDone(subject, verb, prevLog string) {
	suffix := "."
	if strings.TrimSpace(prevLog) != "" {
		suffix = ":"
	}
	l.Success("%s: already %s%s", subject, verb, suffix)
	if suffix == ":" {
		l.mu.Lock()
		fmt.Fprint(l.out, prevLog)
		l.mu.Unlock()
	}
}
