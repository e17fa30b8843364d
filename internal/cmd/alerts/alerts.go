// Package alerts prints one-line status notices for CLI operations, such as
// the outcome of a sync run, on stderr next to the command's data output.
package alerts

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Alert represents a status notice.
type Alert struct {
	Level   Level
	Message string
	Details []string
	Err     error
}

// New creates a new alert with the given level and message.
func New(level Level, message string) *Alert {
	return &Alert{Level: level, Message: message}
}

// WithError adds an underlying error to the alert.
func (a *Alert) WithError(err error) *Alert {
	a.Err = err
	return a
}

// WithDetails adds detail lines printed below the message.
func (a *Alert) WithDetails(details ...string) *Alert {
	a.Details = append(a.Details, details...)
	return a
}

// String returns the alert without color or details.
func (a *Alert) String() string {
	message := a.Level.Icon() + " " + a.Message
	if a.Err != nil {
		message += fmt.Sprintf(": %v", a.Err)
	}
	return message
}

// Writer prints alerts to one destination.
type Writer struct {
	w        io.Writer
	useColor bool
	quiet    bool
}

// NewWriter returns a writer for w. Color is used only when w is a terminal
// and NO_COLOR is unset. A quiet writer prints errors and warnings only.
func NewWriter(w io.Writer, quiet bool) *Writer {
	return &Writer{w: w, useColor: isTerminal(w) && os.Getenv("NO_COLOR") == "", quiet: quiet}
}

// Write prints alert followed by its details.
func (w *Writer) Write(alert *Alert) error {
	if w.quiet && (alert.Level == LevelInfo || alert.Level == LevelSuccess) {
		return nil
	}
	line := alert.String()
	if w.useColor {
		line = alert.Level.Color() + line + resetColor
	}
	if _, err := fmt.Fprintln(w.w, line); err != nil {
		return err
	}
	for _, detail := range alert.Details {
		if _, err := fmt.Fprintf(w.w, "   %s\n", detail); err != nil {
			return err
		}
	}
	return nil
}

// Success prints a success alert.
func (w *Writer) Success(format string, args ...any) error {
	return w.Write(New(LevelSuccess, fmt.Sprintf(format, args...)))
}

// Info prints an informational alert.
func (w *Writer) Info(format string, args ...any) error {
	return w.Write(New(LevelInfo, fmt.Sprintf(format, args...)))
}

// Warning prints a warning alert.
func (w *Writer) Warning(format string, args ...any) error {
	return w.Write(New(LevelWarning, fmt.Sprintf(format, args...)))
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
