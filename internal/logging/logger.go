package logging

import (
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"
)

// New builds the CLI logger. level is one of debug, info, warn, error;
// format is "json" or "console". Output goes to stderr when w is nil so that
// command output on stdout stays scriptable.
func New(level, format string, w io.Writer) *pterm.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := pterm.DefaultLogger.
		WithLevel(parseLevel(level)).
		WithWriter(w)
	if strings.EqualFold(format, "json") {
		l = l.WithFormatter(pterm.LogFormatterJSON)
	}
	return l
}

// Discard returns a logger that writes nothing. Used as the default for
// components constructed without one.
func Discard() *pterm.Logger {
	return pterm.DefaultLogger.WithLevel(pterm.LogLevelDisabled).WithWriter(io.Discard)
}

// Err is a logger argument for an error, masked.
func Err(l *pterm.Logger, err error) []pterm.LoggerArgument {
	if err == nil {
		return l.Args("error", "")
	}
	return l.Args("error", Mask(err.Error()))
}

func parseLevel(level string) pterm.LogLevel {
	switch strings.ToLower(level) {
	case "trace":
		return pterm.LogLevelTrace
	case "debug":
		return pterm.LogLevelDebug
	case "warn", "warning":
		return pterm.LogLevelWarn
	case "error":
		return pterm.LogLevelError
	default:
		return pterm.LogLevelInfo
	}
}
