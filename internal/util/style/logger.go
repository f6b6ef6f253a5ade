package style

import (
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-colorable"
)

// levelColor picks the ANSI code for a log level's rendered name; debug and
// unrecognized levels get no color at all.
func levelColor(l slog.Level) int {
	switch {
	case l >= slog.LevelError:
		return 31 // red
	case l >= slog.LevelWarn:
		return 33 // yellow
	case l >= slog.LevelInfo:
		return 36 // cyan
	default:
		return 0
	}
}

func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if len(groups) != 0 || a.Key != slog.LevelKey {
		return a
	}
	l, ok := a.Value.Any().(slog.Level)
	if !ok {
		return a
	}
	if c := levelColor(l); c != 0 {
		a.Value = slog.StringValue(WithS(l.String(), c))
	}
	return a
}

// Logger builds the CLI entrypoint's default logger: a colorized text
// handler over a colorable stdout when the terminal supports it (honoring
// NO_COLOR, see StdoutSupportsColor), plain text otherwise. It never
// touches stderr: CLI binaries in this repo log operational events to
// stdout.
func Logger(level slog.Leveler) *slog.Logger {
	var w io.Writer = os.Stdout
	opts := &slog.HandlerOptions{Level: level}
	if StdoutSupportsColor() {
		w = colorable.NewColorableStdout()
		opts.ReplaceAttr = replaceLevel
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
