package config

import (
	"io"
	"log/slog"
	"os"

	"golang.org/x/term"
)

// SetupLogging installs the default slog logger: text on a terminal, JSON
// when stderr is piped somewhere.
func SetupLogging(level int) {
	slog.SetDefault(slog.New(newHandler(os.Stderr, slog.Level(level))))
}

func newHandler(w io.Writer, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return slog.NewTextHandler(w, opts)
	}
	return slog.NewJSONHandler(w, opts)
}
