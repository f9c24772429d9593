package logger

import (
	"log/slog"
	"os"

	"github.com/coreos/go-systemd/v22/journal"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

var programLevel = new(slog.LevelVar)

var Slog *slog.Logger

func init() {
	Slog = slog.New(newHandler())
	slog.SetDefault(Slog)
}

func newHandler() slog.Handler {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return tint.NewHandler(os.Stderr, &tint.Options{
			Level:      programLevel,
			TimeFormat: "15:04:05.000",
		})
	}

	opts := &slog.HandlerOptions{Level: programLevel}
	if stderrIsJournal() {
		// journald stamps every record itself
		opts.ReplaceAttr = func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && len(groups) == 0 {
				return slog.Attr{}
			}
			return a
		}
	}
	return slog.NewTextHandler(os.Stderr, opts)
}

func stderrIsJournal() bool {
	ok, _ := journal.StderrIsJournalStream()
	return ok
}

func SetLogLevel(val string) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(val)); err != nil {
		Slog.Info("could not parse loglevel, keeping as is")
		return
	}
	programLevel.Set(level)
	Slog.Debug("log level changed", "level", level)
}
