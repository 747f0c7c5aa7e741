package writer

import (
	"context"
	"errors"
	"log/slog"
	"os"
)

// fanoutHandler forwards each record to the operator console and the
// session log file. The two sinks carry different formats: readable
// text for the console, JSON for post-hoc inspection of the session.
type fanoutHandler struct {
	console slog.Handler
	file    slog.Handler
}

func (h *fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.console.Enabled(ctx, level) || h.file.Enabled(ctx, level)
}

func (h *fanoutHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	if h.console.Enabled(ctx, r.Level) {
		errs = append(errs, h.console.Handle(ctx, r))
	}
	if h.file.Enabled(ctx, r.Level) {
		errs = append(errs, h.file.Handle(ctx, r.Clone()))
	}
	return errors.Join(errs...)
}

func (h *fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &fanoutHandler{
		console: h.console.WithAttrs(attrs),
		file:    h.file.WithAttrs(attrs),
	}
}

func (h *fanoutHandler) WithGroup(name string) slog.Handler {
	return &fanoutHandler{
		console: h.console.WithGroup(name),
		file:    h.file.WithGroup(name),
	}
}

// SetupLogger creates a logger that writes human-readable text to
// stdout and structured JSON to the session log file. The caller owns
// the returned file handle.
func SetupLogger(sessionMgr *SessionManager, logLevel slog.Level) (*slog.Logger, *os.File, error) {
	logFile, err := os.OpenFile(sessionMgr.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}

	logger := slog.New(&fanoutHandler{
		console: slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}),
		file:    slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: logLevel}),
	})

	return logger, logFile, nil
}
