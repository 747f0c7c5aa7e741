package writer

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestFanoutHandlerWritesBothSinks(t *testing.T) {
	var console, file bytes.Buffer
	logger := slog.New(&fanoutHandler{
		console: slog.NewTextHandler(&console, nil),
		file:    slog.NewJSONHandler(&file, nil),
	})

	logger.Info("batch complete", "batch", 3)

	if !strings.Contains(console.String(), "batch complete") {
		t.Errorf("console sink missing record: %s", console.String())
	}
	if !strings.Contains(file.String(), `"batch":3`) {
		t.Errorf("file sink missing record: %s", file.String())
	}
}

func TestFanoutHandlerRespectsSinkLevels(t *testing.T) {
	var console, file bytes.Buffer
	logger := slog.New(&fanoutHandler{
		console: slog.NewTextHandler(&console, &slog.HandlerOptions{Level: slog.LevelWarn}),
		file:    slog.NewJSONHandler(&file, &slog.HandlerOptions{Level: slog.LevelDebug}),
	})

	logger.Debug("retrying classifier call")

	if console.Len() != 0 {
		t.Errorf("console sink received a record below its level: %s", console.String())
	}
	if !strings.Contains(file.String(), "retrying classifier call") {
		t.Errorf("file sink missing debug record: %s", file.String())
	}
}

func TestFanoutHandlerWithAttrs(t *testing.T) {
	var console, file bytes.Buffer
	logger := slog.New(&fanoutHandler{
		console: slog.NewTextHandler(&console, nil),
		file:    slog.NewJSONHandler(&file, nil),
	})

	logger.With("run_id", "abc123").Info("starting")

	for name, buf := range map[string]*bytes.Buffer{"console": &console, "file": &file} {
		if !strings.Contains(buf.String(), "abc123") {
			t.Errorf("%s sink lost the attached attribute: %s", name, buf.String())
		}
	}
}
