package notify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// LogBanner records banners as structured log lines.
type LogBanner struct {
	Log *slog.Logger
}

func (b LogBanner) Show(title, message string, severity Severity) {
	log := b.Log
	if log == nil {
		log = slog.Default()
	}
	level := slog.LevelInfo
	if severity == SeverityError {
		level = slog.LevelError
	}
	log.Log(context.Background(), level, "banner", slog.String("title", title), slog.String("message", message), slog.String("severity", string(severity)))
}

// WriterBanner prints banners as single lines, e.g. for a terminal.
type WriterBanner struct {
	mu sync.Mutex
	W  io.Writer
}

func (b *WriterBanner) Show(title, message string, severity Severity) {
	b.mu.Lock()
	defer b.mu.Unlock()
	prefix := "OK"
	switch severity {
	case SeverityError:
		prefix = "ERROR"
	case SeverityInfo:
		prefix = "INFO"
	}
	fmt.Fprintf(b.W, "[%s] %s: %s\n", prefix, title, message)
}
