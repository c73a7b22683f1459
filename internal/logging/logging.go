package logging

import (
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Logger writes one JSON object per line. Every entry carries "ts" (RFC3339Nano in the
// configured location) and "level"; callers add "component", "event" and any other fields.
type Logger struct {
	mu   *sync.Mutex
	enc  *json.Encoder
	loc  *time.Location
	base map[string]any
}

// New returns a Logger writing to w. A nil location means UTC.
func New(w io.Writer, loc *time.Location) *Logger {
	if loc == nil {
		loc = time.UTC
	}
	return &Logger{mu: &sync.Mutex{}, enc: json.NewEncoder(w), loc: loc}
}

// Nop discards everything. Useful in tests.
func Nop() *Logger {
	return New(io.Discard, time.UTC)
}

// With returns a child logger that adds the given fields to every entry.
func (l *Logger) With(fields map[string]any) *Logger {
	base := make(map[string]any, len(l.base)+len(fields))
	for k, v := range l.base {
		base[k] = v
	}
	for k, v := range fields {
		base[k] = v
	}
	return &Logger{mu: l.mu, enc: l.enc, loc: l.loc, base: base}
}

// Location returns the time zone used for timestamps.
func (l *Logger) Location() *time.Location {
	return l.loc
}

func (l *Logger) Info(event string, fields map[string]any) {
	l.write("info", event, fields)
}

func (l *Logger) Warn(event string, fields map[string]any) {
	l.write("warn", event, fields)
}

// Error logs err under "error_message" alongside the given fields.
func (l *Logger) Error(event string, err error, fields map[string]any) {
	if err != nil {
		if fields == nil {
			fields = map[string]any{}
		}
		fields["error_message"] = err.Error()
	}
	l.write("error", event, fields)
}

// Log writes data as-is, filling in "ts" and deriving "level" from "status" when absent.
func (l *Logger) Log(data map[string]any) {
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}
	l.emit(data)
}

func (l *Logger) write(level, event string, fields map[string]any) {
	entry := make(map[string]any, len(fields)+4)
	for k, v := range fields {
		entry[k] = v
	}
	entry["level"] = level
	if event != "" {
		entry["event"] = event
	}
	l.emit(entry)
}

func (l *Logger) emit(entry map[string]any) {
	for k, v := range l.base {
		if _, ok := entry[k]; !ok {
			entry[k] = v
		}
	}
	entry["ts"] = time.Now().In(l.loc).Format(time.RFC3339Nano)

	l.mu.Lock()
	defer l.mu.Unlock()
	_ = l.enc.Encode(entry)
}
