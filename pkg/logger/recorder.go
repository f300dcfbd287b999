package logger

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Entry is a single captured log line
type Entry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
}

// Recorder is a Logger implementation that captures entries in memory.
// Tests use it to assert on what was logged and at which level.
type Recorder struct {
	sink   *recorderSink
	fields map[string]interface{}
}

type recorderSink struct {
	mu      sync.Mutex
	entries []Entry
	nop     zerolog.Logger
}

// NewRecorder creates an empty recording logger
func NewRecorder() *Recorder {
	return &Recorder{
		sink:   &recorderSink{nop: zerolog.Nop()},
		fields: make(map[string]interface{}),
	}
}

// Entries returns a copy of everything captured so far
func (r *Recorder) Entries() []Entry {
	r.sink.mu.Lock()
	defer r.sink.mu.Unlock()
	out := make([]Entry, len(r.sink.entries))
	copy(out, r.sink.entries)
	return out
}

// Has reports whether any entry at the given level contains substr
func (r *Recorder) Has(level, substr string) bool {
	for _, e := range r.Entries() {
		if e.Level == level && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// Count returns the number of entries captured at the given level
func (r *Recorder) Count(level string) int {
	n := 0
	for _, e := range r.Entries() {
		if e.Level == level {
			n++
		}
	}
	return n
}

func (r *Recorder) record(level, msg string, extra map[string]interface{}) {
	merged := make(map[string]interface{}, len(r.fields)+len(extra))
	for k, v := range r.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	r.sink.mu.Lock()
	r.sink.entries = append(r.sink.entries, Entry{Level: level, Message: msg, Fields: merged})
	r.sink.mu.Unlock()
}

func (r *Recorder) child(extra map[string]interface{}) *Recorder {
	fields := make(map[string]interface{}, len(r.fields)+len(extra))
	for k, v := range r.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}
	return &Recorder{sink: r.sink, fields: fields}
}

func (r *Recorder) Debug(msg string) { r.record("debug", msg, nil) }
func (r *Recorder) Info(msg string)  { r.record("info", msg, nil) }
func (r *Recorder) Warn(msg string)  { r.record("warn", msg, nil) }
func (r *Recorder) Error(msg string) { r.record("error", msg, nil) }
func (r *Recorder) Fatal(msg string) { r.record("fatal", msg, nil) }

func (r *Recorder) WithField(key string, value interface{}) Logger {
	return r.child(map[string]interface{}{key: value})
}

func (r *Recorder) WithFields(fields map[string]interface{}) Logger {
	return r.child(fields)
}

func (r *Recorder) WithError(err error) Logger {
	if err == nil {
		return r
	}
	return r.child(map[string]interface{}{"error": err.Error()})
}

func (r *Recorder) WithContext(ctx context.Context) Logger { return r }

func (r *Recorder) DebugWithFields(msg string, fields map[string]interface{}) {
	r.record("debug", msg, fields)
}

func (r *Recorder) InfoWithFields(msg string, fields map[string]interface{}) {
	r.record("info", msg, fields)
}

func (r *Recorder) WarnWithFields(msg string, fields map[string]interface{}) {
	r.record("warn", msg, fields)
}

func (r *Recorder) ErrorWithFields(msg string, fields map[string]interface{}) {
	r.record("error", msg, fields)
}

func (r *Recorder) FatalWithFields(msg string, fields map[string]interface{}) {
	r.record("fatal", msg, fields)
}

func (r *Recorder) GetZerolog() *zerolog.Logger { return &r.sink.nop }
