package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []LogEntry {
	t.Helper()
	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("invalid JSON line %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestLogLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(42), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected Level
	}{
		{"DEBUG", DebugLevel},
		{"debug", DebugLevel},
		{" Info ", InfoLevel},
		{"WARNING", WarnLevel},
		{"warn", WarnLevel},
		{"error", ErrorLevel},
		{"", InfoLevel},
		{"invalid", InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.expected {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestDomainFields(t *testing.T) {
	tests := []struct {
		field Field
		key   string
		value any
	}{
		{FactSheetID("fs-1"), "fact_sheet_id", "fs-1"},
		{FactSheetType("Application"), "fact_sheet_type", "Application"},
		{RefDate(20230101), "ref_date", "2023-01-01"},
		{RefDate(123), "ref_date", "123"},
		{RunID("abc"), "run_id", "abc"},
		{Count(3), "count", 3},
		{Error(nil), "error", nil},
		{Error(errors.New("boom")), "error", "boom"},
	}
	for _, tt := range tests {
		if tt.field.Key != tt.key || tt.field.Value != tt.value {
			t.Errorf("field = %+v, want {%s %v}", tt.field, tt.key, tt.value)
		}
	}
}

func TestJSONLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "warn")

	logger.Debug("debug")
	logger.Info("info")
	logger.Warn("warn")
	logger.Error("error", Error(errors.New("pass failed")))

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Level != "WARN" || entries[1].Level != "ERROR" {
		t.Errorf("levels = %s, %s", entries[0].Level, entries[1].Level)
	}
	if entries[1].Fields["error"] != "pass failed" {
		t.Errorf("error field = %v", entries[1].Fields["error"])
	}
}

func TestJSONLogger_NoFieldsOmitted(t *testing.T) {
	var buf bytes.Buffer
	NewJSONLogger(&buf, InfoLevel).Info("plain")

	if strings.Contains(buf.String(), `"fields"`) {
		t.Errorf("expected fields to be omitted: %s", buf.String())
	}
}

func TestJSONLogger_With(t *testing.T) {
	var buf bytes.Buffer
	base := NewJSONLogger(&buf, InfoLevel)
	child := base.With(Component("engine"), RunID("r1"))

	child.Info("pass computed", RefDate(20230101), RunID("r2"))
	base.Info("unscoped")

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	f := entries[0].Fields
	if f["component"] != "engine" || f["ref_date"] != "2023-01-01" {
		t.Errorf("child fields = %v", f)
	}
	if f["run_id"] != "r2" {
		t.Errorf("call-site field should override pre-set one, got %v", f["run_id"])
	}
	if entries[1].Fields != nil {
		t.Errorf("parent should not inherit child fields: %v", entries[1].Fields)
	}
}

func TestJSONLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, ErrorLevel)
	logger.Info("dropped")
	logger.SetLevel(DebugLevel)
	if logger.GetLevel() != DebugLevel {
		t.Fatalf("GetLevel() = %v", logger.GetLevel())
	}
	logger.Debug("kept")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 || entries[0].Message != "kept" {
		t.Errorf("entries = %+v", entries)
	}
}

// syncBuffer fails the test on interleaved writes by checking every write is a
// complete line.
type syncBuffer struct {
	mu   sync.Mutex
	buf  bytes.Buffer
	torn bool
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(p) == 0 || p[len(p)-1] != '\n' {
		s.torn = true
	}
	return s.buf.Write(p)
}

func TestJSONLogger_ConcurrentChildren(t *testing.T) {
	out := &syncBuffer{}
	base := NewJSONLogger(out, InfoLevel)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l := base.With(Int("worker", i))
			for j := 0; j < 50; j++ {
				l.Info("tick")
			}
		}(i)
	}
	wg.Wait()

	if out.torn {
		t.Fatal("log line written in more than one call")
	}
	if got := len(decodeLines(t, &out.buf)); got != 400 {
		t.Errorf("got %d lines, want 400", got)
	}
}

func TestDefaultLogger(t *testing.T) {
	var buf bytes.Buffer
	SetDefaultLogger(NewJSONLogger(&buf, InfoLevel))
	defer SetDefaultLogger(nil)

	With(Component("cli")).Info("hello")
	entries := decodeLines(t, &buf)
	if len(entries) != 1 || entries[0].Fields["component"] != "cli" {
		t.Errorf("entries = %+v", entries)
	}
}

func TestDefaultLogger_LazyInit(t *testing.T) {
	SetDefaultLogger(nil)
	t.Setenv("LOG_LEVEL", "error")
	l := DefaultLogger()
	defer SetDefaultLogger(nil)
	if l.GetLevel() != ErrorLevel {
		t.Errorf("GetLevel() = %v, want ERROR", l.GetLevel())
	}
}

func TestTimedOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewJSONLogger(&buf, DebugLevel)

	StartTimer(logger, "pass", RunID("r1")).End()
	StartTimer(logger, "pass", RunID("r2")).EndError(errors.New("lookup"))
	op := StartTimer(logger, "pass")
	time.Sleep(time.Millisecond)
	op.EndWithLevel(DebugLevel, "pass detail")

	entries := decodeLines(t, &buf)
	if len(entries) != 3 {
		t.Fatalf("got %d entries, want 3", len(entries))
	}
	if entries[0].Level != "INFO" || entries[0].Fields["latency"] == nil {
		t.Errorf("End entry = %+v", entries[0])
	}
	if entries[1].Level != "ERROR" || entries[1].Fields["error"] != "lookup" {
		t.Errorf("EndError entry = %+v", entries[1])
	}
	if entries[2].Level != "DEBUG" || entries[2].Message != "pass detail" {
		t.Errorf("EndWithLevel entry = %+v", entries[2])
	}
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Info("ignored")
	if l.With(Count(1)) == nil || l.GetLevel() != InfoLevel {
		t.Error("NopLogger should be inert")
	}
}
