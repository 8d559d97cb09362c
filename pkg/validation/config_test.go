package validation

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestConfigValidator_Fields(t *testing.T) {
	tests := []struct {
		name  string
		apply func(*ConfigValidator)
		tag   string
		param string
	}{
		{"required empty", func(cv *ConfigValidator) { cv.Required("workspace.host", "") }, "required", ""},
		{"required set", func(cv *ConfigValidator) { cv.Required("workspace.host", "eu.leanix.net") }, "", ""},
		{"page size zero", func(cv *ConfigValidator) { cv.IntRange("workspace.page_size", 0, 1, 15000) }, "min", "1"},
		{"page size max", func(cv *ConfigValidator) { cv.IntRange("workspace.page_size", 15000, 1, 15000) }, "", ""},
		{"page size over", func(cv *ConfigValidator) { cv.IntRange("workspace.page_size", 15001, 1, 15000) }, "max", "15000"},
		{"negative debounce", func(cv *ConfigValidator) { cv.MinDuration("engine.debounce", -time.Millisecond, 0) }, "min", "0s"},
		{"zero debounce", func(cv *ConfigValidator) { cv.MinDuration("engine.debounce", 0, 0) }, "", ""},
		{"unknown level", func(cv *ConfigValidator) { cv.OneOf("log.level", "verbose", []string{"debug", "info"}) }, "oneof", "debug info"},
		{"known level", func(cv *ConfigValidator) { cv.OneOf("log.level", "info", []string{"debug", "info"}) }, "", ""},
		{"slash date", func(cv *ConfigValidator) { cv.Date("engine.ref_date", "01/01/2023") }, "isodate", ""},
		{"impossible date", func(cv *ConfigValidator) { cv.Date("engine.ref_date", "2023-02-30") }, "isodate", ""},
		{"date", func(cv *ConfigValidator) { cv.Date("engine.ref_date", "2023-02-28") }, "", ""},
		{"udp address", func(cv *ConfigValidator) { cv.Transport("publish.address", "udp://nowhere", "tcp", "ipc") }, "transport", "tcp ipc"},
		{"tcp address", func(cv *ConfigValidator) { cv.Transport("publish.address", "tcp://127.0.0.1:40899", "tcp", "ipc") }, "", ""},
		{"scheme without separator", func(cv *ConfigValidator) { cv.Transport("publish.address", "tcp127.0.0.1", "tcp") }, "transport", "tcp"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cv := NewConfigValidator("radar.yaml")
			tt.apply(cv)

			problems := cv.Problems()
			if tt.tag == "" {
				if len(problems) != 0 {
					t.Fatalf("Problems() = %v, want none", problems)
				}
				if err := cv.Validate(); err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if len(problems) != 1 {
				t.Fatalf("Problems() = %v, want one", problems)
			}
			if problems[0].Tag != tt.tag || problems[0].Param != tt.param {
				t.Errorf("problem = %s/%q, want %s/%q", problems[0].Tag, problems[0].Param, tt.tag, tt.param)
			}
		})
	}
}

func TestConfigValidator_When(t *testing.T) {
	cv := NewConfigValidator("radar.yaml")
	cv.When(false, func(v *ConfigValidator) {
		v.Required("export.dsn", "")
	})
	if len(cv.Problems()) != 0 {
		t.Error("When(false) should not apply validations")
	}

	cv.When(true, func(v *ConfigValidator) {
		v.Required("export.dsn", "")
	})
	if len(cv.Problems()) != 1 {
		t.Error("When(true) should apply validations")
	}
}

func TestConfigValidator_CollectsEveryProblem(t *testing.T) {
	err := NewConfigValidator("radar.yaml").
		Required("workspace.host", "").
		IntRange("workspace.page_size", -1, 1, 15000).
		OneOf("log.level", "x", []string{"info"}).
		Validate()

	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("Validate() = %v, want *ConfigError", err)
	}
	if len(cfgErr.Problems) != 3 {
		t.Fatalf("Problems = %d, want 3", len(cfgErr.Problems))
	}
	if !errors.Is(err, ErrInvalidConfig) {
		t.Error("ConfigError should match ErrInvalidConfig")
	}

	msg := err.Error()
	if !strings.HasPrefix(msg, "radar.yaml: ") {
		t.Errorf("error should name its source: %q", msg)
	}
	for _, want := range []string{
		"workspace.host: field is required",
		"workspace.page_size: must be at least 1",
		"log.level: must be one of [info]",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("error missing %q: %q", want, msg)
		}
	}
}

func TestDefaultOr(t *testing.T) {
	if got := DefaultOr("", "./data"); got != "./data" {
		t.Errorf("DefaultOr(\"\") = %q", got)
	}
	if got := DefaultOr(500, 15000); got != 500 {
		t.Errorf("DefaultOr(500) = %d", got)
	}
	if got := DefaultOr(time.Duration(0), 10*time.Second); got != 10*time.Second {
		t.Errorf("DefaultOr(0s) = %v", got)
	}
}
