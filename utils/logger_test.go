package utils

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want Level
	}{
		{"debug", LevelDebug},
		{"DEBUG", LevelDebug},
		{" warn ", LevelWarn},
		{"warning", LevelWarn},
		{"error", LevelError},
		{"", LevelInfo},
		{"verbose", LevelInfo},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %d; want %d", tt.in, got, tt.want)
		}
	}
}

func TestLoggerDropsBelowLevel(t *testing.T) {
	var out, errOut bytes.Buffer
	l := NewLoggerTo(&out, &errOut, LevelWarn)

	l.Debug("[test] debug %d", 1)
	l.Info("[test] info %d", 2)
	l.Warn("[test] warn %d", 3)
	l.Error("[test] error %d", 4)

	if strings.Contains(out.String(), "debug 1") || strings.Contains(out.String(), "info 2") {
		t.Errorf("debug/info should be dropped at warn level, got %q", out.String())
	}
	if !strings.Contains(out.String(), "warn 3") {
		t.Errorf("warn line missing from %q", out.String())
	}
	if !strings.Contains(errOut.String(), "error 4") {
		t.Errorf("error line missing from %q", errOut.String())
	}
}

func TestLoggerSetLevel(t *testing.T) {
	var out bytes.Buffer
	l := NewLoggerTo(&out, &out, LevelInfo)
	l.Debug("[test] hidden")

	l.SetLevel(LevelDebug)
	if l.Level() != LevelDebug {
		t.Fatalf("Level() = %d; want debug", l.Level())
	}
	l.Debug("[test] shown")

	if strings.Contains(out.String(), "hidden") || !strings.Contains(out.String(), "shown") {
		t.Errorf("unexpected output %q", out.String())
	}
}
