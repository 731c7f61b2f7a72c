package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", LogDebug},
		{"DEBUG", LogDebug},
		{" info ", LogInfo},
		{"warn", LogWarn},
		{"warning", LogWarn},
		{"error", LogError},
		{"", LogInfo},
		{"verbose", LogInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := ParseLevel(tt.in); got != tt.want {
				t.Errorf("ParseLevel(%q): got %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStdLogger_Filtering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LogWarn)

	l.Debugf("debug %d", 1)
	l.Infof("info %d", 2)
	l.Warnf("skipping %s", "b.fits")
	l.Errorf("failed %s", "c.fits")

	out := buf.String()
	if strings.Contains(out, "debug 1") || strings.Contains(out, "info 2") {
		t.Errorf("messages below level were written: %q", out)
	}
	if !strings.Contains(out, "WARN: skipping b.fits") {
		t.Errorf("missing warning line: %q", out)
	}
	if !strings.Contains(out, "ERROR: failed c.fits") {
		t.Errorf("missing error line: %q", out)
	}
}

func TestStdLogger_SetLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriter(&buf, LogInfo)
	l.SetLogLevel(LogDebug)
	if l.GetLogLevel() != LogDebug {
		t.Fatalf("GetLogLevel: got %v, want %v", l.GetLogLevel(), LogDebug)
	}
	l.Debugf("now visible")
	if !strings.Contains(buf.String(), "DEBUG: now visible") {
		t.Errorf("debug line not written: %q", buf.String())
	}
}

func TestNullLogger(t *testing.T) {
	var l ILogger = &NullLogger{}
	l.Infof("ignored")
	l.Warnf("ignored")
	if l.GetLogLevel() != LogError {
		t.Errorf("GetLogLevel: got %v", l.GetLogLevel())
	}
}
