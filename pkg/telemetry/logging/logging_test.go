package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew_LevelAndFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Format: "json", Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("should be filtered")
	logger.Warn("should appear", "key", "value")

	out := buf.String()
	if strings.Contains(out, "should be filtered") {
		t.Error("info log leaked through warn level")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(out), &entry); err != nil {
		t.Fatalf("expected JSON output, got %q", out)
	}
	if entry["msg"] != "should appear" || entry["key"] != "value" {
		t.Errorf("unexpected entry: %v", entry)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("expected error for invalid level")
	}
	if _, err := New(Config{Format: "xml"}); err == nil {
		t.Error("expected error for invalid format")
	}
}

func TestRedactor(t *testing.T) {
	r := NewRedactor()

	tests := []struct {
		in       string
		leaked   string
		expected string
	}{
		{"auth Bearer abc123.def-456", "abc123", "Bearer ***"},
		{"key sk-abcDEF123", "sk-abcDEF123", "***"},
		{"user U0123456789abcdef0123456789abcdef asked", "U0123456789abcdef", "U***"},
		{"contact someone@example.com now", "someone@example.com", "***@***"},
	}

	for _, tt := range tests {
		got := r.Redact(tt.in)
		if strings.Contains(got, tt.leaked) {
			t.Errorf("Redact(%q) leaked %q: %q", tt.in, tt.leaked, got)
		}
		if !strings.Contains(got, tt.expected) {
			t.Errorf("Redact(%q) = %q, expected to contain %q", tt.in, got, tt.expected)
		}
	}
}

func TestRedactingHandler(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: "json", RedactPII: true, Writer: &buf})
	if err != nil {
		t.Fatal(err)
	}

	logger.Info("reply sent", "identifier", "U0123456789abcdef0123456789abcdef")

	out := buf.String()
	if strings.Contains(out, "U0123456789abcdef0123456789abcdef") {
		t.Errorf("user id leaked into logs: %q", out)
	}
	if !strings.Contains(out, "U***") {
		t.Errorf("expected redacted identifier, got %q", out)
	}
}
