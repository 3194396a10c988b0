package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLoggerFormatsByEnvironment(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, "warn", "HomePlanner", "production").Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info must be filtered at warn level, got %q", buf.String())
	}

	newLogger(&buf, "info", "HomePlanner", "production").Info("hello")
	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("production output is not JSON: %v", err)
	}
	if line["app"] != "HomePlanner" || line["env"] != "production" {
		t.Fatalf("missing app attributes: %v", line)
	}

	buf.Reset()
	newLogger(&buf, "bogus", "HomePlanner", "development").Info("hello")
	if !strings.Contains(buf.String(), "msg=hello") {
		t.Fatalf("development output should be text, got %q", buf.String())
	}
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected default logger")
	}
	logger := Discard()
	if FromContext(WithLogger(context.Background(), logger)) != logger {
		t.Fatalf("expected the stored logger")
	}
}
