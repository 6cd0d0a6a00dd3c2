package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	l, err := New("warn", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if l.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !l.Core().Enabled(zapcore.ErrorLevel) {
		t.Error("error should be enabled at warn level")
	}

	if _, err := New("debug", "development"); err != nil {
		t.Errorf("New(development): %v", err)
	}
	if _, err := New("loud", ""); err == nil {
		t.Error("New with unknown level should fail")
	}
}

func TestWithRequest(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	WithRequest(context.Background(), base).Info("no id")
	WithRequest(WithRequestID(context.Background(), "req-1"), base).Info("with id")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if _, ok := entries[0].ContextMap()["request_id"]; ok {
		t.Error("request_id set without an id in context")
	}
	if got := entries[1].ContextMap()["request_id"]; got != "req-1" {
		t.Errorf("request_id = %v, want req-1", got)
	}
}
