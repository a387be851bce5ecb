package logging

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestFieldConstructors(t *testing.T) {
	cases := []struct {
		field Field
		key   string
	}{
		{String("apparatus", "synapsys"), "apparatus"},
		{Int("pairs", 412), "pairs"},
		{Float64("score", 0.87), "score"},
		{Bool("fallback", true), "fallback"},
		{Duration("elapsed", time.Second), "elapsed"},
		{Err(errors.New("boom")), "error"},
		{Err(nil), "error"},
	}
	for _, tc := range cases {
		if tc.field.Key != tc.key {
			t.Errorf("key = %q, want %q", tc.field.Key, tc.key)
		}
	}
	if Err(nil).Value != "<nil>" {
		t.Errorf("Err(nil) value = %v", Err(nil).Value)
	}
}

func TestObservedLogging(t *testing.T) {
	core, logs := observer.New(zapcore.Level(0))
	l := NewLoggerFromCore(core)

	l.Info("model trained", Int("examples", 250), Float64("accuracy", 0.91))
	l.Warn("ensemble construction failed, falling back to forest")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Message != "model trained" {
		t.Errorf("message = %q", entries[0].Message)
	}
	fields := entries[0].ContextMap()
	if fields["examples"] != int64(250) {
		t.Errorf("examples = %v", fields["examples"])
	}
}

func TestWithAddsFieldsToChildOnly(t *testing.T) {
	core, logs := observer.New(zapcore.Level(0))
	parent := NewLoggerFromCore(core)
	child := parent.With(String("component", "recommender"))

	child.Info("ranked")
	parent.Info("plain")

	entries := logs.All()
	if _, ok := entries[0].ContextMap()["component"]; !ok {
		t.Error("child entry missing inherited field")
	}
	if _, ok := entries[1].ContextMap()["component"]; ok {
		t.Error("parent entry must not carry the child field")
	}
}

func TestSetLevelAdjustsRuntimeSeverity(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	l, err := NewLogger(Config{Level: "info", OutputPaths: []string{path}})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	child := l.Named("recommender")

	child.Debug("below threshold")
	if !SetLevel(l, "debug") {
		t.Fatal("SetLevel returned false for a NewLogger-built logger")
	}
	child.Debug("now visible")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(data), "below threshold") {
		t.Error("debug entry emitted before the level was lowered")
	}
	if !strings.Contains(string(data), "now visible") {
		t.Error("debug entry missing after the level was lowered")
	}

	if SetLevel(NewNopLogger(), "debug") {
		t.Error("SetLevel must report false for the nop logger")
	}
	core, _ := observer.New(zapcore.Level(0))
	if SetLevel(NewLoggerFromCore(core), "debug") {
		t.Error("SetLevel must report false for an external-core logger")
	}
}

func TestNopLoggerIsInert(t *testing.T) {
	l := NewNopLogger()
	l.Info("ignored")
	l.With(String("k", "v")).Named("sub").Error("still ignored")
}

func TestDefaultRoundTrip(t *testing.T) {
	core, logs := observer.New(zapcore.Level(0))
	SetDefault(NewLoggerFromCore(core))
	defer SetDefault(NewNopLogger())

	Default().Info("via default")
	if logs.Len() != 1 {
		t.Fatalf("got %d entries, want 1", logs.Len())
	}

	SetDefault(nil) // must be a no-op
	Default().Info("second")
	if logs.Len() != 2 {
		t.Fatalf("SetDefault(nil) replaced the logger")
	}
}
