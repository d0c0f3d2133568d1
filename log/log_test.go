package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("debug")
	if err != nil {
		t.Fatalf("ParseLevel failed: %v", err)
	}
	if lvl != slog.LevelDebug {
		t.Fatalf("expected debug level, got %v", lvl)
	}
	if _, err := ParseLevel("bogus"); err == nil {
		t.Fatalf("expected error for bogus level")
	}
}

func TestModuleGating(t *testing.T) {
	buf := &bytes.Buffer{}
	SetDefault(NewLogger(NewTerminalHandlerWithLevel(buf, LevelTrace, false)))
	defer SetDefault(NewLogger(DiscardHandler()))

	DisableModule(JitRegAlloc)
	Trace(JitRegAlloc, "should be dropped")
	if buf.Len() != 0 {
		t.Fatalf("disabled module leaked a trace line: %q", buf.String())
	}

	EnableModule(JitRegAlloc)
	Trace(JitRegAlloc, "lock released", "reg", "f5")
	if !strings.Contains(buf.String(), "lock released") {
		t.Fatalf("enabled module did not log: %q", buf.String())
	}

	// Error ignores module gating.
	buf.Reset()
	DisableModule(JitRegAlloc)
	Error(JitRegAlloc, "slot out of sync", "slot", 3)
	if !strings.Contains(buf.String(), "slot out of sync") {
		t.Fatalf("error was gated: %q", buf.String())
	}
}
