package logger

import (
	"bytes"
	"os"
	"testing"
)

func reset() {
	SetVerbose(false)
	SetOutput(os.Stderr)
}

func capture(t *testing.T, verbose bool) *bytes.Buffer {
	t.Helper()
	t.Cleanup(reset)
	var buf bytes.Buffer
	SetOutput(&buf)
	SetVerbose(verbose)
	return &buf
}

func TestSetVerbose(t *testing.T) {
	t.Cleanup(reset)

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false initially")
	}

	SetVerbose(true)
	if !IsVerbose() {
		t.Error("expected verbose to be true after SetVerbose(true)")
	}

	SetVerbose(false)
	if IsVerbose() {
		t.Error("expected verbose to be false after SetVerbose(false)")
	}
}

func TestDebug_WhenVerbose(t *testing.T) {
	buf := capture(t, true)

	Debug("test message %s", "arg")

	if got := buf.String(); got != "[DEBUG] test message arg\n" {
		t.Errorf("unexpected output: %q", got)
	}
}

func TestDebug_WhenNotVerbose(t *testing.T) {
	buf := capture(t, false)

	Debug("test message")
	Info("info message")
	Section("Sync")

	if buf.Len() > 0 {
		t.Errorf("expected no gated output when verbose is disabled, got %q", buf.String())
	}
}

func TestInfo(t *testing.T) {
	buf := capture(t, true)

	Info("info message %d", 42)

	if got := buf.String(); got != "[INFO] info message 42\n" {
		t.Errorf("unexpected info output: %q", got)
	}
}

func TestWarn_PrintsEvenWhenNotVerbose(t *testing.T) {
	buf := capture(t, false)

	Warn("scan cycle failed: %s", "timeout")

	if got := buf.String(); got != "[WARN] scan cycle failed: timeout\n" {
		t.Errorf("unexpected warn output: %q", got)
	}
}

func TestSection(t *testing.T) {
	buf := capture(t, true)

	Section("Indexing")

	if got := buf.String(); got != "\n=== Indexing ===\n" {
		t.Errorf("unexpected section output: %q", got)
	}
}

func TestConcurrentAccess(t *testing.T) {
	capture(t, false)

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func(i int) {
			SetVerbose(true)
			Debug("concurrent %d", i)
			IsVerbose()
			SetVerbose(false)
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}
	// Passes if the race detector stays quiet.
}
