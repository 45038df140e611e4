package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLevelsArePrefixed(t *testing.T) {
	var buf bytes.Buffer
	l := NewLoggerTo(&buf)

	l.Info("started")
	l.Warnf("floor %d unknown", 9)
	l.Error("boom")
	l.Event("ELEVATOR_DISPATCHED", "ELEVATOR_1", "to floor 3")

	out := buf.String()
	for _, want := range []string{
		"[LIFT-INFO] ",
		"started",
		"[LIFT-WARN] ",
		"floor 9 unknown",
		"[LIFT-ERROR] ",
		"[EVENT:ELEVATOR_DISPATCHED] Actor:ELEVATOR_1 | to floor 3",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
	if !strings.Contains(out, "logger_test.go") {
		t.Errorf("expected caller file in output:\n%s", out)
	}
}
