package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/MRamiBalles/ElevatorBank/internal/engine"
	"github.com/MRamiBalles/ElevatorBank/internal/platform/logger"
)

func runShell(t *testing.T, input string) (string, *engine.Dispatcher) {
	t.Helper()
	d := engine.NewDispatcher(nil, logger.Discard(), nil)
	var out bytes.Buffer
	if err := NewShell(strings.NewReader(input), &out, d, 8).Run(); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	return out.String(), d
}

func TestSetupRepromptsOnInvalidInput(t *testing.T) {
	out, d := runShell(t, "1\nabc\n5\n0\n5\n2\n9\n")

	if got := strings.Count(out, invalidInput); got != 3 {
		t.Errorf("expected 3 invalid input notices, got %d:\n%s", got, out)
	}
	statuses, err := d.ReportAllStatuses()
	if err != nil || len(statuses) != 2 {
		t.Fatalf("expected 2 elevators, got %v (%v)", statuses, err)
	}
	if !strings.HasSuffix(out, "Exiting...\n") {
		t.Errorf("expected exit message, got:\n%s", out)
	}
}

func TestRequestAndStatuses(t *testing.T) {
	out, _ := runShell(t, "10\n3\n1\n7\n4\n9\n")

	for _, want := range []string{
		"Elevator 1 on floor 7, Idle direction, 0/8 people.",
		"Elevator 2 on floor 1, Idle direction, 0/8 people.",
		"Elevator 3 on floor 1, Idle direction, 0/8 people.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestInvalidChoiceRepeatsMenu(t *testing.T) {
	out, _ := runShell(t, "4\n1\n42\nx\n9\n")

	if got := strings.Count(out, invalidInput); got != 2 {
		t.Errorf("expected 2 invalid input notices, got %d", got)
	}
	if got := strings.Count(out, "Options:"); got != 3 {
		t.Errorf("expected the menu 3 times, got %d", got)
	}
}

func TestLookupAndRuleErrors(t *testing.T) {
	out, _ := runShell(t, strings.Join([]string{
		"4", "2",
		"1", "9", // request unknown floor
		"5", "1", "9", // overload elevator 1
		"6", "3", "1", // unload unknown elevator
		"3", "2", "1", // remove from empty floor
		"9",
	}, "\n")+"\n")

	for _, want := range []string{
		"The floor does not exist.",
		"exceeds capacity",
		"The elevator does not exist.",
		"Error: ",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestPeopleAndMove(t *testing.T) {
	out, d := runShell(t, strings.Join([]string{
		"6", "1",
		"2", "4", "3", // add 3 people to floor 4
		"7", "4", "6", // move from 4 to 6
		"5", "1", "3", // load 3
		"9",
	}, "\n")+"\n")

	if !strings.Contains(out, "3 people added to floor 4. 3 waiting.") {
		t.Errorf("missing add confirmation:\n%s", out)
	}
	if !strings.Contains(out, "Elevator 1 on floor 6, Idle direction, 0/8 people.") {
		t.Errorf("missing move status:\n%s", out)
	}
	statuses, _ := d.ReportAllStatuses()
	if statuses[0].Load != 3 || statuses[0].Floor != 6 {
		t.Errorf("unexpected final status %+v", statuses[0])
	}
}

func TestBulkCall(t *testing.T) {
	out, _ := runShell(t, "5\n3\n8\n2\n10\n9\n")

	for _, want := range []string{
		"Elevator 1 took 4 passengers.",
		"Elevator 2 took 3 passengers.",
		"Elevator 3 took 3 passengers.",
		"10/10 passengers transported from floor 2.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestEOFEndsSession(t *testing.T) {
	out, _ := runShell(t, "3\n1\n1\n")
	if strings.Contains(out, "Exiting...") {
		t.Errorf("EOF should end quietly, got:\n%s", out)
	}
	if _, d := runShell(t, ""); d.Initialized() {
		t.Error("empty input must not initialize the bank")
	}
}
