package floor

import (
	"errors"
	"testing"
)

func TestNewFloorIsEmpty(t *testing.T) {
	f, err := New(3)
	if err != nil {
		t.Fatalf("New(3) failed: %v", err)
	}
	if f.Number() != 3 || f.Waiting() != 0 {
		t.Errorf("unexpected floor %+v", f.Status())
	}
	if _, err := New(0); !errors.Is(err, ErrInvalidNumber) {
		t.Errorf("New(0): expected ErrInvalidNumber, got %v", err)
	}
}

func TestAddAndRemovePeople(t *testing.T) {
	f, _ := New(1)
	if err := f.AddPeople(5); err != nil {
		t.Fatalf("AddPeople(5) failed: %v", err)
	}
	if err := f.AddPeople(0); err != nil {
		t.Fatalf("AddPeople(0) failed: %v", err)
	}
	if err := f.RemovePeople(6); !errors.Is(err, ErrInsufficientPeople) {
		t.Errorf("expected ErrInsufficientPeople, got %v", err)
	}
	if f.Waiting() != 5 {
		t.Errorf("failed removal changed waiting to %d", f.Waiting())
	}
	if err := f.RemovePeople(5); err != nil {
		t.Fatalf("RemovePeople(5) failed: %v", err)
	}
	if f.Waiting() != 0 {
		t.Errorf("expected nobody waiting, got %d", f.Waiting())
	}
}

func TestNegativeCountsRejected(t *testing.T) {
	f, _ := New(1)
	if err := f.AddPeople(-2); !errors.Is(err, ErrNegativeCount) {
		t.Errorf("AddPeople(-2): expected ErrNegativeCount, got %v", err)
	}
	if err := f.RemovePeople(-2); !errors.Is(err, ErrNegativeCount) {
		t.Errorf("RemovePeople(-2): expected ErrNegativeCount, got %v", err)
	}
	if f.Waiting() != 0 {
		t.Errorf("expected waiting 0, got %d", f.Waiting())
	}
}
