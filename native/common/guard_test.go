package common

import (
	"errors"
	"testing"
)

func TestGuard(t *testing.T) {
	if err := Guard(nil, "auction"); err != nil {
		t.Fatalf("nil view should not block: %v", err)
	}
	pauses := NewPauseSet(" Auction ", "")
	if len(pauses) != 1 {
		t.Fatalf("expected a single paused module, got %d", len(pauses))
	}
	if err := Guard(pauses, "auction"); !errors.Is(err, ErrModulePaused) {
		t.Fatalf("expected ErrModulePaused, got %v", err)
	}
	if err := Guard(pauses, "registry"); err != nil {
		t.Fatalf("registry should not be paused: %v", err)
	}
}
