package triage

import (
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	got, err := ParseStatus("  Approved ")
	if err != nil {
		t.Fatalf("ParseStatus() error = %v", err)
	}
	if got != StatusApproved {
		t.Fatalf("ParseStatus() = %q", got)
	}

	if _, err := ParseStatus("done"); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("ParseStatus(done) error = %v, want ErrInvalidStatus", err)
	}
	if _, err := ParseStatus(""); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("ParseStatus(empty) error = %v, want ErrInvalidStatus", err)
	}
}

func TestParseTierFallsBackToStandard(t *testing.T) {
	if ParseTier("PRIORITY") != TierPriority {
		t.Fatal("ParseTier(PRIORITY) != priority")
	}
	if ParseTier("gold") != TierStandard {
		t.Fatal("ParseTier(gold) != standard")
	}
}
