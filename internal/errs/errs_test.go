package errs

import (
	"errors"
	"testing"
)

func TestCodeOfFindsWrappedCode(t *testing.T) {
	base := errors.New("tier gold is not sold")
	err := Wrap(WithCode("invalid_tier", base), "create payment")

	if got := CodeOf(err, "internal"); got != "invalid_tier" {
		t.Fatalf("CodeOf() = %q, want invalid_tier", got)
	}
	if !errors.Is(err, base) {
		t.Fatal("errors.Is(err, base) = false, want true")
	}
	if got := CodeOf(errors.New("plain"), "internal"); got != "internal" {
		t.Fatalf("CodeOf(plain) = %q, want internal", got)
	}
}

func TestCodedWithoutCauseUsesCodeAsMessage(t *testing.T) {
	err := WithCode("wallet_required", nil)
	if err.Error() != "wallet_required" {
		t.Fatalf("Error() = %q", err.Error())
	}
}

func TestMessageOr(t *testing.T) {
	if got := MessageOr(nil, "gatekeeper_error"); got != "gatekeeper_error" {
		t.Fatalf("MessageOr(nil) = %q", got)
	}
	if got := MessageOr(errors.New("  "), "gatekeeper_error"); got != "gatekeeper_error" {
		t.Fatalf("MessageOr(blank) = %q", got)
	}
	if got := MessageOr(errors.New("exit status 1"), "gatekeeper_error"); got != "exit status 1" {
		t.Fatalf("MessageOr(err) = %q", got)
	}
}

func TestErrorChainStrings(t *testing.T) {
	err := Wrapf(errors.New("disk full"), "append %s", "audit.jsonl")
	chain := ErrorChainStrings(err)
	if len(chain) != 2 {
		t.Fatalf("len(chain) = %d, want 2", len(chain))
	}
	if chain[1] != "disk full" {
		t.Fatalf("chain[1] = %q", chain[1])
	}
}
