package billing

import "testing"

func TestParseProcessorStatus(t *testing.T) {
	cases := []struct {
		raw     string
		kind    PaymentStatus
		stored  string
		grants  bool
		revokes bool
	}{
		{"1", PaymentAuthorized, "authorized", true, false},
		{"2", PaymentPaid, "paid", true, false},
		{" authorized ", PaymentAuthorized, "authorized", true, false},
		{"PaymentConfirmed", PaymentPaid, "paid", true, false},
		{"3", PaymentDenied, "denied", false, false},
		{"10", PaymentVoided, "voided", false, true},
		{"11", PaymentRefunded, "refunded", false, false},
		{"13", PaymentAborted, "aborted", false, true},
		{"99", PaymentUnknown, "99", false, false},
		{"settled-ish", PaymentUnknown, "settled-ish", false, false},
	}
	for _, tc := range cases {
		got := ParseProcessorStatus(tc.raw)
		if got.Kind != tc.kind {
			t.Fatalf("ParseProcessorStatus(%q).Kind = %q, want %q", tc.raw, got.Kind, tc.kind)
		}
		if got.Stored() != tc.stored {
			t.Fatalf("ParseProcessorStatus(%q).Stored() = %q, want %q", tc.raw, got.Stored(), tc.stored)
		}
		if got.GrantsAccess() != tc.grants || got.RevokesAccess() != tc.revokes {
			t.Fatalf("ParseProcessorStatus(%q) grants=%v revokes=%v", tc.raw, got.GrantsAccess(), got.RevokesAccess())
		}
	}
}

func TestStatusCodeRoundTrip(t *testing.T) {
	for code := range statusByCode {
		if got := StatusFromCode(code).Code(); got != code {
			t.Fatalf("StatusFromCode(%d).Code() = %d", code, got)
		}
	}
	if got := ParseProcessorStatus("nope").Code(); got != -1 {
		t.Fatalf("unknown Code() = %d, want -1", got)
	}
}
