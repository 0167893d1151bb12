package triage

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSanitizeNeverLeaksRawValues(t *testing.T) {
	raw := map[string]string{
		AnswerName:       "Satoshi Nakamoto",
		AnswerNationalID: "123.456.789-09",
		AnswerEmail:      "Satoshi@Example.COM",
		AnswerHandle:     "@satoshi",
		AnswerReferral:   "  REF1 ",
	}

	got := Sanitize(raw)
	if got.Name != "Sa***to" {
		t.Fatalf("Name = %q", got.Name)
	}
	if got.Handle != "@s***hi" {
		t.Fatalf("Handle = %q", got.Handle)
	}
	if got.NationalIDLast4 != "8909" {
		t.Fatalf("NationalIDLast4 = %q", got.NationalIDLast4)
	}
	if got.EmailDomain != "example.com" {
		t.Fatalf("EmailDomain = %q", got.EmailDomain)
	}
	if got.Referral != "REF1" {
		t.Fatalf("Referral = %q", got.Referral)
	}
	if len(got.NationalIDHash) != 64 || len(got.EmailHash) != 64 {
		t.Fatalf("hash lengths = %d,%d, want 64", len(got.NationalIDHash), len(got.EmailHash))
	}

	encoded, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, secret := range []string{"Satoshi Nakamoto", "123.456.789-09", "12345678909", "Satoshi@Example.COM", "satoshi@example.com"} {
		if strings.Contains(string(encoded), secret) {
			t.Fatalf("sanitized payload leaks %q: %s", secret, encoded)
		}
	}
}

func TestHashIsDeterministic(t *testing.T) {
	first := Sanitize(map[string]string{AnswerNationalID: "98765432100"})
	second := Sanitize(map[string]string{AnswerNationalID: " 98765432100 "})
	if first.NationalIDHash != second.NationalIDHash {
		t.Fatalf("hash differs: %s vs %s", first.NationalIDHash, second.NationalIDHash)
	}
	if Hash("") != "" || Hash("   ") != "" {
		t.Fatal("blank values must hash to empty string")
	}
}

func TestMaskShortValuesPassThrough(t *testing.T) {
	if got := Mask(" abcd "); got != "abcd" {
		t.Fatalf("Mask(abcd) = %q", got)
	}
	if got := Mask("abcde"); got != "ab***de" {
		t.Fatalf("Mask(abcde) = %q", got)
	}
	if got := Mask("joão silva"); got != "jo***va" {
		t.Fatalf("Mask(multibyte) = %q", got)
	}
}

func TestLastDigitsAndEmailDomain(t *testing.T) {
	if got := LastDigits("12-3", 4); got != "123" {
		t.Fatalf("LastDigits short = %q", got)
	}
	if got := EmailDomain("no-at-sign"); got != "" {
		t.Fatalf("EmailDomain = %q", got)
	}
}
