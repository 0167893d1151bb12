package billing

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLookupTier(t *testing.T) {
	tier, err := LookupTier(" Scout ")
	if err != nil {
		t.Fatalf("LookupTier() error = %v", err)
	}
	if tier.ID != TierScout || !tier.Price.Equal(decimal.RequireFromString("29.99")) {
		t.Fatalf("LookupTier() = %+v", tier)
	}

	if _, err := LookupTier("gold"); !errors.Is(err, ErrInvalidTier) {
		t.Fatalf("LookupTier(gold) error = %v, want ErrInvalidTier", err)
	}
}

func TestCheckAmount(t *testing.T) {
	commander, _ := LookupTier("commander")
	cases := []struct {
		amount string
		ok     bool
	}{
		{"49.90", true},
		{"49.9", true},
		{"49.91", true},
		{"49.89", true},
		{"49.92", false},
		{"25.00", false},
		{"0", false},
	}
	for _, tc := range cases {
		err := commander.CheckAmount(decimal.RequireFromString(tc.amount))
		if tc.ok && err != nil {
			t.Fatalf("CheckAmount(%s) error = %v", tc.amount, err)
		}
		if !tc.ok && !errors.Is(err, ErrAmountMismatch) {
			t.Fatalf("CheckAmount(%s) error = %v, want ErrAmountMismatch", tc.amount, err)
		}
	}
}

func TestMinorUnits(t *testing.T) {
	want := map[TierID]int64{TierScout: 2999, TierCommander: 4990, TierArchitect: 9900}
	for _, tier := range Tiers() {
		if got := tier.MinorUnits(); got != want[tier.ID] {
			t.Fatalf("%s MinorUnits() = %d, want %d", tier.ID, got, want[tier.ID])
		}
	}
}
