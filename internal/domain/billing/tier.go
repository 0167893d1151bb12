package billing

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type TierID string

const (
	TierScout     TierID = "scout"
	TierCommander TierID = "commander"
	TierArchitect TierID = "architect"
)

// Tier is a sellable access level. Price is authoritative; whatever amount
// the client sends is only checked against it.
type Tier struct {
	ID    TierID
	Name  string
	Price decimal.Decimal
}

var tiers = map[TierID]Tier{
	TierScout:     {ID: TierScout, Name: "PARTNER SCOUT", Price: decimal.RequireFromString("29.99")},
	TierCommander: {ID: TierCommander, Name: "LIQUIDITY PROVIDER", Price: decimal.RequireFromString("49.90")},
	TierArchitect: {ID: TierArchitect, Name: "INSTITUTIONAL PARTNER", Price: decimal.RequireFromString("99.00")},
}

var amountTolerance = decimal.RequireFromString("0.01")

func LookupTier(raw string) (Tier, error) {
	id := TierID(strings.ToLower(strings.TrimSpace(raw)))
	tier, ok := tiers[id]
	if !ok {
		return Tier{}, fmt.Errorf("%w: %q", ErrInvalidTier, raw)
	}
	return tier, nil
}

// Tiers returns the price table in display order.
func Tiers() []Tier {
	return []Tier{tiers[TierScout], tiers[TierCommander], tiers[TierArchitect]}
}

// CheckAmount accepts amount when it is within 0.01 of the tier price.
func (t Tier) CheckAmount(amount decimal.Decimal) error {
	if amount.Sub(t.Price).Abs().GreaterThan(amountTolerance) {
		return fmt.Errorf("%w: got %s, want %s", ErrAmountMismatch, amount.StringFixed(2), t.Price.StringFixed(2))
	}
	return nil
}

// MinorUnits is the price in cents, as card processors expect it.
func (t Tier) MinorUnits() int64 {
	return t.Price.Shift(2).Round(0).IntPart()
}
