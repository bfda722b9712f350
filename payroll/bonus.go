package payroll

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ATTENDANCE TIERS
// =============================================================================

// Tier is a headcount band. Bands are closed, non-overlapping and ascending:
// 1-5, 6-10, 11-15, 16+.
type Tier int

const (
	TierNone Tier = iota // headcount <= 0, paid nothing
	Tier1to5
	Tier6to10
	Tier11to15
	Tier16Plus
)

// TierFor maps a headcount to its band.
func TierFor(studentCount int) Tier {
	switch {
	case studentCount <= 0:
		return TierNone
	case studentCount <= 5:
		return Tier1to5
	case studentCount <= 10:
		return Tier6to10
	case studentCount <= 15:
		return Tier11to15
	default:
		return Tier16Plus
	}
}

// Rate returns the pay for one class in tier t.
func (r Rates) Rate(t Tier) decimal.Decimal {
	switch t {
	case Tier1to5:
		return r.Tier1to5
	case Tier6to10:
		return r.Tier6to10
	case Tier11to15:
		return r.Tier11to15
	case Tier16Plus:
		return r.Tier16Plus
	default:
		return decimal.Zero
	}
}

// ClassPay is the pay for one class with the given headcount.
func (r Rates) ClassPay(studentCount int) decimal.Decimal {
	return r.Rate(TierFor(studentCount))
}

// =============================================================================
// SALES BONUS SCHEDULE
// =============================================================================

// PackageTier is a class-package product that earns a sales bonus.
// The per-unit bonus is SalesBonusUnit × Multiplier.
type PackageTier struct {
	Name       string
	Labels     []string // matched case-insensitively as substrings of the product label
	Multiplier decimal.Decimal
}

// BonusSchedule is checked in order; the first matching tier wins, so larger
// packages go first. Products matching no tier (single sessions, extras)
// earn nothing.
type BonusSchedule []PackageTier

// DefaultBonusSchedule reproduces 200/100 per unit with a bonus unit of 10.
func DefaultBonusSchedule() BonusSchedule {
	return BonusSchedule{
		{
			Name:       "ten-session package",
			Labels:     []string{"ten-session", "10-session", "十堂卡"},
			Multiplier: decimal.NewFromInt(20),
		},
		{
			Name:       "five-session package",
			Labels:     []string{"five-session", "5-session", "五堂卡"},
			Multiplier: decimal.NewFromInt(10),
		},
	}
}

// Match returns the tier for a product label.
func (s BonusSchedule) Match(product string) (PackageTier, bool) {
	label := strings.ToLower(product)
	for _, tier := range s {
		for _, l := range tier.Labels {
			if l != "" && strings.Contains(label, strings.ToLower(l)) {
				return tier, true
			}
		}
	}
	return PackageTier{}, false
}

// UnitBonus is the bonus for one unit of product.
func (s BonusSchedule) UnitBonus(product string, salesBonusUnit decimal.Decimal) decimal.Decimal {
	tier, ok := s.Match(product)
	if !ok {
		return decimal.Zero
	}
	return salesBonusUnit.Mul(tier.Multiplier)
}

// SaleBonus is UnitBonus × quantity. Quantities below one earn nothing.
func (s BonusSchedule) SaleBonus(sale SalesRecord, salesBonusUnit decimal.Decimal) decimal.Decimal {
	if sale.Quantity < 1 {
		return decimal.Zero
	}
	return s.UnitBonus(sale.Product, salesBonusUnit).Mul(decimal.NewFromInt(int64(sale.Quantity)))
}
