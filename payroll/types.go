/*
Package payroll provides the payroll rule and aggregation engine.

PURPOSE:
  This package owns the monthly rule history for instructor pay and the
  deterministic aggregation of attendance and sales records into one
  summary per instructor per month. Storage, HTTP and scheduling live in
  other packages and reach the engine only through the contracts in store.go.

KEY CONCEPTS IN THIS FILE (types.go):
  - Rates: the four attendance tier rates plus the sales bonus unit
  - PayrollRule: one immutable snapshot of the rates for an effective month
  - AttendanceRecord / SalesRecord: raw events, never modified once written
  - MonthlyPayrollSummary: computed pay for one (instructor, month) pair
  - MonthlyReport: read-only aggregate over a month's summaries

DESIGN PRINCIPLES:
  1. Precision: money is decimal.Decimal, never float64
  2. Value semantics: every read returns a copy, no live references escape
  3. Explicit time: "now" always comes from an injected Clock
  4. Full replace: a month's summaries are rewritten as one set

USAGE:
  manager := payroll.NewRuleManager(store, payroll.SystemClock{})
  agg := payroll.NewAggregator(payroll.AggregatorDeps{
      Rules:      manager,
      Directory:  store,
      Attendance: store,
      Sales:      store,
      Summaries:  store,
  })
  summaries, err := agg.CalculateMonth(ctx, payroll.NewMonth(2026, time.February))

SEE ALSO:
  - rules.go: RuleManager (edit window, locking, copy-forward)
  - aggregator.go: Aggregator (CalculateMonth, SummaryForMonth)
  - store.go: Store contracts
*/
package payroll

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RuleID string
type InstructorID string
type CourseID string

// =============================================================================
// RATES - The monetary fields of a rule
// =============================================================================

// Rates holds the pay table for a month. All five fields are non-negative.
type Rates struct {
	Tier1to5       decimal.Decimal
	Tier6to10      decimal.Decimal
	Tier11to15     decimal.Decimal
	Tier16Plus     decimal.Decimal
	SalesBonusUnit decimal.Decimal
}

// DefaultRates is the table used when no earlier month exists to copy from.
func DefaultRates() Rates {
	return Rates{
		Tier1to5:       decimal.NewFromInt(500),
		Tier6to10:      decimal.NewFromInt(800),
		Tier11to15:     decimal.NewFromInt(1200),
		Tier16Plus:     decimal.NewFromInt(1500),
		SalesBonusUnit: decimal.NewFromInt(10),
	}
}

// RatesFromFloats converts boundary input into Rates, rejecting NaN and
// infinities. Sign is checked later by Validate.
func RatesFromFloats(tier1to5, tier6to10, tier11to15, tier16Plus, salesBonusUnit float64) (Rates, error) {
	fields := []struct {
		name  string
		value float64
	}{
		{"tier1to5", tier1to5},
		{"tier6to10", tier6to10},
		{"tier11to15", tier11to15},
		{"tier16Plus", tier16Plus},
		{"salesBonusUnit", salesBonusUnit},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return Rates{}, &InvalidRateError{Field: f.name, Value: f.value}
		}
	}
	return Rates{
		Tier1to5:       decimal.NewFromFloat(tier1to5),
		Tier6to10:      decimal.NewFromFloat(tier6to10),
		Tier11to15:     decimal.NewFromFloat(tier11to15),
		Tier16Plus:     decimal.NewFromFloat(tier16Plus),
		SalesBonusUnit: decimal.NewFromFloat(salesBonusUnit),
	}, nil
}

// Validate returns an *InvalidRateError for the first negative field.
func (r Rates) Validate() error {
	fields := []struct {
		name  string
		value decimal.Decimal
	}{
		{"tier1to5", r.Tier1to5},
		{"tier6to10", r.Tier6to10},
		{"tier11to15", r.Tier11to15},
		{"tier16Plus", r.Tier16Plus},
		{"salesBonusUnit", r.SalesBonusUnit},
	}
	for _, f := range fields {
		if f.value.IsNegative() {
			v, _ := f.value.Float64()
			return &InvalidRateError{Field: f.name, Value: v}
		}
	}
	return nil
}

// =============================================================================
// PAYROLL RULE - One per effective month
// =============================================================================

// PayrollRule is a snapshot of the rates in force for one calendar month.
// Once Locked is true the rates never change again; LockedAt is set exactly
// once, on the false→true transition.
type PayrollRule struct {
	ID             RuleID
	EffectiveMonth Month
	Rates
	Locked    bool
	LockedAt  time.Time // zero until locked
	CreatedAt time.Time
}

// =============================================================================
// PEOPLE AND CATALOG
// =============================================================================

type Instructor struct {
	ID        InstructorID
	Name      string
	Email     string
	Phone     string
	CreatedAt time.Time
}

type Course struct {
	ID          CourseID
	Name        string
	Description string
	CreatedAt   time.Time
}

// =============================================================================
// RAW RECORDS - Immutable once created
// =============================================================================

// AttendanceRecord is one taught class and its headcount.
type AttendanceRecord struct {
	ID           string
	InstructorID InstructorID
	CourseID     CourseID
	Date         Date
	StudentCount int
	CreatedAt    time.Time
}

// SalesRecord is one product sale credited to an instructor.
type SalesRecord struct {
	ID           string
	InstructorID InstructorID
	Date         Date
	Product      string
	Quantity     int
	UnitPrice    decimal.Decimal
	CreatedAt    time.Time
}

// =============================================================================
// SUMMARIES - Computed, fully replaceable per month
// =============================================================================

// MonthlyPayrollSummary is the computed pay for one instructor in one month.
// It carries no timestamps so that recalculating unchanged inputs yields an
// identical value.
type MonthlyPayrollSummary struct {
	Month          Month
	InstructorID   InstructorID
	InstructorName string
	ClassCount     int
	StudentCount   int
	AttendancePay  decimal.Decimal
	SalesBonus     decimal.Decimal
	TotalPay       decimal.Decimal
}

// MonthlyReport is the read view over one month's stored summaries.
type MonthlyReport struct {
	Month           Month
	Summaries       []MonthlyPayrollSummary
	TotalPay        decimal.Decimal
	TotalClasses    int
	InstructorCount int
}

// NewMonthlyReport totals the given summaries. An empty slice yields a
// zeroed report, which is how "not yet calculated" is represented.
func NewMonthlyReport(month Month, summaries []MonthlyPayrollSummary) MonthlyReport {
	report := MonthlyReport{
		Month:     month,
		Summaries: make([]MonthlyPayrollSummary, len(summaries)),
		TotalPay:  decimal.Zero,
	}
	copy(report.Summaries, summaries)
	for _, s := range summaries {
		report.TotalPay = report.TotalPay.Add(s.TotalPay)
		report.TotalClasses += s.ClassCount
	}
	report.InstructorCount = len(summaries)
	return report
}
