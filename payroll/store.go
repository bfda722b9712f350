/*
store.go - Persistence contracts consumed by the engine

PURPOSE:
  The engine never knows how rules, records or summaries are stored. It
  depends only on the interfaces below; any storage technology can sit
  behind them.

KEY INTERFACES:
  RuleStore:           one rule per effective month (findByMonth, listAll, upsert, markLocked)
  AttendanceStore:     attendance records by instructor and date range
  SalesStore:          sales records by instructor and date range
  InstructorDirectory: the roster (id + display name)
  SummaryStore:        monthly summaries, replaced a whole month at a time
  SettingsStore:       key/value settings (PaymentDay)

CONSISTENCY:
  Implementations must give read-your-writes consistency within one
  CalculateMonth call. The engine does not serialize concurrent calls for the
  same month; see lock/ for an optional lock at this boundary.

IMPLEMENTATIONS:
  - payroll/store/memory.go: in-memory, for tests and dev
  - store/sqlite/sqlite.go:  SQLite
*/
package payroll

import (
	"context"
	"time"
)

// RuleStore persists one PayrollRule per effective month.
type RuleStore interface {
	// FindRule returns the rule for month; found is false if none exists.
	FindRule(ctx context.Context, month Month) (rule PayrollRule, found bool, err error)

	// ListRules returns every stored rule in no particular order.
	ListRules(ctx context.Context) ([]PayrollRule, error)

	// UpsertRule writes the rates for rule.EffectiveMonth. An existing record
	// keeps its ID, CreatedAt and lock state. A locked record is never
	// rewritten: the call fails with a *RuleLockedError. Returns the stored
	// value.
	UpsertRule(ctx context.Context, rule PayrollRule) (PayrollRule, error)

	// CreateRuleIfAbsent inserts rule unless its month already has one, and
	// returns whatever is stored afterwards. Existing rates are never touched.
	CreateRuleIfAbsent(ctx context.Context, rule PayrollRule) (PayrollRule, error)

	// MarkRuleLocked sets locked=true and lockedAt=at if the rule is unlocked.
	MarkRuleLocked(ctx context.Context, month Month, at time.Time) error
}

// AttendanceStore reads attendance records.
type AttendanceStore interface {
	// FindAttendance returns records for the instructor within [from, to].
	FindAttendance(ctx context.Context, instructorID InstructorID, from, to Date) ([]AttendanceRecord, error)
}

// SalesStore reads sales records.
type SalesStore interface {
	// FindSales returns records for the instructor within [from, to].
	FindSales(ctx context.Context, instructorID InstructorID, from, to Date) ([]SalesRecord, error)
}

// InstructorDirectory lists the known instructors.
type InstructorDirectory interface {
	ListInstructors(ctx context.Context) ([]Instructor, error)
}

// SummaryStore persists computed monthly summaries.
type SummaryStore interface {
	// ReplaceMonthSummaries discards every stored summary for month and
	// writes the given set in its place.
	ReplaceMonthSummaries(ctx context.Context, month Month, summaries []MonthlyPayrollSummary) error

	// FindSummaries returns the stored summaries for month.
	FindSummaries(ctx context.Context, month Month) ([]MonthlyPayrollSummary, error)

	// SummaryMonths returns every month with stored summaries, newest first.
	SummaryMonths(ctx context.Context) ([]Month, error)
}

// SettingsStore is a small key/value store for studio settings.
type SettingsStore interface {
	GetSetting(ctx context.Context, key string) (value string, found bool, err error)
	AllSettings(ctx context.Context) (map[string]string, error)
	SetSettings(ctx context.Context, values map[string]string) error
}

// Setting keys.
const (
	SettingPaymentDay = "PaymentDay"
)

// DefaultPaymentDay is used when the PaymentDay setting is absent or invalid.
const DefaultPaymentDay = 5
