package sqlite_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/studio-payroll/payroll"
	"github.com/warp/studio-payroll/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

var (
	feb = payroll.MustParseMonth("2026-02")
	jan = payroll.MustParseMonth("2026-01")
)

func day(d int) payroll.Date { return payroll.NewDate(2026, time.February, d) }

// =============================================================================
// RULES
// =============================================================================

func TestStore_RuleLifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

	// GIVEN: no rule
	_, found, err := store.FindRule(ctx, feb)
	require.NoError(t, err)
	assert.False(t, found)

	// WHEN: a rule is inserted
	rates := payroll.DefaultRates()
	rates.Tier6to10 = decimal.RequireFromString("812.50")
	rule, err := store.UpsertRule(ctx, payroll.PayrollRule{
		ID: "r1", EffectiveMonth: feb, Rates: rates, CreatedAt: created,
	})

	// THEN: it round-trips exactly
	require.NoError(t, err)
	assert.Equal(t, payroll.RuleID("r1"), rule.ID)
	assert.Equal(t, feb, rule.EffectiveMonth)
	assert.True(t, decimal.RequireFromString("812.5").Equal(rule.Tier6to10))
	assert.True(t, created.Equal(rule.CreatedAt))
	assert.False(t, rule.Locked)

	// WHEN: locked twice
	lockedAt := created.Add(24 * time.Hour)
	require.NoError(t, store.MarkRuleLocked(ctx, feb, lockedAt))
	require.NoError(t, store.MarkRuleLocked(ctx, feb, lockedAt.Add(time.Hour)))

	// THEN: the first timestamp stays
	rule, found, err = store.FindRule(ctx, feb)
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, rule.Locked)
	assert.True(t, lockedAt.Equal(rule.LockedAt))

	// WHEN: upserted again after the lock
	_, err = store.UpsertRule(ctx, payroll.PayrollRule{ID: "r2", EffectiveMonth: feb, Rates: payroll.DefaultRates()})

	// THEN: refused, the locked row is unchanged
	assert.ErrorIs(t, err, payroll.ErrRuleLocked)
	rule, found, err = store.FindRule(ctx, feb)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, payroll.RuleID("r1"), rule.ID)
	assert.True(t, rule.Locked)
	assert.True(t, decimal.RequireFromString("812.5").Equal(rule.Tier6to10))
}

func TestStore_UpsertRuleKeepsIdentityWhileUnlocked(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	_, err := store.UpsertRule(ctx, payroll.PayrollRule{ID: "r1", EffectiveMonth: feb, Rates: payroll.DefaultRates(), CreatedAt: created})
	require.NoError(t, err)

	rates := payroll.DefaultRates()
	rates.Tier16Plus = decimal.NewFromInt(1600)
	rule, err := store.UpsertRule(ctx, payroll.PayrollRule{ID: "r2", EffectiveMonth: feb, Rates: rates})

	require.NoError(t, err)
	assert.Equal(t, payroll.RuleID("r1"), rule.ID)
	assert.True(t, created.Equal(rule.CreatedAt))
	assert.True(t, decimal.NewFromInt(1600).Equal(rule.Tier16Plus))
}

func TestStore_CreateRuleIfAbsent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// GIVEN: an edit already wrote February
	edited := payroll.DefaultRates()
	edited.Tier1to5 = decimal.NewFromInt(999)
	_, err := store.UpsertRule(ctx, payroll.PayrollRule{ID: "edit", EffectiveMonth: feb, Rates: edited})
	require.NoError(t, err)

	// WHEN: a synthesized rule arrives late
	rule, err := store.CreateRuleIfAbsent(ctx, payroll.PayrollRule{ID: "synth", EffectiveMonth: feb, Rates: payroll.DefaultRates()})

	// THEN: the edit wins
	require.NoError(t, err)
	assert.Equal(t, payroll.RuleID("edit"), rule.ID)
	assert.True(t, decimal.NewFromInt(999).Equal(rule.Tier1to5))

	// WHEN: the month is empty
	rule, err = store.CreateRuleIfAbsent(ctx, payroll.PayrollRule{ID: "synth", EffectiveMonth: jan, Rates: payroll.DefaultRates()})

	// THEN: inserted
	require.NoError(t, err)
	assert.Equal(t, payroll.RuleID("synth"), rule.ID)
	assert.False(t, rule.Locked)
}

func TestStore_MarkRuleLockedMissing(t *testing.T) {
	store := newTestStore(t)

	err := store.MarkRuleLocked(context.Background(), feb, time.Now())

	assert.ErrorIs(t, err, payroll.ErrRuleNotFound)
}

func TestStore_ListRulesOrdered(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	for i, m := range []payroll.Month{feb, jan, payroll.MustParseMonth("2025-12")} {
		_, err := store.UpsertRule(ctx, payroll.PayrollRule{
			ID: payroll.RuleID(string(rune('a' + i))), EffectiveMonth: m, Rates: payroll.DefaultRates(),
		})
		require.NoError(t, err)
	}

	rules, err := store.ListRules(ctx)

	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, "2025-12", rules[0].EffectiveMonth.String())
	assert.Equal(t, "2026-02", rules[2].EffectiveMonth.String())
}

// =============================================================================
// RECORDS
// =============================================================================

func TestStore_RecordsByInstructorAndRange(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.AddAttendance(ctx, payroll.AttendanceRecord{ID: "a1", InstructorID: "i1", CourseID: "c1", Date: day(28), StudentCount: 9}))
	require.NoError(t, store.AddAttendance(ctx, payroll.AttendanceRecord{ID: "a2", InstructorID: "i1", CourseID: "c1", Date: day(1), StudentCount: 4}))
	require.NoError(t, store.AddAttendance(ctx, payroll.AttendanceRecord{ID: "a3", InstructorID: "i1", CourseID: "c1", Date: payroll.NewDate(2026, time.March, 1), StudentCount: 4}))
	require.NoError(t, store.AddAttendance(ctx, payroll.AttendanceRecord{ID: "a4", InstructorID: "i2", CourseID: "c1", Date: day(2), StudentCount: 4}))

	require.NoError(t, store.AddSales(ctx, payroll.SalesRecord{
		ID: "s1", InstructorID: "i1", Date: day(3), Product: "ten-session", Quantity: 2, UnitPrice: decimal.RequireFromString("3500.00"),
	}))

	period := feb.Period()
	attendance, err := store.FindAttendance(ctx, "i1", period.Start, period.End)
	require.NoError(t, err)
	require.Len(t, attendance, 2)
	assert.Equal(t, "a2", attendance[0].ID)
	assert.Equal(t, "a1", attendance[1].ID)
	assert.Equal(t, 9, attendance[1].StudentCount)
	assert.Equal(t, payroll.CourseID("c1"), attendance[1].CourseID)

	sales, err := store.FindSales(ctx, "i1", period.Start, period.End)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, 2, sales[0].Quantity)
	assert.True(t, decimal.NewFromInt(3500).Equal(sales[0].UnitPrice))
	assert.Equal(t, "2026-02-03", sales[0].Date.String())
}

func TestStore_DuplicateAttendanceIDRejected(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	rec := payroll.AttendanceRecord{ID: "a1", InstructorID: "i1", Date: day(1), StudentCount: 4}

	require.NoError(t, store.AddAttendance(ctx, rec))
	assert.Error(t, store.AddAttendance(ctx, rec))
}

// =============================================================================
// INSTRUCTORS, COURSES, SETTINGS
// =============================================================================

func TestStore_Instructors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveInstructor(ctx, payroll.Instructor{ID: "i2", Name: "Bea"}))
	require.NoError(t, store.SaveInstructor(ctx, payroll.Instructor{ID: "i1", Name: "Amy", Email: "amy@example.com"}))

	list, err := store.ListInstructors(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Amy", list[0].Name)
	assert.Equal(t, "amy@example.com", list[0].Email)

	require.NoError(t, store.DeleteInstructor(ctx, "i1"))
	_, found, err := store.GetInstructor(ctx, "i1")
	require.NoError(t, err)
	assert.False(t, found)

	inst, found, err := store.GetInstructor(ctx, "i2")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Bea", inst.Name)
}

func TestStore_Courses(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCourse(ctx, payroll.Course{ID: "c1", Name: "Yoga", Description: "Vinyasa"}))

	courses, err := store.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Vinyasa", courses[0].Description)
}

func TestStore_Settings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SetSettings(ctx, map[string]string{payroll.SettingPaymentDay: "7"}))
	require.NoError(t, store.SetSettings(ctx, map[string]string{payroll.SettingPaymentDay: "8"}))

	v, found, err := store.GetSetting(ctx, payroll.SettingPaymentDay)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "8", v)

	all, err := store.AllSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{payroll.SettingPaymentDay: "8"}, all)
}

// =============================================================================
// SUMMARIES
// =============================================================================

func TestStore_ReplaceMonthSummaries(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	summary := func(m payroll.Month, id string, total int64) payroll.MonthlyPayrollSummary {
		return payroll.MonthlyPayrollSummary{
			Month: m, InstructorID: payroll.InstructorID(id), InstructorName: id,
			ClassCount: 1, StudentCount: 5,
			AttendancePay: decimal.NewFromInt(total), SalesBonus: decimal.Zero, TotalPay: decimal.NewFromInt(total),
		}
	}

	require.NoError(t, store.ReplaceMonthSummaries(ctx, jan, []payroll.MonthlyPayrollSummary{summary(jan, "i1", 500)}))
	require.NoError(t, store.ReplaceMonthSummaries(ctx, feb, []payroll.MonthlyPayrollSummary{summary(feb, "i2", 800), summary(feb, "i1", 500)}))
	require.NoError(t, store.ReplaceMonthSummaries(ctx, feb, []payroll.MonthlyPayrollSummary{summary(feb, "i1", 1500)}))

	got, err := store.FindSummaries(ctx, feb)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, payroll.InstructorID("i1"), got[0].InstructorID)
	assert.True(t, decimal.NewFromInt(1500).Equal(got[0].TotalPay))

	months, err := store.SummaryMonths(ctx)
	require.NoError(t, err)
	assert.Equal(t, []payroll.Month{feb, jan}, months)
}

func TestStore_ReplaceRejectsDuplicateInstructorAtomically(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	row := payroll.MonthlyPayrollSummary{Month: feb, InstructorID: "i1", InstructorName: "Amy"}

	require.NoError(t, store.ReplaceMonthSummaries(ctx, feb, []payroll.MonthlyPayrollSummary{row}))
	err := store.ReplaceMonthSummaries(ctx, feb, []payroll.MonthlyPayrollSummary{row, row})
	require.Error(t, err)

	got, err := store.FindSummaries(ctx, feb)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

// =============================================================================
// ENGINE OVER SQLITE
// =============================================================================

func TestStore_EngineEndToEnd(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)

	clock := payroll.FixedClock(time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC))
	rules := payroll.NewRuleManager(store, clock, payroll.WithRuleLogger(quiet))
	agg := payroll.NewAggregator(payroll.AggregatorDeps{
		Rules: rules, Directory: store, Attendance: store, Sales: store, Summaries: store,
	}, payroll.WithAggregatorLogger(quiet))

	require.NoError(t, store.SaveInstructor(ctx, payroll.Instructor{ID: "i1", Name: "Amy"}))
	require.NoError(t, store.AddAttendance(ctx, payroll.AttendanceRecord{ID: "a1", InstructorID: "i1", Date: day(3), StudentCount: 10}))
	require.NoError(t, store.AddAttendance(ctx, payroll.AttendanceRecord{ID: "a2", InstructorID: "i1", Date: day(4), StudentCount: 16}))
	require.NoError(t, store.AddSales(ctx, payroll.SalesRecord{ID: "s1", InstructorID: "i1", Date: day(5), Product: "ten-session", Quantity: 2, UnitPrice: decimal.NewFromInt(3000)}))

	summaries, err := agg.CalculateMonth(ctx, feb)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, decimal.NewFromInt(2700).Equal(summaries[0].TotalPay))

	report, err := agg.SummaryForMonth(ctx, feb)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(2700).Equal(report.TotalPay))
}
