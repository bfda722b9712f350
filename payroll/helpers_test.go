package payroll_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/studio-payroll/payroll"
	"github.com/warp/studio-payroll/payroll/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type testEngine struct {
	store *store.Memory
	rules *payroll.RuleManager
	agg   *payroll.Aggregator
	now   time.Time
}

// newTestEngine wires a rule manager and aggregator over one memory store,
// with the clock pinned at now.
func newTestEngine(t *testing.T, now time.Time) *testEngine {
	t.Helper()
	mem := store.NewMemory()
	e := &testEngine{store: mem, now: now}

	// Tests move time by assigning e.now.
	c := payroll.ClockFunc(func() time.Time { return e.now })
	e.rules = payroll.NewRuleManager(mem, c, payroll.WithRuleLogger(quietLogger()))
	e.agg = payroll.NewAggregator(payroll.AggregatorDeps{
		Rules:      e.rules,
		Directory:  mem,
		Attendance: mem,
		Sales:      mem,
		Summaries:  mem,
	}, payroll.WithAggregatorLogger(quietLogger()))
	return e
}

func (e *testEngine) instructor(t *testing.T, id, name string) payroll.Instructor {
	t.Helper()
	inst := payroll.Instructor{ID: payroll.InstructorID(id), Name: name}
	require.NoError(t, e.store.SaveInstructor(context.Background(), inst))
	return inst
}

func (e *testEngine) class(t *testing.T, instructorID string, date payroll.Date, students int) {
	t.Helper()
	require.NoError(t, e.store.AddAttendance(context.Background(), payroll.AttendanceRecord{
		ID:           uuid.NewString(),
		InstructorID: payroll.InstructorID(instructorID),
		CourseID:     "yoga",
		Date:         date,
		StudentCount: students,
	}))
}

func (e *testEngine) sale(t *testing.T, instructorID string, date payroll.Date, product string, qty int) {
	t.Helper()
	require.NoError(t, e.store.AddSales(context.Background(), payroll.SalesRecord{
		ID:           uuid.NewString(),
		InstructorID: payroll.InstructorID(instructorID),
		Date:         date,
		Product:      product,
		Quantity:     qty,
		UnitPrice:    decimal.NewFromInt(1000),
	}))
}

func (e *testEngine) seedRule(t *testing.T, month payroll.Month, rates payroll.Rates, locked bool) {
	t.Helper()
	ctx := context.Background()
	_, err := e.store.UpsertRule(ctx, payroll.PayrollRule{
		ID:             payroll.RuleID("rule-" + month.String()),
		EffectiveMonth: month,
		Rates:          rates,
		CreatedAt:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	if locked {
		require.NoError(t, e.store.MarkRuleLocked(ctx, month, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	}
}

func assertMoney(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

func rates(t1, t2, t3, t4, bonus int64) payroll.Rates {
	return payroll.Rates{
		Tier1to5:       decimal.NewFromInt(t1),
		Tier6to10:      decimal.NewFromInt(t2),
		Tier11to15:     decimal.NewFromInt(t3),
		Tier16Plus:     decimal.NewFromInt(t4),
		SalesBonusUnit: decimal.NewFromInt(bonus),
	}
}

// =============================================================================
// FAILING STORE
// =============================================================================

var errDiskFull = errors.New("disk full")

// failingStore wraps a Memory and fails the named operation.
type failingStore struct {
	*store.Memory
	failOn string
}

func (f *failingStore) FindSales(ctx context.Context, id payroll.InstructorID, from, to payroll.Date) ([]payroll.SalesRecord, error) {
	if f.failOn == "sales" {
		return nil, errDiskFull
	}
	return f.Memory.FindSales(ctx, id, from, to)
}

func (f *failingStore) ReplaceMonthSummaries(ctx context.Context, month payroll.Month, s []payroll.MonthlyPayrollSummary) error {
	if f.failOn == "replace" {
		return errDiskFull
	}
	return f.Memory.ReplaceMonthSummaries(ctx, month, s)
}

func (f *failingStore) ListRules(ctx context.Context) ([]payroll.PayrollRule, error) {
	if f.failOn == "rules" {
		return nil, errDiskFull
	}
	return f.Memory.ListRules(ctx)
}
