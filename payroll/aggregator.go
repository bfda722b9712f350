/*
aggregator.go - Monthly payroll computation

PURPOSE:
  Turns a month of raw attendance and sales records into one
  MonthlyPayrollSummary per known instructor, and stores the set as a full
  replacement of that month.

ALGORITHM (CalculateMonth):
  1. Resolve the effective rule for the month (RuleResolver)
  2. Load the roster; an empty roster is ErrNoInstructors
  3. For each instructor, independently and in parallel:
     a. attendance in [month start, month end]: sum tier pay, count classes, sum headcount
     b. sales in the same window: sum package bonus × quantity
     c. total = attendance pay + sales bonus
  4. Replace the month's stored summaries with the new set
  5. Return the set, ordered by instructor ID

IDEMPOTENCE:
  Summaries carry no timestamps and are ordered deterministically, so two
  runs over unchanged inputs produce identical results. The replace in
  step 4 drops rows for instructors no longer on the roster.

FAILURE:
  Any error aborts the calculation before step 4, leaving the previously
  stored set untouched. Nothing is retried.

CONCURRENCY:
  Per-instructor work shares nothing and runs under an errgroup with a
  worker limit. Callers must not run CalculateMonth concurrently with
  itself or with rule edits for the same month.
*/
package payroll

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// RuleResolver resolves the rule a calculation runs under.
// *RuleManager implements it.
type RuleResolver interface {
	ResolveEffectiveRule(ctx context.Context, month Month) (PayrollRule, error)
}

// AggregatorDeps are the collaborators of an Aggregator.
type AggregatorDeps struct {
	Rules      RuleResolver
	Directory  InstructorDirectory
	Attendance AttendanceStore
	Sales      SalesStore
	Summaries  SummaryStore
}

// Aggregator computes and stores monthly payroll.
type Aggregator struct {
	deps     AggregatorDeps
	schedule BonusSchedule
	workers  int
	log      logrus.FieldLogger
}

type AggregatorOption func(*Aggregator)

// WithBonusSchedule replaces the default package bonus schedule.
func WithBonusSchedule(s BonusSchedule) AggregatorOption {
	return func(a *Aggregator) { a.schedule = s }
}

// WithWorkers bounds per-instructor parallelism. Values below one mean one.
func WithWorkers(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n < 1 {
			n = 1
		}
		a.workers = n
	}
}

func WithAggregatorLogger(l logrus.FieldLogger) AggregatorOption {
	return func(a *Aggregator) { a.log = l }
}

func NewAggregator(deps AggregatorDeps, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		deps:     deps,
		schedule: DefaultBonusSchedule(),
		workers:  4,
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.log = a.log.WithField("module", "aggregator")
	return a
}

// CalculateMonth computes every instructor's pay for month and stores the
// result as a full replacement of that month's summaries.
func (a *Aggregator) CalculateMonth(ctx context.Context, month Month) ([]MonthlyPayrollSummary, error) {
	rule, err := a.deps.Rules.ResolveEffectiveRule(ctx, month)
	if err != nil {
		return nil, err
	}

	instructors, err := a.deps.Directory.ListInstructors(ctx)
	if err != nil {
		return nil, storeErr("list instructors", err)
	}
	if len(instructors) == 0 {
		return nil, ErrNoInstructors
	}

	results := make([]MonthlyPayrollSummary, len(instructors))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, inst := range instructors {
		i, inst := i, inst
		g.Go(func() error {
			s, err := a.calculateInstructor(gctx, rule, inst, month)
			if err != nil {
				return err
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].InstructorID < results[j].InstructorID
	})

	if err := a.deps.Summaries.ReplaceMonthSummaries(ctx, month, results); err != nil {
		return nil, storeErr("replace summaries", err)
	}

	report := NewMonthlyReport(month, results)
	a.log.WithFields(logrus.Fields{
		"month":       month.String(),
		"instructors": report.InstructorCount,
		"classes":     report.TotalClasses,
		"total_pay":   report.TotalPay.StringFixed(2),
	}).Info("payroll calculated")

	out := make([]MonthlyPayrollSummary, len(results))
	copy(out, results)
	return out, nil
}

func (a *Aggregator) calculateInstructor(ctx context.Context, rule PayrollRule, inst Instructor, month Month) (MonthlyPayrollSummary, error) {
	if err := ctx.Err(); err != nil {
		return MonthlyPayrollSummary{}, err
	}
	from, to := month.Start(), month.End()

	attendance, err := a.deps.Attendance.FindAttendance(ctx, inst.ID, from, to)
	if err != nil {
		return MonthlyPayrollSummary{}, storeErr("find attendance", err)
	}
	sales, err := a.deps.Sales.FindSales(ctx, inst.ID, from, to)
	if err != nil {
		return MonthlyPayrollSummary{}, storeErr("find sales", err)
	}

	s := Summarize(rule, a.schedule, inst, month, attendance, sales)
	a.log.WithFields(logrus.Fields{
		"month":         month.String(),
		"instructor_id": string(inst.ID),
		"classes":       s.ClassCount,
		"total_pay":     s.TotalPay.StringFixed(2),
	}).Debug("instructor summarized")
	return s, nil
}

// Summarize is the pure per-instructor computation. Records outside the
// month are ignored. A headcount of zero or less counts as a class that
// pays nothing and adds no students.
func Summarize(rule PayrollRule, schedule BonusSchedule, inst Instructor, month Month, attendance []AttendanceRecord, sales []SalesRecord) MonthlyPayrollSummary {
	window := month.Period()
	s := MonthlyPayrollSummary{
		Month:          month,
		InstructorID:   inst.ID,
		InstructorName: inst.Name,
		AttendancePay:  decimal.Zero,
		SalesBonus:     decimal.Zero,
	}

	for _, rec := range attendance {
		if !window.Contains(rec.Date) {
			continue
		}
		s.ClassCount++
		if rec.StudentCount > 0 {
			s.StudentCount += rec.StudentCount
		}
		s.AttendancePay = s.AttendancePay.Add(rule.ClassPay(rec.StudentCount))
	}

	for _, sale := range sales {
		if !window.Contains(sale.Date) {
			continue
		}
		s.SalesBonus = s.SalesBonus.Add(schedule.SaleBonus(sale, rule.SalesBonusUnit))
	}

	s.TotalPay = s.AttendancePay.Add(s.SalesBonus)
	return s
}

// SummaryForMonth is a read over stored summaries. It never triggers a
// calculation; a month with no summaries yields a zeroed report.
func (a *Aggregator) SummaryForMonth(ctx context.Context, month Month) (MonthlyReport, error) {
	summaries, err := a.deps.Summaries.FindSummaries(ctx, month)
	if err != nil {
		return MonthlyReport{}, storeErr("find summaries", err)
	}
	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].InstructorID < summaries[j].InstructorID
	})
	return NewMonthlyReport(month, summaries), nil
}

// Months lists the months that have stored summaries, newest first.
func (a *Aggregator) Months(ctx context.Context) ([]Month, error) {
	months, err := a.deps.Summaries.SummaryMonths(ctx)
	if err != nil {
		return nil, storeErr("list summary months", err)
	}
	return months, nil
}
