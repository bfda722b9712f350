// Package store provides in-memory implementations of the payroll store
// contracts.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/studio-payroll/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

// Memory implements every payroll store contract. Reads return copies.
type Memory struct {
	mu          sync.RWMutex
	rules       map[payroll.Month]payroll.PayrollRule
	instructors map[payroll.InstructorID]payroll.Instructor
	courses     map[payroll.CourseID]payroll.Course
	attendance  map[payroll.InstructorID][]payroll.AttendanceRecord
	sales       map[payroll.InstructorID][]payroll.SalesRecord
	summaries   map[payroll.Month][]payroll.MonthlyPayrollSummary
	settings    map[string]string
}

func NewMemory() *Memory {
	m := &Memory{}
	m.reset()
	return m
}

func (m *Memory) reset() {
	m.rules = make(map[payroll.Month]payroll.PayrollRule)
	m.instructors = make(map[payroll.InstructorID]payroll.Instructor)
	m.courses = make(map[payroll.CourseID]payroll.Course)
	m.attendance = make(map[payroll.InstructorID][]payroll.AttendanceRecord)
	m.sales = make(map[payroll.InstructorID][]payroll.SalesRecord)
	m.summaries = make(map[payroll.Month][]payroll.MonthlyPayrollSummary)
	m.settings = make(map[string]string)
}

// Reset clears all data.
func (m *Memory) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
	return nil
}

// =============================================================================
// RULES (payroll.RuleStore)
// =============================================================================

func (m *Memory) FindRule(_ context.Context, month payroll.Month) (payroll.PayrollRule, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.rules[month]
	return r, ok, nil
}

func (m *Memory) ListRules(_ context.Context) ([]payroll.PayrollRule, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]payroll.PayrollRule, 0, len(m.rules))
	for _, r := range m.rules {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].EffectiveMonth.Before(result[j].EffectiveMonth)
	})
	return result, nil
}

func (m *Memory) UpsertRule(_ context.Context, rule payroll.PayrollRule) (payroll.PayrollRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.rules[rule.EffectiveMonth]; ok {
		if existing.Locked {
			return existing, &payroll.RuleLockedError{Month: rule.EffectiveMonth, Reason: "locked"}
		}
		existing.Rates = rule.Rates
		m.rules[rule.EffectiveMonth] = existing
		return existing, nil
	}
	rule.Locked = false
	rule.LockedAt = time.Time{}
	m.rules[rule.EffectiveMonth] = rule
	return rule, nil
}

func (m *Memory) CreateRuleIfAbsent(_ context.Context, rule payroll.PayrollRule) (payroll.PayrollRule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.rules[rule.EffectiveMonth]; ok {
		return existing, nil
	}
	rule.Locked = false
	rule.LockedAt = time.Time{}
	m.rules[rule.EffectiveMonth] = rule
	return rule, nil
}

func (m *Memory) MarkRuleLocked(_ context.Context, month payroll.Month, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.rules[month]
	if !ok {
		return payroll.ErrRuleNotFound
	}
	if r.Locked {
		return nil
	}
	r.Locked = true
	r.LockedAt = at
	m.rules[month] = r
	return nil
}

// =============================================================================
// INSTRUCTORS AND COURSES
// =============================================================================

func (m *Memory) SaveInstructor(_ context.Context, inst payroll.Instructor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.instructors[inst.ID] = inst
	return nil
}

func (m *Memory) DeleteInstructor(_ context.Context, id payroll.InstructorID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.instructors, id)
	return nil
}

func (m *Memory) GetInstructor(_ context.Context, id payroll.InstructorID) (payroll.Instructor, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instructors[id]
	return inst, ok, nil
}

// ListInstructors returns the roster ordered by name, then ID.
func (m *Memory) ListInstructors(_ context.Context) ([]payroll.Instructor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]payroll.Instructor, 0, len(m.instructors))
	for _, inst := range m.instructors {
		result = append(result, inst)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Name != result[j].Name {
			return result[i].Name < result[j].Name
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (m *Memory) SaveCourse(_ context.Context, c payroll.Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.courses[c.ID] = c
	return nil
}

func (m *Memory) ListCourses(_ context.Context) ([]payroll.Course, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]payroll.Course, 0, len(m.courses))
	for _, c := range m.courses {
		result = append(result, c)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// =============================================================================
// RECORDS (payroll.AttendanceStore, payroll.SalesStore)
// =============================================================================

// AddAttendance appends a record, keeping each instructor's slice ordered by date.
func (m *Memory) AddAttendance(_ context.Context, rec payroll.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.attendance[rec.InstructorID]
	i := sort.Search(len(recs), func(i int) bool { return recs[i].Date.After(rec.Date) })
	recs = append(recs, payroll.AttendanceRecord{})
	copy(recs[i+1:], recs[i:])
	recs[i] = rec
	m.attendance[rec.InstructorID] = recs
	return nil
}

func (m *Memory) FindAttendance(_ context.Context, id payroll.InstructorID, from, to payroll.Date) ([]payroll.AttendanceRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []payroll.AttendanceRecord
	for _, rec := range m.attendance[id] {
		if from.BeforeOrEqual(rec.Date) && rec.Date.BeforeOrEqual(to) {
			result = append(result, rec)
		}
	}
	return result, nil
}

// AddSales appends a record, keeping each instructor's slice ordered by date.
func (m *Memory) AddSales(_ context.Context, rec payroll.SalesRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	recs := m.sales[rec.InstructorID]
	i := sort.Search(len(recs), func(i int) bool { return recs[i].Date.After(rec.Date) })
	recs = append(recs, payroll.SalesRecord{})
	copy(recs[i+1:], recs[i:])
	recs[i] = rec
	m.sales[rec.InstructorID] = recs
	return nil
}

func (m *Memory) FindSales(_ context.Context, id payroll.InstructorID, from, to payroll.Date) ([]payroll.SalesRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []payroll.SalesRecord
	for _, rec := range m.sales[id] {
		if from.BeforeOrEqual(rec.Date) && rec.Date.BeforeOrEqual(to) {
			result = append(result, rec)
		}
	}
	return result, nil
}

// =============================================================================
// SUMMARIES (payroll.SummaryStore)
// =============================================================================

func (m *Memory) ReplaceMonthSummaries(_ context.Context, month payroll.Month, summaries []payroll.MonthlyPayrollSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.summaries, month)
	if len(summaries) == 0 {
		return nil
	}
	stored := make([]payroll.MonthlyPayrollSummary, len(summaries))
	copy(stored, summaries)
	m.summaries[month] = stored
	return nil
}

func (m *Memory) FindSummaries(_ context.Context, month payroll.Month) ([]payroll.MonthlyPayrollSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]payroll.MonthlyPayrollSummary, len(m.summaries[month]))
	copy(result, m.summaries[month])
	return result, nil
}

func (m *Memory) SummaryMonths(_ context.Context) ([]payroll.Month, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	months := make([]payroll.Month, 0, len(m.summaries))
	for month := range m.summaries {
		months = append(months, month)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].After(months[j]) })
	return months, nil
}

// =============================================================================
// SETTINGS (payroll.SettingsStore)
// =============================================================================

func (m *Memory) GetSetting(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.settings[key]
	return v, ok, nil
}

func (m *Memory) AllSettings(_ context.Context) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make(map[string]string, len(m.settings))
	for k, v := range m.settings {
		result[k] = v
	}
	return result, nil
}

func (m *Memory) SetSettings(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range values {
		m.settings[k] = v
	}
	return nil
}
