/*
rules.go - Monthly rule history and its edit-lock contract

PURPOSE:
  The RuleManager owns the lifecycle of PayrollRule records: which month
  may be edited, how a new month gets its rates, and the one-way lock that
  freezes a month after the pay run.

EDIT WINDOW:
  Only the current calendar month is editable, and only while its rule is
  unlocked. Past and future months are never editable regardless of lock
  state. "Current" comes from the injected Clock.

COPY-FORWARD:
  The first time the current month is resolved without a stored rule, the
  most recent earlier month's rates are copied rate-for-rate. With no
  earlier month the default table is used. The new rule is stored unlocked.

LOCKING:
  LockRule is idempotent: the first call sets Locked and LockedAt, later
  calls return the stored rule unchanged. Scheduling the lock (payday) is
  the caller's job; AutoLockPreviousMonth is the hook for it.
*/
package payroll

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// RuleManager enforces the edit window before delegating to a RuleStore.
type RuleManager struct {
	store    RuleStore
	clock    Clock
	defaults Rates
	log      logrus.FieldLogger
}

// RuleManagerOption configures a RuleManager.
type RuleManagerOption func(*RuleManager)

// WithDefaultRates overrides the fallback table used by copy-forward.
func WithDefaultRates(r Rates) RuleManagerOption {
	return func(m *RuleManager) { m.defaults = r }
}

// WithRuleLogger sets the logger. Defaults to the logrus standard logger.
func WithRuleLogger(l logrus.FieldLogger) RuleManagerOption {
	return func(m *RuleManager) { m.log = l }
}

func NewRuleManager(store RuleStore, clock Clock, opts ...RuleManagerOption) *RuleManager {
	m := &RuleManager{
		store:    store,
		clock:    clock,
		defaults: DefaultRates(),
		log:      logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = m.log.WithField("module", "rules")
	return m
}

// Now reads the manager's clock.
func (m *RuleManager) Now() time.Time {
	return m.clock.Now()
}

// CurrentMonth is the month containing the clock's now.
func (m *RuleManager) CurrentMonth() Month {
	return MonthOf(m.clock.Now())
}

// Rule is a plain lookup with no synthesis.
func (m *RuleManager) Rule(ctx context.Context, month Month) (PayrollRule, bool, error) {
	rule, found, err := m.store.FindRule(ctx, month)
	if err != nil {
		return PayrollRule{}, false, storeErr("find rule", err)
	}
	return rule, found, nil
}

// ResolveEffectiveRule returns the stored rule for month. For the current
// month with no rule, one is synthesized by copy-forward and persisted.
// Any other month without a rule fails with ErrRuleNotFound.
func (m *RuleManager) ResolveEffectiveRule(ctx context.Context, month Month) (PayrollRule, error) {
	rule, found, err := m.Rule(ctx, month)
	if err != nil {
		return PayrollRule{}, err
	}
	if found {
		return rule, nil
	}
	if !month.Equal(m.CurrentMonth()) {
		return PayrollRule{}, ruleNotFound(month)
	}

	rates, source, err := m.copyForwardRates(ctx, month)
	if err != nil {
		return PayrollRule{}, err
	}

	// A concurrent UpdateRule may have written the month since FindRule; the
	// stored row wins over the synthesized one.
	candidate := PayrollRule{
		ID:             RuleID(uuid.NewString()),
		EffectiveMonth: month,
		Rates:          rates,
		CreatedAt:      m.clock.Now(),
	}
	stored, err := m.store.CreateRuleIfAbsent(ctx, candidate)
	if err != nil {
		return PayrollRule{}, storeErr("create rule", err)
	}

	if stored.ID == candidate.ID {
		m.log.WithFields(logrus.Fields{"month": month.String(), "source": source}).Info("created rule for current month")
	}
	return stored, nil
}

// copyForwardRates picks the most recent rule before month, else defaults.
func (m *RuleManager) copyForwardRates(ctx context.Context, month Month) (Rates, string, error) {
	rules, err := m.store.ListRules(ctx)
	if err != nil {
		return Rates{}, "", storeErr("list rules", err)
	}

	var prior *PayrollRule
	for i := range rules {
		r := rules[i]
		if !r.EffectiveMonth.Before(month) {
			continue
		}
		if prior == nil || r.EffectiveMonth.After(prior.EffectiveMonth) {
			prior = &r
		}
	}
	if prior == nil {
		return m.defaults, "defaults", nil
	}
	return prior.Rates, prior.EffectiveMonth.String(), nil
}

// IsEditable is true iff month is the current month and its rule, if any,
// is unlocked.
func (m *RuleManager) IsEditable(ctx context.Context, month Month) (bool, error) {
	_, err := m.checkEditable(ctx, month)
	if err == nil {
		return true, nil
	}
	if IsClientError(err) {
		return false, nil
	}
	return false, err
}

// checkEditable returns a *RuleLockedError when month is outside the window.
func (m *RuleManager) checkEditable(ctx context.Context, month Month) (PayrollRule, error) {
	if !month.Equal(m.CurrentMonth()) {
		return PayrollRule{}, &RuleLockedError{Month: month, Reason: "outside edit window"}
	}
	rule, found, err := m.Rule(ctx, month)
	if err != nil {
		return PayrollRule{}, err
	}
	if found && rule.Locked {
		return PayrollRule{}, &RuleLockedError{Month: month, Reason: "locked"}
	}
	return rule, nil
}

// UpdateRule replaces the rates for month. Fails with ErrRuleLocked outside
// the edit window and ErrInvalidRate for negative rates.
func (m *RuleManager) UpdateRule(ctx context.Context, month Month, rates Rates) (PayrollRule, error) {
	existing, err := m.checkEditable(ctx, month)
	if err != nil {
		return PayrollRule{}, err
	}
	if err := rates.Validate(); err != nil {
		return PayrollRule{}, err
	}

	rule := PayrollRule{
		ID:             existing.ID,
		EffectiveMonth: month,
		Rates:          rates,
		CreatedAt:      existing.CreatedAt,
	}
	if rule.ID == "" {
		rule.ID = RuleID(uuid.NewString())
		rule.CreatedAt = m.clock.Now()
	}

	stored, err := m.store.UpsertRule(ctx, rule)
	if errors.Is(err, ErrRuleLocked) {
		return PayrollRule{}, err
	}
	if err != nil {
		return PayrollRule{}, storeErr("upsert rule", err)
	}

	m.log.WithField("month", month.String()).Info("rule updated")
	return stored, nil
}

// LockRule freezes month. Locking an already locked rule is a no-op that
// returns the stored rule. Fails with ErrRuleNotFound if month has no rule.
func (m *RuleManager) LockRule(ctx context.Context, month Month) (PayrollRule, error) {
	rule, found, err := m.Rule(ctx, month)
	if err != nil {
		return PayrollRule{}, err
	}
	if !found {
		return PayrollRule{}, ruleNotFound(month)
	}
	if rule.Locked {
		return rule, nil
	}

	if err := m.store.MarkRuleLocked(ctx, month, m.clock.Now()); err != nil {
		return PayrollRule{}, storeErr("lock rule", err)
	}

	locked, found, err := m.Rule(ctx, month)
	if err != nil {
		return PayrollRule{}, err
	}
	if !found {
		return PayrollRule{}, ruleNotFound(month)
	}

	m.log.WithField("month", month.String()).Info("rule locked")
	return locked, nil
}

// History returns every rule, newest effective month first.
func (m *RuleManager) History(ctx context.Context) ([]PayrollRule, error) {
	rules, err := m.store.ListRules(ctx)
	if err != nil {
		return nil, storeErr("list rules", err)
	}
	sorted := make([]PayrollRule, len(rules))
	copy(sorted, rules)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EffectiveMonth.After(sorted[j].EffectiveMonth)
	})
	return sorted, nil
}

// AutoLockPreviousMonth locks the month before now's month once now's day
// of month has reached paymentDay. Callers that hold a lock on that month
// pass the same now they derived it from. A missing rule is not an error.
// Returns the month considered and whether this call locked it.
func (m *RuleManager) AutoLockPreviousMonth(ctx context.Context, now time.Time, paymentDay int) (Month, bool, error) {
	previous := MonthOf(now).Prev()
	if paymentDay < 1 {
		paymentDay = DefaultPaymentDay
	}
	if now.Day() < paymentDay {
		return previous, false, nil
	}

	rule, found, err := m.Rule(ctx, previous)
	if err != nil {
		return previous, false, err
	}
	if !found || rule.Locked {
		return previous, false, nil
	}
	if _, err := m.LockRule(ctx, previous); err != nil {
		return previous, false, err
	}
	return previous, true, nil
}
