package api

import (
	"context"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/studio-payroll/payroll"
)

func TestLoadScenario_BusyMonth(t *testing.T) {
	a := newTestAPI(t, nil)

	// WHEN
	rec := a.do(t, http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": "busy-month"})

	// THEN: January was calculated on default rates
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[ReportDTO](t, a.do(t, http.MethodGet, "/api/payroll/2026-01", nil))
	assert.Equal(t, 3, report.InstructorCount)
	assert.Equal(t, 6, report.TotalClasses)
	// amy 1200+1500+1500+800 + 2×200, ben 500+800
	assert.Equal(t, "6700.00", report.TotalPay)

	// AND: February carries the raised rates and stays editable
	current := decode[CurrentRuleResponse](t, a.do(t, http.MethodGet, "/api/rules", nil))
	assert.Equal(t, "1600.00", current.Rule.Tier16Plus)
	assert.True(t, current.Editable)

	// AND: payday locks January
	result, err := a.handler.RunAutoLock(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Locked)

	got := decode[ScenarioDTO](t, a.do(t, http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "busy-month", got.ID)
}

func TestLoadScenario_LockedHistory(t *testing.T) {
	a := newTestAPI(t, nil)

	rec := a.do(t, http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": "locked-history"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	history := decode[struct {
		Rules []RuleDTO `json:"rules"`
	}](t, a.do(t, http.MethodGet, "/api/rules/history", nil))
	require.Len(t, history.Rules, 4)
	assert.Equal(t, "2026-02", history.Rules[0].EffectiveMonth)
	assert.False(t, history.Rules[0].Locked)
	for _, r := range history.Rules[1:] {
		assert.True(t, r.Locked, r.EffectiveMonth)
	}
	// February copied January's rates forward
	assert.Equal(t, history.Rules[1].Tier1to5, history.Rules[0].Tier1to5)
	assert.Equal(t, "600.00", history.Rules[0].Tier1to5)

	months := decode[struct {
		Months []string `json:"months"`
	}](t, a.do(t, http.MethodGet, "/api/payroll/months", nil))
	assert.Equal(t, []string{"2026-01", "2025-12", "2025-11"}, months.Months)
}

func TestLoadScenario_ResetsPreviousData(t *testing.T) {
	a := newTestAPI(t, nil)
	a.seedInstructor(t, "zed", "Zed")

	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": "new-studio"}).Code)

	_, found, err := a.store.GetInstructor(context.Background(), "zed")
	require.NoError(t, err)
	assert.False(t, found)

	att, err := a.store.FindAttendance(context.Background(), "amy", payroll.NewDate(2026, time.February, 1), payroll.NewDate(2026, time.February, 28))
	require.NoError(t, err)
	assert.Len(t, att, 3)
}

func TestLoadScenario_Unknown(t *testing.T) {
	a := newTestAPI(t, nil)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": "nope"}).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodPost, "/api/scenarios/load", map[string]string{}).Code)
}

func TestResetDatabase(t *testing.T) {
	a := newTestAPI(t, nil)
	require.Equal(t, http.StatusOK, a.do(t, http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": "new-studio"}).Code)

	rec := a.do(t, http.MethodPost, "/api/scenarios/reset", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	rules, err := a.store.ListRules(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rules)
	assert.Equal(t, "null\n", a.do(t, http.MethodGet, "/api/scenarios/current", nil).Body.String())
}

func TestLoadScenario_ConcurrentWithCurrentReads(t *testing.T) {
	a := newTestAPI(t, nil)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			rec := a.do(t, http.MethodPost, "/api/scenarios/load", map[string]string{"scenario_id": "new-studio"})
			assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			rec := a.do(t, http.MethodGet, "/api/scenarios/current", nil)
			assert.Equal(t, http.StatusOK, rec.Code)
		}
	}()
	wg.Wait()

	got := decode[ScenarioDTO](t, a.do(t, http.MethodGet, "/api/scenarios/current", nil))
	assert.Equal(t, "new-studio", got.ID)
}
