/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built studio scenarios that populate the database with
	realistic data for demos. Each scenario creates instructors, courses,
	monthly rules, attendance and sales, all relative to the current month.

AVAILABLE SCENARIOS:

	new-studio:     One instructor, default rates, a few classes this month
	busy-month:     Three instructors across every tier, package sales,
	                an unlocked previous month waiting for payday
	locked-history: Three locked past months with different rates,
	                already calculated

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create instructors and courses
 3. Write rules (past months go straight to the store, then get locked)
 4. Add attendance and sales
 5. Optionally calculate payroll

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "busy-month"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/studio-payroll/payroll"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "new-studio",
		Name:        "New Studio",
		Description: "One instructor on default rates with a few small classes this month",
	},
	{
		ID:          "busy-month",
		Name:        "Busy Month",
		Description: "Three instructors covering every headcount tier, package sales, last month awaiting payday lock",
	},
	{
		ID:          "locked-history",
		Name:        "Locked History",
		Description: "Three past months with different locked rates, already calculated",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	current := h.loadedScenario()
	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}

	writeJSON(w, http.StatusOK, ScenarioDTO{
		ID:          current,
		Name:        current,
		Description: "Currently loaded scenario",
	})
}

// LoadScenario resets the database and loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "new-studio":
		load = h.loadNewStudioScenario
	case "busy-month":
		load = h.loadBusyMonthScenario
	case "locked-history":
		load = h.loadLockedHistoryScenario
	default:
		writeError(w, http.StatusNotFound, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()

	// Reset first
	if err := h.Store.Reset(ctx); err != nil {
		h.writeDomainError(w, "LoadScenario", "Failed to reset database", err)
		return
	}
	h.setCurrentScenario("")

	if err := load(ctx); err != nil {
		h.writeDomainError(w, "LoadScenario", fmt.Sprintf("Failed to load scenario %s", req.ScenarioID), err)
		return
	}

	h.setCurrentScenario(req.ScenarioID)
	h.log.WithField("scenario", req.ScenarioID).Info("scenario loaded")

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

func (h *Handler) loadedScenario() string {
	h.scenarioMu.RLock()
	defer h.scenarioMu.RUnlock()
	return h.currentScenario
}

func (h *Handler) setCurrentScenario(id string) {
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()
	h.currentScenario = id
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadNewStudioScenario(ctx context.Context) error {
	month := h.Rules.CurrentMonth()

	if err := h.seedInstructors(ctx, payroll.Instructor{ID: "amy", Name: "Amy Chen", Email: "amy@studio.test"}); err != nil {
		return err
	}
	if err := h.seedCourses(ctx, payroll.Course{ID: "mat-pilates", Name: "Mat Pilates"}); err != nil {
		return err
	}

	// Resolving creates the month's rule from the defaults.
	if _, err := h.Rules.ResolveEffectiveRule(ctx, month); err != nil {
		return err
	}

	return h.seedClasses(ctx, month, "amy", "mat-pilates", []int{4, 6, 3})
}

func (h *Handler) loadBusyMonthScenario(ctx context.Context) error {
	month := h.Rules.CurrentMonth()
	previous := month.Prev()

	err := h.seedInstructors(ctx,
		payroll.Instructor{ID: "amy", Name: "Amy Chen", Email: "amy@studio.test"},
		payroll.Instructor{ID: "ben", Name: "Ben Ortiz", Phone: "+1-555-0101"},
		payroll.Instructor{ID: "cleo", Name: "Cleo Park"},
	)
	if err != nil {
		return err
	}
	err = h.seedCourses(ctx,
		payroll.Course{ID: "reformer", Name: "Reformer", Description: "Equipment class, max 20"},
		payroll.Course{ID: "mat-pilates", Name: "Mat Pilates"},
		payroll.Course{ID: "barre", Name: "Barre"},
	)
	if err != nil {
		return err
	}

	// Last month keeps the defaults and stays unlocked until payday.
	if err := h.seedPastRule(ctx, previous, payroll.DefaultRates(), false); err != nil {
		return err
	}
	raised := payroll.DefaultRates()
	raised.Tier16Plus = decimal.NewFromInt(1600)
	raised.SalesBonusUnit = decimal.NewFromInt(12)
	if _, err := h.Rules.UpdateRule(ctx, month, raised); err != nil {
		return err
	}

	for _, c := range []struct {
		month      payroll.Month
		instructor payroll.InstructorID
		course     payroll.CourseID
		counts     []int
	}{
		{previous, "amy", "reformer", []int{12, 16, 18, 9}},
		{previous, "ben", "mat-pilates", []int{5, 7}},
		{month, "amy", "reformer", []int{17, 14}},
		{month, "ben", "mat-pilates", []int{3, 8, 11}},
		{month, "cleo", "barre", []int{20, 0}},
	} {
		if err := h.seedClasses(ctx, c.month, c.instructor, c.course, c.counts); err != nil {
			return err
		}
	}

	sales := []struct {
		month      payroll.Month
		instructor payroll.InstructorID
		product    string
		quantity   int
		price      int64
	}{
		{previous, "amy", "Ten-Session Package", 2, 4500},
		{month, "amy", "Five-Session Package", 1, 2400},
		{month, "ben", "Single Session", 3, 500},
		{month, "cleo", "Ten-Session Package", 1, 4500},
	}
	for i, s := range sales {
		rec := payroll.SalesRecord{
			ID:           uuid.NewString(),
			InstructorID: s.instructor,
			Date:         s.month.Start().AddDays(2 * i),
			Product:      s.product,
			Quantity:     s.quantity,
			UnitPrice:    decimal.NewFromInt(s.price),
			CreatedAt:    h.Clock.Now(),
		}
		if err := h.Store.AddSales(ctx, rec); err != nil {
			return err
		}
	}

	_, err = h.Payroll.CalculateMonth(ctx, previous)
	return err
}

func (h *Handler) loadLockedHistoryScenario(ctx context.Context) error {
	month := h.Rules.CurrentMonth()

	err := h.seedInstructors(ctx,
		payroll.Instructor{ID: "amy", Name: "Amy Chen"},
		payroll.Instructor{ID: "ben", Name: "Ben Ortiz"},
	)
	if err != nil {
		return err
	}
	if err := h.seedCourses(ctx, payroll.Course{ID: "reformer", Name: "Reformer"}); err != nil {
		return err
	}

	// Oldest first, each month a little better paid than the last.
	for back := 3; back >= 1; back-- {
		past := month.AddMonths(-back)
		rates := payroll.DefaultRates()
		step := decimal.NewFromInt(int64(50 * (3 - back)))
		rates.Tier1to5 = rates.Tier1to5.Add(step)
		rates.Tier6to10 = rates.Tier6to10.Add(step)
		rates.Tier11to15 = rates.Tier11to15.Add(step)
		rates.Tier16Plus = rates.Tier16Plus.Add(step)

		if err := h.seedPastRule(ctx, past, rates, true); err != nil {
			return err
		}
		if err := h.seedClasses(ctx, past, "amy", "reformer", []int{8, 13, 16}); err != nil {
			return err
		}
		if err := h.seedClasses(ctx, past, "ben", "reformer", []int{4}); err != nil {
			return err
		}
		if _, err := h.Payroll.CalculateMonth(ctx, past); err != nil {
			return err
		}
	}

	// The current month copies forward from the newest locked month.
	_, err = h.Rules.ResolveEffectiveRule(ctx, month)
	return err
}

// =============================================================================
// SEED HELPERS
// =============================================================================

func (h *Handler) seedInstructors(ctx context.Context, instructors ...payroll.Instructor) error {
	for _, inst := range instructors {
		inst.CreatedAt = h.Clock.Now()
		if err := h.Store.SaveInstructor(ctx, inst); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) seedCourses(ctx context.Context, courses ...payroll.Course) error {
	for _, c := range courses {
		c.CreatedAt = h.Clock.Now()
		if err := h.Store.SaveCourse(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// seedClasses adds one class per headcount, three days apart from the 1st.
func (h *Handler) seedClasses(ctx context.Context, month payroll.Month, instructor payroll.InstructorID, course payroll.CourseID, counts []int) error {
	for i, n := range counts {
		rec := payroll.AttendanceRecord{
			ID:           uuid.NewString(),
			InstructorID: instructor,
			CourseID:     course,
			Date:         month.Start().AddDays(3 * i),
			StudentCount: n,
			CreatedAt:    h.Clock.Now(),
		}
		if err := h.Store.AddAttendance(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// seedPastRule writes a rule for a month outside the edit window, which the
// rule manager would refuse.
func (h *Handler) seedPastRule(ctx context.Context, month payroll.Month, rates payroll.Rates, locked bool) error {
	now := h.Clock.Now()
	_, err := h.Store.UpsertRule(ctx, payroll.PayrollRule{
		ID:             payroll.RuleID(uuid.NewString()),
		EffectiveMonth: month,
		Rates:          rates,
		CreatedAt:      now,
	})
	if err != nil {
		return err
	}
	if locked {
		return h.Store.MarkRuleLocked(ctx, month, now)
	}
	return nil
}
