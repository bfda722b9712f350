/*
handlers.go - HTTP API handlers for the studio payroll engine

PURPOSE:
  Exposes the rule manager, the payroll aggregator and record capture via
  REST API. Handles HTTP request/response, JSON serialization, validation,
  and delegates to the payroll package.

ENDPOINTS:
  Rules:
    GET    /api/rules?month=YYYY-MM     Effective rule (current month by default) + editable flag
    GET    /api/rules/history           All rules, newest first
    PUT    /api/rules/{month}           Replace the rates (current month only)
    POST   /api/rules/{month}/lock      Lock a month

  Payroll:
    POST   /api/payroll/{month}/calculate   Recalculate and replace the month
    GET    /api/payroll/{month}             Stored summaries + totals
    GET    /api/payroll/{month}/export      Same as xlsx
    GET    /api/payroll/months              Months with stored summaries

  Records:
    GET/POST /api/instructors, DELETE /api/instructors/{id}
    GET/POST /api/courses
    GET/POST /api/attendances          GET takes instructor + (month | start, end)
    GET/POST /api/sales                 same filters

  Settings:
    GET/PUT  /api/settings
    POST     /api/admin/autolock        Run the payday check now

ARCHITECTURE:
  Handler holds all dependencies (HandlerDeps). Writes that touch one
  month (rule update, lock, calculate) run under a MonthLocker lock.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, malformed month, invalid rate
  - 404: Rule, instructor or scenario not found
  - 409: Month not editable, or month busy
  - 422: Calculation with an empty roster
  - 500: Store failures (logged)

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scheduler.go: Payday auto-lock
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/studio-payroll/config"
	"github.com/warp/studio-payroll/export"
	"github.com/warp/studio-payroll/lock"
	"github.com/warp/studio-payroll/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is everything the API reads and writes. Both the SQLite store and
// the in-memory store satisfy it.
type Store interface {
	payroll.RuleStore
	payroll.AttendanceStore
	payroll.SalesStore
	payroll.InstructorDirectory
	payroll.SummaryStore
	payroll.SettingsStore

	SaveInstructor(ctx context.Context, inst payroll.Instructor) error
	GetInstructor(ctx context.Context, id payroll.InstructorID) (payroll.Instructor, bool, error)
	DeleteInstructor(ctx context.Context, id payroll.InstructorID) error
	SaveCourse(ctx context.Context, c payroll.Course) error
	ListCourses(ctx context.Context) ([]payroll.Course, error)
	AddAttendance(ctx context.Context, rec payroll.AttendanceRecord) error
	AddSales(ctx context.Context, rec payroll.SalesRecord) error
	Reset(ctx context.Context) error
}

// HandlerDeps are the collaborators of a Handler.
type HandlerDeps struct {
	Store   Store
	Rules   *payroll.RuleManager
	Payroll *payroll.Aggregator
	Locker  lock.MonthLocker
	Clock   payroll.Clock
	Log     logrus.FieldLogger
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   Store
	Rules   *payroll.RuleManager
	Payroll *payroll.Aggregator
	Locker  lock.MonthLocker
	Clock   payroll.Clock

	log      logrus.FieldLogger
	validate *validator.Validate

	// Track currently loaded scenario
	scenarioMu      sync.RWMutex
	currentScenario string
}

// NewHandler creates a handler. A nil Locker means an in-process locker,
// a nil Log means the logrus standard logger.
func NewHandler(deps HandlerDeps) *Handler {
	h := &Handler{
		Store:    deps.Store,
		Rules:    deps.Rules,
		Payroll:  deps.Payroll,
		Locker:   deps.Locker,
		Clock:    deps.Clock,
		log:      deps.Log,
		validate: validator.New(),
	}
	if h.Locker == nil {
		h.Locker = lock.NewLocal()
	}
	if h.Clock == nil {
		h.Clock = payroll.SystemClock{}
	}
	if h.log == nil {
		h.log = logrus.StandardLogger()
	}
	h.log = h.log.WithField("module", "api")
	return h
}

// =============================================================================
// RULE HANDLERS
// =============================================================================

// GetRule returns the effective rule for ?month= (default: current month)
// and whether it can be edited.
// GET /api/rules
func (h *Handler) GetRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	month := h.Rules.CurrentMonth()
	if q := r.URL.Query().Get("month"); q != "" {
		m, err := payroll.ParseMonth(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
			return
		}
		month = m
	}

	rule, err := h.Rules.ResolveEffectiveRule(ctx, month)
	if err != nil {
		h.writeDomainError(w, "GetRule", "Failed to resolve rule", err)
		return
	}
	editable, err := h.Rules.IsEditable(ctx, month)
	if err != nil {
		h.writeDomainError(w, "GetRule", "Failed to check rule", err)
		return
	}

	writeJSON(w, http.StatusOK, CurrentRuleResponse{Rule: toRuleDTO(rule), Editable: editable})
}

// RuleHistory returns every rule, newest month first.
// GET /api/rules/history
func (h *Handler) RuleHistory(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Rules.History(r.Context())
	if err != nil {
		h.writeDomainError(w, "RuleHistory", "Failed to list rules", err)
		return
	}

	dtos := make([]RuleDTO, len(rules))
	for i, rule := range rules {
		dtos[i] = toRuleDTO(rule)
	}
	writeJSON(w, http.StatusOK, map[string]any{"rules": dtos})
}

// UpdateRule replaces the rates of a month.
// PUT /api/rules/{month}
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	month, ok := monthParam(w, r)
	if !ok {
		return
	}

	var req UpdateRuleRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	rates, err := payroll.RatesFromFloats(*req.Tier1to5, *req.Tier6to10, *req.Tier11to15, *req.Tier16Plus, *req.SalesBonusUnit)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate", err)
		return
	}

	var rule payroll.PayrollRule
	err = h.withMonthLock(ctx, month, func() error {
		var err error
		rule, err = h.Rules.UpdateRule(ctx, month, rates)
		return err
	})
	if err != nil {
		h.writeDomainError(w, "UpdateRule", "Failed to update rule", err)
		return
	}

	writeJSON(w, http.StatusOK, toRuleDTO(rule))
}

// LockRule locks a month's rule. Locking twice is not an error.
// POST /api/rules/{month}/lock
func (h *Handler) LockRule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	month, ok := monthParam(w, r)
	if !ok {
		return
	}

	var rule payroll.PayrollRule
	err := h.withMonthLock(ctx, month, func() error {
		var err error
		rule, err = h.Rules.LockRule(ctx, month)
		return err
	})
	if err != nil {
		h.writeDomainError(w, "LockRule", "Failed to lock rule", err)
		return
	}

	writeJSON(w, http.StatusOK, toRuleDTO(rule))
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// CalculatePayroll recalculates a month and replaces its stored summaries.
// POST /api/payroll/{month}/calculate
func (h *Handler) CalculatePayroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	month, ok := monthParam(w, r)
	if !ok {
		return
	}

	var summaries []payroll.MonthlyPayrollSummary
	err := h.withMonthLock(ctx, month, func() error {
		var err error
		summaries, err = h.Payroll.CalculateMonth(ctx, month)
		return err
	})
	if err != nil {
		h.writeDomainError(w, "CalculatePayroll", "Failed to calculate payroll", err)
		return
	}

	writeJSON(w, http.StatusOK, toReportDTO(payroll.NewMonthlyReport(month, summaries)))
}

// GetPayroll returns a month's stored summaries. It never calculates.
// GET /api/payroll/{month}
func (h *Handler) GetPayroll(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}

	report, err := h.Payroll.SummaryForMonth(r.Context(), month)
	if err != nil {
		h.writeDomainError(w, "GetPayroll", "Failed to load payroll", err)
		return
	}

	writeJSON(w, http.StatusOK, toReportDTO(report))
}

// ExportPayroll streams a month's stored summaries as an xlsx workbook.
// GET /api/payroll/{month}/export
func (h *Handler) ExportPayroll(w http.ResponseWriter, r *http.Request) {
	month, ok := monthParam(w, r)
	if !ok {
		return
	}

	report, err := h.Payroll.SummaryForMonth(r.Context(), month)
	if err != nil {
		h.writeDomainError(w, "ExportPayroll", "Failed to load payroll", err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", "attachment; filename="+export.Filename(month))
	if err := export.Write(w, report); err != nil {
		config.LogError(h.log, "api", "ExportPayroll", "write workbook", month.String(), err)
	}
}

// PayrollMonths lists months with stored summaries, newest first.
// GET /api/payroll/months
func (h *Handler) PayrollMonths(w http.ResponseWriter, r *http.Request) {
	months, err := h.Payroll.Months(r.Context())
	if err != nil {
		h.writeDomainError(w, "PayrollMonths", "Failed to list months", err)
		return
	}

	keys := make([]string, len(months))
	for i, m := range months {
		keys[i] = m.String()
	}
	writeJSON(w, http.StatusOK, map[string]any{"months": keys})
}

// =============================================================================
// INSTRUCTOR AND COURSE HANDLERS
// =============================================================================

// ListInstructors returns the roster.
// GET /api/instructors
func (h *Handler) ListInstructors(w http.ResponseWriter, r *http.Request) {
	instructors, err := h.Store.ListInstructors(r.Context())
	if err != nil {
		h.writeDomainError(w, "ListInstructors", "Failed to list instructors", err)
		return
	}

	dtos := make([]InstructorDTO, len(instructors))
	for i, inst := range instructors {
		dtos[i] = toInstructorDTO(inst)
	}
	writeJSON(w, http.StatusOK, map[string]any{"instructors": dtos})
}

// CreateInstructor adds an instructor to the roster.
// POST /api/instructors
func (h *Handler) CreateInstructor(w http.ResponseWriter, r *http.Request) {
	var req CreateInstructorRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	inst := payroll.Instructor{
		ID:        payroll.InstructorID(req.ID),
		Name:      strings.TrimSpace(req.Name),
		Email:     req.Email,
		Phone:     req.Phone,
		CreatedAt: h.Clock.Now(),
	}
	if inst.ID == "" {
		inst.ID = payroll.InstructorID(uuid.NewString())
	}

	if err := h.Store.SaveInstructor(r.Context(), inst); err != nil {
		h.writeDomainError(w, "CreateInstructor", "Failed to create instructor", err)
		return
	}

	writeJSON(w, http.StatusCreated, toInstructorDTO(inst))
}

// DeleteInstructor removes an instructor from the roster. Their records
// stay; the next calculation of a month drops their summary.
// DELETE /api/instructors/{id}
func (h *Handler) DeleteInstructor(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := payroll.InstructorID(chi.URLParam(r, "id"))

	_, found, err := h.Store.GetInstructor(ctx, id)
	if err != nil {
		h.writeDomainError(w, "DeleteInstructor", "Failed to get instructor", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Instructor not found", nil)
		return
	}

	if err := h.Store.DeleteInstructor(ctx, id); err != nil {
		h.writeDomainError(w, "DeleteInstructor", "Failed to delete instructor", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// ListCourses returns all courses.
// GET /api/courses
func (h *Handler) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Store.ListCourses(r.Context())
	if err != nil {
		h.writeDomainError(w, "ListCourses", "Failed to list courses", err)
		return
	}

	dtos := make([]CourseDTO, len(courses))
	for i, c := range courses {
		dtos[i] = CourseDTO{ID: string(c.ID), Name: c.Name, Description: c.Description}
	}
	writeJSON(w, http.StatusOK, map[string]any{"courses": dtos})
}

// CreateCourse adds a course.
// POST /api/courses
func (h *Handler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var req CreateCourseRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	course := payroll.Course{
		ID:          payroll.CourseID(req.ID),
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		CreatedAt:   h.Clock.Now(),
	}
	if course.ID == "" {
		course.ID = payroll.CourseID(uuid.NewString())
	}

	if err := h.Store.SaveCourse(r.Context(), course); err != nil {
		h.writeDomainError(w, "CreateCourse", "Failed to create course", err)
		return
	}

	writeJSON(w, http.StatusCreated, CourseDTO{ID: string(course.ID), Name: course.Name, Description: course.Description})
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

// CreateAttendance records one taught class.
// POST /api/attendances
func (h *Handler) CreateAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateAttendanceRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	date, err := payroll.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	instructorID := payroll.InstructorID(req.InstructorID)
	if !h.requireInstructor(w, ctx, "CreateAttendance", instructorID) {
		return
	}

	rec := payroll.AttendanceRecord{
		ID:           uuid.NewString(),
		InstructorID: instructorID,
		CourseID:     payroll.CourseID(req.CourseID),
		Date:         date,
		StudentCount: *req.StudentCount,
		CreatedAt:    h.Clock.Now(),
	}
	if err := h.Store.AddAttendance(ctx, rec); err != nil {
		h.writeDomainError(w, "CreateAttendance", "Failed to record attendance", err)
		return
	}

	writeJSON(w, http.StatusCreated, toAttendanceDTO(rec))
}

// ListAttendances returns an instructor's classes in a window.
// GET /api/attendances?instructor=ID&month=YYYY-MM
// GET /api/attendances?instructor=ID&start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *Handler) ListAttendances(w http.ResponseWriter, r *http.Request) {
	instructorID, period, ok := recordFilter(w, r)
	if !ok {
		return
	}

	records, err := h.Store.FindAttendance(r.Context(), instructorID, period.Start, period.End)
	if err != nil {
		h.writeDomainError(w, "ListAttendances", "Failed to list attendance", err)
		return
	}

	dtos := make([]AttendanceDTO, len(records))
	for i, rec := range records {
		dtos[i] = toAttendanceDTO(rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{"attendances": dtos})
}

// CreateSale records one sale.
// POST /api/sales
func (h *Handler) CreateSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req CreateSalesRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	date, err := payroll.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}
	instructorID := payroll.InstructorID(req.InstructorID)
	if !h.requireInstructor(w, ctx, "CreateSale", instructorID) {
		return
	}

	rec := payroll.SalesRecord{
		ID:           uuid.NewString(),
		InstructorID: instructorID,
		Date:         date,
		Product:      strings.TrimSpace(req.Product),
		Quantity:     req.Quantity,
		UnitPrice:    decimal.NewFromFloat(*req.UnitPrice),
		CreatedAt:    h.Clock.Now(),
	}
	if err := h.Store.AddSales(ctx, rec); err != nil {
		h.writeDomainError(w, "CreateSale", "Failed to record sale", err)
		return
	}

	writeJSON(w, http.StatusCreated, toSalesDTO(rec))
}

// ListSales returns an instructor's sales in a window. Same filters as
// ListAttendances.
// GET /api/sales
func (h *Handler) ListSales(w http.ResponseWriter, r *http.Request) {
	instructorID, period, ok := recordFilter(w, r)
	if !ok {
		return
	}

	records, err := h.Store.FindSales(r.Context(), instructorID, period.Start, period.End)
	if err != nil {
		h.writeDomainError(w, "ListSales", "Failed to list sales", err)
		return
	}

	dtos := make([]SalesDTO, len(records))
	for i, rec := range records {
		dtos[i] = toSalesDTO(rec)
	}
	writeJSON(w, http.StatusOK, map[string]any{"sales": dtos})
}

// =============================================================================
// SETTINGS HANDLERS
// =============================================================================

// GetSettings returns all settings with defaults filled in.
// GET /api/settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.Store.AllSettings(r.Context())
	if err != nil {
		h.writeDomainError(w, "GetSettings", "Failed to load settings", err)
		return
	}
	if _, ok := settings[payroll.SettingPaymentDay]; !ok {
		settings[payroll.SettingPaymentDay] = strconv.Itoa(payroll.DefaultPaymentDay)
	}
	writeJSON(w, http.StatusOK, map[string]any{"settings": settings})
}

// UpdateSettings upserts the given keys. PaymentDay must be 1-28.
// PUT /api/settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req) == 0 {
		writeError(w, http.StatusBadRequest, "No settings given", nil)
		return
	}
	if v, ok := req[payroll.SettingPaymentDay]; ok {
		if _, err := parsePaymentDay(v); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid PaymentDay", err)
			return
		}
	}

	if err := h.Store.SetSettings(r.Context(), req); err != nil {
		h.writeDomainError(w, "UpdateSettings", "Failed to save settings", err)
		return
	}
	h.GetSettings(w, r)
}

// TriggerAutoLock runs the payday check immediately.
// POST /api/admin/autolock
func (h *Handler) TriggerAutoLock(w http.ResponseWriter, r *http.Request) {
	result, err := h.RunAutoLock(r.Context())
	if err != nil {
		h.writeDomainError(w, "TriggerAutoLock", "Failed to run payday check", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// RunAutoLock locks the previous month once the configured payday has been
// reached. Shared by TriggerAutoLock and the PaydayScheduler.
func (h *Handler) RunAutoLock(ctx context.Context) (AutoLockResultDTO, error) {
	day, err := h.paymentDay(ctx)
	if err != nil {
		return AutoLockResultDTO{}, err
	}

	now := h.Rules.Now()
	previous := payroll.MonthOf(now).Prev()
	var locked bool
	err = h.withMonthLock(ctx, previous, func() error {
		var err error
		_, locked, err = h.Rules.AutoLockPreviousMonth(ctx, now, day)
		return err
	})
	if err != nil {
		return AutoLockResultDTO{}, err
	}

	return AutoLockResultDTO{Month: previous.String(), PaymentDay: day, Locked: locked}, nil
}

// paymentDay reads PaymentDay, falling back to the default when the setting
// is missing or unusable.
func (h *Handler) paymentDay(ctx context.Context) (int, error) {
	v, found, err := h.Store.GetSetting(ctx, payroll.SettingPaymentDay)
	if err != nil {
		return 0, &payroll.StoreError{Op: "get setting", Err: err}
	}
	if !found {
		return payroll.DefaultPaymentDay, nil
	}
	day, err := parsePaymentDay(v)
	if err != nil {
		h.log.WithFields(logrus.Fields{"value": v, "error": err}).Warn("ignoring invalid PaymentDay setting")
		return payroll.DefaultPaymentDay, nil
	}
	return day, nil
}

func parsePaymentDay(v string) (int, error) {
	day, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, fmt.Errorf("%q is not a day of month", v)
	}
	if day < 1 || day > 28 {
		return 0, fmt.Errorf("payment day %d must be between 1 and 28", day)
	}
	return day, nil
}

// ResetDatabase clears all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeDomainError(w, "ResetDatabase", "Failed to reset database", err)
		return
	}
	h.setCurrentScenario("")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps payroll error kinds to HTTP statuses. Anything
// unexpected is logged and returned as 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, funcName, message string, err error) {
	switch {
	case errors.Is(err, payroll.ErrRuleNotFound):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, payroll.ErrRuleLocked), errors.Is(err, lock.ErrBusy):
		writeError(w, http.StatusConflict, message, err)
	case errors.Is(err, payroll.ErrInvalidRate), errors.Is(err, payroll.ErrInvalidMonth):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, payroll.ErrNoInstructors):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	default:
		config.LogError(h.log, "api", funcName, message, nil, err)
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

// decodeAndValidate decodes the JSON body into dst and runs struct
// validation. On failure it writes a 400 and returns false.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		resp := ErrorResponse{Error: "Validation failed", Details: err.Error()}
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			resp.Fields = make(map[string]string, len(verrs))
			for _, fe := range verrs {
				resp.Fields[fe.Field()] = fe.Tag()
			}
		}
		writeJSON(w, http.StatusBadRequest, resp)
		return false
	}
	return true
}

func (h *Handler) requireInstructor(w http.ResponseWriter, ctx context.Context, funcName string, id payroll.InstructorID) bool {
	_, found, err := h.Store.GetInstructor(ctx, id)
	if err != nil {
		h.writeDomainError(w, funcName, "Failed to get instructor", err)
		return false
	}
	if !found {
		writeError(w, http.StatusNotFound, "Instructor not found", nil)
		return false
	}
	return true
}

// withMonthLock runs fn while holding month's lock.
func (h *Handler) withMonthLock(ctx context.Context, month payroll.Month, fn func() error) error {
	release, err := h.Locker.Acquire(ctx, month)
	if err != nil {
		return err
	}
	defer release()
	return fn()
}

// monthParam parses the {month} URL parameter, writing a 400 on failure.
func monthParam(w http.ResponseWriter, r *http.Request) (payroll.Month, bool) {
	month, err := payroll.ParseMonth(chi.URLParam(r, "month"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return payroll.Month{}, false
	}
	return month, true
}

// recordFilter reads instructor plus either month or start/end.
func recordFilter(w http.ResponseWriter, r *http.Request) (payroll.InstructorID, payroll.Period, bool) {
	q := r.URL.Query()
	instructorID := payroll.InstructorID(q.Get("instructor"))
	if instructorID == "" {
		writeError(w, http.StatusBadRequest, "instructor is required", nil)
		return "", payroll.Period{}, false
	}

	if m := q.Get("month"); m != "" {
		month, err := payroll.ParseMonth(m)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
			return "", payroll.Period{}, false
		}
		return instructorID, month.Period(), true
	}

	start, err := payroll.ParseDate(q.Get("start"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start is required (YYYY-MM-DD) when month is absent", err)
		return "", payroll.Period{}, false
	}
	end, err := payroll.ParseDate(q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "end is required (YYYY-MM-DD) when month is absent", err)
		return "", payroll.Period{}, false
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end is before start", nil)
		return "", payroll.Period{}, false
	}
	return instructorID, payroll.Period{Start: start, End: end}, true
}
