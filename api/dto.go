/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the payroll domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY:
  Money leaves the API as a string with exactly two decimals ("1500.00").
  This is the only place pay amounts are rounded. Money enters the API as
  a JSON number.

VALIDATION:
  Request types carry go-playground/validator tags. Handlers call
  h.validateRequest, which turns failures into a 400 with a field→tag map.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/studio-payroll/payroll"
)

// =============================================================================
// RULES
// =============================================================================

// RuleDTO represents a payroll rule in API responses.
type RuleDTO struct {
	ID             string `json:"id"`
	EffectiveMonth string `json:"effective_month"`
	Tier1to5       string `json:"tier1to5"`
	Tier6to10      string `json:"tier6to10"`
	Tier11to15     string `json:"tier11to15"`
	Tier16Plus     string `json:"tier16plus"`
	SalesBonusUnit string `json:"sales_bonus_unit"`
	Locked         bool   `json:"locked"`
	LockedAt       string `json:"locked_at,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
}

// CurrentRuleResponse is returned by GET /api/rules.
type CurrentRuleResponse struct {
	Rule     RuleDTO `json:"rule"`
	Editable bool    `json:"editable"`
}

// UpdateRuleRequest replaces all five rates of a month.
type UpdateRuleRequest struct {
	Tier1to5       *float64 `json:"tier1to5" validate:"required,gte=0"`
	Tier6to10      *float64 `json:"tier6to10" validate:"required,gte=0"`
	Tier11to15     *float64 `json:"tier11to15" validate:"required,gte=0"`
	Tier16Plus     *float64 `json:"tier16plus" validate:"required,gte=0"`
	SalesBonusUnit *float64 `json:"sales_bonus_unit" validate:"required,gte=0"`
}

func toRuleDTO(r payroll.PayrollRule) RuleDTO {
	dto := RuleDTO{
		ID:             string(r.ID),
		EffectiveMonth: r.EffectiveMonth.String(),
		Tier1to5:       money(r.Tier1to5),
		Tier6to10:      money(r.Tier6to10),
		Tier11to15:     money(r.Tier11to15),
		Tier16Plus:     money(r.Tier16Plus),
		SalesBonusUnit: money(r.SalesBonusUnit),
		Locked:         r.Locked,
	}
	if !r.LockedAt.IsZero() {
		dto.LockedAt = r.LockedAt.Format(time.RFC3339)
	}
	if !r.CreatedAt.IsZero() {
		dto.CreatedAt = r.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// PAYROLL
// =============================================================================

// SummaryDTO is one instructor's pay for a month.
type SummaryDTO struct {
	Month          string `json:"month"`
	InstructorID   string `json:"instructor_id"`
	InstructorName string `json:"instructor_name"`
	ClassCount     int    `json:"class_count"`
	StudentCount   int    `json:"student_count"`
	AttendancePay  string `json:"attendance_pay"`
	SalesBonus     string `json:"sales_bonus"`
	TotalPay       string `json:"total_pay"`
}

// ReportDTO is a month's payroll with totals.
type ReportDTO struct {
	Month           string       `json:"month"`
	Summaries       []SummaryDTO `json:"summaries"`
	TotalPay        string       `json:"total_pay"`
	TotalClasses    int          `json:"total_classes"`
	InstructorCount int          `json:"instructor_count"`
}

func toReportDTO(report payroll.MonthlyReport) ReportDTO {
	dto := ReportDTO{
		Month:           report.Month.String(),
		Summaries:       make([]SummaryDTO, 0, len(report.Summaries)),
		TotalPay:        money(report.TotalPay),
		TotalClasses:    report.TotalClasses,
		InstructorCount: report.InstructorCount,
	}
	for _, s := range report.Summaries {
		dto.Summaries = append(dto.Summaries, SummaryDTO{
			Month:          s.Month.String(),
			InstructorID:   string(s.InstructorID),
			InstructorName: s.InstructorName,
			ClassCount:     s.ClassCount,
			StudentCount:   s.StudentCount,
			AttendancePay:  money(s.AttendancePay),
			SalesBonus:     money(s.SalesBonus),
			TotalPay:       money(s.TotalPay),
		})
	}
	return dto
}

// =============================================================================
// INSTRUCTORS AND COURSES
// =============================================================================

// InstructorDTO represents an instructor in API responses.
type InstructorDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// CreateInstructorRequest creates an instructor. ID is generated when empty.
type CreateInstructorRequest struct {
	ID    string `json:"id" validate:"omitempty,max=64"`
	Name  string `json:"name" validate:"required,max=100"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone" validate:"omitempty,max=32"`
}

func toInstructorDTO(i payroll.Instructor) InstructorDTO {
	dto := InstructorDTO{ID: string(i.ID), Name: i.Name, Email: i.Email, Phone: i.Phone}
	if !i.CreatedAt.IsZero() {
		dto.CreatedAt = i.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// CourseDTO represents a course in API responses.
type CourseDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// CreateCourseRequest creates a course. ID is generated when empty.
type CreateCourseRequest struct {
	ID          string `json:"id" validate:"omitempty,max=64"`
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=500"`
}

// =============================================================================
// RECORDS
// =============================================================================

// AttendanceDTO represents one taught class.
type AttendanceDTO struct {
	ID           string `json:"id"`
	InstructorID string `json:"instructor_id"`
	CourseID     string `json:"course_id"`
	Date         string `json:"date"`
	StudentCount int    `json:"student_count"`
}

// CreateAttendanceRequest records one taught class.
type CreateAttendanceRequest struct {
	InstructorID string `json:"instructor_id" validate:"required"`
	CourseID     string `json:"course_id" validate:"required"`
	Date         string `json:"date" validate:"required,datetime=2006-01-02"`
	StudentCount *int   `json:"student_count" validate:"required,gte=0"`
}

// SalesDTO represents one sale.
type SalesDTO struct {
	ID           string `json:"id"`
	InstructorID string `json:"instructor_id"`
	Date         string `json:"date"`
	Product      string `json:"product"`
	Quantity     int    `json:"quantity"`
	UnitPrice    string `json:"unit_price"`
}

// CreateSalesRequest records one sale.
type CreateSalesRequest struct {
	InstructorID string   `json:"instructor_id" validate:"required"`
	Date         string   `json:"date" validate:"required,datetime=2006-01-02"`
	Product      string   `json:"product" validate:"required,max=100"`
	Quantity     int      `json:"quantity" validate:"gte=1"`
	UnitPrice    *float64 `json:"unit_price" validate:"required,gte=0"`
}

func toAttendanceDTO(a payroll.AttendanceRecord) AttendanceDTO {
	return AttendanceDTO{
		ID:           a.ID,
		InstructorID: string(a.InstructorID),
		CourseID:     string(a.CourseID),
		Date:         a.Date.String(),
		StudentCount: a.StudentCount,
	}
}

func toSalesDTO(s payroll.SalesRecord) SalesDTO {
	return SalesDTO{
		ID:           s.ID,
		InstructorID: string(s.InstructorID),
		Date:         s.Date.String(),
		Product:      s.Product,
		Quantity:     s.Quantity,
		UnitPrice:    money(s.UnitPrice),
	}
}

// =============================================================================
// SCENARIOS, AUTOLOCK, ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the request to load a scenario.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// AutoLockResultDTO reports one payday check.
type AutoLockResultDTO struct {
	Month      string `json:"month"`
	PaymentDay int    `json:"payment_day"`
	Locked     bool   `json:"locked"`
}

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
