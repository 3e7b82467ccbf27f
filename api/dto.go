/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the payroll domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

MONEY:
  Rates, quantities and pay are decimal strings ("134.12"), never floats.

VALIDATION:
  Request types carry validator tags; decodeAndValidate in binding.go
  applies them. Domain rules (known employee, task/unit match) stay in
  the worklog package.

SEE ALSO:
  - handlers.go: Uses these types
  - binding.go: Decoding and validation
*/
package api

import (
	"time"

	"github.com/warp/worklog/payroll"
)

// =============================================================================
// AUTH
// =============================================================================

type LoginRequest struct {
	Name    string `json:"name" validate:"required,max=64"`
	Passkey string `json:"passkey" validate:"required"`
}

type AdminLoginRequest struct {
	Passkey string `json:"passkey" validate:"required"`
}

type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
	Name      string `json:"name"`
	Role      string `json:"role"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	Name           string `json:"name"`
	Classification string `json:"classification"`
	Rate           string `json:"rate"`
	CreatedAt      string `json:"created_at,omitempty"`
}

type SaveEmployeeRequest struct {
	Name           string `json:"name" validate:"required,max=64"`
	Classification string `json:"classification" validate:"required"`
	Rate           string `json:"rate" validate:"required,numeric"`
}

func toEmployeeDTO(e payroll.Employee) EmployeeDTO {
	dto := EmployeeDTO{
		Name:           e.Name,
		Classification: string(e.Classification),
		Rate:           e.Rate.StringFixed(payroll.MoneyPlaces),
	}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.UTC().Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// WORK RECORDS
// =============================================================================

// RecordRequest is one line of the work log form.
type RecordRequest struct {
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	Task           string `json:"task" validate:"required"`
	Show           string `json:"whose_show" validate:"max=64"`
	BreakNumbers   string `json:"break_numbers" validate:"max=512"`
	Quantity       string `json:"quantity" validate:"omitempty,numeric"`
	Bonus          string `json:"bonus" validate:"omitempty,numeric"`
	IdempotencyKey string `json:"idempotency_key" validate:"max=128"`
}

// SubmitRecordsRequest submits several form lines atomically.
type SubmitRecordsRequest struct {
	Records []RecordRequest `json:"records" validate:"required,min=1,max=50,dive"`
}

type ShiftRequest struct {
	Date           string `json:"date" validate:"required,datetime=2006-01-02"`
	TimeIn         string `json:"time_in" validate:"required"`
	TimeOut        string `json:"time_out" validate:"required"`
	IdempotencyKey string `json:"idempotency_key" validate:"max=128"`
}

type RecordDTO struct {
	ID             string `json:"id"`
	Employee       string `json:"name"`
	Date           string `json:"date"`
	Task           string `json:"task"`
	Quantity       string `json:"quantity"`
	Unit           string `json:"unit"`
	Show           string `json:"whose_show,omitempty"`
	BreakNumbers   string `json:"break_numbers,omitempty"`
	Bonus          string `json:"bonus"`
	Source         string `json:"source"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
	CreatedBy      string `json:"created_by,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func toRecordDTO(r payroll.WorkRecord) RecordDTO {
	return RecordDTO{
		ID:             r.ID,
		Employee:       r.Employee,
		Date:           r.Date.String(),
		Task:           string(r.Task),
		Quantity:       r.Quantity.String(),
		Unit:           string(r.Unit),
		Show:           r.Show,
		BreakNumbers:   r.BreakNumbers,
		Bonus:          r.Bonus.StringFixed(payroll.MoneyPlaces),
		Source:         string(r.Source),
		IdempotencyKey: r.IdempotencyKey,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toRecordDTOs(recs []payroll.WorkRecord) []RecordDTO {
	out := make([]RecordDTO, len(recs))
	for i, r := range recs {
		out[i] = toRecordDTO(r)
	}
	return out
}

// =============================================================================
// PAYROLL
// =============================================================================

// PayrollRequest selects a period by week_start or by start and end.
type PayrollRequest struct {
	WeekStart string `json:"week_start" validate:"omitempty,datetime=2006-01-02"`
	Start     string `json:"start" validate:"omitempty,datetime=2006-01-02"`
	End       string `json:"end" validate:"omitempty,datetime=2006-01-02"`
}

type EarningsLineDTO struct {
	Employee       string `json:"name"`
	PeriodStart    string `json:"period_start"`
	PeriodEnd      string `json:"period_end"`
	Classification string `json:"classification,omitempty"`
	Rate           string `json:"rate"`
	Hours          string `json:"total_hours"`
	Breaks         string `json:"total_breaks"`
	TotalPay       string `json:"total_pay"`
	Bonus          string `json:"bonus"`
	Gross          string `json:"gross"`
	Unrated        bool   `json:"unrated,omitempty"`
}

func toEarningsDTO(l payroll.EarningsLine) EarningsLineDTO {
	return EarningsLineDTO{
		Employee:       l.Employee,
		PeriodStart:    l.Period.Start.String(),
		PeriodEnd:      l.Period.End.String(),
		Classification: string(l.Classification),
		Rate:           l.Rate.StringFixed(payroll.MoneyPlaces),
		Hours:          l.Hours.StringFixed(payroll.MoneyPlaces),
		Breaks:         l.Breaks.String(),
		TotalPay:       l.Total.StringFixed(payroll.MoneyPlaces),
		Bonus:          l.Bonus.StringFixed(payroll.MoneyPlaces),
		Gross:          l.Gross().StringFixed(payroll.MoneyPlaces),
		Unrated:        l.Unrated,
	}
}

func toEarningsDTOs(lines []payroll.EarningsLine) []EarningsLineDTO {
	out := make([]EarningsLineDTO, len(lines))
	for i, l := range lines {
		out[i] = toEarningsDTO(l)
	}
	return out
}

type ReportDTO struct {
	PeriodStart string            `json:"period_start"`
	PeriodEnd   string            `json:"period_end"`
	Lines       []EarningsLineDTO `json:"lines"`
	Totals      EarningsLineDTO   `json:"totals"`
	Warnings    []string          `json:"warnings"`
}

func toReportDTO(r *payroll.Report) ReportDTO {
	totals := toEarningsDTO(r.Totals())
	totals.Employee = "TOTAL"
	totals.Rate = ""
	warnings := r.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return ReportDTO{
		PeriodStart: r.Period.Start.String(),
		PeriodEnd:   r.Period.End.String(),
		Lines:       toEarningsDTOs(r.Lines),
		Totals:      totals,
		Warnings:    warnings,
	}
}

type PayrollRunDTO struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	Lines       int    `json:"lines"`
	Warnings    int    `json:"warnings"`
	Error       string `json:"error,omitempty"`
	StartedAt   string `json:"started_at"`
	DurationMS  int64  `json:"duration_ms"`
}

type ExportUploadResponse struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// PayQuoteRequest evaluates the pay rule without touching the store.
type PayQuoteRequest struct {
	Classification string `json:"classification" validate:"required"`
	Rate           string `json:"rate" validate:"required,numeric"`
	Quantity       string `json:"quantity" validate:"required,numeric"`
}

type PayQuoteResponse struct {
	Classification string `json:"classification"`
	Pay            string `json:"pay"`
}

// =============================================================================
// PUNCH CLOCK
// =============================================================================

type PunchClockResultDTO struct {
	File      string `json:"file"`
	Employee  string `json:"name,omitempty"`
	WeekStart string `json:"week_start,omitempty"`
	Hours     string `json:"total_hours,omitempty"`
	Saved     bool   `json:"saved"`
	Error     string `json:"error,omitempty"`
}

type PunchClockImportResponse struct {
	Saved   int                   `json:"saved"`
	Skipped int                   `json:"skipped"`
	Results []PunchClockResultDTO `json:"results"`
}

// =============================================================================
// ARCHIVE
// =============================================================================

type ArchiveDTO struct {
	Records    int    `json:"records"`
	PunchClock int    `json:"punch_clock"`
	Earnings   int    `json:"earnings"`
	ArchivedAt string `json:"archived_at"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
	WeekStart  string `json:"week_start" validate:"omitempty,datetime=2006-01-02"`
	Seed       int64  `json:"seed"`
}

type LoadScenarioResponse struct {
	Scenario  string `json:"scenario"`
	WeekStart string `json:"week_start"`
	Employees int    `json:"employees"`
	Records   int    `json:"records"`
	Punches   int    `json:"punches"`
}

// =============================================================================
// ERRORS
// =============================================================================

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
