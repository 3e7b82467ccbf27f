/*
handlers.go - HTTP API handlers for the work log and payroll

PURPOSE:
  Exposes the work log, employee directory, punch clock import and
  payroll report via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the payroll and worklog packages.

ENDPOINTS:
  Sign-in:
    POST   /api/auth/login                 Worker sign-in (name + passkey)
    POST   /api/auth/admin                 Admin sign-in (passkey)

  Worker (Bearer token):
    GET    /api/me                         Own directory entry
    POST   /api/me/records                 Submit work log lines
    POST   /api/me/shifts                  Submit a clock-in/clock-out shift
    GET    /api/me/records                 Own records
    GET    /api/me/earnings                Own saved earnings lines

  Admin (admin token):
    GET/POST   /api/admin/employees        Directory
    GET/DELETE /api/admin/employees/{name}
    GET    /api/admin/records              All records (filterable)
    POST   /api/admin/punchclock           Import time clock exports
    GET    /api/admin/punchclock/weeks     Imported weeks
    POST   /api/admin/payroll              Build and save a report
    GET    /api/admin/payroll              Saved earnings lines
    GET    /api/admin/payroll/export       CSV/XLSX download or S3 upload
    GET    /api/admin/payroll/runs         Recent scheduled runs
    POST   /api/admin/archive              Archive and reset live data
    GET    /api/admin/archive/records      Archived records (JSON/CSV/XLSX)
    GET    /api/admin/scenarios            Demo scenarios
    GET    /api/admin/scenarios/current    Last loaded scenario
    POST   /api/admin/scenarios/load       Load a demo scenario

  Public:
    POST   /api/pay/quote                  Evaluate the pay rule

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing or bad credentials
  - 404: Resource not found
  - 409: Conflict (idempotency key reused)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/warp/worklog/auth"
	"github.com/warp/worklog/directory"
	"github.com/warp/worklog/export"
	"github.com/warp/worklog/payroll"
	"github.com/warp/worklog/punchclock"
	"github.com/warp/worklog/worklog"
)

const maxUploadBytes = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store       payroll.Store
	WorkLog     *worklog.WorkLog
	Builder     *payroll.Builder
	Importer    *punchclock.Importer
	Tokens      *auth.Tokens
	Credentials *auth.Credentials

	// Optional
	Scheduler *PayrollScheduler
	Uploader  *export.Uploader
	Roster    *directory.Roster

	// SnapWeeks moves a week_start to the Monday on or before it.
	SnapWeeks bool

	Log log.FieldLogger

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler over store. sink may be nil.
func NewHandler(store payroll.Store, sink payroll.LogSink, tokens *auth.Tokens, creds *auth.Credentials) *Handler {
	return &Handler{
		Store:       store,
		WorkLog:     worklog.New(store, sink),
		Builder:     payroll.NewBuilder(store),
		Importer:    punchclock.NewImporter(store),
		Tokens:      tokens,
		Credentials: creds,
		Roster:      directory.Default(),
		Log:         log.StandardLogger(),
	}
}

// =============================================================================
// SIGN-IN
// =============================================================================

// Login signs a worker in.
// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	id, err := h.Credentials.Worker(strings.TrimSpace(req.Name), req.Passkey)
	if err != nil {
		h.Log.WithField("name", req.Name).Warn("worker sign-in rejected")
		writeError(w, http.StatusUnauthorized, "Sign-in failed", err)
		return
	}
	h.issue(w, id)
}

// AdminLogin signs office staff in.
// POST /api/auth/admin
func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req AdminLoginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	id, err := h.Credentials.Admin(req.Passkey)
	if err != nil {
		h.Log.Warn("admin sign-in rejected")
		writeError(w, http.StatusUnauthorized, "Sign-in failed", err)
		return
	}
	h.issue(w, id)
}

func (h *Handler) issue(w http.ResponseWriter, id auth.Identity) {
	token, expires, err := h.Tokens.Issue(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, http.StatusOK, TokenResponse{
		Token:     token,
		ExpiresAt: expires.UTC().Format(time.RFC3339),
		Name:      id.Name,
		Role:      string(id.Role),
	})
}

// =============================================================================
// WORKER ENDPOINTS
// =============================================================================

// Me returns the caller's directory entry.
// GET /api/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id := identity(r)
	emp, err := h.Store.GetEmployee(r.Context(), id.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// SubmitMyRecords logs one or more form lines for the caller.
// POST /api/me/records
func (h *Handler) SubmitMyRecords(w http.ResponseWriter, r *http.Request) {
	var req SubmitRecordsRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	id := identity(r)
	recs := make([]payroll.WorkRecord, 0, len(req.Records))
	for _, line := range req.Records {
		rec, err := recordFromRequest(line)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid record", err)
			return
		}
		rec.Employee = id.Name
		rec.CreatedBy = id.Name
		recs = append(recs, rec)
	}

	saved, err := h.WorkLog.SubmitBatch(r.Context(), recs)
	if err != nil {
		h.writeDomainError(w, "Failed to submit records", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordDTOs(saved))
}

// SubmitMyShift logs a self-reported shift.
// POST /api/me/shifts
func (h *Handler) SubmitMyShift(w http.ResponseWriter, r *http.Request) {
	var req ShiftRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	day, err := payroll.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	in, err := worklog.ParseClock(day, req.TimeIn)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid time_in", err)
		return
	}
	out, err := worklog.ParseClock(day, req.TimeOut)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid time_out", err)
		return
	}

	id := identity(r)
	rec, err := h.WorkLog.SubmitShift(r.Context(), worklog.Shift{
		Employee:       id.Name,
		Date:           day,
		In:             in,
		Out:            out,
		IdempotencyKey: req.IdempotencyKey,
		CreatedBy:      id.Name,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to submit shift", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRecordDTO(rec))
}

// ListMyRecords returns the caller's records.
// GET /api/me/records?from=&to=&limit=
func (h *Handler) ListMyRecords(w http.ResponseWriter, r *http.Request) {
	filter, err := recordFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err)
		return
	}
	filter.Employee = identity(r).Name
	recs, err := h.WorkLog.Records(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list records", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTOs(recs))
}

// ListMyEarnings returns the caller's saved earnings lines.
// GET /api/me/earnings
func (h *Handler) ListMyEarnings(w http.ResponseWriter, r *http.Request) {
	lines, err := h.Store.ListEarnings(r.Context(), payroll.EarningsFilter{Employee: identity(r).Name})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list earnings", err)
		return
	}
	writeJSON(w, http.StatusOK, toEarningsDTOs(lines))
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	emp, err := h.Store.GetEmployee(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// SaveEmployee creates or updates a directory entry.
func (h *Handler) SaveEmployee(w http.ResponseWriter, r *http.Request) {
	var req SaveEmployeeRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	c, ok := payroll.ParseClassification(req.Classification)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid classification (use hourly or per_break)", nil)
		return
	}
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil || rate.IsNegative() {
		writeError(w, http.StatusBadRequest, "Invalid rate", err)
		return
	}

	emp := payroll.Employee{Name: strings.TrimSpace(req.Name), Classification: c, Rate: rate}
	if err := h.Store.SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save employee", err)
		return
	}
	saved, err := h.Store.GetEmployee(r.Context(), emp.Name)
	if err != nil || saved == nil {
		writeError(w, http.StatusInternalServerError, "Failed to reload employee", err)
		return
	}
	h.Log.WithFields(log.Fields{"employee": emp.Name, "classification": c, "rate": rate.String()}).Info("employee saved")
	writeJSON(w, http.StatusCreated, toEmployeeDTO(*saved))
}

// DeleteEmployee removes a directory entry. Logged records are kept.
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := h.Store.DeleteEmployee(r.Context(), name); err != nil {
		h.writeDomainError(w, "Failed to delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// RECORDS (ADMIN)
// =============================================================================

// ListRecords returns records across employees.
// GET /api/admin/records?employee=&from=&to=&limit=
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	filter, err := recordFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err)
		return
	}
	filter.Employee = r.URL.Query().Get("employee")
	recs, err := h.WorkLog.Records(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list records", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordDTOs(recs))
}

// =============================================================================
// PUNCH CLOCK
// =============================================================================

// ImportPunchClock imports uploaded time clock exports (form field "files").
// POST /api/admin/punchclock
func (h *Handler) ImportPunchClock(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload", err)
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "No files uploaded", nil)
		return
	}

	files := make([]punchclock.File, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read upload", err)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "Failed to read upload", err)
			return
		}
		files = append(files, punchclock.File{Name: fh.Filename, Data: data})
	}

	results, err := h.Importer.ImportAll(r.Context(), files)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to import punch clock data", err)
		return
	}

	saved, skipped := punchclock.Summary(results)
	resp := PunchClockImportResponse{Saved: saved, Skipped: skipped, Results: make([]PunchClockResultDTO, len(results))}
	for i, res := range results {
		dto := PunchClockResultDTO{File: res.File, Employee: res.Entry.Employee, Saved: res.Saved}
		if !res.Entry.WeekStart.IsZero() {
			dto.WeekStart = res.Entry.WeekStart.String()
		}
		if !res.Entry.TotalHours.IsZero() || res.Saved {
			dto.Hours = res.Entry.TotalHours.String()
		}
		if res.Err != nil {
			dto.Error = res.Err.Error()
		}
		resp.Results[i] = dto
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListPunchClockWeeks returns imported week starts, most recent first.
// GET /api/admin/punchclock/weeks
func (h *Handler) ListPunchClockWeeks(w http.ResponseWriter, r *http.Request) {
	weeks, err := h.Store.ListPunchClockWeeks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list weeks", err)
		return
	}
	out := make([]string, len(weeks))
	for i, d := range weeks {
		out[i] = d.String()
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// PAYROLL
// =============================================================================

// BuildPayroll computes and saves the report for a period.
// POST /api/admin/payroll {"week_start": "2025-03-03"} or {"start", "end"}
func (h *Handler) BuildPayroll(w http.ResponseWriter, r *http.Request) {
	var req PayrollRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	period, err := h.periodFrom(req.WeekStart, req.Start, req.End)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	report, err := h.Builder.Build(r.Context(), period)
	if err != nil {
		h.writeDomainError(w, "Failed to build payroll", err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

// ListPayroll returns saved earnings lines, optionally for one period.
// GET /api/admin/payroll?start=&end=&employee=
func (h *Handler) ListPayroll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := payroll.EarningsFilter{Employee: q.Get("employee")}
	if q.Get("week_start") != "" || q.Get("start") != "" || q.Get("end") != "" {
		period, err := h.periodFrom(q.Get("week_start"), q.Get("start"), q.Get("end"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid period", err)
			return
		}
		filter.Period = &period
	}
	lines, err := h.Store.ListEarnings(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list earnings", err)
		return
	}
	writeJSON(w, http.StatusOK, toEarningsDTOs(lines))
}

// ExportPayroll downloads the period's earnings lines. With upload=true and
// a configured bucket the file is stored in S3 instead.
// GET /api/admin/payroll/export?start=&end=&format=csv|xlsx[&upload=true]
func (h *Handler) ExportPayroll(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, err := h.periodFrom(q.Get("week_start"), q.Get("start"), q.Get("end"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return
	}
	format, err := export.ParseFormat(q.Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format", err)
		return
	}

	report, err := h.Builder.Build(r.Context(), period)
	if err != nil {
		h.writeDomainError(w, "Failed to build payroll", err)
		return
	}

	var buf bytes.Buffer
	if err := export.Earnings(&buf, format, report.Lines); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export payroll", err)
		return
	}
	name := export.EarningsFilename(period, format)

	if upload, _ := strconv.ParseBool(q.Get("upload")); upload {
		if h.Uploader == nil {
			writeError(w, http.StatusBadRequest, "Export upload is not configured", nil)
			return
		}
		key, err := h.Uploader.Upload(r.Context(), name, format, buf.Bytes())
		if err != nil {
			writeError(w, http.StatusBadGateway, "Failed to upload export", err)
			return
		}
		writeJSON(w, http.StatusOK, ExportUploadResponse{Bucket: h.Uploader.Bucket, Key: key})
		return
	}

	writeFile(w, name, format, buf.Bytes())
}

// ListPayrollRuns returns recent scheduler runs.
// GET /api/admin/payroll/runs
func (h *Handler) ListPayrollRuns(w http.ResponseWriter, r *http.Request) {
	dtos := []PayrollRunDTO{}
	if h.Scheduler != nil {
		for _, run := range h.Scheduler.Runs() {
			dtos = append(dtos, PayrollRunDTO{
				PeriodStart: run.Period.Start.String(),
				PeriodEnd:   run.Period.End.String(),
				Lines:       run.Lines,
				Warnings:    run.Warnings,
				Error:       run.Error,
				StartedAt:   run.StartedAt.UTC().Format(time.RFC3339),
				DurationMS:  run.FinishedAt.Sub(run.StartedAt).Milliseconds(),
			})
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// QuotePay evaluates the pay rule. Unknown classifications pay zero.
// POST /api/pay/quote
func (h *Handler) QuotePay(w http.ResponseWriter, r *http.Request) {
	var req PayQuoteRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	rate, err := decimal.NewFromString(req.Rate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rate", err)
		return
	}
	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid quantity", err)
		return
	}

	c, _ := payroll.ParseClassification(req.Classification)
	pay, err := payroll.DefaultRule.Evaluate(c, &rate, qty)
	switch {
	case errors.Is(err, payroll.ErrNegativeRate), errors.Is(err, payroll.ErrNegativeQuantity):
		writeError(w, http.StatusBadRequest, "Invalid quote", err)
		return
	case err != nil:
		pay = decimal.Zero
	}
	writeJSON(w, http.StatusOK, PayQuoteResponse{Classification: string(c), Pay: pay.StringFixed(payroll.MoneyPlaces)})
}

// =============================================================================
// ARCHIVE
// =============================================================================

// Archive moves all live data to the archive.
// POST /api/admin/archive
func (h *Handler) Archive(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Store.ArchiveAndReset(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to archive", err)
		return
	}
	h.Log.WithFields(log.Fields{
		"records":     sum.Records,
		"punch_clock": sum.PunchClock,
		"earnings":    sum.Earnings,
		"by":          identity(r).Name,
	}).Info("live data archived")
	writeJSON(w, http.StatusOK, ArchiveDTO{
		Records:    sum.Records,
		PunchClock: sum.PunchClock,
		Earnings:   sum.Earnings,
		ArchivedAt: sum.ArchivedAt.UTC().Format(time.RFC3339),
	})
}

// ListArchivedRecords returns archived records as JSON, or as a file with
// format=csv|xlsx.
// GET /api/admin/archive/records
func (h *Handler) ListArchivedRecords(w http.ResponseWriter, r *http.Request) {
	filter, err := recordFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid query", err)
		return
	}
	filter.Employee = r.URL.Query().Get("employee")
	all, err := h.Store.ListArchivedRecords(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list archived records", err)
		return
	}
	recs := make([]payroll.WorkRecord, 0, len(all))
	for _, rec := range all {
		if filter.Matches(rec) {
			recs = append(recs, rec)
		}
	}
	if filter.Limit > 0 && len(recs) > filter.Limit {
		recs = recs[:filter.Limit]
	}

	raw := r.URL.Query().Get("format")
	if raw == "" || raw == "json" {
		writeJSON(w, http.StatusOK, toRecordDTOs(recs))
		return
	}
	format, err := export.ParseFormat(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid format", err)
		return
	}
	var buf bytes.Buffer
	if err := export.Records(&buf, format, recs); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to export records", err)
		return
	}
	writeFile(w, "work_log_archive"+format.Ext(), format, buf.Bytes())
}

// Health reports liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func identity(r *http.Request) auth.Identity {
	id, _ := auth.FromContext(r.Context())
	return id
}

func recordFromRequest(req RecordRequest) (payroll.WorkRecord, error) {
	day, err := payroll.ParseDate(req.Date)
	if err != nil {
		return payroll.WorkRecord{}, err
	}
	rec := payroll.WorkRecord{
		Date:           day,
		Task:           payroll.Task(req.Task),
		Show:           strings.TrimSpace(req.Show),
		BreakNumbers:   strings.TrimSpace(req.BreakNumbers),
		IdempotencyKey: req.IdempotencyKey,
		Source:         payroll.SourceForm,
	}
	if req.Quantity != "" {
		if rec.Quantity, err = decimal.NewFromString(req.Quantity); err != nil {
			return rec, fmt.Errorf("quantity: %w", err)
		}
	}
	if req.Bonus != "" {
		if rec.Bonus, err = decimal.NewFromString(req.Bonus); err != nil {
			return rec, fmt.Errorf("bonus: %w", err)
		}
	}
	return rec, nil
}

func recordFilter(r *http.Request) (payroll.RecordFilter, error) {
	q := r.URL.Query()
	var f payroll.RecordFilter
	var err error
	if v := q.Get("from"); v != "" {
		if f.From, err = payroll.ParseDate(v); err != nil {
			return f, fmt.Errorf("from: %w", err)
		}
	}
	if v := q.Get("to"); v != "" {
		if f.To, err = payroll.ParseDate(v); err != nil {
			return f, fmt.Errorf("to: %w", err)
		}
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return f, fmt.Errorf("limit must be a non-negative integer")
		}
		f.Limit = n
	}
	return f, nil
}

// periodFrom builds a pay period from a week start, or from start and end.
func (h *Handler) periodFrom(weekStart, start, end string) (payroll.PayPeriod, error) {
	if weekStart != "" {
		d, err := payroll.ParseDate(weekStart)
		if err != nil {
			return payroll.PayPeriod{}, err
		}
		return payroll.ReportWeek(d, h.SnapWeeks), nil
	}
	if start == "" || end == "" {
		return payroll.PayPeriod{}, fmt.Errorf("%w: give week_start or both start and end", payroll.ErrInvalidPeriod)
	}
	s, err := payroll.ParseDate(start)
	if err != nil {
		return payroll.PayPeriod{}, err
	}
	e, err := payroll.ParseDate(end)
	if err != nil {
		return payroll.PayPeriod{}, err
	}
	return payroll.NewPayPeriod(s, e)
}

// writeDomainError maps domain errors to HTTP status codes.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case payroll.IsNotFound(err):
		status = http.StatusNotFound
	case payroll.IsConflict(err):
		status = http.StatusConflict
	case payroll.IsClientError(err):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.Log.WithError(err).Error(message)
	}
	writeError(w, status, message, err)
}

func writeFile(w http.ResponseWriter, name string, format export.Format, data []byte) {
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
