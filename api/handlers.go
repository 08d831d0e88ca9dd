/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Auth:
    POST   /api/auth/login             Sign in, returns JWT
    POST   /api/auth/logout            Sign out
    POST   /api/auth/password          Change own password

  Employees:
    GET    /api/employees              List the roster
    POST   /api/employees              Create employee (supervisor)
    GET    /api/employees/{id}         Get employee details
    GET    /api/employees/{id}/balance Balances as of today

  Requests:
    POST   /api/requests               Submit a leave request
    GET    /api/requests/mine          The caller's requests
    GET    /api/requests/pending       Pending queue (supervisor)
    POST   /api/requests/{id}/approve  Approve (supervisor)
    POST   /api/requests/{id}/deny     Deny (supervisor)

  Calendar:
    GET    /api/calendar               Week slot view (?start=YYYY-MM-DD)

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 401: Missing/invalid credentials
  - 403: Insufficient admin level
  - 404: Resource not found
  - 409: Conflict (duplicate day, already-decided request)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Token handling and middleware
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/bradleyems/leave-engine/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    leave.TxStore
	Arbiter  *leave.Arbiter
	Notifier Notifier

	// Secret signs session tokens.
	Secret string

	// Now supplies the current instant; nil means time.Now. Tests pin it.
	Now func() time.Time
}

// NewHandler creates a new handler over the given store.
func NewHandler(store leave.TxStore, secret string) *Handler {
	return &Handler{
		Store:    store,
		Arbiter:  leave.NewArbiter(store),
		Notifier: &LogNotifier{},
		Secret:   secret,
	}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// =============================================================================
// AUTH HANDLERS
// =============================================================================

// Login verifies credentials and issues a session token. Usernames match
// case-insensitively.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	emp, err := h.Store.GetEmployeeByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up employee", err)
		return
	}
	if emp == nil || checkPassword(emp.PasswordHash, req.Password) != nil {
		writeError(w, http.StatusUnauthorized, "Invalid username or password", nil)
		return
	}

	token, err := generateToken(h.Secret, *emp, h.now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}

	if err := h.Store.SetCurrentUser(r.Context(), emp.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record session", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:               token,
		Employee:            employeeDTO(*emp),
		ForcePasswordChange: emp.ForcePasswordChange,
	})
}

// Logout clears the session slot.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.ClearCurrentUser(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to clear session", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

// ChangePassword sets a new password for the caller and clears the
// force-change flag.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	emp, _ := actingEmployee(r)

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if len(req.NewPassword) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters", nil)
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		writeError(w, http.StatusBadRequest, "Passwords do not match", nil)
		return
	}

	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}

	emp.PasswordHash = hash
	emp.ForcePasswordChange = false
	if err := h.Store.PutEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save password", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "password changed"})
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns the roster.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = employeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	writeJSON(w, http.StatusOK, employeeDTO(*emp))
}

// CreateEmployee adds a roster member with a generated username and a
// temporary password the new hire must change on first login.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		writeError(w, http.StatusBadRequest, "first_name and last_name are required", nil)
		return
	}

	hireDate, err := leave.ParseDate(req.HireDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hire_date format (use YYYY-MM-DD)", err)
		return
	}

	adminLevel := leave.AdminLevel(req.AdminLevel)
	if adminLevel == "" {
		adminLevel = leave.AdminStaff
	}
	if adminLevel.Rank() < 0 {
		writeError(w, http.StatusBadRequest, "Unknown admin_level", nil)
		return
	}

	certLevel := leave.CertLevel(req.CertLevel)
	if certLevel == "" {
		certLevel = leave.CertEMT
	}

	const tempPassword = "password1"
	hash, err := hashPassword(tempPassword)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to hash password", err)
		return
	}

	username, err := h.generateUsername(r, req.LastName)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to generate username", err)
		return
	}

	emp := leave.Employee{
		ID:                  uuid.NewString(),
		Username:            username,
		PasswordHash:        hash,
		FirstName:           req.FirstName,
		LastName:            req.LastName,
		Email:               req.Email,
		HireDate:            hireDate,
		CertLevel:           certLevel,
		AdminLevel:          adminLevel,
		ForcePasswordChange: true,
	}

	if err := h.Store.PutEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateEmployeeResponse{
		Employee:     employeeDTO(emp),
		TempPassword: tempPassword,
	})
}

// generateUsername derives "smith1", "smith2", ... from the last name.
func (h *Handler) generateUsername(r *http.Request, lastName string) (string, error) {
	base := strings.Map(func(c rune) rune {
		if c >= 'a' && c <= 'z' {
			return c
		}
		if c >= 'A' && c <= 'Z' {
			return c + ('a' - 'A')
		}
		return -1
	}, lastName)
	if base == "" {
		base = "user"
	}

	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		return "", err
	}
	count := 0
	for _, e := range employees {
		if strings.HasPrefix(strings.ToLower(e.Username), base) {
			count++
		}
	}
	return fmt.Sprintf("%s%d", base, count+1), nil
}

// GetBalance returns the employee's balances as of today.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}

	requests, err := h.Store.ListRequests(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	asOf := leave.DateOf(h.now())
	bal := leave.ComputeBalances(*emp, requests, asOf)
	writeJSON(w, http.StatusOK, balanceDTO(bal, asOf))
}

// =============================================================================
// REQUEST HANDLERS
// =============================================================================

// SubmitRequest runs arbitration for a new leave request by the caller.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	emp, _ := actingEmployee(r)

	var req SubmitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	date, err := leave.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	decision, err := h.Arbiter.Submit(r.Context(), emp, date, leave.Shift(req.Shift), leave.LeaveType(req.Type))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if decision.BumpedRequestID != "" {
		h.notifyBumped(r, decision.BumpedRequestID)
	}

	writeJSON(w, http.StatusCreated, DecisionDTO{
		Request:         requestDTO(decision.Request),
		Status:          string(decision.Status),
		BumpedRequestID: decision.BumpedRequestID,
		Message:         decision.Message,
	})
}

// notifyBumped tells the bumped occupant their approved leave was lost.
func (h *Handler) notifyBumped(r *http.Request, requestID string) {
	ctx := r.Context()
	bumped, err := h.Store.GetRequest(ctx, requestID)
	if err != nil || bumped == nil {
		return
	}
	owner, err := h.Store.GetEmployee(ctx, bumped.EmployeeID)
	if err != nil || owner == nil {
		return
	}
	h.Notifier.NotifyDecision(ctx, *owner, *bumped,
		"Your approved leave was bumped by a more senior employee.")
}

// ListRequests returns requests filtered by ?employee_id=. Staff may
// only query themselves; supervisors may query anyone or omit the
// filter for the full collection.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	emp, _ := actingEmployee(r)
	employeeID := r.URL.Query().Get("employee_id")

	if !emp.AdminLevel.CanApprove() {
		if employeeID != "" && employeeID != emp.ID {
			writeError(w, http.StatusForbidden, "Supervisor access required", nil)
			return
		}
		employeeID = emp.ID
	}

	requests, err := h.Store.ListRequests(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	dtos := []RequestDTO{}
	for _, req := range requests {
		if employeeID != "" && req.EmployeeID != employeeID {
			continue
		}
		dtos = append(dtos, requestDTO(req))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListMyRequests returns the caller's requests, newest leave date first.
func (h *Handler) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	emp, _ := actingEmployee(r)

	requests, err := h.Store.ListRequests(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	dtos := []RequestDTO{}
	for i := len(requests) - 1; i >= 0; i-- {
		if requests[i].EmployeeID == emp.ID {
			dtos = append(dtos, requestDTO(requests[i]))
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListPendingRequests returns the supervisor queue with owner names.
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	requests, err := h.Store.ListRequests(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	dtos := []RequestDTO{}
	for _, req := range requests {
		if req.Status != leave.StatusPending {
			continue
		}
		dto := requestDTO(req)
		if owner, err := h.Store.GetEmployee(r.Context(), req.EmployeeID); err == nil && owner != nil {
			dto.Employee = owner.FullName()
		}
		dtos = append(dtos, dto)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ApproveRequest approves a pending request.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.processRequest(w, r, true)
}

// DenyRequest denies a pending request.
func (h *Handler) DenyRequest(w http.ResponseWriter, r *http.Request) {
	h.processRequest(w, r, false)
}

func (h *Handler) processRequest(w http.ResponseWriter, r *http.Request, approve bool) {
	processor, _ := actingEmployee(r)
	id := chi.URLParam(r, "id")

	req, err := h.Arbiter.Process(r.Context(), id, approve, processor)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if owner, oerr := h.Store.GetEmployee(r.Context(), req.EmployeeID); oerr == nil && owner != nil {
		verb := "approved"
		if !approve {
			verb = "denied"
		}
		h.Notifier.NotifyDecision(r.Context(), *owner, *req,
			fmt.Sprintf("Your leave request for %s was %s by %s.", req.Date, verb, processor.FullName()))
	}

	writeJSON(w, http.StatusOK, requestDTO(*req))
}

// =============================================================================
// CALENDAR
// =============================================================================

// Calendar returns a 7-day slot view starting at ?start= (default: the
// Monday of the current week).
func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
	start := leave.StartOfWeek(leave.DateOf(h.now()))
	if s := r.URL.Query().Get("start"); s != "" {
		parsed, err := leave.ParseDate(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid start format (use YYYY-MM-DD)", err)
			return
		}
		start = parsed
	}

	requests, err := h.Store.ListRequests(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	names := map[string]string{}
	if employees, err := h.Store.ListEmployees(r.Context()); err == nil {
		for _, e := range employees {
			names[e.ID] = e.FullName()
		}
	}

	days := make([]CalendarDay, 0, 7)
	for i := 0; i < 7; i++ {
		date := start.AddDays(i)
		day := CalendarDay{Date: date.String()}
		if name, ok := leave.FederalHolidayOn(date); ok {
			day.Holiday = name
		}
		for _, shift := range []leave.Shift{leave.ShiftDay, leave.ShiftNight} {
			slot := CalendarShift{Shift: string(shift), Approved: []RequestDTO{}}
			for _, req := range requests {
				if req.Date.Equal(date) && req.Shift == shift && req.Status == leave.StatusApproved {
					dto := requestDTO(req)
					dto.Employee = names[req.EmployeeID]
					slot.Approved = append(slot.Approved, dto)
				}
			}
			slot.Remaining = leave.SlotCapacity - len(slot.Approved)
			if slot.Remaining < 0 {
				slot.Remaining = 0
			}
			day.Shifts = append(day.Shifts, slot)
		}
		days = append(days, day)
	}

	writeJSON(w, http.StatusOK, days)
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Error: message}
	if err != nil {
		resp.Detail = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps engine errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *leave.ValidationError
	switch {
	case errors.Is(err, leave.ErrDuplicateDay):
		writeError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, leave.ErrNotPending):
		writeError(w, http.StatusConflict, "Request already has a decision", err)
	case errors.Is(err, leave.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "Supervisor access required", nil)
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, err.Error(), nil)
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message, nil)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}
