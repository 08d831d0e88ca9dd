/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

  Dates travel as "YYYY-MM-DD" strings, timestamps as RFC3339, balances
  as floats (display only; the engine keeps decimals internally).

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/bradleyems/leave-engine/leave"
)

// =============================================================================
// AUTH
// =============================================================================

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token               string      `json:"token"`
	Employee            EmployeeDTO `json:"employee"`
	ForcePasswordChange bool        `json:"force_password_change"`
}

type ChangePasswordRequest struct {
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID         string `json:"id"`
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	HireDate   string `json:"hire_date"`
	CertLevel  string `json:"cert_level"`
	AdminLevel string `json:"admin_level"`
}

func employeeDTO(e leave.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:         e.ID,
		Username:   e.Username,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		Email:      e.Email,
		HireDate:   e.HireDate.String(),
		CertLevel:  string(e.CertLevel),
		AdminLevel: string(e.AdminLevel),
	}
}

type CreateEmployeeRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	HireDate   string `json:"hire_date"`
	CertLevel  string `json:"cert_level"`
	AdminLevel string `json:"admin_level"`
}

// CreateEmployeeResponse echoes the generated credentials so the
// supervisor can hand them to the new hire.
type CreateEmployeeResponse struct {
	Employee     EmployeeDTO `json:"employee"`
	TempPassword string      `json:"temp_password"`
}

type BalanceDTO struct {
	Vacation float64 `json:"vacation"`
	Sick     float64 `json:"sick"`
	Holiday  float64 `json:"holiday"`
	AsOf     string  `json:"as_of"`
}

func balanceDTO(b leave.Balance, asOf leave.Date) BalanceDTO {
	return BalanceDTO{
		Vacation: b.Vacation.InexactFloat64(),
		Sick:     b.Sick.InexactFloat64(),
		Holiday:  b.Holiday.InexactFloat64(),
		AsOf:     asOf.String(),
	}
}

// =============================================================================
// REQUESTS
// =============================================================================

type SubmitRequestRequest struct {
	Date  string `json:"date"`
	Shift string `json:"shift"`
	Type  string `json:"type"`
}

type RequestDTO struct {
	ID          string `json:"id"`
	EmployeeID  string `json:"employee_id"`
	Employee    string `json:"employee,omitempty"`
	Date        string `json:"date"`
	Shift       string `json:"shift"`
	Type        string `json:"type"`
	Status      string `json:"status"`
	SubmittedAt string `json:"submitted_at"`
	ProcessedBy string `json:"processed_by,omitempty"`
}

func requestDTO(r leave.Request) RequestDTO {
	return RequestDTO{
		ID:          r.ID,
		EmployeeID:  r.EmployeeID,
		Date:        r.Date.String(),
		Shift:       string(r.Shift),
		Type:        string(r.Type),
		Status:      string(r.Status),
		SubmittedAt: r.SubmittedAt.UTC().Format(time.RFC3339),
		ProcessedBy: r.ProcessedBy,
	}
}

type DecisionDTO struct {
	Request         RequestDTO `json:"request"`
	Status          string     `json:"status"`
	BumpedRequestID string     `json:"bumped_request_id,omitempty"`
	Message         string     `json:"message"`
}

// =============================================================================
// CALENDAR
// =============================================================================

// CalendarDay is one roster day with both shift slots.
type CalendarDay struct {
	Date    string          `json:"date"`
	Holiday string          `json:"holiday,omitempty"`
	Shifts  []CalendarShift `json:"shifts"`
}

type CalendarShift struct {
	Shift     string       `json:"shift"`
	Approved  []RequestDTO `json:"approved"`
	Remaining int          `json:"remaining"`
}
