/*
Package leave implements the leave management engine for a county EMS
roster: accrual of vacation/sick/holiday balances, the seniority and
leave-window policy, and the arbitration procedure that decides whether
a submitted request is auto-approved, bumps a junior employee, or waits
for supervisor approval.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: roster member with hire date, certification and admin level
  - Request: a single (date, shift) leave request with a terminal status
  - Balance: the three computed leave pools (never persisted)
  - Enumerations: CertLevel, AdminLevel, Shift, LeaveType, RequestStatus

DESIGN PRINCIPLES:
  1. Balances are derived: Balance is a pure function of the employee,
     the request set and the as-of date. It is recomputed after every
     mutation, never cached across one.
  2. Precision: pools use decimal.Decimal to avoid floating-point drift
     over years of 0.5-unit monthly accruals.
  3. Terminal statuses: Denied and Bumped requests never re-enter
     balance accounting.

SEE ALSO:
  - accrual.go: day-by-day balance simulation
  - policy.go: seniority ranking and leave-window boundaries
  - arbitration.go: the submit/approve/bump decision procedure
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENUMERATIONS
// =============================================================================

// CertLevel is the employee's EMS certification level.
type CertLevel string

const (
	CertEMT          CertLevel = "EMT"
	CertAEMT         CertLevel = "AEMT"
	CertParamedic    CertLevel = "Paramedic"
	CertCriticalCare CertLevel = "Critical Care Paramedic"
)

// AdminLevel is the employee's rank in the approval chain.
// Everything above Staff can process pending requests.
type AdminLevel string

const (
	AdminStaff      AdminLevel = "Staff"
	AdminSergeant   AdminLevel = "Sergeant"
	AdminLieutenant AdminLevel = "Lieutenant"
	AdminCommander  AdminLevel = "Commander"
	AdminCaptain    AdminLevel = "Captain"
	AdminDirector   AdminLevel = "Director"
)

var adminOrder = []AdminLevel{
	AdminStaff, AdminSergeant, AdminLieutenant, AdminCommander, AdminCaptain, AdminDirector,
}

// Rank returns the ordinal of the admin level, or -1 for unknown values.
func (a AdminLevel) Rank() int {
	for i, l := range adminOrder {
		if l == a {
			return i
		}
	}
	return -1
}

// CanApprove reports whether this level may process pending requests.
func (a AdminLevel) CanApprove() bool { return a.Rank() > AdminStaff.Rank() }

// Shift is one of the two non-overlapping 12-hour blocks of a roster day.
type Shift string

const (
	ShiftDay   Shift = "0800-2000"
	ShiftNight Shift = "2000-0800"
)

// Valid reports whether s is a known shift block.
func (s Shift) Valid() bool { return s == ShiftDay || s == ShiftNight }

// LeaveType identifies which pool a request draws from. Holiday exists as
// a tag but is never charged directly: the holiday pool is consumed
// transparently when a Vacation day is taken.
type LeaveType string

const (
	LeaveVacation LeaveType = "Vacation"
	LeaveSick     LeaveType = "Sick"
	LeaveHoliday  LeaveType = "Holiday"
)

// RequestStatus is the lifecycle state of a request.
type RequestStatus string

const (
	StatusPending  RequestStatus = "Pending"
	StatusApproved RequestStatus = "Approved"
	StatusDenied   RequestStatus = "Denied"
	StatusBumped   RequestStatus = "Bumped (Seniority)"
)

// Terminal reports whether the status excludes the request from any
// further accrual accounting or processing.
func (s RequestStatus) Terminal() bool { return s == StatusDenied || s == StatusBumped }

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is a roster member. HireDate is fixed at creation; seniority
// rank derives solely from it (see policy.go).
type Employee struct {
	ID                  string
	Username            string
	PasswordHash        string
	FirstName           string
	LastName            string
	Email               string
	HireDate            Date
	CertLevel           CertLevel
	AdminLevel          AdminLevel
	ForcePasswordChange bool
}

func (e Employee) FullName() string { return e.FirstName + " " + e.LastName }

// =============================================================================
// REQUEST
// =============================================================================

// Request is a single-day leave request for one shift block.
// ProcessedBy is set when a supervisor manually approves or denies;
// auto-approved requests leave it empty.
type Request struct {
	ID          string
	EmployeeID  string
	Date        Date
	Shift       Shift
	Type        LeaveType
	Status      RequestStatus
	SubmittedAt time.Time
	ProcessedBy string
}

// =============================================================================
// BALANCE - Derived, never stored
// =============================================================================

// Balance holds the three leave pools as of some date. It has no identity
// of its own: discard and recompute after any request-set mutation.
type Balance struct {
	Vacation decimal.Decimal
	Sick     decimal.Decimal
	Holiday  decimal.Decimal
}
