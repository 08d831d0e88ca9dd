/*
arbitration.go - Request submission and approval arbitration

PURPOSE:
  Decides the fate of a submitted leave request:

  1. Preconditions (no mutation on failure):
     - at most 6 months in advance (exactly 6 months is allowed)
     - the relevant pool holds currently-earned units (> 0)
     - the employee holds no Approved request on that day already
  2. Less than 30 days out: Pending, supervisor must decide.
  3. 30+ days out: a (date, shift) slot holds up to 2 Approved requests.
     Free capacity auto-approves. A full slot can still approve the
     request by bumping its most-junior occupant, provided bumping is not
     yet locked for that date and the submitter is strictly more senior.
     Otherwise the request falls back to Pending.

SERIALIZATION:
  Two concurrent submissions against the same slot could both observe
  "1 of 2 occupied" and both auto-approve. Submit therefore serializes on
  a per-(date, shift) mutex. The request insert and the bumped occupant's
  status change commit in one store transaction.

TIE-BREAK:
  Occupants of a full slot order by MoreSenior (hire date, then employee
  ID ascending). Among occupants hired the same day the one owned by the
  greatest employee ID is the junior-most and is the one bumped.

SEE ALSO:
  - accrual.go: the balance check re-invoked per submission
  - policy.go: LockedForBumping and MoreSenior
*/
package leave

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Arbitration constants.
const (
	// SlotCapacity is the number of Approved requests a (date, shift)
	// slot holds.
	SlotCapacity = 2

	// AutoApproveLeadDays is the minimum lead time, in whole days, for a
	// request to qualify for automatic approval.
	AutoApproveLeadDays = 30

	// MaxAdvanceMonths bounds how far ahead leave may be requested.
	MaxAdvanceMonths = 6
)

// Decision is the outcome of a submission. Message is rendered to the
// employee verbatim.
type Decision struct {
	Request         Request
	Status          RequestStatus
	BumpedRequestID string
	Message         string
}

// Arbiter runs the submission and approval procedures against a store.
type Arbiter struct {
	Store TxStore

	// Now supplies the current instant; nil means time.Now. Tests pin it.
	Now func() time.Time

	mu    sync.Mutex
	slots map[slotKey]*sync.Mutex
}

type slotKey struct {
	date  Date
	shift Shift
}

func NewArbiter(store TxStore) *Arbiter {
	return &Arbiter{Store: store}
}

func (a *Arbiter) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// slotLock returns the mutex serializing arbitration for one slot.
func (a *Arbiter) slotLock(date Date, shift Shift) *sync.Mutex {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.slots == nil {
		a.slots = make(map[slotKey]*sync.Mutex)
	}
	k := slotKey{date: date, shift: shift}
	lock, ok := a.slots[k]
	if !ok {
		lock = &sync.Mutex{}
		a.slots[k] = lock
	}
	return lock
}

// =============================================================================
// SUBMISSION
// =============================================================================

// Submit arbitrates a new leave request for the employee. Validation
// failures return a *ValidationError and leave the store untouched.
func (a *Arbiter) Submit(ctx context.Context, emp Employee, date Date, shift Shift, leaveType LeaveType) (*Decision, error) {
	if !shift.Valid() {
		return nil, validationErr("invalid_shift", fmt.Sprintf("unknown shift block %q", shift), ErrInvalidShift)
	}
	if leaveType != LeaveVacation && leaveType != LeaveSick {
		return nil, validationErr("invalid_type",
			"only Vacation and Sick may be requested; the holiday pool is drawn down automatically", ErrInvalidLeaveType)
	}

	lock := a.slotLock(date, shift)
	lock.Lock()
	defer lock.Unlock()

	now := a.now()
	today := DateOf(now)

	// Exactly 6 months out is allowed, beyond is not.
	if date.After(today.AddMonths(MaxAdvanceMonths)) {
		return nil, validationErr("too_far_in_advance",
			"leave may be requested at most 6 months in advance", ErrTooFarInAdvance)
	}

	requests, err := a.Store.ListRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("load requests: %w", err)
	}

	for _, r := range requests {
		if r.EmployeeID == emp.ID && r.Status == StatusApproved && r.Date.Equal(date) {
			return nil, validationErr("duplicate_day",
				fmt.Sprintf("leave on %s is already approved", date), ErrDuplicateDay)
		}
	}

	// Currently-earned balance only; future accrual between submission and
	// the leave date is deliberately not projected.
	bal := ComputeBalances(emp, requests, today)
	switch leaveType {
	case LeaveSick:
		if !bal.Sick.IsPositive() {
			return nil, validationErr("insufficient_balance",
				"insufficient sick balance", ErrInsufficientBalance)
		}
	case LeaveVacation:
		if !bal.Vacation.Add(bal.Holiday).IsPositive() {
			return nil, validationErr("insufficient_balance",
				"insufficient vacation/holiday balance to cover this request", ErrInsufficientBalance)
		}
	}

	diffDays := wholeDaysUntil(now, date)

	if diffDays < AutoApproveLeadDays {
		req := a.newRequest(emp, date, shift, leaveType, StatusPending, now)
		if err := a.Store.PutRequest(ctx, req); err != nil {
			return nil, fmt.Errorf("persist request: %w", err)
		}
		return &Decision{
			Request: req,
			Status:  StatusPending,
			Message: "Request submitted for supervisor approval (within 30-day window).",
		}, nil
	}

	var occupants []Request
	for _, r := range requests {
		if r.Date.Equal(date) && r.Shift == shift && r.Status == StatusApproved {
			occupants = append(occupants, r)
		}
	}

	if len(occupants) < SlotCapacity {
		req := a.newRequest(emp, date, shift, leaveType, StatusApproved, now)
		if err := a.Store.PutRequest(ctx, req); err != nil {
			return nil, fmt.Errorf("persist request: %w", err)
		}
		return &Decision{
			Request: req,
			Status:  StatusApproved,
			Message: "Request automatically approved based on shift availability.",
		}, nil
	}

	if !LockedForBumping(date, today) {
		junior, owner, err := a.juniorMostOccupant(ctx, occupants)
		if err != nil {
			return nil, err
		}
		if MoreSenior(emp, owner) {
			req := a.newRequest(emp, date, shift, leaveType, StatusApproved, now)
			bumped := junior
			bumped.Status = StatusBumped

			// New request and bump commit together or not at all.
			err := a.Store.WithTx(ctx, func(s Store) error {
				if err := s.PutRequest(ctx, req); err != nil {
					return err
				}
				return s.PutRequest(ctx, bumped)
			})
			if err != nil {
				return nil, fmt.Errorf("commit bump: %w", err)
			}
			return &Decision{
				Request:         req,
				Status:          StatusApproved,
				BumpedRequestID: junior.ID,
				Message:         "Request approved. A more junior employee's approved leave was bumped.",
			}, nil
		}
	}

	// Slot full and no bump available: a normal outcome, the request
	// joins the supervisor queue.
	req := a.newRequest(emp, date, shift, leaveType, StatusPending, now)
	if err := a.Store.PutRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("persist request: %w", err)
	}
	return &Decision{
		Request: req,
		Status:  StatusPending,
		Message: "Shift slot is full; request submitted for supervisor review.",
	}, nil
}

// juniorMostOccupant resolves each occupant's owner and returns the
// occupant ranked most junior, with its owning employee.
func (a *Arbiter) juniorMostOccupant(ctx context.Context, occupants []Request) (Request, Employee, error) {
	var (
		junior      Request
		juniorOwner Employee
	)
	for i, r := range occupants {
		owner, err := a.Store.GetEmployee(ctx, r.EmployeeID)
		if err != nil {
			return Request{}, Employee{}, fmt.Errorf("load occupant %s: %w", r.EmployeeID, err)
		}
		if owner == nil {
			return Request{}, Employee{}, fmt.Errorf("occupant %s: %w", r.EmployeeID, ErrEmployeeNotFound)
		}
		if i == 0 || MoreSenior(juniorOwner, *owner) {
			junior, juniorOwner = r, *owner
		}
	}
	return junior, juniorOwner, nil
}

func (a *Arbiter) newRequest(emp Employee, date Date, shift Shift, leaveType LeaveType, status RequestStatus, now time.Time) Request {
	return Request{
		ID:          uuid.NewString(),
		EmployeeID:  emp.ID,
		Date:        date,
		Shift:       shift,
		Type:        leaveType,
		Status:      status,
		SubmittedAt: now,
	}
}

// wholeDaysUntil returns the ceiling of the span from an instant to
// midnight of the target date, in days.
func wholeDaysUntil(now time.Time, date Date) int {
	return int(math.Ceil(date.Time().Sub(now).Hours() / 24))
}

// =============================================================================
// SUPERVISOR PROCESSING
// =============================================================================

// Process applies a supervisor's decision to a pending request. Approving
// re-checks the one-approved-request-per-day invariant; the processor is
// recorded on the request.
func (a *Arbiter) Process(ctx context.Context, requestID string, approve bool, processor Employee) (*Request, error) {
	if !processor.AdminLevel.CanApprove() {
		return nil, ErrNotAuthorized
	}

	req, err := a.Store.GetRequest(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("load request: %w", err)
	}
	if req == nil {
		return nil, ErrRequestNotFound
	}
	if req.Status != StatusPending {
		return nil, fmt.Errorf("request %s has status %s: %w", requestID, req.Status, ErrNotPending)
	}

	if approve {
		lock := a.slotLock(req.Date, req.Shift)
		lock.Lock()
		defer lock.Unlock()

		requests, err := a.Store.ListRequests(ctx)
		if err != nil {
			return nil, fmt.Errorf("load requests: %w", err)
		}
		for _, r := range requests {
			if r.EmployeeID == req.EmployeeID && r.Status == StatusApproved && r.Date.Equal(req.Date) {
				return nil, validationErr("duplicate_day",
					fmt.Sprintf("employee already has approved leave on %s", req.Date), ErrDuplicateDay)
			}
		}
		req.Status = StatusApproved
	} else {
		req.Status = StatusDenied
	}
	req.ProcessedBy = processor.ID

	if err := a.Store.PutRequest(ctx, *req); err != nil {
		return nil, fmt.Errorf("persist decision: %w", err)
	}
	return req, nil
}
