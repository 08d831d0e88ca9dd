/*
policy.go - Seniority ranking and leave-window policy

PURPOSE:
  Two small pieces of policy that arbitration consults:

  Seniority: employees rank strictly by hire date, earlier hire = more
  senior. Two employees hired the same day tie-break on ascending
  employee ID so that every comparison the engine makes is deterministic.

  Leave windows: the calendar year splits into two fixed half-year
  windows, Jan 1-Jun 30 and Jul 1-Dec 31. Seniority bumping for a date
  freezes on the first day of the month before that date's window opens
  (Dec 1 for the spring window, Jun 1 for the fall window); the boundary
  day itself counts as locked.

SEE ALSO:
  - arbitration.go: the only consumer of these rules
*/
package leave

import (
	"fmt"
	"time"
)

// =============================================================================
// SENIORITY
// =============================================================================

// MoreSenior reports whether a outranks b for bump arbitration. Earlier
// hire wins; identical hire dates fall back to ascending employee ID.
func MoreSenior(a, b Employee) bool {
	if !a.HireDate.Equal(b.HireDate) {
		return a.HireDate.Before(b.HireDate)
	}
	return a.ID < b.ID
}

// =============================================================================
// LEAVE WINDOWS
// =============================================================================

// Window is one of the two half-year leave periods.
type Window struct {
	Start Date
	End   Date
	Label string
}

// WindowFor returns the half-year window containing the date.
func WindowFor(d Date) Window {
	year := d.Year()
	if d.Month() < time.July {
		return Window{
			Start: NewDate(year, time.January, 1),
			End:   NewDate(year, time.June, 30),
			Label: fmt.Sprintf("Jan-Jun %d", year),
		}
	}
	return Window{
		Start: NewDate(year, time.July, 1),
		End:   NewDate(year, time.December, 31),
		Label: fmt.Sprintf("Jul-Dec %d", year),
	}
}

// LockedForBumping reports whether seniority bumps are frozen for a leave
// date. The lock starts on the first day of the month immediately before
// the date's window opens, inclusive.
func LockedForBumping(requestDate, now Date) bool {
	lockStart := WindowFor(requestDate).Start.AddMonths(-1)
	return now.AfterOrEqual(lockStart)
}
