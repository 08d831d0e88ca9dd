/*
accrual.go - Day-by-day balance simulation

PURPOSE:
  Computes an employee's vacation/sick/holiday pools by replaying every
  calendar day from hire date to the as-of date. The replay is the only
  way to enforce the June 30th vacation cap historically: the cap forfeits
  whatever was above 30 units on that exact day, so the order in which
  accruals, holidays and consumption landed matters.

PER-DAY ORDER (fixed):
  1. Monthly accrual on the 1st: sick +1.0; vacation by tenure tier
     (<1y: +0.5, 1..<10y: +1.0, >=10y: +1.5)
  2. Holiday accrual: +1 on an exact federal-holiday match
  3. Consumption of the day's Approved request, if any:
     sick -1, or vacation consuming the holiday pool first
  4. June 30th: vacation clamped to 30 (excess forfeited, not carried)

  Running totals are signed and may dip negative mid-simulation (later
  accrual recovers them); the zero floor is applied once, to the final
  result only.

PURITY:
  ComputeBalances has no side effects and is deterministic for fixed
  inputs. Callers must re-invoke it after any request-set mutation.

SEE ALSO:
  - holidays.go: the federal holiday table
  - arbitration.go: re-invokes the balance check before deciding a request
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxVacation is the vacation pool cap applied every June 30th.
var MaxVacation = decimal.NewFromInt(30)

var (
	accrualFirstYear = decimal.RequireFromString("0.5")
	accrualStandard  = decimal.NewFromInt(1)
	accrualSenior    = decimal.RequireFromString("1.5")
	oneUnit          = decimal.NewFromInt(1)
)

// Tenure tier boundaries, in full years of service.
const (
	tenureStandardYears = 1
	tenureSeniorYears   = 10
)

// ComputeBalances simulates accrual from the employee's hire date through
// asOf inclusive. A hire date in the future yields zero balances.
func ComputeBalances(emp Employee, requests []Request, asOf Date) Balance {
	raw := simulate(emp, approvedByDay(emp.ID, requests), emp.HireDate, asOf, rawBalance{})
	return Balance{
		Vacation: floorZero(raw.vacation),
		Sick:     floorZero(raw.sick),
		Holiday:  floorZero(raw.holiday),
	}
}

// rawBalance carries the signed running totals of an in-progress
// simulation. Unlike Balance it has no zero floor.
type rawBalance struct {
	vacation decimal.Decimal
	sick     decimal.Decimal
	holiday  decimal.Decimal
}

// simulate replays days from..to inclusive on top of carried totals.
// Replaying contiguous ranges composes: hire..D followed by D+1..E equals
// hire..E.
func simulate(emp Employee, byDay map[Date]Request, from, to Date, bal rawBalance) rawBalance {
	for day := from; day.BeforeOrEqual(to); day = day.AddDays(1) {
		if day.Day() == 1 {
			switch tenure := yearsOfTenure(emp.HireDate, day); {
			case tenure < tenureStandardYears:
				bal.vacation = bal.vacation.Add(accrualFirstYear)
			case tenure < tenureSeniorYears:
				bal.vacation = bal.vacation.Add(accrualStandard)
			default:
				bal.vacation = bal.vacation.Add(accrualSenior)
			}
			bal.sick = bal.sick.Add(oneUnit)
		}

		if _, ok := FederalHolidayOn(day); ok {
			bal.holiday = bal.holiday.Add(oneUnit)
		}

		if req, ok := byDay[day]; ok {
			switch req.Type {
			case LeaveSick:
				bal.sick = bal.sick.Sub(oneUnit)
			case LeaveVacation:
				// Holiday pool drains before vacation.
				if bal.holiday.IsPositive() {
					bal.holiday = bal.holiday.Sub(oneUnit)
				} else {
					bal.vacation = bal.vacation.Sub(oneUnit)
				}
			}
		}

		if day.Month() == time.June && day.Day() == 30 && bal.vacation.GreaterThan(MaxVacation) {
			bal.vacation = MaxVacation
		}
	}
	return bal
}

// approvedByDay indexes the employee's Approved requests by calendar day.
// A valid request set holds at most one per day (arbitration enforces it).
func approvedByDay(employeeID string, requests []Request) map[Date]Request {
	byDay := make(map[Date]Request)
	for _, r := range requests {
		if r.EmployeeID == employeeID && r.Status == StatusApproved {
			byDay[r.Date] = r
		}
	}
	return byDay
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
