package leave

import "time"

// =============================================================================
// FEDERAL HOLIDAY TABLE - Exact-date matched, year-specific
// =============================================================================

// Holiday is one observed federal holiday. The table lists concrete
// calendar dates, not recurrence rules: a simulated day accrues a holiday
// unit only on an exact match. Days in years the table does not cover
// accrue nothing, which is a known limitation, not something to patch by
// extrapolating month/day pairs into other years.
type Holiday struct {
	Date Date
	Name string
}

// FederalHolidays lists the observed dates for the covered years, in
// calendar order. Extend by appending further years.
var FederalHolidays = []Holiday{
	{NewDate(2024, time.January, 1), "New Year's Day"},
	{NewDate(2024, time.January, 15), "Martin Luther King Jr. Day"},
	{NewDate(2024, time.February, 19), "Washington's Birthday"},
	{NewDate(2024, time.May, 27), "Memorial Day"},
	{NewDate(2024, time.June, 19), "Juneteenth"},
	{NewDate(2024, time.July, 4), "Independence Day"},
	{NewDate(2024, time.September, 2), "Labor Day"},
	{NewDate(2024, time.October, 14), "Columbus Day"},
	{NewDate(2024, time.November, 11), "Veterans Day"},
	{NewDate(2024, time.November, 28), "Thanksgiving Day"},
	{NewDate(2024, time.December, 25), "Christmas Day"},
	{NewDate(2025, time.January, 1), "New Year's Day"},
	{NewDate(2025, time.January, 20), "Martin Luther King Jr. Day"},
	{NewDate(2025, time.February, 17), "Washington's Birthday"},
	{NewDate(2025, time.May, 26), "Memorial Day"},
	{NewDate(2025, time.June, 19), "Juneteenth"},
	{NewDate(2025, time.July, 4), "Independence Day"},
	{NewDate(2025, time.September, 1), "Labor Day"},
	{NewDate(2025, time.October, 13), "Columbus Day"},
	{NewDate(2025, time.November, 11), "Veterans Day"},
	{NewDate(2025, time.November, 27), "Thanksgiving Day"},
	{NewDate(2025, time.December, 25), "Christmas Day"},
}

var holidaysByDate = func() map[Date]string {
	m := make(map[Date]string, len(FederalHolidays))
	for _, h := range FederalHolidays {
		m[h.Date] = h.Name
	}
	return m
}()

// FederalHolidayOn returns the holiday name for an exact date match.
func FederalHolidayOn(d Date) (string, bool) {
	name, ok := holidaysByDate[d]
	return name, ok
}
