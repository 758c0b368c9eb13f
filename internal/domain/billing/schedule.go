package billing

import (
	"time"
)

// Billing-period date arithmetic. All functions are pure: date-only values
// are expected at midnight, period ends are full datetimes. Month arithmetic
// always clamps day-of-month to the target month's length, so a period
// anchored on Jan 31 ends in Feb 28 (or Feb 29 in a leap year).

// PeriodEndOptions configures PeriodEnd.
type PeriodEndOptions struct {
	// Periods is the number of billing periods; values below 1 are treated as 1
	Periods int
	// End truncates the computed period end when it would extend past it
	End *time.Time
	// AlignToCalendar snaps the result to the natural unit boundary:
	// end-of-day for DAILY, end of week (Sunday) for WEEKLY, end of month for
	// MONTHLY, all at 23:59:59.999999999
	AlignToCalendar bool
}

// PeriodEndExtendedOptions configures PeriodEndExtended.
type PeriodEndExtendedOptions struct {
	PeriodEndOptions

	// MinDays extends the period count until the covered span reaches at
	// least this many days
	MinDays int
	// ExtendForPartial extends a period truncated mid-unit by End to the end
	// of the current week/month, provided at least half of that unit has
	// elapsed and the extension stays within the untruncated period end
	ExtendForPartial bool
}

// NewDOSTo computes the inclusive end date of a billing period starting at
// from. MONTHLY periods end the day before the same calendar day `periods`
// months later, with day-of-month clamped to the target month. The result is
// truncated to end when provided.
func NewDOSTo(from time.Time, frequency BillingFrequency, periods int, end *time.Time) time.Time {
	if periods < 1 {
		periods = 1
	}

	var to time.Time
	switch frequency {
	case FrequencyOneTime:
		to = from
	case FrequencyDaily:
		to = from.AddDate(0, 0, periods)
	case FrequencyWeekly:
		to = from.AddDate(0, 0, 7*periods)
	case FrequencyMonthly:
		to = monthlyPeriodEnd(from, periods)
	default:
		to = from
	}

	return clampDate(to, end)
}

// NextDOSFrom computes the start date of the next billing period following a
// period that ended on currentTo. The natural next start is currentTo plus
// gapDays; WEEKLY cadence then advances to the weekday the next period would
// start on with a one-day gap, and MONTHLY cadence re-anchors to that
// start's day-of-month clamped to 28 so every month can carry it.
func NextDOSFrom(currentTo time.Time, frequency BillingFrequency, gapDays int) time.Time {
	if gapDays < 1 {
		gapDays = 1
	}
	next := currentTo.AddDate(0, 0, gapDays)
	natural := currentTo.AddDate(0, 0, 1)

	switch frequency {
	case FrequencyWeekly:
		for next.Weekday() != natural.Weekday() {
			next = next.AddDate(0, 0, 1)
		}
	case FrequencyMonthly:
		day := natural.Day()
		if day > 28 {
			day = 28
		}
		candidate := time.Date(next.Year(), next.Month(), day,
			next.Hour(), next.Minute(), next.Second(), next.Nanosecond(), next.Location())
		if candidate.Before(next) {
			candidate = addMonthsClamped(candidate, 1)
		}
		next = candidate
	}
	return next
}

// NextDOSTo infers the period length used in [currentFrom, currentTo] and
// projects an equal-length period forward from currentTo, truncated to end.
func NextDOSTo(currentFrom, currentTo time.Time, frequency BillingFrequency, end *time.Time) time.Time {
	spanDays := daysBetween(currentFrom, currentTo) + 1
	if spanDays < 1 {
		spanDays = 1
	}

	var to time.Time
	switch frequency {
	case FrequencyDaily:
		to = currentTo.AddDate(0, 0, spanDays)
	case FrequencyWeekly:
		weeks := spanDays / 7
		if weeks < 1 {
			weeks = 1
		}
		to = currentTo.AddDate(0, 0, 7*weeks)
	case FrequencyMonthly:
		months := wholeMonthSpan(currentFrom, currentTo)
		to = monthlyPeriodEnd(currentTo.AddDate(0, 0, 1), months)
	default:
		to = currentTo
	}

	return clampDate(to, end)
}

// PeriodEnd computes the end of opts.Periods billing periods starting at
// start. Without calendar alignment the result preserves start's time of day
// and advances by periods-1 additional units beyond the first; ONE_TIME
// always ends at start.
func PeriodEnd(start time.Time, frequency BillingFrequency, opts PeriodEndOptions) time.Time {
	periods := opts.Periods
	if periods < 1 {
		periods = 1
	}

	end := advancePeriods(start, frequency, periods)
	if opts.AlignToCalendar {
		end = alignToUnitEnd(end, frequency)
	}

	if opts.End != nil && end.After(*opts.End) {
		if opts.AlignToCalendar {
			return endOfDay(*opts.End)
		}
		return *opts.End
	}
	return end
}

// PeriodEndExtended is PeriodEnd with a minimum-span requirement and optional
// partial-period extension. The result is always within [start, untruncated
// period end].
func PeriodEndExtended(start time.Time, frequency BillingFrequency, opts PeriodEndExtendedOptions) time.Time {
	periods := opts.Periods
	if periods < 1 {
		periods = 1
	}

	if opts.MinDays > 0 && frequency != FrequencyOneTime {
		for daysBetween(start, advancePeriods(start, frequency, periods))+1 < opts.MinDays {
			periods++
		}
	}

	untruncated := advancePeriods(start, frequency, periods)
	if opts.AlignToCalendar {
		untruncated = alignToUnitEnd(untruncated, frequency)
	}

	if opts.End == nil || !untruncated.After(*opts.End) {
		return untruncated
	}

	result := *opts.End
	if opts.AlignToCalendar {
		result = endOfDay(result)
	}

	if opts.ExtendForPartial {
		if ext, ok := partialExtension(*opts.End, frequency); ok {
			if ext.After(untruncated) {
				ext = untruncated
			}
			result = ext
		}
	}

	if result.After(untruncated) {
		result = untruncated
	}
	if result.Before(start) {
		result = start
	}
	return result
}

// advancePeriods moves start forward by periods-1 whole units; the first
// period ends where it starts.
func advancePeriods(start time.Time, frequency BillingFrequency, periods int) time.Time {
	switch frequency {
	case FrequencyDaily:
		return start.AddDate(0, 0, periods-1)
	case FrequencyWeekly:
		return start.AddDate(0, 0, 7*(periods-1))
	case FrequencyMonthly:
		return addMonthsClamped(start, periods-1)
	default:
		return start
	}
}

// alignToUnitEnd snaps t to the end of its calendar unit.
func alignToUnitEnd(t time.Time, frequency BillingFrequency) time.Time {
	switch frequency {
	case FrequencyWeekly:
		return endOfDay(t.AddDate(0, 0, daysUntilSunday(t)))
	case FrequencyMonthly:
		return endOfDay(lastDayOfMonth(t))
	case FrequencyDaily:
		return endOfDay(t)
	default:
		return t
	}
}

// partialExtension returns the end of the week/month containing cutoff when
// at least half of that unit has elapsed by cutoff.
func partialExtension(cutoff time.Time, frequency BillingFrequency) (time.Time, bool) {
	switch frequency {
	case FrequencyWeekly:
		// Monday-based index: Sunday closes the week
		elapsed := int(cutoff.Weekday())
		if elapsed == 0 {
			elapsed = 7
		}
		if elapsed*2 >= 7 {
			return endOfDay(cutoff.AddDate(0, 0, daysUntilSunday(cutoff))), true
		}
	case FrequencyMonthly:
		if cutoff.Day()*2 >= daysInMonth(cutoff.Year(), cutoff.Month(), cutoff.Location()) {
			return endOfDay(lastDayOfMonth(cutoff)), true
		}
	}
	return time.Time{}, false
}

// monthlyPeriodEnd returns the day before the same calendar day `months`
// months after from. The day is stepped back before clamping, so a period
// anchored on Jan 31 ends on Feb 28 rather than Feb 27.
func monthlyPeriodEnd(from time.Time, months int) time.Time {
	year, month, day := from.Date()
	total := int(month) - 1 + months
	year += total / 12
	rem := total % 12
	if rem < 0 {
		rem += 12
		year--
	}
	target := time.Month(rem + 1)

	day--
	if max := daysInMonth(year, target, from.Location()); day > max {
		day = max
	}
	// day 0 normalizes to the last day of the preceding month
	return time.Date(year, target, day,
		from.Hour(), from.Minute(), from.Second(), from.Nanosecond(), from.Location())
}

// addMonthsClamped advances t by the given number of calendar months,
// clamping day-of-month to the target month's length. time.AddDate is not
// used because it normalizes Jan 31 + 1 month into Mar 2/3.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	total := int(month) - 1 + months
	year += total / 12
	rem := total % 12
	if rem < 0 {
		rem += 12
		year--
	}
	targetMonth := time.Month(rem + 1)
	if max := daysInMonth(year, targetMonth, t.Location()); day > max {
		day = max
	}
	return time.Date(year, targetMonth, day,
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// daysBetween returns the whole calendar days from a to b, ignoring time of
// day. Negative when b precedes a.
func daysBetween(a, b time.Time) int {
	start := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours() / 24)
}

// wholeMonthSpan counts the whole months covered by the inclusive span
// [from, to] via day-of-month comparison; always at least 1.
func wholeMonthSpan(from, to time.Time) int {
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() >= from.Day() {
		months++
	}
	if months < 1 {
		months = 1
	}
	return months
}

func daysInMonth(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

func lastDayOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), daysInMonth(t.Year(), t.Month(), t.Location()),
		t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// daysUntilSunday returns how many days forward the next Sunday is, zero when
// t already falls on one.
func daysUntilSunday(t time.Time) int {
	return (7 - int(t.Weekday())) % 7
}

func clampDate(t time.Time, end *time.Time) time.Time {
	if end != nil && t.After(*end) {
		return *end
	}
	return t
}
