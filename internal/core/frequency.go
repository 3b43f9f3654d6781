package core

import (
	"fmt"
	"time"
)

// Stepper is the strategy interface for advancing a date by one period.
type Stepper interface {
	// Step returns the next occurrence strictly after d.
	Step(d time.Time) time.Time
}

// DailyStepper advances by exactly one day.
type DailyStepper struct{}

func (DailyStepper) Step(d time.Time) time.Time { return d.AddDate(0, 0, 1) }

// WeeklyStepper advances by exactly seven days.
type WeeklyStepper struct{}

func (WeeklyStepper) Step(d time.Time) time.Time { return d.AddDate(0, 0, 7) }

// BiweeklyStepper advances by exactly fourteen days.
type BiweeklyStepper struct{}

func (BiweeklyStepper) Step(d time.Time) time.Time { return d.AddDate(0, 0, 14) }

// MonthlyStepper advances to the same day-of-month in the next month,
// clamped to the last valid day when the target month is shorter.
type MonthlyStepper struct{}

func (MonthlyStepper) Step(d time.Time) time.Time { return addMonthsClamped(d, 1) }

// QuarterlyStepper advances three calendar months with the same clamping.
type QuarterlyStepper struct{}

func (QuarterlyStepper) Step(d time.Time) time.Time { return addMonthsClamped(d, 3) }

// YearlyStepper advances one year; Feb 29 clamps to Feb 28 in non-leap years.
type YearlyStepper struct{}

func (YearlyStepper) Step(d time.Time) time.Time { return addMonthsClamped(d, 12) }

// addMonthsClamped moves d forward by the given number of months without the
// overflow behavior of time.AddDate (Jan 31 + 1 month must be Feb 28/29, not
// Mar 2/3). Day-of-month is clamped to the target month's length; clock
// components and location are preserved.
func addMonthsClamped(d time.Time, months int) time.Time {
	year, month, day := d.Date()
	m := int(month) + months
	year += (m - 1) / 12
	m = (m-1)%12 + 1

	if last := lastDayOfMonth(year, time.Month(m)); day > last {
		day = last
	}
	h, min, sec := d.Clock()
	return time.Date(year, time.Month(m), day, h, min, sec, d.Nanosecond(), d.Location())
}

func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// frequencySteppers maps each frequency to its calendar rule.
var frequencySteppers = map[Frequency]Stepper{
	Daily:     DailyStepper{},
	Weekly:    WeeklyStepper{},
	Biweekly:  BiweeklyStepper{},
	Monthly:   MonthlyStepper{},
	Quarterly: QuarterlyStepper{},
	Yearly:    YearlyStepper{},
}

// GetStepper returns the stepper for a frequency, or ErrInvalidFrequency
// wrapped with the offending value.
func GetStepper(f Frequency) (Stepper, error) {
	s, ok := frequencySteppers[f]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFrequency, f)
	}
	return s, nil
}

// RegisterStepper registers a custom stepper for a frequency.
func RegisterStepper(f Frequency, s Stepper) {
	frequencySteppers[f] = s
}

// NextOccurrence returns the occurrence that follows date under the given
// frequency. It is pure and deterministic; the result is always strictly
// after date.
func NextOccurrence(date time.Time, f Frequency) (time.Time, error) {
	s, err := GetStepper(f)
	if err != nil {
		return time.Time{}, err
	}
	return s.Step(date), nil
}
