package order

import (
	"errors"
	"fmt"
	"time"

	"clinicalorders/internal/core/domain/model/kernel"
	"clinicalorders/internal/pkg/errs"
)

// DurationUnit is the unit a drug order's duration is expressed in.
type DurationUnit int

const (
	DurationUnitNone DurationUnit = iota
	DurationUnitMinutes
	DurationUnitHours
	DurationUnitDays
	DurationUnitWeeks
	DurationUnitMonths
	DurationUnitYears
	// DurationUnitDoses counts administrations; the span follows from the frequency.
	DurationUnitDoses
)

func getDurationUnitStrings() map[DurationUnit]string {
	return map[DurationUnit]string{
		DurationUnitNone:    "",
		DurationUnitMinutes: "MINUTES",
		DurationUnitHours:   "HOURS",
		DurationUnitDays:    "DAYS",
		DurationUnitWeeks:   "WEEKS",
		DurationUnitMonths:  "MONTHS",
		DurationUnitYears:   "YEARS",
		DurationUnitDoses:   "DOSES",
	}
}

func (u DurationUnit) String() string {
	return getDurationUnitStrings()[u]
}

func ParseDurationUnit(s string) (DurationUnit, error) {
	for u, str := range getDurationUnitStrings() {
		if str == s {
			return u, nil
		}
	}
	return DurationUnitNone, errs.NewValueIsInvalidErrorWithCause(
		"duration unit is invalid",
		fmt.Errorf("%q is not a valid duration unit", s),
	)
}

// Dosing holds the simple dosing instructions of a drug order.
type Dosing struct {
	dose            float64
	doseUnits       string
	frequencyPerDay float64
	duration        int
	durationUnit    DurationUnit
}

// NewDosing validates a set of dosing instructions. A duration needs a unit, and a
// duration counted in doses needs a positive frequency.
func NewDosing(dose float64, doseUnits string, frequencyPerDay float64, duration int, unit DurationUnit) (Dosing, error) {
	d := Dosing{
		dose:            dose,
		doseUnits:       doseUnits,
		frequencyPerDay: frequencyPerDay,
		duration:        duration,
		durationUnit:    unit,
	}
	if err := d.validate(); err != nil {
		return Dosing{}, err
	}
	return d, nil
}

func (d Dosing) validate() error {
	var errList []error
	if d.dose < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("dose", d.dose, 0, "unbounded"))
	}
	if d.frequencyPerDay < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("frequencyPerDay", d.frequencyPerDay, 0, "unbounded"))
	}
	if d.duration < 0 {
		errList = append(errList, errs.NewValueIsOutOfRangeError("duration", d.duration, 0, "unbounded"))
	}
	if _, ok := getDurationUnitStrings()[d.durationUnit]; !ok {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause(
			"duration unit is invalid", fmt.Errorf("%d is not a valid duration unit", d.durationUnit)))
	}
	if d.duration > 0 && d.durationUnit == DurationUnitNone {
		errList = append(errList, errs.NewValueIsRequiredError("durationUnit"))
	}
	if d.durationUnit == DurationUnitDoses && d.frequencyPerDay <= 0 {
		errList = append(errList, errs.NewValueIsInvalidErrorWithCause(
			"frequencyPerDay", errors.New("a duration in doses needs a positive frequency")))
	}
	return errors.Join(errList...)
}

func (d Dosing) Dose() float64 {
	return d.dose
}

func (d Dosing) DoseUnits() string {
	return d.doseUnits
}

func (d Dosing) FrequencyPerDay() float64 {
	return d.frequencyPerDay
}

func (d Dosing) Duration() int {
	return d.duration
}

func (d Dosing) DurationUnit() DurationUnit {
	return d.durationUnit
}

// HasDuration reports whether an auto-expire date can be derived.
func (d Dosing) HasDuration() bool {
	return d.duration > 0 && d.durationUnit != DurationUnitNone
}

// AutoExpireDate is the last instant the course covers: activated + duration - 1s.
// It returns nil when the instructions carry no duration.
func (d Dosing) AutoExpireDate(activated time.Time) *time.Time {
	if !d.HasDuration() {
		return nil
	}

	var end time.Time
	switch d.durationUnit {
	case DurationUnitMinutes:
		end = activated.Add(time.Duration(d.duration) * time.Minute)
	case DurationUnitHours:
		end = activated.Add(time.Duration(d.duration) * time.Hour)
	case DurationUnitDays:
		end = activated.AddDate(0, 0, d.duration)
	case DurationUnitWeeks:
		end = activated.AddDate(0, 0, 7*d.duration)
	case DurationUnitMonths:
		end = activated.AddDate(0, d.duration, 0)
	case DurationUnitYears:
		end = activated.AddDate(d.duration, 0, 0)
	case DurationUnitDoses:
		days := float64(d.duration) / d.frequencyPerDay
		end = activated.Add(time.Duration(days * float64(24*time.Hour)))
	case DurationUnitNone:
		return nil
	}

	expire := kernel.MomentBefore(end)
	return &expire
}
