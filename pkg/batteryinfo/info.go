// Package batteryinfo reduces raw power source records into a single
// normalized battery snapshot.
package batteryinfo

import (
	"github.com/battind/battind/pkg/powersource"
	"github.com/battind/battind/pkg/utils/ptr"
)

// Info is a battery snapshot taken at one poll. Optional values are nil
// when unknown; an unknown value is never reported as zero.
type Info struct {
	// Percentage is the charge level, 100 * current / max capacity.
	Percentage *float64 `json:"percentage,omitempty"`
	// TimeRemaining is the estimated minutes until empty.
	TimeRemaining *int `json:"timeRemaining,omitempty"`
	IsCharging    bool `json:"isCharging"`
	IsPlugged     bool `json:"isPlugged"`

	CurrentCapacity *int `json:"currentCapacity,omitempty"`
	MaxCapacity     *int `json:"maxCapacity,omitempty"`
	// BatteryHealth is the full-charge capacity as a percentage of the
	// design capacity.
	BatteryHealth *float64 `json:"batteryHealth,omitempty"`
}

// Build reduces records into one Info. Each field is overwritten by the
// last record that supplies it. An empty input yields the zero Info.
//
// Percentage and health are derived while scanning, from the values known
// at that record, not from the final snapshot. The percentage needs both
// capacities in the same record, so a record that carries only
// MaxCapacity does not recompute it. Health needs MaxCapacity from this or
// an earlier record, so a design capacity seen first yields no health.
// Results can therefore depend on record order across multiple sources.
func Build(records []powersource.Record) Info {
	var info Info

	for _, r := range records {
		if r.CurrentCapacity != nil {
			info.CurrentCapacity = ptr.To(*r.CurrentCapacity)
		}
		if r.MaxCapacity != nil {
			info.MaxCapacity = ptr.To(*r.MaxCapacity)
		}
		if r.CurrentCapacity != nil && r.MaxCapacity != nil && *r.MaxCapacity != 0 {
			info.Percentage = ptr.To(100 * float64(*r.CurrentCapacity) / float64(*r.MaxCapacity))
		}

		if r.IsCharging != nil {
			info.IsCharging = *r.IsCharging
		}

		if r.PowerSourceState != nil {
			info.IsPlugged = *r.PowerSourceState == powersource.ACPower
		}

		if r.TimeToEmpty != nil && *r.TimeToEmpty != powersource.TimeUnknown {
			info.TimeRemaining = ptr.To(*r.TimeToEmpty)
		}

		if r.DesignCapacity != nil && info.MaxCapacity != nil && *r.DesignCapacity != 0 {
			info.BatteryHealth = ptr.To(100 * float64(*info.MaxCapacity) / float64(*r.DesignCapacity))
		}
	}

	return info
}
