package powersource

const (
	// ACPower is the power source state reported while running on an external adapter.
	ACPower = "AC Power"
	// BatteryPower is the power source state reported while running on battery.
	BatteryPower = "Battery Power"
	// TimeUnknown is the time-to-empty value meaning the system has no estimate.
	TimeUnknown = -1
)

// Record is one raw reading from a power source, e.g. one battery or
// one adapter entry. Every field is optional: nil means the source did
// not report it (or reported something unusable).
type Record struct {
	// CurrentCapacity is the remaining capacity, in the unit of MaxCapacity.
	CurrentCapacity *int `json:"currentCapacity,omitempty"`
	// MaxCapacity is the full-charge capacity.
	MaxCapacity *int `json:"maxCapacity,omitempty"`
	// IsCharging reports whether the battery is currently charging.
	IsCharging *bool `json:"isCharging,omitempty"`
	// PowerSourceState is compared against ACPower to tell whether the
	// machine is plugged in.
	PowerSourceState *string `json:"powerSourceState,omitempty"`
	// TimeToEmpty is the estimated minutes until empty, or TimeUnknown.
	TimeToEmpty *int `json:"timeToEmpty,omitempty"`
	// DesignCapacity is the factory capacity, in the unit of MaxCapacity.
	DesignCapacity *int `json:"designCapacity,omitempty"`
}
