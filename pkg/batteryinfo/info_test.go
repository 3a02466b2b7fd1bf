package batteryinfo

import (
	"reflect"
	"testing"

	"github.com/battind/battind/pkg/powersource"
	"github.com/battind/battind/pkg/utils/ptr"
)

func TestBuildEmpty(t *testing.T) {
	for _, records := range [][]powersource.Record{nil, {}, {{}}} {
		if got := Build(records); !reflect.DeepEqual(got, Info{}) {
			t.Errorf("Build(%v) = %+v, want zero Info", records, got)
		}
	}
}

func TestBuildPercentage(t *testing.T) {
	pairs := []struct{ current, max int }{
		{0, 100}, {50, 100}, {85, 100}, {100, 100}, {1, 3}, {2, 3}, {4321, 5103}, {5103, 5103}, {7, 6},
	}

	for _, p := range pairs {
		info := Build([]powersource.Record{{
			CurrentCapacity: ptr.To(p.current),
			MaxCapacity:     ptr.To(p.max),
		}})
		if info.Percentage == nil {
			t.Fatalf("Percentage absent for %d/%d", p.current, p.max)
		}
		want := 100 * float64(p.current) / float64(p.max)
		if *info.Percentage != want {
			t.Errorf("Percentage for %d/%d = %v, want %v", p.current, p.max, *info.Percentage, want)
		}
		if *info.CurrentCapacity != p.current || *info.MaxCapacity != p.max {
			t.Errorf("capacities = %d/%d, want %d/%d", *info.CurrentCapacity, *info.MaxCapacity, p.current, p.max)
		}
	}
}

func TestBuildZeroMaxCapacity(t *testing.T) {
	info := Build([]powersource.Record{{
		CurrentCapacity: ptr.To(10),
		MaxCapacity:     ptr.To(0),
		DesignCapacity:  ptr.To(0),
	}})
	if info.Percentage != nil {
		t.Errorf("Percentage = %v, want absent", *info.Percentage)
	}
	if info.BatteryHealth != nil {
		t.Errorf("BatteryHealth = %v, want absent", *info.BatteryHealth)
	}
}

func TestBuildTimeRemaining(t *testing.T) {
	tests := []struct {
		name        string
		timeToEmpty *int
		charging    *bool
		state       *string
		want        *int
	}{
		{name: "absent", want: nil},
		{name: "sentinel on battery", timeToEmpty: ptr.To(-1), charging: ptr.To(false), state: ptr.To(powersource.BatteryPower), want: nil},
		{name: "sentinel charging", timeToEmpty: ptr.To(-1), charging: ptr.To(true), state: ptr.To(powersource.ACPower), want: nil},
		{name: "sentinel plugged", timeToEmpty: ptr.To(-1), charging: ptr.To(false), state: ptr.To(powersource.ACPower), want: nil},
		{name: "sentinel unknown state", timeToEmpty: ptr.To(-1), want: nil},
		{name: "zero is kept", timeToEmpty: ptr.To(0), want: ptr.To(0)},
		{name: "estimate", timeToEmpty: ptr.To(125), charging: ptr.To(false), want: ptr.To(125)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Build([]powersource.Record{{
				TimeToEmpty:      tt.timeToEmpty,
				IsCharging:       tt.charging,
				PowerSourceState: tt.state,
			}})
			if !reflect.DeepEqual(info.TimeRemaining, tt.want) {
				t.Errorf("TimeRemaining = %v, want %v", info.TimeRemaining, tt.want)
			}
		})
	}
}

func TestBuildChargingAndPlugged(t *testing.T) {
	info := Build([]powersource.Record{{
		IsCharging:       ptr.To(true),
		PowerSourceState: ptr.To(powersource.ACPower),
	}})
	if !info.IsCharging || !info.IsPlugged {
		t.Errorf("got charging=%t plugged=%t, want both true", info.IsCharging, info.IsPlugged)
	}

	info = Build([]powersource.Record{{
		PowerSourceState: ptr.To(powersource.BatteryPower),
	}})
	if info.IsCharging || info.IsPlugged {
		t.Errorf("got charging=%t plugged=%t, want both false", info.IsCharging, info.IsPlugged)
	}
}

func TestBuildLastWriterWinsPerField(t *testing.T) {
	info := Build([]powersource.Record{
		{
			CurrentCapacity:  ptr.To(40),
			MaxCapacity:      ptr.To(80),
			IsCharging:       ptr.To(true),
			PowerSourceState: ptr.To(powersource.ACPower),
			TimeToEmpty:      ptr.To(90),
		},
		{
			// Only overrides charging; everything else is kept.
			IsCharging: ptr.To(false),
		},
		{
			PowerSourceState: ptr.To(powersource.BatteryPower),
			TimeToEmpty:      ptr.To(-1),
		},
	})

	if info.Percentage == nil || *info.Percentage != 50 {
		t.Errorf("Percentage = %v, want 50", info.Percentage)
	}
	if info.IsCharging {
		t.Errorf("IsCharging = true, want false from the second record")
	}
	if info.IsPlugged {
		t.Errorf("IsPlugged = true, want false from the third record")
	}
	if info.TimeRemaining == nil || *info.TimeRemaining != 90 {
		t.Errorf("TimeRemaining = %v, want 90 (sentinel must not erase it)", info.TimeRemaining)
	}
}

func TestBuildPercentageNeedsBothFieldsInOneRecord(t *testing.T) {
	info := Build([]powersource.Record{
		{MaxCapacity: ptr.To(100)},
		{CurrentCapacity: ptr.To(50)},
	})
	if info.Percentage != nil {
		t.Errorf("Percentage = %v, want absent", *info.Percentage)
	}
	if info.CurrentCapacity == nil || *info.CurrentCapacity != 50 {
		t.Errorf("CurrentCapacity = %v, want 50", info.CurrentCapacity)
	}
	if info.MaxCapacity == nil || *info.MaxCapacity != 100 {
		t.Errorf("MaxCapacity = %v, want 100", info.MaxCapacity)
	}

	// A later record with only MaxCapacity does not recompute the percentage.
	info = Build([]powersource.Record{
		{CurrentCapacity: ptr.To(50), MaxCapacity: ptr.To(100)},
		{MaxCapacity: ptr.To(200)},
	})
	if info.Percentage == nil || *info.Percentage != 50 {
		t.Errorf("Percentage = %v, want 50", info.Percentage)
	}
	if *info.MaxCapacity != 200 {
		t.Errorf("MaxCapacity = %d, want 200", *info.MaxCapacity)
	}
}

func TestBuildHealthOrdering(t *testing.T) {
	tests := []struct {
		name    string
		records []powersource.Record
		want    *float64
	}{
		{
			name:    "same record",
			records: []powersource.Record{{CurrentCapacity: ptr.To(4000), MaxCapacity: ptr.To(4500), DesignCapacity: ptr.To(5000)}},
			want:    ptr.To(90.0),
		},
		{
			name: "design after max",
			records: []powersource.Record{
				{MaxCapacity: ptr.To(4500)},
				{DesignCapacity: ptr.To(5000)},
			},
			want: ptr.To(90.0),
		},
		{
			name: "design before max",
			records: []powersource.Record{
				{DesignCapacity: ptr.To(5000)},
				{MaxCapacity: ptr.To(4500)},
			},
			want: nil,
		},
		{
			name:    "design without max",
			records: []powersource.Record{{DesignCapacity: ptr.To(5000)}},
			want:    nil,
		},
		{
			name: "health uses max known at that record",
			records: []powersource.Record{
				{MaxCapacity: ptr.To(4500), DesignCapacity: ptr.To(5000)},
				{MaxCapacity: ptr.To(2500)},
			},
			want: ptr.To(90.0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := Build(tt.records)
			if !reflect.DeepEqual(info.BatteryHealth, tt.want) {
				t.Errorf("BatteryHealth = %v, want %v", info.BatteryHealth, tt.want)
			}
		})
	}
}

func TestBuildIsPure(t *testing.T) {
	records := []powersource.Record{
		{CurrentCapacity: ptr.To(3650), MaxCapacity: ptr.To(4000), DesignCapacity: ptr.To(5000)},
		{IsCharging: ptr.To(true), PowerSourceState: ptr.To(powersource.ACPower), TimeToEmpty: ptr.To(-1)},
	}

	first := Build(records)
	second := Build(records)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("Build is not idempotent: %+v != %+v", first, second)
	}

	// The snapshot must not alias the input.
	*records[0].CurrentCapacity = 1
	if *first.CurrentCapacity != 3650 {
		t.Fatalf("snapshot changed after mutating input")
	}
}
