package powersource

import (
	"math"

	"github.com/distatus/battery"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/battind/battind/pkg/utils/ptr"
)

// System reads batteries through the cross-platform distatus/battery
// package. Capacities are reported in mWh.
type System struct {
	getAll func() ([]*battery.Battery, error)
}

// NewSystem returns a System reader backed by battery.GetAll.
func NewSystem() *System {
	return &System{getAll: battery.GetAll}
}

// Read returns one record per battery found.
func (s *System) Read() ([]Record, error) {
	batteries, err := s.getAll()
	if err != nil {
		if len(batteries) == 0 {
			return nil, pkgerrors.Wrapf(err, "failed to get batteries")
		}
		// Some batteries could still be (partially) read.
		logrus.WithError(err).Debug("partial error while reading batteries")
	}

	records := make([]Record, 0, len(batteries))
	for _, bat := range batteries {
		if bat == nil {
			continue
		}
		records = append(records, recordFromBattery(bat))
	}

	return records, nil
}

func recordFromBattery(bat *battery.Battery) Record {
	logrus.WithFields(logrus.Fields{
		"state":      bat.State,
		"current":    bat.Current,
		"full":       bat.Full,
		"design":     bat.Design,
		"chargeRate": bat.ChargeRate,
	}).Trace("read battery")

	var r Record

	if bat.Full > 0 {
		r.CurrentCapacity = ptr.To(int(math.Round(bat.Current)))
		r.MaxCapacity = ptr.To(int(math.Round(bat.Full)))
	}
	if bat.Design > 0 {
		r.DesignCapacity = ptr.To(int(math.Round(bat.Design)))
	}

	switch bat.State {
	case battery.Charging:
		r.IsCharging = ptr.To(true)
		r.PowerSourceState = ptr.To(ACPower)
		r.TimeToEmpty = ptr.To(TimeUnknown)
	case battery.Full:
		r.IsCharging = ptr.To(false)
		r.PowerSourceState = ptr.To(ACPower)
		r.TimeToEmpty = ptr.To(TimeUnknown)
	case battery.Discharging, battery.Empty:
		r.IsCharging = ptr.To(false)
		r.PowerSourceState = ptr.To(BatteryPower)
		r.TimeToEmpty = ptr.To(timeToEmpty(bat))
	default:
		// Unknown state: the OS could not tell, leave charging and
		// plugged fields out.
	}

	return r
}

// timeToEmpty estimates the minutes left from the current discharge rate.
func timeToEmpty(bat *battery.Battery) int {
	rate := math.Abs(bat.ChargeRate)
	if rate == 0 || bat.Current <= 0 {
		return TimeUnknown
	}
	return int(bat.Current / rate * 60)
}
