package powersource

import (
	"os/exec"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"howett.net/plist"

	"github.com/battind/battind/pkg/utils/ptr"
)

const (
	ioregPath = "/usr/sbin/ioreg"
	// ioregTimeUnknown is what the smart battery reports while it is still
	// calculating an estimate.
	ioregTimeUnknown = 65535
)

// IOReg reads the AppleSmartBattery registry entries on macOS by decoding
// the plist output of ioreg.
type IOReg struct {
	run func() ([]byte, error)
}

// NewIOReg returns an IOReg reader that runs the system ioreg binary.
func NewIOReg() *IOReg {
	return &IOReg{run: runIOReg}
}

func runIOReg() ([]byte, error) {
	out, err := exec.Command(ioregPath, "-r", "-a", "-c", "AppleSmartBattery").Output()
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to run %s", ioregPath)
	}
	return out, nil
}

// Read returns one record per AppleSmartBattery entry.
func (r *IOReg) Read() ([]Record, error) {
	out, err := r.run()
	if err != nil {
		return nil, err
	}
	return parseIORegOutput(out)
}

func parseIORegOutput(out []byte) ([]Record, error) {
	// No battery (e.g. desktop Macs) prints nothing at all.
	if len(out) == 0 {
		return nil, nil
	}

	var entries []map[string]interface{}
	if _, err := plist.Unmarshal(out, &entries); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to decode ioreg output")
	}

	records := make([]Record, 0, len(entries))
	for _, e := range entries {
		records = append(records, recordFromIOReg(e))
	}
	return records, nil
}

func recordFromIOReg(e map[string]interface{}) Record {
	var r Record

	// Apple Silicon reports CurrentCapacity/MaxCapacity as percentages, with
	// the mAh values under the AppleRaw keys. Prefer mAh so that health
	// against DesignCapacity is meaningful.
	current, currentOK := intField(e, "AppleRawCurrentCapacity")
	full, fullOK := intField(e, "AppleRawMaxCapacity")
	if !currentOK || !fullOK {
		current, currentOK = intField(e, "CurrentCapacity")
		full, fullOK = intField(e, "MaxCapacity")
	}
	if currentOK {
		r.CurrentCapacity = ptr.To(current)
	}
	if fullOK {
		r.MaxCapacity = ptr.To(full)
	}

	if v, ok := e["IsCharging"].(bool); ok {
		r.IsCharging = ptr.To(v)
	}

	external, externalOK := e["ExternalConnected"].(bool)
	if externalOK {
		if external {
			r.PowerSourceState = ptr.To(ACPower)
		} else {
			r.PowerSourceState = ptr.To(BatteryPower)
		}
	}

	if v, ok := intField(e, "AvgTimeToEmpty"); ok {
		if v == ioregTimeUnknown || (externalOK && external) {
			v = TimeUnknown
		}
		r.TimeToEmpty = ptr.To(v)
	}

	if v, ok := intField(e, "DesignCapacity"); ok {
		r.DesignCapacity = ptr.To(v)
	}

	logrus.WithField("record", r).Trace("read ioreg battery entry")

	return r
}

// intField returns the integer stored under key. Values of any other type
// are treated as absent.
func intField(e map[string]interface{}, key string) (int, bool) {
	switch v := e[key].(type) {
	case uint64:
		return int(v), true
	case int64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}
