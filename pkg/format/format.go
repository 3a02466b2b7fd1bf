// Package format renders battery snapshots as a menu bar title and a
// detail block.
package format

import (
	"fmt"
	"strings"

	"github.com/battind/battind/pkg/batteryinfo"
)

// Glyphs prefixing the title and the power state.
const (
	BatteryGlyph  = "🔋"
	ChargingGlyph = "⚡"
	PluggedGlyph  = "🔌"
)

// Title returns the compact single-line status, e.g. "🔋 85% (2h5m)".
func Title(info batteryinfo.Info) string {
	var b strings.Builder

	b.WriteString(BatteryGlyph)
	if info.Percentage != nil {
		fmt.Fprintf(&b, " %.0f%%", *info.Percentage)
	}

	switch {
	case info.TimeRemaining != nil:
		if *info.TimeRemaining > 0 {
			b.WriteString(" (" + Duration(*info.TimeRemaining) + ")")
		} else if info.IsCharging {
			b.WriteString(" " + ChargingGlyph)
		}
		// A known but non-positive estimate while not charging shows
		// nothing; the plugged glyph is only used without an estimate.
	case info.IsCharging:
		b.WriteString(" " + ChargingGlyph)
	case info.IsPlugged:
		b.WriteString(" " + PluggedGlyph)
	}

	return b.String()
}

// Detail returns the multi-line description of info. Lines that have no
// data are left out; the status line is always present.
func Detail(info batteryinfo.Info) string {
	lines := make([]string, 0, 4)

	if info.Percentage != nil {
		lines = append(lines, fmt.Sprintf("Level: %.1f%%", *info.Percentage))
	}

	lines = append(lines, "Status: "+Status(info))

	if info.TimeRemaining != nil && *info.TimeRemaining > 0 {
		lines = append(lines, "Time Remaining: "+Duration(*info.TimeRemaining))
	}

	if info.BatteryHealth != nil {
		lines = append(lines, fmt.Sprintf("Health: %.1f%%", *info.BatteryHealth))
	}

	return strings.Join(lines, "\n")
}

// Status returns "Charging", "Plugged In" or "On Battery".
func Status(info batteryinfo.Info) string {
	switch {
	case info.IsCharging:
		return "Charging"
	case info.IsPlugged:
		return "Plugged In"
	default:
		return "On Battery"
	}
}

// Duration renders minutes as "HhMm" without padding, e.g. 125 -> "2h5m".
func Duration(minutes int) string {
	return fmt.Sprintf("%dh%dm", minutes/60, minutes%60)
}
