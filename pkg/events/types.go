package events

import (
	"encoding/json"

	"github.com/battind/battind/pkg/status"
)

// Event name constants
const (
	SnapshotUpdated = "battery.snapshot"
)

// Event is one server-sent event of the status API.
type Event struct {
	Name string
	Data json.RawMessage
}

// SnapshotEvent is the typed payload for battery.snapshot.
type SnapshotEvent struct {
	status.Snapshot
}

// DecodeAs unmarshals the payload of e into T, regardless of e.Name.
// Empty data yields the zero T.
func DecodeAs[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
