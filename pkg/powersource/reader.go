package powersource

import (
	"runtime"

	pkgerrors "github.com/pkg/errors"
)

// Reader reads the current power source records of the host.
//
// An error means nothing could be read at all. Callers are expected to
// treat it the same as an empty result.
type Reader interface {
	Read() ([]Record, error)
}

// ReaderFunc adapts a plain function to a Reader.
type ReaderFunc func() ([]Record, error)

// Read calls f.
func (f ReaderFunc) Read() ([]Record, error) {
	return f()
}

// Static is a Reader that always returns the same records.
type Static []Record

// Read returns a copy of the records.
func (s Static) Read() ([]Record, error) {
	out := make([]Record, len(s))
	copy(out, s)
	return out, nil
}

const (
	KindAuto   = "auto"
	KindSystem = "system"
	KindIOReg  = "ioreg"
)

// Kinds lists every reader kind accepted by New.
var Kinds = []string{KindAuto, KindSystem, KindIOReg}

// New returns the reader of the given kind. "auto" picks ioreg on macOS
// and the cross-platform system reader elsewhere.
func New(kind string) (Reader, error) {
	switch kind {
	case KindAuto, "":
		if runtime.GOOS == "darwin" {
			return NewIOReg(), nil
		}
		return NewSystem(), nil
	case KindSystem:
		return NewSystem(), nil
	case KindIOReg:
		return NewIOReg(), nil
	default:
		return nil, pkgerrors.Errorf("unknown power source %q, must be one of %v", kind, Kinds)
	}
}
