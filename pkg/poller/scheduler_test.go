package poller

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/battind/battind/pkg/format"
	"github.com/battind/battind/pkg/powersource"
	"github.com/battind/battind/pkg/utils/ptr"
)

type delivery struct {
	title  string
	detail string
}

func newChanSink() (Sink, chan delivery) {
	ch := make(chan delivery, 16)
	return SinkFunc(func(title, detail string) {
		ch <- delivery{title: title, detail: detail}
	}), ch
}

func expectDelivery(t *testing.T, ch chan delivery) delivery {
	t.Helper()
	select {
	case d := <-ch:
		return d
	case <-time.After(2 * time.Second):
		t.Fatalf("expected a delivery")
		return delivery{}
	}
}

func expectNoDelivery(t *testing.T, ch chan delivery) {
	t.Helper()
	select {
	case d := <-ch:
		t.Fatalf("unexpected delivery: %+v", d)
	case <-time.After(100 * time.Millisecond):
	}
}

// newFakeClock starts off a whole second so truncation bugs show up.
func newFakeClock() clockwork.FakeClock {
	return clockwork.NewFakeClockAt(time.Date(2024, time.March, 1, 12, 0, 0, 900_000_000, time.UTC))
}

var discharging = powersource.Static{{
	CurrentCapacity:  ptr.To(85),
	MaxCapacity:      ptr.To(100),
	IsCharging:       ptr.To(false),
	PowerSourceState: ptr.To(powersource.BatteryPower),
	TimeToEmpty:      ptr.To(125),
}}

func TestSchedulerStartDeliversOnce(t *testing.T) {
	fc := newFakeClock()
	sink, ch := newChanSink()
	s := NewScheduler(discharging, sink, WithClock(fc))

	if s.State() != Idle {
		t.Fatalf("new scheduler state = %s, want Idle", s.State())
	}

	s.Start()
	defer s.Stop()

	if s.State() != Running {
		t.Fatalf("state after Start = %s, want Running", s.State())
	}

	// The first cycle happens synchronously in Start.
	select {
	case d := <-ch:
		if d.title != "🔋 85% (2h5m)" {
			t.Errorf("title = %q", d.title)
		}
		if d.detail != "Level: 85.0%\nStatus: On Battery\nTime Remaining: 2h5m" {
			t.Errorf("detail = %q", d.detail)
		}
	default:
		t.Fatalf("Start did not deliver synchronously")
	}

	fc.BlockUntil(1)
	fc.Advance(Interval - time.Second)
	expectNoDelivery(t, ch)

	fc.Advance(time.Second)
	expectDelivery(t, ch)

	fc.BlockUntil(1)
	fc.Advance(Interval)
	expectDelivery(t, ch)
}

func TestSchedulerKeepsFullIntervalOnSubSecondStart(t *testing.T) {
	fc := newFakeClock()
	sink, ch := newChanSink()
	s := NewScheduler(discharging, sink, WithClock(fc))

	start := fc.Now()
	s.Start()
	defer s.Stop()
	expectDelivery(t, ch)
	fc.BlockUntil(1)

	if got := s.NextRun().Sub(start); got != Interval {
		t.Fatalf("NextRun() - start = %v, want %v", got, Interval)
	}

	fc.Advance(Interval - 100*time.Millisecond)
	expectNoDelivery(t, ch)

	fc.Advance(100 * time.Millisecond)
	expectDelivery(t, ch)
	fc.BlockUntil(1)

	if got, want := s.NextRun(), start.Add(2*Interval); !got.Equal(want) {
		t.Errorf("NextRun() = %v, want %v", got, want)
	}
}

func TestSchedulerStop(t *testing.T) {
	fc := newFakeClock()
	sink, ch := newChanSink()
	s := NewScheduler(discharging, sink, WithClock(fc))

	s.Start()
	expectDelivery(t, ch)
	fc.BlockUntil(1)

	s.Stop()
	s.Stop()
	if s.State() != Stopped {
		t.Fatalf("state after Stop = %s, want Stopped", s.State())
	}

	fc.Advance(10 * Interval)
	expectNoDelivery(t, ch)

	// Neither restarting nor refreshing revives a stopped scheduler.
	s.Start()
	s.Refresh()
	expectNoDelivery(t, ch)
	if s.State() != Stopped {
		t.Fatalf("state after Start on a stopped scheduler = %s, want Stopped", s.State())
	}
}

func TestSchedulerStopBeforeStart(t *testing.T) {
	sink, ch := newChanSink()
	s := NewScheduler(discharging, sink, WithClock(newFakeClock()))

	s.Stop()
	s.Start()
	expectNoDelivery(t, ch)
}

func TestSchedulerRefresh(t *testing.T) {
	fc := newFakeClock()
	sink, ch := newChanSink()
	s := NewScheduler(discharging, sink, WithClock(fc))

	// Ignored while idle.
	s.Refresh()

	start := fc.Now()
	s.Start()
	defer s.Stop()
	expectDelivery(t, ch)
	fc.BlockUntil(1)

	s.Refresh()
	expectDelivery(t, ch)

	// A refresh does not shift the regular schedule.
	if got, want := s.NextRun(), start.Add(Interval); !got.Equal(want) {
		t.Errorf("NextRun() = %v, want %v", got, want)
	}

	fc.Advance(Interval)
	expectDelivery(t, ch)
}

func TestSchedulerSkipsMissedTicks(t *testing.T) {
	fc := newFakeClock()
	sink, ch := newChanSink()
	s := NewScheduler(discharging, sink, WithClock(fc))

	s.Start()
	defer s.Stop()
	expectDelivery(t, ch)
	fc.BlockUntil(1)

	// E.g. the machine slept for a while.
	fc.Advance(5 * Interval)
	expectDelivery(t, ch)
	fc.BlockUntil(1)
	expectNoDelivery(t, ch)

	if got, want := s.NextRun(), fc.Now().Add(Interval); !got.Equal(want) {
		t.Errorf("NextRun() = %v, want %v", got, want)
	}
}

func TestSchedulerReadError(t *testing.T) {
	reader := powersource.ReaderFunc(func() ([]powersource.Record, error) {
		return nil, errors.New("power source unavailable")
	})
	sink, ch := newChanSink()
	s := NewScheduler(reader, sink, WithClock(newFakeClock()))

	s.Start()
	defer s.Stop()

	d := expectDelivery(t, ch)
	if d.title != format.BatteryGlyph {
		t.Errorf("title = %q, want %q", d.title, format.BatteryGlyph)
	}
	if d.detail != "Status: On Battery" {
		t.Errorf("detail = %q, want %q", d.detail, "Status: On Battery")
	}
}

func TestSchedulerObserversAndDispatcher(t *testing.T) {
	fc := newFakeClock()
	sink, ch := newChanSink()

	var mu sync.Mutex
	var dispatched int
	dispatcher := DispatcherFunc(func(fn func()) {
		mu.Lock()
		dispatched++
		mu.Unlock()
		fn()
	})

	s := NewScheduler(discharging, sink, WithClock(fc), WithDispatcher(dispatcher))

	var updates []Update
	s.Observe(func(u Update) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, u)
	})

	s.Start()
	defer s.Stop()
	expectDelivery(t, ch)

	mu.Lock()
	defer mu.Unlock()
	if dispatched != 1 {
		t.Errorf("dispatched = %d, want 1", dispatched)
	}
	if len(updates) != 1 {
		t.Fatalf("observed %d updates, want 1", len(updates))
	}
	u := updates[0]
	if u.Records != 1 || u.Info.Percentage == nil || *u.Info.Percentage != 85 {
		t.Errorf("unexpected update: %+v", u)
	}
	if !u.Time.Equal(fc.Now()) {
		t.Errorf("update time = %v, want %v", u.Time, fc.Now())
	}
}

func TestSchedulerEachCycleIsFresh(t *testing.T) {
	fc := newFakeClock()
	sink, ch := newChanSink()

	var mu sync.Mutex
	calls := 0
	reader := powersource.ReaderFunc(func() ([]powersource.Record, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls == 1 {
			return discharging, nil
		}
		return nil, nil
	})

	s := NewScheduler(reader, sink, WithClock(fc))
	s.Start()
	defer s.Stop()

	if d := expectDelivery(t, ch); d.title != "🔋 85% (2h5m)" {
		t.Errorf("first title = %q", d.title)
	}

	fc.BlockUntil(1)
	fc.Advance(Interval)
	if d := expectDelivery(t, ch); d.title != format.BatteryGlyph {
		t.Errorf("second title = %q, want nothing carried over from the first poll", d.title)
	}
}

func TestNewSchedulerPanicsOnNil(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic")
		}
	}()
	NewScheduler(nil, SinkFunc(func(string, string) {}))
}
