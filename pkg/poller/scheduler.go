// Package poller periodically samples the power sources and delivers the
// formatted status to a presentation sink.
package poller

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/battind/battind/pkg/batteryinfo"
	"github.com/battind/battind/pkg/format"
	"github.com/battind/battind/pkg/powersource"
)

// Interval is the fixed time between two polls.
const Interval = 30 * time.Second

// State is the lifecycle state of a Scheduler.
type State int

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Sink presents the formatted status, e.g. a menu bar item.
type Sink interface {
	Update(title, detail string)
}

// SinkFunc adapts a plain function to a Sink.
type SinkFunc func(title, detail string)

// Update calls f(title, detail).
func (f SinkFunc) Update(title, detail string) {
	f(title, detail)
}

// Update is the result of one poll cycle.
type Update struct {
	Info    batteryinfo.Info `json:"info"`
	Title   string           `json:"title"`
	Detail  string           `json:"detail"`
	Time    time.Time        `json:"time"`
	Records int              `json:"records"`
}

// Observer is notified of every cycle, synchronously, before the sink.
// Observers must be fast and must not block.
type Observer func(Update)

// Sample reads r once and builds the formatted status. A read error is
// logged and treated as an empty read.
func Sample(r powersource.Reader, at time.Time) Update {
	records, err := r.Read()
	if err != nil {
		logrus.WithError(err).Warn("failed to read power sources")
		records = nil
	}

	info := batteryinfo.Build(records)

	return Update{
		Info:    info,
		Title:   format.Title(info),
		Detail:  format.Detail(info),
		Time:    at,
		Records: len(records),
	}
}

// Scheduler polls a reader on a fixed interval and on demand, and delivers
// each result to a sink through a dispatcher.
type Scheduler struct {
	reader     powersource.Reader
	sink       Sink
	dispatcher Dispatcher
	clock      clockwork.Clock
	schedule   cron.Schedule

	mu        sync.Mutex
	state     State
	nextRun   time.Time
	observers []Observer

	refreshCh chan struct{}
	stopCh    chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the real clock, e.g. with a fake one in tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) {
		s.clock = c
	}
}

// WithDispatcher sets how deliveries reach the sink. Defaults to Immediate.
func WithDispatcher(d Dispatcher) Option {
	return func(s *Scheduler) {
		s.dispatcher = d
	}
}

// NewScheduler returns an idle Scheduler.
func NewScheduler(reader powersource.Reader, sink Sink, opts ...Option) *Scheduler {
	if reader == nil {
		panic("reader cannot be nil")
	}
	if sink == nil {
		panic("sink cannot be nil")
	}

	s := &Scheduler{
		reader:     reader,
		sink:       sink,
		dispatcher: Immediate,
		clock:      clockwork.NewRealClock(),
		schedule:   cron.Every(Interval),
		refreshCh:  make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Observe registers o. Observers added after Start see subsequent cycles.
func (s *Scheduler) Observe(o Observer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, o)
}

// Start runs one cycle right away and then one every Interval until Stop.
// It does nothing unless the scheduler is idle.
func (s *Scheduler) Start() {
	s.mu.Lock()
	if s.state != Idle {
		s.mu.Unlock()
		return
	}
	s.state = Running
	s.mu.Unlock()

	s.cycle()

	s.mu.Lock()
	s.nextRun = s.after(s.clock.Now())
	s.mu.Unlock()

	go s.run()
}

// Stop cancels future cycles. An in-flight cycle still completes. Calling
// Stop more than once is fine.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Stopped {
		return
	}
	s.state = Stopped
	close(s.stopCh)
}

// Refresh asks for an extra cycle as soon as possible. Requests made while
// one is already pending are merged. It does nothing unless running.
func (s *Scheduler) Refresh() {
	if s.State() != Running {
		return
	}
	select {
	case s.refreshCh <- struct{}{}:
	default:
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// NextRun returns when the next scheduled cycle is due.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextRun
}

func (s *Scheduler) run() {
	logrus.WithField("interval", Interval).Debug("poller started")
	defer logrus.Debug("poller stopped")

	for {
		next := s.NextRun()
		wait := next.Sub(s.clock.Now())
		if wait < 0 {
			wait = 0
		}
		timer := s.clock.NewTimer(wait)

		for fired := false; !fired; {
			select {
			case <-timer.Chan():
				fired = true
			case <-s.refreshCh:
				if s.State() != Running {
					timer.Stop()
					return
				}
				logrus.Debug("refresh requested")
				s.cycle()
			case <-s.stopCh:
				timer.Stop()
				return
			}
		}

		// The timer and stop may race in the select above.
		if s.State() != Running {
			return
		}
		s.cycle()
		s.advance(next)
	}
}

// advance moves nextRun past prev. Ticks missed while the machine was
// asleep are skipped rather than run back to back.
func (s *Scheduler) advance(prev time.Time) {
	next := s.after(prev)
	if now := s.clock.Now(); next.Before(now) {
		logrus.WithFields(logrus.Fields{
			"scheduled": next.Format(time.DateTime),
			"now":       now.Format(time.DateTime),
		}).Debug("skipping missed polls")
		next = s.after(now)
	}

	s.mu.Lock()
	s.nextRun = next
	s.mu.Unlock()
}

// after returns the tick following t. cron truncates t to the second, so
// the dropped fraction is added back to keep ticks a full Interval apart.
func (s *Scheduler) after(t time.Time) time.Time {
	return s.schedule.Next(t).Add(time.Duration(t.Nanosecond()))
}

func (s *Scheduler) cycle() {
	u := Sample(s.reader, s.clock.Now())

	logrus.WithFields(logrus.Fields{
		"records":  u.Records,
		"title":    u.Title,
		"charging": u.Info.IsCharging,
		"plugged":  u.Info.IsPlugged,
	}).Debug("battery status sampled")

	s.mu.Lock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, o := range observers {
		o(u)
	}

	s.dispatcher.Dispatch(func() {
		s.sink.Update(u.Title, u.Detail)
	})
}
