package events

import (
	"testing"
	"time"

	"github.com/battind/battind/pkg/batteryinfo"
	"github.com/battind/battind/pkg/poller"
)

func TestHubPublish(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	if h.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", h.Subscribers())
	}

	h.Observe(poller.Update{
		Info:  batteryinfo.Info{IsCharging: true},
		Title: "🔋 ⚡",
		Time:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})

	select {
	case ev := <-ch:
		if ev.Name != SnapshotUpdated {
			t.Fatalf("event name = %q, want %q", ev.Name, SnapshotUpdated)
		}
		payload, err := DecodeAs[SnapshotEvent](ev)
		if err != nil {
			t.Fatalf("DecodeAs() error: %v", err)
		}
		if payload.Title != "🔋 ⚡" || !payload.Info.IsCharging {
			t.Errorf("unexpected payload: %+v", payload)
		}
	case <-time.After(time.Second):
		t.Fatalf("no event received")
	}

	h.Unsubscribe(ch)
	h.Unsubscribe(ch)
	if _, ok := <-ch; ok {
		t.Fatalf("channel should be closed after Unsubscribe")
	}
	if h.Subscribers() != 0 {
		t.Fatalf("Subscribers() = %d, want 0", h.Subscribers())
	}
}

func TestHubDropsForSlowSubscribers(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	defer h.Unsubscribe(ch)

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			h.Publish(SnapshotUpdated, i)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Publish blocked on a slow subscriber")
	}
	if len(ch) != subscriberBuffer {
		t.Fatalf("buffered events = %d, want %d", len(ch), subscriberBuffer)
	}
}

func TestDecodeAsEmpty(t *testing.T) {
	v, err := DecodeAs[SnapshotEvent](Event{Name: SnapshotUpdated})
	if err != nil {
		t.Fatalf("DecodeAs() error: %v", err)
	}
	if v.Title != "" {
		t.Fatalf("expected zero value, got %+v", v)
	}
}
