package poller

import (
	"testing"
	"time"
)

func TestSerialCoalescesPendingDeliveries(t *testing.T) {
	d := NewSerial()
	defer d.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	ran := make(chan int, 8)

	d.Dispatch(func() {
		close(started)
		<-release
		ran <- 0
	})
	<-started

	done := make(chan struct{})
	go func() {
		for i := 1; i <= 3; i++ {
			i := i
			d.Dispatch(func() { ran <- i })
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Dispatch blocked behind a slow delivery")
	}

	close(release)

	for _, want := range []int{0, 3} {
		select {
		case got := <-ran:
			if got != want {
				t.Fatalf("ran %d, want %d", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("delivery %d did not run", want)
		}
	}

	select {
	case got := <-ran:
		t.Fatalf("unexpected delivery %d", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSerialRecoversFromPanics(t *testing.T) {
	d := NewSerial()
	defer d.Close()

	panicked := make(chan struct{})
	d.Dispatch(func() {
		close(panicked)
		panic("sink exploded")
	})
	<-panicked

	ok := make(chan struct{})
	d.Dispatch(func() { close(ok) })

	select {
	case <-ok:
	case <-time.After(time.Second):
		t.Fatalf("dispatcher stopped after a panic")
	}
}

func TestSerialClose(t *testing.T) {
	d := NewSerial()
	d.Close()
	d.Close()

	// Dispatch after Close must still not block.
	done := make(chan struct{})
	go func() {
		d.Dispatch(func() {})
		d.Dispatch(func() {})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Dispatch blocked after Close")
	}
}

func TestImmediate(t *testing.T) {
	called := false
	Immediate.Dispatch(func() { called = true })
	if !called {
		t.Fatalf("Immediate did not run the delivery inline")
	}
}
