// Package tui shows the battery status in a full-screen terminal view.
package tui

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"

	"github.com/battind/battind/pkg/poller"
)

const (
	initialTitle = "🔋 Battery"
	help         = "r refresh  q quit"
	quitRetries  = 100
)

// deliveryEvent carries a sink delivery onto the event loop.
type deliveryEvent struct {
	tcell.EventTime
	fn func()
}

// quitEvent stops the event loop.
type quitEvent struct {
	tcell.EventTime
}

// View renders the latest title and detail. Update and drawing happen on
// the event loop only; use View as the poller.Dispatcher so that
// deliveries get there.
type View struct {
	screen tcell.Screen
	now    func() time.Time

	title   string
	detail  string
	updated time.Time

	quitOnce sync.Once
}

var (
	_ poller.Sink       = &View{}
	_ poller.Dispatcher = &View{}
)

// New wraps an initialized screen.
func New(screen tcell.Screen) *View {
	return &View{
		screen: screen,
		now:    time.Now,
		title:  initialTitle,
	}
}

// Dispatch posts fn to the event loop. It never blocks; if the event queue
// is full the delivery is dropped, a newer one will follow.
func (v *View) Dispatch(fn func()) {
	ev := &deliveryEvent{fn: fn}
	ev.SetEventNow()
	if err := v.screen.PostEvent(ev); err != nil {
		logrus.WithError(err).Debug("dropping delivery, event queue is full")
	}
}

// Update implements poller.Sink. It must run on the event loop.
func (v *View) Update(title, detail string) {
	v.title = title
	v.detail = detail
	v.updated = v.now()
	v.draw()
}

// Quit makes Run return. It is safe to call from any goroutine.
func (v *View) Quit() {
	v.quitOnce.Do(func() {
		ev := &quitEvent{}
		ev.SetEventNow()
		// PostEventWait blocks forever once the loop is gone.
		for i := 0; i < quitRetries; i++ {
			if v.screen.PostEvent(ev) == nil {
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
		logrus.Warn("failed to post quit event, event queue is full")
	})
}

// Run processes events until the user quits, Quit is called or ctx is
// done. refresh is called when r is pressed.
func (v *View) Run(ctx context.Context, refresh func()) {
	stop := context.AfterFunc(ctx, v.Quit)
	defer stop()

	v.draw()

	for {
		switch ev := v.screen.PollEvent().(type) {
		case nil:
			// screen finalized
			return
		case *quitEvent:
			return
		case *deliveryEvent:
			ev.fn()
		case *tcell.EventResize:
			v.screen.Sync()
			v.draw()
		case *tcell.EventKey:
			switch {
			case ev.Key() == tcell.KeyEscape, ev.Key() == tcell.KeyCtrlC:
				return
			case ev.Key() != tcell.KeyRune:
			case ev.Rune() == 'q', ev.Rune() == 'Q':
				return
			case ev.Rune() == 'r', ev.Rune() == 'R':
				logrus.Debug("refresh requested")
				if refresh != nil {
					refresh()
				}
			}
		}
	}
}

func (v *View) draw() {
	v.screen.Clear()
	width, height := v.screen.Size()

	y := 1
	drawText(v.screen, 2, y, v.title, tcell.StyleDefault.Bold(true))
	y += 2

	if v.detail != "" {
		for _, line := range strings.Split(v.detail, "\n") {
			drawText(v.screen, 4, y, line, tcell.StyleDefault)
			y++
		}
	}

	footer := help
	if !v.updated.IsZero() {
		footer = "updated " + v.updated.Format(time.Kitchen) + "  " + help
	}
	if height > 0 {
		drawText(v.screen, 2, height-1, truncate(footer, width-2), tcell.StyleDefault.Foreground(tcell.ColorGray))
	}

	v.screen.Show()
}

// drawText writes text starting at column x, advancing by the display
// width of each rune.
func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for _, r := range text {
		screen.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}

func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "")
}
