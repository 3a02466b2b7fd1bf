// Package gui shows the battery status as a menu bar (system tray) item.
package gui

import (
	"strings"
	"sync"

	"github.com/getlantern/systray"
	"github.com/sirupsen/logrus"

	"github.com/battind/battind/pkg/poller"
)

const (
	initialTitle = "🔋 Battery"
	tooltip      = "battind - Battery Status"

	// Level, status, time remaining and health.
	maxDetailLines = 4
)

type menuItem interface {
	SetTitle(string)
	Show()
	Hide()
}

// Tray is the poller.Sink of the menu bar item. Create it with Run.
type Tray struct {
	mu         sync.Mutex
	setTitle   func(string)
	setTooltip func(string)
	details    []menuItem
}

var _ poller.Sink = &Tray{}

// Update shows title in the menu bar and one disabled menu item per line
// of detail.
func (t *Tray) Update(title, detail string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.setTitle(title)
	t.setTooltip(detail)

	lines := strings.Split(detail, "\n")
	if len(lines) > len(t.details) {
		logrus.WithField("lines", len(lines)).Warn("detail has more lines than the menu can show")
	}
	for i, item := range t.details {
		if i < len(lines) && lines[i] != "" {
			item.SetTitle(lines[i])
			item.Show()
		} else {
			item.Hide()
		}
	}
}

// Options configure Run.
type Options struct {
	// OnReady is called once the menu exists, with the sink to deliver to.
	OnReady func(*Tray)
	// Refresh is called when "Refresh Now" is clicked.
	Refresh func()
	// OnExit is called after the tray has quit.
	OnExit func()
}

// Run shows the tray item and blocks until Quit is clicked or Quit is
// called. It must be called from the main goroutine.
func Run(opts Options) {
	systray.Run(func() { onReady(opts) }, func() {
		logrus.Info("tray exiting")
		if opts.OnExit != nil {
			opts.OnExit()
		}
	})
}

// Quit removes the tray item, making Run return.
func Quit() {
	systray.Quit()
}

func onReady(opts Options) {
	systray.SetTitle(initialTitle)
	systray.SetTooltip(tooltip)

	t := &Tray{
		setTitle:   systray.SetTitle,
		setTooltip: systray.SetTooltip,
	}
	for i := 0; i < maxDetailLines; i++ {
		item := systray.AddMenuItem("", "Battery status")
		item.Disable()
		item.Hide()
		t.details = append(t.details, item)
	}

	systray.AddSeparator()
	mRefresh := systray.AddMenuItem("Refresh Now", "Read the battery status now")
	mQuit := systray.AddMenuItem("Quit", "Quit battind")

	go func() {
		for {
			select {
			case <-mRefresh.ClickedCh:
				logrus.Debug("refresh clicked")
				if opts.Refresh != nil {
					opts.Refresh()
				}
			case <-mQuit.ClickedCh:
				systray.Quit()
				return
			}
		}
	}()

	if opts.OnReady != nil {
		opts.OnReady(t)
	}
}
