package main

import (
	"context"
	"io"
	"os/signal"
	"slices"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/battind/battind/pkg/api"
	"github.com/battind/battind/pkg/config"
	"github.com/battind/battind/pkg/events"
	"github.com/battind/battind/pkg/gui"
	"github.com/battind/battind/pkg/metrics"
	"github.com/battind/battind/pkg/poller"
	"github.com/battind/battind/pkg/powersource"
	"github.com/battind/battind/pkg/status"
	"github.com/battind/battind/pkg/tui"
	"github.com/battind/battind/pkg/version"
)

const apiShutdownWait = 6 * time.Second

// runOptions are the flags of the run command. Empty values fall back to
// the config file.
type runOptions struct {
	ui      string
	source  string
	metrics bool
}

func NewRunCommand() *cobra.Command {
	o := &runOptions{}

	cmd := &cobra.Command{
		Use:     "run",
		Short:   "Show the battery status until quit",
		GroupID: gBasic,
		Long: `Poll the battery every 30 seconds and show the status in the menu bar (tray),
in the terminal (tui) or only in the logs (none).

While running, the status is also served on a local unix socket, so that
'battind status --remote', 'battind watch' and 'battind refresh' can talk to it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.ui, "ui", "", "where to show the status: "+strings.Join(config.UIs, ", ")+" (default from config, tray)")
	f.StringVar(&o.source, "source", "", "power source reader: "+strings.Join(powersource.Kinds, ", ")+" (default from config, auto)")
	f.BoolVar(&o.metrics, "metrics", false, "serve prometheus metrics on the status api")

	return cmd
}

// instance is one running battind: a scheduler and everything observing it.
type instance struct {
	reader powersource.Reader
	socket string

	store   *status.Store
	hub     *events.Hub
	metrics *metrics.Metrics

	apiDone chan struct{}
}

func (o *runOptions) run(cmd *cobra.Command) error {
	conf, err := config.NewFile(configPath)
	if err != nil {
		return err
	}

	ui := o.ui
	if ui == "" {
		ui = conf.UI()
	}
	if !slices.Contains(config.UIs, ui) {
		return pkgerrors.Errorf("unknown ui %q, must be one of %s", ui, strings.Join(config.UIs, ", "))
	}

	source := o.source
	if source == "" {
		source = conf.Source()
	}
	reader, err := powersource.New(source)
	if err != nil {
		return err
	}

	socket := conf.StatusSocket()
	if cmd.Flags().Changed("status-socket") {
		socket = statusSocket
	}

	in := &instance{
		reader: reader,
		socket: socket,
		store:  status.NewStore(),
		hub:    events.NewHub(),
	}
	if o.metrics || conf.EnableMetrics() {
		in.metrics = metrics.New()
	}

	logrus.WithFields(conf.LogrusFields()).WithFields(logrus.Fields{
		"version": version.Version,
		"commit":  version.GitCommit,
		"ui":      ui,
		"source":  source,
		"socket":  socket,
		"metrics": in.metrics != nil,
	}).Info("battind starting")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch ui {
	case config.UITray:
		return in.runTray(ctx)
	case config.UITUI:
		return in.runTUI(ctx)
	default:
		return in.runHeadless(ctx)
	}
}

// start wires the observers and the status api, then starts polling.
func (in *instance) start(ctx context.Context, sink poller.Sink, d poller.Dispatcher) *poller.Scheduler {
	s := poller.NewScheduler(in.reader, sink, poller.WithDispatcher(d))
	s.Observe(in.store.Observe)
	s.Observe(in.hub.Observe)
	if in.metrics != nil {
		s.Observe(in.metrics.Observe)
	}

	if in.socket != "" {
		opts := []api.Option{api.WithEvents(in.hub)}
		if in.metrics != nil {
			opts = append(opts, api.WithMetrics(in.metrics.Handler()))
		}
		srv := api.New(in.store, s, opts...)
		in.apiDone = make(chan struct{})
		go func() {
			defer close(in.apiDone)
			if err := srv.Serve(ctx, in.socket); err != nil {
				logrus.WithError(err).Error("status api failed")
			}
		}()
	}

	s.Start()
	return s
}

// wait gives the status api time to shut down once ctx is done.
func (in *instance) wait() {
	if in.apiDone == nil {
		return
	}
	select {
	case <-in.apiDone:
	case <-time.After(apiShutdownWait):
		logrus.Warn("status api did not shut down in time")
	}
}

func (in *instance) runTray(ctx context.Context) error {
	serial := poller.NewSerial()
	defer serial.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var sched atomic.Pointer[poller.Scheduler]

	gui.Run(gui.Options{
		OnReady: func(t *gui.Tray) {
			sched.Store(in.start(ctx, t, serial))
			go func() {
				<-ctx.Done()
				gui.Quit()
			}()
		},
		Refresh: func() {
			if s := sched.Load(); s != nil {
				s.Refresh()
			}
		},
		OnExit: func() {
			if s := sched.Load(); s != nil {
				s.Stop()
			}
		},
	})

	cancel()
	in.wait()
	return nil
}

func (in *instance) runTUI(ctx context.Context) error {
	// Logs would scribble over the screen.
	if logFile == "" {
		logrus.SetOutput(io.Discard)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return pkgerrors.Wrap(err, "failed to create screen")
	}
	if err := screen.Init(); err != nil {
		return pkgerrors.Wrap(err, "failed to initialize screen")
	}
	defer screen.Fini()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	view := tui.New(screen)
	s := in.start(ctx, view, view)
	defer s.Stop()

	view.Run(ctx, s.Refresh)
	cancel()
	in.wait()
	return nil
}

func (in *instance) runHeadless(ctx context.Context) error {
	serial := poller.NewSerial()
	defer serial.Close()

	s := in.start(ctx, logSink(), serial)
	defer s.Stop()

	<-ctx.Done()
	logrus.Info("battind exiting")
	in.wait()
	return nil
}

// logSink logs every delivery, for running without a UI.
func logSink() poller.Sink {
	return poller.SinkFunc(func(title, detail string) {
		logrus.WithFields(logrus.Fields{
			"title":  title,
			"detail": strings.ReplaceAll(detail, "\n", "; "),
		}).Info("battery status")
	})
}
