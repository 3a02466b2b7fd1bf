package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/battind/battind/pkg/client"
	"github.com/battind/battind/pkg/events"
)

func NewWatchCommand() *cobra.Command {
	asJSON := false

	cmd := &cobra.Command{
		Use:     "watch",
		Short:   "Follow the status of the running battind",
		GroupID: gRemote,
		Long:    `Print a line every time the running battind reads the battery, until interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := client.NewClient(statusSocket)
			warnVersionMismatch(c)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ch, err := c.SubscribeEvents(ctx)
			if err != nil {
				return err
			}

			for ev := range ch {
				if ev.Name != events.SnapshotUpdated {
					logrus.WithField("event", ev.Name).Debug("ignoring event")
					continue
				}
				if asJSON {
					cmd.Println(string(ev.Data))
					continue
				}

				payload, err := events.DecodeAs[events.SnapshotEvent](ev)
				if err != nil {
					logrus.WithError(err).Error("failed to decode battery.snapshot event")
					continue
				}
				cmd.Printf("%s  %s\n", payload.UpdatedAt.Local().Format(time.TimeOnly), bold("%s", payload.Title))
			}

			if ctx.Err() == nil {
				logrus.Warn("battind closed the connection")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print every snapshot as a JSON line")

	return cmd
}

func NewRefreshCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "refresh",
		Short:   "Make the running battind read the battery now",
		GroupID: gRemote,
		RunE: func(_ *cobra.Command, _ []string) error {
			c := client.NewClient(statusSocket)
			if err := c.Refresh(); err != nil {
				return err
			}
			logrus.Info("refresh requested")
			return nil
		},
	}
}
