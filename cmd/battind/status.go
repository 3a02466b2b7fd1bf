package main

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/battind/battind/pkg/client"
	"github.com/battind/battind/pkg/config"
	"github.com/battind/battind/pkg/poller"
	"github.com/battind/battind/pkg/powersource"
	"github.com/battind/battind/pkg/status"
)

type statusOptions struct {
	json   bool
	raw    bool
	remote bool
	source string
}

// statusJSON is the output of status --json. Records is only set with
// --raw.
type statusJSON struct {
	status.Snapshot
	Records []powersource.Record `json:"rawRecords,omitempty"`
}

func NewStatusCommand() *cobra.Command {
	o := &statusOptions{}

	cmd := &cobra.Command{
		Use:     "status",
		Short:   "Print the battery status once",
		GroupID: gBasic,
		Long: `Read the power sources once and print the same status the menu bar shows.

With --remote, the status is taken from a running battind instead.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return o.run(cmd)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&o.json, "json", false, "print as JSON")
	f.BoolVar(&o.raw, "raw", false, "also print the raw power source records")
	f.BoolVar(&o.remote, "remote", false, "ask the running battind instead of reading the power sources")
	f.StringVar(&o.source, "source", "", "power source reader: "+strings.Join(powersource.Kinds, ", ")+" (default from config, auto)")

	return cmd
}

func (o *statusOptions) run(cmd *cobra.Command) error {
	if o.remote && o.raw {
		return pkgerrors.New("--raw cannot be used with --remote")
	}

	var out statusJSON

	if o.remote {
		c := client.NewClient(statusSocket)
		warnVersionMismatch(c)
		snap, err := c.GetStatus()
		if err != nil {
			return err
		}
		out.Snapshot = *snap
	} else {
		source := o.source
		if source == "" {
			conf, err := config.NewFile(configPath)
			if err != nil {
				return err
			}
			source = conf.Source()
		}
		reader, err := powersource.New(source)
		if err != nil {
			return err
		}

		records, err := reader.Read()
		if err != nil {
			logrus.WithError(err).Warn("failed to read power sources")
			records = nil
		}

		out.Snapshot = status.FromUpdate(poller.Sample(powersource.Static(records), time.Now()))
		if o.raw {
			out.Records = records
		}
	}

	if o.json {
		return printJSON(cmd.OutOrStdout(), out)
	}

	printSnapshot(cmd.OutOrStdout(), out.Snapshot)
	if o.raw {
		cmd.Println()
		cmd.Println(bold("Raw records:"))
		return printJSON(cmd.OutOrStdout(), out.Records)
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return pkgerrors.Wrap(enc.Encode(v), "failed to encode status")
}

// printSnapshot prints the title and the detail lines, highlighting the
// values.
func printSnapshot(w io.Writer, snap status.Snapshot) {
	_, _ = io.WriteString(w, bold("%s", snap.Title)+"\n")

	for _, line := range strings.Split(snap.Detail, "\n") {
		if line == "" {
			continue
		}
		label, value, ok := strings.Cut(line, ": ")
		if !ok {
			_, _ = io.WriteString(w, "  "+line+"\n")
			continue
		}
		_, _ = io.WriteString(w, "  "+label+": "+colorValue(label, value, snap)+"\n")
	}
}

func colorValue(label, value string, snap status.Snapshot) string {
	switch label {
	case "Status":
		switch {
		case snap.Info.IsCharging:
			return color.New(color.Bold, color.FgGreen).Sprint(value)
		case snap.Info.IsPlugged:
			return color.New(color.Bold, color.FgCyan).Sprint(value)
		default:
			return color.New(color.Bold, color.FgYellow).Sprint(value)
		}
	case "Level":
		if p := snap.Info.Percentage; p != nil && *p < 20 {
			return color.New(color.Bold, color.FgRed).Sprint(value)
		}
	case "Health":
		if h := snap.Info.BatteryHealth; h != nil && *h < 80 {
			return color.New(color.Bold, color.FgRed).Sprint(value)
		}
	}
	return bold("%s", value)
}

func bold(format string, a ...interface{}) string {
	return color.New(color.Bold).Sprintf(format, a...)
}
