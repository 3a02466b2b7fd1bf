package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/battind/battind/pkg/client"
	"github.com/battind/battind/pkg/config"
)

var (
	logLevel     = "info"
	logFile      = ""
	configPath   = config.DefaultPath()
	statusSocket = config.DefaultStatusSocket
)

var (
	gBasic        = "Basic:"
	gRemote       = "Running instance:"
	gInstallation = "Installation:"
	commandGroups = []string{
		gBasic,
		gRemote,
		gInstallation,
	}
)

func setupLogger() error {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{})

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
		if err != nil {
			return pkgerrors.Wrapf(err, "failed to open log file %s", logFile)
		}
		// Closed on exit.
		logrus.SetOutput(f)
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			DisableColors: true,
		})
		return nil
	}

	if term.IsTerminal(int(os.Stderr.Fd())) {
		logrus.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: time.Kitchen,
		})
	}

	return nil
}

func handleCmdError(err error) {
	switch {
	case errors.Is(err, client.ErrDaemonNotRunning):
		fmt.Fprintln(os.Stderr, "\nError: battind is not running")
		fmt.Fprintln(os.Stderr, "  - Start it with 'battind run', or install it as a login item with 'battind install'")
		fmt.Fprintf(os.Stderr, "  - Check that it serves on %s (--status-socket)\n", statusSocket)
	case errors.Is(err, client.ErrPermissionDenied):
		fmt.Fprintln(os.Stderr, "\nError: Permission Denied")
		fmt.Fprintf(os.Stderr, "  - %s belongs to another user\n", statusSocket)
	case errors.Is(err, client.ErrNoStatusYet):
		fmt.Fprintln(os.Stderr, "\nError: battind has not read the battery yet, try again in a moment")
	}
}

func main() {
	// battind does not need much.
	if os.Getenv("GOMAXPROCS") == "" {
		runtime.GOMAXPROCS(2)
	}
	// The tray must run on the main thread.
	runtime.LockOSThread()

	cmd := NewCommand()
	if err := cmd.Execute(); err != nil {
		handleCmdError(err)
		os.Exit(1)
	}
}

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "battind",
		Short: "battind shows the battery status in the menu bar",
		Long: `battind shows the battery charge level, charging state, time remaining and
battery health in the menu bar, refreshing every 30 seconds.

Without a subcommand, battind behaves like 'battind run'.`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return setupLogger()
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return (&runOptions{}).run(cmd)
		},
	}

	globalFlags := cmd.PersistentFlags()
	globalFlags.StringVarP(&logLevel, "log-level", "l", "info", "log level (trace, debug, info, warn, error, fatal, panic)")
	globalFlags.StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")
	globalFlags.StringVar(&configPath, "config", configPath, "config file path")
	globalFlags.StringVar(&statusSocket, "status-socket", statusSocket, "status api unix socket path")

	for _, i := range commandGroups {
		cmd.AddGroup(&cobra.Group{
			ID:    i,
			Title: i,
		})
	}

	cmd.AddCommand(
		NewRunCommand(),
		NewStatusCommand(),
		NewWatchCommand(),
		NewRefreshCommand(),
		NewInstallCommand(),
		NewUninstallCommand(),
		NewVersionCommand(),
	)

	return cmd
}
