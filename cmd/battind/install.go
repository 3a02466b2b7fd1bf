package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/battind/battind/pkg/config"
	"github.com/battind/battind/pkg/utils/launchagent"
)

func requireDarwin() error {
	if runtime.GOOS != "darwin" {
		return pkgerrors.Errorf("login items are only supported on macOS, not %s", runtime.GOOS)
	}
	return nil
}

// NewInstallCommand .
func NewInstallCommand() *cobra.Command {
	ui := config.UITray

	cmd := &cobra.Command{
		Use:     "install",
		Short:   "Start battind at login",
		GroupID: gInstallation,
		Long: `Install battind as a LaunchAgent of the current user, so that it starts at login.

The agent runs 'battind run' with the current config file, and logs to
~/Library/Logs/battind.log.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := requireDarwin(); err != nil {
				return err
			}
			if ui != config.UITray && ui != config.UINone {
				return pkgerrors.Errorf("a login item cannot use the %q ui", ui)
			}

			home, err := os.UserHomeDir()
			if err != nil {
				return pkgerrors.Wrap(err, "failed to get the home directory")
			}
			configAbs, err := filepath.Abs(configPath)
			if err != nil {
				return pkgerrors.Wrapf(err, "failed to resolve %s", configPath)
			}

			agent, err := launchagent.New(
				"run",
				"--ui", ui,
				"--config", configAbs,
				"--log-level", logLevel,
				"--log-file", filepath.Join(home, "Library", "Logs", "battind.log"),
			)
			if err != nil {
				return err
			}

			if err := agent.Install(); err != nil {
				return fmt.Errorf("failed to install launch agent: %w", err)
			}

			logrus.WithField("path", agent.Path()).Info("installation succeeded")
			return nil
		},
	}

	cmd.Flags().StringVar(&ui, "ui", ui, "ui of the installed agent (tray or none)")

	return cmd
}

// NewUninstallCommand .
func NewUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "uninstall",
		Short:   "Stop starting battind at login",
		GroupID: gInstallation,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := requireDarwin(); err != nil {
				return err
			}

			agent, err := launchagent.New()
			if err != nil {
				return err
			}
			if err := agent.Uninstall(); err != nil {
				return fmt.Errorf("failed to uninstall launch agent: %w", err)
			}

			logrus.Info("successfully uninstalled battind login item")
			return nil
		},
	}
}
