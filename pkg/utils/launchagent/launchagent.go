// Package launchagent installs battind as a macOS login item.
package launchagent

import (
	"os"
	"os/exec"
	"path/filepath"

	pkgerrors "github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"howett.net/plist"
)

const DefaultLabel = "io.github.battind"

// Agent describes a per-user LaunchAgent.
type Agent struct {
	Label string
	// Program is the absolute path of the executable.
	Program string
	Args    []string
	// Dir is where the plist is written, ~/Library/LaunchAgents by default.
	Dir string

	run func(name string, args ...string) error
}

type launchdPlist struct {
	Label            string   `plist:"Label"`
	ProgramArguments []string `plist:"ProgramArguments"`
	RunAtLoad        bool     `plist:"RunAtLoad"`
	KeepAlive        bool     `plist:"KeepAlive"`
	ProcessType      string   `plist:"ProcessType"`
}

// New returns an Agent running the current executable with args.
func New(args ...string) (*Agent, error) {
	exePath, err := os.Executable()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get the path to the current executable")
	}
	exePath, err = filepath.EvalSymlinks(exePath)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to resolve the path to the current executable")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to get the home directory")
	}

	return &Agent{
		Label:   DefaultLabel,
		Program: exePath,
		Args:    args,
		Dir:     filepath.Join(home, "Library", "LaunchAgents"),
	}, nil
}

// Path is where the plist lives.
func (a *Agent) Path() string {
	return filepath.Join(a.Dir, a.Label+".plist")
}

// Render returns the plist document.
func (a *Agent) Render() ([]byte, error) {
	p := launchdPlist{
		Label:            a.Label,
		ProgramArguments: append([]string{a.Program}, a.Args...),
		RunAtLoad:        true,
		// Quitting from the menu must not bring it back.
		KeepAlive:   false,
		ProcessType: "Interactive",
	}

	b, err := plist.MarshalIndent(p, plist.XMLFormat, "\t")
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to render launch agent")
	}
	return b, nil
}

// Install writes the plist and loads it with launchctl.
func (a *Agent) Install() error {
	b, err := a.Render()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return pkgerrors.Wrapf(err, "failed to create %s", a.Dir)
	}

	path := a.Path()
	if _, err := os.Stat(path); err == nil {
		logrus.Warnf("%s already exists, overwriting", path)
		// Unload the old definition first, it may point to another binary.
		if err := a.launchctl("unload", path); err != nil {
			logrus.WithError(err).Debug("failed to unload the old launch agent")
		}
	}

	logrus.Infof("writing launch agent to %s", path)
	if err := os.WriteFile(path, b, 0644); err != nil {
		return pkgerrors.Wrapf(err, "failed to write %s", path)
	}

	if err := a.launchctl("load", path); err != nil {
		return pkgerrors.Wrapf(err, "failed to load %s", path)
	}
	return nil
}

// Uninstall unloads and removes the plist. A missing plist is not an error.
func (a *Agent) Uninstall() error {
	path := a.Path()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			logrus.Infof("%s does not exist, nothing to do", path)
			return nil
		}
		return pkgerrors.Wrapf(err, "failed to stat %s", path)
	}

	if err := a.launchctl("unload", path); err != nil {
		return pkgerrors.Wrapf(err, "failed to unload %s", path)
	}

	logrus.Infof("removing launch agent %s", path)
	if err := os.Remove(path); err != nil {
		return pkgerrors.Wrapf(err, "failed to remove %s", path)
	}
	return nil
}

func (a *Agent) launchctl(args ...string) error {
	if a.run != nil {
		return a.run("/bin/launchctl", args...)
	}
	out, err := exec.Command("/bin/launchctl", args...).CombinedOutput()
	if err != nil {
		return pkgerrors.Wrapf(err, "launchctl %v: %s", args, out)
	}
	return nil
}
