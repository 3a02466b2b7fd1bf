package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/battind/battind/pkg/client"
	"github.com/battind/battind/pkg/version"
)

func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%s %s\n", version.Version, version.GitCommit)
		},
	}
}

// warnVersionMismatch compares our version with the running instance's.
func warnVersionMismatch(c *client.Client) {
	remote, err := c.GetVersion()
	if err != nil {
		logrus.WithError(err).Debug("failed to get the version of the running instance")
		return
	}
	if remote != version.Version {
		logrus.WithFields(logrus.Fields{
			"clientVersion": version.Version,
			"remoteVersion": remote,
		}).Warn("version mismatch between this command and the running instance")
	}
}
