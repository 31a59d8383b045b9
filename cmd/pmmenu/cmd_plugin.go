package main

import (
	"github.com/nyrich/Safeguard-Sudo-Menu/internal/config"
	"github.com/spf13/cobra"
)

// pluginActions are the plugin-management menu entries, in menu order.
var pluginActions = []adminAction{
	{use: "status", short: "Show plugin status",
		bin: func(c *config.Config) string { return c.Tools.Pmplugininfo }},
	{use: "version", short: "Show plugin version",
		bin: func(c *config.Config) string { return c.Tools.Pmplugininfo }, args: []string{"-v"}},
	{use: "hosts", short: "List plugin hosts",
		bin: func(c *config.Config) string { return c.Tools.Pmplugininfo }, args: []string{"-l"}},
	{use: "host", short: "Show details for a plugin host",
		bin: func(c *config.Config) string { return c.Tools.Pmplugininfo }, args: []string{"-h"}, hostArg: true},
	{use: "ping", short: "Test connectivity to a plugin host",
		bin: func(c *config.Config) string { return c.Tools.Pmplugininfo }, args: []string{"-t"}, hostArg: true},
	{use: "config", short: "Show plugin configuration",
		bin: func(c *config.Config) string { return c.Tools.Pmplugininfo }, args: []string{"-c"}},
}

func newPluginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Plugin host administration",
	}
	for _, act := range pluginActions {
		cmd.AddCommand(newAdminCmd(act))
	}
	return cmd
}
