package main

import (
	"github.com/nyrich/Safeguard-Sudo-Menu/internal/config"
	"github.com/spf13/cobra"
)

// adminAction is one thin passthrough to an administration binary. Actions
// taking hostArg append a hostname supplied by the operator.
type adminAction struct {
	use     string
	short   string
	bin     func(*config.Config) string
	args    []string
	hostArg bool
}

// serverActions are the server-management menu entries, in menu order.
var serverActions = []adminAction{
	{use: "status", short: "Show policy server status",
		bin: func(c *config.Config) string { return c.Tools.Pmsrvinfo }},
	{use: "version", short: "Show policy server version",
		bin: func(c *config.Config) string { return c.Tools.Pmsrvinfo }, args: []string{"-v"}},
	{use: "license", short: "Show license information",
		bin: func(c *config.Config) string { return c.Tools.Pmsrvinfo }, args: []string{"-l"}},
	{use: "servers", short: "List policy servers",
		bin: func(c *config.Config) string { return c.Tools.Pmsrvinfo }, args: []string{"-s"}},
	{use: "config", short: "Show server configuration",
		bin: func(c *config.Config) string { return c.Tools.Pmsrvinfo }, args: []string{"-c"}},
	{use: "masterstatus", short: "Report master policy server state",
		bin: func(c *config.Config) string { return c.Tools.Pmpolicy }, args: []string{"masterstatus"}},
	{use: "sync", short: "Synchronize policy servers",
		bin: func(c *config.Config) string { return c.Tools.Pmpolicy }, args: []string{"sync"}},
	{use: "clients", short: "List joined clients",
		bin: func(c *config.Config) string { return c.Tools.Pmclientinfo }, args: []string{"-l"}},
	{use: "client", short: "Show details for a client host",
		bin: func(c *config.Config) string { return c.Tools.Pmclientinfo }, args: []string{"-h"}, hostArg: true},
	{use: "ping", short: "Test connectivity to a client host",
		bin: func(c *config.Config) string { return c.Tools.Pmclientinfo }, args: []string{"-t"}, hostArg: true},
	{use: "history", short: "Show repository change history",
		bin: func(c *config.Config) string { return c.Tools.Pmpolicy }, args: []string{"log"}},
}

func newServerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Policy server administration",
	}
	for _, act := range serverActions {
		cmd.AddCommand(newAdminCmd(act))
	}
	return cmd
}

// newAdminCmd builds a cobra subcommand from an adminAction.
func newAdminCmd(act adminAction) *cobra.Command {
	use := act.use
	nargs := cobra.NoArgs
	if act.hostArg {
		use += " <host>"
		nargs = cobra.ExactArgs(1)
	}
	return &cobra.Command{
		Use:   use,
		Short: act.short,
		Args:  nargs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			host := ""
			if act.hostArg {
				host = args[0]
			}
			return runAdminAction(a, act, host)
		},
	}
}

// runAdminAction executes one passthrough and records the outcome.
func runAdminAction(a *app, act adminAction, host string) error {
	args := append([]string{}, act.args...)
	if act.hostArg {
		args = append(args, host)
	}
	if err := a.run.Run("", act.bin(a.cfg), args...); err != nil {
		a.log.Error(act.use, "%v", err)
		return err
	}
	a.log.Success(act.use, "%s completed", act.short)
	return nil
}
