package main

import (
	"fmt"

	"github.com/nyrich/Safeguard-Sudo-Menu/internal/editor"
	"github.com/nyrich/Safeguard-Sudo-Menu/internal/oplog"
	"github.com/nyrich/Safeguard-Sudo-Menu/internal/pmtool"
	"github.com/nyrich/Safeguard-Sudo-Menu/internal/ui"
	"github.com/spf13/cobra"
)

// diagnostic is one named doctor check. run prints its own detail line(s)
// and reports pass/fail.
type diagnostic struct {
	label string
	run   func(a *app) bool
}

// diagnostics returns the checks in menu order.
func diagnostics() []diagnostic {
	return []diagnostic{
		{"Policy and log tools (pmpolicy, pmcheck, pmlog, pmreplay)", func(a *app) bool {
			ok := ui.Check(a.out, "Checking pmpolicy", pmtool.Installed(a.cfg.Tools.Pmpolicy), a.cfg.Tools.Pmpolicy)
			ok = ui.Check(a.out, "Checking pmcheck", pmtool.Installed(a.cfg.Tools.Pmcheck), a.cfg.Tools.Pmcheck) && ok
			ok = ui.Check(a.out, "Checking pmlog", pmtool.Installed(a.cfg.Tools.Pmlog), a.cfg.Tools.Pmlog) && ok
			return ui.Check(a.out, "Checking pmreplay", pmtool.Installed(a.cfg.Tools.Pmreplay), a.cfg.Tools.Pmreplay) && ok
		}},
		{"Info tools (pmsrvinfo, pmclientinfo, pmplugininfo)", func(a *app) bool {
			ok := ui.Check(a.out, "Checking pmsrvinfo", pmtool.Installed(a.cfg.Tools.Pmsrvinfo), a.cfg.Tools.Pmsrvinfo)
			ok = ui.Check(a.out, "Checking pmclientinfo", pmtool.Installed(a.cfg.Tools.Pmclientinfo), a.cfg.Tools.Pmclientinfo) && ok
			return ui.Check(a.out, "Checking pmplugininfo", pmtool.Installed(a.cfg.Tools.Pmplugininfo), a.cfg.Tools.Pmplugininfo) && ok
		}},
		{"Workspace state", func(a *app) bool {
			if !a.ws.Exists() {
				return ui.Check(a.out, "Checking workspace", true, "not checked out")
			}
			policies, err := a.ws.DiscoverPolicies()
			if err != nil {
				return ui.Check(a.out, "Checking workspace", false, err.Error())
			}
			detail := fmt.Sprintf("%s, %d custom policies", a.ws.Root(), len(policies))
			return ui.Check(a.out, "Checking workspace", true, detail)
		}},
		{"Default policy syntax", func(a *app) bool {
			if !a.ws.Exists() {
				return ui.Check(a.out, "Checking default policy", true, "skipped, no workspace")
			}
			if err := a.ws.ValidateDefault(); err != nil {
				return ui.Check(a.out, "Checking default policy", false, err.Error())
			}
			return ui.Check(a.out, "Checking default policy", true, "valid")
		}},
		{"Operation log writable", func(a *app) bool {
			l, err := oplog.Open(a.cfg.OplogPath)
			if err != nil {
				return ui.Check(a.out, "Checking operation log", false, err.Error())
			}
			_ = l.Close()
			return ui.Check(a.out, "Checking operation log", true, a.cfg.OplogPath)
		}},
		{"Editor resolvable", func(a *app) bool {
			bin := editor.Exec{Command: a.cfg.Editor}.Resolve()
			return ui.Check(a.out, "Checking editor", pmtool.Installed(bin), bin)
		}},
		{"Policy server reachable", func(a *app) bool {
			if err := a.run.MasterStatus(); err != nil {
				return ui.Check(a.out, "Checking master status", false, err.Error())
			}
			return ui.Check(a.out, "Checking master status", true, "")
		}},
	}
}

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the environment for common issues",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			return runDoctor(a)
		},
	}
}

func runDoctor(a *app) error {
	ok := true
	for _, d := range diagnostics() {
		ok = d.run(a) && ok
	}

	if ok {
		fmt.Fprintln(a.out, "\nAll checks passed.")
		a.log.Success("doctor", "all checks passed")
		return nil
	}
	fmt.Fprintln(a.out, "\nSome checks failed. See above for details.")
	a.log.Error("doctor", "one or more checks failed")
	return fmt.Errorf("doctor checks failed")
}
