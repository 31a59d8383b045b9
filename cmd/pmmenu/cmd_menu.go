package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/nyrich/Safeguard-Sudo-Menu/internal/pmtool"
	"github.com/nyrich/Safeguard-Sudo-Menu/internal/workspace"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newMenuCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Run the interactive administration menu",
		RunE:  runMenu,
	}
}

func runMenu(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return fmt.Errorf("the interactive menu requires a terminal; see 'pmmenu --help' for scriptable commands")
	}

	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	return menuLoop(a, "Privilege Manager administration", topMenu(a))
}

// menuItem is one selectable entry. run returning errCancelled goes back
// to the menu; any other error is reported and the menu continues, so no
// failure is fatal to the session.
type menuItem struct {
	label string
	run   func() error
}

func menuLoop(a *app, title string, items []menuItem) error {
	labels := make([]string, len(items))
	for i, it := range items {
		labels[i] = it.label
	}

	for {
		idx, err := promptMenu(title, labels)
		if errors.Is(err, errCancelled) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := items[idx].run(); err != nil && !errors.Is(err, errCancelled) {
			fmt.Fprintf(a.errw, "Error: %v\n", err)
		}
	}
}

func topMenu(a *app) []menuItem {
	return []menuItem{
		{"Policy management", func() error {
			return menuLoop(a, "Policy management", policyMenu(a))
		}},
		{"Repository management", func() error {
			return menuLoop(a, "Repository management", repoMenu(a))
		}},
		{"Server management", func() error {
			return menuLoop(a, "Server management", adminMenu(a, serverActions))
		}},
		{"Plugin management", func() error {
			return menuLoop(a, "Plugin management", adminMenu(a, pluginActions))
		}},
		{"Log management", func() error {
			return menuLoop(a, "Log management", logMenu(a))
		}},
		{"Diagnostics", func() error {
			return menuLoop(a, "Diagnostics", diagnosticsMenu(a))
		}},
		{"Quit", func() error {
			a.close()
			os.Exit(0)
			return nil
		}},
	}
}

// choosePolicy lets the operator pick one discovered custom policy.
func choosePolicy(a *app) (string, error) {
	policies, err := a.ws.DiscoverPolicies()
	if err != nil {
		return "", err
	}
	if len(policies) == 0 {
		return "", fmt.Errorf("no custom policies in the workspace")
	}
	names := make([]string, len(policies))
	for i, p := range policies {
		names[i] = p.Name
	}
	idx, err := promptMenu("Select a policy", names)
	if err != nil {
		return "", err
	}
	return names[idx], nil
}

func policyMenu(a *app) []menuItem {
	return []menuItem{
		{"Check out policy workspace", func() error {
			return policyCheckout(a, false)
		}},
		{"List policies", func() error {
			return policyList(a, "", false)
		}},
		{"Show policy rule file", func() error {
			name, err := choosePolicy(a)
			if err != nil {
				return err
			}
			return policyShow(a, name)
		}},
		{"Create new policy", func() error {
			name, err := promptInput("New policy name", "webservers", policyNameValidator)
			if err != nil {
				return err
			}
			edit, err := promptConfirm("Edit the new rule file now?")
			if err != nil {
				return err
			}
			return policyCreate(a, name, edit)
		}},
		{"Edit policy", func() error {
			name, err := choosePolicy(a)
			if err != nil {
				return err
			}
			return policyEdit(a, name)
		}},
		{"Edit default policy", func() error {
			return policyEdit(a, workspace.DefaultPolicyName)
		}},
		{"Validate policy", func() error {
			name, err := choosePolicy(a)
			if err != nil {
				return err
			}
			return policyValidate(a, name)
		}},
		{"Validate all policies", func() error {
			return policyValidateAll(a)
		}},
		{"Validate default policy", func() error {
			return policyValidate(a, workspace.DefaultPolicyName)
		}},
		{"Add policy to server", func() error {
			name, err := choosePolicy(a)
			if err != nil {
				return err
			}
			desc, err := promptInput("Change description", "web tier sudo rules", nonEmptyValidator("description"))
			if err != nil {
				return err
			}
			return policyAdd(a, name, desc, false)
		}},
		{"Commit staged changes", func() error {
			return policyCommit(a, false)
		}},
		{"Clean workspace", func() error {
			return policyClean(a, false)
		}},
		{"Workspace status", func() error {
			return policyStatus(a)
		}},
	}
}

func repoMenu(a *app) []menuItem {
	return []menuItem{
		{"Repository history", func() error {
			return repoLog(a)
		}},
		{"Diff revisions", func() error {
			revA, err := promptInput("First revision", "1", nonEmptyValidator("revision"))
			if err != nil {
				return err
			}
			revB, err := promptInput("Second revision", "2", nonEmptyValidator("revision"))
			if err != nil {
				return err
			}
			return repoDiff(a, revA, revB)
		}},
		{"Synchronize policy servers", func() error {
			return repoSync(a)
		}},
		{"Master status", func() error {
			return repoMasterStatus(a)
		}},
	}
}

// adminMenu maps a passthrough action table onto menu entries, prompting
// for a host where one is needed.
func adminMenu(a *app, actions []adminAction) []menuItem {
	items := make([]menuItem, len(actions))
	for i, act := range actions {
		act := act
		items[i] = menuItem{label: act.short, run: func() error {
			host := ""
			if act.hostArg {
				var err error
				host, err = promptInput("Host name", "web01.example.com", nonEmptyValidator("host"))
				if err != nil {
					return err
				}
			}
			return runAdminAction(a, act, host)
		}}
	}
	return items
}

func logMenu(a *app) []menuItem {
	search := func(f func() (pmtool.SearchFilter, string, error)) func() error {
		return func() error {
			filter, pattern, err := f()
			if err != nil {
				return err
			}
			return logSearch(a, filter, pattern)
		}
	}

	return []menuItem{
		{"Search all event logs", search(func() (pmtool.SearchFilter, string, error) {
			return pmtool.SearchFilter{}, "", nil
		})},
		{"Search by user", search(func() (pmtool.SearchFilter, string, error) {
			user, err := promptInput("User name", "alice", nonEmptyValidator("user"))
			return pmtool.SearchFilter{User: user}, "", err
		})},
		{"Search by host", search(func() (pmtool.SearchFilter, string, error) {
			host, err := promptInput("Host name", "web01", nonEmptyValidator("host"))
			return pmtool.SearchFilter{Host: host}, "", err
		})},
		{"Search by date range", search(func() (pmtool.SearchFilter, string, error) {
			after, err := promptInput("From date (YYYY-MM-DD)", "2026-08-01", nonEmptyValidator("date"))
			if err != nil {
				return pmtool.SearchFilter{}, "", err
			}
			before, err := promptInput("To date (YYYY-MM-DD)", "2026-08-27", nil)
			return pmtool.SearchFilter{After: after, Before: before}, "", err
		})},
		{"Search by command pattern", search(func() (pmtool.SearchFilter, string, error) {
			pattern, err := promptInput("Command glob pattern", "*usr/bin/vi*", nonEmptyValidator("pattern"))
			return pmtool.SearchFilter{}, pattern, err
		})},
		{"Today's events", search(func() (pmtool.SearchFilter, string, error) {
			return pmtool.SearchFilter{After: time.Now().Format("2006-01-02")}, "", nil
		})},
		{"Replay an event log", func() error {
			file, err := promptInput("Log file path", "/var/log/pm/session.log", nonEmptyValidator("log file"))
			if err != nil {
				return err
			}
			return logReplay(a, file)
		}},
	}
}

func diagnosticsMenu(a *app) []menuItem {
	checks := diagnostics()
	items := make([]menuItem, 0, len(checks)+1)
	for _, d := range checks {
		d := d
		items = append(items, menuItem{label: d.label, run: func() error {
			d.run(a)
			return nil
		}})
	}
	items = append(items, menuItem{label: "Run all diagnostics", run: func() error {
		return runDoctor(a)
	}})
	return items
}
