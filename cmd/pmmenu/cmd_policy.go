package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/gobwas/glob"
	"github.com/nyrich/Safeguard-Sudo-Menu/internal/ui"
	"github.com/nyrich/Safeguard-Sudo-Menu/internal/workspace"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func newPolicyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Manage sudo policies in the workspace",
	}
	cmd.AddCommand(
		newPolicyCheckoutCmd(),
		newPolicyListCmd(),
		newPolicyShowCmd(),
		newPolicyCreateCmd(),
		newPolicyEditCmd(),
		newPolicyValidateCmd(),
		newPolicyAddCmd(),
		newPolicyCommitCmd(),
		newPolicyCleanCmd(),
		newPolicyStatusCmd(),
	)
	return cmd
}

// confirmOrFlag gates a mutating operation: --yes skips the prompt, a TTY
// gets the interactive confirm, and anything else must pass --yes.
// Cancelling the prompt counts as declining.
func confirmOrFlag(assumeYes bool, title string) (bool, error) {
	if assumeYes {
		return true, nil
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("confirmation required; pass --yes when not running on a terminal")
	}
	ok, err := promptConfirm(title)
	if errors.Is(err, errCancelled) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return ok, nil
}

// declined reports a declined confirmation as a normal, logged outcome.
func declined(a *app, op string) error {
	fmt.Fprintln(a.out, "Cancelled.")
	a.log.Warning(op, "declined by operator")
	return nil
}

// --- checkout ---

func newPolicyCheckoutCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Fetch a fresh policy workspace from the repository",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			assumeYes, _ := cmd.Flags().GetBool("yes")
			return policyCheckout(a, assumeYes)
		},
	}
	cmd.Flags().Bool("yes", false, "Overwrite an existing workspace without prompting")
	return cmd
}

func policyCheckout(a *app, assumeYes bool) error {
	overwrite := false
	if a.ws.Exists() {
		ok, err := confirmOrFlag(assumeYes,
			fmt.Sprintf("Workspace %s already exists. Remove it and check out fresh?", a.ws.Root()))
		if err != nil {
			return err
		}
		if !ok {
			return declined(a, "checkout")
		}
		overwrite = true
	}

	if err := a.ws.Checkout(overwrite); err != nil {
		a.log.Error("checkout", "checkout to %s failed: %v", a.ws.Root(), err)
		return err
	}
	fmt.Fprintf(a.out, "Workspace checked out to %s\n", a.ws.Root())
	a.log.Success("checkout", "workspace checked out to %s", a.ws.Root())
	return nil
}

// --- list ---

func newPolicyListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List custom policies in the workspace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			filter, _ := cmd.Flags().GetString("filter")
			asJSON, _ := cmd.Flags().GetBool("json")
			return policyList(a, filter, asJSON)
		},
	}
	cmd.Flags().String("filter", "", "Only show policies whose name matches this glob pattern")
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

func policyList(a *app, filter string, asJSON bool) error {
	policies, err := a.ws.DiscoverPolicies()
	if err != nil {
		return err
	}

	if filter != "" {
		g, err := glob.Compile(filter)
		if err != nil {
			return fmt.Errorf("invalid filter pattern %q: %w", filter, err)
		}
		kept := policies[:0]
		for _, p := range policies {
			if g.Match(p.Name) {
				kept = append(kept, p)
			}
		}
		policies = kept
	}

	if asJSON {
		enc := json.NewEncoder(a.out)
		enc.SetIndent("", "  ")
		return enc.Encode(policies)
	}

	if len(policies) == 0 {
		fmt.Fprintln(a.out, "No custom policies found.")
		return nil
	}
	tbl := ui.NewTable(a.out, "POLICY", "RULE FILE")
	for _, p := range policies {
		state := "present"
		if !p.HasRuleFile {
			state = "missing"
		}
		tbl.Row(p.Name, state)
	}
	return tbl.Flush()
}

// --- show ---

func newPolicyShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [name]",
		Short: "Print a policy's rule file (default policy when no name given)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			name := workspace.DefaultPolicyName
			if len(args) == 1 {
				name = args[0]
			}
			return policyShow(a, name)
		},
	}
}

func policyShow(a *app, name string) error {
	if !a.ws.Exists() {
		return workspace.ErrNotCheckedOut
	}
	data, err := os.ReadFile(a.ws.RuleFile(name))
	if err != nil {
		return fmt.Errorf("%w: %s", workspace.ErrNoRuleFile, a.ws.RuleFile(name))
	}
	_, err = a.out.Write(data)
	return err
}

// --- create ---

func newPolicyCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new policy from the default template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			edit, _ := cmd.Flags().GetBool("edit")
			return policyCreate(a, args[0], edit)
		},
	}
	cmd.Flags().Bool("edit", false, "Open the new rule file in the editor immediately")
	return cmd
}

func policyCreate(a *app, name string, edit bool) error {
	if err := a.ws.CreatePolicy(name); err != nil {
		a.log.Error("create", "creating policy %s: %v", name, err)
		return err
	}
	fmt.Fprintf(a.out, "Policy %q created at %s\n", name, a.ws.RuleFile(name))
	a.log.Success("create", "policy %s created", name)

	if edit {
		return policyEdit(a, name)
	}
	return nil
}

// --- edit ---

func newPolicyEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit <name>",
		Short: "Open a policy's rule file in the editor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			return policyEdit(a, args[0])
		},
	}
}

func policyEdit(a *app, name string) error {
	if !a.ws.Exists() {
		return workspace.ErrNotCheckedOut
	}
	file := a.ws.RuleFile(name)
	if _, err := os.Stat(file); err != nil {
		return fmt.Errorf("%w: %s", workspace.ErrNoRuleFile, file)
	}
	if err := a.ed.Open(file); err != nil {
		a.log.Error("edit", "editing %s: %v", name, err)
		return err
	}
	a.log.Success("edit", "policy %s edited", name)
	fmt.Fprintf(a.out, "Run 'pmmenu policy validate %s' before adding it to the server.\n", name)
	return nil
}

// --- validate ---

func newPolicyValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [name]",
		Short: "Check policy rule file syntax",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			all, _ := cmd.Flags().GetBool("all")
			if all {
				return policyValidateAll(a)
			}
			name := workspace.DefaultPolicyName
			if len(args) == 1 {
				name = args[0]
			}
			return policyValidate(a, name)
		},
	}
	cmd.Flags().Bool("all", false, "Validate every policy in the workspace")
	return cmd
}

func policyValidate(a *app, name string) error {
	var err error
	if name == workspace.DefaultPolicyName {
		err = a.ws.ValidateDefault()
	} else {
		err = a.ws.ValidatePolicy(name)
	}
	if err != nil {
		a.log.Error("validate", "policy %s: %v", name, err)
		return err
	}
	fmt.Fprintf(a.out, "Policy %q is valid.\n", name)
	a.log.Success("validate", "policy %s valid", name)
	return nil
}

func policyValidateAll(a *app) error {
	policies, err := a.ws.DiscoverPolicies()
	if err != nil {
		return err
	}

	progress := ui.NewProgress(a.out, len(policies))
	failed := 0
	for _, p := range policies {
		if err := a.ws.ValidatePolicy(p.Name); err != nil {
			progress.Step(fmt.Sprintf("%s: %v", p.Name, err))
			failed++
			continue
		}
		progress.Step(p.Name + ": valid")
	}

	if failed > 0 {
		a.log.Error("validate", "%d of %d policies failed validation", failed, len(policies))
		return fmt.Errorf("%d of %d policies failed validation", failed, len(policies))
	}
	a.log.Success("validate", "all %d policies valid", len(policies))
	return nil
}

// --- add ---

func newPolicyAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Validate and stage a policy on the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			desc, _ := cmd.Flags().GetString("desc")
			assumeYes, _ := cmd.Flags().GetBool("yes")
			return policyAdd(a, args[0], desc, assumeYes)
		},
	}
	cmd.Flags().String("desc", "", "Human-readable description of the change (required)")
	_ = cmd.MarkFlagRequired("desc")
	cmd.Flags().Bool("yes", false, "Stage without prompting")
	return cmd
}

func policyAdd(a *app, name, description string, assumeYes bool) error {
	ok, err := confirmOrFlag(assumeYes, fmt.Sprintf("Stage policy %q on the server?", name))
	if err != nil {
		return err
	}
	if !ok {
		return declined(a, "add")
	}

	if err := a.ws.AddPolicy(name, description); err != nil {
		a.log.Error("add", "staging policy %s: %v", name, err)
		return err
	}
	fmt.Fprintf(a.out, "Policy %q staged. Run 'pmmenu policy commit' to make it live.\n", name)
	a.log.Success("add", "policy %s staged (%s)", name, description)
	return nil
}

// --- commit ---

func newPolicyCommitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit staged changes to the live repository",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			assumeYes, _ := cmd.Flags().GetBool("yes")
			return policyCommit(a, assumeYes)
		},
	}
	cmd.Flags().Bool("yes", false, "Commit without prompting")
	return cmd
}

func policyCommit(a *app, assumeYes bool) error {
	ok, err := confirmOrFlag(assumeYes, "Commit staged changes to the live repository?")
	if err != nil {
		return err
	}
	if !ok {
		return declined(a, "commit")
	}

	if err := a.ws.Commit(); err != nil {
		a.log.Error("commit", "%v", err)
		return err
	}
	fmt.Fprintln(a.out, "Staged changes committed.")
	a.log.Success("commit", "staged changes committed")
	return nil
}

// --- clean ---

func newPolicyCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the policy workspace (destructive)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			assumeYes, _ := cmd.Flags().GetBool("yes")
			return policyClean(a, assumeYes)
		},
	}
	cmd.Flags().Bool("yes", false, "Remove without prompting")
	return cmd
}

func policyClean(a *app, assumeYes bool) error {
	if !a.ws.Exists() {
		ui.Warn(a.out, "Nothing to clean: %s is not checked out.", a.ws.Root())
		a.log.Warning("clean", "no workspace at %s", a.ws.Root())
		return nil
	}

	ok, err := confirmOrFlag(assumeYes,
		fmt.Sprintf("Irreversibly remove the workspace at %s?", a.ws.Root()))
	if err != nil {
		return err
	}
	if !ok {
		return declined(a, "clean")
	}

	if err := a.ws.Clean(); err != nil {
		if errors.Is(err, workspace.ErrNotCheckedOut) {
			ui.Warn(a.out, "Nothing to clean: %s is not checked out.", a.ws.Root())
			a.log.Warning("clean", "no workspace at %s", a.ws.Root())
			return nil
		}
		a.log.Error("clean", "%v", err)
		return err
	}
	fmt.Fprintf(a.out, "Workspace removed: %s\n", a.ws.Root())
	a.log.Success("clean", "workspace %s removed", a.ws.Root())
	return nil
}

// --- status ---

func newPolicyStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show workspace state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()
			return policyStatus(a)
		},
	}
}

func policyStatus(a *app) error {
	fmt.Fprintf(a.out, "Workspace root: %s\n", a.ws.Root())
	if !a.ws.Exists() {
		fmt.Fprintln(a.out, "State: not checked out")
		return nil
	}

	policies, err := a.ws.DiscoverPolicies()
	if err != nil {
		return err
	}
	hasDefault := "absent"
	if _, statErr := os.Stat(a.ws.DefaultRuleFile()); statErr == nil {
		hasDefault = "present"
	}
	fmt.Fprintln(a.out, "State: checked out")
	fmt.Fprintf(a.out, "Default policy: %s\n", hasDefault)
	fmt.Fprintf(a.out, "Custom policies: %d\n", len(policies))
	return nil
}
