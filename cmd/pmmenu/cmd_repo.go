package main

import (
	"github.com/spf13/cobra"
)

func newRepoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repo",
		Short: "Policy repository operations",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "log",
			Short: "Show the repository change history",
			RunE:  repoRunE(repoLog),
		},
		&cobra.Command{
			Use:   "diff <revA> <revB>",
			Short: "Show differences between two repository revisions",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				a, err := newApp(cmd)
				if err != nil {
					return err
				}
				defer a.close()
				return repoDiff(a, args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "sync",
			Short: "Synchronize the policy servers",
			RunE:  repoRunE(repoSync),
		},
		&cobra.Command{
			Use:   "masterstatus",
			Short: "Report the master policy server state",
			RunE:  repoRunE(repoMasterStatus),
		},
	)
	return cmd
}

// repoRunE adapts a zero-argument repository action to cobra.
func repoRunE(fn func(*app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.close()
		return fn(a)
	}
}

func repoLog(a *app) error {
	if err := a.run.Log(); err != nil {
		a.log.Error("repo-log", "%v", err)
		return err
	}
	a.log.Success("repo-log", "repository history shown")
	return nil
}

func repoDiff(a *app, revA, revB string) error {
	if err := a.run.Diff(revA, revB); err != nil {
		a.log.Error("repo-diff", "diff %s %s: %v", revA, revB, err)
		return err
	}
	a.log.Success("repo-diff", "diff %s %s shown", revA, revB)
	return nil
}

func repoSync(a *app) error {
	if err := a.run.Sync(); err != nil {
		a.log.Error("repo-sync", "%v", err)
		return err
	}
	a.log.Success("repo-sync", "policy servers synchronized")
	return nil
}

func repoMasterStatus(a *app) error {
	if err := a.run.MasterStatus(); err != nil {
		a.log.Error("repo-masterstatus", "%v", err)
		return err
	}
	a.log.Success("repo-masterstatus", "master status shown")
	return nil
}
