package main

import (
	"github.com/nyrich/Safeguard-Sudo-Menu/internal/config"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pmmenu",
		Short:   "Interactive menu for Privilege Manager policy administration",
		Version: version,
		RunE:    runMenu,
	}

	cmd.PersistentFlags().String("config", config.DefaultPath, "Path to the pmmenu config file")
	cmd.PersistentFlags().String("workspace", "", "Override the policy workspace root")

	cmd.AddCommand(
		newMenuCmd(),
		newPolicyCmd(),
		newRepoCmd(),
		newServerCmd(),
		newPluginCmd(),
		newLogCmd(),
		newDoctorCmd(),
	)

	return cmd
}
