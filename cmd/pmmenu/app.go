package main

import (
	"fmt"
	"io"

	"github.com/nyrich/Safeguard-Sudo-Menu/internal/config"
	"github.com/nyrich/Safeguard-Sudo-Menu/internal/editor"
	"github.com/nyrich/Safeguard-Sudo-Menu/internal/oplog"
	"github.com/nyrich/Safeguard-Sudo-Menu/internal/pmtool"
	"github.com/nyrich/Safeguard-Sudo-Menu/internal/workspace"
	"github.com/spf13/cobra"
)

// app bundles the loaded config and collaborators for one invocation.
type app struct {
	cfg  *config.Config
	run  *pmtool.Runner
	ws   *workspace.Manager
	log  *oplog.Logger
	ed   editor.Editor
	out  io.Writer
	errw io.Writer
}

// newApp loads the config, applies flag overrides, and wires the runner,
// workspace manager, editor, and operation log. A log that cannot be
// opened degrades to a warning; every other operation keeps working.
func newApp(cmd *cobra.Command) (*app, error) {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if root, _ := cmd.Flags().GetString("workspace"); root != "" {
		cfg.WorkspaceRoot = root
	}

	runner := pmtool.New(cfg.Tools)
	runner.Stdout = cmd.OutOrStdout()
	runner.Stderr = cmd.ErrOrStderr()

	a := &app{
		cfg:  cfg,
		run:  runner,
		ws:   workspace.New(cfg.WorkspaceRoot, runner, runner, cfg.ValidatorMode),
		ed:   editor.Exec{Command: cfg.Editor},
		out:  cmd.OutOrStdout(),
		errw: cmd.ErrOrStderr(),
	}

	logger, err := oplog.Open(cfg.OplogPath)
	if err != nil {
		fmt.Fprintf(a.errw, "Warning: operation log unavailable: %v\n", err)
	} else {
		a.log = logger
	}

	return a, nil
}

func (a *app) close() {
	_ = a.log.Close()
}
