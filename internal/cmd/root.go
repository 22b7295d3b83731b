// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/aibor/vmctl/internal/disk"
	"github.com/aibor/vmctl/internal/guest"
	"github.com/spf13/cobra"
)

const rootLong = `vmctl manages local QEMU guests.

Every guest is identified by a numeric id from 0 to 999. All host ports of a
guest are derived from its id:

    control channel (QMP)  51000 + id
    SSH forward            52000 + id
    VNC display            5900 + id

Guests keep running after vmctl exits. Later invocations find them by id.
`

// app holds the state shared by all subcommands of a single invocation.
type app struct {
	io     IO
	config guest.Config

	newController func(config guest.Config) *guest.Controller
	newDisks      func() *disk.Manager

	debug   bool
	logJSON bool
}

func newApp(cfg IO) *app {
	return &app{
		io:     cfg,
		config: guest.DefaultConfig(),
		newController: func(config guest.Config) *guest.Controller {
			controller := guest.NewController()
			controller.Disks = newDiskManager()
			controller.Config = config

			return controller
		},
		newDisks: newDiskManager,
	}
}

func newDiskManager() *disk.Manager {
	manager := disk.NewManager()
	manager.Tool = ImageTool()

	return manager
}

func (a *app) controller() *guest.Controller {
	return a.newController(a.config)
}

func (a *app) run(ctx context.Context, args []string) int {
	root := a.newRootCmd()
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err != nil {
		if errors.Is(err, &ParseArgsError{}) {
			return handleParseArgsError(err, a.io.Stderr)
		}

		return handleRunError(err)
	}

	return 0
}

func (a *app) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "vmctl",
		Short:         "Manage local QEMU guests",
		Long:          rootLong,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRun: func(*cobra.Command, []string) {
			setupLogging(a.io.Stderr, a.debug, a.logJSON)
		},
	}

	root.SetIn(a.io.Stdin)
	root.SetOut(a.io.Stdout)
	root.SetErr(a.io.Stderr)

	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &ParseArgsError{msg: cmd.CommandPath(), err: err}
	})

	flags := root.PersistentFlags()

	flags.BoolVar(
		&a.debug,
		"debug",
		false,
		"enable debug output",
	)

	flags.BoolVar(
		&a.logJSON,
		"log-json",
		false,
		"write log lines as JSON",
	)

	flags.Var(
		&a.config.Drain,
		"drain",
		"QMP reply drain mode (line, quiescence)",
	)

	flags.DurationVar(
		&a.config.QMPReplyTimeout,
		"qmp-timeout",
		a.config.QMPReplyTimeout,
		"timeout for a single QMP reply",
	)

	flags.Var(
		newRangeValue(&a.config.Boot.Attempts, bootAttemptsMin, bootAttemptsMax),
		"boot-attempts",
		"control channel connection attempts after launch",
	)

	flags.StringVar(
		&a.config.DisplayPassword,
		"display-password",
		a.config.DisplayPassword,
		"VNC display password set after launch",
	)

	root.AddCommand(
		a.newStartCmd("up", guest.FlowRun),
		a.newStartCmd("install", guest.FlowInstall),
		a.newStatusCmd(),
		a.newInfoCmd(),
		a.newQuitCmd(),
		a.newPowerDownCmd(),
		a.newPasswordCmd(),
		a.newPortsCmd(),
		a.newListCmd(),
		a.newDiskCmd(),
		a.newExecCmd(),
		a.newKeygenCmd(),
		a.newVersionCmd(),
	)

	return root
}

func (a *app) newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			buildInfo, err := getBuildInfo()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\n", buildInfo.Main.Version)

			return nil
		},
	}
}

// exactArgs is [cobra.ExactArgs] with errors reported as [ParseArgsError].
func exactArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.ExactArgs(n))
}

// minArgs is [cobra.MinimumNArgs] with errors reported as [ParseArgsError].
func minArgs(n int) cobra.PositionalArgs {
	return wrapArgs(cobra.MinimumNArgs(n))
}

func wrapArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		err := check(cmd, args)
		if err != nil {
			return &ParseArgsError{msg: cmd.CommandPath(), err: err}
		}

		return nil
	}
}
