// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"

	"github.com/aibor/vmctl/internal/guest"
	"github.com/aibor/vmctl/internal/qmp"
	"github.com/aibor/vmctl/internal/remote"
	"github.com/spf13/pflag"
)

// IO provides input and output details for the command.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func handleParseArgsError(err error, stderr io.Writer) int {
	// [pflag.ErrHelp] is returned when help is requested. So exit without
	// error in this case.
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}

	fmt.Fprintf(stderr, "Error: %v\nRun 'vmctl --help' for usage.\n", err)

	return 2
}

func handleRunError(err error) int {
	exitCode := 1

	// The remote command already wrote its output. Pass its exit status
	// through without printing anything else.
	var exitErr *remote.ExitError
	if errors.As(err, &exitErr) && exitErr.Status > 0 {
		return exitErr.Status
	}

	var unavailableErr *qmp.ChannelUnavailableError
	if errors.As(err, &unavailableErr) {
		slog.Warn(
			"control channel not reachable, is the guest running?",
			slog.String("addr", unavailableErr.Addr),
		)

		exitCode = 3
	}

	var timeoutErr *guest.ShutdownTimeoutError
	if errors.As(err, &timeoutErr) {
		exitCode = 4
	}

	slog.Error(err.Error())

	return exitCode
}

// Run is the main entry point for the CLI command.
func Run(ctx context.Context, args []string, cfg IO) int {
	return newApp(cfg).run(ctx, args)
}

func getBuildInfo() (*debug.BuildInfo, error) {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return nil, ErrReadBuildInfo
	}

	return buildInfo, nil
}
