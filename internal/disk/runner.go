// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package disk

import (
	"context"
	"os/exec"
)

// Runner runs an external tool and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RunnerFunc adapts a function to the [Runner] interface.
type RunnerFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

// Run implements [Runner].
func (f RunnerFunc) Run(
	ctx context.Context,
	name string,
	args ...string,
) ([]byte, error) {
	return f(ctx, name, args...)
}

// ExecRunner runs tools as child processes. They are killed if the context
// is done before they exit.
var ExecRunner = RunnerFunc(func(
	ctx context.Context,
	name string,
	args ...string,
) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
})
