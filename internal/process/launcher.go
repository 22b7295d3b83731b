// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package process

import (
	"io"
	"log/slog"
	"os/exec"
	"syscall"

	"github.com/aibor/vmctl/internal/qemu"
)

// Launcher starts commands as detached processes.
type Launcher struct {
	// Stdout and Stderr of the started process. If not set, output is
	// discarded.
	Stdout io.Writer
	Stderr io.Writer
}

// Launch starts the given command in a new session, so it is neither bound to
// the caller's context nor to its controlling terminal. It does not wait for
// the process to exit. The process is reaped in the background once it exits.
func (l *Launcher) Launch(cmd qemu.Command) (*Process, error) {
	args, err := cmd.Strings()
	if err != nil {
		return nil, &LaunchError{Executable: cmd.Executable, Err: err}
	}

	execCmd := exec.Command(cmd.Executable, args...)
	execCmd.Stdout = l.Stdout
	execCmd.Stderr = l.Stderr
	execCmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	err = execCmd.Start()
	if err != nil {
		return nil, &LaunchError{Executable: cmd.Executable, Err: err}
	}

	proc := &Process{
		pid:  execCmd.Process.Pid,
		cmd:  execCmd,
		done: make(chan struct{}),
	}

	slog.Debug("Process started",
		slog.String("executable", cmd.Executable),
		slog.Int("pid", proc.pid))

	go proc.wait()

	return proc, nil
}
