// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package process

import (
	"context"
	"log/slog"
	"os/exec"
)

// Process is a process started by a [Launcher].
type Process struct {
	pid  int
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// PID returns the process id.
func (p *Process) PID() int {
	return p.pid
}

// Done returns a channel that is closed once the process exited.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Err returns the exit error of the process. It must only be called after
// [Process.Done] is closed.
func (p *Process) Err() error {
	return p.err
}

// Kill sends SIGKILL to the process. It is a no-op if the process has exited
// already.
func (p *Process) Kill() error {
	select {
	case <-p.done:
		return nil
	default:
	}

	return p.cmd.Process.Kill()
}

func (p *Process) wait() {
	p.err = p.cmd.Wait()
	close(p.done)

	slog.Debug("Process exited",
		slog.Int("pid", p.pid),
		slog.Any("error", p.err))
}

// Origin tells how a [Handle] came into existence.
type Origin int

const (
	// Launched handles own the process they were created with.
	Launched Origin = iota
	// Attached handles refer to a process started elsewhere. Only its marker
	// is known.
	Attached
)

// String implements [fmt.Stringer].
func (o Origin) String() string {
	switch o {
	case Launched:
		return "launched"
	case Attached:
		return "attached"
	default:
		return "unknown"
	}
}

// Handle is a weak reference to a guest process. The process is identified
// by a marker string present in its arguments.
type Handle struct {
	origin Origin
	marker string
	proc   *Process
}

// Owned returns a [Handle] for a process started by this program.
func Owned(marker string, proc *Process) Handle {
	return Handle{
		origin: Launched,
		marker: marker,
		proc:   proc,
	}
}

// Attach returns a [Handle] for a process that is only known by its marker.
func Attach(marker string) Handle {
	return Handle{
		origin: Attached,
		marker: marker,
	}
}

// Origin returns whether the handle was launched or attached.
func (h Handle) Origin() Origin {
	return h.origin
}

// Marker returns the string identifying the process in the process table.
func (h Handle) Marker() string {
	return h.marker
}

// Process returns the owned process, if the handle was created by a launch.
func (h Handle) Process() (*Process, bool) {
	return h.proc, h.proc != nil
}

// Kill kills the owned process. It returns [ErrNotOwned] for attached
// handles.
func (h Handle) Kill() error {
	if h.proc == nil {
		return ErrNotOwned
	}

	return h.proc.Kill()
}

// Present reports whether the process still exists. An owned process that
// exited or no longer has a pid is absent, regardless of what the table
// lists. Otherwise, the process is looked up in the given table.
func (h Handle) Present(ctx context.Context, table Table) (bool, error) {
	if h.proc != nil {
		select {
		case <-h.proc.Done():
			return false, nil
		default:
		}

		if !Alive(h.proc.pid) {
			return false, nil
		}
	}

	entries, err := Find(ctx, table, h.marker)
	if err != nil {
		return false, err
	}

	return len(entries) > 0, nil
}
