// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"github.com/aibor/vmctl/internal/ports"
	"github.com/aibor/vmctl/internal/process"
	"github.com/aibor/vmctl/internal/qemu"
	"github.com/aibor/vmctl/internal/qmp"
)

// Guest is a running guest as returned by [Controller.Start] and
// [Controller.Attach].
//
// Guest is not safe for concurrent use. Different guests can be used
// concurrently.
type Guest struct {
	spec   qemu.GuestSpec
	ports  ports.Set
	handle process.Handle
	state  State
	client *qmp.Client
	table  process.Table
	config Config
}

// Spec returns the spec the guest was started with. For attached guests only
// the id is set.
func (g *Guest) Spec() qemu.GuestSpec {
	return g.spec
}

// ID returns the guest id.
func (g *Guest) ID() uint {
	return g.spec.ID
}

// Ports returns the host ports of the guest.
func (g *Guest) Ports() ports.Set {
	return g.ports
}

// State returns the current lifecycle state.
func (g *Guest) State() State {
	return g.state
}

// Handle returns the reference to the guest's process.
func (g *Guest) Handle() process.Handle {
	return g.handle
}

// Status queries the run state of the guest.
func (g *Guest) Status(ctx context.Context) (qmp.Status, error) {
	err := g.requireRunning()
	if err != nil {
		return qmp.Status{}, g.error("status", err)
	}

	status, err := qmp.QueryStatus(ctx, g.client)
	if err != nil {
		return qmp.Status{}, g.error("status", err)
	}

	return status, nil
}

// Quit stops the guest immediately and waits for its process to disappear
// from the process table.
//
// If the process is still present after the shutdown retry budget, a
// [ShutdownTimeoutError] is returned and the guest stays [Running], as it is
// unknown whether it will go away eventually.
func (g *Guest) Quit(ctx context.Context) error {
	err := g.requireRunning()
	if err != nil {
		return g.error("quit", err)
	}

	g.state = ShuttingDown

	err = qmp.Quit(ctx, g.client)
	if err != nil {
		g.state = Running
		return g.error("quit", err)
	}

	err = g.awaitExit(ctx)
	if err != nil {
		g.state = Running
		return g.error("quit", err)
	}

	g.state = Stopped

	slog.Info("Guest stopped", slog.Uint64("guest", uint64(g.spec.ID)))

	return nil
}

// PowerDown requests a graceful shutdown. It does not wait for the guest to
// shut down.
func (g *Guest) PowerDown(ctx context.Context) error {
	err := g.requireRunning()
	if err != nil {
		return g.error("power down", err)
	}

	err = qmp.SystemPowerdown(ctx, g.client)
	if err != nil {
		return g.error("power down", err)
	}

	return nil
}

// SetDisplayPassword sets the password of the VNC display.
func (g *Guest) SetDisplayPassword(ctx context.Context, password string) error {
	err := g.requireRunning()
	if err != nil {
		return g.error("set display password", err)
	}

	err = qmp.ChangeVNCPassword(ctx, g.client, password)
	if err != nil {
		return g.error("set display password", err)
	}

	return nil
}

// Description is the guest's view of its hardware.
type Description struct {
	Name      string
	Target    string
	Status    qmp.Status
	KVM       qmp.KVM
	MemoryMB  uint64
	CPUs      int
	Disk      string
	Installer string
	Display   string
}

// Describe queries the guest's hardware in a single control channel session.
func (g *Guest) Describe(ctx context.Context) (Description, error) {
	err := g.requireRunning()
	if err != nil {
		return Description{}, g.error("describe", err)
	}

	session, err := g.client.Open(ctx)
	if err != nil {
		return Description{}, g.error("describe", err)
	}
	defer session.Close()

	desc, err := describe(ctx, session)
	if err != nil {
		return Description{}, g.error("describe", err)
	}

	return desc, nil
}

func describe(ctx context.Context, executor qmp.Executor) (Description, error) {
	var (
		desc Description
		err  error
	)

	desc.Name, err = qmp.QueryName(ctx, executor)
	if err != nil {
		return desc, err
	}

	desc.Target, err = qmp.QueryTarget(ctx, executor)
	if err != nil {
		return desc, err
	}

	desc.Status, err = qmp.QueryStatus(ctx, executor)
	if err != nil {
		return desc, err
	}

	desc.KVM, err = qmp.QueryKVM(ctx, executor)
	if err != nil {
		return desc, err
	}

	memory, err := qmp.QueryMemorySizeSummary(ctx, executor)
	if err != nil {
		return desc, err
	}

	desc.MemoryMB = memory.BaseMemoryMB()

	cpus, err := qmp.QueryCPUsFast(ctx, executor)
	if err != nil {
		return desc, err
	}

	desc.CPUs = len(cpus)

	blocks, err := qmp.QueryBlock(ctx, executor)
	if err != nil {
		return desc, err
	}

	for _, block := range blocks {
		if block.Inserted == nil {
			continue
		}

		switch {
		case block.Removable && desc.Installer == "":
			desc.Installer = block.Inserted.File
		case strings.HasPrefix(block.Device, "virtio") && desc.Disk == "":
			desc.Disk = block.Inserted.File
		}
	}

	vnc, err := qmp.QueryVNC(ctx, executor)
	if err != nil {
		return desc, err
	}

	if vnc.Enabled {
		desc.Display = net.JoinHostPort(vnc.Host, vnc.Service)
	}

	return desc, nil
}

func (g *Guest) awaitExit(ctx context.Context) error {
	policy := g.config.Shutdown
	attempts := policy.attempts()

	for attempt := 1; attempt <= attempts; attempt++ {
		present, err := g.handle.Present(ctx, g.table)
		if err != nil {
			return err
		}

		if !present {
			return nil
		}

		if attempt < attempts {
			sleepErr := g.config.sleep(ctx, policy.Interval)
			if sleepErr != nil {
				return sleepErr
			}
		}
	}

	return &ShutdownTimeoutError{
		Marker:   g.handle.Marker(),
		Attempts: attempts,
	}
}

func (g *Guest) requireRunning() error {
	if g.state.Final() {
		return fmt.Errorf("%w: %w: %s", ErrInvalidState, ErrProcessExited, g.state)
	}

	if g.state != Running {
		return fmt.Errorf("%w: %s", ErrInvalidState, g.state)
	}

	return nil
}

func (g *Guest) error(op string, err error) error {
	return &Error{ID: g.spec.ID, Op: op, Err: err}
}
