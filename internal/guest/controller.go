// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aibor/vmctl/internal/disk"
	"github.com/aibor/vmctl/internal/ports"
	"github.com/aibor/vmctl/internal/process"
	"github.com/aibor/vmctl/internal/qemu"
	"github.com/aibor/vmctl/internal/qmp"
	"github.com/aibor/vmctl/internal/sys"
)

// DiskProvisioner creates boot disks.
type DiskProvisioner interface {
	CreateBase(ctx context.Context, path string, sizeGB uint64) error
	CreateLinkedClone(ctx context.Context, path, basePath string) error
}

// Launcher starts QEMU processes.
type Launcher interface {
	Launch(cmd qemu.Command) (*process.Process, error)
}

// Controller starts guests and attaches to running ones.
type Controller struct {
	Disks    DiskProvisioner
	Launcher Launcher
	Table    process.Table
	Accel    sys.AccelProbe
	Ports    ports.Scheme

	// Exists reports whether the boot disk exists already. Defaults to
	// [disk.Exists].
	Exists func(path string) bool

	// Dial returns the QMP client for the given control port. If not set, a
	// client for localhost is created from the [Config].
	Dial func(port int) *qmp.Client

	Config Config
}

// NewController returns a [Controller] for the host.
func NewController() *Controller {
	return &Controller{
		Disks:    disk.NewManager(),
		Launcher: &process.Launcher{},
		Table:    process.PSTable{},
		Accel:    sys.HostAccel,
		Ports:    ports.DefaultScheme,
		Exists:   disk.Exists,
		Config:   DefaultConfig(),
	}
}

// Provision ensures the boot disk of the guest exists. With [FlowInstall] an
// empty base image is created, with [FlowRun] a linked clone of the spec's
// base image. Nothing is done if the boot disk exists already.
func (c *Controller) Provision(ctx context.Context, spec qemu.GuestSpec, flow Flow) error {
	err := c.provision(ctx, spec, flow)
	if err != nil {
		return &Error{ID: spec.ID, Op: "provision", Err: err}
	}

	return nil
}

// Start provisions the boot disk, launches the guest and waits for its
// control channel. Once the channel is up, the display password is set and
// the guest is confirmed to be running.
//
// If the guest fails after its process has been launched, the process is
// killed and the guest is returned in state [Terminated] along with the
// error. Otherwise, no guest is returned on error.
func (c *Controller) Start(ctx context.Context, spec qemu.GuestSpec, flow Flow) (*Guest, error) {
	wrap := func(err error) error {
		return &Error{ID: spec.ID, Op: "start", Err: err}
	}

	err := spec.Validate()
	if err != nil {
		return nil, wrap(err)
	}

	guest := c.newGuest(spec, process.Handle{})

	err = c.provision(ctx, spec, flow)
	if err != nil {
		return nil, wrap(err)
	}

	guest.state = DiskReady

	cmd, err := qemu.Build(spec, guest.ports, c.accel())
	if err != nil {
		return nil, wrap(err)
	}

	guest.state = Launching

	slog.Debug("Launch guest",
		slog.Uint64("guest", uint64(spec.ID)),
		slog.String("command", cmd.String()))

	proc, err := c.Launcher.Launch(cmd)
	if err != nil {
		return nil, wrap(err)
	}

	guest.handle = process.Owned(qemu.ProcessMarker(spec.ID), proc)
	guest.state = AwaitingChannel

	err = c.awaitReady(ctx, guest, proc)
	if err != nil {
		terminate(guest)
		return guest, wrap(err)
	}

	guest.state = Running

	slog.Info("Guest running",
		slog.Uint64("guest", uint64(spec.ID)),
		slog.Int("pid", proc.PID()),
		slog.Int("control_port", guest.ports.Control))

	return guest, nil
}

// Attach returns a [Guest] for a guest started by an earlier invocation. As
// all ports and the process marker are derived from the guest id, the id is
// all that is needed. The control channel must be reachable. It is not
// retried.
func (c *Controller) Attach(ctx context.Context, id uint) (*Guest, error) {
	wrap := func(err error) error {
		return &Error{ID: id, Op: "attach", Err: err}
	}

	if id > ports.MaxGuestID {
		return nil, wrap(fmt.Errorf("%w: %d > %d",
			qemu.ErrGuestIDOutOfRange, id, ports.MaxGuestID))
	}

	spec := qemu.GuestSpec{ID: id}

	guest := c.newGuest(spec, process.Attach(qemu.ProcessMarker(id)))
	guest.state = AwaitingChannel

	_, err := qmp.QueryStatus(ctx, guest.client)
	if err != nil {
		return nil, wrap(err)
	}

	guest.state = Running

	return guest, nil
}

// List returns all guests present in the process table.
func (c *Controller) List(ctx context.Context) ([]Listing, error) {
	return List(ctx, c.Table, c.scheme())
}

func (c *Controller) provision(ctx context.Context, spec qemu.GuestSpec, flow Flow) error {
	exists := c.Exists
	if exists == nil {
		exists = disk.Exists
	}

	if exists(spec.BootDisk) {
		slog.Debug("Boot disk exists",
			slog.Uint64("guest", uint64(spec.ID)),
			slog.String("path", spec.BootDisk))

		return nil
	}

	switch flow {
	case FlowInstall:
		return c.Disks.CreateBase(ctx, spec.BootDisk, spec.DiskSizeGB)
	case FlowRun:
		if spec.BaseImage == "" {
			return ErrNoBaseImage
		}

		return c.Disks.CreateLinkedClone(ctx, spec.BootDisk, spec.BaseImage)
	default:
		return fmt.Errorf("%w: %d", ErrUnknownFlow, flow)
	}
}

// awaitReady polls the control channel until it accepts a session. Only
// [qmp.ChannelUnavailableError] is retried. On the first session the display
// password is set and the run state is checked.
func (c *Controller) awaitReady(ctx context.Context, guest *Guest, proc *process.Process) error {
	session, err := c.awaitChannel(ctx, guest, proc)
	if err != nil {
		return err
	}
	defer session.Close()

	slog.Debug("Control channel ready",
		slog.Uint64("guest", uint64(guest.spec.ID)),
		slog.String("qemu", session.Greeting().Version.QEMU.String()))

	err = qmp.ChangeVNCPassword(ctx, session, c.Config.DisplayPassword)
	if err != nil {
		return err
	}

	status, err := qmp.QueryStatus(ctx, session)
	if err != nil {
		return err
	}

	if !status.Running {
		return fmt.Errorf("%w: %s", ErrNotRunning, status.Status)
	}

	return nil
}

func (c *Controller) awaitChannel(
	ctx context.Context,
	guest *Guest,
	proc *process.Process,
) (*qmp.Session, error) {
	policy := c.Config.Boot
	attempts := policy.attempts()

	slog.Debug("Await control channel",
		slog.Uint64("guest", uint64(guest.spec.ID)),
		slog.Int("port", guest.ports.Control),
		slog.Duration("budget", policy.Budget()))

	var lastErr error

	for attempt := 1; attempt <= attempts; attempt++ {
		select {
		case <-proc.Done():
			return nil, processExitedError(proc)
		default:
		}

		session, err := guest.client.Open(ctx)
		if err == nil {
			return session, nil
		}

		if !errors.Is(err, &qmp.ChannelUnavailableError{}) {
			return nil, err
		}

		lastErr = err

		slog.Debug("Control channel not ready",
			slog.Uint64("guest", uint64(guest.spec.ID)),
			slog.Int("attempt", attempt),
			slog.Any("error", err))

		if attempt < attempts {
			sleepErr := c.Config.sleep(ctx, policy.Interval)
			if sleepErr != nil {
				return nil, sleepErr
			}
		}
	}

	return nil, &BootTimeoutError{Attempts: attempts, Err: lastErr}
}

func (c *Controller) newGuest(spec qemu.GuestSpec, handle process.Handle) *Guest {
	portSet := c.scheme().For(spec.ID)

	return &Guest{
		spec:   spec,
		ports:  portSet,
		handle: handle,
		state:  Unprovisioned,
		client: c.client(portSet.Control),
		table:  c.table(),
		config: c.Config,
	}
}

func (c *Controller) client(port int) *qmp.Client {
	if c.Dial != nil {
		return c.Dial(port)
	}

	client := qmp.NewClient(port)
	client.Drain = c.Config.Drain

	if c.Config.QMPReplyTimeout > 0 {
		client.ReplyTimeout = c.Config.QMPReplyTimeout
	}

	if c.Config.QuiescenceWindow > 0 {
		client.QuiescenceWindow = c.Config.QuiescenceWindow
	}

	return client
}

func (c *Controller) scheme() ports.Scheme {
	if c.Ports == (ports.Scheme{}) {
		return ports.DefaultScheme
	}

	return c.Ports
}

func (c *Controller) table() process.Table {
	if c.Table == nil {
		return process.PSTable{}
	}

	return c.Table
}

func (c *Controller) accel() sys.AccelProbe {
	if c.Accel == nil {
		return sys.NoAccel
	}

	return c.Accel
}

func processExitedError(proc *process.Process) error {
	exitErr := proc.Err()
	if exitErr == nil {
		return ErrProcessExited
	}

	return fmt.Errorf("%w: %w", ErrProcessExited, exitErr)
}

func terminate(guest *Guest) {
	guest.state = Terminated

	err := guest.handle.Kill()
	if err != nil {
		slog.Warn("Kill guest process",
			slog.Uint64("guest", uint64(guest.spec.ID)),
			slog.String("marker", guest.handle.Marker()),
			slog.Any("error", err))

		return
	}

	if proc, ok := guest.handle.Process(); ok {
		<-proc.Done()
	}
}
