// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"strconv"
	"strings"

	"github.com/aibor/vmctl/internal/ports"
	"github.com/aibor/vmctl/internal/sys"
)

// guestSSHPort is the port sshd listens on in the guest.
const guestSSHPort = 22

// Command is a complete QEMU invocation.
type Command struct {
	// Executable is the name or path of the qemu-system binary.
	Executable string

	// Args are the arguments in the order they are passed.
	Args []Argument
}

// Strings compiles the flat argument list. It fails if any unique argument
// is present more than once.
func (c Command) Strings() ([]string, error) {
	return BuildArgumentStrings(c.Args)
}

// String implements [fmt.Stringer].
func (c Command) String() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, c.Executable)

	for _, arg := range c.Args {
		parts = append(parts, arg.String())
	}

	return strings.Join(parts, " ")
}

// Build returns the [Command] for the given guest.
//
// Hardware acceleration is enabled only if the accel probe reports an
// accelerator for the guest architecture. The control channel, VNC display
// and SSH forward are bound to the given ports.
func Build(spec GuestSpec, set ports.Set, accel sys.AccelProbe) (Command, error) {
	err := spec.Validate()
	if err != nil {
		return Command{}, err
	}

	preset, err := presetFor(spec.Arch)
	if err != nil {
		return Command{}, err
	}

	args := []Argument{
		UniqueArg("name", spec.Name, ProcessMarker(spec.ID)),
		UniqueArg("machine", preset.machine),
	}

	if preset.cpu != "" {
		args = append(args, UniqueArg("cpu", preset.cpu))
	}

	if name, ok := accel.Accelerator(spec.Arch); ok {
		args = append(args, UniqueArg("accel", name))
	}

	args = append(args,
		UniqueArg("m", strconv.FormatUint(spec.MemoryMB, 10)),
		UniqueArg("smp", strconv.FormatUint(spec.CPUs, 10)),
		UniqueArg("rtc", "base=localtime"),
	)

	args = append(args, preset.firmware(&spec)...)
	args = append(args, Drive(
		"if=virtio",
		"format=qcow2",
		"file="+spec.BootDisk,
		"discard=on",
	))

	if spec.Installer != "" {
		args = append(args, preset.cdrom(spec.Installer)...)
		args = append(args, UniqueArg("boot", "order=dc"))
	} else {
		args = append(args, UniqueArg("boot", "order=c"))
	}

	args = append(args, preset.devices...)

	for _, dev := range spec.USB {
		args = append(args, Device("usb-host",
			"vendorid="+dev.VendorID,
			"productid="+dev.ProductID,
			"id="+dev.InstanceName(),
		))
	}

	args = append(args, networkArgs(spec.PortForwards, set.SSH)...)

	if spec.SharedDir != "" {
		args = append(args, RepeatableArg("virtfs",
			"local",
			"path="+spec.SharedDir,
			"security_model=mapped-xattr",
			"mount_tag=CWD",
		))
	}

	args = append(args,
		// QMP control channel.
		RepeatableArg("chardev",
			"socket",
			"id=mon0",
			"host=localhost",
			"port="+strconv.Itoa(set.Control),
			"server=on",
			"wait=off",
		),
		RepeatableArg("mon", "chardev=mon0", "mode=control"),
		// Password is set via QMP once the guest is up.
		UniqueArg("vnc",
			"localhost:"+strconv.Itoa(set.DisplayIndex),
			"password=on",
		),
		// No local window, the display is only reachable via VNC.
		UniqueArg("display", "none"),
	)

	return Command{
		Executable: preset.executable,
		Args:       args,
	}, nil
}

// networkArgs returns a single user mode network backend with all host
// forwards concatenated. The SSH forward comes first.
func networkArgs(forwards []PortForward, sshPort int) []Argument {
	netdev := []string{"user", "id=net0"}

	all := make([]PortForward, 0, len(forwards)+1)
	all = append(all, PortForward{Host: uint16(sshPort), Guest: guestSSHPort})
	all = append(all, forwards...)

	for _, fwd := range all {
		netdev = append(netdev, fwd.hostForward())
	}

	return []Argument{
		Device("virtio-net-pci", "netdev=net0"),
		UniqueArg("netdev", netdev...),
	}
}
