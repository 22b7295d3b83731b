// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aibor/vmctl/internal/ports"
	"github.com/aibor/vmctl/internal/qemu"
	"github.com/aibor/vmctl/internal/sys"
	"github.com/spf13/pflag"
)

const (
	memDefault = 1024
	memMin     = 128
	memMax     = 65536

	smpDefault = 1
	smpMin     = 1
	smpMax     = 64

	diskSizeDefault = 40
	diskSizeMin     = 1
	diskSizeMax     = 16384

	bootAttemptsMin = 1
	bootAttemptsMax = 1000
)

// ErrInvalidUSBDevice is returned for malformed USB device flag values.
var ErrInvalidUSBDevice = errors.New("usb device must be vendor:product:name")

// usbDevicesValue collects repeated "vendor:product:name" values.
type usbDevicesValue struct {
	devices *[]qemu.USBDevice
}

func (v usbDevicesValue) String() string {
	if v.devices == nil {
		return ""
	}

	strs := make([]string, len(*v.devices))
	for idx, dev := range *v.devices {
		strs[idx] = dev.VendorID + ":" + dev.ProductID + ":" + dev.Name
	}

	return strings.Join(strs, ",")
}

func (v usbDevicesValue) Set(s string) error {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return fmt.Errorf("%w: %s", ErrInvalidUSBDevice, s)
	}

	*v.devices = append(*v.devices, qemu.USBDevice{
		VendorID:  parts[0],
		ProductID: parts[1],
		Name:      parts[2],
	})

	return nil
}

func (usbDevicesValue) Type() string {
	return "usb"
}

// portForwardsValue collects repeated "host:guest" values.
type portForwardsValue struct {
	forwards *[]qemu.PortForward
}

func (v portForwardsValue) String() string {
	if v.forwards == nil {
		return ""
	}

	strs := make([]string, len(*v.forwards))
	for idx, fwd := range *v.forwards {
		strs[idx] = fwd.String()
	}

	return strings.Join(strs, ",")
}

func (v portForwardsValue) Set(s string) error {
	var fwd qemu.PortForward

	err := fwd.Set(s)
	if err != nil {
		return err
	}

	*v.forwards = append(*v.forwards, fwd)

	return nil
}

func (portForwardsValue) Type() string {
	return "forward"
}

// guestFlags fills a [qemu.GuestSpec] from command line flags.
type guestFlags struct {
	spec qemu.GuestSpec
}

func newGuestFlags() *guestFlags {
	return &guestFlags{
		spec: qemu.GuestSpec{
			Arch:       sys.Native,
			MemoryMB:   memDefault,
			CPUs:       smpDefault,
			DiskSizeGB: diskSizeDefault,
		},
	}
}

func (f *guestFlags) register(fs *pflag.FlagSet) {
	fs.StringVar(
		&f.spec.Name,
		"name",
		"",
		"display name of the guest (default \"vm<id>\")",
	)

	fs.Var(
		&f.spec.Arch,
		"arch",
		"guest architecture (amd64, arm64)",
	)

	fs.Var(
		newRangeValue(&f.spec.MemoryMB, memMin, memMax),
		"memory",
		"memory in MB",
	)

	fs.Var(
		newRangeValue(&f.spec.CPUs, smpMin, smpMax),
		"cpus",
		"number of CPUs",
	)

	fs.StringVar(
		&f.spec.BootDisk,
		"disk",
		"",
		"path to the qcow2 boot disk",
	)

	fs.Var(
		newRangeValue(&f.spec.DiskSizeGB, diskSizeMin, diskSizeMax),
		"disk-size",
		"size of a newly created base disk in GB",
	)

	fs.StringVar(
		&f.spec.BaseImage,
		"base",
		"",
		"base image a missing boot disk is cloned from",
	)

	fs.StringVar(
		&f.spec.Installer,
		"iso",
		"",
		"installer ISO image attached read-only",
	)

	fs.StringVar(
		&f.spec.Firmware,
		"firmware",
		"",
		"UEFI code image (arm64 only)",
	)

	fs.StringVar(
		&f.spec.FirmwareVars,
		"firmware-vars",
		"",
		"UEFI variable store image (arm64 only)",
	)

	fs.StringVar(
		&f.spec.SharedDir,
		"share",
		"",
		"host directory shared with the guest via 9p",
	)

	fs.Var(
		usbDevicesValue{&f.spec.USB},
		"usb",
		"host USB device vendor:product:name to pass through, may be repeated",
	)

	fs.Var(
		portForwardsValue{&f.spec.PortForwards},
		"forward",
		"additional TCP port forward host:guest, may be repeated",
	)
}

// guestSpec returns the spec for the guest with the given id.
func (f *guestFlags) guestSpec(id uint) qemu.GuestSpec {
	spec := f.spec
	spec.ID = id

	if spec.Name == "" {
		spec.Name = "vm" + strconv.FormatUint(uint64(id), 10)
	}

	return spec
}

func parseGuestID(s string) (uint, error) {
	id, err := strconv.ParseUint(s, 10, 0)
	if err != nil {
		return 0, &ParseArgsError{msg: "guest id " + s, err: ErrInvalidGuestID}
	}

	if id > ports.MaxGuestID {
		return 0, &ParseArgsError{
			msg: fmt.Sprintf("guest id %d > %d", id, ports.MaxGuestID),
			err: ErrValueOutOfRange,
		}
	}

	return uint(id), nil
}

func parseGuestIDs(args []string) ([]uint, error) {
	ids := make([]uint, len(args))

	for idx, arg := range args {
		id, err := parseGuestID(arg)
		if err != nil {
			return nil, err
		}

		ids[idx] = id
	}

	return ids, nil
}
