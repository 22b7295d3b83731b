// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aibor/vmctl/internal/ports"
	"github.com/aibor/vmctl/internal/sys"
)

// GuestSpec describes identity and hardware of a guest.
type GuestSpec struct {
	// ID is the numeric guest identifier. It must be unique on the host. All
	// host ports of the guest are derived from it and it is part of the
	// process marker, so it must not change once the guest is launched.
	ID uint

	// Name is the display name of the guest.
	Name string

	// Arch is the guest CPU architecture.
	Arch sys.Arch

	// Memory for the guest in MB.
	MemoryMB uint64

	// Number of CPUs for the guest.
	CPUs uint64

	// BootDisk is the path to the qcow2 image the guest boots from.
	BootDisk string

	// DiskSizeGB is the size of the boot disk if it is created as base image.
	DiskSizeGB uint64

	// BaseImage is the backing image the boot disk is cloned from if it is
	// created as linked clone.
	BaseImage string

	// Installer is an optional path to an installer ISO image. If set, it is
	// attached read-only and booted first.
	Installer string

	// Firmware and FirmwareVars are the UEFI code and variable pflash images.
	// Only used for arm64 guests.
	Firmware     string
	FirmwareVars string

	// SharedDir is an optional host directory shared with the guest via 9p
	// with mount tag "CWD".
	SharedDir string

	// USB devices passed through from the host.
	USB []USBDevice

	// PortForwards are additional host to guest TCP port forwards. The SSH
	// forward is always added.
	PortForwards []PortForward
}

// USBDevice is a host USB device to pass through to the guest.
type USBDevice struct {
	VendorID  string
	ProductID string
	Name      string
}

// InstanceName returns the name stripped of everything but ASCII letters and
// digits, as it is used as QEMU device id.
func (d USBDevice) InstanceName() string {
	return strings.Map(func(r rune) rune {
		switch {
		case 'a' <= r && r <= 'z', 'A' <= r && r <= 'Z', '0' <= r && r <= '9':
			return r
		default:
			return -1
		}
	}, d.Name)
}

// PortForward forwards a TCP port of the host to a port of the guest.
type PortForward struct {
	Host  uint16
	Guest uint16
}

// String returns the forward in "host:guest" notation.
func (p PortForward) String() string {
	return fmt.Sprintf("%d:%d", p.Host, p.Guest)
}

// Set implements [flag.Value] and parses the "host:guest" notation.
func (p *PortForward) Set(s string) error {
	hostStr, guestStr, found := strings.Cut(s, ":")
	if !found {
		return &ArgumentError{"port forward must be host:guest: " + s}
	}

	host, err := strconv.ParseUint(hostStr, 10, 16)
	if err != nil {
		return &ArgumentError{"invalid host port: " + hostStr}
	}

	guest, err := strconv.ParseUint(guestStr, 10, 16)
	if err != nil {
		return &ArgumentError{"invalid guest port: " + guestStr}
	}

	p.Host = uint16(host)
	p.Guest = uint16(guest)

	return nil
}

// hostForward returns the clause for QEMU's user mode network backend.
func (p PortForward) hostForward() string {
	return fmt.Sprintf("hostfwd=tcp::%d-:%d", p.Host, p.Guest)
}

const processMarkerPrefix = "process=vmctl-"

// ProcessMarker returns the string that identifies the QEMU process of the
// guest with the given id in the process table.
func ProcessMarker(id uint) string {
	return processMarkerPrefix + strconv.FormatUint(uint64(id), 10)
}

// ParseProcessMarker returns the guest id from a process marker as returned
// by [ProcessMarker].
func ParseProcessMarker(marker string) (uint, bool) {
	idStr, found := strings.CutPrefix(marker, processMarkerPrefix)
	if !found {
		return 0, false
	}

	id, err := strconv.ParseUint(idStr, 10, 0)
	if err != nil {
		return 0, false
	}

	return uint(id), true
}

// Validate checks the spec for completeness and known incompatibilities.
func (s *GuestSpec) Validate() error {
	if !s.Arch.IsKnown() {
		return &UnsupportedArchitectureError{Arch: s.Arch}
	}

	if s.ID > ports.MaxGuestID {
		return fmt.Errorf("%w: %d > %d", ErrGuestIDOutOfRange, s.ID, ports.MaxGuestID)
	}

	switch {
	case s.Name == "":
		return &ArgumentError{"name must not be empty"}
	case strings.Contains(s.Name, ","):
		return &ArgumentError{"name must not contain commas"}
	case s.BootDisk == "":
		return &ArgumentError{"boot disk must not be empty"}
	case s.MemoryMB == 0:
		return &ArgumentError{"memory must be greater than zero"}
	case s.CPUs == 0:
		return &ArgumentError{"number of CPUs must be greater than zero"}
	}

	for _, fwd := range s.PortForwards {
		if fwd.Host == 0 || fwd.Guest == 0 {
			return &ArgumentError{"invalid port forward: " + fwd.String()}
		}
	}

	for _, dev := range s.USB {
		if dev.VendorID == "" || dev.ProductID == "" {
			return &ArgumentError{"usb device requires vendor and product id"}
		}

		if dev.InstanceName() == "" {
			return &ArgumentError{"usb device name is empty: " + dev.Name}
		}
	}

	return nil
}
