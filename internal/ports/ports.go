// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package ports derives the host ports of a guest from its numeric id.
//
// All ports are computed as base offset plus guest id, so they are stable
// across invocations and a guest started by an earlier run can be found again
// by its id alone. With ids up to [MaxGuestID], the ranges of the
// [DefaultScheme] do not overlap, so two guests with different ids never share
// any port. Assigning unique ids is up to the caller.
package ports

// MaxGuestID is the largest guest id for which the ranges of the
// [DefaultScheme] are disjoint.
const MaxGuestID = 999

// Base offsets of the [DefaultScheme].
const (
	ControlBase = 51000
	SSHBase     = 52000
)

// DisplayBase is the port of VNC display 0. QEMU listens on DisplayBase plus
// the display number, so it is not configurable.
const DisplayBase = 5900

// Scheme defines the base offsets the ports of a guest are derived from. The
// display number is always the guest id.
type Scheme struct {
	ControlBase int
	SSHBase     int
}

// DefaultScheme is the port scheme used unless another one is injected.
var DefaultScheme = Scheme{
	ControlBase: ControlBase,
	SSHBase:     SSHBase,
}

// Set is the set of host ports belonging to a single guest.
type Set struct {
	// Control is the TCP port of the QMP control channel.
	Control int
	// Display is the TCP port of the VNC display.
	Display int
	// DisplayIndex is the VNC display number, as used in QEMU's "-vnc"
	// argument.
	DisplayIndex int
	// SSH is the host port forwarded to the guest's port 22.
	SSH int
}

// For returns the ports of the guest with the given id.
func (s Scheme) For(id uint) Set {
	offset := int(id)

	return Set{
		Control:      s.ControlBase + offset,
		Display:      DisplayBase + offset,
		DisplayIndex: offset,
		SSH:          s.SSHBase + offset,
	}
}
