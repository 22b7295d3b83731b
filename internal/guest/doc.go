// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package guest drives the lifecycle of QEMU guests.
//
// A [Controller] provisions the boot disk, launches the QEMU process and
// waits for its QMP control channel to come up. The resulting [Guest] is then
// controlled through QMP, with every operation using its own connection.
//
// The guest state only moves forward:
//
//	Unprovisioned -> DiskReady -> Launching -> AwaitingChannel -> Running
//	Running -> ShuttingDown -> Stopped
//	AwaitingChannel -> Terminated
//
// Guests started by an earlier invocation can be controlled again with
// [Controller.Attach], which only needs the guest spec. The host process table
// is used to confirm that a guest is gone.
package guest
