// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package qemu composes QEMU system virtualization commands for guests that
// boot from a disk image and are controlled via QMP.
//
// A [GuestSpec] describes the guest hardware. [Build] turns it into a
// [Command] using a fixed preset per architecture. Building is a pure
// transformation, nothing is executed. The control channel, the VNC display
// and the SSH forward are bound to the ports passed in, usually derived from
// the guest id with package ports.
package qemu
