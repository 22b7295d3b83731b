// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

// Package process starts QEMU processes detached from the caller and finds
// them again in the host process table.
//
// A guest process is referenced by a [Handle]. A handle is either created from
// a launch, in which case it owns the [Process], or attached to a process
// started by an earlier invocation, in which case only its marker is known.
// In both cases the process table is the source of truth for whether the
// process is still present.
package process
