// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

// State is the lifecycle state of a [Guest].
type State int

// Guest states.
const (
	Unprovisioned State = iota
	DiskReady
	Launching
	AwaitingChannel
	Running
	ShuttingDown
	Stopped
	Terminated
)

// String implements [fmt.Stringer].
func (s State) String() string {
	switch s {
	case Unprovisioned:
		return "unprovisioned"
	case DiskReady:
		return "disk ready"
	case Launching:
		return "launching"
	case AwaitingChannel:
		return "awaiting channel"
	case Running:
		return "running"
	case ShuttingDown:
		return "shutting down"
	case Stopped:
		return "stopped"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Final reports whether the state is terminal.
func (s State) Final() bool {
	return s == Stopped || s == Terminated
}

// Flow selects how the boot disk is provisioned.
type Flow int

const (
	// FlowRun creates the boot disk as linked clone of the base image.
	FlowRun Flow = iota
	// FlowInstall creates the boot disk as empty base image.
	FlowInstall
)

// String implements [fmt.Stringer].
func (f Flow) String() string {
	switch f {
	case FlowRun:
		return "run"
	case FlowInstall:
		return "install"
	default:
		return "unknown"
	}
}
