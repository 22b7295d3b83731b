// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import (
	"fmt"
)

// DrainMode selects how the end of a reply is detected on the unframed
// connection.
type DrainMode int

const (
	// DrainLine reads one line per message. QEMU terminates every message
	// with a line break as long as the monitor is not in pretty mode.
	DrainLine DrainMode = iota

	// DrainQuiescence reads until no more data arrives within the
	// quiescence window and decodes everything received so far as a stream
	// of JSON values. Incomplete trailing values are kept for the next read.
	// It works with pretty printing monitors, but a reply that stalls for
	// longer than the window is only picked up by the next read attempt.
	DrainQuiescence
)

// String implements [fmt.Stringer].
func (m DrainMode) String() string {
	switch m {
	case DrainLine:
		return "line"
	case DrainQuiescence:
		return "quiescence"
	default:
		return fmt.Sprintf("DrainMode(%d)", int(m))
	}
}

// Set parses the mode from its name. It implements the flag.Value
// interface.
func (m *DrainMode) Set(s string) error {
	switch s {
	case "line":
		*m = DrainLine
	case "quiescence":
		*m = DrainQuiescence
	default:
		return fmt.Errorf("%w: %s", ErrInvalidDrainMode, s)
	}

	return nil
}

// Type implements the pflag.Value interface.
func (*DrainMode) Type() string {
	return "drainMode"
}
