// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import (
	"errors"
	"fmt"
)

var (
	// ErrProtocol is returned if the server sends data that is not a valid
	// QMP message in the current state of the session.
	ErrProtocol = errors.New("protocol violation")

	// ErrConnectionLost is returned if the connection fails after the server
	// has sent data already.
	ErrConnectionLost = errors.New("connection lost")

	// ErrInvalidDrainMode is returned for unknown drain mode names.
	ErrInvalidDrainMode = errors.New("invalid drain mode")
)

// ChannelUnavailableError is returned if the control channel cannot be
// reached: the connection is refused or the server closes or stalls the
// connection before sending anything. It is transient by nature, for example
// while a guest is still starting.
type ChannelUnavailableError struct {
	Addr string
	Err  error
}

// Error implements the [error] interface.
func (e *ChannelUnavailableError) Error() string {
	return fmt.Sprintf("control channel %s unavailable: %v", e.Addr, e.Err)
}

// Is implements the [errors.Is] interface.
func (*ChannelUnavailableError) Is(other error) bool {
	_, ok := other.(*ChannelUnavailableError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ChannelUnavailableError) Unwrap() error {
	return e.Err
}

// RemoteCommandError is returned if the server answered a command with an
// error reply.
type RemoteCommandError struct {
	Command string
	Class   string
	Desc    string
}

// Error implements the [error] interface.
func (e *RemoteCommandError) Error() string {
	return fmt.Sprintf("command %s failed: %s: %s", e.Command, e.Class, e.Desc)
}

// Is implements the [errors.Is] interface.
func (*RemoteCommandError) Is(other error) bool {
	_, ok := other.(*RemoteCommandError)
	return ok
}
