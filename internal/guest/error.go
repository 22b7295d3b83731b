// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBaseImage is returned if a run flow needs to clone a boot disk,
	// but no base image is given.
	ErrNoBaseImage = errors.New("no base image")

	// ErrInvalidState is returned for operations not allowed in the current
	// state of the guest.
	ErrInvalidState = errors.New("invalid state")

	// ErrNotRunning is returned if the guest is reachable but does not
	// execute.
	ErrNotRunning = errors.New("guest not running")

	// ErrProcessExited is returned if the QEMU process exits while waiting
	// for the control channel.
	ErrProcessExited = errors.New("process exited")

	// ErrUnknownFlow is returned for unsupported provisioning flows.
	ErrUnknownFlow = errors.New("unknown flow")
)

// Error annotates failures with the guest and the operation that failed.
type Error struct {
	ID  uint
	Op  string
	Err error
}

// Error implements the [error] interface.
func (e *Error) Error() string {
	return fmt.Sprintf("guest %d: %s: %v", e.ID, e.Op, e.Err)
}

// Is implements the [errors.Is] interface.
func (*Error) Is(other error) bool {
	_, ok := other.(*Error)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *Error) Unwrap() error {
	return e.Err
}

// BootTimeoutError is returned if the control channel of a launched guest did
// not become available within the boot retry budget.
type BootTimeoutError struct {
	Attempts int
	Err      error
}

// Error implements the [error] interface.
func (e *BootTimeoutError) Error() string {
	return fmt.Sprintf("control channel not ready after %d attempts: %v",
		e.Attempts, e.Err)
}

// Is implements the [errors.Is] interface.
func (*BootTimeoutError) Is(other error) bool {
	_, ok := other.(*BootTimeoutError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *BootTimeoutError) Unwrap() error {
	return e.Err
}

// ShutdownTimeoutError is returned if the guest process is still present in
// the process table after the shutdown retry budget. The guest might still go
// away later.
type ShutdownTimeoutError struct {
	Marker   string
	Attempts int
}

// Error implements the [error] interface.
func (e *ShutdownTimeoutError) Error() string {
	return fmt.Sprintf("process %s still present after %d checks",
		e.Marker, e.Attempts)
}

// Is implements the [errors.Is] interface.
func (*ShutdownTimeoutError) Is(other error) bool {
	_, ok := other.(*ShutdownTimeoutError)
	return ok
}
