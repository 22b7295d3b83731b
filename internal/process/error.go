// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package process

import (
	"errors"
	"fmt"
)

var (
	// ErrNotOwned is returned for operations that require a process handle
	// that was created by a launch.
	ErrNotOwned = errors.New("process not owned")

	// ErrInvalidTableLine is returned if a process table line cannot be
	// parsed.
	ErrInvalidTableLine = errors.New("invalid process table line")
)

// LaunchError is returned if a process could not be started.
type LaunchError struct {
	Executable string
	Err        error
}

// Error implements the [error] interface.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("launch %s: %v", e.Executable, e.Err)
}

// Is implements the [errors.Is] interface.
func (*LaunchError) Is(other error) bool {
	_, ok := other.(*LaunchError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *LaunchError) Unwrap() error {
	return e.Err
}
