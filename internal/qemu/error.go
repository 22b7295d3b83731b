// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import (
	"errors"
	"fmt"

	"github.com/aibor/vmctl/internal/sys"
)

var (
	// ErrArgumentCollision is returned if two [Argument]s are considered equal.
	ErrArgumentCollision = errors.New("colliding args")

	// ErrGuestIDOutOfRange is returned if the guest id exceeds the range
	// for which unique ports can be derived.
	ErrGuestIDOutOfRange = errors.New("guest id out of range")
)

// ArgumentError indicates an issue with an input argument.
type ArgumentError struct {
	msg string
}

// Error implements the [error] interface.
func (e *ArgumentError) Error() string {
	return "argument error: " + e.msg
}

// Is implements the [errors.Is] interface.
func (*ArgumentError) Is(other error) bool {
	_, ok := other.(*ArgumentError)
	return ok
}

// UnsupportedArchitectureError is returned if a guest is specified with an
// architecture no QEMU preset exists for.
type UnsupportedArchitectureError struct {
	Arch sys.Arch
}

// Error implements the [error] interface.
func (e *UnsupportedArchitectureError) Error() string {
	return fmt.Sprintf("%v: %q", sys.ErrArchNotSupported, string(e.Arch))
}

// Is implements the [errors.Is] interface.
func (*UnsupportedArchitectureError) Is(other error) bool {
	_, ok := other.(*UnsupportedArchitectureError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (*UnsupportedArchitectureError) Unwrap() error {
	return sys.ErrArchNotSupported
}
