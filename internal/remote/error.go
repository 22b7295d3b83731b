// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAuthMethod is returned if neither password nor key file is set.
	ErrNoAuthMethod = errors.New("no authentication method")

	// ErrKeyExists is returned if a key file to generate exists already.
	ErrKeyExists = errors.New("key exists")
)

// ExitError is returned if the remote command exited with non-zero status.
type ExitError struct {
	Command string
	Status  int
	Err     error
}

// Error implements the [error] interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("remote command %q exited with status %d", e.Command, e.Status)
}

// Is implements the [errors.Is] interface.
func (*ExitError) Is(other error) bool {
	_, ok := other.(*ExitError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ExitError) Unwrap() error {
	return e.Err
}
