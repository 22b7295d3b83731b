// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package disk

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDiskExists is returned if the target image path already exists.
	ErrDiskExists = errors.New("disk already exists")

	// ErrNotAnImage is returned if the target path exists but is not a disk
	// image the tool recognizes.
	ErrNotAnImage = errors.New("path exists and is not a disk image")

	// ErrBaseImageMissing is returned if the base image of a linked clone
	// does not exist or is not readable.
	ErrBaseImageMissing = errors.New("base image missing")

	// ErrEmptyPath is returned if an empty path is given.
	ErrEmptyPath = errors.New("path must not be empty")

	// ErrInvalidSize is returned for image sizes of zero.
	ErrInvalidSize = errors.New("size must be greater than zero")
)

// ProvisioningError indicates the disk could not be set up for reasons other
// than a failing image tool.
type ProvisioningError struct {
	Path string
	Err  error
}

// Error implements the [error] interface.
func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("provision disk %s: %v", e.Path, e.Err)
}

// Is implements the [errors.Is] interface.
func (*ProvisioningError) Is(other error) bool {
	_, ok := other.(*ProvisioningError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

// ToolExecutionError wraps failures of the external image tool, including
// non-zero exit codes. Output holds what the tool printed.
type ToolExecutionError struct {
	Tool   string
	Args   []string
	Output string
	Err    error
}

// Error implements the [error] interface.
func (e *ToolExecutionError) Error() string {
	msg := fmt.Sprintf("%s %s: %v", e.Tool, strings.Join(e.Args, " "), e.Err)

	if out := strings.TrimSpace(e.Output); out != "" {
		msg += ": " + out
	}

	return msg
}

// Is implements the [errors.Is] interface.
func (*ToolExecutionError) Is(other error) bool {
	_, ok := other.(*ToolExecutionError)
	return ok
}

// Unwrap implements the [errors.Unwrap] interface.
func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}
