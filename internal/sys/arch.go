// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import (
	"runtime"

	"golang.org/x/sys/unix"
)

type Arch string

// Supported guest architectures.
const (
	AMD64 Arch = "amd64"
	ARM64 Arch = "arm64"
)

// Native is the architecture of the host. Using the same architecture for the
// guest allows hardware acceleration, if available. Use [AccelProbe] to check.
const Native Arch = Arch(runtime.GOARCH)

func (a *Arch) String() string {
	return string(*a)
}

func (a *Arch) IsNative() bool {
	return Native == *a
}

// IsKnown reports whether the architecture is one of the supported guest
// architectures.
func (a *Arch) IsKnown() bool {
	switch *a {
	case AMD64, ARM64:
		return true
	default:
		return false
	}
}

// KVMAvailable checks if KVM support is available for the given architecture.
func (a *Arch) KVMAvailable() bool {
	if !a.IsNative() {
		return false
	}

	return unix.Access("/dev/kvm", unix.R_OK|unix.W_OK) == nil
}

// Set implements [flag.Value]. Besides the Go architecture names, the names
// used by QEMU are accepted as well.
func (a *Arch) Set(s string) error {
	switch s {
	case "amd64", "x86_64":
		*a = AMD64
	case "arm64", "aarch64":
		*a = ARM64
	default:
		return ErrArchNotSupported
	}

	return nil
}

// Type implements [github.com/spf13/pflag.Value].
func (*Arch) Type() string {
	return "arch"
}
