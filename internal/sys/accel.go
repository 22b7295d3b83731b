// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package sys

import "runtime"

// Accelerator names as understood by QEMU's "-accel" argument.
const (
	AccelKVM = "kvm"
	AccelHVF = "hvf"
)

// AccelProbe reports which hardware accelerator, if any, can be used for
// guests of the given architecture.
type AccelProbe interface {
	Accelerator(arch Arch) (string, bool)
}

// AccelProbeFunc adapts a function to the [AccelProbe] interface.
type AccelProbeFunc func(arch Arch) (string, bool)

// Accelerator implements [AccelProbe].
func (f AccelProbeFunc) Accelerator(arch Arch) (string, bool) {
	return f(arch)
}

// NoAccel never reports an accelerator. Guests run fully emulated.
var NoAccel = AccelProbeFunc(func(Arch) (string, bool) {
	return "", false
})

// HostAccel probes the host. Acceleration is only possible for native guests:
// KVM on Linux if /dev/kvm is accessible and HVF on macOS.
var HostAccel = AccelProbeFunc(func(arch Arch) (string, bool) {
	if !arch.IsNative() {
		return "", false
	}

	switch runtime.GOOS {
	case "linux":
		if arch.KVMAvailable() {
			return AccelKVM, true
		}
	case "darwin":
		return AccelHVF, true
	}

	return "", false
})
