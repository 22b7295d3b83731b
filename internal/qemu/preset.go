// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu

import "github.com/aibor/vmctl/internal/sys"

// preset holds the fixed, architecture specific parts of a [Command].
type preset struct {
	executable string
	machine    string
	cpu        string

	// devices are display and input devices.
	devices []Argument

	// firmware returns pflash drives, if the architecture needs them.
	firmware func(spec *GuestSpec) []Argument

	// cdrom returns the arguments to attach a read-only optical drive.
	cdrom func(path string) []Argument
}

func presetFor(arch sys.Arch) (preset, error) {
	switch arch {
	case sys.AMD64:
		return preset{
			executable: "qemu-system-x86_64",
			machine:    "type=q35",
			devices: []Argument{
				UniqueArg("vga", "virtio"),
				Device("qemu-xhci", "id=xhci"),
				Device("usb-tablet"),
			},
			firmware: func(*GuestSpec) []Argument { return nil },
			cdrom: func(path string) []Argument {
				return []Argument{
					Drive("if=ide", "media=cdrom", "readonly=on", "file="+path),
				}
			},
		}, nil
	case sys.ARM64:
		return preset{
			executable: "qemu-system-aarch64",
			machine:    "type=virt,highmem=off",
			cpu:        "cortex-a57",
			devices: []Argument{
				UniqueArg("vga", "none"),
				Device("ramfb"),
				Device("qemu-xhci", "id=xhci"),
				Device("usb-kbd"),
				Device("usb-mouse"),
			},
			firmware: func(spec *GuestSpec) []Argument {
				var args []Argument

				if spec.Firmware != "" {
					args = append(args, Drive(
						"if=pflash",
						"format=raw",
						"file="+spec.Firmware,
						"readonly=on",
					))
				}

				if spec.FirmwareVars != "" {
					args = append(args, Drive(
						"if=pflash",
						"format=raw",
						"file="+spec.FirmwareVars,
						"discard=on",
					))
				}

				return args
			},
			// The virt machine has no IDE controller.
			cdrom: func(path string) []Argument {
				return []Argument{
					Drive(
						"if=none",
						"id=cdrom0",
						"media=cdrom",
						"readonly=on",
						"file="+path,
					),
					Device("usb-storage", "drive=cdrom0", "bus=xhci.0"),
				}
			},
		}, nil
	default:
		return preset{}, &UnsupportedArchitectureError{Arch: arch}
	}
}
