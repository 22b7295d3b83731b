// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu_test

import (
	"testing"

	"github.com/aibor/vmctl/internal/ports"
	"github.com/aibor/vmctl/internal/qemu"
	"github.com/aibor/vmctl/internal/sys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var kvm = sys.AccelProbeFunc(func(sys.Arch) (string, bool) {
	return sys.AccelKVM, true
})

func assertNoArgument(t assert.TestingT, args, name any, _ ...any) bool {
	values := qemu.ArgumentValues(args.([]qemu.Argument), name.(string))
	return assert.Empty(t, values, "unexpected argument %s", name)
}

func TestBuild(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*qemu.GuestSpec)
		accel  sys.AccelProbe
		expect any
		assert assert.ComparisonAssertionFunc
	}{
		{
			name: "amd64 machine",
			expect: []qemu.Argument{
				qemu.UniqueArg("name", "test", "process=vmctl-3"),
				qemu.UniqueArg("machine", "type=q35"),
				qemu.UniqueArg("m", "1024"),
				qemu.UniqueArg("smp", "1"),
				qemu.UniqueArg("vga", "virtio"),
				qemu.Device("usb-tablet"),
			},
			assert: assert.Subset,
		},
		{
			name:   "amd64 has no cpu model",
			expect: "cpu",
			assert: assertNoArgument,
		},
		{
			name:   "arm64 machine",
			modify: func(s *qemu.GuestSpec) { s.Arch = sys.ARM64 },
			expect: []qemu.Argument{
				qemu.UniqueArg("machine", "type=virt,highmem=off"),
				qemu.UniqueArg("cpu", "cortex-a57"),
				qemu.UniqueArg("vga", "none"),
				qemu.Device("ramfb"),
				qemu.Device("usb-kbd"),
				qemu.Device("usb-mouse"),
			},
			assert: assert.Subset,
		},
		{
			name: "arm64 firmware",
			modify: func(s *qemu.GuestSpec) {
				s.Arch = sys.ARM64
				s.Firmware = "/fw/code.fd"
				s.FirmwareVars = "/fw/vars.fd"
			},
			expect: []string{
				"if=pflash,format=raw,file=/fw/code.fd,readonly=on",
				"if=pflash,format=raw,file=/fw/vars.fd,discard=on",
				"if=virtio,format=qcow2,file=/disks/test.qcow2,discard=on",
			},
			assert: qemu.ArgumentValueAssertionFunc("drive", assert.Equal),
		},
		{
			name:   "accel",
			accel:  kvm,
			expect: qemu.UniqueArg("accel", "kvm"),
			assert: assert.Contains,
		},
		{
			name:   "no accel",
			expect: "accel",
			assert: assertNoArgument,
		},
		{
			name: "single boot drive",
			expect: []string{
				"if=virtio,format=qcow2,file=/disks/test.qcow2,discard=on",
			},
			assert: qemu.ArgumentValueAssertionFunc("drive", assert.Equal),
		},
		{
			name:   "boot from disk",
			expect: []string{"order=c"},
			assert: qemu.ArgumentValueAssertionFunc("boot", assert.Equal),
		},
		{
			name:   "amd64 installer",
			modify: func(s *qemu.GuestSpec) { s.Installer = "/iso/install.iso" },
			expect: []qemu.Argument{
				qemu.Drive("if=virtio", "format=qcow2",
					"file=/disks/test.qcow2", "discard=on"),
				qemu.Drive("if=ide", "media=cdrom", "readonly=on",
					"file=/iso/install.iso"),
				qemu.UniqueArg("boot", "order=dc"),
			},
			assert: assert.Subset,
		},
		{
			name: "arm64 installer",
			modify: func(s *qemu.GuestSpec) {
				s.Arch = sys.ARM64
				s.Installer = "/iso/install.iso"
			},
			expect: []qemu.Argument{
				qemu.Drive("if=none", "id=cdrom0", "media=cdrom",
					"readonly=on", "file=/iso/install.iso"),
				qemu.Device("usb-storage", "drive=cdrom0", "bus=xhci.0"),
				qemu.UniqueArg("boot", "order=dc"),
			},
			assert: assert.Subset,
		},
		{
			name: "usb passthrough",
			modify: func(s *qemu.GuestSpec) {
				s.USB = []qemu.USBDevice{
					{VendorID: "0x0781", ProductID: "0x5567", Name: "Cruzer Blade"},
					{VendorID: "0x046d", ProductID: "0xc52b", Name: "Unifying-Rx"},
				}
			},
			expect: []qemu.Argument{
				qemu.Device("usb-host", "vendorid=0x0781",
					"productid=0x5567", "id=CruzerBlade"),
				qemu.Device("usb-host", "vendorid=0x046d",
					"productid=0xc52b", "id=UnifyingRx"),
			},
			assert: assert.Subset,
		},
		{
			name: "port forwards in single backend",
			modify: func(s *qemu.GuestSpec) {
				s.PortForwards = []qemu.PortForward{
					{Host: 7080, Guest: 80},
					{Host: 7443, Guest: 443},
				}
			},
			expect: []string{
				"user,id=net0,hostfwd=tcp::52003-:22," +
					"hostfwd=tcp::7080-:80,hostfwd=tcp::7443-:443",
			},
			assert: qemu.ArgumentValueAssertionFunc("netdev", assert.Equal),
		},
		{
			name: "control channel",
			expect: []qemu.Argument{
				qemu.RepeatableArg("chardev", "socket,id=mon0,host=localhost,"+
					"port=51003,server=on,wait=off"),
				qemu.RepeatableArg("mon", "chardev=mon0,mode=control"),
			},
			assert: assert.Subset,
		},
		{
			name: "display",
			expect: []qemu.Argument{
				qemu.UniqueArg("vnc", "localhost:3,password=on"),
				qemu.UniqueArg("display", "none"),
			},
			assert: assert.Subset,
		},
		{
			name:   "shared dir",
			modify: func(s *qemu.GuestSpec) { s.SharedDir = "/home/user/project" },
			expect: []string{
				"local,path=/home/user/project,security_model=mapped-xattr," +
					"mount_tag=CWD",
			},
			assert: qemu.ArgumentValueAssertionFunc("virtfs", assert.Equal),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := qemu.GuestSpec{
				ID:       3,
				Name:     "test",
				Arch:     sys.AMD64,
				MemoryMB: 1024,
				CPUs:     1,
				BootDisk: "/disks/test.qcow2",
			}
			if tt.modify != nil {
				tt.modify(&spec)
			}

			accel := tt.accel
			if accel == nil {
				accel = sys.NoAccel
			}

			cmd, err := qemu.Build(spec, ports.DefaultScheme.For(spec.ID), accel)
			require.NoError(t, err)

			tt.assert(t, cmd.Args, tt.expect)

			_, err = cmd.Strings()
			require.NoError(t, err, "arguments must not collide")
		})
	}
}

func TestBuildExecutable(t *testing.T) {
	tests := []struct {
		arch     sys.Arch
		expected string
	}{
		{arch: sys.AMD64, expected: "qemu-system-x86_64"},
		{arch: sys.ARM64, expected: "qemu-system-aarch64"},
	}

	for _, tt := range tests {
		t.Run(string(tt.arch), func(t *testing.T) {
			spec := validSpec()
			spec.Arch = tt.arch

			cmd, err := qemu.Build(spec, ports.DefaultScheme.For(spec.ID), sys.NoAccel)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, cmd.Executable)
			assert.Contains(t, cmd.String(), tt.expected+" -name test,")
		})
	}
}

func TestBuildUnsupportedArchitecture(t *testing.T) {
	spec := validSpec()
	spec.Arch = "s390x"

	_, err := qemu.Build(spec, ports.DefaultScheme.For(spec.ID), sys.NoAccel)
	require.ErrorIs(t, err, &qemu.UnsupportedArchitectureError{})
}

func TestBuildDoesNotAliasSpec(t *testing.T) {
	spec := validSpec()
	spec.PortForwards = []qemu.PortForward{{Host: 8080, Guest: 80}}

	_, err := qemu.Build(spec, ports.DefaultScheme.For(spec.ID), sys.NoAccel)
	require.NoError(t, err)
	assert.Len(t, spec.PortForwards, 1, "ssh forward must not leak into spec")
}
