// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qemu_test

import (
	"testing"

	"github.com/aibor/vmctl/internal/qemu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgumentString(t *testing.T) {
	assert.Equal(t, "-display none", qemu.UniqueArg("display", "none").String())
	assert.Equal(t, "-usb", qemu.UniqueArg("usb").String())
	assert.Equal(t,
		"-device usb-host,vendorid=0x1,productid=0x2",
		qemu.Device("usb-host", "vendorid=0x1", "productid=0x2").String(),
	)
}

func TestBuildArgumentStrings(t *testing.T) {
	tests := []struct {
		name        string
		args        []qemu.Argument
		expected    []string
		expectedErr error
	}{
		{
			name: "builds",
			args: []qemu.Argument{
				qemu.UniqueArg("m", "1024"),
				qemu.Drive("if=virtio", "file=disk.qcow2"),
				qemu.Drive("if=ide", "media=cdrom"),
				qemu.UniqueArg("usb"),
			},
			expected: []string{
				"-m", "1024",
				"-drive", "if=virtio,file=disk.qcow2",
				"-drive", "if=ide,media=cdrom",
				"-usb",
			},
		},
		{
			name: "unique collision",
			args: []qemu.Argument{
				qemu.UniqueArg("m", "1024"),
				qemu.UniqueArg("m", "2048"),
			},
			expectedErr: qemu.ErrArgumentCollision,
		},
		{
			name: "repeatable collision",
			args: []qemu.Argument{
				qemu.Device("usb-kbd"),
				qemu.Device("usb-kbd"),
			},
			expectedErr: qemu.ErrArgumentCollision,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			actual, err := qemu.BuildArgumentStrings(tt.args)
			require.ErrorIs(t, err, tt.expectedErr)
			assert.Equal(t, tt.expected, actual)
		})
	}
}
