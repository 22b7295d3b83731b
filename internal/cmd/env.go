// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"os"
	"strings"

	"github.com/aibor/vmctl/internal/disk"
)

// ImageToolEnv is the environment variable that overrides the disk image
// tool executable.
const ImageToolEnv = "VMCTL_QEMU_IMG"

// ImageTool returns the disk image tool executable. It is taken from
// [ImageToolEnv] if set.
func ImageTool() string {
	tool := strings.TrimSpace(os.Getenv(ImageToolEnv))
	if tool == "" {
		return disk.DefaultTool
	}

	return tool
}
