// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

//go:build integration

package disk_test

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/aibor/vmctl/internal/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireTool(t *testing.T) {
	t.Helper()

	_, err := exec.LookPath(disk.DefaultTool)
	if err != nil {
		t.Skipf("%s not available: %v", disk.DefaultTool, err)
	}
}

func TestIntegrationCreateBase(t *testing.T) {
	requireTool(t)

	ctx := context.Background()
	mgr := disk.NewManager()
	path := filepath.Join(t.TempDir(), "base.qcow2")

	require.NoError(t, mgr.CreateBase(ctx, path, 40))

	info, err := mgr.Info(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, disk.FormatQCOW2, info.Format)
	assert.Equal(t, uint64(40), info.VirtualSizeGB())

	err = mgr.CreateBase(ctx, path, 40)
	require.ErrorIs(t, err, disk.ErrDiskExists)
}

func TestIntegrationCreateLinkedClone(t *testing.T) {
	requireTool(t)

	ctx := context.Background()
	mgr := disk.NewManager()
	dir := t.TempDir()
	base := filepath.Join(dir, "base.qcow2")
	clone := filepath.Join(dir, "clone.qcow2")

	require.NoError(t, mgr.CreateBase(ctx, base, 1))
	require.NoError(t, mgr.CreateLinkedClone(ctx, clone, base))

	info, err := mgr.Info(ctx, clone)
	require.NoError(t, err)
	assert.Equal(t, base, info.BackingFilename)
	assert.Equal(t, uint64(1), info.VirtualSizeGB())
}
