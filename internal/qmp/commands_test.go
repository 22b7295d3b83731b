// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/aibor/vmctl/internal/qmp"
	"github.com/aibor/vmctl/internal/qmp/qmptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rawReturn(s string) qmptest.Handler {
	return qmptest.Return(json.RawMessage(s))
}

func TestQueries(t *testing.T) {
	server := qmptest.NewServer(t)
	server.Handle("query-status", rawReturn(
		`{"status": "paused", "singlestep": false, "running": false}`))
	server.Handle("query-name", rawReturn(`{"name": "debian"}`))
	server.Handle("query-target", rawReturn(`{"arch": "x86_64"}`))
	server.Handle("query-kvm", rawReturn(`{"enabled": true, "present": true}`))
	server.Handle("query-vnc", rawReturn(`{
		"enabled": true, "host": "127.0.0.1", "service": "5903",
		"family": "ipv4", "auth": "vnc", "clients": []}`))
	server.Handle("query-memory-size-summary", rawReturn(
		`{"base-memory": 1073741824, "plugged-memory": 0}`))
	server.Handle("query-cpus-fast", rawReturn(`[{
		"thread-id": 25627, "props": {"core-id": 0, "thread-id": 0, "socket-id": 0},
		"qom-path": "/machine/unattached/device[0]", "cpu-index": 0,
		"target": "x86_64"}]`))
	server.Handle("query-block", rawReturn(`[
		{"device": "virtio0", "locked": false, "removable": false,
		 "inserted": {"ro": false, "drv": "qcow2", "file": "/vm/disk.qcow2",
		              "backing_file": "/vm/base.qcow2"}, "qdev": "/machine/peripheral-anon/device[1]/virtio-backend"},
		{"device": "ide1-cd0", "locked": false, "removable": true, "qdev": "ide1-cd0"}]`))

	client := newClient(server, qmp.DrainLine)
	ctx := context.Background()

	t.Run("status", func(t *testing.T) {
		status, err := qmp.QueryStatus(ctx, client)
		require.NoError(t, err)
		assert.Equal(t, qmp.Status{Running: false, Status: "paused"}, status)
	})

	t.Run("name", func(t *testing.T) {
		name, err := qmp.QueryName(ctx, client)
		require.NoError(t, err)
		assert.Equal(t, "debian", name)
	})

	t.Run("target", func(t *testing.T) {
		arch, err := qmp.QueryTarget(ctx, client)
		require.NoError(t, err)
		assert.Equal(t, "x86_64", arch)
	})

	t.Run("kvm", func(t *testing.T) {
		kvm, err := qmp.QueryKVM(ctx, client)
		require.NoError(t, err)
		assert.Equal(t, qmp.KVM{Enabled: true, Present: true}, kvm)
	})

	t.Run("vnc", func(t *testing.T) {
		vnc, err := qmp.QueryVNC(ctx, client)
		require.NoError(t, err)
		assert.True(t, vnc.Enabled)
		assert.Equal(t, "5903", vnc.Service)
		assert.Equal(t, "vnc", vnc.Auth)
		assert.Empty(t, vnc.Clients)
	})

	t.Run("memory", func(t *testing.T) {
		memory, err := qmp.QueryMemorySizeSummary(ctx, client)
		require.NoError(t, err)
		assert.Equal(t, uint64(1024), memory.BaseMemoryMB())
	})

	t.Run("cpus", func(t *testing.T) {
		cpus, err := qmp.QueryCPUsFast(ctx, client)
		require.NoError(t, err)
		require.Len(t, cpus, 1)
		assert.Equal(t, qmp.CPU{
			Index:    0,
			QOMPath:  "/machine/unattached/device[0]",
			ThreadID: 25627,
			Target:   "x86_64",
		}, cpus[0])
	})

	t.Run("block", func(t *testing.T) {
		blocks, err := qmp.QueryBlock(ctx, client)
		require.NoError(t, err)
		require.Len(t, blocks, 2)

		require.NotNil(t, blocks[0].Inserted)
		assert.Equal(t, "virtio0", blocks[0].Device)
		assert.Equal(t, "/vm/disk.qcow2", blocks[0].Inserted.File)
		assert.Equal(t, "/vm/base.qcow2", blocks[0].Inserted.BackingFile)

		assert.Equal(t, "ide1-cd0", blocks[1].Device)
		assert.True(t, blocks[1].Removable)
		assert.Nil(t, blocks[1].Inserted)
	})
}

func TestQueryInvalidReturn(t *testing.T) {
	server := qmptest.NewServer(t)
	server.Handle("query-cpus-fast", rawReturn(`{"cpu-index": 0}`))

	client := newClient(server, qmp.DrainLine)

	_, err := qmp.QueryCPUsFast(context.Background(), client)
	require.ErrorIs(t, err, qmp.ErrProtocol)
}

func TestLifecycleCommands(t *testing.T) {
	server := qmptest.NewServer(t)
	server.Handle("system_powerdown", qmptest.Return(struct{}{}))
	server.Handle("quit", qmptest.Return(struct{}{}))

	client := newClient(server, qmp.DrainLine)
	ctx := context.Background()

	require.NoError(t, qmp.SystemPowerdown(ctx, client))
	require.NoError(t, qmp.Quit(ctx, client))

	assert.Equal(t, []string{
		"qmp_capabilities", "system_powerdown",
		"qmp_capabilities", "quit",
	}, server.Commands())
}

type executorFunc func(ctx context.Context, command string, args any) (json.RawMessage, error)

func (f executorFunc) Execute(
	ctx context.Context,
	command string,
	args any,
) (json.RawMessage, error) {
	return f(ctx, command, args)
}

func TestQuitConnectionClosed(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		expectedErr error
	}{
		{
			name: "closed after send",
			err:  fmt.Errorf("receive quit: %w: %w", qmp.ErrConnectionLost, io.EOF),
		},
		{
			name:        "unavailable",
			err:         &qmp.ChannelUnavailableError{Addr: "x", Err: io.EOF},
			expectedErr: &qmp.ChannelUnavailableError{},
		},
		{
			name:        "remote error",
			err:         &qmp.RemoteCommandError{Command: "quit"},
			expectedErr: &qmp.RemoteCommandError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			executor := executorFunc(func(context.Context, string, any) (json.RawMessage, error) {
				return nil, tt.err
			})

			err := qmp.Quit(context.Background(), executor)
			require.ErrorIs(t, err, tt.expectedErr)
		})
	}
}
