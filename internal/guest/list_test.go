// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aibor/vmctl/internal/guest"
	"github.com/aibor/vmctl/internal/ports"
	"github.com/aibor/vmctl/internal/process"
	"github.com/aibor/vmctl/internal/qemu"
	"github.com/aibor/vmctl/internal/sys"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commandLine(t *testing.T, spec qemu.GuestSpec) string {
	t.Helper()

	cmd, err := qemu.Build(spec, ports.DefaultScheme.For(spec.ID), sys.NoAccel)
	require.NoError(t, err)

	args, err := cmd.Strings()
	require.NoError(t, err)

	return cmd.Executable + " " + strings.Join(args, " ")
}

func TestList(t *testing.T) {
	web := testSpec(3)
	web.Name = "web"
	web.PortForwards = []qemu.PortForward{{Host: 8080, Guest: 80}}

	db := testSpec(1)
	db.Name = "db"
	db.Arch = sys.ARM64

	table := process.TableFunc(func(context.Context) ([]process.Entry, error) {
		return []process.Entry{
			{PID: 1, Args: "/sbin/init"},
			{PID: 300, Args: commandLine(t, web)},
			{PID: 301, Args: "grep process=vmctl-3"},
			{PID: 100, Args: commandLine(t, db)},
		}, nil
	})

	listings, err := guest.List(context.Background(), table, ports.DefaultScheme)
	require.NoError(t, err)

	expected := []guest.Listing{
		{
			ID:    1,
			Name:  "db",
			PID:   100,
			Ports: ports.DefaultScheme.For(1),
		},
		{
			ID:       3,
			Name:     "web",
			PID:      300,
			Ports:    ports.DefaultScheme.For(3),
			Forwards: []qemu.PortForward{{Host: 8080, Guest: 80}},
		},
	}

	assert.Equal(t, expected, listings)
}

func TestListTableError(t *testing.T) {
	errTable := errors.New("no ps")
	table := process.TableFunc(func(context.Context) ([]process.Entry, error) {
		return nil, errTable
	})

	_, err := guest.List(context.Background(), table, ports.DefaultScheme)
	require.ErrorIs(t, err, errTable)
}

func TestListNameWithSpaces(t *testing.T) {
	spec := testSpec(5)
	spec.Name = "my test vm"

	table := process.TableFunc(func(context.Context) ([]process.Entry, error) {
		return []process.Entry{
			{PID: 500, Args: commandLine(t, spec)},
		}, nil
	})

	listings, err := guest.List(context.Background(), table, ports.DefaultScheme)
	require.NoError(t, err)
	require.Len(t, listings, 1)

	assert.Equal(t, uint(5), listings[0].ID)
	assert.Equal(t, "my test vm", listings[0].Name)
	assert.Equal(t, 500, listings[0].PID)
}

func TestListIgnoresMarkerOutsideName(t *testing.T) {
	table := process.TableFunc(func(context.Context) ([]process.Entry, error) {
		return []process.Entry{
			{PID: 10, Args: "qemu-system-x86_64 -name vm -append process=vmctl-2"},
			{PID: 11, Args: "qemu-system-x86_64 -name vm,process=vmctl-20x"},
		}, nil
	})

	listings, err := guest.List(context.Background(), table, ports.DefaultScheme)
	require.NoError(t, err)
	assert.Empty(t, listings)
}
