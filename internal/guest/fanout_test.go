// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aibor/vmctl/internal/guest"
	"github.com/aibor/vmctl/internal/qemu"
	"github.com/aibor/vmctl/internal/qmp"
	"github.com/aibor/vmctl/internal/qmp/qmptest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuitAll(t *testing.T) {
	var guests []*guest.Guest

	for _, id := range []uint{0, 1, 2} {
		env := newTestEnv(t, id)
		env.emulate()

		marker := qemu.ProcessMarker(id)
		env.table.set(marker, true)

		if id != 2 {
			env.server.Handle("quit", func(json.RawMessage) (any, error) {
				env.table.set(marker, false)
				return struct{}{}, nil
			})
		}

		guests = append(guests, attachGuest(t, env, id))
	}

	err := guest.QuitAll(context.Background(), guests)
	require.ErrorIs(t, err, &qmp.RemoteCommandError{})

	var guestErr *guest.Error

	require.ErrorAs(t, err, &guestErr)
	assert.Equal(t, uint(2), guestErr.ID)

	assert.Equal(t, guest.Stopped, guests[0].State())
	assert.Equal(t, guest.Stopped, guests[1].State())
	assert.Equal(t, guest.Running, guests[2].State())
}

func TestStatusAll(t *testing.T) {
	running := newTestEnv(t, 0)
	running.emulate()

	paused := newTestEnv(t, 1)
	paused.emulate()

	guests := []*guest.Guest{
		attachGuest(t, running, 0),
		attachGuest(t, paused, 1),
	}

	paused.server.Handle("query-status", qmptest.Return(qmp.Status{
		Running: false,
		Status:  "paused",
	}))

	results, err := guest.StatusAll(context.Background(), guests)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Same(t, guests[0], results[0].Guest)
	require.NoError(t, results[0].Err)
	assert.True(t, results[0].Status.Running)

	assert.Same(t, guests[1], results[1].Guest)
	require.NoError(t, results[1].Err)
	assert.Equal(t, "paused", results[1].Status.Status)
}

func TestFanOutRejectsDuplicates(t *testing.T) {
	env := newTestEnv(t, 0)
	env.emulate()

	g := attachGuest(t, env, 0)

	err := guest.QuitAll(context.Background(), []*guest.Guest{g, g})
	require.ErrorIs(t, err, guest.ErrDuplicateGuest)

	_, err = guest.StatusAll(context.Background(), []*guest.Guest{g, g})
	require.ErrorIs(t, err, guest.ErrDuplicateGuest)

	assert.Equal(t, guest.Running, g.State())
}
