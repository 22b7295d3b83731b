// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package ports_test

import (
	"testing"

	"github.com/aibor/vmctl/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFor(t *testing.T) {
	assert.Equal(t, ports.Set{
		Control:      51000,
		Display:      5900,
		DisplayIndex: 0,
		SSH:          52000,
	}, ports.DefaultScheme.For(0))

	assert.Equal(t, ports.Set{
		Control:      51042,
		Display:      5942,
		DisplayIndex: 42,
		SSH:          52042,
	}, ports.DefaultScheme.For(42))
}

func TestForDeterministic(t *testing.T) {
	for id := range uint(ports.MaxGuestID + 1) {
		assert.Equal(t, ports.DefaultScheme.For(id), ports.DefaultScheme.For(id))
	}
}

func TestForInjective(t *testing.T) {
	seen := make(map[int]uint)

	for id := range uint(ports.MaxGuestID + 1) {
		set := ports.DefaultScheme.For(id)
		for _, port := range []int{set.Control, set.Display, set.SSH} {
			other, exists := seen[port]
			require.False(t, exists,
				"port %d of guest %d already used by guest %d", port, id, other)

			seen[port] = id
		}
	}
}

func TestFirstTwoGuestsDoNotShare(t *testing.T) {
	first, second := ports.DefaultScheme.For(0), ports.DefaultScheme.For(1)

	all := []int{
		first.Control, first.Display, first.SSH,
		second.Control, second.Display, second.SSH,
	}

	for idx, port := range all {
		assert.NotContains(t, all[idx+1:], port)
	}
}

func TestDisplayFollowsGuestID(t *testing.T) {
	scheme := ports.Scheme{ControlBase: 6000, SSHBase: 7000}

	assert.Equal(t, ports.Set{
		Control:      6007,
		Display:      5907,
		DisplayIndex: 7,
		SSH:          7007,
	}, scheme.For(7))
}
