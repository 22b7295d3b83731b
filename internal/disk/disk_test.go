// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package disk_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aibor/vmctl/internal/disk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []call
	output []byte
	err    error
}

func (r *fakeRunner) Run(
	_ context.Context,
	name string,
	args ...string,
) ([]byte, error) {
	r.calls = append(r.calls, call{name: name, args: args})
	return r.output, r.err
}

func newManager(runner disk.Runner) *disk.Manager {
	mgr := disk.NewManager()
	mgr.Runner = runner

	return mgr
}

func TestCreateBase(t *testing.T) {
	runner := &fakeRunner{}
	path := filepath.Join(t.TempDir(), "base.qcow2")

	err := newManager(runner).CreateBase(context.Background(), path, 40)
	require.NoError(t, err)

	expected := []call{{
		name: "qemu-img",
		args: []string{"create", "-f", "qcow2", path, "40G"},
	}}
	assert.Equal(t, expected, runner.calls)
}

func TestCreateBaseToolFailure(t *testing.T) {
	runner := &fakeRunner{
		output: []byte("qemu-img: permission denied\n"),
		err:    assert.AnError,
	}
	path := filepath.Join(t.TempDir(), "base.qcow2")

	err := newManager(runner).CreateBase(context.Background(), path, 1)

	var toolErr *disk.ToolExecutionError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "qemu-img", toolErr.Tool)
	assert.Contains(t, err.Error(), "permission denied")
	assert.ErrorIs(t, err, assert.AnError)
}

func TestCreateBaseExistingPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "existing")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o600))

	tests := []struct {
		name        string
		runner      *fakeRunner
		expectedErr error
	}{
		{
			name:        "existing image",
			runner:      &fakeRunner{output: []byte(`{"format":"qcow2"}`)},
			expectedErr: disk.ErrDiskExists,
		},
		{
			name:        "existing non-image",
			runner:      &fakeRunner{err: assert.AnError},
			expectedErr: disk.ErrNotAnImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := newManager(tt.runner).CreateBase(context.Background(), path, 1)
			require.ErrorIs(t, err, &disk.ProvisioningError{})
			require.ErrorIs(t, err, tt.expectedErr)

			// Only the inspection must have run, no create.
			require.Len(t, tt.runner.calls, 1)
			assert.Equal(t, "info", tt.runner.calls[0].args[0])
		})
	}
}

func TestCreateBaseInvalidInput(t *testing.T) {
	runner := &fakeRunner{}
	mgr := newManager(runner)

	err := mgr.CreateBase(context.Background(), "", 1)
	require.ErrorIs(t, err, disk.ErrEmptyPath)

	err = mgr.CreateBase(context.Background(), "disk.qcow2", 0)
	require.ErrorIs(t, err, disk.ErrInvalidSize)

	assert.Empty(t, runner.calls)
}

func TestCreateLinkedClone(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.qcow2")
	clone := filepath.Join(dir, "clone.qcow2")

	require.NoError(t, os.WriteFile(base, nil, 0o600))

	runner := &fakeRunner{}

	err := newManager(runner).CreateLinkedClone(context.Background(), clone, base)
	require.NoError(t, err)

	expected := []call{{
		name: "qemu-img",
		args: []string{
			"create", "-f", "qcow2", "-F", "qcow2", "-b", base, clone,
		},
	}}
	assert.Equal(t, expected, runner.calls)
}

func TestCreateLinkedCloneMissingBase(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}

	err := newManager(runner).CreateLinkedClone(
		context.Background(),
		filepath.Join(dir, "clone.qcow2"),
		filepath.Join(dir, "missing.qcow2"),
	)

	require.ErrorIs(t, err, &disk.ProvisioningError{})
	require.ErrorIs(t, err, disk.ErrBaseImageMissing)
	require.NotErrorIs(t, err, &disk.ToolExecutionError{})
	assert.Empty(t, runner.calls)
}

func TestCreateLinkedCloneExistingTarget(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "base.qcow2")
	clone := filepath.Join(dir, "clone.qcow2")

	require.NoError(t, os.WriteFile(base, nil, 0o600))
	require.NoError(t, os.WriteFile(clone, []byte("keep"), 0o600))

	runner := &fakeRunner{}

	err := newManager(runner).CreateLinkedClone(context.Background(), clone, base)
	require.ErrorIs(t, err, disk.ErrDiskExists)
	assert.Empty(t, runner.calls)

	content, err := os.ReadFile(clone)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(content))
}

func TestInfo(t *testing.T) {
	runner := &fakeRunner{
		output: []byte(`{
			"virtual-size": 42949672960,
			"filename": "disk.qcow2",
			"format": "qcow2",
			"actual-size": 200704,
			"backing-filename": "base.qcow2"
		}`),
	}

	info, err := newManager(runner).Info(context.Background(), "disk.qcow2")
	require.NoError(t, err)

	assert.Equal(t, disk.Info{
		Filename:        "disk.qcow2",
		Format:          "qcow2",
		VirtualSize:     40 << 30,
		ActualSize:      200704,
		BackingFilename: "base.qcow2",
	}, info)
	assert.Equal(t, uint64(40), info.VirtualSizeGB())
	assert.Equal(t,
		[]string{"info", "--output=json", "disk.qcow2"},
		runner.calls[0].args,
	)
}

func TestInfoInvalidOutput(t *testing.T) {
	runner := &fakeRunner{output: []byte("not json")}

	_, err := newManager(runner).Info(context.Background(), "disk.qcow2")
	require.Error(t, err)
	assert.NotErrorIs(t, err, &disk.ToolExecutionError{})
}

func TestRunTimeout(t *testing.T) {
	runner := disk.RunnerFunc(func(
		ctx context.Context,
		_ string,
		_ ...string,
	) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	mgr := newManager(runner)
	mgr.Timeout = 1

	_, err := mgr.Info(context.Background(), "disk.qcow2")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, errors.Is(err, &disk.ToolExecutionError{}))
}
