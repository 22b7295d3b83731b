// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package disk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"
)

const (
	// DefaultTool is the image tool used by [NewManager].
	DefaultTool = "qemu-img"

	// FormatQCOW2 is the copy-on-write container format.
	FormatQCOW2 = "qcow2"

	// DefaultTimeout bounds a single tool invocation.
	DefaultTimeout = 2 * time.Minute
)

// Info describes an existing disk image as reported by the image tool.
type Info struct {
	Filename        string `json:"filename"`
	Format          string `json:"format"`
	VirtualSize     uint64 `json:"virtual-size"`
	ActualSize      uint64 `json:"actual-size"`
	BackingFilename string `json:"backing-filename,omitempty"`
}

// VirtualSizeGB returns the virtual size in GiB, as passed on creation.
func (i Info) VirtualSizeGB() uint64 {
	return i.VirtualSize >> 30
}

// Manager creates and inspects disk images.
type Manager struct {
	// Tool is the image tool executable.
	Tool string

	// Format is the image format used for created images and for the backing
	// file of linked clones.
	Format string

	// Runner runs the tool.
	Runner Runner

	// Timeout bounds each tool invocation. Zero means no bound besides the
	// context passed by the caller.
	Timeout time.Duration
}

// NewManager returns a [Manager] using qemu-img with qcow2 images.
func NewManager() *Manager {
	return &Manager{
		Tool:    DefaultTool,
		Format:  FormatQCOW2,
		Runner:  ExecRunner,
		Timeout: DefaultTimeout,
	}
}

// Exists reports whether a file exists at the given path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CreateBase creates a standalone image of the given size in GiB.
//
// It never overwrites an existing file. If the path exists already, a
// [ProvisioningError] is returned that wraps [ErrDiskExists] for existing
// images and [ErrNotAnImage] for anything else.
func (m *Manager) CreateBase(ctx context.Context, path string, sizeGB uint64) error {
	if path == "" {
		return &ProvisioningError{Path: path, Err: ErrEmptyPath}
	}

	if sizeGB == 0 {
		return &ProvisioningError{Path: path, Err: ErrInvalidSize}
	}

	err := m.checkTarget(ctx, path)
	if err != nil {
		return err
	}

	slog.Debug("Create base image",
		slog.String("path", path),
		slog.Uint64("size_gb", sizeGB))

	_, err = m.run(ctx,
		"create",
		"-f", m.Format,
		path,
		strconv.FormatUint(sizeGB, 10)+"G",
	)

	return err
}

// CreateLinkedClone creates an image at path that uses basePath as backing
// file.
//
// The base image must exist and be readable, otherwise a [ProvisioningError]
// wrapping [ErrBaseImageMissing] is returned without invoking the tool. An
// existing file at path is never overwritten.
func (m *Manager) CreateLinkedClone(ctx context.Context, path, basePath string) error {
	if path == "" || basePath == "" {
		return &ProvisioningError{Path: path, Err: ErrEmptyPath}
	}

	base, err := os.Open(basePath)
	if err != nil {
		return &ProvisioningError{
			Path: path,
			Err:  fmt.Errorf("%w: %w", ErrBaseImageMissing, err),
		}
	}

	_ = base.Close()

	if Exists(path) {
		return &ProvisioningError{Path: path, Err: ErrDiskExists}
	}

	slog.Debug("Create linked clone",
		slog.String("path", path),
		slog.String("base", basePath))

	_, err = m.run(ctx,
		"create",
		"-f", m.Format,
		"-F", m.Format,
		"-b", basePath,
		path,
	)

	return err
}

// Info inspects the image at the given path.
func (m *Manager) Info(ctx context.Context, path string) (Info, error) {
	var info Info

	out, err := m.run(ctx, "info", "--output=json", path)
	if err != nil {
		return info, err
	}

	err = json.Unmarshal(out, &info)
	if err != nil {
		return info, fmt.Errorf("decode image info: %w", err)
	}

	return info, nil
}

// checkTarget returns an error if something exists at path.
func (m *Manager) checkTarget(ctx context.Context, path string) error {
	_, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return &ProvisioningError{Path: path, Err: err}
	}

	_, err = m.Info(ctx, path)
	if err != nil {
		return &ProvisioningError{Path: path, Err: ErrNotAnImage}
	}

	return &ProvisioningError{Path: path, Err: ErrDiskExists}
}

func (m *Manager) run(ctx context.Context, args ...string) ([]byte, error) {
	if m.Timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	out, err := m.Runner.Run(ctx, m.Tool, args...)
	if err != nil {
		return nil, &ToolExecutionError{
			Tool:   m.Tool,
			Args:   args,
			Output: string(out),
			Err:    err,
		}
	}

	return out, nil
}
