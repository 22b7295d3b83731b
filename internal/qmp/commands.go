// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package qmp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Status is the return value of "query-status".
type Status struct {
	Running bool   `json:"running"`
	Status  string `json:"status"`
}

// KVM is the return value of "query-kvm".
type KVM struct {
	Enabled bool `json:"enabled"`
	Present bool `json:"present"`
}

// VNCClient is a client connected to the VNC server.
type VNCClient struct {
	Host    string `json:"host"`
	Service string `json:"service"`
	Family  string `json:"family"`
}

// VNC is the return value of "query-vnc".
type VNC struct {
	Enabled bool        `json:"enabled"`
	Host    string      `json:"host"`
	Service string      `json:"service"`
	Family  string      `json:"family"`
	Auth    string      `json:"auth"`
	Clients []VNCClient `json:"clients"`
}

// MemorySizeSummary is the return value of "query-memory-size-summary".
type MemorySizeSummary struct {
	BaseMemory    uint64 `json:"base-memory"`
	PluggedMemory uint64 `json:"plugged-memory"`
}

// BaseMemoryMB returns the base memory in MiB.
func (m MemorySizeSummary) BaseMemoryMB() uint64 {
	return m.BaseMemory / 1024 / 1024
}

// CPU is a single element of the return value of "query-cpus-fast".
type CPU struct {
	Index    int    `json:"cpu-index"`
	QOMPath  string `json:"qom-path"`
	ThreadID int    `json:"thread-id"`
	Target   string `json:"target"`
}

// BlockDevice describes the medium inserted into a [Block] device.
type BlockDevice struct {
	File        string `json:"file"`
	Driver      string `json:"drv"`
	ReadOnly    bool   `json:"ro"`
	BackingFile string `json:"backing_file,omitempty"`
}

// Block is a single element of the return value of "query-block".
type Block struct {
	Device    string       `json:"device"`
	QDev      string       `json:"qdev"`
	Removable bool         `json:"removable"`
	Locked    bool         `json:"locked"`
	Inserted  *BlockDevice `json:"inserted,omitempty"`
}

// Query executes a command and decodes its return value into T.
func Query[T any](
	ctx context.Context,
	executor Executor,
	command string,
	args any,
) (T, error) {
	var result T

	raw, err := executor.Execute(ctx, command, args)
	if err != nil {
		return result, err
	}

	err = json.Unmarshal(raw, &result)
	if err != nil {
		return result, fmt.Errorf("%w: decode return of %s: %w",
			ErrProtocol, command, err)
	}

	return result, nil
}

// QueryStatus returns the run state of the guest.
func QueryStatus(ctx context.Context, executor Executor) (Status, error) {
	return Query[Status](ctx, executor, "query-status", nil)
}

// QueryName returns the name of the guest.
func QueryName(ctx context.Context, executor Executor) (string, error) {
	result, err := Query[struct {
		Name string `json:"name"`
	}](ctx, executor, "query-name", nil)

	return result.Name, err
}

// QueryTarget returns the target architecture of the emulator.
func QueryTarget(ctx context.Context, executor Executor) (string, error) {
	result, err := Query[struct {
		Arch string `json:"arch"`
	}](ctx, executor, "query-target", nil)

	return result.Arch, err
}

// QueryKVM returns the KVM state.
func QueryKVM(ctx context.Context, executor Executor) (KVM, error) {
	return Query[KVM](ctx, executor, "query-kvm", nil)
}

// QueryVNC returns the VNC server state.
func QueryVNC(ctx context.Context, executor Executor) (VNC, error) {
	return Query[VNC](ctx, executor, "query-vnc", nil)
}

// QueryMemorySizeSummary returns the memory size of the guest.
func QueryMemorySizeSummary(
	ctx context.Context,
	executor Executor,
) (MemorySizeSummary, error) {
	return Query[MemorySizeSummary](ctx, executor, "query-memory-size-summary", nil)
}

// QueryCPUsFast returns the virtual CPUs of the guest.
func QueryCPUsFast(ctx context.Context, executor Executor) ([]CPU, error) {
	return Query[[]CPU](ctx, executor, "query-cpus-fast", nil)
}

// QueryBlock returns the block devices of the guest.
func QueryBlock(ctx context.Context, executor Executor) ([]Block, error) {
	return Query[[]Block](ctx, executor, "query-block", nil)
}

// ChangeVNCPassword sets the password of the VNC server.
func ChangeVNCPassword(
	ctx context.Context,
	executor Executor,
	password string,
) error {
	args := struct {
		Password string `json:"password"`
	}{
		Password: password,
	}

	_, err := executor.Execute(ctx, "change-vnc-password", args)

	return err
}

// SystemPowerdown requests an ACPI shutdown of the guest. It does not wait
// for the guest to shut down.
func SystemPowerdown(ctx context.Context, executor Executor) error {
	_, err := executor.Execute(ctx, "system_powerdown", nil)
	return err
}

// Quit terminates the emulator immediately. The server may close the
// connection before the reply arrives, which is considered a success once
// the command was sent.
func Quit(ctx context.Context, executor Executor) error {
	_, err := executor.Execute(ctx, "quit", nil)
	if errors.Is(err, ErrConnectionLost) && errors.Is(err, io.EOF) {
		return nil
	}

	return err
}
