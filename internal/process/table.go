// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// Entry is a single process table entry.
type Entry struct {
	PID  int
	Args string
}

// HasToken reports whether the given token is present in the arguments of
// the entry. Arguments are split at white space and commas, so the token must
// match a complete argument or option.
func (e Entry) HasToken(token string) bool {
	fields := strings.FieldsFunc(e.Args, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	return slices.Contains(fields, token)
}

// Table lists the processes present on the host.
type Table interface {
	List(ctx context.Context) ([]Entry, error)
}

// TableFunc adapts a function to the [Table] interface.
type TableFunc func(ctx context.Context) ([]Entry, error)

// List implements [Table].
func (f TableFunc) List(ctx context.Context) ([]Entry, error) {
	return f(ctx)
}

// Find returns all entries of the table that have the given marker token.
func Find(ctx context.Context, table Table, marker string) ([]Entry, error) {
	entries, err := table.List(ctx)
	if err != nil {
		return nil, err
	}

	var found []Entry

	for _, entry := range entries {
		if entry.HasToken(marker) {
			found = append(found, entry)
		}
	}

	return found, nil
}

// PSTable reads the process table using ps(1). The invocation works with
// both procps and BSD ps.
type PSTable struct{}

// List implements [Table].
func (PSTable) List(ctx context.Context) ([]Entry, error) {
	out, err := exec.CommandContext(ctx, "ps", "-A", "-o", "pid=,args=").Output()
	if err != nil {
		return nil, fmt.Errorf("ps: %w", err)
	}

	return ParseTable(out)
}

// ParseTable parses ps output with one "pid args" line per process.
func ParseTable(out []byte) ([]Entry, error) {
	var entries []Entry

	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		pidStr, args, _ := strings.Cut(line, " ")

		pid, err := strconv.Atoi(pidStr)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidTableLine, line)
		}

		entries = append(entries, Entry{
			PID:  pid,
			Args: strings.TrimSpace(args),
		})
	}

	err := scanner.Err()
	if err != nil {
		return nil, fmt.Errorf("read process table: %w", err)
	}

	return entries, nil
}

// Alive checks if a process with the given pid exists by sending signal 0.
func Alive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}
