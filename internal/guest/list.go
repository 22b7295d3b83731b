// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/aibor/vmctl/internal/ports"
	"github.com/aibor/vmctl/internal/process"
	"github.com/aibor/vmctl/internal/qemu"
)

// Listing is a guest found in the process table.
type Listing struct {
	ID       uint
	Name     string
	PID      int
	Ports    ports.Set
	Forwards []qemu.PortForward
}

// List returns all guests present in the given process table, ordered by id.
// Guests are recognized by the process marker in their "-name" argument.
// Forwards lists the additional port forwards besides SSH.
func List(ctx context.Context, table process.Table, scheme ports.Scheme) ([]Listing, error) {
	entries, err := table.List(ctx)
	if err != nil {
		return nil, err
	}

	var listings []Listing

	for _, entry := range entries {
		listing, ok := parseListing(entry, scheme)
		if ok {
			listings = append(listings, listing)
		}
	}

	slices.SortFunc(listings, func(a, b Listing) int {
		return cmp.Compare(a.ID, b.ID)
	})

	return listings, nil
}

func parseListing(entry process.Entry, scheme ports.Scheme) (Listing, bool) {
	name, id, found := parseNameArg(entry.Args)
	if !found {
		return Listing{}, false
	}

	listing := Listing{
		ID:    id,
		Name:  name,
		PID:   entry.PID,
		Ports: scheme.For(id),
	}

	var forwards []qemu.PortForward

	fields := strings.Fields(entry.Args)
	for idx := 0; idx+1 < len(fields); idx++ {
		if fields[idx] == "-netdev" {
			forwards = append(forwards, parseHostForwards(fields[idx+1])...)
		}
	}

	for _, forward := range forwards {
		if int(forward.Host) == listing.Ports.SSH && forward.Guest == 22 {
			continue
		}

		listing.Forwards = append(listing.Forwards, forward)
	}

	return listing, true
}

// parseNameArg parses the "-name" argument of a command line. The name may
// contain whitespace but no commas, so it ends at the first comma. The options
// following it end at the next whitespace.
func parseNameArg(args string) (string, uint, bool) {
	_, value, found := strings.Cut(args, " -name ")
	if !found {
		return "", 0, false
	}

	name, opts, found := strings.Cut(value, ",")
	if !found {
		return "", 0, false
	}

	if idx := strings.IndexAny(opts, " \t"); idx >= 0 {
		opts = opts[:idx]
	}

	for _, opt := range strings.Split(opts, ",") {
		if id, ok := qemu.ParseProcessMarker(opt); ok {
			return strings.TrimPrefix(name, "guest="), id, true
		}
	}

	return "", 0, false
}

// parseHostForwards parses "hostfwd=tcp::H-:G" clauses of a user mode
// network backend.
func parseHostForwards(netdev string) []qemu.PortForward {
	var forwards []qemu.PortForward

	for _, opt := range strings.Split(netdev, ",") {
		clause, found := strings.CutPrefix(opt, "hostfwd=tcp:")
		if !found {
			continue
		}

		host, guest, found := strings.Cut(clause, "-")
		if !found {
			continue
		}

		hostPort, err := parsePort(host)
		if err != nil {
			continue
		}

		guestPort, err := parsePort(guest)
		if err != nil {
			continue
		}

		forwards = append(forwards, qemu.PortForward{
			Host:  hostPort,
			Guest: guestPort,
		})
	}

	return forwards
}

// parsePort parses the port of an "[addr]:port" string.
func parsePort(s string) (uint16, error) {
	idx := strings.LastIndex(s, ":")
	port, err := strconv.ParseUint(s[idx+1:], 10, 16)

	return uint16(port), err
}
