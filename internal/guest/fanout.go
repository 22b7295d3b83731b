// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package guest

import (
	"context"
	"errors"
	"fmt"

	"github.com/aibor/vmctl/internal/qmp"
	"golang.org/x/sync/errgroup"
)

// ErrDuplicateGuest is returned by fan-out operations if a guest id is given
// more than once.
var ErrDuplicateGuest = errors.New("duplicate guest")

const maxParallel = 8

// StatusResult is the result of [StatusAll] for a single guest.
type StatusResult struct {
	Guest  *Guest
	Status qmp.Status
	Err    error
}

// QuitAll quits all given guests concurrently. It waits for all of them and
// returns the errors of all failed guests.
func QuitAll(ctx context.Context, guests []*Guest) error {
	err := checkUnique(guests)
	if err != nil {
		return err
	}

	errs := make([]error, len(guests))

	forEach(guests, func(idx int, guest *Guest) {
		errs[idx] = guest.Quit(ctx)
	})

	return errors.Join(errs...)
}

// StatusAll queries the status of all given guests concurrently.
func StatusAll(ctx context.Context, guests []*Guest) ([]StatusResult, error) {
	err := checkUnique(guests)
	if err != nil {
		return nil, err
	}

	results := make([]StatusResult, len(guests))

	forEach(guests, func(idx int, guest *Guest) {
		status, err := guest.Status(ctx)
		results[idx] = StatusResult{
			Guest:  guest,
			Status: status,
			Err:    err,
		}
	})

	return results, nil
}

// checkUnique rejects concurrent operations on the same guest, as they would
// race on its control channel.
func checkUnique(guests []*Guest) error {
	seen := make(map[uint]struct{}, len(guests))

	for _, guest := range guests {
		if _, exists := seen[guest.ID()]; exists {
			return fmt.Errorf("%w: %d", ErrDuplicateGuest, guest.ID())
		}

		seen[guest.ID()] = struct{}{}
	}

	return nil
}

func forEach(guests []*Guest, fn func(idx int, guest *Guest)) {
	var group errgroup.Group

	group.SetLimit(maxParallel)

	for idx, guest := range guests {
		group.Go(func() error {
			fn(idx, guest)
			return nil
		})
	}

	_ = group.Wait()
}
