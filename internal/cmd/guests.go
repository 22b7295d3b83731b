// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aibor/vmctl/internal/guest"
	"github.com/aibor/vmctl/internal/ports"
	"github.com/spf13/cobra"
)

var (
	// ErrMissingDisk is returned if no boot disk is given for a guest.
	ErrMissingDisk = errors.New("boot disk required (--disk)")

	// ErrMissingInstaller is returned if the install flow is used without an
	// installer image.
	ErrMissingInstaller = errors.New("installer image required (--iso)")
)

func (a *app) newStartCmd(use string, flow guest.Flow) *cobra.Command {
	flags := newGuestFlags()

	cmd := &cobra.Command{
		Use:  use + " <id>",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGuestID(args[0])
			if err != nil {
				return err
			}

			spec := flags.guestSpec(id)

			if spec.BootDisk == "" {
				return &ParseArgsError{msg: cmd.CommandPath(), err: ErrMissingDisk}
			}

			if flow == guest.FlowInstall && spec.Installer == "" {
				return &ParseArgsError{msg: cmd.CommandPath(), err: ErrMissingInstaller}
			}

			started, err := a.controller().Start(cmd.Context(), spec, flow)
			if err != nil {
				return err
			}

			printStarted(cmd.OutOrStdout(), started)

			return nil
		},
	}

	switch flow {
	case guest.FlowInstall:
		cmd.Short = "Install a guest from an ISO image"
		cmd.Long = "Create an empty boot disk unless it exists and boot the " +
			"installer image attached to the guest."
	default:
		cmd.Short = "Start a guest"
		cmd.Long = "Start a guest from its boot disk. A missing boot disk is " +
			"created as linked clone of the base image."
	}

	flags.register(cmd.Flags())

	return cmd
}

func printStarted(w io.Writer, started *guest.Guest) {
	set := started.Ports()

	pid := 0
	if proc, ok := started.Handle().Process(); ok {
		pid = proc.PID()
	}

	fmt.Fprintf(w, "guest %d (%s) running, pid %d\n",
		started.ID(), started.Spec().Name, pid)
	printPorts(w, set)
}

func printPorts(w io.Writer, set ports.Set) {
	fmt.Fprintf(w, "%-8s localhost:%d\n", "control", set.Control)
	fmt.Fprintf(w, "%-8s localhost:%d\n", "ssh", set.SSH)
	fmt.Fprintf(w, "%-8s localhost:%d (:%d)\n", "display", set.Display, set.DisplayIndex)
}

// attach attaches to all guests with the given ids. Guests that can not be
// attached are skipped and their errors returned joined.
func (a *app) attach(ctx context.Context, ids []uint) ([]*guest.Guest, error) {
	controller := a.controller()

	var (
		guests []*guest.Guest
		errs   []error
	)

	for _, id := range ids {
		attached, err := controller.Attach(ctx, id)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		guests = append(guests, attached)
	}

	return guests, errors.Join(errs...)
}

func (a *app) newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status <id>...",
		Short: "Show the run state of guests",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseGuestIDs(args)
			if err != nil {
				return err
			}

			guests, attachErr := a.attach(cmd.Context(), ids)

			results, err := guest.StatusAll(cmd.Context(), guests)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-4s %-10s %s\n", "ID", "RUNNING", "STATUS")

			var errs []error

			for _, result := range results {
				if result.Err != nil {
					errs = append(errs, result.Err)
					continue
				}

				fmt.Fprintf(out, "%-4d %-10t %s\n",
					result.Guest.ID(), result.Status.Running, result.Status.Status)
			}

			return errors.Join(append([]error{attachErr}, errs...)...)
		},
	}
}

func (a *app) newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <id>",
		Short: "Show the hardware of a guest",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGuestID(args[0])
			if err != nil {
				return err
			}

			attached, err := a.controller().Attach(cmd.Context(), id)
			if err != nil {
				return err
			}

			desc, err := attached.Describe(cmd.Context())
			if err != nil {
				return err
			}

			printDescription(cmd.OutOrStdout(), desc)

			return nil
		},
	}
}

func printDescription(w io.Writer, desc guest.Description) {
	rows := []struct {
		key   string
		value any
	}{
		{"name", desc.Name},
		{"target", desc.Target},
		{"status", desc.Status.Status},
		{"kvm", desc.KVM.Enabled},
		{"memory", fmt.Sprintf("%d MB", desc.MemoryMB)},
		{"cpus", desc.CPUs},
		{"disk", desc.Disk},
		{"installer", desc.Installer},
		{"display", desc.Display},
	}

	for _, row := range rows {
		fmt.Fprintf(w, "%-10s %v\n", row.key, row.value)
	}
}

func (a *app) newQuitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quit <id>...",
		Short: "Stop guests immediately",
		Long: "Stop guests immediately and wait for their processes to " +
			"disappear. The guest operating system is not shut down.",
		Args: minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseGuestIDs(args)
			if err != nil {
				return err
			}

			guests, attachErr := a.attach(cmd.Context(), ids)

			err = guest.QuitAll(cmd.Context(), guests)

			return errors.Join(attachErr, err)
		},
	}
}

func (a *app) newPowerDownCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "powerdown <id>...",
		Short: "Request a graceful shutdown of guests",
		Args:  minArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseGuestIDs(args)
			if err != nil {
				return err
			}

			guests, attachErr := a.attach(cmd.Context(), ids)
			errs := []error{attachErr}

			for _, attached := range guests {
				errs = append(errs, attached.PowerDown(cmd.Context()))
			}

			return errors.Join(errs...)
		},
	}
}

func (a *app) newPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "password <id> <password>",
		Short: "Set the VNC display password of a guest",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGuestID(args[0])
			if err != nil {
				return err
			}

			attached, err := a.controller().Attach(cmd.Context(), id)
			if err != nil {
				return err
			}

			return attached.SetDisplayPassword(cmd.Context(), args[1])
		},
	}
}

func (a *app) newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports <id>",
		Short: "Print the host ports of a guest",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGuestID(args[0])
			if err != nil {
				return err
			}

			printPorts(cmd.OutOrStdout(), a.controller().Ports.For(id))

			return nil
		},
	}
}

func (a *app) newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List running guests",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			listings, err := a.controller().List(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if len(listings) == 0 {
				fmt.Fprintln(out, "No guests running")
				return nil
			}

			fmt.Fprintf(out, "%-4s %-16s %-8s %-8s %-8s %-8s %s\n",
				"ID", "NAME", "PID", "CONTROL", "SSH", "DISPLAY", "FORWARDS")

			for _, listing := range listings {
				forwards := make([]string, len(listing.Forwards))
				for idx, fwd := range listing.Forwards {
					forwards[idx] = fwd.String()
				}

				fmt.Fprintf(out, "%-4d %-16s %-8d %-8d %-8d %-8d %s\n",
					listing.ID,
					listing.Name,
					listing.PID,
					listing.Ports.Control,
					listing.Ports.SSH,
					listing.Ports.Display,
					strings.Join(forwards, ","),
				)
			}

			return nil
		},
	}
}
