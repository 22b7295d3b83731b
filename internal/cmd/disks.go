// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) newDiskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "disk",
		Short: "Manage disk images",
	}

	cmd.AddCommand(
		a.newDiskCreateCmd(),
		a.newDiskCloneCmd(),
		a.newDiskInfoCmd(),
	)

	return cmd
}

func (a *app) newDiskCreateCmd() *cobra.Command {
	sizeGB := uint64(diskSizeDefault)

	cmd := &cobra.Command{
		Use:   "create <path>",
		Short: "Create an empty base image",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.newDisks().CreateBase(cmd.Context(), args[0], sizeGB)
		},
	}

	cmd.Flags().Var(
		newRangeValue(&sizeGB, diskSizeMin, diskSizeMax),
		"size",
		"size in GB",
	)

	return cmd
}

func (a *app) newDiskCloneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clone <path> <base>",
		Short: "Create a linked clone of a base image",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.newDisks().CreateLinkedClone(cmd.Context(), args[0], args[1])
		},
	}
}

func (a *app) newDiskInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info <path>",
		Short: "Show details of an image",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := a.newDisks().Info(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-13s %s\n", "file", info.Filename)
			fmt.Fprintf(out, "%-13s %s\n", "format", info.Format)
			fmt.Fprintf(out, "%-13s %d GB\n", "virtual size", info.VirtualSizeGB())
			fmt.Fprintf(out, "%-13s %d\n", "actual size", info.ActualSize)

			if info.BackingFilename != "" {
				fmt.Fprintf(out, "%-13s %s\n", "backing file", info.BackingFilename)
			}

			return nil
		},
	}
}
