// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"strings"

	"github.com/aibor/vmctl/internal/remote"
	"github.com/spf13/cobra"
)

const (
	userDefault    = "root"
	commentDefault = "vmctl"
)

func (a *app) newExecCmd() *cobra.Command {
	var client remote.Client

	cmd := &cobra.Command{
		Use:   "exec <id> -- <command>...",
		Short: "Run a command on a guest via SSH",
		Long: "Run a command on a guest via its forwarded SSH port. The exit " +
			"status of the remote command is passed through.",
		Args: minArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseGuestID(args[0])
			if err != nil {
				return err
			}

			target := remote.NewClient(a.controller().Ports.For(id).SSH, client.User)
			target.Password = client.Password
			target.KeyFile = client.KeyFile
			target.KnownHostsFile = client.KnownHostsFile

			if client.Timeout > 0 {
				target.Timeout = client.Timeout
			}

			return target.Run(
				cmd.Context(),
				strings.Join(args[1:], " "),
				cmd.OutOrStdout(),
				cmd.ErrOrStderr(),
			)
		},
	}

	flags := cmd.Flags()

	flags.StringVarP(
		&client.User,
		"user",
		"u",
		userDefault,
		"remote user",
	)

	flags.StringVar(
		&client.Password,
		"password",
		"",
		"password for authentication",
	)

	flags.StringVarP(
		&client.KeyFile,
		"identity",
		"i",
		"",
		"private key file for authentication",
	)

	flags.StringVar(
		&client.KnownHostsFile,
		"known-hosts",
		"",
		"known_hosts file to verify the host key with",
	)

	flags.DurationVar(
		&client.Timeout,
		"timeout",
		remote.DefaultTimeout,
		"connection timeout",
	)

	return cmd
}

func (a *app) newKeygenCmd() *cobra.Command {
	comment := commentDefault

	cmd := &cobra.Command{
		Use:   "keygen <path>",
		Short: "Generate an SSH key pair for guest access",
		Long: "Generate an ed25519 key pair. The private key is written to " +
			"<path>, the public key to <path>.pub. The public key is printed " +
			"in authorized_keys format.",
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			authorized, err := remote.GenerateKey(args[0], comment)
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(authorized)

			return err
		},
	}

	cmd.Flags().StringVarP(
		&comment,
		"comment",
		"C",
		comment,
		"key comment",
	)

	return cmd
}
