// SPDX-FileCopyrightText: 2026 Tobias Böhm <code@aibor.de>
//
// SPDX-License-Identifier: GPL-3.0-or-later

package remote

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/pem"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"
)

// GenerateKey creates a new ed25519 key pair. The private key is written to
// path in OpenSSH format, the public key to path with ".pub" suffix in
// authorized_keys format. Existing files are not overwritten. The
// authorized_keys line is returned.
func GenerateKey(path, comment string) ([]byte, error) {
	pubPath := path + ".pub"

	for _, p := range []string{path, pubPath} {
		if _, err := os.Stat(p); err == nil {
			return nil, fmt.Errorf("%w: %s", ErrKeyExists, p)
		}
	}

	pubKey, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}

	block, err := ssh.MarshalPrivateKey(privKey, comment)
	if err != nil {
		return nil, fmt.Errorf("marshal private key: %w", err)
	}

	sshPubKey, err := ssh.NewPublicKey(pubKey)
	if err != nil {
		return nil, fmt.Errorf("convert public key: %w", err)
	}

	authorized := ssh.MarshalAuthorizedKey(sshPubKey)
	if comment != "" {
		authorized = append(bytes.TrimSuffix(authorized, []byte("\n")), ' ')
		authorized = append(authorized, comment+"\n"...)
	}

	err = os.WriteFile(path, pem.EncodeToMemory(block), 0o600)
	if err != nil {
		return nil, fmt.Errorf("write private key: %w", err)
	}

	err = os.WriteFile(pubPath, authorized, 0o644)
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write public key: %w", err)
	}

	return authorized, nil
}
