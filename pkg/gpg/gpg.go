// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package gpg adapts the gpg and gpgv executables to the Signer and
// Verifier interfaces.
package gpg

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/sigstore/git-review/internal/command"
	"github.com/sigstore/git-review/pkg/failure"
	"github.com/sigstore/git-review/pkg/gpgstatus"
	"github.com/sigstore/git-review/pkg/interfaces"
	"github.com/sigstore/git-review/pkg/keyring"
)

// Default executables, looked up on PATH.
const (
	DefaultGPG  = "gpg"
	DefaultGPGV = "gpgv"
)

var (
	_ interfaces.Signer   = (*Signer)(nil)
	_ interfaces.Verifier = (*Verifier)(nil)
)

// Signer creates detached signatures with gpg.
type Signer struct {
	// Path is the gpg executable; DefaultGPG when empty.
	Path string
	// Env is passed to gpg when set, e.g. to select a GNUPGHOME.
	Env []string
}

// Sign runs gpg --detach-sign over payload with identity as the default
// key and returns the binary signature packets.
func (s *Signer) Sign(ctx context.Context, payload []byte, identity string) ([]byte, error) {
	if identity == "" {
		return nil, failure.New(failure.Configuration, "no signing key given", nil)
	}

	path := orDefault(s.Path, DefaultGPG)
	res, err := command.Run(ctx, command.Cmd{
		Path:  path,
		Args:  []string{"--batch", "--no-tty", "--detach-sign", "--default-key", identity, "--output", "-"},
		Env:   s.Env,
		Stdin: payload,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Stdout) == 0 {
		return nil, failure.At(failure.ExternalProcess, path, "gpg produced no signature", nil)
	}
	return res.Stdout, nil
}

// Verifier checks signatures with gpgv against one keyring at a time.
type Verifier struct {
	// Path is the gpgv executable; DefaultGPGV when empty.
	Path string
	// TempDir holds the signature file gpgv reads; os.TempDir when empty.
	TempDir string
}

// Verify writes the armored signature to a temporary file and runs gpgv on
// it with payload on stdin, returning what gpgv wrote to its status fd.
//
// gpgv exits non-zero whenever a signature does not verify. That outcome is
// carried by the status lines, so a failed run that still produced status
// lines is not an error.
func (v *Verifier) Verify(ctx context.Context, signature string, payload []byte, kr keyring.Keyring) (string, error) {
	if signature == "" {
		return "", nil
	}

	// gpgv resolves bare keyring names against its home directory.
	keyringPath, err := filepath.Abs(kr.Filename)
	if err != nil {
		return "", failure.At(failure.Configuration, kr.ID, "resolving keyring path", err)
	}

	sigFile, err := os.CreateTemp(v.TempDir, "git-review-*.asc")
	if err != nil {
		return "", err
	}
	defer os.Remove(sigFile.Name())

	if _, err := sigFile.WriteString(signature); err != nil {
		sigFile.Close()
		return "", err
	}
	if err := sigFile.Close(); err != nil {
		return "", err
	}

	res, err := command.Run(ctx, command.Cmd{
		Path:  orDefault(v.Path, DefaultGPGV),
		Args:  []string{"--keyring", keyringPath, "--status-fd", "1", sigFile.Name(), "-"},
		Stdin: payload,
	})
	if err != nil {
		if ctx.Err() == nil && res.ExitCode > 0 && hasStatusLines(res.Stdout) {
			return string(res.Stdout), nil
		}
		return "", err
	}
	return string(res.Stdout), nil
}

func hasStatusLines(out []byte) bool {
	return bytes.HasPrefix(out, []byte(gpgstatus.Prefix)) ||
		bytes.Contains(out, []byte("\n"+gpgstatus.Prefix))
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
