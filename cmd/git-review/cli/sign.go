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

package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/sigstore/git-review/cmd/git-review/cli/options"
	"github.com/sigstore/git-review/pkg/failure"
	"github.com/sigstore/git-review/pkg/gpg"
	"github.com/sigstore/git-review/pkg/objectstore"
	"github.com/sigstore/git-review/pkg/signing"
)

// Sign creates the sign command.
func Sign() *cobra.Command {
	o := &options.SignOptions{}

	long := `Add a signature by KEY_ID to COMMIT (HEAD by default).

The commit's signable payload is signed with gpg and the new signature
packets are appended to any existing gpgsig header, so earlier signers stay
valid. The signed commit is written to the object store and its id printed.
No ref is updated; point a branch at the new id to publish it.

KEY_ID may be omitted when GIT_REVIEW_SIGNING_KEY is set.`

	cmd := &cobra.Command{
		Use:   "sign [OPTIONS] [KEY_ID] [COMMIT]",
		Short: "Add a signature to a commit.",
		Long:  long,
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSign(cmd, o, args)
		},
	}

	o.AddFlags(cmd)
	return cmd
}

func runSign(cmd *cobra.Command, o *options.SignOptions, args []string) error {
	cfg, err := o.Config(cmd)
	if err != nil {
		return err
	}

	identity, rev := cfg.SigningKey, "HEAD"
	if len(args) > 0 {
		identity = args[0]
	}
	if len(args) > 1 {
		rev = args[1]
	}
	if identity == "" {
		return failure.New(failure.Configuration, "no signing key: pass KEY_ID or set GIT_REVIEW_SIGNING_KEY", nil)
	}

	obs, err := ro.NewObservability()
	if err != nil {
		return err
	}
	store, err := objectstore.Open(cfg.Backend, cfg.StoreOptions())
	if err != nil {
		return err
	}

	signer := &signing.CommitSigner{
		Store:  store,
		Signer: &gpg.Signer{Path: cfg.GPGPath},
		Logger: obs.Logger,
		DryRun: o.DryRun,
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), ro.Timeout)
	defer cancel()
	res, err := signer.Sign(ctx, rev, identity)
	if err != nil {
		return err
	}
	return writeSignResult(cmd.OutOrStdout(), res, o.Format)
}
