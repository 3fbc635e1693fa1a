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
	"github.com/sigstore/git-review/pkg/gpg"
	"github.com/sigstore/git-review/pkg/objectstore"
	"github.com/sigstore/git-review/pkg/review"
	"github.com/sigstore/git-review/pkg/verify"
)

// ExitRejected is the exit code of a review whose commit fails the policy.
const ExitRejected = 1

// Review creates the review command.
func Review() *cobra.Command {
	o := &options.ReviewOptions{}

	long := `Verify the signatures on COMMIT (HEAD by default).

Every signature packet is checked with gpgv against each keyring listed in
the keyring configuration (--keyrings). A key is trusted when at least one
keyring verifies it, and the commit is rejected as soon as any known key
produced an invalid signature. Commits without a trusted signature are
rejected unless --allow-unsigned is given.

The commit headers and the aggregated status are printed either way; the
exit code is 1 when the commit is rejected.`

	cmd := &cobra.Command{
		Use:   "review [OPTIONS] [COMMIT]",
		Short: "Verify a commit against the configured keyrings.",
		Long:  long,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rev := "HEAD"
			if len(args) == 1 {
				rev = args[0]
			}
			return runReview(cmd, o, rev)
		},
	}

	o.AddFlags(cmd)
	return cmd
}

func runReview(cmd *cobra.Command, o *options.ReviewOptions, rev string) error {
	cfg, err := o.Config(cmd)
	if err != nil {
		return err
	}
	obs, err := ro.NewObservability()
	if err != nil {
		return err
	}
	log := obs.Logger

	keyrings, err := cfg.LoadKeyrings()
	if err != nil {
		return err
	}
	store, err := objectstore.Open(cfg.Backend, cfg.StoreOptions())
	if err != nil {
		return err
	}
	log.Debug("reviewing %s against %d keyring(s) using the %s backend", rev, len(keyrings), cfg.Backend)

	reviewer := &review.Reviewer{
		Store:       store,
		Verifier:    &gpg.Verifier{Path: cfg.GPGVPath},
		Keyrings:    keyrings,
		Logger:      log,
		Concurrency: cfg.Concurrency,
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), ro.Timeout)
	defer cancel()
	report, err := reviewer.Review(ctx, rev)
	if err != nil {
		return err
	}

	if err := writeReport(cmd.OutOrStdout(), report, o.Format); err != nil {
		return err
	}

	policy := verify.Policy{AllowUnsigned: cfg.AllowUnsigned}
	if err := policy.Evaluate(report.Signatures); err != nil {
		return &exitError{err: err, code: ExitRejected}
	}
	log.Info("commit %s accepted", report.ID)
	return nil
}
