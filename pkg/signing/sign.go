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

package signing

import (
	"context"
	"fmt"

	"github.com/sigstore/git-review/pkg/armor"
	"github.com/sigstore/git-review/pkg/commit"
	"github.com/sigstore/git-review/pkg/failure"
	"github.com/sigstore/git-review/pkg/interfaces"
	"github.com/sigstore/git-review/pkg/logging"
	"github.com/sigstore/git-review/pkg/objectid"
	"github.com/sigstore/git-review/pkg/tracing"
)

// Result represents the outcome of signing a commit.
type Result struct {
	// ID is the object id of the signed commit.
	ID string `json:"id"`
	// Source is the object id the signed commit was derived from.
	Source string `json:"source"`
	// Signers describes the packets the signer produced.
	Signers []armor.PacketInfo `json:"signers"`
	// Signatures is the number of signature packets the commit now carries.
	Signatures int `json:"signatures"`
	// Written is false for dry runs.
	Written bool `json:"written"`
	// Commit holds the signed commit bytes.
	Commit []byte `json:"-"`
}

// CommitSigner adds one signature to an existing commit object and stores
// the result as a new object. Refs are never updated.
type CommitSigner struct {
	Store  interfaces.ObjectStore
	Signer interfaces.Signer
	Logger logging.Logger
	// DryRun computes the new object id without writing it.
	DryRun bool
}

// Sign reads the commit rev names, signs its signable payload as identity,
// merges the new packets with any existing ones and writes the commit.
func (s *CommitSigner) Sign(ctx context.Context, rev, identity string) (Result, error) {
	log := logging.EnsureLogger(s.Logger).WithFields(map[string]interface{}{"rev": rev, "key": identity})

	var res Result
	err := tracing.Run(ctx, tracing.SpanSign, map[string]interface{}{"rev": rev, "key": identity, "dry_run": s.DryRun}, func(ctx context.Context) error {
		raw, err := s.Store.Read(ctx, rev)
		if err != nil {
			return fmt.Errorf("reading %s: %w", rev, err)
		}
		format, err := s.Store.ObjectFormat(ctx)
		if err != nil {
			return err
		}
		res.Source = objectid.Compute(format, objectid.TypeCommit, raw).String()

		obj, err := commit.Parse(raw)
		if err != nil {
			return err
		}
		if obj.HasSignature() {
			log.Debugln("commit already signed, appending signature")
		}

		sig, err := s.Signer.Sign(ctx, obj.SignablePayload(), identity)
		if err != nil {
			return err
		}

		res.Signers, err = armor.Inspect(sig)
		if err != nil {
			return fmt.Errorf("signer output: %w", err)
		}
		for _, p := range res.Signers {
			log.Debug("new signature packet from %s", p.Issuer())
		}

		value, err := MergeSignature(obj, sig)
		if err != nil {
			return err
		}
		obj.SetSignature(value)
		res.Commit = obj.Reconstruct()

		merged, err := armor.Dearmor(value)
		if err != nil {
			return err
		}
		all, err := armor.Inspect(merged)
		if err != nil {
			return err
		}
		res.Signatures = len(all)

		want := objectid.Compute(format, objectid.TypeCommit, res.Commit)
		if s.DryRun {
			res.ID = want.String()
			log.Info("dry run: signed commit would be %s", res.ID)
			return nil
		}

		return tracing.Run(ctx, tracing.SpanWriteObject, nil, func(ctx context.Context) error {
			id, err := s.Store.Write(ctx, res.Commit)
			if err != nil {
				return fmt.Errorf("writing signed commit: %w", err)
			}
			got, err := objectid.Parse(id)
			if err != nil {
				return err
			}
			if !got.Equal(want) {
				return failure.Newf(failure.Consistency, "object store named the signed commit %s, expected %s", id, want)
			}
			res.ID = id
			res.Written = true
			log.Info("wrote signed commit %s", id)
			return nil
		})
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}
